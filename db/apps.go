package db

import (
	"database/sql"
	"fmt"
)

const appColumns = `app_id, app_name, app_logo, created_at, updated_at`

func scanApp(row interface{ Scan(...any) error }) (App, error) {
	var a App
	err := row.Scan(&a.AppID, &a.AppName, &a.AppLogo, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

// ListApps returns every registered app ordered by name
func (d *DB) ListApps() ([]App, error) {
	query := `SELECT ` + appColumns + ` FROM apps ORDER BY app_name, app_id`
	return Select(d, query, nil, func(rows *sql.Rows) (App, error) {
		return scanApp(rows)
	})
}

// GetApp retrieves an app by ID, returning ErrNotFound if it is not registered
func (d *DB) GetApp(appID string) (*App, error) {
	query := `SELECT ` + appColumns + ` FROM apps WHERE app_id = ?`
	app, err := SelectOne(d, query, []QueryParam{appID}, func(row *sql.Row) (App, error) {
		return scanApp(row)
	})
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, ErrNotFound
	}
	return app, nil
}

// AddApp registers an app. It reports false without error when the app
// already exists; existing rows are left untouched.
func (d *DB) AddApp(app App) (bool, error) {
	now := NowMs()
	result, err := d.Run(`
		INSERT OR IGNORE INTO apps (app_id, app_name, app_logo, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, app.AppID, app.AppName, app.AppLogo, now, now)
	if err != nil {
		return false, fmt.Errorf("failed to add app %s: %w", app.AppID, err)
	}

	affected, _ := result.RowsAffected()
	return affected > 0, nil
}
