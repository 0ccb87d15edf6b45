package ingest

import (
	"errors"
	"fmt"

	"github.com/xiaoyuanzhu-com/review-digest/db"
	"github.com/xiaoyuanzhu-com/review-digest/log"
)

var logger = log.GetLogger("Ingest")

// Store is the persistence the importer writes to
type Store interface {
	GetApp(appID string) (*db.App, error)
	AddApp(app db.App) (bool, error)
	SaveReviews(appID string, reviews []db.Review) (int, error)
}

// Indexer receives reviews for keyword search
type Indexer interface {
	IndexReviews(appID string, reviews []db.Review) error
}

// Result summarizes one imported batch
type Result struct {
	AppID      string `json:"appId"`
	AppCreated bool   `json:"appCreated"`
	Received   int    `json:"received"`
	Saved      int    `json:"saved"`
	Duplicates int    `json:"duplicates"`
	Indexed    bool   `json:"indexed"`
}

// Importer stores review batches and forwards them to the search index
type Importer struct {
	store Store
	index Indexer

	onImported func(Result)
}

func NewImporter(store Store, index Indexer) *Importer {
	return &Importer{store: store, index: index}
}

// SetImportHandler registers a callback run after every batch that saved
// at least one review. Call before the importer is shared.
func (im *Importer) SetImportHandler(fn func(Result)) {
	im.onImported = fn
}

// Import validates and stores a batch, registering the app first when the
// batch names it.
func (im *Importer) Import(b *Batch) (*Result, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	res := &Result{AppID: b.AppID, Received: len(b.Reviews)}

	_, err := im.store.GetApp(b.AppID)
	switch {
	case errors.Is(err, db.ErrNotFound):
		if b.AppName == "" {
			return nil, fmt.Errorf("%w: %s", ErrUnknownApp, b.AppID)
		}
		created, err := im.store.AddApp(db.App{AppID: b.AppID, AppName: b.AppName, AppLogo: b.AppLogo})
		if err != nil {
			return nil, err
		}
		res.AppCreated = created
	case err != nil:
		return nil, err
	}

	reviews := b.DBReviews()
	saved, err := im.store.SaveReviews(b.AppID, reviews)
	if err != nil {
		return nil, err
	}
	res.Saved = saved
	res.Duplicates = res.Received - saved

	if im.index != nil {
		if err := im.index.IndexReviews(b.AppID, reviews); err != nil {
			// indexing failures do not fail the import
			logger.Warn().Err(err).Str("appId", b.AppID).Msg("failed to index reviews")
		} else {
			res.Indexed = true
		}
	}

	logger.Info().
		Str("appId", b.AppID).
		Int("received", res.Received).
		Int("saved", res.Saved).
		Bool("appCreated", res.AppCreated).
		Msg("review batch imported")

	if im.onImported != nil && res.Saved > 0 {
		im.onImported(*res)
	}

	return res, nil
}
