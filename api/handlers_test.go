package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/xiaoyuanzhu-com/review-digest/auth"
	"github.com/xiaoyuanzhu-com/review-digest/db"
	"github.com/xiaoyuanzhu-com/review-digest/sampler"
	"github.com/xiaoyuanzhu-com/review-digest/vendors"
	"github.com/xiaoyuanzhu-com/review-digest/workers/ingest"
	"github.com/xiaoyuanzhu-com/review-digest/workers/summary"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeCompleter struct {
	calls int
}

func (f *fakeCompleter) Complete(ctx context.Context, opts vendors.CompletionOptions) (*vendors.CompletionResponse, error) {
	f.calls++
	return &vendors.CompletionResponse{Content: "## Overview\nUsers like the app."}, nil
}

type fakeSearcher struct {
	lastQuery string
}

func (f *fakeSearcher) SearchReviews(appID, query string, limit, offset int) (*vendors.ReviewSearchResult, error) {
	f.lastQuery = query
	return &vendors.ReviewSearchResult{
		Hits:   []vendors.ReviewHit{{ID: "1", Content: "battery drains fast"}},
		Limit:  limit,
		Offset: offset,
		Query:  query,
	}, nil
}

type fakeVerifier struct{}

func (fakeVerifier) Verify(ctx context.Context, raw string) (*auth.Identity, error) {
	if raw != "good-token" {
		return nil, fmt.Errorf("%w: bad signature", auth.ErrTokenInvalid)
	}
	return &auth.Identity{GoogleID: "g-verified", Email: "verified@example.com", EmailVerified: true}, nil
}

type testEnv struct {
	router *gin.Engine
	db     *db.DB
	h      *Handlers
}

func newTestEnv(t *testing.T, llm summary.Completer) *testEnv {
	t.Helper()
	d, err := db.Open(db.Config{Path: filepath.Join(t.TempDir(), "api.sqlite")})
	if err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	s := sampler.New(sampler.Options{})
	h := &Handlers{
		db:        d,
		summaries: summary.NewService(summary.Config{}, d, llm, s),
		importer:  ingest.NewImporter(d, nil),
		sampler:   s,
	}
	r := gin.New()
	SetupRoutes(r, h)
	return &testEnv{router: r, db: d, h: h}
}

type envelope struct {
	Data       json.RawMessage `json:"data"`
	Pagination *Pagination     `json:"pagination"`
	Error      *struct {
		Code    ErrorCode     `json:"code"`
		Message string        `json:"message"`
		Details []ErrorDetail `json:"details"`
	} `json:"error"`
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: invalid JSON %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return v
}

func longReview(topic string, n int) string {
	return fmt.Sprintf("Review %d about %s: %s", n, topic, strings.Repeat(topic+" works well enough for me. ", 3))
}

func batchBody(appID, appName string, dates ...string) map[string]any {
	reviews := make([]map[string]any, len(dates))
	for i, d := range dates {
		reviews[i] = map[string]any{
			"reviewId": fmt.Sprintf("r%d", i),
			"userName": fmt.Sprintf("user%d", i),
			"content":  longReview([]string{"sync", "battery", "layout", "login"}[i%4], i),
			"score":    i%5 + 1,
			"at":       d + "T10:00:00Z",
		}
	}
	body := map[string]any{"reviews": reviews}
	if appID != "" {
		body["appId"] = appID
	}
	if appName != "" {
		body["appName"] = appName
	}
	return body
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	code, res := env.do(t, http.MethodGet, "/api/health", nil)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	got := decode[HealthResponse](t, res.Data)
	if got.Status != "ok" || got.SchemaVersion < 1 {
		t.Errorf("health = %+v", got)
	}
	if got.Search || got.Summaries || got.GoogleAuth {
		t.Errorf("optional features should be off: %+v", got)
	}
}

func TestApps(t *testing.T) {
	env := newTestEnv(t, nil)

	code, res := env.do(t, http.MethodPost, "/api/apps", AddAppRequest{AppID: "com.example", AppName: "Example"})
	if code != http.StatusCreated {
		t.Fatalf("first add status = %d", code)
	}
	if got := decode[AddAppResponse](t, res.Data); !got.Created || got.App.AppName != "Example" {
		t.Errorf("first add = %+v", got)
	}

	code, res = env.do(t, http.MethodPost, "/api/apps", AddAppRequest{AppID: "com.example", AppName: "Renamed"})
	if code != http.StatusOK {
		t.Fatalf("second add status = %d", code)
	}
	if got := decode[AddAppResponse](t, res.Data); got.Created || got.App.AppName != "Example" {
		t.Errorf("second add = %+v", got)
	}

	code, res = env.do(t, http.MethodPost, "/api/apps", AddAppRequest{AppID: " "})
	if code != http.StatusBadRequest || res.Error.Code != ErrCodeValidation || len(res.Error.Details) != 2 {
		t.Errorf("invalid add = %d %+v", code, res.Error)
	}

	code, res = env.do(t, http.MethodGet, "/api/apps", nil)
	if code != http.StatusOK {
		t.Fatalf("list status = %d", code)
	}
	if apps := decode[[]db.App](t, res.Data); len(apps) != 1 {
		t.Errorf("apps = %+v", apps)
	}

	if code, _ := env.do(t, http.MethodGet, "/api/apps/com.example", nil); code != http.StatusOK {
		t.Errorf("get status = %d", code)
	}
	if code, res := env.do(t, http.MethodGet, "/api/apps/missing", nil); code != http.StatusNotFound || res.Error.Code != ErrCodeNotFound {
		t.Errorf("get missing = %d", code)
	}
}

func TestImportAndListReviews(t *testing.T) {
	env := newTestEnv(t, nil)

	code, res := env.do(t, http.MethodPost, "/api/apps/com.example/reviews",
		batchBody("", "Example", "2024-05-01", "2024-05-02", "2024-05-03"))
	if code != http.StatusOK {
		t.Fatalf("import status = %d %+v", code, res.Error)
	}
	imported := decode[ingest.Result](t, res.Data)
	if !imported.AppCreated || imported.Saved != 3 {
		t.Errorf("import = %+v", imported)
	}

	// same batch again is fully deduplicated
	_, res = env.do(t, http.MethodPost, "/api/apps/com.example/reviews",
		batchBody("com.example", "", "2024-05-01", "2024-05-02", "2024-05-03"))
	if again := decode[ingest.Result](t, res.Data); again.Saved != 0 || again.Duplicates != 3 {
		t.Errorf("re-import = %+v", again)
	}

	code, res = env.do(t, http.MethodGet, "/api/apps/com.example/reviews?limit=2", nil)
	if code != http.StatusOK {
		t.Fatalf("list status = %d", code)
	}
	reviews := decode[[]db.Review](t, res.Data)
	if len(reviews) != 2 || reviews[0].Date() != "2024-05-03" {
		t.Errorf("reviews = %+v", reviews)
	}
	if p := res.Pagination; p == nil || *p.Total != 3 || !p.HasMore {
		t.Errorf("pagination = %+v", p)
	}
}

func TestImportReviewsErrors(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name string
		path string
		body any
		want int
	}{
		{"mismatched app", "/api/apps/a/reviews", batchBody("b", "B", "2024-05-01"), http.StatusBadRequest},
		{"unknown app without name", "/api/apps/a/reviews", batchBody("a", "", "2024-05-01"), http.StatusNotFound},
		{"no reviews", "/api/apps/a/reviews", map[string]any{"appName": "A", "reviews": []any{}}, http.StatusBadRequest},
		{"not json", "/api/apps/a/reviews", "nope", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code, _ := env.do(t, http.MethodPost, tt.path, tt.body); code != tt.want {
				t.Errorf("status = %d, want %d", code, tt.want)
			}
		})
	}
}

func TestSearchReviews(t *testing.T) {
	env := newTestEnv(t, nil)
	if code, _ := env.do(t, http.MethodGet, "/api/apps/a/reviews/search?q=battery", nil); code != http.StatusServiceUnavailable {
		t.Errorf("unconfigured status = %d", code)
	}

	searcher := &fakeSearcher{}
	env.h.search = searcher

	if code, _ := env.do(t, http.MethodGet, "/api/apps/a/reviews/search", nil); code != http.StatusBadRequest {
		t.Errorf("missing q status = %d", code)
	}
	code, res := env.do(t, http.MethodGet, "/api/apps/a/reviews/search?q=battery&limit=5", nil)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	got := decode[vendors.ReviewSearchResult](t, res.Data)
	if searcher.lastQuery != "battery" || got.Limit != 5 || len(got.Hits) != 1 {
		t.Errorf("search = %+v", got)
	}
}

func TestGenerateSummary(t *testing.T) {
	llm := &fakeCompleter{}
	env := newTestEnv(t, llm)

	if code, _ := env.do(t, http.MethodPost, "/api/apps/missing/summary", GenerateSummaryRequest{}); code != http.StatusNotFound {
		t.Errorf("missing app status = %d", code)
	}

	env.do(t, http.MethodPost, "/api/apps/com.example/reviews",
		batchBody("", "Example", "2024-05-01", "2024-05-02", "2024-05-03", "2024-05-04"))

	if code, _ := env.do(t, http.MethodGet, "/api/apps/com.example/summary/latest", nil); code != http.StatusNotFound {
		t.Errorf("latest before generate = %d", code)
	}

	code, res := env.do(t, http.MethodPost, "/api/apps/com.example/summary", GenerateSummaryRequest{GoogleID: "g1"})
	if code != http.StatusOK {
		t.Fatalf("generate status = %d %+v", code, res.Error)
	}
	got := decode[summary.Result](t, res.Data)
	if got.Cached || got.DateRange != "2024-05-01 ~ 2024-05-04" || got.SampledCount == 0 {
		t.Errorf("generate = %+v", got)
	}

	_, res = env.do(t, http.MethodPost, "/api/apps/com.example/summary", GenerateSummaryRequest{GoogleID: "g1"})
	if again := decode[summary.Result](t, res.Data); !again.Cached || llm.calls != 1 {
		t.Errorf("second generate = %+v, llm calls %d", again, llm.calls)
	}

	code, res = env.do(t, http.MethodGet, "/api/apps/com.example/summary/latest", nil)
	if code != http.StatusOK {
		t.Fatalf("latest status = %d", code)
	}
	if latest := decode[db.Summary](t, res.Data); latest.ID != got.ID {
		t.Errorf("latest id = %q, want %q", latest.ID, got.ID)
	}

	code, res = env.do(t, http.MethodGet, "/api/users/g1/summary-count", nil)
	if code != http.StatusOK {
		t.Fatalf("count status = %d", code)
	}
	if count := decode[db.SummaryCount](t, res.Data); count.TotalCount != 1 || count.ByApp["com.example"] != 1 {
		t.Errorf("count = %+v", count)
	}
}

func TestGenerateSummaryWithoutModel(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, http.MethodPost, "/api/apps/com.example/reviews", batchBody("", "Example", "2024-05-01"))

	code, res := env.do(t, http.MethodPost, "/api/apps/com.example/summary", nil)
	if code != http.StatusServiceUnavailable || res.Error.Code != ErrCodeServiceUnavailable {
		t.Errorf("status = %d %+v", code, res.Error)
	}
}

func TestSummaryCountValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	code, res := env.do(t, http.MethodGet, "/api/users/g1/summary-count?start=2024-13-01&end=yesterday", nil)
	if code != http.StatusBadRequest || len(res.Error.Details) != 2 {
		t.Errorf("status = %d %+v", code, res.Error)
	}

	code, res = env.do(t, http.MethodGet, "/api/users/nobody/summary-count?start=2024-01-01&end=2024-01-31", nil)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if count := decode[db.SummaryCount](t, res.Data); count.TotalCount != 0 {
		t.Errorf("count = %+v", count)
	}
}

func TestLoginWithoutVerifier(t *testing.T) {
	env := newTestEnv(t, nil)

	if code, _ := env.do(t, http.MethodPost, "/api/users/login", LoginRequest{Email: "a@example.com"}); code != http.StatusBadRequest {
		t.Errorf("missing googleId status = %d", code)
	}

	code, res := env.do(t, http.MethodPost, "/api/users/login", LoginRequest{GoogleID: "g1", Email: "a@example.com"})
	if code != http.StatusOK {
		t.Fatalf("login status = %d", code)
	}
	if user := decode[db.User](t, res.Data); user.GoogleID != "g1" || user.Email != "a@example.com" {
		t.Errorf("user = %+v", user)
	}

	if code, _ := env.do(t, http.MethodGet, "/api/users/g1", nil); code != http.StatusOK {
		t.Errorf("get user status = %d", code)
	}
	if code, _ := env.do(t, http.MethodGet, "/api/users/g2", nil); code != http.StatusNotFound {
		t.Errorf("get missing user status = %d", code)
	}
}

func TestLoginWithVerifier(t *testing.T) {
	env := newTestEnv(t, nil)
	env.h.verifier = fakeVerifier{}

	tests := []struct {
		name string
		req  LoginRequest
		want int
	}{
		{"token required", LoginRequest{GoogleID: "g1"}, http.StatusBadRequest},
		{"bad token", LoginRequest{IDToken: "forged"}, http.StatusUnauthorized},
		{"good token", LoginRequest{GoogleID: "ignored", IDToken: "good-token"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, res := env.do(t, http.MethodPost, "/api/users/login", tt.req)
			if code != tt.want {
				t.Fatalf("status = %d, want %d", code, tt.want)
			}
			if code == http.StatusOK {
				if user := decode[db.User](t, res.Data); user.GoogleID != "g-verified" {
					t.Errorf("user = %+v", user)
				}
			}
		})
	}

	if _, err := env.db.GetUserByGoogleID("ignored"); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("body googleId must not be trusted, got err %v", err)
	}
}

func TestSample(t *testing.T) {
	env := newTestEnv(t, nil)

	zero := 0
	tests := []struct {
		name string
		req  any
		want int
	}{
		{"missing texts", map[string]any{}, http.StatusBadRequest},
		{"zero budget", SampleRequest{Texts: []string{"a"}, BudgetChars: &zero}, http.StatusBadRequest},
		{"empty texts", SampleRequest{Texts: []string{}}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code, _ := env.do(t, http.MethodPost, "/api/sample", tt.req); code != tt.want {
				t.Errorf("status = %d, want %d", code, tt.want)
			}
		})
	}

	texts := []string{
		"The new release fixed the sync problem and the app feels much faster now.",
		"Battery usage went up after the update, please look into background refresh.",
		"Love the dark theme, the typography is clean and easy to read at night.",
	}
	budget := 160
	code, res := env.do(t, http.MethodPost, "/api/sample", SampleRequest{Texts: texts, BudgetChars: &budget})
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	got := decode[SampleResponse](t, res.Data)
	if got.Count != len(got.Texts) || got.Count == 0 || got.TotalChars > budget {
		t.Errorf("sample = %+v", got)
	}

	code, res = env.do(t, http.MethodPost, "/api/sample", SampleRequest{Texts: texts, Detailed: true})
	if code != http.StatusOK {
		t.Fatalf("detailed status = %d", code)
	}
	detailed := decode[sampler.Result](t, res.Data)
	if detailed.InputCount != 3 || detailed.BudgetChars != sampler.DefaultBudgetChars || len(detailed.Picks) != 3 {
		t.Errorf("detailed = %+v", detailed)
	}
	if detailed.Picks[0].Phase != sampler.PhaseSeed {
		t.Errorf("first pick phase = %q", detailed.Picks[0].Phase)
	}
}

type fakeReindexer struct {
	queued []string
}

func (f *fakeReindexer) Enqueue(appID string) { f.queued = append(f.queued, appID) }

func TestReindexReviews(t *testing.T) {
	env := newTestEnv(t, nil)
	if code, _ := env.do(t, http.MethodPost, "/api/apps/a/reviews/reindex", nil); code != http.StatusServiceUnavailable {
		t.Errorf("unconfigured status = %d", code)
	}

	re := &fakeReindexer{}
	env.h.reindexer = re
	if code, _ := env.do(t, http.MethodPost, "/api/apps/missing/reviews/reindex", nil); code != http.StatusNotFound {
		t.Errorf("missing app status = %d", code)
	}

	env.do(t, http.MethodPost, "/api/apps", AddAppRequest{AppID: "a", AppName: "A"})
	if code, _ := env.do(t, http.MethodPost, "/api/apps/a/reviews/reindex", nil); code != http.StatusAccepted {
		t.Errorf("status = %d", code)
	}
	if len(re.queued) != 1 || re.queued[0] != "a" {
		t.Errorf("queued = %v", re.queued)
	}
}
