package summary

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/xiaoyuanzhu-com/review-digest/db"
	"github.com/xiaoyuanzhu-com/review-digest/log"
	"github.com/xiaoyuanzhu-com/review-digest/sampler"
	"github.com/xiaoyuanzhu-com/review-digest/vendors"
)

var logger = log.GetLogger("Summary")

// Store is the persistence the summarizer needs
type Store interface {
	GetApp(appID string) (*db.App, error)
	ListReviews(appID string, limit, offset int) ([]db.Review, error)
	GetLatestSummary(appID string) (*db.Summary, error)
	GetSummaryByEndDate(appID, endDate string) (*db.Summary, error)
	SaveSummary(s *db.Summary) error
}

// Completer generates the report text
type Completer interface {
	Complete(ctx context.Context, opts vendors.CompletionOptions) (*vendors.CompletionResponse, error)
}

// Result describes a generated or cached summary
type Result struct {
	ID           string `json:"id"`
	AppID        string `json:"appId"`
	Summary      string `json:"summary"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
	DateRange    string `json:"dateRange"`
	ReviewCount  int    `json:"reviewCount"`
	SampledCount int    `json:"sampledCount"`
	SampledChars int    `json:"sampledChars"`
	Cached       bool   `json:"cached"`
}

// Service turns an app's stored reviews into a report
type Service struct {
	cfg     Config
	store   Store
	llm     Completer
	sampler *sampler.Sampler

	// one generation per app at a time
	appLocks sync.Map

	onGenerated func(Result)
}

// NewService creates a summary service. llm may be nil, in which case only
// cached summaries can be served.
func NewService(cfg Config, store Store, llm Completer, s *sampler.Sampler) *Service {
	if s == nil {
		s = sampler.New(sampler.Options{})
	}
	return &Service{
		cfg:     cfg.withDefaults(),
		store:   store,
		llm:     llm,
		sampler: s,
	}
}

// SetSummaryHandler registers a callback run after a new summary is
// stored. Cached answers do not trigger it.
func (s *Service) SetSummaryHandler(fn func(Result)) {
	s.onGenerated = fn
}

func (s *Service) lockApp(appID string) func() {
	v, _ := s.appLocks.LoadOrStore(appID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *Service) requireApp(appID string) error {
	if _, err := s.store.GetApp(appID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrAppNotFound, appID)
		}
		return err
	}
	return nil
}

// Generate summarizes the newest eligible reviews of an app. A summary
// already stored for the same end date is returned instead of calling the
// model again.
func (s *Service) Generate(ctx context.Context, appID, googleID string) (*Result, error) {
	if err := s.requireApp(appID); err != nil {
		return nil, err
	}

	unlock := s.lockApp(appID)
	defer unlock()

	reviews, err := s.store.ListReviews(appID, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load reviews: %w", err)
	}
	if len(reviews) == 0 {
		return nil, ErrNoReviews
	}

	eligible := s.eligible(reviews)
	if len(eligible) == 0 {
		return nil, ErrNoReviews
	}

	startDate, endDate := dateRange(eligible)

	existing, err := s.store.GetSummaryByEndDate(appID, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to look up cached summary: %w", err)
	}
	if existing != nil {
		logger.Info().Str("appId", appID).Str("endDate", endDate).Msg("serving cached summary")
		return &Result{
			ID:           existing.ID,
			AppID:        appID,
			Summary:      existing.Summary,
			StartDate:    existing.StartDate,
			EndDate:      existing.EndDate,
			DateRange:    existing.DateRange(),
			ReviewCount:  len(reviews),
			SampledCount: existing.SampledCount,
			Cached:       true,
		}, nil
	}

	if s.llm == nil {
		return nil, ErrLLMUnavailable
	}

	texts := make([]string, len(eligible))
	for i, r := range eligible {
		texts[i] = r.Content
	}
	picked := s.sampler.Sample(texts)
	joined := strings.Join(picked, " ")

	prompt := vendors.ReviewReportPrompt + fmt.Sprintf(vendors.ReviewRangeSuffix, startDate, endDate)

	logger.Info().
		Str("appId", appID).
		Int("reviews", len(reviews)).
		Int("eligible", len(eligible)).
		Int("sampled", len(picked)).
		Int("sampledChars", utf8.RuneCountInString(joined)).
		Msg("generating summary")

	resp, err := s.llm.Complete(ctx, vendors.CompletionOptions{
		SystemPrompt: prompt,
		Prompt:       joined,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate summary: %w", err)
	}

	record := &db.Summary{
		AppID:        appID,
		GoogleID:     googleID,
		StartDate:    startDate,
		EndDate:      endDate,
		Scores:       distinctScores(eligible),
		Prompt:       prompt,
		Summary:      resp.Content,
		ReviewCount:  len(reviews),
		SampledCount: len(picked),
	}
	if err := s.store.SaveSummary(record); err != nil {
		return nil, err
	}

	res := &Result{
		ID:           record.ID,
		AppID:        appID,
		Summary:      record.Summary,
		StartDate:    startDate,
		EndDate:      endDate,
		DateRange:    record.DateRange(),
		ReviewCount:  len(reviews),
		SampledCount: len(picked),
		SampledChars: utf8.RuneCountInString(joined),
	}
	if s.onGenerated != nil {
		s.onGenerated(*res)
	}
	return res, nil
}

// Available reports whether new summaries can be generated.
func (s *Service) Available() bool {
	return s.llm != nil
}

// Latest returns the most recent stored summary, or nil when none exists.
func (s *Service) Latest(appID string) (*db.Summary, error) {
	if err := s.requireApp(appID); err != nil {
		return nil, err
	}
	return s.store.GetLatestSummary(appID)
}

// eligible keeps reviews within the length bounds, newest first, capped at
// the window size. reviews must already be sorted newest first.
func (s *Service) eligible(reviews []db.Review) []db.Review {
	out := make([]db.Review, 0, min(len(reviews), s.cfg.Window))
	for _, r := range reviews {
		n := utf8.RuneCountInString(r.Content)
		if n <= s.cfg.MinChars || n >= s.cfg.MaxChars {
			continue
		}
		out = append(out, r)
		if len(out) == s.cfg.Window {
			break
		}
	}
	return out
}

func dateRange(reviews []db.Review) (string, string) {
	first, last := reviews[0].ReviewedAt, reviews[0].ReviewedAt
	for _, r := range reviews[1:] {
		first = min(first, r.ReviewedAt)
		last = max(last, r.ReviewedAt)
	}
	return db.Review{ReviewedAt: first}.Date(), db.Review{ReviewedAt: last}.Date()
}

func distinctScores(reviews []db.Review) []int {
	seen := make(map[int]bool)
	var scores []int
	for _, r := range reviews {
		if !seen[r.Score] {
			seen[r.Score] = true
			scores = append(scores, r.Score)
		}
	}
	sort.Ints(scores)
	return scores
}
