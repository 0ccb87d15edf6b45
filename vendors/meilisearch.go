package vendors

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
	"github.com/xiaoyuanzhu-com/review-digest/db"
	"github.com/xiaoyuanzhu-com/review-digest/log"
)

var meiliLogger = log.GetLogger("Meilisearch")

// MeiliConfig holds Meilisearch connection settings
type MeiliConfig struct {
	Host   string
	APIKey string
	// IndexPrefix is combined with the app ID to name each app's index.
	IndexPrefix string
}

// MeiliClient keeps one index of reviews per app
type MeiliClient struct {
	client      meilisearch.ServiceManager
	indexPrefix string
}

// ReviewSearchResult is one page of keyword search results
type ReviewSearchResult struct {
	Hits               []ReviewHit `json:"hits"`
	EstimatedTotalHits int64       `json:"estimatedTotalHits"`
	Limit              int         `json:"limit"`
	Offset             int         `json:"offset"`
	Query              string      `json:"query"`
}

// ReviewHit represents a single search hit
type ReviewHit struct {
	ID         string `json:"id"`
	ReviewID   string `json:"reviewId,omitempty"`
	UserName   string `json:"userName"`
	Content    string `json:"content"`
	Score      int    `json:"score"`
	ReviewedAt int64  `json:"reviewedAt"`
	Highlight  string `json:"highlight,omitempty"`
}

type reviewDocument struct {
	ID         string `json:"id"`
	AppID      string `json:"appId"`
	ReviewID   string `json:"reviewId,omitempty"`
	UserName   string `json:"userName"`
	Content    string `json:"content"`
	Score      int    `json:"score"`
	ReviewedAt int64  `json:"reviewedAt"`
}

type rawSearchResponse struct {
	Hits []struct {
		reviewDocument
		Formatted *struct {
			Content string `json:"content"`
		} `json:"_formatted,omitempty"`
	} `json:"hits"`
	EstimatedTotalHits int64 `json:"estimatedTotalHits"`
}

// NewMeiliClient connects to Meilisearch. It returns nil without error when
// no host is configured.
func NewMeiliClient(cfg MeiliConfig) (*MeiliClient, error) {
	if cfg.Host == "" {
		meiliLogger.Warn().Msg("MEILI_HOST not configured, review search disabled")
		return nil, nil
	}

	client := meilisearch.New(cfg.Host, meilisearch.WithAPIKey(cfg.APIKey))

	// Verify connection
	if _, err := client.Health(); err != nil {
		return nil, fmt.Errorf("failed to connect to Meilisearch: %w", err)
	}

	prefix := cfg.IndexPrefix
	if prefix == "" {
		prefix = "app_reviews"
	}

	meiliLogger.Info().Str("host", cfg.Host).Str("indexPrefix", prefix).Msg("Meilisearch initialized")
	return &MeiliClient{client: client, indexPrefix: prefix}, nil
}

// IndexUID returns the index name holding an app's reviews.
func IndexUID(prefix, appID string) string {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteByte('_')
	for _, r := range appID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// ReviewDocumentID derives a stable document ID for a review.
func ReviewDocumentID(appID string, r db.Review) string {
	key := r.ReviewID
	if key == "" {
		key = db.ReviewSignature(r.UserName, r.Content)
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(appID+"/"+key)).String()
}

func (m *MeiliClient) index(appID string) meilisearch.IndexManager {
	return m.client.Index(IndexUID(m.indexPrefix, appID))
}

// IndexReviews adds or replaces review documents in the app's index
func (m *MeiliClient) IndexReviews(appID string, reviews []db.Review) error {
	if m == nil || len(reviews) == 0 {
		return nil
	}

	docs := make([]reviewDocument, len(reviews))
	for i, r := range reviews {
		docs[i] = reviewDocument{
			ID:         ReviewDocumentID(appID, r),
			AppID:      appID,
			ReviewID:   r.ReviewID,
			UserName:   r.UserName,
			Content:    r.Content,
			Score:      r.Score,
			ReviewedAt: r.ReviewedAt,
		}
	}

	task, err := m.index(appID).AddDocuments(docs, "id")
	if err != nil {
		return fmt.Errorf("failed to index reviews for %s: %w", appID, err)
	}

	meiliLogger.Debug().Str("appId", appID).Int("count", len(docs)).Int64("taskUid", task.TaskUID).Msg("reviews queued for indexing")
	return nil
}

// SearchReviews runs a keyword query against an app's reviews
func (m *MeiliClient) SearchReviews(appID, query string, limit, offset int) (*ReviewSearchResult, error) {
	if limit <= 0 {
		limit = 20
	}

	req := &meilisearch.SearchRequest{
		Limit:                 int64(limit),
		Offset:                int64(offset),
		AttributesToHighlight: []string{"content"},
		AttributesToCrop:      []string{"content"},
		CropLength:            60,
	}

	raw, err := m.index(appID).SearchRaw(query, req)
	if err != nil {
		return nil, err
	}

	result, err := decodeSearchResponse(*raw)
	if err != nil {
		return nil, err
	}
	result.Limit = limit
	result.Offset = offset
	result.Query = query
	return result, nil
}

func decodeSearchResponse(raw []byte) (*ReviewSearchResult, error) {
	var resp rawSearchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	result := &ReviewSearchResult{
		Hits:               make([]ReviewHit, 0, len(resp.Hits)),
		EstimatedTotalHits: resp.EstimatedTotalHits,
	}
	for _, h := range resp.Hits {
		hit := ReviewHit{
			ID:         h.ID,
			ReviewID:   h.ReviewID,
			UserName:   h.UserName,
			Content:    h.Content,
			Score:      h.Score,
			ReviewedAt: h.ReviewedAt,
		}
		if h.Formatted != nil {
			hit.Highlight = h.Formatted.Content
		}
		result.Hits = append(result.Hits, hit)
	}
	return result, nil
}
