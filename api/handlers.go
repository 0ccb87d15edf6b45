package api

import (
	"github.com/xiaoyuanzhu-com/review-digest/auth"
	"github.com/xiaoyuanzhu-com/review-digest/db"
	"github.com/xiaoyuanzhu-com/review-digest/log"
	"github.com/xiaoyuanzhu-com/review-digest/notifications"
	"github.com/xiaoyuanzhu-com/review-digest/sampler"
	"github.com/xiaoyuanzhu-com/review-digest/server"
	"github.com/xiaoyuanzhu-com/review-digest/vendors"
	"github.com/xiaoyuanzhu-com/review-digest/workers/ingest"
	"github.com/xiaoyuanzhu-com/review-digest/workers/summary"
)

var logger = log.GetLogger("API")

// ReviewSearcher answers keyword queries over an app's reviews
type ReviewSearcher interface {
	SearchReviews(appID, query string, limit, offset int) (*vendors.ReviewSearchResult, error)
}

// Reindexer schedules a full search reindex of an app
type Reindexer interface {
	Enqueue(appID string)
}

// Handlers holds references to server components
type Handlers struct {
	db        *db.DB
	summaries *summary.Service
	importer  *ingest.Importer
	sampler   *sampler.Sampler
	notifs    *notifications.Service

	// optional; nil disables the endpoints that need them
	search    ReviewSearcher
	reindexer Reindexer
	verifier  auth.TokenVerifier
}

// NewHandlers creates a new Handlers instance from the server's components
func NewHandlers(srv *server.Server) *Handlers {
	h := &Handlers{
		db:        srv.DB(),
		summaries: srv.Summaries(),
		importer:  srv.Importer(),
		sampler:   srv.Sampler(),
		notifs:    srv.Notifications(),
	}
	// assign only non-nil pointers so the interface fields stay nil
	if search := srv.Search(); search != nil {
		h.search = search
	}
	if sync := srv.MeiliSync(); sync != nil {
		h.reindexer = sync
	}
	if verifier := srv.Verifier(); verifier != nil {
		h.verifier = verifier
	}
	return h
}
