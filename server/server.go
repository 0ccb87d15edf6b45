package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/xiaoyuanzhu-com/review-digest/auth"
	"github.com/xiaoyuanzhu-com/review-digest/db"
	"github.com/xiaoyuanzhu-com/review-digest/log"
	"github.com/xiaoyuanzhu-com/review-digest/notifications"
	"github.com/xiaoyuanzhu-com/review-digest/sampler"
	"github.com/xiaoyuanzhu-com/review-digest/vendors"
	"github.com/xiaoyuanzhu-com/review-digest/workers/ingest"
	"github.com/xiaoyuanzhu-com/review-digest/workers/meili"
	"github.com/xiaoyuanzhu-com/review-digest/workers/summary"
)

// Server owns and coordinates all application components
type Server struct {
	cfg *Config

	// Components (owned by server)
	database  *db.DB
	sampler   *sampler.Sampler
	summaries *summary.Service
	importer  *ingest.Importer
	watcher   *ingest.Watcher
	notifs    *notifications.Service
	meiliSync *meili.SyncWorker

	// Optional vendors, nil when not configured
	llm      *vendors.OpenAIClient
	search   *vendors.MeiliClient
	verifier *auth.GoogleVerifier

	// Shutdown context - cancelled when server is shutting down.
	// Long-running handlers (summary generation) listen to this.
	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc

	// HTTP
	router *gin.Engine
	http   *http.Server
}

// New creates a new server with all components initialized
func New(cfg *Config) (*Server, error) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:            cfg,
		shutdownCtx:    ctx,
		shutdownCancel: cancel,
	}

	// 1. Open database
	log.Info().Msg("initializing database")
	database, err := db.Open(cfg.ToDBConfig())
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s.database = database

	// 2. Sampler
	s.sampler = sampler.New(cfg.ToSamplerOptions())
	log.Info().
		Int("budgetChars", s.sampler.BudgetChars()).
		Msg("sampler configured")

	// 3. External vendors (each optional)
	if err := s.initVendors(ctx); err != nil {
		cancel()
		database.Close()
		return nil, err
	}

	// 4. Summary service
	log.Info().Msg("initializing summary service")
	var llm summary.Completer
	if s.llm != nil {
		llm = s.llm
	}
	s.summaries = summary.NewService(cfg.ToSummaryConfig(), s.database, llm, s.sampler)

	// 5. Review importer and import directory watcher
	log.Info().Msg("initializing review importer")
	var index ingest.Indexer
	if s.search != nil {
		index = s.search
		s.meiliSync = meili.NewSyncWorker(s.database, s.search)
	}
	s.importer = ingest.NewImporter(s.database, index)
	if cfg.ImportDir != "" {
		s.watcher = ingest.NewWatcher(cfg.ToIngestConfig(), s.importer)
	}

	// 6. Notifications and service wiring
	s.notifs = notifications.NewService()
	s.connectServices()

	// 7. Setup HTTP router
	s.setupRouter()

	log.Info().Msg("server initialized successfully")
	return s, nil
}

// initVendors connects the optional external services. An unreachable LLM
// or search host only disables its features; a configured but unusable
// Google client is fatal since login would otherwise be unauthenticated.
func (s *Server) initVendors(ctx context.Context) error {
	s.llm = vendors.NewOpenAIClient(s.cfg.ToOpenAIConfig())
	if s.llm == nil {
		log.Warn().Msg("OPENAI_API_KEY not set, summaries will only be served from cache")
	} else {
		log.Info().Str("model", s.llm.Model()).Msg("openai client configured")
	}

	search, err := vendors.NewMeiliClient(s.cfg.ToMeiliConfig())
	switch {
	case err != nil:
		log.Error().Err(err).Str("host", s.cfg.MeiliHost).Msg("meilisearch unavailable, search disabled")
	case search == nil:
		log.Info().Msg("MEILI_HOST not set, search disabled")
	default:
		s.search = search
	}

	if s.cfg.GoogleClientID == "" {
		log.Warn().Msg("GOOGLE_CLIENT_ID not set, login trusts the posted googleId")
		return nil
	}
	verifier, err := auth.NewGoogleVerifier(ctx, s.cfg.GoogleClientID)
	if err != nil {
		return fmt.Errorf("failed to initialize google sign-in: %w", err)
	}
	s.verifier = verifier
	return nil
}

// connectServices forwards component events to notification subscribers
func (s *Server) connectServices() {
	s.importer.SetImportHandler(func(res ingest.Result) {
		// retry inline indexing failures in the background
		if !res.Indexed && s.meiliSync != nil {
			s.meiliSync.Enqueue(res.AppID)
		}
		s.notifs.NotifyReviewsImported(res.AppID, res)
	})
	s.summaries.SetSummaryHandler(func(res summary.Result) {
		s.notifs.NotifySummaryGenerated(res.AppID, map[string]any{
			"id":        res.ID,
			"dateRange": res.DateRange,
		})
	})
}

// setupRouter creates and configures the Gin router
func (s *Server) setupRouter() {
	// Set Gin mode
	if !s.cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router
	s.router = gin.New()

	// Middleware
	s.router.Use(gin.Recovery())
	s.router.Use(log.GinLogger())

	// CORS for development
	if s.cfg.IsDevelopment() {
		s.router.Use(s.corsMiddleware())
	}

	// Security headers (production only)
	if !s.cfg.IsDevelopment() {
		s.router.Use(s.securityHeadersMiddleware())
	}

	// Gzip compression (skip SSE, which needs streaming)
	s.router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{
		"/api/notifications/stream",
	})))

	// Trust proxy headers
	s.router.SetTrustedProxies(nil)

	// Ignore .well-known requests
	s.router.GET("/.well-known/*path", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	// Note: API routes should be set up by calling code (main.go)
	// to avoid import cycles
}

// corsMiddleware handles CORS for development environments
func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == fmt.Sprintf("http://localhost:%d", s.cfg.Port) || origin == "http://localhost:5173" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// securityHeadersMiddleware adds security headers for production
func (s *Server) securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}

// Start starts all background services and the HTTP server
func (s *Server) Start() error {
	log.Info().Msg("starting server components")

	if s.meiliSync != nil {
		s.meiliSync.Start()
	}

	if s.watcher != nil {
		if err := s.watcher.Start(); err != nil {
			return fmt.Errorf("failed to start import watcher: %w", err)
		}
	}

	// Create HTTP server
	s.http = &http.Server{
		Addr:     fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:  s.router,
		ErrorLog: log.StdErrorLogger(), // Route Go's internal HTTP errors through zerolog
		BaseContext: func(net.Listener) context.Context {
			return s.shutdownCtx
		},
	}

	log.Info().
		Str("addr", s.http.Addr).
		Str("env", s.cfg.Env).
		Msg("HTTP server starting")

	// Start HTTP server (blocks)
	return s.http.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("shutting down server")

	// 1. Stop picking up new import files
	if s.watcher != nil {
		s.watcher.Stop()
	}

	// 2. Close notification streams so SSE handlers return
	s.notifs.Shutdown()

	// 3. Shutdown HTTP server (stop accepting new requests and wait for existing ones)
	if s.http != nil {
		if err := s.http.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("http server shutdown error")
		}
	}

	// 4. Cancel whatever is still running (LLM calls outliving the timeout)
	s.shutdownCancel()
	time.Sleep(100 * time.Millisecond)

	if s.meiliSync != nil {
		s.meiliSync.Stop()
	}

	// Close database last
	if s.database != nil {
		if err := s.database.Close(); err != nil {
			log.Error().Err(err).Msg("database close error")
			return err
		}
	}

	log.Info().Msg("server shutdown complete")
	return nil
}

// Component accessors for API handlers
func (s *Server) DB() *db.DB { return s.database }
func (s *Server) Sampler() *sampler.Sampler { return s.sampler }
func (s *Server) Summaries() *summary.Service { return s.summaries }
func (s *Server) Importer() *ingest.Importer { return s.importer }
func (s *Server) Search() *vendors.MeiliClient { return s.search }
func (s *Server) MeiliSync() *meili.SyncWorker { return s.meiliSync }
func (s *Server) Verifier() *auth.GoogleVerifier { return s.verifier }
func (s *Server) Notifications() *notifications.Service { return s.notifs }
func (s *Server) Router() *gin.Engine { return s.router }
func (s *Server) ShutdownContext() context.Context { return s.shutdownCtx }
