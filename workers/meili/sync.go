package meili

import (
	"sort"
	"sync"
	"time"

	"github.com/xiaoyuanzhu-com/review-digest/db"
	"github.com/xiaoyuanzhu-com/review-digest/log"
)

var logger = log.GetLogger("MeiliSync")

const (
	// syncBatchSize is the number of reviews pushed per request
	syncBatchSize = 500

	// syncInterval is how often apps whose reindex failed are retried
	syncInterval = time.Minute
)

// initialDelay before the startup backfill (let the server finish booting)
var initialDelay = 5 * time.Second

// Store lists what needs indexing
type Store interface {
	ListApps() ([]db.App, error)
	ListReviews(appID string, limit, offset int) ([]db.Review, error)
}

// Indexer receives review documents
type Indexer interface {
	IndexReviews(appID string, reviews []db.Review) error
}

// SyncWorker re-pushes whole apps to Meilisearch. It backfills every app
// at startup and retries apps whose inline indexing failed.
type SyncWorker struct {
	store Store
	index Indexer

	mu      sync.Mutex
	pending map[string]struct{}

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// nudgeChan allows an immediate sync after Enqueue
	nudgeChan chan struct{}
}

// NewSyncWorker creates a new Meilisearch sync worker.
func NewSyncWorker(store Store, index Indexer) *SyncWorker {
	return &SyncWorker{
		store:     store,
		index:     index,
		pending:   make(map[string]struct{}),
		stopChan:  make(chan struct{}),
		nudgeChan: make(chan struct{}, 1), // buffered so nudge never blocks
	}
}

// Start begins the sync loop.
func (w *SyncWorker) Start() {
	w.wg.Add(1)
	go w.loop()
	logger.Info().Msg("meili sync worker started")
}

// Stop signals the worker to exit and waits for it to finish.
func (w *SyncWorker) Stop() {
	w.stopOnce.Do(func() { close(w.stopChan) })
	w.wg.Wait()
	logger.Info().Msg("meili sync worker stopped")
}

// Enqueue schedules a full reindex of one app.
func (w *SyncWorker) Enqueue(appID string) {
	w.mu.Lock()
	w.pending[appID] = struct{}{}
	w.mu.Unlock()
	w.Nudge()
}

// Nudge asks the worker to run a sync cycle as soon as possible.
func (w *SyncWorker) Nudge() {
	select {
	case w.nudgeChan <- struct{}{}:
	default:
		// already nudged
	}
}

// PendingCount returns the number of apps waiting to be reindexed
func (w *SyncWorker) PendingCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

func (w *SyncWorker) loop() {
	defer w.wg.Done()

	select {
	case <-time.After(initialDelay):
	case <-w.stopChan:
		return
	}

	w.enqueueAll()
	w.syncPending()

	ticker := time.NewTicker(syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.syncPending()
		case <-w.nudgeChan:
			w.syncPending()
		case <-w.stopChan:
			return
		}
	}
}

func (w *SyncWorker) enqueueAll() {
	apps, err := w.store.ListApps()
	if err != nil {
		logger.Error().Err(err).Msg("meili sync: failed to list apps")
		return
	}
	w.mu.Lock()
	for _, app := range apps {
		w.pending[app.AppID] = struct{}{}
	}
	w.mu.Unlock()
}

// takePending empties the queue and returns its apps in a stable order
func (w *SyncWorker) takePending() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	ids := make([]string, 0, len(w.pending))
	for id := range w.pending {
		ids = append(ids, id)
	}
	w.pending = make(map[string]struct{})
	sort.Strings(ids)
	return ids
}

// syncPending reindexes every queued app. Apps that fail are queued again
// for the next cycle.
func (w *SyncWorker) syncPending() {
	totalIndexed := 0
	var failed []string

	for _, appID := range w.takePending() {
		select {
		case <-w.stopChan:
			logger.Info().Int("indexed", totalIndexed).Msg("meili sync: interrupted by shutdown")
			return
		default:
		}

		n, err := w.reindexApp(appID)
		totalIndexed += n
		if err != nil {
			logger.Warn().Err(err).Str("appId", appID).Msg("meili sync: failed to index app")
			failed = append(failed, appID)
		}
	}

	if len(failed) > 0 {
		w.mu.Lock()
		for _, id := range failed {
			w.pending[id] = struct{}{}
		}
		w.mu.Unlock()
	}

	if totalIndexed > 0 || len(failed) > 0 {
		logger.Info().Int("indexed", totalIndexed).Int("failed", len(failed)).Msg("meili sync: cycle complete")
	}
}

func (w *SyncWorker) reindexApp(appID string) (int, error) {
	indexed := 0
	for offset := 0; ; offset += syncBatchSize {
		reviews, err := w.store.ListReviews(appID, syncBatchSize, offset)
		if err != nil {
			return indexed, err
		}
		if len(reviews) == 0 {
			return indexed, nil
		}
		if err := w.index.IndexReviews(appID, reviews); err != nil {
			return indexed, err
		}
		indexed += len(reviews)

		// If this batch was smaller than the limit, the app is drained
		if len(reviews) < syncBatchSize {
			return indexed, nil
		}
	}
}
