package sync

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/vistoria/fieldsync/internal/connectivity"
	"github.com/vistoria/fieldsync/internal/db"
	apperrors "github.com/vistoria/fieldsync/internal/errors"
	"github.com/vistoria/fieldsync/internal/models"
)

// DefaultInterval is how often the periodic trigger fires.
const DefaultInterval = 30 * time.Second

// Config tunes the engine.
type Config struct {
	// Interval between periodic sync attempts. Defaults to DefaultInterval.
	Interval time.Duration

	// MaxAttempts is the queue retry cap. Defaults to DefaultMaxAttempts.
	MaxAttempts int
}

// Engine runs the sync lifecycle: push the queue, then pull remote deltas
// per table, with at most one cycle in flight at a time.
type Engine struct {
	store       *db.Store
	queue       *Queue
	remote      Remote
	monitor     *connectivity.Monitor
	logger      *zap.Logger
	interval    time.Duration
	maxAttempts int
	now         func() time.Time

	// syncing is the busy flag; Sync enters via compare-and-swap so
	// concurrent triggers collapse into no-ops instead of queueing.
	syncing atomic.Bool

	mu       sync.Mutex
	lastSync time.Time
	lastErr  error
}

// NewEngine creates an Engine.
func NewEngine(store *db.Store, remote Remote, monitor *connectivity.Monitor, cfg Config, logger *zap.Logger) *Engine {
	if cfg.Interval == 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	return &Engine{
		store:       store,
		queue:       NewQueue(store, remote, logger),
		remote:      remote,
		monitor:     monitor,
		logger:      logger,
		interval:    cfg.Interval,
		maxAttempts: cfg.MaxAttempts,
		now:         time.Now,
	}
}

// Run blocks until ctx is cancelled, firing a sync cycle on the periodic
// ticker and whenever the monitor reports the device came back online.
// Both triggers funnel through the same guarded Sync entry point.
func (e *Engine) Run(ctx context.Context) {
	events := e.monitor.Subscribe()
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Sync(ctx)
		case event := <-events:
			if event.State == connectivity.Online {
				e.logger.Info("device back online, syncing",
					zap.Duration("was_offline_for", event.OfflineFor))
				e.Sync(ctx)
			}
		}
	}
}

// SyncNow is the manual entry point. It fails with an offline error when
// the device is offline; otherwise it runs one cycle and returns once
// push and pull both completed. Individual entry or table failures do
// not make SyncNow fail — they are visible through Status instead.
func (e *Engine) SyncNow(ctx context.Context) error {
	if !e.monitor.Online() {
		return apperrors.New(apperrors.ErrOffline, "device is offline, cannot sync now")
	}
	e.Sync(ctx)
	return nil
}

// Sync runs one push+pull cycle. Re-entrant calls while a cycle is in
// flight are no-ops. An offline device makes the cycle a silent no-op as
// well — background triggers while offline are expected, not errors.
func (e *Engine) Sync(ctx context.Context) {
	if !e.syncing.CompareAndSwap(false, true) {
		e.logger.Debug("sync already in progress, skipping trigger")
		return
	}
	defer e.syncing.Store(false)

	if !e.monitor.Online() {
		return
	}

	e.logger.Debug("sync cycle started")
	var cycleErr error

	// Push. Per-entry failures are recorded on the entries themselves;
	// only a store-level failure surfaces here, and even then the pull
	// phase still runs so partial progress is preserved.
	if _, err := e.queue.Drain(ctx, e.maxAttempts); err != nil {
		e.logger.Error("queue drain failed", zap.Error(err))
		cycleErr = err
	}

	// Pull. Tables are independent: one table's failure leaves its
	// watermark unadvanced and the cycle moves on.
	for _, entity := range models.Entities {
		if err := ctx.Err(); err != nil {
			cycleErr = err
			break
		}
		if err := e.pullTable(ctx, entity); err != nil {
			e.logger.Error("table pull failed",
				zap.String("table", entity.Table()),
				zap.Error(err))
			cycleErr = err
		}
	}

	e.mu.Lock()
	e.lastSync = e.now()
	e.lastErr = cycleErr
	e.mu.Unlock()

	e.logger.Debug("sync cycle finished")
}

// pullTable downloads one table's delta and upserts it locally. The
// watermark only advances when every row landed, so a failed pull simply
// retries the same delta window next cycle.
func (e *Engine) pullTable(ctx context.Context, entity models.Entity) error {
	watermark, err := e.store.Watermark(entity)
	if err != nil {
		return err
	}

	// Sampled before the select so rows updated mid-pull fall into the
	// next delta window instead of being skipped.
	pullStart := models.FormatTime(e.now())

	rows, err := e.remote.Select(ctx, entity.Table(), watermark)
	if err != nil {
		return err
	}

	for _, row := range rows {
		if err := e.store.UpsertFromRemote(entity, row); err != nil {
			return err
		}
	}
	if len(rows) > 0 {
		e.logger.Info("pulled remote rows",
			zap.String("table", entity.Table()),
			zap.Int("rows", len(rows)))
	}

	return e.store.SetWatermark(entity, pullStart)
}

// Status is a point-in-time diagnostics snapshot.
type Status struct {
	Syncing      bool
	Online       bool
	LastSync     time.Time
	PendingCount int
	FailedCount  int
	LastError    string
}

// Status reports the engine's current state for diagnostics surfaces.
func (e *Engine) Status() (Status, error) {
	pending, err := e.store.PendingCount()
	if err != nil {
		return Status{}, err
	}
	failed, err := e.store.FailedOperations(e.maxAttempts)
	if err != nil {
		return Status{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	status := Status{
		Syncing:      e.syncing.Load(),
		Online:       e.monitor.Online(),
		LastSync:     e.lastSync,
		PendingCount: pending,
		FailedCount:  len(failed),
	}
	if e.lastErr != nil {
		status.LastError = e.lastErr.Error()
	}
	return status, nil
}
