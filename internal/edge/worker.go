// Package edge implements the cache layer sitting between the application
// and the network, mirroring the service-worker contract of the PWA shell.
//
// The worker is an isolated actor: it owns its cache and counters outright
// and communicates with the rest of the process only through messages, so
// there is no shared mutable state with the sync logic. Data traffic is
// always revalidated against the network; only immutable static assets are
// served cache-first.
package edge

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Strategy is the caching strategy applied to one request class.
type Strategy int

const (
	// NetworkFirst hits the network and only falls back to cache when
	// the network fails. Data and auth traffic always gets this — the
	// sync engine must never read silently stale rows.
	NetworkFirst Strategy = iota

	// CacheFirst serves from cache when present. Reserved for immutable
	// static assets.
	CacheFirst

	// StaleWhileRevalidate serves the cached copy immediately and
	// refreshes it in the background.
	StaleWhileRevalidate
)

// String names the strategy for logs.
func (s Strategy) String() string {
	switch s {
	case CacheFirst:
		return "cache-first"
	case StaleWhileRevalidate:
		return "stale-while-revalidate"
	default:
		return "network-first"
	}
}

// Classify picks the strategy for a request path.
func Classify(path string) Strategy {
	if strings.HasPrefix(path, "/rest/") || strings.HasPrefix(path, "/auth/") {
		return NetworkFirst
	}
	for _, ext := range []string{".js", ".css", ".png", ".svg", ".ico", ".woff2", ".html", ".json"} {
		if strings.HasSuffix(path, ext) {
			return CacheFirst
		}
	}
	if path == "/" {
		return CacheFirst
	}
	return StaleWhileRevalidate
}

// Request is one outgoing fetch.
type Request struct {
	Method string
	URL    string
	Path   string
}

// Response is the answer to a Request.
type Response struct {
	Status    int
	Body      []byte
	FromCache bool
}

// Upstream performs the actual network fetch for the worker.
type Upstream interface {
	Do(ctx context.Context, req Request) (Response, error)
}

// UpstreamFunc adapts a function to the Upstream interface.
type UpstreamFunc func(ctx context.Context, req Request) (Response, error)

// Do implements Upstream.
func (f UpstreamFunc) Do(ctx context.Context, req Request) (Response, error) { return f(ctx, req) }

// Stats is the diagnostics snapshot the worker reports on request.
type Stats struct {
	NetworkRequests  int           `json:"networkRequests"`
	CacheHits        int           `json:"cacheHits"`
	IsOnline         bool          `json:"isOnline"`
	TotalOfflineTime time.Duration `json:"totalOfflineTime"`

	// Error is set to "timeout" when the worker did not answer within
	// StatsTimeout; the query resolves with this marker instead of
	// hanging.
	Error string `json:"error,omitempty"`
}

// StatsTimeout bounds how long a stats query waits for the worker.
const StatsTimeout = 3 * time.Second

// DefaultRetention is how long cache entries live before the sweep
// removes them.
const DefaultRetention = 7 * 24 * time.Hour

// Config tunes the worker.
type Config struct {
	// Retention is the cache entry lifetime. Defaults to DefaultRetention.
	Retention time.Duration

	// SweepInterval is how often expired entries are purged. Defaults to
	// one hour.
	SweepInterval time.Duration
}

type cacheEntry struct {
	response Response
	storedAt time.Time
}

// message types crossing into the actor.
type fetchMsg struct {
	ctx   context.Context
	req   Request
	reply chan fetchReply
}

type fetchReply struct {
	resp Response
	err  error
}

type statsMsg struct {
	reply chan Stats
}

type debugMsg struct {
	enabled bool
}

type onlineMsg struct {
	online       bool
	totalOffline time.Duration
}

type revalidatedMsg struct {
	key  string
	resp Response
}

// Worker is the edge cache actor.
type Worker struct {
	upstream      Upstream
	retention     time.Duration
	sweepInterval time.Duration
	logger        *zap.Logger
	now           func() time.Time

	msgCh chan interface{}

	// actor-owned state, touched only inside run().
	cache           map[string]cacheEntry
	networkRequests int
	cacheHits       int
	online          bool
	totalOffline    time.Duration
	debug           bool
}

// NewWorker creates a Worker; Start must be called before use.
func NewWorker(upstream Upstream, cfg Config, logger *zap.Logger) *Worker {
	if cfg.Retention == 0 {
		cfg.Retention = DefaultRetention
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = time.Hour
	}
	return &Worker{
		upstream:      upstream,
		retention:     cfg.Retention,
		sweepInterval: cfg.SweepInterval,
		logger:        logger,
		now:           time.Now,
		msgCh:         make(chan interface{}, 16),
		cache:         make(map[string]cacheEntry),
		online:        true,
	}
}

// Start launches the actor loop; it exits when ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *Worker) run(ctx context.Context) {
	sweep := time.NewTicker(w.sweepInterval)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sweep.C:
			w.sweepExpired()
		case msg := <-w.msgCh:
			switch m := msg.(type) {
			case fetchMsg:
				resp, err := w.handleFetch(m.ctx, m.req)
				m.reply <- fetchReply{resp: resp, err: err}
			case statsMsg:
				m.reply <- Stats{
					NetworkRequests:  w.networkRequests,
					CacheHits:        w.cacheHits,
					IsOnline:         w.online,
					TotalOfflineTime: w.totalOffline,
				}
			case debugMsg:
				w.debug = m.enabled
				w.logger.Info("edge debug logging toggled", zap.Bool("enabled", m.enabled))
			case onlineMsg:
				w.online = m.online
				w.totalOffline = m.totalOffline
			case revalidatedMsg:
				w.cache[m.key] = cacheEntry{response: m.resp, storedAt: w.now()}
			}
		}
	}
}

// Fetch routes one request through the worker's caching strategy.
func (w *Worker) Fetch(ctx context.Context, req Request) (Response, error) {
	reply := make(chan fetchReply, 1)
	select {
	case w.msgCh <- fetchMsg{ctx: ctx, req: req, reply: reply}:
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
	select {
	case r := <-reply:
		return r.resp, r.err
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

// Stats queries the worker's counters. The reply is bounded by
// StatsTimeout; a late worker yields a Stats carrying the timeout marker
// rather than a hang.
func (w *Worker) Stats(ctx context.Context) Stats {
	reply := make(chan Stats, 1)
	timeout := time.NewTimer(StatsTimeout)
	defer timeout.Stop()

	select {
	case w.msgCh <- statsMsg{reply: reply}:
	case <-timeout.C:
		return Stats{Error: "timeout"}
	case <-ctx.Done():
		return Stats{Error: "timeout"}
	}
	select {
	case s := <-reply:
		return s
	case <-timeout.C:
		return Stats{Error: "timeout"}
	case <-ctx.Done():
		return Stats{Error: "timeout"}
	}
}

// SetDebug toggles verbose logging inside the actor.
func (w *Worker) SetDebug(enabled bool) {
	w.msgCh <- debugMsg{enabled: enabled}
}

// SetOnline forwards the connectivity snapshot into the actor. The caller
// (a monitor subscription) remains decoupled; only values cross the
// boundary.
func (w *Worker) SetOnline(online bool, totalOffline time.Duration) {
	select {
	case w.msgCh <- onlineMsg{online: online, totalOffline: totalOffline}:
	default:
	}
}

func (w *Worker) cacheKey(req Request) string {
	return req.Method + " " + req.URL
}

func (w *Worker) handleFetch(ctx context.Context, req Request) (Response, error) {
	strategy := Classify(req.Path)
	key := w.cacheKey(req)

	if w.debug {
		w.logger.Info("edge fetch",
			zap.String("url", req.URL),
			zap.String("strategy", strategy.String()))
	}

	switch strategy {
	case CacheFirst:
		if entry, ok := w.fresh(key); ok {
			w.cacheHits++
			return entry.response.cached(), nil
		}
		return w.fetchAndStore(ctx, req, key)

	case StaleWhileRevalidate:
		if entry, ok := w.fresh(key); ok {
			w.cacheHits++
			w.revalidate(req, key)
			return entry.response.cached(), nil
		}
		return w.fetchAndStore(ctx, req, key)

	default: // NetworkFirst
		resp, err := w.fetchAndStore(ctx, req, key)
		if err == nil {
			return resp, nil
		}
		if entry, ok := w.fresh(key); ok {
			w.cacheHits++
			return entry.response.cached(), nil
		}
		return Response{}, err
	}
}

func (r Response) cached() Response {
	r.FromCache = true
	return r
}

// fresh returns the cache entry for key when present and inside the
// retention window.
func (w *Worker) fresh(key string) (cacheEntry, bool) {
	entry, ok := w.cache[key]
	if !ok {
		return cacheEntry{}, false
	}
	if w.now().Sub(entry.storedAt) > w.retention {
		delete(w.cache, key)
		return cacheEntry{}, false
	}
	return entry, true
}

func (w *Worker) fetchAndStore(ctx context.Context, req Request, key string) (Response, error) {
	w.networkRequests++
	resp, err := w.upstream.Do(ctx, req)
	if err != nil {
		return Response{}, err
	}
	if resp.Status < 400 {
		w.cache[key] = cacheEntry{response: resp, storedAt: w.now()}
	}
	return resp, nil
}

// revalidate refreshes a stale-while-revalidate entry in the background.
// The fetched response re-enters the actor as a message, keeping every
// cache mutation inside the loop.
func (w *Worker) revalidate(req Request, key string) {
	w.networkRequests++
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		resp, err := w.upstream.Do(ctx, req)
		if err != nil || resp.Status >= 400 {
			return
		}
		select {
		case w.msgCh <- revalidatedMsg{key: key, resp: resp}:
		default:
		}
	}()
}

// sweepExpired purges entries older than the retention window.
func (w *Worker) sweepExpired() {
	cutoff := w.now().Add(-w.retention)
	removed := 0
	for key, entry := range w.cache {
		if entry.storedAt.Before(cutoff) {
			delete(w.cache, key)
			removed++
		}
	}
	if removed > 0 {
		w.logger.Debug("edge cache sweep", zap.Int("removed", removed))
	}
}
