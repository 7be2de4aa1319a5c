package watcher

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/FacuTaborra/FastServices2.0-sub000/internal/bidding"
	"github.com/FacuTaborra/FastServices2.0-sub000/shared/models"
)

// ErrNotReady is reported until the first cycle succeeds.
var ErrNotReady = errors.New("watcher has not completed a cycle")

// Source lists the account's active requests. *api.Client implements it.
type Source interface {
	ListActiveRequests(ctx context.Context) ([]models.ServiceRequest, error)
}

// Watcher keeps one bidding controller per open LICITACION request and
// ticks them on every cycle.
type Watcher struct {
	config *Config
	source Source
	closer bidding.Closer
	store  Recorder

	mu          sync.Mutex
	running     bool
	controllers map[int64]*bidding.Controller

	// settled holds ids whose controller finished while the latch entry is
	// still held. The entry is released once the source stops listing the
	// request as open.
	settled map[int64]struct{}
	lastErr error
}

// CycleStats holds statistics for a watcher cycle.
type CycleStats struct {
	StartTime     time.Time
	EndTime       time.Time
	Duration      time.Duration
	RequestsSeen  int
	Tracked       int
	Started       int
	Dropped       int
	RefreshFailed int
	AutoClosed    int
	CloseFailed   int
	Released      int
}

// New creates a Watcher. store may be nil when no audit log is kept.
func New(source Source, closer bidding.Closer, store Recorder, opts ...Option) *Watcher {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 1
	}

	return &Watcher{
		config:      cfg,
		source:      source,
		closer:      closer,
		store:       store,
		controllers: make(map[int64]*bidding.Controller),
		settled:     make(map[int64]struct{}),
		lastErr:     ErrNotReady,
	}
}

// Run starts the watcher and blocks until the stop channel is closed.
func (w *Watcher) Run(stop <-chan struct{}) {
	log := w.config.Logger

	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		log.Warnw("watcher already running")
		return
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	log.Infow("watcher started",
		"interval", w.config.Interval.String(),
		"run_on_start", w.config.RunOnStart,
		"max_concurrency", w.config.MaxConcurrency,
	)

	if w.config.RunOnStart {
		w.runCycle()
	}

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			log.Infow("watcher stopping")
			return
		case <-ticker.C:
			w.runCycle()
		}
	}
}

// RunOnce executes a single cycle.
func (w *Watcher) RunOnce(ctx context.Context) (*CycleStats, error) {
	return w.executeCycle(ctx)
}

// Ready returns nil once the latest cycle succeeded.
func (w *Watcher) Ready() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// Tracked returns the ids of requests with a running countdown, ascending.
func (w *Watcher) Tracked() []int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	ids := make([]int64, 0, len(w.controllers))
	for id := range w.controllers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (w *Watcher) runCycle() {
	ctx, cancel := context.WithTimeout(context.Background(), w.config.CycleTimeout)
	defer cancel()

	stats, err := w.executeCycle(ctx)
	if err != nil {
		w.config.Logger.Errorw("watcher cycle failed", "error", err)
		return
	}

	w.config.Logger.Infow("watcher cycle complete",
		"duration", stats.Duration.String(),
		"requests_seen", stats.RequestsSeen,
		"tracked", stats.Tracked,
		"started", stats.Started,
		"dropped", stats.Dropped,
		"refresh_failed", stats.RefreshFailed,
		"auto_closed", stats.AutoClosed,
		"close_failed", stats.CloseFailed,
		"released", stats.Released,
	)
}

func (w *Watcher) executeCycle(ctx context.Context) (*CycleStats, error) {
	stats := &CycleStats{StartTime: time.Now()}

	active, err := w.source.ListActiveRequests(ctx)
	if err != nil {
		err = fmt.Errorf("failed to list active requests: %w", err)
		w.finishCycle(stats, err)
		return nil, err
	}
	stats.RequestsSeen = len(active)

	release := w.sync(active, stats)
	w.release(ctx, release, stats)

	if err := w.tickAll(ctx, stats); err != nil {
		w.finishCycle(stats, err)
		return nil, err
	}

	w.finishCycle(stats, nil)
	return stats, nil
}

func (w *Watcher) finishCycle(stats *CycleStats, err error) {
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	w.mu.Lock()
	w.lastErr = err
	stats.Tracked = len(w.controllers)
	w.mu.Unlock()

	w.config.Metrics.cycle(err, stats.Duration)
	w.config.Metrics.setTracked(stats.Tracked)
}

// sync starts controllers for new bidding requests, folds fresh server
// copies into existing ones and drops those no longer listed. It returns the
// settled ids whose latch entries can be released.
func (w *Watcher) sync(active []models.ServiceRequest, stats *CycleStats) []int64 {
	log := w.config.Logger
	listed := make(map[int64]struct{}, len(active))

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, req := range active {
		if !watchable(req) {
			continue
		}
		listed[req.ID] = struct{}{}

		if ctl, ok := w.controllers[req.ID]; ok {
			if err := ctl.Refresh(req); err != nil {
				log.Warnw("failed to refresh countdown", "request_id", req.ID, "error", err)
				stats.RefreshFailed++
			}
			continue
		}

		ctl, err := bidding.NewController(req, w.closer,
			bidding.WithClock(w.config.Clock),
			bidding.WithLatch(w.config.Latch),
			bidding.WithInterval(w.config.Interval),
			bidding.WithLogger(log),
		)
		if err != nil {
			log.Warnw("skipping request", "request_id", req.ID, "error", err)
			continue
		}
		w.controllers[req.ID] = ctl
		stats.Started++
		log.Debugw("tracking bidding request", "request_id", req.ID, "deadline", req.BiddingDeadline)
	}

	for id := range w.controllers {
		if _, ok := listed[id]; !ok {
			delete(w.controllers, id)
			stats.Dropped++
		}
	}

	var release []int64
	for id := range w.settled {
		if _, ok := listed[id]; !ok {
			delete(w.settled, id)
			release = append(release, id)
		}
	}
	return release
}

func (w *Watcher) release(ctx context.Context, ids []int64, stats *CycleStats) {
	for _, id := range ids {
		if err := w.config.Latch.Release(ctx, id); err != nil {
			w.config.Logger.Warnw("failed to release auto-close latch", "request_id", id, "error", err)
			w.mu.Lock()
			w.settled[id] = struct{}{}
			w.mu.Unlock()
			continue
		}
		stats.Released++
	}
}

// watchable reports whether req has a countdown that can still fire.
func watchable(req models.ServiceRequest) bool {
	if !req.IsLicitacion() || req.BiddingDeadline == nil {
		return false
	}
	return req.Status == models.RequestStatusPublished
}

func (w *Watcher) tickAll(ctx context.Context, stats *CycleStats) error {
	w.mu.Lock()
	ctls := make([]*bidding.Controller, 0, len(w.controllers))
	for _, ctl := range w.controllers {
		ctls = append(ctls, ctl)
	}
	w.mu.Unlock()

	var statsMu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.config.MaxConcurrency)

	for _, ctl := range ctls {
		g.Go(func() error {
			outcome, fired := w.tick(gctx, ctl)
			if !fired {
				return nil
			}
			statsMu.Lock()
			if outcome == OutcomeClosed {
				stats.AutoClosed++
			} else {
				stats.CloseFailed++
			}
			statsMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	w.mu.Lock()
	for id, ctl := range w.controllers {
		if ctl.Done() {
			delete(w.controllers, id)
			w.settled[id] = struct{}{}
		}
	}
	w.mu.Unlock()
	return ctx.Err()
}

// tick fires ctl's auto-close when due and waits for it to settle.
func (w *Watcher) tick(ctx context.Context, ctl *bidding.Controller) (Outcome, bool) {
	if !ctl.Tick(ctx) {
		return "", false
	}
	ctl.Wait()

	view := ctl.View()
	event := Event{
		RequestID:     view.RequestID,
		ProposalCount: view.ProposalCount,
		OccurredAt:    w.config.Clock.Now(),
	}
	if ctl.TakeNotice() == bidding.NoticeAutoClosed {
		event.Outcome = OutcomeClosed
	} else {
		event.Outcome = OutcomeFailed
		if view.LastError != nil {
			event.Error = view.LastError.Error()
		}
	}

	w.config.Metrics.autoClose(event.Outcome)
	if w.store != nil {
		if err := w.store.RecordEvent(context.WithoutCancel(ctx), event); err != nil {
			w.config.Logger.Warnw("failed to record auto-close", "request_id", event.RequestID, "error", err)
		}
	}
	return event.Outcome, true
}
