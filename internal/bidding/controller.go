package bidding

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/FacuTaborra/FastServices2.0-sub000/internal/requests"
	"github.com/FacuTaborra/FastServices2.0-sub000/shared/models"
)

// DefaultInterval is how often the countdown is refreshed.
const DefaultInterval = 60 * time.Second

var ErrNotBidding = errors.New("countdown only applies to bidding requests with a deadline")

// Closer performs close and cancel mutations. *requests.Service implements it.
type Closer interface {
	Close(ctx context.Context, req models.ServiceRequest, mode requests.CloseMode) (models.ServiceRequest, error)
	Cancel(ctx context.Context, req models.ServiceRequest) (models.ServiceRequest, error)
	InFlight(id int64) bool
}

var _ Closer = (*requests.Service)(nil)

// Notice is a one-time message for the UI layer.
type Notice int

const (
	NoticeNone Notice = iota
	NoticeAutoClosed
	NoticeClosed
	NoticeCancelled
)

func (n Notice) Message() string {
	switch n {
	case NoticeAutoClosed:
		return "The bidding deadline passed and bidding was closed automatically. You can now review the proposals."
	case NoticeClosed:
		return "Bidding closed. You can now review the proposals."
	case NoticeCancelled:
		return "The request was cancelled."
	default:
		return ""
	}
}

// View is a snapshot of the controller state for rendering.
type View struct {
	RequestID        int64
	Status           models.RequestStatus
	Now              time.Time
	Deadline         *time.Time
	Remaining        time.Duration
	Label            string
	ProposalCount    int
	Proposals        []models.Proposal
	PricesVisible    bool
	CanCloseManually bool
	Mutating         bool
	Winner           *models.Proposal
	LastError        error
}

// Controller owns the countdown of one bidding request. Tick may be called
// from a ticker or by hand; the auto-close call runs on its own goroutine.
type Controller struct {
	closer   Closer
	clock    Clock
	latch    Latch
	interval time.Duration
	logger   *zap.SugaredLogger

	mu      sync.Mutex
	req     models.ServiceRequest
	now     time.Time
	notice  Notice
	lastErr error

	wg sync.WaitGroup
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithClock sets the time source.
func WithClock(c Clock) ControllerOption {
	return func(ctl *Controller) {
		ctl.clock = c
	}
}

// WithLatch sets the auto-close latch.
func WithLatch(l Latch) ControllerOption {
	return func(ctl *Controller) {
		ctl.latch = l
	}
}

// WithInterval sets the refresh interval used by Run.
func WithInterval(d time.Duration) ControllerOption {
	return func(ctl *Controller) {
		if d > 0 {
			ctl.interval = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) ControllerOption {
	return func(ctl *Controller) {
		ctl.logger = l
	}
}

// NewController creates a controller for req.
func NewController(req models.ServiceRequest, closer Closer, opts ...ControllerOption) (*Controller, error) {
	if !req.IsLicitacion() || req.BiddingDeadline == nil {
		return nil, ErrNotBidding
	}
	c := &Controller{
		closer:   closer,
		clock:    SystemClock{},
		latch:    NewMemoryLatch(),
		interval: DefaultInterval,
		logger:   zap.NewNop().Sugar(),
		req:      req,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.now = c.clock.Now()
	return c, nil
}

// RequestID returns the id of the controlled request.
func (c *Controller) RequestID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.req.ID
}

// Run ticks immediately and then every interval until ctx is done. It waits
// for an in-flight auto-close before returning.
func (c *Controller) Run(ctx context.Context) {
	defer c.wg.Wait()

	c.Tick(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Tick(ctx)
		}
	}
}

// Tick samples the clock and fires the auto-close when the deadline has
// passed. It reports whether an auto-close was started.
func (c *Controller) Tick(ctx context.Context) bool {
	c.mu.Lock()
	c.now = c.clock.Now()
	req := c.req
	due := c.dueLocked()
	c.mu.Unlock()

	if !due || c.closer.InFlight(req.ID) {
		return false
	}

	acquired, err := c.latch.TryAcquire(ctx, req.ID)
	if err != nil {
		c.logger.Warnw("auto-close latch unavailable", "request_id", req.ID, "error", err)
		return false
	}
	if !acquired {
		return false
	}

	c.logger.Infow("bidding deadline passed, closing", "request_id", req.ID)
	c.wg.Add(1)
	go c.autoClose(ctx, req)
	return true
}

func (c *Controller) dueLocked() bool {
	if c.req.ID <= 0 || c.req.BiddingDeadline == nil {
		return false
	}
	if c.req.Status == models.RequestStatusClosed || c.req.Status == models.RequestStatusCancelled {
		return false
	}
	return ComputeRemaining(*c.req.BiddingDeadline, c.now) == 0
}

func (c *Controller) autoClose(ctx context.Context, req models.ServiceRequest) {
	defer c.wg.Done()

	resp, err := c.closer.Close(ctx, req, requests.CloseAutomatic)
	if err != nil {
		// Release with a fresh context: ctx may be the reason the call failed.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if rerr := c.latch.Release(releaseCtx, req.ID); rerr != nil {
			c.logger.Errorw("failed to release auto-close latch", "request_id", req.ID, "error", rerr)
		}

		c.mu.Lock()
		c.lastErr = err
		c.mu.Unlock()
		c.logger.Warnw("auto-close failed, will retry on next tick", "request_id", req.ID, "error", err)
		return
	}

	c.mu.Lock()
	c.foldClosedLocked(resp)
	c.notice = NoticeAutoClosed
	c.lastErr = nil
	c.mu.Unlock()
	c.logger.Infow("bidding auto-closed", "request_id", req.ID, "proposal_count", resp.ProposalCount)
}

func (c *Controller) foldClosedLocked(resp models.ServiceRequest) {
	c.req = resp
	c.req.Status = models.RequestStatusClosed
	if c.req.Proposals == nil {
		c.req.Proposals = []models.Proposal{}
	}
}

// CloseManually ends bidding early. It shares the in-flight guard with the
// auto-close, so only one of them can be issued at a time.
func (c *Controller) CloseManually(ctx context.Context) error {
	c.mu.Lock()
	req := c.req
	c.mu.Unlock()

	if !CanCloseManually(req.Status, req.ProposalCount) {
		if req.Status == models.RequestStatusClosed || req.Status == models.RequestStatusCancelled {
			return requests.ErrInvalidTransition
		}
		return requests.ErrNotEnoughProposals
	}

	resp, err := c.closer.Close(ctx, req, requests.CloseManual)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.foldClosedLocked(resp)
	c.notice = NoticeClosed
	c.mu.Unlock()
	return nil
}

// Cancel cancels the request.
func (c *Controller) Cancel(ctx context.Context) error {
	c.mu.Lock()
	req := c.req
	c.mu.Unlock()

	resp, err := c.closer.Cancel(ctx, req)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.req = resp
	c.req.Status = models.RequestStatusCancelled
	c.notice = NoticeCancelled
	c.mu.Unlock()
	return nil
}

// Refresh folds a freshly fetched server copy into the controller state.
func (c *Controller) Refresh(server models.ServiceRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	merged, err := requests.ReconcileFetched(c.req, server)
	if err != nil {
		return err
	}
	c.req = merged
	return nil
}

// Done reports whether the request reached CLOSED or CANCELLED.
func (c *Controller) Done() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.req.Status == models.RequestStatusClosed || c.req.Status == models.RequestStatusCancelled
}

// TakeNotice returns the pending notice and clears it.
func (c *Controller) TakeNotice() Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.notice
	c.notice = NoticeNone
	return n
}

// View returns a snapshot for rendering.
func (c *Controller) View() View {
	c.mu.Lock()
	req := c.req
	now := c.now
	lastErr := c.lastErr
	c.mu.Unlock()

	v := View{
		RequestID:        req.ID,
		Status:           req.Status,
		Now:              now,
		Deadline:         req.BiddingDeadline,
		ProposalCount:    req.ProposalCount,
		Proposals:        requests.SortProposals(req.Proposals),
		PricesVisible:    requests.PricesVisible(req),
		CanCloseManually: CanCloseManually(req.Status, req.ProposalCount),
		Mutating:         c.closer.InFlight(req.ID),
		LastError:        lastErr,
	}
	if req.BiddingDeadline != nil {
		v.Remaining = ComputeRemaining(*req.BiddingDeadline, now)
	}
	v.Label = Label(req.Status, v.Remaining)
	if w, ok := requests.Winner(req); ok {
		v.Winner = &w
	}
	return v
}

// Wait blocks until an in-flight auto-close has settled.
func (c *Controller) Wait() {
	c.wg.Wait()
}
