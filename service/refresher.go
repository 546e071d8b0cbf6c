package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/layer-3/taskchain/core"
)

const (
	DefaultRefreshInterval = 10 * time.Second
	DefaultPageSize        = 10
)

// TaskView is the last applied read of the three task lists
type TaskView struct {
	Seq         uint64
	AccountID   string
	All         core.TaskPage
	Completed   core.TaskPage
	Pending     core.TaskPage
	RefreshedAt time.Time
}

// RefresherConfig configures a Refresher
type RefresherConfig struct {
	Gateway  *TaskGateway
	Sessions SessionReader
	Interval time.Duration
	PageSize int
	Logger   *slog.Logger
}

// Refresher polls the task lists. Refreshes may overlap; each one takes a
// sequence number when it starts and its result is only applied if no later
// refresh has been applied already.
type Refresher struct {
	gateway  *TaskGateway
	sessions SessionReader
	interval time.Duration
	pageSize int
	logger   *slog.Logger
	now      func() time.Time

	seq      atomic.Uint64
	mu       sync.RWMutex
	view     TaskView
	inFlight sync.WaitGroup

	// guards stopped and every inFlight.Add
	runMu   sync.Mutex
	stopped bool
}

// NewRefresher creates a refresher
func NewRefresher(cfg RefresherConfig) *Refresher {
	r := &Refresher{
		gateway:  cfg.Gateway,
		sessions: cfg.Sessions,
		interval: cfg.Interval,
		pageSize: cfg.PageSize,
		logger:   cfg.Logger,
		now:      time.Now,
	}
	if r.interval <= 0 {
		r.interval = DefaultRefreshInterval
	}
	if r.pageSize <= 0 {
		r.pageSize = DefaultPageSize
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// View returns the most recent applied view
func (r *Refresher) View() TaskView {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.view
}

// Refresh re-reads the three lists. It reports whether the result was applied;
// a result overtaken by a later refresh is dropped.
func (r *Refresher) Refresh(ctx context.Context) (TaskView, bool, error) {
	seq := r.seq.Add(1)

	session, ok := r.sessions.Get()
	if !ok {
		view := TaskView{Seq: seq, RefreshedAt: r.now()}
		return view, r.apply(view), core.ErrNoSession
	}
	userID := session.Account().ID

	all, err := r.gateway.ListAll(ctx, userID, 0, r.pageSize)
	if err != nil {
		return TaskView{}, false, err
	}
	completed, err := r.gateway.ListCompleted(ctx, userID)
	if err != nil {
		return TaskView{}, false, err
	}
	pending, err := r.gateway.ListPending(ctx, userID)
	if err != nil {
		return TaskView{}, false, err
	}

	view := TaskView{
		Seq:         seq,
		AccountID:   userID,
		All:         all,
		Completed:   completed,
		Pending:     pending,
		RefreshedAt: r.now(),
	}
	applied := r.apply(view)
	if !applied {
		r.logger.Debug("dropped stale task refresh", "seq", seq)
	}
	return view, applied, nil
}

// Trigger starts a refresh in the background, as done after every write.
// It is a no-op once Run has begun shutting down.
func (r *Refresher) Trigger(ctx context.Context) {
	r.runMu.Lock()
	defer r.runMu.Unlock()
	if r.stopped {
		return
	}
	r.inFlight.Add(1)
	go func() {
		defer r.inFlight.Done()
		r.refreshAndLog(ctx)
	}()
}

// Run refreshes immediately and then on every tick until ctx is done.
// Ticks do not wait for the previous refresh to finish.
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	defer r.stop()

	r.Trigger(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Trigger(ctx)
		}
	}
}

func (r *Refresher) stop() {
	r.runMu.Lock()
	r.stopped = true
	r.runMu.Unlock()
	r.inFlight.Wait()
}

func (r *Refresher) refreshAndLog(ctx context.Context) {
	if _, _, err := r.Refresh(ctx); err != nil && !errors.Is(err, core.ErrNoSession) && ctx.Err() == nil {
		r.logger.Warn("task refresh failed", "error", err)
	}
}

func (r *Refresher) apply(view TaskView) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if view.Seq <= r.view.Seq {
		return false
	}
	r.view = view
	return true
}
