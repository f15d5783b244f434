package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/forgo/herald/internal/metrics"
	"github.com/forgo/herald/internal/model"
	"github.com/forgo/herald/internal/scheduler"
)

// DueStore is the part of the scheduler store the dispatcher drives
type DueStore interface {
	DrainDue(now time.Time) []scheduler.DueGroup
	Reschedule(post model.ScheduledPost, next time.Time) bool
	Release(id string)
}

// PostDeliverer publishes one post
type PostDeliverer interface {
	Deliver(ctx context.Context, post model.ScheduledPost, mode string, fireAt *time.Time) error
}

// PostDispatcher wakes on every tick boundary, publishes every post whose
// fire time has been reached and hands recurring posts back to the store
// at their next occurrence.
//   - once posts are dropped after their attempt
//   - daily and weekly posts recur from their scheduled fire time, not from
//     the tick that picked them up
//   - a failed publish still reschedules; there are no retries
type PostDispatcher struct {
	store    DueStore
	delivery PostDeliverer
	schedule cron.Schedule
	clock    scheduler.Clock
	workers  int
	logger   *slog.Logger
	metrics  *metrics.Metrics

	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

// PostDispatcherConfig holds configuration for the dispatcher
type PostDispatcherConfig struct {
	Store    DueStore
	Delivery PostDeliverer
	// Schedule produces tick boundaries. Defaults to every minute.
	Schedule cron.Schedule
	Clock    scheduler.Clock
	// Workers bounds concurrent publishes within one tick. 1 publishes
	// sequentially in fire-time order.
	Workers int
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// NewPostDispatcher creates a new post dispatcher job
func NewPostDispatcher(cfg PostDispatcherConfig) *PostDispatcher {
	d := &PostDispatcher{
		store:    cfg.Store,
		delivery: cfg.Delivery,
		schedule: cfg.Schedule,
		clock:    cfg.Clock,
		workers:  cfg.Workers,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		stopCh:   make(chan struct{}),
	}
	if d.schedule == nil {
		d.schedule, _ = cron.ParseStandard("* * * * *")
	}
	if d.clock == nil {
		d.clock = scheduler.SystemClock{}
	}
	if d.workers < 1 {
		d.workers = 1
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// Start begins the dispatcher job
func (d *PostDispatcher) Start() {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.mu.Unlock()

	d.wg.Add(1)
	go d.run()
	d.logger.Info("post dispatcher started", "workers", d.workers)
}

// Stop halts the dispatcher and waits for an in-progress tick to finish
func (d *PostDispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	d.mu.Unlock()

	close(d.stopCh)
	d.wg.Wait()
	d.logger.Info("post dispatcher stopped")
}

// run is the main loop
func (d *PostDispatcher) run() {
	defer d.wg.Done()

	for {
		now := d.clock.Now()
		next := d.schedule.Next(now)
		if next.IsZero() {
			d.logger.Error("tick schedule has no future boundary, dispatcher exiting")
			return
		}

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-timer.C:
			d.RunOnce(context.Background())
		case <-d.stopCh:
			timer.Stop()
			return
		}
	}
}

// RunOnce processes everything due at the current instant and returns the
// number of posts attempted. It is the tick body and is also used by tests
// and manual triggers.
func (d *PostDispatcher) RunOnce(ctx context.Context) int {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("post dispatcher tick panicked", "panic", fmt.Sprint(r))
		}
	}()

	groups := d.store.DrainDue(d.clock.Now())

	due := 0
	for _, g := range groups {
		due += len(g.Posts)
	}
	if due == 0 {
		d.metrics.ObserveTick(0, time.Since(start))
		return 0
	}
	d.logger.Info("dispatching due posts", "count", due, "groups", len(groups))

	if d.workers == 1 {
		for _, g := range groups {
			for _, post := range g.Posts {
				d.dispatch(ctx, g.FireAt, post)
			}
		}
	} else {
		var eg errgroup.Group
		eg.SetLimit(d.workers)
		for _, g := range groups {
			for _, post := range g.Posts {
				fireAt := g.FireAt
				eg.Go(func() error {
					d.dispatch(ctx, fireAt, post)
					return nil
				})
			}
		}
		_ = eg.Wait()
	}

	d.metrics.ObserveTick(due, time.Since(start))
	return due
}

// dispatch publishes one drained post and settles it with the store. A
// panicking publish is contained to this post.
func (d *PostDispatcher) dispatch(ctx context.Context, fireAt time.Time, post model.ScheduledPost) {
	defer d.settle(fireAt, post)
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("publish panicked",
				"post_id", post.ID,
				"platform", post.Platform,
				"panic", fmt.Sprint(r),
			)
		}
	}()

	if err := d.delivery.Deliver(ctx, post, metrics.ModeScheduled, &fireAt); err != nil {
		d.logger.Error("scheduled publish failed",
			"post_id", post.ID,
			"platform", post.Platform,
			"fire_at", fireAt,
			"error", err,
		)
		return
	}
	d.logger.Info("scheduled post published",
		"post_id", post.ID,
		"platform", post.Platform,
		"fire_at", fireAt,
	)
}

// settle reschedules a recurring post or releases a one-shot one
func (d *PostDispatcher) settle(fireAt time.Time, post model.ScheduledPost) {
	next, ok := scheduler.NextFireTime(fireAt, post.Frequency)
	if !ok {
		d.store.Release(post.ID)
		return
	}
	if !d.store.Reschedule(post, next) {
		d.logger.Info("cancelled post not rescheduled", "post_id", post.ID)
		return
	}
	d.metrics.IncRescheduled(string(post.Frequency))
	d.logger.Debug("post rescheduled", "post_id", post.ID, "next_fire_at", next)
}

// IsRunning returns whether the dispatcher is running
func (d *PostDispatcher) IsRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}
