package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/herald/internal/metrics"
	"github.com/forgo/herald/internal/model"
	"github.com/forgo/herald/internal/scheduler"
)

// ============================================================================
// Test Helpers
// ============================================================================

type delivered struct {
	post   model.ScheduledPost
	mode   string
	fireAt time.Time
}

type mockDeliverer struct {
	mu          sync.Mutex
	deliverFunc func(ctx context.Context, post model.ScheduledPost) error
	calls       []delivered
}

func (m *mockDeliverer) Deliver(ctx context.Context, post model.ScheduledPost, mode string, fireAt *time.Time) error {
	m.mu.Lock()
	m.calls = append(m.calls, delivered{post: post, mode: mode, fireAt: *fireAt})
	m.mu.Unlock()
	if m.deliverFunc != nil {
		return m.deliverFunc(ctx, post)
	}
	return nil
}

func (m *mockDeliverer) delivered() []delivered {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]delivered(nil), m.calls...)
}

// everySchedule fires a fixed interval after the previous boundary
type everySchedule time.Duration

func (e everySchedule) Next(t time.Time) time.Time {
	return t.Add(time.Duration(e))
}

var base = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func post(id string, freq model.Frequency) model.ScheduledPost {
	return model.ScheduledPost{
		ID:        id,
		Content:   "content " + id,
		Platform:  model.PlatformLinkedIn,
		Frequency: freq,
		Target:    model.IndividualTarget(),
	}
}

func newDispatcher(store *scheduler.Store, d *mockDeliverer, now time.Time, workers int) *PostDispatcher {
	return NewPostDispatcher(PostDispatcherConfig{
		Store:    store,
		Delivery: d,
		Clock:    scheduler.ClockFunc(func() time.Time { return now }),
		Workers:  workers,
		Metrics:  metrics.New(),
	})
}

// ============================================================================
// RunOnce
// ============================================================================

func TestPostDispatcher_RunOnce_SettlesByFrequency(t *testing.T) {
	t.Parallel()

	store := scheduler.NewStore()
	store.Register(post("once", model.FrequencyOnce), base)
	store.Register(post("daily", model.FrequencyDaily), base)
	store.Register(post("weekly", model.FrequencyWeekly), base.Add(-30*time.Second))
	store.Register(post("later", model.FrequencyOnce), base.Add(time.Minute))

	d := &mockDeliverer{}
	n := newDispatcher(store, d, base.Add(15*time.Second), 1).RunOnce(context.Background())

	assert.Equal(t, 3, n)
	calls := d.delivered()
	require.Len(t, calls, 3)
	assert.Equal(t, "weekly", calls[0].post.ID, "earlier fire times publish first")
	for _, c := range calls {
		assert.Equal(t, metrics.ModeScheduled, c.mode)
	}

	assert.Zero(t, store.InFlight())
	pending := store.Pending()
	require.Len(t, pending, 3)
	byID := map[string]time.Time{}
	for _, e := range pending {
		byID[e.Post.ID] = e.FireAt
	}
	assert.NotContains(t, byID, "once")
	assert.True(t, byID["daily"].Equal(base.AddDate(0, 0, 1)))
	assert.True(t, byID["weekly"].Equal(base.Add(-30*time.Second).AddDate(0, 0, 7)))
	assert.True(t, byID["later"].Equal(base.Add(time.Minute)))
}

func TestPostDispatcher_RunOnce_NothingDue(t *testing.T) {
	t.Parallel()

	store := scheduler.NewStore()
	store.Register(post("p", model.FrequencyOnce), base.Add(time.Hour))
	d := &mockDeliverer{}

	assert.Zero(t, newDispatcher(store, d, base, 1).RunOnce(context.Background()))
	assert.Empty(t, d.delivered())
	assert.Equal(t, 1, store.Len())
}

func TestPostDispatcher_RunOnce_FailureStillReschedules(t *testing.T) {
	t.Parallel()

	store := scheduler.NewStore()
	store.Register(post("daily", model.FrequencyDaily), base)
	d := &mockDeliverer{deliverFunc: func(ctx context.Context, p model.ScheduledPost) error {
		return errors.New("linkedin: status 500")
	}}

	newDispatcher(store, d, base, 1).RunOnce(context.Background())

	pending := store.Pending()
	require.Len(t, pending, 1)
	assert.True(t, pending[0].FireAt.Equal(base.AddDate(0, 0, 1)))
}

func TestPostDispatcher_RunOnce_PanicContained(t *testing.T) {
	t.Parallel()

	store := scheduler.NewStore()
	store.Register(post("boom", model.FrequencyWeekly), base)
	store.Register(post("fine", model.FrequencyOnce), base)
	d := &mockDeliverer{deliverFunc: func(ctx context.Context, p model.ScheduledPost) error {
		if p.ID == "boom" {
			panic("nil credential")
		}
		return nil
	}}

	n := newDispatcher(store, d, base, 1).RunOnce(context.Background())

	assert.Equal(t, 2, n)
	assert.Len(t, d.delivered(), 2)
	assert.Zero(t, store.InFlight())
	pending := store.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "boom", pending[0].Post.ID)
}

func TestPostDispatcher_RunOnce_CancelledDuringPublish(t *testing.T) {
	t.Parallel()

	store := scheduler.NewStore()
	store.Register(post("daily", model.FrequencyDaily), base)
	d := &mockDeliverer{deliverFunc: func(ctx context.Context, p model.ScheduledPost) error {
		assert.True(t, store.Cancel(p.ID))
		return nil
	}}

	newDispatcher(store, d, base, 1).RunOnce(context.Background())

	assert.Zero(t, store.Len())
	assert.Zero(t, store.InFlight())
}

func TestPostDispatcher_RunOnce_Workers(t *testing.T) {
	t.Parallel()

	store := scheduler.NewStore()
	for i := 0; i < 25; i++ {
		store.Register(post(string(rune('A'+i)), model.FrequencyDaily), base.Add(-time.Duration(i)*time.Second))
	}
	d := &mockDeliverer{}

	n := newDispatcher(store, d, base, 4).RunOnce(context.Background())

	assert.Equal(t, 25, n)
	seen := map[string]int{}
	for _, c := range d.delivered() {
		seen[c.post.ID]++
	}
	assert.Len(t, seen, 25)
	for id, count := range seen {
		assert.Equal(t, 1, count, "post %s published more than once", id)
	}
	assert.Equal(t, 25, store.Len())
	assert.Zero(t, store.InFlight())
}

// ============================================================================
// Lifecycle
// ============================================================================

func TestPostDispatcher_StartStop(t *testing.T) {
	t.Parallel()

	store := scheduler.NewStore()
	store.Register(post("p", model.FrequencyOnce), time.Now().Add(-time.Second))
	d := &mockDeliverer{}
	disp := NewPostDispatcher(PostDispatcherConfig{
		Store:    store,
		Delivery: d,
		Schedule: everySchedule(5 * time.Millisecond),
	})

	assert.False(t, disp.IsRunning())
	disp.Start()
	disp.Start()
	assert.True(t, disp.IsRunning())

	require.Eventually(t, func() bool { return len(d.delivered()) == 1 }, 2*time.Second, 5*time.Millisecond)

	disp.Stop()
	disp.Stop()
	assert.False(t, disp.IsRunning())
	assert.Len(t, d.delivered(), 1, "once posts fire a single time")
	assert.Zero(t, store.Len())
}
