package scheduler

import (
	"container/heap"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/forgo/herald/internal/model"
)

// DueGroup holds the posts that were registered under one fire time.
type DueGroup struct {
	FireAt time.Time
	Posts  []model.ScheduledPost
}

// Entry is a pending post together with its fire time.
type Entry struct {
	FireAt time.Time
	Post   model.ScheduledPost
}

// flight tracks posts handed out by DrainDue that have not been rescheduled
// or released yet.
type flight struct {
	count     int
	cancelled bool
}

// Store is the in-memory fire-time index. Every pending post lives under
// exactly one key; empty buckets are removed. All methods are safe for
// concurrent use.
type Store struct {
	mu       sync.Mutex
	buckets  map[int64][]model.ScheduledPost
	keys     keyHeap
	pending  int
	inFlight map[string]*flight
}

// NewStore creates an empty store.
func NewStore() *Store {
	s := &Store{
		buckets:  make(map[int64][]model.ScheduledPost),
		inFlight: make(map[string]*flight),
	}
	heap.Init(&s.keys)
	return s
}

// fireKey normalizes an instant to the store's reference zone.
func fireKey(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func keyTime(k int64) time.Time {
	return time.Unix(0, k).UTC()
}

// Register inserts post under fireAt and returns its ID, assigning a new one
// when post.ID is empty. Registering the same post twice yields two entries
// that fire independently.
func (s *Store) Register(post model.ScheduledPost, fireAt time.Time) string {
	if post.ID == "" {
		post.ID = uuid.New().String()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.insertLocked(post, fireKey(fireAt))
	return post.ID
}

func (s *Store) insertLocked(post model.ScheduledPost, k int64) {
	bucket, ok := s.buckets[k]
	if !ok {
		heapPush(&s.keys, k)
	}
	s.buckets[k] = append(bucket, post)
	s.pending++
}

// DrainDue removes every bucket whose fire time is at or before now and
// returns them in ascending fire-time order. Drained posts are in flight
// until Reschedule or Release is called for them. An empty result means
// nothing is due.
func (s *Store) DrainDue(now time.Time) []DueGroup {
	limit := fireKey(now)

	s.mu.Lock()
	defer s.mu.Unlock()

	var due []DueGroup
	for {
		k, ok := heapPeek(&s.keys)
		if !ok || k > limit {
			break
		}
		heapPop(&s.keys)

		posts, ok := s.buckets[k]
		if !ok {
			continue
		}
		delete(s.buckets, k)
		s.pending -= len(posts)

		for _, p := range posts {
			f := s.inFlight[p.ID]
			if f == nil {
				f = &flight{}
				s.inFlight[p.ID] = f
			}
			f.count++
		}
		due = append(due, DueGroup{FireAt: keyTime(k), Posts: posts})
	}

	s.compactLocked()
	return due
}

// Reschedule re-inserts an in-flight post under next. It returns false and
// drops the post when it was cancelled while in flight.
func (s *Store) Reschedule(post model.ScheduledPost, next time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.releaseLocked(post.ID) {
		return false
	}
	s.insertLocked(post, fireKey(next))
	return true
}

// Release ends the in-flight state of a post that will not be rescheduled.
func (s *Store) Release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.releaseLocked(id)
}

// releaseLocked decrements the flight count and reports whether the post
// was cancelled during the flight.
func (s *Store) releaseLocked(id string) (cancelled bool) {
	f := s.inFlight[id]
	if f == nil {
		return false
	}
	cancelled = f.cancelled
	f.count--
	if f.count <= 0 {
		delete(s.inFlight, id)
	}
	return cancelled
}

// Cancel removes every pending entry with the given ID and stops any
// in-flight copy from being rescheduled. It reports whether anything matched.
func (s *Store) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for k, posts := range s.buckets {
		kept := posts[:0]
		for _, p := range posts {
			if p.ID == id {
				found = true
				s.pending--
				continue
			}
			kept = append(kept, p)
		}
		if len(kept) == 0 {
			delete(s.buckets, k)
		} else {
			s.buckets[k] = kept
		}
	}

	if f := s.inFlight[id]; f != nil {
		f.cancelled = true
		found = true
	}

	s.compactLocked()
	return found
}

// compactLocked rebuilds the key heap once stale keys outnumber live ones.
func (s *Store) compactLocked() {
	if s.keys.Len() <= 2*len(s.buckets)+64 {
		return
	}
	live := make([]int64, 0, len(s.buckets))
	for k := range s.buckets {
		live = append(live, k)
	}
	s.keys.rebuild(live)
}

// Pending lists all pending entries ordered by fire time. Posts sharing a
// fire time keep their registration order.
func (s *Store) Pending() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]int64, 0, len(s.buckets))
	for k := range s.buckets {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	entries := make([]Entry, 0, s.pending)
	for _, k := range keys {
		at := keyTime(k)
		for _, p := range s.buckets[k] {
			entries = append(entries, Entry{FireAt: at, Post: p})
		}
	}
	return entries
}

// Len returns the number of pending posts.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// InFlight returns the number of drained posts not yet rescheduled or released.
func (s *Store) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, f := range s.inFlight {
		n += f.count
	}
	return n
}

// NextFireAt returns the earliest pending fire time.
func (s *Store) NextFireAt() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		k, ok := heapPeek(&s.keys)
		if !ok {
			return time.Time{}, false
		}
		if _, live := s.buckets[k]; live {
			return keyTime(k), true
		}
		heapPop(&s.keys)
	}
}
