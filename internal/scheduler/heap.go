package scheduler

import "container/heap"

// keyHeap is a min-heap of fire-time keys (UTC UnixNano). A key may be
// present more than once or refer to a bucket that no longer exists; the
// store skips such entries when it pops them.
type keyHeap []int64

func (h keyHeap) Len() int           { return len(h) }
func (h keyHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h keyHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *keyHeap) Push(x any) {
	*h = append(*h, x.(int64))
}

func (h *keyHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

func heapPush(h *keyHeap, k int64) {
	heap.Push(h, k)
}

func heapPop(h *keyHeap) int64 {
	return heap.Pop(h).(int64)
}

// heapPeek returns the smallest key without removing it.
func heapPeek(h *keyHeap) (int64, bool) {
	if h.Len() == 0 {
		return 0, false
	}
	return (*h)[0], true
}

// rebuild replaces the heap contents with exactly the given keys.
func (h *keyHeap) rebuild(keys []int64) {
	*h = append((*h)[:0], keys...)
	heap.Init(h)
}
