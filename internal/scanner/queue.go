// Package scanner holds the boundary to the external screen detector. The
// detector itself lives outside this program; it pushes an event whenever
// a purchase page was likely seen, and the app drains the queue at a fixed
// interval.
package scanner

import "sync"

// Event is one "purchase page seen" signal from the detector.
type Event struct {
	Host    string
	Context string
}

// Queue is a bounded in-memory event queue. When full, the oldest event is
// dropped: a stale detection is worth less than a fresh one.
type Queue struct {
	mu     sync.Mutex
	events []Event
	limit  int
}

func NewQueue(limit int) *Queue {
	if limit <= 0 {
		limit = 64
	}
	return &Queue{limit: limit}
}

func (q *Queue) Push(e Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.events) == q.limit {
		q.events = q.events[1:]
	}
	q.events = append(q.events, e)
}

// Drain returns all queued events in arrival order and empties the queue.
func (q *Queue) Drain() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.events
	q.events = nil
	return out
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}
