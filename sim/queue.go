// Implements the bounded per-sensor outbound queue. Messages are enqueued
// when a sensor accepts a relay and dequeued when the router forwards them.

package sim

// Queue is a bounded FIFO of pending outbound messages.
//
// Overflow uses drop-tail semantics: once the queue is at capacity, the
// NEWEST message is rejected by Push; queued messages are never evicted.
type Queue struct {
	items []*Message
	cap   int
}

// NewQueue creates a queue with the given capacity. Capacity must be >= 1;
// scenario validation enforces this before any queue is built.
func NewQueue(capacity int) *Queue {
	return &Queue{cap: capacity}
}

// Push appends m to the back of the queue. Returns false without modifying
// the queue when it is already at capacity (drop-tail).
func (q *Queue) Push(m *Message) bool {
	if len(q.items) >= q.cap {
		return false
	}
	q.items = append(q.items, m)
	return true
}

// Pop removes and returns the message at the front of the queue.
// Returns nil if the queue is empty.
func (q *Queue) Pop() *Message {
	if len(q.items) == 0 {
		return nil
	}
	m := q.items[0]
	q.items = q.items[1:]
	return m
}

// Len returns the number of queued messages.
func (q *Queue) Len() int {
	return len(q.items)
}

// Cap returns the queue capacity.
func (q *Queue) Cap() int {
	return q.cap
}
