package controls

import "github.com/doingharm/go-control-bus/internal/chunk"

// Queue is a device's FIFO of pending events. Events are only ever appended
// at the back and removed from the front.
//
// Random access peeks are served from a flat index that is rebuilt lazily:
// from scratch after a removal, and only extended when the queue has grown
// since the index was last brought up to date. The front and back positions
// never touch the index.
type Queue struct {
	events chunk.Deque[*Event]
	index  []*Event

	// counters for the index, read by tests
	rebuilds int
	extends  int
}

// Len is the number of pending events.
func (q *Queue) Len() int { return q.events.Len() }

// Enqueue appends e.
func (q *Queue) Enqueue(e *Event) {
	q.events.PushBack(e)
}

// PollFirst removes and returns the earliest event.
func (q *Queue) PollFirst() (*Event, bool) {
	e, ok := q.events.PopFront()
	if ok && len(q.index) != 0 {
		clear(q.index)
		q.index = q.index[:0]
	}
	return e, ok
}

// Peek returns the event at position (0 is the earliest) without removing
// it. Out of range positions return false.
func (q *Queue) Peek(position int) (*Event, bool) {
	n := q.events.Len()
	switch {
	case position < 0 || position >= n:
		return nil, false
	case position == 0:
		return q.events.Front()
	case position == n-1:
		return q.events.Back()
	default:
		return q.flat()[position], true
	}
}

// flat brings the index up to date and returns it.
func (q *Queue) flat() []*Event {
	switch n, have := q.events.Len(), len(q.index); {
	case have == n:
	case have == 0:
		q.index = q.events.AppendTo(q.index, 0)
		q.rebuilds++
	case have < n:
		q.index = q.events.AppendTo(q.index, have)
		q.extends++
	default:
		clear(q.index)
		q.index = q.events.AppendTo(q.index[:0], 0)
		q.rebuilds++
	}
	return q.index
}
