// Package chunk provides a chunked linked-list deque.
//
// Elements are stored in fixed-size nodes, so pushing to the back and popping
// from the front are O(1) without shifting, and steady-state use does not
// allocate once a node is available for reuse.
//
// A Deque is NOT safe for concurrent use, callers provide the locking.
package chunk

// nodeSize is the number of elements per node.
const nodeSize = 64

// Deque is a FIFO with access to both ends. The zero value is ready to use.
type Deque[T any] struct {
	head   *node[T]
	tail   *node[T]
	spare  *node[T]
	length int
}

type node[T any] struct {
	items   [nodeSize]T
	next    *node[T]
	readPos int // first unread slot
	pos     int // first unused slot
}

func (q *Deque[T]) newNode() *node[T] {
	if n := q.spare; n != nil {
		q.spare = nil
		return n
	}
	return new(node[T])
}

// recycle keeps one exhausted node around, popped slots are already zeroed.
func (q *Deque[T]) recycle(n *node[T]) {
	n.next = nil
	n.readPos = 0
	n.pos = 0
	q.spare = n
}

// Len returns the number of elements.
func (q *Deque[T]) Len() int {
	return q.length
}

// PushBack appends v to the back.
func (q *Deque[T]) PushBack(v T) {
	if q.tail == nil {
		q.tail = q.newNode()
		q.head = q.tail
	}

	if q.tail.pos == nodeSize {
		n := q.newNode()
		q.tail.next = n
		q.tail = n
	}

	q.tail.items[q.tail.pos] = v
	q.tail.pos++
	q.length++
}

// PopFront removes and returns the front element.
func (q *Deque[T]) PopFront() (v T, ok bool) {
	if q.length == 0 {
		return v, false
	}

	h := q.head
	v = h.items[h.readPos]
	var zero T
	h.items[h.readPos] = zero
	h.readPos++
	q.length--

	if h.readPos == h.pos {
		if h == q.tail {
			// only node, rewind the cursors instead of releasing it
			h.readPos = 0
			h.pos = 0
		} else {
			q.head = h.next
			q.recycle(h)
		}
	}

	return v, true
}

// Front returns the front element without removing it.
func (q *Deque[T]) Front() (v T, ok bool) {
	if q.length == 0 {
		return v, false
	}
	return q.head.items[q.head.readPos], true
}

// Back returns the back element without removing it.
func (q *Deque[T]) Back() (v T, ok bool) {
	if q.length == 0 {
		return v, false
	}
	return q.tail.items[q.tail.pos-1], true
}

// AppendTo appends the elements at positions [from, Len()) to dst, front
// first, and returns the extended slice. Whole nodes before from are skipped.
func (q *Deque[T]) AppendTo(dst []T, from int) []T {
	if from < 0 {
		from = 0
	}
	if from >= q.length {
		return dst
	}
	skip := from
	for n := q.head; n != nil; n = n.next {
		count := n.pos - n.readPos
		if skip >= count {
			skip -= count
			continue
		}
		dst = append(dst, n.items[n.readPos+skip:n.pos]...)
		skip = 0
	}
	return dst
}
