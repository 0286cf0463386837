// Package queue provides a fixed-capacity FIFO that drops the oldest entry
// when full. Not safe for concurrent use; the caller owns it.
package queue

type Queue[T any] struct {
	buf  []T
	head int // next dequeue position
	tail int // next enqueue position
	len  int
}

// New returns a queue holding at most capacity entries. Storage is allocated
// once here.
func New[T any](capacity int) *Queue[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue[T]{buf: make([]T, capacity)}
}

// Enqueue appends v. If the queue is full the oldest entry is evicted first;
// the evicted value is returned with dropped set.
func (q *Queue[T]) Enqueue(v T) (evicted T, dropped bool) {
	if q.len == len(q.buf) {
		evicted = q.buf[q.head]
		dropped = true
		q.head = (q.head + 1) % len(q.buf)
		q.len--
	}
	q.buf[q.tail] = v
	q.tail = (q.tail + 1) % len(q.buf)
	q.len++
	return evicted, dropped
}

// Dequeue removes and returns the oldest entry.
func (q *Queue[T]) Dequeue() (T, bool) {
	var zero T
	if q.len == 0 {
		return zero, false
	}
	v := q.buf[q.head]
	q.buf[q.head] = zero
	q.head = (q.head + 1) % len(q.buf)
	q.len--
	return v, true
}

func (q *Queue[T]) Space() int {
	return len(q.buf) - q.len
}

func (q *Queue[T]) Len() int {
	return q.len
}

func (q *Queue[T]) Cap() int {
	return len(q.buf)
}

func (q *Queue[T]) Full() bool {
	return q.len == len(q.buf)
}

func (q *Queue[T]) Empty() bool {
	return q.len == 0
}
