package buffer

import (
	"slices"
	"sync"
)

// BoundedQueue is a thread-safe, fixed-capacity FIFO queue used to connect
// adjacent pipeline stages. Push blocks while the queue is full and fails
// once SetExhausted has latched; Pull drains up to maxCount items, blocking
// until at least one is available or the queue is exhausted and drained.
//
// SetExhausted is an idempotent, one-way latch: once set it cannot be
// unset. IsExhausted reports true only once the latch is set AND the queue
// is empty — a producer finishing does not make a queue with buffered data
// exhausted yet.
//
// It is generalized from a BlockBuffer design, moving from an
// io.Reader/io.Writer shape to the push/pull vocabulary the pipeline stages
// use, while keeping that design's circular-slice, sync.Cond-driven core.
type BoundedQueue[T any] struct {
	cond *sync.Cond

	mu         sync.Mutex
	buf        []T
	head, tail int64
	exhausted  bool
}

// NewBoundedQueue creates a BoundedQueue with the given fixed capacity.
func NewBoundedQueue[T any](capacity int) *BoundedQueue[T] {
	q := &BoundedQueue[T]{buf: make([]T, capacity)}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends p to the queue, blocking while there isn't room for all of
// it. It returns false without blocking further once SetExhausted has been
// called, even if some elements were already pushed.
func (q *BoundedQueue[T]) Push(p []T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	bufsz := int64(len(q.buf))
	for len(p) > 0 {
		if q.exhausted {
			return false
		}
		for q.tail-q.head == bufsz {
			q.cond.Wait()
			if q.exhausted {
				return false
			}
		}
		avail := int(bufsz - (q.tail - q.head))
		tail := int(q.tail % bufsz)

		var n int
		if tail+avail <= len(q.buf) {
			n = copy(q.buf[tail:tail+avail], p)
		} else {
			n = copy(q.buf[tail:], p)
			n += copy(q.buf[:avail-n], p[n:])
		}

		q.tail += int64(n)
		p = p[n:]
		q.cond.Signal()
	}
	return true
}

// Pull returns up to maxCount items FIFO, blocking until at least one item
// is available or the queue is exhausted and empty. maxCount of 0 means no
// cap — return everything currently buffered. Returns a nil slice once the
// queue is exhausted and drained.
func (q *BoundedQueue[T]) Pull(maxCount int) []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.head == q.tail {
		if q.exhausted {
			return nil
		}
		q.cond.Wait()
	}

	avail := int(q.tail - q.head)
	if maxCount > 0 && maxCount < avail {
		avail = maxCount
	}
	head := int(q.head % int64(len(q.buf)))

	out := make([]T, avail)
	if head+avail <= len(q.buf) {
		copy(out, q.buf[head:head+avail])
	} else {
		n := copy(out, q.buf[head:])
		copy(out[n:], q.buf[:avail-n])
	}

	q.head += int64(avail)
	q.cond.Signal()
	return out
}

// SetExhausted latches the queue as exhausted, unblocking any pending
// Push or Pull calls. Calling it more than once has no effect.
func (q *BoundedQueue[T]) SetExhausted() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.exhausted {
		return
	}
	q.exhausted = true
	q.cond.Broadcast()
}

// IsExhausted reports whether the queue is exhausted and has been fully
// drained.
func (q *BoundedQueue[T]) IsExhausted() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.exhausted && q.head == q.tail
}

// Len returns the number of elements currently buffered.
func (q *BoundedQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int(q.tail - q.head)
}

// Snapshot returns a copy of the elements currently buffered, for tests
// and diagnostics.
func (q *BoundedQueue[T]) Snapshot() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	size := int64(len(q.buf))
	h := q.head % size
	n := q.tail - q.head
	if h+n <= size {
		return slices.Clone(q.buf[h : h+n])
	}
	return slices.Concat(q.buf[h:], q.buf[:h+n-size])
}
