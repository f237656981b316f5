// Package queue provides the unbounded single-consumer queues connecting the
// tracking reader, the conductor and the surfaces.
package queue

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Send once the receiver dropped the queue, and by
// Recv once the queue is closed and drained.
var ErrClosed = errors.New("queue closed")

// Sender is the sending half of a queue.
type Sender[T any] interface {
	Send(v T) error
}

// Unbounded is a FIFO whose Send never blocks. Values are delivered at least
// once and in order to a single receiver.
type Unbounded[T any] struct {
	mu      sync.Mutex
	items   []T
	closed  bool
	dropped bool

	ready chan struct{}
	done  chan struct{}
}

// New returns an empty queue.
func New[T any]() *Unbounded[T] {
	return &Unbounded[T]{
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// Send appends v. It fails with ErrClosed when the receiver dropped the queue
// or the sender closed it.
func (q *Unbounded[T]) Send(v T) error {
	q.mu.Lock()
	if q.dropped || q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.items = append(q.items, v)
	q.mu.Unlock()
	q.signal()
	return nil
}

// Close marks the end of the stream. Pending values can still be received.
func (q *Unbounded[T]) Close() {
	q.mu.Lock()
	already := q.closed
	q.closed = true
	q.mu.Unlock()
	if !already {
		close(q.done)
	}
}

// Drop is called by the receiver when it stops reading. Later sends fail and
// pending values are discarded.
func (q *Unbounded[T]) Drop() {
	q.mu.Lock()
	q.dropped = true
	q.items = nil
	q.mu.Unlock()
}

// Dropped reports whether the receiver has gone away.
func (q *Unbounded[T]) Dropped() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// TryRecv returns the oldest pending value without blocking.
func (q *Unbounded[T]) TryRecv() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	v := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	return v, true
}

// TryLatest drains every pending value and returns the newest one.
func (q *Unbounded[T]) TryLatest() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	v := q.items[len(q.items)-1]
	q.items = nil
	return v, true
}

// Recv blocks until a value is available, the queue is closed and drained, or
// ctx is done.
func (q *Unbounded[T]) Recv(ctx context.Context) (T, error) {
	for {
		if v, ok := q.TryRecv(); ok {
			return v, nil
		}
		select {
		case <-q.ready:
		case <-q.done:
			if v, ok := q.TryRecv(); ok {
				return v, nil
			}
			var zero T
			return zero, ErrClosed
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// Ready is signalled after a Send. A receiver selecting on several queues
// must drain with TryRecv after each signal.
func (q *Unbounded[T]) Ready() <-chan struct{} {
	return q.ready
}

// Done is closed by Close.
func (q *Unbounded[T]) Done() <-chan struct{} {
	return q.done
}

// Len returns the number of pending values.
func (q *Unbounded[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Unbounded[T]) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Func adapts a function to Sender.
type Func[T any] func(v T) error

func (f Func[T]) Send(v T) error {
	return f(v)
}

// Discard is a Sender that accepts everything.
func Discard[T any]() Sender[T] {
	return Func[T](func(T) error { return nil })
}
