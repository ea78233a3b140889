// Package pqueue provides a FIFO queue whose items are unique.
package pqueue

import (
	"iter"

	"github.com/elliotchance/orderedmap/v3"

	"github.com/mcoot/teamenforcer/internal/model"
)

// Queue is a FIFO of unique items with constant time membership, removal and dequeue.
// It is not safe for concurrent use.
type Queue[T comparable] struct {
	items *orderedmap.OrderedMap[T, struct{}]
}

// New creates an empty queue
func New[T comparable]() *Queue[T] {
	return &Queue[T]{items: orderedmap.NewOrderedMap[T, struct{}]()}
}

// Enqueue appends item to the tail
func (q *Queue[T]) Enqueue(item T) error {
	if q.Contains(item) {
		return model.ErrDuplicateItem
	}
	q.items.Set(item, struct{}{})
	return nil
}

// Dequeue removes and returns the head
func (q *Queue[T]) Dequeue() (T, error) {
	front := q.items.Front()
	if front == nil {
		var zero T
		return zero, model.ErrEmptyQueue
	}
	item := front.Key
	q.items.Delete(item)
	return item, nil
}

// DequeueMany removes and returns the first n items, or nothing if fewer than n are queued
func (q *Queue[T]) DequeueMany(n int) ([]T, error) {
	if n < 0 || q.items.Len() < n {
		return nil, model.ErrInsufficientItems
	}
	out := make([]T, 0, n)
	for el := q.items.Front(); el != nil && len(out) < n; el = el.Next() {
		out = append(out, el.Key)
	}
	for _, item := range out {
		q.items.Delete(item)
	}
	return out, nil
}

// Remove deletes item from any position
func (q *Queue[T]) Remove(item T) error {
	if !q.items.Delete(item) {
		return model.ErrItemNotFound
	}
	return nil
}

// Contains reports whether item is queued
func (q *Queue[T]) Contains(item T) bool {
	_, ok := q.items.Get(item)
	return ok
}

// PositionOf returns the 1-based position of item
func (q *Queue[T]) PositionOf(item T) (int, error) {
	if !q.Contains(item) {
		return 0, model.ErrItemNotFound
	}
	pos := 1
	for el := q.items.Front(); el != nil; el = el.Next() {
		if el.Key == item {
			return pos, nil
		}
		pos++
	}
	return 0, model.ErrItemNotFound
}

// Peek returns the head without removing it
func (q *Queue[T]) Peek() (T, error) {
	front := q.items.Front()
	if front == nil {
		var zero T
		return zero, model.ErrEmptyQueue
	}
	return front.Key, nil
}

// Clear empties the queue
func (q *Queue[T]) Clear() {
	q.items = orderedmap.NewOrderedMap[T, struct{}]()
}

// Len returns the number of queued items
func (q *Queue[T]) Len() int {
	return q.items.Len()
}

// Snapshot returns the items in order. Each iteration copies the order at its start,
// so the queue may be modified while iterating.
func (q *Queue[T]) Snapshot() iter.Seq[T] {
	return func(yield func(T) bool) {
		items := make([]T, 0, q.items.Len())
		for el := q.items.Front(); el != nil; el = el.Next() {
			items = append(items, el.Key)
		}
		for _, item := range items {
			if !yield(item) {
				return
			}
		}
	}
}
