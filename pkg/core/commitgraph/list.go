package commitgraph

import "sync/atomic"

// cell is one link of a lock-free singly-linked list.
type cell[T any] struct {
	value T
	next  *cell[T]
}

// appendList is an append-only list safe for concurrent pushes without locks.
// A push builds a new head cell pointing at the old head and installs it with
// a compare-and-swap, retrying on contention. Cells are immutable once
// published, so readers walking the chain never observe a write in progress.
type appendList[T any] struct {
	head atomic.Pointer[cell[T]]
	size atomic.Int64
}

// push appends v to the list. Safe for concurrent use.
func (l *appendList[T]) push(v T) {
	c := &cell[T]{value: v}
	for {
		old := l.head.Load()
		c.next = old
		if l.head.CompareAndSwap(old, c) {
			l.size.Add(1)
			return
		}
	}
}

// snapshot returns a point-in-time copy of the list contents.
// Elements pushed after the head is loaded are not included. The order is
// most-recent first, which callers must treat as unspecified.
func (l *appendList[T]) snapshot() []T {
	head := l.head.Load()
	if head == nil {
		return nil
	}
	out := make([]T, 0, l.size.Load())
	for c := head; c != nil; c = c.next {
		out = append(out, c.value)
	}
	return out
}

// len returns the number of elements pushed so far.
func (l *appendList[T]) len() int {
	return int(l.size.Load())
}
