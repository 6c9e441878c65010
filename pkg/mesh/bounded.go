package mesh

import "fmt"

// Element is the set of scalar types stored in mesh buffers.
type Element interface {
	~float32 | ~uint16 | ~uint32
}

// Bounded is a fixed-capacity buffer with a write cursor.
// Writes past the capacity fail instead of growing or truncating.
type Bounded[T Element] struct {
	data []T
	n    int
}

// NewBounded allocates a buffer that holds exactly capacity elements.
func NewBounded[T Element](capacity int) *Bounded[T] {
	return &Bounded[T]{data: make([]T, capacity)}
}

// Push appends vals. Either all values are written or, on overflow, none are.
func (b *Bounded[T]) Push(vals ...T) error {
	if len(vals) > len(b.data)-b.n {
		return fmt.Errorf("push %d at %d of %d: %w", len(vals), b.n, len(b.data), ErrBufferOverflow)
	}
	b.n += copy(b.data[b.n:], vals)
	return nil
}

// Len returns the number of elements written.
func (b *Bounded[T]) Len() int { return b.n }

// Cap returns the fixed capacity.
func (b *Bounded[T]) Cap() int { return len(b.data) }

// Collect returns the backing slice once every slot has been written.
func (b *Bounded[T]) Collect() ([]T, error) {
	if b.n != len(b.data) {
		return nil, fmt.Errorf("collect %d of %d: %w", b.n, len(b.data), ErrBufferIncomplete)
	}
	return b.data, nil
}
