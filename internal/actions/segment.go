package actions

import (
	"errors"
	"fmt"
	"iter"
)

var ErrSegmentOutOfRange = errors.New("segment exceeds backing array")

// Element is the set of scalar types an action store holds.
type Element interface {
	~float32 | ~int32
}

// Segment is a non-owning view of length elements of a backing slice starting
// at offset. Segments handed to actuators are only valid for the step that
// issued them.
type Segment[T Element] struct {
	backing []T
	offset  int
	length  int
}

var (
	emptyContinuous = []float32{}
	emptyDiscrete   = []int32{}
)

// EmptySegment returns the canonical empty segment for T. All empty segments of
// the same element type share one backing array and compare equal.
func EmptySegment[T Element]() Segment[T] {
	return Segment[T]{backing: emptyBacking[T]()}
}

func emptyBacking[T Element]() []T {
	var zero T
	switch any(zero).(type) {
	case float32:
		return any(emptyContinuous).([]T)
	case int32:
		return any(emptyDiscrete).([]T)
	default:
		// Named element types get their own empty slice.
		return []T{}
	}
}

// NewSegment creates a view of backing[offset : offset+length].
func NewSegment[T Element](backing []T, offset, length int) (Segment[T], error) {
	if offset < 0 || length < 0 || offset > len(backing) || length > len(backing)-offset {
		return Segment[T]{}, fmt.Errorf("%w: offset=%d length=%d backing=%d", ErrSegmentOutOfRange, offset, length, len(backing))
	}
	if length == 0 && len(backing) == 0 {
		return EmptySegment[T](), nil
	}
	return Segment[T]{backing: backing, offset: offset, length: length}, nil
}

// FromSlice returns a segment spanning all of backing.
func FromSlice[T Element](backing []T) Segment[T] {
	if len(backing) == 0 {
		return EmptySegment[T]()
	}
	return Segment[T]{backing: backing, length: len(backing)}
}

func (s Segment[T]) Len() int {
	return s.length
}

func (s Segment[T]) Offset() int {
	return s.offset
}

func (s Segment[T]) IsEmpty() bool {
	return s.length == 0
}

// At returns the i-th element of the view. It panics when i is outside
// [0, Len()), the same way indexing a slice does.
func (s Segment[T]) At(i int) T {
	s.check(i)
	return s.backing[s.offset+i]
}

// Set writes the i-th element of the view through to the backing array.
func (s Segment[T]) Set(i int, v T) {
	s.check(i)
	s.backing[s.offset+i] = v
}

func (s Segment[T]) check(i int) {
	if i < 0 || i >= s.length {
		panic(fmt.Sprintf("actions: segment index %d out of range [0:%d]", i, s.length))
	}
}

// All yields (index, value) pairs in order. Each call starts a fresh pass.
func (s Segment[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := 0; i < s.length; i++ {
			if !yield(i, s.backing[s.offset+i]) {
				return
			}
		}
	}
}

// Values yields the viewed elements in order.
func (s Segment[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for i := 0; i < s.length; i++ {
			if !yield(s.backing[s.offset+i]) {
				return
			}
		}
	}
}

// Equal reports whether both segments view the same range of the same backing
// array. Element values are not compared.
func (s Segment[T]) Equal(other Segment[T]) bool {
	return s.offset == other.offset &&
		s.length == other.length &&
		sameBacking(s.backing, other.backing)
}

func sameBacking[T Element](a, b []T) bool {
	if len(a) != len(b) || cap(a) != cap(b) {
		return false
	}
	if cap(a) == 0 {
		return true
	}
	return &a[:1][0] == &b[:1][0]
}

// Sub returns a view of length elements starting at offset within s, sharing
// s's backing array.
func (s Segment[T]) Sub(offset, length int) (Segment[T], error) {
	if offset < 0 || length < 0 || offset > s.length || length > s.length-offset {
		return Segment[T]{}, fmt.Errorf("%w: offset=%d length=%d segment=%d", ErrSegmentOutOfRange, offset, length, s.length)
	}
	if length == 0 {
		return EmptySegment[T](), nil
	}
	return Segment[T]{backing: s.backing, offset: s.offset + offset, length: length}, nil
}

// Clear zeroes the viewed range.
func (s Segment[T]) Clear() {
	clear(s.backing[s.offset : s.offset+s.length])
}

// CopyTo copies the viewed elements into dst and returns the number copied.
func (s Segment[T]) CopyTo(dst []T) int {
	return copy(dst, s.backing[s.offset:s.offset+s.length])
}

// Slice returns a copy of the viewed elements.
func (s Segment[T]) Slice() []T {
	return append([]T(nil), s.backing[s.offset:s.offset+s.length]...)
}

func (s Segment[T]) String() string {
	return fmt.Sprintf("Segment{offset=%d length=%d}", s.offset, s.length)
}
