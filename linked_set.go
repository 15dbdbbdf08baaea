package hashlink

import (
	"iter"
)

// LinkedSet is a hash set that remembers the order of its values. It is a
// LinkedMap with empty values and shares its costs and caveats.
type LinkedSet[T comparable] struct {
	m LinkedMap[T, struct{}]
}

// NewLinkedSet creates a new LinkedSet. Direct declaration is also
// supported.
func NewLinkedSet[T comparable](options ...func(*MapConfig)) *LinkedSet[T] {
	s := &LinkedSet[T]{}
	s.m.withOptions(options...)
	return s
}

// Len returns the number of values.
func (s *LinkedSet[T]) Len() int {
	return s.m.Len()
}

// IsEmpty reports whether the set holds no values.
func (s *LinkedSet[T]) IsEmpty() bool {
	return s.m.IsEmpty()
}

// Contains reports whether value is present.
func (s *LinkedSet[T]) Contains(value T) bool {
	return s.m.Contains(value)
}

// Get returns the stored value equal to value.
func (s *LinkedSet[T]) Get(value T) (T, bool) {
	k, _, ok := s.m.GetKeyValue(value)
	return k, ok
}

// Insert adds value at the newest end and reports whether it was absent.
// A present value keeps its position.
func (s *LinkedSet[T]) Insert(value T) bool {
	e := s.m.Entry(value)
	if e.Loaded() {
		return false
	}
	e.vacant.Insert(struct{}{})
	return true
}

// InsertToBack adds value at the newest end, moving it there if present,
// and reports whether it was absent.
func (s *LinkedSet[T]) InsertToBack(value T) bool {
	_, loaded := s.m.Insert(value, struct{}{})
	return !loaded
}

// Replace stores value, returning the previously stored equal value. The
// position of a present value is unchanged.
func (s *LinkedSet[T]) Replace(value T) (previous T, replaced bool) {
	e := s.m.Entry(value)
	if o, ok := e.Occupied(); ok {
		return o.ReplaceKey(value), true
	}
	e.vacant.Insert(struct{}{})
	return
}

// Remove deletes value and reports whether it was present.
func (s *LinkedSet[T]) Remove(value T) bool {
	_, ok := s.m.Remove(value)
	return ok
}

// Take deletes value and returns the stored equal value.
func (s *LinkedSet[T]) Take(value T) (T, bool) {
	k, _, ok := s.m.RemoveEntry(value)
	return k, ok
}

// Front returns the oldest value.
func (s *LinkedSet[T]) Front() (T, bool) {
	k, _, ok := s.m.Front()
	return k, ok
}

// Back returns the newest value.
func (s *LinkedSet[T]) Back() (T, bool) {
	k, _, ok := s.m.Back()
	return k, ok
}

// PopFront removes and returns the oldest value.
func (s *LinkedSet[T]) PopFront() (T, bool) {
	k, _, ok := s.m.PopFront()
	return k, ok
}

// PopBack removes and returns the newest value.
func (s *LinkedSet[T]) PopBack() (T, bool) {
	k, _, ok := s.m.PopBack()
	return k, ok
}

// ToFront moves value to the oldest end.
func (s *LinkedSet[T]) ToFront(value T) bool {
	return s.m.ToFront(value)
}

// ToBack moves value to the newest end.
func (s *LinkedSet[T]) ToBack(value T) bool {
	return s.m.ToBack(value)
}

// Clear removes all values.
func (s *LinkedSet[T]) Clear() {
	s.m.Clear()
}

// Reserve makes room for additional more values.
func (s *LinkedSet[T]) Reserve(additional int) {
	s.m.Reserve(additional)
}

// ShrinkToFit releases unused storage.
func (s *LinkedSet[T]) ShrinkToFit() {
	s.m.ShrinkToFit()
}

// Clone returns a copy of the set.
func (s *LinkedSet[T]) Clone() *LinkedSet[T] {
	c := &LinkedSet[T]{}
	s.m.cloneTo(&c.m)
	return c
}

// All returns an iterator from the oldest to the newest value.
func (s *LinkedSet[T]) All() iter.Seq[T] {
	return s.m.Keys()
}

// Backward returns an iterator from the newest to the oldest value.
func (s *LinkedSet[T]) Backward() iter.Seq[T] {
	return func(yield func(T) bool) {
		s.m.RangeBackward(func(v T, _ struct{}) bool {
			return yield(v)
		})
	}
}

// Drain takes every value out of the set; see LinkedMap.Drain.
func (s *LinkedSet[T]) Drain() iter.Seq[T] {
	seq := s.m.Drain()
	return func(yield func(T) bool) {
		seq(func(v T, _ struct{}) bool {
			return yield(v)
		})
	}
}

// Retain keeps only the values for which fn returns true.
func (s *LinkedSet[T]) Retain(fn func(T) bool) {
	s.m.Retain(func(v T, _ *struct{}) bool {
		return fn(v)
	})
}

// Extend inserts every value of seq, as Insert does.
func (s *LinkedSet[T]) Extend(seq iter.Seq[T]) {
	for v := range seq {
		s.Insert(v)
	}
}
