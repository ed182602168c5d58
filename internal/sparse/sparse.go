// Package sparse provides a sparse set over sentence token indices.
//
// The set supports O(1) insertion, membership and clearing while keeping a
// dense list of members in insertion order. The sentence matcher uses it to
// record tokens immunized by antipatterns for the duration of one match call.
package sparse

import "github.com/coregx/corerule/internal/conv"

// Set is a set of token indices in [0, capacity).
//
// The sparse array maps an index to its slot in the dense array. An index is a
// member when its slot is below size and the dense entry points back at it.
type Set struct {
	sparse []uint32
	dense  []uint32
	size   uint32
}

// NewSet creates an empty set able to hold indices in [0, capacity).
func NewSet(capacity int) *Set {
	c := conv.IntToUint32(capacity)
	return &Set{
		sparse: make([]uint32, c),
		dense:  make([]uint32, 0, c),
	}
}

// Insert adds i to the set and reports whether it was newly added.
// Indices outside the capacity are ignored.
func (s *Set) Insert(i int) bool {
	if i < 0 || i >= len(s.sparse) || s.Contains(i) {
		return false
	}
	v := conv.IntToUint32(i)
	s.dense = append(s.dense, v)
	s.sparse[v] = s.size
	s.size++
	return true
}

// InsertRange adds every index in [from, to].
func (s *Set) InsertRange(from, to int) {
	for i := from; i <= to; i++ {
		s.Insert(i)
	}
}

// Contains reports whether i is in the set.
func (s *Set) Contains(i int) bool {
	if s == nil || i < 0 || i >= len(s.sparse) {
		return false
	}
	idx := s.sparse[i]
	return idx < s.size && int(s.dense[idx]) == i
}

// ContainsRange reports whether every index in [from, to] is in the set.
// An empty range is never contained.
func (s *Set) ContainsRange(from, to int) bool {
	if s == nil || from > to {
		return false
	}
	for i := from; i <= to; i++ {
		if !s.Contains(i) {
			return false
		}
	}
	return true
}

// Clear removes all members in O(1).
func (s *Set) Clear() {
	s.size = 0
	s.dense = s.dense[:0]
}

// Len returns the number of members.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return int(s.size)
}

// IsEmpty reports whether the set has no members.
func (s *Set) IsEmpty() bool {
	return s.Len() == 0
}

// Values returns a copy of the members in insertion order.
func (s *Set) Values() []int {
	out := make([]int, s.size)
	for i := uint32(0); i < s.size; i++ {
		out[i] = int(s.dense[i])
	}
	return out
}
