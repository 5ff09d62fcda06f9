// Package set provides small ordered-key sets with deterministic iteration.
package set

import (
	"sort"

	"golang.org/x/exp/constraints"
)

// Set is an unordered collection; Sorted gives a deterministic view
type Set[T constraints.Ordered] map[T]struct{}

// Of returns a set holding xs
func Of[T constraints.Ordered](xs ...T) Set[T] {
	s := make(Set[T], len(xs))
	for _, x := range xs {
		s[x] = struct{}{}
	}
	return s
}

func (s Set[T]) Add(x T)    { s[x] = struct{}{} }
func (s Set[T]) Remove(x T) { delete(s, x) }
func (s Set[T]) Len() int   { return len(s) }

func (s Set[T]) Has(x T) bool {
	_, ok := s[x]
	return ok
}

func (s Set[T]) AddAll(xs ...T) {
	for _, x := range xs {
		s[x] = struct{}{}
	}
}

// Union adds every element of o to s
func (s Set[T]) Union(o Set[T]) {
	for x := range o {
		s[x] = struct{}{}
	}
}

// Equal reports whether s and o hold the same elements
func (s Set[T]) Equal(o Set[T]) bool {
	if len(s) != len(o) {
		return false
	}
	for x := range s {
		if !o.Has(x) {
			return false
		}
	}
	return true
}

// Sorted returns the elements in ascending order
func (s Set[T]) Sorted() []T {
	return Sorted(s)
}

// Sorted returns the keys of m in ascending order
func Sorted[T constraints.Ordered, V any](m map[T]V) []T {
	keys := make([]T, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
