// Package coll provides small, generic collection helpers used by the
// graph engine for path-set arithmetic (§3.4, §9 of the spec: "_path is
// an ordered but duplicate-free list").
//
// This is a generics-based descendant of the teacher's apoc/coll package,
// which operated on []interface{} for Cypher procedure compatibility;
// here the same handful of operations (ToSet, Contains, Remove, Union,
// Different) are specialized to the comparable constraint the path set
// actually needs.
package coll

import "sort"

// ToSet returns a sorted, duplicate-free copy of list. Sorting makes
// insertion order irrelevant to equality, which is what the spec's
// "sorted insertion preserves determinism" design note (§9) calls for.
func ToSet[T ~string](list []T) []T {
	seen := make(map[T]struct{}, len(list))
	out := make([]T, 0, len(list))
	for _, v := range list {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Contains reports whether value is present in list.
func Contains[T comparable](list []T, value T) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

// Insert returns list with value appended if absent, re-sorted so the
// path set stays in canonical order. It is a no-op (returns the same
// slice) if value is already present.
func Insert[T ~string](list []T, value T) []T {
	if Contains(list, value) {
		return list
	}
	out := make([]T, len(list), len(list)+1)
	copy(out, list)
	out = append(out, value)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Remove returns list with every occurrence of value removed.
func Remove[T comparable](list []T, value T) []T {
	out := make([]T, 0, len(list))
	for _, v := range list {
		if v == value {
			continue
		}
		out = append(out, v)
	}
	return out
}

// IsEmpty reports whether list has no elements. A helper rather than a
// bare len()==0 check so the invariant "edge existence <=> non-empty
// path set" (§8.1 invariant 1) reads the same way everywhere it is
// tested.
func IsEmpty[T any](list []T) bool {
	return len(list) == 0
}

// Union returns the sorted union of two sets, deduplicated.
func Union[T ~string](a, b []T) []T {
	return ToSet(append(append([]T{}, a...), b...))
}

// Different returns the elements of a that are not present in b,
// preserving a's order. Grounded on apoc/coll.Different.
func Different[T comparable](a, b []T) []T {
	inB := make(map[T]struct{}, len(b))
	for _, v := range b {
		inB[v] = struct{}{}
	}
	out := make([]T, 0, len(a))
	for _, v := range a {
		if _, ok := inB[v]; !ok {
			out = append(out, v)
		}
	}
	return out
}
