// Copyright 2026 The Corvid Authors
// This file is part of Corvid.
//
// Corvid is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Corvid is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Corvid. If not, see <http://www.gnu.org/licenses/>.

// Range and TypedRange implement spec.md C11 "Range & Iteration", grounded
// on original_source/surrealdb/core/src/val/range.rs (Bound ordering,
// TypedRange<i64>::iter saturating-overflow semantics).
package types

// BoundKind discriminates Unbounded/Included/Excluded (spec.md §3 "Range").
type BoundKind uint8

const (
	Unbounded BoundKind = iota
	Included
	Excluded
)

// Bound is a generic range endpoint.
type Bound[T any] struct {
	Kind BoundKind
	Val  T
}

func NewUnbounded[T any]() Bound[T]         { return Bound[T]{Kind: Unbounded} }
func NewIncluded[T any](v T) Bound[T]       { return Bound[T]{Kind: Included, Val: v} }
func NewExcluded[T any](v T) Bound[T]       { return Bound[T]{Kind: Excluded, Val: v} }

// RangeValue is a Range over general Values (the Value variant). Ordering
// across ranges orders by start then end, with
// Unbounded < Included(x) < Excluded(x) on the lower end and the reverse on
// the upper end, per spec.md §3.
type RangeValue struct {
	Start Bound[Value]
	End   Bound[Value]
}

func (RangeValue) Kind() Kind { return KindRange }
func (RangeValue) value()     {}

// compareBound orders two same-sided bounds using cmp to compare the
// contained values; lower selects whether this is the start (lower) side
// or the end (upper) side, since the Unbounded/Excluded ordering flips
// between the two sides (spec.md §3).
func compareBound(a, b Bound[Value], lower bool, cmp func(Value, Value) int) int {
	rank := func(k BoundKind) int {
		switch k {
		case Unbounded:
			if lower {
				return -1
			}
			return 1
		case Included:
			return 0
		case Excluded:
			if lower {
				return 1
			}
			return -1
		}
		return 0
	}
	ra, rb := rank(a.Kind), rank(b.Kind)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	if a.Kind == Unbounded {
		return 0
	}
	return cmp(a.Val, b.Val)
}

// Compare implements the Range<Value> total order (spec.md §3).
func (r RangeValue) Compare(o RangeValue, cmp func(Value, Value) int) int {
	if c := compareBound(r.Start, o.Start, true, cmp); c != 0 {
		return c
	}
	return compareBound(r.End, o.End, false, cmp)
}

// TypedRange is a Range specialised to a comparable type, as described in
// spec.md C11.
type TypedRange[T any] struct {
	Start Bound[T]
	End   Bound[T]
}

// Int64Range is the TypedRange<i64> named throughout spec.md §3/§8.
type Int64Range = TypedRange[int64]

// Iter returns an iterator (as a pull-style closure) over
// [Included(start), end), saturating rather than overflowing at the i64
// extrema, matching original_source/.../val/range.rs's
// IntegerRangeIter::next exactly.
func (r Int64Range) Iter() func() (int64, bool) {
	var cur int64
	var end *int64
	switch r.Start.Kind {
	case Included:
		cur = r.Start.Val
	case Excluded:
		if r.Start.Val == maxInt64 {
			// i64::MAX excluded: iterator never yields.
			v := minInt64
			return func() (int64, bool) { _ = v; return 0, false }
		}
		cur = r.Start.Val + 1
	case Unbounded:
		cur = minInt64
	}
	switch r.End.Kind {
	case Included:
		if r.End.Val == maxInt64 {
			end = nil
		} else {
			v := r.End.Val + 1
			end = &v
		}
	case Excluded:
		v := r.End.Val
		end = &v
	case Unbounded:
		end = nil
	}

	exhausted := false
	return func() (int64, bool) {
		if exhausted {
			return 0, false
		}
		if end != nil && cur >= *end {
			return 0, false
		}
		out := cur
		if cur == maxInt64 {
			exhausted = true
		} else {
			cur++
		}
		return out, true
	}
}

const maxInt64 = int64(1<<63 - 1)
const minInt64 = -maxInt64 - 1

// Len computes the count of integers in the range without materialising
// it, matching the original's saturating len() (spec.md §8 testable
// property 5).
func (r Int64Range) Len() uint64 {
	var end int64
	switch r.End.Kind {
	case Unbounded:
		end = maxInt64
	case Included:
		end = r.End.Val
	case Excluded:
		if r.End.Val == minInt64 {
			return 0
		}
		end = r.End.Val - 1
	}
	var start int64
	switch r.Start.Kind {
	case Unbounded:
		start = minInt64
	case Included:
		start = r.Start.Val
	case Excluded:
		if r.Start.Val == maxInt64 {
			return 0
		}
		start = r.Start.Val + 1
	}
	if start > end {
		return 0
	}
	// Both uint64(end) and uint64(start) are reinterpretations of the same
	// bit pattern; their wrapping difference equals the true (non-negative)
	// distance since start <= end was just checked. Both ends are inclusive
	// here, so the count is one more, saturating for the full i64 span.
	dist := uint64(end) - uint64(start)
	if dist == ^uint64(0) {
		return dist
	}
	return dist + 1
}
