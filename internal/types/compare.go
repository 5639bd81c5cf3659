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

package types

import "bytes"

// Compare implements the Value total order used by ORDER BY, index keys,
// and Distinct (spec.md §3, §4.5 Sort: "Null and None sort before all other
// values by default; total order inside Number is defined in §3"). Values
// of different kinds order by Kind first, matching the closed-enum
// discriminant ordering of the Rust original.
func Compare(a, b Value) int {
	// None and Null both sort before everything else, None before Null,
	// per spec.md §4.5.
	ak, bk := rankForSort(a), rankForSort(b)
	if ak != bk {
		if ak < bk {
			return -1
		}
		return 1
	}
	switch av := a.(type) {
	case None:
		return 0
	case Null:
		return 0
	case Bool:
		bv := b.(Bool)
		switch {
		case !bool(av) && bool(bv):
			return -1
		case bool(av) && !bool(bv):
			return 1
		default:
			return 0
		}
	case Num:
		return av.Number.Compare(b.(Num).Number)
	case Str:
		return av.sym.Compare(b.(Str).sym)
	case Bytes:
		return bytes.Compare(av, b.(Bytes))
	case Datetime:
		bv := b.(Datetime)
		switch {
		case av.Time.Before(bv.Time):
			return -1
		case av.Time.After(bv.Time):
			return 1
		default:
			return 0
		}
	case DurationValue:
		return av.Duration.Compare(b.(DurationValue).Duration)
	case UUID:
		bv := b.(UUID)
		return bytes.Compare(av.UUID[:], bv.UUID[:])
	case Array:
		return compareSlice(av, b.(Array))
	case Set:
		return compareSlice(Array(av), Array(b.(Set)))
	case *Object:
		return compareObject(av, b.(*Object))
	case RecordID:
		bv := b.(RecordID)
		if av.Table != bv.Table {
			if av.Table < bv.Table {
				return -1
			}
			return 1
		}
		return Compare(av.ID, bv.ID)
	case RangeValue:
		return av.Compare(b.(RangeValue), Compare)
	case Regex:
		bv := b.(Regex)
		switch {
		case av.Pattern < bv.Pattern:
			return -1
		case av.Pattern > bv.Pattern:
			return 1
		default:
			return 0
		}
	case File:
		bv := b.(File)
		if av.Bucket != bv.Bucket {
			if av.Bucket < bv.Bucket {
				return -1
			}
			return 1
		}
		if av.Key < bv.Key {
			return -1
		} else if av.Key > bv.Key {
			return 1
		}
		return 0
	case Geometry:
		return 0 // geometries are not meaningfully totally ordered; stable-equal for sort
	case Closure:
		bv := b.(Closure)
		if av.Name < bv.Name {
			return -1
		} else if av.Name > bv.Name {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// rankForSort gives None/Null precedence over everything else (spec.md
// §4.5), then falls back to Kind discriminant order for the rest.
func rankForSort(v Value) int {
	switch v.(type) {
	case None:
		return 0
	case Null:
		return 1
	default:
		return 2 + int(v.Kind())
	}
}

func compareSlice(a, b Array) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

func compareObject(a, b *Object) int {
	ak, bk := append([]string(nil), a.keys...), append([]string(nil), b.keys...)
	n := len(ak)
	if len(bk) < n {
		n = len(bk)
	}
	for i := 0; i < n; i++ {
		if ak[i] != bk[i] {
			if ak[i] < bk[i] {
				return -1
			}
			return 1
		}
		av, _ := a.Get(ak[i])
		bv, _ := b.Get(bk[i])
		if c := Compare(av, bv); c != 0 {
			return c
		}
	}
	switch {
	case len(ak) < len(bk):
		return -1
	case len(ak) > len(bk):
		return 1
	default:
		return 0
	}
}

// Equal is Compare(a,b) == 0.
func Equal(a, b Value) bool { return Compare(a, b) == 0 }

// Truthy implements SurrealQL's definition of truthiness used by WHERE,
// Filter and boolean coercions: None/Null are falsy, numbers are falsy
// exactly at zero, empty strings/arrays/objects are falsy, everything else
// is truthy.
func Truthy(v Value) bool {
	switch t := v.(type) {
	case None, Null:
		return false
	case Bool:
		return bool(t)
	case Num:
		return !t.Number.Equal(NewInt(0))
	case Str:
		return t.String() != ""
	case Array:
		return len(t) > 0
	case Set:
		return len(t) > 0
	case *Object:
		return t.Len() > 0
	case Bytes:
		return len(t) > 0
	default:
		return true
	}
}
