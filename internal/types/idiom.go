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

import "strings"

// Idiom is a field-access path such as address.city, tags[0], or
// friends[WHERE age > 18].name. It is the shared currency between the
// parser (C6), the document processor's field rules (C8), and the
// expression evaluator (C7 Project/Compute), grounded on
// original_source/_INDEX.md's idiom/part handling referenced throughout
// value/every.rs.
type Idiom []Part

// PartKind discriminates the segment kinds an Idiom can be built from.
type PartKind uint8

const (
	// PartField selects a named object field, e.g. ".city".
	PartField PartKind = iota
	// PartIndex selects a fixed array index, e.g. "[2]".
	PartIndex
	// PartAll flattens every element/field at this position, e.g. ".*" or "[*]".
	PartAll
	// PartFirst selects the first array element, e.g. "[0]" shorthand ".first()".
	PartFirst
	// PartLast selects the last array element.
	PartLast
	// PartWhere filters an array by a predicate before descending further,
	// e.g. "friends[WHERE age > 18]". Predicate is an opaque evaluator
	// hook supplied by internal/compile; types does not depend on it.
	PartWhere
)

// Part is one segment of an Idiom.
type Part struct {
	Kind  PartKind
	Field string
	Index int
	// Pred, when Kind == PartWhere, is called with each candidate element
	// and returns whether it survives the filter. internal/compile wires
	// this to a compiled expression; types stays free of a compiler
	// dependency.
	Pred func(Value) bool
}

func FieldPart(name string) Part         { return Part{Kind: PartField, Field: name} }
func IndexPart(i int) Part               { return Part{Kind: PartIndex, Index: i} }
func AllPart() Part                      { return Part{Kind: PartAll} }
func FirstPart() Part                    { return Part{Kind: PartFirst} }
func LastPart() Part                     { return Part{Kind: PartLast} }
func WherePart(pred func(Value) bool) Part { return Part{Kind: PartWhere, Pred: pred} }

// ParseIdiom splits a dotted path with optional "[n]"/"[*]" index
// suffixes into an Idiom. It does not handle WHERE-filter syntax; those
// Idioms are constructed directly by internal/compile from parsed AST
// nodes, since a predicate needs a compiled expression, not a string.
func ParseIdiom(path string) Idiom {
	var out Idiom
	for _, raw := range strings.Split(path, ".") {
		if raw == "" {
			continue
		}
		for {
			open := strings.IndexByte(raw, '[')
			if open < 0 {
				if raw != "" {
					out = append(out, FieldPart(raw))
				}
				break
			}
			if open > 0 {
				out = append(out, FieldPart(raw[:open]))
			}
			close := strings.IndexByte(raw[open:], ']')
			if close < 0 {
				break
			}
			inner := raw[open+1 : open+close]
			switch inner {
			case "*":
				out = append(out, AllPart())
			case "$", "last":
				out = append(out, LastPart())
			case "first":
				out = append(out, FirstPart())
			default:
				if n, ok := parseInt(inner); ok {
					out = append(out, IndexPart(n))
				}
			}
			raw = raw[open+close+1:]
		}
	}
	return out
}

func parseInt(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	neg := false
	i := 0
	if s[0] == '-' {
		neg = true
		i = 1
	}
	if i >= len(s) {
		return 0, false
	}
	n := 0
	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
		n = n*10 + int(s[i]-'0')
	}
	if neg {
		n = -n
	}
	return n, true
}

func (idi Idiom) String() string {
	var b strings.Builder
	for i, p := range idi {
		switch p.Kind {
		case PartField:
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(p.Field)
		case PartIndex:
			b.WriteByte('[')
			b.WriteString(itoa(p.Index))
			b.WriteByte(']')
		case PartAll:
			b.WriteString("[*]")
		case PartFirst:
			b.WriteString("[0]")
		case PartLast:
			b.WriteString("[$]")
		case PartWhere:
			b.WriteString("[WHERE]")
		}
	}
	return b.String()
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Get walks v along the Idiom, returning Null for a missing field
// (spec.md §3 "Idioms yield NONE/NULL on miss rather than erroring",
// matching SurrealQL's permissive field access).
func Get(v Value, idi Idiom) Value {
	cur := v
	for _, p := range idi {
		cur = stepPart(cur, p)
	}
	return cur
}

func stepPart(v Value, p Part) Value {
	switch p.Kind {
	case PartField:
		obj, ok := v.(*Object)
		if !ok {
			return None{}
		}
		fv, ok := obj.Get(p.Field)
		if !ok {
			return Null{}
		}
		return fv
	case PartIndex:
		arr, ok := asIndexable(v)
		if !ok {
			return None{}
		}
		i := p.Index
		if i < 0 {
			i += len(arr)
		}
		if i < 0 || i >= len(arr) {
			return None{}
		}
		return arr[i]
	case PartFirst:
		arr, ok := asIndexable(v)
		if !ok || len(arr) == 0 {
			return None{}
		}
		return arr[0]
	case PartLast:
		arr, ok := asIndexable(v)
		if !ok || len(arr) == 0 {
			return None{}
		}
		return arr[len(arr)-1]
	case PartAll:
		arr, ok := asIndexable(v)
		if !ok {
			return v
		}
		return Array(arr)
	case PartWhere:
		arr, ok := asIndexable(v)
		if !ok {
			return None{}
		}
		var out Array
		for _, e := range arr {
			if p.Pred == nil || p.Pred(e) {
				out = append(out, e)
			}
		}
		return out
	default:
		return None{}
	}
}

func asIndexable(v Value) ([]Value, bool) {
	switch t := v.(type) {
	case Array:
		return []Value(t), true
	case Set:
		return []Value(t), true
	default:
		return nil, false
	}
}
