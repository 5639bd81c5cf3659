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

import "fmt"

// RecordIDKey is the id component of a RecordID: one of
// String/Number/UUID/Array/Object/Range (spec.md §3 "Value"). A Range key
// is only legal when the RecordID is used as a range query against a
// table, never as a concrete row identity (spec.md §3 invariant).
type RecordIDKey interface {
	Value
	recordIDKey()
}

func (Str) recordIDKey()    {}
func (Num) recordIDKey()    {}
func (UUID) recordIDKey()   {}
func (Array) recordIDKey()  {}
func (*Object) recordIDKey() {}
func (RangeValue) recordIDKey() {}

// RecordID is the (table, key) pair SurrealQL calls a "Thing" (GLOSSARY).
type RecordID struct {
	Table string
	ID    RecordIDKey
}

func (RecordID) Kind() Kind { return KindRecordID }
func (RecordID) value()     {}

// IsRangeID reports whether this RecordID's key component is a Range,
// which is only valid inside a range-query expression, never as a
// concrete row identity (spec.md §3 invariant, enforced in internal/doc).
func (r RecordID) IsRangeID() bool {
	_, ok := r.ID.(RangeValue)
	return ok
}

func (r RecordID) String() string {
	return fmt.Sprintf("%s:%s", r.Table, recordKeyString(r.ID))
}

func recordKeyString(k RecordIDKey) string {
	switch v := k.(type) {
	case Str:
		return v.String()
	case Num:
		return v.Number.String()
	case UUID:
		return v.UUID.String()
	case Array:
		s := "["
		for i, e := range v {
			if i > 0 {
				s += ", "
			}
			s += fmt.Sprint(e)
		}
		return s + "]"
	case *Object:
		return "{...}"
	case RangeValue:
		return "<range>"
	default:
		return fmt.Sprint(k)
	}
}
