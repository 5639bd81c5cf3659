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

// Kind tags every Value variant. Order matters: Compare uses Kind as the
// outermost ordering key when two values aren't of directly comparable
// kinds (spec.md §3 "Value").
type Kind uint8

const (
	KindNone Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindBytes
	KindDatetime
	KindDuration
	KindUUID
	KindArray
	KindObject
	KindSet
	KindRecordID
	KindRange
	KindGeometry
	KindRegex
	KindFile
	KindClosure
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindDatetime:
		return "datetime"
	case KindDuration:
		return "duration"
	case KindUUID:
		return "uuid"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindSet:
		return "set"
	case KindRecordID:
		return "record"
	case KindRange:
		return "range"
	case KindGeometry:
		return "geometry"
	case KindRegex:
		return "regex"
	case KindFile:
		return "file"
	case KindClosure:
		return "closure"
	default:
		return "unknown"
	}
}
