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

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/corvidb/corvid/internal/corerr"
)

// Coerce converts v to the requested Kind following SurrealQL's permissive
// field-kind rules (spec.md C8 "coerce field values to their declared
// kind"), returning corerr.CoerceError when no conversion exists. This is
// stricter than a runtime cast: Coerce never silently truncates (e.g.
// Decimal -> Int requires an exact integer value).
func Coerce(v Value, to Kind) (Value, error) {
	if v.Kind() == to {
		return v, nil
	}
	switch to {
	case KindNone:
		return None{}, nil
	case KindNull:
		return Null{}, nil
	case KindBool:
		return Bool(Truthy(v)), nil
	case KindString:
		return coerceString(v)
	case KindNumber:
		return coerceNumber(v)
	case KindDatetime:
		return coerceDatetime(v)
	case KindDuration:
		return coerceDuration(v)
	case KindUUID:
		return coerceUUID(v)
	case KindArray:
		return coerceArray(v)
	case KindSet:
		arr, err := coerceArray(v)
		if err != nil {
			return nil, err
		}
		return Set(arr.(Array)), nil
	case KindBytes:
		if s, ok := v.(Str); ok {
			return Bytes(s.String()), nil
		}
	}
	return nil, &corerr.CoerceError{From: v.Kind().String(), To: to.String()}
}

func coerceString(v Value) (Value, error) {
	switch t := v.(type) {
	case Null:
		return NewString(""), nil
	case Bool:
		if t {
			return NewString("true"), nil
		}
		return NewString("false"), nil
	case Num:
		return NewString(t.Number.String()), nil
	case Datetime:
		return NewString(t.Time.Format(time.RFC3339Nano)), nil
	case DurationValue:
		return NewString(t.Duration.String()), nil
	case UUID:
		return NewString(t.UUID.String()), nil
	case RecordID:
		return NewString(t.String()), nil
	case Bytes:
		return NewString(string(t)), nil
	default:
		return nil, &corerr.CoerceError{From: v.Kind().String(), To: "string"}
	}
}

func coerceNumber(v Value) (Value, error) {
	switch t := v.(type) {
	case Str:
		s := t.String()
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Num{NewInt(i)}, nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return Num{NewFloat(f)}, nil
		}
		return nil, &corerr.CoerceError{From: "string", To: "number", Hint: "not numeric: " + s}
	case Bool:
		if t {
			return Num{NewInt(1)}, nil
		}
		return Num{NewInt(0)}, nil
	default:
		return nil, &corerr.CoerceError{From: v.Kind().String(), To: "number"}
	}
}

func coerceDatetime(v Value) (Value, error) {
	s, ok := v.(Str)
	if !ok {
		return nil, &corerr.CoerceError{From: v.Kind().String(), To: "datetime"}
	}
	t, err := time.Parse(time.RFC3339Nano, s.String())
	if err != nil {
		return nil, &corerr.CoerceError{From: "string", To: "datetime", Hint: err.Error()}
	}
	return Datetime{t.UTC()}, nil
}

func coerceDuration(v Value) (Value, error) {
	s, ok := v.(Str)
	if !ok {
		return nil, &corerr.CoerceError{From: v.Kind().String(), To: "duration"}
	}
	d, err := ParseDuration(s.String())
	if err != nil {
		return nil, &corerr.CoerceError{From: "string", To: "duration", Hint: err.Error()}
	}
	return DurationValue{d}, nil
}

func coerceUUID(v Value) (Value, error) {
	s, ok := v.(Str)
	if !ok {
		return nil, &corerr.CoerceError{From: v.Kind().String(), To: "uuid"}
	}
	id, err := uuid.Parse(s.String())
	if err != nil {
		return nil, &corerr.CoerceError{From: "string", To: "uuid", Hint: err.Error()}
	}
	return UUID{id}, nil
}

func coerceArray(v Value) (Value, error) {
	switch t := v.(type) {
	case Set:
		return Array(t), nil
	case None, Null:
		return Array(nil), nil
	default:
		return Array{v}, nil
	}
}
