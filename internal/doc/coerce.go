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

package doc

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/corvidb/corvid/internal/corerr"
	"github.com/corvidb/corvid/internal/types"
)

// Coerce converts v to the declared field kind (spec.md §4.6 step 4 "kind
// coercion, raising on lossy coercion"). A value already of the target
// kind passes through unchanged; None/Null always pass through so that
// OPTION<T> fields and missing-but-not-yet-defaulted values don't fail
// the check. Anything else attempts a narrow, well-defined conversion and
// returns a corerr.CoerceError when the source can't be represented in
// the target kind without losing information.
func Coerce(v types.Value, kind types.Kind) (types.Value, error) {
	if v.Kind() == kind || v.Kind() == types.KindNone || v.Kind() == types.KindNull {
		return v, nil
	}

	switch kind {
	case types.KindString:
		return coerceToString(v)
	case types.KindNumber:
		return coerceToNumber(v)
	case types.KindBool:
		return coerceToBool(v)
	case types.KindArray:
		if arr, ok := v.(types.Array); ok {
			return arr, nil
		}
		return types.Array{v}, nil
	default:
		return nil, &corerr.CoerceError{From: v.Kind().String(), To: kind.String(), Hint: "no coercion rule for this kind pair"}
	}
}

func coerceToString(v types.Value) (types.Value, error) {
	switch n := v.(type) {
	case types.Num:
		return types.NewString(n.String()), nil
	case types.Bool:
		if n {
			return types.NewString("true"), nil
		}
		return types.NewString("false"), nil
	default:
		return nil, &corerr.CoerceError{From: v.Kind().String(), To: "string", Hint: "value has no string representation"}
	}
}

func coerceToNumber(v types.Value) (types.Value, error) {
	s, ok := v.(types.Str)
	if !ok {
		return nil, &corerr.CoerceError{From: v.Kind().String(), To: "number", Hint: "only string -> number is supported"}
	}
	text := s.String()
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return types.NewNumberValue(types.NewInt(i)), nil
	}
	if d, err := decimal.NewFromString(text); err == nil {
		return types.NewNumberValue(types.NewDecimal(d)), nil
	}
	return nil, &corerr.CoerceError{From: "string", To: "number", Hint: "value is not numeric: " + text}
}

func coerceToBool(v types.Value) (types.Value, error) {
	s, ok := v.(types.Str)
	if !ok {
		return nil, &corerr.CoerceError{From: v.Kind().String(), To: "bool", Hint: "only string -> bool is supported"}
	}
	switch s.String() {
	case "true":
		return types.Bool(true), nil
	case "false":
		return types.Bool(false), nil
	default:
		return nil, &corerr.CoerceError{From: "string", To: "bool", Hint: "value is not true/false: " + s.String()}
	}
}
