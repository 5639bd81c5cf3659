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
	"github.com/corvidb/corvid/internal/compile"
	"github.com/corvidb/corvid/internal/types"
)

// buildReturn implements spec.md §4.6 step 6: NONE emits nothing, NULL
// emits types.Null, DIFF emits the JSON-Patch-shaped op list between
// before and after, BEFORE/AFTER emit the respective snapshot, and
// FIELDS(...) projects a caller-supplied expression list against the
// post-permission view.
func buildReturn(spec ReturnSpec, before types.Value, after *types.Object) (types.Value, error) {
	switch spec.Kind {
	case ReturnNone:
		return nil, nil
	case ReturnNull:
		return types.Null{}, nil
	case ReturnBefore:
		if before == nil {
			return types.Null{}, nil
		}
		return before, nil
	case ReturnAfter:
		if after == nil {
			return types.Null{}, nil
		}
		return after, nil
	case ReturnDiff:
		ops := Diff(before, after)
		arr := make(types.Array, len(ops))
		for i, op := range ops {
			arr[i] = op.toValue()
		}
		return arr, nil
	case ReturnFields:
		out := types.NewObject()
		for _, f := range spec.Fields {
			ctx := &compile.EvalContext{Row: after}
			v, err := f.Eval(ctx)
			if err != nil {
				return nil, err
			}
			out.Set(f.Name, v)
		}
		return out, nil
	default:
		if after == nil {
			return types.Null{}, nil
		}
		return after, nil
	}
}
