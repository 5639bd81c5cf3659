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
	"fmt"

	"github.com/corvidb/corvid/internal/corerr"
	"github.com/corvidb/corvid/internal/types"
)

// PatchOp is one RFC 6902-shaped operation, the unit RETURN DIFF emits and
// the PATCH data clause consumes. Value is nil for "remove"; a "test" op
// always requires the field to be present.
type PatchOp struct {
	Op    string // "add" | "remove" | "replace" | "test"
	Path  string // "/" + field name, or "/" for the whole document; nested paths are not produced by Diff
	Value types.Value
}

func (p PatchOp) toValue() types.Value {
	o := types.NewObject()
	o.Set("op", types.NewString(p.Op))
	o.Set("path", types.NewString(p.Path))
	if p.Value != nil {
		o.Set("value", p.Value)
	}
	return o
}

// Diff computes the field-level patch that turns before into after,
// implementing RETURN DIFF (spec.md §4.6 step 6, §8.8). Only top-level
// object fields are diffed: a field present in after but not before is an
// "add", a field dropped is a "remove", and a field whose value changed is
// a "replace". Nested object/array values are compared wholesale by
// MarshalValue equality rather than walked recursively, since spec.md
// defines DIFF at the document level, not per leaf.
func Diff(before, after types.Value) []PatchOp {
	beforeObj, _ := before.(*types.Object)
	afterObj, _ := after.(*types.Object)

	if beforeObj == nil && afterObj == nil {
		return nil
	}
	if beforeObj == nil {
		return []PatchOp{{Op: "replace", Path: "/", Value: after}}
	}
	if afterObj == nil {
		return []PatchOp{{Op: "remove", Path: "/"}}
	}

	var ops []PatchOp
	for _, key := range beforeObj.Keys() {
		bv, _ := beforeObj.Get(key)
		if av, ok := afterObj.Get(key); ok {
			if !valueEqual(bv, av) {
				ops = append(ops, PatchOp{Op: "replace", Path: "/" + key, Value: av})
			}
		} else {
			ops = append(ops, PatchOp{Op: "remove", Path: "/" + key})
		}
	}
	for _, key := range afterObj.Keys() {
		if _, ok := beforeObj.Get(key); !ok {
			av, _ := afterObj.Get(key)
			ops = append(ops, PatchOp{Op: "add", Path: "/" + key, Value: av})
		}
	}
	return ops
}

func valueEqual(a, b types.Value) bool {
	ab, aerr := types.MarshalValue(a)
	bb, berr := types.MarshalValue(b)
	if aerr != nil || berr != nil {
		return false
	}
	return string(ab) == string(bb)
}

// ApplyPatch applies a sequence of PatchOps to an object, used by the
// PATCH data clause (spec.md §8.8). A "test" op whose Value doesn't match
// the current field value aborts with corerr.PatchTestError, leaving obj
// unmodified by the failing op (earlier ops in the sequence are not
// rolled back, matching RFC 6902's all-ops-applied-in-order semantics).
func ApplyPatch(obj *types.Object, ops []PatchOp) error {
	for _, op := range ops {
		field := fieldFromPath(op.Path)
		if field == "" {
			return corerr.ErrInvalidPatch
		}
		switch op.Op {
		case "add", "replace":
			obj.Set(field, op.Value)
		case "remove":
			obj.Delete(field)
		case "test":
			cur, ok := obj.Get(field)
			if !ok {
				return &corerr.PatchTestError{Expected: fmt.Sprint(op.Value), Got: "<missing>"}
			}
			if !valueEqual(cur, op.Value) {
				return &corerr.PatchTestError{Expected: fmt.Sprint(op.Value), Got: fmt.Sprint(cur)}
			}
		default:
			return corerr.ErrInvalidPatch
		}
	}
	return nil
}

func fieldFromPath(path string) string {
	if len(path) < 2 || path[0] != '/' {
		return ""
	}
	return path[1:]
}
