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
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corvidb/corvid/internal/catalog"
	"github.com/corvidb/corvid/internal/compile"
	"github.com/corvidb/corvid/internal/corerr"
	"github.com/corvidb/corvid/internal/types"
)

func newTestID(table, key string) types.RecordID {
	return types.RecordID{Table: table, ID: types.NewString(key)}
}

func TestProcessAppliesDefaultAndAssert(t *testing.T) {
	table := catalog.TableDef{Kind: catalog.TableNormal, Permissions: catalog.TablePermissions{Select: catalog.Permission{Kind: catalog.PermissionFull}}}
	fields := []catalog.FieldDef{
		{Name: "status", Kind: types.KindString, Default: "'pending'"},
		{Name: "age", Kind: types.KindNumber, Assert: "age >= 0"},
	}
	cur := types.NewObject()
	cur.Set("age", types.NewNumberValue(types.NewInt(5)))

	in := &Input{
		Table:   table,
		Fields:  fields,
		Stmt:    StmtCreate,
		ID:      newTestID("person", "a"),
		Current: cur,
		Return:  ReturnSpec{Kind: ReturnAfter},
		EvalCtx: &compile.EvalContext{Params: map[string]types.Value{}, Funcs: compile.NewFuncRegistry(nil)},
	}
	res, err := Process(in)
	require.NoError(t, err)
	out := res.Output.(*types.Object)
	status, ok := out.Get("status")
	require.True(t, ok)
	require.Equal(t, "pending", status.(types.Str).String())
}

func TestProcessRejectsFailedAssertion(t *testing.T) {
	table := catalog.TableDef{Kind: catalog.TableNormal, Permissions: catalog.TablePermissions{Select: catalog.Permission{Kind: catalog.PermissionFull}}}
	fields := []catalog.FieldDef{
		{Name: "age", Kind: types.KindNumber, Assert: "age >= 0"},
	}
	cur := types.NewObject()
	cur.Set("age", types.NewNumberValue(types.NewInt(-1)))

	in := &Input{
		Table:   table,
		Fields:  fields,
		Stmt:    StmtCreate,
		ID:      newTestID("person", "a"),
		Current: cur,
		Return:  ReturnSpec{Kind: ReturnAfter},
		EvalCtx: &compile.EvalContext{Funcs: compile.NewFuncRegistry(nil)},
	}
	_, err := Process(in)
	var assertErr *corerr.FieldAssertionError
	require.ErrorAs(t, err, &assertErr)
	require.Equal(t, "age", assertErr.Field)
}

func TestProcessTableTypeMismatch(t *testing.T) {
	table := catalog.TableDef{Kind: catalog.TableRelation}
	in := &Input{
		Table:   table,
		Stmt:    StmtCreate,
		ID:      newTestID("likes", "a"),
		Current: types.NewObject(),
		EvalCtx: &compile.EvalContext{Funcs: compile.NewFuncRegistry(nil)},
	}
	_, err := Process(in)
	var tcErr *corerr.TableCheckError
	require.ErrorAs(t, err, &tcErr)
}

func TestProcessNoneSelectPermissionIgnoresRow(t *testing.T) {
	table := catalog.TableDef{
		Kind:        catalog.TableNormal,
		Permissions: catalog.TablePermissions{Select: catalog.Permission{Kind: catalog.PermissionNone}},
	}
	in := &Input{
		Table:   table,
		Stmt:    StmtCreate,
		ID:      newTestID("person", "a"),
		Current: types.NewObject(),
		Return:  ReturnSpec{Kind: ReturnAfter},
		EvalCtx: &compile.EvalContext{Funcs: compile.NewFuncRegistry(nil)},
	}
	_, err := Process(in)
	require.True(t, errors.Is(err, corerr.IgnoreErr))
}

func TestProcessWhereFalseIgnoresRow(t *testing.T) {
	table := catalog.TableDef{Kind: catalog.TableNormal, Permissions: catalog.TablePermissions{Select: catalog.Permission{Kind: catalog.PermissionFull}}}
	before := types.NewObject()
	before.Set("active", types.Bool(false))

	whereEval := func(ctx *compile.EvalContext) (types.Value, error) {
		v, _ := ctx.Row.Get("active")
		return v, nil
	}

	in := &Input{
		Table:   table,
		Stmt:    StmtUpdate,
		ID:      newTestID("person", "a"),
		Before:  before,
		Current: before.Clone(),
		Where:   whereEval,
		EvalCtx: &compile.EvalContext{Funcs: compile.NewFuncRegistry(nil)},
	}
	_, err := Process(in)
	require.True(t, errors.Is(err, corerr.IgnoreErr))
}

func TestProcessDeleteMarksRowDeleted(t *testing.T) {
	table := catalog.TableDef{Kind: catalog.TableNormal}
	before := types.NewObject()
	before.Set("name", types.NewString("alice"))

	in := &Input{
		Table:   table,
		Stmt:    StmtDelete,
		ID:      newTestID("person", "a"),
		Before:  before,
		EvalCtx: &compile.EvalContext{Funcs: compile.NewFuncRegistry(nil)},
	}
	res, err := Process(in)
	require.NoError(t, err)
	require.True(t, res.Delete)
}

func TestDiffProducesAddRemoveReplace(t *testing.T) {
	before := types.NewObject()
	before.Set("a", types.NewNumberValue(types.NewInt(1)))
	before.Set("b", types.NewString("x"))

	after := types.NewObject()
	after.Set("a", types.NewNumberValue(types.NewInt(2)))
	after.Set("c", types.Bool(true))

	ops := Diff(before, after)
	byPath := map[string]PatchOp{}
	for _, op := range ops {
		byPath[op.Path] = op
	}
	require.Equal(t, "replace", byPath["/a"].Op)
	require.Equal(t, "remove", byPath["/b"].Op)
	require.Equal(t, "add", byPath["/c"].Op)
}

func TestApplyPatchTestOpFails(t *testing.T) {
	obj := types.NewObject()
	obj.Set("a", types.NewNumberValue(types.NewInt(1)))

	err := ApplyPatch(obj, []PatchOp{{Op: "test", Path: "/a", Value: types.NewNumberValue(types.NewInt(2))}})
	var testErr *corerr.PatchTestError
	require.ErrorAs(t, err, &testErr)
}

func TestCoerceStringToNumber(t *testing.T) {
	v, err := Coerce(types.NewString("42"), types.KindNumber)
	require.NoError(t, err)
	n, ok := v.(types.Num).Int()
	require.True(t, ok)
	require.Equal(t, int64(42), n)
}

func TestCoerceInvalidRaisesCoerceError(t *testing.T) {
	_, err := Coerce(types.NewString("not-a-number"), types.KindNumber)
	var coerceErr *corerr.CoerceError
	require.ErrorAs(t, err, &coerceErr)
}
