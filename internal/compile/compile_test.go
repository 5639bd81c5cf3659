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

package compile

import (
	"testing"

	"github.com/corvidb/corvid/internal/lang/ast"
	"github.com/corvidb/corvid/internal/lang/parser"
	"github.com/corvidb/corvid/internal/types"
	"github.com/stretchr/testify/require"
)

func mustExpr(t *testing.T, src string) ast.Expr {
	t.Helper()
	e, err := parser.ParseExpr(src)
	require.NoError(t, err)
	return e
}

func TestCompileArithmetic(t *testing.T) {
	c := NewCompiler(nil)
	eval, err := c.CompileExpr(mustExpr(t, "1 + 2 * 3"))
	require.NoError(t, err)
	v, err := eval(&EvalContext{})
	require.NoError(t, err)
	n := v.(types.Num)
	require.Equal(t, float64(7), n.Number.AsFloat())
}

func TestCompileFieldRefAndCompare(t *testing.T) {
	row := types.NewObject()
	row.Set("age", types.NewNumberValue(types.NewInt(20)))
	c := NewCompiler(nil)
	eval, err := c.CompileExpr(mustExpr(t, "age > 18"))
	require.NoError(t, err)
	v, err := eval(&EvalContext{Row: row})
	require.NoError(t, err)
	require.Equal(t, types.Bool(true), v)
}

func TestCompileStringBuiltin(t *testing.T) {
	c := NewCompiler(NewFuncRegistry(nil))
	eval, err := c.CompileExpr(mustExpr(t, `string::uppercase("hi")`))
	require.NoError(t, err)
	v, err := eval(&EvalContext{Funcs: c.Funcs})
	require.NoError(t, err)
	require.Equal(t, "HI", v.(types.Str).String())
}

func TestCompileIfExpr(t *testing.T) {
	c := NewCompiler(nil)
	eval, err := c.CompileExpr(mustExpr(t, "IF true THEN 1 ELSE 2 END"))
	require.NoError(t, err)
	v, err := eval(&EvalContext{})
	require.NoError(t, err)
	require.Equal(t, int64(1), mustInt(v))
}

func mustInt(v types.Value) int64 {
	n, _ := v.(types.Num).Number.Int()
	return n
}

func TestRegistryDedupAndPromote(t *testing.T) {
	r := NewRegistry([]string{"name"})
	name1 := r.Register("age+1", constEval(types.NewNumberValue(types.NewInt(1))), PointProject, "")
	name2 := r.Register("age+1", constEval(types.NewNumberValue(types.NewInt(1))), PointFilter, "")
	require.Equal(t, name1, name2)
	entries := r.AtPoint(PointFilter)
	require.Len(t, entries, 1)
	require.Empty(t, r.AtPoint(PointProject))
}

func TestAggregateExtraction(t *testing.T) {
	x := NewAggregateExtractor()
	rewritten := x.Extract(mustExpr(t, "count(age)"))
	ref, ok := rewritten.(ast.FieldRef)
	require.True(t, ok)
	require.Equal(t, "_a0", ref.Name)
	require.Len(t, x.Aggregates, 1)
	require.Equal(t, AggCountField, x.Aggregates[0].Kind)
}

func TestExtractGroups(t *testing.T) {
	specs := ExtractGroups([]string{"country", "city"})
	require.Len(t, specs, 2)
	require.Equal(t, "_g0", specs[0].Name)
	require.Equal(t, "_g1", specs[1].Name)
}
