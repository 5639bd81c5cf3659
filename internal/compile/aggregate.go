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
	"fmt"
	"strings"

	"github.com/corvidb/corvid/internal/lang/ast"
)

// AggregateKind is one of the seven accumulator kinds spec.md §4.5's
// Aggregate operator describes.
type AggregateKind uint8

const (
	AggCount AggregateKind = iota
	AggCountField
	AggSum
	AggMin
	AggMax
	AggAvg
	AggArrayGroup
	AggFirstValue
)

var aggregateFuncNames = map[string]AggregateKind{
	"count":       AggCount, // count() with no args; count(expr) becomes AggCountField
	"sum":         AggSum,
	"min":         AggMin,
	"max":         AggMax,
	"avg":         AggAvg,
	"array::group": AggArrayGroup,
}

// AggregateSpec is one extracted aggregate call, keyed by its synthetic
// `_aN` field name (spec.md §4.4 "aggregate function calls ... are
// replaced by references to synthetic field names _a0.._aN").
type AggregateSpec struct {
	Name string
	Kind AggregateKind
	Expr ast.Expr // nil for bare Count
}

// GroupSpec is one GROUP BY expression interned as `_gK`.
type GroupSpec struct {
	Name string
	Expr ast.Expr
}

// AggregateExtractor rewrites aggregate calls found while walking SELECT
// fields/ORDER BY into FieldRef nodes pointing at synthetic names,
// recording the extracted specs for the Aggregate operator to consume.
// Group expressions are extracted separately via ExtractGroups.
type AggregateExtractor struct {
	Aggregates []AggregateSpec
	nextA      int
}

func NewAggregateExtractor() *AggregateExtractor { return &AggregateExtractor{} }

// Extract walks e, replacing any aggregate FuncCall (at any nesting
// depth) with a FieldRef to a synthetic `_aN` name, and returns the
// rewritten expression.
func (x *AggregateExtractor) Extract(e ast.Expr) ast.Expr {
	switch n := e.(type) {
	case ast.FuncCall:
		if kind, ok := aggregateFuncNames[strings.ToLower(n.Name)]; ok {
			return x.record(kind, n)
		}
		args := make([]ast.Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = x.Extract(a)
		}
		return ast.FuncCall{Name: n.Name, Args: args}
	case ast.BinaryExpr:
		return ast.BinaryExpr{Op: n.Op, Left: x.Extract(n.Left), Right: x.Extract(n.Right)}
	case ast.UnaryExpr:
		return ast.UnaryExpr{Op: n.Op, Expr: x.Extract(n.Expr)}
	case ast.IdiomExpr:
		return ast.IdiomExpr{Base: x.Extract(n.Base), Path: n.Path}
	default:
		return e
	}
}

func (x *AggregateExtractor) record(kind AggregateKind, call ast.FuncCall) ast.Expr {
	var argExpr ast.Expr
	if kind == AggCount && len(call.Args) == 1 {
		kind = AggCountField
	}
	if len(call.Args) == 1 {
		argExpr = call.Args[0]
	}
	name := fmt.Sprintf("_a%d", x.nextA)
	x.nextA++
	x.Aggregates = append(x.Aggregates, AggregateSpec{Name: name, Kind: kind, Expr: argExpr})
	return ast.FieldRef{Name: name}
}

// ExtractGroups interns each GROUP BY path expression as `_gK` (spec.md
// §4.4 "Group expressions are likewise interned as _g0.._gK").
func ExtractGroups(paths []string) []GroupSpec {
	specs := make([]GroupSpec, len(paths))
	for i, p := range paths {
		specs[i] = GroupSpec{Name: fmt.Sprintf("_g%d", i), Expr: ast.FieldRef{Name: p}}
	}
	return specs
}
