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

package exec

import (
	"context"
	"strings"

	"github.com/corvidb/corvid/internal/compile"
	"github.com/corvidb/corvid/internal/types"
)

// AggField is one accumulator column: Expr is evaluated per row and fed
// to the accumulator selected by Kind (spec.md §4.5 Aggregate's per-field
// accumulator list).
type AggField struct {
	Name string
	Kind compile.AggregateKind
	Expr compile.Eval // nil for bare Count
}

// GroupKey is one GROUP BY expression.
type GroupKey struct {
	Name string
	Expr compile.Eval
}

// Aggregate blocks on its child, groups rows by the tuple of GroupKeys,
// and maintains one accumulator per AggField per group (spec.md §4.5
// Aggregate). GROUP ALL is represented as GroupAll == true with
// GroupKeys == nil: every row joins the single group, and on empty input
// one synthetic empty group is still emitted, while a non-empty GROUP BY
// list yields no groups at all on empty input.
type Aggregate struct {
	Child    Operator
	GroupKeys []GroupKey
	Fields   []AggField
	GroupAll bool
	Params   map[string]types.Value
	Funcs    *compile.FuncRegistry
}

func (a *Aggregate) Name() string                 { return "Aggregate" }
func (a *Aggregate) Attrs() map[string]string      { return nil }
func (a *Aggregate) RequiredContext() ContextLevel { return a.Child.RequiredContext() }
func (a *Aggregate) AccessMode() AccessMode        { return a.Child.AccessMode() }
func (a *Aggregate) Children() []Operator          { return []Operator{a.Child} }

type accumulator struct {
	kind    compile.AggregateKind
	count   int64
	sum     types.Number
	haveSum bool
	min     types.Value
	max     types.Value
	arr     types.Array
	first   types.Value
	haveFirst bool
}

func newAccumulator(kind compile.AggregateKind) *accumulator {
	return &accumulator{kind: kind}
}

func (acc *accumulator) feed(v types.Value) {
	switch acc.kind {
	case compile.AggCount:
		acc.count++
	case compile.AggCountField:
		if _, isNone := v.(types.None); !isNone {
			if _, isNull := v.(types.Null); !isNull {
				acc.count++
			}
		}
	case compile.AggSum:
		if n, ok := v.(types.Num); ok {
			if !acc.haveSum {
				acc.sum = n.Number
				acc.haveSum = true
			} else {
				acc.sum = acc.sum.Add(n.Number)
			}
		}
	case compile.AggMin:
		if isNullish(v) {
			return
		}
		if acc.min == nil || types.Compare(v, acc.min) < 0 {
			acc.min = v
		}
	case compile.AggMax:
		if isNullish(v) {
			return
		}
		if acc.max == nil || types.Compare(v, acc.max) > 0 {
			acc.max = v
		}
	case compile.AggAvg:
		if n, ok := v.(types.Num); ok {
			if !acc.haveSum {
				acc.sum = n.Number
				acc.haveSum = true
			} else {
				acc.sum = acc.sum.Add(n.Number)
			}
			acc.count++
		}
	case compile.AggArrayGroup:
		acc.arr = append(acc.arr, v)
	case compile.AggFirstValue:
		if !acc.haveFirst {
			acc.first = v
			acc.haveFirst = true
		}
	}
}

func isNullish(v types.Value) bool {
	switch v.(type) {
	case types.None, types.Null:
		return true
	default:
		return false
	}
}

func (acc *accumulator) finish() types.Value {
	switch acc.kind {
	case compile.AggCount, compile.AggCountField:
		return types.NewNumberValue(types.NewInt(acc.count))
	case compile.AggSum:
		if !acc.haveSum {
			return types.NewNumberValue(types.NewInt(0))
		}
		return types.NewNumberValue(acc.sum)
	case compile.AggMin:
		if acc.min == nil {
			return types.Null{}
		}
		return acc.min
	case compile.AggMax:
		if acc.max == nil {
			return types.Null{}
		}
		return acc.max
	case compile.AggAvg:
		if acc.count == 0 {
			return types.Null{}
		}
		return types.NewNumberValue(types.NewFloat(acc.sum.AsFloat() / float64(acc.count)))
	case compile.AggArrayGroup:
		if acc.arr == nil {
			return types.Array{}
		}
		return acc.arr
	case compile.AggFirstValue:
		if !acc.haveFirst {
			return types.Null{}
		}
		return acc.first
	default:
		return types.Null{}
	}
}

type group struct {
	keyVals []types.Value
	accs    []*accumulator
}

func (a *Aggregate) Execute(ctx context.Context) (Stream, error) {
	child, err := a.Child.Execute(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := drainAll(ctx, child)
	if err != nil {
		return nil, err
	}

	order := []string{}
	groups := map[string]*group{}

	for _, row := range rows {
		evalCtx := &compile.EvalContext{Row: rowAsObject(row), Params: a.Params, Funcs: a.Funcs}
		keyVals := make([]types.Value, len(a.GroupKeys))
		var sb strings.Builder
		for i, gk := range a.GroupKeys {
			v, err := gk.Expr(evalCtx)
			if err != nil {
				return nil, err
			}
			keyVals[i] = v
			sb.WriteString(v.Kind().String())
			sb.WriteByte(':')
			sb.WriteString(valueGroupKey(v))
			sb.WriteByte('|')
		}
		gk := sb.String()
		g, ok := groups[gk]
		if !ok {
			g = &group{keyVals: keyVals, accs: make([]*accumulator, len(a.Fields))}
			for i, f := range a.Fields {
				g.accs[i] = newAccumulator(f.Kind)
			}
			groups[gk] = g
			order = append(order, gk)
		}
		for i, f := range a.Fields {
			var v types.Value = types.None{}
			if f.Expr != nil {
				var err error
				v, err = f.Expr(evalCtx)
				if err != nil {
					return nil, err
				}
			}
			g.accs[i].feed(v)
		}
	}

	if len(rows) == 0 {
		if a.GroupAll {
			g := &group{accs: make([]*accumulator, len(a.Fields))}
			for i, f := range a.Fields {
				g.accs[i] = newAccumulator(f.Kind)
			}
			groups[""] = g
			order = []string{""}
		} else {
			return newSliceStream(nil), nil
		}
	}

	out := make(ValueBatch, 0, len(order))
	for _, k := range order {
		g := groups[k]
		obj := types.NewObject()
		for i, gk := range a.GroupKeys {
			obj.Set(gk.Name, g.keyVals[i])
		}
		for i, f := range a.Fields {
			obj.Set(f.Name, g.accs[i].finish())
		}
		out = append(out, obj)
	}
	if len(out) == 0 {
		return newSliceStream(nil), nil
	}
	return newSliceStream([]ValueBatch{out}), nil
}

// valueGroupKey renders v as a string distinguishing it from values of
// other kinds with the same textual form (the Kind() prefix already
// written by the caller handles cross-kind collisions; this covers
// within-kind identity).
func valueGroupKey(v types.Value) string {
	data, err := types.MarshalValue(v)
	if err != nil {
		return v.Kind().String()
	}
	return string(data)
}
