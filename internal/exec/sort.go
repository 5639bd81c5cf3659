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
	"sort"

	"github.com/corvidb/corvid/internal/compile"
	"github.com/corvidb/corvid/internal/types"
)

// OrderKey is one ORDER BY term.
type OrderKey struct {
	Eval compile.Eval
	Desc bool
}

// Sort blocks on its child, collecting every row before emitting any
// output, and orders by Keys in sequence (spec.md §4.5 "Sort: blocking;
// collects all input into a heap or buffer; orders by a list of (expr,
// asc/desc, nulls-first/last) tuples. Null and None sort before all other
// values by default"). types.Compare already ranks None/Null below every
// other kind, so nulls-first falls out of it without special-casing.
type Sort struct {
	Child  Operator
	Keys   []OrderKey
	Params map[string]types.Value
	Funcs  *compile.FuncRegistry
}

func (s *Sort) Name() string                 { return "Sort" }
func (s *Sort) Attrs() map[string]string      { return nil }
func (s *Sort) RequiredContext() ContextLevel { return s.Child.RequiredContext() }
func (s *Sort) AccessMode() AccessMode        { return s.Child.AccessMode() }
func (s *Sort) Children() []Operator          { return []Operator{s.Child} }

func (s *Sort) Execute(ctx context.Context) (Stream, error) {
	child, err := s.Child.Execute(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := drainAll(ctx, child)
	if err != nil {
		return nil, err
	}

	keyed := make([][]types.Value, len(rows))
	for i, row := range rows {
		evalCtx := &compile.EvalContext{Row: rowAsObject(row), Params: s.Params, Funcs: s.Funcs}
		ks := make([]types.Value, len(s.Keys))
		for j, k := range s.Keys {
			v, err := k.Eval(evalCtx)
			if err != nil {
				return nil, err
			}
			ks[j] = v
		}
		keyed[i] = ks
	}

	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ka, kb := keyed[idx[a]], keyed[idx[b]]
		for j, ord := range s.Keys {
			c := types.Compare(ka[j], kb[j])
			if ord.Desc {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return false
	})

	out := make(ValueBatch, len(rows))
	for i, id := range idx {
		out[i] = rows[id]
	}
	if len(out) == 0 {
		return newSliceStream(nil), nil
	}
	return newSliceStream([]ValueBatch{out}), nil
}
