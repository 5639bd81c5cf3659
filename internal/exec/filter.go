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

	"github.com/corvidb/corvid/internal/compile"
	"github.com/corvidb/corvid/internal/types"
)

// Filter evaluates Predicate against each row, dropping rows whose result
// is falsy per types.Truthy (spec.md §4.5 "Filter: evaluates a predicate
// on each batch element; drops falsy rows").
type Filter struct {
	Child     Operator
	Predicate compile.Eval
	Params    map[string]types.Value
	Funcs     *compile.FuncRegistry
}

func (f *Filter) Name() string                   { return "Filter" }
func (f *Filter) Attrs() map[string]string        { return nil }
func (f *Filter) RequiredContext() ContextLevel   { return f.Child.RequiredContext() }
func (f *Filter) AccessMode() AccessMode          { return f.Child.AccessMode() }
func (f *Filter) Children() []Operator            { return []Operator{f.Child} }

func (f *Filter) Execute(ctx context.Context) (Stream, error) {
	child, err := f.Child.Execute(ctx)
	if err != nil {
		return nil, err
	}
	return &filterStream{filter: f, child: child}, nil
}

type filterStream struct {
	filter *Filter
	child  Stream
}

func (s *filterStream) Next(ctx context.Context) (ValueBatch, error) {
	for {
		batch, err := s.child.Next(ctx)
		if err != nil {
			return nil, err
		}
		var out ValueBatch
		for _, row := range batch {
			evalCtx := &compile.EvalContext{Row: rowAsObject(row), Params: s.filter.Params, Funcs: s.filter.Funcs}
			v, err := s.filter.Predicate(evalCtx)
			if err != nil {
				return nil, err
			}
			if types.Truthy(v) {
				out = append(out, row)
			}
		}
		if len(out) > 0 {
			return out, nil
		}
	}
}
