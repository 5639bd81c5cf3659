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

// ProjectField is one (name, physical expr) output column.
type ProjectField struct {
	Name string
	Eval compile.Eval
}

// Project evaluates Fields against each row, producing an Object per row,
// or — when Value is set (SELECT VALUE) — a bare scalar per row instead
// (spec.md §4.5 "Project: ... produces an Object per row (or a scalar per
// row for SELECT VALUE)").
type Project struct {
	Child  Operator
	Fields []ProjectField
	Value  compile.Eval // non-nil for SELECT VALUE
	Params map[string]types.Value
	Funcs  *compile.FuncRegistry
}

func (p *Project) Name() string                 { return "Project" }
func (p *Project) Attrs() map[string]string      { return nil }
func (p *Project) RequiredContext() ContextLevel { return p.Child.RequiredContext() }
func (p *Project) AccessMode() AccessMode        { return p.Child.AccessMode() }
func (p *Project) Children() []Operator          { return []Operator{p.Child} }

func (p *Project) Execute(ctx context.Context) (Stream, error) {
	child, err := p.Child.Execute(ctx)
	if err != nil {
		return nil, err
	}
	return &projectStream{project: p, child: child}, nil
}

type projectStream struct {
	project *Project
	child   Stream
}

func (s *projectStream) Next(ctx context.Context) (ValueBatch, error) {
	batch, err := s.child.Next(ctx)
	if err != nil {
		return nil, err
	}
	out := make(ValueBatch, 0, len(batch))
	for _, row := range batch {
		evalCtx := &compile.EvalContext{Row: rowAsObject(row), Params: s.project.Params, Funcs: s.project.Funcs}
		if s.project.Value != nil {
			v, err := s.project.Value(evalCtx)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
			continue
		}
		obj := types.NewObject()
		for _, f := range s.project.Fields {
			v, err := f.Eval(evalCtx)
			if err != nil {
				return nil, err
			}
			obj.Set(f.Name, v)
		}
		out = append(out, obj)
	}
	return out, nil
}
