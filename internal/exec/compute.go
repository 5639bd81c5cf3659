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

// Compute evaluates every registry entry registered at Point, attaching
// each as a synthetic field on the row (spec.md §4.5 "Compute: evaluates
// the registry's expressions for a given ComputePoint, attaching them as
// fields on the batch").
type Compute struct {
	Child    Operator
	Registry *compile.Registry
	Point    compile.ComputePoint
	Params   map[string]types.Value
	Funcs    *compile.FuncRegistry
}

func (c *Compute) Name() string                 { return "Compute" }
func (c *Compute) Attrs() map[string]string      { return map[string]string{"point": c.Point.String()} }
func (c *Compute) RequiredContext() ContextLevel { return c.Child.RequiredContext() }
func (c *Compute) AccessMode() AccessMode        { return c.Child.AccessMode() }
func (c *Compute) Children() []Operator          { return []Operator{c.Child} }

func (c *Compute) Execute(ctx context.Context) (Stream, error) {
	child, err := c.Child.Execute(ctx)
	if err != nil {
		return nil, err
	}
	entries := c.Registry.AtPoint(c.Point)
	return &computeStream{compute: c, child: child, entries: entries}, nil
}

type computeStream struct {
	compute *Compute
	child   Stream
	entries []compile.NamedEval
}

func (s *computeStream) Next(ctx context.Context) (ValueBatch, error) {
	batch, err := s.child.Next(ctx)
	if err != nil {
		return nil, err
	}
	if len(s.entries) == 0 {
		return batch, nil
	}
	out := make(ValueBatch, len(batch))
	for i, row := range batch {
		obj := rowAsObject(row).Clone()
		evalCtx := &compile.EvalContext{Row: obj, Params: s.compute.Params, Funcs: s.compute.Funcs}
		for _, e := range s.entries {
			v, err := e.Eval(evalCtx)
			if err != nil {
				return nil, err
			}
			obj.Set(e.Name, v)
		}
		out[i] = obj
	}
	return out, nil
}
