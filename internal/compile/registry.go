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

// Package compile turns a parsed ast.Statement into physical evaluators
// and a deduplicated expression registry (spec.md §4.4 C6/C6a),
// grounded on original_source/core/src/idx/planner's "logical to
// physical" split, adapted to Go's closure-based evaluator idiom rather
// than a boxed-trait-object interpreter.
package compile

import "fmt"

// ComputePoint orders the four pipeline stages a registered expression
// may be needed at (spec.md §4.4: "Filter < Aggregate < Sort <
// Project"). Lower values run earlier in the pipeline.
type ComputePoint uint8

const (
	PointFilter ComputePoint = iota
	PointAggregate
	PointSort
	PointProject
)

func (p ComputePoint) String() string {
	switch p {
	case PointFilter:
		return "filter"
	case PointAggregate:
		return "aggregate"
	case PointSort:
		return "sort"
	case PointProject:
		return "project"
	default:
		return "unknown"
	}
}

// entry is one deduplicated registration.
type entry struct {
	name  string
	text  string
	expr  Eval
	point ComputePoint
}

// Registry deduplicates sub-expressions needed at two or more pipeline
// stages (spec.md §4.4 C6a). Expressions are keyed by their canonical
// text; re-registering at an earlier ComputePoint promotes the existing
// entry, re-registering at a later one is a no-op.
type Registry struct {
	byText   map[string]*entry
	order    []*entry
	reserved map[string]bool
	nextE    int
}

// NewRegistry builds an empty registry. reserved holds names that must
// never be used as a synthetic `_eN` name — the SELECT statement's own
// field/alias names (spec.md §4.4 "skipping names in a reserved set").
func NewRegistry(reserved []string) *Registry {
	r := &Registry{byText: make(map[string]*entry), reserved: make(map[string]bool, len(reserved))}
	for _, n := range reserved {
		r.reserved[n] = true
	}
	return r
}

// Register adds expr (already canonicalized to text) at point, with an
// optional caller-supplied alias. It returns the internal name other
// operators should reference this value by.
func (r *Registry) Register(text string, eval Eval, point ComputePoint, alias string) string {
	if e, ok := r.byText[text]; ok {
		if point < e.point {
			e.point = point
		}
		return e.name
	}
	name := alias
	if name == "" || r.reserved[name] {
		name = r.freshName()
	}
	r.reserved[name] = true
	e := &entry{name: name, text: text, expr: eval, point: point}
	r.byText[text] = e
	r.order = append(r.order, e)
	return name
}

func (r *Registry) freshName() string {
	for {
		name := fmt.Sprintf("_e%d", r.nextE)
		r.nextE++
		if !r.reserved[name] {
			return name
		}
	}
}

// AtPoint returns every entry registered at exactly point, in a stable
// registration order (map iteration order is not stable in Go, so this
// walks the order slice rather than byText and filters — acceptable given
// registries are small and built once per query).
func (r *Registry) AtPoint(point ComputePoint) []NamedEval {
	var out []NamedEval
	for _, e := range r.order {
		if e.point == point {
			out = append(out, NamedEval{Name: e.name, Eval: e.expr})
		}
	}
	return out
}

// NamedEval pairs a synthetic/alias field name with its compiled
// evaluator, the shape the Compute operator (C7) consumes.
type NamedEval struct {
	Name string
	Eval Eval
}
