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

	"github.com/corvidb/corvid/internal/types"
)

// Distinct streams rows through, dropping any row whose encoded form was
// already seen (spec.md §4.5 "Distinct: hash-set based deduplication,
// streaming"). Values are hashed by their MarshalValue encoding, the same
// record codec used for storage, rather than a bespoke hash function.
type Distinct struct {
	Child Operator
}

func (d *Distinct) Name() string                 { return "Distinct" }
func (d *Distinct) Attrs() map[string]string      { return nil }
func (d *Distinct) RequiredContext() ContextLevel { return d.Child.RequiredContext() }
func (d *Distinct) AccessMode() AccessMode        { return d.Child.AccessMode() }
func (d *Distinct) Children() []Operator          { return []Operator{d.Child} }

func (d *Distinct) Execute(ctx context.Context) (Stream, error) {
	child, err := d.Child.Execute(ctx)
	if err != nil {
		return nil, err
	}
	return &distinctStream{child: child, seen: make(map[string]struct{})}, nil
}

type distinctStream struct {
	child Stream
	seen  map[string]struct{}
}

func (s *distinctStream) Next(ctx context.Context) (ValueBatch, error) {
	for {
		batch, err := s.child.Next(ctx)
		if err != nil {
			return nil, err
		}
		var out ValueBatch
		for _, row := range batch {
			data, err := types.MarshalValue(row)
			if err != nil {
				return nil, err
			}
			key := string(data)
			if _, ok := s.seen[key]; ok {
				continue
			}
			s.seen[key] = struct{}{}
			out = append(out, row)
		}
		if len(out) > 0 {
			return out, nil
		}
	}
}
