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

	"golang.org/x/sync/errgroup"

	"github.com/corvidb/corvid/internal/keycodec"
	"github.com/corvidb/corvid/internal/types"
	"github.com/corvidb/corvid/internal/txn"
)

// fetchConcurrencyThreshold is the pending-id count at which Fetch
// switches from sequential lookups to a concurrent errgroup fan-out
// (spec.md §4.5 "batched concurrently when >=4 record-ids are pending").
const fetchConcurrencyThreshold = 4

// Fetch descends each configured field path on every row, and wherever it
// finds a RecordId reads the target record and replaces the id with the
// record body, re-injecting the id under the target's "id" field (spec.md
// §4.5 "Fetch: for each configured field path, descends iteratively...").
type Fetch struct {
	Child  Operator
	Tx     *txn.Tx
	NS, DB string
	Paths  []string
}

func (f *Fetch) Name() string                 { return "Fetch" }
func (f *Fetch) Attrs() map[string]string      { return nil }
func (f *Fetch) RequiredContext() ContextLevel { return ContextTransaction }
func (f *Fetch) AccessMode() AccessMode        { return f.Child.AccessMode() }
func (f *Fetch) Children() []Operator          { return []Operator{f.Child} }

func (f *Fetch) Execute(ctx context.Context) (Stream, error) {
	child, err := f.Child.Execute(ctx)
	if err != nil {
		return nil, err
	}
	return &fetchStream{fetch: f, child: child}, nil
}

type fetchStream struct {
	fetch *Fetch
	child Stream
}

func (s *fetchStream) Next(ctx context.Context) (ValueBatch, error) {
	batch, err := s.child.Next(ctx)
	if err != nil {
		return nil, err
	}
	out := make(ValueBatch, len(batch))
	for i, row := range batch {
		out[i] = row
	}
	for _, path := range s.fetch.Paths {
		idiom := types.ParseIdiom(path)
		type pending struct {
			rowIdx int
			id     types.RecordID
		}
		var ids []pending
		for i, row := range out {
			v := types.Get(row, idiom)
			if rid, ok := v.(types.RecordID); ok {
				ids = append(ids, pending{rowIdx: i, id: rid})
			}
		}
		if len(ids) == 0 {
			continue
		}
		resolved := make([]types.Value, len(ids))
		if len(ids) >= fetchConcurrencyThreshold {
			g, gctx := errgroup.WithContext(ctx)
			for i := range ids {
				i := i
				g.Go(func() error {
					v, err := s.fetch.resolve(gctx, ids[i].id)
					if err != nil {
						return err
					}
					resolved[i] = v
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return nil, err
			}
		} else {
			for i := range ids {
				v, err := s.fetch.resolve(ctx, ids[i].id)
				if err != nil {
					return nil, err
				}
				resolved[i] = v
			}
		}
		for i, p := range ids {
			out[p.rowIdx] = setIdiom(out[p.rowIdx], idiom, resolved[i])
		}
	}
	return out, nil
}

func (f *Fetch) resolve(ctx context.Context, id types.RecordID) (types.Value, error) {
	key, err := keycodec.RecordKey(f.NS, f.DB, id.Table, id.ID)
	if err != nil {
		return nil, err
	}
	raw, ok, err := f.Tx.Get(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return types.Null{}, nil
	}
	body, err := types.UnmarshalValue(raw)
	if err != nil {
		return nil, err
	}
	obj := rowAsObject(body)
	obj.Set("id", id)
	return obj, nil
}

// setIdiom writes v at idiom's path within row, rebuilding a new root
// Object along the path rather than mutating in place so earlier batches
// sharing structure with other rows aren't disturbed.
func setIdiom(row types.Value, idiom types.Idiom, v types.Value) types.Value {
	if len(idiom) == 0 {
		return v
	}
	obj := rowAsObject(row)
	if len(idiom) == 1 {
		clone := obj.Clone()
		if idiom[0].Field != "" {
			clone.Set(idiom[0].Field, v)
		}
		return clone
	}
	clone := obj.Clone()
	field := idiom[0].Field
	nested, _ := clone.Get(field)
	clone.Set(field, setIdiom(nested, idiom[1:], v))
	return clone
}
