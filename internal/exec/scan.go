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
	"fmt"

	"github.com/corvidb/corvid/internal/keycodec"
	"github.com/corvidb/corvid/internal/txn"
	"github.com/corvidb/corvid/internal/types"
)

// scanBatchSize bounds how many records Scan pulls from the transaction
// per Next call (spec.md §4.5 "Scan yields up to N values per pull").
const scanBatchSize = 256

// Scan reads a full-table record-key range, optionally pushing a
// predicate and a needed-fields projection down to the storage read
// itself so rows that can be rejected cheaply never materialize as full
// Objects (spec.md §4.5 "Scan: ... optional projection of a 'needed
// fields' subset and optional predicate pushdown").
type Scan struct {
	Tx       *txn.Tx
	NS, DB   string
	Table    string
	Needed   []string // empty means "all fields"
	Predicate func(*types.Object) (bool, error)
	Limit    int // <=0 means unbounded
	Start    int // rows to skip before the first emitted row

	start, end []byte
}

func NewScan(tx *txn.Tx, ns, db, table string) *Scan {
	return &Scan{
		Tx:    tx,
		NS:    ns,
		DB:    db,
		Table: table,
		start: keycodec.RecordPrefix(ns, db, table),
		end:   keycodec.RecordSuffix(ns, db, table),
	}
}

func (s *Scan) Name() string { return "Scan" }

func (s *Scan) Attrs() map[string]string {
	a := map[string]string{"table": s.Table}
	if len(s.Needed) > 0 {
		a["needed"] = fmt.Sprint(s.Needed)
	}
	if s.Predicate != nil {
		a["pushdown"] = "predicate"
	}
	if s.Limit > 0 {
		a["limit"] = fmt.Sprint(s.Limit)
	}
	return a
}

func (s *Scan) RequiredContext() ContextLevel { return ContextTransaction }
func (s *Scan) AccessMode() AccessMode        { return ReadOnly }
func (s *Scan) Children() []Operator          { return nil }

func (s *Scan) Execute(ctx context.Context) (Stream, error) {
	return &scanStream{scan: s, cursor: append([]byte(nil), s.start...), skipped: 0}, nil
}

type scanStream struct {
	scan    *Scan
	cursor  []byte
	done    bool
	skipped int
	emitted int
}

func (st *scanStream) Next(ctx context.Context) (ValueBatch, error) {
	if st.done {
		return nil, ErrEOF
	}
	s := st.scan
	var batch ValueBatch
	for len(batch) < scanBatchSize {
		if s.Limit > 0 && st.emitted >= s.Limit {
			st.done = true
			break
		}
		// Pull one raw pair at a time from the remaining key range so
		// the predicate/needed-fields pushdown can reject rows before
		// they count against the batch or the limit.
		pairs, err := s.Tx.Scan(ctx, st.cursor, s.end, 1)
		if err != nil {
			return nil, err
		}
		if len(pairs) == 0 {
			st.done = true
			break
		}
		pair := pairs[0]
		st.cursor = keycodec.Successor(pair.Key)
		if st.cursor == nil {
			st.done = true
		}

		val, err := types.UnmarshalValue(pair.Val)
		if err != nil {
			return nil, err
		}
		obj := rowAsObject(val)

		if s.Predicate != nil {
			ok, err := s.Predicate(obj)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		if st.skipped < s.Start {
			st.skipped++
			continue
		}
		batch = append(batch, projectNeeded(obj, s.Needed))
		st.emitted++
		if st.done {
			break
		}
	}
	if len(batch) == 0 {
		return nil, ErrEOF
	}
	return batch, nil
}

// projectNeeded returns row unchanged when needed is empty (no pushdown
// requested), otherwise a copy containing only the requested top-level
// field names.
func projectNeeded(row *types.Object, needed []string) types.Value {
	if len(needed) == 0 {
		return row
	}
	out := types.NewObject()
	for _, f := range needed {
		if v, ok := row.Get(f); ok {
			out.Set(f, v)
		}
	}
	return out
}
