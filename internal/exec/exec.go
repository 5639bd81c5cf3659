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

// Package exec implements the pull-based streaming operator tree (spec.md
// C7 §4.5): Scan, Filter, Project, Sort, Aggregate, Fetch, GraphEdgeScan,
// Distinct and Compute, each driven by Operator.Execute returning a
// backpressured Stream. Grounded on teacher_ref/core/state pattern of a
// small pull interface (Next returning io.EOF on exhaustion) rather than a
// push/channel model, the same idiom database/sql.Rows and bufio.Scanner
// use in the standard library.
package exec

import (
	"context"
	"io"

	"github.com/corvidb/corvid/internal/types"
)

// ValueBatch is a small vector of row values pulled from a Stream. Most
// operators forward or transform batches element-wise; Sort and Aggregate
// are the two blocking exceptions that must drain their child fully
// before producing any output (spec.md §4.5).
type ValueBatch []types.Value

// Stream is a pull-based cursor over a sequence of ValueBatches. Next
// returns ErrEOF once exhausted, the database/sql.Rows/bufio.Scanner
// convention for a sentinel end-of-data error rather than a boolean
// ok-return, chosen so a Stream can report a real failure and exhaustion
// through the same two-result signature.
type Stream interface {
	Next(ctx context.Context) (ValueBatch, error)
}

// ErrEOF is returned by Stream.Next when no more batches remain.
var ErrEOF = io.EOF

// AccessMode describes whether an operator subtree only reads storage or
// also writes it (spec.md §4.5 "access_mode() ... combined from children
// and local needs").
type AccessMode uint8

const (
	ReadOnly AccessMode = iota
	ReadWrite
)

// Combine returns the more permissive of a and b (ReadWrite dominates).
func (a AccessMode) Combine(b AccessMode) AccessMode {
	if a == ReadWrite || b == ReadWrite {
		return ReadWrite
	}
	return ReadOnly
}

// ContextLevel is the minimum execution context an operator needs before
// it can run (spec.md §4.5 "required_context() ... none / database /
// transaction").
type ContextLevel uint8

const (
	ContextNone ContextLevel = iota
	ContextDatabase
	ContextTransaction
)

// Operator is the contract every node in the execution tree implements
// (spec.md §4.5).
type Operator interface {
	Name() string
	Attrs() map[string]string
	RequiredContext() ContextLevel
	AccessMode() AccessMode
	Children() []Operator
	Execute(ctx context.Context) (Stream, error)
}

// sliceStream adapts an in-memory []ValueBatch (the shape blocking
// operators like Sort/Aggregate naturally produce) into a Stream.
type sliceStream struct {
	batches []ValueBatch
	pos     int
}

func newSliceStream(batches []ValueBatch) *sliceStream {
	return &sliceStream{batches: batches}
}

func (s *sliceStream) Next(ctx context.Context) (ValueBatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.batches) {
		return nil, ErrEOF
	}
	b := s.batches[s.pos]
	s.pos++
	return b, nil
}

// drainAll pulls every batch from s and flattens them into one slice of
// rows, the shared helper the blocking operators (Sort, Aggregate) use to
// materialize their input.
func drainAll(ctx context.Context, s Stream) ([]types.Value, error) {
	var rows []types.Value
	for {
		batch, err := s.Next(ctx)
		if err == ErrEOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, batch...)
	}
}

// rowAsObject extracts the idiom root for row filtering/projection:
// non-Object rows (e.g. a prior SELECT VALUE projection) are wrapped so
// downstream field-path evaluation has something to walk.
func rowAsObject(v types.Value) *types.Object {
	if o, ok := v.(*types.Object); ok {
		return o
	}
	o := types.NewObject()
	o.Set("value", v)
	return o
}
