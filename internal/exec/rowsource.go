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
	"strconv"

	"github.com/corvidb/corvid/internal/types"
)

// RowsSource feeds a fixed, already-resolved slice of rows into the
// Filter/Sort/Project pipeline in place of Scan, for the two cases a
// table scan cannot serve: a direct record-id point lookup (`FROM
// person:alice`, 0 or 1 rows) and a KNN search result set (`WHERE vector
// <|k|> [...]`, up to k rows), both spec.md §4.6/§4.7.
type RowsSource struct {
	Rows []ValueBatch
}

// NewRowsSource wraps rows as a single batch, the shape most callers
// (a handful of point-lookup or KNN-search results) produce.
func NewRowsSource(rows []types.Value) *RowsSource {
	if len(rows) == 0 {
		return &RowsSource{}
	}
	return &RowsSource{Rows: []ValueBatch{ValueBatch(rows)}}
}

func (r *RowsSource) Name() string                 { return "RowsSource" }
func (r *RowsSource) Attrs() map[string]string      { return map[string]string{"rows": strconv.Itoa(len(r.Rows))} }
func (r *RowsSource) RequiredContext() ContextLevel { return ContextNone }
func (r *RowsSource) AccessMode() AccessMode        { return ReadOnly }
func (r *RowsSource) Children() []Operator          { return nil }

func (r *RowsSource) Execute(ctx context.Context) (Stream, error) {
	return newSliceStream(r.Rows), nil
}
