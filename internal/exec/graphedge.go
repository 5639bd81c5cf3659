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

	"github.com/corvidb/corvid/internal/keycodec"
	"github.com/corvidb/corvid/internal/txn"
	"github.com/corvidb/corvid/internal/types"
)

// EdgeDirection selects which side of a graph-edge key range to scan.
type EdgeDirection uint8

const (
	EdgeOut EdgeDirection = iota
	EdgeIn
	EdgeBoth
)

const (
	edgeOutByte byte = '>'
	edgeInByte  byte = '<'
)

// EdgeYield selects what GraphEdgeScan streams per match (spec.md §4.5
// "streams one of {edge id, target id, full edge record} per match").
type EdgeYield uint8

const (
	YieldEdgeID EdgeYield = iota
	YieldTargetID
	YieldFullEdge
)

// graphEdgeFlushSize is the batch size GraphEdgeScan flushes at (spec.md
// §4.5 "GraphEdgeScan flushes at 1000").
const graphEdgeFlushSize = 1000

// GraphEdgeScan streams edges leaving/entering Sources in Direction,
// optionally filtered to EdgeTable, yielding Yield per match. Reference
// lookups (`<~`) belong to a separate operator and are out of scope here
// (spec.md §4.5).
type GraphEdgeScan struct {
	Tx        *txn.Tx
	NS, DB    string
	Sources   []types.RecordID
	Direction EdgeDirection
	EdgeTable string // empty means any edge table
	Yield     EdgeYield
}

func (g *GraphEdgeScan) Name() string { return "GraphEdgeScan" }
func (g *GraphEdgeScan) Attrs() map[string]string {
	return map[string]string{"edgeTable": g.EdgeTable}
}
func (g *GraphEdgeScan) RequiredContext() ContextLevel { return ContextTransaction }
func (g *GraphEdgeScan) AccessMode() AccessMode        { return ReadOnly }
func (g *GraphEdgeScan) Children() []Operator          { return nil }

func (g *GraphEdgeScan) Execute(ctx context.Context) (Stream, error) {
	var ranges [][2][]byte
	dirs := []byte{}
	switch g.Direction {
	case EdgeOut:
		dirs = []byte{edgeOutByte}
	case EdgeIn:
		dirs = []byte{edgeInByte}
	case EdgeBoth:
		dirs = []byte{edgeOutByte, edgeInByte}
	}
	for _, src := range g.Sources {
		for _, dir := range dirs {
			start, err := keycodec.GraphEdgePrefix(g.NS, g.DB, src.Table, src.ID, dir)
			if err != nil {
				return nil, err
			}
			end := keycodec.Successor(start)
			ranges = append(ranges, [2][]byte{start, end})
		}
	}
	return &graphEdgeStream{scan: g, ranges: ranges}, nil
}

type graphEdgeStream struct {
	scan      *GraphEdgeScan
	ranges    [][2][]byte
	rangeIdx  int
	cursor    []byte
	rangeDone bool
}

func (s *graphEdgeStream) Next(ctx context.Context) (ValueBatch, error) {
	var out ValueBatch
	for len(out) < graphEdgeFlushSize {
		if s.rangeIdx >= len(s.ranges) {
			break
		}
		r := s.ranges[s.rangeIdx]
		if s.cursor == nil {
			s.cursor = append([]byte(nil), r[0]...)
		}
		pairs, err := s.scan.Tx.Scan(ctx, s.cursor, r[1], 1)
		if err != nil {
			return nil, err
		}
		if len(pairs) == 0 {
			s.rangeIdx++
			s.cursor = nil
			continue
		}
		pair := pairs[0]
		s.cursor = keycodec.Successor(pair.Key)

		v, err := s.scan.materialize(ctx, pair)
		if err != nil {
			return nil, err
		}
		if v != nil {
			out = append(out, v)
		}
		if s.cursor == nil {
			s.rangeIdx++
		}
	}
	if len(out) == 0 {
		return nil, ErrEOF
	}
	return out, nil
}

// materialize decodes the (edge RecordID, target RecordID) pair stored at
// the graph-edge key's value — the write side (RELATE, future C8 wiring)
// stores both ids there rather than just the edge id, since the key bytes
// alone (which embed only the target table+id) are not enough to recover
// a full edge record without a second table read, and recovering the edge
// id from the key would otherwise need a key decoder keycodec does not
// expose.
func (g *GraphEdgeScan) materialize(ctx context.Context, pair txn.Pair) (types.Value, error) {
	link, err := types.UnmarshalValue(pair.Val)
	if err != nil {
		return nil, err
	}
	linkObj, ok := link.(*types.Object)
	if !ok {
		return nil, &edgeLinkError{}
	}
	edgeIDVal, _ := linkObj.Get("edge")
	targetIDVal, _ := linkObj.Get("target")

	switch g.Yield {
	case YieldEdgeID:
		return edgeIDVal, nil
	case YieldTargetID:
		return targetIDVal, nil
	default:
		edgeID, ok := edgeIDVal.(types.RecordID)
		if !ok {
			return edgeIDVal, nil
		}
		key, err := keycodec.RecordKey(g.NS, g.DB, edgeID.Table, edgeID.ID)
		if err != nil {
			return nil, err
		}
		raw, ok, err := g.Tx.Get(key)
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
		obj.Set("id", edgeID)
		return obj, nil
	}
}

type edgeLinkError struct{}

func (e *edgeLinkError) Error() string { return "exec: graph edge link value is not an object" }
