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

package engine

import (
	"context"

	"github.com/corvidb/corvid/internal/compile"
	"github.com/corvidb/corvid/internal/corerr"
	"github.com/corvidb/corvid/internal/doc"
	"github.com/corvidb/corvid/internal/keycodec"
	"github.com/corvidb/corvid/internal/lang/ast"
	"github.com/corvidb/corvid/internal/txn"
	"github.com/corvidb/corvid/internal/types"
)

const (
	edgeOut byte = '>'
	edgeIn  byte = '<'
)

// runRelate creates the Edge-table row RELATE writes (reusing runWrite's
// per-row mechanics, per write.go's doc comment) and the from/to
// GraphEdgeScan index entries GraphEdgeScan reads (spec.md §4.5
// GraphEdgeScan, §4.7). Both directions are recorded so ->edge->table and
// <-edge<-table traversals are equally cheap.
func (d *Datastore) runRelate(ctx context.Context, tx *txn.Tx, ns, db string, s ast.RelateStatement, params map[string]types.Value) (types.Value, error) {
	compiler := compile.NewCompiler(d.funcs)
	evalCtx := &compile.EvalContext{Params: params, Funcs: d.funcs}

	from, err := evalRecordID(compiler, s.From, evalCtx)
	if err != nil {
		return nil, err
	}
	to, err := evalRecordID(compiler, s.To, evalCtx)
	if err != nil {
		return nil, err
	}

	row, edgeID, err := d.runWrite(ctx, tx, ns, db, writeParams{
		stmt:  doc.StmtRelate,
		table: s.Edge,
		data:  s.Data,
		ret:   s.Return,
	}, params)
	if err != nil {
		return nil, err
	}

	fwd, err := keycodec.GraphEdgeKey(ns, db, from.Table, from.ID, edgeOut, s.Edge, to.ID)
	if err != nil {
		return nil, err
	}
	fwdVal, err := types.MarshalValue(linkObject(edgeID, to))
	if err != nil {
		return nil, err
	}
	if err := tx.Set(fwd, fwdVal); err != nil {
		return nil, err
	}

	bwd, err := keycodec.GraphEdgeKey(ns, db, to.Table, to.ID, edgeIn, s.Edge, from.ID)
	if err != nil {
		return nil, err
	}
	bwdVal, err := types.MarshalValue(linkObject(edgeID, from))
	if err != nil {
		return nil, err
	}
	if err := tx.Set(bwd, bwdVal); err != nil {
		return nil, err
	}

	return row, nil
}

// linkObject is the value GraphEdgeScan.materialize expects at a
// graph-edge key: the edge's own record id plus the id of the record on
// the other side of this particular direction. The key bytes alone only
// embed the target's RecordIDKey, not its table, so the table has to
// travel in the value too.
func linkObject(edge, target types.RecordID) *types.Object {
	obj := types.NewObject()
	obj.Set("edge", edge)
	obj.Set("target", target)
	return obj
}

// evalRecordID evaluates e, requiring the result to be a concrete
// RecordID (never a bare key or a range, spec.md §3 invariant: a Range
// key is only legal inside a range query).
func evalRecordID(compiler *compile.Compiler, e ast.Expr, evalCtx *compile.EvalContext) (types.RecordID, error) {
	eval, err := compiler.CompileExpr(e)
	if err != nil {
		return types.RecordID{}, err
	}
	v, err := eval(evalCtx)
	if err != nil {
		return types.RecordID{}, err
	}
	rid, ok := v.(types.RecordID)
	if !ok {
		return types.RecordID{}, corerr.ErrUnsupportedFeature
	}
	if rid.IsRangeID() {
		return types.RecordID{}, corerr.ErrUnsupportedFeature
	}
	return rid, nil
}
