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
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/corvidb/corvid/internal/catalog"
	"github.com/corvidb/corvid/internal/compile"
	"github.com/corvidb/corvid/internal/corerr"
	"github.com/corvidb/corvid/internal/doc"
	"github.com/corvidb/corvid/internal/index"
	"github.com/corvidb/corvid/internal/index/ft"
	"github.com/corvidb/corvid/internal/keycodec"
	"github.com/corvidb/corvid/internal/lang/ast"
	"github.com/corvidb/corvid/internal/txn"
	"github.com/corvidb/corvid/internal/types"
)

// writeParams is the per-statement shape runWrite needs, extracted from
// whichever of CREATE/UPSERT/UPDATE/DELETE/INSERT's ast nodes is driving
// this row.
type writeParams struct {
	stmt  doc.StatementKind
	table string
	id    ast.Expr // nil means "generate a UUID key"
	data  ast.DataClause
	where ast.Expr
	ret   ast.ReturnClause
}

func (d *Datastore) runCreate(ctx context.Context, tx *txn.Tx, ns, db string, s ast.CreateStatement, params map[string]types.Value) (types.Value, error) {
	v, _, err := d.runWrite(ctx, tx, ns, db, writeParams{stmt: doc.StmtCreate, table: s.Table, id: s.ID, data: s.Data, ret: s.Return}, params)
	return v, err
}

func (d *Datastore) runUpsert(ctx context.Context, tx *txn.Tx, ns, db string, s ast.UpsertStatement, params map[string]types.Value) (types.Value, error) {
	v, _, err := d.runWrite(ctx, tx, ns, db, writeParams{stmt: doc.StmtUpsert, table: s.Table, id: s.ID, data: s.Data, where: s.Where, ret: s.Return}, params)
	return v, err
}

func (d *Datastore) runUpdate(ctx context.Context, tx *txn.Tx, ns, db string, s ast.UpdateStatement, params map[string]types.Value) (types.Value, error) {
	v, _, err := d.runWrite(ctx, tx, ns, db, writeParams{stmt: doc.StmtUpdate, table: s.Table, id: s.ID, data: s.Data, where: s.Where, ret: s.Return}, params)
	return v, err
}

func (d *Datastore) runDelete(ctx context.Context, tx *txn.Tx, ns, db string, s ast.DeleteStatement, params map[string]types.Value) (types.Value, error) {
	v, _, err := d.runWrite(ctx, tx, ns, db, writeParams{stmt: doc.StmtDelete, table: s.Table, id: s.ID, where: s.Where, ret: s.Return}, params)
	return v, err
}

// runWrite implements one row's CREATE/UPSERT/UPDATE/DELETE lifecycle:
// load the table/field definitions, materialize the id and the working
// object from the data clause, run internal/doc.Process, then persist the
// result and maintain the table's secondary indexes (all five kinds, via
// indexRecord/unindexRecord) and the change-feed. RELATE and INSERT reuse this for their per-row mechanics
// (relate.go, insert.go) but supply their own id/table wiring. The second
// return value is the row's RecordID regardless of statement outcome
// (even a ignored/deleted row still resolved one), which relate.go needs
// to build its graph-edge link objects.
func (d *Datastore) runWrite(ctx context.Context, tx *txn.Tx, ns, db string, wp writeParams, params map[string]types.Value) (types.Value, types.RecordID, error) {
	table, err := d.lookupTable(ctx, tx, ns, db, wp.table)
	if err != nil {
		return nil, types.RecordID{}, err
	}
	fields, err := d.catalog.Fields(ctx, tx, ns, db, wp.table)
	if err != nil {
		return nil, types.RecordID{}, err
	}

	evalCtx := &compile.EvalContext{Params: params, Funcs: d.funcs}
	compiler := compile.NewCompiler(d.funcs)

	idKey, userSupplied, err := d.resolveWriteID(compiler, wp.id, evalCtx)
	if err != nil {
		return nil, types.RecordID{}, err
	}
	recID := types.RecordID{Table: wp.table, ID: idKey}

	recKey, err := keycodec.RecordKey(ns, db, wp.table, idKey)
	if err != nil {
		return nil, recID, err
	}
	before, hasBefore, err := d.loadRecord(tx, recKey)
	if err != nil {
		return nil, recID, err
	}

	var whereEval compile.Eval
	if wp.where != nil {
		whereEval, err = compiler.CompileExpr(wp.where)
		if err != nil {
			return nil, recID, err
		}
	}

	var current *types.Object
	if wp.stmt != doc.StmtDelete {
		base := types.NewObject()
		if hasBefore {
			if b, ok := before.(*types.Object); ok {
				base = b.Clone()
			}
		}
		current, err = applyDataClause(compiler, wp.data, base, evalCtx)
		if err != nil {
			return nil, recID, err
		}
	}

	retSpec, err := compileReturn(compiler, wp.ret)
	if err != nil {
		return nil, recID, err
	}

	in := &doc.Input{
		Table:          table,
		Fields:         fields,
		Stmt:           wp.stmt,
		ID:             recID,
		UserSuppliedID: userSupplied,
		Before:         before,
		Current:        current,
		Where:          whereEval,
		Return:         retSpec,
		EvalCtx:        evalCtx,
	}
	res, err := doc.Process(in)
	if err != nil {
		if errors.Is(err, corerr.IgnoreErr) {
			return types.None{}, recID, nil
		}
		return nil, recID, err
	}

	indexes, err := d.catalog.Indexes(ctx, tx, ns, db, wp.table)
	if err != nil {
		return nil, recID, err
	}

	if res.Delete || wp.stmt == doc.StmtDelete {
		if hasBefore {
			if err := d.unindexRecord(ctx, tx, ns, db, wp.table, indexes, before, idKey); err != nil {
				return nil, recID, err
			}
			if err := tx.Del(recKey); err != nil {
				return nil, recID, err
			}
			if err := d.appendChangeLog(tx, ns, db, wp.table); err != nil {
				return nil, recID, err
			}
		}
		return res.Output, recID, nil
	}

	if hasBefore {
		if err := d.unindexRecord(ctx, tx, ns, db, wp.table, indexes, before, idKey); err != nil {
			return nil, recID, err
		}
	}
	if err := d.storeRecord(tx, recKey, res.Stored); err != nil {
		return nil, recID, err
	}
	if err := d.indexRecord(ctx, tx, ns, db, wp.table, indexes, res.Stored, idKey); err != nil {
		return nil, recID, err
	}
	if err := d.appendChangeLog(tx, ns, db, wp.table); err != nil {
		return nil, recID, err
	}

	return res.Output, recID, nil
}

func (d *Datastore) lookupTable(ctx context.Context, tx *txn.Tx, ns, db, name string) (catalog.TableDef, error) {
	tables, err := d.catalog.Tables(ctx, tx, ns, db)
	if err != nil {
		return catalog.TableDef{}, err
	}
	for _, t := range tables {
		if t.Name == name {
			return t, nil
		}
	}
	return catalog.TableDef{}, &corerr.TableCheckError{Expected: name, Actual: "undefined"}
}

// resolveWriteID evaluates the statement's id expression (nil means
// "generate one"), spec.md §4.6 step 2.
func (d *Datastore) resolveWriteID(compiler *compile.Compiler, idExpr ast.Expr, evalCtx *compile.EvalContext) (types.RecordIDKey, bool, error) {
	if idExpr == nil {
		return types.NewString(uuid.NewString()), false, nil
	}
	eval, err := compiler.CompileExpr(idExpr)
	if err != nil {
		return nil, false, err
	}
	v, err := eval(evalCtx)
	if err != nil {
		return nil, false, err
	}
	key, ok := v.(types.RecordIDKey)
	if !ok {
		return nil, false, corerr.ErrIDInvalid
	}
	return key, true, nil
}

func (d *Datastore) loadRecord(tx *txn.Tx, key []byte) (types.Value, bool, error) {
	raw, ok, err := tx.Get(key)
	if err != nil || !ok {
		return nil, false, err
	}
	v, err := types.UnmarshalValue(raw)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (d *Datastore) storeRecord(tx *txn.Tx, key []byte, v types.Value) error {
	raw, err := types.MarshalValue(v)
	if err != nil {
		return err
	}
	return tx.Set(key, raw)
}

// appendChangeLog allocates the next versionstamp for this table via
// internal/txn's per-key counter (spec.md §4.2) and records an empty
// change-feed entry at it. The consumer-facing subscription payload that
// entry would carry is out of scope (see keycodec.ChangeLogKey); only the
// storage shape internal/tasks' GC worker reclaims is implemented.
func (d *Datastore) appendChangeLog(tx *txn.Tx, ns, db, tb string) error {
	key, err := tx.GetVersionstampedKey(keycodec.ChangeLogSeqKey(ns, db, tb), keycodec.ChangeLogPrefix(ns, db, tb), nil)
	if err != nil {
		return err
	}
	return tx.Set(key, []byte{})
}

// indexRecord/unindexRecord maintain all five secondary index kinds
// spec.md §4.7 describes, dispatched straight off the raw write path
// (every row write already runs through runWrite, so there is no
// separate event-trigger layer to hang count/full-text/HNSW maintenance
// off of — DEFINE EVENT is its own mechanism, for user-defined THEN
// clauses, not index upkeep).
func (d *Datastore) indexRecord(ctx context.Context, tx *txn.Tx, ns, db, tb string, indexes []catalog.IndexDef, row types.Value, id types.RecordIDKey) error {
	obj, ok := row.(*types.Object)
	if !ok {
		return nil
	}
	for _, ix := range indexes {
		switch ix.Kind {
		case catalog.IndexUnique:
			vals, ok := fieldValues(obj, ix.Fields)
			if !ok {
				continue
			}
			if err := index.PutUnique(tx, ns, db, tb, ix.Name, vals, id); err != nil {
				return err
			}
		case catalog.IndexNonUnique:
			vals, ok := fieldValues(obj, ix.Fields)
			if !ok {
				continue
			}
			if err := index.PutNonUnique(tx, ns, db, tb, ix.Name, vals, id); err != nil {
				return err
			}
		case catalog.IndexCount:
			if err := d.bumpCount(tx, ns, db, tb, ix.Name, 1); err != nil {
				return err
			}
		case catalog.IndexFullText:
			vals, ok := fieldValues(obj, ix.Fields)
			if !ok {
				continue
			}
			if err := d.indexFullText(ctx, tx, ns, db, tb, ix, vals, id); err != nil {
				return err
			}
		case catalog.IndexHNSW:
			vals, ok := fieldValues(obj, ix.Fields)
			if !ok {
				continue
			}
			vec, ok := floatsFromValue(vals[0])
			if !ok {
				continue
			}
			d.vectorIndexFor(ns, db, tb, ix).insert(id, vec)
		}
	}
	return nil
}

func (d *Datastore) unindexRecord(ctx context.Context, tx *txn.Tx, ns, db, tb string, indexes []catalog.IndexDef, row types.Value, id types.RecordIDKey) error {
	obj, ok := row.(*types.Object)
	if !ok {
		return nil
	}
	for _, ix := range indexes {
		switch ix.Kind {
		case catalog.IndexUnique:
			vals, ok := fieldValues(obj, ix.Fields)
			if !ok {
				continue
			}
			if err := index.DeleteUnique(tx, ns, db, tb, ix.Name, vals, id); err != nil {
				return err
			}
		case catalog.IndexNonUnique:
			vals, ok := fieldValues(obj, ix.Fields)
			if !ok {
				continue
			}
			if err := index.DeleteNonUnique(tx, ns, db, tb, ix.Name, vals, id); err != nil {
				return err
			}
		case catalog.IndexCount:
			if err := d.bumpCount(tx, ns, db, tb, ix.Name, -1); err != nil {
				return err
			}
		case catalog.IndexFullText:
			vals, ok := fieldValues(obj, ix.Fields)
			if !ok {
				continue
			}
			if err := d.unindexFullText(ctx, tx, ns, db, tb, ix, vals, id); err != nil {
				return err
			}
		case catalog.IndexHNSW:
			vals, ok := fieldValues(obj, ix.Fields)
			if !ok {
				continue
			}
			vec, ok := floatsFromValue(vals[0])
			if !ok {
				continue
			}
			d.vectorIndexFor(ns, db, tb, ix).remove(id, vec)
		}
	}
	return nil
}

// bumpCount records a +1/-1 delta against a count index's running total,
// stamped with a versionstamp drawn from the index's own root key: that
// key is never used as a literal storage key elsewhere (count.go's
// delta/counter/trigger keys and ft.Tree's state/term/inverse keys all
// append a marker byte after it), so reusing it bare as a per-index
// sequence counter cannot collide with anything the index itself stores.
func (d *Datastore) bumpCount(tx *txn.Tx, ns, db, tb, ixName string, delta int64) error {
	vs, err := tx.GetTimestamp(keycodec.IndexRootKey(ns, db, tb, ixName))
	if err != nil {
		return err
	}
	return index.RecordDelta(tx, ns, db, tb, ixName, d.cfg.NodeID, vs, delta)
}

// indexFullText tokenizes vals[0] (the single text field a SEARCH index
// covers) and records one non-unique posting per distinct term, reusing
// index.PutNonUnique/DeleteNonUnique for the postings themselves since
// internal/index/ft only implements the term<->TermId dictionary, not a
// postings list of its own (see DESIGN.md). Postings are keyed by
// TermId rather than the raw term so they sort and encode the same way
// any other non-unique index's field tuple does.
func (d *Datastore) indexFullText(ctx context.Context, tx *txn.Tx, ns, db, tb string, ix catalog.IndexDef, vals []types.Value, id types.RecordIDKey) error {
	tree, err := ft.Open(ctx, tx, ns, db, tb, ix.Name)
	if err != nil {
		return err
	}
	for _, term := range tokenize(vals[0]) {
		termID := tree.Resolve(term)
		if err := index.PutNonUnique(tx, ns, db, tb, ix.Name, termIDTuple(termID), id); err != nil {
			return err
		}
	}
	return tree.Finish(tx)
}

func (d *Datastore) unindexFullText(ctx context.Context, tx *txn.Tx, ns, db, tb string, ix catalog.IndexDef, vals []types.Value, id types.RecordIDKey) error {
	tree, err := ft.Open(ctx, tx, ns, db, tb, ix.Name)
	if err != nil {
		return err
	}
	for _, term := range tokenize(vals[0]) {
		termID, ok := tree.Lookup(term)
		if !ok {
			continue
		}
		if err := index.DeleteNonUnique(tx, ns, db, tb, ix.Name, termIDTuple(termID), id); err != nil {
			return err
		}
	}
	return tree.Finish(tx)
}

func termIDTuple(termID uint64) []types.Value {
	return []types.Value{types.NewNumberValue(types.NewInt(int64(termID)))}
}

// tokenize lower-cases and splits on anything that isn't a letter or
// digit, the same coarse word-boundary rule SEARCH's stored terms are
// resolved against on both the write and the query side.
func tokenize(v types.Value) []string {
	s, ok := v.(types.Str)
	if !ok {
		return nil
	}
	fields := strings.FieldsFunc(strings.ToLower(s.String()), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	seen := make(map[string]bool, len(fields))
	out := fields[:0]
	for _, f := range fields {
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// floatsFromValue converts a stored Array-of-Number field into the plain
// []float64 internal/index/hnsw operates on.
func floatsFromValue(v types.Value) ([]float64, bool) {
	arr, ok := v.(types.Array)
	if !ok {
		return nil, false
	}
	out := make([]float64, len(arr))
	for i, e := range arr {
		n, ok := e.(types.Num)
		if !ok {
			return nil, false
		}
		out[i] = n.AsFloat()
	}
	return out, true
}

func fieldValues(obj *types.Object, fields []string) ([]types.Value, bool) {
	vals := make([]types.Value, len(fields))
	for i, f := range fields {
		v, ok := obj.Get(f)
		if !ok {
			return nil, false
		}
		vals[i] = v
	}
	return vals, true
}

// applyDataClause folds an ast.DataClause onto base, producing the
// "Current" object internal/doc.Process's field rules run against
// (spec.md §6). Nested paths are not supported by SET/UNSET here; only
// top-level field names are, matching the field names internal/catalog's
// FieldDef.Name carries.
func applyDataClause(compiler *compile.Compiler, dc ast.DataClause, base *types.Object, evalCtx *compile.EvalContext) (*types.Object, error) {
	switch dc.Kind {
	case ast.DataNone:
		return base, nil
	case ast.DataSet:
		for _, a := range dc.Assigns {
			eval, err := compiler.CompileExpr(a.Value)
			if err != nil {
				return nil, err
			}
			v, err := eval(&compile.EvalContext{Row: base, Params: evalCtx.Params, Funcs: evalCtx.Funcs})
			if err != nil {
				return nil, err
			}
			base.Set(a.Path, v)
		}
		return base, nil
	case ast.DataContent, ast.DataReplace:
		eval, err := compiler.CompileExpr(dc.Value)
		if err != nil {
			return nil, err
		}
		v, err := eval(&compile.EvalContext{Row: base, Params: evalCtx.Params, Funcs: evalCtx.Funcs})
		if err != nil {
			return nil, err
		}
		obj, ok := v.(*types.Object)
		if !ok {
			return nil, corerr.ErrUnsupportedFeature
		}
		return obj, nil
	case ast.DataMerge:
		eval, err := compiler.CompileExpr(dc.Value)
		if err != nil {
			return nil, err
		}
		v, err := eval(&compile.EvalContext{Row: base, Params: evalCtx.Params, Funcs: evalCtx.Funcs})
		if err != nil {
			return nil, err
		}
		obj, ok := v.(*types.Object)
		if !ok {
			return nil, corerr.ErrUnsupportedFeature
		}
		for _, k := range obj.Keys() {
			val, _ := obj.Get(k)
			base.Set(k, val)
		}
		return base, nil
	case ast.DataUnset:
		for _, f := range dc.Unset {
			base.Delete(f)
		}
		return base, nil
	case ast.DataPatch:
		eval, err := compiler.CompileExpr(dc.Patch)
		if err != nil {
			return nil, err
		}
		v, err := eval(&compile.EvalContext{Row: base, Params: evalCtx.Params, Funcs: evalCtx.Funcs})
		if err != nil {
			return nil, err
		}
		ops, err := patchOpsFromValue(v)
		if err != nil {
			return nil, err
		}
		if err := doc.ApplyPatch(base, ops); err != nil {
			return nil, err
		}
		return base, nil
	default:
		return base, nil
	}
}

func patchOpsFromValue(v types.Value) ([]doc.PatchOp, error) {
	arr, ok := v.(types.Array)
	if !ok {
		return nil, corerr.ErrUnsupportedFeature
	}
	ops := make([]doc.PatchOp, 0, len(arr))
	for _, item := range arr {
		obj, ok := item.(*types.Object)
		if !ok {
			return nil, corerr.ErrUnsupportedFeature
		}
		op, _ := obj.Get("op")
		path, _ := obj.Get("path")
		val, _ := obj.Get("value")
		opStr, _ := op.(types.Str)
		pathStr, _ := path.(types.Str)
		ops = append(ops, doc.PatchOp{Op: opStr.String(), Path: pathStr.String(), Value: val})
	}
	return ops, nil
}

func compileReturn(compiler *compile.Compiler, rc ast.ReturnClause) (doc.ReturnSpec, error) {
	spec := doc.ReturnSpec{Kind: doc.ReturnKind(rc.Kind)}
	for _, f := range rc.Fields {
		eval, err := compiler.CompileExpr(f.Expr)
		if err != nil {
			return doc.ReturnSpec{}, err
		}
		name := f.Alias
		if name == "" {
			name = compile.CanonicalText(f.Expr)
		}
		spec.Fields = append(spec.Fields, doc.ReturnField{Name: name, Eval: eval})
	}
	return spec, nil
}
