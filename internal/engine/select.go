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

	"github.com/corvidb/corvid/internal/catalog"
	"github.com/corvidb/corvid/internal/compile"
	"github.com/corvidb/corvid/internal/corerr"
	"github.com/corvidb/corvid/internal/exec"
	"github.com/corvidb/corvid/internal/keycodec"
	"github.com/corvidb/corvid/internal/lang/ast"
	"github.com/corvidb/corvid/internal/txn"
	"github.com/corvidb/corvid/internal/types"
)

// knnDistanceField is the synthetic field name a KNN search attaches its
// per-row distance under, and what vector::distance::knn() is rewritten
// to reference (spec.md §4.7 HNSW search).
const knnDistanceField = "__knn_distance"

// runSelect builds and drives an internal/exec operator tree for a single
// parsed SELECT statement: a row source (Scan, a direct record-id point
// lookup, or a KNN search result set) -> Filter -> (Aggregate) -> Compute
// (graph-traversal fields) -> Sort -> Project -> Fetch. Only a single FROM
// item is supported, matching what internal/lang/parser currently
// produces (a multi-source planner choosing between several FROM items is
// future work — see DESIGN.md).
func (d *Datastore) runSelect(ctx context.Context, tx *txn.Tx, ns, db string, s ast.SelectStatement, params map[string]types.Value) (types.Value, error) {
	if len(s.From) != 1 {
		return nil, corerr.ErrUnsupportedFeature
	}
	from := s.From[0]

	compiler := compile.NewCompiler(d.funcs)
	evalCtx := &compile.EvalContext{Params: params, Funcs: d.funcs}

	knn, isKNN := s.Where.(ast.KNNExpr)

	var op exec.Operator
	switch {
	case isKNN:
		if from.ID != nil {
			return nil, corerr.ErrUnsupportedFeature
		}
		rows, err := d.runKNNSearch(ctx, tx, ns, db, from.Table, knn, compiler, evalCtx)
		if err != nil {
			return nil, err
		}
		op = exec.NewRowsSource(rows)
	case from.ID != nil:
		row, err := d.lookupByID(ctx, tx, ns, db, from, compiler, evalCtx)
		if err != nil {
			return nil, err
		}
		var rows []types.Value
		if row != nil {
			rows = []types.Value{row}
		}
		op = exec.NewRowsSource(rows)
	default:
		op = exec.NewScan(tx, ns, db, from.Table)
	}

	if !isKNN && s.Where != nil {
		pred, err := compiler.CompileExpr(s.Where)
		if err != nil {
			return nil, err
		}
		op = &exec.Filter{Child: op, Predicate: pred, Params: params, Funcs: d.funcs}
	}

	reserved := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		if f.Alias != "" {
			reserved = append(reserved, f.Alias)
		}
	}
	registry := compile.NewRegistry(reserved)

	extractor := compile.NewAggregateExtractor()
	fields := make([]ast.SelectField, len(s.Fields))
	displayNames := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		rewritten := f.Expr
		if isKNN {
			rewritten = rewriteKNNDistance(rewritten)
		}
		trav, ok := rewritten.(ast.GraphTraversalExpr)
		if ok {
			if trav.Base != nil {
				return nil, corerr.ErrUnsupportedFeature
			}
			name, err := registerTraversal(ctx, tx, ns, db, registry, trav)
			if err != nil {
				return nil, err
			}
			rewritten = ast.FieldRef{Name: name}
		}
		fields[i] = ast.SelectField{Expr: extractor.Extract(rewritten), Alias: f.Alias}
		displayNames[i] = f.Alias
		if displayNames[i] == "" {
			displayNames[i] = compile.CanonicalText(fields[i].Expr)
		}
	}

	grouping := s.GroupAll || len(s.GroupBy) > 0
	groupRename := map[string]string{}
	if grouping {
		groups := compile.ExtractGroups(s.GroupBy)
		groupKeys := make([]exec.GroupKey, len(groups))
		for i, g := range groups {
			eval, err := compiler.CompileExpr(g.Expr)
			if err != nil {
				return nil, err
			}
			groupKeys[i] = exec.GroupKey{Name: g.Name, Expr: eval}
			groupRename[s.GroupBy[i]] = g.Name
		}
		aggFields := make([]exec.AggField, len(extractor.Aggregates))
		for i, a := range extractor.Aggregates {
			var eval compile.Eval
			if a.Expr != nil {
				var err error
				eval, err = compiler.CompileExpr(a.Expr)
				if err != nil {
					return nil, err
				}
			}
			aggFields[i] = exec.AggField{Name: a.Name, Kind: a.Kind, Expr: eval}
		}
		op = &exec.Aggregate{Child: op, GroupKeys: groupKeys, Fields: aggFields, GroupAll: s.GroupAll, Params: params, Funcs: d.funcs}

		// A SELECT field referencing a bare GROUP BY path (e.g. "region")
		// must read the Aggregate operator's synthetic _gK column instead
		// of the raw row field, which no longer exists on a grouped row
		// (spec.md §4.4 "Group expressions are likewise interned as
		// _g0.._gK").
		for i, f := range fields {
			fields[i].Expr = rewriteFieldRefs(f.Expr, groupRename)
		}
	}

	if computed := registry.AtPoint(compile.PointSort); len(computed) > 0 {
		op = &exec.Compute{Child: op, Registry: registry, Point: compile.PointSort, Params: params, Funcs: d.funcs}
	}

	var valueExpr ast.Expr
	if s.VALUE {
		if len(s.Fields) != 1 {
			return nil, corerr.ErrUnsupportedFeature
		}
		valueExpr = fields[0].Expr
	}

	if len(s.OrderBy) > 0 {
		keys := make([]exec.OrderKey, len(s.OrderBy))
		for i, o := range s.OrderBy {
			eval, err := compiler.CompileExpr(orderByExpr(o.Path, groupRename, fields, displayNames))
			if err != nil {
				return nil, err
			}
			keys[i] = exec.OrderKey{Eval: eval, Desc: o.Desc}
		}
		op = &exec.Sort{Child: op, Keys: keys, Params: params, Funcs: d.funcs}
	}

	proj := &exec.Project{Child: op, Params: params, Funcs: d.funcs}
	if valueExpr != nil {
		eval, err := compiler.CompileExpr(valueExpr)
		if err != nil {
			return nil, err
		}
		proj.Value = eval
	} else {
		for i, f := range fields {
			eval, err := compiler.CompileExpr(f.Expr)
			if err != nil {
				return nil, err
			}
			proj.Fields = append(proj.Fields, exec.ProjectField{Name: displayNames[i], Eval: eval})
		}
	}
	op = proj

	if len(s.Fetch) > 0 {
		op = &exec.Fetch{Child: op, Tx: tx, NS: ns, DB: db, Paths: s.Fetch}
	}

	limit, err := evalBoundExpr(compiler, s.Limit, evalCtx)
	if err != nil {
		return nil, err
	}
	start, err := evalBoundExpr(compiler, s.Start, evalCtx)
	if err != nil {
		return nil, err
	}
	pushed := false
	if scan, ok := findScan(op); ok && s.Where == nil && !grouping && len(s.OrderBy) == 0 {
		scan.Limit = limit
		scan.Start = start
		pushed = true
	}

	stream, err := op.Execute(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := drainStream(ctx, stream)
	if err != nil {
		return nil, err
	}
	if !pushed {
		rows = applyBounds(rows, limit, start)
	}

	out := make(types.Array, len(rows))
	copy(out, rows)
	return out, nil
}

// lookupByID resolves a direct `FROM table:id` point lookup (spec.md §4.6
// "a bare record-id literal in FROM position is a point lookup, not a
// scan"), returning nil when the record does not exist.
func (d *Datastore) lookupByID(ctx context.Context, tx *txn.Tx, ns, db string, from ast.FromItem, compiler *compile.Compiler, evalCtx *compile.EvalContext) (types.Value, error) {
	eval, err := compiler.CompileExpr(from.ID)
	if err != nil {
		return nil, err
	}
	v, err := eval(evalCtx)
	if err != nil {
		return nil, err
	}
	idKey, ok := v.(types.RecordIDKey)
	if !ok {
		return nil, corerr.ErrIDInvalid
	}
	key, err := keycodec.RecordKey(ns, db, from.Table, idKey)
	if err != nil {
		return nil, err
	}
	raw, ok, err := tx.Get(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	body, err := types.UnmarshalValue(raw)
	if err != nil {
		return nil, err
	}
	obj, ok := body.(*types.Object)
	if !ok {
		return body, nil
	}
	obj.Set("id", types.RecordID{Table: from.Table, ID: idKey})
	return obj, nil
}

// registerTraversal compiles a top-level `->edge->table` / `<-edge<-table`
// SELECT field into a hand-written compile.Eval driving GraphEdgeScan
// directly: compile.EvalContext carries no transaction, so a traversal
// field cannot be expressed as an ordinary compiler.CompileExpr result
// and instead closes over ctx/tx/ns/db from this call (the same pattern
// runSelect already uses to drive Fetch from values resolved in its own
// scope).
func registerTraversal(ctx context.Context, tx *txn.Tx, ns, db string, registry *compile.Registry, trav ast.GraphTraversalExpr) (string, error) {
	dir := exec.EdgeIn
	if trav.Out {
		dir = exec.EdgeOut
	}
	text := "traversal:" + trav.Edge + ":" + trav.Table
	if trav.Out {
		text = "out:" + text
	}
	eval := func(evalCtx *compile.EvalContext) (types.Value, error) {
		if evalCtx.Row == nil {
			return types.Array{}, nil
		}
		idVal, ok := evalCtx.Row.Get("id")
		if !ok {
			return types.Array{}, nil
		}
		rid, ok := idVal.(types.RecordID)
		if !ok {
			return types.Array{}, nil
		}
		scan := &exec.GraphEdgeScan{
			Tx:        tx,
			NS:        ns,
			DB:        db,
			Sources:   []types.RecordID{rid},
			Direction: dir,
			EdgeTable: trav.Edge,
			Yield:     exec.YieldTargetID,
		}
		stream, err := scan.Execute(ctx)
		if err != nil {
			return nil, err
		}
		targets, err := drainStream(ctx, stream)
		if err != nil {
			return nil, err
		}
		out := make(types.Array, 0, len(targets))
		for _, t := range targets {
			if trav.Table != "" {
				if target, ok := t.(types.RecordID); ok && target.Table != trav.Table {
					continue
				}
			}
			out = append(out, t)
		}
		return out, nil
	}
	return registry.Register(text, eval, compile.PointSort, ""), nil
}

// rewriteKNNDistance replaces any `vector::distance::knn(...)` call found
// in e with a reference to the distance runKNNSearch already attached to
// each row, the same recursive shape rewriteFieldRefs walks with but
// targeting a function call instead of a field name.
func rewriteKNNDistance(e ast.Expr) ast.Expr {
	switch n := e.(type) {
	case ast.FuncCall:
		if n.Name == "vector::distance::knn" {
			return ast.FieldRef{Name: knnDistanceField}
		}
		args := make([]ast.Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = rewriteKNNDistance(a)
		}
		return ast.FuncCall{Name: n.Name, Args: args}
	case ast.BinaryExpr:
		return ast.BinaryExpr{Op: n.Op, Left: rewriteKNNDistance(n.Left), Right: rewriteKNNDistance(n.Right)}
	case ast.UnaryExpr:
		return ast.UnaryExpr{Op: n.Op, Expr: rewriteKNNDistance(n.Expr)}
	case ast.IdiomExpr:
		return ast.IdiomExpr{Base: rewriteKNNDistance(n.Base), Path: n.Path}
	default:
		return e
	}
}

// runKNNSearch resolves the HNSW index covering knn.Operand, searches it
// for knn.K nearest neighbours of knn.Target, and fetches each hit's full
// record with its distance attached under knnDistanceField (spec.md §4.7
// "operand <|k|> target ... drives the HNSW index directly rather than a
// table scan").
func (d *Datastore) runKNNSearch(ctx context.Context, tx *txn.Tx, ns, db, table string, knn ast.KNNExpr, compiler *compile.Compiler, evalCtx *compile.EvalContext) ([]types.Value, error) {
	field := compile.CanonicalText(knn.Operand)
	indexes, err := d.catalog.Indexes(ctx, tx, ns, db, table)
	if err != nil {
		return nil, err
	}
	var ix catalog.IndexDef
	found := false
	for _, cand := range indexes {
		if cand.Kind == catalog.IndexHNSW && len(cand.Fields) > 0 && cand.Fields[0] == field {
			ix = cand
			found = true
			break
		}
	}
	if !found {
		return nil, corerr.ErrUnsupportedFeature
	}

	targetEval, err := compiler.CompileExpr(knn.Target)
	if err != nil {
		return nil, err
	}
	targetVal, err := targetEval(evalCtx)
	if err != nil {
		return nil, err
	}
	query, ok := floatsFromValue(targetVal)
	if !ok {
		return nil, corerr.ErrUnsupportedFeature
	}

	hits := d.vectorIndexFor(ns, db, table, ix).search(query, knn.K)
	rows := make([]types.Value, 0, len(hits))
	for _, hit := range hits {
		key, err := keycodec.RecordKey(ns, db, table, hit.ID)
		if err != nil {
			return nil, err
		}
		raw, ok, err := tx.Get(key)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		body, err := types.UnmarshalValue(raw)
		if err != nil {
			return nil, err
		}
		obj, ok := body.(*types.Object)
		if !ok {
			continue
		}
		obj.Set("id", types.RecordID{Table: table, ID: hit.ID})
		obj.Set(knnDistanceField, types.NewNumberValue(types.NewFloat(hit.Dist)))
		rows = append(rows, obj)
	}
	return rows, nil
}

// evalBoundExpr evaluates a LIMIT/START expression (nil means "no bound")
// against a Row-less EvalContext: these clauses never reference row
// fields.
func evalBoundExpr(compiler *compile.Compiler, e ast.Expr, evalCtx *compile.EvalContext) (int, error) {
	if e == nil {
		return 0, nil
	}
	eval, err := compiler.CompileExpr(e)
	if err != nil {
		return 0, err
	}
	v, err := eval(evalCtx)
	if err != nil {
		return 0, err
	}
	n, ok := v.(types.Num)
	if !ok {
		return 0, corerr.ErrUnsupportedFeature
	}
	i, _ := n.Number.Int()
	return int(i), nil
}

// rewriteFieldRefs substitutes FieldRef names found in renames, the same
// recursive shape compile.AggregateExtractor.Extract walks with but for
// group-by renaming rather than aggregate-call replacement.
func rewriteFieldRefs(e ast.Expr, renames map[string]string) ast.Expr {
	switch n := e.(type) {
	case ast.FieldRef:
		if alt, ok := renames[n.Name]; ok {
			return ast.FieldRef{Name: alt}
		}
		return n
	case ast.FuncCall:
		args := make([]ast.Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = rewriteFieldRefs(a, renames)
		}
		return ast.FuncCall{Name: n.Name, Args: args}
	case ast.BinaryExpr:
		return ast.BinaryExpr{Op: n.Op, Left: rewriteFieldRefs(n.Left, renames), Right: rewriteFieldRefs(n.Right, renames)}
	case ast.UnaryExpr:
		return ast.UnaryExpr{Op: n.Op, Expr: rewriteFieldRefs(n.Expr, renames)}
	case ast.IdiomExpr:
		return ast.IdiomExpr{Base: rewriteFieldRefs(n.Base, renames), Path: n.Path}
	default:
		return e
	}
}

// orderByExpr resolves one ORDER BY path against, in order: a GROUP BY
// column's synthetic _gK rename, a SELECT field's display name (so ORDER
// BY can reference a SELECT-only aggregate alias), or finally a bare row
// field for an ungrouped SELECT.
func orderByExpr(path string, groupRename map[string]string, fields []ast.SelectField, displayNames []string) ast.Expr {
	if alt, ok := groupRename[path]; ok {
		return ast.FieldRef{Name: alt}
	}
	for i, name := range displayNames {
		if name == path {
			return fields[i].Expr
		}
	}
	return ast.FieldRef{Name: path}
}

// drainStream flattens every batch a Stream yields into one row slice,
// the same shape internal/exec's own blocking operators (Sort,
// Aggregate) collect internally via their unexported drainAll.
func drainStream(ctx context.Context, s exec.Stream) ([]types.Value, error) {
	var rows []types.Value
	for {
		batch, err := s.Next(ctx)
		if err == exec.ErrEOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, batch...)
	}
}

// findScan walks down through the single-child operators runSelect builds
// to recover the Scan leaf, letting an unfiltered, ungrouped, unsorted
// SELECT push LIMIT/START all the way down to the storage read instead of
// materializing the whole table first.
func findScan(op exec.Operator) (*exec.Scan, bool) {
	for {
		if s, ok := op.(*exec.Scan); ok {
			return s, true
		}
		children := op.Children()
		if len(children) != 1 {
			return nil, false
		}
		op = children[0]
	}
}

// applyBounds is the fallback LIMIT/START enforcement for pipelines
// findScan couldn't push the bound into (Filter/Aggregate/Sort all
// change which rows reach the end of the pipeline, so the bound has to
// apply to their output instead of the Scan's).
func applyBounds(rows []types.Value, limit, start int) []types.Value {
	if start > 0 {
		if start >= len(rows) {
			return nil
		}
		rows = rows[start:]
	}
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}
