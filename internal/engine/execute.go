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
	"fmt"

	"github.com/pkg/errors"

	"github.com/corvidb/corvid/internal/lang/ast"
	"github.com/corvidb/corvid/internal/lang/parser"
	"github.com/corvidb/corvid/internal/txn"
	"github.com/corvidb/corvid/internal/types"
)

// Execute parses query and runs every statement it contains in order,
// each under its own transaction (spec.md §7 "each statement of a
// multi-statement query runs in its own transaction unless grouped
// explicitly" — grouping multiple statements into one transaction is not
// yet exposed at this layer; see DESIGN.md). It returns one result value
// per statement, matching how a client driver reports a batched query's
// results.
func (d *Datastore) Execute(ctx context.Context, ns, db, query string, params map[string]types.Value) ([]types.Value, error) {
	stmts, err := parser.New(query).ParseAll()
	if err != nil {
		return nil, errors.Wrap(err, "engine: parse query")
	}

	results := make([]types.Value, 0, len(stmts))
	for _, stmt := range stmts {
		v, err := d.executeOne(ctx, ns, db, stmt, params)
		if err != nil {
			return results, err
		}
		results = append(results, v)
	}
	return results, nil
}

// statementWrites reports whether stmt needs a writable transaction, the
// boundary internal/txn.Begin's write flag is threaded from.
func statementWrites(stmt ast.Statement) bool {
	switch stmt.(type) {
	case ast.SelectStatement:
		return false
	default:
		return true
	}
}

func (d *Datastore) executeOne(ctx context.Context, ns, db string, stmt ast.Statement, params map[string]types.Value) (types.Value, error) {
	tx, err := txn.Begin(ctx, d.backend, statementWrites(stmt), txn.DropWarn, d.logger)
	if err != nil {
		return nil, err
	}

	v, err := d.dispatch(ctx, tx, ns, db, stmt, params)
	if err != nil {
		_ = tx.Cancel()
		return nil, err
	}
	if !statementWrites(stmt) {
		_ = tx.Cancel()
		return v, nil
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return v, nil
}

func (d *Datastore) dispatch(ctx context.Context, tx *txn.Tx, ns, db string, stmt ast.Statement, params map[string]types.Value) (types.Value, error) {
	switch s := stmt.(type) {
	case ast.SelectStatement:
		return d.runSelect(ctx, tx, ns, db, s, params)
	case ast.CreateStatement:
		return d.runCreate(ctx, tx, ns, db, s, params)
	case ast.UpsertStatement:
		return d.runUpsert(ctx, tx, ns, db, s, params)
	case ast.UpdateStatement:
		return d.runUpdate(ctx, tx, ns, db, s, params)
	case ast.DeleteStatement:
		return d.runDelete(ctx, tx, ns, db, s, params)
	case ast.RelateStatement:
		return d.runRelate(ctx, tx, ns, db, s, params)
	case ast.InsertStatement:
		return d.runInsert(ctx, tx, ns, db, s, params)
	case ast.RemoveStatement:
		return types.None{}, d.runRemove(ctx, tx, ns, db, s)
	case ast.DefineNamespaceStatement, ast.DefineDatabaseStatement, ast.DefineTableStatement,
		ast.DefineFieldStatement, ast.DefineIndexStatement, ast.DefineEventStatement, ast.DefineFunctionStatement:
		return types.None{}, d.runDefine(ctx, tx, ns, db, s)
	default:
		return nil, fmt.Errorf("engine: unhandled statement %T", stmt)
	}
}
