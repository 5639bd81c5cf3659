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

	"github.com/corvidb/corvid/internal/doc"
	"github.com/corvidb/corvid/internal/lang/ast"
	"github.com/corvidb/corvid/internal/txn"
	"github.com/corvidb/corvid/internal/types"
)

// runInsert drives one runWrite per row literal, each row's id resolved
// the same "supplied `id` field wins, otherwise generate one" way CREATE
// does (spec.md §4.6 step 2), since INSERT's row objects carry their id
// inline rather than as a separate clause.
func (d *Datastore) runInsert(ctx context.Context, tx *txn.Tx, ns, db string, s ast.InsertStatement, params map[string]types.Value) (types.Value, error) {
	stmt := doc.StmtInsert
	if s.IsRelation {
		stmt = doc.StmtInsertRelation
	}

	out := make(types.Array, 0, len(s.Rows))
	for _, row := range s.Rows {
		var idExpr ast.Expr
		for _, f := range row.Fields {
			if f.Key == "id" {
				idExpr = f.Value
			}
		}
		v, _, err := d.runWrite(ctx, tx, ns, db, writeParams{
			stmt:  stmt,
			table: s.Table,
			id:    idExpr,
			data:  ast.DataClause{Kind: ast.DataContent, Value: row},
			ret:   s.Return,
		}, params)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
