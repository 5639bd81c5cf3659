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
	"github.com/corvidb/corvid/internal/txn"
)

// runDefine dispatches a DEFINE statement straight to the matching
// catalog setter: the parser already built the catalog.*Def value from
// DDL syntax (internal/lang/ast's doc comment on the Define*Statement
// family), so engine's only job is routing ns/db/table scope.
func (d *Datastore) runDefine(ctx context.Context, tx *txn.Tx, ns, db string, stmt ast.Statement) error {
	switch s := stmt.(type) {
	case ast.DefineNamespaceStatement:
		return d.catalog.DefineNamespace(tx, s.Def)
	case ast.DefineDatabaseStatement:
		return d.catalog.DefineDatabase(tx, ns, s.Def)
	case ast.DefineTableStatement:
		return d.catalog.DefineTable(tx, ns, db, s.Def)
	case ast.DefineFieldStatement:
		return d.catalog.DefineField(tx, ns, db, s.Table, s.Def)
	case ast.DefineIndexStatement:
		return d.catalog.DefineIndex(tx, ns, db, s.Table, s.Def)
	case ast.DefineEventStatement:
		return d.catalog.DefineEvent(tx, ns, db, s.Table, s.Def)
	case ast.DefineFunctionStatement:
		return d.catalog.DefineFunction(tx, ns, db, s.Def)
	default:
		return errors.Errorf("engine: not a DEFINE statement: %T", stmt)
	}
}

func (d *Datastore) runRemove(ctx context.Context, tx *txn.Tx, ns, db string, stmt ast.RemoveStatement) error {
	switch stmt.Kind {
	case ast.RemoveNamespace:
		return d.catalog.RemoveNamespace(tx, ns)
	case ast.RemoveDatabase:
		return d.catalog.RemoveDatabase(tx, ns, db)
	case ast.RemoveTable:
		return d.catalog.RemoveTable(tx, ns, db, stmt.Name)
	case ast.RemoveField:
		return d.catalog.RemoveField(tx, ns, db, stmt.Table, stmt.Name)
	case ast.RemoveIndex:
		return d.catalog.RemoveIndex(tx, ns, db, stmt.Table, stmt.Name)
	case ast.RemoveEvent:
		return d.catalog.RemoveEvent(tx, ns, db, stmt.Table, stmt.Name)
	case ast.RemoveFunction:
		return d.catalog.RemoveFunction(tx, ns, db, stmt.Name)
	default:
		return fmt.Errorf("engine: unknown REMOVE kind %v", stmt.Kind)
	}
}
