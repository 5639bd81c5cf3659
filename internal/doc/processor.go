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

// Package doc implements the per-row write lifecycle spec.md §4.6
// describes: table-type check, supplied-id validation, WHERE gating,
// field-level default/value/assert/coercion rules in declaration order,
// table-level SELECT permission gating, and RETURN-clause emission.
// Grounded on internal/catalog's definitions (TableDef/FieldDef/
// Permission) and internal/compile's Eval closures for every expression
// this lifecycle touches.
package doc

import (
	"github.com/corvidb/corvid/internal/catalog"
	"github.com/corvidb/corvid/internal/compile"
	"github.com/corvidb/corvid/internal/corerr"
	"github.com/corvidb/corvid/internal/types"
)

// StatementKind is the write-statement family driving step 1's table-type
// check (spec.md §4.6 step 1).
type StatementKind uint8

const (
	StmtCreate StatementKind = iota
	StmtUpsert
	StmtUpdate
	StmtDelete
	StmtRelate
	StmtInsert
	StmtInsertRelation
)

func (k StatementKind) String() string {
	switch k {
	case StmtCreate:
		return "CREATE"
	case StmtUpsert:
		return "UPSERT"
	case StmtUpdate:
		return "UPDATE"
	case StmtDelete:
		return "DELETE"
	case StmtRelate:
		return "RELATE"
	case StmtInsert:
		return "INSERT"
	case StmtInsertRelation:
		return "INSERT RELATION"
	default:
		return "UNKNOWN"
	}
}

// Input bundles everything one row's lifecycle needs. Before is nil for a
// row that does not yet exist (a fresh CREATE/INSERT); Current is the
// working value as data-clause application and field rules progressively
// transform it, seeded from Before (UPDATE/UPSERT) or an empty object
// (CREATE/INSERT).
type Input struct {
	Table  catalog.TableDef
	Fields []catalog.FieldDef // declaration order, per spec.md §4.6 step 4
	Stmt   StatementKind

	ID             types.RecordID
	UserSuppliedID bool

	Before  types.Value // nil if the record does not yet exist
	Current *types.Object

	Where  compile.Eval // nil means no WHERE clause
	Return ReturnSpec

	EvalCtx *compile.EvalContext // Params/Funcs shared across every Eval below
}

// ReturnSpec mirrors ast.ReturnClause but with each field's alias/expr
// already compiled, so doc stays independent of the ast package.
type ReturnSpec struct {
	Kind   ReturnKind
	Fields []ReturnField
}

type ReturnKind uint8

const (
	ReturnNone ReturnKind = iota
	ReturnNull
	ReturnDiff
	ReturnBefore
	ReturnAfter
	ReturnFields
)

type ReturnField struct {
	Name string
	Eval compile.Eval
}

// Result is the lifecycle's outcome: Stored is the value to persist
// (nil for DELETE or an ignored row), Output is what RETURN emits.
type Result struct {
	Stored types.Value
	Output types.Value
	Delete bool
}

// Process runs steps 1-6 of spec.md §4.6 against in. A falsy WHERE or a
// None-permission gate both surface as corerr.IgnoreErr, the sentinel
// operators must test for with errors.Is rather than treat as fatal.
func Process(in *Input) (*Result, error) {
	if err := checkTableType(in.Table.Kind, in.Stmt); err != nil {
		return nil, err
	}
	if in.UserSuppliedID {
		if err := checkSuppliedID(in.ID); err != nil {
			return nil, err
		}
	}

	if in.Stmt == StmtDelete {
		if in.Where != nil {
			ok, err := evalTruthy(in.Where, in.EvalCtx, in.Before)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, corerr.IgnoreErr
			}
		}
		return &Result{Delete: true}, nil
	}

	if in.Where != nil {
		ok, err := evalTruthy(in.Where, in.EvalCtx, in.Before)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, corerr.IgnoreErr
		}
	}

	current := in.Current
	if current == nil {
		current = types.NewObject()
	}
	for _, f := range in.Fields {
		if err := applyFieldRules(f, current, in.EvalCtx); err != nil {
			return nil, err
		}
	}
	current.Set("id", in.ID)

	view, err := applySelectPermission(in.Table.Permissions.Select, current, in.EvalCtx)
	if err != nil {
		return nil, err
	}
	view, err = applyFieldPermissions(in.Fields, view, in.EvalCtx)
	if err != nil {
		return nil, err
	}

	output, err := buildReturn(in.Return, in.Before, view)
	if err != nil {
		return nil, err
	}

	return &Result{Stored: current, Output: output}, nil
}

func checkTableType(kind catalog.TableKind, stmt StatementKind) error {
	switch stmt {
	case StmtCreate, StmtUpsert, StmtUpdate:
		if kind != catalog.TableAny && kind != catalog.TableNormal {
			return &corerr.TableCheckError{Expected: "ANY|NORMAL", Actual: tableKindString(kind)}
		}
	case StmtRelate, StmtInsertRelation:
		if kind != catalog.TableAny && kind != catalog.TableRelation {
			return &corerr.TableCheckError{Expected: "ANY|RELATION", Actual: tableKindString(kind)}
		}
	case StmtInsert:
		if kind != catalog.TableAny && kind != catalog.TableNormal {
			return &corerr.TableCheckError{Expected: "ANY|NORMAL", Actual: tableKindString(kind)}
		}
	case StmtDelete:
		// DELETE has no type restriction; any table kind may be deleted from.
	}
	return nil
}

func tableKindString(k catalog.TableKind) string {
	switch k {
	case catalog.TableAny:
		return "ANY"
	case catalog.TableNormal:
		return "NORMAL"
	case catalog.TableRelation:
		return "RELATION"
	default:
		return "UNKNOWN"
	}
}

// checkSuppliedID rejects a range id outright (spec.md §4.6 step 2 "verify
// it is not a range"). Matching the id against data's id/in/out fields is
// the caller's job once Current is built, since only the caller knows
// which data fields were supplied before field rules run.
func checkSuppliedID(id types.RecordID) error {
	if _, isRange := id.ID.(types.RangeValue); isRange {
		return corerr.ErrIDInvalid
	}
	return nil
}

func evalTruthy(eval compile.Eval, evalCtx *compile.EvalContext, row types.Value) (bool, error) {
	ctx := &compile.EvalContext{Row: rowObject(row), Params: evalCtx.Params, Funcs: evalCtx.Funcs}
	v, err := eval(ctx)
	if err != nil {
		return false, err
	}
	return types.Truthy(v), nil
}

func rowObject(v types.Value) *types.Object {
	if o, ok := v.(*types.Object); ok {
		return o
	}
	return types.NewObject()
}

// applyFieldRules implements spec.md §4.6 step 4: compute default/value,
// check the assertion, then coerce to the declared kind.
func applyFieldRules(f catalog.FieldDef, current *types.Object, evalCtx *compile.EvalContext) error {
	ctx := &compile.EvalContext{Row: current, Params: evalCtx.Params, Funcs: evalCtx.Funcs}

	if f.Value != "" {
		v, err := evalFieldExpr(f.Value, ctx)
		if err != nil {
			return err
		}
		current.Set(f.Name, v)
	} else if f.Default != "" {
		if _, ok := current.Get(f.Name); !ok {
			v, err := evalFieldExpr(f.Default, ctx)
			if err != nil {
				return err
			}
			current.Set(f.Name, v)
		}
	}

	if f.Assert != "" {
		v, _ := current.Get(f.Name)
		assertCtx := &compile.EvalContext{Row: current, Params: evalCtx.Params, Funcs: evalCtx.Funcs}
		_ = v
		ok, err := evalAssert(f.Assert, assertCtx)
		if err != nil {
			return err
		}
		if !ok {
			return &corerr.FieldAssertionError{Field: f.Name, Expr: f.Assert}
		}
	}

	if f.Kind != types.KindNone {
		v, ok := current.Get(f.Name)
		if ok {
			coerced, err := Coerce(v, f.Kind)
			if err != nil {
				return err
			}
			current.Set(f.Name, coerced)
		}
	}
	return nil
}

// applySelectPermission implements spec.md §4.6 step 5. None returns
// corerr.IgnoreErr, Full passes the row through unchanged, and a WHERE
// permission gates the whole row (a falsy result is dropped the same way
// None is), since TableDef carries one table-wide SELECT permission
// rather than a per-field one.
func applySelectPermission(perm catalog.Permission, row *types.Object, evalCtx *compile.EvalContext) (*types.Object, error) {
	switch perm.Kind {
	case catalog.PermissionNone:
		return nil, corerr.IgnoreErr
	case catalog.PermissionFull:
		return row, nil
	case catalog.PermissionWhere:
		ctx := &compile.EvalContext{Row: row, Params: evalCtx.Params, Funcs: evalCtx.Funcs}
		v, err := evalAssertExpr(perm.Expr, ctx)
		if err != nil {
			return nil, err
		}
		if !types.Truthy(v) {
			return nil, corerr.IgnoreErr
		}
		return row, nil
	default:
		return row, nil
	}
}

// applyFieldPermissions applies each FieldDef's own output permission on
// top of the table-wide gate, dropping individual fields a falsy WHERE
// permission excludes (spec.md §4.6 step 5 "gating each field"). A field
// whose Permission is the zero value is treated as "no override declared"
// rather than an explicit PERMISSIONS NONE: DEFINE FIELD never sets
// Permissions unless a PERMISSIONS clause is present, so the zero value
// has to mean inherit-visible or every undeclared field would vanish.
func applyFieldPermissions(fields []catalog.FieldDef, row *types.Object, evalCtx *compile.EvalContext) (*types.Object, error) {
	if row == nil {
		return nil, nil
	}
	for _, f := range fields {
		switch f.Permissions.Kind {
		case catalog.PermissionNone:
			// zero value: no PERMISSIONS clause was declared for this field.
		case catalog.PermissionFull:
			// pass through unchanged
		case catalog.PermissionWhere:
			ctx := &compile.EvalContext{Row: row, Params: evalCtx.Params, Funcs: evalCtx.Funcs}
			v, err := evalAssertExpr(f.Permissions.Expr, ctx)
			if err != nil {
				return nil, err
			}
			if !types.Truthy(v) {
				row.Delete(f.Name)
			}
		}
	}
	return row, nil
}
