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

package catalog

import (
	"time"

	"github.com/corvidb/corvid/internal/types"
)

// PermissionKind is one of the three permission forms spec.md §6 lists:
// "PERMISSIONS NONE|FULL|FOR SELECT|CREATE|UPDATE|DELETE NONE|FULL|WHERE
// <expr>". The WHERE expr is kept as raw SurrealQL text here; internal/compile
// is what turns it into a physical predicate, keeping catalog free of a
// dependency on the expression compiler (mirroring types/idiom.go's
// decision to leave predicates as closures rather than import compile).
type PermissionKind uint8

const (
	PermissionNone PermissionKind = iota
	PermissionFull
	PermissionWhere
)

type Permission struct {
	Kind PermissionKind
	Expr string `json:",omitempty"`
}

// TablePermissions is the per-statement-kind permission set a table
// definition carries (spec.md §4.6 step 5, §6).
type TablePermissions struct {
	Select Permission
	Create Permission
	Update Permission
	Delete Permission
}

type NamespaceDef struct {
	Name string
}

type DatabaseDef struct {
	Name string
}

// TableKind distinguishes ANY/NORMAL/RELATION tables (spec.md §4.6 step 1:
// "CREATE/UPSERT/UPDATE require ANY|NORMAL; RELATE requires ANY|RELATION").
type TableKind uint8

const (
	TableAny TableKind = iota
	TableNormal
	TableRelation
)

type TableDef struct {
	Name        string
	Kind        TableKind
	Schemafull  bool
	Permissions TablePermissions
}

// FieldDef implements spec.md §4.6 step 4's per-field rules: default/value
// expression, assertion, kind coercion, and an output permission.
type FieldDef struct {
	Name        string
	Kind        types.Kind
	Default     string `json:",omitempty"`
	Value       string `json:",omitempty"`
	Assert      string `json:",omitempty"`
	Readonly    bool
	Permissions Permission
}

// IndexKind selects which of the five secondary index structures (spec.md
// C9 / §4.7) an IndexDef describes.
type IndexKind uint8

const (
	IndexUnique IndexKind = iota
	IndexNonUnique
	IndexCount
	IndexFullText
	IndexHNSW
)

// HNSWParams are fixed at creation time per spec.md §4.7 "HNSW vector
// index. Parameters (M, M0, efConstruction, efSearch) are fixed at
// creation."
type HNSWParams struct {
	Dimension      int
	M              int
	M0             int
	EfConstruction int
	EfSearch       int
	Distance       string
}

type IndexDef struct {
	Name   string
	Kind   IndexKind
	Fields []string
	HNSW   HNSWParams `json:",omitempty"`
}

type EventDef struct {
	Name string
	When string
	Then []string
}

type FunctionArg struct {
	Name string
	Kind types.Kind
}

type FunctionDef struct {
	Name        string
	Args        []FunctionArg
	Body        string
	Permissions Permission
}

type ParamDef struct {
	Name  string
	Value string
}

type AnalyzerDef struct {
	Name       string
	Tokenizers []string
	Filters    []string
}

// UserRole mirrors the coarse OWNER/EDITOR/VIEWER role triad used
// throughout SurrealQL's user grammar; fine-grained role administration
// is an explicit non-goal (spec.md §1), so only the role tag is modeled.
type UserRole uint8

const (
	RoleViewer UserRole = iota
	RoleEditor
	RoleOwner
)

type UserDef struct {
	Name         string
	PasswordHash string
	Roles        []UserRole
}

type AccessDef struct {
	Name             string
	AuthenticateExpr string `json:",omitempty"`
	TokenDuration    time.Duration
	SessionDuration  time.Duration
}

type AccessGrantDef struct {
	ID         string
	AccessName string
	Subject    string
	IssuedAt   time.Time
	ExpiresAt  *time.Time `json:",omitempty"`
	Revoked    bool
}
