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

// Package ast defines the logical expression/statement tree spec.md §4.4
// describes: "literals, idioms ..., unary/binary operators, function
// calls ..., conditional and block expressions, and
// SELECT/CREATE/UPSERT/UPDATE/DELETE/RELATE/INSERT statements." Node
// types are plain structs implementing marker interfaces (Expr,
// Statement), the same sealed-interface pattern internal/types uses for
// the Value sum type, rather than a single tagged-union struct.
package ast

import "github.com/corvidb/corvid/internal/catalog"

type Expr interface{ expr() }

// --- Literals ---

type NoneLit struct{}
type NullLit struct{}
type BoolLit struct{ Value bool }
type IntLit struct{ Value int64 }
type FloatLit struct{ Value float64 }
type StringLit struct{ Value string }
type DurationLit struct{ Text string }
type DatetimeLit struct{ Text string }
type ParamRef struct{ Name string }

type ArrayLit struct{ Items []Expr }
type ObjectField struct {
	Key   string
	Value Expr
}
type ObjectLit struct{ Fields []ObjectField }

// RecordIDLit is `tb:id`; ID is an expression so it can hold a number,
// string, array, object or range literal per spec.md §6's record-id
// grammar.
type RecordIDLit struct {
	Table string
	ID    Expr
}

// RangeLit is `beg..end` / `beg..=end`; either bound may be nil (open).
type RangeLit struct {
	Start, End       Expr
	InclusiveStart   bool
	InclusiveEnd     bool
}

// --- Idioms ---

// IdiomExpr is a base value followed by a dotted path (spec.md §3
// "Idiom"). Path is kept as raw text and parsed lazily by
// internal/types.ParseIdiom at compile time, matching the types package's
// own decision to stay free of a dependency on the expression layer.
type IdiomExpr struct {
	Base Expr
	Path string
}

type FieldRef struct{ Name string }

// GraphTraversalExpr is a `->edge->table` / `<-edge<-table` walk (spec.md
// §8 scenario (d)). Base is nil when the traversal starts from the
// current row (the usual case, inside a SELECT field list); it is
// non-nil for chained traversals (`->knows->person->knows->person`).
type GraphTraversalExpr struct {
	Base      Expr
	Out       bool // true for ->edge->table, false for <-edge<-table
	Edge      string
	Table     string
}

// KNNExpr is `operand <|k|> target`, the vector K-nearest-neighbour
// operator (spec.md §4.7 HNSW search). It appears only inside a WHERE
// clause; internal/engine pulls it out of the predicate tree and drives
// it against internal/index/hnsw directly rather than compiling it to an
// ordinary boolean expression.
type KNNExpr struct {
	Operand Expr
	K       int
	Target  Expr
}

// --- Operators ---

type UnaryOp uint8

const (
	OpNeg UnaryOp = iota
	OpNot
	OpPlus
)

type UnaryExpr struct {
	Op   UnaryOp
	Expr Expr
}

type BinaryOp uint8

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpAnd
	OpOr
)

type BinaryExpr struct {
	Op          BinaryOp
	Left, Right Expr
}

// --- Calls, conditionals, blocks ---

// FuncCall covers builtin (namespaced like "string::uppercase"), custom
// (fn::name), and plain-name calls alike; internal/compile resolves which
// registry a Name belongs to.
type FuncCall struct {
	Name string
	Args []Expr
}

// ClosureLit is `|a, b| expr`; parameters are untyped names, matching
// spec.md C5's Closure value kind (execution semantics belong to
// internal/compile, not the AST).
type ClosureLit struct {
	Params []string
	Body   Expr
}

type IfExpr struct {
	Cond       Expr
	Then       Expr
	Else       Expr // nil if no ELSE branch
}

// BlockExpr sequences statements before yielding Tail's value (nil Tail
// means the block yields None).
type BlockExpr struct {
	Stmts []Statement
	Tail  Expr
}

// --- Statements ---

type Statement interface{ stmt() }

type OrderSpec struct {
	Path string
	Desc bool
}

// FromItem is one comma-separated entry in a SELECT FROM clause: a bare
// table name (ID nil) or a direct record-id lookup like `person:alice`
// (ID holds the id half).
type FromItem struct {
	Table string
	ID    Expr
}

type SelectStatement struct {
	Fields    []SelectField
	VALUE     bool
	From      []FromItem
	Where     Expr
	GroupAll  bool
	GroupBy   []string
	OrderBy   []OrderSpec
	Limit     Expr
	Start     Expr
	Fetch     []string
	Timeout   string
	Explain   bool
}

type SelectField struct {
	Expr  Expr
	Alias string
}

// DataClause models the SET/CONTENT/MERGE/PATCH/REPLACE/UNSET data
// clauses shared by every write statement (spec.md §6).
type DataKind uint8

const (
	DataNone DataKind = iota
	DataSet
	DataContent
	DataMerge
	DataPatch
	DataReplace
	DataUnset
)

type SetAssign struct {
	Path string
	Value Expr
}

type DataClause struct {
	Kind    DataKind
	Assigns []SetAssign // DataSet
	Value   Expr        // DataContent/DataMerge/DataReplace
	Patch   Expr        // DataPatch (array of patch-op objects)
	Unset   []string    // DataUnset
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

type ReturnClause struct {
	Kind   ReturnKind
	Fields []SelectField
}

type CreateStatement struct {
	Table  string
	ID     Expr // nil if system-generated
	Data   DataClause
	Return ReturnClause
}

type UpsertStatement struct {
	Table  string
	ID     Expr
	Data   DataClause
	Where  Expr
	Return ReturnClause
}

type UpdateStatement struct {
	Table  string
	ID     Expr
	Data   DataClause
	Where  Expr
	Return ReturnClause
}

type DeleteStatement struct {
	Table  string
	ID     Expr
	Where  Expr
	Return ReturnClause
}

type RelateStatement struct {
	From   Expr
	Edge   string
	To     Expr
	Data   DataClause
	Return ReturnClause
}

type InsertStatement struct {
	Table    string
	IsRelation bool
	Rows     []ObjectLit
	Return   ReturnClause
}

// DefineNamespaceStatement etc. wrap a catalog definition directly: the
// parser builds the catalog.*Def value from DDL syntax, and
// internal/catalog's setters persist it unchanged.
type DefineNamespaceStatement struct{ Def catalog.NamespaceDef }
type DefineDatabaseStatement struct{ Def catalog.DatabaseDef }
type DefineTableStatement struct{ Def catalog.TableDef }
type DefineFieldStatement struct {
	Table string
	Def   catalog.FieldDef
}
type DefineIndexStatement struct {
	Table string
	Def   catalog.IndexDef
}
type DefineEventStatement struct {
	Table string
	Def   catalog.EventDef
}
type DefineFunctionStatement struct{ Def catalog.FunctionDef }

// RemoveKind names which catalog entity kind a REMOVE statement targets.
type RemoveKind uint8

const (
	RemoveNamespace RemoveKind = iota
	RemoveDatabase
	RemoveTable
	RemoveField
	RemoveIndex
	RemoveEvent
	RemoveFunction
)

type RemoveStatement struct {
	Kind  RemoveKind
	Table string // only for Field/Index/Event
	Name  string
}

func (NoneLit) expr()     {}
func (NullLit) expr()     {}
func (BoolLit) expr()     {}
func (IntLit) expr()      {}
func (FloatLit) expr()    {}
func (StringLit) expr()   {}
func (DurationLit) expr() {}
func (DatetimeLit) expr() {}
func (ParamRef) expr()    {}
func (ArrayLit) expr()    {}
func (ObjectLit) expr()   {}
func (RecordIDLit) expr() {}
func (RangeLit) expr()    {}
func (IdiomExpr) expr()   {}
func (FieldRef) expr()    {}
func (GraphTraversalExpr) expr() {}
func (KNNExpr) expr()     {}
func (UnaryExpr) expr()   {}
func (BinaryExpr) expr()  {}
func (FuncCall) expr()    {}
func (ClosureLit) expr()  {}
func (IfExpr) expr()      {}
func (BlockExpr) expr()   {}

func (SelectStatement) stmt()          {}
func (CreateStatement) stmt()          {}
func (UpsertStatement) stmt()          {}
func (UpdateStatement) stmt()          {}
func (DeleteStatement) stmt()          {}
func (RelateStatement) stmt()          {}
func (InsertStatement) stmt()          {}
func (DefineNamespaceStatement) stmt() {}
func (DefineDatabaseStatement) stmt()  {}
func (DefineTableStatement) stmt()     {}
func (DefineFieldStatement) stmt()     {}
func (DefineIndexStatement) stmt()     {}
func (DefineEventStatement) stmt()     {}
func (DefineFunctionStatement) stmt()  {}
func (RemoveStatement) stmt()          {}
