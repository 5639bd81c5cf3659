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

package parser

import (
	"testing"

	"github.com/corvidb/corvid/internal/catalog"
	"github.com/corvidb/corvid/internal/lang/ast"
	"github.com/stretchr/testify/require"
)

func TestParseSelectBasic(t *testing.T) {
	p := New("SELECT name, age FROM person WHERE age > 18 LIMIT 10")
	stmt, err := p.ParseStatement()
	require.NoError(t, err)
	sel, ok := stmt.(ast.SelectStatement)
	require.True(t, ok)
	require.Equal(t, []ast.FromItem{{Table: "person"}}, sel.From)
	require.Len(t, sel.Fields, 2)
	require.NotNil(t, sel.Where)
	require.NotNil(t, sel.Limit)
}

func TestParseSelectGroupOrderFetch(t *testing.T) {
	p := New("SELECT * FROM person GROUP ALL ORDER BY age DESC FETCH friends")
	stmt, err := p.ParseStatement()
	require.NoError(t, err)
	sel := stmt.(ast.SelectStatement)
	require.True(t, sel.GroupAll)
	require.Len(t, sel.OrderBy, 1)
	require.True(t, sel.OrderBy[0].Desc)
	require.Equal(t, []string{"friends"}, sel.Fetch)
}

func TestParseCreateWithContentAndReturn(t *testing.T) {
	p := New(`CREATE person:tobie CONTENT {name: "Tobie", age: 20} RETURN AFTER`)
	stmt, err := p.ParseStatement()
	require.NoError(t, err)
	create := stmt.(ast.CreateStatement)
	require.Equal(t, "person", create.Table)
	require.NotNil(t, create.ID)
	require.Equal(t, ast.DataContent, create.Data.Kind)
	require.Equal(t, ast.ReturnAfter, create.Return.Kind)
}

func TestParseUpdateSet(t *testing.T) {
	p := New("UPDATE person SET age = 21 WHERE name = \"Tobie\"")
	stmt, err := p.ParseStatement()
	require.NoError(t, err)
	upd := stmt.(ast.UpdateStatement)
	require.Equal(t, ast.DataSet, upd.Data.Kind)
	require.Len(t, upd.Data.Assigns, 1)
	require.Equal(t, "age", upd.Data.Assigns[0].Path)
	require.NotNil(t, upd.Where)
}

func TestParseDeleteReturnNone(t *testing.T) {
	p := New("DELETE person:tobie RETURN NONE")
	stmt, err := p.ParseStatement()
	require.NoError(t, err)
	del := stmt.(ast.DeleteStatement)
	require.Equal(t, "person", del.Table)
	require.Equal(t, ast.ReturnNone, del.Return.Kind)
}

func TestParseRelate(t *testing.T) {
	p := New("RELATE person:tobie->wrote->article:first CONTENT {rating: 5}")
	stmt, err := p.ParseStatement()
	require.NoError(t, err)
	rel := stmt.(ast.RelateStatement)
	require.Equal(t, "wrote", rel.Edge)
	require.Equal(t, ast.DataContent, rel.Data.Kind)
}

func TestParseInsert(t *testing.T) {
	p := New(`INSERT INTO person {name: "Tobie"}`)
	stmt, err := p.ParseStatement()
	require.NoError(t, err)
	ins := stmt.(ast.InsertStatement)
	require.Equal(t, "person", ins.Table)
	require.Len(t, ins.Rows, 1)
}

func TestParseDefineTable(t *testing.T) {
	p := New("DEFINE TABLE person SCHEMAFULL TYPE NORMAL")
	stmt, err := p.ParseStatement()
	require.NoError(t, err)
	def := stmt.(ast.DefineTableStatement)
	require.Equal(t, "person", def.Def.Name)
	require.True(t, def.Def.Schemafull)
	require.Equal(t, catalog.TableNormal, def.Def.Kind)
}

func TestParseDefineFieldWithAssert(t *testing.T) {
	p := New("DEFINE FIELD age ON person TYPE number ASSERT $value >= 0")
	stmt, err := p.ParseStatement()
	require.NoError(t, err)
	def := stmt.(ast.DefineFieldStatement)
	require.Equal(t, "person", def.Table)
	require.Equal(t, "age", def.Def.Name)
	require.NotEmpty(t, def.Def.Assert)
}

func TestParseDefineIndexUnique(t *testing.T) {
	p := New("DEFINE INDEX idx_email ON person FIELDS email UNIQUE")
	stmt, err := p.ParseStatement()
	require.NoError(t, err)
	def := stmt.(ast.DefineIndexStatement)
	require.Equal(t, catalog.IndexUnique, def.Def.Kind)
	require.Equal(t, []string{"email"}, def.Def.Fields)
}

func TestParseRemoveTable(t *testing.T) {
	p := New("REMOVE TABLE person")
	stmt, err := p.ParseStatement()
	require.NoError(t, err)
	rm := stmt.(ast.RemoveStatement)
	require.Equal(t, ast.RemoveTable, rm.Kind)
	require.Equal(t, "person", rm.Name)
}

func TestParseAllMultiStatement(t *testing.T) {
	p := New("DEFINE NAMESPACE test; DEFINE DATABASE test;")
	stmts, err := p.ParseAll()
	require.NoError(t, err)
	require.Len(t, stmts, 2)
}

func TestParseIfExpr(t *testing.T) {
	p := New("SELECT * FROM person WHERE (IF age > 18 THEN true ELSE false END)")
	stmt, err := p.ParseStatement()
	require.NoError(t, err)
	sel := stmt.(ast.SelectStatement)
	require.NotNil(t, sel.Where)
}

func TestParseFunctionCall(t *testing.T) {
	p := New("SELECT count(age) FROM person")
	stmt, err := p.ParseStatement()
	require.NoError(t, err)
	sel := stmt.(ast.SelectStatement)
	call, ok := sel.Fields[0].Expr.(ast.FuncCall)
	require.True(t, ok)
	require.Equal(t, "count", call.Name)
}

func TestParseSelectFromRecordID(t *testing.T) {
	p := New("SELECT * FROM person:alice")
	stmt, err := p.ParseStatement()
	require.NoError(t, err)
	sel := stmt.(ast.SelectStatement)
	require.Len(t, sel.From, 1)
	require.Equal(t, "person", sel.From[0].Table)
	id, ok := sel.From[0].ID.(ast.StringLit)
	require.True(t, ok)
	require.Equal(t, "alice", id.Value)
}

func TestParseGraphTraversalField(t *testing.T) {
	p := New("SELECT ->knows->person AS friends FROM person:alice")
	stmt, err := p.ParseStatement()
	require.NoError(t, err)
	sel := stmt.(ast.SelectStatement)
	trav, ok := sel.Fields[0].Expr.(ast.GraphTraversalExpr)
	require.True(t, ok)
	require.True(t, trav.Out)
	require.Equal(t, "knows", trav.Edge)
	require.Equal(t, "person", trav.Table)
	require.Equal(t, "friends", sel.Fields[0].Alias)
}

func TestParseKNNPredicate(t *testing.T) {
	p := New("SELECT id FROM item WHERE vector <|5|> [0.0, 0.0]")
	stmt, err := p.ParseStatement()
	require.NoError(t, err)
	sel := stmt.(ast.SelectStatement)
	knn, ok := sel.Where.(ast.KNNExpr)
	require.True(t, ok)
	require.Equal(t, 5, knn.K)
}

func TestParseDefineIndexHNSW(t *testing.T) {
	p := New("DEFINE INDEX idx_vec ON item FIELDS vector HNSW DIMENSION 4 DIST euclidean M 12 M0 24 EFC 150 EF 60")
	stmt, err := p.ParseStatement()
	require.NoError(t, err)
	def := stmt.(ast.DefineIndexStatement)
	require.Equal(t, catalog.IndexHNSW, def.Def.Kind)
	require.Equal(t, 4, def.Def.HNSW.Dimension)
	require.Equal(t, "euclidean", def.Def.HNSW.Distance)
	require.Equal(t, 12, def.Def.HNSW.M)
}

func TestParseDefineIndexCountAndSearch(t *testing.T) {
	p := New("DEFINE INDEX idx_c ON person FIELDS status COUNT")
	stmt, err := p.ParseStatement()
	require.NoError(t, err)
	def := stmt.(ast.DefineIndexStatement)
	require.Equal(t, catalog.IndexCount, def.Def.Kind)

	p2 := New("DEFINE INDEX idx_ft ON person FIELDS bio SEARCH")
	stmt2, err := p2.ParseStatement()
	require.NoError(t, err)
	def2 := stmt2.(ast.DefineIndexStatement)
	require.Equal(t, catalog.IndexFullText, def2.Def.Kind)
}
