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

// Package parser is a hand-written recursive-descent parser turning a
// lexer.Lexer token stream into ast nodes, grounded on
// original_source/core/src/syn/parser's statement-dispatch-by-leading-
// keyword structure (peek the first token, branch into the matching
// statement parser) rather than a table-driven or generated parser.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/corvidb/corvid/internal/catalog"
	"github.com/corvidb/corvid/internal/lang/ast"
	"github.com/corvidb/corvid/internal/lang/lexer"
	"github.com/corvidb/corvid/internal/types"
)

type Parser struct {
	l    *lexer.Lexer
	src  []rune
	tok  lexer.Token
	peek lexer.Token
}

func New(src string) *Parser {
	p := &Parser{l: lexer.New(src), src: []rune(src)}
	p.tok = p.l.Next()
	p.peek = p.l.Next()
	return p
}

func (p *Parser) advance() {
	p.tok = p.peek
	p.peek = p.l.Next()
}

func (p *Parser) at(k lexer.Kind) bool { return p.tok.Kind == k }

// atDoubleColon reports whether the cursor is on "::" (the lexer has no
// dedicated DoubleColon kind, so this is two adjacent Colon tokens with
// no space between them) used by namespaced builtin/custom function
// names like string::uppercase and fn::myFunc (spec.md §6).
func (p *Parser) atDoubleColon() bool {
	return p.tok.Kind == lexer.Colon && p.peek.Kind == lexer.Colon && p.peek.Pos == p.tok.Pos+1
}

func (p *Parser) atKeyword(kw string) bool {
	return p.tok.Kind == lexer.Keyword && strings.EqualFold(p.tok.Text, kw)
}

func (p *Parser) expect(k lexer.Kind) (lexer.Token, error) {
	if p.tok.Kind != k {
		return lexer.Token{}, fmt.Errorf("parser: expected token %d, got %d (%q) at pos %d", k, p.tok.Kind, p.tok.Text, p.tok.Pos)
	}
	t := p.tok
	p.advance()
	return t, nil
}

// identLike consumes a bare word token where either an Ident or a
// Keyword is acceptable — DEFINE FIELD/TABLE's TYPE clause names (e.g.
// "normal", "any", "set") collide with reserved words the lexer already
// recognizes as Keyword tokens (lexer.go's keywords table), so a plain
// Ident-only expectation would reject valid DDL.
func (p *Parser) identLike() (string, error) {
	if p.tok.Kind != lexer.Ident && p.tok.Kind != lexer.Keyword {
		return "", fmt.Errorf("parser: expected identifier, got %q at pos %d", p.tok.Text, p.tok.Pos)
	}
	text := p.tok.Text
	p.advance()
	return text, nil
}

// atWord reports whether the cursor sits on a plain identifier spelled
// word, case-insensitively. DEFINE INDEX's COUNT/SEARCH/HNSW/DIMENSION/
// DIST/M/M0/EFC/EF clause names are ordinary words, not reserved
// keywords (lexer.go's keywords table deliberately doesn't carry them,
// so they stay usable as field/table names elsewhere) — this is the
// Ident-token counterpart of atKeyword, mirroring identLike's
// soft-keyword approach.
func (p *Parser) atWord(word string) bool {
	return p.tok.Kind == lexer.Ident && strings.EqualFold(p.tok.Text, word)
}

func (p *Parser) expectKeyword(kw string) error {
	if !p.atKeyword(kw) {
		return fmt.Errorf("parser: expected keyword %q, got %q at pos %d", kw, p.tok.Text, p.tok.Pos)
	}
	p.advance()
	return nil
}

// ParseStatement dispatches on the leading keyword, matching
// original_source/core/src/syn/parser/stmt/mod.rs's approach.
func (p *Parser) ParseStatement() (ast.Statement, error) {
	switch {
	case p.atKeyword("select"):
		return p.parseSelect()
	case p.atKeyword("create"):
		return p.parseCreate()
	case p.atKeyword("upsert"):
		return p.parseUpsert()
	case p.atKeyword("update"):
		return p.parseUpdate()
	case p.atKeyword("delete"):
		return p.parseDelete()
	case p.atKeyword("relate"):
		return p.parseRelate()
	case p.atKeyword("insert"):
		return p.parseInsert()
	case p.atKeyword("define"):
		return p.parseDefine()
	case p.atKeyword("remove"):
		return p.parseRemove()
	default:
		return nil, fmt.Errorf("parser: unexpected token %q at pos %d", p.tok.Text, p.tok.Pos)
	}
}

// ParseAll parses semicolon-separated statements until EOF, matching the
// multi-statement transaction form spec.md §5 describes.
func (p *Parser) ParseAll() ([]ast.Statement, error) {
	var out []ast.Statement
	for !p.at(lexer.EOF) {
		stmt, err := p.ParseStatement()
		if err != nil {
			return nil, err
		}
		out = append(out, stmt)
		for p.at(lexer.Semicolon) {
			p.advance()
		}
	}
	return out, nil
}

// --- SELECT ---

func (p *Parser) parseSelect() (ast.Statement, error) {
	p.advance() // SELECT
	stmt := ast.SelectStatement{}

	if p.atKeyword("value") {
		p.advance()
		stmt.VALUE = true
	}

	for {
		f, err := p.parseSelectField()
		if err != nil {
			return nil, err
		}
		stmt.Fields = append(stmt.Fields, f)
		if p.at(lexer.Comma) {
			p.advance()
			continue
		}
		break
	}

	if err := p.expectKeyword("from"); err != nil {
		return nil, err
	}
	for {
		table, idExpr, err := p.parseTableOrID()
		if err != nil {
			return nil, err
		}
		stmt.From = append(stmt.From, ast.FromItem{Table: table, ID: idExpr})
		if p.at(lexer.Comma) {
			p.advance()
			continue
		}
		break
	}

	if p.atKeyword("where") {
		p.advance()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		stmt.Where = expr
	}

	if p.atKeyword("group") {
		p.advance()
		if p.atKeyword("all") {
			p.advance()
			stmt.GroupAll = true
		} else {
			if p.atKeyword("by") {
				p.advance()
			}
			for {
				id, err := p.expect(lexer.Ident)
				if err != nil {
					return nil, err
				}
				stmt.GroupBy = append(stmt.GroupBy, id.Text)
				if p.at(lexer.Comma) {
					p.advance()
					continue
				}
				break
			}
		}
	}

	if p.atKeyword("order") {
		p.advance()
		if p.atKeyword("by") {
			p.advance()
		}
		for {
			id, err := p.expect(lexer.Ident)
			if err != nil {
				return nil, err
			}
			order := ast.OrderSpec{Path: id.Text}
			if p.atKeyword("desc") {
				p.advance()
				order.Desc = true
			} else if p.atKeyword("asc") {
				p.advance()
			}
			stmt.OrderBy = append(stmt.OrderBy, order)
			if p.at(lexer.Comma) {
				p.advance()
				continue
			}
			break
		}
	}

	if p.atKeyword("limit") {
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		stmt.Limit = e
	}
	if p.atKeyword("start") {
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		stmt.Start = e
	}
	if p.atKeyword("fetch") {
		p.advance()
		for {
			id, err := p.expect(lexer.Ident)
			if err != nil {
				return nil, err
			}
			stmt.Fetch = append(stmt.Fetch, id.Text)
			if p.at(lexer.Comma) {
				p.advance()
				continue
			}
			break
		}
	}
	if p.atKeyword("timeout") {
		p.advance()
		dur, err := p.expect(lexer.Duration)
		if err != nil {
			return nil, err
		}
		stmt.Timeout = dur.Text
	}
	if p.atKeyword("explain") {
		p.advance()
		stmt.Explain = true
	}

	return stmt, nil
}

func (p *Parser) parseSelectField() (ast.SelectField, error) {
	if p.at(lexer.Star) {
		p.advance()
		return ast.SelectField{Expr: ast.FieldRef{Name: "*"}}, nil
	}
	e, err := p.parseExpr()
	if err != nil {
		return ast.SelectField{}, err
	}
	f := ast.SelectField{Expr: e}
	if p.atKeyword("as") {
		p.advance()
		id, err := p.expect(lexer.Ident)
		if err != nil {
			return ast.SelectField{}, err
		}
		f.Alias = id.Text
	}
	return f, nil
}

// --- CREATE/UPSERT/UPDATE/DELETE/RELATE/INSERT ---

func (p *Parser) parseTableOrID() (string, ast.Expr, error) {
	id, err := p.expect(lexer.Ident)
	if err != nil {
		return "", nil, err
	}
	if p.at(lexer.Colon) {
		p.advance()
		idExpr, err := p.parseRecordIDPart()
		if err != nil {
			return "", nil, err
		}
		return id.Text, idExpr, nil
	}
	return id.Text, nil, nil
}

// parseRecordIDPart parses the id half of a tb:id record-id literal
// (spec.md §6's record-id grammar). A bare identifier there names a
// literal id ("person:alice" is the id string "alice", not a field
// reference evaluated against some row) — so it is read as a StringLit
// rather than falling through to the general expression grammar, which
// would produce an unresolvable FieldRef outside of row context.
// Anything else (a number, array, object, range, or parenthesized
// expression) parses as an ordinary unary expression, keeping
// "person:1", "person:[1,2]" and "person:(1+1)" working.
func (p *Parser) parseRecordIDPart() (ast.Expr, error) {
	if p.tok.Kind == lexer.Ident && p.peek.Kind != lexer.LParen {
		tok := p.tok
		p.advance()
		return ast.StringLit{Value: tok.Text}, nil
	}
	return p.parseUnary()
}

func (p *Parser) parseDataClause() (ast.DataClause, error) {
	switch {
	case p.atKeyword("set"):
		p.advance()
		var assigns []ast.SetAssign
		for {
			id, err := p.expect(lexer.Ident)
			if err != nil {
				return ast.DataClause{}, err
			}
			path := id.Text
			for p.at(lexer.Dot) {
				p.advance()
				next, err := p.expect(lexer.Ident)
				if err != nil {
					return ast.DataClause{}, err
				}
				path += "." + next.Text
			}
			if _, err := p.expect(lexer.Eq); err != nil {
				return ast.DataClause{}, err
			}
			val, err := p.parseExpr()
			if err != nil {
				return ast.DataClause{}, err
			}
			assigns = append(assigns, ast.SetAssign{Path: path, Value: val})
			if p.at(lexer.Comma) {
				p.advance()
				continue
			}
			break
		}
		return ast.DataClause{Kind: ast.DataSet, Assigns: assigns}, nil
	case p.atKeyword("content"):
		p.advance()
		v, err := p.parseExpr()
		if err != nil {
			return ast.DataClause{}, err
		}
		return ast.DataClause{Kind: ast.DataContent, Value: v}, nil
	case p.atKeyword("merge"):
		p.advance()
		v, err := p.parseExpr()
		if err != nil {
			return ast.DataClause{}, err
		}
		return ast.DataClause{Kind: ast.DataMerge, Value: v}, nil
	case p.atKeyword("patch"):
		p.advance()
		v, err := p.parseExpr()
		if err != nil {
			return ast.DataClause{}, err
		}
		return ast.DataClause{Kind: ast.DataPatch, Patch: v}, nil
	case p.atKeyword("replace"):
		p.advance()
		v, err := p.parseExpr()
		if err != nil {
			return ast.DataClause{}, err
		}
		return ast.DataClause{Kind: ast.DataReplace, Value: v}, nil
	case p.atKeyword("unset"):
		p.advance()
		var names []string
		for {
			id, err := p.expect(lexer.Ident)
			if err != nil {
				return ast.DataClause{}, err
			}
			names = append(names, id.Text)
			if p.at(lexer.Comma) {
				p.advance()
				continue
			}
			break
		}
		return ast.DataClause{Kind: ast.DataUnset, Unset: names}, nil
	default:
		return ast.DataClause{Kind: ast.DataNone}, nil
	}
}

func (p *Parser) parseReturnClause() (ast.ReturnClause, error) {
	if !p.atKeyword("return") {
		return ast.ReturnClause{Kind: ast.ReturnNone}, nil
	}
	p.advance()
	switch {
	case p.atKeyword("none"):
		p.advance()
		return ast.ReturnClause{Kind: ast.ReturnNone}, nil
	case p.atKeyword("null"):
		p.advance()
		return ast.ReturnClause{Kind: ast.ReturnNull}, nil
	case p.atKeyword("diff"):
		p.advance()
		return ast.ReturnClause{Kind: ast.ReturnDiff}, nil
	case p.atKeyword("before"):
		p.advance()
		return ast.ReturnClause{Kind: ast.ReturnBefore}, nil
	case p.atKeyword("after"):
		p.advance()
		return ast.ReturnClause{Kind: ast.ReturnAfter}, nil
	default:
		var fields []ast.SelectField
		for {
			f, err := p.parseSelectField()
			if err != nil {
				return ast.ReturnClause{}, err
			}
			fields = append(fields, f)
			if p.at(lexer.Comma) {
				p.advance()
				continue
			}
			break
		}
		return ast.ReturnClause{Kind: ast.ReturnFields, Fields: fields}, nil
	}
}

func (p *Parser) parseCreate() (ast.Statement, error) {
	p.advance()
	table, id, err := p.parseTableOrID()
	if err != nil {
		return nil, err
	}
	data, err := p.parseDataClause()
	if err != nil {
		return nil, err
	}
	ret, err := p.parseReturnClause()
	if err != nil {
		return nil, err
	}
	return ast.CreateStatement{Table: table, ID: id, Data: data, Return: ret}, nil
}

func (p *Parser) parseUpsert() (ast.Statement, error) {
	p.advance()
	table, id, err := p.parseTableOrID()
	if err != nil {
		return nil, err
	}
	data, err := p.parseDataClause()
	if err != nil {
		return nil, err
	}
	var where ast.Expr
	if p.atKeyword("where") {
		p.advance()
		where, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	ret, err := p.parseReturnClause()
	if err != nil {
		return nil, err
	}
	return ast.UpsertStatement{Table: table, ID: id, Data: data, Where: where, Return: ret}, nil
}

func (p *Parser) parseUpdate() (ast.Statement, error) {
	p.advance()
	table, id, err := p.parseTableOrID()
	if err != nil {
		return nil, err
	}
	data, err := p.parseDataClause()
	if err != nil {
		return nil, err
	}
	var where ast.Expr
	if p.atKeyword("where") {
		p.advance()
		where, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	ret, err := p.parseReturnClause()
	if err != nil {
		return nil, err
	}
	return ast.UpdateStatement{Table: table, ID: id, Data: data, Where: where, Return: ret}, nil
}

func (p *Parser) parseDelete() (ast.Statement, error) {
	p.advance()
	table, id, err := p.parseTableOrID()
	if err != nil {
		return nil, err
	}
	var where ast.Expr
	if p.atKeyword("where") {
		p.advance()
		where, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	ret, err := p.parseReturnClause()
	if err != nil {
		return nil, err
	}
	return ast.DeleteStatement{Table: table, ID: id, Where: where, Return: ret}, nil
}

func (p *Parser) parseRelate() (ast.Statement, error) {
	p.advance()
	from, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	var edge string
	switch {
	case p.at(lexer.ArrowOut):
		p.advance()
		id, err := p.expect(lexer.Ident)
		if err != nil {
			return nil, err
		}
		edge = id.Text
		if _, err := p.expect(lexer.ArrowOut); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("parser: expected -> edge -> in RELATE at pos %d", p.tok.Pos)
	}
	to, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	data, err := p.parseDataClause()
	if err != nil {
		return nil, err
	}
	ret, err := p.parseReturnClause()
	if err != nil {
		return nil, err
	}
	return ast.RelateStatement{From: from, Edge: edge, To: to, Data: data, Return: ret}, nil
}

func (p *Parser) parseInsert() (ast.Statement, error) {
	p.advance()
	isRelation := false
	if p.atKeyword("relation") {
		p.advance()
		isRelation = true
	}
	if p.atKeyword("into") {
		p.advance()
	}
	table, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}
	var rows []ast.ObjectLit
	if p.at(lexer.LBracket) {
		p.advance()
		for !p.at(lexer.RBracket) {
			obj, err := p.parseObject()
			if err != nil {
				return nil, err
			}
			rows = append(rows, obj)
			if p.at(lexer.Comma) {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(lexer.RBracket); err != nil {
			return nil, err
		}
	} else {
		obj, err := p.parseObject()
		if err != nil {
			return nil, err
		}
		rows = append(rows, obj)
	}
	ret, err := p.parseReturnClause()
	if err != nil {
		return nil, err
	}
	return ast.InsertStatement{Table: table.Text, IsRelation: isRelation, Rows: rows, Return: ret}, nil
}

// --- DEFINE/REMOVE ---

func (p *Parser) parseDefine() (ast.Statement, error) {
	p.advance()
	switch {
	case p.atKeyword("namespace"):
		p.advance()
		id, err := p.expect(lexer.Ident)
		if err != nil {
			return nil, err
		}
		return ast.DefineNamespaceStatement{Def: catalog.NamespaceDef{Name: id.Text}}, nil
	case p.atKeyword("database"):
		p.advance()
		id, err := p.expect(lexer.Ident)
		if err != nil {
			return nil, err
		}
		return ast.DefineDatabaseStatement{Def: catalog.DatabaseDef{Name: id.Text}}, nil
	case p.atKeyword("table"):
		p.advance()
		id, err := p.expect(lexer.Ident)
		if err != nil {
			return nil, err
		}
		def := catalog.TableDef{Name: id.Text, Kind: catalog.TableAny}
		for {
			switch {
			case p.atKeyword("schemafull"):
				p.advance()
				def.Schemafull = true
			case p.atKeyword("schemaless"):
				p.advance()
				def.Schemafull = false
			case p.atKeyword("type"):
				p.advance()
				kind, err := p.identLike()
				if err != nil {
					return nil, err
				}
				switch strings.ToLower(kind) {
				case "normal":
					def.Kind = catalog.TableNormal
				case "relation":
					def.Kind = catalog.TableRelation
				default:
					def.Kind = catalog.TableAny
				}
			default:
				return ast.DefineTableStatement{Def: def}, nil
			}
		}
	case p.atKeyword("field"):
		p.advance()
		id, err := p.expect(lexer.Ident)
		if err != nil {
			return nil, err
		}
		name := id.Text
		for p.at(lexer.Dot) {
			p.advance()
			next, err := p.expect(lexer.Ident)
			if err != nil {
				return nil, err
			}
			name += "." + next.Text
		}
		if err := p.expectKeyword("on"); err != nil {
			return nil, err
		}
		table, err := p.expect(lexer.Ident)
		if err != nil {
			return nil, err
		}
		def := catalog.FieldDef{Name: name}
		for {
			switch {
			case p.atKeyword("type"):
				p.advance()
				kindTok, err := p.identLike()
				if err != nil {
					return nil, err
				}
				def.Kind = ParseKind(kindTok)
			case p.atKeyword("default"):
				p.advance()
				def.Default = p.rawExprText()
			case p.atKeyword("value"):
				p.advance()
				def.Value = p.rawExprText()
			case p.atKeyword("assert"):
				p.advance()
				def.Assert = p.rawExprText()
			case p.atKeyword("readonly"):
				p.advance()
				def.Readonly = true
			default:
				return ast.DefineFieldStatement{Table: table.Text, Def: def}, nil
			}
		}
	case p.atKeyword("index"):
		p.advance()
		id, err := p.expect(lexer.Ident)
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("on"); err != nil {
			return nil, err
		}
		table, err := p.expect(lexer.Ident)
		if err != nil {
			return nil, err
		}
		def := catalog.IndexDef{Name: id.Text}
		if err := p.expectKeyword("fields"); err != nil {
			return nil, err
		}
		for {
			f, err := p.expect(lexer.Ident)
			if err != nil {
				return nil, err
			}
			def.Fields = append(def.Fields, f.Text)
			if p.at(lexer.Comma) {
				p.advance()
				continue
			}
			break
		}
		switch {
		case p.atKeyword("unique"):
			p.advance()
			def.Kind = catalog.IndexUnique
		case p.atWord("count"):
			p.advance()
			def.Kind = catalog.IndexCount
		case p.atWord("search"):
			p.advance()
			def.Kind = catalog.IndexFullText
		case p.atWord("hnsw"):
			p.advance()
			def.Kind = catalog.IndexHNSW
			params, err := p.parseHNSWParams()
			if err != nil {
				return nil, err
			}
			def.HNSW = params
		default:
			def.Kind = catalog.IndexNonUnique
		}
		return ast.DefineIndexStatement{Table: table.Text, Def: def}, nil
	case p.atKeyword("event"):
		p.advance()
		id, err := p.expect(lexer.Ident)
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("on"); err != nil {
			return nil, err
		}
		table, err := p.expect(lexer.Ident)
		if err != nil {
			return nil, err
		}
		def := catalog.EventDef{Name: id.Text}
		if p.atKeyword("when") {
			p.advance()
			def.When = p.rawExprText()
		}
		if err := p.expectKeyword("then"); err != nil {
			return nil, err
		}
		def.Then = append(def.Then, p.rawExprText())
		return ast.DefineEventStatement{Table: table.Text, Def: def}, nil
	case p.atKeyword("function"):
		p.advance()
		id, err := p.expect(lexer.Ident)
		if err != nil {
			return nil, err
		}
		name := id.Text
		for p.atDoubleColon() {
			p.advance()
			p.advance()
			next, err := p.expect(lexer.Ident)
			if err != nil {
				return nil, err
			}
			name += "::" + next.Text
		}
		def := catalog.FunctionDef{Name: name}
		if _, err := p.expect(lexer.LParen); err != nil {
			return nil, err
		}
		for !p.at(lexer.RParen) {
			pname, err := p.expect(lexer.Param)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.Colon); err != nil {
				return nil, err
			}
			ktok, err := p.identLike()
			if err != nil {
				return nil, err
			}
			def.Args = append(def.Args, catalog.FunctionArg{Name: pname.Text, Kind: ParseKind(ktok)})
			if p.at(lexer.Comma) {
				p.advance()
				continue
			}
		}
		if _, err := p.expect(lexer.RParen); err != nil {
			return nil, err
		}
		def.Body = p.rawExprText()
		return ast.DefineFunctionStatement{Def: def}, nil
	default:
		return nil, fmt.Errorf("parser: unsupported DEFINE target %q at pos %d", p.tok.Text, p.tok.Pos)
	}
}

// parseHNSWParams parses DEFINE INDEX ... HNSW's DIMENSION/DIST/M/M0/EFC/
// EF clauses (spec.md §4.7 "Parameters (M, M0, efConstruction, efSearch)
// are fixed at creation"). Every clause is optional and may appear in any
// order; an omitted clause keeps the default set here (M 12, M0 24,
// EFC 150, EF 60, DIST euclidean, DIMENSION 0).
func (p *Parser) parseHNSWParams() (catalog.HNSWParams, error) {
	params := catalog.HNSWParams{M: 12, M0: 24, EfConstruction: 150, EfSearch: 60, Distance: "euclidean"}
	for {
		switch {
		case p.atWord("dimension"):
			p.advance()
			n, err := p.expect(lexer.Number)
			if err != nil {
				return params, err
			}
			v, err := strconv.Atoi(n.Text)
			if err != nil {
				return params, err
			}
			params.Dimension = v
		case p.atWord("dist"):
			p.advance()
			name, err := p.identLike()
			if err != nil {
				return params, err
			}
			params.Distance = strings.ToLower(name)
		case p.atWord("m0"):
			p.advance()
			n, err := p.expect(lexer.Number)
			if err != nil {
				return params, err
			}
			v, err := strconv.Atoi(n.Text)
			if err != nil {
				return params, err
			}
			params.M0 = v
		case p.atWord("m"):
			p.advance()
			n, err := p.expect(lexer.Number)
			if err != nil {
				return params, err
			}
			v, err := strconv.Atoi(n.Text)
			if err != nil {
				return params, err
			}
			params.M = v
		case p.atWord("efc"):
			p.advance()
			n, err := p.expect(lexer.Number)
			if err != nil {
				return params, err
			}
			v, err := strconv.Atoi(n.Text)
			if err != nil {
				return params, err
			}
			params.EfConstruction = v
		case p.atWord("ef"):
			p.advance()
			n, err := p.expect(lexer.Number)
			if err != nil {
				return params, err
			}
			v, err := strconv.Atoi(n.Text)
			if err != nil {
				return params, err
			}
			params.EfSearch = v
		default:
			return params, nil
		}
	}
}

func (p *Parser) parseRemove() (ast.Statement, error) {
	p.advance()
	switch {
	case p.atKeyword("namespace"):
		p.advance()
		id, err := p.expect(lexer.Ident)
		if err != nil {
			return nil, err
		}
		return ast.RemoveStatement{Kind: ast.RemoveNamespace, Name: id.Text}, nil
	case p.atKeyword("database"):
		p.advance()
		id, err := p.expect(lexer.Ident)
		if err != nil {
			return nil, err
		}
		return ast.RemoveStatement{Kind: ast.RemoveDatabase, Name: id.Text}, nil
	case p.atKeyword("table"):
		p.advance()
		id, err := p.expect(lexer.Ident)
		if err != nil {
			return nil, err
		}
		return ast.RemoveStatement{Kind: ast.RemoveTable, Name: id.Text}, nil
	case p.atKeyword("field"):
		p.advance()
		id, err := p.expect(lexer.Ident)
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("on"); err != nil {
			return nil, err
		}
		table, err := p.expect(lexer.Ident)
		if err != nil {
			return nil, err
		}
		return ast.RemoveStatement{Kind: ast.RemoveField, Table: table.Text, Name: id.Text}, nil
	case p.atKeyword("index"):
		p.advance()
		id, err := p.expect(lexer.Ident)
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("on"); err != nil {
			return nil, err
		}
		table, err := p.expect(lexer.Ident)
		if err != nil {
			return nil, err
		}
		return ast.RemoveStatement{Kind: ast.RemoveIndex, Table: table.Text, Name: id.Text}, nil
	case p.atKeyword("event"):
		p.advance()
		id, err := p.expect(lexer.Ident)
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("on"); err != nil {
			return nil, err
		}
		table, err := p.expect(lexer.Ident)
		if err != nil {
			return nil, err
		}
		return ast.RemoveStatement{Kind: ast.RemoveEvent, Table: table.Text, Name: id.Text}, nil
	case p.atKeyword("function"):
		p.advance()
		id, err := p.expect(lexer.Ident)
		if err != nil {
			return nil, err
		}
		return ast.RemoveStatement{Kind: ast.RemoveFunction, Name: id.Text}, nil
	default:
		return nil, fmt.Errorf("parser: unsupported REMOVE target %q at pos %d", p.tok.Text, p.tok.Pos)
	}
}

// rawExprText consumes one expression and returns its compact textual
// form. DEFINE FIELD/EVENT/FUNCTION bodies are stored as raw text in the
// catalog (catalog.Permission etc.); internal/compile parses them lazily
// rather than storing a parsed ast.Expr in the catalog, per
// internal/catalog's DESIGN.md rationale.
func (p *Parser) rawExprText() string {
	start := p.tok.Pos
	depth := 0
	for {
		switch p.tok.Kind {
		case lexer.EOF, lexer.Semicolon:
			return strings.TrimSpace(p.textFromPos(start, p.tok.Pos))
		case lexer.LParen, lexer.LBracket, lexer.LBrace:
			depth++
		case lexer.RParen, lexer.RBracket, lexer.RBrace:
			if depth == 0 {
				return strings.TrimSpace(p.textFromPos(start, p.tok.Pos))
			}
			depth--
		case lexer.Keyword:
			if depth == 0 {
				switch strings.ToLower(p.tok.Text) {
				case "type", "default", "value", "assert", "readonly", "then", "when", "permissions":
					return strings.TrimSpace(p.textFromPos(start, p.tok.Pos))
				}
			}
		}
		p.advance()
	}
}

// textFromPos slices the original source by rune position, used to
// capture raw expression text for catalog fields that store SurrealQL
// text rather than a parsed ast.Expr (see internal/catalog's DESIGN.md
// rationale).
func (p *Parser) textFromPos(start, end int) string {
	if end > len(p.src) {
		end = len(p.src)
	}
	if start > end {
		start = end
	}
	return string(p.src[start:end])
}

// --- Expressions (precedence climbing) ---

func (p *Parser) parseExpr() (ast.Expr, error) { return p.parseOr() }

// ParseExpr parses a single standalone expression, used by
// internal/compile to lazily parse the raw SurrealQL text stored in
// catalog.FieldDef/EventDef/FunctionDef bodies.
func ParseExpr(src string) (ast.Expr, error) {
	p := New(src)
	return p.parseExpr()
}

func (p *Parser) parseOr() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.atKeyword("or") || p.at(lexer.PipePipe) {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = ast.BinaryExpr{Op: ast.OpOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expr, error) {
	left, err := p.parseCompare()
	if err != nil {
		return nil, err
	}
	for p.atKeyword("and") || p.at(lexer.AmpAmp) {
		p.advance()
		right, err := p.parseCompare()
		if err != nil {
			return nil, err
		}
		left = ast.BinaryExpr{Op: ast.OpAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseCompare() (ast.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	op, ok := compareOp(p.tok)
	for ok {
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = ast.BinaryExpr{Op: op, Left: left, Right: right}
		op, ok = compareOp(p.tok)
	}
	if p.at(lexer.KnnOpen) {
		return p.parseKNN(left)
	}
	return left, nil
}

// parseKNN parses the `<|k|> target` tail of a vector K-nearest-neighbour
// predicate (spec.md §4.7), left being the already-parsed operand
// expression (the indexed vector field).
func (p *Parser) parseKNN(left ast.Expr) (ast.Expr, error) {
	p.advance() // KnnOpen
	if p.tok.Kind != lexer.Number {
		return nil, fmt.Errorf("parser: expected k in <|k|> at pos %d", p.tok.Pos)
	}
	k, err := strconv.Atoi(p.tok.Text)
	if err != nil {
		return nil, err
	}
	p.advance()
	if _, err := p.expect(lexer.KnnClose); err != nil {
		return nil, err
	}
	target, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	return ast.KNNExpr{Operand: left, K: k, Target: target}, nil
}

func compareOp(t lexer.Token) (ast.BinaryOp, bool) {
	switch t.Kind {
	case lexer.Eq:
		return ast.OpEq, true
	case lexer.Neq:
		return ast.OpNeq, true
	case lexer.Lt:
		return ast.OpLt, true
	case lexer.Lte:
		return ast.OpLte, true
	case lexer.Gt:
		return ast.OpGt, true
	case lexer.Gte:
		return ast.OpGte, true
	}
	return 0, false
}

func (p *Parser) parseAdditive() (ast.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.at(lexer.Plus) || p.at(lexer.Minus) {
		op := ast.OpAdd
		if p.at(lexer.Minus) {
			op = ast.OpSub
		}
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = ast.BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.at(lexer.Star) || p.at(lexer.Slash) || p.at(lexer.Percent) {
		var op ast.BinaryOp
		switch p.tok.Kind {
		case lexer.Star:
			op = ast.OpMul
		case lexer.Slash:
			op = ast.OpDiv
		case lexer.Percent:
			op = ast.OpMod
		}
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = ast.BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	switch {
	case p.at(lexer.Minus):
		p.advance()
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.UnaryExpr{Op: ast.OpNeg, Expr: e}, nil
	case p.at(lexer.Plus):
		p.advance()
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.UnaryExpr{Op: ast.OpPlus, Expr: e}, nil
	case p.atKeyword("not"):
		p.advance()
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.UnaryExpr{Op: ast.OpNot, Expr: e}, nil
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() (ast.Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.at(lexer.Dot) {
		p.advance()
		var path strings.Builder
		for {
			id, err := p.expect(lexer.Ident)
			if err != nil {
				return nil, err
			}
			path.WriteString(id.Text)
			if p.at(lexer.LBracket) {
				p.advance()
				if p.at(lexer.Star) {
					p.advance()
					path.WriteString("[*]")
				} else {
					n, err := p.expect(lexer.Number)
					if err != nil {
						return nil, err
					}
					path.WriteString("[" + n.Text + "]")
				}
				if _, err := p.expect(lexer.RBracket); err != nil {
					return nil, err
				}
			}
			if p.at(lexer.Dot) {
				path.WriteString(".")
				p.advance()
				continue
			}
			break
		}
		e = ast.IdiomExpr{Base: e, Path: path.String()}
	}
	return e, nil
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	switch p.tok.Kind {
	case lexer.Keyword:
		switch strings.ToLower(p.tok.Text) {
		case "none":
			p.advance()
			return ast.NoneLit{}, nil
		case "null":
			p.advance()
			return ast.NullLit{}, nil
		case "true":
			p.advance()
			return ast.BoolLit{Value: true}, nil
		case "false":
			p.advance()
			return ast.BoolLit{Value: false}, nil
		case "if":
			return p.parseIf()
		}
		return nil, fmt.Errorf("parser: unexpected keyword %q in expression at pos %d", p.tok.Text, p.tok.Pos)
	case lexer.Number:
		return p.parseNumberLit()
	case lexer.Duration:
		tok := p.tok
		p.advance()
		return ast.DurationLit{Text: tok.Text}, nil
	case lexer.Datetime:
		tok := p.tok
		p.advance()
		return ast.DatetimeLit{Text: tok.Text}, nil
	case lexer.String:
		tok := p.tok
		p.advance()
		return ast.StringLit{Value: tok.Text}, nil
	case lexer.Param:
		tok := p.tok
		p.advance()
		return ast.ParamRef{Name: tok.Text}, nil
	case lexer.LBracket:
		return p.parseArray()
	case lexer.LBrace:
		return p.parseObject()
	case lexer.LParen:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RParen); err != nil {
			return nil, err
		}
		return e, nil
	case lexer.Pipe:
		return p.parseClosure()
	case lexer.ArrowOut, lexer.ArrowIn:
		return p.parseGraphTraversal()
	case lexer.Ident:
		return p.parseIdentLed()
	default:
		return nil, fmt.Errorf("parser: unexpected token %q in expression at pos %d", p.tok.Text, p.tok.Pos)
	}
}

func (p *Parser) parseNumberLit() (ast.Expr, error) {
	tok := p.tok
	p.advance()
	if strings.Contains(tok.Text, ".") {
		f, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return nil, err
		}
		return ast.FloatLit{Value: f}, nil
	}
	n, err := strconv.ParseInt(tok.Text, 10, 64)
	if err != nil {
		return nil, err
	}
	return ast.IntLit{Value: n}, nil
}

// parseIdentLed handles everything that starts with an identifier: plain
// field refs, function calls (incl. namespaced string::uppercase), and
// record-id literals (tb:id), resolving the ambiguity the lexer
// deliberately leaves unresolved (lexer.go's doc comment).
func (p *Parser) parseIdentLed() (ast.Expr, error) {
	id, _ := p.expect(lexer.Ident)
	name := id.Text
	for p.atDoubleColon() {
		p.advance()
		p.advance()
		next, err := p.expect(lexer.Ident)
		if err != nil {
			return nil, err
		}
		name += "::" + next.Text
	}
	if p.at(lexer.LParen) {
		p.advance()
		var args []ast.Expr
		for !p.at(lexer.RParen) {
			a, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if p.at(lexer.Comma) {
				p.advance()
				continue
			}
		}
		if _, err := p.expect(lexer.RParen); err != nil {
			return nil, err
		}
		return ast.FuncCall{Name: name, Args: args}, nil
	}
	if p.at(lexer.Colon) && !strings.Contains(name, "::") {
		p.advance()
		idExpr, err := p.parseRecordIDPart()
		if err != nil {
			return nil, err
		}
		return ast.RecordIDLit{Table: name, ID: idExpr}, nil
	}
	return ast.FieldRef{Name: name}, nil
}

// parseGraphTraversal parses one or more `->edge->table` / `<-edge<-table`
// hops (spec.md §8 scenario (d), "SELECT ->knows->person FROM
// person:alice"), chaining each hop's result as the next hop's Base so
// multi-step traversals like ->knows->person->knows->person nest
// correctly.
func (p *Parser) parseGraphTraversal() (ast.Expr, error) {
	var base ast.Expr
	for p.at(lexer.ArrowOut) || p.at(lexer.ArrowIn) {
		out := p.at(lexer.ArrowOut)
		p.advance()
		edge, err := p.identLike()
		if err != nil {
			return nil, err
		}
		if out {
			if _, err := p.expect(lexer.ArrowOut); err != nil {
				return nil, err
			}
		} else {
			if _, err := p.expect(lexer.ArrowIn); err != nil {
				return nil, err
			}
		}
		table, err := p.identLike()
		if err != nil {
			return nil, err
		}
		base = ast.GraphTraversalExpr{Base: base, Out: out, Edge: edge, Table: table}
	}
	return base, nil
}

func (p *Parser) parseArray() (ast.Expr, error) {
	if _, err := p.expect(lexer.LBracket); err != nil {
		return nil, err
	}
	var items []ast.Expr
	for !p.at(lexer.RBracket) {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		items = append(items, e)
		if p.at(lexer.Comma) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RBracket); err != nil {
		return nil, err
	}
	return ast.ArrayLit{Items: items}, nil
}

func (p *Parser) parseObject() (ast.ObjectLit, error) {
	if _, err := p.expect(lexer.LBrace); err != nil {
		return ast.ObjectLit{}, err
	}
	var fields []ast.ObjectField
	for !p.at(lexer.RBrace) {
		var key string
		if p.at(lexer.String) {
			key = p.tok.Text
			p.advance()
		} else {
			id, err := p.expect(lexer.Ident)
			if err != nil {
				return ast.ObjectLit{}, err
			}
			key = id.Text
		}
		if _, err := p.expect(lexer.Colon); err != nil {
			return ast.ObjectLit{}, err
		}
		v, err := p.parseExpr()
		if err != nil {
			return ast.ObjectLit{}, err
		}
		fields = append(fields, ast.ObjectField{Key: key, Value: v})
		if p.at(lexer.Comma) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RBrace); err != nil {
		return ast.ObjectLit{}, err
	}
	return ast.ObjectLit{Fields: fields}, nil
}

func (p *Parser) parseClosure() (ast.Expr, error) {
	if _, err := p.expect(lexer.Pipe); err != nil {
		return nil, err
	}
	var params []string
	for !p.at(lexer.Pipe) {
		id, err := p.expect(lexer.Ident)
		if err != nil {
			return nil, err
		}
		params = append(params, id.Text)
		if p.at(lexer.Comma) {
			p.advance()
			continue
		}
	}
	if _, err := p.expect(lexer.Pipe); err != nil {
		return nil, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return ast.ClosureLit{Params: params, Body: body}, nil
}

func (p *Parser) parseIf() (ast.Expr, error) {
	if err := p.expectKeyword("if"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("then"); err != nil {
		return nil, err
	}
	then, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	node := ast.IfExpr{Cond: cond, Then: then}
	if p.atKeyword("else") {
		p.advance()
		if p.atKeyword("if") {
			elseExpr, err := p.parseIf()
			if err != nil {
				return nil, err
			}
			node.Else = elseExpr
		} else {
			elseExpr, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			node.Else = elseExpr
			if err := p.expectKeyword("end"); err != nil {
				return nil, err
			}
			return node, nil
		}
	}
	if p.atKeyword("end") {
		p.advance()
	}
	return node, nil
}

// ParseKind maps a DEFINE FIELD TYPE name to types.Kind. Unknown names
// fall back to KindAny-equivalent KindNone, matching SurrealQL's
// permissive handling of unrecognized type names as "any".
func ParseKind(name string) types.Kind {
	switch strings.ToLower(name) {
	case "bool":
		return types.KindBool
	case "number", "int", "float", "decimal":
		return types.KindNumber
	case "string":
		return types.KindString
	case "bytes":
		return types.KindBytes
	case "datetime":
		return types.KindDatetime
	case "duration":
		return types.KindDuration
	case "uuid":
		return types.KindUUID
	case "array":
		return types.KindArray
	case "object":
		return types.KindObject
	case "set":
		return types.KindSet
	case "record":
		return types.KindRecordID
	case "range":
		return types.KindRange
	case "geometry":
		return types.KindGeometry
	case "regex":
		return types.KindRegex
	case "file":
		return types.KindFile
	case "function":
		return types.KindClosure
	default:
		return types.KindNone
	}
}
