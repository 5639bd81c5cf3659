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

package doc

import (
	"sync"

	"github.com/corvidb/corvid/internal/compile"
	"github.com/corvidb/corvid/internal/lang/parser"
	"github.com/corvidb/corvid/internal/types"
)

// exprCache memoizes the parse+compile step for catalog-stored expression
// text (FieldDef.Default/Value/Assert, Permission.Expr). These strings are
// fixed once a DEFINE FIELD/DEFINE TABLE statement runs, so the compiled
// Eval is safe to reuse across every row the lifecycle processes.
var exprCache sync.Map // string -> compile.Eval

func compileCached(src string, funcs *compile.FuncRegistry) (compile.Eval, error) {
	if cached, ok := exprCache.Load(src); ok {
		return cached.(compile.Eval), nil
	}
	expr, err := parser.ParseExpr(src)
	if err != nil {
		return nil, err
	}
	c := compile.NewCompiler(funcs)
	eval, err := c.CompileExpr(expr)
	if err != nil {
		return nil, err
	}
	exprCache.Store(src, eval)
	return eval, nil
}

func evalFieldExpr(src string, ctx *compile.EvalContext) (types.Value, error) {
	eval, err := compileCached(src, ctx.Funcs)
	if err != nil {
		return nil, err
	}
	return eval(ctx)
}

func evalAssert(src string, ctx *compile.EvalContext) (bool, error) {
	v, err := evalFieldExpr(src, ctx)
	if err != nil {
		return false, err
	}
	return types.Truthy(v), nil
}

func evalAssertExpr(src string, ctx *compile.EvalContext) (types.Value, error) {
	return evalFieldExpr(src, ctx)
}
