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

package compile

import (
	"fmt"
	"strings"

	"github.com/corvidb/corvid/internal/lang/ast"
	"github.com/corvidb/corvid/internal/types"
)

// Eval is a compiled physical expression: given a row and bound
// parameters, it produces a Value. This is the "physical expr" spec.md
// §4.5's Project operator description refers to — a closure rather than
// an interpreted tree walk, so hot-path evaluation pays no further
// dispatch cost once compiled.
type Eval func(ctx *EvalContext) (types.Value, error)

// EvalContext carries everything an Eval needs at execution time: the
// current row, bound statement parameters ($param), and a function
// resolver for builtin/custom calls.
type EvalContext struct {
	Row    *types.Object
	Params map[string]types.Value
	Funcs  *FuncRegistry
}

// Compiler turns ast.Expr nodes into Eval closures. It is stateless
// beyond the FuncRegistry used to resolve calls.
type Compiler struct {
	Funcs *FuncRegistry
}

func NewCompiler(funcs *FuncRegistry) *Compiler {
	if funcs == nil {
		funcs = NewFuncRegistry(nil)
	}
	return &Compiler{Funcs: funcs}
}

// CompileExpr compiles a single ast.Expr into an Eval.
func (c *Compiler) CompileExpr(e ast.Expr) (Eval, error) {
	switch n := e.(type) {
	case ast.NoneLit:
		return constEval(types.None{}), nil
	case ast.NullLit:
		return constEval(types.Null{}), nil
	case ast.BoolLit:
		return constEval(types.Bool(n.Value)), nil
	case ast.IntLit:
		return constEval(types.NewNumberValue(types.NewInt(n.Value))), nil
	case ast.FloatLit:
		return constEval(types.NewNumberValue(types.NewFloat(n.Value))), nil
	case ast.StringLit:
		return constEval(types.NewString(n.Value)), nil
	case ast.DurationLit:
		d, err := types.ParseDuration(n.Text)
		if err != nil {
			return nil, err
		}
		return constEval(types.DurationValue{Duration: d}), nil
	case ast.ParamRef:
		name := n.Name
		return func(ctx *EvalContext) (types.Value, error) {
			if v, ok := ctx.Params[name]; ok {
				return v, nil
			}
			return types.Null{}, nil
		}, nil
	case ast.FieldRef:
		return c.compileFieldRef(n)
	case ast.IdiomExpr:
		return c.compileIdiom(n)
	case ast.ArrayLit:
		items := make([]Eval, len(n.Items))
		for i, it := range n.Items {
			ev, err := c.CompileExpr(it)
			if err != nil {
				return nil, err
			}
			items[i] = ev
		}
		return func(ctx *EvalContext) (types.Value, error) {
			arr := make(types.Array, len(items))
			for i, ev := range items {
				v, err := ev(ctx)
				if err != nil {
					return nil, err
				}
				arr[i] = v
			}
			return arr, nil
		}, nil
	case ast.ObjectLit:
		return c.compileObject(n)
	case ast.UnaryExpr:
		return c.compileUnary(n)
	case ast.BinaryExpr:
		return c.compileBinary(n)
	case ast.FuncCall:
		return c.compileCall(n)
	case ast.IfExpr:
		return c.compileIf(n)
	case ast.RecordIDLit:
		return c.compileRecordID(n)
	default:
		return nil, fmt.Errorf("compile: unsupported expression node %T", e)
	}
}

func constEval(v types.Value) Eval {
	return func(*EvalContext) (types.Value, error) { return v, nil }
}

func (c *Compiler) compileFieldRef(n ast.FieldRef) (Eval, error) {
	if n.Name == "*" {
		return func(ctx *EvalContext) (types.Value, error) {
			if ctx.Row == nil {
				return types.Null{}, nil
			}
			return ctx.Row, nil
		}, nil
	}
	idiom := types.ParseIdiom(n.Name)
	return func(ctx *EvalContext) (types.Value, error) {
		if ctx.Row == nil {
			return types.Null{}, nil
		}
		return types.Get(ctx.Row, idiom), nil
	}, nil
}

func (c *Compiler) compileIdiom(n ast.IdiomExpr) (Eval, error) {
	base, err := c.CompileExpr(n.Base)
	if err != nil {
		return nil, err
	}
	idiom := types.ParseIdiom(n.Path)
	return func(ctx *EvalContext) (types.Value, error) {
		v, err := base(ctx)
		if err != nil {
			return nil, err
		}
		return types.Get(v, idiom), nil
	}, nil
}

func (c *Compiler) compileObject(n ast.ObjectLit) (Eval, error) {
	type field struct {
		key  string
		eval Eval
	}
	fields := make([]field, len(n.Fields))
	for i, f := range n.Fields {
		ev, err := c.CompileExpr(f.Value)
		if err != nil {
			return nil, err
		}
		fields[i] = field{key: f.Key, eval: ev}
	}
	return func(ctx *EvalContext) (types.Value, error) {
		obj := types.NewObject()
		for _, f := range fields {
			v, err := f.eval(ctx)
			if err != nil {
				return nil, err
			}
			obj.Set(f.key, v)
		}
		return obj, nil
	}, nil
}

func (c *Compiler) compileUnary(n ast.UnaryExpr) (Eval, error) {
	inner, err := c.CompileExpr(n.Expr)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case ast.OpNot:
		return func(ctx *EvalContext) (types.Value, error) {
			v, err := inner(ctx)
			if err != nil {
				return nil, err
			}
			return types.Bool(!types.Truthy(v)), nil
		}, nil
	case ast.OpNeg:
		return func(ctx *EvalContext) (types.Value, error) {
			v, err := inner(ctx)
			if err != nil {
				return nil, err
			}
			num, ok := v.(types.Num)
			if !ok {
				return types.Null{}, nil
			}
			return types.NewNumberValue(types.NewFloat(-num.Number.AsFloat())), nil
		}, nil
	default:
		return inner, nil
	}
}

func (c *Compiler) compileBinary(n ast.BinaryExpr) (Eval, error) {
	left, err := c.CompileExpr(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := c.CompileExpr(n.Right)
	if err != nil {
		return nil, err
	}
	op := n.Op
	return func(ctx *EvalContext) (types.Value, error) {
		lv, err := left(ctx)
		if err != nil {
			return nil, err
		}
		switch op {
		case ast.OpAnd:
			if !types.Truthy(lv) {
				return types.Bool(false), nil
			}
			rv, err := right(ctx)
			if err != nil {
				return nil, err
			}
			return types.Bool(types.Truthy(rv)), nil
		case ast.OpOr:
			if types.Truthy(lv) {
				return types.Bool(true), nil
			}
			rv, err := right(ctx)
			if err != nil {
				return nil, err
			}
			return types.Bool(types.Truthy(rv)), nil
		}
		rv, err := right(ctx)
		if err != nil {
			return nil, err
		}
		return evalBinaryOp(op, lv, rv)
	}, nil
}

func evalBinaryOp(op ast.BinaryOp, lv, rv types.Value) (types.Value, error) {
	switch op {
	case ast.OpEq:
		return types.Bool(types.Equal(lv, rv)), nil
	case ast.OpNeq:
		return types.Bool(!types.Equal(lv, rv)), nil
	case ast.OpLt:
		return types.Bool(types.Compare(lv, rv) < 0), nil
	case ast.OpLte:
		return types.Bool(types.Compare(lv, rv) <= 0), nil
	case ast.OpGt:
		return types.Bool(types.Compare(lv, rv) > 0), nil
	case ast.OpGte:
		return types.Bool(types.Compare(lv, rv) >= 0), nil
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod:
		ln, lok := lv.(types.Num)
		rn, rok := rv.(types.Num)
		if !lok || !rok {
			return types.Null{}, nil
		}
		return types.NewNumberValue(applyArith(op, ln.Number, rn.Number)), nil
	default:
		return nil, fmt.Errorf("compile: unsupported binary operator %d", op)
	}
}

func applyArith(op ast.BinaryOp, a, b types.Number) types.Number {
	switch op {
	case ast.OpAdd:
		return a.Add(b)
	case ast.OpSub:
		return a.Add(types.NewFloat(-b.AsFloat()))
	case ast.OpMul:
		return types.NewFloat(a.AsFloat() * b.AsFloat())
	case ast.OpDiv:
		if b.AsFloat() == 0 {
			return types.NewFloat(0)
		}
		return types.NewFloat(a.AsFloat() / b.AsFloat())
	case ast.OpMod:
		bf := b.AsFloat()
		if bf == 0 {
			return types.NewFloat(0)
		}
		af := a.AsFloat()
		return types.NewFloat(af - bf*float64(int64(af/bf)))
	default:
		return a
	}
}

func (c *Compiler) compileCall(n ast.FuncCall) (Eval, error) {
	args := make([]Eval, len(n.Args))
	for i, a := range n.Args {
		ev, err := c.CompileExpr(a)
		if err != nil {
			return nil, err
		}
		args[i] = ev
	}
	name := n.Name
	funcs := c.Funcs
	return func(ctx *EvalContext) (types.Value, error) {
		argv := make([]types.Value, len(args))
		for i, a := range args {
			v, err := a(ctx)
			if err != nil {
				return nil, err
			}
			argv[i] = v
		}
		return funcs.Call(ctx, name, argv)
	}, nil
}

func (c *Compiler) compileIf(n ast.IfExpr) (Eval, error) {
	cond, err := c.CompileExpr(n.Cond)
	if err != nil {
		return nil, err
	}
	then, err := c.CompileExpr(n.Then)
	if err != nil {
		return nil, err
	}
	var els Eval
	if n.Else != nil {
		els, err = c.CompileExpr(n.Else)
		if err != nil {
			return nil, err
		}
	}
	return func(ctx *EvalContext) (types.Value, error) {
		cv, err := cond(ctx)
		if err != nil {
			return nil, err
		}
		if types.Truthy(cv) {
			return then(ctx)
		}
		if els == nil {
			return types.None{}, nil
		}
		return els(ctx)
	}, nil
}

func (c *Compiler) compileRecordID(n ast.RecordIDLit) (Eval, error) {
	idEval, err := c.CompileExpr(n.ID)
	if err != nil {
		return nil, err
	}
	table := n.Table
	return func(ctx *EvalContext) (types.Value, error) {
		idv, err := idEval(ctx)
		if err != nil {
			return nil, err
		}
		key, ok := idv.(types.RecordIDKey)
		if !ok {
			return nil, fmt.Errorf("compile: %s:%v is not a valid record-id key", table, idv)
		}
		return types.RecordID{Table: table, ID: key}, nil
	}, nil
}

// CanonicalText renders an ast.Expr back to a stable textual form, used
// as the expression registry's dedup key (spec.md §4.4 "hashed by its
// canonical SQL-equivalent text"). It need not round-trip exactly to
// the original source, only be stable for structurally identical
// expressions.
func CanonicalText(e ast.Expr) string {
	var b strings.Builder
	writeCanonical(&b, e)
	return b.String()
}

func writeCanonical(b *strings.Builder, e ast.Expr) {
	switch n := e.(type) {
	case ast.FieldRef:
		b.WriteString(n.Name)
	case ast.IdiomExpr:
		writeCanonical(b, n.Base)
		b.WriteByte('.')
		b.WriteString(n.Path)
	case ast.ParamRef:
		b.WriteByte('$')
		b.WriteString(n.Name)
	case ast.IntLit:
		fmt.Fprintf(b, "%d", n.Value)
	case ast.FloatLit:
		fmt.Fprintf(b, "%g", n.Value)
	case ast.StringLit:
		fmt.Fprintf(b, "%q", n.Value)
	case ast.BoolLit:
		fmt.Fprintf(b, "%v", n.Value)
	case ast.NoneLit:
		b.WriteString("NONE")
	case ast.NullLit:
		b.WriteString("NULL")
	case ast.BinaryExpr:
		b.WriteByte('(')
		writeCanonical(b, n.Left)
		fmt.Fprintf(b, " %d ", n.Op)
		writeCanonical(b, n.Right)
		b.WriteByte(')')
	case ast.UnaryExpr:
		fmt.Fprintf(b, "(%d ", n.Op)
		writeCanonical(b, n.Expr)
		b.WriteByte(')')
	case ast.FuncCall:
		b.WriteString(n.Name)
		b.WriteByte('(')
		for i, a := range n.Args {
			if i > 0 {
				b.WriteByte(',')
			}
			writeCanonical(b, a)
		}
		b.WriteByte(')')
	default:
		fmt.Fprintf(b, "%T", e)
	}
}
