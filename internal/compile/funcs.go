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

	"github.com/corvidb/corvid/internal/catalog"
	"github.com/corvidb/corvid/internal/lang/parser"
	"github.com/corvidb/corvid/internal/types"
)

// Builtin is a namespaced function implementation (e.g. "string::uppercase").
type Builtin func(args []types.Value) (types.Value, error)

// CustomLookup resolves a user-defined `fn::name` function from the
// catalog. Kept as a function value rather than a direct *catalog.Catalog
// dependency so tests can stub it without standing up a full catalog.
type CustomLookup func(name string) (catalog.FunctionDef, bool)

// FuncRegistry resolves both builtin and custom function calls
// (spec.md §4.4 "function calls (builtin/custom/closure/module)");
// closures are explicitly non-invocable per internal/types' Closure
// doc comment, so only named calls are supported here.
type FuncRegistry struct {
	builtins map[string]Builtin
	custom   CustomLookup
}

func NewFuncRegistry(custom CustomLookup) *FuncRegistry {
	return &FuncRegistry{builtins: defaultBuiltins(), custom: custom}
}

func (r *FuncRegistry) Call(ctx *EvalContext, name string, args []types.Value) (types.Value, error) {
	if fn, ok := r.builtins[strings.ToLower(name)]; ok {
		return fn(args)
	}
	if strings.HasPrefix(name, "fn::") && r.custom != nil {
		def, ok := r.custom(strings.TrimPrefix(name, "fn::"))
		if !ok {
			return nil, fmt.Errorf("compile: unknown custom function %q", name)
		}
		return r.callCustom(ctx, def, args)
	}
	return nil, fmt.Errorf("compile: unknown function %q", name)
}

func (r *FuncRegistry) callCustom(ctx *EvalContext, def catalog.FunctionDef, args []types.Value) (types.Value, error) {
	body, err := parser.ParseExpr(def.Body)
	if err != nil {
		return nil, fmt.Errorf("compile: custom function %q body: %w", def.Name, err)
	}
	c := NewCompiler(r)
	eval, err := c.CompileExpr(body)
	if err != nil {
		return nil, err
	}
	params := make(map[string]types.Value, len(def.Args))
	for i, a := range def.Args {
		if i < len(args) {
			params[a.Name] = args[i]
		}
	}
	inner := &EvalContext{Row: ctx.Row, Params: params, Funcs: r}
	return eval(inner)
}

// defaultBuiltins provides a scoped-down but representative subset of
// SurrealQL's builtin function library (string/math/type namespaces),
// grounded on the function families original_source/core/src/fnc names
// (string.rs, math.rs) without porting their exhaustive catalog.
func defaultBuiltins() map[string]Builtin {
	return map[string]Builtin{
		"string::uppercase": stringFn(strings.ToUpper),
		"string::lowercase": stringFn(strings.ToLower),
		"string::trim":      stringFn(strings.TrimSpace),
		"string::len": func(args []types.Value) (types.Value, error) {
			s, ok := oneString(args)
			if !ok {
				return types.Null{}, nil
			}
			return types.NewNumberValue(types.NewInt(int64(len(s)))), nil
		},
		"string::starts_with": func(args []types.Value) (types.Value, error) {
			if len(args) != 2 {
				return types.Null{}, nil
			}
			a, _ := asString(args[0])
			b, _ := asString(args[1])
			return types.Bool(strings.HasPrefix(a, b)), nil
		},
		"math::abs": func(args []types.Value) (types.Value, error) {
			n, ok := oneNumber(args)
			if !ok {
				return types.Null{}, nil
			}
			f := n.AsFloat()
			if f < 0 {
				f = -f
			}
			return types.NewNumberValue(types.NewFloat(f)), nil
		},
		"math::max": func(args []types.Value) (types.Value, error) {
			return foldNumbers(args, func(a, b float64) float64 {
				if a > b {
					return a
				}
				return b
			})
		},
		"math::min": func(args []types.Value) (types.Value, error) {
			return foldNumbers(args, func(a, b float64) float64 {
				if a < b {
					return a
				}
				return b
			})
		},
		"type::is_none": func(args []types.Value) (types.Value, error) {
			if len(args) != 1 {
				return types.Bool(false), nil
			}
			_, ok := args[0].(types.None)
			return types.Bool(ok), nil
		},
		"type::is_null": func(args []types.Value) (types.Value, error) {
			if len(args) != 1 {
				return types.Bool(false), nil
			}
			_, ok := args[0].(types.Null)
			return types.Bool(ok), nil
		},
		"array::len": func(args []types.Value) (types.Value, error) {
			if len(args) != 1 {
				return types.Null{}, nil
			}
			arr, ok := args[0].(types.Array)
			if !ok {
				return types.Null{}, nil
			}
			return types.NewNumberValue(types.NewInt(int64(len(arr)))), nil
		},
	}
}

func stringFn(f func(string) string) Builtin {
	return func(args []types.Value) (types.Value, error) {
		s, ok := oneString(args)
		if !ok {
			return types.Null{}, nil
		}
		return types.NewString(f(s)), nil
	}
}

func oneString(args []types.Value) (string, bool) {
	if len(args) != 1 {
		return "", false
	}
	return asString(args[0])
}

func asString(v types.Value) (string, bool) {
	s, ok := v.(types.Str)
	if !ok {
		return "", false
	}
	return s.String(), true
}

func oneNumber(args []types.Value) (types.Number, bool) {
	if len(args) != 1 {
		return types.Number{}, false
	}
	n, ok := args[0].(types.Num)
	if !ok {
		return types.Number{}, false
	}
	return n.Number, true
}

func foldNumbers(args []types.Value, pick func(a, b float64) float64) (types.Value, error) {
	if len(args) == 0 {
		return types.Null{}, nil
	}
	n0, ok := args[0].(types.Num)
	if !ok {
		return types.Null{}, nil
	}
	acc := n0.Number.AsFloat()
	for _, v := range args[1:] {
		n, ok := v.(types.Num)
		if !ok {
			continue
		}
		acc = pick(acc, n.Number.AsFloat())
	}
	return types.NewNumberValue(types.NewFloat(acc)), nil
}
