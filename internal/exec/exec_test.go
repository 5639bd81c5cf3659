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

package exec

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corvidb/corvid/internal/compile"
	"github.com/corvidb/corvid/internal/keycodec"
	"github.com/corvidb/corvid/internal/kv/memkv"
	"github.com/corvidb/corvid/internal/lang/ast"
	"github.com/corvidb/corvid/internal/lang/parser"
	"github.com/corvidb/corvid/internal/txn"
	"github.com/corvidb/corvid/internal/types"
)

func mustParseExpr(t *testing.T, src string) ast.Expr {
	t.Helper()
	e, err := parser.ParseExpr(src)
	require.NoError(t, err)
	return e
}

func seedRecord(t *testing.T, tx *txn.Tx, ns, db, tb string, id types.RecordIDKey, fields map[string]types.Value) {
	t.Helper()
	obj := types.NewObject()
	for k, v := range fields {
		obj.Set(k, v)
	}
	data, err := types.MarshalValue(obj)
	require.NoError(t, err)
	key, err := keycodec.RecordKey(ns, db, tb, id)
	require.NoError(t, err)
	require.NoError(t, tx.Set(key, data))
}

func drain(t *testing.T, s Stream) []types.Value {
	t.Helper()
	var rows []types.Value
	for {
		batch, err := s.Next(context.Background())
		if err == ErrEOF {
			break
		}
		require.NoError(t, err)
		rows = append(rows, batch...)
	}
	return rows
}

func TestScanReadsAllRecords(t *testing.T) {
	backend := memkv.New()
	ctx := context.Background()
	tx, err := txn.Begin(ctx, backend, true, txn.DropNone, nil)
	require.NoError(t, err)

	seedRecord(t, tx, "ns", "db", "person", types.NewString("a"), map[string]types.Value{
		"name": types.NewString("alice"), "age": types.NewNumberValue(types.NewInt(30)),
	})
	seedRecord(t, tx, "ns", "db", "person", types.NewString("b"), map[string]types.Value{
		"name": types.NewString("bob"), "age": types.NewNumberValue(types.NewInt(20)),
	})

	s := NewScan(tx, "ns", "db", "person")
	stream, err := s.Execute(ctx)
	require.NoError(t, err)
	rows := drain(t, stream)
	require.Len(t, rows, 2)
}

func TestScanWithLimitAndStart(t *testing.T) {
	backend := memkv.New()
	ctx := context.Background()
	tx, err := txn.Begin(ctx, backend, true, txn.DropNone, nil)
	require.NoError(t, err)

	for _, id := range []string{"a", "b", "c"} {
		seedRecord(t, tx, "ns", "db", "person", types.NewString(id), map[string]types.Value{
			"name": types.NewString(id),
		})
	}

	s := NewScan(tx, "ns", "db", "person")
	s.Limit = 1
	s.Start = 1
	stream, err := s.Execute(ctx)
	require.NoError(t, err)
	rows := drain(t, stream)
	require.Len(t, rows, 1)
}

func TestFilterDropsFalsyRows(t *testing.T) {
	backend := memkv.New()
	ctx := context.Background()
	tx, err := txn.Begin(ctx, backend, true, txn.DropNone, nil)
	require.NoError(t, err)

	seedRecord(t, tx, "ns", "db", "person", types.NewString("a"), map[string]types.Value{
		"age": types.NewNumberValue(types.NewInt(30)),
	})
	seedRecord(t, tx, "ns", "db", "person", types.NewString("b"), map[string]types.Value{
		"age": types.NewNumberValue(types.NewInt(10)),
	})

	c := compile.NewCompiler(nil)
	pred, err := c.CompileExpr(mustParseExpr(t, "age > 18"))
	require.NoError(t, err)

	scan := NewScan(tx, "ns", "db", "person")
	filter := &Filter{Child: scan, Predicate: pred}
	stream, err := filter.Execute(ctx)
	require.NoError(t, err)
	rows := drain(t, stream)
	require.Len(t, rows, 1)
}

func TestSortOrdersAscending(t *testing.T) {
	backend := memkv.New()
	ctx := context.Background()
	tx, err := txn.Begin(ctx, backend, true, txn.DropNone, nil)
	require.NoError(t, err)

	seedRecord(t, tx, "ns", "db", "person", types.NewString("a"), map[string]types.Value{
		"age": types.NewNumberValue(types.NewInt(30)),
	})
	seedRecord(t, tx, "ns", "db", "person", types.NewString("b"), map[string]types.Value{
		"age": types.NewNumberValue(types.NewInt(10)),
	})

	c := compile.NewCompiler(nil)
	keyEval, err := c.CompileExpr(mustParseExpr(t, "age"))
	require.NoError(t, err)

	scan := NewScan(tx, "ns", "db", "person")
	s := &Sort{Child: scan, Keys: []OrderKey{{Eval: keyEval}}}
	stream, err := s.Execute(ctx)
	require.NoError(t, err)
	rows := drain(t, stream)
	require.Len(t, rows, 2)
	first := rows[0].(*types.Object)
	age, _ := first.Get("age")
	n := age.(types.Num)
	v, _ := n.Int()
	require.Equal(t, int64(10), v)
}

func TestAggregateCountGroupAll(t *testing.T) {
	backend := memkv.New()
	ctx := context.Background()
	tx, err := txn.Begin(ctx, backend, true, txn.DropNone, nil)
	require.NoError(t, err)

	scan := NewScan(tx, "ns", "db", "empty")
	agg := &Aggregate{Child: scan, GroupAll: true, Fields: []AggField{{Name: "total", Kind: compile.AggCount}}}
	stream, err := agg.Execute(ctx)
	require.NoError(t, err)
	rows := drain(t, stream)
	require.Len(t, rows, 1)
	obj := rows[0].(*types.Object)
	total, _ := obj.Get("total")
	n, _ := total.(types.Num).Int()
	require.Equal(t, int64(0), n)
}

func TestAggregateSumByGroup(t *testing.T) {
	backend := memkv.New()
	ctx := context.Background()
	tx, err := txn.Begin(ctx, backend, true, txn.DropNone, nil)
	require.NoError(t, err)

	seedRecord(t, tx, "ns", "db", "sale", types.NewString("1"), map[string]types.Value{
		"region": types.NewString("east"), "amount": types.NewNumberValue(types.NewInt(10)),
	})
	seedRecord(t, tx, "ns", "db", "sale", types.NewString("2"), map[string]types.Value{
		"region": types.NewString("east"), "amount": types.NewNumberValue(types.NewInt(5)),
	})
	seedRecord(t, tx, "ns", "db", "sale", types.NewString("3"), map[string]types.Value{
		"region": types.NewString("west"), "amount": types.NewNumberValue(types.NewInt(7)),
	})

	c := compile.NewCompiler(nil)
	regionEval, err := c.CompileExpr(mustParseExpr(t, "region"))
	require.NoError(t, err)
	amountEval, err := c.CompileExpr(mustParseExpr(t, "amount"))
	require.NoError(t, err)

	scan := NewScan(tx, "ns", "db", "sale")
	agg := &Aggregate{
		Child:     scan,
		GroupKeys: []GroupKey{{Name: "region", Expr: regionEval}},
		Fields:    []AggField{{Name: "total", Kind: compile.AggSum, Expr: amountEval}},
	}
	stream, err := agg.Execute(ctx)
	require.NoError(t, err)
	rows := drain(t, stream)
	require.Len(t, rows, 2)

	totals := map[string]int64{}
	for _, r := range rows {
		obj := r.(*types.Object)
		region, _ := obj.Get("region")
		total, _ := obj.Get("total")
		n, _ := total.(types.Num).Int()
		totals[region.(types.Str).String()] = n
	}
	require.Equal(t, int64(15), totals["east"])
	require.Equal(t, int64(7), totals["west"])
}

func TestDistinctDedupes(t *testing.T) {
	backend := memkv.New()
	ctx := context.Background()
	tx, err := txn.Begin(ctx, backend, true, txn.DropNone, nil)
	require.NoError(t, err)

	seedRecord(t, tx, "ns", "db", "tag", types.NewString("1"), map[string]types.Value{
		"name": types.NewString("x"),
	})
	seedRecord(t, tx, "ns", "db", "tag", types.NewString("2"), map[string]types.Value{
		"name": types.NewString("x"),
	})

	c := compile.NewCompiler(nil)
	valueEval, err := c.CompileExpr(mustParseExpr(t, "name"))
	require.NoError(t, err)

	scan := NewScan(tx, "ns", "db", "tag")
	proj := &Project{Child: scan, Value: valueEval}
	dist := &Distinct{Child: proj}
	stream, err := dist.Execute(ctx)
	require.NoError(t, err)
	rows := drain(t, stream)
	require.Len(t, rows, 1)
}
