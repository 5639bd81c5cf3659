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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corvidb/corvid/internal/index"
	"github.com/corvidb/corvid/internal/index/ft"
	"github.com/corvidb/corvid/internal/txn"
	"github.com/corvidb/corvid/internal/types"
)

func TestExecuteSelectFromRecordID(t *testing.T) {
	ds := openTestDatastore(t)
	defineSchema(t, ds, "person")

	_, err := ds.Execute(context.Background(), "ns", "db", `CREATE person:"alice" CONTENT { name: "Alice" };`, nil)
	require.NoError(t, err)
	_, err = ds.Execute(context.Background(), "ns", "db", `CREATE person:"bob" CONTENT { name: "Bob" };`, nil)
	require.NoError(t, err)

	results, err := ds.Execute(context.Background(), "ns", "db", `SELECT name FROM person:alice;`, nil)
	require.NoError(t, err)
	rows, ok := results[0].(types.Array)
	require.True(t, ok)
	require.Len(t, rows, 1)
	row, ok := rows[0].(*types.Object)
	require.True(t, ok)
	name, _ := row.Get("name")
	require.Equal(t, types.NewString("Alice"), name)
}

func TestExecuteSelectFromMissingRecordID(t *testing.T) {
	ds := openTestDatastore(t)
	defineSchema(t, ds, "person")

	results, err := ds.Execute(context.Background(), "ns", "db", `SELECT name FROM person:ghost;`, nil)
	require.NoError(t, err)
	rows, ok := results[0].(types.Array)
	require.True(t, ok)
	require.Empty(t, rows)
}

func TestExecuteSelectGraphTraversalField(t *testing.T) {
	ds := openTestDatastore(t)
	defineSchema(t, ds, "person")
	defineSchema(t, ds, "article")
	defineSchema(t, ds, "wrote")

	_, err := ds.Execute(context.Background(), "ns", "db", `CREATE person:"tobie" CONTENT { name: "Tobie" };`, nil)
	require.NoError(t, err)
	_, err = ds.Execute(context.Background(), "ns", "db", `CREATE article:"first" CONTENT { title: "Hello" };`, nil)
	require.NoError(t, err)
	_, err = ds.Execute(context.Background(), "ns", "db", `RELATE person:tobie->wrote->article:first;`, nil)
	require.NoError(t, err)

	results, err := ds.Execute(context.Background(), "ns", "db",
		`SELECT ->wrote->article AS written FROM person:tobie;`, nil)
	require.NoError(t, err)
	rows, ok := results[0].(types.Array)
	require.True(t, ok)
	require.Len(t, rows, 1)
	row, ok := rows[0].(*types.Object)
	require.True(t, ok)
	written, ok := row.Get("written")
	require.True(t, ok)
	arr, ok := written.(types.Array)
	require.True(t, ok)
	require.Len(t, arr, 1)
	target, ok := arr[0].(types.RecordID)
	require.True(t, ok)
	require.Equal(t, "article", target.Table)
}

func TestExecuteSelectFetchResolvesRecordID(t *testing.T) {
	ds := openTestDatastore(t)
	defineSchema(t, ds, "person")

	_, err := ds.Execute(context.Background(), "ns", "db", `CREATE person:"bob" CONTENT { name: "Bob" };`, nil)
	require.NoError(t, err)
	_, err = ds.Execute(context.Background(), "ns", "db",
		`CREATE person:"alice" CONTENT { name: "Alice", best_friend: person:bob };`, nil)
	require.NoError(t, err)

	results, err := ds.Execute(context.Background(), "ns", "db",
		`SELECT best_friend FROM person:alice FETCH best_friend;`, nil)
	require.NoError(t, err)
	rows, ok := results[0].(types.Array)
	require.True(t, ok)
	require.Len(t, rows, 1)
	row, ok := rows[0].(*types.Object)
	require.True(t, ok)
	friend, ok := row.Get("best_friend")
	require.True(t, ok)
	friendObj, ok := friend.(*types.Object)
	require.True(t, ok)
	name, _ := friendObj.Get("name")
	require.Equal(t, types.NewString("Bob"), name)
}

func TestExecuteCreateMaintainsCountIndex(t *testing.T) {
	ds := openTestDatastore(t)
	defineSchema(t, ds, "person")
	_, err := ds.Execute(context.Background(), "ns", "db", `DEFINE INDEX idx_c ON person FIELDS status COUNT;`, nil)
	require.NoError(t, err)

	_, err = ds.Execute(context.Background(), "ns", "db", `CREATE person CONTENT { status: "active" };`, nil)
	require.NoError(t, err)
	_, err = ds.Execute(context.Background(), "ns", "db", `CREATE person CONTENT { status: "active" };`, nil)
	require.NoError(t, err)

	tx, err := txn.Begin(context.Background(), ds.Backend(), true, txn.DropWarn, nil)
	require.NoError(t, err)
	n, err := index.Compact(context.Background(), tx, "ns", "db", "person", "idx_c")
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	require.Equal(t, int64(2), n)
}

func TestExecuteCreateMaintainsFullTextIndex(t *testing.T) {
	ds := openTestDatastore(t)
	defineSchema(t, ds, "person")
	_, err := ds.Execute(context.Background(), "ns", "db", `DEFINE INDEX idx_ft ON person FIELDS bio SEARCH;`, nil)
	require.NoError(t, err)

	_, err = ds.Execute(context.Background(), "ns", "db",
		`CREATE person:"alice" CONTENT { bio: "loves go and graphs" };`, nil)
	require.NoError(t, err)

	tx, err := txn.Begin(context.Background(), ds.Backend(), false, txn.DropWarn, nil)
	require.NoError(t, err)
	defer tx.Cancel()
	tree, err := ft.Open(context.Background(), tx, "ns", "db", "person", "idx_ft")
	require.NoError(t, err)
	_, ok := tree.Lookup("graphs")
	require.True(t, ok)
}

func TestExecuteKNNSelect(t *testing.T) {
	ds := openTestDatastore(t)
	defineSchema(t, ds, "item")
	_, err := ds.Execute(context.Background(), "ns", "db",
		`DEFINE INDEX idx_vec ON item FIELDS vector HNSW DIMENSION 2 DIST euclidean M 12 M0 24 EFC 150 EF 60;`, nil)
	require.NoError(t, err)

	seed := []string{
		`CREATE item:"a" CONTENT { vector: [0.0, 0.0] };`,
		`CREATE item:"b" CONTENT { vector: [10.0, 10.0] };`,
		`CREATE item:"c" CONTENT { vector: [0.5, 0.5] };`,
	}
	for _, q := range seed {
		_, err := ds.Execute(context.Background(), "ns", "db", q, nil)
		require.NoError(t, err)
	}

	results, err := ds.Execute(context.Background(), "ns", "db",
		`SELECT id, vector::distance::knn() AS dist FROM item WHERE vector <|2|> [0.0, 0.0];`, nil)
	require.NoError(t, err)
	rows, ok := results[0].(types.Array)
	require.True(t, ok)
	require.Len(t, rows, 2)
	first, ok := rows[0].(*types.Object)
	require.True(t, ok)
	id, ok := first.Get("id")
	require.True(t, ok)
	rid, ok := id.(types.RecordID)
	require.True(t, ok)
	require.Equal(t, "item:a", rid.String())
	_, ok = first.Get("dist")
	require.True(t, ok)
}
