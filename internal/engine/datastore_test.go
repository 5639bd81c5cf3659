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

	"github.com/corvidb/corvid/internal/catalog"
	"github.com/corvidb/corvid/internal/txn"
	"github.com/corvidb/corvid/internal/types"
)

func openTestDatastore(t *testing.T) *Datastore {
	t.Helper()
	ds, err := Open(context.Background(), "", WithBackend(BackendMemory))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, ds.Close()) })
	return ds
}

func defineSchema(t *testing.T, ds *Datastore, table string) {
	t.Helper()
	tx, err := txn.Begin(context.Background(), ds.Backend(), true, txn.DropWarn, nil)
	require.NoError(t, err)
	require.NoError(t, ds.Catalog().DefineNamespace(tx, catalog.NamespaceDef{Name: "ns"}))
	require.NoError(t, ds.Catalog().DefineDatabase(tx, "ns", catalog.DatabaseDef{Name: "db"}))
	require.NoError(t, ds.Catalog().DefineTable(tx, "ns", "db", catalog.TableDef{
		Name: table,
		Kind: catalog.TableNormal,
		Permissions: catalog.TablePermissions{
			Select: catalog.Permission{Kind: catalog.PermissionFull},
			Create: catalog.Permission{Kind: catalog.PermissionFull},
			Update: catalog.Permission{Kind: catalog.PermissionFull},
			Delete: catalog.Permission{Kind: catalog.PermissionFull},
		},
	}))
	require.NoError(t, tx.Commit())
}

func TestExecuteCreateThenSelectRoundTrips(t *testing.T) {
	ds := openTestDatastore(t)
	defineSchema(t, ds, "person")

	_, err := ds.Execute(context.Background(), "ns", "db", `CREATE person:"alice" CONTENT { name: "Alice", age: 30 };`, nil)
	require.NoError(t, err)

	results, err := ds.Execute(context.Background(), "ns", "db", `SELECT name FROM person;`, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)

	rows, ok := results[0].(types.Array)
	require.True(t, ok)
	require.Len(t, rows, 1)
	row, ok := rows[0].(*types.Object)
	require.True(t, ok)
	name, ok := row.Get("name")
	require.True(t, ok)
	require.Equal(t, types.NewString("Alice"), name)
}

func TestExecuteSelectGroupByAggregates(t *testing.T) {
	ds := openTestDatastore(t)
	defineSchema(t, ds, "sale")

	seed := []string{
		`CREATE sale CONTENT { region: 'A', amount: 10 };`,
		`CREATE sale CONTENT { region: 'A', amount: 20 };`,
		`CREATE sale CONTENT { region: 'B', amount: 5 };`,
	}
	for _, q := range seed {
		_, err := ds.Execute(context.Background(), "ns", "db", q, nil)
		require.NoError(t, err)
	}

	results, err := ds.Execute(context.Background(), "ns", "db",
		`SELECT region, sum(amount) AS total FROM sale GROUP BY region ORDER BY region;`, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)

	rows, ok := results[0].(types.Array)
	require.True(t, ok)
	require.Len(t, rows, 2)

	a, ok := rows[0].(*types.Object)
	require.True(t, ok)
	region, _ := a.Get("region")
	total, _ := a.Get("total")
	require.Equal(t, types.NewString("A"), region)
	require.Equal(t, types.NewNumberValue(types.NewInt(30)), total)
}

func TestExecuteDeleteRemovesRow(t *testing.T) {
	ds := openTestDatastore(t)
	defineSchema(t, ds, "person")

	_, err := ds.Execute(context.Background(), "ns", "db", `CREATE person:"bob" CONTENT { name: "Bob" };`, nil)
	require.NoError(t, err)
	_, err = ds.Execute(context.Background(), "ns", "db", `DELETE person:"bob";`, nil)
	require.NoError(t, err)

	results, err := ds.Execute(context.Background(), "ns", "db", `SELECT name FROM person;`, nil)
	require.NoError(t, err)
	rows, ok := results[0].(types.Array)
	require.True(t, ok)
	require.Empty(t, rows)
}
