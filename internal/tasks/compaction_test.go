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

package tasks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corvidb/corvid/internal/catalog"
	"github.com/corvidb/corvid/internal/index"
	"github.com/corvidb/corvid/internal/keycodec"
	"github.com/corvidb/corvid/internal/kv/memkv"
	"github.com/corvidb/corvid/internal/txn"
)

func TestCompactAllCountIndexesFoldsEveryTable(t *testing.T) {
	ctx := context.Background()
	backend := memkv.New()
	cat, err := catalog.Open(64)
	require.NoError(t, err)

	tx, err := txn.Begin(ctx, backend, true, txn.DropNone, nil)
	require.NoError(t, err)
	require.NoError(t, cat.DefineNamespace(tx, catalog.NamespaceDef{Name: "ns"}))
	require.NoError(t, cat.DefineDatabase(tx, "ns", catalog.DatabaseDef{Name: "db"}))
	require.NoError(t, cat.DefineTable(tx, "ns", "db", catalog.TableDef{Name: "person", Kind: catalog.TableNormal}))
	require.NoError(t, cat.DefineIndex(tx, "ns", "db", "person",
		catalog.IndexDef{Name: "row_count", Kind: catalog.IndexCount}))

	require.NoError(t, index.RecordDelta(tx, "ns", "db", "person", "row_count", "node-a", keycodec.NewVersionstamp(1, 0), 7))

	r := New(Config{Backend: backend, Catalog: cat})
	require.NoError(t, r.compactAllCountIndexes(ctx, tx))

	total, err := index.Count(tx, "ns", "db", "person", "row_count")
	require.NoError(t, err)
	require.EqualValues(t, 7, total)
}
