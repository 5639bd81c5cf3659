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
	"time"

	"github.com/stretchr/testify/require"

	"github.com/corvidb/corvid/internal/catalog"
	"github.com/corvidb/corvid/internal/keycodec"
	"github.com/corvidb/corvid/internal/kv/memkv"
	"github.com/corvidb/corvid/internal/txn"
)

func TestGCAllChangeLogsRemovesOnlyEntriesPastRetention(t *testing.T) {
	ctx := context.Background()
	backend := memkv.New()
	cat, err := catalog.Open(64)
	require.NoError(t, err)

	tx, err := txn.Begin(ctx, backend, true, txn.DropNone, nil)
	require.NoError(t, err)
	require.NoError(t, cat.DefineNamespace(tx, catalog.NamespaceDef{Name: "ns"}))
	require.NoError(t, cat.DefineDatabase(tx, "ns", catalog.DatabaseDef{Name: "db"}))
	require.NoError(t, cat.DefineTable(tx, "ns", "db", catalog.TableDef{Name: "person", Kind: catalog.TableNormal}))

	oldVS := keycodec.NewVersionstamp(uint64(time.Now().Add(-48*time.Hour).UnixNano()), 0)
	freshVS := keycodec.NewVersionstamp(uint64(time.Now().UnixNano()), 0)
	require.NoError(t, tx.Set(keycodec.ChangeLogKey("ns", "db", "person", oldVS), []byte("old-entry")))
	require.NoError(t, tx.Set(keycodec.ChangeLogKey("ns", "db", "person", freshVS), []byte("fresh-entry")))

	r := New(Config{Backend: backend, Catalog: cat, ChangeLogRetention: 24 * time.Hour})
	removed, err := r.gcAllChangeLogs(ctx, tx)
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	pairs, err := tx.Scan(ctx, keycodec.ChangeLogPrefix("ns", "db", "person"),
		keycodec.Successor(keycodec.ChangeLogPrefix("ns", "db", "person")), 256)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	require.Equal(t, "fresh-entry", string(pairs[0].Val))
}

func TestGCTableChangeLogLeavesNothingOnSecondPass(t *testing.T) {
	ctx := context.Background()
	backend := memkv.New()
	cat, err := catalog.Open(64)
	require.NoError(t, err)

	tx, err := txn.Begin(ctx, backend, true, txn.DropNone, nil)
	require.NoError(t, err)
	require.NoError(t, cat.DefineNamespace(tx, catalog.NamespaceDef{Name: "ns"}))
	require.NoError(t, cat.DefineDatabase(tx, "ns", catalog.DatabaseDef{Name: "db"}))
	require.NoError(t, cat.DefineTable(tx, "ns", "db", catalog.TableDef{Name: "person", Kind: catalog.TableNormal}))

	oldVS := keycodec.NewVersionstamp(uint64(time.Now().Add(-48*time.Hour).UnixNano()), 0)
	require.NoError(t, tx.Set(keycodec.ChangeLogKey("ns", "db", "person", oldVS), []byte("old-entry")))

	cutoff := keycodec.NewVersionstamp(uint64(time.Now().Add(-24*time.Hour).UnixNano()), 0)
	r := New(Config{Backend: backend, Catalog: cat})
	removed, err := r.gcTableChangeLog(ctx, tx, "ns", "db", "person", cutoff)
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	removedAgain, err := r.gcTableChangeLog(ctx, tx, "ns", "db", "person", cutoff)
	require.NoError(t, err)
	require.Equal(t, 0, removedAgain)
}
