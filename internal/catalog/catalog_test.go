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

package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corvidb/corvid/internal/kv/memkv"
	"github.com/corvidb/corvid/internal/txn"
)

func newTestCatalog(t *testing.T) (*Catalog, *txn.Tx) {
	t.Helper()
	ctx := context.Background()
	backend := memkv.New()
	tx, err := txn.Begin(ctx, backend, true, txn.DropNone, nil)
	require.NoError(t, err)
	cat, err := Open(16)
	require.NoError(t, err)
	return cat, tx
}

func TestDefineAndListNamespaces(t *testing.T) {
	ctx := context.Background()
	cat, tx := newTestCatalog(t)

	require.NoError(t, cat.DefineNamespace(tx, NamespaceDef{Name: "app"}))
	require.NoError(t, cat.DefineNamespace(tx, NamespaceDef{Name: "test"}))

	nss, err := cat.Namespaces(ctx, tx)
	require.NoError(t, err)
	require.Len(t, nss, 2)
}

func TestDefinitionCacheInvalidatesOnRemove(t *testing.T) {
	ctx := context.Background()
	cat, tx := newTestCatalog(t)

	require.NoError(t, cat.DefineNamespace(tx, NamespaceDef{Name: "app"}))
	first, err := cat.Namespaces(ctx, tx)
	require.NoError(t, err)
	require.Len(t, first, 1)

	require.NoError(t, cat.RemoveNamespace(tx, "app"))
	second, err := cat.Namespaces(ctx, tx)
	require.NoError(t, err)
	require.Len(t, second, 0, "cache must be invalidated so reads observe their own writes")
}

func TestDefineTableFieldIndexEvent(t *testing.T) {
	ctx := context.Background()
	cat, tx := newTestCatalog(t)

	require.NoError(t, cat.DefineNamespace(tx, NamespaceDef{Name: "app"}))
	require.NoError(t, cat.DefineDatabase(tx, "app", DatabaseDef{Name: "main"}))
	require.NoError(t, cat.DefineTable(tx, "app", "main", TableDef{Name: "person", Kind: TableNormal, Schemafull: true}))
	require.NoError(t, cat.DefineField(tx, "app", "main", "person", FieldDef{Name: "name"}))
	require.NoError(t, cat.DefineIndex(tx, "app", "main", "person", IndexDef{Name: "idx_name", Kind: IndexUnique, Fields: []string{"name"}}))
	require.NoError(t, cat.DefineEvent(tx, "app", "main", "person", EventDef{Name: "on_create", When: "$event = 'CREATE'"}))

	tbs, err := cat.Tables(ctx, tx, "app", "main")
	require.NoError(t, err)
	require.Len(t, tbs, 1)
	require.Equal(t, "person", tbs[0].Name)

	fds, err := cat.Fields(ctx, tx, "app", "main", "person")
	require.NoError(t, err)
	require.Len(t, fds, 1)

	ixs, err := cat.Indexes(ctx, tx, "app", "main", "person")
	require.NoError(t, err)
	require.Len(t, ixs, 1)

	evs, err := cat.Events(ctx, tx, "app", "main", "person")
	require.NoError(t, err)
	require.Len(t, evs, 1)
}

func TestRecordCacheRoundTrip(t *testing.T) {
	cat, _ := newTestCatalog(t)
	key := []byte("/*app*main*person*s\x01name\x00\x00")

	_, ok := cat.CachedRecord(key)
	require.False(t, ok)

	cat.CacheRecord(key, []byte(`{"name":"ok"}`))
	v, ok := cat.CachedRecord(key)
	require.True(t, ok)
	require.Equal(t, `{"name":"ok"}`, string(v))

	cat.InvalidateRecord(key)
	_, ok = cat.CachedRecord(key)
	require.False(t, ok)
}

func TestScopedUsersAccessesGrants(t *testing.T) {
	ctx := context.Background()
	cat, tx := newTestCatalog(t)

	require.NoError(t, cat.DefineRootUser(tx, UserDef{Name: "root", Roles: []UserRole{RoleOwner}}))
	require.NoError(t, cat.DefineNamespaceUser(tx, "app", UserDef{Name: "nsadmin"}))
	require.NoError(t, cat.DefineDatabaseUser(tx, "app", "main", UserDef{Name: "dbuser"}))

	rus, err := cat.RootUsers(ctx, tx)
	require.NoError(t, err)
	require.Len(t, rus, 1)

	nus, err := cat.NamespaceUsers(ctx, tx, "app")
	require.NoError(t, err)
	require.Len(t, nus, 1)

	dus, err := cat.DatabaseUsers(ctx, tx, "app", "main")
	require.NoError(t, err)
	require.Len(t, dus, 1)
}
