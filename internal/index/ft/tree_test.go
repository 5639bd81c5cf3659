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

package ft

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corvidb/corvid/internal/kv/memkv"
	"github.com/corvidb/corvid/internal/txn"
)

func TestResolveAllocatesAndReusesFreedIDs(t *testing.T) {
	ctx := context.Background()
	backend := memkv.New()
	tx, err := txn.Begin(ctx, backend, true, txn.DropNone, nil)
	require.NoError(t, err)

	tree, err := Open(ctx, tx, "ns", "db", "article", "body_search")
	require.NoError(t, err)

	id1 := tree.Resolve("hello")
	id2 := tree.Resolve("world")
	require.NotEqual(t, id1, id2)

	// re-resolving returns the same id
	require.Equal(t, id1, tree.Resolve("hello"))

	tree.Remove("hello")
	id3 := tree.Resolve("again")
	require.Equal(t, id1, id3, "freed id should be reused before advancing the counter")

	require.NoError(t, tree.Finish(tx))
}

func TestTreePersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	backend := memkv.New()
	tx, err := txn.Begin(ctx, backend, true, txn.DropNone, nil)
	require.NoError(t, err)

	tree, err := Open(ctx, tx, "ns", "db", "article", "body_search")
	require.NoError(t, err)
	tree.Resolve("quick")
	tree.Resolve("brown")
	tree.Resolve("fox")
	require.NoError(t, tree.Finish(tx))

	reopened, err := Open(ctx, tx, "ns", "db", "article", "body_search")
	require.NoError(t, err)
	id, ok := reopened.Lookup("brown")
	require.True(t, ok)
	require.Greater(t, id, uint64(0))

	ids := reopened.PrefixScan("br")
	require.Contains(t, ids, id)
}
