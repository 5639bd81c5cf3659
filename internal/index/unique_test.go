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

package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corvidb/corvid/internal/corerr"
	"github.com/corvidb/corvid/internal/kv/memkv"
	"github.com/corvidb/corvid/internal/txn"
	"github.com/corvidb/corvid/internal/types"
)

func newTx(t *testing.T) *txn.Tx {
	t.Helper()
	tx, err := txn.Begin(context.Background(), memkv.New(), true, txn.DropNone, nil)
	require.NoError(t, err)
	return tx
}

func TestPutUniqueRejectsCollision(t *testing.T) {
	tx := newTx(t)
	fields := []types.Value{types.NewString("alice@example.com")}

	require.NoError(t, PutUnique(tx, "ns", "db", "person", "email_idx", fields, types.NewString("alice")))

	err := PutUnique(tx, "ns", "db", "person", "email_idx", fields, types.NewString("bob"))
	require.Error(t, err)
	var existsErr *corerr.IndexExistsError
	require.ErrorAs(t, err, &existsErr)
	require.Equal(t, "person:alice", existsErr.Thing)
}

func TestDeleteUniqueIgnoresStaleHolder(t *testing.T) {
	tx := newTx(t)
	fields := []types.Value{types.NewString("alice@example.com")}
	require.NoError(t, PutUnique(tx, "ns", "db", "person", "email_idx", fields, types.NewString("alice")))

	// Deleting with the wrong holder is a benign no-op, not an error.
	require.NoError(t, DeleteUnique(tx, "ns", "db", "person", "email_idx", fields, types.NewString("bob")))

	// The real holder can still be deleted afterwards.
	require.NoError(t, DeleteUnique(tx, "ns", "db", "person", "email_idx", fields, types.NewString("alice")))

	require.NoError(t, PutUnique(tx, "ns", "db", "person", "email_idx", fields, types.NewString("carol")))
}

func TestNonUniqueAllowsMultipleHolders(t *testing.T) {
	tx := newTx(t)
	fields := []types.Value{types.NewString("shared-tag")}

	require.NoError(t, PutNonUnique(tx, "ns", "db", "post", "tag_idx", fields, types.NewString("post1")))
	require.NoError(t, PutNonUnique(tx, "ns", "db", "post", "tag_idx", fields, types.NewString("post2")))
	require.NoError(t, DeleteNonUnique(tx, "ns", "db", "post", "tag_idx", fields, types.NewString("post1")))
}
