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

	"github.com/corvidb/corvid/internal/keycodec"
	"github.com/corvidb/corvid/internal/kv/memkv"
	"github.com/corvidb/corvid/internal/txn"
)

func TestNodeStateEncodeDecodeRoundTrips(t *testing.T) {
	s := nodeState{LastHeartbeat: time.Unix(1700000000, 0), Archived: true, ArchivedAt: time.Unix(1700000100, 0)}
	decoded, err := decodeNodeState(encodeNodeState(s))
	require.NoError(t, err)
	require.True(t, decoded.LastHeartbeat.Equal(s.LastHeartbeat))
	require.True(t, decoded.Archived)
	require.True(t, decoded.ArchivedAt.Equal(s.ArchivedAt))
}

func TestArchiveExpiredNodesArchivesPastDeadline(t *testing.T) {
	ctx := context.Background()
	backend := memkv.New()
	tx, err := txn.Begin(ctx, backend, true, txn.DropNone, nil)
	require.NoError(t, err)

	old := nodeState{LastHeartbeat: time.Now().Add(-time.Hour)}
	fresh := nodeState{LastHeartbeat: time.Now()}
	require.NoError(t, tx.Set(keycodec.MembershipKey("node-old"), encodeNodeState(old)))
	require.NoError(t, tx.Set(keycodec.MembershipKey("node-fresh"), encodeNodeState(fresh)))

	r := New(Config{Backend: backend, NodeID: "node-self", MembershipDeadline: 15 * time.Second})
	require.NoError(t, r.archiveExpiredNodes(ctx, tx))

	oldRaw, ok, err := tx.Get(keycodec.MembershipKey("node-old"))
	require.NoError(t, err)
	require.True(t, ok)
	oldDecoded, err := decodeNodeState(oldRaw)
	require.NoError(t, err)
	require.True(t, oldDecoded.Archived)

	freshRaw, ok, err := tx.Get(keycodec.MembershipKey("node-fresh"))
	require.NoError(t, err)
	require.True(t, ok)
	freshDecoded, err := decodeNodeState(freshRaw)
	require.NoError(t, err)
	require.False(t, freshDecoded.Archived)
}

func TestRemoveStaleArchivedNodesRespectsGracePeriod(t *testing.T) {
	ctx := context.Background()
	backend := memkv.New()
	tx, err := txn.Begin(ctx, backend, true, txn.DropNone, nil)
	require.NoError(t, err)

	longArchived := nodeState{Archived: true, ArchivedAt: time.Now().Add(-2 * time.Hour)}
	recentlyArchived := nodeState{Archived: true, ArchivedAt: time.Now()}
	require.NoError(t, tx.Set(keycodec.MembershipKey("node-stale"), encodeNodeState(longArchived)))
	require.NoError(t, tx.Set(keycodec.MembershipKey("node-recent"), encodeNodeState(recentlyArchived)))

	r := New(Config{Backend: backend, ArchiveGracePeriod: time.Hour})
	require.NoError(t, r.removeStaleArchivedNodes(ctx, tx))

	_, ok, err := tx.Get(keycodec.MembershipKey("node-stale"))
	require.NoError(t, err)
	require.False(t, ok, "node past the grace period should be removed")

	_, ok, err = tx.Get(keycodec.MembershipKey("node-recent"))
	require.NoError(t, err)
	require.True(t, ok, "node still within the grace period should remain")
}
