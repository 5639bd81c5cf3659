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

package memkv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPutGetCommitVisibility(t *testing.T) {
	ctx := context.Background()
	b := New()

	rw, err := b.BeginRw(ctx)
	require.NoError(t, err)
	require.NoError(t, rw.Put([]byte("a"), []byte("1")))
	_, ok, err := rw.Get([]byte("a"))
	require.NoError(t, err)
	require.True(t, ok, "writer sees its own uncommitted write")

	ro, err := b.BeginRo(ctx)
	require.NoError(t, err)
	_, ok, err = ro.Get([]byte("a"))
	require.NoError(t, err)
	require.False(t, ok, "reader snapshot predates the writer's commit")
	ro.Rollback()

	require.NoError(t, rw.Commit())

	ro2, err := b.BeginRo(ctx)
	require.NoError(t, err)
	v, ok, err := ro2.Get([]byte("a"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "1", string(v))
	ro2.Rollback()
}

func TestRollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	b := New()
	rw, err := b.BeginRw(ctx)
	require.NoError(t, err)
	require.NoError(t, rw.Put([]byte("x"), []byte("1")))
	rw.Rollback()

	ro, err := b.BeginRo(ctx)
	require.NoError(t, err)
	_, ok, err := ro.Get([]byte("x"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCursorOrdering(t *testing.T) {
	ctx := context.Background()
	b := New()
	rw, err := b.BeginRw(ctx)
	require.NoError(t, err)
	for _, k := range []string{"b", "a", "c"} {
		require.NoError(t, rw.Put([]byte(k), []byte(k)))
	}
	require.NoError(t, rw.Commit())

	ro, err := b.BeginRo(ctx)
	require.NoError(t, err)
	cur, err := ro.Cursor()
	require.NoError(t, err)
	var got []string
	for k, _, err := cur.First(); k != nil; k, _, err = cur.Next() {
		require.NoError(t, err)
		got = append(got, string(k))
	}
	require.Equal(t, []string{"a", "b", "c"}, got)
}

func TestWritersSerialize(t *testing.T) {
	ctx := context.Background()
	b := New()
	rw1, err := b.BeginRw(ctx)
	require.NoError(t, err)

	ctx2, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		_, err := b.BeginRw(ctx2)
		require.ErrorIs(t, err, context.Canceled)
		close(done)
	}()
	cancel()
	<-done
	require.NoError(t, rw1.Commit())
}
