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

package boltkv

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenLocksDirectory(t *testing.T) {
	dir := t.TempDir()
	b1, err := Open(dir)
	require.NoError(t, err)
	defer b1.Close()

	_, err = Open(dir)
	require.Error(t, err, "a second Open on the same directory must fail")
}

func TestPutGetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	b, err := Open(dir)
	require.NoError(t, err)
	defer b.Close()
	ctx := context.Background()

	rw, err := b.BeginRw(ctx)
	require.NoError(t, err)
	require.NoError(t, rw.Put([]byte("k"), []byte("v")))
	require.NoError(t, rw.Commit())

	ro, err := b.BeginRo(ctx)
	require.NoError(t, err)
	v, ok, err := ro.Get([]byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", string(v))
	ro.Rollback()
}

func TestLargeValueCompressedRoundTrip(t *testing.T) {
	dir := t.TempDir()
	b, err := Open(dir)
	require.NoError(t, err)
	defer b.Close()
	ctx := context.Background()

	big := bytes.Repeat([]byte("corvid"), 1000)
	rw, err := b.BeginRw(ctx)
	require.NoError(t, err)
	require.NoError(t, rw.Put([]byte("big"), big))
	require.NoError(t, rw.Commit())

	ro, err := b.BeginRo(ctx)
	require.NoError(t, err)
	v, ok, err := ro.Get([]byte("big"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, big, v)
	ro.Rollback()
}

func TestDeleteRemovesKey(t *testing.T) {
	dir := t.TempDir()
	b, err := Open(dir)
	require.NoError(t, err)
	defer b.Close()
	ctx := context.Background()

	rw, err := b.BeginRw(ctx)
	require.NoError(t, err)
	require.NoError(t, rw.Put([]byte("k"), []byte("v")))
	require.NoError(t, rw.Delete([]byte("k")))
	require.NoError(t, rw.Commit())

	ro, err := b.BeginRo(ctx)
	require.NoError(t, err)
	_, ok, err := ro.Get([]byte("k"))
	require.NoError(t, err)
	require.False(t, ok)
	ro.Rollback()
}

func TestReopenAfterCloseReusesDirectory(t *testing.T) {
	dir := t.TempDir()
	b, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, b.Close())

	b2, err := Open(dir)
	require.NoError(t, err)
	defer b2.Close()
}
