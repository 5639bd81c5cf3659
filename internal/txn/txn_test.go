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

package txn

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corvidb/corvid/internal/corerr"
	"github.com/corvidb/corvid/internal/keycodec"
	"github.com/corvidb/corvid/internal/kv/memkv"
)

func TestPutRejectsExisting(t *testing.T) {
	ctx := context.Background()
	backend := memkv.New()
	tx, err := Begin(ctx, backend, true, DropNone, nil)
	require.NoError(t, err)

	require.NoError(t, tx.Put([]byte("k"), []byte("v1"), keycodec.CategoryRecord))
	err = tx.Put([]byte("k"), []byte("v2"), keycodec.CategoryRecord)
	var exists *corerr.KeyAlreadyExistsError
	require.ErrorAs(t, err, &exists)
	require.Equal(t, "record", exists.Category)
	require.NoError(t, tx.Commit())
}

func TestPutcConditionalSet(t *testing.T) {
	ctx := context.Background()
	backend := memkv.New()
	tx, err := Begin(ctx, backend, true, DropNone, nil)
	require.NoError(t, err)

	require.NoError(t, tx.Putc([]byte("k"), []byte("v1"), nil, false))
	err = tx.Putc([]byte("k"), []byte("v2"), nil, false)
	require.ErrorIs(t, err, corerr.ErrConditionNotMet)

	require.NoError(t, tx.Putc([]byte("k"), []byte("v2"), []byte("v1"), true))
	v, ok, err := tx.Get([]byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v2", string(v))
	require.NoError(t, tx.Commit())
}

func TestDelcIgnoresMismatch(t *testing.T) {
	ctx := context.Background()
	backend := memkv.New()
	tx, err := Begin(ctx, backend, true, DropNone, nil)
	require.NoError(t, err)

	require.NoError(t, tx.Set([]byte("k"), []byte("v1")))
	require.NoError(t, tx.Delc([]byte("k"), []byte("wrong"), true))
	_, ok, err := tx.Get([]byte("k"))
	require.NoError(t, err)
	require.True(t, ok, "mismatched holder must be ignored, not deleted")

	require.NoError(t, tx.Delc([]byte("k"), []byte("v1"), true))
	_, ok, err = tx.Get([]byte("k"))
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, tx.Commit())
}

func TestReadonlyRejectsMutation(t *testing.T) {
	ctx := context.Background()
	backend := memkv.New()
	tx, err := Begin(ctx, backend, false, DropNone, nil)
	require.NoError(t, err)
	err = tx.Set([]byte("k"), []byte("v"))
	require.ErrorIs(t, err, corerr.ErrTxReadonly)
	require.NoError(t, tx.Cancel())
}

func TestDoneRejectsFurtherOps(t *testing.T) {
	ctx := context.Background()
	backend := memkv.New()
	tx, err := Begin(ctx, backend, true, DropNone, nil)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	err = tx.Set([]byte("k"), []byte("v"))
	require.ErrorIs(t, err, corerr.ErrTxFinished)
	err = tx.Commit()
	require.ErrorIs(t, err, corerr.ErrTxFinished)
}

func TestScanRespectsRangeAndLimit(t *testing.T) {
	ctx := context.Background()
	backend := memkv.New()
	tx, err := Begin(ctx, backend, true, DropNone, nil)
	require.NoError(t, err)
	for _, k := range []string{"a", "b", "c", "d"} {
		require.NoError(t, tx.Set([]byte(k), []byte(k)))
	}
	pairs, err := tx.Scan(ctx, []byte("b"), []byte("d"), 0)
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	require.Equal(t, "b", string(pairs[0].Key))
	require.Equal(t, "c", string(pairs[1].Key))

	limited, err := tx.Scan(ctx, []byte("a"), nil, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	require.NoError(t, tx.Commit())
}

func TestGetTimestampMonotone(t *testing.T) {
	ctx := context.Background()
	backend := memkv.New()
	tx, err := Begin(ctx, backend, true, DropNone, nil)
	require.NoError(t, err)

	tsKey := []byte("ts")
	v1, err := tx.GetTimestamp(tsKey)
	require.NoError(t, err)
	v2, err := tx.GetTimestamp(tsKey)
	require.NoError(t, err)
	require.Equal(t, -1, v1.Compare(v2))
	require.NoError(t, tx.Commit())
}

func TestGetVersionstampedKeyLayout(t *testing.T) {
	ctx := context.Background()
	backend := memkv.New()
	tx, err := Begin(ctx, backend, true, DropNone, nil)
	require.NoError(t, err)

	out, err := tx.GetVersionstampedKey([]byte("ts"), []byte("pre"), []byte("suf"))
	require.NoError(t, err)
	require.Equal(t, "pre", string(out[:3]))
	require.Equal(t, "suf", string(out[len(out)-3:]))
	require.NoError(t, tx.Commit())
}
