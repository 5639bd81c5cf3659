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

package keycodec

import (
	"bytes"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corvidb/corvid/internal/types"
)

func TestStringOrderingAcrossLength(t *testing.T) {
	a := new(builder).encodeString("a").buf
	aa := new(builder).encodeString("aa").buf
	require.Equal(t, -1, bytes.Compare(a, aa), `"a" must sort before "aa"`)
}

func TestStringRoundTrip(t *testing.T) {
	for _, s := range []string{"", "plain", "has\x00embedded", "unicode✓"} {
		enc := new(builder).encodeString(s).buf
		got, rest, err := decodeString(enc)
		require.NoError(t, err)
		require.Empty(t, rest)
		require.Equal(t, s, got)
	}
}

func TestUintOrderPreserving(t *testing.T) {
	vals := []uint64{0, 1, 255, 256, 1 << 40, ^uint64(0)}
	var encoded [][]byte
	for _, v := range vals {
		encoded = append(encoded, new(builder).encodeUint(v).buf)
	}
	for i := 1; i < len(encoded); i++ {
		require.Equal(t, -1, bytes.Compare(encoded[i-1], encoded[i]))
	}
}

func TestIntZigZagOrderPreserving(t *testing.T) {
	vals := []int64{-1000, -1, 0, 1, 1000}
	sorted := append([]int64(nil), vals...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	require.Equal(t, vals, sorted)

	var encoded [][]byte
	for _, v := range vals {
		encoded = append(encoded, new(builder).encodeInt(v).buf)
	}
	for i := 1; i < len(encoded); i++ {
		require.Equal(t, -1, bytes.Compare(encoded[i-1], encoded[i]))
	}
}

func TestIntRoundTrip(t *testing.T) {
	for _, v := range []int64{0, -1, 1, 1 << 62, -(1 << 62)} {
		enc := new(builder).encodeInt(v).buf
		got, rest, err := decodeInt(enc)
		require.NoError(t, err)
		require.Empty(t, rest)
		require.Equal(t, v, got)
	}
}

func TestRecordKeyOrdering(t *testing.T) {
	k1, err := RecordKey("test", "test", "person", types.NewString("alice"))
	require.NoError(t, err)
	k2, err := RecordKey("test", "test", "person", types.NewString("bob"))
	require.NoError(t, err)
	require.Equal(t, -1, bytes.Compare(k1, k2))

	prefix := RecordPrefix("test", "test", "person")
	require.True(t, bytes.HasPrefix(k1, prefix))
	require.True(t, bytes.HasPrefix(k2, prefix))

	suffix := RecordSuffix("test", "test", "person")
	require.Equal(t, -1, bytes.Compare(k1, suffix))
	require.Equal(t, -1, bytes.Compare(k2, suffix))
	require.Equal(t, -1, bytes.Compare(prefix, suffix))
}

func TestRecordKeyRejectsRangeID(t *testing.T) {
	rng := types.RangeValue{Start: types.NewUnbounded[types.Value](), End: types.NewUnbounded[types.Value]()}
	_, err := RecordKey("test", "test", "person", rng)
	require.Error(t, err)
}

func TestSuccessorHandlesFFRun(t *testing.T) {
	require.Equal(t, []byte{0x01, 0x01}, Successor([]byte{0x01, 0x00}))
	require.Nil(t, Successor([]byte{0xFF, 0xFF}))
	require.Equal(t, []byte{0x02}, Successor([]byte{0x01, 0xFF}))
}

func TestUniqueVsNonUniqueIndexKeyShape(t *testing.T) {
	fields := []types.Value{types.NewString("nick")}
	uk := UniqueIndexKey("test", "test", "person", "ix_nick", fields)

	nk, err := NonUniqueIndexKey("test", "test", "person", "ix_nick", fields, types.NewString("alice"))
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(nk, uk), "non-unique key must extend the unique key's field-tuple prefix")
	require.NotEqual(t, uk, nk)
}

func TestVersionstampOrdering(t *testing.T) {
	a := NewVersionstamp(1, 0)
	b := NewVersionstamp(1, 1)
	c := NewVersionstamp(2, 0)
	require.Equal(t, -1, a.Compare(b))
	require.Equal(t, -1, b.Compare(c))
	require.Equal(t, uint64(1), a.TxOrder())
	require.Equal(t, uint16(1), b.BatchOrder())
}

func TestVersionstampedKeyLayout(t *testing.T) {
	vs := NewVersionstamp(42, 7)
	out := VersionstampedKey([]byte("pre"), vs, []byte("suf"))
	require.Equal(t, "pre", string(out[:3]))
	require.Equal(t, "suf", string(out[len(out)-3:]))
	require.Len(t, out, 3+VersionstampSize+3)
}

func TestDecodeCategory(t *testing.T) {
	cases := []struct {
		name string
		key  []byte
		want Category
	}{
		{"namespace", NamespacePrefix("test"), CategoryNamespace},
		{"database", DatabasePrefix("test", "test"), CategoryDatabase},
		{"table", TablePrefix("test", "test", "person"), CategoryTable},
		{"record", RecordPrefix("test", "test", "person"), CategoryRecord},
		{"index_root", IndexRootKey("test", "test", "person", "ix_nick"), CategoryIndexRoot},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeCategory(tc.key)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestGraphEdgeKeyPrefix(t *testing.T) {
	id := types.NewString("alice")
	full, err := GraphEdgeKey("test", "test", "person", id, '>', "knows", types.NewString("bob"))
	require.NoError(t, err)
	prefix, err := GraphEdgePrefix("test", "test", "person", id, '>')
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(full, prefix))
}
