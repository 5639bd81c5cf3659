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

	"github.com/corvidb/corvid/internal/keycodec"
)

func TestCompactSumsDeltasFromMultipleNodes(t *testing.T) {
	ctx := context.Background()
	tx := newTx(t)

	require.NoError(t, RecordDelta(tx, "ns", "db", "person", "row_count", "node-a", keycodec.NewVersionstamp(1, 0), 3))
	require.NoError(t, RecordDelta(tx, "ns", "db", "person", "row_count", "node-b", keycodec.NewVersionstamp(1, 0), 2))
	require.NoError(t, RecordDelta(tx, "ns", "db", "person", "row_count", "node-a", keycodec.NewVersionstamp(2, 0), -1))

	total, err := Compact(ctx, tx, "ns", "db", "person", "row_count")
	require.NoError(t, err)
	require.EqualValues(t, 4, total)

	count, err := Count(tx, "ns", "db", "person", "row_count")
	require.NoError(t, err)
	require.EqualValues(t, 4, count)
}

func TestCompactIsIdempotentOnceDeltasAreDrained(t *testing.T) {
	ctx := context.Background()
	tx := newTx(t)

	require.NoError(t, RecordDelta(tx, "ns", "db", "person", "row_count", "node-a", keycodec.NewVersionstamp(1, 0), 5))
	first, err := Compact(ctx, tx, "ns", "db", "person", "row_count")
	require.NoError(t, err)
	require.EqualValues(t, 5, first)

	second, err := Compact(ctx, tx, "ns", "db", "person", "row_count")
	require.NoError(t, err)
	require.EqualValues(t, 5, second, "compacting again with no new deltas leaves the total unchanged")
}
