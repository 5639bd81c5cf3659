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
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEvictionQueueOrdersBySoonestExpiry(t *testing.T) {
	q := newEvictionQueue()
	base := time.Now()
	q.schedule([]byte("late"), base.Add(time.Hour))
	q.schedule([]byte("soon"), base.Add(time.Minute))
	q.schedule([]byte("soonest"), base.Add(time.Second))

	next, ok := q.next()
	require.True(t, ok)
	require.Equal(t, "soonest", string(next.key))
}

func TestEvictionQueuePopExpiredOnlyReturnsDueEntries(t *testing.T) {
	q := newEvictionQueue()
	base := time.Now()
	q.schedule([]byte("past"), base.Add(-time.Second))
	q.schedule([]byte("future"), base.Add(time.Hour))

	due := q.popExpired(base)
	require.Len(t, due, 1)
	require.Equal(t, "past", string(due[0]))

	_, ok := q.next()
	require.True(t, ok, "the future entry should still be pending")
}
