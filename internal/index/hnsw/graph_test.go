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

package hnsw

import (
	"hash/maphash"
	"testing"

	"github.com/stretchr/testify/require"
)

func testParams() Params {
	return Params{
		Dimension:      2,
		M:              8,
		M0:             16,
		EfConstruction: 32,
		EfSearch:       16,
		Metric:         Euclidean,
	}
}

func TestInsertAndSearchFindsNearest(t *testing.T) {
	idx := New(testParams(), 42)
	points := map[uint64][]float64{
		1: {0, 0},
		2: {1, 1},
		3: {10, 10},
		4: {10, 11},
		5: {-5, -5},
	}
	for id := uint64(1); id <= 5; id++ {
		idx.Insert(id, points[id])
	}
	require.Equal(t, 5, idx.Len())

	results := idx.Search([]float64{9.5, 10.5}, 2, nil, nil)
	require.Len(t, results, 2)
	ids := map[uint64]bool{results[0].ID: true, results[1].ID: true}
	require.True(t, ids[3] || ids[4])
}

func TestSearchHonoursFilter(t *testing.T) {
	idx := New(testParams(), 7)
	idx.Insert(1, []float64{0, 0})
	idx.Insert(2, []float64{0.1, 0.1})
	idx.Insert(3, []float64{20, 20})

	filtered := idx.Search([]float64{0, 0}, 3, func(id uint64) bool { return id != 1 }, nil)
	for _, r := range filtered {
		require.NotEqual(t, uint64(1), r.ID)
	}
}

func TestDeletePromotesNewEntryPoint(t *testing.T) {
	idx := New(testParams(), 3)
	idx.Insert(1, []float64{0, 0})
	idx.Insert(2, []float64{5, 5})
	idx.Insert(3, []float64{9, 9})

	entry := idx.entryPoint
	idx.Delete(entry)
	require.Equal(t, 2, idx.Len())
	_, stillThere := idx.elements[entry]
	require.False(t, stillThere)
	require.True(t, idx.hasEntry, "a remaining element becomes the entry point")
	require.NotEqual(t, entry, idx.entryPoint)
}

func TestDocsDeduplicatesIdenticalVectors(t *testing.T) {
	docs := NewDocs(false, maphash.MakeSeed())
	v := []float64{1, 2, 3}

	_, isNew1 := docs.Insert("rec:1", v)
	require.True(t, isNew1)

	_, isNew2 := docs.Insert("rec:2", v)
	require.False(t, isNew2, "second doc mapping to the same vector should not be a new element")

	removedAll := docs.Remove("rec:1", v)
	require.False(t, removedAll, "doc set still has rec:2")

	removedAll = docs.Remove("rec:2", v)
	require.True(t, removedAll, "last doc removed should report element removal")
}

func TestDocsHashedModeDistinguishesVectors(t *testing.T) {
	docs := NewDocs(true, maphash.MakeSeed())
	a := []float64{1, 2}
	b := []float64{3, 4}

	_, newA := docs.Insert("rec:a", a)
	_, newB := docs.Insert("rec:b", b)
	require.True(t, newA)
	require.True(t, newB)

	_, dupA := docs.Insert("rec:a2", a)
	require.False(t, dupA)
}

func TestDistanceMetrics(t *testing.T) {
	a := []float64{1, 0}
	b := []float64{0, 1}
	require.InDelta(t, 1.4142135623730951, Distance(Euclidean, 0, a, b), 1e-9)
	require.InDelta(t, 2.0, Distance(Manhattan, 0, a, b), 1e-9)
	require.InDelta(t, 1.0, Distance(Cosine, 0, a, b), 1e-9)
}
