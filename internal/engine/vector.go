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

package engine

import (
	"fmt"
	"hash/maphash"
	"sync"

	"github.com/corvidb/corvid/internal/catalog"
	"github.com/corvidb/corvid/internal/index/hnsw"
	"github.com/corvidb/corvid/internal/types"
)

// vectorIndex is the live HNSW graph backing one DEFINE INDEX ... HNSW
// definition. internal/index/hnsw is a pure in-memory structure (it
// defers persistence to the indexed field's own stored vector, spec.md
// §4.7), so the graph is rebuilt from the raw write path as rows are
// indexed rather than loaded from the KV backend; a process restart loses
// it the same way the original's own in-memory-only HNSW graph does.
//
// hnsw.Index is keyed by a caller-allocated uint64 element id and
// hnsw.Docs only deduplicates identical vectors onto one such id without
// allocating it, so vectorIndex owns the id allocator and the two maps
// translating between a vector and the record ids currently mapped to it.
type vectorIndex struct {
	mu     sync.Mutex
	graph  *hnsw.Index
	docs   *hnsw.Docs
	byVec  map[string]uint64               // vector key -> graph element id
	docIDs map[uint64][]types.RecordIDKey // graph element id -> records sharing that vector
	nextID uint64
}

func newVectorIndex(p catalog.HNSWParams) *vectorIndex {
	return &vectorIndex{
		graph:  hnsw.New(hnswParams(p), 0),
		docs:   hnsw.NewDocs(false, maphash.MakeSeed()),
		byVec:  make(map[string]uint64),
		docIDs: make(map[uint64][]types.RecordIDKey),
	}
}

func hnswParams(p catalog.HNSWParams) hnsw.Params {
	return hnsw.Params{
		Dimension:      p.Dimension,
		M:              p.M,
		M0:             p.M0,
		EfConstruction: p.EfConstruction,
		EfSearch:       p.EfSearch,
		Metric:         hnswMetric(p.Distance),
	}
}

func hnswMetric(name string) hnsw.Metric {
	switch name {
	case "manhattan":
		return hnsw.Manhattan
	case "cosine":
		return hnsw.Cosine
	case "hamming":
		return hnsw.Hamming
	case "jaccard":
		return hnsw.Jaccard
	case "chebyshev":
		return hnsw.Chebyshev
	case "minkowski":
		return hnsw.Minkowski
	case "pearson":
		return hnsw.Pearson
	default:
		return hnsw.Euclidean
	}
}

func vectorKey(v []float64) string { return fmt.Sprint(v) }

func (vi *vectorIndex) insert(id types.RecordIDKey, vector []float64) {
	vi.mu.Lock()
	defer vi.mu.Unlock()

	docKey := fmt.Sprint(id)
	elVec, isNew := vi.docs.Insert(docKey, vector)
	key := vectorKey(elVec)
	var eid uint64
	if isNew {
		eid = vi.nextID
		vi.nextID++
		vi.byVec[key] = eid
		vi.graph.Insert(eid, elVec)
	} else {
		eid = vi.byVec[key]
	}
	vi.docIDs[eid] = append(vi.docIDs[eid], id)
}

func (vi *vectorIndex) remove(id types.RecordIDKey, vector []float64) {
	vi.mu.Lock()
	defer vi.mu.Unlock()

	docKey := fmt.Sprint(id)
	key := vectorKey(vector)
	eid, tracked := vi.byVec[key]
	if tracked {
		ids := vi.docIDs[eid]
		for i, existing := range ids {
			if fmt.Sprint(existing) == docKey {
				ids = append(ids[:i], ids[i+1:]...)
				break
			}
		}
		if len(ids) == 0 {
			delete(vi.docIDs, eid)
		} else {
			vi.docIDs[eid] = ids
		}
	}
	if vi.docs.Remove(docKey, vector) && tracked {
		vi.graph.Delete(eid)
		delete(vi.byVec, key)
	}
}

// vectorHit is one KNN search result: a record id sharing the matched
// graph element's vector, paired with that element's distance to the
// query.
type vectorHit struct {
	ID   types.RecordIDKey
	Dist float64
}

func (vi *vectorIndex) search(query []float64, k int) []vectorHit {
	vi.mu.Lock()
	defer vi.mu.Unlock()

	var hits []vectorHit
	for _, n := range vi.graph.Search(query, k, nil, nil) {
		for _, id := range vi.docIDs[n.ID] {
			hits = append(hits, vectorHit{ID: id, Dist: n.Dist})
		}
	}
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// vectorIndexFor returns the live graph for one (ns, db, tb, index),
// building it lazily on first use.
func (d *Datastore) vectorIndexFor(ns, db, tb string, ix catalog.IndexDef) *vectorIndex {
	key := ns + "\x00" + db + "\x00" + tb + "\x00" + ix.Name

	d.vecMu.Lock()
	defer d.vecMu.Unlock()
	vi, ok := d.vecIndexes[key]
	if !ok {
		vi = newVectorIndex(ix.HNSW)
		d.vecIndexes[key] = vi
	}
	return vi
}
