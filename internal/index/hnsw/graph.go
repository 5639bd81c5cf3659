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
	"math"
	"math/rand"
	"sort"
)

// Params mirrors catalog.HNSWParams without importing catalog, so this
// package stays a pure in-memory graph structure independent of the
// catalog/KV layers (unlike ft.Tree, which loads from and flushes to a
// txn.Tx through keycodec keys, the live HNSW graph is not itself
// KV-backed: spec.md §4.7 only
// ever describes its in-memory shape and defers persistence to the
// element vectors stored as ordinary document fields).
type Params struct {
	Dimension      int
	M              int
	M0             int
	EfConstruction int
	EfSearch       int
	Metric         Metric
	MinkowskiP     float64
}

type element struct {
	Vector []float64
	Layers []neighborSet // Layers[0] is layer 0, using M0; Layers[i>0] use M
}

// FilterFunc excludes a candidate id from search results (spec.md §4.7
// "Searches honour an optional filter function").
type FilterFunc func(id uint64) bool

// Index is one HNSW graph instance, rebuilt in memory from an index's
// stored elements and mutated in place as documents are written.
type Index struct {
	params      Params
	elements    map[uint64]*element
	entryPoint  uint64
	hasEntry    bool
	entryLayer  int
	levelFactor float64
	rng         *rand.Rand
}

// New constructs an empty graph for the given parameters. rngSeed should
// be derived from something stable (e.g. the index's versionstamp at open
// time) since this package cannot call time.Now/math/rand's global source
// without breaking the no-nondeterminism constraint callers must honor at
// the KV layer; passing 0 is fine for tests.
func New(p Params, rngSeed int64) *Index {
	m := p.M
	if m < 2 {
		m = 2
	}
	return &Index{
		params:      p,
		elements:    make(map[uint64]*element),
		levelFactor: 1 / math.Log(float64(m)),
		rng:         rand.New(rand.NewSource(rngSeed)),
	}
}

func (idx *Index) dist(a, b []float64) float64 {
	return Distance(idx.params.Metric, idx.params.MinkowskiP, a, b)
}

// randomLayer draws a layer ~ Geometric(1/ln(M)) (spec.md §4.7 step 1).
func (idx *Index) randomLayer() int {
	layer := int(math.Floor(-math.Log(idx.rng.Float64()) * idx.levelFactor))
	return layer
}

func degreeBound(layer int, p Params) int {
	if layer == 0 {
		return p.M0
	}
	return p.M
}

// Insert adds id with the given vector, implementing spec.md §4.7's
// four-step insertion algorithm.
func (idx *Index) Insert(id uint64, vector []float64) {
	layer := idx.randomLayer()
	el := &element{Vector: vector, Layers: make([]neighborSet, layer+1)}
	for l := 0; l <= layer; l++ {
		el.Layers[l] = newNeighborSet(degreeBound(l, idx.params))
	}
	idx.elements[id] = el

	if !idx.hasEntry {
		idx.entryPoint, idx.entryLayer, idx.hasEntry = id, layer, true
		return
	}

	// Step 2: greedy single-neighbour descent from the top entry point down
	// to chosen layer + 1.
	cur := idx.entryPoint
	curDist := idx.dist(vector, idx.elements[cur].Vector)
	for l := idx.entryLayer; l > layer; l-- {
		cur, curDist = idx.greedyDescend(cur, curDist, vector, l)
	}

	// Step 3: at each layer <= chosen, beam search then link bidirectionally
	// with heuristic pruning.
	entryForLayer := cur
	top := layer
	if idx.entryLayer < top {
		top = idx.entryLayer
	}
	for l := top; l >= 0; l-- {
		candidates := idx.searchLayer(entryForLayer, vector, idx.params.EfConstruction, l, nil, nil)
		selected := selectNeighborsHeuristic(candidates, degreeBound(l, idx.params), vector, idx)
		for _, c := range selected {
			el.Layers[l].add(c.ID, c.Dist)
			other := idx.elements[c.ID]
			if l < len(other.Layers) {
				other.Layers[l].add(id, c.Dist)
				idx.trimLayer(other, l)
			}
		}
		if len(candidates) > 0 {
			entryForLayer = candidates[0].ID
		}
	}

	// Step 4: promote entry point if this element is the tallest seen.
	if layer > idx.entryLayer {
		idx.entryPoint, idx.entryLayer = id, layer
	}
}

func (idx *Index) trimLayer(el *element, layer int) {
	bound := degreeBound(layer, idx.params)
	set := el.Layers[layer]
	if set.len() <= bound {
		return
	}
	items := set.items()
	sort.Slice(items, func(i, j int) bool { return items[i].Dist < items[j].Dist })
	keep := items[:bound]
	kept := make(map[uint64]bool, len(keep))
	for _, k := range keep {
		kept[k.ID] = true
	}
	for _, it := range items {
		if !kept[it.ID] {
			set.remove(it.ID)
		}
	}
}

func (idx *Index) greedyDescend(from uint64, fromDist float64, query []float64, layer int) (uint64, float64) {
	cur, curDist := from, fromDist
	for {
		improved := false
		if layer < len(idx.elements[cur].Layers) {
			for _, n := range idx.elements[cur].Layers[layer].items() {
				d := idx.dist(query, idx.elements[n.ID].Vector)
				if d < curDist {
					cur, curDist = n.ID, d
					improved = true
				}
			}
		}
		if !improved {
			return cur, curDist
		}
	}
}

// searchLayer runs an ef-beam search at one layer from entry, honoring an
// optional id filter and an optional "pending docs" predicate (spec.md
// §4.7 "Searches honour an optional filter function and an optional
// 'pending docs' bitmap of ids currently being mutated").
func (idx *Index) searchLayer(entry uint64, query []float64, ef int, layer int, filter FilterFunc, pending func(uint64) bool) []neighbor {
	visited := map[uint64]bool{entry: true}
	entryDist := idx.dist(query, idx.elements[entry].Vector)
	candidates := []neighbor{{ID: entry, Dist: entryDist}}
	var results []neighbor
	if !excluded(entry, filter, pending) {
		results = append(results, neighbor{ID: entry, Dist: entryDist})
	}

	for len(candidates) > 0 {
		sort.Slice(candidates, func(i, j int) bool { return candidates[i].Dist < candidates[j].Dist })
		c := candidates[0]
		candidates = candidates[1:]

		if len(results) >= ef {
			worstKept := worstDist(results, ef)
			if c.Dist > worstKept {
				break
			}
		}

		el := idx.elements[c.ID]
		if layer >= len(el.Layers) {
			continue
		}
		for _, n := range el.Layers[layer].items() {
			if visited[n.ID] {
				continue
			}
			visited[n.ID] = true
			d := idx.dist(query, idx.elements[n.ID].Vector)
			candidates = append(candidates, neighbor{ID: n.ID, Dist: d})
			if !excluded(n.ID, filter, pending) {
				results = append(results, neighbor{ID: n.ID, Dist: d})
			}
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Dist < results[j].Dist })
	if len(results) > ef {
		results = results[:ef]
	}
	return results
}

func excluded(id uint64, filter FilterFunc, pending func(uint64) bool) bool {
	if filter != nil && !filter(id) {
		return true
	}
	if pending != nil && pending(id) {
		return true
	}
	return false
}

func worstDist(results []neighbor, ef int) float64 {
	n := len(results)
	if n > ef {
		n = ef
	}
	worst := 0.0
	for i := 0; i < n; i++ {
		if results[i].Dist > worst {
			worst = results[i].Dist
		}
	}
	return worst
}

// selectNeighborsHeuristic keeps up to bound candidates, skipping any
// candidate that is strictly worse (farther from query) than one already
// kept is to that same kept candidate (spec.md §4.7 "a heuristic pruning
// step (skip candidates strictly worse than a kept candidate to the same
// query)").
func selectNeighborsHeuristic(candidates []neighbor, bound int, query []float64, idx *Index) []neighbor {
	sorted := make([]neighbor, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Dist < sorted[j].Dist })

	var kept []neighbor
	for _, c := range sorted {
		if len(kept) >= bound {
			break
		}
		good := true
		for _, k := range kept {
			if idx.dist(idx.elements[c.ID].Vector, idx.elements[k.ID].Vector) < c.Dist {
				good = false
				break
			}
		}
		if good {
			kept = append(kept, c)
		}
	}
	return kept
}

// Search returns up to k nearest neighbours of query, honoring an optional
// filter and pending-docs predicate.
func (idx *Index) Search(query []float64, k int, filter FilterFunc, pending func(uint64) bool) []neighbor {
	if !idx.hasEntry {
		return nil
	}
	cur := idx.entryPoint
	curDist := idx.dist(query, idx.elements[cur].Vector)
	for l := idx.entryLayer; l > 0; l-- {
		cur, curDist = idx.greedyDescend(cur, curDist, query, l)
	}
	ef := idx.params.EfSearch
	if ef < k {
		ef = k
	}
	results := idx.searchLayer(cur, query, ef, 0, filter, pending)
	if len(results) > k {
		results = results[:k]
	}
	return results
}

// Delete removes id from every layer it participates in, promoting a new
// entry point if id was it (spec.md §4.7 "Deletion removes from every
// layer; if the deleted node was the entry, promote the next-highest node
// with elements to the new entry").
func (idx *Index) Delete(id uint64) {
	el, ok := idx.elements[id]
	if !ok {
		return
	}
	for l, set := range el.Layers {
		for _, n := range set.items() {
			other := idx.elements[n.ID]
			if l < len(other.Layers) {
				other.Layers[l].remove(id)
			}
		}
	}
	delete(idx.elements, id)

	if idx.entryPoint == id {
		idx.promoteEntryPoint()
	}
}

func (idx *Index) promoteEntryPoint() {
	idx.hasEntry = false
	bestLayer := -1
	var bestID uint64
	for candidateID, el := range idx.elements {
		l := len(el.Layers) - 1
		if l > bestLayer {
			bestLayer, bestID = l, candidateID
			idx.hasEntry = true
		}
	}
	if idx.hasEntry {
		idx.entryPoint, idx.entryLayer = bestID, bestLayer
	}
}

// Len reports how many elements the graph currently holds.
func (idx *Index) Len() int { return len(idx.elements) }
