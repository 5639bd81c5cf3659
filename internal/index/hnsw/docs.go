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
	"encoding/binary"
	"fmt"
	"hash/maphash"
	"math"
)

// docSet is a set of record keys sharing one vector.
type docSet map[string]bool

// vectorEntry pairs a vector with the docs currently mapped to it; only
// used when UseHashedVector is true, since a hash collision can alias two
// distinct vectors onto the same bucket.
type vectorEntry struct {
	Vector []float64
	Docs   docSet
}

// Docs is the vector deduplication table spec.md §4.7 "Vector
// deduplication" describes: many record ids can share one HNSW element
// when their indexed field holds an identical vector, so only the first
// occurrence is actually inserted into the graph.
type Docs struct {
	useHashed bool
	seed      maphash.Seed
	byHash    map[uint64][]vectorEntry
	byBytes   map[string]docSet
}

// NewDocs constructs an empty table. useHashedVector mirrors the
// catalog-level option of the same name: true keys the table by a stable
// hash of the vector (bounded memory, tolerates very large vectors at the
// cost of keeping the vector itself alongside the hash to break ties),
// false keys it directly by the vector's exact byte encoding.
func NewDocs(useHashedVector bool, seed maphash.Seed) *Docs {
	return &Docs{
		useHashed: useHashedVector,
		seed:      seed,
		byHash:    make(map[uint64][]vectorEntry),
		byBytes:   make(map[string]docSet),
	}
}

func vectorBytes(v []float64) string {
	buf := make([]byte, 8*len(v))
	for i, f := range v {
		binary.BigEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return string(buf)
}

func (d *Docs) hashOf(v []float64) uint64 {
	var h maphash.Hash
	h.SetSeed(d.seed)
	h.WriteString(vectorBytes(v))
	return h.Sum64()
}

// Insert records that doc maps to vector. It returns (elementVector,
// isNewElement): isNewElement is true the first time this vector is seen,
// meaning the caller must also insert it into the HNSW graph; on
// subsequent calls for an identical vector the existing doc set simply
// gains another member and the graph is left untouched (spec.md §4.7
// "Insertion of an already-present vector only appends to the doc-id
// set").
func (d *Docs) Insert(doc string, vector []float64) (elementVector []float64, isNewElement bool) {
	if !d.useHashed {
		key := vectorBytes(vector)
		set, ok := d.byBytes[key]
		if !ok {
			set = make(docSet)
			d.byBytes[key] = set
		}
		isNew := len(set) == 0
		set[doc] = true
		return vector, isNew
	}

	h := d.hashOf(vector)
	for i := range d.byHash[h] {
		if vectorEqual(d.byHash[h][i].Vector, vector) {
			d.byHash[h][i].Docs[doc] = true
			return d.byHash[h][i].Vector, false
		}
	}
	d.byHash[h] = append(d.byHash[h], vectorEntry{Vector: vector, Docs: docSet{doc: true}})
	return vector, true
}

// Remove deletes doc from vector's doc set. It returns true if the set
// became empty, meaning the caller must also remove the element from the
// HNSW graph (spec.md §4.7 "deletion removes the doc-id and, if the set
// becomes empty, removes the HNSW element").
func (d *Docs) Remove(doc string, vector []float64) (elementRemoved bool) {
	if !d.useHashed {
		key := vectorBytes(vector)
		set, ok := d.byBytes[key]
		if !ok {
			return false
		}
		delete(set, doc)
		if len(set) == 0 {
			delete(d.byBytes, key)
			return true
		}
		return false
	}

	h := d.hashOf(vector)
	entries := d.byHash[h]
	for i := range entries {
		if !vectorEqual(entries[i].Vector, vector) {
			continue
		}
		delete(entries[i].Docs, doc)
		if len(entries[i].Docs) == 0 {
			d.byHash[h] = append(entries[:i], entries[i+1:]...)
			if len(d.byHash[h]) == 0 {
				delete(d.byHash, h)
			}
			return true
		}
		return false
	}
	return false
}

func vectorEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// String summarizes the table (its keying mode and how many distinct
// vector keys it holds) for diagnostics and tests. Callers assign graph
// element ids separately (e.g. via a sequence counter).
func (d *Docs) String() string {
	return fmt.Sprintf("hnsw.Docs{hashed=%v, vectors=%d}", d.useHashed, len(d.byBytes)+len(d.byHash))
}
