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

// arraySetCapLimit is the largest neighbour-set size this package still
// backs with a fixed-capacity slice (spec.md §4.7 "a fixed-capacity array
// (up to 29 slots) or a hashed set for larger"). Above it, newNeighborSet
// returns the map-backed implementation instead.
const arraySetCapLimit = 29

// neighborSet holds one node's links at one HNSW layer. Two
// implementations exist purely for memory shape, not behavior: an
// array-backed set for small, fixed degree bounds (most layers above 0 use
// M, the construction-time degree bound, which is typically small) and a
// map-backed set once the degree bound exceeds arraySetCapLimit. This
// mirrors the original's per-(M, M0) generic ArraySet<N>/AHashSet dispatch
// (flavor.rs) collapsed to one runtime choice rather than 14 compile-time
// monomorphizations, since Go has no const generics to mirror that
// directly.
type neighborSet interface {
	add(id uint64, dist float64)
	remove(id uint64)
	contains(id uint64) bool
	items() []neighbor
	len() int
}

type neighbor struct {
	ID   uint64
	Dist float64
}

func newNeighborSet(cap int) neighborSet {
	if cap <= arraySetCapLimit {
		return &arrayNeighborSet{cap: cap}
	}
	return &hashedNeighborSet{byID: make(map[uint64]float64)}
}

// arrayNeighborSet is a small unsorted slice with linear-scan membership
// checks, appropriate for the single-digit-to-low-20s degree bounds most
// layers use.
type arrayNeighborSet struct {
	cap    int
	items_ []neighbor
}

func (s *arrayNeighborSet) add(id uint64, dist float64) {
	for i, n := range s.items_ {
		if n.ID == id {
			s.items_[i].Dist = dist
			return
		}
	}
	s.items_ = append(s.items_, neighbor{ID: id, Dist: dist})
}

func (s *arrayNeighborSet) remove(id uint64) {
	for i, n := range s.items_ {
		if n.ID == id {
			s.items_ = append(s.items_[:i], s.items_[i+1:]...)
			return
		}
	}
}

func (s *arrayNeighborSet) contains(id uint64) bool {
	for _, n := range s.items_ {
		if n.ID == id {
			return true
		}
	}
	return false
}

func (s *arrayNeighborSet) items() []neighbor { return s.items_ }
func (s *arrayNeighborSet) len() int          { return len(s.items_) }

// hashedNeighborSet backs the larger degree bounds with a map for O(1)
// membership and removal.
type hashedNeighborSet struct {
	byID map[uint64]float64
}

func (s *hashedNeighborSet) add(id uint64, dist float64) { s.byID[id] = dist }
func (s *hashedNeighborSet) remove(id uint64)            { delete(s.byID, id) }
func (s *hashedNeighborSet) contains(id uint64) bool {
	_, ok := s.byID[id]
	return ok
}
func (s *hashedNeighborSet) items() []neighbor {
	out := make([]neighbor, 0, len(s.byID))
	for id, d := range s.byID {
		out = append(out, neighbor{ID: id, Dist: d})
	}
	return out
}
func (s *hashedNeighborSet) len() int { return len(s.byID) }
