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

// Package ft implements the full-text term index spec.md §4.7 describes:
// a term -> TermId B-tree (approximated here by an in-memory
// github.com/google/btree ordered tree, loaded from and flushed back to
// the KV transaction, standing in for the FST-encoded leaves the original
// on-disk structure uses for compact prefix scans) plus a BState tracking
// the next TermId and a roaring bitmap of freed ids available for reuse.
package ft

import (
	"bytes"
	"encoding/binary"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/corvidb/corvid/internal/corerr"
)

// DefaultOrder is the B-tree order used when a DEFINE INDEX ... SEARCH
// clause doesn't override it.
const DefaultOrder = 32

// BState is the full-text index's persisted metadata: the B-tree order
// and the allocator state for TermIds (spec.md §4.7 "A BState holds the
// default B-tree order and a roaring bitmap of freed TermIds; next_term_id
// is a u64 monotone counter").
type BState struct {
	Order      int
	NextTermID uint64
	Freed      *roaring.Bitmap
}

// NewBState returns a fresh state with no terms allocated yet.
func NewBState(order int) *BState {
	if order <= 0 {
		order = DefaultOrder
	}
	return &BState{Order: order, NextTermID: 1, Freed: roaring.New()}
}

// allocate returns the next TermId to use, preferring the lowest freed id
// over advancing NextTermID (spec.md §4.7 "allocate next TermId (prefer
// lowest from the freed set, else advance next_term_id)").
func (s *BState) allocate() uint64 {
	if !s.Freed.IsEmpty() {
		id := uint64(s.Freed.Minimum())
		s.Freed.Remove(uint32(id))
		return id
	}
	id := s.NextTermID
	s.NextTermID++
	return id
}

// free returns id to the freed set for reuse by a later allocate.
func (s *BState) free(id uint64) {
	s.Freed.Add(uint32(id))
}

// Encode serializes the state: 8-byte order, 8-byte NextTermID, then the
// roaring bitmap's own portable binary format.
func (s *BState) Encode() ([]byte, error) {
	var freedBuf bytes.Buffer
	if _, err := s.Freed.WriteTo(&freedBuf); err != nil {
		return nil, err
	}
	buf := make([]byte, 16+freedBuf.Len())
	binary.BigEndian.PutUint64(buf[0:8], uint64(s.Order))
	binary.BigEndian.PutUint64(buf[8:16], s.NextTermID)
	copy(buf[16:], freedBuf.Bytes())
	return buf, nil
}

// DecodeBState is the inverse of Encode.
func DecodeBState(data []byte) (*BState, error) {
	if len(data) < 16 {
		return nil, &corerr.KeyDecodeError{Reason: "full-text index state is truncated"}
	}
	order := int(binary.BigEndian.Uint64(data[0:8]))
	nextID := binary.BigEndian.Uint64(data[8:16])
	freed := roaring.New()
	if err := freed.UnmarshalBinary(data[16:]); err != nil {
		return nil, err
	}
	return &BState{Order: order, NextTermID: nextID, Freed: freed}, nil
}
