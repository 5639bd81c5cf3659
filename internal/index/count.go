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
	"encoding/binary"

	"github.com/corvidb/corvid/internal/keycodec"
	"github.com/corvidb/corvid/internal/txn"
)

// Count index (spec.md §4.7 "Count index"). Every row change is recorded
// as its own delta key rather than mutating a shared counter in place, so
// concurrent writers never contend on the same key; a compaction step
// later folds the deltas into a single counter row. Delta keys are built
// on top of keycodec.IndexRootKey with a ':'-delimited suffix this
// package owns outright, since keycodec does not define a delta-key shape
// of its own (unlike the unique/non-unique index keys it already encodes).

const (
	deltaMarker     = ':'
	counterMarker   = '='
	compactionMarker = '!'
)

// deltaKey returns the key for one (node, versionstamp) delta entry.
func deltaKey(ns, db, tb, ix, node string, vs keycodec.Versionstamp) []byte {
	root := keycodec.IndexRootKey(ns, db, tb, ix)
	key := make([]byte, 0, len(root)+1+len(node)+1+keycodec.VersionstampSize)
	key = append(key, root...)
	key = append(key, deltaMarker)
	key = append(key, node...)
	key = append(key, deltaMarker)
	key = append(key, vs[:]...)
	return key
}

func deltaPrefix(ns, db, tb, ix string) []byte {
	root := keycodec.IndexRootKey(ns, db, tb, ix)
	key := make([]byte, 0, len(root)+1)
	key = append(key, root...)
	key = append(key, deltaMarker)
	return key
}

// counterKey returns the key the compacted running total is stored at.
func counterKey(ns, db, tb, ix string) []byte {
	root := keycodec.IndexRootKey(ns, db, tb, ix)
	key := make([]byte, 0, len(root)+1)
	key = append(key, root...)
	key = append(key, counterMarker)
	return key
}

// compactionTriggerKey is set to signal a pending compaction; the
// background compactor (C10) watches for this key.
func compactionTriggerKey(ns, db, tb, ix string) []byte {
	root := keycodec.IndexRootKey(ns, db, tb, ix)
	key := make([]byte, 0, len(root)+1)
	key = append(key, root...)
	key = append(key, compactionMarker)
	return key
}

func encodeDelta(sign int8, magnitude uint64) []byte {
	buf := make([]byte, 9)
	if sign < 0 {
		buf[0] = 0
	} else {
		buf[0] = 1
	}
	binary.BigEndian.PutUint64(buf[1:], magnitude)
	return buf
}

func decodeDelta(buf []byte) (sign int8, magnitude uint64) {
	if len(buf) != 9 {
		return 0, 0
	}
	if buf[0] == 0 {
		sign = -1
	} else {
		sign = 1
	}
	magnitude = binary.BigEndian.Uint64(buf[1:])
	return sign, magnitude
}

// RecordDelta appends a +1/-1 delta for the index at ix, stamped with this
// transaction's versionstamp so concurrent compactions can process each
// node's deltas independently (spec.md §4.7 "idempotent under concurrent
// workers by using per-node and per-versionstamp keys"). node identifies
// the writing cluster node (C10's membership key namespace). It also sets
// the compaction-trigger key so the background compactor picks this index
// up on its next tick.
func RecordDelta(tx *txn.Tx, ns, db, tb, ix, node string, vs keycodec.Versionstamp, delta int64) error {
	sign := int8(1)
	magnitude := uint64(delta)
	if delta < 0 {
		sign = -1
		magnitude = uint64(-delta)
	}
	if err := tx.Set(deltaKey(ns, db, tb, ix, node, vs), encodeDelta(sign, magnitude)); err != nil {
		return err
	}
	return tx.Set(compactionTriggerKey(ns, db, tb, ix), []byte{1})
}

// Compact folds every outstanding delta key into the counter row and
// removes the processed deltas, returning the new total (spec.md §4.7 "A
// compaction worker coalesces deltas into a single counter row in a
// transaction"). Safe to run concurrently: each delta key is only ever
// written once (keyed by node+versionstamp) and Compact's own delete is
// unconditional, so a second compactor racing on the same keys either
// finds them already gone or folds the same already-summed values again
// into a counter Set that is itself idempotent once all deltas are drained.
func Compact(ctx context.Context, tx *txn.Tx, ns, db, tb, ix string) (int64, error) {
	prefix := deltaPrefix(ns, db, tb, ix)
	end := keycodec.Successor(prefix)

	total, _, err := readCounter(tx, ns, db, tb, ix)
	if err != nil {
		return 0, err
	}

	for {
		pairs, err := tx.Scan(ctx, prefix, end, 256)
		if err != nil {
			return 0, err
		}
		if len(pairs) == 0 {
			break
		}
		for _, p := range pairs {
			sign, magnitude := decodeDelta(p.Val)
			total += int64(sign) * int64(magnitude)
			if err := tx.Del(p.Key); err != nil {
				return 0, err
			}
		}
	}

	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(total))
	if err := tx.Set(counterKey(ns, db, tb, ix), buf); err != nil {
		return 0, err
	}
	if err := tx.Del(compactionTriggerKey(ns, db, tb, ix)); err != nil {
		return 0, err
	}
	return total, nil
}

func readCounter(tx *txn.Tx, ns, db, tb, ix string) (int64, bool, error) {
	data, ok, err := tx.Get(counterKey(ns, db, tb, ix))
	if err != nil || !ok {
		return 0, ok, err
	}
	if len(data) != 8 {
		return 0, false, nil
	}
	return int64(binary.BigEndian.Uint64(data)), true, nil
}

// Count returns the compacted counter value (0 if never written). It does
// not account for deltas pending compaction; callers that need an exact
// up-to-the-transaction count should Compact first.
func Count(tx *txn.Tx, ns, db, tb, ix string) (int64, error) {
	total, _, err := readCounter(tx, ns, db, tb, ix)
	return total, err
}
