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

package ft

import (
	"context"
	"encoding/binary"
	"strings"

	"github.com/google/btree"

	"github.com/corvidb/corvid/internal/keycodec"
	"github.com/corvidb/corvid/internal/txn"
)

type termEntry struct {
	Term string
	ID   uint64
}

func termLess(a, b termEntry) bool { return a.Term < b.Term }

// Tree is the in-memory working copy of one full-text index: the
// term->TermId ordering (a github.com/google/btree.BTreeG standing in for
// the original's FST-encoded B-tree leaves) plus the inverse TermId->term
// map and the allocator state, all loaded from a transaction and flushed
// back to it on Finish.
type Tree struct {
	ns, db, tb, ix string
	state          *BState
	forward        *btree.BTreeG[termEntry]
	inverse        map[uint64]string
	dirty          bool
}

const (
	stateMarker   = '='
	termMarker    = ':'
	inverseMarker = ';'
)

func stateKey(ns, db, tb, ix string) []byte {
	return append(keycodec.IndexRootKey(ns, db, tb, ix), stateMarker)
}

func termKey(ns, db, tb, ix, term string) []byte {
	root := keycodec.IndexRootKey(ns, db, tb, ix)
	key := make([]byte, 0, len(root)+1+len(term))
	key = append(key, root...)
	key = append(key, termMarker)
	key = append(key, term...)
	return key
}

func termPrefix(ns, db, tb, ix string) []byte {
	root := keycodec.IndexRootKey(ns, db, tb, ix)
	return append(root, termMarker)
}

func inverseKey(ns, db, tb, ix string, id uint64) []byte {
	root := keycodec.IndexRootKey(ns, db, tb, ix)
	key := make([]byte, 0, len(root)+9)
	key = append(key, root...)
	key = append(key, inverseMarker)
	idBuf := make([]byte, 8)
	binary.BigEndian.PutUint64(idBuf, id)
	return append(key, idBuf...)
}

// Open loads a Tree's state and every (term, TermId) pair for the given
// index from tx, starting a fresh BState of DefaultOrder if none exists
// yet.
func Open(ctx context.Context, tx *txn.Tx, ns, db, tb, ix string) (*Tree, error) {
	t := &Tree{
		ns: ns, db: db, tb: tb, ix: ix,
		forward: btree.NewG(32, termLess),
		inverse: make(map[uint64]string),
	}

	data, ok, err := tx.Get(stateKey(ns, db, tb, ix))
	if err != nil {
		return nil, err
	}
	if ok {
		state, err := DecodeBState(data)
		if err != nil {
			return nil, err
		}
		t.state = state
	} else {
		t.state = NewBState(DefaultOrder)
	}

	prefix := termPrefix(ns, db, tb, ix)
	end := keycodec.Successor(prefix)
	start := prefix
	for {
		pairs, err := tx.Scan(ctx, start, end, 256)
		if err != nil {
			return nil, err
		}
		if len(pairs) == 0 {
			break
		}
		for _, p := range pairs {
			term := string(p.Key[len(prefix):])
			id := binary.BigEndian.Uint64(p.Val)
			t.forward.ReplaceOrInsert(termEntry{Term: term, ID: id})
			t.inverse[id] = term
		}
		start = keycodec.Successor(pairs[len(pairs)-1].Key)
	}
	return t, nil
}

// Resolve implements spec.md §4.7's three-step term resolution: search the
// tree, allocate a TermId if absent, write both directions. Returns the
// existing or newly allocated TermId.
func (t *Tree) Resolve(term string) uint64 {
	if found, ok := t.forward.Get(termEntry{Term: term}); ok {
		return found.ID
	}
	id := t.state.allocate()
	t.forward.ReplaceOrInsert(termEntry{Term: term, ID: id})
	t.inverse[id] = term
	t.dirty = true
	return id
}

// Lookup reports a term's TermId without allocating one.
func (t *Tree) Lookup(term string) (uint64, bool) {
	found, ok := t.forward.Get(termEntry{Term: term})
	return found.ID, ok
}

// Remove deletes both directions of a term mapping and frees its TermId
// for reuse (spec.md §4.7 "Removing a term deletes both directions and
// adds its id to the freed set").
func (t *Tree) Remove(term string) {
	found, ok := t.forward.Get(termEntry{Term: term})
	if !ok {
		return
	}
	t.forward.Delete(found)
	delete(t.inverse, found.ID)
	t.state.free(found.ID)
	t.dirty = true
}

// PrefixScan returns every TermId whose term starts with prefix, walking
// the ordered tree rather than the KV store directly (spec.md §4.7 "the
// tree's leaves are FST-encoded to support compact prefix scans").
func (t *Tree) PrefixScan(prefix string) []uint64 {
	var ids []uint64
	t.forward.AscendGreaterOrEqual(termEntry{Term: prefix}, func(e termEntry) bool {
		if !strings.HasPrefix(e.Term, prefix) {
			return false
		}
		ids = append(ids, e.ID)
		return true
	})
	return ids
}

// Finish persists the updated state and every forward/inverse mapping
// atomically within tx (spec.md §4.7 "On finish, the updated state is
// persisted atomically with the tree's node cache flush"). A no-op if
// nothing changed since Open.
func (t *Tree) Finish(tx *txn.Tx) error {
	if !t.dirty {
		return nil
	}
	encoded, err := t.state.Encode()
	if err != nil {
		return err
	}
	if err := tx.Set(stateKey(t.ns, t.db, t.tb, t.ix), encoded); err != nil {
		return err
	}

	var writeErr error
	t.forward.Ascend(func(e termEntry) bool {
		idBuf := make([]byte, 8)
		binary.BigEndian.PutUint64(idBuf, e.ID)
		if writeErr = tx.Set(termKey(t.ns, t.db, t.tb, t.ix, e.Term), idBuf); writeErr != nil {
			return false
		}
		writeErr = tx.Set(inverseKey(t.ns, t.db, t.tb, t.ix, e.ID), []byte(e.Term))
		return writeErr == nil
	})
	if writeErr != nil {
		return writeErr
	}
	t.dirty = false
	return nil
}
