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

// Package memkv is an in-memory kv.Backend backed by an ordered
// copy-on-write btree, used for tests and ephemeral datastores (spec.md
// §6 "in-process embedding" external interface). Grounded on
// tidwall/btree's BTreeG[T] snapshot-via-Copy pattern (the same COW
// technique hashicorp/go-memdb's radix tree uses, see
// other_examples/8c8d646b_moby-moby__.../go-memdb/txn.go.go, for
// isolating readers from an in-flight writer without locking every read).
package memkv

import (
	"bytes"
	"context"
	"sync"

	"github.com/tidwall/btree"

	"github.com/corvidb/corvid/internal/corerr"
	"github.com/corvidb/corvid/internal/kv"
)

type entry struct {
	key, val []byte
}

func less(a, b entry) bool { return bytes.Compare(a.key, b.key) < 0 }

// Backend is a single in-memory ordered keyspace. Zero value is not
// usable; construct with New.
type Backend struct {
	mu   sync.Mutex       // guards tree (committed snapshot)
	tree *btree.BTreeG[entry]

	writer sync.Mutex // held by whichever RwTx is currently open
}

func New() *Backend {
	return &Backend{tree: btree.NewBTreeG(less)}
}

func (b *Backend) snapshot() *btree.BTreeG[entry] {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tree.Copy()
}

func (b *Backend) BeginRo(ctx context.Context) (kv.Tx, error) {
	return &tx{tree: b.snapshot()}, nil
}

func (b *Backend) BeginRw(ctx context.Context) (kv.RwTx, error) {
	done := make(chan struct{})
	go func() { b.writer.Lock(); close(done) }()
	select {
	case <-done:
	case <-ctx.Done():
		go func() { <-done; b.writer.Unlock() }()
		return nil, ctx.Err()
	}
	return &rwTx{backend: b, tree: b.snapshot()}, nil
}

func (b *Backend) Close() error { return nil }

type tx struct {
	tree *btree.BTreeG[entry]
	done bool
}

func (t *tx) Has(key []byte) (bool, error) {
	_, ok := t.tree.Get(entry{key: key})
	return ok, nil
}

func (t *tx) Get(key []byte) ([]byte, bool, error) {
	e, ok := t.tree.Get(entry{key: key})
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), e.val...), true, nil
}

func (t *tx) Cursor() (kv.Cursor, error) {
	return &cursor{tree: t.tree}, nil
}

func (t *tx) Rollback() { t.done = true }

type rwTx struct {
	backend *Backend
	tree    *btree.BTreeG[entry]
	done    bool
}

func (t *rwTx) Has(key []byte) (bool, error) {
	if t.done {
		return false, corerr.ErrTxFinished
	}
	_, ok := t.tree.Get(entry{key: key})
	return ok, nil
}

func (t *rwTx) Get(key []byte) ([]byte, bool, error) {
	if t.done {
		return nil, false, corerr.ErrTxFinished
	}
	e, ok := t.tree.Get(entry{key: key})
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), e.val...), true, nil
}

func (t *rwTx) Cursor() (kv.Cursor, error) { return &cursor{tree: t.tree}, nil }

func (t *rwTx) Put(key, val []byte) error {
	if t.done {
		return corerr.ErrTxFinished
	}
	t.tree.Set(entry{key: append([]byte(nil), key...), val: append([]byte(nil), val...)})
	return nil
}

func (t *rwTx) Delete(key []byte) error {
	if t.done {
		return corerr.ErrTxFinished
	}
	t.tree.Delete(entry{key: key})
	return nil
}

func (t *rwTx) RwCursor() (kv.RwCursor, error) { return &rwCursor{cursor{tree: t.tree}, t}, nil }

func (t *rwTx) Commit() error {
	if t.done {
		return corerr.ErrTxFinished
	}
	t.done = true
	t.backend.mu.Lock()
	t.backend.tree = t.tree
	t.backend.mu.Unlock()
	t.backend.writer.Unlock()
	return nil
}

func (t *rwTx) Rollback() {
	if t.done {
		return
	}
	t.done = true
	t.backend.writer.Unlock()
}

type cursor struct {
	tree *btree.BTreeG[entry]
	cur  *entry
	init bool
}

func (c *cursor) First() ([]byte, []byte, error) {
	e, ok := c.tree.Min()
	c.init = true
	if !ok {
		c.cur = nil
		return nil, nil, nil
	}
	c.cur = &e
	return e.key, e.val, nil
}

func (c *cursor) Seek(seek []byte) ([]byte, []byte, error) {
	c.init = true
	var found *entry
	c.tree.Ascend(entry{key: seek}, func(e entry) bool {
		f := e
		found = &f
		return false
	})
	c.cur = found
	if found == nil {
		return nil, nil, nil
	}
	return found.key, found.val, nil
}

func (c *cursor) Next() ([]byte, []byte, error) {
	if !c.init {
		return c.First()
	}
	if c.cur == nil {
		return nil, nil, nil
	}
	var found *entry
	seen := false
	c.tree.Ascend(*c.cur, func(e entry) bool {
		if !seen {
			seen = true
			return true // skip the current element itself
		}
		f := e
		found = &f
		return false
	})
	c.cur = found
	if found == nil {
		return nil, nil, nil
	}
	return found.key, found.val, nil
}

func (c *cursor) Close() {}

type rwCursor struct {
	cursor
	t *rwTx
}

func (c *rwCursor) Put(k, v []byte) error {
	return c.t.Put(k, v)
}

func (c *rwCursor) Delete(k []byte) error {
	return c.t.Delete(k)
}
