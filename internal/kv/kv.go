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

// Package kv defines the pluggable ordered key-value backend abstraction
// (spec.md C2). Unlike teacher_ref/erigon-lib/kv/tables.go's many named
// buckets, corvid keeps one flat ordered keyspace per backend: keycodec's
// sigil-prefixed keys are already self-describing, so a single-bucket
// design (as bbolt itself encourages) is the natural fit rather than a
// per-entity table registry. The interface shapes (Has/Getter/Putter/
// Deleter/Tx/RwTx/Cursor/RwCursor) are grounded on
// fenghaojiang-erigon-lib/kv/kv_interface.go, trimmed to what a
// single-bucket ordered store needs.
package kv

import "context"

// Backend is implemented by each pluggable storage engine (memkv, boltkv).
// Every backend owns its own concurrency control: memkv guards a
// copy-on-write btree snapshot with a sync.Mutex, boltkv delegates to
// bbolt's single-writer MVCC.
type Backend interface {
	// BeginRo opens a read-only transaction.
	BeginRo(ctx context.Context) (Tx, error)
	// BeginRw opens a read-write transaction. Implementations serialize
	// writers (bbolt: one writer at a time via its own lock; memkv: a
	// per-Backend writer mutex), matching spec.md §5 "writers are serialized
	// per backend".
	BeginRw(ctx context.Context) (RwTx, error)
	Close() error
}

// Has reports key existence without paying for a value copy.
type Has interface {
	Has(key []byte) (bool, error)
}

// Getter is the read surface shared by Tx and RwTx.
type Getter interface {
	Has
	// Get returns a copy of the value at key; ok is false on a miss.
	Get(key []byte) (val []byte, ok bool, err error)
	// Cursor opens a read-only ordered cursor over the whole keyspace.
	Cursor() (Cursor, error)
}

// Putter wraps the raw write operation.
type Putter interface {
	Put(key, val []byte) error
}

// Deleter wraps the raw delete operation.
type Deleter interface {
	Delete(key []byte) error
}

// Tx is a read-only backend transaction.
type Tx interface {
	Getter
	// Rollback releases the transaction's resources. Safe to call after
	// Commit/Rollback already ran (no-op).
	Rollback()
}

// RwTx is a read-write backend transaction. Backends serialize RwTx
// instances; only one may be open per Backend at a time.
type RwTx interface {
	Tx
	Putter
	Deleter
	RwCursor() (RwCursor, error)
	Commit() error
}

// Cursor walks the keyspace in ascending key order.
type Cursor interface {
	// First positions at the smallest key. Returns (nil, nil, nil) when
	// the keyspace is empty.
	First() (k, v []byte, err error)
	// Seek positions at the smallest key >= seek.
	Seek(seek []byte) (k, v []byte, err error)
	// Next advances one position; (nil, nil, nil) past the end.
	Next() (k, v []byte, err error)
	Close()
}

// RwCursor additionally supports mutation at the current position.
type RwCursor interface {
	Cursor
	Put(k, v []byte) error
	Delete(k []byte) error
}
