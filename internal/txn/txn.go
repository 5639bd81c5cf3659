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

// Package txn implements the transaction facade (spec.md C3): a richer
// API layered on top of a raw internal/kv backend transaction, adding
// put-if-absent, compare-and-set, conditional delete, ranged/batch scan,
// versionstamp allocation, and a check-on-drop safety net. Grounded on
// teacher_ref/core/state/history_reader_v3.go's pattern of a thin facade
// wrapping a lower-level reader/writer with its own bookkeeping layered
// on top.
package txn

import (
	"bytes"
	"context"
	"runtime"

	"go.uber.org/zap"

	"github.com/corvidb/corvid/internal/corerr"
	"github.com/corvidb/corvid/internal/keycodec"
	"github.com/corvidb/corvid/internal/kv"
)

// DropPolicy governs what happens when a writeable, unfinished
// transaction is garbage collected instead of being explicitly committed
// or cancelled (spec.md §3 "dropping a writeable un-finished transaction
// triggers the configured drop policy"). Go has no deterministic
// destructors, so this is enforced via runtime.SetFinalizer — an
// approximation of Rust's Drop, documented here rather than silently
// glossed over.
type DropPolicy uint8

const (
	DropNone DropPolicy = iota
	DropWarn
	DropPanic
)

// Pair is one (key, value) scan result.
type Pair struct {
	Key, Val []byte
}

// Tx is the facade described by spec.md §4.2. A read-only Tx rejects every
// mutating method with corerr.ErrTxReadonly; a read-write Tx is backed by
// a kv.RwTx.
type Tx struct {
	raw        kv.Tx
	rw         kv.RwTx
	write      bool
	done       bool
	dropPolicy DropPolicy
	logger     *zap.Logger
}

// Begin opens a facade transaction over backend. logger may be nil.
func Begin(ctx context.Context, backend kv.Backend, write bool, dropPolicy DropPolicy, logger *zap.Logger) (*Tx, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Tx{write: write, dropPolicy: dropPolicy, logger: logger}
	if write {
		rw, err := backend.BeginRw(ctx)
		if err != nil {
			return nil, corerr.Wrap(err, "txn: begin rw")
		}
		t.rw = rw
		t.raw = rw
	} else {
		ro, err := backend.BeginRo(ctx)
		if err != nil {
			return nil, corerr.Wrap(err, "txn: begin ro")
		}
		t.raw = ro
	}
	runtime.SetFinalizer(t, (*Tx).finalize)
	return t, nil
}

func (t *Tx) finalize() {
	if t.done || !t.write {
		return
	}
	switch t.dropPolicy {
	case DropWarn:
		t.logger.Warn("transaction dropped without commit/cancel")
	case DropPanic:
		panic("txn: writeable transaction dropped without commit or cancel")
	}
}

func (t *Tx) checkRead() error {
	if t.done {
		return corerr.ErrTxFinished
	}
	return nil
}

func (t *Tx) checkWrite() error {
	if t.done {
		return corerr.ErrTxFinished
	}
	if !t.write {
		return corerr.ErrTxReadonly
	}
	return nil
}

func (t *Tx) Done() bool { return t.done }

// Exists reports whether key is present.
func (t *Tx) Exists(key []byte) (bool, error) {
	if err := t.checkRead(); err != nil {
		return false, err
	}
	return t.raw.Has(key)
}

// Get returns the value at key, or ok=false on a miss.
func (t *Tx) Get(key []byte) ([]byte, bool, error) {
	if err := t.checkRead(); err != nil {
		return nil, false, err
	}
	return t.raw.Get(key)
}

// Set is an unconditional upsert.
func (t *Tx) Set(key, val []byte) error {
	if err := t.checkWrite(); err != nil {
		return err
	}
	return t.rw.Put(key, val)
}

// Put fails with corerr.KeyAlreadyExistsError{Category} if key is already
// present (spec.md §4.2 "put(key, value, category)").
func (t *Tx) Put(key, val []byte, category keycodec.Category) error {
	if err := t.checkWrite(); err != nil {
		return err
	}
	ok, err := t.rw.Has(key)
	if err != nil {
		return err
	}
	if ok {
		return &corerr.KeyAlreadyExistsError{Category: category.String()}
	}
	return t.rw.Put(key, val)
}

// Putc is compare-and-set: check==nil means "key must be absent";
// otherwise the stored value must byte-for-byte equal check. Violations
// return corerr.ErrConditionNotMet (spec.md §4.2 "putc").
func (t *Tx) Putc(key, val, check []byte, hasCheck bool) error {
	if err := t.checkWrite(); err != nil {
		return err
	}
	cur, ok, err := t.rw.Get(key)
	if err != nil {
		return err
	}
	if !hasCheck {
		if ok {
			return corerr.ErrConditionNotMet
		}
	} else if !ok || !bytes.Equal(cur, check) {
		return corerr.ErrConditionNotMet
	}
	return t.rw.Put(key, val)
}

// Del unconditionally deletes key (a no-op if absent).
func (t *Tx) Del(key []byte) error {
	if err := t.checkWrite(); err != nil {
		return err
	}
	return t.rw.Delete(key)
}

// Delc conditionally deletes key; hasCheck=false requires no prior value,
// otherwise the stored value must equal check. A mismatched holder is
// ignored (spec.md §4.7 "a mismatched holder is ignored so stale deletes
// are benign") — unlike Putc, Delc never errors on mismatch, it simply
// skips the delete.
func (t *Tx) Delc(key, check []byte, hasCheck bool) error {
	if err := t.checkWrite(); err != nil {
		return err
	}
	cur, ok, err := t.rw.Get(key)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if !hasCheck || !bytes.Equal(cur, check) {
		return nil
	}
	return t.rw.Delete(key)
}

// Scan returns up to limit pairs in [start, end) order. limit <= 0 means
// unbounded.
func (t *Tx) Scan(ctx context.Context, start, end []byte, limit int) ([]Pair, error) {
	if err := t.checkRead(); err != nil {
		return nil, err
	}
	cur, err := t.raw.Cursor()
	if err != nil {
		return nil, err
	}
	defer cur.Close()

	var out []Pair
	k, v, err := cur.Seek(start)
	for {
		if err != nil {
			return nil, err
		}
		if k == nil {
			break
		}
		if end != nil && bytes.Compare(k, end) >= 0 {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, Pair{Key: append([]byte(nil), k...), Val: append([]byte(nil), v...)})
		if limit > 0 && len(out) >= limit {
			break
		}
		k, v, err = cur.Next()
	}
	return out, nil
}

// GetTimestamp allocates a monotonically increasing 10-byte versionstamp
// at tsKey, rejecting any computed stamp that would not strictly increase
// on the stored one (spec.md §4.2 "rejecting regressions"). Because
// memkv/boltkv are optimistic, single-writer-serialized backends rather
// than a pessimistic store with its own commit clock, the stamp is
// fabricated as a per-key counter persisted at tsKey, exactly the
// fallback spec.md §4.2 describes for optimistic backends.
func (t *Tx) GetTimestamp(tsKey []byte) (keycodec.Versionstamp, error) {
	if err := t.checkWrite(); err != nil {
		return keycodec.Versionstamp{}, err
	}
	cur, ok, err := t.rw.Get(tsKey)
	if err != nil {
		return keycodec.Versionstamp{}, err
	}
	var next keycodec.Versionstamp
	if !ok {
		next = keycodec.NewVersionstamp(1, 0)
	} else {
		if len(cur) != keycodec.VersionstampSize {
			return keycodec.Versionstamp{}, &corerr.KeyDecodeError{Reason: "stored versionstamp has wrong width"}
		}
		var stored keycodec.Versionstamp
		copy(stored[:], cur)
		next = keycodec.NewVersionstamp(stored.TxOrder()+1, 0)
		if next.Compare(stored) <= 0 {
			return keycodec.Versionstamp{}, corerr.ErrTxFailure
		}
	}
	if err := t.rw.Put(tsKey, next[:]); err != nil {
		return keycodec.Versionstamp{}, err
	}
	return next, nil
}

// GetVersionstampedKey allocates a new stamp at tsKey and returns
// prefix || stamp || suffix (spec.md §4.2).
func (t *Tx) GetVersionstampedKey(tsKey, prefix, suffix []byte) ([]byte, error) {
	vs, err := t.GetTimestamp(tsKey)
	if err != nil {
		return nil, err
	}
	return keycodec.VersionstampedKey(prefix, vs, suffix), nil
}

// Commit finalizes the transaction. Idempotent-fail: a second call on a
// done Tx returns corerr.ErrTxFinished.
func (t *Tx) Commit() error {
	if t.done {
		return corerr.ErrTxFinished
	}
	t.done = true
	if !t.write {
		return nil
	}
	return t.rw.Commit()
}

// Cancel rolls back the transaction. Idempotent-fail like Commit.
func (t *Tx) Cancel() error {
	if t.done {
		return corerr.ErrTxFinished
	}
	t.done = true
	t.raw.Rollback()
	return nil
}
