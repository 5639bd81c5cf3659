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

// Package index implements the five secondary-index structures spec.md
// §4.7 describes: unique/non-unique equality, a count index with
// idempotent delta compaction, full-text terms, and an HNSW vector index.
// Each writes through internal/txn.Tx; the unique index uses its
// compare-and-set primitives (Putc/Delc), the others plain Set/Del.
package index

import (
	"github.com/corvidb/corvid/internal/corerr"
	"github.com/corvidb/corvid/internal/keycodec"
	"github.com/corvidb/corvid/internal/txn"
	"github.com/corvidb/corvid/internal/types"
)

// PutUnique writes a unique-equality index entry (spec.md §4.7 "Unique
// equality"). Key = field tuple only; value = the encoded record id. A
// collision is reported as corerr.IndexExistsError carrying thing/index/
// value, read from the existing holder rather than the failed write.
func PutUnique(tx *txn.Tx, ns, db, tb, ix string, fields []types.Value, id types.RecordIDKey) error {
	key := keycodec.UniqueIndexKey(ns, db, tb, ix, fields)
	val, err := marshalID(id)
	if err != nil {
		return err
	}
	err = tx.Putc(key, val, nil, false)
	if err == corerr.ErrConditionNotMet {
		holder, ok, getErr := tx.Get(key)
		if getErr != nil {
			return getErr
		}
		thing := ""
		if ok {
			if holderID, unmarshalErr := unmarshalID(holder); unmarshalErr == nil {
				thing = tb + ":" + recordKeyString(holderID)
			}
		}
		return &corerr.IndexExistsError{Thing: thing, Index: ix, Value: valueTupleString(fields)}
	}
	return err
}

// DeleteUnique removes a unique-equality index entry, only when the
// stored holder still matches id (spec.md §4.7 "a mismatched holder is
// ignored so stale deletes are benign").
func DeleteUnique(tx *txn.Tx, ns, db, tb, ix string, fields []types.Value, id types.RecordIDKey) error {
	key := keycodec.UniqueIndexKey(ns, db, tb, ix, fields)
	val, err := marshalID(id)
	if err != nil {
		return err
	}
	return tx.Delc(key, val, true)
}

func marshalID(id types.RecordIDKey) ([]byte, error) {
	return types.MarshalValue(id)
}

func unmarshalID(data []byte) (types.RecordIDKey, error) {
	v, err := types.UnmarshalValue(data)
	if err != nil {
		return nil, err
	}
	key, ok := v.(types.RecordIDKey)
	if !ok {
		return nil, &corerr.KeyDecodeError{Reason: "index value is not a record id key"}
	}
	return key, nil
}

func recordKeyString(k types.RecordIDKey) string {
	switch v := k.(type) {
	case types.Str:
		return v.String()
	case types.Num:
		return v.String()
	default:
		return k.Kind().String()
	}
}

func valueTupleString(vals []types.Value) string {
	out := ""
	for i, v := range vals {
		if i > 0 {
			out += ","
		}
		if s, ok := v.(types.Str); ok {
			out += s.String()
		} else if n, ok := v.(types.Num); ok {
			out += n.String()
		} else {
			out += v.Kind().String()
		}
	}
	return out
}
