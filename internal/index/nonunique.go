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
	"github.com/corvidb/corvid/internal/keycodec"
	"github.com/corvidb/corvid/internal/txn"
	"github.com/corvidb/corvid/internal/types"
)

// PutNonUnique writes a non-unique-equality index entry: same key shape as
// a unique index but with the record id folded into the key itself, so
// multiple rows can share the same field tuple (spec.md §4.7 "Non-unique
// equality. Same as unique but the key additionally embeds the record
// id"). The stored value is empty, since the id is already in the key.
func PutNonUnique(tx *txn.Tx, ns, db, tb, ix string, fields []types.Value, id types.RecordIDKey) error {
	key, err := keycodec.NonUniqueIndexKey(ns, db, tb, ix, fields, id)
	if err != nil {
		return err
	}
	return tx.Set(key, []byte{})
}

// DeleteNonUnique removes a non-unique-equality index entry.
func DeleteNonUnique(tx *txn.Tx, ns, db, tb, ix string, fields []types.Value, id types.RecordIDKey) error {
	key, err := keycodec.NonUniqueIndexKey(ns, db, tb, ix, fields, id)
	if err != nil {
		return err
	}
	return tx.Del(key)
}
