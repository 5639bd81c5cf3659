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

package catalog

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/corvidb/corvid/internal/corerr"
)

// cache implements spec.md §4.3's two-weight-class model: definition
// slices carry weight 0 (never evicted by size, only explicitly
// invalidated on DDL) and live in a plain map under defMu; per-record
// document bodies carry weight 1 and are evicted by
// hashicorp/golang-lru/v2's ordinary recency policy. singleflight.Group
// gives the "at-most-one concurrent build per key" promise spec.md §4.3
// requires ("a miss reads from storage, decodes, inserts; on conflict,
// losers reuse the winner") without hand-rolling per-key locks.
type cache struct {
	defMu sync.RWMutex
	defs  map[string][]byte

	records *lru.Cache[string, []byte]
	group   singleflight.Group
}

// newCache builds a cache whose record (weight-1) half holds at most
// recordCapacity entries.
func newCache(recordCapacity int) (*cache, error) {
	records, err := lru.New[string, []byte](recordCapacity)
	if err != nil {
		return nil, corerr.Wrap(err, "catalog: new record cache")
	}
	return &cache{defs: make(map[string][]byte), records: records}, nil
}

func (c *cache) getDefs(key string) ([]byte, bool) {
	c.defMu.RLock()
	defer c.defMu.RUnlock()
	v, ok := c.defs[key]
	return v, ok
}

func (c *cache) putDefs(key string, v []byte) {
	c.defMu.Lock()
	defer c.defMu.Unlock()
	c.defs[key] = v
}

// invalidateDefs drops a single definition-slice cache entry, called by
// every Define/Remove setter for the scope it mutates (spec.md §4.3 "DDL
// statements mutate both storage and the cache under the same
// transaction").
func (c *cache) invalidateDefs(key string) {
	c.defMu.Lock()
	defer c.defMu.Unlock()
	delete(c.defs, key)
}

func (c *cache) getRecord(key string) ([]byte, bool) {
	return c.records.Get(key)
}

func (c *cache) putRecord(key string, v []byte) {
	c.records.Add(key, v)
}

func (c *cache) invalidateRecord(key string) {
	c.records.Remove(key)
}
