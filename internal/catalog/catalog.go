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

// Package catalog implements spec.md C4: typed getters/setters for
// namespaces, databases, tables, fields, indexes, events, functions,
// params, analyzers, users, accesses and access grants, backed by
// internal/keycodec key shapes and cached per §4.3's weighted-cache
// design. Grounded on teacher_ref/core/kvs/cache.rs's Entry enum (one
// cached shape per definition kind) and erigon-lib's typed-getter
// convention of one exported method per logical table.
//
// Definitions are serialized with encoding/json. No library in the pack
// targets a compact binary codec for heterogeneous, struct-tagged
// catalog/document data (yaml.v3 is reserved for config per SPEC_FULL.md
// §3, mapstructure for decoding already-parsed maps) — JSON's stdlib
// marshaler is the natural fixed-schema struct codec here, the same way
// the teacher falls back to stdlib encoding for its own leaf-level
// byte-packing in erigon-lib/kv/tables.go.
package catalog

import (
	"context"
	"encoding/json"

	"github.com/corvidb/corvid/internal/corerr"
	"github.com/corvidb/corvid/internal/keycodec"
	"github.com/corvidb/corvid/internal/txn"
)

// Catalog is the typed DDL layer over a transaction facade. One Catalog
// is created per Datastore (internal/engine) and shared across
// transactions; its cache is keyed by encoded scan prefixes, so
// concurrent transactions on the same scope share cache entries (spec.md
// §5 "Catalog cache: concurrent read-mostly map; writers hold a per-key
// lock").
type Catalog struct {
	cache *cache
}

// Open constructs a Catalog whose per-record (weight-1) cache segment
// holds at most recordCapacity entries.
func Open(recordCapacity int) (*Catalog, error) {
	c, err := newCache(recordCapacity)
	if err != nil {
		return nil, err
	}
	return &Catalog{cache: c}, nil
}

func listDefs[T any](ctx context.Context, c *Catalog, tx *txn.Tx, cacheKey string, scanPrefix []byte) ([]T, error) {
	if raw, ok := c.cache.getDefs(cacheKey); ok {
		return decodeDefSlice[T](raw)
	}
	v, err, _ := c.cache.group.Do(cacheKey, func() (any, error) {
		end := keycodec.Successor(scanPrefix)
		pairs, err := tx.Scan(ctx, scanPrefix, end, 0)
		if err != nil {
			return nil, err
		}
		out := make([]T, 0, len(pairs))
		for _, p := range pairs {
			var def T
			if err := json.Unmarshal(p.Val, &def); err != nil {
				return nil, corerr.Wrap(err, "catalog: decode definition")
			}
			out = append(out, def)
		}
		raw, err := json.Marshal(out)
		if err != nil {
			return nil, corerr.Wrap(err, "catalog: encode definitions for cache")
		}
		c.cache.putDefs(cacheKey, raw)
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]T), nil
}

func decodeDefSlice[T any](raw []byte) ([]T, error) {
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, corerr.Wrap(err, "catalog: decode cached definitions")
	}
	return out, nil
}

func defineEntity[T any](c *Catalog, tx *txn.Tx, key []byte, cacheKey string, def T) error {
	raw, err := json.Marshal(def)
	if err != nil {
		return corerr.Wrap(err, "catalog: encode definition")
	}
	if err := tx.Set(key, raw); err != nil {
		return err
	}
	c.cache.invalidateDefs(cacheKey)
	return nil
}

func removeEntity(c *Catalog, tx *txn.Tx, key []byte, cacheKey string) error {
	if err := tx.Del(key); err != nil {
		return err
	}
	c.cache.invalidateDefs(cacheKey)
	return nil
}

// --- Namespaces ---

func (c *Catalog) Namespaces(ctx context.Context, tx *txn.Tx) ([]NamespaceDef, error) {
	return listDefs[NamespaceDef](ctx, c, tx, "ns", keycodec.NamespaceScanPrefix())
}

func (c *Catalog) DefineNamespace(tx *txn.Tx, def NamespaceDef) error {
	return defineEntity(c, tx, keycodec.NamespacePrefix(def.Name), "ns", def)
}

func (c *Catalog) RemoveNamespace(tx *txn.Tx, ns string) error {
	return removeEntity(c, tx, keycodec.NamespacePrefix(ns), "ns")
}

// --- Databases ---

func (c *Catalog) Databases(ctx context.Context, tx *txn.Tx, ns string) ([]DatabaseDef, error) {
	return listDefs[DatabaseDef](ctx, c, tx, "db:"+ns, keycodec.DatabaseScanPrefix(ns))
}

func (c *Catalog) DefineDatabase(tx *txn.Tx, ns string, def DatabaseDef) error {
	return defineEntity(c, tx, keycodec.DatabasePrefix(ns, def.Name), "db:"+ns, def)
}

func (c *Catalog) RemoveDatabase(tx *txn.Tx, ns, db string) error {
	return removeEntity(c, tx, keycodec.DatabasePrefix(ns, db), "db:"+ns)
}

// --- Tables ---

func (c *Catalog) Tables(ctx context.Context, tx *txn.Tx, ns, db string) ([]TableDef, error) {
	return listDefs[TableDef](ctx, c, tx, "tb:"+ns+"."+db, keycodec.TableScanPrefix(ns, db))
}

func (c *Catalog) DefineTable(tx *txn.Tx, ns, db string, def TableDef) error {
	return defineEntity(c, tx, keycodec.TablePrefix(ns, db, def.Name), "tb:"+ns+"."+db, def)
}

func (c *Catalog) RemoveTable(tx *txn.Tx, ns, db, tb string) error {
	return removeEntity(c, tx, keycodec.TablePrefix(ns, db, tb), "tb:"+ns+"."+db)
}

// --- Fields ---

func (c *Catalog) Fields(ctx context.Context, tx *txn.Tx, ns, db, tb string) ([]FieldDef, error) {
	return listDefs[FieldDef](ctx, c, tx, "fd:"+ns+"."+db+"."+tb, keycodec.FieldDefScanPrefix(ns, db, tb))
}

func (c *Catalog) DefineField(tx *txn.Tx, ns, db, tb string, def FieldDef) error {
	return defineEntity(c, tx, keycodec.FieldDefKey(ns, db, tb, def.Name), "fd:"+ns+"."+db+"."+tb, def)
}

func (c *Catalog) RemoveField(tx *txn.Tx, ns, db, tb, field string) error {
	return removeEntity(c, tx, keycodec.FieldDefKey(ns, db, tb, field), "fd:"+ns+"."+db+"."+tb)
}

// --- Indexes ---

func (c *Catalog) Indexes(ctx context.Context, tx *txn.Tx, ns, db, tb string) ([]IndexDef, error) {
	return listDefs[IndexDef](ctx, c, tx, "ix:"+ns+"."+db+"."+tb, keycodec.IndexDefScanPrefix(ns, db, tb))
}

func (c *Catalog) DefineIndex(tx *txn.Tx, ns, db, tb string, def IndexDef) error {
	return defineEntity(c, tx, keycodec.IndexDefKey(ns, db, tb, def.Name), "ix:"+ns+"."+db+"."+tb, def)
}

func (c *Catalog) RemoveIndex(tx *txn.Tx, ns, db, tb, ix string) error {
	return removeEntity(c, tx, keycodec.IndexDefKey(ns, db, tb, ix), "ix:"+ns+"."+db+"."+tb)
}

// --- Events ---

func (c *Catalog) Events(ctx context.Context, tx *txn.Tx, ns, db, tb string) ([]EventDef, error) {
	return listDefs[EventDef](ctx, c, tx, "ev:"+ns+"."+db+"."+tb, keycodec.EventDefScanPrefix(ns, db, tb))
}

func (c *Catalog) DefineEvent(tx *txn.Tx, ns, db, tb string, def EventDef) error {
	return defineEntity(c, tx, keycodec.EventDefKey(ns, db, tb, def.Name), "ev:"+ns+"."+db+"."+tb, def)
}

func (c *Catalog) RemoveEvent(tx *txn.Tx, ns, db, tb, ev string) error {
	return removeEntity(c, tx, keycodec.EventDefKey(ns, db, tb, ev), "ev:"+ns+"."+db+"."+tb)
}

// --- Functions / Params / Analyzers ---

func (c *Catalog) Functions(ctx context.Context, tx *txn.Tx, ns, db string) ([]FunctionDef, error) {
	return listDefs[FunctionDef](ctx, c, tx, "fc:"+ns+"."+db, keycodec.FunctionDefScanPrefix(ns, db))
}

func (c *Catalog) DefineFunction(tx *txn.Tx, ns, db string, def FunctionDef) error {
	return defineEntity(c, tx, keycodec.FunctionDefKey(ns, db, def.Name), "fc:"+ns+"."+db, def)
}

func (c *Catalog) RemoveFunction(tx *txn.Tx, ns, db, name string) error {
	return removeEntity(c, tx, keycodec.FunctionDefKey(ns, db, name), "fc:"+ns+"."+db)
}

func (c *Catalog) Params(ctx context.Context, tx *txn.Tx, ns, db string) ([]ParamDef, error) {
	return listDefs[ParamDef](ctx, c, tx, "pa:"+ns+"."+db, keycodec.ParamDefScanPrefix(ns, db))
}

func (c *Catalog) DefineParam(tx *txn.Tx, ns, db string, def ParamDef) error {
	return defineEntity(c, tx, keycodec.ParamDefKey(ns, db, def.Name), "pa:"+ns+"."+db, def)
}

func (c *Catalog) RemoveParam(tx *txn.Tx, ns, db, name string) error {
	return removeEntity(c, tx, keycodec.ParamDefKey(ns, db, name), "pa:"+ns+"."+db)
}

func (c *Catalog) Analyzers(ctx context.Context, tx *txn.Tx, ns, db string) ([]AnalyzerDef, error) {
	return listDefs[AnalyzerDef](ctx, c, tx, "az:"+ns+"."+db, keycodec.AnalyzerDefScanPrefix(ns, db))
}

func (c *Catalog) DefineAnalyzer(tx *txn.Tx, ns, db string, def AnalyzerDef) error {
	return defineEntity(c, tx, keycodec.AnalyzerDefKey(ns, db, def.Name), "az:"+ns+"."+db, def)
}

func (c *Catalog) RemoveAnalyzer(tx *txn.Tx, ns, db, name string) error {
	return removeEntity(c, tx, keycodec.AnalyzerDefKey(ns, db, name), "az:"+ns+"."+db)
}

// --- Users / Accesses / Access grants, at root/namespace/database scope ---

func (c *Catalog) RootUsers(ctx context.Context, tx *txn.Tx) ([]UserDef, error) {
	return listDefs[UserDef](ctx, c, tx, "us:root", keycodec.RootUserScanPrefix())
}

func (c *Catalog) DefineRootUser(tx *txn.Tx, def UserDef) error {
	return defineEntity(c, tx, keycodec.RootUserDefKey(def.Name), "us:root", def)
}

func (c *Catalog) NamespaceUsers(ctx context.Context, tx *txn.Tx, ns string) ([]UserDef, error) {
	return listDefs[UserDef](ctx, c, tx, "us:"+ns, keycodec.NamespaceUserScanPrefix(ns))
}

func (c *Catalog) DefineNamespaceUser(tx *txn.Tx, ns string, def UserDef) error {
	return defineEntity(c, tx, keycodec.NamespaceUserDefKey(ns, def.Name), "us:"+ns, def)
}

func (c *Catalog) DatabaseUsers(ctx context.Context, tx *txn.Tx, ns, db string) ([]UserDef, error) {
	return listDefs[UserDef](ctx, c, tx, "us:"+ns+"."+db, keycodec.DatabaseUserScanPrefix(ns, db))
}

func (c *Catalog) DefineDatabaseUser(tx *txn.Tx, ns, db string, def UserDef) error {
	return defineEntity(c, tx, keycodec.DatabaseUserDefKey(ns, db, def.Name), "us:"+ns+"."+db, def)
}

func (c *Catalog) RootAccesses(ctx context.Context, tx *txn.Tx) ([]AccessDef, error) {
	return listDefs[AccessDef](ctx, c, tx, "ac:root", keycodec.RootAccessScanPrefix())
}

func (c *Catalog) DefineRootAccess(tx *txn.Tx, def AccessDef) error {
	return defineEntity(c, tx, keycodec.RootAccessDefKey(def.Name), "ac:root", def)
}

func (c *Catalog) NamespaceAccesses(ctx context.Context, tx *txn.Tx, ns string) ([]AccessDef, error) {
	return listDefs[AccessDef](ctx, c, tx, "ac:"+ns, keycodec.NamespaceAccessScanPrefix(ns))
}

func (c *Catalog) DefineNamespaceAccess(tx *txn.Tx, ns string, def AccessDef) error {
	return defineEntity(c, tx, keycodec.NamespaceAccessDefKey(ns, def.Name), "ac:"+ns, def)
}

func (c *Catalog) DatabaseAccesses(ctx context.Context, tx *txn.Tx, ns, db string) ([]AccessDef, error) {
	return listDefs[AccessDef](ctx, c, tx, "ac:"+ns+"."+db, keycodec.DatabaseAccessScanPrefix(ns, db))
}

func (c *Catalog) DefineDatabaseAccess(tx *txn.Tx, ns, db string, def AccessDef) error {
	return defineEntity(c, tx, keycodec.DatabaseAccessDefKey(ns, db, def.Name), "ac:"+ns+"."+db, def)
}

func (c *Catalog) RootAccessGrants(ctx context.Context, tx *txn.Tx) ([]AccessGrantDef, error) {
	return listDefs[AccessGrantDef](ctx, c, tx, "ag:root", keycodec.RootAccessGrantScanPrefix())
}

func (c *Catalog) DefineRootAccessGrant(tx *txn.Tx, def AccessGrantDef) error {
	return defineEntity(c, tx, keycodec.RootAccessGrantKey(def.ID), "ag:root", def)
}

func (c *Catalog) NamespaceAccessGrants(ctx context.Context, tx *txn.Tx, ns string) ([]AccessGrantDef, error) {
	return listDefs[AccessGrantDef](ctx, c, tx, "ag:"+ns, keycodec.NamespaceAccessGrantScanPrefix(ns))
}

func (c *Catalog) DefineNamespaceAccessGrant(tx *txn.Tx, ns string, def AccessGrantDef) error {
	return defineEntity(c, tx, keycodec.NamespaceAccessGrantKey(ns, def.ID), "ag:"+ns, def)
}

func (c *Catalog) DatabaseAccessGrants(ctx context.Context, tx *txn.Tx, ns, db string) ([]AccessGrantDef, error) {
	return listDefs[AccessGrantDef](ctx, c, tx, "ag:"+ns+"."+db, keycodec.DatabaseAccessGrantScanPrefix(ns, db))
}

func (c *Catalog) DefineDatabaseAccessGrant(tx *txn.Tx, ns, db string, def AccessGrantDef) error {
	return defineEntity(c, tx, keycodec.DatabaseAccessGrantKey(ns, db, def.ID), "ag:"+ns+"."+db, def)
}

// --- Record document cache (weight-1 entries) ---

// CachedRecord returns the cached document body at key, if present.
func (c *Catalog) CachedRecord(key []byte) ([]byte, bool) {
	return c.cache.getRecord(string(key))
}

// CacheRecord stores a decoded document body in the weight-1 segment of
// the cache, evicted by ordinary LRU recency rather than explicit
// invalidation (spec.md §4.3 "per-value records have weight 1").
func (c *Catalog) CacheRecord(key, body []byte) {
	c.cache.putRecord(string(key), body)
}

// InvalidateRecord drops a cached document body, called after any write
// to its key so readers never observe a stale cached body.
func (c *Catalog) InvalidateRecord(key []byte) {
	c.cache.invalidateRecord(string(key))
}
