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

// Package keycodec (this file): key shapes for catalog sub-entity
// definitions (spec.md C4). NamespacePrefix/DatabasePrefix/TablePrefix
// already double as the definition keys for those three levels (a
// namespace/database/table *is* its own definition record); this file
// adds the scan-prefix counterparts plus key shapes for definitions that
// live underneath a scope rather than being the scope itself: fields,
// indexes and events under a table; functions, params, analyzers, users,
// accesses and access grants under a database or namespace; users,
// accesses and access grants again at the root. One sigil-tagged
// constant per entity kind, following teacher_ref/erigon-lib/kv/tables.go's
// "named constant + one comment" convention.
package keycodec

// Sub-entity definition tags, each introduced by sigilNamespace ('!') the
// same way "ns"/"db"/"tb" are, so DecodeCategory-style sigil matching
// stays uniform across every definition kind.
const (
	tagFD = "fd" // field
	tagIX = "ix" // index
	tagEV = "ev" // event
	tagFC = "fc" // function
	tagPA = "pa" // param
	tagAZ = "az" // analyzer
	tagUS = "us" // user
	tagAC = "ac" // access method
	tagAG = "ag" // access grant
	tagND = "nd" // node membership (C10)
)

// NamespaceScanPrefix returns "/!ns", the prefix covering every namespace
// definition key.
func NamespaceScanPrefix() []byte {
	return new(builder).byte(sigilRoot).byte(sigilNamespace).raw([]byte(tagNS)).buf
}

// DatabaseScanPrefix returns "/*{ns}!db", covering every database
// definition under ns.
func DatabaseScanPrefix(ns string) []byte {
	return new(builder).byte(sigilRoot).byte(sigilSep).encodeString(ns).
		byte(sigilNamespace).raw([]byte(tagDB)).buf
}

// TableScanPrefix returns "/*{ns}*{db}!tb", covering every table
// definition under ns.db.
func TableScanPrefix(ns, db string) []byte {
	return new(builder).byte(sigilRoot).byte(sigilSep).encodeString(ns).
		byte(sigilSep).encodeString(db).
		byte(sigilNamespace).raw([]byte(tagTB)).buf
}

// tableScopedDefKey returns "/*{ns}*{db}*{tb}!{tag}{name}", the shape
// shared by field/index/event definitions.
func tableScopedDefKey(ns, db, tb, tag, name string) []byte {
	return tablePathPrefix(ns, db, tb).byte(sigilNamespace).raw([]byte(tag)).encodeString(name).buf
}

func tableScopedDefPrefix(ns, db, tb, tag string) []byte {
	return tablePathPrefix(ns, db, tb).byte(sigilNamespace).raw([]byte(tag)).buf
}

// dbScopedDefKey returns "/*{ns}*{db}!{tag}{name}", the shape shared by
// function/param/analyzer/user/access/access-grant definitions scoped to
// a database.
func dbScopedDefKey(ns, db, tag, name string) []byte {
	return new(builder).byte(sigilRoot).byte(sigilSep).encodeString(ns).
		byte(sigilSep).encodeString(db).
		byte(sigilNamespace).raw([]byte(tag)).encodeString(name).buf
}

func dbScopedDefPrefix(ns, db, tag string) []byte {
	return new(builder).byte(sigilRoot).byte(sigilSep).encodeString(ns).
		byte(sigilSep).encodeString(db).
		byte(sigilNamespace).raw([]byte(tag)).buf
}

// nsScopedDefKey returns "/*{ns}!{tag}{name}", the shape shared by
// user/access/access-grant definitions scoped to a namespace (not a
// database).
func nsScopedDefKey(ns, tag, name string) []byte {
	return new(builder).byte(sigilRoot).byte(sigilSep).encodeString(ns).
		byte(sigilNamespace).raw([]byte(tag)).encodeString(name).buf
}

func nsScopedDefPrefix(ns, tag string) []byte {
	return new(builder).byte(sigilRoot).byte(sigilSep).encodeString(ns).
		byte(sigilNamespace).raw([]byte(tag)).buf
}

// rootScopedDefKey returns "/!{tag}{name}", the shape shared by
// root-level user/access/access-grant definitions.
func rootScopedDefKey(tag, name string) []byte {
	return new(builder).byte(sigilRoot).byte(sigilNamespace).raw([]byte(tag)).encodeString(name).buf
}

func rootScopedDefPrefix(tag string) []byte {
	return new(builder).byte(sigilRoot).byte(sigilNamespace).raw([]byte(tag)).buf
}

func FieldDefKey(ns, db, tb, field string) []byte        { return tableScopedDefKey(ns, db, tb, tagFD, field) }
func FieldDefScanPrefix(ns, db, tb string) []byte        { return tableScopedDefPrefix(ns, db, tb, tagFD) }
func IndexDefKey(ns, db, tb, ix string) []byte           { return tableScopedDefKey(ns, db, tb, tagIX, ix) }
func IndexDefScanPrefix(ns, db, tb string) []byte        { return tableScopedDefPrefix(ns, db, tb, tagIX) }
func EventDefKey(ns, db, tb, ev string) []byte           { return tableScopedDefKey(ns, db, tb, tagEV, ev) }
func EventDefScanPrefix(ns, db, tb string) []byte        { return tableScopedDefPrefix(ns, db, tb, tagEV) }

func FunctionDefKey(ns, db, name string) []byte    { return dbScopedDefKey(ns, db, tagFC, name) }
func FunctionDefScanPrefix(ns, db string) []byte   { return dbScopedDefPrefix(ns, db, tagFC) }
func ParamDefKey(ns, db, name string) []byte       { return dbScopedDefKey(ns, db, tagPA, name) }
func ParamDefScanPrefix(ns, db string) []byte      { return dbScopedDefPrefix(ns, db, tagPA) }
func AnalyzerDefKey(ns, db, name string) []byte    { return dbScopedDefKey(ns, db, tagAZ, name) }
func AnalyzerDefScanPrefix(ns, db string) []byte   { return dbScopedDefPrefix(ns, db, tagAZ) }

func DatabaseUserDefKey(ns, db, name string) []byte  { return dbScopedDefKey(ns, db, tagUS, name) }
func DatabaseUserScanPrefix(ns, db string) []byte    { return dbScopedDefPrefix(ns, db, tagUS) }
func DatabaseAccessDefKey(ns, db, name string) []byte { return dbScopedDefKey(ns, db, tagAC, name) }
func DatabaseAccessScanPrefix(ns, db string) []byte  { return dbScopedDefPrefix(ns, db, tagAC) }
func DatabaseAccessGrantKey(ns, db, name string) []byte { return dbScopedDefKey(ns, db, tagAG, name) }
func DatabaseAccessGrantScanPrefix(ns, db string) []byte { return dbScopedDefPrefix(ns, db, tagAG) }

func NamespaceUserDefKey(ns, name string) []byte     { return nsScopedDefKey(ns, tagUS, name) }
func NamespaceUserScanPrefix(ns string) []byte       { return nsScopedDefPrefix(ns, tagUS) }
func NamespaceAccessDefKey(ns, name string) []byte   { return nsScopedDefKey(ns, tagAC, name) }
func NamespaceAccessScanPrefix(ns string) []byte     { return nsScopedDefPrefix(ns, tagAC) }
func NamespaceAccessGrantKey(ns, name string) []byte { return nsScopedDefKey(ns, tagAG, name) }
func NamespaceAccessGrantScanPrefix(ns string) []byte { return nsScopedDefPrefix(ns, tagAG) }

func RootUserDefKey(name string) []byte      { return rootScopedDefKey(tagUS, name) }
func RootUserScanPrefix() []byte             { return rootScopedDefPrefix(tagUS) }
func RootAccessDefKey(name string) []byte    { return rootScopedDefKey(tagAC, name) }
func RootAccessScanPrefix() []byte           { return rootScopedDefPrefix(tagAC) }
func RootAccessGrantKey(name string) []byte  { return rootScopedDefKey(tagAG, name) }
func RootAccessGrantScanPrefix() []byte      { return rootScopedDefPrefix(tagAG) }

// NodeMembershipKey returns "/!nd{nodeID}", a root-scoped definition-style
// key for a node. The C10 node-membership tasks do not use it: they store
// heartbeats under MembershipKey ("/#{nodeID}").
func NodeMembershipKey(nodeID string) []byte { return rootScopedDefKey(tagND, nodeID) }
func NodeMembershipScanPrefix() []byte       { return rootScopedDefPrefix(tagND) }
