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

// Package keycodec encodes the typed key hierarchy described in spec.md §3
// "Keys" into byte strings whose lexicographic order matches the intended
// logical order. Naming mirrors teacher_ref/erigon-lib/kv/tables.go's
// convention of one named constant/sigil per logical table with a
// one-line comment describing its key/value shape, rather than a generic
// "table number" scheme.
package keycodec

import (
	"encoding/binary"

	"github.com/corvidb/corvid/internal/corerr"
	"github.com/corvidb/corvid/internal/types"
)

// Category distinguishes key kinds so the decoder can fail fast on a sigil
// mismatch (spec.md §4.1 "the decoder fails with a KeyDecode error when the
// sigil or category does not match").
type Category uint8

const (
	CategoryNamespace Category = iota
	CategoryDatabase
	CategoryTable
	CategoryRecord
	CategoryIndexRoot
	CategoryIndexEntry
	CategoryGraphEdge
	CategoryTimestamp
	CategoryClusterMember
	CategoryChangeLog
)

func (c Category) String() string {
	switch c {
	case CategoryNamespace:
		return "namespace"
	case CategoryDatabase:
		return "database"
	case CategoryTable:
		return "table"
	case CategoryRecord:
		return "record"
	case CategoryIndexRoot:
		return "index_root"
	case CategoryIndexEntry:
		return "index_entry"
	case CategoryGraphEdge:
		return "graph_edge"
	case CategoryTimestamp:
		return "timestamp"
	case CategoryClusterMember:
		return "cluster_member"
	case CategoryChangeLog:
		return "change_log"
	default:
		return "unknown"
	}
}

// Sigils. Single bytes chosen, as in spec.md §3, so that the structural
// separators themselves sort correctly relative to string terminators
// (0x00/0x01, see encodeString) and to each other: '!' (0x21) < '*' (0x2a)
// < '+' (0x2b) < '~' (0x7e), preserving namespace < database < table <
// index < graph-edge ordering among siblings sharing a prefix.
const (
	sigilRoot      = '/'
	sigilNamespace = '!'
	sigilSep       = '*'
	sigilIndex     = '+'
	sigilGraph     = '~'
	sigilCluster   = '#'
	sigilChangeLog = ']'
	sigilChangeSeq = '\\'

	tagNS = "ns"
	tagDB = "db"
	tagTB = "tb"
)

// builder is a small append-only byte accumulator, the Go idiom erigon-lib
// uses throughout its key-building helpers (direct []byte append, no
// intermediate string concatenation).
type builder struct{ buf []byte }

func (b *builder) byte(c byte) *builder { b.buf = append(b.buf, c); return b }
func (b *builder) raw(s []byte) *builder { b.buf = append(b.buf, s...); return b }

// encodeString appends s followed by a terminator, escaping any embedded
// 0x00 byte as 0x00 0xFF so the two-byte terminator 0x00 0x00 remains
// unambiguous. This guarantees "a" < "aa" regardless of trailing key
// fields (spec.md §4.1), the standard ordered-key string-escaping scheme
// used by FoundationDB-style tuple layers.
func (b *builder) encodeString(s string) *builder {
	for i := 0; i < len(s); i++ {
		if s[i] == 0x00 {
			b.buf = append(b.buf, 0x00, 0xFF)
		} else {
			b.buf = append(b.buf, s[i])
		}
	}
	b.buf = append(b.buf, 0x00, 0x00)
	return b
}

func decodeString(buf []byte) (string, []byte, error) {
	var out []byte
	i := 0
	for {
		if i >= len(buf) {
			return "", nil, &corerr.KeyDecodeError{Reason: "unterminated string"}
		}
		if buf[i] == 0x00 {
			if i+1 >= len(buf) {
				return "", nil, &corerr.KeyDecodeError{Reason: "truncated string escape"}
			}
			switch buf[i+1] {
			case 0x00:
				return string(out), buf[i+2:], nil
			case 0xFF:
				out = append(out, 0x00)
				i += 2
				continue
			default:
				return "", nil, &corerr.KeyDecodeError{Reason: "invalid string escape"}
			}
		}
		out = append(out, buf[i])
		i++
	}
}

// encodeUint appends v as 8 big-endian bytes, the unsigned-id encoding
// spec.md §4.1 requires ("Integers: big-endian, unsigned for ids").
func (b *builder) encodeUint(v uint64) *builder {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return b.raw(tmp[:])
}

func decodeUint(buf []byte) (uint64, []byte, error) {
	if len(buf) < 8 {
		return 0, nil, &corerr.KeyDecodeError{Reason: "truncated uint64"}
	}
	return binary.BigEndian.Uint64(buf[:8]), buf[8:], nil
}

// encodeInt flips v's sign bit then appends it big-endian, so that
// negative values sort before zero and positive values in signed numeric
// order across the zero crossing.
func (b *builder) encodeInt(v int64) *builder {
	return b.encodeUint(uint64(v) ^ (1 << 63))
}

func decodeInt(buf []byte) (int64, []byte, error) {
	u, rest, err := decodeUint(buf)
	if err != nil {
		return 0, nil, err
	}
	return int64(u ^ (1 << 63)), rest, nil
}

// NamespacePrefix returns "/!ns{ns}".
func NamespacePrefix(ns string) []byte {
	return new(builder).byte(sigilRoot).byte(sigilNamespace).raw([]byte(tagNS)).encodeString(ns).buf
}

// DatabasePrefix returns "/*{ns}!db{db}".
func DatabasePrefix(ns, db string) []byte {
	return new(builder).byte(sigilRoot).byte(sigilSep).encodeString(ns).
		byte(sigilNamespace).raw([]byte(tagDB)).encodeString(db).buf
}

// TablePrefix returns "/*{ns}*{db}!tb{tb}".
func TablePrefix(ns, db, tb string) []byte {
	return new(builder).byte(sigilRoot).byte(sigilSep).encodeString(ns).
		byte(sigilSep).encodeString(db).
		byte(sigilNamespace).raw([]byte(tagTB)).encodeString(tb).buf
}

// tablePathPrefix returns "/*{ns}*{db}*{tb}", the common stem shared by
// record, index and graph-edge keys under one table.
func tablePathPrefix(ns, db, tb string) *builder {
	return new(builder).byte(sigilRoot).byte(sigilSep).encodeString(ns).
		byte(sigilSep).encodeString(db).
		byte(sigilSep).encodeString(tb)
}

// RecordKey returns "/*{ns}*{db}*{tb}*{id}".
func RecordKey(ns, db, tb string, id types.RecordIDKey) ([]byte, error) {
	b := tablePathPrefix(ns, db, tb).byte(sigilSep)
	if err := encodeRecordIDKey(b, id); err != nil {
		return nil, err
	}
	return b.buf, nil
}

// RecordPrefix returns "/*{ns}*{db}*{tb}*", the smallest byte string that
// is a valid start point for a full-table record scan (spec.md §4.1
// "prefix(ns,db,tb) returns the smallest byte string >= every record key
// in (ns,db,tb)").
func RecordPrefix(ns, db, tb string) []byte {
	return tablePathPrefix(ns, db, tb).byte(sigilSep).buf
}

// RecordSuffix returns the exclusive upper bound for a full-table record
// scan: the lexicographic successor of RecordPrefix, so that
// [RecordPrefix, RecordSuffix) exactly covers every record key under the
// table (spec.md §4.1 "suffix(ns,db,tb) returns the next key-space
// boundary"). Grounded on the "successor key" technique described by
// leveldb/pebble's sstable block separators (other_examples table.go
// files): increment the last non-0xFF byte, dropping any trailing 0xFF
// run.
func RecordSuffix(ns, db, tb string) []byte {
	return Successor(RecordPrefix(ns, db, tb))
}

// Successor returns the shortest byte string strictly greater than every
// string with prefix p, or nil if no such finite string exists (p is all
// 0xFF bytes, i.e. it already borders the top of the keyspace).
func Successor(p []byte) []byte {
	out := append([]byte(nil), p...)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i] != 0xFF {
			out[i]++
			return out[:i+1]
		}
	}
	return nil
}

func encodeRecordIDKey(b *builder, id types.RecordIDKey) error {
	switch v := id.(type) {
	case types.Str:
		b.byte('s').encodeString(v.String())
	case types.Num:
		i, ok := v.Int()
		if !ok {
			return &corerr.KeyDecodeError{Reason: "record id number must be an integer"}
		}
		b.byte('n').encodeInt(i)
	case types.UUID:
		b.byte('u').raw(v.UUID[:])
	case types.Array:
		b.byte('a').encodeUint(uint64(len(v)))
		for _, e := range v {
			ek, ok := e.(types.RecordIDKey)
			if !ok {
				return &corerr.KeyDecodeError{Reason: "array record id element is not key-shaped"}
			}
			if err := encodeRecordIDKey(b, ek); err != nil {
				return err
			}
		}
	case *types.Object:
		b.byte('o').encodeUint(uint64(v.Len()))
		for _, k := range v.Keys() {
			fv, _ := v.Get(k)
			fk, ok := fv.(types.RecordIDKey)
			if !ok {
				return &corerr.KeyDecodeError{Reason: "object record id field is not key-shaped"}
			}
			b.encodeString(k)
			if err := encodeRecordIDKey(b, fk); err != nil {
				return err
			}
		}
	case types.RangeValue:
		return &corerr.KeyDecodeError{Reason: "a Range id cannot be encoded as a concrete record key"}
	default:
		return &corerr.KeyDecodeError{Reason: "unsupported record id key type"}
	}
	return nil
}

// IndexRootKey returns "/*{ns}*{db}*{tb}+{ix}".
func IndexRootKey(ns, db, tb, ix string) []byte {
	return tablePathPrefix(ns, db, tb).byte(sigilIndex).encodeString(ix).buf
}

// UniqueIndexKey returns the key for a unique-equality index entry: the
// field tuple only, no record id embedded (spec.md §4.7 "Unique
// equality... Key = (ns,db,tb,ix, field-tuple)").
func UniqueIndexKey(ns, db, tb, ix string, fields []types.Value) []byte {
	b := new(builder).raw(IndexRootKey(ns, db, tb, ix)).byte(sigilSep)
	encodeValueTuple(b, fields)
	return b.buf
}

// NonUniqueIndexKey returns the key for a non-unique-equality index entry:
// the field tuple with the record id embedded in the key itself (spec.md
// §4.7 "Non-unique equality. Same as unique but the key additionally
// embeds the record id").
func NonUniqueIndexKey(ns, db, tb, ix string, fields []types.Value, id types.RecordIDKey) ([]byte, error) {
	b := new(builder).raw(IndexRootKey(ns, db, tb, ix)).byte(sigilSep)
	encodeValueTuple(b, fields)
	b.byte(sigilSep)
	if err := encodeRecordIDKey(b, id); err != nil {
		return nil, err
	}
	return b.buf, nil
}

// encodeValueTuple encodes an ordered tuple of index field values. Only
// the kinds that can appear as index fields are handled; anything else is
// encoded via its string form, which keeps ordering well defined even for
// kinds the planner doesn't yet push into an index.
func encodeValueTuple(b *builder, vals []types.Value) {
	for _, v := range vals {
		switch t := v.(type) {
		case types.Str:
			b.byte('s').encodeString(t.String())
		case types.Num:
			switch t.NumberKind() {
			case types.NumInt:
				i, _ := t.Int()
				b.byte('i').encodeInt(i)
			default:
				b.byte('f').encodeString(t.Number.String())
			}
		case types.Bool:
			if t {
				b.byte('t')
			} else {
				b.byte('f')
			}
		case types.Null:
			b.byte('0')
		case types.None:
			b.byte('1')
		default:
			b.byte('x').encodeString(t.Kind().String())
		}
	}
}

// GraphEdgeKey returns "/*{ns}*{db}*{tb}~{id}{eg}{ft}{fk}": the from-side
// edge key used by GraphEdgeScan (spec.md §3, §4.7/§4.5 GraphEdgeScan).
// eg is a single byte direction tag ('>' out, '<' in) matching the arrow
// direction SurrealQL itself uses in `->edge->table` syntax.
func GraphEdgeKey(ns, db, tb string, id types.RecordIDKey, eg byte, ft string, fk types.RecordIDKey) ([]byte, error) {
	b := tablePathPrefix(ns, db, tb).byte(sigilGraph)
	if err := encodeRecordIDKey(b, id); err != nil {
		return nil, err
	}
	b.byte(eg).encodeString(ft)
	if err := encodeRecordIDKey(b, fk); err != nil {
		return nil, err
	}
	return b.buf, nil
}

// GraphEdgePrefix returns "/*{ns}*{db}*{tb}~{id}{eg}", the scan prefix for
// all edges leaving/entering a given record in one direction.
func GraphEdgePrefix(ns, db, tb string, id types.RecordIDKey, eg byte) ([]byte, error) {
	b := tablePathPrefix(ns, db, tb).byte(sigilGraph)
	if err := encodeRecordIDKey(b, id); err != nil {
		return nil, err
	}
	b.byte(eg)
	return b.buf, nil
}

// MembershipKey returns "/#{nodeID}", a cluster-scope key (no ns/db/tb
// component) holding one node's heartbeat/archive record (spec.md §4.8
// "Node-membership refresh/check/cleanup"). Single-node semantics only:
// this records liveness bookkeeping the background tasks consult, not a
// raft/consensus membership protocol.
func MembershipKey(nodeID string) []byte {
	return new(builder).byte(sigilRoot).byte(sigilCluster).encodeString(nodeID).buf
}

// MembershipPrefix returns "/#", the scan prefix covering every node's
// membership key.
func MembershipPrefix() []byte {
	return new(builder).byte(sigilRoot).byte(sigilCluster).buf
}

// ChangeLogKey returns "/*{ns}*{db}*{tb}]{versionstamp}", one change-feed
// entry for a table stamped with the commit that produced it (spec.md
// §4.8 "Change-feed GC — removes change entries older than the configured
// retention"). The consumer-facing subscription API this would feed is
// out of scope; only the storage shape and its GC task are implemented.
func ChangeLogKey(ns, db, tb string, vs Versionstamp) []byte {
	return tablePathPrefix(ns, db, tb).byte(sigilChangeLog).raw(vs[:]).buf
}

// ChangeLogPrefix returns "/*{ns}*{db}*{tb}]", the scan prefix for a
// table's change log.
func ChangeLogPrefix(ns, db, tb string) []byte {
	return tablePathPrefix(ns, db, tb).byte(sigilChangeLog).buf
}

// ChangeLogSeqKey returns "/*{ns}*{db}*{tb}\", the per-table counter
// GetTimestamp allocates each change-feed entry's versionstamp at. It
// lives under its own sigil rather than inside ChangeLogPrefix's range so
// the change-feed GC's table scan never has to special-case it.
func ChangeLogSeqKey(ns, db, tb string) []byte {
	return tablePathPrefix(ns, db, tb).byte(sigilChangeSeq).buf
}

// VersionstampSize is the fixed width of an encoded versionstamp (spec.md
// §4.1 "Versionstamps: 10-byte big-endian so later versions sort after
// earlier ones").
const VersionstampSize = 10

// Versionstamp is a 10-byte monotone stamp: an 8-byte transaction-order
// component followed by a 2-byte intra-transaction batch-order component,
// the FoundationDB convention also used by etcd's mvcc revision pairing
// (other_examples/.../mvcc-kvstore.go.go: "main" + "sub" revision).
type Versionstamp [VersionstampSize]byte

func NewVersionstamp(txOrder uint64, batchOrder uint16) Versionstamp {
	var vs Versionstamp
	binary.BigEndian.PutUint64(vs[0:8], txOrder)
	binary.BigEndian.PutUint16(vs[8:10], batchOrder)
	return vs
}

func (vs Versionstamp) TxOrder() uint64    { return binary.BigEndian.Uint64(vs[0:8]) }
func (vs Versionstamp) BatchOrder() uint16 { return binary.BigEndian.Uint16(vs[8:10]) }

func (vs Versionstamp) Compare(o Versionstamp) int {
	for i := range vs {
		if vs[i] != o[i] {
			if vs[i] < o[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// VersionstampedKey returns prefix || stamp || suffix, the layout
// get_versionstamped_key must produce (spec.md §4.2).
func VersionstampedKey(prefix []byte, vs Versionstamp, suffix []byte) []byte {
	out := make([]byte, 0, len(prefix)+VersionstampSize+len(suffix))
	out = append(out, prefix...)
	out = append(out, vs[:]...)
	out = append(out, suffix...)
	return out
}

// DecodeCategory inspects a key's leading sigils and reports which
// Category it belongs to, without fully decoding it, for storage-layer
// diagnostics; the catalog does not call it.
func DecodeCategory(key []byte) (Category, error) {
	if len(key) == 0 || key[0] != sigilRoot {
		return 0, &corerr.KeyDecodeError{Reason: "key does not start with root sigil"}
	}
	rest := key[1:]
	if len(rest) > 0 && rest[0] == sigilCluster {
		return CategoryClusterMember, nil
	}
	if len(rest) > 0 && rest[0] == sigilNamespace {
		return CategoryNamespace, nil
	}
	// "*{ns}" then either "!db" (database), "*{db}!tb" (table), or
	// "*{db}*{tb}" followed by a structural sigil.
	depth := 0
	for len(rest) > 0 {
		if rest[0] == sigilNamespace {
			switch depth {
			case 1:
				return CategoryDatabase, nil
			case 2:
				return CategoryTable, nil
			default:
				return 0, &corerr.KeyDecodeError{Reason: "unexpected definition sigil depth"}
			}
		}
		if rest[0] != sigilSep {
			return 0, &corerr.KeyDecodeError{Reason: "expected separator sigil"}
		}
		rest = rest[1:]
		_, next, err := decodeString(rest)
		if err != nil {
			return 0, err
		}
		rest = next
		depth++
		if depth == 3 {
			if len(rest) == 0 {
				return 0, &corerr.KeyDecodeError{Reason: "truncated key after table component"}
			}
			switch rest[0] {
			case sigilSep:
				return CategoryRecord, nil
			case sigilIndex:
				return CategoryIndexRoot, nil
			case sigilGraph:
				return CategoryGraphEdge, nil
			case sigilChangeLog:
				return CategoryChangeLog, nil
			default:
				return 0, &corerr.KeyDecodeError{Reason: "unknown table-scoped sigil"}
			}
		}
	}
	return 0, &corerr.KeyDecodeError{Reason: "truncated key"}
}
