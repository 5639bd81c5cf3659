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

// Package types implements the Value sum type (spec.md §3 C5) and its
// supporting kinds: Number, Duration, Symbol, RecordID, Range. Grounded on
// original_source/crates/core/src/val/* (array.rs, duration.rs, symbol.rs,
// range.rs, value/{every,patch}.rs) translated from a Rust closed enum into
// a sealed Go interface with one concrete type per variant, the idiomatic
// Go rendition of a sum type (spec.md §9 "Deep inheritance / duck typing").
package types

import (
	"time"

	"github.com/google/uuid"
)

// Value is implemented by exactly the variants listed in spec.md §3 C5.
// The unexported marker method seals the interface to this package.
type Value interface {
	Kind() Kind
	value()
}

type None struct{}

func (None) Kind() Kind { return KindNone }
func (None) value()     {}

type Null struct{}

func (Null) Kind() Kind { return KindNull }
func (Null) value()     {}

type Bool bool

func (Bool) Kind() Kind { return KindBool }
func (Bool) value()     {}

type Num struct{ Number }

func (Num) Kind() Kind { return KindNumber }
func (Num) value()     {}

func NewNumberValue(n Number) Num { return Num{n} }

// Str is a SurrealQL string, backed by an interned Symbol (spec.md §3
// "Strings are interned").
type Str struct{ sym *Symbol }

func NewString(s string) Str { return Str{sym: NewSymbol(s)} }
func (s Str) Kind() Kind     { return KindString }
func (Str) value()           {}
func (s Str) String() string { return s.sym.String() }

type Bytes []byte

func (Bytes) Kind() Kind { return KindBytes }
func (Bytes) value()     {}

// Datetime wraps time.Time at UTC, nanosecond precision.
type Datetime struct{ time.Time }

func (Datetime) Kind() Kind { return KindDatetime }
func (Datetime) value()     {}

type DurationValue struct{ Duration }

func (DurationValue) Kind() Kind { return KindDuration }
func (DurationValue) value()     {}

type UUID struct{ uuid.UUID }

func (UUID) Kind() Kind { return KindUUID }
func (UUID) value()     {}

type Array []Value

func (Array) Kind() Kind { return KindArray }
func (Array) value()     {}

// Set is an Array with deduplicated, order-insensitive membership
// (spec.md §3 C5 "Set").
type Set []Value

func (Set) Kind() Kind { return KindSet }
func (Set) value()     {}

// Object preserves field insertion order (needed for RETURN FIELDS and
// export ordering) while supporting O(1) lookup.
type Object struct {
	keys []string
	vals map[string]Value
}

func NewObject() *Object {
	return &Object{vals: make(map[string]Value)}
}

func (o *Object) Kind() Kind { return KindObject }
func (*Object) value()       {}

func (o *Object) Set(key string, v Value) {
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = v
}

func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.vals[key]
	return v, ok
}

func (o *Object) Delete(key string) {
	if _, ok := o.vals[key]; !ok {
		return
	}
	delete(o.vals, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

func (o *Object) Keys() []string { return o.keys }

func (o *Object) Len() int { return len(o.keys) }

func (o *Object) Clone() *Object {
	c := &Object{
		keys: append([]string(nil), o.keys...),
		vals: make(map[string]Value, len(o.vals)),
	}
	for k, v := range o.vals {
		c.vals[k] = v
	}
	return c
}

type Regex struct{ Pattern string }

func (Regex) Kind() Kind { return KindRegex }
func (Regex) value()     {}

type File struct {
	Bucket string
	Key    string
}

func (File) Kind() Kind { return KindFile }
func (File) value()     {}

// Closure is a reference to a named function with bound parameter names.
// Scripting/invocation is explicitly out of scope (spec.md §1); Closure
// exists only as a first-class value that can be stored and compared.
type Closure struct {
	Name   string
	Params []string
}

func (Closure) Kind() Kind { return KindClosure }
func (Closure) value()     {}
