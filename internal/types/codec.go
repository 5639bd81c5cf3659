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

package types

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/corvidb/corvid/internal/corerr"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// wireValue is the on-disk JSON envelope for a Value, the same stdlib
// encoding/json fallback internal/catalog uses for definitions (its
// DESIGN.md entry records why: no pack library targets a compact
// heterogeneous struct-tagged codec). Record bodies are the other
// consumer of that same justification.
type wireValue struct {
	K Kind            `json:"k"`
	B bool            `json:"b,omitempty"`
	N *wireNumber     `json:"n,omitempty"`
	S string          `json:"s,omitempty"`
	Y string          `json:"y,omitempty"` // base64 Bytes
	T time.Time       `json:"t,omitempty"`
	D *wireDuration   `json:"d,omitempty"`
	U string          `json:"u,omitempty"` // UUID string
	A []wireValue     `json:"a,omitempty"` // Array/Set elements
	O []wireField     `json:"o,omitempty"` // Object fields, order preserved
	R *wireRecordID   `json:"r,omitempty"`
	Rg *wireRange     `json:"rg,omitempty"`
	Cl *wireClosure   `json:"cl,omitempty"`
	Rx string         `json:"rx,omitempty"` // Regex pattern
	Fb string         `json:"fb,omitempty"` // File bucket
	Fk string         `json:"fk,omitempty"` // File key
}

type wireField struct {
	Key string    `json:"key"`
	Val wireValue `json:"val"`
}

type wireNumber struct {
	Kind NumberKind `json:"kind"`
	I    int64      `json:"i,omitempty"`
	F    float64    `json:"f,omitempty"`
	D    string     `json:"d,omitempty"`
}

type wireDuration struct {
	Secs  uint64 `json:"secs"`
	Nanos uint32 `json:"nanos"`
}

type wireRecordID struct {
	Table string    `json:"table"`
	ID    wireValue `json:"id"`
}

type wireRange struct {
	StartKind BoundKind `json:"startKind"`
	Start     *wireValue `json:"start,omitempty"`
	EndKind   BoundKind `json:"endKind"`
	End       *wireValue `json:"end,omitempty"`
}

type wireClosure struct {
	Name   string   `json:"name"`
	Params []string `json:"params"`
}

// MarshalValue encodes a Value tree to bytes for storage (document
// bodies, via internal/doc; catalog definitions use their own struct
// codec instead since they are fixed-schema, per internal/catalog's
// DESIGN.md entry).
func MarshalValue(v Value) ([]byte, error) {
	w, err := toWire(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

// UnmarshalValue decodes bytes produced by MarshalValue back to a Value.
func UnmarshalValue(data []byte) (Value, error) {
	var w wireValue
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, &corerr.KeyDecodeError{Reason: "malformed value encoding: " + err.Error()}
	}
	return fromWire(w)
}

func toWire(v Value) (wireValue, error) {
	switch n := v.(type) {
	case None:
		return wireValue{K: KindNone}, nil
	case Null:
		return wireValue{K: KindNull}, nil
	case Bool:
		return wireValue{K: KindBool, B: bool(n)}, nil
	case Num:
		wn := &wireNumber{Kind: n.NumberKind()}
		switch n.NumberKind() {
		case NumInt:
			wn.I, _ = n.Int()
		case NumFloat:
			wn.F, _ = n.Float()
		case NumDecimal:
			d, _ := n.Decimal()
			wn.D = d.String()
		}
		return wireValue{K: KindNumber, N: wn}, nil
	case Str:
		return wireValue{K: KindString, S: n.String()}, nil
	case Bytes:
		return wireValue{K: KindBytes, Y: base64.StdEncoding.EncodeToString(n)}, nil
	case Datetime:
		return wireValue{K: KindDatetime, T: n.Time}, nil
	case DurationValue:
		return wireValue{K: KindDuration, D: &wireDuration{Secs: n.Secs, Nanos: n.Nanos}}, nil
	case UUID:
		return wireValue{K: KindUUID, U: n.String()}, nil
	case Array:
		elems := make([]wireValue, len(n))
		for i, e := range n {
			we, err := toWire(e)
			if err != nil {
				return wireValue{}, err
			}
			elems[i] = we
		}
		return wireValue{K: KindArray, A: elems}, nil
	case Set:
		elems := make([]wireValue, len(n))
		for i, e := range n {
			we, err := toWire(e)
			if err != nil {
				return wireValue{}, err
			}
			elems[i] = we
		}
		return wireValue{K: KindSet, A: elems}, nil
	case *Object:
		fields := make([]wireField, 0, n.Len())
		for _, k := range n.Keys() {
			fv, _ := n.Get(k)
			wv, err := toWire(fv)
			if err != nil {
				return wireValue{}, err
			}
			fields = append(fields, wireField{Key: k, Val: wv})
		}
		return wireValue{K: KindObject, O: fields}, nil
	case RecordID:
		wid, err := toWire(n.ID)
		if err != nil {
			return wireValue{}, err
		}
		return wireValue{K: KindRecordID, R: &wireRecordID{Table: n.Table, ID: wid}}, nil
	case RangeValue:
		wr := &wireRange{StartKind: n.Start.Kind, EndKind: n.End.Kind}
		if n.Start.Kind != Unbounded {
			wv, err := toWire(n.Start.Val)
			if err != nil {
				return wireValue{}, err
			}
			wr.Start = &wv
		}
		if n.End.Kind != Unbounded {
			wv, err := toWire(n.End.Val)
			if err != nil {
				return wireValue{}, err
			}
			wr.End = &wv
		}
		return wireValue{K: KindRange, Rg: wr}, nil
	case Closure:
		return wireValue{K: KindClosure, Cl: &wireClosure{Name: n.Name, Params: n.Params}}, nil
	case Regex:
		return wireValue{K: KindRegex, Rx: n.Pattern}, nil
	case File:
		return wireValue{K: KindFile, Fb: n.Bucket, Fk: n.Key}, nil
	default:
		return wireValue{}, fmt.Errorf("types: value kind %T has no wire encoding", v)
	}
}

func fromWire(w wireValue) (Value, error) {
	switch w.K {
	case KindNone:
		return None{}, nil
	case KindNull:
		return Null{}, nil
	case KindBool:
		return Bool(w.B), nil
	case KindNumber:
		if w.N == nil {
			return nil, &corerr.KeyDecodeError{Reason: "number value missing"}
		}
		switch w.N.Kind {
		case NumInt:
			return NewNumberValue(NewInt(w.N.I)), nil
		case NumFloat:
			return NewNumberValue(NewFloat(w.N.F)), nil
		case NumDecimal:
			d, err := decimal.NewFromString(w.N.D)
			if err != nil {
				return nil, &corerr.KeyDecodeError{Reason: "malformed decimal: " + err.Error()}
			}
			return NewNumberValue(NewDecimal(d)), nil
		}
		return nil, &corerr.KeyDecodeError{Reason: "unknown number kind"}
	case KindString:
		return NewString(w.S), nil
	case KindBytes:
		b, err := base64.StdEncoding.DecodeString(w.Y)
		if err != nil {
			return nil, &corerr.KeyDecodeError{Reason: "malformed bytes encoding: " + err.Error()}
		}
		return Bytes(b), nil
	case KindDatetime:
		return Datetime{Time: w.T}, nil
	case KindDuration:
		if w.D == nil {
			return nil, &corerr.KeyDecodeError{Reason: "duration value missing"}
		}
		return DurationValue{Duration: Duration{Secs: w.D.Secs, Nanos: w.D.Nanos}}, nil
	case KindUUID:
		id, err := uuid.Parse(w.U)
		if err != nil {
			return nil, &corerr.KeyDecodeError{Reason: "malformed uuid: " + err.Error()}
		}
		return UUID{UUID: id}, nil
	case KindArray:
		arr := make(Array, len(w.A))
		for i, we := range w.A {
			v, err := fromWire(we)
			if err != nil {
				return nil, err
			}
			arr[i] = v
		}
		return arr, nil
	case KindSet:
		set := make(Set, len(w.A))
		for i, we := range w.A {
			v, err := fromWire(we)
			if err != nil {
				return nil, err
			}
			set[i] = v
		}
		return set, nil
	case KindObject:
		obj := NewObject()
		for _, f := range w.O {
			v, err := fromWire(f.Val)
			if err != nil {
				return nil, err
			}
			obj.Set(f.Key, v)
		}
		return obj, nil
	case KindRecordID:
		if w.R == nil {
			return nil, &corerr.KeyDecodeError{Reason: "record id value missing"}
		}
		idv, err := fromWire(w.R.ID)
		if err != nil {
			return nil, err
		}
		key, ok := idv.(RecordIDKey)
		if !ok {
			return nil, &corerr.KeyDecodeError{Reason: "record id key has non-key kind"}
		}
		return RecordID{Table: w.R.Table, ID: key}, nil
	case KindRange:
		if w.Rg == nil {
			return nil, &corerr.KeyDecodeError{Reason: "range value missing"}
		}
		start := Bound[Value]{Kind: w.Rg.StartKind}
		if w.Rg.Start != nil {
			v, err := fromWire(*w.Rg.Start)
			if err != nil {
				return nil, err
			}
			start.Val = v
		}
		end := Bound[Value]{Kind: w.Rg.EndKind}
		if w.Rg.End != nil {
			v, err := fromWire(*w.Rg.End)
			if err != nil {
				return nil, err
			}
			end.Val = v
		}
		return RangeValue{Start: start, End: end}, nil
	case KindClosure:
		if w.Cl == nil {
			return nil, &corerr.KeyDecodeError{Reason: "closure value missing"}
		}
		return Closure{Name: w.Cl.Name, Params: w.Cl.Params}, nil
	case KindRegex:
		return Regex{Pattern: w.Rx}, nil
	case KindFile:
		return File{Bucket: w.Fb, Key: w.Fk}, nil
	default:
		return nil, &corerr.KeyDecodeError{Reason: "unsupported value kind in wire encoding"}
	}
}
