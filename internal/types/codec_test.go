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
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, v Value) Value {
	t.Helper()
	data, err := MarshalValue(v)
	require.NoError(t, err)
	got, err := UnmarshalValue(data)
	require.NoError(t, err)
	return got
}

func TestCodecScalars(t *testing.T) {
	require.Equal(t, None{}, roundTrip(t, None{}))
	require.Equal(t, Null{}, roundTrip(t, Null{}))
	require.Equal(t, Bool(true), roundTrip(t, Bool(true)))
	require.Equal(t, Bytes("abc"), roundTrip(t, Bytes("abc")))

	got := roundTrip(t, NewNumberValue(NewInt(42)))
	n, ok := got.(Num).Int()
	require.True(t, ok)
	require.Equal(t, int64(42), n)

	gotStr := roundTrip(t, NewString("hello"))
	require.Equal(t, "hello", gotStr.(Str).String())
}

func TestCodecObjectAndArray(t *testing.T) {
	obj := NewObject()
	obj.Set("name", NewString("corvid"))
	obj.Set("age", NewNumberValue(NewInt(3)))

	arr := Array{NewNumberValue(NewInt(1)), NewNumberValue(NewInt(2))}
	obj.Set("nums", arr)

	got := roundTrip(t, obj)
	gotObj, ok := got.(*Object)
	require.True(t, ok)
	require.Equal(t, []string{"name", "age", "nums"}, gotObj.Keys())

	nameVal, _ := gotObj.Get("name")
	require.Equal(t, "corvid", nameVal.(Str).String())

	numsVal, _ := gotObj.Get("nums")
	gotArr, ok := numsVal.(Array)
	require.True(t, ok)
	require.Len(t, gotArr, 2)
}

func TestCodecRecordID(t *testing.T) {
	rid := RecordID{Table: "person", ID: NewString("alice")}
	got := roundTrip(t, rid)
	gotRid, ok := got.(RecordID)
	require.True(t, ok)
	require.Equal(t, "person", gotRid.Table)
	require.Equal(t, "alice", gotRid.ID.(Str).String())
}

func TestCodecUUID(t *testing.T) {
	id := uuid.New()
	got := roundTrip(t, UUID{UUID: id})
	require.Equal(t, id, got.(UUID).UUID)
}

func TestCodecRange(t *testing.T) {
	rv := RangeValue{
		Start: NewIncluded[Value](NewNumberValue(NewInt(1))),
		End:   NewExcluded[Value](NewNumberValue(NewInt(10))),
	}
	got := roundTrip(t, rv)
	gotRv, ok := got.(RangeValue)
	require.True(t, ok)
	require.Equal(t, Included, gotRv.Start.Kind)
	require.Equal(t, Excluded, gotRv.End.Kind)
}

func TestCodecDuration(t *testing.T) {
	d := DurationValue{Duration: Duration{Secs: 5, Nanos: 100}}
	got := roundTrip(t, d)
	gotD, ok := got.(DurationValue)
	require.True(t, ok)
	require.Equal(t, uint64(5), gotD.Secs)
	require.Equal(t, uint32(100), gotD.Nanos)
}
