// Copyright 2024 The SpookyDB Authors
// This file is part of SpookyDB.
//
// SpookyDB is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SpookyDB is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with SpookyDB. If not, see <http://www.gnu.org/licenses/>.

package record

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/timothybesel/spookydb/value"
)

func manyFields(n int) []NamedField {
	fields := make([]NamedField, n)
	for i := 0; i < n; i++ {
		fields[i] = NamedField{Name: fmt.Sprintf("field_%02d", i), Value: value.I64(int64(i))}
	}
	return fields
}

func TestNewReaderRejectsShortBuffer(t *testing.T) {
	_, err := NewReader([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestNewReaderRejectsTruncatedIndex(t *testing.T) {
	buf := make([]byte, HeaderSize)
	putHeader(buf, 5)
	_, err := NewReader(buf)
	require.Error(t, err)
}

func TestFindLinearScanBelowThreshold(t *testing.T) {
	buf, _, err := Serialize(manyFields(LinearScanThreshold), nil, nil)
	require.NoError(t, err)
	r, err := NewReader(buf)
	require.NoError(t, err)

	_, _, ok := r.Find("field_00")
	require.True(t, ok)
	_, _, ok = r.Find("not_there")
	require.False(t, ok)
}

func TestFindBinarySearchAboveThreshold(t *testing.T) {
	buf, _, err := Serialize(manyFields(LinearScanThreshold+10), nil, nil)
	require.NoError(t, err)
	r, err := NewReader(buf)
	require.NoError(t, err)

	for i := 0; i < LinearScanThreshold+10; i++ {
		name := fmt.Sprintf("field_%02d", i)
		v, ok := r.GetI64(name)
		require.True(t, ok, name)
		require.Equal(t, int64(i), v)
	}
	_, _, ok := r.Find("absent")
	require.False(t, ok)
}

func TestGetTypedAccessorsRejectWrongTag(t *testing.T) {
	buf, _, err := Serialize([]NamedField{{Name: "s", Value: value.Str("x")}}, nil, nil)
	require.NoError(t, err)
	r, err := NewReader(buf)
	require.NoError(t, err)

	_, ok := r.GetI64("s")
	require.False(t, ok)
	_, ok = r.GetBool("s")
	require.False(t, ok)
	str, ok := r.GetStr("s")
	require.True(t, ok)
	require.Equal(t, "x", str)
}

func TestGetNumberAsF64PromotesAnyNumberTag(t *testing.T) {
	buf, _, err := Serialize([]NamedField{
		{Name: "i", Value: value.I64(3)},
		{Name: "u", Value: value.U64(4)},
		{Name: "f", Value: value.F64(5.5)},
	}, nil, nil)
	require.NoError(t, err)
	r, err := NewReader(buf)
	require.NoError(t, err)

	f, ok := r.GetNumberAsF64("i")
	require.True(t, ok)
	require.Equal(t, 3.0, f)

	f, ok = r.GetNumberAsF64("u")
	require.True(t, ok)
	require.Equal(t, 4.0, f)

	f, ok = r.GetNumberAsF64("f")
	require.True(t, ok)
	require.Equal(t, 5.5, f)
}

func TestFieldIterVisitsEveryFieldExactlyOnce(t *testing.T) {
	fields := manyFields(6)
	buf, n, err := Serialize(fields, nil, nil)
	require.NoError(t, err)
	r, err := NewReader(buf)
	require.NoError(t, err)

	it := r.IterFields()
	require.Equal(t, n, it.Len())
	seen := 0
	for !it.Done() {
		_, ok := it.Next()
		require.True(t, ok)
		seen++
	}
	require.Equal(t, n, seen)
	_, ok := it.Next()
	require.False(t, ok)

	it.Reset()
	require.Equal(t, n, it.Len())
}

func TestToMapSkipsUnknownNames(t *testing.T) {
	buf, _, err := Serialize([]NamedField{
		{Name: "a", Value: value.I64(1)},
		{Name: "b", Value: value.Str("x")},
	}, nil, nil)
	require.NoError(t, err)
	r, err := NewReader(buf)
	require.NoError(t, err)

	v, err := r.ToMap([]string{"a", "missing", "b"}, nil)
	require.NoError(t, err)
	fields, ok := v.AsObject()
	require.True(t, ok)
	require.Len(t, fields, 2)
}

func TestHasFieldAndFieldType(t *testing.T) {
	buf, _, err := Serialize([]NamedField{{Name: "flag", Value: value.Bool(true)}}, nil, nil)
	require.NoError(t, err)
	r, err := NewReader(buf)
	require.NoError(t, err)

	require.True(t, r.HasField("flag"))
	require.False(t, r.HasField("nope"))
	tag, ok := r.FieldType("flag")
	require.True(t, ok)
	require.Equal(t, TagBool, tag)
}
