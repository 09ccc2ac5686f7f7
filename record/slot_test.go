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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/timothybesel/spookydb/errs"
	"github.com/timothybesel/spookydb/value"
)

func TestSlotReadWriteRoundTrip(t *testing.T) {
	m := newTestRecord(t, []NamedField{{Name: "score", Value: value.I64(10)}})
	slot, ok := m.Resolve("score")
	require.True(t, ok)

	v, err := m.GetI64At(slot)
	require.NoError(t, err)
	require.Equal(t, int64(10), v)

	require.NoError(t, m.SetI64At(slot, 20))
	v, err = m.GetI64At(slot)
	require.NoError(t, err)
	require.Equal(t, int64(20), v)
}

func TestSlotFixedWidthWriteDoesNotStaleIt(t *testing.T) {
	m := newTestRecord(t, []NamedField{{Name: "score", Value: value.I64(10)}})
	slot, ok := m.Resolve("score")
	require.True(t, ok)

	require.NoError(t, m.SetI64("score", 99))
	_, err := m.GetI64At(slot)
	require.NoError(t, err, "fixed-width overwrite never bumps generation")
}

func TestSlotGoesStaleAfterSplice(t *testing.T) {
	m := newTestRecord(t, []NamedField{{Name: "name", Value: value.Str("abc")}})
	slot, ok := m.Resolve("name")
	require.True(t, ok)

	require.NoError(t, m.SetStr("name", "a much longer value that forces a splice"))

	_, err := m.GetStrAt(slot)
	require.Error(t, err)
	require.IsType(t, &errs.StaleSlot{}, err)
}

func TestSlotGoesStaleAfterAddField(t *testing.T) {
	m := newTestRecord(t, []NamedField{{Name: "a", Value: value.I64(1)}})
	slot, ok := m.Resolve("a")
	require.True(t, ok)

	require.NoError(t, m.AddField("b", value.I64(2), nil, nil))

	_, err := m.GetI64At(slot)
	require.Error(t, err)
	require.IsType(t, &errs.StaleSlot{}, err)
}

func TestSlotWrongTypeReturnsTypeMismatch(t *testing.T) {
	m := newTestRecord(t, []NamedField{{Name: "flag", Value: value.Bool(true)}})
	slot, ok := m.Resolve("flag")
	require.True(t, ok)

	_, err := m.GetI64At(slot)
	require.Error(t, err)
	require.IsType(t, &errs.TypeMismatch{}, err)
}

func TestSetStrAtRejectsLengthChange(t *testing.T) {
	m := newTestRecord(t, []NamedField{{Name: "name", Value: value.Str("abc")}})
	slot, ok := m.Resolve("name")
	require.True(t, ok)

	err := m.SetStrAt(slot, "ab")
	require.Error(t, err)
	require.IsType(t, &errs.LengthMismatch{}, err)
}

func TestGetNumberAsF64AtPromotesEveryNumberTag(t *testing.T) {
	m := newTestRecord(t, []NamedField{
		{Name: "i", Value: value.I64(3)},
		{Name: "u", Value: value.U64(4)},
		{Name: "f", Value: value.F64(5.5)},
	})
	for name, want := range map[string]float64{"i": 3, "u": 4, "f": 5.5} {
		slot, ok := m.Resolve(name)
		require.True(t, ok)
		got, err := m.GetNumberAsF64At(slot)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}
