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

package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCategoryOrdering(t *testing.T) {
	vals := []Value{
		Object(t),
		Array(Str("x")),
		Str("a"),
		I64(1),
		Bool(true),
		Null(),
	}
	require.True(t, Compare(vals[5], vals[4]) < 0, "null < bool")
	require.True(t, Compare(vals[4], vals[3]) < 0, "bool < number")
	require.True(t, Compare(vals[3], vals[2]) < 0, "number < str")
	require.True(t, Compare(vals[2], vals[1]) < 0, "str < array")
	require.True(t, Compare(vals[1], vals[0]) < 0, "array < object")
}

func Object(t *testing.T) Value {
	t.Helper()
	v, err := NewObject([]Field{{Key: "a", Value: I64(1)}})
	require.NoError(t, err)
	return v
}

func TestCrossVariantNumberEquality(t *testing.T) {
	require.True(t, Equal(I64(7), U64(7)))
	require.True(t, Equal(I64(7), F64(7.0)))
	require.Equal(t, 0, Compare(U64(7), F64(7.0)))
}

func TestFloatCanonicalOrdering(t *testing.T) {
	nan := F64(math.NaN())
	negInf := F64(math.Inf(-1))
	posInf := F64(math.Inf(1))
	require.True(t, Compare(nan, negInf) < 0, "NaN sorts below -Inf")
	require.True(t, Compare(negInf, posInf) < 0)
	require.Equal(t, 0, Compare(nan, F64(math.NaN())), "NaN == NaN under this order")
}

func TestNegativeZeroEqualsPositiveZero(t *testing.T) {
	require.True(t, Equal(F64(math.Copysign(0, -1)), F64(0)))
	require.Equal(t, Hash(F64(math.Copysign(0, -1))), Hash(F64(0)))
}

func TestHashAgreesWithCrossVariantEquality(t *testing.T) {
	require.Equal(t, Hash(I64(42)), Hash(U64(42)))
	require.Equal(t, Hash(I64(42)), Hash(F64(42)))
}

func TestHashDistinguishesEmptyStrFromEmptyArray(t *testing.T) {
	require.NotEqual(t, Hash(Str("")), Hash(Array()))
}

func TestNewObjectSortsAndRejectsDuplicateKeys(t *testing.T) {
	v, err := NewObject([]Field{
		{Key: "b", Value: I64(2)},
		{Key: "a", Value: I64(1)},
	})
	require.NoError(t, err)
	fields, ok := v.AsObject()
	require.True(t, ok)
	require.Equal(t, "a", fields[0].Key)
	require.Equal(t, "b", fields[1].Key)

	_, err = NewObject([]Field{{Key: "a", Value: I64(1)}, {Key: "a", Value: I64(2)}})
	require.Error(t, err)
}

func TestObjectOrderingIsByKeyThenValue(t *testing.T) {
	a := MustObject([]Field{{Key: "a", Value: I64(1)}})
	b := MustObject([]Field{{Key: "a", Value: I64(2)}})
	require.True(t, Compare(a, b) < 0)
}

func TestArrayOrderingIsLexicographic(t *testing.T) {
	short := Array(I64(1))
	long := Array(I64(1), I64(2))
	require.True(t, Compare(short, long) < 0, "prefix sorts first")
}

func TestNumberAsF64PromotesEachVariant(t *testing.T) {
	f, ok := I64(-5).NumberAsF64()
	require.True(t, ok)
	require.Equal(t, -5.0, f)

	f, ok = U64(5).NumberAsF64()
	require.True(t, ok)
	require.Equal(t, 5.0, f)

	_, ok = Str("x").NumberAsF64()
	require.False(t, ok)
}
