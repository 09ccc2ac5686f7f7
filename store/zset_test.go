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

package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestZSetSetZeroRemovesEntry(t *testing.T) {
	z := newZSet()
	z.Set("a", 1)
	require.Equal(t, int64(1), z.Weight("a"))
	require.Equal(t, 1, z.Len())

	z.Set("a", 0)
	require.Equal(t, int64(0), z.Weight("a"))
	require.Equal(t, 0, z.Len())
}

func TestZSetApplyDeltaRemovesOnZero(t *testing.T) {
	z := newZSet()
	require.Equal(t, int64(1), z.ApplyDelta("a", 1))
	require.Equal(t, int64(0), z.ApplyDelta("a", -1))
	require.Equal(t, 0, z.Len())
}

func TestZSetIdsListsOnlyPresent(t *testing.T) {
	z := newZSet()
	z.Set("a", 1)
	z.Set("b", 1)
	z.Set("b", 0)
	require.ElementsMatch(t, []string{"a"}, z.Ids())
}
