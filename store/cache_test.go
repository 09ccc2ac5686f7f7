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

func TestRowCachePutThenPeek(t *testing.T) {
	c, err := newRowCache(2)
	require.NoError(t, err)

	c.Put("users", "u1", []byte("data"))
	v, ok := c.Peek("users", "u1")
	require.True(t, ok)
	require.Equal(t, []byte("data"), v)
}

func TestRowCacheEvict(t *testing.T) {
	c, err := newRowCache(2)
	require.NoError(t, err)
	c.Put("users", "u1", []byte("data"))
	c.Evict("users", "u1")
	_, ok := c.Peek("users", "u1")
	require.False(t, ok)
}

func TestRowCacheEvictsLeastRecentlyWrittenAtCapacity(t *testing.T) {
	c, err := newRowCache(2)
	require.NoError(t, err)
	c.Put("t", "a", []byte("1"))
	c.Put("t", "b", []byte("2"))
	c.Put("t", "c", []byte("3"))

	_, ok := c.Peek("t", "a")
	require.False(t, ok, "capacity 2 should have evicted the oldest entry")
	_, ok = c.Peek("t", "c")
	require.True(t, ok)
}

func TestRowCacheDistinguishesByTable(t *testing.T) {
	c, err := newRowCache(4)
	require.NoError(t, err)
	c.Put("users", "1", []byte("a"))
	c.Put("orders", "1", []byte("b"))

	v, ok := c.Peek("users", "1")
	require.True(t, ok)
	require.Equal(t, []byte("a"), v)

	v, ok = c.Peek("orders", "1")
	require.True(t, ok)
	require.Equal(t, []byte("b"), v)
}
