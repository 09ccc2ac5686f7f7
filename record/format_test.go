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
)

func TestPutAndReadIndexEntryRoundTrip(t *testing.T) {
	buf := make([]byte, HeaderSize+IndexEntrySize)
	putHeader(buf, 1)
	e := IndexEntry{NameHash: 0xDEADBEEF, DataOffset: 40, DataLength: 8, Tag: TagI64}
	putIndexEntry(buf, 0, e)

	require.Equal(t, uint32(1), headerFieldCount(buf))
	got := readIndexEntry(buf, 0)
	require.Equal(t, e, got)
}

func TestSliceForRejectsOutOfBoundsOffsets(t *testing.T) {
	buf := make([]byte, 10)
	_, ok := sliceFor(buf, IndexEntry{DataOffset: 5, DataLength: 10})
	require.False(t, ok)

	data, ok := sliceFor(buf, IndexEntry{DataOffset: 2, DataLength: 3})
	require.True(t, ok)
	require.Len(t, data, 3)
}

func TestSpliceBytesGrowShrinkSame(t *testing.T) {
	t.Run("same length", func(t *testing.T) {
		buf := []byte("AAAxxxBBB")
		out := spliceBytes(buf, 3, 3, []byte("yyy"))
		require.Equal(t, "AAAyyyBBB", string(out))
	})
	t.Run("grow", func(t *testing.T) {
		buf := []byte("AAAxBBB")
		out := spliceBytes(buf, 3, 1, []byte("yyyyy"))
		require.Equal(t, "AAAyyyyyBBB", string(out))
	})
	t.Run("shrink", func(t *testing.T) {
		buf := []byte("AAAxxxxxBBB")
		out := spliceBytes(buf, 3, 5, []byte("y"))
		require.Equal(t, "AAAyBBB", string(out))
	})
	t.Run("shrink to empty", func(t *testing.T) {
		buf := []byte("AAAxxxBBB")
		out := spliceBytes(buf, 3, 3, nil)
		require.Equal(t, "AAABBB", string(out))
	})
}

func TestBuildFromRawReusesScratchCapacity(t *testing.T) {
	entries := []rawEntry{
		{Hash: 1, Tag: TagI64, Payload: []byte{1, 0, 0, 0, 0, 0, 0, 0}},
		{Hash: 2, Tag: TagBool, Payload: []byte{1}},
	}
	scratch := make([]byte, 0, 256)
	buf := buildFromRaw(entries, scratch)

	require.Equal(t, uint32(2), headerFieldCount(buf))
	e0 := readIndexEntry(buf, 0)
	e1 := readIndexEntry(buf, 1)
	require.Equal(t, uint64(1), e0.NameHash)
	require.Equal(t, uint64(2), e1.NameHash)
	data0, ok := sliceFor(buf, e0)
	require.True(t, ok)
	require.Equal(t, entries[0].Payload, data0)
}

func TestFixedWidthByTag(t *testing.T) {
	w, ok := TagBool.FixedWidth()
	require.True(t, ok)
	require.Equal(t, 1, w)

	w, ok = TagI64.FixedWidth()
	require.True(t, ok)
	require.Equal(t, 8, w)

	_, ok = TagStr.FixedWidth()
	require.False(t, ok)

	_, ok = TagNestedCBOR.FixedWidth()
	require.False(t, ok)
}
