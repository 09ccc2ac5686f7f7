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

package kv

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryBackendInsertThenGet(t *testing.T) {
	b := NewMemoryBackend(CoreTablesCfg)

	wtx, err := b.BeginWrite()
	require.NoError(t, err)
	require.NoError(t, wtx.Insert(RecordsTable, "users:u1", []byte("hello")))
	require.NoError(t, wtx.Commit())

	rtx, err := b.BeginRead()
	require.NoError(t, err)
	defer rtx.Rollback()

	v, ok, err := rtx.Get(RecordsTable, "users:u1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("hello"), v)
}

func TestMemoryBackendReadSnapshotIsolation(t *testing.T) {
	b := NewMemoryBackend(CoreTablesCfg)
	wtx, _ := b.BeginWrite()
	require.NoError(t, wtx.Insert(RecordsTable, "a", []byte("1")))
	require.NoError(t, wtx.Commit())

	rtx, err := b.BeginRead()
	require.NoError(t, err)
	defer rtx.Rollback()

	wtx2, _ := b.BeginWrite()
	require.NoError(t, wtx2.Insert(RecordsTable, "b", []byte("2")))
	require.NoError(t, wtx2.Commit())

	_, ok, _ := rtx.Get(RecordsTable, "b")
	require.False(t, ok, "write committed after BeginRead must not be visible to the snapshot")

	_, ok, _ = rtx.Get(RecordsTable, "a")
	require.True(t, ok)
}

func TestMemoryBackendRollbackDiscardsBufferedWrites(t *testing.T) {
	b := NewMemoryBackend(CoreTablesCfg)
	wtx, err := b.BeginWrite()
	require.NoError(t, err)
	require.NoError(t, wtx.Insert(RecordsTable, "a", []byte("1")))
	require.NoError(t, wtx.Rollback())

	rtx, _ := b.BeginRead()
	defer rtx.Rollback()
	_, ok, _ := rtx.Get(RecordsTable, "a")
	require.False(t, ok)
}

func TestMemoryBackendRemoveWithinSameWriteTxn(t *testing.T) {
	b := NewMemoryBackend(CoreTablesCfg)
	wtx, _ := b.BeginWrite()
	require.NoError(t, wtx.Insert(RecordsTable, "a", []byte("1")))
	require.NoError(t, wtx.Remove(RecordsTable, "a"))
	require.NoError(t, wtx.Commit())

	rtx, _ := b.BeginRead()
	defer rtx.Rollback()
	_, ok, _ := rtx.Get(RecordsTable, "a")
	require.False(t, ok)
}

func TestMemoryBackendIterIsKeyOrdered(t *testing.T) {
	b := NewMemoryBackend(CoreTablesCfg)
	wtx, _ := b.BeginWrite()
	require.NoError(t, wtx.Insert(RecordsTable, "c", []byte("3")))
	require.NoError(t, wtx.Insert(RecordsTable, "a", []byte("1")))
	require.NoError(t, wtx.Insert(RecordsTable, "b", []byte("2")))
	require.NoError(t, wtx.Commit())

	rtx, _ := b.BeginRead()
	defer rtx.Rollback()
	it, err := rtx.Iter(RecordsTable)
	require.NoError(t, err)

	var keys []string
	for {
		k, _, ok := it.Next()
		if !ok {
			break
		}
		keys = append(keys, k)
	}
	require.Equal(t, []string{"a", "b", "c"}, keys)
}

func TestMemoryBackendCommitIsIdempotentAfterRollback(t *testing.T) {
	b := NewMemoryBackend(CoreTablesCfg)
	wtx, _ := b.BeginWrite()
	require.NoError(t, wtx.Insert(RecordsTable, "a", []byte("1")))
	require.NoError(t, wtx.Rollback())
	require.NoError(t, wtx.Commit(), "commit after rollback is a no-op, not an error")
}
