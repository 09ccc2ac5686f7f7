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

// Package kv is the small interface the store package talks to the
// embedded backend through (spec §4.H): a Backend yields read and write
// transactions over named tables, sufficient to permit an in-memory fake
// for tests alongside the real bbolt-backed implementation.
package kv

import "io"

// Backend opens read and write transactions over a fixed set of named
// tables. Implementations MUST provide ACID single-file durability for
// write transactions; the store never observes the backend's page size,
// WAL format or locking mechanism.
type Backend interface {
	BeginRead() (ReadTxn, error)
	BeginWrite() (WriteTxn, error)
	io.Closer
}

// ReadTxn is a snapshot-isolated read-only transaction.
type ReadTxn interface {
	// Get returns the value for key in table, or ok=false if absent.
	Get(table, key string) (value []byte, ok bool, err error)
	// Iter returns an Iterator over every (key, value) pair in table, in
	// key order.
	Iter(table string) (Iterator, error)
	// Rollback releases the transaction's resources. Safe to call after a
	// read-only transaction; it never mutates the backend.
	Rollback() error
}

// WriteTxn is the store's single exclusive write transaction. Mutations
// are buffered by the implementation and made durable only on Commit.
type WriteTxn interface {
	Insert(table, key string, value []byte) error
	Remove(table, key string) error
	Commit() error
	Rollback() error
}

// Iterator walks a table's entries in key order. Next returns ok=false
// once exhausted.
type Iterator interface {
	Next() (key string, value []byte, ok bool)
}
