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

// Table name constants for the two backend tables the store owns (spec
// §3.3). Both are created idempotently on Backend open.
const (
	RecordsTable  = "records"
	VersionsTable = "versions"
)

// TableCfgItem describes a table's backend-level properties. There is
// exactly one property today (whether the table participates at all);
// the type exists so a future table (e.g. a secondary index) can add
// flags without changing Backend.BeginWrite's signature.
type TableCfgItem struct{}

// TableCfg enumerates the tables a Backend must create on open.
type TableCfg map[string]TableCfgItem

// CoreTablesCfg is the fixed table set this store requires.
var CoreTablesCfg = TableCfg{
	RecordsTable:  {},
	VersionsTable: {},
}

// RecordKey builds the backend key "<table>:<id>" (spec §6.2). Callers
// validate table names do not contain ':' before calling this (spec
// invariant I8); RecordKey itself does not re-validate.
func RecordKey(table, id string) string {
	return table + ":" + id
}

// SplitRecordKey splits a backend key on its first ':' (spec §3.3: "the
// first ':' splits"). ok is false if key contains no ':'.
func SplitRecordKey(key string) (table, id string, ok bool) {
	for i := 0; i < len(key); i++ {
		if key[i] == ':' {
			return key[:i], key[i+1:], true
		}
	}
	return "", "", false
}
