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

// Package fieldhash computes the 64-bit field-name hash used to build and
// search a record's sorted hash index. Every reader and writer in this
// module MUST use this function so hashes agree bit-for-bit across the
// format boundary.
package fieldhash

import "github.com/cespare/xxhash/v2"

// Of returns the xxh64 hash of name with the fixed seed of 0.
//
// xxhash.Sum64String computes XXH64 with seed 0, which is what the record
// format's name_hash field requires (spec §3.2, §6.1).
func Of(name string) uint64 {
	return xxhash.Sum64String(name)
}

// OfBytes is the []byte counterpart of Of, for callers that already hold
// the field name as a byte slice.
func OfBytes(name []byte) uint64 {
	return xxhash.Sum64(name)
}
