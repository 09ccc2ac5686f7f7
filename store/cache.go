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

import lru "github.com/hashicorp/golang-lru/v2"

// rowKey identifies one cached record by (table, id) (spec §3.3: "Row
// cache: bounded LRU keyed by (table, id) -> record bytes").
type rowKey struct {
	table string
	id    string
}

// rowCache is the bounded LRU byte cache sitting in front of the backend.
// Peek never updates recency, matching the spec's requirement that the
// read path only needs a shared borrow; Put is the sole path that can
// trigger eviction, so the LRU evicts least-recently-written (spec §6.3).
type rowCache struct {
	lru *lru.Cache[rowKey, []byte]
}

func newRowCache(capacity int) (*rowCache, error) {
	c, err := lru.New[rowKey, []byte](capacity)
	if err != nil {
		return nil, err
	}
	return &rowCache{lru: c}, nil
}

func (c *rowCache) Peek(table, id string) ([]byte, bool) {
	return c.lru.Peek(rowKey{table: table, id: id})
}

func (c *rowCache) Put(table, id string, data []byte) {
	c.lru.Add(rowKey{table: table, id: id}, data)
}

func (c *rowCache) Evict(table, id string) {
	c.lru.Remove(rowKey{table: table, id: id})
}
