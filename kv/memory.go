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

import "sort"

// MemoryBackend is an in-process Backend implementation with no
// durability, used to exercise the store package without a real file
// (spec §4.H: "the store is testable against an in-memory fake").
type MemoryBackend struct {
	tables map[string]map[string][]byte
}

// NewMemoryBackend creates every table named in cfg, empty.
func NewMemoryBackend(cfg TableCfg) *MemoryBackend {
	tables := make(map[string]map[string][]byte, len(cfg))
	for name := range cfg {
		tables[name] = make(map[string][]byte)
	}
	return &MemoryBackend{tables: tables}
}

// Close is a no-op; MemoryBackend owns no OS resources.
func (b *MemoryBackend) Close() error { return nil }

// BeginRead snapshots every table's current contents, so later writes do
// not become visible to a transaction already in flight.
func (b *MemoryBackend) BeginRead() (ReadTxn, error) {
	snap := make(map[string]map[string][]byte, len(b.tables))
	for name, tbl := range b.tables {
		cp := make(map[string][]byte, len(tbl))
		for k, v := range tbl {
			cp[k] = v
		}
		snap[name] = cp
	}
	return &memoryReadTxn{snap: snap}, nil
}

// BeginWrite returns a transaction that buffers mutations until Commit.
func (b *MemoryBackend) BeginWrite() (WriteTxn, error) {
	return &memoryWriteTxn{
		backend: b,
		puts:    make(map[string]map[string][]byte),
		deletes: make(map[string]map[string]struct{}),
	}, nil
}

type memoryReadTxn struct {
	snap map[string]map[string][]byte
}

func (t *memoryReadTxn) Get(table, key string) ([]byte, bool, error) {
	tbl, ok := t.snap[table]
	if !ok {
		return nil, false, nil
	}
	v, ok := tbl[key]
	return v, ok, nil
}

func (t *memoryReadTxn) Iter(table string) (Iterator, error) {
	tbl := t.snap[table]
	keys := make([]string, 0, len(tbl))
	for k := range tbl {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return &memoryIterator{tbl: tbl, keys: keys}, nil
}

func (t *memoryReadTxn) Rollback() error { return nil }

type memoryIterator struct {
	tbl  map[string][]byte
	keys []string
	pos  int
}

func (it *memoryIterator) Next() (string, []byte, bool) {
	if it.pos >= len(it.keys) {
		return "", nil, false
	}
	k := it.keys[it.pos]
	it.pos++
	return k, it.tbl[k], true
}

type memoryWriteTxn struct {
	backend *MemoryBackend
	puts    map[string]map[string][]byte
	deletes map[string]map[string]struct{}
	done    bool
}

func (t *memoryWriteTxn) Insert(table, key string, value []byte) error {
	if t.puts[table] == nil {
		t.puts[table] = make(map[string][]byte)
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	t.puts[table][key] = cp
	if t.deletes[table] != nil {
		delete(t.deletes[table], key)
	}
	return nil
}

func (t *memoryWriteTxn) Remove(table, key string) error {
	if t.deletes[table] == nil {
		t.deletes[table] = make(map[string]struct{})
	}
	t.deletes[table][key] = struct{}{}
	if t.puts[table] != nil {
		delete(t.puts[table], key)
	}
	return nil
}

func (t *memoryWriteTxn) Commit() error {
	if t.done {
		return nil
	}
	t.done = true
	for table, kv := range t.puts {
		tbl, ok := t.backend.tables[table]
		if !ok {
			tbl = make(map[string][]byte)
			t.backend.tables[table] = tbl
		}
		for k, v := range kv {
			tbl[k] = v
		}
	}
	for table, ks := range t.deletes {
		tbl, ok := t.backend.tables[table]
		if !ok {
			continue
		}
		for k := range ks {
			delete(tbl, k)
		}
	}
	return nil
}

func (t *memoryWriteTxn) Rollback() error {
	t.done = true
	t.puts = nil
	t.deletes = nil
	return nil
}
