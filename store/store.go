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

// Package store implements the store engine (spec §4.G): a single-writer
// coordinator over a kv.Backend, an in-memory per-table Z-set and a
// bounded LRU row cache.
package store

import (
	"encoding/binary"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/timothybesel/spookydb/errs"
	"github.com/timothybesel/spookydb/kv"
	"github.com/timothybesel/spookydb/record"
	"github.com/timothybesel/spookydb/value"
)

// DefaultCacheCapacity is used when Config.CacheCapacity is unset (spec
// §4.G.1).
const DefaultCacheCapacity = 10000

// Config holds store-level tunables (spec §6.3).
type Config struct {
	CacheCapacity int
}

// Op names the three mutation kinds a Mutation can carry.
type Op int

const (
	OpCreate Op = iota
	OpUpdate
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Mutation is one record-level write: a Create/Update carries Data (and
// optionally a new Version); a Delete needs only Table and ID.
type Mutation struct {
	Table   string
	Op      Op
	ID      string
	Data    []byte
	Version *uint64
}

// BatchResult reports the aggregate effect of a successful ApplyBatch
// (spec §4.G.3 and testable property 6).
type BatchResult struct {
	// MembershipDeltas[table][id] is +1 for a Create that found the id
	// absent, -1 for a Delete that found it present; ids with no net
	// membership change are absent from the map entirely.
	MembershipDeltas map[string]map[string]int64
	// ContentUpdates[table] is the set of ids whose record bytes changed
	// (every Create/Update in the batch).
	ContentUpdates map[string]map[string]struct{}
	// ChangedTables lists every table touched by the batch, each once, in
	// ascending table-name order (the batch is applied sorted by table).
	ChangedTables []string
}

// Store is the engine described by spec §4.G: exclusively owned by one
// caller, no internal locking.
type Store struct {
	backend kv.Backend
	zsets   map[string]*ZSet
	cache   *rowCache
	nested  value.NestedEncoder
	logger  *zap.Logger
}

// Open opens backend's tables, runs the open-time Z-set rebuild scan, and
// starts the LRU cold (spec §4.G.1). nested decodes NestedCBOR payloads
// for GetRecordTyped; logger may be nil.
func Open(backend kv.Backend, cfg Config, nested value.NestedEncoder, logger *zap.Logger) (*Store, error) {
	capacity := cfg.CacheCapacity
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	cache, err := newRowCache(capacity)
	if err != nil {
		return nil, err
	}

	rtx, err := backend.BeginRead()
	if err != nil {
		return nil, err
	}
	zsets, err := rebuildZSets(logger, rtx)
	_ = rtx.Rollback()
	if err != nil {
		return nil, err
	}

	return &Store{backend: backend, zsets: zsets, cache: cache, nested: nested, logger: logger}, nil
}

// Close releases the backend.
func (s *Store) Close() error { return s.backend.Close() }

func validateTableName(table string) error {
	if strings.Contains(table, ":") {
		return &errs.InvalidKey{Table: table}
	}
	return nil
}

func (s *Store) ensureZSet(table string) *ZSet {
	z, ok := s.zsets[table]
	if !ok {
		z = newZSet()
		s.zsets[table] = z
	}
	return z
}

func encodeVersion(v uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, v)
	return buf
}

func decodeVersion(b []byte) (uint64, bool) {
	if len(b) != 8 {
		return 0, false
	}
	return binary.LittleEndian.Uint64(b), true
}

// ApplyMutation persists one mutation, then updates in-memory state only
// after the commit succeeds (spec §4.G.2). It returns the bare id and the
// operation's fixed weight contribution: Create=+1, Update=0, Delete=-1.
func (s *Store) ApplyMutation(m Mutation) (id string, weightDelta int64, err error) {
	if err := validateTableName(m.Table); err != nil {
		return "", 0, err
	}

	wtx, err := s.backend.BeginWrite()
	if err != nil {
		return "", 0, errors.Wrap(err, "store: begin write")
	}
	key := kv.RecordKey(m.Table, m.ID)

	switch m.Op {
	case OpCreate, OpUpdate:
		if err := wtx.Insert(kv.RecordsTable, key, m.Data); err != nil {
			_ = wtx.Rollback()
			return "", 0, err
		}
		if m.Version != nil {
			if err := wtx.Insert(kv.VersionsTable, key, encodeVersion(*m.Version)); err != nil {
				_ = wtx.Rollback()
				return "", 0, err
			}
		}
	case OpDelete:
		if err := wtx.Remove(kv.RecordsTable, key); err != nil {
			_ = wtx.Rollback()
			return "", 0, err
		}
		if err := wtx.Remove(kv.VersionsTable, key); err != nil {
			_ = wtx.Rollback()
			return "", 0, err
		}
	}

	if err := wtx.Commit(); err != nil {
		if s.logger != nil {
			s.logger.Warn("commit failed", zap.String("table", m.Table), zap.String("id", m.ID), zap.Error(err))
		}
		return "", 0, errors.Wrap(err, "store: commit")
	}

	z := s.ensureZSet(m.Table)
	switch m.Op {
	case OpCreate:
		z.Set(m.ID, 1)
		if m.Data != nil {
			s.cache.Put(m.Table, m.ID, m.Data)
		}
		weightDelta = 1
	case OpUpdate:
		z.Set(m.ID, 1)
		if m.Data != nil {
			s.cache.Put(m.Table, m.ID, m.Data)
		}
		weightDelta = 0
	case OpDelete:
		z.Set(m.ID, 0)
		s.cache.Evict(m.Table, m.ID)
		weightDelta = -1
	}
	mutationsAppliedTotal.WithLabelValues(m.Op.String()).Inc()
	return m.ID, weightDelta, nil
}

// ApplyBatch persists every mutation in one write transaction and, only
// after it commits, updates in-memory state in the post-sort input order
// (spec §4.G.3, testable property 6).
func (s *Store) ApplyBatch(mutations []Mutation) (BatchResult, error) {
	for _, m := range mutations {
		if err := validateTableName(m.Table); err != nil {
			return BatchResult{}, err
		}
	}

	sorted := make([]Mutation, len(mutations))
	copy(sorted, mutations)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Table < sorted[j].Table })

	wtx, err := s.backend.BeginWrite()
	if err != nil {
		return BatchResult{}, errors.Wrap(err, "store: begin write")
	}
	for _, m := range sorted {
		key := kv.RecordKey(m.Table, m.ID)
		switch m.Op {
		case OpCreate, OpUpdate:
			if err := wtx.Insert(kv.RecordsTable, key, m.Data); err != nil {
				_ = wtx.Rollback()
				return BatchResult{}, err
			}
			if m.Version != nil {
				if err := wtx.Insert(kv.VersionsTable, key, encodeVersion(*m.Version)); err != nil {
					_ = wtx.Rollback()
					return BatchResult{}, err
				}
			}
		case OpDelete:
			if err := wtx.Remove(kv.RecordsTable, key); err != nil {
				_ = wtx.Rollback()
				return BatchResult{}, err
			}
			if err := wtx.Remove(kv.VersionsTable, key); err != nil {
				_ = wtx.Rollback()
				return BatchResult{}, err
			}
		}
	}
	if err := wtx.Commit(); err != nil {
		if s.logger != nil {
			s.logger.Warn("batch commit failed", zap.Int("mutations", len(sorted)), zap.Error(err))
		}
		return BatchResult{}, errors.Wrap(err, "store: commit")
	}

	result := BatchResult{
		MembershipDeltas: make(map[string]map[string]int64),
		ContentUpdates:   make(map[string]map[string]struct{}),
	}
	for _, m := range sorted {
		z := s.ensureZSet(m.Table)
		wasPresent := z.Weight(m.ID) > 0

		switch m.Op {
		case OpDelete:
			z.Set(m.ID, 0)
			s.cache.Evict(m.Table, m.ID)
			if wasPresent {
				addDelta(result.MembershipDeltas, m.Table, m.ID, -1)
			}
		case OpCreate, OpUpdate:
			z.Set(m.ID, 1)
			if m.Data != nil {
				s.cache.Put(m.Table, m.ID, m.Data)
			}
			if m.Op == OpCreate && !wasPresent {
				addDelta(result.MembershipDeltas, m.Table, m.ID, 1)
			}
			addContentUpdate(result.ContentUpdates, m.Table, m.ID)
		}
		mutationsAppliedTotal.WithLabelValues(m.Op.String()).Inc()

		n := len(result.ChangedTables)
		if n == 0 || result.ChangedTables[n-1] != m.Table {
			result.ChangedTables = append(result.ChangedTables, m.Table)
		}
	}
	return result, nil
}

func addDelta(deltas map[string]map[string]int64, table, id string, delta int64) {
	if deltas[table] == nil {
		deltas[table] = make(map[string]int64)
	}
	deltas[table][id] += delta
	if deltas[table][id] == 0 {
		delete(deltas[table], id)
	}
}

func addContentUpdate(updates map[string]map[string]struct{}, table, id string) {
	if updates[table] == nil {
		updates[table] = make(map[string]struct{})
	}
	updates[table][id] = struct{}{}
}

// BulkLoad inserts every record in one write transaction, then marks each
// present at weight 1 and write-through populates the cache (spec
// §4.G.4).
func (s *Store) BulkLoad(records []Mutation) error {
	for _, r := range records {
		if err := validateTableName(r.Table); err != nil {
			return err
		}
	}

	wtx, err := s.backend.BeginWrite()
	if err != nil {
		return errors.Wrap(err, "store: begin write")
	}
	for _, r := range records {
		key := kv.RecordKey(r.Table, r.ID)
		if err := wtx.Insert(kv.RecordsTable, key, r.Data); err != nil {
			_ = wtx.Rollback()
			return err
		}
		if r.Version != nil {
			if err := wtx.Insert(kv.VersionsTable, key, encodeVersion(*r.Version)); err != nil {
				_ = wtx.Rollback()
				return err
			}
		}
	}
	if err := wtx.Commit(); err != nil {
		return errors.Wrap(err, "store: commit")
	}

	for _, r := range records {
		z := s.ensureZSet(r.Table)
		z.Set(r.ID, 1)
		if r.Data != nil {
			s.cache.Put(r.Table, r.ID, r.Data)
		}
	}
	return nil
}

// GetRecordBytes returns a record's raw bytes, short-circuiting on the
// Z-set guard before touching the cache or backend (spec §4.G.5).
func (s *Store) GetRecordBytes(table, id string) ([]byte, bool, error) {
	z, ok := s.zsets[table]
	if !ok || z.Weight(id) <= 0 {
		return nil, false, nil
	}
	if b, hit := s.cache.Peek(table, id); hit {
		cacheHitsTotal.Inc()
		return b, true, nil
	}
	cacheMissesTotal.Inc()

	rtx, err := s.backend.BeginRead()
	if err != nil {
		return nil, false, errors.Wrap(err, "store: begin read")
	}
	defer func() { _ = rtx.Rollback() }()

	b, ok, err := rtx.Get(kv.RecordsTable, kv.RecordKey(table, id))
	if err != nil || !ok {
		return nil, ok, err
	}
	return b, true, nil
}

// GetRowRecord returns a zero-copy reader over a record iff it is already
// in the LRU; a cache-cold hit returns absent and the caller must fall
// back to GetRecordBytes (spec §4.G.5).
func (s *Store) GetRowRecord(table, id string) (*record.Reader, bool, error) {
	z, ok := s.zsets[table]
	if !ok || z.Weight(id) <= 0 {
		return nil, false, nil
	}
	b, hit := s.cache.Peek(table, id)
	if !hit {
		return nil, false, nil
	}
	cacheHitsTotal.Inc()
	r, err := record.NewReader(b)
	if err != nil {
		return nil, false, err
	}
	return r, true, nil
}

// GetVersion returns a record's monotonic version counter (spec §4.G.5).
func (s *Store) GetVersion(table, id string) (uint64, bool, error) {
	z, ok := s.zsets[table]
	if !ok || z.Weight(id) <= 0 {
		return 0, false, nil
	}
	rtx, err := s.backend.BeginRead()
	if err != nil {
		return 0, false, errors.Wrap(err, "store: begin read")
	}
	defer func() { _ = rtx.Rollback() }()

	b, ok, err := rtx.Get(kv.VersionsTable, kv.RecordKey(table, id))
	if err != nil || !ok {
		return 0, false, err
	}
	v, ok := decodeVersion(b)
	return v, ok, nil
}

// GetRecordTyped fetches a record and projects fieldNames into an Object
// value. Names absent from the record are silently skipped, since the
// binary format cannot recover field names from hashes (spec §4.G.5).
func (s *Store) GetRecordTyped(table, id string, fieldNames []string) (value.Value, bool, error) {
	b, ok, err := s.GetRecordBytes(table, id)
	if err != nil || !ok {
		return value.Value{}, ok, err
	}
	r, err := record.NewReader(b)
	if err != nil {
		return value.Value{}, false, err
	}
	v, err := r.ToMap(fieldNames, s.nested)
	if err != nil {
		return value.Value{}, false, err
	}
	return v, true, nil
}

// GetTableZSet returns a pure in-memory borrow of table's Z-set, valid
// until the next mutating call on s (spec §4.G.6).
func (s *Store) GetTableZSet(table string) (*ZSet, bool) {
	z, ok := s.zsets[table]
	return z, ok
}

// GetZSetWeight returns 0 for an absent table or id.
func (s *Store) GetZSetWeight(table, id string) int64 {
	z, ok := s.zsets[table]
	if !ok {
		return 0
	}
	return z.Weight(id)
}

// TableExists reports whether table has any present id (spec §4.G.7: an
// EnsureTable'd but still-empty table reports false).
func (s *Store) TableExists(table string) bool {
	z, ok := s.zsets[table]
	return ok && z.Len() > 0
}

// TableLen returns table's Z-set size, 0 if unknown.
func (s *Store) TableLen(table string) int {
	z, ok := s.zsets[table]
	if !ok {
		return 0
	}
	return z.Len()
}

// TableNames returns every table with a registered Z-set slot, including
// empty ones created via EnsureTable.
func (s *Store) TableNames() []string {
	names := make([]string, 0, len(s.zsets))
	for t := range s.zsets {
		names = append(names, t)
	}
	return names
}

// EnsureTable registers an empty Z-set slot for table if it does not
// already have one.
func (s *Store) EnsureTable(table string) {
	s.ensureZSet(table)
}
