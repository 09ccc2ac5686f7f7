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
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gofrs/flock"
	bolt "go.etcd.io/bbolt"
)

// BoltBackend is the real, durable Backend: a single bbolt file guarded
// by an OS advisory lock, since bbolt itself only enforces single-writer
// exclusion within one process (spec §4.H: "the real backend provides
// ACID single-file durability").
type BoltBackend struct {
	db    *bolt.DB
	flock *flock.Flock
}

// OpenBoltOption configures OpenBolt.
type OpenBoltOption func(*boltOpenConfig)

type boltOpenConfig struct {
	openTimeout time.Duration
	maxRetries  uint64
}

// WithOpenTimeout bounds how long bbolt waits to acquire its own file
// lock on each attempt.
func WithOpenTimeout(d time.Duration) OpenBoltOption {
	return func(c *boltOpenConfig) { c.openTimeout = d }
}

// WithMaxOpenRetries bounds how many times OpenBolt retries a contended
// open before giving up.
func WithMaxOpenRetries(n uint64) OpenBoltOption {
	return func(c *boltOpenConfig) { c.maxRetries = n }
}

// OpenBolt opens (creating if absent) a bbolt database at path, acquires
// an exclusive advisory lock enforcing the single-writer model (spec §5),
// and creates every table named in cfg.
func OpenBolt(path string, cfg TableCfg, opts ...OpenBoltOption) (*BoltBackend, error) {
	c := boltOpenConfig{openTimeout: time.Second, maxRetries: 5}
	for _, opt := range opts {
		opt(&c)
	}

	fl := flock.New(path + ".lock")
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("kv: acquire writer lock on %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("kv: %s is already open for writing by another process", path)
	}

	var db *bolt.DB
	openOnce := func() error {
		var openErr error
		db, openErr = bolt.Open(path, 0o600, &bolt.Options{Timeout: c.openTimeout})
		return openErr
	}
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries)
	if err := backoff.Retry(openOnce, policy); err != nil {
		_ = fl.Unlock()
		return nil, fmt.Errorf("kv: open %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for name := range cfg {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create table %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		_ = fl.Unlock()
		return nil, err
	}

	return &BoltBackend{db: db, flock: fl}, nil
}

// Close closes the database file and releases the writer lock.
func (b *BoltBackend) Close() error {
	err := b.db.Close()
	if uerr := b.flock.Unlock(); uerr != nil && err == nil {
		err = uerr
	}
	return err
}

// BeginRead opens a bbolt read-only transaction (bbolt's native
// snapshot-isolated MVCC view).
func (b *BoltBackend) BeginRead() (ReadTxn, error) {
	tx, err := b.db.Begin(false)
	if err != nil {
		return nil, err
	}
	return &boltReadTxn{tx: tx}, nil
}

// BeginWrite opens bbolt's single exclusive write transaction.
func (b *BoltBackend) BeginWrite() (WriteTxn, error) {
	tx, err := b.db.Begin(true)
	if err != nil {
		return nil, err
	}
	return &boltWriteTxn{tx: tx}, nil
}

type boltReadTxn struct {
	tx *bolt.Tx
}

func (t *boltReadTxn) Get(table, key string) ([]byte, bool, error) {
	bkt := t.tx.Bucket([]byte(table))
	if bkt == nil {
		return nil, false, nil
	}
	v := bkt.Get([]byte(key))
	if v == nil {
		return nil, false, nil
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, true, nil
}

func (t *boltReadTxn) Iter(table string) (Iterator, error) {
	bkt := t.tx.Bucket([]byte(table))
	if bkt == nil {
		return &emptyIterator{}, nil
	}
	return &boltIterator{c: bkt.Cursor()}, nil
}

func (t *boltReadTxn) Rollback() error { return t.tx.Rollback() }

type boltIterator struct {
	c       *bolt.Cursor
	started bool
}

func (it *boltIterator) Next() (string, []byte, bool) {
	var k, v []byte
	if !it.started {
		k, v = it.c.First()
		it.started = true
	} else {
		k, v = it.c.Next()
	}
	if k == nil {
		return "", nil, false
	}
	vc := make([]byte, len(v))
	copy(vc, v)
	return string(k), vc, true
}

type emptyIterator struct{}

func (it *emptyIterator) Next() (string, []byte, bool) { return "", nil, false }

type boltWriteTxn struct {
	tx *bolt.Tx
}

func (t *boltWriteTxn) Insert(table, key string, value []byte) error {
	bkt, err := t.tx.CreateBucketIfNotExists([]byte(table))
	if err != nil {
		return err
	}
	return bkt.Put([]byte(key), value)
}

func (t *boltWriteTxn) Remove(table, key string) error {
	bkt := t.tx.Bucket([]byte(table))
	if bkt == nil {
		return nil
	}
	return bkt.Delete([]byte(key))
}

func (t *boltWriteTxn) Commit() error   { return t.tx.Commit() }
func (t *boltWriteTxn) Rollback() error { return t.tx.Rollback() }
