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
	"time"

	"go.uber.org/zap"

	"github.com/timothybesel/spookydb/kv"
)

// rebuildZSets performs the open-time sequential scan over the records
// table, reconstructing every table's Z-set at weight 1 per key (spec
// §4.G.1). Cost is O(N) in record count.
func rebuildZSets(logger *zap.Logger, txn kv.ReadTxn) (map[string]*ZSet, error) {
	start := time.Now()
	tables := make(map[string]*ZSet)

	it, err := txn.Iter(kv.RecordsTable)
	if err != nil {
		return nil, err
	}

	count := 0
	for {
		key, _, ok := it.Next()
		if !ok {
			break
		}
		table, id, ok := kv.SplitRecordKey(key)
		if !ok {
			continue
		}
		z, ok := tables[table]
		if !ok {
			z = newZSet()
			tables[table] = z
		}
		z.Set(id, 1)
		count++
	}

	elapsed := time.Since(start)
	rebuildDuration.Observe(elapsed.Seconds())
	for table, z := range tables {
		zsetEntries.WithLabelValues(table).Set(float64(z.Len()))
	}
	if logger != nil {
		logger.Info("rebuilt in-memory Z-sets",
			zap.Int("records", count),
			zap.Int("tables", len(tables)),
			zap.Duration("elapsed", elapsed),
		)
	}
	return tables, nil
}
