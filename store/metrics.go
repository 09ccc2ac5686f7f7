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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var cacheHitsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "spookydb_cache_hits_total",
		Help: "Row cache hits on the get_record_bytes / get_row_record hot path",
	},
)

var cacheMissesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "spookydb_cache_misses_total",
		Help: "Row cache misses that fell through to the backend",
	},
)

var mutationsAppliedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "spookydb_mutations_applied_total",
		Help: "Mutations committed via ApplyMutation or ApplyBatch, by operation kind",
	},
	[]string{"op"},
)

var rebuildDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "spookydb_rebuild_duration_seconds",
		Help:    "Wall time of the open-time sequential Z-set rebuild scan",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
	},
)

var zsetEntries = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "spookydb_zset_entries",
		Help: "Current number of present ids in a table's in-memory Z-set",
	},
	[]string{"table"},
)
