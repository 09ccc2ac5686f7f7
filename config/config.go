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

// Package config loads the store's TOML configuration file (spec §6.3;
// CLI/config loading is carried as ambient engineering stack regardless
// of the spec's stated non-goals).
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/timothybesel/spookydb/store"
)

// Config is the on-disk shape of spookydb.toml.
type Config struct {
	// DataDir holds the bbolt database file path.
	DataDir string `toml:"data_dir"`
	// CacheCapacity is the LRU row cache's maximum entry count (spec
	// §6.3); 0 means DefaultCacheCapacity.
	CacheCapacity int `toml:"cache_capacity"`
	// OpenTimeout bounds each bbolt open attempt.
	OpenTimeout time.Duration `toml:"open_timeout"`
	// OpenMaxRetries bounds how many times a contended open is retried.
	OpenMaxRetries uint64 `toml:"open_max_retries"`
	// Verbose enables debug-level logging.
	Verbose bool `toml:"verbose"`
}

// Default returns a Config with every field at its production default.
func Default() Config {
	return Config{
		DataDir:        "spookydb.db",
		CacheCapacity:  store.DefaultCacheCapacity,
		OpenTimeout:    time.Second,
		OpenMaxRetries: 5,
	}
}

// Load reads and parses a TOML config file at path, filling in defaults
// for any field the file omits.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.CacheCapacity <= 0 {
		cfg.CacheCapacity = store.DefaultCacheCapacity
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = time.Second
	}
	return cfg, nil
}
