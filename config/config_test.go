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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/timothybesel/spookydb/store"
)

func TestDefaultHasSaneValues(t *testing.T) {
	cfg := Default()
	require.Equal(t, store.DefaultCacheCapacity, cfg.CacheCapacity)
	require.NotEmpty(t, cfg.DataDir)
	require.Greater(t, cfg.OpenTimeout.Nanoseconds(), int64(0))
}

func TestLoadFillsMissingFieldsWithDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spookydb.toml")
	require.NoError(t, os.WriteFile(path, []byte(`data_dir = "/var/lib/spooky.db"`+"\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/var/lib/spooky.db", cfg.DataDir)
	require.Equal(t, store.DefaultCacheCapacity, cfg.CacheCapacity)
}

func TestLoadHonorsExplicitValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spookydb.toml")
	body := "data_dir = \"/tmp/x.db\"\ncache_capacity = 50\nverbose = true\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 50, cfg.CacheCapacity)
	require.True(t, cfg.Verbose)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}
