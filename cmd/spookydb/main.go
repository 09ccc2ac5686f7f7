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

// Command spookydb is administrative tooling around the store engine, not
// part of its public API surface (spec §1 non-goals carve CLI out of the
// core; SPEC_FULL §1.4 carries it as the project's ambient stack).
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/timothybesel/spookydb/config"
	"github.com/timothybesel/spookydb/kv"
	"github.com/timothybesel/spookydb/nestedcbor"
	"github.com/timothybesel/spookydb/record"
	"github.com/timothybesel/spookydb/store"
	"github.com/timothybesel/spookydb/value"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "spookydb",
		Usage: "administer a hybrid-layout record store",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "spookydb.toml", Usage: "path to the TOML config file"},
			&cli.BoolFlag{Name: "verbose"},
		},
		Commands: []*cli.Command{
			openCommand(),
			putCommand(),
			getCommand(),
			batchCommand(),
			tablesCommand(),
		},
	}
}

func newLogger(c *cli.Context, verbose bool) (*zap.Logger, error) {
	if verbose || c.Bool("verbose") {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func loadConfig(c *cli.Context) (config.Config, error) {
	path := c.String("config")
	if _, err := os.Stat(path); err != nil {
		return config.Default(), nil
	}
	return config.Load(path)
}

func openStore(c *cli.Context) (*store.Store, *zap.Logger, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(c, cfg.Verbose)
	if err != nil {
		return nil, nil, err
	}
	backend, err := kv.OpenBolt(cfg.DataDir, kv.CoreTablesCfg,
		kv.WithOpenTimeout(cfg.OpenTimeout),
		kv.WithMaxOpenRetries(cfg.OpenMaxRetries),
	)
	if err != nil {
		return nil, nil, err
	}
	st, err := store.Open(backend, store.Config{CacheCapacity: cfg.CacheCapacity}, nestedcbor.Default, logger)
	if err != nil {
		_ = backend.Close()
		return nil, nil, err
	}
	return st, logger, nil
}

func openCommand() *cli.Command {
	return &cli.Command{
		Name:      "open",
		Usage:     "open the store and report table sizes",
		ArgsUsage: " ",
		Action: func(c *cli.Context) error {
			st, logger, err := openStore(c)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()
			defer func() { _ = logger.Sync() }()
			for _, t := range st.TableNames() {
				fmt.Printf("%s\t%d\n", t, st.TableLen(t))
			}
			return nil
		},
	}
}

func putCommand() *cli.Command {
	return &cli.Command{
		Name:      "put",
		Usage:     "create or update one record from a JSON object on the command line",
		ArgsUsage: "<table> <id> <json-object>",
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 3 {
				return cli.Exit("usage: spookydb put <table> <id> <json-object>", 1)
			}
			table, id, jsonBody := c.Args().Get(0), c.Args().Get(1), c.Args().Get(2)

			v, err := valueFromJSON(jsonBody)
			if err != nil {
				return err
			}
			buf, _, err := record.SerializeFromValue(v, nil, nestedcbor.Default)
			if err != nil {
				return err
			}

			st, logger, err := openStore(c)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()
			defer func() { _ = logger.Sync() }()

			op := store.OpUpdate
			if st.GetZSetWeight(table, id) == 0 {
				op = store.OpCreate
			}
			_, _, err = st.ApplyMutation(store.Mutation{Table: table, ID: id, Op: op, Data: buf})
			return err
		},
	}
}

func getCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "print the named fields of a record as JSON, or its field count when no field is named",
		ArgsUsage: "<table> <id> [field...]",
		Action: func(c *cli.Context) error {
			if c.Args().Len() < 2 {
				return cli.Exit("usage: spookydb get <table> <id> [field...]", 1)
			}
			table, id := c.Args().Get(0), c.Args().Get(1)
			fields := c.Args().Slice()[2:]

			st, logger, err := openStore(c)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()
			defer func() { _ = logger.Sync() }()

			if len(fields) == 0 {
				b, ok, err := st.GetRecordBytes(table, id)
				if err != nil {
					return err
				}
				if !ok {
					return cli.Exit("not found", 1)
				}
				r, err := record.NewReader(b)
				if err != nil {
					return err
				}
				fmt.Printf("field_count=%d\n", r.FieldCount())
				return nil
			}

			v, ok, err := st.GetRecordTyped(table, id, fields)
			if err != nil {
				return err
			}
			if !ok {
				return cli.Exit("not found", 1)
			}
			out, err := jsonFromValue(v)
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}
}

func batchCommand() *cli.Command {
	return &cli.Command{
		Name:      "batch",
		Usage:     "delete one or more records: spookydb batch delete <table>:<id> [<table>:<id>...]",
		ArgsUsage: "delete <table>:<id>...",
		Action: func(c *cli.Context) error {
			if c.Args().Len() < 2 || c.Args().Get(0) != "delete" {
				return cli.Exit("usage: spookydb batch delete <table>:<id>...", 1)
			}
			st, logger, err := openStore(c)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()
			defer func() { _ = logger.Sync() }()

			muts := make([]store.Mutation, 0, c.Args().Len()-1)
			for _, arg := range c.Args().Slice()[1:] {
				table, id, ok := kv.SplitRecordKey(arg)
				if !ok {
					return cli.Exit(fmt.Sprintf("invalid <table>:<id> pair %q", arg), 1)
				}
				muts = append(muts, store.Mutation{Table: table, ID: id, Op: store.OpDelete})
			}
			result, err := st.ApplyBatch(muts)
			if err != nil {
				return err
			}
			fmt.Printf("changed tables: %s\n", strings.Join(result.ChangedTables, ", "))
			return nil
		},
	}
}

func tablesCommand() *cli.Command {
	return &cli.Command{
		Name:  "tables",
		Usage: "list known tables and their Z-set sizes",
		Action: func(c *cli.Context) error {
			st, logger, err := openStore(c)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()
			defer func() { _ = logger.Sync() }()
			for _, t := range st.TableNames() {
				fmt.Printf("%s\t%d\n", t, st.TableLen(t))
			}
			return nil
		},
	}
}

func valueFromJSON(body string) (value.Value, error) {
	var generic interface{}
	if err := json.Unmarshal([]byte(body), &generic); err != nil {
		return value.Value{}, err
	}
	return valueFromGeneric(generic)
}

func valueFromGeneric(x interface{}) (value.Value, error) {
	switch t := x.(type) {
	case nil:
		return value.Null(), nil
	case bool:
		return value.Bool(t), nil
	case float64:
		return value.F64(t), nil
	case string:
		return value.Str(t), nil
	case []interface{}:
		items := make([]value.Value, len(t))
		for i, e := range t {
			v, err := valueFromGeneric(e)
			if err != nil {
				return value.Value{}, err
			}
			items[i] = v
		}
		return value.Array(items...), nil
	case map[string]interface{}:
		fields := make([]value.Field, 0, len(t))
		for k, e := range t {
			v, err := valueFromGeneric(e)
			if err != nil {
				return value.Value{}, err
			}
			fields = append(fields, value.Field{Key: k, Value: v})
		}
		return value.NewObject(fields)
	default:
		return value.Value{}, fmt.Errorf("cmd/spookydb: unsupported JSON type %T", x)
	}
}

func jsonFromValue(v value.Value) (string, error) {
	generic, err := genericFromValue(v)
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(generic)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func genericFromValue(v value.Value) (interface{}, error) {
	switch v.Kind() {
	case value.KindNull:
		return nil, nil
	case value.KindBool:
		b, _ := v.AsBool()
		return b, nil
	case value.KindI64:
		i, _ := v.AsI64()
		return i, nil
	case value.KindU64:
		u, _ := v.AsU64()
		return u, nil
	case value.KindF64:
		f, _ := v.AsF64()
		return f, nil
	case value.KindStr:
		s, _ := v.AsStr()
		return s, nil
	case value.KindArray:
		arr, _ := v.AsArray()
		out := make([]interface{}, len(arr))
		for i, e := range arr {
			g, err := genericFromValue(e)
			if err != nil {
				return nil, err
			}
			out[i] = g
		}
		return out, nil
	case value.KindObject:
		fields, _ := v.AsObject()
		out := make(map[string]interface{}, len(fields))
		for _, f := range fields {
			g, err := genericFromValue(f.Value)
			if err != nil {
				return nil, err
			}
			out[f.Key] = g
		}
		return out, nil
	default:
		return nil, fmt.Errorf("cmd/spookydb: unsupported value kind %v", v.Kind())
	}
}
