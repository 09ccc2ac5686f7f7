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

// Package nestedcbor is the one fixed nested-value codec for the
// NestedCBOR record field tag (spec §3.2): Array and Object values are
// encoded as self-describing CBOR, the only supported nested encoding.
package nestedcbor

import (
	"fmt"
	"io"
	"reflect"
	"sort"

	"github.com/fxamacker/cbor/v2"

	"github.com/timothybesel/spookydb/value"
)

var mapType = reflect.TypeOf(map[string]interface{}(nil))

// Codec implements value.NestedEncoder on top of fxamacker/cbor/v2.
type Codec struct {
	encMode cbor.EncMode
	decMode cbor.DecMode
}

// Default is the package-wide codec instance; the record format requires
// "a single fixed one per deployment" (spec §3.2), so callers should share
// this value rather than constructing ad hoc ones.
var Default = New()

// New builds a Codec with canonical (deterministic) CBOR encoding and a
// decode mode that decodes CBOR maps into map[string]interface{} so nested
// objects round-trip through value.Value without reflection surprises.
func New() *Codec {
	encMode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("nestedcbor: invalid encode options: %v", err))
	}
	decMode, err := cbor.DecOptions{MapType: mapType}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("nestedcbor: invalid decode options: %v", err))
	}
	return &Codec{encMode: encMode, decMode: decMode}
}

// EncodeValue writes v (which must be Array or Object) as CBOR to w.
func (c *Codec) EncodeValue(w io.Writer, v value.Value) error {
	generic, err := toGeneric(v)
	if err != nil {
		return err
	}
	b, err := c.encMode.Marshal(generic)
	if err != nil {
		return fmt.Errorf("nestedcbor: encode: %w", err)
	}
	_, err = w.Write(b)
	return err
}

// DecodeValue decodes a CBOR blob back into a value.Value tree.
func (c *Codec) DecodeValue(data []byte) (value.Value, error) {
	var generic interface{}
	if err := c.decMode.Unmarshal(data, &generic); err != nil {
		return value.Value{}, fmt.Errorf("nestedcbor: decode: %w", err)
	}
	return fromGeneric(generic)
}

func toGeneric(v value.Value) (interface{}, error) {
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
			g, err := toGeneric(e)
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
			g, err := toGeneric(f.Value)
			if err != nil {
				return nil, err
			}
			out[f.Key] = g
		}
		return out, nil
	default:
		return nil, fmt.Errorf("nestedcbor: unsupported kind %v", v.Kind())
	}
}

func fromGeneric(x interface{}) (value.Value, error) {
	switch t := x.(type) {
	case nil:
		return value.Null(), nil
	case bool:
		return value.Bool(t), nil
	case int64:
		return value.I64(t), nil
	case uint64:
		return value.U64(t), nil
	case float64:
		return value.F64(t), nil
	case string:
		return value.Str(t), nil
	case []interface{}:
		items := make([]value.Value, len(t))
		for i, e := range t {
			v, err := fromGeneric(e)
			if err != nil {
				return value.Value{}, err
			}
			items[i] = v
		}
		return value.Array(items...), nil
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fields := make([]value.Field, 0, len(t))
		for _, k := range keys {
			v, err := fromGeneric(t[k])
			if err != nil {
				return value.Value{}, err
			}
			fields = append(fields, value.Field{Key: k, Value: v})
		}
		return value.NewObject(fields)
	default:
		return value.Value{}, fmt.Errorf("nestedcbor: unsupported decoded type %T", x)
	}
}
