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

package record

import (
	"bytes"
	"encoding/binary"
	"math"
	"sort"

	"github.com/pkg/errors"

	"github.com/timothybesel/spookydb/errs"
	"github.com/timothybesel/spookydb/internal/fieldhash"
	"github.com/timothybesel/spookydb/value"
)

// FieldSource is the minimal capability set a field value must offer the
// serializer (design note "duck-typed value adapters"): is_null, the As*
// predicates, and AsNested for Array/Object payloads. value.Value
// satisfies this directly; a CBOR- or JSON-backed type can too, without
// inheriting from value.Value.
type FieldSource interface {
	IsNull() bool
	AsBool() (bool, bool)
	AsI64() (int64, bool)
	AsU64() (uint64, bool)
	AsF64() (float64, bool)
	AsStr() (string, bool)
	AsNested() (value.Value, bool)
}

// NamedField pairs a field name with its FieldSource value; Serialize takes
// a slice of these rather than a Go map so caller-supplied ordering (e.g.
// from a JSON object) can be preserved up to the point the hash-sort pass
// reorders it.
type NamedField struct {
	Name  string
	Value FieldSource
}

// Serialize encodes fields into the hybrid record binary format (spec
// §3.2, §4.C). buf is reused when it has enough capacity (cleared,
// capacity retained); nested encodes Array/Object payloads and may be nil
// if the caller guarantees no field is nested. It returns the final
// buffer and the field count.
func Serialize(fields []NamedField, buf []byte, nested value.NestedEncoder) ([]byte, int, error) {
	if len(fields) > MaxFields {
		return nil, 0, &errs.TooManyFields{Count: len(fields)}
	}

	type sortEntry struct {
		hash uint64
		src  FieldSource
	}
	entries := make([]sortEntry, len(fields))
	for i, f := range fields {
		entries[i] = sortEntry{hash: fieldhash.Of(f.Name), src: f.Value}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].hash < entries[j].hash })

	n := len(entries)
	headerAndIndex := HeaderSize + n*IndexEntrySize
	if cap(buf) >= headerAndIndex {
		buf = buf[:headerAndIndex]
	} else {
		buf = make([]byte, headerAndIndex)
	}
	for i := range buf {
		buf[i] = 0
	}
	putHeader(buf, uint32(n))

	offset := headerAndIndex
	for i, e := range entries {
		payload, tag, err := encodePayload(e.src, nested)
		if err != nil {
			return nil, 0, err
		}
		buf = append(buf, payload...)
		putIndexEntry(buf, i, IndexEntry{
			NameHash:   e.hash,
			DataOffset: uint32(offset),
			DataLength: uint32(len(payload)),
			Tag:        tag,
		})
		offset += len(payload)
	}
	return buf, n, nil
}

// SerializeFromValue is a thin wrapper over Serialize for callers already
// holding a value.Value; it rejects non-Object top levels (spec §4.C).
func SerializeFromValue(v value.Value, buf []byte, nested value.NestedEncoder) ([]byte, int, error) {
	fields, ok := v.AsObject()
	if !ok {
		return nil, 0, &errs.NotAnObject{}
	}
	named := make([]NamedField, len(fields))
	for i, f := range fields {
		named[i] = NamedField{Name: f.Key, Value: f.Value}
	}
	return Serialize(named, buf, nested)
}

func encodePayload(src FieldSource, nested value.NestedEncoder) ([]byte, Tag, error) {
	if src.IsNull() {
		return nil, TagNull, nil
	}
	if b, ok := src.AsBool(); ok {
		if b {
			return []byte{1}, TagBool, nil
		}
		return []byte{0}, TagBool, nil
	}
	if i, ok := src.AsI64(); ok {
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, uint64(i))
		return buf, TagI64, nil
	}
	if u, ok := src.AsU64(); ok {
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, u)
		return buf, TagU64, nil
	}
	if f, ok := src.AsF64(); ok {
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, math.Float64bits(f))
		return buf, TagF64, nil
	}
	if s, ok := src.AsStr(); ok {
		return []byte(s), TagStr, nil
	}
	if nv, ok := src.AsNested(); ok {
		if nested == nil {
			return nil, 0, &errs.NestedCodecError{Msg: "no nested codec configured"}
		}
		var b bytes.Buffer
		if err := nested.EncodeValue(&b, nv); err != nil {
			return nil, 0, &errs.NestedCodecError{Msg: errors.Wrap(err, "nested encode").Error()}
		}
		return b.Bytes(), TagNestedCBOR, nil
	}
	return nil, 0, &errs.NestedCodecError{Msg: "field value has no recognized representation"}
}
