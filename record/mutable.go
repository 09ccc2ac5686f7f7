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
	"encoding/binary"
	"math"
	"sort"

	"github.com/timothybesel/spookydb/errs"
	"github.com/timothybesel/spookydb/internal/fieldhash"
	"github.com/timothybesel/spookydb/value"
)

// MutableRecord is an owned, editable view over record bytes (spec §4.F).
// generation increments on every layout-changing mutation (variable-length
// splice or structural add/remove); fixed-width overwrites never bump it.
type MutableRecord struct {
	buf        []byte
	fieldCount int
	generation uint64
}

// NewMutableRecord takes ownership of buf (already-serialized record
// bytes) and validates its header/index, mirroring NewReader.
func NewMutableRecord(buf []byte) (*MutableRecord, error) {
	if len(buf) < HeaderSize {
		return nil, &errs.InvalidBuffer{Reason: "shorter than the 20-byte header"}
	}
	fc := headerFieldCount(buf)
	if fc > MaxFields {
		return nil, &errs.InvalidBuffer{Reason: "field_count exceeds MaxFields"}
	}
	if len(buf) < dataRegionStart(int(fc)) {
		return nil, &errs.InvalidBuffer{Reason: "shorter than header+index for declared field_count"}
	}
	return &MutableRecord{buf: buf, fieldCount: int(fc)}, nil
}

// NewMutableRecordFromFields serializes fields into a fresh MutableRecord.
func NewMutableRecordFromFields(fields []NamedField, nested value.NestedEncoder) (*MutableRecord, error) {
	buf, n, err := Serialize(fields, nil, nested)
	if err != nil {
		return nil, err
	}
	return &MutableRecord{buf: buf, fieldCount: n}, nil
}

// FieldCount returns the current number of fields.
func (m *MutableRecord) FieldCount() int { return m.fieldCount }

// Generation returns the current generation counter.
func (m *MutableRecord) Generation() uint64 { return m.generation }

// Bytes returns the record's current backing buffer (supplemented escape
// hatch, grounded on the original implementation's into_bytes: a caller
// that is done editing can hand the buffer to the store without a copy).
// The returned slice aliases m's storage; the caller must not retain it
// across a further mutation on m.
func (m *MutableRecord) Bytes() []byte { return m.buf }

// Len returns the current buffer length in bytes.
func (m *MutableRecord) Len() int { return len(m.buf) }

func (m *MutableRecord) find(name string) (pos int, entry IndexEntry, ok bool) {
	h := fieldhash.Of(name)
	n := m.fieldCount
	if n <= LinearScanThreshold {
		for i := 0; i < n; i++ {
			e := readIndexEntry(m.buf, i)
			if e.NameHash == h {
				return i, e, true
			}
		}
		return 0, IndexEntry{}, false
	}
	lo, hi := 0, n
	for lo < hi {
		mid := (lo + hi) / 2
		e := readIndexEntry(m.buf, mid)
		switch {
		case e.NameHash == h:
			return mid, e, true
		case e.NameHash < h:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return 0, IndexEntry{}, false
}

// HasField reports whether name is present.
func (m *MutableRecord) HasField(name string) bool {
	_, _, ok := m.find(name)
	return ok
}

// FieldType returns the stored tag for name.
func (m *MutableRecord) FieldType(name string) (Tag, bool) {
	_, e, ok := m.find(name)
	if !ok {
		return 0, false
	}
	return e.Tag, true
}

// GetField decodes name's current value (read path shared with Reader).
func (m *MutableRecord) GetField(name string, nested value.NestedEncoder) (value.Value, bool, error) {
	_, e, ok := m.find(name)
	if !ok {
		return value.Value{}, false, nil
	}
	data, sliceOK := sliceFor(m.buf, e)
	if !sliceOK {
		return value.Value{}, false, nil
	}
	return DecodeField(e.Tag, data, nested)
}

// SetI64 overwrites an existing I64 field in place (spec §4.F.1: fixed
// width, generation unchanged).
func (m *MutableRecord) SetI64(name string, v int64) error {
	_, e, ok := m.find(name)
	if !ok {
		return &errs.FieldNotFound{Name: name}
	}
	if e.Tag != TagI64 {
		return &errs.TypeMismatch{Field: name, Expected: TagI64.String(), Actual: e.Tag.String()}
	}
	off := int(e.DataOffset)
	binary.LittleEndian.PutUint64(m.buf[off:off+8], uint64(v))
	return nil
}

// SetU64 overwrites an existing U64 field in place.
func (m *MutableRecord) SetU64(name string, v uint64) error {
	_, e, ok := m.find(name)
	if !ok {
		return &errs.FieldNotFound{Name: name}
	}
	if e.Tag != TagU64 {
		return &errs.TypeMismatch{Field: name, Expected: TagU64.String(), Actual: e.Tag.String()}
	}
	off := int(e.DataOffset)
	binary.LittleEndian.PutUint64(m.buf[off:off+8], v)
	return nil
}

// SetF64 overwrites an existing F64 field in place.
func (m *MutableRecord) SetF64(name string, v float64) error {
	_, e, ok := m.find(name)
	if !ok {
		return &errs.FieldNotFound{Name: name}
	}
	if e.Tag != TagF64 {
		return &errs.TypeMismatch{Field: name, Expected: TagF64.String(), Actual: e.Tag.String()}
	}
	off := int(e.DataOffset)
	binary.LittleEndian.PutUint64(m.buf[off:off+8], math.Float64bits(v))
	return nil
}

// SetBool overwrites an existing Bool field in place.
func (m *MutableRecord) SetBool(name string, v bool) error {
	_, e, ok := m.find(name)
	if !ok {
		return &errs.FieldNotFound{Name: name}
	}
	if e.Tag != TagBool {
		return &errs.TypeMismatch{Field: name, Expected: TagBool.String(), Actual: e.Tag.String()}
	}
	off := int(e.DataOffset)
	if v {
		m.buf[off] = 1
	} else {
		m.buf[off] = 0
	}
	return nil
}

// SetStr sets a Str field, splicing (and bumping generation) when the new
// length differs from the stored length (spec §4.F.2).
func (m *MutableRecord) SetStr(name string, newVal string) error {
	pos, e, ok := m.find(name)
	if !ok {
		return &errs.FieldNotFound{Name: name}
	}
	if e.Tag != TagStr {
		return &errs.TypeMismatch{Field: name, Expected: TagStr.String(), Actual: e.Tag.String()}
	}
	if len(newVal) == int(e.DataLength) {
		off := int(e.DataOffset)
		copy(m.buf[off:off+len(newVal)], newVal)
		return nil
	}
	m.spliceField(pos, e, []byte(newVal), TagStr)
	return nil
}

// SetStrExact sets a Str field only when the new value has exactly the
// stored length, guaranteeing zero allocation for the caller (spec
// §4.F.2).
func (m *MutableRecord) SetStrExact(name string, newVal string) error {
	_, e, ok := m.find(name)
	if !ok {
		return &errs.FieldNotFound{Name: name}
	}
	if e.Tag != TagStr {
		return &errs.TypeMismatch{Field: name, Expected: TagStr.String(), Actual: e.Tag.String()}
	}
	if len(newVal) != int(e.DataLength) {
		return &errs.LengthMismatch{Field: name, Expected: int(e.DataLength), Actual: len(newVal)}
	}
	off := int(e.DataOffset)
	copy(m.buf[off:off+len(newVal)], newVal)
	return nil
}

// SetField re-encodes name's value, overwriting in place when the new
// payload is the same length and splicing otherwise (spec §4.F.3).
func (m *MutableRecord) SetField(name string, v value.Value, nested value.NestedEncoder) error {
	pos, e, ok := m.find(name)
	if !ok {
		return &errs.FieldNotFound{Name: name}
	}
	payload, tag, err := encodePayload(v, nested)
	if err != nil {
		return err
	}
	if len(payload) == int(e.DataLength) {
		off := int(e.DataOffset)
		copy(m.buf[off:off+len(payload)], payload)
		if tag != e.Tag {
			e.Tag = tag
			putIndexEntry(m.buf, pos, e)
		}
		return nil
	}
	m.spliceField(pos, e, payload, tag)
	return nil
}

// SetNull sets name's value to Null.
func (m *MutableRecord) SetNull(name string) error {
	return m.SetField(name, value.Null(), nil)
}

// spliceField replaces the payload at index position pos with newPayload,
// fixes up every other entry's data_offset, and bumps generation (spec
// §4.F.4).
func (m *MutableRecord) spliceField(pos int, e IndexEntry, newPayload []byte, newTag Tag) {
	oldOffset := int(e.DataOffset)
	oldLen := int(e.DataLength)
	delta := len(newPayload) - oldLen

	m.buf = spliceBytes(m.buf, oldOffset, oldLen, newPayload)

	e.DataLength = uint32(len(newPayload))
	e.Tag = newTag
	putIndexEntry(m.buf, pos, e)

	for i := 0; i < m.fieldCount; i++ {
		if i == pos {
			continue
		}
		ei := readIndexEntry(m.buf, i)
		if int(ei.DataOffset) > oldOffset {
			ei.DataOffset = uint32(int(ei.DataOffset) + delta)
			putIndexEntry(m.buf, i, ei)
		}
	}
	m.generation++
}

// collectRawEntries copies every field's (hash, tag, payload) out of the
// current buffer, in index order, for use by the structural rebuild path.
func (m *MutableRecord) collectRawEntries() []rawEntry {
	out := make([]rawEntry, m.fieldCount)
	for i := 0; i < m.fieldCount; i++ {
		e := readIndexEntry(m.buf, i)
		data, _ := sliceFor(m.buf, e)
		payload := make([]byte, len(data))
		copy(payload, data)
		out[i] = rawEntry{Hash: e.NameHash, Tag: e.Tag, Payload: payload}
	}
	return out
}

// AddField inserts a new field, rebuilding the buffer with the entry at
// its hash-sorted insertion point (spec §4.F.5). scratch, if non-nil, is
// reused as the rebuild target to avoid a fresh allocation in a migration
// loop.
func (m *MutableRecord) AddField(name string, v value.Value, nested value.NestedEncoder, scratch []byte) error {
	hash := fieldhash.Of(name)
	if _, _, ok := m.find(name); ok {
		return &errs.FieldExists{Name: name}
	}
	if m.fieldCount+1 > MaxFields {
		return &errs.TooManyFields{Count: m.fieldCount + 1}
	}
	payload, tag, err := encodePayload(v, nested)
	if err != nil {
		return err
	}

	existing := m.collectRawEntries()
	insertPos := sort.Search(len(existing), func(i int) bool { return existing[i].Hash >= hash })
	merged := make([]rawEntry, 0, len(existing)+1)
	merged = append(merged, existing[:insertPos]...)
	merged = append(merged, rawEntry{Hash: hash, Tag: tag, Payload: payload})
	merged = append(merged, existing[insertPos:]...)

	m.buf = buildFromRaw(merged, scratch)
	m.fieldCount = len(merged)
	m.generation++
	return nil
}

// RemoveField deletes name, rebuilding the buffer without it (spec
// §4.F.5). scratch, if non-nil, is reused as the rebuild target.
func (m *MutableRecord) RemoveField(name string, scratch []byte) error {
	pos, _, ok := m.find(name)
	if !ok {
		return &errs.FieldNotFound{Name: name}
	}
	existing := m.collectRawEntries()
	merged := make([]rawEntry, 0, len(existing)-1)
	merged = append(merged, existing[:pos]...)
	merged = append(merged, existing[pos+1:]...)

	m.buf = buildFromRaw(merged, scratch)
	m.fieldCount = len(merged)
	m.generation++
	return nil
}
