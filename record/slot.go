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

	"github.com/timothybesel/spookydb/errs"
)

// FieldSlot is a cached O(1) handle to a field, stamped with the
// generation it was resolved under (spec §4.F.6). The original design
// only asserted the generation in debug builds; Go has no separate
// debug/release mode, so every accessor here always checks it and
// returns errs.StaleSlot rather than risking a wrong-field read.
type FieldSlot struct {
	indexPos   int
	dataOffset uint32
	dataLen    uint32
	tag        Tag
	generation uint64
}

// Resolve looks up name and returns a slot stamped with the record's
// current generation.
func (m *MutableRecord) Resolve(name string) (FieldSlot, bool) {
	pos, e, ok := m.find(name)
	if !ok {
		return FieldSlot{}, false
	}
	return FieldSlot{
		indexPos:   pos,
		dataOffset: e.DataOffset,
		dataLen:    e.DataLength,
		tag:        e.Tag,
		generation: m.generation,
	}, true
}

func (m *MutableRecord) checkSlot(slot FieldSlot, want Tag) ([]byte, error) {
	if slot.generation != m.generation {
		return nil, &errs.StaleSlot{IndexPos: slot.indexPos}
	}
	if slot.tag != want {
		return nil, &errs.TypeMismatch{Expected: want.String(), Actual: slot.tag.String()}
	}
	start, end := int(slot.dataOffset), int(slot.dataOffset)+int(slot.dataLen)
	if start < 0 || end > len(m.buf) || start > end {
		return nil, &errs.InvalidBuffer{Reason: "stale field slot out of bounds"}
	}
	return m.buf[start:end], nil
}

// GetI64At reads through a previously resolved slot.
func (m *MutableRecord) GetI64At(slot FieldSlot) (int64, error) {
	data, err := m.checkSlot(slot, TagI64)
	if err != nil {
		return 0, err
	}
	if len(data) != 8 {
		return 0, &errs.InvalidBuffer{Reason: "i64 slot width mismatch"}
	}
	return int64(binary.LittleEndian.Uint64(data)), nil
}

// SetI64At writes through a previously resolved slot.
func (m *MutableRecord) SetI64At(slot FieldSlot, v int64) error {
	data, err := m.checkSlot(slot, TagI64)
	if err != nil {
		return err
	}
	if len(data) != 8 {
		return &errs.InvalidBuffer{Reason: "i64 slot width mismatch"}
	}
	binary.LittleEndian.PutUint64(data, uint64(v))
	return nil
}

// GetU64At reads through a previously resolved slot.
func (m *MutableRecord) GetU64At(slot FieldSlot) (uint64, error) {
	data, err := m.checkSlot(slot, TagU64)
	if err != nil {
		return 0, err
	}
	if len(data) != 8 {
		return 0, &errs.InvalidBuffer{Reason: "u64 slot width mismatch"}
	}
	return binary.LittleEndian.Uint64(data), nil
}

// SetU64At writes through a previously resolved slot.
func (m *MutableRecord) SetU64At(slot FieldSlot, v uint64) error {
	data, err := m.checkSlot(slot, TagU64)
	if err != nil {
		return err
	}
	if len(data) != 8 {
		return &errs.InvalidBuffer{Reason: "u64 slot width mismatch"}
	}
	binary.LittleEndian.PutUint64(data, v)
	return nil
}

// GetF64At reads through a previously resolved slot.
func (m *MutableRecord) GetF64At(slot FieldSlot) (float64, error) {
	data, err := m.checkSlot(slot, TagF64)
	if err != nil {
		return 0, err
	}
	if len(data) != 8 {
		return 0, &errs.InvalidBuffer{Reason: "f64 slot width mismatch"}
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(data)), nil
}

// SetF64At writes through a previously resolved slot.
func (m *MutableRecord) SetF64At(slot FieldSlot, v float64) error {
	data, err := m.checkSlot(slot, TagF64)
	if err != nil {
		return err
	}
	if len(data) != 8 {
		return &errs.InvalidBuffer{Reason: "f64 slot width mismatch"}
	}
	binary.LittleEndian.PutUint64(data, math.Float64bits(v))
	return nil
}

// GetBoolAt reads through a previously resolved slot.
func (m *MutableRecord) GetBoolAt(slot FieldSlot) (bool, error) {
	data, err := m.checkSlot(slot, TagBool)
	if err != nil {
		return false, err
	}
	if len(data) != 1 {
		return false, &errs.InvalidBuffer{Reason: "bool slot width mismatch"}
	}
	return data[0] != 0, nil
}

// SetBoolAt writes through a previously resolved slot.
func (m *MutableRecord) SetBoolAt(slot FieldSlot, v bool) error {
	data, err := m.checkSlot(slot, TagBool)
	if err != nil {
		return err
	}
	if len(data) != 1 {
		return &errs.InvalidBuffer{Reason: "bool slot width mismatch"}
	}
	if v {
		data[0] = 1
	} else {
		data[0] = 0
	}
	return nil
}

// GetStrAt reads through a previously resolved slot.
func (m *MutableRecord) GetStrAt(slot FieldSlot) (string, error) {
	data, err := m.checkSlot(slot, TagStr)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SetStrAt accepts only a same-length write; any other length returns
// LengthMismatch and the caller must re-resolve via the variable-length
// MutableRecord.SetStr path instead (spec §4.F.6).
func (m *MutableRecord) SetStrAt(slot FieldSlot, newVal string) error {
	data, err := m.checkSlot(slot, TagStr)
	if err != nil {
		return err
	}
	if len(newVal) != len(data) {
		return &errs.LengthMismatch{Expected: len(data), Actual: len(newVal)}
	}
	copy(data, newVal)
	return nil
}

// GetNumberAsF64At promotes an I64/U64/F64 slot to float64.
func (m *MutableRecord) GetNumberAsF64At(slot FieldSlot) (float64, error) {
	switch slot.tag {
	case TagI64:
		v, err := m.GetI64At(slot)
		return float64(v), err
	case TagU64:
		v, err := m.GetU64At(slot)
		return float64(v), err
	case TagF64:
		return m.GetF64At(slot)
	default:
		return 0, &errs.TypeMismatch{Expected: "number", Actual: slot.tag.String()}
	}
}
