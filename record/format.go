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

// Package record implements the hybrid record binary format: a fixed
// header, a sorted hash index and a packed data region (spec §3.2), plus
// the serializer, deserializer, zero-copy reader and mutable-record editor
// built on top of it.
package record

import "encoding/binary"

// Region sizes, in bytes.
const (
	HeaderSize      = 20 // field_count (u32 LE) + 16 reserved bytes
	IndexEntrySize  = 20 // name_hash(8) + data_offset(4) + data_length(4) + type_tag(1) + padding(3)
	headerReserved  = 16
	indexEntryPad   = 3
	nameHashOffset  = 0
	dataOffOffset   = 8
	dataLenOffset   = 12
	typeTagOffset   = 16
)

// MaxFields is the hard limit on fields per record (spec invariant I1).
const MaxFields = 32

// LinearScanThreshold is the field count at or below which Reader.Find uses
// a linear scan instead of a binary search (spec §4.E): for small field
// counts branch prediction and cache locality beat the log-n win.
const LinearScanThreshold = 4

// Type tags, bit-exact across implementations (spec §3.2).
type Tag byte

const (
	TagNull Tag = iota
	TagBool
	TagI64
	TagF64
	TagStr
	TagNestedCBOR
	TagU64
)

func (t Tag) String() string {
	switch t {
	case TagNull:
		return "null"
	case TagBool:
		return "bool"
	case TagI64:
		return "i64"
	case TagF64:
		return "f64"
	case TagStr:
		return "str"
	case TagNestedCBOR:
		return "nested_cbor"
	case TagU64:
		return "u64"
	default:
		return "unknown"
	}
}

// FixedWidth returns the mandatory payload length for tags with a fixed
// width (Null, Bool, I64, U64, F64), and ok=false for variable-width tags
// (Str, NestedCBOR) where any length is admissible.
func (t Tag) FixedWidth() (width int, ok bool) {
	switch t {
	case TagNull:
		return 0, true
	case TagBool:
		return 1, true
	case TagI64, TagU64, TagF64:
		return 8, true
	default:
		return 0, false
	}
}

// IndexEntry is the decoded form of one 20-byte index slot.
type IndexEntry struct {
	NameHash   uint64
	DataOffset uint32
	DataLength uint32
	Tag        Tag
}

// headerFieldCount reads field_count from a record buffer's header.
func headerFieldCount(buf []byte) uint32 {
	return binary.LittleEndian.Uint32(buf[0:4])
}

// putHeader writes the 20-byte header with reserved bytes zeroed.
func putHeader(buf []byte, fieldCount uint32) {
	binary.LittleEndian.PutUint32(buf[0:4], fieldCount)
	for i := 4; i < HeaderSize; i++ {
		buf[i] = 0
	}
}

// indexEntryAt returns the byte offset of index slot i within the buffer.
func indexEntryAt(i int) int {
	return HeaderSize + i*IndexEntrySize
}

// putIndexEntry writes one 20-byte index slot at position i.
func putIndexEntry(buf []byte, i int, e IndexEntry) {
	off := indexEntryAt(i)
	binary.LittleEndian.PutUint64(buf[off+nameHashOffset:], e.NameHash)
	binary.LittleEndian.PutUint32(buf[off+dataOffOffset:], e.DataOffset)
	binary.LittleEndian.PutUint32(buf[off+dataLenOffset:], e.DataLength)
	buf[off+typeTagOffset] = byte(e.Tag)
	buf[off+typeTagOffset+1] = 0
	buf[off+typeTagOffset+2] = 0
	buf[off+typeTagOffset+3] = 0
}

// readIndexEntry decodes the 20-byte index slot at position i.
func readIndexEntry(buf []byte, i int) IndexEntry {
	off := indexEntryAt(i)
	return IndexEntry{
		NameHash:   binary.LittleEndian.Uint64(buf[off+nameHashOffset:]),
		DataOffset: binary.LittleEndian.Uint32(buf[off+dataOffOffset:]),
		DataLength: binary.LittleEndian.Uint32(buf[off+dataLenOffset:]),
		Tag:        Tag(buf[off+typeTagOffset]),
	}
}

// dataRegionStart returns the first valid data offset for a record with the
// given field count (spec invariant I3).
func dataRegionStart(fieldCount int) int {
	return HeaderSize + fieldCount*IndexEntrySize
}

// sliceFor returns the payload bytes an index entry describes, or ok=false
// if its offsets fall outside buf (spec invariant I3 violated — a corrupt
// or truncated record).
func sliceFor(buf []byte, e IndexEntry) ([]byte, bool) {
	start := int(e.DataOffset)
	end := start + int(e.DataLength)
	if start < 0 || end > len(buf) || start > end {
		return nil, false
	}
	return buf[start:end], true
}

// rawEntry is a fully-decoded (hash, tag, payload) triple used by the
// structural rebuild path (AddField/RemoveField): payload is a private
// copy, independent of any source buffer.
type rawEntry struct {
	Hash    uint64
	Tag     Tag
	Payload []byte
}

// buildFromRaw writes a brand-new record buffer from entries already
// sorted ascending by Hash, reusing buf's backing array when it has
// enough capacity (spec §4.F.5: "reuse a caller-owned scratch buffer").
func buildFromRaw(entries []rawEntry, buf []byte) []byte {
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
		buf = append(buf, e.Payload...)
		putIndexEntry(buf, i, IndexEntry{
			NameHash:   e.Hash,
			DataOffset: uint32(offset),
			DataLength: uint32(len(e.Payload)),
			Tag:        e.Tag,
		})
		offset += len(e.Payload)
	}
	return buf
}

// spliceBytes replaces buf[offset:offset+oldLen] with newBytes, growing or
// shrinking buf as needed (spec §4.F.4). It does not touch any index
// entry; callers fix up offsets separately.
func spliceBytes(buf []byte, offset, oldLen int, newBytes []byte) []byte {
	newLen := len(newBytes)
	delta := newLen - oldLen
	switch {
	case delta == 0:
		copy(buf[offset:offset+oldLen], newBytes)
		return buf
	case delta > 0:
		oldBufLen := len(buf)
		buf = append(buf, make([]byte, delta)...)
		copy(buf[offset+newLen:], buf[offset+oldLen:oldBufLen])
		copy(buf[offset:offset+newLen], newBytes)
		return buf
	default:
		oldBufLen := len(buf)
		copy(buf[offset+newLen:], buf[offset+oldLen:oldBufLen])
		buf = buf[:oldBufLen+delta]
		copy(buf[offset:offset+newLen], newBytes)
		return buf
	}
}
