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
	"github.com/timothybesel/spookydb/internal/fieldhash"
	"github.com/timothybesel/spookydb/value"
)

// Reader is a zero-copy view over a record's raw bytes (spec §4.E): it
// never allocates on the read path except where a decoded Str or nested
// value genuinely needs its own backing storage. buf is retained, not
// copied, so the caller must keep it alive (and immutable) for the
// Reader's lifetime.
type Reader struct {
	buf        []byte
	fieldCount int
}

// NewReader validates the header and index fit within buf and returns a
// Reader over it. It does not validate individual field payload bounds;
// those are checked lazily on access (spec invariant I3: a field whose
// offsets fall outside buf reads as absent, not as a constructor panic).
func NewReader(buf []byte) (*Reader, error) {
	if len(buf) < HeaderSize {
		return nil, &errs.InvalidBuffer{Reason: "shorter than the 20-byte header"}
	}
	fc := headerFieldCount(buf)
	if fc > MaxFields {
		return nil, &errs.InvalidBuffer{Reason: "field_count exceeds MaxFields"}
	}
	need := dataRegionStart(int(fc))
	if len(buf) < need {
		return nil, &errs.InvalidBuffer{Reason: "shorter than header+index for declared field_count"}
	}
	return &Reader{buf: buf, fieldCount: int(fc)}, nil
}

// FieldCount returns the number of fields declared in the header.
func (r *Reader) FieldCount() int { return r.fieldCount }

// ReadIndex returns the decoded index entry at position i (hash-sorted
// order, not insertion order).
func (r *Reader) ReadIndex(i int) (IndexEntry, bool) {
	if i < 0 || i >= r.fieldCount {
		return IndexEntry{}, false
	}
	return readIndexEntry(r.buf, i), true
}

// Find locates the index entry for name, using a linear scan at or below
// LinearScanThreshold fields and a binary search over the hash-sorted
// index otherwise (spec §4.E).
func (r *Reader) Find(name string) (pos int, entry IndexEntry, ok bool) {
	return r.findHash(fieldhash.Of(name))
}

func (r *Reader) findHash(h uint64) (pos int, entry IndexEntry, ok bool) {
	n := r.fieldCount
	if n <= LinearScanThreshold {
		for i := 0; i < n; i++ {
			e := readIndexEntry(r.buf, i)
			if e.NameHash == h {
				return i, e, true
			}
		}
		return 0, IndexEntry{}, false
	}
	lo, hi := 0, n
	for lo < hi {
		mid := (lo + hi) / 2
		e := readIndexEntry(r.buf, mid)
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

// rawSlice returns the payload bytes for an index entry, or ok=false if
// the offsets fall outside buf (a corrupt or truncated record).
func (r *Reader) rawSlice(e IndexEntry) ([]byte, bool) {
	return sliceFor(r.buf, e)
}

// HasField reports whether name is present in the index.
func (r *Reader) HasField(name string) bool {
	_, _, ok := r.Find(name)
	return ok
}

// FieldType returns the stored tag for name.
func (r *Reader) FieldType(name string) (Tag, bool) {
	_, e, ok := r.Find(name)
	if !ok {
		return 0, false
	}
	return e.Tag, true
}

// GetRaw returns the stored tag and raw payload bytes for name, without
// decoding. The returned slice aliases buf.
func (r *Reader) GetRaw(name string) (tag Tag, data []byte, ok bool) {
	_, e, found := r.Find(name)
	if !found {
		return 0, nil, false
	}
	data, sliceOK := r.rawSlice(e)
	if !sliceOK {
		return 0, nil, false
	}
	return e.Tag, data, true
}

// GetField decodes the field named name into a value.Value using nested
// to decode a NestedCBOR payload, if any.
func (r *Reader) GetField(name string, nested value.NestedEncoder) (value.Value, bool, error) {
	tag, data, found := r.GetRaw(name)
	if !found {
		return value.Value{}, false, nil
	}
	return DecodeField(tag, data, nested)
}

// GetStr returns name's value when it is stored with TagStr.
func (r *Reader) GetStr(name string) (string, bool) {
	tag, data, found := r.GetRaw(name)
	if !found || tag != TagStr {
		return "", false
	}
	return string(data), true
}

// GetBool returns name's value when it is stored with TagBool and the
// correct 1-byte width (spec invariant I5: a width mismatch reads as
// absent).
func (r *Reader) GetBool(name string) (bool, bool) {
	tag, data, found := r.GetRaw(name)
	if !found || tag != TagBool || len(data) != 1 {
		return false, false
	}
	return data[0] != 0, true
}

// GetI64 returns name's value when it is stored with TagI64 and the
// correct 8-byte width.
func (r *Reader) GetI64(name string) (int64, bool) {
	tag, data, found := r.GetRaw(name)
	if !found || tag != TagI64 || len(data) != 8 {
		return 0, false
	}
	return int64(binary.LittleEndian.Uint64(data)), true
}

// GetU64 returns name's value when it is stored with TagU64 and the
// correct 8-byte width.
func (r *Reader) GetU64(name string) (uint64, bool) {
	tag, data, found := r.GetRaw(name)
	if !found || tag != TagU64 || len(data) != 8 {
		return 0, false
	}
	return binary.LittleEndian.Uint64(data), true
}

// GetF64 returns name's value when it is stored with TagF64 and the
// correct 8-byte width.
func (r *Reader) GetF64(name string) (float64, bool) {
	tag, data, found := r.GetRaw(name)
	if !found || tag != TagF64 || len(data) != 8 {
		return 0, false
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(data)), true
}

// GetNumberAsF64 returns name's value promoted to float64 when it is
// stored as I64, U64 or F64 with the correct width (spec §3.1 canonical
// promotion); ok is false for any other tag or a width mismatch.
func (r *Reader) GetNumberAsF64(name string) (float64, bool) {
	tag, data, found := r.GetRaw(name)
	if !found || len(data) != 8 {
		return 0, false
	}
	switch tag {
	case TagI64:
		return float64(int64(binary.LittleEndian.Uint64(data))), true
	case TagU64:
		return float64(binary.LittleEndian.Uint64(data)), true
	case TagF64:
		return math.Float64frombits(binary.LittleEndian.Uint64(data)), true
	default:
		return 0, false
	}
}

// FieldRef is one entry yielded by a FieldIter: the stored name hash (the
// format does not retain field names, spec §4.G.5), its tag and raw
// payload bytes.
type FieldRef struct {
	NameHash uint64
	Tag      Tag
	Data     []byte
}

// FieldIter walks a Reader's index in hash-sorted order. It is restartable
// via Reset and reports an exact remaining count via Len (spec §4.E:
// "lazy, restartable, exact-size").
type FieldIter struct {
	r   *Reader
	pos int
}

// IterFields returns a fresh iterator positioned at the first field.
func (r *Reader) IterFields() *FieldIter { return &FieldIter{r: r} }

// Len returns the number of fields not yet consumed.
func (it *FieldIter) Len() int { return it.r.fieldCount - it.pos }

// Done reports whether the iterator is exhausted.
func (it *FieldIter) Done() bool { return it.pos >= it.r.fieldCount }

// Next returns the next field, or ok=false once exhausted.
func (it *FieldIter) Next() (FieldRef, bool) {
	if it.Done() {
		return FieldRef{}, false
	}
	e := readIndexEntry(it.r.buf, it.pos)
	data, _ := it.r.rawSlice(e)
	it.pos++
	return FieldRef{NameHash: e.NameHash, Tag: e.Tag, Data: data}, true
}

// Reset rewinds the iterator to the first field.
func (it *FieldIter) Reset() { it.pos = 0 }

// ToMap decodes the fields named in names into a value.Object, skipping
// any name absent from the record (spec §4.G.5 field projection; the
// supplemented convenience named in the original implementation's
// to_map helper). Unknown names are silently omitted rather than erroring,
// since the binary format cannot distinguish "absent" from "never asked
// about" once names have been hashed away.
func (r *Reader) ToMap(names []string, nested value.NestedEncoder) (value.Value, error) {
	fields := make([]value.Field, 0, len(names))
	for _, name := range names {
		v, ok, err := r.GetField(name, nested)
		if err != nil {
			return value.Value{}, err
		}
		if !ok {
			continue
		}
		fields = append(fields, value.Field{Key: name, Value: v})
	}
	return value.NewObject(fields)
}
