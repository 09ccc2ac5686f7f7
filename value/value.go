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

// Package value implements the tagged-variant value model shared by the
// serializer, deserializer and zero-copy reader: Null, Bool, a family of
// Number variants (I64/U64/F64), Str, Array and Object, with canonical
// total ordering and hashing.
package value

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Kind is the tag of a Value's active variant.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindI64
	KindU64
	KindF64
	KindStr
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindI64:
		return "i64"
	case KindU64:
		return "u64"
	case KindF64:
		return "f64"
	case KindStr:
		return "str"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// categoryRank groups the Number variants together for the purposes of the
// total order described in spec §3.1: Null < Bool < Number < Str < Array <
// Object.
func categoryRank(k Kind) int {
	switch k {
	case KindNull:
		return 0
	case KindBool:
		return 1
	case KindI64, KindU64, KindF64:
		return 2
	case KindStr:
		return 3
	case KindArray:
		return 4
	case KindObject:
		return 5
	default:
		return 6
	}
}

// Field is a single ordered (key, value) pair of an Object.
type Field struct {
	Key   string
	Value Value
}

// Value is a tagged variant carrying exactly one of Null, Bool, I64, U64,
// F64, Str, Array or Object.
type Value struct {
	kind Kind
	b    bool
	i    int64
	u    uint64
	f    float64
	s    string
	arr  []Value
	obj  []Field
}

// Null returns the Null variant.
func Null() Value { return Value{kind: KindNull} }

// Bool returns the Bool variant.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// I64 returns the signed-integer Number variant.
func I64(v int64) Value { return Value{kind: KindI64, i: v} }

// U64 returns the unsigned-integer Number variant.
func U64(v uint64) Value { return Value{kind: KindU64, u: v} }

// F64 returns the floating-point Number variant.
func F64(v float64) Value { return Value{kind: KindF64, f: v} }

// Str returns the string variant. Strings are expected to be small and are
// interned by callers that care about repeat allocation; Value itself just
// holds the Go string.
func Str(s string) Value { return Value{kind: KindStr, s: s} }

// Array returns the Array variant over the given elements. The slice is
// retained, not copied.
func Array(items ...Value) Value { return Value{kind: KindArray, arr: items} }

// NewObject builds the Object variant, sorting fields ascending by key
// (spec §3.1: "Objects are ordered by key"). Duplicate keys are rejected.
func NewObject(fields []Field) (Value, error) {
	sorted := make([]Field, len(fields))
	copy(sorted, fields)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Key == sorted[i-1].Key {
			return Value{}, fmt.Errorf("value: duplicate object key %q", sorted[i].Key)
		}
	}
	return Value{kind: KindObject, obj: sorted}, nil
}

// MustObject is NewObject but panics on duplicate keys; useful for
// constructing literals in tests.
func MustObject(fields []Field) Value {
	v, err := NewObject(fields)
	if err != nil {
		panic(err)
	}
	return v
}

// Kind reports the active variant.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the Null variant.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the bool payload and whether v is the Bool variant.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsI64 returns the int64 payload and whether v is the I64 variant.
func (v Value) AsI64() (int64, bool) { return v.i, v.kind == KindI64 }

// AsU64 returns the uint64 payload and whether v is the U64 variant.
func (v Value) AsU64() (uint64, bool) { return v.u, v.kind == KindU64 }

// AsF64 returns the float64 payload and whether v is the F64 variant.
func (v Value) AsF64() (float64, bool) { return v.f, v.kind == KindF64 }

// AsStr returns the string payload and whether v is the Str variant.
func (v Value) AsStr() (string, bool) { return v.s, v.kind == KindStr }

// AsArray returns the element slice and whether v is the Array variant.
func (v Value) AsArray() ([]Value, bool) { return v.arr, v.kind == KindArray }

// AsObject returns the ordered field slice and whether v is the Object
// variant.
func (v Value) AsObject() ([]Field, bool) { return v.obj, v.kind == KindObject }

// IsNested reports whether v must be encoded via the nested codec
// (Array/Object), per spec §3.2.
func (v Value) IsNested() bool { return v.kind == KindArray || v.kind == KindObject }

// AsNested returns v itself when it is Array or Object, for adapters that
// hand nested values off to a value.NestedEncoder.
func (v Value) AsNested() (Value, bool) { return v, v.IsNested() }

// NumberAsF64 promotes any Number variant to float64 using the canonical
// rules of spec §3.1; ok is false for non-Number variants.
func (v Value) NumberAsF64() (float64, bool) {
	switch v.kind {
	case KindI64:
		return float64(v.i), true
	case KindU64:
		return float64(v.u), true
	case KindF64:
		return v.f, true
	default:
		return 0, false
	}
}

// NestedEncoder is implemented by a nested-value codec (spec §3.2
// NestedCBOR): a strict tree-structured encoding for Array and Object
// values, injected so the value package does not hard-depend on a specific
// CBOR dialect.
type NestedEncoder interface {
	EncodeValue(w io.Writer, v Value) error
	DecodeValue(data []byte) (Value, error)
}

// normalizeZero folds -0.0 to +0.0, per spec §3.1.
func normalizeZero(f float64) float64 {
	if f == 0 {
		return 0
	}
	return f
}

// compareF64 implements the canonical total order over float64 required by
// spec §3.1 and §8 property 8: NaN sorts below -Inf, and -0.0 == +0.0.
func compareF64(a, b float64) int {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return -1
	case bNaN:
		return 1
	}
	a, b = normalizeZero(a), normalizeZero(b)
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Compare implements the total order of spec §3.1: variant discriminants
// order Null < Bool < Number < Str < Array < Object; within Number,
// same-variant pairs compare exactly as integers, cross-variant pairs
// compare via the canonical f64 promotion; Str/Array/Object compare
// lexicographically.
func Compare(a, b Value) int {
	ra, rb := categoryRank(a.kind), categoryRank(b.kind)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch ra {
	case 0: // Null
		return 0
	case 1: // Bool
		switch {
		case a.b == b.b:
			return 0
		case !a.b:
			return -1
		default:
			return 1
		}
	case 2: // Number
		if a.kind == b.kind {
			switch a.kind {
			case KindI64:
				switch {
				case a.i < b.i:
					return -1
				case a.i > b.i:
					return 1
				default:
					return 0
				}
			case KindU64:
				switch {
				case a.u < b.u:
					return -1
				case a.u > b.u:
					return 1
				default:
					return 0
				}
			default: // KindF64
				return compareF64(a.f, b.f)
			}
		}
		af, _ := a.NumberAsF64()
		bf, _ := b.NumberAsF64()
		return compareF64(af, bf)
	case 3: // Str
		switch {
		case a.s < b.s:
			return -1
		case a.s > b.s:
			return 1
		default:
			return 0
		}
	case 4: // Array
		return compareArrays(a.arr, b.arr)
	case 5: // Object
		return compareObjects(a.obj, b.obj)
	default:
		return 0
	}
}

func compareArrays(a, b []Value) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

func compareObjects(a, b []Field) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i].Key != b[i].Key {
			if a[i].Key < b[i].Key {
				return -1
			}
			return 1
		}
		if c := Compare(a[i].Value, b[i].Value); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// Equal reports structural equality, defined as Compare(a, b) == 0 (spec §8
// property 8: cross-variant Number equality agrees with the f64-promotion
// total order, so NaN == NaN and -0.0 == +0.0 here too).
func Equal(a, b Value) bool { return Compare(a, b) == 0 }

// tag bytes used only to separate hash namespaces between variants that
// are not already distinguished by content (e.g. an empty Str and an empty
// Array must not collide).
const (
	hashTagNull byte = iota
	hashTagBoolFalse
	hashTagBoolTrue
	hashTagNumber
	hashTagStr
	hashTagArray
	hashTagObject
)

// Hash returns a 64-bit hash consistent with Equal: equal Values (including
// cross-variant Number equality) hash equal. Used when Values, rather than
// plain record ids, are placed into a Z-set under a future multiplicity
// extension (spec §4.A).
func Hash(v Value) uint64 {
	d := xxhash.New()
	hashInto(d, v)
	return d.Sum64()
}

func hashInto(d *xxhash.Digest, v Value) {
	switch v.kind {
	case KindNull:
		d.Write([]byte{hashTagNull})
	case KindBool:
		if v.b {
			d.Write([]byte{hashTagBoolTrue})
		} else {
			d.Write([]byte{hashTagBoolFalse})
		}
	case KindI64, KindU64, KindF64:
		f, _ := v.NumberAsF64()
		f = normalizeZero(f)
		var bits uint64
		if math.IsNaN(f) {
			bits = 0x7ff8000000000000 // canonical NaN bit pattern
		} else {
			bits = math.Float64bits(f)
		}
		var buf [9]byte
		buf[0] = hashTagNumber
		buf[1] = byte(bits)
		buf[2] = byte(bits >> 8)
		buf[3] = byte(bits >> 16)
		buf[4] = byte(bits >> 24)
		buf[5] = byte(bits >> 32)
		buf[6] = byte(bits >> 40)
		buf[7] = byte(bits >> 48)
		buf[8] = byte(bits >> 56)
		d.Write(buf[:])
	case KindStr:
		d.Write([]byte{hashTagStr})
		d.WriteString(v.s)
	case KindArray:
		d.Write([]byte{hashTagArray})
		for _, e := range v.arr {
			hashInto(d, e)
		}
	case KindObject:
		d.Write([]byte{hashTagObject})
		for _, f := range v.obj {
			d.WriteString(f.Key)
			hashInto(d, f.Value)
		}
	}
}
