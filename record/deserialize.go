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

	"github.com/pkg/errors"

	"github.com/timothybesel/spookydb/errs"
	"github.com/timothybesel/spookydb/value"
)

// DecodeField decodes one field's raw (tag, data) pair into a value.Value
// (spec §4.D). Decoding is pure; malformed fixed-width payloads come back
// as ok=false rather than an error, matching spec invariant I5. A
// malformed NestedCBOR payload propagates the nested codec's error.
func DecodeField(tag Tag, data []byte, nested value.NestedEncoder) (v value.Value, ok bool, err error) {
	switch tag {
	case TagNull:
		if len(data) != 0 {
			return value.Value{}, false, nil
		}
		return value.Null(), true, nil
	case TagBool:
		if len(data) != 1 {
			return value.Value{}, false, nil
		}
		return value.Bool(data[0] != 0), true, nil
	case TagI64:
		if len(data) != 8 {
			return value.Value{}, false, nil
		}
		return value.I64(int64(binary.LittleEndian.Uint64(data))), true, nil
	case TagU64:
		if len(data) != 8 {
			return value.Value{}, false, nil
		}
		return value.U64(binary.LittleEndian.Uint64(data)), true, nil
	case TagF64:
		if len(data) != 8 {
			return value.Value{}, false, nil
		}
		return value.F64(math.Float64frombits(binary.LittleEndian.Uint64(data))), true, nil
	case TagStr:
		return value.Str(string(data)), true, nil
	case TagNestedCBOR:
		if nested == nil {
			return value.Value{}, false, &errs.NestedCodecError{Msg: "no nested codec configured"}
		}
		v, err := nested.DecodeValue(data)
		if err != nil {
			return value.Value{}, false, &errs.NestedCodecError{Msg: errors.Wrap(err, "nested decode").Error()}
		}
		return v, true, nil
	default:
		return value.Value{}, false, nil
	}
}
