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

// Package errs holds the typed error taxonomy shared by record, kv and
// store (spec §6.4), so callers can use errors.As across package
// boundaries without re-declaring the same sentinel types in each package.
package errs

import "fmt"

// TooManyFields is returned by the serializer when a record would exceed
// MaxFields.
type TooManyFields struct {
	Count int
}

func (e *TooManyFields) Error() string {
	return fmt.Sprintf("record: %d fields exceeds the 32-field limit", e.Count)
}

// NotAnObject is returned when the serializer's top-level input is not an
// Object value.
type NotAnObject struct{}

func (e *NotAnObject) Error() string { return "record: top-level value is not an object" }

// FieldNotFound is returned by mutable-record read/write operations when no
// index entry matches the requested field name.
type FieldNotFound struct {
	Name string
}

func (e *FieldNotFound) Error() string { return fmt.Sprintf("record: field %q not found", e.Name) }

// FieldExists is returned by AddField when the name is already present.
type FieldExists struct {
	Name string
}

func (e *FieldExists) Error() string { return fmt.Sprintf("record: field %q already exists", e.Name) }

// TypeMismatch is returned by typed setters/getters when the stored tag
// does not match the requested type.
type TypeMismatch struct {
	Field    string
	Expected string
	Actual   string
}

func (e *TypeMismatch) Error() string {
	return fmt.Sprintf("record: field %q: expected %s, got %s", e.Field, e.Expected, e.Actual)
}

// LengthMismatch is returned by exact-length string setters (set_str_exact,
// set_str_at) when the replacement differs in length from the stored
// value.
type LengthMismatch struct {
	Field    string
	Expected int
	Actual   int
}

func (e *LengthMismatch) Error() string {
	return fmt.Sprintf("record: field %q: expected length %d, got %d", e.Field, e.Expected, e.Actual)
}

// InvalidBuffer is returned when a reader is constructed over malformed or
// corrupted record bytes.
type InvalidBuffer struct {
	Reason string
}

func (e *InvalidBuffer) Error() string { return fmt.Sprintf("record: invalid buffer: %s", e.Reason) }

// InvalidKey is returned when a table name contains the ':' separator byte
// (spec §3.3 I8, §6.4).
type InvalidKey struct {
	Table string
}

func (e *InvalidKey) Error() string {
	return fmt.Sprintf("store: table name %q contains ':'", e.Table)
}

// NestedCodecError wraps a failure from the nested Array/Object codec.
type NestedCodecError struct {
	Msg string
}

func (e *NestedCodecError) Error() string { return fmt.Sprintf("record: nested codec: %s", e.Msg) }

// StaleSlot is returned by FieldSlot accessors when the slot's cached
// generation no longer matches the owning record's (spec §4.F.6: a
// debug-mode assertion in the original design; Go has no separate
// debug/release build so this check always runs).
type StaleSlot struct {
	IndexPos int
}

func (e *StaleSlot) Error() string {
	return fmt.Sprintf("record: field slot at index %d is stale", e.IndexPos)
}
