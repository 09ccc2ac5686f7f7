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

package store

// ZSet is an in-memory mapping from record id to an integer weight (spec
// §3.3): weight 1 means present, an absent entry means deleted. The type
// is i64 to leave room for a future multiplicity extension, though this
// store only ever produces weights in {0, 1}.
type ZSet struct {
	weights map[string]int64
}

func newZSet() *ZSet {
	return &ZSet{weights: make(map[string]int64)}
}

// Weight returns id's current weight, 0 if absent.
func (z *ZSet) Weight(id string) int64 {
	return z.weights[id]
}

// Set pins id's weight to w, removing the entry entirely when w == 0 so
// Len reflects only present ids.
func (z *ZSet) Set(id string, w int64) {
	if w == 0 {
		delete(z.weights, id)
	} else {
		z.weights[id] = w
	}
}

// ApplyDelta accumulates delta onto id's current weight and returns the
// result, removing the entry if it reaches exactly 0 (spec §4.G.6).
func (z *ZSet) ApplyDelta(id string, delta int64) int64 {
	nw := z.weights[id] + delta
	z.Set(id, nw)
	return nw
}

// Len returns the number of ids with non-zero weight.
func (z *ZSet) Len() int { return len(z.weights) }

// Ids returns every id with non-zero weight, in unspecified order.
func (z *ZSet) Ids() []string {
	ids := make([]string, 0, len(z.weights))
	for id := range z.weights {
		ids = append(ids, id)
	}
	return ids
}
