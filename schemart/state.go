// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package schemart

import "github.com/google/uuid"

// State owns the four growable IR buffers and the two pinned data banks
// described in spec.md §4.1. A State is created once and reused across
// many Parse/Unparse calls; none of its arrays ever shrink on success.
//
// A State is not safe for concurrent use by multiple goroutines; distinct
// State values are entirely independent (spec.md §5).
type State struct {
	// T/V are the input-side IR, populated by Parse.
	T []Tag
	V []Value

	// OT/OV are the output-side IR. An upstream schema layer (out of
	// scope for this package) populates them via GrowOutput before
	// calling Unparse.
	OT []Tag
	OV []Value

	// B1 is the pinned input bank referenced by String/Bin/Ext blobs
	// produced by Parse, and by String/Bin/Ext/Ext tags consumed by
	// Unparse. B2 is the pinned constant bank referenced by
	// CString/CBin/CopyCommand tags consumed by Unparse. Both must
	// remain valid (pinned) for as long as any IR referencing them is
	// in use; see package bank for a managed way to satisfy that.
	B1 []byte
	B2 []byte

	res []byte

	// TraceID optionally correlates diagnostics for this State across
	// logs when a caller juggles many independent State values (e.g.
	// one per concurrent pipeline stage). It plays no role in parsing
	// or unparsing.
	TraceID uuid.UUID
}

// NewState returns a State with a fresh TraceID and no other allocations
// pre-reserved; the first Parse/Unparse call grows the buffers it needs.
func NewState() *State {
	return &State{TraceID: uuid.New()}
}

// Res returns the result bytes of the most recent successful Unparse
// call, or the short ASCII diagnostic of the most recent failing
// Parse/Unparse call.
func (s *State) Res() []byte { return s.res }

// Reset clears the input-side and output-side IR and the result buffer
// without releasing their backing arrays, so the next Parse/Unparse call
// can reuse the capacity already grown.
func (s *State) Reset() {
	s.T = s.T[:0]
	s.V = s.V[:0]
	s.OT = s.OT[:0]
	s.OV = s.OV[:0]
	s.res = s.res[:0]
	s.B1 = nil
	s.B2 = nil
}

// nextCapacity mirrors the original runtime's growth policy (spec.md
// §4.5): start at 128 and grow by 1.5x (integer arithmetic) until the
// capacity is at least min.
func nextCapacity(min int) int {
	c := 128
	for c < min {
		c = c + c/2
	}
	return c
}

// growTagValue returns t, v grown (if necessary) to have capacity for at
// least min items, preserving their existing contents. Reallocation
// invalidates any pointer or subslice a caller may hold into the old
// slices' backing arrays, matching spec.md §4.5's note that all three
// walkers must recompute cursors after growth; in this port the "cursor"
// is always a plain slice index, which remains valid across the copy.
func growTagValue(t []Tag, v []Value, min int) ([]Tag, []Value) {
	if cap(t) >= min {
		return t, v
	}
	nc := nextCapacity(min)
	nt := make([]Tag, len(t), nc)
	copy(nt, t)
	nv := make([]Value, len(v), nc)
	copy(nv, v)
	return nt, nv
}

// appendTV appends tag/val to t/v, growing them first if they are at
// capacity. This is the Go equivalent of the "ensure one slot of
// headroom" capacity check the parser performs before emitting each IR
// slot (spec.md §4.2).
func appendTV(t []Tag, v []Value, tag Tag, val Value) ([]Tag, []Value) {
	if len(t) == cap(t) {
		t, v = growTagValue(t, v, len(t)+1)
	}
	return append(t, tag), append(v, val)
}

// GrowOutput ensures the output-side IR arrays (OT/OV) can hold at least
// min items, preserving whatever they already contain. It is the
// entry point an upstream schema layer calls before populating OT/OV
// (spec.md §6, grow_output). Allocation failure in Go surfaces as a
// panic rather than a return value, so GrowOutput always succeeds; the
// error return is kept so the original 0/-1 contract remains expressible
// by a caller who wants it.
func (s *State) GrowOutput(min int) error {
	s.OT, s.OV = growTagValue(s.OT, s.OV, min)
	return nil
}

// growRes ensures s.res can hold at least min bytes without disturbing
// its current length, using the same growth policy as the IR arrays.
func (s *State) growRes(min int) {
	if cap(s.res) >= min {
		return
	}
	nc := nextCapacity(min)
	nb := make([]byte, len(s.res), nc)
	copy(nb, s.res)
	s.res = nb
}
