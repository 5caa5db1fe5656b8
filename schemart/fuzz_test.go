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

import (
	"bytes"
	"testing"
)

// FuzzRoundTrip checks spec.md §8's round-trip idempotency property:
// whatever Unparse produces from a successfully-parsed IR, with no
// schema transformation, must itself parse back to the identical tag
// sequence and decoded values (a second Unparse of that IR must then
// be byte-for-byte stable, since it is already in shortest form).
func FuzzRoundTrip(f *testing.F) {
	f.Add([]byte{0x93, 0x01, 0x02, 0x03})
	f.Add([]byte{0x82, 0xa1, 'a', 0x01, 0xa1, 'b', 0x02})
	f.Add([]byte{0xcf, 0x80, 0, 0, 0, 0, 0, 0, 0})
	f.Add([]byte{0xd1, 0xff, 0x9c})
	f.Add([]byte{0xd7, 0x01, 1, 2, 3, 4, 5, 6, 7, 8})
	f.Add([]byte{0x92, 0x01, 0x92, 0x02, 0x03})
	f.Add([]byte{0xa3, 'a', 'b'})
	f.Add([]byte{0xc1})

	f.Fuzz(func(t *testing.T, data []byte) {
		first := NewState()
		if err := first.Parse(data); err != nil {
			return // not a well-formed message; nothing to round-trip
		}

		firstTags := append([]Tag(nil), first.T...)
		firstVals := append([]Value(nil), first.V...)

		first.OT, first.OV = first.T, first.V
		if err := first.Unparse(len(firstTags)); err != nil {
			t.Fatalf("Unparse of a freshly parsed IR failed: %v", err)
		}
		encoded := append([]byte(nil), first.Res()...)

		second := NewState()
		if err := second.Parse(encoded); err != nil {
			t.Fatalf("re-parsing Unparse's own output failed: %v\nencoded: % x", err, encoded)
		}

		if len(second.T) != len(firstTags) {
			t.Fatalf("slot count changed across round trip: %d -> %d", len(firstTags), len(second.T))
		}
		for i := range firstTags {
			if second.T[i] != firstTags[i] {
				t.Fatalf("slot %d tag changed: %v -> %v", i, firstTags[i], second.T[i])
			}
			if !valuesEquivalent(firstTags[i], firstVals[i], second.V[i]) {
				t.Fatalf("slot %d value changed: %+v -> %+v", i, firstVals[i], second.V[i])
			}
		}

		second.OT, second.OV = second.T, second.V
		if err := second.Unparse(len(second.T)); err != nil {
			t.Fatalf("Unparse of the re-parsed IR failed: %v", err)
		}
		if !bytes.Equal(second.Res(), encoded) {
			t.Fatalf("unparse is not stable once in shortest form: % x -> % x", encoded, second.Res())
		}
	})
}

// valuesEquivalent compares two Value slots the way the tag says they
// should be compared: scalars by decoded value, blobs/containers by
// Xlen (their Xoff encodes a buffer-relative position that is expected
// to differ across independent Parse calls).
func valuesEquivalent(tag Tag, a, b Value) bool {
	switch tag {
	case Long:
		return a.Long() == b.Long()
	case Ulong:
		return a.Ulong() == b.Ulong()
	case Float, Double:
		return a.Float() == b.Float()
	case String, Bin, Ext, Array, Map:
		return a.Xlen == b.Xlen
	default:
		return true
	}
}
