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

import "testing"

func TestNextCapacity(t *testing.T) {
	cases := []struct{ min, want int }{
		{0, 128},
		{1, 128},
		{128, 128},
		{129, 192},
		{192, 192},
		{193, 288},
	}
	for _, c := range cases {
		if got := nextCapacity(c.min); got != c.want {
			t.Errorf("nextCapacity(%d) = %d, want %d", c.min, got, c.want)
		}
	}
}

func TestGrowOutputPreservesContents(t *testing.T) {
	s := NewState()
	s.OT = append(s.OT, Long, Long)
	s.OV = append(s.OV, ValueLong(1), ValueLong(2))

	if err := s.GrowOutput(500); err != nil {
		t.Fatalf("GrowOutput: %v", err)
	}
	if cap(s.OT) < 500 || cap(s.OV) < 500 {
		t.Fatalf("cap(OT)=%d cap(OV)=%d, want >= 500", cap(s.OT), cap(s.OV))
	}
	if len(s.OT) != 2 || s.OV[0].Long() != 1 || s.OV[1].Long() != 2 {
		t.Fatalf("GrowOutput discarded existing contents: OT=%v OV=%v", s.OT, s.OV)
	}
}

func TestResetClearsButDoesNotDeallocate(t *testing.T) {
	s := NewState()
	if err := s.Parse([]byte{0x93, 0x01, 0x02, 0x03}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	capT := cap(s.T)

	s.Reset()

	if len(s.T) != 0 || len(s.V) != 0 || len(s.OT) != 0 || len(s.OV) != 0 || len(s.res) != 0 {
		t.Fatalf("Reset left non-empty state: T=%d V=%d OT=%d OV=%d res=%d",
			len(s.T), len(s.V), len(s.OT), len(s.OV), len(s.res))
	}
	if s.B1 != nil || s.B2 != nil {
		t.Fatalf("Reset left banks pinned: B1=%v B2=%v", s.B1, s.B2)
	}
	if cap(s.T) != capT {
		t.Fatalf("Reset deallocated T's backing array: cap=%d, want %d", cap(s.T), capT)
	}
}

func TestNewStateAssignsDistinctTraceIDs(t *testing.T) {
	a, b := NewState(), NewState()
	if a.TraceID == b.TraceID {
		t.Fatal("two States got the same TraceID")
	}
}
