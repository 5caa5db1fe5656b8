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
	"errors"
	"testing"
)

func TestParseThreeElementArray(t *testing.T) {
	s := NewState()
	data := []byte{0x93, 0x01, 0x02, 0x03}
	if err := s.Parse(data); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if len(s.T) != 4 {
		t.Fatalf("len(T) = %d, want 4", len(s.T))
	}
	if s.T[0] != Array {
		t.Fatalf("T[0] = %v, want Array", s.T[0])
	}
	if s.V[0].Xlen != 3 || s.V[0].Xoff != 4 {
		t.Fatalf("V[0] = %+v, want Xlen=3 Xoff=4", s.V[0])
	}
	for i, want := range []int64{1, 2, 3} {
		if s.T[i+1] != Long {
			t.Fatalf("T[%d] = %v, want Long", i+1, s.T[i+1])
		}
		if got := s.V[i+1].Long(); got != want {
			t.Fatalf("V[%d].Long() = %d, want %d", i+1, got, want)
		}
	}
}

func TestParseTwoPairMap(t *testing.T) {
	s := NewState()
	// {"a": 1, "b": 2}
	data := []byte{0x82, 0xa1, 'a', 0x01, 0xa1, 'b', 0x02}
	if err := s.Parse(data); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if s.T[0] != Map || s.V[0].Xlen != 2 {
		t.Fatalf("T[0]/V[0] = %v/%+v, want Map/Xlen=2", s.T[0], s.V[0])
	}
	if s.V[0].Xoff != uint32(len(s.T)) {
		t.Fatalf("root Xoff = %d, want %d (sibling-after-container)", s.V[0].Xoff, len(s.T))
	}

	wantKeys := []string{"a", "b"}
	wantVals := []int64{1, 2}
	for i := 0; i < 2; i++ {
		keyIdx := 1 + i*2
		valIdx := keyIdx + 1
		if s.T[keyIdx] != String {
			t.Fatalf("T[%d] = %v, want String", keyIdx, s.T[keyIdx])
		}
		key := blobBytes(s, s.V[keyIdx])
		if string(key) != wantKeys[i] {
			t.Fatalf("key %d = %q, want %q", i, key, wantKeys[i])
		}
		if got := s.V[valIdx].Long(); got != wantVals[i] {
			t.Fatalf("value %d = %d, want %d", i, got, wantVals[i])
		}
	}
}

func TestParseUlongRoundTripValue(t *testing.T) {
	s := NewState()
	// uint 64, value 2^63 (exceeds math.MaxInt64, must canonicalize to Ulong)
	data := []byte{0xcf, 0x80, 0, 0, 0, 0, 0, 0, 0}
	if err := s.Parse(data); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.T[0] != Ulong {
		t.Fatalf("T[0] = %v, want Ulong", s.T[0])
	}
	if got, want := s.V[0].Ulong(), uint64(1)<<63; got != want {
		t.Fatalf("V[0].Ulong() = %d, want %d", got, want)
	}
}

func TestParseShortestSignedInt(t *testing.T) {
	s := NewState()
	// int 16, value -100 (well within int8 range: exercises that the
	// parser accepts a non-shortest encoding on input, unlike Unparse
	// which always re-emits the shortest form)
	data := []byte{0xd1, 0xff, 0x9c}
	if err := s.Parse(data); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.T[0] != Long || s.V[0].Long() != -100 {
		t.Fatalf("T[0]/V[0] = %v/%d, want Long/-100", s.T[0], s.V[0].Long())
	}
}

func TestParseTruncatedString(t *testing.T) {
	s := NewState()
	data := []byte{0xa3, 'a', 'b'} // fixstr claims 3 bytes, only 2 follow
	err := s.Parse(data)
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("Parse error = %v, want ErrTruncated", err)
	}
	if string(s.Res()) != ErrTruncated.Error() {
		t.Fatalf("Res() = %q, want %q", s.Res(), ErrTruncated.Error())
	}
}

func TestParseInvalidOpcode(t *testing.T) {
	s := NewState()
	if err := s.Parse([]byte{0xc1}); !errors.Is(err, ErrInvalidData) {
		t.Fatalf("Parse error = %v, want ErrInvalidData", err)
	}
}

func TestParseNestedContainers(t *testing.T) {
	s := NewState()
	// [1, [2, 3]]
	data := []byte{0x92, 0x01, 0x92, 0x02, 0x03}
	if err := s.Parse(data); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.T[0] != Array || s.V[0].Xlen != 2 {
		t.Fatalf("root: %v %+v", s.T[0], s.V[0])
	}
	// root's sibling-after-container offset must point past the whole tree
	if s.V[0].Xoff != uint32(len(s.T)) {
		t.Fatalf("root Xoff = %d, want %d", s.V[0].Xoff, len(s.T))
	}
	if s.T[1] != Long || s.V[1].Long() != 1 {
		t.Fatalf("T[1]/V[1] = %v/%d", s.T[1], s.V[1].Long())
	}
	if s.T[2] != Array || s.V[2].Xlen != 2 {
		t.Fatalf("T[2]/V[2] = %v/%+v", s.T[2], s.V[2])
	}
	if s.V[2].Xoff != uint32(len(s.T)-2) {
		t.Fatalf("nested Xoff = %d, want %d", s.V[2].Xoff, len(s.T)-2)
	}
}

// blobBytes recovers the bytes a blob slot (String/Bin/Ext) refers to
// from s.B1, the way Unparse's copySlot would.
func blobBytes(s *State, v Value) []byte {
	start := len(s.B1) - int(v.Xoff)
	return s.B1[start : start+int(v.Xlen)]
}
