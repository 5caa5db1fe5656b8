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
	"encoding/binary"
	"math"
)

// frame is a saved (todo, patch) pair for a not-yet-closed container.
// The original runtime threads this list through the Xoff field of each
// open container (a patch chain) and recycles the output-side IR arrays
// for the save stack, to avoid a second allocation in a systems-language
// hot loop. A managed-memory port is explicitly sanctioned (spec.md §9)
// to use a plain stack of container bookkeeping instead; that is what
// frame/stack below do. Both representations satisfy the container
// offset invariant of spec.md §8.
type frame struct {
	todo  uint32
	patch int
}

// Parse decodes the whole of data as a single MsgPack message into s.T
// and s.V, overwriting whatever they previously held. On success, s.T[0]
// is the root IR slot. On failure, s.T/s.V are left in an undefined
// state and s.Res holds a short ASCII diagnostic (spec.md §7); the
// caller must discard them before the next call.
func (s *State) Parse(data []byte) error {
	s.B1 = data
	s.T = s.T[:0]
	s.V = s.V[:0]

	todo := uint32(1)
	patch := -1
	var stack []frame

	mi, me := 0, len(data)

	for {
		for todo == 0 {
			if len(stack) == 0 {
				return nil
			}
			cur := len(s.T)
			s.V[patch].Xoff = uint32(cur - patch)
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			patch = top.patch
			todo = top.todo
		}
		todo--

		if mi >= me {
			return s.setError(ErrTruncated)
		}

		op := data[mi]
		switch {
		case op <= 0x7f:
			// positive fixint
			s.T, s.V = appendTV(s.T, s.V, Long, ValueLong(int64(op)))
			mi++

		case op >= 0xe0:
			// negative fixint
			s.T, s.V = appendTV(s.T, s.V, Long, ValueLong(int64(int8(op))))
			mi++

		case op >= 0x80 && op <= 0x8f:
			// fixmap
			n := uint32(op - 0x80)
			mi++
			todo, patch, stack = s.openContainer(Map, n, n*2, todo, patch, stack)

		case op >= 0x90 && op <= 0x9f:
			// fixarray
			n := uint32(op - 0x90)
			mi++
			todo, patch, stack = s.openContainer(Array, n, n, todo, patch, stack)

		case op >= 0xa0 && op <= 0xbf:
			// fixstr
			n := uint32(op - 0xa0)
			var ok bool
			mi, ok = s.emitBlob(String, data, mi+1, me, n)
			if !ok {
				return s.setError(ErrTruncated)
			}

		default:
			var err error
			mi, todo, patch, stack, err = s.parseExtended(op, data, mi, me, todo, patch, stack)
			if err != nil {
				return err
			}
		}
	}
}

// openContainer appends an Array/Map slot, saves the enclosing frame,
// and returns the new (todo, patch, stack) triple.
func (s *State) openContainer(tag Tag, xlen, children uint32, todo uint32, patch int, stack []frame) (uint32, int, []frame) {
	stack = append(stack, frame{todo: todo, patch: patch})
	patch = len(s.T)
	s.T, s.V = appendTV(s.T, s.V, tag, ValueContainer(xlen))
	return children, patch, stack
}

// emitBlob appends a String/Bin/Ext slot whose n payload bytes begin at
// data[start]. xoff is encoded end-relative (spec.md §3/§4.2): it is the
// distance from the payload's first byte to the end of the input
// buffer, so that end-xoff recovers the payload's start. This is the
// same quantity the original runtime computes as `me - mi - 1`, where
// its `mi` still points at the opcode byte (one before the payload) at
// the moment xoff is captured — i.e. end-xoff == start here exactly.
func (s *State) emitBlob(tag Tag, data []byte, start, end int, n uint32) (int, bool) {
	if start+int(n) > end {
		return 0, false
	}
	xoff := uint32(end - start)
	s.T, s.V = appendTV(s.T, s.V, tag, ValueBlob(n, xoff))
	return start + int(n), true
}

// parseExtended decodes every opcode not handled inline by Parse's
// switch (everything outside the fixint/fixmap/fixarray/fixstr ranges).
func (s *State) parseExtended(op byte, data []byte, mi, me int, todo uint32, patch int, stack []frame) (int, uint32, int, []frame, error) {
	need := func(n int) bool { return mi+n <= me }

	switch op {
	case 0xc0: // nil
		s.T, s.V = appendTV(s.T, s.V, Nil, Value{})
		return mi + 1, todo, patch, stack, nil
	case 0xc1: // invalid
		return mi, todo, patch, stack, s.setError(ErrInvalidData)
	case 0xc2: // false
		s.T, s.V = appendTV(s.T, s.V, False, Value{})
		return mi + 1, todo, patch, stack, nil
	case 0xc3: // true
		s.T, s.V = appendTV(s.T, s.V, True, Value{})
		return mi + 1, todo, patch, stack, nil

	case 0xc4: // bin 8
		if !need(2) {
			return mi, todo, patch, stack, s.setError(ErrTruncated)
		}
		n := uint32(data[mi+1])
		return s.blobOrFail(Bin, data, mi+2, me, n, todo, patch, stack)
	case 0xc5: // bin 16
		if !need(3) {
			return mi, todo, patch, stack, s.setError(ErrTruncated)
		}
		n := uint32(binary.BigEndian.Uint16(data[mi+1:]))
		return s.blobOrFail(Bin, data, mi+3, me, n, todo, patch, stack)
	case 0xc6: // bin 32
		if !need(5) {
			return mi, todo, patch, stack, s.setError(ErrTruncated)
		}
		n := binary.BigEndian.Uint32(data[mi+1:])
		return s.blobOrFail(Bin, data, mi+5, me, n, todo, patch, stack)

	case 0xc7: // ext 8
		if !need(2) {
			return mi, todo, patch, stack, s.setError(ErrTruncated)
		}
		n := uint32(data[mi+1]) + 1
		return s.blobOrFail(Ext, data, mi+2, me, n, todo, patch, stack)
	case 0xc8: // ext 16
		if !need(3) {
			return mi, todo, patch, stack, s.setError(ErrTruncated)
		}
		n := uint32(binary.BigEndian.Uint16(data[mi+1:])) + 1
		return s.blobOrFail(Ext, data, mi+3, me, n, todo, patch, stack)
	case 0xc9: // ext 32
		if !need(5) {
			return mi, todo, patch, stack, s.setError(ErrTruncated)
		}
		n := binary.BigEndian.Uint32(data[mi+1:]) + 1
		return s.blobOrFail(Ext, data, mi+5, me, n, todo, patch, stack)

	case 0xca: // float 32
		if !need(5) {
			return mi, todo, patch, stack, s.setError(ErrTruncated)
		}
		bits := binary.BigEndian.Uint32(data[mi+1:])
		s.T, s.V = appendTV(s.T, s.V, Float, ValueFloat(float64(math.Float32frombits(bits))))
		return mi + 5, todo, patch, stack, nil
	case 0xcb: // float 64
		if !need(9) {
			return mi, todo, patch, stack, s.setError(ErrTruncated)
		}
		bits := binary.BigEndian.Uint64(data[mi+1:])
		s.T, s.V = appendTV(s.T, s.V, Double, ValueFloat(math.Float64frombits(bits)))
		return mi + 9, todo, patch, stack, nil

	case 0xcc: // uint 8
		if !need(2) {
			return mi, todo, patch, stack, s.setError(ErrTruncated)
		}
		s.T, s.V = appendTV(s.T, s.V, Long, ValueLong(int64(data[mi+1])))
		return mi + 2, todo, patch, stack, nil
	case 0xcd: // uint 16
		if !need(3) {
			return mi, todo, patch, stack, s.setError(ErrTruncated)
		}
		s.T, s.V = appendTV(s.T, s.V, Long, ValueLong(int64(binary.BigEndian.Uint16(data[mi+1:]))))
		return mi + 3, todo, patch, stack, nil
	case 0xce: // uint 32
		if !need(5) {
			return mi, todo, patch, stack, s.setError(ErrTruncated)
		}
		s.T, s.V = appendTV(s.T, s.V, Long, ValueLong(int64(binary.BigEndian.Uint32(data[mi+1:]))))
		return mi + 5, todo, patch, stack, nil
	case 0xcf: // uint 64
		if !need(9) {
			return mi, todo, patch, stack, s.setError(ErrTruncated)
		}
		v := binary.BigEndian.Uint64(data[mi+1:])
		if v > math.MaxInt64 {
			s.T, s.V = appendTV(s.T, s.V, Ulong, ValueUlong(v))
		} else {
			s.T, s.V = appendTV(s.T, s.V, Long, ValueLong(int64(v)))
		}
		return mi + 9, todo, patch, stack, nil

	case 0xd0: // int 8
		if !need(2) {
			return mi, todo, patch, stack, s.setError(ErrTruncated)
		}
		s.T, s.V = appendTV(s.T, s.V, Long, ValueLong(int64(int8(data[mi+1]))))
		return mi + 2, todo, patch, stack, nil
	case 0xd1: // int 16
		if !need(3) {
			return mi, todo, patch, stack, s.setError(ErrTruncated)
		}
		s.T, s.V = appendTV(s.T, s.V, Long, ValueLong(int64(int16(binary.BigEndian.Uint16(data[mi+1:])))))
		return mi + 3, todo, patch, stack, nil
	case 0xd2: // int 32
		if !need(5) {
			return mi, todo, patch, stack, s.setError(ErrTruncated)
		}
		s.T, s.V = appendTV(s.T, s.V, Long, ValueLong(int64(int32(binary.BigEndian.Uint32(data[mi+1:])))))
		return mi + 5, todo, patch, stack, nil
	case 0xd3: // int 64
		if !need(9) {
			return mi, todo, patch, stack, s.setError(ErrTruncated)
		}
		s.T, s.V = appendTV(s.T, s.V, Long, ValueLong(int64(binary.BigEndian.Uint64(data[mi+1:]))))
		return mi + 9, todo, patch, stack, nil

	case 0xd4: // fixext 1
		return s.blobOrFail(Ext, data, mi+1, me, 2, todo, patch, stack)
	case 0xd5: // fixext 2
		return s.blobOrFail(Ext, data, mi+1, me, 3, todo, patch, stack)
	case 0xd6: // fixext 4
		return s.blobOrFail(Ext, data, mi+1, me, 5, todo, patch, stack)
	case 0xd7: // fixext 8
		return s.blobOrFail(Ext, data, mi+1, me, 9, todo, patch, stack)
	case 0xd8: // fixext 16
		return s.blobOrFail(Ext, data, mi+1, me, 17, todo, patch, stack)

	case 0xd9: // str 8
		if !need(2) {
			return mi, todo, patch, stack, s.setError(ErrTruncated)
		}
		n := uint32(data[mi+1])
		return s.blobOrFail(String, data, mi+2, me, n, todo, patch, stack)
	case 0xda: // str 16
		if !need(3) {
			return mi, todo, patch, stack, s.setError(ErrTruncated)
		}
		n := uint32(binary.BigEndian.Uint16(data[mi+1:]))
		return s.blobOrFail(String, data, mi+3, me, n, todo, patch, stack)
	case 0xdb: // str 32
		if !need(5) {
			return mi, todo, patch, stack, s.setError(ErrTruncated)
		}
		n := binary.BigEndian.Uint32(data[mi+1:])
		return s.blobOrFail(String, data, mi+5, me, n, todo, patch, stack)

	case 0xdc: // array 16
		if !need(3) {
			return mi, todo, patch, stack, s.setError(ErrTruncated)
		}
		n := uint32(binary.BigEndian.Uint16(data[mi+1:]))
		todo, patch, stack = s.openContainer(Array, n, n, todo, patch, stack)
		return mi + 3, todo, patch, stack, nil
	case 0xdd: // array 32
		if !need(5) {
			return mi, todo, patch, stack, s.setError(ErrTruncated)
		}
		n := binary.BigEndian.Uint32(data[mi+1:])
		todo, patch, stack = s.openContainer(Array, n, n, todo, patch, stack)
		return mi + 5, todo, patch, stack, nil
	case 0xde: // map 16
		if !need(3) {
			return mi, todo, patch, stack, s.setError(ErrTruncated)
		}
		n := uint32(binary.BigEndian.Uint16(data[mi+1:]))
		todo, patch, stack = s.openContainer(Map, n, n*2, todo, patch, stack)
		return mi + 3, todo, patch, stack, nil
	case 0xdf: // map 32
		if !need(5) {
			return mi, todo, patch, stack, s.setError(ErrTruncated)
		}
		n := binary.BigEndian.Uint32(data[mi+1:])
		todo, patch, stack = s.openContainer(Map, n, n*2, todo, patch, stack)
		return mi + 5, todo, patch, stack, nil
	}

	// unreachable: every byte value is covered by Parse's switch or one
	// of the cases above.
	return mi, todo, patch, stack, s.setError(ErrInvalidData)
}

// blobOrFail emits a blob slot or reports truncation, threading the
// (todo, patch, stack) triple through unchanged so parseExtended's
// callers can return directly.
func (s *State) blobOrFail(tag Tag, data []byte, start, end int, n uint32, todo uint32, patch int, stack []frame) (int, uint32, int, []frame, error) {
	next, ok := s.emitBlob(tag, data, start, end, n)
	if !ok {
		return start, todo, patch, stack, s.setError(ErrTruncated)
	}
	return next, todo, patch, stack, nil
}
