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

// headroom is the number of result bytes Unparse keeps available before
// encoding each non-blob slot: enough for any fixed-size opcode plus its
// payload (spec.md §4.3).
const headroom = 10

// Unparse serializes the first nitems slots of the output-side IR
// (s.OT/s.OV) to MsgPack, appending the bytes to s.res. On success,
// s.Res() returns exactly the encoded message. On failure, s.Res()
// holds a short ASCII diagnostic and s.res's prior contents are
// undefined past whatever was already flushed.
func (s *State) Unparse(nitems int) error {
	s.res = s.res[:0]
	bank := s.B1

	for i := 0; i < nitems; i++ {
		s.ensureRes(headroom)

		tag := s.OT[i]
		v := s.OV[i]
		bank = s.B1
		if tag == CString || tag == CBin || tag == CopyCommand {
			bank = s.B2
		}

		switch tag {
		case Nil:
			s.res = append(s.res, 0xc0)
		case False:
			s.res = append(s.res, 0xc2)
		case True:
			s.res = append(s.res, 0xc3)

		case Long:
			i64 := v.Long()
			if i64 < 0 {
				s.writeNegative(i64)
			} else {
				s.writeUint(uint64(i64))
			}
		case Ulong:
			s.writeUint(v.Ulong())

		case Float:
			s.writeFloat32(v.Float())
		case Double:
			s.writeFloat64(v.Float())

		case String:
			s.writeStrHeader(v.Xlen)
			if err := s.copySlot(&i, bank, v); err != nil {
				return err
			}
		case CString:
			s.writeStrHeader(v.Xlen)
			if err := s.copySlot(&i, bank, v); err != nil {
				return err
			}

		case Bin:
			s.writeBinHeader(v.Xlen)
			if err := s.copySlot(&i, bank, v); err != nil {
				return err
			}
		case CBin:
			s.writeBinHeader(v.Xlen)
			if err := s.copySlot(&i, bank, v); err != nil {
				return err
			}

		case Ext:
			s.writeExtHeader(v.Xlen)
			if err := s.copySlot(&i, bank, v); err != nil {
				return err
			}

		case Array:
			s.writeContainerHeader(0x90, 15, 0xdc, 0xdd, v.Xlen)
		case Map:
			s.writeContainerHeader(0x80, 15, 0xde, 0xdf, v.Xlen)

		case CopyCommand:
			if err := s.copySlot(&i, bank, v); err != nil {
				return err
			}

		default:
			return s.setError(ErrUnknownTag)
		}
	}

	return nil
}

// ensureRes grows s.res (preserving its contents) so at least extra more
// bytes can be appended without reallocating, using the same growth
// policy as the IR arrays (spec.md §4.5).
func (s *State) ensureRes(extra int) {
	s.growRes(len(s.res) + extra)
}

// copySlot copies the blob referenced by v from bank into s.res,
// honoring the large-offset escape (spec.md §4.3): when v.Xoff is the
// LargeOffset sentinel, the source is the pointer carried by the next
// IR slot instead of an offset into bank, and that slot is consumed
// along with this one.
func (s *State) copySlot(i *int, bank []byte, v Value) error {
	s.ensureRes(int(v.Xlen) + headroom)

	if v.Xoff == LargeOffset {
		next := s.OV[*i+1]
		s.res = append(s.res, next.P[:v.Xlen]...)
		*i++
		return nil
	}

	start := len(bank) - int(v.Xoff)
	if start < 0 || start+int(v.Xlen) > len(bank) {
		return s.setError(ErrInvalidData)
	}
	s.res = append(s.res, bank[start:start+int(v.Xlen)]...)
	return nil
}

func (s *State) writeNegative(i64 int64) {
	switch {
	case i64 >= -0x20:
		s.res = append(s.res, uint8(int8(i64)))
	case i64 >= -0x80:
		s.res = append(s.res, 0xd0, uint8(int8(i64)))
	case i64 >= -0x8000:
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], uint16(int16(i64)))
		s.res = append(s.res, 0xd1)
		s.res = append(s.res, b[:]...)
	case i64 >= -0x80000000:
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(int32(i64)))
		s.res = append(s.res, 0xd2)
		s.res = append(s.res, b[:]...)
	default:
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], uint64(i64))
		s.res = append(s.res, 0xd3)
		s.res = append(s.res, b[:]...)
	}
}

func (s *State) writeUint(u uint64) {
	switch {
	case u <= 0x7f:
		s.res = append(s.res, uint8(u))
	case u <= 0xff:
		s.res = append(s.res, 0xcc, uint8(u))
	case u <= 0xffff:
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], uint16(u))
		s.res = append(s.res, 0xcd)
		s.res = append(s.res, b[:]...)
	case u <= 0xffffffff:
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(u))
		s.res = append(s.res, 0xce)
		s.res = append(s.res, b[:]...)
	default:
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], u)
		s.res = append(s.res, 0xcf)
		s.res = append(s.res, b[:]...)
	}
}

func (s *State) writeFloat32(f float64) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], math.Float32bits(float32(f)))
	s.res = append(s.res, 0xca)
	s.res = append(s.res, b[:]...)
}

func (s *State) writeFloat64(f float64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(f))
	s.res = append(s.res, 0xcb)
	s.res = append(s.res, b[:]...)
}

func (s *State) writeStrHeader(xlen uint32) {
	switch {
	case xlen <= 31:
		s.res = append(s.res, 0xa0+uint8(xlen))
	case xlen <= 0xff:
		s.res = append(s.res, 0xd9, uint8(xlen))
	case xlen <= 0xffff:
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], uint16(xlen))
		s.res = append(s.res, 0xda)
		s.res = append(s.res, b[:]...)
	default:
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], xlen)
		s.res = append(s.res, 0xdb)
		s.res = append(s.res, b[:]...)
	}
}

func (s *State) writeBinHeader(xlen uint32) {
	switch {
	case xlen <= 0xff:
		s.res = append(s.res, 0xc4, uint8(xlen))
	case xlen <= 0xffff:
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], uint16(xlen))
		s.res = append(s.res, 0xc5)
		s.res = append(s.res, b[:]...)
	default:
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], xlen)
		s.res = append(s.res, 0xc6)
		s.res = append(s.res, b[:]...)
	}
}

// writeExtHeader emits the opcode for an Ext slot whose xlen includes
// the 1-byte type code (spec.md §4.3). Fixext sizes 2/3/5/9/17 get the
// compact fixext opcodes; the copied bytes (type + payload) follow as a
// single blob, same as any other copy-enabled tag.
//
// The original runtime emits 0xd5 (fixext 2's opcode) for fixext 8 and
// writes its str 16/32 framing bytes starting at out[1] instead of
// out[0]; neither is reproduced here (spec.md §9 design note).
func (s *State) writeExtHeader(xlen uint32) {
	switch xlen {
	case 2:
		s.res = append(s.res, 0xd4)
		return
	case 3:
		s.res = append(s.res, 0xd5)
		return
	case 5:
		s.res = append(s.res, 0xd6)
		return
	case 9:
		s.res = append(s.res, 0xd7)
		return
	case 17:
		s.res = append(s.res, 0xd8)
		return
	}
	n := xlen - 1
	switch {
	case n <= 0xff:
		s.res = append(s.res, 0xc7, uint8(n))
	case n <= 0xffff:
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], uint16(n))
		s.res = append(s.res, 0xc8)
		s.res = append(s.res, b[:]...)
	default:
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], n)
		s.res = append(s.res, 0xc9)
		s.res = append(s.res, b[:]...)
	}
}

func (s *State) writeContainerHeader(fixBase byte, fixMax uint32, op16, op32 byte, xlen uint32) {
	switch {
	case xlen <= fixMax:
		s.res = append(s.res, fixBase+uint8(xlen))
	case xlen <= 0xffff:
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], uint16(xlen))
		s.res = append(s.res, op16)
		s.res = append(s.res, b[:]...)
	default:
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], xlen)
		s.res = append(s.res, op32)
		s.res = append(s.res, b[:]...)
	}
}
