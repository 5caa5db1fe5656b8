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

// Package schemart implements a schema-directed MsgPack transcoder: a
// parser that flattens a MsgPack message into a depth-first intermediate
// representation (IR) of parallel tag/value slots, and an unparser that
// serializes an (possibly schema-transformed) IR back into MsgPack bytes.
package schemart

import "math"

// Tag identifies how the Value in the companion slot is to be
// interpreted. Tag and Value live in parallel slices (see State).
type Tag uint8

const (
	_ Tag = iota

	Nil   // value unused
	False // value unused
	True  // value unused

	Long  // Value.Long()
	Ulong // Value.Ulong(); parse-only, used when a value doesn't fit in int64

	Float  // Value.Float(); originally a 32-bit MsgPack float
	Double // Value.Float(); originally a 64-bit MsgPack float

	String // Value.Xlen/Xoff index into the current bank
	Bin    // Value.Xlen/Xoff index into the current bank
	Ext    // Value.Xlen/Xoff index into the current bank; Xlen includes the type byte

	Array // Value.Xlen is element count, Value.Xoff is the forward sibling offset
	Map   // Value.Xlen is key/value pair count, Value.Xoff is the forward sibling offset

	// Unparse-only tags: their blob lives in the constant bank (b2)
	// rather than the input bank (b1).
	CString
	CBin

	// CopyCommand emits Xlen bytes verbatim from the constant bank with
	// no MsgPack framing of its own, splicing a precomputed default.
	CopyCommand
)

// String returns a short diagnostic name for t.
func (t Tag) String() string {
	switch t {
	case Nil:
		return "Nil"
	case False:
		return "False"
	case True:
		return "True"
	case Long:
		return "Long"
	case Ulong:
		return "Ulong"
	case Float:
		return "Float"
	case Double:
		return "Double"
	case String:
		return "String"
	case Bin:
		return "Bin"
	case Ext:
		return "Ext"
	case Array:
		return "Array"
	case Map:
		return "Map"
	case CString:
		return "CString"
	case CBin:
		return "CBin"
	case CopyCommand:
		return "CopyCommand"
	default:
		return "Invalid"
	}
}

// Value is the value slot paired with a Tag. It is a struct rather than a
// union (Go has no unions); U carries whichever 64-bit scalar the Tag
// implies, and Xlen/Xoff carry the length/offset pair used by the
// container and blob tags. P is populated only on the indirect-blob tail
// slot used by the unparser's large-offset escape (see Value.Ptr).
type Value struct {
	U    uint64
	Xlen uint32
	Xoff uint32
	P    []byte
}

// ValueLong returns a Value slot for a Long tag.
func ValueLong(i int64) Value { return Value{U: uint64(i)} }

// ValueUlong returns a Value slot for a Ulong tag.
func ValueUlong(u uint64) Value { return Value{U: u} }

// ValueFloat returns a Value slot for a Float or Double tag.
func ValueFloat(f float64) Value { return Value{U: math.Float64bits(f)} }

// ValueBlob returns a Value slot for String/Bin/Ext/CString/CBin tags.
func ValueBlob(xlen, xoff uint32) Value { return Value{Xlen: xlen, Xoff: xoff} }

// ValueContainer returns a Value slot for an Array/Map tag. xoff should be
// patched in once the container's last descendant has been emitted.
func ValueContainer(xlen uint32) Value { return Value{Xlen: xlen} }

// ValuePtr returns a Value slot carrying an explicit byte-slice pointer,
// used for the unparser's 0xFFFFFFFF large-offset indirect-blob escape.
func ValuePtr(xlen uint32, p []byte) Value { return Value{Xlen: xlen, Xoff: LargeOffset, P: p} }

// Long interprets U as a signed 64-bit integer (Long tag).
func (v Value) Long() int64 { return int64(v.U) }

// Ulong interprets U as an unsigned 64-bit integer (Ulong tag).
func (v Value) Ulong() uint64 { return v.U }

// Float interprets U as an IEEE-754 double (Float/Double tags).
func (v Value) Float() float64 { return math.Float64frombits(v.U) }

// LargeOffset is the Xoff sentinel (spec §4.3) that redirects the
// unparser to read the blob pointer from the following IR slot instead of
// computing an offset into a bank.
const LargeOffset = 0xFFFFFFFF
