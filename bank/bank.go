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

// Package bank manages the lifetime of the pinned byte buffers a
// schemart.State's B1/B2 fields point into: loading them (optionally
// zstd-compressed) from storage, verifying their authenticity, keying
// a cache of previously-loaded banks, and, where the platform supports
// it, backing large banks with an anonymous mmap instead of the Go
// heap so they don't pressure the garbage collector.
package bank

import (
	"crypto/subtle"
	"encoding/binary"
	"fmt"

	"github.com/dchest/siphash"
	"golang.org/x/crypto/blake2b"

	"github.com/tarantool/tarantool-avro/compr"
)

// Bank owns a pinned byte slice suitable for schemart.State.B1/B2. The
// zero Bank is not valid; use Load, LoadCompressed, or Wrap.
type Bank struct {
	data   []byte
	mmaped bool
}

// Bytes returns the pinned bytes. The slice must not be retained past
// the Bank's Release call.
func (b *Bank) Bytes() []byte { return b.data }

// Release returns the Bank's memory to the OS if it was backed by an
// mmap (Load/LoadCompressed for large payloads), or is a no-op
// otherwise. Release must not be called more than once.
func (b *Bank) Release() error {
	if !b.mmaped || b.data == nil {
		return nil
	}
	err := munmap(b.data)
	b.data = nil
	return err
}

// Wrap returns a Bank over data without copying it. Release on the
// result is a no-op; the caller retains ownership of data.
func Wrap(data []byte) *Bank {
	return &Bank{data: data}
}

// mmapThreshold is the payload size at which Load/LoadCompressed
// prefer an anonymous mmap over a plain Go allocation, so that only
// genuinely large banks pay mmap's per-call overhead.
const mmapThreshold = 1 << 20

// Load copies data into a new Bank, choosing an mmap-backed buffer for
// large payloads (see Mmap) and a plain allocation otherwise.
func Load(data []byte) (*Bank, error) {
	if len(data) < mmapThreshold {
		return &Bank{data: append([]byte(nil), data...)}, nil
	}
	buf, err := Mmap(len(data))
	if err != nil {
		return nil, err
	}
	copy(buf, data)
	return &Bank{data: buf, mmaped: true}, nil
}

// LoadCompressed zstd-decompresses src (a whole frame, as produced by
// the "zstd" Compressor from package compr) into a new Bank.
// decodedSize, if nonzero, is used to size the destination buffer up
// front and is verified against the actual decompressed length.
func LoadCompressed(src []byte, decodedSize int) (*Bank, error) {
	var dst []byte
	mmaped := decodedSize >= mmapThreshold
	if mmaped {
		buf, err := Mmap(decodedSize)
		if err != nil {
			return nil, err
		}
		dst = buf[:0]
	} else if decodedSize > 0 {
		dst = make([]byte, 0, decodedSize)
	}

	out, err := compr.DecodeZstd(src, dst)
	if err != nil {
		return nil, fmt.Errorf("bank: zstd decompress: %w", err)
	}
	if decodedSize > 0 && len(out) != decodedSize {
		return nil, fmt.Errorf("bank: expected %d decompressed bytes, got %d", decodedSize, len(out))
	}
	return &Bank{data: out, mmaped: mmaped}, nil
}

// siphashKey is a fixed, non-secret key: Put's cache keys only need to
// distribute well, not resist a hostile key-recovery attempt.
var siphashKey = [16]byte{0x73, 0x63, 0x68, 0x65, 0x6d, 0x61, 0x72, 0x74, 0x62, 0x61, 0x6e, 0x6b, 0x6b, 0x65, 0x79, 0x31}

// Put returns a content-addressing cache key for data: equal bytes
// always produce the same key, so a bank cache can dedupe repeated
// loads of the same schema's constant bank without re-reading it.
func Put(data []byte) uint64 {
	k0 := binary.BigEndian.Uint64(siphashKey[0:8])
	k1 := binary.BigEndian.Uint64(siphashKey[8:16])
	return siphash.Hash(k0, k1, data)
}

// Sign computes a keyed blake2b-256 MAC over data, for a caller that
// wants to pin a schema bank to a known-good producer.
func Sign(key, data []byte) ([]byte, error) {
	h, err := blake2b.New256(key)
	if err != nil {
		return nil, fmt.Errorf("bank: blake2b: %w", err)
	}
	h.Write(data)
	return h.Sum(nil), nil
}

// VerifySignature reports whether sig is the keyed blake2b-256 MAC of
// data under key, using a constant-time comparison so the check can't
// be used as a byte-at-a-time oracle.
func VerifySignature(key, data, sig []byte) bool {
	want, err := Sign(key, data)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(want, sig) == 1
}
