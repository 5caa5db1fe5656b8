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

// Package compr wraps the zstd codec that bank uses to compress and
// decompress constant banks before they are stored or shipped.
package compr

import (
	"runtime"

	"github.com/klauspost/compress/zstd"
)

// Compressor produces a named compressed encoding of a byte buffer.
type Compressor interface {
	// Name identifies the compression algorithm.
	Name() string
	// Compress appends the compressed contents of src to dst and
	// returns the result.
	Compress(src, dst []byte) []byte
}

type zstdCompressor struct {
	enc *zstd.Encoder
}

func (z zstdCompressor) Compress(src, dst []byte) []byte {
	return z.enc.EncodeAll(src, dst)
}

func (z zstdCompressor) Name() string { return "zstd" }

// zstdDecoder is shared by every DecodeZstd call. zstd caps decoder
// concurrency at min(4, GOMAXPROCS) by default; it's set explicitly
// here so a decode always gets the full GOMAXPROCS.
var zstdDecoder *zstd.Decoder

func init() {
	z, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(runtime.GOMAXPROCS(0)))
	if err != nil {
		panic(err)
	}
	zstdDecoder = z
}

// DecodeZstd decompresses src, a whole zstd frame, appending the
// result to dst and returning it.
//
// See: (*zstd.Decoder).DecodeAll
func DecodeZstd(src, dst []byte) ([]byte, error) {
	return zstdDecoder.DecodeAll(src, dst)
}

// Compression returns a zstd Compressor, or nil for any name other
// than "zstd": a bank's constant data is always produced and consumed
// as zstd, so no other codec has a caller here.
func Compression(name string) Compressor {
	if name != "zstd" {
		return nil
	}
	z, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil
	}
	return zstdCompressor{z}
}
