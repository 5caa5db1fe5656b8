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

package compr

import (
	"bytes"
	"testing"
)

func TestZstdCompressRoundTrip(t *testing.T) {
	comp := Compression("zstd")
	if comp == nil {
		t.Fatal(`Compression("zstd") returned nil`)
	}
	if n := comp.Name(); n != "zstd" {
		t.Fatalf("bad compressor name %q", n)
	}

	original := bytes.Repeat([]byte("field_name_payload "), 256)
	compressed := comp.Compress(original, nil)
	if len(compressed) >= len(original) {
		t.Fatalf("compressed to %d bytes, want smaller than %d", len(compressed), len(original))
	}

	decoded, err := DecodeZstd(compressed, nil)
	if err != nil {
		t.Fatalf("DecodeZstd: %v", err)
	}
	if !bytes.Equal(decoded, original) {
		t.Fatal("decompressed output does not match original")
	}
}

func TestCompressionAppendsToDst(t *testing.T) {
	comp := Compression("zstd")
	prefix := []byte("prefix:")
	compressed := comp.Compress([]byte("schema bank contents"), append([]byte(nil), prefix...))
	if !bytes.HasPrefix(compressed, prefix) {
		t.Fatal("Compress did not preserve the caller's dst prefix")
	}
}

func TestCompressionUnknownName(t *testing.T) {
	if c := Compression("lz4"); c != nil {
		t.Fatalf(`Compression("lz4") = %v, want nil`, c)
	}
}
