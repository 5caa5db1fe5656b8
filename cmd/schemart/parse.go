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

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/tarantool/tarantool-avro/schemart"
)

func readFileOrStdin(path string) []byte {
	if path == "-" {
		buf, err := io.ReadAll(os.Stdin)
		if err != nil {
			exitf("reading stdin: %s\n", err)
		}
		return buf
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		exitf("reading %s: %s\n", path, err)
	}
	return buf
}

// runParse implements 'schemart parse <file>': it prints the
// flattened IR Parse produces, one line per slot, in the shape
// "<index> <tag> <detail>".
func runParse(path string) {
	data := readFileOrStdin(path)
	s := schemart.NewState()
	if err := s.Parse(data); err != nil {
		exitf("parse error: %s (%s)\n", err, s.Res())
	}
	dumpIR(s.T, s.V, s.B1)
}

func dumpIR(tags []schemart.Tag, vals []schemart.Value, bank []byte) {
	for i, tag := range tags {
		v := vals[i]
		switch tag {
		case schemart.Long:
			fmt.Printf("%d %s %d\n", i, tag, v.Long())
		case schemart.Ulong:
			fmt.Printf("%d %s %d\n", i, tag, v.Ulong())
		case schemart.Float, schemart.Double:
			fmt.Printf("%d %s %v\n", i, tag, v.Float())
		case schemart.String, schemart.Bin, schemart.Ext:
			start := len(bank) - int(v.Xoff)
			end := start + int(v.Xlen)
			if start < 0 || end > len(bank) {
				fmt.Printf("%d %s <out-of-range: xlen=%d xoff=%d>\n", i, tag, v.Xlen, v.Xoff)
				continue
			}
			fmt.Printf("%d %s %q\n", i, tag, bank[start:end])
		case schemart.Array, schemart.Map:
			fmt.Printf("%d %s xlen=%d sibling=%d\n", i, tag, v.Xlen, i+int(v.Xoff))
		default:
			fmt.Printf("%d %s\n", i, tag)
		}
	}
}
