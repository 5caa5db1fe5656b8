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
	"bytes"
	"fmt"
	"os"

	"github.com/tarantool/tarantool-avro/schemart"
)

// runRoundtrip implements 'schemart roundtrip <file>': it parses the
// message, unparses the resulting IR with no schema transformation,
// and reports whether the input was already in canonical (shortest)
// MsgPack form.
func runRoundtrip(path string) {
	data := readFileOrStdin(path)

	s := schemart.NewState()
	if err := s.Parse(data); err != nil {
		exitf("parse error: %s (%s)\n", err, s.Res())
	}
	logf("parsed %d IR slots from %d input bytes", len(s.T), len(data))

	s.OT, s.OV = s.T, s.V
	if err := s.Unparse(len(s.T)); err != nil {
		exitf("unparse error: %s (%s)\n", err, s.Res())
	}

	out := s.Res()
	if bytes.Equal(out, data) {
		fmt.Println("identical: input was already canonical")
		return
	}
	fmt.Printf("differs: %d input bytes, %d canonical bytes\n", len(data), len(out))
	os.Exit(2)
}
