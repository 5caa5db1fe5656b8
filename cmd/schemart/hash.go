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
	"bufio"
	"crypto/rand"
	"fmt"
	"os"

	"github.com/tarantool/tarantool-avro/phash"
)

func readLines(path string) [][]byte {
	f, err := os.Open(path)
	if err != nil {
		exitf("opening %s: %s\n", path, err)
	}
	defer f.Close()

	var lines [][]byte
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		lines = append(lines, append([]byte(nil), line...))
	}
	if err := sc.Err(); err != nil {
		exitf("reading %s: %s\n", path, err)
	}
	return lines
}

func randomBytes(cfg config, n int) []byte {
	if cfg.RandomSeedFile != "" {
		buf, err := os.ReadFile(cfg.RandomSeedFile)
		if err != nil {
			exitf("reading %s: %s\n", cfg.RandomSeedFile, err)
		}
		if len(buf) < n {
			exitf("%s has only %d bytes, need at least %d\n", cfg.RandomSeedFile, len(buf), n)
		}
		return buf
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		exitf("reading random bytes: %s\n", err)
	}
	return buf
}

// runHash implements 'schemart hash <field-names-file>': it builds a
// perfect hash over the newline-separated field names in the file and
// prints the resulting descriptor and the family it selected.
func runHash(path string, cfg config) {
	names := readLines(path)
	if len(names) == 0 {
		exitf("%s contains no field names\n", path)
	}

	random := randomBytes(cfg, 4096)
	descriptor := phash.CreateHash(names, random)
	if descriptor == 0 {
		exitf("could not build a perfect hash for %d field names\n", len(names))
	}

	family := descriptor >> 24
	fmt.Printf("descriptor: 0x%08x\n", descriptor)
	fmt.Printf("family: 0x%02x (needs length: %v)\n", family, phash.NeedsLength(descriptor))
	for _, name := range names {
		length := 0
		if phash.NeedsLength(descriptor) {
			length = len(name)
		}
		fmt.Printf("  %-30s -> %d\n", name, phash.EvalHash(descriptor, name, length))
	}
}
