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

package phash

import (
	"encoding/binary"
)

// verifyScratch holds the open-addressed probe table reused across the
// repeated collisionsFound calls a single CreateHash invocation makes,
// so the search doesn't reallocate it on every candidate descriptor.
type verifyScratch struct {
	used   []bool
	values []uint32
}

func newScratch(n int) *verifyScratch {
	bucketCount := 1
	for bucketCount <= n {
		bucketCount *= 2
	}
	return &verifyScratch{
		used:   make([]bool, bucketCount),
		values: make([]uint32, bucketCount),
	}
}

func (sc *verifyScratch) reset() {
	for i := range sc.used {
		sc.used[i] = false
	}
}

// collisionsFound reports whether descriptor assigns the same hash
// value to two different strings in strings, by inserting every hash
// into an open-addressed table using the probe sequence described in
// spec.md §4.4.2: j and perturb both start at 0 and hash respectively,
// the recurrence j = 5*j+1+perturb / perturb >>= 5 (unsigned) is
// applied once before the first bucket is read, and every subsequent
// probe applies it again, taking the bucket index as j & (bucketCount-1).
func collisionsFound(descriptor uint32, strings [][]byte, sc *verifyScratch) bool {
	sc.reset()
	mask := uint32(len(sc.used) - 1)
	needLen := NeedsLength(descriptor)

	for _, str := range strings {
		length := 0
		if needLen {
			length = len(str)
		}
		hash := EvalHash(descriptor, str, length)

		j := uint32(0)
		perturb := hash
		j = 5*j + 1 + perturb
		perturb >>= 5
		for {
			idx := j & mask
			if !sc.used[idx] {
				sc.used[idx] = true
				sc.values[idx] = hash
				break
			}
			if sc.values[idx] == hash {
				return true
			}
			j = 5*j + 1 + perturb
			perturb >>= 5
		}
	}
	return false
}

// createFNV scans random for a 4-byte big-endian window whose value
// exceeds 0x0F000000 and that separates every string in strings
// without collision, returning the first such window found (spec.md
// §4.4 step 6). It returns 0 if random is exhausted first. A window in
// 0x0F000001..0x0FFFFFFF has family byte 0x0f, which EvalHash (and so
// the collision check here) evaluates as the packed wide family rather
// than FNV1a; only windows of 0x10000000 and above select FNV1a.
func createFNV(strings [][]byte, random []byte, sc *verifyScratch) uint32 {
	for off := 0; off+4 <= len(random); off++ {
		v := binary.BigEndian.Uint32(random[off : off+4])
		if v <= 0x0f000000 {
			continue
		}
		if !collisionsFound(v, strings, sc) {
			return v
		}
	}
	return 0
}
