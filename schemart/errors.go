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

import "errors"

// The three failure kinds a Parse or Unparse call can report (spec §7).
// Each also has a fixed ASCII diagnostic, reachable via State.Res after a
// failing call, for callers that still expect the original C contract.
var (
	ErrTruncated   = errors.New("Truncated data")
	ErrInvalidData = errors.New("Invalid data")
	ErrUnknownTag  = errors.New("Internal error: unknown code")
)

// setError records msg as the short ASCII diagnostic in s.res, the way
// set_error does in the original runtime, and returns the corresponding
// sentinel error.
func (s *State) setError(err error) error {
	msg := err.Error()
	s.res = append(s.res[:0], msg...)
	return err
}
