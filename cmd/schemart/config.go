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
	"os"

	"sigs.k8s.io/yaml"
)

// config holds the settings schemart reads from -c, expressed in
// either YAML or JSON (sigs.k8s.io/yaml accepts both, converting YAML
// to JSON before unmarshaling).
type config struct {
	// RandomSeedFile names a file of random bytes the hash command
	// reads from instead of crypto/rand, so a perfect-hash build for a
	// given field set is reproducible across runs.
	RandomSeedFile string `json:"randomSeedFile,omitempty"`
}

// loadConfig reads path as a config, or returns the zero config if
// path is empty.
func loadConfig(path string) (config, error) {
	var cfg config
	if path == "" {
		return cfg, nil
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
