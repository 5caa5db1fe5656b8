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

// Command schemart inspects MsgPack messages and field-name perfect
// hashes through the schemart and phash packages.
package main

import (
	"flag"
	"fmt"
	"os"
)

var (
	dashv      bool
	dashh      bool
	configPath string
)

func init() {
	flag.BoolVar(&dashv, "v", false, "verbose")
	flag.BoolVar(&dashh, "h", false, "show usage help")
	flag.StringVar(&configPath, "c", "", "config file (YAML or JSON)")
}

func exitf(f string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, f, args...)
	os.Exit(1)
}

func logf(f string, args ...interface{}) {
	if !dashv {
		return
	}
	if f[len(f)-1] != '\n' {
		f += "\n"
	}
	fmt.Fprintf(os.Stderr, f, args...)
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage:\n")
	fmt.Fprintf(os.Stderr, "    %s parse <file>\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "        dump a MsgPack message's flattened IR\n")
	fmt.Fprintf(os.Stderr, "    %s roundtrip <file>\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "        parse then unparse a message, reporting whether it is stable\n")
	fmt.Fprintf(os.Stderr, "    %s hash <field-names-file>\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "        build a perfect hash over a newline-separated field-name set\n")
	fmt.Fprintf(os.Stderr, "flag usage:\n")
	flag.Usage()
}

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 || dashh {
		usage()
		os.Exit(1)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		exitf("loading config: %s\n", err)
	}

	switch args[0] {
	case "parse":
		if len(args) != 2 {
			exitf("usage: parse <file>\n")
		}
		runParse(args[1])
	case "roundtrip":
		if len(args) != 2 {
			exitf("usage: roundtrip <file>\n")
		}
		runRoundtrip(args[1])
	case "hash":
		if len(args) != 2 {
			exitf("usage: hash <field-names-file>\n")
		}
		runHash(args[1], cfg)
	default:
		usage()
		exitf("unknown command %q\n", args[0])
	}
}
