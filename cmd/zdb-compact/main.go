// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package main

import (
	"log"
	"os"

	"github.com/spf13/pflag"

	"github.com/generalzzd/0-db/compaction"
)

var (
	segment = pflag.String("segment", "", "Path to a closed data segment to compact in place")
	debug   = pflag.Bool("debug", false, "Verbose logging")
)

func main() {
	pflag.Parse()

	if *segment == "" {
		log.Fatal("alert: -segment is required")
	}

	if *debug {
		compaction.Logger.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	relocations, stats, err := compaction.Compact(*segment)
	if err != nil {
		log.Fatalf("alert: %s\n", err)
	}

	log.Printf("info: kept %d entries, dropped %d entries, %d relocations",
		stats.EntriesKept, stats.EntriesDropped, len(relocations))
	os.Exit(0)
}
