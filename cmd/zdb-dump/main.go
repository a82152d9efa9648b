// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package main

import (
	"log"

	"github.com/spf13/pflag"

	"github.com/generalzzd/0-db/export"
	"github.com/generalzzd/0-db/store"
)

var (
	dataDir = pflag.String("dir", "./data", "Data folder to dump from or restore into")
	out     = pflag.String("out", "", "Destination file for a dump")
	in      = pflag.String("in", "", "Source file to restore from")
)

func main() {
	pflag.Parse()

	if (*out == "") == (*in == "") {
		log.Fatal("alert: exactly one of -out or -in is required")
	}

	st, err := store.Open(*dataDir)
	if err != nil {
		log.Fatalf("alert: %s\n", err)
	}
	defer st.Close()

	if *out != "" {
		n, err := export.Dump(st, *out)
		if err != nil {
			log.Fatalf("alert: %s\n", err)
		}
		log.Printf("info: dumped %d records to %q", n, *out)
		return
	}

	n, err := export.Restore(st, *in)
	if err != nil {
		log.Fatalf("alert: %s\n", err)
	}
	log.Printf("info: restored %d records from %q", n, *in)
}
