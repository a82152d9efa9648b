// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"comail.io/go/colog"
	"github.com/spf13/pflag"

	"github.com/generalzzd/0-db/admin"
	"github.com/generalzzd/0-db/config"
	"github.com/generalzzd/0-db/store"
)

func main() {
	settings := config.Default()

	bootstrap := pflag.NewFlagSet("zdb-core-bootstrap", pflag.ContinueOnError)
	bootstrap.ParseErrorsWhitelist.UnknownFlags = true
	configPath := bootstrap.String("config", "", "Path to a JSONC settings file, overlaid by the flags below")
	fatalOn(bootstrap.Parse(os.Args[1:]))

	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		fatalOn(err)
		settings = loaded
	}

	fatalOn(settings.ParseFlags(os.Args[1:]))

	colog.Register()
	ll, err := colog.ParseLevel(settings.LogLevel)
	fatalOn(err)
	colog.SetMinLevel(ll)

	if settings.Debug {
		colog.SetFlags(log.LstdFlags | log.Lshortfile)
		colog.SetMinLevel(colog.LTrace)
	}

	st, err := openStore(settings)
	fatalOn(err)

	go handleSignals(st)

	srv := admin.NewServer(st)
	log.Printf("info: listening on %q", settings.Listen)
	log.Printf("info: data dir on %q", settings.DataDir)
	log.Fatalf("alert: %s\n", admin.Serve(settings.Listen, srv))
}

func openStore(settings config.Settings) (*store.Store, error) {
	opts := []store.Option{store.WithBucketBits(settings.BucketBits)}

	switch settings.Sync {
	case "always":
		opts = append(opts, store.WithSyncAlways())
	case "timed":
		opts = append(opts, store.WithSyncTimed(settings.SyncPeriod))
	}

	return store.Open(settings.DataDir, opts...)
}

func handleSignals(st *store.Store) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Print("info: shutting down, syncing active segment")
	st.Sync()
	os.Exit(0)
}

func fatalOn(err error) {
	if err != nil {
		log.Fatalf("alert: %s\n", err)
	}
}
