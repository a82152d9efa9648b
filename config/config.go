// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package config loads the settings that boot a zdb-core process: a
// JSON-with-comments file (parsed leniently via hujson so ops can
// annotate it) overlaid with command-line flags, the same two-layer
// shape netlog's cmd/netlog/main.go hard-codes as bare flags.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ninibe/bigduration"
	"github.com/spf13/pflag"
	"github.com/tailscale/hujson"
)

// Settings holds every knob a running instance needs. Zero-value
// Settings is not valid; use Default() and then Load/ParseFlags.
type Settings struct {
	DataDir      string        `json:"data_dir"`
	BucketBits   uint8         `json:"bucket_bits"`
	Sync         string        `json:"sync"`
	SyncPeriod   time.Duration `json:"-"`
	SyncTimeRaw  string        `json:"sync_time"`
	Listen       string        `json:"listen"`
	Debug        bool          `json:"debug"`
	LogLevel     string        `json:"loglevel"`
	SegmentBytes int64         `json:"segment_bytes"`
}

// Default returns the settings a fresh install boots with absent any
// file or flags.
func Default() Settings {
	return Settings{
		DataDir:      "./data",
		BucketBits:   24,
		Sync:         "none",
		SyncTimeRaw:  "200ms",
		Listen:       ":8700",
		LogLevel:     "info",
		SegmentBytes: 8 * 1024 * 1024,
	}
}

// Load reads a hujson (JSONC) settings file, standardizing it to
// plain JSON before unmarshalling so comments and trailing commas in
// an ops-maintained config don't need a bespoke parser.
func Load(path string) (Settings, error) {
	s := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("config: read %s: %w", path, err)
	}

	std, err := hujson.Standardize(raw)
	if err != nil {
		return s, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := json.Unmarshal(std, &s); err != nil {
		return s, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}

	return s, s.resolveDurations()
}

func (s *Settings) resolveDurations() error {
	if s.SyncTimeRaw == "" {
		return nil
	}
	d, err := bigduration.ParseBigDuration(s.SyncTimeRaw)
	if err != nil {
		return fmt.Errorf("config: sync_time %q: %w", s.SyncTimeRaw, err)
	}
	s.SyncPeriod = d.Duration()
	return nil
}

// FlagSet builds the pflag.FlagSet that overlays s with command-line
// values, mirroring netlog's flat flag.* declarations but layered on
// top of a file-loaded Settings instead of replacing it.
func (s *Settings) FlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("zdb-core", pflag.ContinueOnError)
	fs.String("config", "", "Path to a JSONC settings file, overlaid by the flags below")

	fs.StringVar(&s.DataDir, "dir", s.DataDir, "Data folder")
	fs.Uint8Var(&s.BucketBits, "bucket_bits", s.BucketBits, "Bucket index size exponent (2^n slots)")
	fs.StringVar(&s.Sync, "sync", s.Sync, "Durability policy: none, always, timed")
	fs.StringVar(&s.SyncTimeRaw, "synctime", s.SyncTimeRaw, "Period between forced syncs under sync=timed")
	fs.StringVar(&s.Listen, "listen", s.Listen, "Admin/debug HTTP listen address")
	fs.BoolVar(&s.Debug, "debug", s.Debug, "Start on debug mode")
	fs.StringVar(&s.LogLevel, "loglevel", s.LogLevel, "Logging level")
	fs.Int64Var(&s.SegmentBytes, "segment_bytes", s.SegmentBytes, "Data segment size in bytes (stored in Settings only; no rollover is triggered by it)")

	return fs
}

// ParseFlags overlays process arguments onto s, re-resolving any
// duration fields the flags may have touched.
func (s *Settings) ParseFlags(args []string) error {
	fs := s.FlagSet()
	if err := fs.Parse(args); err != nil {
		return err
	}
	return s.resolveDurations()
}
