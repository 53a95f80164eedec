// Package config loads cmd/workerd's process configuration: a typed
// Config struct with defaults, optionally overlaid by a .env file, then
// by real environment variables (ENV > .env > defaults).
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Venue holds the external matching venue's connection parameters.
type Venue struct {
	Address string
	JWT     string
}

// RPC holds the operator-facing HTTP+WebSocket surface's listen
// address.
type RPC struct {
	ListenAddress string
}

// Mirror holds the persistence mirror's snapshot directory and period.
type Mirror struct {
	SnapshotDir      string
	SnapshotInterval time.Duration
}

// Outbox holds the extrinsic outbox's re-drive backoff.
type Outbox struct {
	RedriveInterval time.Duration
}

// Log holds the shared logger's verbosity and optional file tee.
type Log struct {
	Level string
	File  string
}

type Config struct {
	Venue  Venue
	RPC    RPC
	Mirror Mirror
	Outbox Outbox
	Log    Log
}

// Default returns the devnet defaults: a local venue/RPC pair, a snapshot
// directory under the working directory, and a short re-drive backoff
// suited to interactive testing rather than a production deployment.
func Default() Config {
	return Config{
		Venue: Venue{
			Address: "127.0.0.1:8900",
		},
		RPC: RPC{
			ListenAddress: ":8080",
		},
		Mirror: Mirror{
			SnapshotDir:      "./data",
			SnapshotInterval: 30 * time.Second,
		},
		Outbox: Outbox{
			RedriveInterval: 2 * time.Second,
		},
		Log: Log{
			Level: "info",
			File:  "./data/workerd.log",
		},
	}
}

// LoadFromEnv loads configuration from a .env file (if envPath is "", the
// current directory's .env, should one exist) and then overrides with
// real environment variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	if v := os.Getenv("VENUE_ADDRESS"); v != "" {
		cfg.Venue.Address = v
	}
	if v := os.Getenv("VENUE_JWT"); v != "" {
		cfg.Venue.JWT = v
	}
	if v := os.Getenv("RPC_LISTEN_ADDRESS"); v != "" {
		cfg.RPC.ListenAddress = v
	}
	if v := os.Getenv("MIRROR_SNAPSHOT_DIR"); v != "" {
		cfg.Mirror.SnapshotDir = v
	}
	if ms := envMillis("MIRROR_SNAPSHOT_INTERVAL_MS"); ms > 0 {
		cfg.Mirror.SnapshotInterval = time.Duration(ms) * time.Millisecond
	}
	if ms := envMillis("OUTBOX_REDRIVE_INTERVAL_MS"); ms > 0 {
		cfg.Outbox.RedriveInterval = time.Duration(ms) * time.Millisecond
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Log.File = v
	}

	return cfg
}

func envMillis(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	ms, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return ms
}
