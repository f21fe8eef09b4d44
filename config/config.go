// Package config loads the process configuration for coredb from the
// environment, following the .env + envconfig pattern used for
// environment wiring elsewhere in the retrieved pack.
package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every knob the four cores need at startup. The replacer
// K and the hash directory depths default to 2, as in the literal
// end-to-end scenarios for the buffer pool and the extendible hash
// table; the pool size (16 frames) and bucket size (4 entries) default
// larger than those scenarios use. A zero-value Load() is enough to run
// the demos in cmd/coredb.
type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	DataDir string `envconfig:"DATA_DIR" default:"./data"`

	BufferPoolSize int `envconfig:"BUFFER_POOL_SIZE" default:"16"`
	ReplacerK      int `envconfig:"REPLACER_K" default:"2"`

	HashHeaderMaxDepth    uint32 `envconfig:"HASH_HEADER_MAX_DEPTH" default:"2"`
	HashDirectoryMaxDepth uint32 `envconfig:"HASH_DIRECTORY_MAX_DEPTH" default:"2"`
	HashBucketMaxSize     uint32 `envconfig:"HASH_BUCKET_MAX_SIZE" default:"4"`

	GCIntervalMS int `envconfig:"GC_INTERVAL_MS" default:"500"`
	GCWorkers    int `envconfig:"GC_WORKERS" default:"4"`

	VersionCacheCapacity int64 `envconfig:"VERSION_CACHE_CAPACITY" default:"1000"`
}

// Load reads an optional .env file (ignored if absent) and then
// overlays environment variables prefixed CORE_ on top of the defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("core", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
