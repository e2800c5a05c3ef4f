// Package config loads the application configuration: an optional HCL file
// layered over built-in defaults, with environment variables supplying the
// storage credentials so keys stay out of config files.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/hclsimple"
)

// Config is the fully resolved application configuration.
type Config struct {
	Engine  Engine
	Watcher Watcher
	Storage Storage
	// Validation selects the contract-validation mode applied before
	// submission: "strict", "permissive" or "off".
	Validation string
}

// Engine locates the graph-execution engine.
type Engine struct {
	URL string
	// StartTimeout bounds the readiness wait at startup.
	StartTimeout time.Duration
}

// Watcher tunes the completion watcher.
type Watcher struct {
	PollInterval time.Duration
	Settle       time.Duration
	Timeout      time.Duration
}

// Storage points at the output bucket. An empty URL or Key means inline
// delivery.
type Storage struct {
	URL    string
	Key    string
	Bucket string
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Engine: Engine{
			URL:          "http://127.0.0.1:8188",
			StartTimeout: 3 * time.Minute,
		},
		Watcher: Watcher{
			PollInterval: 2 * time.Second,
			Settle:       250 * time.Millisecond,
			Timeout:      5 * time.Minute,
		},
		Storage: Storage{
			Bucket: "outputs",
		},
		Validation: "strict",
	}
}

// fileSchema is the HCL shape of a config file. Durations are strings
// ("30s", "5m") parsed after decoding.
type fileSchema struct {
	Engine *struct {
		URL          string  `hcl:"url"`
		StartTimeout *string `hcl:"start_timeout"`
	} `hcl:"engine,block"`
	Watcher *struct {
		PollInterval *string `hcl:"poll_interval"`
		Settle       *string `hcl:"settle"`
		Timeout      *string `hcl:"timeout"`
	} `hcl:"watcher,block"`
	Storage *struct {
		URL    *string `hcl:"url"`
		Bucket *string `hcl:"bucket"`
	} `hcl:"storage,block"`
	Validation *string `hcl:"validation"`
}

// Load resolves the configuration: defaults, then the HCL file at path if
// path is non-empty, then environment overrides for endpoint and secrets.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		var file fileSchema
		if err := hclsimple.DecodeFile(path, nil, &file); err != nil {
			return Config{}, fmt.Errorf("loading config %s: %w", path, err)
		}
		if err := cfg.applyFile(&file); err != nil {
			return Config{}, fmt.Errorf("loading config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	switch cfg.Validation {
	case "strict", "permissive", "off":
	default:
		return Config{}, fmt.Errorf("invalid validation mode %q: must be 'strict', 'permissive' or 'off'", cfg.Validation)
	}
	return cfg, nil
}

func (c *Config) applyFile(file *fileSchema) error {
	if file.Engine != nil {
		c.Engine.URL = file.Engine.URL
		if err := setDuration(&c.Engine.StartTimeout, file.Engine.StartTimeout, "engine.start_timeout"); err != nil {
			return err
		}
	}
	if file.Watcher != nil {
		for _, d := range []struct {
			dst  *time.Duration
			src  *string
			name string
		}{
			{&c.Watcher.PollInterval, file.Watcher.PollInterval, "watcher.poll_interval"},
			{&c.Watcher.Settle, file.Watcher.Settle, "watcher.settle"},
			{&c.Watcher.Timeout, file.Watcher.Timeout, "watcher.timeout"},
		} {
			if err := setDuration(d.dst, d.src, d.name); err != nil {
				return err
			}
		}
	}
	if file.Storage != nil {
		if file.Storage.URL != nil {
			c.Storage.URL = *file.Storage.URL
		}
		if file.Storage.Bucket != nil {
			c.Storage.Bucket = *file.Storage.Bucket
		}
	}
	if file.Validation != nil {
		c.Validation = *file.Validation
	}
	return nil
}

// applyEnv layers environment variables on top. The storage service key is
// env-only.
func (c *Config) applyEnv() {
	if v := os.Getenv("PROMPTWEAVE_ENGINE_URL"); v != "" {
		c.Engine.URL = v
	}
	if v := os.Getenv("SUPABASE_URL"); v != "" {
		c.Storage.URL = v
	}
	if v := os.Getenv("SUPABASE_SERVICE_KEY"); v != "" {
		c.Storage.Key = v
	}
	if v := os.Getenv("SUPABASE_BUCKET"); v != "" {
		c.Storage.Bucket = v
	}
}

func setDuration(dst *time.Duration, src *string, name string) error {
	if src == nil {
		return nil
	}
	d, err := time.ParseDuration(*src)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s: must be positive", name)
	}
	*dst = d
	return nil
}
