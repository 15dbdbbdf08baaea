package main

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
)

// envPrefix marks environment overrides: LRUSIM_CACHE__CAPACITY sets
// cache.capacity.
const envPrefix = "LRUSIM_"

// Config is the simulator configuration.
type Config struct {
	Cache CacheConfig `koanf:"cache"`
	Sim   SimConfig   `koanf:"sim"`
	Log   LogConfig   `koanf:"log"`
}

// CacheConfig sizes the simulated cache.
type CacheConfig struct {
	Capacity int `koanf:"capacity" validate:"gte=0,lte=16777216"`
}

// SimConfig describes the replay.
type SimConfig struct {
	Trace    string `koanf:"trace"    validate:"required"`
	Workers  int    `koanf:"workers"  validate:"gte=1,lte=1024"`
	Snapshot string `koanf:"snapshot"`
	Name     string `koanf:"name"     validate:"required"`
}

// LogConfig selects the log level and an optional rotated log file.
type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
	File  string `koanf:"file"`
}

var validate = validator.New()

// defaultConfig holds the values used for keys that no layer sets.
func defaultConfig() Config {
	return Config{
		Cache: CacheConfig{Capacity: 1024},
		Sim:   SimConfig{Workers: 1, Name: "lrusim"},
		Log:   LogConfig{Level: "info"},
	}
}

// loadConfig merges, lowest precedence first, the defaults, the optional
// YAML file at path, and LRUSIM_ environment variables (after an optional
// .env file), then validates the result.
func loadConfig(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := defaultConfig()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// envKey maps LRUSIM_SIM__TRACE to sim.trace.
func envKey(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	return strings.ToLower(strings.ReplaceAll(s, "__", "."))
}
