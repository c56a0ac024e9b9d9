package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/aretw0/tiptoe/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. TIPTOE_LISTEN.
const EnvPrefix = "TIPTOE_"

// Config is the full server configuration.
// Durations are written as Go duration strings ("700ms", "10s").
type Config struct {
	Listen        string        `mapstructure:"listen"`
	LogSink       string        `mapstructure:"log_sink"`
	LogLevel      string        `mapstructure:"log_level"`
	Capacity      int           `mapstructure:"capacity"`
	Decay         time.Duration `mapstructure:"decay"`
	PruneInterval time.Duration `mapstructure:"prune_interval"`
	IdleDelay     time.Duration `mapstructure:"idle_delay"`
	AdminAddr     string        `mapstructure:"admin_addr"`
	// Redact lists patterns masked out of recorded command events.
	// From the environment, patterns are comma separated.
	Redact        []string      `mapstructure:"redact"`
	Redis         RedisConfig   `mapstructure:"redis"`
}

// RedisConfig configures the optional Redis event recorder.
// The recorder is disabled while Addr is empty.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Key      string `mapstructure:"key"`
	MaxLen   int64  `mapstructure:"max_len"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Listen:        "127.0.0.1:17878",
		LogSink:       "127.0.0.1:17879",
		LogLevel:      "info",
		Capacity:      domain.DefaultCapacity,
		Decay:         domain.DefaultDecay,
		PruneInterval: domain.DefaultPruneInterval,
		IdleDelay:     domain.DefaultIdleDelay,
		Redis: RedisConfig{
			Key:    "tiptoe:events",
			MaxLen: 1024,
		},
	}
}

// Load reads a configuration file (YAML, JSON or TOML, chosen by extension)
// on top of the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	raw := map[string]any{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &raw); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	default:
		// Default to YAML
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}

	if err := decode(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}

// ApplyEnv overlays TIPTOE_* variables from environ (os.Environ format).
// Nested keys use an underscore: TIPTOE_REDIS_ADDR sets redis.addr.
func (c *Config) ApplyEnv(environ []string) error {
	raw := map[string]any{}
	redis := map[string]any{}

	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		name := strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		if sub, nested := strings.CutPrefix(name, "redis_"); nested {
			redis[sub] = value
			continue
		}
		if name == "max_line_size" {
			// Read directly by the session sanitizer.
			continue
		}
		raw[name] = value
	}
	if len(redis) > 0 {
		raw["redis"] = redis
	}
	if len(raw) == 0 {
		return nil
	}

	if err := decode(raw, c); err != nil {
		return fmt.Errorf("invalid environment override: %w", err)
	}
	return nil
}

// Validate reports every setting the server cannot run with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Listen) == "" {
		errs = append(errs, errors.New("listen address is required"))
	}
	if c.Capacity < 2 {
		errs = append(errs, fmt.Errorf("capacity must be at least 2, got %d", c.Capacity))
	}
	if c.Decay <= 0 {
		errs = append(errs, fmt.Errorf("decay must be positive, got %s", c.Decay))
	}
	if c.PruneInterval <= 0 {
		errs = append(errs, fmt.Errorf("prune_interval must be positive, got %s", c.PruneInterval))
	}
	if c.IdleDelay < 0 {
		errs = append(errs, fmt.Errorf("idle_delay must not be negative, got %s", c.IdleDelay))
	}
	for _, pattern := range c.Redact {
		if _, err := regexp.Compile(pattern); err != nil {
			errs = append(errs, fmt.Errorf("invalid redact pattern %q: %w", pattern, err))
		}
	}
	if c.Redis.Addr != "" && c.Redis.Key == "" {
		errs = append(errs, errors.New("redis.key is required when redis.addr is set"))
	}
	return errors.Join(errs...)
}

func decode(raw map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}
