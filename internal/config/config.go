// Package config loads crumbtrail settings from a YAML file and CRUMBTRAIL_*
// environment variables. Environment values win over the file, and the file
// wins over Default.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

// Config is the full runtime configuration.
type Config struct {
	Addr      string `mapstructure:"addr" env:"CRUMBTRAIL_ADDR"`
	LogLevel  string `mapstructure:"log_level" env:"CRUMBTRAIL_LOG_LEVEL"`
	LogFormat string `mapstructure:"log_format" env:"CRUMBTRAIL_LOG_FORMAT"`

	// HierarchyFile is a YAML route table; empty means path depth.
	HierarchyFile string `mapstructure:"hierarchy_file" env:"CRUMBTRAIL_HIERARCHY_FILE"`
	// ResourcesFile is a YAML label catalog; empty means labels are used as-is.
	ResourcesFile string `mapstructure:"resources_file" env:"CRUMBTRAIL_RESOURCES_FILE"`

	CookieName string `mapstructure:"cookie_name" env:"CRUMBTRAIL_COOKIE_NAME"`

	Store StoreConfig `mapstructure:"store"`
}

// StoreConfig selects and tunes the trail store.
type StoreConfig struct {
	Driver          string        `mapstructure:"driver" env:"CRUMBTRAIL_STORE_DRIVER"`
	RedisAddr       string        `mapstructure:"redis_addr" env:"CRUMBTRAIL_STORE_REDIS_ADDR"`
	Prefix          string        `mapstructure:"prefix" env:"CRUMBTRAIL_STORE_PREFIX"`
	TTL             time.Duration `mapstructure:"ttl" env:"CRUMBTRAIL_STORE_TTL"`
	SQLitePath      string        `mapstructure:"sqlite_path" env:"CRUMBTRAIL_STORE_SQLITE_PATH"`
	DistributedLock bool          `mapstructure:"distributed_lock" env:"CRUMBTRAIL_STORE_DISTRIBUTED_LOCK"`

	// MaskQuery lists regexps of query parameter names whose values are
	// masked before a trail is stored.
	MaskQuery []string `mapstructure:"mask_query" env:"CRUMBTRAIL_STORE_MASK_QUERY"`
	// EncryptionKey is a base64 AES-256 key; when set, crumb URLs and labels
	// are encrypted at rest.
	EncryptionKey string `mapstructure:"encryption_key" env:"CRUMBTRAIL_STORE_ENCRYPTION_KEY"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Addr:       ":8080",
		LogLevel:   "info",
		LogFormat:  "text",
		CookieName: "crumbtrail_sid",
		Store: StoreConfig{
			Driver:     DriverMemory,
			RedisAddr:  "localhost:6379",
			Prefix:     "crumbtrail:session:",
			TTL:        30 * time.Minute,
			SQLitePath: "crumbtrail.db",
		},
	}
}

// Load reads path (optional) and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to open config: %w", err)
		}
		defer f.Close()
		if err := decodeYAML(f, &cfg); err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Parse reads YAML from r over Default, then applies environment overrides.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	if err := decodeYAML(r, &cfg); err != nil {
		return cfg, err
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func decodeYAML(r io.Reader, cfg *Config) error {
	var raw map[string]any
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse yaml: %w", err)
	}
	if len(raw) == 0 {
		return nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	return nil
}

// Validate checks values that cannot be caught by decoding.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory, DriverRedis, DriverSQLite:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	if c.Store.TTL < 0 {
		return fmt.Errorf("store ttl must not be negative, got %s", c.Store.TTL)
	}
	if c.Store.DistributedLock && c.Store.Driver != DriverRedis {
		return errors.New("distributed_lock requires the redis store")
	}
	return nil
}
