// Package config loads service settings from defaults, an optional YAML file
// and MAPNOTES_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mohammed-shakir/mapnotes/internal/storage"
)

type Config struct {
	Addr     string        `mapstructure:"addr"`
	LogLevel string        `mapstructure:"log_level"`
	LogJSON  bool          `mapstructure:"log_json"`
	Storage  StorageConfig `mapstructure:"storage"`
	Markers  MarkersConfig `mapstructure:"markers"`
	Import   ImportConfig  `mapstructure:"import"`
	Events   EventsConfig  `mapstructure:"events"`
	Metrics  MetricsConfig `mapstructure:"metrics"`
	Report   ReportConfig  `mapstructure:"report"`
	Shutdown time.Duration `mapstructure:"shutdown_timeout"`
}

type StorageConfig struct {
	Backend     string        `mapstructure:"backend"`
	Key         string        `mapstructure:"key"`
	SQLitePath  string        `mapstructure:"sqlite_path"`
	RedisAddr   string        `mapstructure:"redis_addr"`
	RedisPrefix string        `mapstructure:"redis_prefix"`
	OpTimeout   time.Duration `mapstructure:"op_timeout"`
}

type MarkersConfig struct {
	DuplicateThresholdM float64 `mapstructure:"duplicate_threshold_m"`
	H3Index             bool    `mapstructure:"h3_index"`
}

type ImportConfig struct {
	MaxDisplayErrors int   `mapstructure:"max_display_errors"`
	MaxCSVBytes      int64 `mapstructure:"max_csv_bytes"`
	MaxImageBytes    int64 `mapstructure:"max_image_bytes"`
}

type EventsConfig struct {
	Driver  string `mapstructure:"driver"`
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
	Queue   int    `mapstructure:"queue"`
}

// BrokerList splits the comma separated broker string.
func (e EventsConfig) BrokerList() []string {
	var out []string
	for b := range strings.SplitSeq(e.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type ReportConfig struct {
	CacheSize int `mapstructure:"cache_size"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8090")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", true)
	v.SetDefault("shutdown_timeout", 10*time.Second)

	v.SetDefault("storage.backend", string(storage.BackendSQLite))
	v.SetDefault("storage.key", "maps")
	v.SetDefault("storage.sqlite_path", "data/mapnotes.db")
	v.SetDefault("storage.redis_addr", "localhost:6379")
	v.SetDefault("storage.redis_prefix", "mapnotes")
	v.SetDefault("storage.op_timeout", 2*time.Second)

	v.SetDefault("markers.duplicate_threshold_m", 5.0)
	v.SetDefault("markers.h3_index", true)

	v.SetDefault("import.max_display_errors", 20)
	v.SetDefault("import.max_csv_bytes", 10<<20)
	v.SetDefault("import.max_image_bytes", 5<<20)

	v.SetDefault("events.driver", "none")
	v.SetDefault("events.brokers", "localhost:9092")
	v.SetDefault("events.topic", "mapnotes.events")
	v.SetDefault("events.queue", 1024)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("report.cache_size", 32)
}

// Load reads configuration. An explicit file must exist; otherwise
// ./config.yaml is used when present. MAPNOTES_STORAGE_BACKEND overrides
// storage.backend and so on.
func Load(file string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %q: %w", file, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		_ = v.ReadInConfig() // OK if missing
	}

	v.SetEnvPrefix("MAPNOTES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that required fields are present and sane.
func (c Config) Validate() error {
	var errs []string

	if c.Addr == "" {
		errs = append(errs, "addr is required")
	}
	backend, err := storage.ParseBackend(c.Storage.Backend)
	if err != nil {
		errs = append(errs, err.Error())
	}
	if c.Storage.Key == "" {
		errs = append(errs, "storage.key is required")
	}
	switch backend {
	case storage.BackendSQLite:
		if c.Storage.SQLitePath == "" {
			errs = append(errs, "storage.sqlite_path is required for the sqlite backend")
		}
	case storage.BackendRedis:
		if c.Storage.RedisAddr == "" {
			errs = append(errs, "storage.redis_addr is required for the redis backend")
		}
	}
	if c.Storage.OpTimeout <= 0 {
		errs = append(errs, "storage.op_timeout must be positive")
	}
	if c.Markers.DuplicateThresholdM <= 0 {
		errs = append(errs, fmt.Sprintf("markers.duplicate_threshold_m must be positive, got %v", c.Markers.DuplicateThresholdM))
	}
	if c.Import.MaxDisplayErrors <= 0 {
		errs = append(errs, "import.max_display_errors must be positive")
	}
	if c.Import.MaxCSVBytes <= 0 || c.Import.MaxImageBytes <= 0 {
		errs = append(errs, "import size limits must be positive")
	}
	switch strings.ToLower(c.Events.Driver) {
	case "none", "":
	case "kafka":
		if len(c.Events.BrokerList()) == 0 {
			errs = append(errs, "events.brokers is required for the kafka driver")
		}
		if c.Events.Topic == "" {
			errs = append(errs, "events.topic is required for the kafka driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("events.driver must be none or kafka, got %q", c.Events.Driver))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// StorageConfig converts to the storage opener's settings.
func (c Config) StorageOpenConfig() storage.Config {
	b, _ := storage.ParseBackend(c.Storage.Backend)
	return storage.Config{
		Backend:     b,
		SQLitePath:  c.Storage.SQLitePath,
		RedisAddr:   c.Storage.RedisAddr,
		RedisPrefix: c.Storage.RedisPrefix,
	}
}
