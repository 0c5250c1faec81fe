package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "TECHSTORE_"

type Config struct {
	App struct {
		Name     string `koanf:"name"`
		Env      string `koanf:"env"`
		LogLevel string `koanf:"log_level"`
		LogFile  string `koanf:"log_file"`
	} `koanf:"app"`

	HTTP struct {
		Addr              string        `koanf:"addr"`
		ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
		ReadTimeout       time.Duration `koanf:"read_timeout"`
		WriteTimeout      time.Duration `koanf:"write_timeout"`
		IdleTimeout       time.Duration `koanf:"idle_timeout"`
		ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
	} `koanf:"http"`

	Postgres struct {
		Host     string `koanf:"host"`
		Port     int    `koanf:"port"`
		User     string `koanf:"user"`
		Password string `koanf:"password"`
		DB       string `koanf:"db"`
		SSLMode  string `koanf:"sslmode"`
		MaxConns int32  `koanf:"max_conns"`
		Migrate  bool   `koanf:"migrate"`
	} `koanf:"postgres"`

	Redis struct {
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
		DB       int    `koanf:"db"`
	} `koanf:"redis"`

	Session struct {
		Backend string        `koanf:"backend"`
		TTL     time.Duration `koanf:"ttl"`
		Cookie  string        `koanf:"cookie"`
		Secret  string        `koanf:"secret"`
	} `koanf:"session"`

	Kafka struct {
		Brokers []string `koanf:"brokers"`
		Topic   string   `koanf:"topic"`
	} `koanf:"kafka"`

	Outbox struct {
		Enabled   bool          `koanf:"enabled"`
		Interval  time.Duration `koanf:"interval"`
		BatchSize int           `koanf:"batch_size"`
		Lease     time.Duration `koanf:"lease"`
	} `koanf:"outbox"`

	Checkout struct {
		MaxConcurrent  int           `koanf:"max_concurrent"`
		IdempotencyTTL time.Duration `koanf:"idempotency_ttl"`
	} `koanf:"checkout"`
}

// Load reads <dir>/base.yaml, then <dir>/<env>.yaml, then TECHSTORE_* variables
// (TECHSTORE_POSTGRES__HOST -> postgres.host). Both files are optional.
func Load(dir string) (Config, error) {
	k := koanf.New(".")

	if err := loadFile(k, filepath.Join(dir, "base.yaml")); err != nil {
		return Config{}, fmt.Errorf("load base: %w", err)
	}

	appEnv := os.Getenv(envPrefix + "APP__ENV")
	if appEnv == "" {
		appEnv = k.String("app.env")
	}
	if appEnv != "" {
		if err := loadFile(k, filepath.Join(dir, appEnv+".yaml")); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", appEnv, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return k.Load(file.Provider(path), yaml.Parser())
}

func (c *Config) applyDefaults() {
	setDefault(&c.App.Name, "techstore")
	setDefault(&c.App.Env, "dev")
	setDefault(&c.App.LogLevel, "info")

	setDefault(&c.HTTP.Addr, ":8080")
	setDefault(&c.HTTP.ReadHeaderTimeout, 5*time.Second)
	setDefault(&c.HTTP.ReadTimeout, 15*time.Second)
	setDefault(&c.HTTP.WriteTimeout, 15*time.Second)
	setDefault(&c.HTTP.IdleTimeout, 60*time.Second)
	setDefault(&c.HTTP.ShutdownTimeout, 10*time.Second)

	setDefault(&c.Postgres.Host, "localhost")
	setDefault(&c.Postgres.Port, 5432)
	setDefault(&c.Postgres.User, "techstore")
	setDefault(&c.Postgres.Password, "techstore")
	setDefault(&c.Postgres.DB, "techstore")
	setDefault(&c.Postgres.SSLMode, "disable")
	setDefault(&c.Postgres.MaxConns, 10)

	setDefault(&c.Redis.Addr, "localhost:6379")

	setDefault(&c.Session.Backend, "redis")
	setDefault(&c.Session.TTL, 30*time.Minute)
	setDefault(&c.Session.Cookie, "TECHSTORE_SESSION")

	setDefault(&c.Kafka.Topic, "techstore.orders")

	setDefault(&c.Outbox.Interval, 500*time.Millisecond)
	setDefault(&c.Outbox.BatchSize, 100)
	setDefault(&c.Outbox.Lease, 5*time.Second)

	setDefault(&c.Checkout.MaxConcurrent, 10)
	setDefault(&c.Checkout.IdempotencyTTL, 24*time.Hour)
}

func setDefault[T comparable](dst *T, def T) {
	var zero T
	if *dst == zero {
		*dst = def
	}
}

func (c Config) Validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr required")
	}
	if c.Session.Secret == "" {
		return errors.New("session.secret required")
	}
	switch c.Session.Backend {
	case "redis", "memory":
	default:
		return fmt.Errorf("session.backend must be redis or memory, got %q", c.Session.Backend)
	}
	if c.Outbox.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka.brokers required when outbox is enabled")
	}
	return nil
}
