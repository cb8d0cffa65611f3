package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const FileName = "saferun.yaml"

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"

	GatewayLog    = "log"
	GatewayPlugin = "plugin"
	GatewayRedis  = "redis"
)

type Config struct {
	DataDir string `yaml:"-"`

	Store  StoreConfig  `yaml:"store"`
	Sweep  SweepConfig  `yaml:"sweep"`
	Timer  Cadence      `yaml:"timer"`
	Route  RouteConfig  `yaml:"route"`
	Notify NotifyConfig `yaml:"notify"`
	HTTP   HTTPConfig   `yaml:"http"`
	Log    LogConfig    `yaml:"log"`
	Redis  RedisConfig  `yaml:"redis"`
}

type StoreConfig struct {
	Backend    string `yaml:"backend"`
	SQLitePath string `yaml:"sqlite_path"`
}

// SweepConfig governs how quickly a silently overdue session is escalated:
// worst case latency is GracePeriod + Interval after the deadline.
type SweepConfig struct {
	Interval    time.Duration `yaml:"interval"`
	GracePeriod time.Duration `yaml:"grace_period"`
	Concurrency int           `yaml:"concurrency"`
}

type Cadence struct {
	FirstCheckIn time.Duration `yaml:"first_check_in"`
	CheckInStep  time.Duration `yaml:"check_in_step"`
}

type RouteConfig struct {
	Cadence      `yaml:",inline"`
	MinutesPerKM float64 `yaml:"minutes_per_km"`
}

type NotifyConfig struct {
	Gateway      string        `yaml:"gateway"`
	Timeout      time.Duration `yaml:"timeout"`
	PluginBinary string        `yaml:"plugin_binary"`
	RedisChannel string        `yaml:"redis_channel"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// Default returns the production defaults rooted at dataDir.
func Default(dataDir string) Config {
	return Config{
		DataDir: dataDir,
		Store: StoreConfig{
			Backend:    BackendSQLite,
			SQLitePath: filepath.Join(dataDir, ".saferun", "saferun.db"),
		},
		Sweep: SweepConfig{
			Interval:    5 * time.Minute,
			GracePeriod: 5 * time.Minute,
			Concurrency: 4,
		},
		Timer: Cadence{
			FirstCheckIn: 30 * time.Minute,
			CheckInStep:  15 * time.Minute,
		},
		Route: RouteConfig{
			Cadence: Cadence{
				FirstCheckIn: 60 * time.Minute,
				CheckInStep:  45 * time.Minute,
			},
			MinutesPerKM: 10,
		},
		Notify: NotifyConfig{
			Gateway:      GatewayLog,
			Timeout:      10 * time.Second,
			RedisChannel: "saferun:notifications",
		},
		HTTP: HTTPConfig{Addr: ":8080"},
		Log:  LogConfig{Level: "info", Format: "json"},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			KeyPrefix: "saferun",
		},
	}
}

// Load builds a Config from defaults, an optional YAML file and SAFERUN_*
// environment variables, in that order. An empty configPath means
// <dataDir>/saferun.yaml, which may be absent.
func Load(dataDir, configPath string) (Config, error) {
	if dataDir == "" {
		return Config{}, fmt.Errorf("data dir is required")
	}
	cfg := Default(dataDir)

	explicit := configPath != ""
	if !explicit {
		configPath = filepath.Join(dataDir, FileName)
	}
	payload, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(payload, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode config %s: %w", configPath, err)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return Config{}, fmt.Errorf("read config %s: %w", configPath, err)
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendRedis:
	case BackendSQLite:
		if strings.TrimSpace(c.Store.SQLitePath) == "" {
			return fmt.Errorf("store.sqlite_path is required for sqlite backend")
		}
	default:
		return fmt.Errorf("unknown store.backend %q", c.Store.Backend)
	}
	if c.Sweep.Interval <= 0 {
		return fmt.Errorf("sweep.interval must be positive, got %s", c.Sweep.Interval)
	}
	if c.Sweep.GracePeriod < 0 {
		return fmt.Errorf("sweep.grace_period must not be negative, got %s", c.Sweep.GracePeriod)
	}
	if c.Sweep.Concurrency < 1 {
		return fmt.Errorf("sweep.concurrency must be at least 1, got %d", c.Sweep.Concurrency)
	}
	if err := c.Timer.validate("timer"); err != nil {
		return err
	}
	if err := c.Route.validate("route"); err != nil {
		return err
	}
	if c.Route.MinutesPerKM <= 0 {
		return fmt.Errorf("route.minutes_per_km must be positive, got %v", c.Route.MinutesPerKM)
	}
	switch c.Notify.Gateway {
	case GatewayLog:
	case GatewayPlugin:
		if strings.TrimSpace(c.Notify.PluginBinary) == "" {
			return fmt.Errorf("notify.plugin_binary is required for plugin gateway")
		}
	case GatewayRedis:
		if strings.TrimSpace(c.Notify.RedisChannel) == "" {
			return fmt.Errorf("notify.redis_channel is required for redis gateway")
		}
	default:
		return fmt.Errorf("unknown notify.gateway %q", c.Notify.Gateway)
	}
	if c.Notify.Timeout <= 0 {
		return fmt.Errorf("notify.timeout must be positive, got %s", c.Notify.Timeout)
	}
	if c.usesRedis() && strings.TrimSpace(c.Redis.Addr) == "" {
		return fmt.Errorf("redis.addr is required")
	}
	return nil
}

func (c Config) usesRedis() bool {
	return c.Store.Backend == BackendRedis || c.Notify.Gateway == GatewayRedis
}

func (c Cadence) validate(section string) error {
	if c.FirstCheckIn <= 0 {
		return fmt.Errorf("%s.first_check_in must be positive, got %s", section, c.FirstCheckIn)
	}
	if c.CheckInStep <= 0 {
		return fmt.Errorf("%s.check_in_step must be positive, got %s", section, c.CheckInStep)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", key, err)
		}
		*dst = d
		return nil
	}

	str("SAFERUN_STORE_BACKEND", &cfg.Store.Backend)
	str("SAFERUN_SQLITE_PATH", &cfg.Store.SQLitePath)
	str("SAFERUN_NOTIFY_GATEWAY", &cfg.Notify.Gateway)
	str("SAFERUN_PLUGIN_BINARY", &cfg.Notify.PluginBinary)
	str("SAFERUN_HTTP_ADDR", &cfg.HTTP.Addr)
	str("SAFERUN_LOG_LEVEL", &cfg.Log.Level)
	str("SAFERUN_LOG_FORMAT", &cfg.Log.Format)
	str("SAFERUN_REDIS_ADDR", &cfg.Redis.Addr)
	str("SAFERUN_REDIS_PASSWORD", &cfg.Redis.Password)

	if err := dur("SAFERUN_SWEEP_INTERVAL", &cfg.Sweep.Interval); err != nil {
		return err
	}
	if err := dur("SAFERUN_SWEEP_GRACE_PERIOD", &cfg.Sweep.GracePeriod); err != nil {
		return err
	}
	if v, ok := lookup("SAFERUN_SWEEP_CONCURRENCY"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse SAFERUN_SWEEP_CONCURRENCY: %w", err)
		}
		cfg.Sweep.Concurrency = n
	}
	return nil
}
