// Package config loads service configuration from an optional YAML file,
// environment overrides and defaults, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverFile     = "file"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr        string   `yaml:"addr"`
		CORSOrigins []string `yaml:"cors_origins"`
		MaxUploadMB int64    `yaml:"max_upload_mb"`

		// UploadsPerMinute caps upload requests; a negative value disables the limit.
		UploadsPerMinute int `yaml:"uploads_per_minute"`
	} `yaml:"server"`
	Storage struct {
		Driver         string        `yaml:"driver"`
		SQLitePath     string        `yaml:"sqlite_path"`
		PostgresDSN    string        `yaml:"postgres_dsn"`
		DataDir        string        `yaml:"data_dir"`
		ConnectTimeout time.Duration `yaml:"connect_timeout"`
	} `yaml:"storage"`
	Redis struct {
		Host     string        `yaml:"host"`
		Port     string        `yaml:"port"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"redis"`
	Indicators struct {
		RSIPeriod  int `yaml:"rsi_period"`
		MACDFast   int `yaml:"macd_fast"`
		MACDSlow   int `yaml:"macd_slow"`
		MACDSignal int `yaml:"macd_signal"`
	} `yaml:"indicators"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Query struct {
		DefaultDailyLimit int `yaml:"default_daily_limit"`
		MaxLimit          int `yaml:"max_limit"`
	} `yaml:"query"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. An empty path or a missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	// Environment variable overrides
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = strings.ToLower(v)
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Storage.SQLitePath = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Storage.PostgresDSN = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PORT"); v != "" {
		c.Redis.Port = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"REDIS_DB", &c.Redis.DB},
		{"UPLOADS_PER_MINUTE", &c.Server.UploadsPerMinute},
		{"RSI_PERIOD", &c.Indicators.RSIPeriod},
		{"MACD_FAST", &c.Indicators.MACDFast},
		{"MACD_SLOW", &c.Indicators.MACDSlow},
		{"MACD_SIGNAL", &c.Indicators.MACDSignal},
	}
	for _, e := range ints {
		v := os.Getenv(e.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", e.key, v, err)
		}
		*e.dst = n
	}

	if v := os.Getenv("CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid CACHE_TTL %q: %w", v, err)
		}
		c.Redis.TTL = d
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	if c.Server.MaxUploadMB <= 0 {
		c.Server.MaxUploadMB = 32
	}
	if c.Server.UploadsPerMinute == 0 {
		c.Server.UploadsPerMinute = 30
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverSQLite
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "data/sp500_data.db"
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "data"
	}
	if c.Storage.ConnectTimeout <= 0 {
		c.Storage.ConnectTimeout = 60 * time.Second
	}
	if c.Redis.TTL <= 0 {
		c.Redis.TTL = 5 * time.Minute
	}
	if c.Indicators.RSIPeriod == 0 {
		c.Indicators.RSIPeriod = 14
	}
	if c.Indicators.MACDFast == 0 {
		c.Indicators.MACDFast = 12
	}
	if c.Indicators.MACDSlow == 0 {
		c.Indicators.MACDSlow = 26
	}
	if c.Indicators.MACDSignal == 0 {
		c.Indicators.MACDSignal = 9
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Query.DefaultDailyLimit <= 0 {
		c.Query.DefaultDailyLimit = 60
	}
	if c.Query.MaxLimit <= 0 {
		c.Query.MaxLimit = 5000
	}
}

// Validate checks field combinations that Load cannot repair.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite, DriverFile:
	case DriverPostgres:
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn (DATABASE_URL) is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	ind := c.Indicators
	if ind.RSIPeriod < 1 || ind.MACDFast < 1 || ind.MACDSlow < 1 || ind.MACDSignal < 1 {
		return fmt.Errorf("indicator periods must be positive")
	}
	if ind.MACDFast >= ind.MACDSlow {
		return fmt.Errorf("indicators.macd_fast (%d) must be smaller than macd_slow (%d)", ind.MACDFast, ind.MACDSlow)
	}
	if c.Query.DefaultDailyLimit > c.Query.MaxLimit {
		return fmt.Errorf("query.default_daily_limit must not exceed query.max_limit")
	}
	return nil
}

// RedisEnabled reports whether a Redis host is configured.
func (c *Config) RedisEnabled() bool {
	return c.Redis.Host != ""
}

// RedisAddr returns host:port, defaulting the port to 6379.
func (c *Config) RedisAddr() string {
	port := c.Redis.Port
	if port == "" {
		port = "6379"
	}
	return c.Redis.Host + ":" + port
}

// MaxUploadBytes converts the configured upload limit to bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.Server.MaxUploadMB << 20
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
