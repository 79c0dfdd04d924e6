// Package config loads sparkify settings from defaults, an optional YAML
// file and SPARKIFY_ environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/justestif/go-sparkify/internal/logging"
)

const (
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "SPARKIFY_"
	// ConfigPathEnvVar names the environment variable holding the config file path.
	ConfigPathEnvVar = "SPARKIFY_CONFIG"
	// DefaultConfigFile is read from the working directory when present.
	DefaultConfigFile = "sparkify.yaml"
)

// ErrMissingCredentials is returned when no database username is configured.
var ErrMissingCredentials = errors.New("missing database credentials: set SPARKIFY_DATABASE_USERNAME and SPARKIFY_DATABASE_PASSWORD")

// Config holds all sparkify settings.
type Config struct {
	Database  DatabaseConfig  `koanf:"database"`
	Data      DataConfig      `koanf:"data"`
	ETL       ETLConfig       `koanf:"etl"`
	Dashboard DashboardConfig `koanf:"dashboard"`
	Logging   logging.Config  `koanf:"logging"`
}

// DatabaseConfig holds the Postgres connection settings.
type DatabaseConfig struct {
	Host     string `koanf:"host" validate:"required"`
	Port     int    `koanf:"port" validate:"gt=0,lte=65535"`
	Name     string `koanf:"name" validate:"required"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	SSLMode  string `koanf:"sslmode" validate:"oneof=disable allow prefer require verify-ca verify-full"`
	MaxConns int32  `koanf:"max_conns" validate:"gte=0"`

	// AdminDatabase is connected to when the sparkify database itself is
	// dropped and recreated.
	AdminDatabase string `koanf:"admin_database" validate:"required"`
}

// DataConfig locates the input datasets.
type DataConfig struct {
	SongDir   string `koanf:"song_dir" validate:"required"`
	LogDir    string `koanf:"log_dir" validate:"required"`
	Extension string `koanf:"extension" validate:"required,startswith=."`
}

// ETLConfig tunes the loader.
type ETLConfig struct {
	SkipFailedFiles bool `koanf:"skip_failed_files"`
}

// DashboardConfig configures the web dashboard.
type DashboardConfig struct {
	Addr      string `koanf:"addr" validate:"required"`
	TableRows int    `koanf:"table_rows" validate:"gt=0"`
	TopN      int    `koanf:"top_n" validate:"gt=0"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:          "127.0.0.1",
			Port:          5432,
			Name:          "sparkifydb",
			SSLMode:       "disable",
			MaxConns:      4,
			AdminDatabase: "postgres",
		},
		Data: DataConfig{
			SongDir:   "data/song_data",
			LogDir:    "data/log_data",
			Extension: ".json",
		},
		Dashboard: DashboardConfig{
			Addr:      ":8050",
			TableRows: 5,
			TopN:      10,
		},
		Logging: logging.Config{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads .env from the working directory if present, then layers the
// defaults, the YAML file at path (or SPARKIFY_CONFIG, or sparkify.yaml) and
// the environment. An explicitly named file must exist.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	configPath, err := findConfigFile(path)
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile resolves the config file to read. The empty string means
// no file.
func findConfigFile(path string) (string, error) {
	if path == "" {
		path = os.Getenv(ConfigPathEnvVar)
	}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
		return path, nil
	}
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile, nil
	}
	return "", nil
}

// envKey maps SPARKIFY_DATABASE_MAX_CONNS to database.max_conns. Only the
// first underscore after the prefix separates section from key.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if s == "config" {
		return ""
	}
	section, key, ok := strings.Cut(s, "_")
	if !ok {
		return s
	}
	return section + "." + key
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every section.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// URL returns the connection URL of the sparkify database.
func (d DatabaseConfig) URL() (string, error) {
	return d.url(d.Name)
}

// AdminURL returns the connection URL of the maintenance database.
func (d DatabaseConfig) AdminURL() (string, error) {
	return d.url(d.AdminDatabase)
}

func (d DatabaseConfig) url(dbname string) (string, error) {
	if d.Username == "" {
		return "", ErrMissingCredentials
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.Username, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + dbname,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String(), nil
}
