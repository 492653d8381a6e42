package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"coursesync/model"
	"coursesync/plugins/analytics"
)

const (
	EnvPrefix             = "COURSESYNC"
	DefaultTimeoutSeconds = 60

	keyEndpoint = "api_endpoint"
	keyLogLevel = "log_level"
	keySQLEcho  = "sql_echo"
)

// Config is everything a sync run needs. Connection and Timeout come from the
// command line; the rest only from COURSESYNC_* environment variables.
type Config struct {
	Connection string
	Timeout    time.Duration
	Endpoint   string
	LogLevel   string
	SQLEcho    bool
}

// NewViper returns a viper instance bound to the COURSESYNC_* environment
// with defaults applied.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetDefault(keyEndpoint, analytics.DefaultEndpoint)
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keySQLEcho, true)
	return v
}

// LoadDotEnv loads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: failed to load %s: %w", model.ErrInvalidConfig, path, err)
	}
	return nil
}

// Load assembles and validates a Config.
func Load(v *viper.Viper, connection string, timeoutSeconds int) (*Config, error) {
	cfg := &Config{
		Connection: strings.TrimSpace(connection),
		Timeout:    time.Duration(timeoutSeconds) * time.Second,
		Endpoint:   strings.TrimSpace(v.GetString(keyEndpoint)),
		LogLevel:   v.GetString(keyLogLevel),
		SQLEcho:    v.GetBool(keySQLEcho),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Connection == "" {
		return fmt.Errorf("%w: connection string is required", model.ErrInvalidConfig)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be a positive number of seconds, got %s", model.ErrInvalidConfig, c.Timeout)
	}
	if c.Endpoint == "" {
		return fmt.Errorf("%w: %s_%s must not be empty", model.ErrInvalidConfig, EnvPrefix, strings.ToUpper(keyEndpoint))
	}
	return nil
}
