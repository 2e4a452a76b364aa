// Package config loads balancelog settings from flags, BALANCELOG_* environment
// variables and an optional balancelog.yaml, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/allbin/balancelog/balance"
	"github.com/allbin/balancelog/lock"
	"github.com/allbin/balancelog/registry"
)

// Keys shared by flags, environment and the config file
const (
	KeyInterval        = "interval"
	KeyBaud            = "baud"
	KeyReadTimeout     = "read-timeout"
	KeySyncWrite       = "sync-write"
	KeyIdleGap         = "idle-gap"
	KeySettle          = "settle"
	KeyIdentifyTimeout = "identify-timeout"
	KeyDateOrder       = "date-order"
	KeyTimezone        = "timezone"
	KeyOutputDir       = "output-dir"
	KeyLockFile        = "lock-file"
	KeyLabelsFile      = "labels-file"
	KeyAdapters        = "adapters"
	KeyLogLevel        = "log-level"
	KeyLogFormat       = "log-format"
	KeyLogFile         = "log-file"
)

const (
	envPrefix = "BALANCELOG"
	fileName  = "balancelog"
	appDir    = "balancelog"
)

// Log holds the logging settings
type Log struct {
	Level  string
	Format string
	File   string
}

// Config is the resolved configuration
type Config struct {
	Interval        int
	Baud            int
	ReadTimeout     time.Duration
	SyncWrite       bool
	IdleGap         time.Duration
	Settle          time.Duration
	IdentifyTimeout time.Duration
	DateOrder       balance.DateOrder
	Location        *time.Location
	OutputDir       string
	LockFile        string
	LabelsFile      string
	Adapters        []string
	Log             Log
}

// New returns a viper instance with defaults and environment binding set up
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyInterval, 600)
	v.SetDefault(KeyBaud, 9600)
	v.SetDefault(KeyReadTimeout, 100*time.Millisecond)
	v.SetDefault(KeySyncWrite, false)
	v.SetDefault(KeyIdleGap, balance.DefaultIdleGap)
	v.SetDefault(KeySettle, balance.DefaultSettle)
	v.SetDefault(KeyIdentifyTimeout, registry.DefaultIdentifyTimeout)
	v.SetDefault(KeyDateOrder, balance.MonthDayYear.String())
	v.SetDefault(KeyTimezone, "Local")
	v.SetDefault(KeyOutputDir, ".")
	v.SetDefault(KeyLockFile, "")
	v.SetDefault(KeyLabelsFile, "")
	v.SetDefault(KeyAdapters, registry.DefaultAdapters)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyLogFile, "")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return v
}

// ReadFile loads path, or balancelog.yaml from the user config directory
// when path is empty. A missing default file is not an error.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, appDir))
		}
		v.AddConfigPath(".")
		v.SetConfigName(fileName)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// Load resolves and validates the configuration held by v
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Interval:        v.GetInt(KeyInterval),
		Baud:            v.GetInt(KeyBaud),
		ReadTimeout:     v.GetDuration(KeyReadTimeout),
		SyncWrite:       v.GetBool(KeySyncWrite),
		IdleGap:         v.GetDuration(KeyIdleGap),
		Settle:          v.GetDuration(KeySettle),
		IdentifyTimeout: v.GetDuration(KeyIdentifyTimeout),
		OutputDir:       v.GetString(KeyOutputDir),
		LockFile:        v.GetString(KeyLockFile),
		LabelsFile:      v.GetString(KeyLabelsFile),
		Log: Log{
			Level:  v.GetString(KeyLogLevel),
			Format: v.GetString(KeyLogFormat),
			File:   v.GetString(KeyLogFile),
		},
	}

	if err := balance.ValidateInterval(cfg.Interval); err != nil {
		return nil, err
	}

	order, err := balance.ParseDateOrder(v.GetString(KeyDateOrder))
	if err != nil {
		return nil, err
	}
	cfg.DateOrder = order

	tz := v.GetString(KeyTimezone)
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	cfg.Location = loc

	for _, a := range v.GetStringSlice(KeyAdapters) {
		id, err := registry.ParseAdapter(a)
		if err != nil {
			return nil, err
		}
		cfg.Adapters = append(cfg.Adapters, id)
	}
	if len(cfg.Adapters) == 0 {
		return nil, errors.New("at least one adapter id is required")
	}

	if cfg.LockFile == "" {
		path, err := lock.DefaultPath()
		if err != nil {
			return nil, err
		}
		cfg.LockFile = path
	}

	if cfg.ReadTimeout <= 0 || cfg.IdleGap <= 0 {
		return nil, errors.New("read-timeout and idle-gap must be positive")
	}
	if cfg.Settle < 0 || cfg.IdentifyTimeout < 0 {
		return nil, errors.New("settle and identify-timeout must not be negative")
	}

	switch cfg.Log.Format {
	case "text", "json":
	default:
		return nil, fmt.Errorf("invalid log format %q (use text or json)", cfg.Log.Format)
	}

	return cfg, nil
}
