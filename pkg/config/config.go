// Package config loads cookbook settings from a .cookbook file, the
// environment and defaults, in that order of precedence reversed.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
)

const (
	keyPath          = "path"
	keyHideImages    = "hide_images"
	keyLocale        = "locale"
	keyDebounce      = "debounce"
	keyImportTimeout = "import_timeout"
	keyLogLevel      = "log_level"
)

// Config is the resolved configuration.
type Config struct {
	Path          string        `json:"path"`
	HideImages    bool          `json:"hide_images"`
	Locale        language.Tag  `json:"-"`
	Debounce      time.Duration `json:"debounce"`
	ImportTimeout time.Duration `json:"import_timeout"`
	LogLevel      zerolog.Level `json:"-"`
}

// BasePath is where the disk store keeps its records.
func (c *Config) BasePath() string {
	return c.Path
}

// Load reads the configuration. It looks for .cookbook.{yaml,json,toml} in
// $COOKBOOK_CONFIG_PATH, the working directory and the home directory; every
// key can be overridden with a COOKBOOK_ environment variable.
func Load() (*Config, error) {
	v := viper.New()
	v.SetDefault(keyPath, "~/.cookbook.db")
	v.SetDefault(keyHideImages, false)
	v.SetDefault(keyLocale, "en-US")
	v.SetDefault(keyDebounce, "1s")
	v.SetDefault(keyImportTimeout, "10s")
	v.SetDefault(keyLogLevel, "info")
	v.SetConfigName(".cookbook") // .yaml is implicit
	v.SetEnvPrefix("COOKBOOK")
	v.AutomaticEnv()

	if override := os.Getenv("COOKBOOK_CONFIG_PATH"); override != "" {
		v.AddConfigPath(override)
	}
	v.AddConfigPath("./")
	if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(home)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	path, err := homedir.Expand(v.GetString(keyPath))
	if err != nil {
		return nil, fmt.Errorf("config: expand %s: %w", keyPath, err)
	}
	locale, err := language.Parse(v.GetString(keyLocale))
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", keyLocale, err)
	}
	level, err := zerolog.ParseLevel(strings.ToLower(v.GetString(keyLogLevel)))
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", keyLogLevel, err)
	}
	debounce := v.GetDuration(keyDebounce)
	if debounce <= 0 {
		return nil, fmt.Errorf("config: %s must be positive", keyDebounce)
	}
	timeout := v.GetDuration(keyImportTimeout)
	if timeout <= 0 {
		return nil, fmt.Errorf("config: %s must be positive", keyImportTimeout)
	}
	return &Config{
		Path:          path,
		HideImages:    v.GetBool(keyHideImages),
		Locale:        locale,
		Debounce:      debounce,
		ImportTimeout: timeout,
		LogLevel:      level,
	}, nil
}

// Logger returns a console logger at the configured level writing to w.
func (c *Config) Logger(w io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(c.LogLevel).
		With().
		Timestamp().
		Logger()
}
