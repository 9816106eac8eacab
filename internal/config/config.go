// Package config loads datewheel settings from defaults, an optional config
// file, DATEWHEEL_* environment variables and bound command-line flags.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"datewheel/internal/format"
	"datewheel/internal/wheel"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "DATEWHEEL"
	DirName   = ".datewheel"
	FileName  = "config"
)

// Keys.
const (
	KeyLocale          = "locale"
	KeyYearsMin        = "years.min"
	KeyYearsMax        = "years.max"
	KeyRepetitions     = "wheel.repetitions"
	KeyEntryHeight     = "wheel.entry_height"
	KeyViewportEntries = "wheel.viewport_entries"
	KeyDebounce        = "wheel.debounce"
	KeyRebaseEntries   = "wheel.rebase_entries"
	KeyRebaseTarget    = "wheel.rebase_target"
	KeyWebAddr         = "web.addr"
	KeyBotToken        = "web.bot_token"
	KeyCloseDelay      = "web.close_delay"
	KeySessionTTL      = "web.session_ttl"
	KeySessionRate     = "web.sessions_per_minute"
	KeyWebTUIAddr      = "webtui.addr"
	KeyFormat          = "format"
	KeyPretty          = "pretty"
	KeyDebug           = "debug"
)

// DefaultYearSpan is how many years after years.min the year wheel covers
// when years.max is unset.
const DefaultYearSpan = 10

var ErrInvalidConfig = errors.New("invalid config")

type Wheel struct {
	Repetitions     int           `mapstructure:"repetitions" json:"repetitions"`
	EntryHeight     int           `mapstructure:"entry_height" json:"entry_height"`
	ViewportEntries int           `mapstructure:"viewport_entries" json:"viewport_entries"`
	Debounce        time.Duration `mapstructure:"debounce" json:"debounce"`
	RebaseEntries   int           `mapstructure:"rebase_entries" json:"rebase_entries"`
	RebaseTarget    float64       `mapstructure:"rebase_target" json:"rebase_target"`
}

type Web struct {
	Addr              string        `mapstructure:"addr" json:"addr"`
	BotToken          string        `mapstructure:"bot_token" json:"-"`
	CloseDelay        time.Duration `mapstructure:"close_delay" json:"close_delay"`
	SessionTTL        time.Duration `mapstructure:"session_ttl" json:"session_ttl"`
	SessionsPerMinute int           `mapstructure:"sessions_per_minute" json:"sessions_per_minute"`
}

type WebTUI struct {
	Addr string `mapstructure:"addr" json:"addr"`
}

type Years struct {
	Min int `mapstructure:"min" json:"min"`
	Max int `mapstructure:"max" json:"max"`
}

type Config struct {
	Locale string `mapstructure:"locale" json:"locale"`
	Years  Years  `mapstructure:"years" json:"years"`
	Wheel  Wheel  `mapstructure:"wheel" json:"wheel"`
	Web    Web    `mapstructure:"web" json:"web"`
	WebTUI WebTUI `mapstructure:"webtui" json:"webtui"`
	Format string `mapstructure:"format" json:"format"`
	Pretty bool   `mapstructure:"pretty" json:"pretty"`
	Debug  bool   `mapstructure:"debug" json:"debug"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-" json:"file,omitempty"`
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func SetDefaults(v *viper.Viper) {
	geo := wheel.DefaultGeometry()
	v.SetDefault(KeyLocale, "en")
	v.SetDefault(KeyYearsMin, 0)
	v.SetDefault(KeyYearsMax, 0)
	v.SetDefault(KeyRepetitions, wheel.DefaultRepetitions)
	v.SetDefault(KeyEntryHeight, geo.EntryHeight)
	v.SetDefault(KeyViewportEntries, geo.ViewportHeight/geo.EntryHeight)
	v.SetDefault(KeyDebounce, wheel.DefaultDebounce)
	v.SetDefault(KeyRebaseEntries, geo.RebaseEntries)
	v.SetDefault(KeyRebaseTarget, geo.RebaseTarget)
	v.SetDefault(KeyWebAddr, "127.0.0.1:8080")
	v.SetDefault(KeyBotToken, "")
	v.SetDefault(KeyCloseDelay, 1500*time.Millisecond)
	v.SetDefault(KeySessionTTL, 30*time.Minute)
	v.SetDefault(KeySessionRate, 30)
	v.SetDefault(KeyWebTUIAddr, "127.0.0.1:8081")
	v.SetDefault(KeyFormat, "json")
	v.SetDefault(KeyPretty, false)
	v.SetDefault(KeyDebug, false)
}

// DefaultDir is ~/.datewheel, or "" when the home directory is unknown.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		return ""
	}
	return filepath.Join(home, DirName)
}

// Load reads the config file (explicit path, or config.{json,yaml,toml} in
// the default directory when present) and decodes the merged settings.
// A missing default file is not an error; a missing explicit file is.
func Load(v *viper.Viper, path string) (Config, error) {
	if strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "read config %s", path)
		}
	} else if dir := DefaultDir(); dir != "" {
		v.SetConfigName(FileName)
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, errors.Wrap(err, "read config")
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "decode config")
	}
	cfg.File = v.ConfigFileUsed()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case c.Years.Min < 0 || c.Years.Max < 0:
		return errors.Wrap(ErrInvalidConfig, "years must not be negative")
	case c.Years.Min > 0 && c.Years.Max > 0 && c.Years.Max < c.Years.Min:
		return errors.Wrapf(ErrInvalidConfig, "years.max %d before years.min %d", c.Years.Max, c.Years.Min)
	case c.Wheel.Repetitions != 0 && c.Wheel.Repetitions < wheel.MinRepetitions:
		return errors.Wrapf(ErrInvalidConfig, "wheel.repetitions must be at least %d", wheel.MinRepetitions)
	case c.Wheel.EntryHeight < 0 || c.Wheel.ViewportEntries < 0 || c.Wheel.RebaseEntries < 0:
		return errors.Wrap(ErrInvalidConfig, "wheel geometry must not be negative")
	case c.Wheel.RebaseTarget < 0 || c.Wheel.RebaseTarget >= 1:
		return errors.Wrapf(ErrInvalidConfig, "wheel.rebase_target %v outside [0,1)", c.Wheel.RebaseTarget)
	case c.Wheel.Debounce < 0 || c.Web.CloseDelay < 0 || c.Web.SessionTTL < 0:
		return errors.Wrap(ErrInvalidConfig, "durations must not be negative")
	}
	if _, err := format.Validate(c.Format); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "%v", err)
	}
	return nil
}

// YearRange resolves the year wheel bounds. An unset min is the current
// year; an unset max is min+DefaultYearSpan.
func (c Config) YearRange(now time.Time) (int, int) {
	lo, hi := c.Years.Min, c.Years.Max
	if lo == 0 {
		lo = now.Year()
	}
	if hi == 0 {
		hi = lo + DefaultYearSpan
	}
	return lo, hi
}

func (c Config) Geometry() wheel.Geometry {
	return wheel.Geometry{
		EntryHeight:    c.Wheel.EntryHeight,
		ViewportHeight: c.Wheel.EntryHeight * c.Wheel.ViewportEntries,
		RebaseEntries:  c.Wheel.RebaseEntries,
		RebaseTarget:   c.Wheel.RebaseTarget,
	}
}

// WheelOptions builds presenter options; zero values fall back to the wheel
// package defaults.
func (c Config) WheelOptions() wheel.Options {
	return wheel.Options{Repetitions: c.Wheel.Repetitions, Geometry: c.Geometry()}
}

func (c Config) Debounce() time.Duration {
	if c.Wheel.Debounce <= 0 {
		return wheel.DefaultDebounce
	}
	return c.Wheel.Debounce
}
