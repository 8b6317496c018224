package config

import (
	"os"
	"runtime"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"

	"github.com/mhr3/rangesearch/rangesearch"
)

// Defaults mirror the sBPF host limits.
const (
	DefaultMaxCallDepth  = 64
	DefaultComputeBudget = 200_000
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Configuration struct {
	Search SearchConfig `toml:"search"`
	Host   HostConfig   `toml:"host"`
	Log    LogConfig    `toml:"log"`
}

type SearchConfig struct {
	// Variant is "legacy_midpoint" or "correct_midpoint"; it has no default.
	Variant string `toml:"variant"`
}

type HostConfig struct {
	MaxCallDepth  int    `toml:"max_call_depth"`
	ComputeBudget uint64 `toml:"compute_budget"`
	Workers       int    `toml:"workers"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

func Default() *Configuration {
	return &Configuration{
		Host: HostConfig{
			MaxCallDepth:  DefaultMaxCallDepth,
			ComputeBudget: DefaultComputeBudget,
			Workers:       runtime.GOMAXPROCS(0),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the TOML file at path over the defaults. An empty path returns
// the defaults.
func Load(path string) (*Configuration, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	if err := Decode(string(data), cfg); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Decode parses TOML into cfg, leaving unset keys untouched.
func Decode(data string, cfg *Configuration) error {
	md, err := toml.Decode(data, cfg)
	if err != nil {
		return errors.WithSecondaryError(errors.Wrap(ErrInvalidConfig, "decode toml"), err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return errors.Wrapf(ErrInvalidConfig, "unknown key %s", undecoded[0].String())
	}
	return nil
}

// Variant returns the configured search variant.
func (c *Configuration) Variant() (rangesearch.Variant, error) {
	v, err := rangesearch.ParseVariant(c.Search.Variant)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidConfig, "search.variant: %v", err)
	}
	return v, nil
}

func (c *Configuration) Validate() error {
	if _, err := c.Variant(); err != nil {
		return err
	}
	if c.Host.MaxCallDepth <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "host.max_call_depth must be positive, got %d", c.Host.MaxCallDepth)
	}
	if c.Host.ComputeBudget == 0 {
		return errors.Wrap(ErrInvalidConfig, "host.compute_budget must be positive")
	}
	if c.Host.Workers <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "host.workers must be positive, got %d", c.Host.Workers)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.Wrapf(ErrInvalidConfig, "log.level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json", "console":
	default:
		return errors.Wrapf(ErrInvalidConfig, "log.format %q", c.Log.Format)
	}
	return nil
}
