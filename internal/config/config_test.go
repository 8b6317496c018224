package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhr3/rangesearch/rangesearch"
)

func TestDefault_RequiresVariant(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorContains(t, err, "search variant not selected")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rangesearch.toml")
	data := `
[search]
variant = "legacy_midpoint"

[host]
max_call_depth = 128
workers = 2

[log]
level = "debug"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	v, err := cfg.Variant()
	require.NoError(t, err)
	assert.Equal(t, rangesearch.LegacyMidpoint, v)
	assert.Equal(t, 128, cfg.Host.MaxCallDepth)
	assert.Equal(t, uint64(DefaultComputeBudget), cfg.Host.ComputeBudget)
	assert.Equal(t, 2, cfg.Host.Workers)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"syntax", "[search\nvariant = 1"},
		{"unknown key", "[host]\nstack_size = 4"},
		{"wrong type", "[host]\nmax_call_depth = \"deep\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Decode(tt.data, Default())
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Configuration)
		ok     bool
	}{
		{"valid", func(c *Configuration) {}, true},
		{"bad variant", func(c *Configuration) { c.Search.Variant = "fast" }, false},
		{"zero depth", func(c *Configuration) { c.Host.MaxCallDepth = 0 }, false},
		{"zero budget", func(c *Configuration) { c.Host.ComputeBudget = 0 }, false},
		{"zero workers", func(c *Configuration) { c.Host.Workers = 0 }, false},
		{"bad level", func(c *Configuration) { c.Log.Level = "trace" }, false},
		{"bad format", func(c *Configuration) { c.Log.Format = "xml" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Search.Variant = "correct_midpoint"
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			}
		})
	}
}
