package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValid(t *testing.T) {
	c := DefaultConfig
	require.NoError(t, c.Validate())
	assert.Equal(t, 100, c.Engine.Handshake.IntervalMs)
	assert.Equal(t, 250, c.Autoplay.DelayMs)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(c *Config){
		"control rune":      func(c *Config) { c.Theme.Symbols.Pawn = '\t' },
		"empty engine path": func(c *Config) { c.Engine.Path = "" },
		"zero interval":     func(c *Config) { c.Engine.Handshake.IntervalMs = 0 },
		"negative attempts": func(c *Config) { c.Engine.Handshake.MaxAttempts = -1 },
		"zero delay":        func(c *Config) { c.Autoplay.DelayMs = 0 },
		"bad log level":     func(c *Config) { c.Log.Level = "loud" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := DefaultConfig
			mutate(&c)
			err := c.Validate()
			var invalid *InvalidConfig
			assert.True(t, errors.As(err, &invalid), "expected InvalidConfig, got %v", err)
		})
	}
}

func TestReadCfgFileOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"engine":{"path":"/opt/engine"},"autoplay":{"black":true}}`), 0644))

	c := DefaultConfig
	require.NoError(t, readCfgFile(path, &c))
	assert.Equal(t, "/opt/engine", c.Engine.Path)
	assert.True(t, c.Autoplay.Black)
	assert.Equal(t, 250, c.Autoplay.DelayMs)
	assert.Equal(t, 100, c.Engine.Handshake.IntervalMs)
}

func TestReadCfgFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"engine":`), 0644))

	c := DefaultConfig
	err := readCfgFile(path, &c)
	var invalid *InvalidConfig
	assert.ErrorAs(t, err, &invalid)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	c := DefaultConfig
	c.Autoplay.Red = true
	require.NoError(t, saveCfgFile(path, &c, 0644))

	var loaded Config
	require.NoError(t, readCfgFile(path, &loaded))
	assert.True(t, loaded.Autoplay.Red)
	assert.Equal(t, c.Theme.Symbols.Queen, loaded.Theme.Symbols.Queen)
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	level, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}

func TestLogPathOverride(t *testing.T) {
	c := DefaultConfig
	c.Log.File = "/tmp/checkers.log"
	path, err := c.LogPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/checkers.log", path)
}
