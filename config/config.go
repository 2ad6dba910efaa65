package config

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/adrg/xdg"
)

var (
	cfgFile = "checkers-local/config.json"
	logFile = "checkers-local/debug.log"
)

type InvalidConfig struct {
	err string
}

func (e *InvalidConfig) Error() string {
	return fmt.Sprintf("Config error: %s", e.err)
}

type ConfigColors struct {
	LightSquare int `json:"light_square"`
	DarkSquare  int `json:"dark_square"`
	RedPiece    int `json:"red"`
	BlackPiece  int `json:"black"`
	CursorBG    int `json:"cursor_bg"`
	OriginBG    int `json:"origin_bg"`
	MoveBG      int `json:"move_bg"`
	KillBG      int `json:"kill_bg"`
}

type ConfigSymbols struct {
	Pawn  rune `json:"pawn"`
	Queen rune `json:"queen"`
	Empty rune `json:"empty"`
}

type Theme struct {
	DrawCoordinates bool          `json:"draw_coordinates"`
	Colors          ConfigColors  `json:"colors"`
	Symbols         ConfigSymbols `json:"symbols"`
}

// HandshakeConfig holds readiness polling settings.
type HandshakeConfig struct {
	IntervalMs    int     `json:"interval_ms"`
	MaxAttempts   int     `json:"max_attempts"`
	Backoff       float64 `json:"backoff"`
	MaxIntervalMs int     `json:"max_interval_ms"`
}

// EngineConfig holds settings for the engine process.
type EngineConfig struct {
	Path          string          `json:"path"`
	Args          []string        `json:"args"`
	CallTimeoutMs int             `json:"call_timeout_ms"`
	Handshake     HandshakeConfig `json:"handshake"`
}

// AutoplayConfig holds the engine-plays-itself settings.
type AutoplayConfig struct {
	DelayMs int  `json:"delay_ms"`
	Red     bool `json:"red"`
	Black   bool `json:"black"`
}

// LogConfig holds debug log settings. An empty File uses the XDG state directory.
type LogConfig struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

type Config struct {
	Theme    Theme          `json:"theme"`
	Engine   EngineConfig   `json:"engine"`
	Autoplay AutoplayConfig `json:"autoplay"`
	Log      LogConfig      `json:"log"`
}

func InitConfig() (*Config, error) {
	config := DefaultConfig
	absPath, err := xdg.SearchConfigFile(cfgFile)
	if err == nil {
		if err := readCfgFile(absPath, &config); err != nil {
			return nil, err
		}
	}
	if err = config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	for _, r := range []rune{c.Theme.Symbols.Pawn, c.Theme.Symbols.Queen, c.Theme.Symbols.Empty} {
		if r < 32 || (r >= 127 && r <= 159) {
			return &InvalidConfig{"Unicode characters 1-31 and 127-159 are not allowed"}
		}
	}
	if c.Engine.Path == "" {
		return &InvalidConfig{"engine path must not be empty"}
	}
	if c.Engine.CallTimeoutMs < 0 {
		return &InvalidConfig{"engine call timeout must not be negative"}
	}
	h := c.Engine.Handshake
	if h.IntervalMs <= 0 {
		return &InvalidConfig{"handshake interval must be positive"}
	}
	if h.MaxAttempts < 0 || h.MaxIntervalMs < 0 || h.Backoff < 0 {
		return &InvalidConfig{"handshake limits must not be negative"}
	}
	if c.Autoplay.DelayMs <= 0 {
		return &InvalidConfig{"autoplay delay must be positive"}
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return &InvalidConfig{err.Error()}
	}
	return nil
}

// ParseLevel converts a level name into a slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
}

// LogPath returns where the debug log is written.
func (c *Config) LogPath() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	return xdg.StateFile(logFile)
}

func (c *Config) Save() error {
	absPath, err := xdg.ConfigFile(cfgFile)
	if err != nil {
		return err
	}
	return saveCfgFile(absPath, c, 0664)
}

func saveCfgFile(filePath string, a interface{}, perm fs.FileMode) error {
	jsonData, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, jsonData, perm)
}

func readCfgFile(filePath string, a interface{}) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil
	}
	if err := json.Unmarshal(data, a); err != nil {
		return &InvalidConfig{fmt.Sprintf("%s: %v", filePath, err)}
	}
	return nil
}
