package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	rgerrors "github.com/odvcencio/rapidgui/pkg/errors"
)

// Default configuration values exported for documentation and validation
const (
	DefaultFrameInterval = 15 * time.Millisecond
	DefaultBackend       = BackendAuto
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "json"
	DefaultSubjectPrefix = "rapidgui"
	DefaultCellWidth     = 8
	DefaultCellHeight    = 16

	// MinFrameInterval caps the loop at roughly 1000 frames per second.
	MinFrameInterval = time.Millisecond
)

// Backend names accepted by the backend setting.
const (
	BackendAuto   = "auto"
	BackendTcell  = "tcell"
	BackendRaylib = "raylib"
	BackendRaster = "raster"
)

// Config represents the complete runtime configuration
type Config struct {
	FrameInterval time.Duration  `yaml:"frame_interval"`
	Backend       string         `yaml:"backend"`
	Log           LogConfig      `yaml:"log"`
	Inspect       InspectConfig  `yaml:"inspect"`
	Relay         RelayConfig    `yaml:"relay"`
	Terminal      TerminalConfig `yaml:"terminal"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// File redirects logs away from stderr, which the terminal backend owns.
	File string `yaml:"file"`
}

// InspectConfig controls the inspection HTTP server.
type InspectConfig struct {
	Listen string `yaml:"listen"`
}

// RelayConfig controls publishing of fired signals onto a message bus.
type RelayConfig struct {
	// URL is a NATS server URL, "memory" for an in-process bus, or empty to disable.
	URL           string        `yaml:"url"`
	SubjectPrefix string        `yaml:"subject_prefix"`
	Name          string        `yaml:"name"`
	Timeout       time.Duration `yaml:"timeout"`
}

// Enabled reports whether a relay should be started.
func (r RelayConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != ""
}

// TerminalConfig maps window units onto terminal cells.
type TerminalConfig struct {
	CellWidth  int `yaml:"cell_width"`
	CellHeight int `yaml:"cell_height"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		FrameInterval: DefaultFrameInterval,
		Backend:       DefaultBackend,
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Relay: RelayConfig{
			SubjectPrefix: DefaultSubjectPrefix,
			Name:          "rapidgui",
			Timeout:       5 * time.Second,
		},
		Terminal: TerminalConfig{
			CellWidth:  DefaultCellWidth,
			CellHeight: DefaultCellHeight,
		},
	}
}

// Load loads configuration from default locations with proper precedence
func Load() (*Config, error) {
	cfg := DefaultConfig()

	// Load user config (~/.rapidgui/config.yaml)
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}
	if home != "" {
		userConfigPath := filepath.Join(home, ".rapidgui", "config.yaml")
		if err := loadAndMerge(cfg, userConfigPath); err != nil && !os.IsNotExist(err) {
			return nil, rgerrors.Wrap(err, rgerrors.ErrCodeConfigLoad, "loading user config").
				WithContext("path", userConfigPath)
		}
	}

	// Load project config (./.rapidgui/config.yaml)
	projectConfigPath := filepath.Join(".", ".rapidgui", "config.yaml")
	if err := loadAndMerge(cfg, projectConfigPath); err != nil && !os.IsNotExist(err) {
		return nil, rgerrors.Wrap(err, rgerrors.ErrCodeConfigLoad, "loading project config").
			WithContext("path", projectConfigPath)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromPath loads configuration from a specific file path
func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := loadAndMerge(cfg, path); err != nil {
		return nil, rgerrors.Wrap(err, rgerrors.ErrCodeConfigLoad, fmt.Sprintf("loading config from %s", path))
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RAPIDGUI_BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv("RAPIDGUI_FRAME_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.FrameInterval = d
		}
	}
	if v := os.Getenv("RAPIDGUI_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("RAPIDGUI_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("RAPIDGUI_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := os.Getenv("RAPIDGUI_INSPECT_LISTEN"); v != "" {
		cfg.Inspect.Listen = v
	}
	if v := os.Getenv("RAPIDGUI_RELAY_URL"); v != "" {
		cfg.Relay.URL = v
	}
	if v := os.Getenv("RAPIDGUI_RELAY_SUBJECT_PREFIX"); v != "" {
		cfg.Relay.SubjectPrefix = v
	}
	if v := os.Getenv("RAPIDGUI_CELL_WIDTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Terminal.CellWidth = n
		}
	}
	if v := os.Getenv("RAPIDGUI_CELL_HEIGHT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Terminal.CellHeight = n
		}
	}
}

// Validate checks the configuration for values the runtime cannot honour.
func (c *Config) Validate() error {
	invalid := func(field string, value any, msg string) error {
		return rgerrors.New(rgerrors.ErrCodeConfigInvalid, msg).
			WithContext("field", field).
			WithContext("value", value)
	}

	if c.FrameInterval < MinFrameInterval {
		return invalid("frame_interval", c.FrameInterval, "frame interval must be at least 1ms")
	}

	switch strings.ToLower(strings.TrimSpace(c.Backend)) {
	case BackendAuto, BackendTcell, BackendRaylib, BackendRaster:
		c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	default:
		return invalid("backend", c.Backend, "backend must be one of auto, tcell, raylib, raster")
	}

	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return invalid("log.level", c.Log.Level, "unknown log level")
	}

	switch strings.ToLower(strings.TrimSpace(c.Log.Format)) {
	case "json", "text":
	default:
		return invalid("log.format", c.Log.Format, "log format must be json or text")
	}

	if c.Relay.Enabled() && strings.TrimSpace(c.Relay.SubjectPrefix) == "" {
		return invalid("relay.subject_prefix", c.Relay.SubjectPrefix, "relay subject prefix is required when relay is enabled")
	}
	if strings.ContainsAny(c.Relay.SubjectPrefix, " *>") {
		return invalid("relay.subject_prefix", c.Relay.SubjectPrefix, "relay subject prefix must not contain spaces or wildcards")
	}

	if c.Terminal.CellWidth <= 0 || c.Terminal.CellHeight <= 0 {
		return invalid("terminal", fmt.Sprintf("%dx%d", c.Terminal.CellWidth, c.Terminal.CellHeight), "terminal cell size must be positive")
	}

	return nil
}
