// Package config loads the optional widgethost.yaml file of the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-drift/widgethost/pkg/dom"
	"github.com/go-drift/widgethost/pkg/lifecycle"
	"github.com/go-drift/widgethost/pkg/sizing"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the working directory.
const FileName = "widgethost.yaml"

// Config represents widgethost.yaml.
type Config struct {
	Viewport  ViewportConfig `yaml:"viewport"`
	Viewer    bool           `yaml:"viewer,omitempty"`
	Container string         `yaml:"container,omitempty"`
	Errors    ErrorsConfig   `yaml:"errors"`
	Log       LogConfig      `yaml:"log"`
	Renderers []string       `yaml:"renderers,omitempty"`
	Ready     ReadyConfig    `yaml:"ready"`
}

// ViewportConfig is the initial window size.
type ViewportConfig struct {
	Width  int `yaml:"width,omitempty"`
	Height int `yaml:"height,omitempty"`
}

// ErrorsConfig controls error overlays.
type ErrorsConfig struct {
	Tracking     string        `yaml:"tracking,omitempty"`
	PollInterval time.Duration `yaml:"pollInterval,omitempty"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `yaml:"level,omitempty"`
}

// ReadyConfig controls when the first static pass runs.
type ReadyConfig struct {
	// Deferred posts the ready trigger to the loop instead of running it
	// right after the renderers are registered.
	Deferred bool `yaml:"deferred,omitempty"`
}

// Resolved contains resolved configuration values.
type Resolved struct {
	Path          string
	Viewport      dom.Size
	Variant       sizing.Variant
	ContainerID   string
	Tracking      lifecycle.Tracking
	PollInterval  time.Duration
	LogLevel      zapcore.Level
	Renderers     []string
	DeferredReady bool
}

// DefaultRenderers lists the renderers enabled when the config names none.
var DefaultRenderers = []string{"canvasXpress"}

// Load reads the config at path. A missing file yields an empty Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	return Parse(data)
}

// Parse decodes a config document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}
	return &cfg, nil
}

// Resolve loads the config at path (if present) and resolves defaults. An
// empty path means FileName in the working directory.
func Resolve(path string) (*Resolved, error) {
	if path == "" {
		path = FileName
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	r, err := cfg.Resolve()
	if err != nil {
		return nil, err
	}
	r.Path = path
	return r, nil
}

// Resolve validates cfg and fills in defaults.
func (cfg *Config) Resolve() (*Resolved, error) {
	r := &Resolved{
		Viewport:      dom.DefaultViewport,
		ContainerID:   strings.TrimSpace(cfg.Container),
		PollInterval:  cfg.Errors.PollInterval,
		Renderers:     cfg.Renderers,
		DeferredReady: cfg.Ready.Deferred,
	}
	if cfg.Viewport.Width < 0 || cfg.Viewport.Height < 0 {
		return nil, fmt.Errorf("viewport must not be negative, got %dx%d", cfg.Viewport.Width, cfg.Viewport.Height)
	}
	if cfg.Viewport.Width > 0 {
		r.Viewport.Width = cfg.Viewport.Width
	}
	if cfg.Viewport.Height > 0 {
		r.Viewport.Height = cfg.Viewport.Height
	}
	if cfg.Viewer {
		r.Variant = sizing.Viewer
	}
	if r.ContainerID == "" {
		r.ContainerID = sizing.DefaultContainerID
	}

	tracking, ok := lifecycle.ParseTracking(strings.TrimSpace(cfg.Errors.Tracking))
	if !ok {
		return nil, fmt.Errorf("unknown error tracking %q (use observe or poll)", cfg.Errors.Tracking)
	}
	r.Tracking = tracking
	if r.PollInterval <= 0 {
		r.PollInterval = lifecycle.DefaultPollInterval
	}

	r.LogLevel = zapcore.InfoLevel
	if s := strings.TrimSpace(cfg.Log.Level); s != "" {
		level, err := zapcore.ParseLevel(s)
		if err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
		r.LogLevel = level
	}

	if len(r.Renderers) == 0 {
		r.Renderers = DefaultRenderers
	}
	return r, nil
}
