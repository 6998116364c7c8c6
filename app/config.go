package app

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	ddn "github.com/delivron/3dandelion"
)

// ErrInvalidConfig is returned when a configuration fails validation.
var ErrInvalidConfig = errors.New("app: invalid configuration")

// Config is the application configuration. The zero value is not valid;
// start from DefaultConfig.
type Config struct {
	Title        string `yaml:"title"`
	Width        uint32 `yaml:"width"`
	Height       uint32 `yaml:"height"`
	BackBuffers  uint32 `yaml:"back_buffers"`
	SyncInterval uint32 `yaml:"sync_interval"`
	Tearing      bool   `yaml:"tearing"`

	// Backend names a registered backend; empty selects the default.
	Backend string `yaml:"backend"`

	// Frames stops the loop after that many frames. 0 runs until the
	// window closes.
	Frames uint64 `yaml:"frames"`

	Clear  ClearConfig  `yaml:"clear"`
	Camera CameraConfig `yaml:"camera"`

	// Spin is the cube rotation per frame in radians.
	Spin float32 `yaml:"spin"`

	// Overlay draws the stats line over the scene.
	Overlay bool `yaml:"overlay"`

	// Output is where the CLI writes the last frame as PNG. Empty writes
	// nothing.
	Output string `yaml:"output"`
}

// ClearConfig drives the gray clear color. The level rises by Step each
// frame and wraps to 0 once it passes 1.
type ClearConfig struct {
	Start float32 `yaml:"start"`
	Step  float32 `yaml:"step"`
}

// CameraConfig places the camera on the +Z axis looking at the origin.
type CameraConfig struct {
	FovY     float32 `yaml:"fov_y"`
	Near     float32 `yaml:"near"`
	Far      float32 `yaml:"far"`
	Distance float32 `yaml:"distance"`
}

// DefaultConfig returns the configuration of the 3Dandelion demo window.
func DefaultConfig() Config {
	return Config{
		Title:        "3Dandelion",
		Width:        800,
		Height:       600,
		BackBuffers:  2,
		SyncInterval: 0,
		Tearing:      true,
		Clear:        ClearConfig{Step: 0.01},
		Camera:       CameraConfig{FovY: 60, Near: 0.1, Far: 100, Distance: 5},
		Spin:         0.02,
		Overlay:      true,
	}
}

// Parse decodes YAML over the defaults and validates the result. Keys
// absent from data keep their default.
func Parse(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("app: parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("app: read config: %w", err)
	}
	return Parse(data)
}

// Validate checks the ranges the frame loop depends on.
func (c Config) Validate() error {
	switch {
	case c.Width == 0 || c.Height == 0:
		return fmt.Errorf("%w: window size %dx%d", ErrInvalidConfig, c.Width, c.Height)
	case c.BackBuffers < 2 || c.BackBuffers > ddn.MaxBackBufferCount:
		return fmt.Errorf("%w: back_buffers %d, expected 2 to %d", ErrInvalidConfig, c.BackBuffers, ddn.MaxBackBufferCount)
	case c.SyncInterval > 4:
		return fmt.Errorf("%w: sync_interval %d, expected 0 to 4", ErrInvalidConfig, c.SyncInterval)
	case c.Clear.Start < 0 || c.Clear.Start > 1:
		return fmt.Errorf("%w: clear.start %g, expected 0 to 1", ErrInvalidConfig, c.Clear.Start)
	case c.Clear.Step < 0 || c.Clear.Step > 1:
		return fmt.Errorf("%w: clear.step %g, expected 0 to 1", ErrInvalidConfig, c.Clear.Step)
	case c.Camera.FovY <= 0 || c.Camera.FovY >= 180:
		return fmt.Errorf("%w: camera.fov_y %g", ErrInvalidConfig, c.Camera.FovY)
	case c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near:
		return fmt.Errorf("%w: camera near %g far %g", ErrInvalidConfig, c.Camera.Near, c.Camera.Far)
	}
	return nil
}
