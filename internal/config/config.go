package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/skilltree/internal/core/observability/log"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Log        LogConfig        `yaml:"log"`
	Assets     AssetsConfig     `yaml:"assets"`
	Debug      DebugConfig      `yaml:"debug"`
	Simulation SimulationConfig `yaml:"simulation"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type AssetsConfig struct {
	// Dir holds the compiled *.bytes tree documents.
	Dir string `yaml:"dir"`
	// Colliders is the YAML collider catalog. Optional.
	Colliders string `yaml:"colliders"`
	// Workers bounds parallel file loads; 0 means one per file.
	Workers int `yaml:"workers"`
}

type DebugConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
	Listen  string        `yaml:"listen"`
}

type SimulationConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"`
}

func Default() *Config {
	return &Config{
		Log:        LogConfig{Level: "info"},
		Assets:     AssetsConfig{Dir: "assets/trees"},
		Debug:      DebugConfig{TTL: 2 * time.Second, Listen: ":8090"},
		Simulation: SimulationConfig{TickInterval: 50 * time.Millisecond},
	}
}

// Read decodes YAML on top of the defaults. Unknown keys are rejected.
func Read(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads the file at path. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fd.Close()
	cfg, err := Read(fd)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log.level %q", ErrInvalidConfig, c.Log.Level)
	}
	if c.Assets.Dir == "" {
		return fmt.Errorf("%w: assets.dir is empty", ErrInvalidConfig)
	}
	if c.Assets.Workers < 0 {
		return fmt.Errorf("%w: assets.workers is negative", ErrInvalidConfig)
	}
	if c.Simulation.TickInterval <= 0 {
		return fmt.Errorf("%w: simulation.tick_interval must be positive", ErrInvalidConfig)
	}
	if c.Debug.Enabled && c.Debug.Listen == "" {
		return fmt.Errorf("%w: debug.listen is empty", ErrInvalidConfig)
	}
	if c.Debug.TTL < 0 {
		return fmt.Errorf("%w: debug.ttl is negative", ErrInvalidConfig)
	}
	return nil
}

// Logger returns the logging configuration for log.New.
func (c *Config) Logger() log.Config {
	return log.Config{Level: log.ParseLevel(c.Log.Level), Development: c.Log.Development}
}
