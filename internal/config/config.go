// Package config loads settings for the byte_ring command.
package config

import (
	"os"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	DefaultCapacity  = "4KiB"
	DefaultChunkSize = "512B"
)

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config mirrors the YAML file. Sizes are human readable byte strings such
// as "4KiB" or "1MB".
type Config struct {
	Capacity  string `yaml:"capacity"`
	ChunkSize string `yaml:"chunk_size"`
	Log       Log    `yaml:"log"`
}

func Default() *Config {
	return &Config{
		Capacity:  DefaultCapacity,
		ChunkSize: DefaultChunkSize,
		Log: Log{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads path on top of the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}

	return cfg, nil
}

// CapacityBytes parses Capacity. Zero is allowed.
func (c *Config) CapacityBytes() (int, error) {
	return parseSize("capacity", c.Capacity)
}

// ChunkBytes parses ChunkSize, which must be positive.
func (c *Config) ChunkBytes() (int, error) {
	n, err := parseSize("chunk_size", c.ChunkSize)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, errors.New("chunk_size must be greater than zero")
	}
	return n, nil
}

// Validate checks every field without building anything.
func (c *Config) Validate() error {
	if _, err := c.CapacityBytes(); err != nil {
		return err
	}
	if _, err := c.ChunkBytes(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return errors.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

func parseSize(field, value string) (int, error) {
	n, err := humanize.ParseBytes(value)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s %q", field, value)
	}
	if n > uint64(maxInt) {
		return 0, errors.Errorf("%s %q is too large", field, value)
	}
	return int(n), nil
}

const maxInt = int(^uint(0) >> 1)
