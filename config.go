package conproc

import (
	"context"
	"fmt"
	"runtime"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

// Config is a serialisable representation of the runtime configuration. It
// can be populated from JSON, YAML, environment specific loaders, etc. The
// zero-value is usable: a zero pool size and a zero channel capacity select
// the package defaults, and tracing stays disabled. Zero tracing service
// name and version are not replaced by the defaults.
type Config struct {
	Pool    PoolConfig    `json:"pool" yaml:"pool"`
	Channel ChannelConfig `json:"channel" yaml:"channel"`
	Tracing TracingConfig `json:"tracing" yaml:"tracing"`
}

// PoolConfig configures the default pool.
type PoolConfig struct {
	// Size is the initial worker count of the default pool; 0 means the
	// number of hardware threads.
	Size int `json:"size" yaml:"size"`
}

// ChannelConfig configures process input channels.
type ChannelConfig struct {
	// Capacity bounds newly created input channels; -1 or 0 means
	// unbounded.
	Capacity int `json:"capacity" yaml:"capacity"`
}

// TracingConfig configures span export.
type TracingConfig struct {
	Enabled        bool   `json:"enabled" yaml:"enabled"`
	ServiceName    string `json:"serviceName" yaml:"serviceName"`
	ServiceVersion string `json:"serviceVersion" yaml:"serviceVersion"`
	Output         string `json:"output" yaml:"output"`
}

// DefaultConfig returns a Config populated with the package defaults.
func DefaultConfig() *Config {
	return &Config{
		Pool:    PoolConfig{Size: runtime.NumCPU()},
		Channel: ChannelConfig{Capacity: -1},
		Tracing: TracingConfig{ServiceName: "conproc", ServiceVersion: "dev"},
	}
}

// Validate returns an error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.Pool.Size < 0 {
		return fmt.Errorf("pool.size must be >= 0")
	}
	if c.Channel.Capacity < -1 {
		return fmt.Errorf("channel.capacity must be positive, zero or -1")
	}
	return nil
}

// LoadConfig reads a YAML configuration from the supplied URL (file, mem,
// s3, gs – any scheme the afs service understands).
func LoadConfig(ctx context.Context, URL string) (*Config, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %v: %w", URL, err)
	}
	config := DefaultConfig()
	if err = yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to decode config %v: %w", URL, err)
	}
	if err = config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
