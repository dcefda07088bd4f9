package conproc

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.NoError(t, (&Config{}).Validate())
	assert.NoError(t, (*Config)(nil).Validate())

	invalid := DefaultConfig()
	invalid.Pool.Size = -1
	assert.Error(t, invalid.Validate())

	invalid = DefaultConfig()
	invalid.Channel.Capacity = -2
	assert.Error(t, invalid.Validate())
}

func TestLoadConfig(t *testing.T) {
	ctx := context.Background()
	location := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
pool:
  size: 3
channel:
  capacity: 16
tracing:
  enabled: false
  serviceName: test
`)
	require.NoError(t, os.WriteFile(location, data, 0o644))

	config, err := LoadConfig(ctx, location)
	require.NoError(t, err)
	assert.Equal(t, 3, config.Pool.Size)
	assert.Equal(t, 16, config.Channel.Capacity)
	assert.Equal(t, "test", config.Tracing.ServiceName)

	_, err = LoadConfig(ctx, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
