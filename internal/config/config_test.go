package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir changes the working directory for the duration of the test,
// standing in for t.Chdir which requires Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Errorf("restoring working directory: %v", err)
		}
	})
}

func TestLoadConfigDefaults(t *testing.T) {
	viper.Reset()
	chdir(t, t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "batches.db", cfg.DB.Path)
	assert.Equal(t, "30s", cfg.Stages.Timeout)
	assert.Equal(t, "output", cfg.Output.Dir)
	assert.Equal(t, 10, cfg.Guard.MaxSubmissions)
	assert.Equal(t, "1m", cfg.Guard.Window)
	assert.Empty(t, cfg.Stages.BaseURL, "stage URL has no sane default")
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  addr: ":9090"
stages:
  base_url: "http://stages.internal:8000"
  timeout: "10s"
guard:
  max_submissions: 3
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))
	viper.Reset()
	chdir(t, dir)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "http://stages.internal:8000", cfg.Stages.BaseURL)
	assert.Equal(t, "10s", cfg.Stages.Timeout)
	assert.Equal(t, 3, cfg.Guard.MaxSubmissions)
	assert.Equal(t, "batches.db", cfg.DB.Path, "unset keys keep their defaults")
}
