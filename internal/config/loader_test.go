package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("ASSET_TEST_PORT", "9100")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"set variable", "port: ${ASSET_TEST_PORT}", "port: 9100"},
		{"set variable ignores default", "port: ${ASSET_TEST_PORT:1}", "port: 9100"},
		{"default used", "dir: ${ASSET_TEST_MISSING:outputs}", "dir: outputs"},
		{"empty default", "pw: ${ASSET_TEST_MISSING:}", "pw: "},
		{"undefined kept", "x: ${ASSET_TEST_MISSING}", "x: ${ASSET_TEST_MISSING}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expandEnv(tt.in))
		})
	}
}

func TestLoadFromMergesEnvFileAndDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yaml", `
server:
  http:
    port: 8100
storage:
  output_dir: /tmp/assets
`)
	writeConfig(t, dir, "config.test.yaml", `
worker:
  concurrency: 2
`)
	t.Setenv("APP_ENV", "test")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, 8100, cfg.Server.HTTP.Port)
	assert.Equal(t, "/tmp/assets", cfg.Storage.OutputDir)
	assert.Equal(t, 2, cfg.Worker.Concurrency)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, 20, cfg.Generation.DefaultSteps)
	assert.InDelta(t, 7.5, cfg.Generation.DefaultGuidanceScale, 1e-9)
	assert.Equal(t, 120*time.Second, cfg.Server.HTTP.WriteTimeout)
}

func TestLoadFromRejectsUnknownDrivers(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yaml", `
store:
  driver: mongo
`)
	t.Setenv("APP_ENV", "test")

	_, err := LoadFrom(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mongo")
}

func TestLoadFromMissingFile(t *testing.T) {
	_, err := LoadFrom(t.TempDir())
	require.Error(t, err)
}

func TestValidateQueueNeedsSharedStore(t *testing.T) {
	cfg := Default()
	cfg.Queue.Driver = "redis"
	require.Error(t, cfg.Validate())

	cfg.Store.Driver = "sqlite"
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.UsesRedis())
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "asset-forge", cfg.App.Name)
	assert.Equal(t, 1, cfg.Worker.Concurrency)
	assert.Equal(t, int64(42), cfg.Generation.DefaultSeed)
	require.NoError(t, cfg.Validate())
	assert.False(t, cfg.UsesRedis())
}
