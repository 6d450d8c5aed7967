package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 60, cfg.Server.SessionTTLMinutes)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.InDelta(t, 0.9, cfg.Map.CenterLat, 1e-9)
	assert.InDelta(t, 101.9, cfg.Map.CenterLng, 1e-9)
	assert.Equal(t, 8, cfg.Map.DefaultZoom)
	assert.Equal(t, 50, cfg.Map.FitPadding)
	assert.Equal(t, 11, cfg.Map.FlowLabelZoom)
	assert.Equal(t, 10, cfg.Map.POILabelZoom)
	assert.InDelta(t, 80, cfg.Map.ClusterRadius, 1e-9)
	assert.Equal(t, 16, cfg.Map.DisableClusterZoom)
	assert.Equal(t, "png", cfg.Tiles.Format)
	assert.Equal(t, 2048, cfg.Tiles.CacheEntries)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 10, cfg.Admin.TimeoutSecs)
	assert.Empty(t, cfg.Dataset.Path)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
server:
  port: 9090
  cors_origins: ["https://petrogas.example"]
log:
  level: debug
  format: console
map:
  default_zoom: 9
admin:
  base_url: https://admin.petrogas.example/api
store:
  driver: postgres
  database_url: postgres://localhost/corpsite
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://petrogas.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9, cfg.Map.DefaultZoom)
	assert.Equal(t, 11, cfg.Map.FlowLabelZoom)
	assert.Equal(t, "https://admin.petrogas.example/api", cfg.Admin.BaseURL)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvOverride(t *testing.T) {
	chdirTemp(t)
	t.Setenv("CORPSITE_SERVER_PORT", "7070")
	t.Setenv("CORPSITE_ADMIN_TOKEN", "tok")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "tok", cfg.Admin.Token)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [\n"), 0o644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestValidate(t *testing.T) {
	chdirTemp(t)
	cfg, err := Load()
	require.NoError(t, err)

	cfg.Server.Port = 0
	cfg.Map.FlowLabelZoom = 25
	cfg.Map.ClusterRadius = 0
	cfg.Tiles.UpstreamURL = "https://tiles.example/static.png"
	cfg.Store.Driver = "postgres"
	cfg.Store.DatabaseURL = ""

	err = cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{
		"config: validation failed: ",
		"server.port 0",
		"map.flow_label_zoom 25",
		"map.cluster_radius",
		"no {z} placeholder",
		"store.database_url is required",
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestInitLogger(t *testing.T) {
	prev := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(prev) })

	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.True(t, zap.L().Core().Enabled(zap.DebugLevel))

	require.NoError(t, InitLogger(LogConfig{Level: "warn", Format: "json"}))
	assert.False(t, zap.L().Core().Enabled(zap.InfoLevel))

	assert.Error(t, InitLogger(LogConfig{Level: "loud"}))
}
