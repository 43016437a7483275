package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nconklindev/freightmap/internal/mapping"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	v, err := New("")
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Empty(t, cfg.Template)
	assert.Equal(t, mapping.DirectionTarget, cfg.Direction)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":8501", cfg.Server.Listen)
	assert.Equal(t, int64(200), cfg.Server.MaxUploadMB)
	assert.Equal(t, 30*time.Minute, cfg.Server.UploadTTL)
	assert.Equal(t, "release", cfg.Server.GinMode)
	assert.Equal(t, int64(4), cfg.Server.MaxJobs)
}

func TestLoad_Environment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("FREIGHTMAP_DIRECTION", "source")
	t.Setenv("FREIGHTMAP_MAX_UPLOAD_MB", "5")
	t.Setenv("FREIGHTMAP_UPLOAD_TTL", "90s")

	v, err := New("")
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, mapping.DirectionSource, cfg.Direction)
	assert.Equal(t, int64(5), cfg.Server.MaxUploadMB)
	assert.Equal(t, 90*time.Second, cfg.Server.UploadTTL)
}

func TestNew_EnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "custom.env")
	require.NoError(t, os.WriteFile(path, []byte("FREIGHTMAP_LISTEN=:9000\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("FREIGHTMAP_LISTEN") })

	v, err := New(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", v.GetString(KeyListen))

	_, err = New(filepath.Join(dir, "missing.env"))
	assert.Error(t, err)
}

func TestReadFile(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "freightmap.yaml")
	require.NoError(t, os.WriteFile(path, []byte("template: /srv/template.xlsx\nlog-level: debug\n"), 0o644))

	v, err := New("")
	require.NoError(t, err)
	require.NoError(t, ReadFile(v, path))
	require.NoError(t, ReadFile(v, ""))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "/srv/template.xlsx", cfg.Template)
	assert.Equal(t, "debug", cfg.LogLevel)

	assert.Error(t, ReadFile(v, filepath.Join(t.TempDir(), "nope.yaml")))
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{"Unknown direction", KeyDirection, "diagonal"},
		{"Zero upload size", KeyMaxUploadMB, 0},
		{"Negative TTL", KeyUploadTTL, "-1m"},
		{"No jobs", KeyMaxJobs, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			v, err := New("")
			require.NoError(t, err)
			v.Set(tt.key, tt.value)

			_, err = Load(v)
			assert.Error(t, err)
		})
	}
}
