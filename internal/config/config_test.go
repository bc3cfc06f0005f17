package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_DefaultsApplied(t *testing.T) {
	cfg, err := Parse([]byte("project: my-project\nregion: europe-west1\n"))
	require.NoError(t, err)

	assert.Equal(t, DefaultName, cfg.Name)
	assert.Equal(t, DefaultImage, cfg.Image)
	assert.Equal(t, DefaultSchedule, cfg.Schedule)
	assert.Equal(t, BackendCLI, cfg.StorageBackend)
	assert.Equal(t, BackendCLI, cfg.PubSubBackend)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv(EnvProject, "env-project")
	t.Setenv(EnvRegion, "us-central1")

	cfg, err := Parse([]byte("project: file-project\n"))
	require.NoError(t, err)

	assert.Equal(t, "env-project", cfg.Project)
	assert.Equal(t, "us-central1", cfg.Region)
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"missing project", "region: r\n", "project is required"},
		{"missing region", "project: p\n", "region is required"},
		{"bad schedule", "project: p\nregion: r\nschedule: '* *'\n", "5 cron fields"},
		{"bad storage backend", "project: p\nregion: r\nstorage_backend: ftp\n", "storage_backend"},
		{"bad pubsub backend", "project: p\nregion: r\npubsub_backend: interop\n", "pubsub_backend"},
		{"interop without keys", "project: p\nregion: r\nstorage_backend: interop\n", "access_key"},
		{"bad log level", "project: p\nregion: r\nlog_level: loud\n", "log_level"},
		{"bad name", "project: p\nregion: r\nname: My_Pipe\n", `name "My_Pipe"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParse_InteropDefaults(t *testing.T) {
	cfg, err := Parse([]byte("project: p\nregion: r\nstorage_backend: interop\ninterop:\n  access_key: a\n  secret_key: s\n"))
	require.NoError(t, err)

	assert.Equal(t, DefaultInteropEndpoint, cfg.Interop.Endpoint)
	assert.Equal(t, DefaultInteropRegion, cfg.Interop.Region)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "config.yaml"))

	var pathErr *PathError
	require.True(t, errors.As(err, &pathErr))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("project: [unterminated"), 0o600))

	_, err := LoadFile(path)

	var pathErr *PathError
	require.True(t, errors.As(err, &pathErr))
	assert.Equal(t, "malformed configuration", pathErr.Reason)
}

func TestSaveAndLoad(t *testing.T) {
	layout := NewLayout(t.TempDir())
	in := &Config{Project: "my-project", Region: "europe-west1", Name: "logs", Parallel: true}

	require.NoError(t, Save(layout.ConfigFile(), in))
	out, err := Load(layout)
	require.NoError(t, err)

	assert.Equal(t, "my-project", out.Project)
	assert.Equal(t, "logs", out.Name)
	assert.True(t, out.Parallel)
}

func TestValidateProjectID(t *testing.T) {
	assert.NoError(t, ValidateProjectID("my-project-123"))
	assert.Error(t, ValidateProjectID("My_Project"))
	assert.Error(t, ValidateProjectID("abc"))
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("beaver"))
	assert.Error(t, ValidateName("1beaver"))
	assert.Error(t, ValidateName(""))
}
