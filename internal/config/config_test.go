package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "islandlife.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load("")

	require.NoError(t, err)
	assert.NotEmpty(t, cfg.ListenAddr)
	assert.NotEmpty(t, cfg.DBPath)
	assert.Equal(t, 5*1024*1024, cfg.LocalQuotaBytes)
	assert.Equal(t, 2*time.Second, cfg.SyncQuietPeriod)
}

func TestLoadCustomValues(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9000")
	t.Setenv("DB_PATH", "/custom/db.sqlite")
	t.Setenv("ADVISOR_BACKEND", "ollama")
	t.Setenv("CLAUDE_API_KEY", "sk-test123")
	t.Setenv("REMOTE_BACKEND", "local")
	t.Setenv("LOCAL_QUOTA_BYTES", "1024")
	t.Setenv("SYNC_QUIET_PERIOD", "500ms")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "/custom/db.sqlite", cfg.DBPath)
	assert.Equal(t, "ollama", cfg.AdvisorBackend)
	assert.Equal(t, "sk-test123", cfg.ClaudeAPIKey)
	assert.Equal(t, "local", cfg.RemoteBackend)
	assert.Equal(t, 1024, cfg.LocalQuotaBytes)
	assert.Equal(t, 500*time.Millisecond, cfg.SyncQuietPeriod)
}

func TestLoadFileWithEnvOverride(t *testing.T) {
	path := writeConfig(t, `
listen_addr: ":7000"
db_path: /srv/pets.db
sync_quiet_period: 5s
remote:
  access_id: AKIDexample
  access_secret: secret
  bucket_name: pets-1250000000
  region: ap-guangzhou
`)
	t.Setenv("LISTEN_ADDR", ":7001")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, ":7001", cfg.ListenAddr)
	assert.Equal(t, "/srv/pets.db", cfg.DBPath)
	assert.Equal(t, 5*time.Second, cfg.SyncQuietPeriod)
	assert.True(t, cfg.Remote.Complete())
	assert.Equal(t, "pets-1250000000", cfg.Remote.BucketName)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		file string
	}{
		{name: "bad quota", env: map[string]string{"LOCAL_QUOTA_BYTES": "lots"}},
		{name: "zero quota", env: map[string]string{"LOCAL_QUOTA_BYTES": "0"}},
		{name: "bad quiet period", env: map[string]string{"SYNC_QUIET_PERIOD": "soon"}},
		{name: "unknown remote backend", env: map[string]string{"REMOTE_BACKEND": "s3"}},
		{name: "unknown advisor backend", env: map[string]string{"ADVISOR_BACKEND": "gemini"}},
		{name: "malformed file", file: "listen_addr: [unterminated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeConfig(t, tt.file)
			}

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
