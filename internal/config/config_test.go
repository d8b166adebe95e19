package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultLogDir, cfg.Log.Dir)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, filepath.Join(DefaultLogDir, "security-audit.json"), cfg.AuditPath())
	assert.Equal(t, filepath.Join(DefaultLogDir, "security-filter.log"), cfg.FilterLogPath())
	assert.Equal(t, DefaultExperiments, cfg.Experiments.Dir)
	assert.Equal(t, DefaultServerAddr, cfg.Server.Addr)
	assert.Equal(t, 2*time.Second, cfg.Audit.Redis.Timeout)
	assert.Equal(t, int64(10<<20), cfg.Audit.MaxBytes)
	assert.False(t, cfg.Bypass)
	assert.Empty(t, cfg.ConfigFile)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "promptshield.yaml")
	content := `
log:
  dir: /var/log/promptshield
  level: debug
audit:
  file: /var/log/promptshield/audit.jsonl
  redis:
    addr: localhost:6379
    stream: team:audit
    timeout: 500ms
packs:
  dir: /etc/promptshield/packs
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/var/log/promptshield/audit.jsonl", cfg.AuditPath())
	assert.Equal(t, "localhost:6379", cfg.Audit.Redis.Addr)
	assert.Equal(t, "team:audit", cfg.Audit.Redis.Stream)
	assert.Equal(t, 500*time.Millisecond, cfg.Audit.Redis.Timeout)
	assert.Equal(t, "/etc/promptshield/packs", cfg.Packs.Dir)
	assert.Equal(t, path, cfg.ConfigFile)
}

func TestLoad_ProjectFileDiscovered(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, os.MkdirAll(".claude", 0755))
	require.NoError(t, os.WriteFile(filepath.Join(".claude", "promptshield.yaml"), []byte("log:\n  level: warn\n"), 0644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PROMPTSHIELD_LOG_LEVEL", "error")
	t.Setenv("PROMPTSHIELD_AUDIT_REDIS_ADDR", "redis:6379")
	t.Setenv("PROMPTSHIELD_BYPASS", "1")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, "redis:6379", cfg.Audit.Redis.Addr)
	assert.True(t, cfg.Bypass)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, os.WriteFile(".env", []byte("PROMPTSHIELD_SERVER_ADDR=0.0.0.0:9999\n"), 0600))
	t.Cleanup(func() { _ = os.Unsetenv("PROMPTSHIELD_SERVER_ADDR") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9999", cfg.Server.Addr)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "promptshield.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log: [unterminated"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	t.Setenv("PROMPTSHIELD_LOG_DIR", "/ignored")

	cfg := Default()

	assert.Equal(t, DefaultLogDir, cfg.Log.Dir)
	assert.Equal(t, filepath.Join(DefaultLogDir, DefaultAuditFile), cfg.AuditPath())
	assert.Empty(t, cfg.Audit.Redis.Addr)
	assert.False(t, cfg.Bypass)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "promptshield.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log: [unclosed\n"), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}
