package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_DefaultsApplied(t *testing.T) {
	path := writeConfig(t, `
session_key: secret
auth:
  cas:
    enabled: true
    server_url: https://login.example.edu/cas
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:3000", cfg.Listen)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 1800, cfg.SessionMaxAge)
	assert.Equal(t, 300, cfg.SessionRenewal)
	assert.Equal(t, CacheTypeMemory, cfg.Cache.Type)
	assert.True(t, cfg.Gravatar.Enabled)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
listen: 127.0.0.1:8080
session_key: secret
session_max_age: 600
auth:
  cas:
    enabled: true
    server_url: https://login.example.edu/cas
    email_domain: example.edu
cache:
  type: redis
  redis_url: localhost:6379
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Listen)
	assert.Equal(t, 600, cfg.SessionMaxAge)
	assert.Equal(t, "example.edu", cfg.Auth.CAS.EmailDomain)
	assert.Equal(t, CacheTypeRedis, cfg.Cache.Type)
}

func TestLoad_RequiresSessionKey(t *testing.T) {
	path := writeConfig(t, `
auth:
  cas:
    enabled: true
    server_url: https://login.example.edu/cas
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session_key")
}

func TestLoad_RequiresAProvider(t *testing.T) {
	path := writeConfig(t, `
session_key: secret
auth:
  cas:
    enabled: false
  oidc:
    enabled: false
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no authentication provider")
}

func TestLoad_CASNeedsServerURL(t *testing.T) {
	path := writeConfig(t, `
session_key: secret
auth:
  cas:
    enabled: true
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.cas.server_url")
}

func TestLoad_RedisCacheNeedsURL(t *testing.T) {
	path := writeConfig(t, `
session_key: secret
auth:
  cas:
    enabled: true
    server_url: https://login.example.edu/cas
cache:
  type: redis
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache.redis_url")
}
