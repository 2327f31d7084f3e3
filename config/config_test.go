package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"duckdns6/config"
	"duckdns6/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testCtx() context.Context {
	return log.WithLogger(context.Background(), zap.NewNop())
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CRON", "IPV6_METHOD", "IP_SERVICE_URL",
		"DUCKDNS_DOMAIN", "DUCKDNS_TOKEN", "HOSTS_INTERFACE",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromEnvWithDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DUCKDNS_DOMAIN", "example")
	t.Setenv("DUCKDNS_TOKEN", "secret")

	conf, err := config.Load(testCtx(), filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, config.DefaultCron, conf.Cron)
	assert.Equal(t, config.DefaultMethod, conf.IPv6Method)
	assert.Equal(t, config.DefaultIPServiceURL, conf.IPServiceURL)
	assert.Equal(t, "example", conf.Domain)
	assert.Equal(t, "secret", conf.Token)
	assert.Empty(t, conf.Interface)
}

func TestLoadFromEnvAllFields(t *testing.T) {
	clearEnv(t)
	t.Setenv("CRON", "@hourly")
	t.Setenv("IPV6_METHOD", "local")
	t.Setenv("IP_SERVICE_URL", "https://ip.example.org")
	t.Setenv("DUCKDNS_DOMAIN", "example")
	t.Setenv("DUCKDNS_TOKEN", "secret")
	t.Setenv("HOSTS_INTERFACE", "eth0")

	conf, err := config.Load(testCtx(), filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, "@hourly", conf.Cron)
	assert.Equal(t, "local", conf.IPv6Method)
	assert.Equal(t, "https://ip.example.org", conf.IPServiceURL)
	assert.Equal(t, "eth0", conf.Interface)
}

func TestLoadTOMLFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.toml", `
cron = "*/10 * * * *"
ipv6_method = "local"
domain = "example"
token = "secret"
interface = "eth1"

[resolver]
timeout = "5s"
`)

	conf, err := config.Load(testCtx(), path)
	require.NoError(t, err)

	assert.Equal(t, "*/10 * * * *", conf.Cron)
	assert.Equal(t, "local", conf.IPv6Method)
	assert.Equal(t, "example", conf.Domain)
	assert.Equal(t, "eth1", conf.Interface)
	assert.Equal(t, "5s", conf.Resolver["timeout"])
}

func TestLoadYAMLFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", `
domain: example
token: secret
publisher:
  endpoint: https://stub.example.org
`)

	conf, err := config.Load(testCtx(), path)
	require.NoError(t, err)

	assert.Equal(t, "example", conf.Domain)
	assert.Equal(t, "https://stub.example.org", conf.Publisher["endpoint"])
	assert.Equal(t, config.DefaultCron, conf.Cron)
}

func TestFileTakesPrecedenceOverEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DUCKDNS_DOMAIN", "env-domain")
	t.Setenv("DUCKDNS_TOKEN", "env-token")

	path := writeFile(t, "config.toml", `
domain = "file-domain"
token = "file-token"
`)

	conf, err := config.Load(testCtx(), path)
	require.NoError(t, err)
	assert.Equal(t, "file-domain", conf.Domain)
	assert.Equal(t, "file-token", conf.Token)
}

func TestBrokenFileFallsBackToEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DUCKDNS_DOMAIN", "env-domain")
	t.Setenv("DUCKDNS_TOKEN", "env-token")

	path := writeFile(t, "config.toml", `domain = "unterminated`)

	conf, err := config.Load(testCtx(), path)
	require.NoError(t, err)
	assert.Equal(t, "env-domain", conf.Domain)
}

func TestParsedFileMissingMandatoryIsFatal(t *testing.T) {
	clearEnv(t)
	t.Setenv("DUCKDNS_DOMAIN", "env-domain")
	t.Setenv("DUCKDNS_TOKEN", "env-token")

	// A file that parses wins outright; it is not patched up from the
	// environment, so missing mandatory fields in it stay fatal.
	path := writeFile(t, "config.toml", `domain = "file-domain"`)

	_, err := config.Load(testCtx(), path)
	require.Error(t, err)
	assert.ErrorContains(t, err, "token")
}

func TestMissingMandatoryFieldsIsFatal(t *testing.T) {
	clearEnv(t)
	t.Setenv("DUCKDNS_DOMAIN", "example")

	_, err := config.Load(testCtx(), filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "token")

	require.NoError(t, os.Unsetenv("DUCKDNS_DOMAIN"))
	_, err = config.Load(testCtx(), filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "domain")
}
