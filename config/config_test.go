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
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `{
		"app_name": "TestApp",
		"listen_ip": "127.0.0.1",
		"listen_port": 9090,
		"session_key": "test-session-key",
		"database_url": "/tmp/test.db",
		"upload_dir": "/tmp/photos"
	}`)

	require.NoError(t, LoadConfig(path))

	assert.Equal(t, "TestApp", AppConfig.AppName)
	assert.Equal(t, "127.0.0.1", AppConfig.ListenIP)
	assert.Equal(t, 9090, AppConfig.ListenPort)
	assert.Equal(t, "test-session-key", AppConfig.SessionKey)
	assert.Equal(t, "/tmp/test.db", AppConfig.DatabaseURL)
	assert.Equal(t, "/tmp/photos", AppConfig.UploadDir)
	assert.Equal(t, int64(5*1024*1024), AppConfig.MaxUploadBytes)
}

func TestLoadConfigDefaults(t *testing.T) {
	require.NoError(t, LoadConfig(""))

	assert.Equal(t, "Wishlist", AppConfig.AppName)
	assert.Equal(t, 3000, AppConfig.ListenPort)
	assert.Equal(t, "./wishlist.db", AppConfig.DatabaseURL)
	assert.Len(t, AppConfig.SessionKey, 64, "a random hex key should be generated")
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := writeConfig(t, `{"listen_port": 9090, "session_key": "from-file"}`)

	t.Setenv("WISHLIST_LISTEN_PORT", "7070")
	t.Setenv("SECRET_KEY", "from-legacy-env")
	t.Setenv("WISHLIST_SIGNUP_CAPTCHA", "true")

	require.NoError(t, LoadConfig(path))

	assert.Equal(t, 7070, AppConfig.ListenPort)
	assert.Equal(t, "from-legacy-env", AppConfig.SessionKey)
	assert.True(t, AppConfig.SignupCaptcha)
}

func TestLoadConfigPlaceholderKeyReplaced(t *testing.T) {
	path := writeConfig(t, `{"session_key": "CHANGE_ME_IN_PRODUCTION"}`)

	require.NoError(t, LoadConfig(path))
	assert.NotEqual(t, placeholderKey, AppConfig.SessionKey)
}

func TestLoadConfigInvalidPath(t *testing.T) {
	err := LoadConfig("non-existent-path.json")
	assert.Error(t, err, "LoadConfig with non-existent path should have failed")
}

func TestLoadConfigInvalidJSON(t *testing.T) {
	path := writeConfig(t, `{ "invalid": json }`)
	assert.Error(t, LoadConfig(path))
}

func TestLoadConfigInvalidPort(t *testing.T) {
	path := writeConfig(t, `{"listen_port": 70000}`)
	assert.Error(t, LoadConfig(path))
}
