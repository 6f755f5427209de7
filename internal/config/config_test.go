package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(tmp, "state"))
	t.Setenv(EnvPrefix+"CONFIG_PATH", "")
	reset()
	return tmp
}

func TestLoadAndGet(t *testing.T) {
	isolate(t)
	Load()

	require.Equal(t, "default", Get("missing", "default"))
	require.Equal(t, "sqlite", Get("storage_backend", ""))
	require.Equal(t, "none", Get("grouping_default", ""))
	require.Equal(t, 0, GetInt("offline_max_attempts", -1))
	require.Equal(t, 30*time.Second, GetDuration("request_timeout", 0))
	require.Equal(t, time.Duration(0), GetDuration("status_cache_ttl", time.Hour))
	require.True(t, GetBool("preferences_mirror", false))
	require.Equal(t, "id", Get("dedup.criteria", ""))
}

func TestDirectoriesFollowXDG(t *testing.T) {
	tmp := isolate(t)
	Load()

	require.Equal(t, filepath.Join(tmp, "config", "portal-inbox"), Get("config_dir", ""))
	require.Equal(t, filepath.Join(tmp, "state", "portal-inbox"), Get("state_dir", ""))
	require.Equal(t, filepath.Join(tmp, "config", "portal-inbox", "hooks"), Get("hooks_dir", ""))
}

func TestConfigLoadingPrecedence(t *testing.T) {
	tmp := isolate(t)

	configFile := filepath.Join(tmp, "custom.toml")
	content := `
api_base_url = "https://portal.example.edu/api/"
poll_interval = "5m"
storage_backend = "file"
offline_max_attempts = 7

[dedup]
criteria = "content"
window = "10m"
`
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0644))
	t.Setenv(EnvPrefix+"CONFIG_PATH", configFile)
	t.Setenv(EnvPrefix+"POLL_INTERVAL", "90s")
	t.Setenv(EnvPrefix+"DEDUP__WINDOW", "1m")

	Load()

	require.Equal(t, "https://portal.example.edu/api", Get("api_base_url", ""), "trailing slash is stripped")
	require.Equal(t, 90*time.Second, GetDuration("poll_interval", 0), "environment should override config file")
	require.Equal(t, "file", Get("storage_backend", ""))
	require.Equal(t, 7, GetInt("offline_max_attempts", 0))
	require.Equal(t, "content", Get("dedup.criteria", ""))
	require.Equal(t, "1m0s", Get("dedup.window", ""))
}

func TestInvalidValuesFallBackToDefaults(t *testing.T) {
	isolate(t)
	t.Setenv(EnvPrefix+"STORAGE_BACKEND", "postgres")
	t.Setenv(EnvPrefix+"GROUPING_DEFAULT", "weekly")
	t.Setenv(EnvPrefix+"OFFLINE_MAX_ATTEMPTS", "-3")
	t.Setenv(EnvPrefix+"REQUEST_TIMEOUT", "soon")
	t.Setenv(EnvPrefix+"API_BASE_URL", "ftp://nope")
	t.Setenv(EnvPrefix+"HOOKS_ENABLED", "maybe")

	Load()

	require.Equal(t, "sqlite", Get("storage_backend", ""))
	require.Equal(t, "none", Get("grouping_default", ""))
	require.Equal(t, "0", Get("offline_max_attempts", ""))
	require.Equal(t, "30s", Get("request_timeout", ""))
	require.Equal(t, "http://localhost:3000/api", Get("api_base_url", ""))
	require.True(t, GetBool("hooks_enabled", false))
}

func TestBoolNormalization(t *testing.T) {
	isolate(t)
	t.Setenv(EnvPrefix+"DEBUG", "YES")
	t.Setenv(EnvPrefix+"QUIET", "0")

	Load()

	require.Equal(t, "true", Get("debug", ""))
	require.True(t, GetBool("debug", false))
	require.False(t, GetBool("quiet", true))
}

func TestSampleConfigIsCreatedWithoutToken(t *testing.T) {
	isolate(t)
	Load()

	path := filepath.Join(Get("config_dir", ""), "config.toml")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "portal-inbox configuration")
	require.Contains(t, string(data), "storage_backend")
	require.NotContains(t, string(data), "api_token =")
}

func TestSetOverridesValue(t *testing.T) {
	isolate(t)
	Load()

	Set("grouping_default", "daily")
	require.Equal(t, "daily", Get("grouping_default", ""))
}

func TestRegisterValidatorPanicsOnDuplicate(t *testing.T) {
	require.Panics(t, func() {
		RegisterValidator("storage_backend", BoolValidator())
	})
}

func TestValidators(t *testing.T) {
	tests := []struct {
		name      string
		validator Validator
		value     string
		def       string
		want      string
	}{
		{"positive ok", PositiveIntValidator(), "5", "10", "5"},
		{"positive zero", PositiveIntValidator(), "0", "10", "10"},
		{"non-negative zero", NonNegativeIntValidator(), "0", "3", "0"},
		{"enum case", EnumValidator(map[string]bool{"daily": true}), "DAILY", "none", "daily"},
		{"duration empty allowed", DurationValidator(true), "", "1h", ""},
		{"duration empty default", DurationValidator(false), "", "1h", "1h"},
		{"duration normalized", DurationValidator(false), "90s", "1h", "1m30s"},
		{"url ok", URLValidator(), "http://x.test/api/", "d", "http://x.test/api"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.validator("k", tt.value, tt.def)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
