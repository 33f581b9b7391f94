package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, configDir, workingDir string) *Config {
	t.Helper()
	cfg, err := Load(NewViper(), Options{ConfigDir: configDir, WorkingDir: workingDir})
	require.NoError(t, err)
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	configDir := t.TempDir()
	cfg := load(t, configDir, t.TempDir())

	assert.Equal(t, "endpoint", cfg.Provider)
	assert.Equal(t, DefaultProductionEndpoint, cfg.Endpoint)
	assert.True(t, cfg.AllowExtraContext)
	assert.Equal(t, 60*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "file", cfg.StorageBackend)
	assert.Equal(t, filepath.Join(configDir, "state"), cfg.StorageDir)
	assert.Equal(t, DefaultSystemPrompt, cfg.SystemPrompt)
	assert.True(t, cfg.Markdown)
	assert.False(t, cfg.TestMode)
}

func TestLoad_ConfigFile(t *testing.T) {
	configDir := t.TempDir()
	yaml := "provider: openai\nmodel: gpt-4o-mini\nstorage:\n  backend: sqlite\n  dir: /var/lib/mindmend\nhttp_timeout: 15s\n"
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(yaml), 0600))

	cfg := load(t, configDir, t.TempDir())
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, "sqlite", cfg.StorageBackend)
	assert.Equal(t, "/var/lib/mindmend", cfg.StorageDir)
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout)
}

func TestLoad_ExplicitConfigFileMissing(t *testing.T) {
	_, err := Load(NewViper(), Options{
		ConfigDir:  t.TempDir(),
		WorkingDir: t.TempDir(),
		ConfigFile: filepath.Join(t.TempDir(), "nope.yaml"),
	})
	assert.Error(t, err)
}

func TestLoad_DotEnvPrecedence(t *testing.T) {
	configDir := t.TempDir()
	workingDir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte("model: from-yaml\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, ".env"),
		[]byte("MINDMEND_MODEL=from-config-env\nMINDMEND_ACCESS_TOKEN=config-token\nMINDMEND_STORAGE_BACKEND=memory\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(workingDir, ".env"),
		[]byte("MINDMEND_MODEL=from-local-env\nUNRELATED=ignored\n"), 0600))

	cfg := load(t, configDir, workingDir)
	assert.Equal(t, "from-local-env", cfg.Model)
	assert.Equal(t, "config-token", cfg.AccessToken)
	assert.Equal(t, "memory", cfg.StorageBackend)

	t.Setenv("MINDMEND_MODEL", "from-os-env")
	cfg = load(t, configDir, workingDir)
	assert.Equal(t, "from-os-env", cfg.Model)
}

func TestLoad_ProviderKeyFallbacks(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("GOOGLE_API_KEY", "g-key")

	cfg := load(t, t.TempDir(), t.TempDir())
	assert.Equal(t, "sk-openai", cfg.OpenAIAPIKey)
	assert.Equal(t, "sk-ant", cfg.AnthropicAPIKey)
	assert.Equal(t, "g-key", cfg.GeminiAPIKey)
}

func TestLoad_LoopbackHostSelectsLocalEndpoint(t *testing.T) {
	t.Setenv("MINDMEND_APP_HOST", "127.0.0.1:8080")
	cfg := load(t, t.TempDir(), t.TempDir())
	assert.Equal(t, DefaultLocalEndpoint, cfg.Endpoint)
}

func TestLoad_InvalidTimeout(t *testing.T) {
	t.Setenv("MINDMEND_HTTP_TIMEOUT", "soon")
	_, err := Load(NewViper(), Options{ConfigDir: t.TempDir(), WorkingDir: t.TempDir()})
	assert.Error(t, err)
}

func TestResolveEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		override string
		expected string
	}{
		{"localhost", "localhost", "", "local"},
		{"ipv4 loopback", "127.0.0.1", "", "local"},
		{"ipv6 loopback with port", "[::1]:3000", "", "local"},
		{"public host", "mindmend.example.edu", "", "prod"},
		{"empty host", "", "", "prod"},
		{"override wins", "localhost", " https://staging/chat ", "https://staging/chat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolveEndpoint(tt.host, tt.override, "local", "prod"))
		})
	}
}

func TestParseTimeout(t *testing.T) {
	tests := []struct {
		name    string
		raw     interface{}
		want    time.Duration
		wantErr bool
	}{
		{name: "bare seconds string", raw: "90", want: 90 * time.Second},
		{name: "bare seconds from yaml", raw: 30, want: 30 * time.Second},
		{name: "go duration", raw: "2m", want: 2 * time.Minute},
		{name: "padded duration", raw: " 15s ", want: 15 * time.Second},
		{name: "empty", raw: "", want: 0},
		{name: "unset", raw: nil, want: 0},
		{name: "garbage", raw: "90x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := parseTimeout(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d)
		})
	}
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "MINDMEND_STORAGE_BACKEND", EnvName(KeyStorageBackend))
	assert.Equal(t, "MINDMEND_ALLOW_EXTRA_CONTEXT", EnvName(KeyAllowExtraContext))
	assert.Equal(t, "MINDMEND_TEST_MODE", EnvName(KeyTestMode))
}
