package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolatedOptions(t *testing.T) Options {
	t.Helper()
	return Options{ConfigDir: t.TempDir(), WorkDir: t.TempDir()}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, b := range bindings {
		for _, name := range b.envs {
			if val, ok := os.LookupEnv(name); ok {
				require.NoError(t, os.Unsetenv(name))
				t.Cleanup(func() { _ = os.Setenv(name, val) })
			}
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(viper.New(), isolatedOptions(t))
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Equal(t, "json", cfg.StorageDriver)
	assert.Equal(t, filepath.Join(".codi", "conversations"), cfg.StoragePath)
	assert.True(t, cfg.Autosave)
	assert.Equal(t, ":8000", cfg.HTTPAddr)
	assert.Equal(t, 2*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, 100*time.Millisecond, cfg.HeartbeatTick)
}

func TestLoadPrecedence(t *testing.T) {
	clearEnv(t)
	opts := isolatedOptions(t)

	require.NoError(t, os.WriteFile(filepath.Join(opts.ConfigDir, ".env"),
		[]byte("OPENAI_API_KEY=from-config-dir\nGITHUB_REPO=acme/tools\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(opts.WorkDir, ".env"),
		[]byte("OPENAI_API_KEY=from-local\nCODI_MODEL=gpt-4o-mini\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(opts.WorkDir, "codi.yaml"),
		[]byte("provider: anthropic\nheartbeat:\n  interval: 3s\n"), 0600))
	t.Setenv("ANTHROPIC_API_KEY", "from-env")

	cfg, err := Load(viper.New(), opts)
	require.NoError(t, err)

	assert.Equal(t, "from-local", cfg.OpenAIKey)
	assert.Equal(t, "acme/tools", cfg.GitHubRepo)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, 3*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, "from-env", cfg.AnthropicKey)
	assert.Equal(t, "from-env", cfg.APIKeyFor("anthropic"))
}

func TestLoadMissingExplicitConfigFile(t *testing.T) {
	clearEnv(t)
	opts := isolatedOptions(t)
	opts.ConfigFile = filepath.Join(opts.WorkDir, "missing.yaml")

	_, err := Load(viper.New(), opts)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{
		Provider:          "openai",
		OpenAIKey:         "sk-test",
		StorageDriver:     "json",
		HeartbeatInterval: time.Second,
		HeartbeatTick:     time.Millisecond,
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown provider", func(c *Config) { c.Provider = "cohere" }, "unsupported provider"},
		{"missing key", func(c *Config) { c.OpenAIKey = "" }, "missing API key"},
		{"bad driver", func(c *Config) { c.StorageDriver = "redis" }, "unsupported conversation driver"},
		{"zero tick", func(c *Config) { c.HeartbeatTick = 0 }, "heartbeat"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	local := valid
	local.Provider = "local"
	local.OpenAIKey = ""
	assert.NoError(t, local.Validate())
}

func TestValidateGitHub(t *testing.T) {
	assert.Error(t, (&Config{GitHubRepo: "a/b"}).ValidateGitHub())
	assert.Error(t, (&Config{GitHubToken: "t", GitHubRepo: "nope"}).ValidateGitHub())
	assert.NoError(t, (&Config{GitHubToken: "t", GitHubRepo: "a/b"}).ValidateGitHub())
}

func TestHasSlack(t *testing.T) {
	assert.False(t, (&Config{SlackBotToken: "x"}).HasSlack())
	assert.True(t, (&Config{SlackBotToken: "x", SlackAppToken: "y"}).HasSlack())
}
