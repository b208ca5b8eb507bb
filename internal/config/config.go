// Package config loads Codi settings from defaults, .env files, an optional
// config file, environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Viper keys.
const (
	KeyProvider          = "provider"
	KeyModel             = "model"
	KeyOpenAIKey         = "openai.api_key"
	KeyAnthropicKey      = "anthropic.api_key"
	KeyGoogleKey         = "gemini.api_key"
	KeyLocalBaseURL      = "local.base_url"
	KeyLocalToken        = "local.token"
	KeySlackBotToken     = "slack.bot_token"
	KeySlackAppToken     = "slack.app_token"
	KeyGitHubToken       = "github.token"
	KeyGitHubRepo        = "github.repo"
	KeyWorkspace         = "workspace"
	KeyStorageDriver     = "conversation.driver"
	KeyStoragePath       = "conversation.path"
	KeyAutosave          = "conversation.autosave"
	KeyHTTPAddr          = "http.addr"
	KeyHeartbeatInterval = "heartbeat.interval"
	KeyHeartbeatTick     = "heartbeat.tick"
	KeyMaxFileBytes      = "workspace_max_file_bytes"
	KeyTestMode          = "test-mode"
	KeyDebugHTTP         = "debug-http"
)

// binding maps a viper key to the environment variables that can set it.
type binding struct {
	key  string
	envs []string
}

var bindings = []binding{
	{KeyProvider, []string{"CODI_PROVIDER"}},
	{KeyModel, []string{"CODI_MODEL", "OPENAI_MODEL"}},
	{KeyOpenAIKey, []string{"CODI_OPENAI_API_KEY", "OPENAI_API_KEY"}},
	{KeyAnthropicKey, []string{"CODI_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY"}},
	{KeyGoogleKey, []string{"CODI_GOOGLE_API_KEY", "GOOGLE_API_KEY"}},
	{KeyLocalBaseURL, []string{"CODI_LOCAL_BASE_URL"}},
	{KeyLocalToken, []string{"CODI_LOCAL_TOKEN"}},
	{KeySlackBotToken, []string{"CODI_SLACK_BOT_TOKEN", "SLACK_BOT_TOKEN"}},
	{KeySlackAppToken, []string{"CODI_SLACK_APP_TOKEN", "SLACK_APP_TOKEN"}},
	{KeyGitHubToken, []string{"CODI_GITHUB_TOKEN", "GITHUB_TOKEN"}},
	{KeyGitHubRepo, []string{"CODI_GITHUB_REPO", "GITHUB_REPO"}},
	{KeyWorkspace, []string{"CODI_WORKSPACE"}},
	{KeyStorageDriver, []string{"CODI_CONVERSATION_DRIVER"}},
	{KeyStoragePath, []string{"CODI_CONVERSATION_PATH"}},
	{KeyAutosave, []string{"CODI_CONVERSATION_AUTOSAVE"}},
	{KeyHTTPAddr, []string{"CODI_HTTP_ADDR"}},
	{KeyHeartbeatInterval, []string{"CODI_HEARTBEAT_INTERVAL"}},
	{KeyHeartbeatTick, []string{"CODI_HEARTBEAT_TICK"}},
	{KeyMaxFileBytes, []string{"CODI_WORKSPACE_MAX_FILE_BYTES"}},
	{KeyDebugHTTP, []string{"CODI_DEBUG_HTTP"}},
}

// Config is the resolved configuration.
type Config struct {
	Provider string
	Model    string

	OpenAIKey    string
	AnthropicKey string
	GoogleKey    string
	LocalBaseURL string
	LocalToken   string

	SlackBotToken string
	SlackAppToken string

	GitHubToken string
	GitHubRepo  string

	Workspace     string
	StorageDriver string
	StoragePath   string
	Autosave      bool

	HTTPAddr string

	HeartbeatInterval time.Duration
	HeartbeatTick     time.Duration
	MaxFileBytes      int64

	TestMode  bool
	DebugHTTP bool
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyProvider, "openai")
	v.SetDefault(KeyModel, "gpt-4o")
	v.SetDefault(KeyLocalBaseURL, "http://localhost:11434/v1/")
	v.SetDefault(KeyLocalToken, "local")
	v.SetDefault(KeyStorageDriver, "json")
	v.SetDefault(KeyStoragePath, filepath.Join(".codi", "conversations"))
	v.SetDefault(KeyAutosave, true)
	v.SetDefault(KeyHTTPAddr, ":8000")
	v.SetDefault(KeyHeartbeatInterval, 2*time.Second)
	v.SetDefault(KeyHeartbeatTick, 100*time.Millisecond)
	v.SetDefault(KeyMaxFileBytes, int64(256*1024))
}

// Options locate the optional files read by Load.
type Options struct {
	// ConfigFile is an explicit config file path. When empty, codi.yaml is
	// searched in the working directory and in ConfigDir.
	ConfigFile string
	// ConfigDir holds the user-level .env and config file. Defaults to $XDG_CONFIG_HOME/codi.
	ConfigDir string
	// WorkDir holds the project-level .env. Defaults to the working directory.
	WorkDir string
}

// Load resolves a Config from v. Flags must already be bound to v.
func Load(v *viper.Viper, opts Options) (*Config, error) {
	SetDefaults(v)

	if opts.ConfigDir == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			opts.ConfigDir = filepath.Join(dir, "codi")
		}
	}
	if opts.WorkDir == "" {
		if wd, err := os.Getwd(); err == nil {
			opts.WorkDir = wd
		}
	}

	// Later files win over earlier ones; both sit below the config file and real env vars.
	for _, dir := range []string{opts.ConfigDir, opts.WorkDir} {
		if dir == "" {
			continue
		}
		if err := applyDotEnv(v, filepath.Join(dir, ".env")); err != nil {
			return nil, err
		}
	}

	if err := readConfigFile(v, opts); err != nil {
		return nil, err
	}

	for _, b := range bindings {
		if err := v.BindEnv(append([]string{b.key}, b.envs...)...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", b.key, err)
		}
	}

	return fromViper(v), nil
}

func applyDotEnv(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read .env file %s: %w", path, err)
	}

	envMap, err := godotenv.Unmarshal(string(data))
	if err != nil {
		return fmt.Errorf("failed to parse .env file %s: %w", path, err)
	}

	for _, b := range bindings {
		// Walk names from least to most specific so CODI_ prefixed names win.
		for i := len(b.envs) - 1; i >= 0; i-- {
			if val, ok := envMap[b.envs[i]]; ok {
				v.SetDefault(b.key, val)
			}
		}
	}
	return nil
}

func readConfigFile(v *viper.Viper, opts Options) error {
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("codi")
		v.SetConfigType("yaml")
		v.AddConfigPath(opts.WorkDir)
		if opts.ConfigDir != "" {
			v.AddConfigPath(opts.ConfigDir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && opts.ConfigFile == "" {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Provider:          strings.ToLower(v.GetString(KeyProvider)),
		Model:             v.GetString(KeyModel),
		OpenAIKey:         v.GetString(KeyOpenAIKey),
		AnthropicKey:      v.GetString(KeyAnthropicKey),
		GoogleKey:         v.GetString(KeyGoogleKey),
		LocalBaseURL:      v.GetString(KeyLocalBaseURL),
		LocalToken:        v.GetString(KeyLocalToken),
		SlackBotToken:     v.GetString(KeySlackBotToken),
		SlackAppToken:     v.GetString(KeySlackAppToken),
		GitHubToken:       v.GetString(KeyGitHubToken),
		GitHubRepo:        v.GetString(KeyGitHubRepo),
		Workspace:         v.GetString(KeyWorkspace),
		StorageDriver:     strings.ToLower(v.GetString(KeyStorageDriver)),
		StoragePath:       v.GetString(KeyStoragePath),
		Autosave:          v.GetBool(KeyAutosave),
		HTTPAddr:          v.GetString(KeyHTTPAddr),
		HeartbeatInterval: v.GetDuration(KeyHeartbeatInterval),
		HeartbeatTick:     v.GetDuration(KeyHeartbeatTick),
		MaxFileBytes:      v.GetInt64(KeyMaxFileBytes),
		TestMode:          v.GetBool(KeyTestMode),
		DebugHTTP:         v.GetBool(KeyDebugHTTP),
	}
}

// APIKeyFor returns the credential configured for provider.
func (c *Config) APIKeyFor(provider string) string {
	switch provider {
	case "openai":
		return c.OpenAIKey
	case "anthropic":
		return c.AnthropicKey
	case "gemini":
		return c.GoogleKey
	case "local":
		return c.LocalToken
	}
	return ""
}

// HasSlack reports whether both Slack tokens are set.
func (c *Config) HasSlack() bool {
	return c.SlackBotToken != "" && c.SlackAppToken != ""
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	var problems []string

	switch c.Provider {
	case "openai", "anthropic", "gemini", "local":
	default:
		problems = append(problems, fmt.Sprintf("unsupported provider %q (openai, anthropic, gemini, local)", c.Provider))
	}
	if c.Provider != "local" && c.APIKeyFor(c.Provider) == "" && !c.TestMode {
		problems = append(problems, fmt.Sprintf("missing API key for provider %q", c.Provider))
	}

	switch c.StorageDriver {
	case "json", "sqlite":
	default:
		problems = append(problems, fmt.Sprintf("unsupported conversation driver %q (json, sqlite)", c.StorageDriver))
	}

	if c.HeartbeatInterval <= 0 || c.HeartbeatTick <= 0 {
		problems = append(problems, "heartbeat interval and tick must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ValidateGitHub checks the settings needed to open pull requests.
func (c *Config) ValidateGitHub() error {
	if c.GitHubToken == "" {
		return errors.New("GITHUB_TOKEN must be set")
	}
	if parts := strings.Split(c.GitHubRepo, "/"); len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return fmt.Errorf("GITHUB_REPO must be owner/repo, got %q", c.GitHubRepo)
	}
	return nil
}
