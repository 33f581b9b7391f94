// Package config loads MindMend configuration.
//
// Sources, lowest to highest priority: built-in defaults, config.yaml in the
// user config directory, the .env file in the user config directory, the .env
// file in the working directory, MINDMEND_* environment variables, and CLI flags
// bound by the caller.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"mindmend/internal/logger"
)

// AppName is used for the config directory and the environment prefix.
const AppName = "mindmend"

// Default endpoints of the hosted chat function.
const (
	DefaultLocalEndpoint      = "http://localhost:54321/functions/v1/chat"
	DefaultProductionEndpoint = "https://pgpxmtkzgifspotnjrpi.functions.supabase.co/chat"
)

// Configuration keys.
const (
	KeyProvider           = "provider"
	KeyAppHost            = "app_host"
	KeyEndpoint           = "endpoint"
	KeyLocalEndpoint      = "local_endpoint"
	KeyProductionEndpoint = "production_endpoint"
	KeyAccessToken        = "access_token"
	KeySessionFile        = "session_file"
	KeyAllowExtraContext  = "allow_extra_context"
	KeyHTTPTimeout        = "http_timeout"
	KeyStorageBackend     = "storage.backend"
	KeyStorageDir         = "storage.dir"
	KeyModel              = "model"
	KeySystemPrompt       = "system_prompt"
	KeyOpenAIAPIKey       = "openai_api_key"
	KeyAnthropicAPIKey    = "anthropic_api_key"
	KeyGeminiAPIKey       = "gemini_api_key"
	KeyMarkdown           = "markdown"
	KeyTestMode           = "test-mode"
)

var knownKeys = []string{
	KeyProvider, KeyAppHost, KeyEndpoint, KeyLocalEndpoint, KeyProductionEndpoint,
	KeyAccessToken, KeySessionFile, KeyAllowExtraContext, KeyHTTPTimeout,
	KeyStorageBackend, KeyStorageDir, KeyModel, KeySystemPrompt,
	KeyOpenAIAPIKey, KeyAnthropicAPIKey, KeyGeminiAPIKey, KeyMarkdown,
}

// DefaultSystemPrompt is sent to SDK-backed providers, which have no server-side persona.
const DefaultSystemPrompt = "You are MindMend, a warm and supportive wellbeing assistant for students. " +
	"Listen carefully, respond with empathy, suggest practical coping steps, and encourage reaching out " +
	"to counselors or emergency services when someone may be at risk."

// Config is the resolved configuration.
type Config struct {
	Provider           string
	AppHost            string
	Endpoint           string
	LocalEndpoint      string
	ProductionEndpoint string
	AccessToken        string
	SessionFile        string
	AllowExtraContext  bool
	HTTPTimeout        time.Duration
	StorageBackend     string
	StorageDir         string
	Model              string
	SystemPrompt       string
	OpenAIAPIKey       string
	AnthropicAPIKey    string
	GeminiAPIKey       string
	Markdown           bool
	TestMode           bool

	// ConfigDir is the directory config.yaml and .env were looked up in.
	ConfigDir string
}

// Options controls where Load looks for files. Empty fields use the user's directories.
type Options struct {
	ConfigDir  string
	WorkingDir string
	ConfigFile string
}

// EnvName returns the environment variable bound to a configuration key.
func EnvName(key string) string {
	return strings.ToUpper(AppName + "_" + strings.NewReplacer(".", "_", "-", "_").Replace(key))
}

// NewViper creates a viper instance with defaults and environment bindings.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyProvider, "endpoint")
	v.SetDefault(KeyAppHost, "")
	v.SetDefault(KeyLocalEndpoint, DefaultLocalEndpoint)
	v.SetDefault(KeyProductionEndpoint, DefaultProductionEndpoint)
	v.SetDefault(KeyAllowExtraContext, true)
	v.SetDefault(KeyHTTPTimeout, "60s")
	v.SetDefault(KeyStorageBackend, "file")
	v.SetDefault(KeyModel, "")
	v.SetDefault(KeySystemPrompt, DefaultSystemPrompt)
	v.SetDefault(KeyMarkdown, true)

	for _, key := range knownKeys {
		_ = v.BindEnv(key, EnvName(key))
	}
	// Conventional provider variables are honoured too.
	_ = v.BindEnv(KeyOpenAIAPIKey, EnvName(KeyOpenAIAPIKey), "OPENAI_API_KEY")
	_ = v.BindEnv(KeyAnthropicAPIKey, EnvName(KeyAnthropicAPIKey), "ANTHROPIC_API_KEY")
	_ = v.BindEnv(KeyGeminiAPIKey, EnvName(KeyGeminiAPIKey), "GOOGLE_API_KEY", "GEMINI_API_KEY")
	return v
}

// Load reads all configuration sources into v and resolves a Config.
func Load(v *viper.Viper, opts Options) (*Config, error) {
	configDir := opts.ConfigDir
	if configDir == "" {
		userDir, err := os.UserConfigDir()
		if err != nil {
			logger.Debug("User config directory unavailable", "error", err)
		} else {
			configDir = filepath.Join(userDir, AppName)
		}
	}
	workingDir := opts.WorkingDir
	if workingDir == "" {
		if wd, err := os.Getwd(); err == nil {
			workingDir = wd
		}
	}

	if err := readConfigFile(v, configDir, opts.ConfigFile); err != nil {
		return nil, err
	}

	// Config-dir .env first so the working-directory .env overrides it.
	for _, dir := range []string{configDir, workingDir} {
		if dir == "" {
			continue
		}
		if err := mergeDotEnv(v, filepath.Join(dir, ".env")); err != nil {
			return nil, err
		}
	}

	return resolve(v, configDir)
}

func readConfigFile(v *viper.Viper, configDir, explicit string) error {
	switch {
	case explicit != "":
		v.SetConfigFile(explicit)
	case configDir != "":
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	default:
		return nil
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || (explicit == "" && errors.Is(err, os.ErrNotExist)) {
			logger.Debug("No config file found", "dir", configDir)
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	logger.Debug("Config file loaded", "path", v.ConfigFileUsed())
	return nil
}

// mergeDotEnv maps MINDMEND_* entries of a .env file onto configuration keys.
// Values land in the config layer, so real environment variables still win.
func mergeDotEnv(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		logger.Debug("Failed to read .env file", "path", path, "error", err)
		return nil
	}

	envMap, err := godotenv.Unmarshal(string(data))
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	values := make(map[string]interface{})
	for _, key := range knownKeys {
		if value, ok := envMap[EnvName(key)]; ok {
			setNested(values, key, value)
		}
	}
	if len(values) == 0 {
		return nil
	}
	if err := v.MergeConfigMap(values); err != nil {
		return fmt.Errorf("failed to merge %s: %w", path, err)
	}
	logger.Debug("Loaded .env file", "path", path, "keys", len(values))
	return nil
}

func setNested(m map[string]interface{}, key, value string) {
	parts := strings.Split(key, ".")
	for _, part := range parts[:len(parts)-1] {
		next, ok := m[part].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			m[part] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = value
}

func resolve(v *viper.Viper, configDir string) (*Config, error) {
	timeout, err := parseTimeout(v.Get(KeyHTTPTimeout))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", KeyHTTPTimeout, err)
	}

	storageDir := v.GetString(KeyStorageDir)
	if storageDir == "" && configDir != "" {
		storageDir = filepath.Join(configDir, "state")
	}

	cfg := &Config{
		Provider:           strings.ToLower(strings.TrimSpace(v.GetString(KeyProvider))),
		AppHost:            v.GetString(KeyAppHost),
		LocalEndpoint:      v.GetString(KeyLocalEndpoint),
		ProductionEndpoint: v.GetString(KeyProductionEndpoint),
		AccessToken:        v.GetString(KeyAccessToken),
		SessionFile:        v.GetString(KeySessionFile),
		AllowExtraContext:  v.GetBool(KeyAllowExtraContext),
		HTTPTimeout:        timeout,
		StorageBackend:     strings.ToLower(v.GetString(KeyStorageBackend)),
		StorageDir:         storageDir,
		Model:              v.GetString(KeyModel),
		SystemPrompt:       v.GetString(KeySystemPrompt),
		OpenAIAPIKey:       v.GetString(KeyOpenAIAPIKey),
		AnthropicAPIKey:    v.GetString(KeyAnthropicAPIKey),
		GeminiAPIKey:       v.GetString(KeyGeminiAPIKey),
		Markdown:           v.GetBool(KeyMarkdown),
		TestMode:           v.GetBool(KeyTestMode),
		ConfigDir:          configDir,
	}
	cfg.Endpoint = ResolveEndpoint(cfg.AppHost, v.GetString(KeyEndpoint), cfg.LocalEndpoint, cfg.ProductionEndpoint)

	logger.Debug("Configuration resolved",
		"provider", cfg.Provider,
		"endpoint", cfg.Endpoint,
		"storage", cfg.StorageBackend,
		"storage_dir", cfg.StorageDir,
		"timeout", cfg.HTTPTimeout.String())
	return cfg, nil
}

// parseTimeout reads a timeout setting. Bare numbers are seconds ("90", or 90
// from YAML); anything else is a Go duration ("90s", "2m").
func parseTimeout(raw interface{}) (time.Duration, error) {
	if s, ok := raw.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, nil
		}
		raw = s
	}
	if raw == nil {
		return 0, nil
	}
	if seconds, err := cast.ToIntE(raw); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	return cast.ToDurationE(raw)
}

// ResolveEndpoint picks the inference endpoint once at startup.
// An explicit override wins; otherwise a loopback app host selects the local
// development endpoint and anything else the production endpoint.
func ResolveEndpoint(appHost, override, local, production string) string {
	if strings.TrimSpace(override) != "" {
		return strings.TrimSpace(override)
	}
	if IsLoopbackHost(appHost) {
		return local
	}
	return production
}

// IsLoopbackHost reports whether host names the local machine.
func IsLoopbackHost(host string) bool {
	host = strings.TrimSpace(host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
