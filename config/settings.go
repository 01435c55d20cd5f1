// Package config provides bridge settings loaded from defaults, an optional
// config file and environment variables.
//
// Settings are created via New() which handles:
// - Default value application
// - Optional YAML/JSON/TOML config file (BRIDGE_CONFIG)
// - Environment overrides (OLLAMA_HOST, OLLAMA_MODEL_ID, ...)
// - Runtime alias normalization

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/richinex/ollamabridge/internal/logger"
	"github.com/richinex/ollamabridge/llm"
	"github.com/spf13/viper"
)

// ConfigFileEnv names the environment variable holding an optional config file path.
const ConfigFileEnv = "BRIDGE_CONFIG"

// Settings holds all application configuration.
type Settings struct {
	Runtime   string          `mapstructure:"runtime"`
	Ollama    OllamaConfig    `mapstructure:"ollama"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Workspace WorkspaceConfig `mapstructure:"workspace"`
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Log       logger.Config   `mapstructure:"log"`
}

// OllamaConfig holds native runtime configuration.
type OllamaConfig struct {
	Host    string `mapstructure:"host"`
	ModelID string `mapstructure:"model_id"`
}

// OpenAIConfig holds configuration for OpenAI-compatible local servers.
type OpenAIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// WorkspaceConfig holds the directory advertised to the model in tool schemas.
type WorkspaceConfig struct {
	Dir string `mapstructure:"dir"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// StorageConfig holds exchange log configuration. An empty DBPath disables it.
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// explicit env bindings that do not follow the SECTION_KEY convention
var envBindings = map[string][]string{
	"runtime":           {"BRIDGE_RUNTIME"},
	"ollama.host":       {"OLLAMA_HOST"},
	"ollama.model_id":   {"OLLAMA_MODEL_ID"},
	"openai.base_url":   {"OPENAI_BASE_URL"},
	"openai.api_key":    {"OPENAI_API_KEY"},
	"workspace.dir":     {"BRIDGE_WORKDIR"},
	"server.addr":       {"BRIDGE_ADDR"},
	"storage.db_path":   {"BRIDGE_DB_PATH"},
	"log.level":         {"BRIDGE_LOG_LEVEL"},
	"log.format":        {"BRIDGE_LOG_FORMAT"},
	"log.output":        {"BRIDGE_LOG_OUTPUT"},
	"log.file.filename": {"BRIDGE_LOG_FILE"},
}

// New creates settings for the given runtime. An empty runtime keeps the
// configured one. The config file named by BRIDGE_CONFIG is read when set.
func New(runtime string) (Settings, error) {
	return Load(runtime, os.Getenv(ConfigFileEnv))
}

// MustNew creates settings for the given runtime.
// Panics if the runtime is unknown or the configuration is invalid.
// Use this only when configuration errors should be fatal.
func MustNew(runtime string) Settings {
	settings, err := New(runtime)
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return settings
}

// Load creates settings for the given runtime, reading configFile when non-empty.
func Load(runtime, configFile string) (Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return Settings{}, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if runtime != "" {
		s.Runtime = runtime
	}
	rt, err := llm.ParseRuntimeType(s.Runtime)
	if err != nil {
		return Settings{}, err
	}
	s.Runtime = rt.String()

	s.Ollama.Host = NormalizeHost(s.Ollama.Host)
	if s.OpenAI.BaseURL == "" {
		s.OpenAI.BaseURL = s.Ollama.Host + "/v1"
	}

	if s.Workspace.Dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Settings{}, fmt.Errorf("failed to determine working directory: %w", err)
		}
		s.Workspace.Dir = wd
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks settings that would otherwise fail later at startup.
func (s Settings) Validate() error {
	if s.Server.Addr == "" {
		return errors.New("server.addr must not be empty")
	}
	if err := s.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

// RuntimeType returns the parsed runtime selection.
func (s Settings) RuntimeType() llm.RuntimeType {
	rt, _ := llm.ParseRuntimeType(s.Runtime)
	return rt
}

// SupportedRuntimes returns the canonical runtime names.
func SupportedRuntimes() []string {
	return []string{llm.RuntimeOllama.String(), llm.RuntimeOpenAI.String()}
}

func setDefaults(v *viper.Viper) {
	logDefaults := logger.DefaultConfig()

	v.SetDefault("runtime", llm.RuntimeOllama.String())
	v.SetDefault("ollama.host", llm.DefaultOllamaHost)
	v.SetDefault("ollama.model_id", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.api_key", "")
	v.SetDefault("workspace.dir", "")
	v.SetDefault("server.addr", "127.0.0.1:8089")
	v.SetDefault("storage.db_path", "")
	v.SetDefault("log.level", logDefaults.Level)
	v.SetDefault("log.format", logDefaults.Format)
	v.SetDefault("log.output", logDefaults.Output)
	v.SetDefault("log.enablestacktrace", logDefaults.EnableStacktrace)
	v.SetDefault("log.file.filename", logDefaults.File.Filename)
	v.SetDefault("log.file.maxsize", logDefaults.File.MaxSize)
	v.SetDefault("log.file.maxage", logDefaults.File.MaxAge)
	v.SetDefault("log.file.maxbackups", logDefaults.File.MaxBackups)
	v.SetDefault("log.file.compress", logDefaults.File.Compress)
}

// NormalizeHost accepts the bare host:port form Ollama itself understands and
// returns the default host when empty.
func NormalizeHost(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return llm.DefaultOllamaHost
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	return strings.TrimRight(host, "/")
}
