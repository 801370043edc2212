package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// PlaceholderAPIKey is the value shipped in sample configs. It never enables
// remote completions.
const PlaceholderAPIKey = "your-openai-api-key-here"

// DefaultPath is where the widget looks for its configuration when no path
// is given, relative to the working directory.
const DefaultPath = "config/api-keys.json"

// Config holds all application configuration
type Config struct {
	ConfigPath string        `mapstructure:"-" yaml:"-"`
	OpenAI     OpenAIConfig  `mapstructure:"openai" yaml:"openai"`
	Chatbot    ChatbotConfig `mapstructure:"chatbot" yaml:"chatbot"`
	Server     ServerConfig  `mapstructure:"server" yaml:"server"`
	Storage    StorageConfig `mapstructure:"storage" yaml:"storage"`
	LogLevel   string        `mapstructure:"logLevel" yaml:"logLevel"`
}

// OpenAIConfig holds completion service configuration.
// Works with OpenAI and any OpenAI-compatible API via BaseURL.
type OpenAIConfig struct {
	APIKey      string        `mapstructure:"apiKey" yaml:"apiKey"`
	Model       string        `mapstructure:"model" yaml:"model"`
	MaxTokens   int           `mapstructure:"maxTokens" yaml:"maxTokens"`
	Temperature float32       `mapstructure:"temperature" yaml:"temperature"`
	BaseURL     string        `mapstructure:"baseURL" yaml:"baseURL,omitempty"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty"` // 0 = no timeout
}

// ChatbotConfig holds widget presentation settings
type ChatbotConfig struct {
	Name             string `mapstructure:"name" yaml:"name"`
	WelcomeMessage   string `mapstructure:"welcomeMessage" yaml:"welcomeMessage"`
	MaxHistoryLength int    `mapstructure:"maxHistoryLength" yaml:"maxHistoryLength"`
}

// ServerConfig holds HTTP embedding API configuration
type ServerConfig struct {
	Port      int    `mapstructure:"port" yaml:"port"`
	APIKey    string `mapstructure:"apiKey" yaml:"apiKey,omitempty"` // Empty = no auth
	RateLimit int    `mapstructure:"rateLimit" yaml:"rateLimit"`     // Messages per minute per session
}

// StorageConfig holds optional transcript persistence settings
type StorageConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// HasUsableKey reports whether the key can enable remote completions.
func (c OpenAIConfig) HasUsableKey() bool {
	key := strings.TrimSpace(c.APIKey)
	return key != "" && key != PlaceholderAPIKey
}

// Default returns the built-in configuration used when no file can be read.
// It carries no API key, so remote completions stay disabled.
func Default() *Config {
	return &Config{
		OpenAI: OpenAIConfig{
			Model:       "gpt-3.5-turbo",
			MaxTokens:   500,
			Temperature: 0.7,
		},
		Chatbot: ChatbotConfig{
			Name:             "AI Assistant",
			WelcomeMessage:   "Hello! I'm your AI Assistant. How can I help you today?",
			MaxHistoryLength: 50,
		},
		Server: ServerConfig{
			Port:      8080,
			RateLimit: 20,
		},
		Storage: StorageConfig{
			Path: "~/.chatwidget/transcripts.db",
		},
		LogLevel: "info",
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	d := Default()

	// Set defaults
	v.SetDefault("logLevel", d.LogLevel)
	v.SetDefault("openai.apiKey", "")
	v.SetDefault("openai.model", d.OpenAI.Model)
	v.SetDefault("openai.maxTokens", d.OpenAI.MaxTokens)
	v.SetDefault("openai.temperature", d.OpenAI.Temperature)
	v.SetDefault("openai.baseURL", "")
	v.SetDefault("openai.timeout", time.Duration(0))
	v.SetDefault("chatbot.name", d.Chatbot.Name)
	v.SetDefault("chatbot.welcomeMessage", d.Chatbot.WelcomeMessage)
	v.SetDefault("chatbot.maxHistoryLength", d.Chatbot.MaxHistoryLength)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.apiKey", "")
	v.SetDefault("server.rateLimit", d.Server.RateLimit)
	v.SetDefault("storage.enabled", d.Storage.Enabled)
	v.SetDefault("storage.path", d.Storage.Path)

	// Environment variable prefix: CHATWIDGET_OPENAI_APIKEY etc.
	v.SetEnvPrefix("CHATWIDGET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// LoadFrom reads configuration from a specific file path
func LoadFrom(configPath string) (*Config, error) {
	v := newViper()

	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Storage.Path = expandPath(cfg.Storage.Path)
	cfg.ConfigPath = configPath

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath, err)
	}

	return &cfg, nil
}

// Locate returns the config file to use when none is named: DefaultPath if it
// exists, else the first of ~/.chatwidget/config.{json,yaml,yml}. It returns
// DefaultPath when nothing exists.
func Locate() string {
	if _, err := os.Stat(DefaultPath); err == nil {
		return DefaultPath
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		base := filepath.Join(homeDir, ".chatwidget", "config")
		for _, ext := range []string{".json", ".yaml", ".yml"} {
			if _, err := os.Stat(base + ext); err == nil {
				return base + ext
			}
		}
	}
	return DefaultPath
}

// Load reads the file found by Locate. Without one, it returns the defaults
// with environment overrides applied.
func Load() (*Config, error) {
	path := Locate()
	if _, err := os.Stat(path); err == nil {
		return LoadFrom(path)
	}

	v := newViper()
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Storage.Path = expandPath(cfg.Storage.Path)
	return &cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.OpenAI.Model == "" {
		return fmt.Errorf("openai.model is required")
	}

	if c.OpenAI.MaxTokens <= 0 {
		return fmt.Errorf("openai.maxTokens must be positive, got %d", c.OpenAI.MaxTokens)
	}

	if c.OpenAI.Temperature < 0 || c.OpenAI.Temperature > 2 {
		return fmt.Errorf("openai.temperature must be within [0, 2], got %v", c.OpenAI.Temperature)
	}

	if c.Chatbot.MaxHistoryLength <= 0 {
		return fmt.Errorf("chatbot.maxHistoryLength must be positive, got %d", c.Chatbot.MaxHistoryLength)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d", c.Server.Port)
	}

	if c.Storage.Enabled && c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required when storage is enabled")
	}

	return nil
}

// Save writes the current configuration to file
func (c *Config) Save() error {
	if c.ConfigPath == "" {
		return fmt.Errorf("config path not set")
	}

	if err := os.MkdirAll(filepath.Dir(c.ConfigPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(c.ConfigPath)

	v.Set("openai.apiKey", c.OpenAI.APIKey)
	v.Set("openai.model", c.OpenAI.Model)
	v.Set("openai.maxTokens", c.OpenAI.MaxTokens)
	v.Set("openai.temperature", c.OpenAI.Temperature)
	if c.OpenAI.BaseURL != "" {
		v.Set("openai.baseURL", c.OpenAI.BaseURL)
	}
	if c.OpenAI.Timeout > 0 {
		v.Set("openai.timeout", c.OpenAI.Timeout.String())
	}
	v.Set("chatbot.name", c.Chatbot.Name)
	v.Set("chatbot.welcomeMessage", c.Chatbot.WelcomeMessage)
	v.Set("chatbot.maxHistoryLength", c.Chatbot.MaxHistoryLength)
	v.Set("server.port", c.Server.Port)
	v.Set("server.apiKey", c.Server.APIKey)
	v.Set("server.rateLimit", c.Server.RateLimit)
	v.Set("storage.enabled", c.Storage.Enabled)
	v.Set("storage.path", c.Storage.Path)
	v.Set("logLevel", c.LogLevel)

	return v.WriteConfig()
}

// Set assigns one dotted key from its string form, as typed on the command line.
func (c *Config) Set(key, value string) error {
	atoi := func() (int, error) {
		n, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("%s must be an integer: %w", key, err)
		}
		return n, nil
	}

	switch key {
	case "openai.apiKey":
		c.OpenAI.APIKey = value
	case "openai.model":
		c.OpenAI.Model = value
	case "openai.baseURL":
		c.OpenAI.BaseURL = value
	case "openai.maxTokens":
		n, err := atoi()
		if err != nil {
			return err
		}
		c.OpenAI.MaxTokens = n
	case "openai.temperature":
		f, err := strconv.ParseFloat(value, 32)
		if err != nil {
			return fmt.Errorf("%s must be a number: %w", key, err)
		}
		c.OpenAI.Temperature = float32(f)
	case "openai.timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%s must be a duration: %w", key, err)
		}
		c.OpenAI.Timeout = d
	case "chatbot.name":
		c.Chatbot.Name = value
	case "chatbot.welcomeMessage":
		c.Chatbot.WelcomeMessage = value
	case "chatbot.maxHistoryLength":
		n, err := atoi()
		if err != nil {
			return err
		}
		c.Chatbot.MaxHistoryLength = n
	case "server.port":
		n, err := atoi()
		if err != nil {
			return err
		}
		c.Server.Port = n
	case "server.apiKey":
		c.Server.APIKey = value
	case "server.rateLimit":
		n, err := atoi()
		if err != nil {
			return err
		}
		c.Server.RateLimit = n
	case "storage.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s must be true or false: %w", key, err)
		}
		c.Storage.Enabled = b
	case "storage.path":
		c.Storage.Path = expandPath(value)
	case "logLevel":
		c.LogLevel = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[2:])
	}
	return path
}
