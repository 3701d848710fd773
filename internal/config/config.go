// Package config handles application configuration using Viper.
// Viper merges defaults, a YAML file and environment variables in priority order.
// A .env file, when present, is loaded into the process environment first.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override: MERCADO_SERVER_PORT=9090.
const EnvPrefix = "MERCADO"

// Config is the root configuration struct. Nested structs organize related settings.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Auth      AuthConfig      `mapstructure:"auth"`
	CORS      CORSConfig      `mapstructure:"cors"`
	LLM       LLMConfig       `mapstructure:"llm"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout bounds the whole response, including the LLM call.
	// Zero disables it.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type StorageConfig struct {
	// DatabasePath is the SQLite file for prediction history. Empty disables persistence.
	DatabasePath string `mapstructure:"database_path"`
}

type AuthConfig struct {
	// APIKeys protect the JSON prediction API. When empty the API is open,
	// like the HTML form.
	APIKeys   []string `mapstructure:"api_keys"`
	AdminKeys []string `mapstructure:"admin_keys"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LLMConfig struct {
	// Provider selects the single generation backend: gemini, anthropic or openai.
	Provider  string          `mapstructure:"provider"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
	// BaseURL overrides the Gemini endpoint (proxies, tests).
	BaseURL string `mapstructure:"base_url"`
}

type AnthropicConfig struct {
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	MaxTokens int64  `mapstructure:"max_tokens"`
}

type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from a .env file, a YAML file and environment variables.
func Load(configPath string) (*Config, error) {
	// godotenv never overrides variables already set in the real environment.
	// A missing .env is normal outside local development; a broken one is not.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", time.Duration(0))
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("storage.database_path", "./storage/mercado-futuro.db")
	v.SetDefault("auth.api_keys", []string{})
	v.SetDefault("auth.admin_keys", []string{})
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})
	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.gemini.model", "gemini-2.5-flash")
	v.SetDefault("llm.gemini.base_url", "")
	v.SetDefault("llm.anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("llm.anthropic.max_tokens", 2048)
	v.SetDefault("llm.openai.model", "gpt-4o")
	v.SetDefault("rate_limit.requests_per_second", 0.5)
	v.SetDefault("rate_limit.burst", 3)
	v.SetDefault("log.level", "info")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// A missing config file is fine: defaults and env are enough.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Provider keys are also accepted under their conventional names.
	// BindEnv takes the first variable that is set.
	if err := v.BindEnv("llm.gemini.api_key", "MERCADO_LLM_GEMINI_API_KEY", "GEMINI_API_KEY", "API_KEY"); err != nil {
		return nil, fmt.Errorf("binding gemini key: %w", err)
	}
	if err := v.BindEnv("llm.anthropic.api_key", "MERCADO_LLM_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY"); err != nil {
		return nil, fmt.Errorf("binding anthropic key: %w", err)
	}
	if err := v.BindEnv("llm.openai.api_key", "MERCADO_LLM_OPENAI_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("binding openai key: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that would otherwise fail later in confusing ways.
// A missing API key is deliberately not checked here: it surfaces as a
// request error with a configuration hint.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "gemini", "anthropic", "openai":
	default:
		return fmt.Errorf("unknown llm.provider %q (want gemini, anthropic or openai)", c.LLM.Provider)
	}
	if c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate_limit.requests_per_second and rate_limit.burst must be positive")
	}
	return nil
}

// Address returns the listen address string like "0.0.0.0:8080".
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// APIKeyEnv names the environment variable users should set for the active
// provider. It is used in error hints.
func (l LLMConfig) APIKeyEnv() string {
	switch l.Provider {
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	default:
		return "GEMINI_API_KEY"
	}
}
