// Package config loads server configuration from a YAML file, with DOCQA_*
// environment variables taking precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Storage   StorageConfig   `yaml:"storage"`
	Quota     QuotaConfig     `yaml:"quota"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	MCP       MCPConfig       `yaml:"mcp"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type GeminiConfig struct {
	APIKey        string `yaml:"api_key"`
	BaseURL       string `yaml:"base_url"`
	EmbedModel    string `yaml:"embed_model"`
	GenerateModel string `yaml:"generate_model"`
}

type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

type QuotaConfig struct {
	DailyLimit int `yaml:"daily_limit"`
}

type RetrievalConfig struct {
	TopK             int `yaml:"top_k"`
	EmbedConcurrency int `yaml:"embed_concurrency"`
}

// MCPConfig enables the stdio MCP transport for a single local user.
type MCPConfig struct {
	UserID string `yaml:"user_id"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func defaults() Config {
	return Config{
		Server: ServerConfig{Port: 4600},
		Gemini: GeminiConfig{
			BaseURL:       "https://generativelanguage.googleapis.com/v1beta",
			EmbedModel:    "text-embedding-004",
			GenerateModel: "gemini-2.0-flash",
		},
		Storage:   StorageConfig{DataDir: defaultDataDir()},
		Quota:     QuotaConfig{DailyLimit: 10},
		Retrieval: RetrievalConfig{TopK: 5, EmbedConcurrency: 4},
		Log:       LogConfig{Level: "info"},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".docqa"
	}
	return filepath.Join(home, ".docqa")
}

func defaultConfigPath() string {
	if p := os.Getenv("DOCQA_CONFIG"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "docqa", "config.yaml")
}

// Load reads configuration from an optional .env file, the YAML config file,
// and DOCQA_* environment variables, in increasing order of precedence.
// A missing config file is not an error; the Gemini API key is required.
func Load() (Config, error) {
	// .env is a development convenience; absence is fine.
	_ = godotenv.Load()
	return loadFrom(defaultConfigPath())
}

func loadFrom(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Defaults + env only.
		case err != nil:
			return Config{}, fmt.Errorf("reading config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
			}
		}
	}

	applyEnvOverrides(&cfg)

	if cfg.Gemini.APIKey == "" {
		return Config{}, fmt.Errorf("missing required config: Gemini API key (set gemini.api_key or DOCQA_GEMINI_API_KEY)")
	}
	if cfg.Quota.DailyLimit < 0 {
		return Config{}, fmt.Errorf("quota.daily_limit must not be negative")
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setInt("DOCQA_PORT", &cfg.Server.Port)
	setString("DOCQA_GEMINI_API_KEY", &cfg.Gemini.APIKey)
	setString("DOCQA_GEMINI_BASE_URL", &cfg.Gemini.BaseURL)
	setString("DOCQA_EMBED_MODEL", &cfg.Gemini.EmbedModel)
	setString("DOCQA_GENERATE_MODEL", &cfg.Gemini.GenerateModel)
	setString("DOCQA_DATA_DIR", &cfg.Storage.DataDir)
	setInt("DOCQA_DAILY_LIMIT", &cfg.Quota.DailyLimit)
	setInt("DOCQA_TOP_K", &cfg.Retrieval.TopK)
	setInt("DOCQA_EMBED_CONCURRENCY", &cfg.Retrieval.EmbedConcurrency)
	setString("DOCQA_MCP_USER_ID", &cfg.MCP.UserID)
	setString("DOCQA_LOG_LEVEL", &cfg.Log.Level)
}
