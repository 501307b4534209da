package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vbonduro/islandlife/internal/domain"
)

type Config struct {
	ListenAddr      string              `yaml:"listen_addr"`
	DBPath          string              `yaml:"db_path"`
	LogLevel        string              `yaml:"log_level"`
	LogFile         string              `yaml:"log_file"`
	LocalQuotaBytes int                 `yaml:"local_quota_bytes"`
	SyncQuietPeriod time.Duration       `yaml:"sync_quiet_period"`
	RemoteBackend   string              `yaml:"remote_backend"`
	RemoteLocalPath string              `yaml:"remote_local_path"`
	Remote          domain.RemoteConfig `yaml:"remote"`
	AdvisorBackend  string              `yaml:"advisor_backend"`
	ClaudeAPIKey    string              `yaml:"claude_api_key"`
	ClaudeModel     string              `yaml:"claude_model"`
	OllamaHost      string              `yaml:"ollama_host"`
	OllamaModel     string              `yaml:"ollama_model"`
}

func defaults() *Config {
	return &Config{
		ListenAddr:      ":8080",
		DBPath:          "/data/islandlife.db",
		LogLevel:        "info",
		LocalQuotaBytes: 5 * 1024 * 1024,
		SyncQuietPeriod: 2 * time.Second,
		RemoteBackend:   "cos",
		RemoteLocalPath: "/data/objects",
		AdvisorBackend:  "claude",
		ClaudeModel:     "claude-haiku-4-5",
		OllamaHost:      "http://localhost:11434",
		OllamaModel:     "llama3.2",
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then environment variables.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.ListenAddr = getEnv("LISTEN_ADDR", cfg.ListenAddr)
	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = getEnv("LOG_FILE", cfg.LogFile)
	cfg.RemoteBackend = getEnv("REMOTE_BACKEND", cfg.RemoteBackend)
	cfg.RemoteLocalPath = getEnv("REMOTE_LOCAL_PATH", cfg.RemoteLocalPath)
	cfg.AdvisorBackend = getEnv("ADVISOR_BACKEND", cfg.AdvisorBackend)
	cfg.ClaudeAPIKey = getEnv("CLAUDE_API_KEY", cfg.ClaudeAPIKey)
	cfg.ClaudeModel = getEnv("CLAUDE_MODEL", cfg.ClaudeModel)
	cfg.OllamaHost = getEnv("OLLAMA_HOST", cfg.OllamaHost)
	cfg.OllamaModel = getEnv("OLLAMA_MODEL", cfg.OllamaModel)

	if v, ok := os.LookupEnv("LOCAL_QUOTA_BYTES"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid LOCAL_QUOTA_BYTES %q: %w", v, err)
		}
		cfg.LocalQuotaBytes = n
	}
	if v, ok := os.LookupEnv("SYNC_QUIET_PERIOD"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SYNC_QUIET_PERIOD %q: %w", v, err)
		}
		cfg.SyncQuietPeriod = d
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.RemoteBackend {
	case "cos", "local":
	default:
		return fmt.Errorf("unknown remote backend: %q", c.RemoteBackend)
	}
	switch c.AdvisorBackend {
	case "claude", "ollama", "none":
	default:
		return fmt.Errorf("unknown advisor backend: %q", c.AdvisorBackend)
	}
	if c.LocalQuotaBytes <= 0 {
		return fmt.Errorf("local quota must be positive, got %d", c.LocalQuotaBytes)
	}
	if c.SyncQuietPeriod <= 0 {
		return fmt.Errorf("sync quiet period must be positive, got %s", c.SyncQuietPeriod)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}
