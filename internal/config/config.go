package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Sources       Sources       `yaml:"sources"`
	Summarization Summarization `yaml:"summarization"`
	Ingest        Ingest        `yaml:"ingest"`
	Output        Output        `yaml:"output"`
	Server        Server        `yaml:"server"`
	Logging       Logging       `yaml:"logging"`
}

type Sources struct {
	Feeds []Feed `yaml:"feeds"`
}

type Feed struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

type Summarization struct {
	Provider       string `yaml:"provider"`
	Model          string `yaml:"model"`
	OllamaURL      string `yaml:"ollama_url"`
	OpenAIModel    string `yaml:"openai_model"`
	APIKeyEnv      string `yaml:"api_key_env"`
	MaxTokens      int    `yaml:"max_tokens"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type Ingest struct {
	Schedule       string `yaml:"schedule"`
	MaxItems       int    `yaml:"max_items"`
	TopBuckets     int    `yaml:"top_buckets"`
	EnrichSnippets bool   `yaml:"enrich_snippets"`
	MaxEnrich      int    `yaml:"max_enrich"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port  int  `yaml:"port"`
	Debug bool `yaml:"debug"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for uptodate.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "uptodate")
}

// DataDir returns the XDG data directory for uptodate.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "uptodate")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/uptodate/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'uptodate init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Summarization: Summarization{
			Provider:       "openai",
			OllamaURL:      "http://localhost:11434",
			OpenAIModel:    "gpt-4o-mini",
			APIKeyEnv:      "OPENAI_API_KEY",
			MaxTokens:      2500,
			TimeoutSeconds: 120,
		},
		Ingest: Ingest{
			MaxItems:   300,
			TopBuckets: 10,
			MaxEnrich:  25,
		},
		Output: Output{
			DataDir: DataDir(),
		},
		Server: Server{
			Port: 8787,
		},
		Logging: Logging{
			Level: "info",
		},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Ingest.MaxItems <= 0 {
		cfg.Ingest.MaxItems = 300
	}
	if cfg.Ingest.TopBuckets <= 0 {
		cfg.Ingest.TopBuckets = 10
	}
	if cfg.Summarization.TimeoutSeconds <= 0 {
		cfg.Summarization.TimeoutSeconds = 120
	}
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8787
	}

	return cfg, nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
