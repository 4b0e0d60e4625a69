package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Pipeline struct {
		Threads int `yaml:"threads"`
	} `yaml:"pipeline"`

	Embedding struct {
		BaseURL   string  `yaml:"base_url"`
		Model     string  `yaml:"model"`
		Dimension int     `yaml:"dimension"`
		RateLimit float64 `yaml:"rate_limit"`
	} `yaml:"embedding"`

	Batching struct {
		BatchSize      int     `yaml:"batch_size"`
		MaxTokens      int     `yaml:"max_tokens"`
		Midpoint       float64 `yaml:"midpoint"`
		UniformWeights bool    `yaml:"uniform_weights"`
	} `yaml:"batching"`

	Store struct {
		Backend   string `yaml:"backend"`
		URL       string `yaml:"url"`
		Path      string `yaml:"path"`
		TableName string `yaml:"table_name"`
	} `yaml:"store"`

	Dataset struct {
		ContentIndex int `yaml:"content_index"`
	} `yaml:"dataset"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/intentprep/config.yaml"),
			"/etc/intentprep/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	var config Config
	// Zero is a valid column, so the default is set before parsing.
	config.Dataset.ContentIndex = -1
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	// Merge with environment variables
	mergeWithEnv(&config)

	// Apply defaults for unset values
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	config.Dataset.ContentIndex = -1
	applyDefaults(config)
	mergeWithEnv(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.Pipeline.Threads == 0 {
		config.Pipeline.Threads = 4
	}

	if config.Embedding.Model == "" {
		config.Embedding.Model = "nomic-embed-text:latest"
	}
	if config.Embedding.BaseURL == "" {
		config.Embedding.BaseURL = "http://localhost:11434"
	}
	if config.Embedding.Dimension == 0 {
		config.Embedding.Dimension = 300
	}
	if config.Embedding.RateLimit == 0 {
		config.Embedding.RateLimit = 50
	}

	if config.Batching.BatchSize == 0 {
		config.Batching.BatchSize = 512
	}
	if config.Batching.MaxTokens == 0 {
		config.Batching.MaxTokens = 200
	}
	if config.Batching.Midpoint == 0 {
		config.Batching.Midpoint = 0.5
	}

	if config.Store.Backend == "" {
		config.Store.Backend = "none"
	}
	if config.Store.TableName == "" {
		config.Store.TableName = "tokens"
	}
	if config.Store.Path == "" {
		config.Store.Path = "intentprep.db"
	}
}

func mergeWithEnv(config *Config) {
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.Embedding.BaseURL = baseURL
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Store.URL = dbURL
	}
	if threads := os.Getenv("INTENTPREP_THREADS"); threads != "" {
		if n, err := strconv.Atoi(threads); err == nil {
			config.Pipeline.Threads = n
		}
	}
}
