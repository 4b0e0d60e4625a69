package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configData := `
pipeline:
  threads: 8

embedding:
  base_url: "http://localhost:11434"
  model: "mxbai-embed-large"
  dimension: 1024
  rate_limit: 20

batching:
  batch_size: 64
  max_tokens: 100
  midpoint: 0.4
  uniform_weights: true

store:
  backend: "sqlite"
  path: "/tmp/vectors.db"

dataset:
  content_index: 0
`
	err := os.WriteFile(configPath, []byte(configData), 0644)
	require.NoError(t, err)

	// Test loading config
	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	// Verify loaded values
	assert.Equal(t, 8, config.Pipeline.Threads)
	assert.Equal(t, "mxbai-embed-large", config.Embedding.Model)
	assert.Equal(t, 1024, config.Embedding.Dimension)
	assert.Equal(t, 20.0, config.Embedding.RateLimit)
	assert.Equal(t, 64, config.Batching.BatchSize)
	assert.Equal(t, 100, config.Batching.MaxTokens)
	assert.Equal(t, 0.4, config.Batching.Midpoint)
	assert.True(t, config.Batching.UniformWeights)
	assert.Equal(t, "sqlite", config.Store.Backend)
	assert.Equal(t, "/tmp/vectors.db", config.Store.Path)
	assert.Equal(t, "tokens", config.Store.TableName)
	assert.Equal(t, 0, config.Dataset.ContentIndex)
	assert.Empty(t, config.Validate())
}

func TestLoadConfig_Defaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("pipeline:\n  threads: 2\n"), 0644))

	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, 2, config.Pipeline.Threads)
	assert.Equal(t, 300, config.Embedding.Dimension)
	assert.Equal(t, 512, config.Batching.BatchSize)
	assert.Equal(t, 200, config.Batching.MaxTokens)
	assert.Equal(t, 0.5, config.Batching.Midpoint)
	assert.Equal(t, "none", config.Store.Backend)
	assert.Equal(t, -1, config.Dataset.ContentIndex)
}

func TestConfigValidation(t *testing.T) {
	valid, err := getDefaultConfig()
	require.NoError(t, err)

	tests := []struct {
		name          string
		mutate        func(c *Config)
		expectedErrs  int
		errorMessages []string
	}{
		{
			name:         "valid config",
			mutate:       func(c *Config) {},
			expectedErrs: 0,
		},
		{
			name: "invalid config",
			mutate: func(c *Config) {
				c.Pipeline.Threads = 0
				c.Embedding.BaseURL = "invalid-url"
				c.Batching.BatchSize = -1
				c.Batching.Midpoint = 1.5
				c.Store.Backend = "postgres"
				c.Store.URL = ""
			},
			expectedErrs: 5,
			errorMessages: []string{
				"pipeline.threads: threads must be positive",
				"embedding.base_url: invalid Ollama base URL",
				"batching.batch_size: batch_size must be positive",
				"batching.midpoint: midpoint must be between 0 and 1",
				"store.url: database URL is required",
			},
		},
		{
			name: "unknown backend",
			mutate: func(c *Config) {
				c.Store.Backend = "redis"
			},
			expectedErrs:  1,
			errorMessages: []string{"store.backend: unknown backend: redis"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := *valid
			config.Store.URL = ""
			config.Embedding.BaseURL = "http://localhost:11434"
			tt.mutate(&config)

			errors := config.Validate()
			assert.Len(t, errors, tt.expectedErrs)

			if tt.errorMessages != nil {
				for i, msg := range tt.errorMessages {
					assert.Contains(t, errors[i].Error(), msg)
				}
			}
		})
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("OLLAMA_BASE_URL", "http://env-ollama:11434")
	t.Setenv("DATABASE_URL", "postgres://env-db:5432/test")
	t.Setenv("INTENTPREP_THREADS", "16")

	config := &Config{}
	mergeWithEnv(config)

	assert.Equal(t, "http://env-ollama:11434", config.Embedding.BaseURL)
	assert.Equal(t, "postgres://env-db:5432/test", config.Store.URL)
	assert.Equal(t, 16, config.Pipeline.Threads)
}
