package config

import (
	"fmt"
	"net/url"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var backends = map[string]bool{
	"none":     true,
	"sqlite":   true,
	"postgres": true,
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate Pipeline config
	if c.Pipeline.Threads < 1 {
		errors = append(errors, ValidationError{
			Field:   "pipeline.threads",
			Message: "threads must be positive",
		})
	}

	// Validate Embedding config
	if c.Embedding.BaseURL == "" {
		errors = append(errors, ValidationError{
			Field:   "embedding.base_url",
			Message: "Ollama base URL is required",
		})
	} else if u, err := url.Parse(c.Embedding.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errors = append(errors, ValidationError{
			Field:   "embedding.base_url",
			Message: "invalid Ollama base URL",
		})
	}

	if c.Embedding.Dimension < 1 {
		errors = append(errors, ValidationError{
			Field:   "embedding.dimension",
			Message: "dimension must be positive",
		})
	}

	if c.Embedding.RateLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "embedding.rate_limit",
			Message: "rate_limit must be positive",
		})
	}

	// Validate Batching config
	if c.Batching.BatchSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "batching.batch_size",
			Message: "batch_size must be positive",
		})
	}

	if c.Batching.MaxTokens < 1 {
		errors = append(errors, ValidationError{
			Field:   "batching.max_tokens",
			Message: "max_tokens must be positive",
		})
	}

	if c.Batching.Midpoint <= 0 || c.Batching.Midpoint >= 1 {
		errors = append(errors, ValidationError{
			Field:   "batching.midpoint",
			Message: "midpoint must be between 0 and 1",
		})
	}

	// Validate Store config
	if !backends[c.Store.Backend] {
		errors = append(errors, ValidationError{
			Field:   "store.backend",
			Message: fmt.Sprintf("unknown backend: %s", c.Store.Backend),
		})
	}

	if c.Store.Backend == "postgres" && c.Store.URL == "" {
		errors = append(errors, ValidationError{
			Field:   "store.url",
			Message: "database URL is required for the postgres backend",
		})
	}

	if c.Store.URL != "" {
		if _, err := url.Parse(c.Store.URL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "store.url",
				Message: "invalid database URL",
			})
		}
	}

	return errors
}
