package storeapi

import (
	"net/url"
	"time"
)

// Config represents the configuration for the store API client
type Config struct {
	// BaseURL is the API root, e.g. https://api.digitalghar.in/api
	BaseURL string

	// Timeout bounds every request. Zero means 30 seconds.
	Timeout time.Duration
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrInvalidConfig
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrInvalidConfig
	}
	if c.Timeout < 0 {
		return ErrInvalidConfig
	}
	return nil
}
