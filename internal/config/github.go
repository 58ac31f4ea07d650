package config

import "time"

// GitHubConfig holds GitHub GraphQL API configuration
type GitHubConfig struct {
	Token          string
	APIBaseURL     string
	RequestTimeout time.Duration
	RateLimit      RateLimitConfig
}

// RateLimitConfig holds retry and backoff configuration
type RateLimitConfig struct {
	MaxRetries      int
	InitialBackoff  time.Duration
	MaxBackoff      time.Duration
	RetryMultiplier float64
	// RequestsPerSecond paces outgoing GraphQL calls below the API's
	// secondary rate limits.
	RequestsPerSecond float64
}

// DefaultGitHubConfig returns the default GitHub configuration
func DefaultGitHubConfig() *GitHubConfig {
	return &GitHubConfig{
		APIBaseURL:     "https://api.github.com/graphql",
		RequestTimeout: 30 * time.Second,
		RateLimit: RateLimitConfig{
			MaxRetries:        3,
			InitialBackoff:    time.Second,
			MaxBackoff:        time.Minute,
			RetryMultiplier:   2.0,
			RequestsPerSecond: 5,
		},
	}
}
