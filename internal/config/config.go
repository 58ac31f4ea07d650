package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	GitHubToken string
	GitHub      *GitHubConfig
	Cache       *CacheConfig

	// Fetch limits
	RepoFetchLimit   int
	PRFetchLimit     int
	CommitFetchLimit int

	// TargetOrganizations is nil when TARGET_ORGANIZATIONS is unset (fetch
	// all organizations the credential belongs to) and an empty non-nil slice
	// when it is set but blank (user-only).
	TargetOrganizations []string

	MaxConcurrentFetches int
}

func Load() (*Config, error) {
	port := getEnv("PORT", "8080")
	githubToken := getEnv("GITHUB_TOKEN", "")

	repoLimit, err := getIntEnv("REPO_FETCH_LIMIT", 25)
	if err != nil {
		return nil, err
	}
	prLimit, err := getIntEnv("PR_FETCH_LIMIT", 20)
	if err != nil {
		return nil, err
	}
	commitLimit, err := getIntEnv("COMMIT_FETCH_LIMIT", 25)
	if err != nil {
		return nil, err
	}
	maxConcurrent, err := getIntEnv("MAX_CONCURRENT_FETCHES", 4)
	if err != nil {
		return nil, err
	}

	github := DefaultGitHubConfig()
	github.Token = githubToken
	if apiURL := os.Getenv("GITHUB_API_URL"); apiURL != "" {
		github.APIBaseURL = apiURL
	}
	if timeoutSecs, err := getIntEnv("REQUEST_TIMEOUT_SECONDS", 0); err == nil && timeoutSecs > 0 {
		github.RequestTimeout = time.Duration(timeoutSecs) * time.Second
	}

	cache := DefaultCacheConfig()
	if ttlSecs, err := getIntEnv("CACHE_TTL_SECONDS", 0); err == nil && ttlSecs > 0 {
		cache.TTL = time.Duration(ttlSecs) * time.Second
	}
	cache.DebugMode = getBoolEnv("DEBUG_MODE", false)
	cache.SnapshotFile = getEnv("DEBUG_DATA_FILE", cache.SnapshotFile)

	return &Config{
		Port:                 port,
		GitHubToken:          githubToken,
		GitHub:               github,
		Cache:                cache,
		RepoFetchLimit:       repoLimit,
		PRFetchLimit:         prLimit,
		CommitFetchLimit:     commitLimit,
		TargetOrganizations:  parseOrganizations(),
		MaxConcurrentFetches: maxConcurrent,
	}, nil
}

// parseOrganizations distinguishes TARGET_ORGANIZATIONS unset (nil, meaning
// all organizations) from set-but-empty (user-only).
func parseOrganizations() []string {
	raw, ok := os.LookupEnv("TARGET_ORGANIZATIONS")
	if !ok {
		return nil
	}
	orgs := []string{}
	for _, org := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(org); trimmed != "" {
			orgs = append(orgs, trimmed)
		}
	}
	return orgs
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(value)
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
