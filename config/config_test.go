package config

import (
	"os"
	"testing"
)

func TestConfigDefaultValues(t *testing.T) {
	// Clear any existing env vars that might interfere
	envVars := []string{
		"PORT",
		"UPSTREAM_TIMEOUT_MS",
		"UPSTREAM_MAX_RETRIES",
		"BATCH_SEARCH_MAX_SIZE",
		"CIRCUIT_BREAKER_WINDOW_SECS",
		"CIRCUIT_BREAKER_FAILURE_RATIO_PCT",
		"CIRCUIT_BREAKER_COOLDOWN_SECS",
		"CIRCUIT_BREAKER_CALL_TIMEOUT_MS",
		"SEARCH_CACHE_TTL_IN_SECONDS",
		"PLAYLIST_LIST_CACHE_TTL_IN_SECONDS",
		"PROFILE_CACHE_TTL_IN_SECONDS",
		"CACHE_BACKEND",
		"FF_CACHE_COMPRESSION",
	}

	// Store original values
	originalValues := make(map[string]string)
	for _, key := range envVars {
		originalValues[key] = os.Getenv(key)
		os.Unsetenv(key)
	}
	defer func() {
		// Restore original values
		for key, value := range originalValues {
			if value != "" {
				os.Setenv(key, value)
			}
		}
	}()

	cfg, err := load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{
			name:     "UpstreamTimeoutMs default",
			got:      cfg.Configuration.UpstreamTimeoutMs,
			expected: 5000,
		},
		{
			name:     "UpstreamMaxRetries default",
			got:      cfg.Configuration.UpstreamMaxRetries,
			expected: 3,
		},
		{
			name:     "BatchSearchMaxSize default",
			got:      cfg.Configuration.BatchSearchMaxSize,
			expected: 100,
		},
		{
			name:     "BreakerWindowSeconds default",
			got:      cfg.Configuration.BreakerWindowSeconds,
			expected: 10,
		},
		{
			name:     "BreakerFailureRatioPct default",
			got:      cfg.Configuration.BreakerFailureRatioPct,
			expected: 50,
		},
		{
			name:     "BreakerCooldownSecs default",
			got:      cfg.Configuration.BreakerCooldownSecs,
			expected: 30,
		},
		{
			name:     "BreakerCallTimeoutMs default",
			got:      cfg.Configuration.BreakerCallTimeoutMs,
			expected: 3000,
		},
		{
			name:     "SearchCacheTTLInSeconds default",
			got:      cfg.Configuration.SearchCacheTTLInSeconds,
			expected: 3600,
		},
		{
			name:     "PlaylistListCacheTTLInSeconds default",
			got:      cfg.Configuration.PlaylistListCacheTTLInSeconds,
			expected: 900,
		},
		{
			name:     "ProfileCacheTTLInSeconds default",
			got:      cfg.Configuration.ProfileCacheTTLInSeconds,
			expected: 1800,
		},
		{
			name:     "CacheBackend default",
			got:      cfg.Configuration.CacheBackend,
			expected: "redis",
		},
		{
			name:     "CacheCompression default",
			got:      cfg.FeatureFlags.CacheCompression,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %v, want %v", tt.got, tt.expected)
			}
		})
	}
}

func TestConfigEnvOverride(t *testing.T) {
	os.Setenv("CIRCUIT_BREAKER_COOLDOWN_SECS", "60")
	os.Setenv("CACHE_BACKEND", "bolt")
	defer os.Unsetenv("CIRCUIT_BREAKER_COOLDOWN_SECS")
	defer os.Unsetenv("CACHE_BACKEND")

	cfg, err := load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Configuration.BreakerCooldownSecs != 60 {
		t.Errorf("Expected cooldown 60, got %d", cfg.Configuration.BreakerCooldownSecs)
	}
	if cfg.Configuration.CacheBackend != "bolt" {
		t.Errorf("Expected backend bolt, got %s", cfg.Configuration.CacheBackend)
	}
}
