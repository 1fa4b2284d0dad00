package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("tv-3oN9zqoyzuOBMonLRIOY9zSoQN1T5")

	assert.Equal(t, "tv-3oN9zqoyzuOBMonLRIOY9zSoQN1T5", cfg.Key)
	assert.Equal(t, GatewayNearest, cfg.Gateway)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 600, cfg.RateLimitRequests)
	assert.Equal(t, time.Minute, cfg.RateLimitPeriod)
	assert.True(t, cfg.CircuitBreakerEnabled)
	assert.Equal(t, 5, cfg.CircuitBreakerFailThreshold)
	assert.Equal(t, 2, cfg.CircuitBreakerSuccessThreshold)
	assert.Equal(t, 30*time.Second, cfg.CircuitBreakerTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing_key", func(c *Config) { c.Key = "" }, true},
		{"zero_timeout", func(c *Config) { c.Timeout = 0 }, true},
		{"zero_rate_limit", func(c *Config) { c.RateLimitRequests = 0 }, true},
		{"bad_log_level", func(c *Config) { c.LogLevel = "loud" }, true},
		{"breaker_enabled_without_thresholds", func(c *Config) {
			c.CircuitBreakerEnabled = true
			c.CircuitBreakerFailThreshold = 0
		}, true},
		{"breaker_disabled_ignores_thresholds", func(c *Config) {
			c.CircuitBreakerEnabled = false
			c.CircuitBreakerFailThreshold = 0
			c.CircuitBreakerTimeout = 0
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig("tv-3oN9zqoyzuOBMonLRIOY9zSoQN1T5")
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Chaining(t *testing.T) {
	cfg := DefaultConfig("tv-3oN9zqoyzuOBMonLRIOY9zSoQN1T5").
		WithGateway(GatewayEuWest1).
		WithTimeout(5 * time.Second).
		WithRateLimit(100, time.Second).
		WithCircuitBreaker(false).
		WithUserAgent("custom/1.0")

	assert.Equal(t, GatewayEuWest1, cfg.Gateway)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 100, cfg.RateLimitRequests)
	assert.Equal(t, time.Second, cfg.RateLimitPeriod)
	assert.False(t, cfg.CircuitBreakerEnabled)
	assert.Equal(t, "custom/1.0", cfg.UserAgent)
}
