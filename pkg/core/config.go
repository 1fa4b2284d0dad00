package core

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config contains all configuration options for a client.
// It covers authentication, gateway selection, networking, rate limiting,
// and circuit breaker settings.
type Config struct {
	// Key is the API access key used for authentication.
	Key string `json:"key" validate:"required"`
	// Gateway selects the service gateway to connect to.
	Gateway Gateway `json:"gateway"`
	// UserAgent overrides the client's User-Agent header when non-empty.
	UserAgent string `json:"user_agent"`

	// Timeout is the maximum duration for JSON API requests. Streaming
	// requests are bounded by their context instead, so a bulk download is
	// never cut short by it.
	Timeout time.Duration `json:"timeout" validate:"min=1ms"`

	RateLimitRequests int           `json:"rate_limit_requests" validate:"min=1"`
	RateLimitPeriod   time.Duration `json:"rate_limit_period" validate:"min=1ms"`

	CircuitBreakerEnabled          bool          `json:"circuit_breaker_enabled"`
	CircuitBreakerFailThreshold    int           `json:"circuit_breaker_fail_threshold"`
	CircuitBreakerSuccessThreshold int           `json:"circuit_breaker_success_threshold"`
	CircuitBreakerTimeout          time.Duration `json:"circuit_breaker_timeout"`

	LogLevel string `json:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// DefaultConfig returns a Config initialized with sensible defaults for the
// given API key. Default values: nearest gateway, 30s timeout, 600 req/min
// rate limit, circuit breaker with 5 failures/2 successes/30s timeout.
func DefaultConfig(key string) *Config {
	return &Config{
		Key:     key,
		Gateway: GatewayNearest,
		Timeout: 30 * time.Second,

		RateLimitRequests: 600,
		RateLimitPeriod:   time.Minute,

		CircuitBreakerEnabled:          true,
		CircuitBreakerFailThreshold:    5,
		CircuitBreakerSuccessThreshold: 2,
		CircuitBreakerTimeout:          30 * time.Second,

		LogLevel: "info",
	}
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.CircuitBreakerEnabled {
		if c.CircuitBreakerFailThreshold <= 0 {
			return errors.New("CircuitBreakerFailThreshold must be positive when enabled")
		}
		if c.CircuitBreakerSuccessThreshold <= 0 {
			return errors.New("CircuitBreakerSuccessThreshold must be positive when enabled")
		}
		if c.CircuitBreakerTimeout <= 0 {
			return errors.New("CircuitBreakerTimeout must be positive when enabled")
		}
	}
	return nil
}

// WithGateway sets the service gateway and returns the config for chaining.
func (c *Config) WithGateway(gateway Gateway) *Config {
	c.Gateway = gateway
	return c
}

// WithTimeout sets the JSON request timeout and returns the config for chaining.
func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.Timeout = timeout
	return c
}

// WithRateLimit sets the rate limiting parameters and returns the config for chaining.
func (c *Config) WithRateLimit(requests int, period time.Duration) *Config {
	c.RateLimitRequests = requests
	c.RateLimitPeriod = period
	return c
}

// WithCircuitBreaker enables or disables the circuit breaker and returns the
// config for chaining.
func (c *Config) WithCircuitBreaker(enabled bool) *Config {
	c.CircuitBreakerEnabled = enabled
	return c
}

// WithUserAgent overrides the User-Agent header and returns the config for chaining.
func (c *Config) WithUserAgent(ua string) *Config {
	c.UserAgent = ua
	return c
}
