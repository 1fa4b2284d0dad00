// Package hist is the client for the historical gateway. It covers batch
// job management, metadata and pricing queries, symbology resolution, and
// record streaming over HTTP.
//
// Create a Client with New or NewFromEnv and Close it when done:
//
//	client, err := hist.NewFromEnv()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
// All methods are safe for concurrent use. Blocking calls honor their
// context for cancellation and deadlines.
package hist

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"tickvault/internal/apikey"
	"tickvault/internal/httpapi"
	"tickvault/pkg/core"
	"tickvault/pkg/dynjson"
)

// httpAPI is the transport seam between endpoint methods and the HTTP
// layer, satisfied by httpapi.Client.
type httpAPI interface {
	GetJSON(ctx context.Context, op core.Operation, path string, query map[string]string) (dynjson.Value, error)
	PostJSON(ctx context.Context, op core.Operation, path string, form map[string]string) (dynjson.Value, error)
	GetRawStream(ctx context.Context, op core.Operation, path string, query map[string]string, chunk func([]byte) bool) error
	Close() error
}

// Client talks to the historical gateway.
type Client struct {
	cfg    *core.Config
	api    httpAPI
	logger zerolog.Logger
}

// Options holds the optional settings of a Client.
type Options struct {
	// Logger receives client logs. Defaults to a no-op logger.
	Logger zerolog.Logger
	// BaseURL overrides the gateway URL derived from the config, mainly
	// for tests and proxies.
	BaseURL string
}

// Option adjusts the Options of a Client.
type Option func(*Options)

// WithLogger directs client logs to the given logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

// WithBaseURL overrides the gateway base URL.
func WithBaseURL(url string) Option {
	return func(o *Options) { o.BaseURL = url }
}

// New creates a historical client for the given config. The API key shape
// and the config are validated before any network activity.
func New(cfg *core.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, &core.InvalidArgumentError{Op: "New", Param: "cfg", Detail: "must not be nil"}
	}
	if err := apikey.Validate(cfg.Key); err != nil {
		return nil, &core.InvalidArgumentError{Op: "New", Param: "key", Detail: err.Error()}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	options := Options{Logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&options)
	}
	logger := options.Logger
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && cfg.LogLevel != "" {
		logger = logger.Level(lvl)
	}

	base := options.BaseURL
	if base == "" {
		base = cfg.Gateway.HistURL()
	}

	logger.Debug().
		Str("gateway", base).
		Str("key", apikey.Mask(cfg.Key)).
		Msg("historical client ready")

	return &Client{
		cfg:    cfg,
		api:    httpapi.NewClient(cfg, base, logger),
		logger: logger,
	}, nil
}

// NewFromEnv creates a client with the default config and the API key taken
// from the TICKVAULT_API_KEY environment variable.
func NewFromEnv(opts ...Option) (*Client, error) {
	key, err := apikey.FromEnv()
	if err != nil {
		return nil, err
	}
	return New(core.DefaultConfig(key), opts...)
}

// Close releases the underlying transport. Calls made after Close fail with
// core.ErrClientClosed.
func (c *Client) Close() error {
	return c.api.Close()
}
