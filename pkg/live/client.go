// Package live is the client for the live gateway: a raw TCP session that
// authenticates with a CRAM handshake, accepts subscriptions, and then
// carries an uncompressed record stream.
//
// A Client drives one session. Methods are meant for a single goroutine;
// only Close may be called concurrently, to unblock a pending Next.
package live

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tickvault/internal/apikey"
	"tickvault/pkg/core"
	"tickvault/pkg/tvz"
)

// ErrNotStarted is returned by Next before Start has begun the record
// stream.
var ErrNotStarted = errors.New("live session has not been started")

// Client is a session against the live gateway.
type Client struct {
	cfg     *core.Config
	dataset string
	addr    string
	logger  zerolog.Logger

	state state

	mu   sync.Mutex
	conn net.Conn

	rd        *bufio.Reader
	closeOnce sync.Once

	gatewayVersion string
	sessionID      string
}

// Options holds the optional settings of a Client.
type Options struct {
	// Logger receives client logs. Defaults to a no-op logger.
	Logger zerolog.Logger
	// Addr overrides the gateway address derived from the config, mainly
	// for tests.
	Addr string
}

// Option adjusts the Options of a Client.
type Option func(*Options)

// WithLogger directs client logs to the given logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

// WithAddr overrides the gateway address.
func WithAddr(addr string) Option {
	return func(o *Options) { o.Addr = addr }
}

// New creates a live client bound to one dataset. The API key shape and the
// config are validated before any network activity.
func New(cfg *core.Config, dataset string, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, &core.InvalidArgumentError{Op: "New", Param: "cfg", Detail: "must not be nil"}
	}
	if err := apikey.Validate(cfg.Key); err != nil {
		return nil, &core.InvalidArgumentError{Op: "New", Param: "key", Detail: err.Error()}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if dataset == "" {
		return nil, &core.InvalidArgumentError{Op: "New", Param: "dataset", Detail: "must not be empty"}
	}

	options := Options{Logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&options)
	}
	logger := options.Logger
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && cfg.LogLevel != "" {
		logger = logger.Level(lvl)
	}
	addr := options.Addr
	if addr == "" {
		addr = cfg.Gateway.LiveAddr()
	}

	return &Client{
		cfg:     cfg,
		dataset: dataset,
		addr:    addr,
		logger:  logger,
	}, nil
}

// NewFromEnv creates a live client with the default config and the API key
// taken from the TICKVAULT_API_KEY environment variable.
func NewFromEnv(dataset string, opts ...Option) (*Client, error) {
	key, err := apikey.FromEnv()
	if err != nil {
		return nil, err
	}
	return New(core.DefaultConfig(key), dataset, opts...)
}

// Connect dials the gateway and authenticates the session. On return the
// session is ready for subscriptions.
func (c *Client) Connect(ctx context.Context) error {
	if !c.state.CompareAndSwap(StateDisconnected, StateAuthenticating) {
		return fmt.Errorf("invalid state for connect: %s", c.state.Load())
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		c.state.Store(StateDisconnected)
		return core.NewTCPError("dial "+c.addr, err)
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.rd = bufio.NewReader(conn)

	if err := c.handshake(ctx); err != nil {
		conn.Close()
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		c.rd = nil
		c.state.Store(StateDisconnected)
		return err
	}

	c.state.Store(StateReady)
	c.logger.Info().
		Str("gateway", c.addr).
		Str("version", c.gatewayVersion).
		Str("session_id", c.sessionID).
		Str("key", apikey.Mask(c.cfg.Key)).
		Msg("live session authenticated")
	return nil
}

// handshake runs the line-based authentication exchange: version greeting,
// CRAM challenge, auth reply, success line.
func (c *Client) handshake(ctx context.Context) error {
	restore, err := c.applyDeadline(ctx)
	if err != nil {
		return err
	}
	defer restore()

	greeting, err := c.readLine("version greeting")
	if err != nil {
		return err
	}
	fields, err := parseFields("expected a version greeting", greeting)
	if err != nil {
		return err
	}
	version, ok := fields[fieldVersion]
	if !ok {
		return &core.ProtocolError{Context: "expected a version greeting", Payload: greeting}
	}
	c.gatewayVersion = version

	line, err := c.readLine("cram challenge")
	if err != nil {
		return err
	}
	fields, err = parseFields("expected a cram challenge", line)
	if err != nil {
		return err
	}
	challenge, ok := fields[fieldChallenge]
	if !ok || challenge == "" {
		return &core.ProtocolError{Context: "expected a cram challenge", Payload: line}
	}

	reply := fmt.Sprintf("auth=%s|dataset=%s|encoding=%s|client=%s",
		authResponse(challenge, c.cfg.Key), c.dataset, recordEncoding, core.DefaultUserAgent)
	if err := c.writeLine("auth reply", reply); err != nil {
		return err
	}

	result, err := c.readLine("auth result")
	if err != nil {
		return err
	}
	fields, err = parseFields("expected an auth result", result)
	if err != nil {
		return err
	}
	if fields[fieldSuccess] != "1" {
		return &core.ProtocolError{Context: "authentication rejected", Payload: result}
	}
	c.sessionID = fields[fieldSessionID]
	return nil
}

// Subscription names a record feed to attach to the session.
type Subscription struct {
	// Schema selects the record schema.
	Schema core.Schema
	// STypeIn is the symbology type of Symbols.
	STypeIn core.SType
	// Symbols are the instruments to stream.
	Symbols []string
}

// Subscribe attaches a subscription to the session. Subscriptions may be
// added both before Start and while streaming.
func (c *Client) Subscribe(ctx context.Context, sub Subscription) error {
	if len(sub.Symbols) == 0 {
		return &core.InvalidArgumentError{Op: "Subscribe", Param: "symbols", Detail: "must not be empty"}
	}
	if st := c.state.Load(); st != StateReady && st != StateStreaming {
		return fmt.Errorf("invalid state for subscribe: %s", st)
	}

	restore, err := c.applyDeadline(ctx)
	if err != nil {
		return err
	}
	defer restore()

	line := fmt.Sprintf("schema=%s|stype_in=%s|symbols=%s",
		sub.Schema, sub.STypeIn, strings.Join(sub.Symbols, ","))
	return c.writeLine("subscription", line)
}

// Start begins the record stream and returns its metadata. The live stream
// is always uncompressed; records follow until the gateway ends the
// session.
func (c *Client) Start(ctx context.Context) (*tvz.Metadata, error) {
	if !c.state.CompareAndSwap(StateReady, StateStreaming) {
		return nil, fmt.Errorf("invalid state for start: %s", c.state.Load())
	}

	restore, err := c.applyDeadline(ctx)
	if err != nil {
		return nil, err
	}
	defer restore()

	if err := c.writeLine("session start", "start_session=1"); err != nil {
		return nil, err
	}
	md, err := tvz.ReadMetadata(c.rd)
	if err != nil {
		return nil, c.streamErr(err)
	}
	if md.Compression != core.CompressionNone {
		return nil, &core.ProtocolError{
			Context: "live stream must be uncompressed",
			Payload: md.Compression.String(),
		}
	}

	c.logger.Debug().
		Str("dataset", md.Dataset).
		Str("schema", md.Schema.String()).
		Msg("live stream started")
	return md, nil
}

// Next returns the next record in the stream. It blocks until a record
// arrives, the gateway ends the session (io.EOF), or the connection fails.
// Close from another goroutine unblocks a pending Next.
func (c *Client) Next() (tvz.Record, error) {
	switch c.state.Load() {
	case StateClosed:
		return nil, io.EOF
	case StateStreaming:
	default:
		return nil, ErrNotStarted
	}

	rec, err := tvz.ReadRecord(c.rd)
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, c.streamErr(err)
	}
	return rec, nil
}

// streamErr separates connection failures from malformed stream bytes. A
// deliberate local Close reads as a clean end of stream.
func (c *Client) streamErr(err error) error {
	if errors.Is(err, net.ErrClosed) {
		return io.EOF
	}
	var operr *net.OpError
	if errors.As(err, &operr) {
		return core.NewTCPError("read record stream", err)
	}
	return err
}

// Close ends the session and releases the connection. Close is idempotent
// and may be called from any goroutine.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.state.Store(StateClosed)
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn != nil {
			err = conn.Close()
		}
		c.logger.Debug().Msg("live session closed")
	})
	return err
}

// State returns the current session state.
func (c *Client) State() ConnState {
	return c.state.Load()
}

// SessionID returns the gateway-assigned session identifier, empty before
// authentication.
func (c *Client) SessionID() string {
	return c.sessionID
}

// GatewayVersion returns the version the gateway greeted with, empty
// before Connect.
func (c *Client) GatewayVersion() string {
	return c.gatewayVersion
}

// Dataset returns the dataset this session is bound to.
func (c *Client) Dataset() string {
	return c.dataset
}

// applyDeadline bounds connection reads and writes by the context deadline,
// restoring the unbounded default afterwards.
func (c *Client) applyDeadline(ctx context.Context) (func(), error) {
	deadline, ok := ctx.Deadline()
	if !ok {
		return func() {}, nil
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return nil, core.NewTCPError("set deadline", err)
	}
	return func() { _ = c.conn.SetDeadline(time.Time{}) }, nil
}

// readLine consumes one newline-terminated control line.
func (c *Client) readLine(what string) (string, error) {
	line, err := c.rd.ReadString('\n')
	if err != nil {
		return "", core.NewTCPError("read "+what, err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// writeLine sends one newline-terminated control line.
func (c *Client) writeLine(what, line string) error {
	if _, err := c.conn.Write([]byte(line + "\n")); err != nil {
		return core.NewTCPError("write "+what, err)
	}
	return nil
}
