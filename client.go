// Package loggate is a client for a JSON-over-HTTP log-ingestion gateway.
//
// Each send is one request/response exchange: the payload is stamped with
// level and timestamp defaults, encoded, POSTed to {endpoint}/logs, and the
// gateway's reply is decoded into a LogResponse or turned into a typed error.
// There is no retry, no client-side batching queue, and no shared mutable
// state beyond the optional process-wide default client, so concurrent sends
// on one client are safe without locking.
package loggate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Config carries the settings for a gateway client. Token is optional: when
// empty, no Authorization header is sent.
type Config struct {
	Endpoint string `koanf:"endpoint" validate:"required"`
	AppID    string `koanf:"app_id" validate:"required"`
	Token    string `koanf:"token"`
}

var validate = validator.New()

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for every exchange. The
// default has no timeout; a hung connection blocks that call until the
// platform gives up or the context is cancelled.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithLogger sets the logger used for per-exchange debug events. The default
// discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// Client talks to a log-ingestion gateway. Its endpoint and header set are
// fixed at construction and never change; every request from one client
// carries identical headers, only the body differs.
type Client struct {
	endpoint   string
	appID      string
	token      string
	httpClient *http.Client
	log        zerolog.Logger
	now        func() time.Time
}

// New builds a Client from cfg without registering it globally, for callers
// that need several independent logging identities or dependency injection.
// The endpoint is normalized by stripping one trailing slash so that path
// concatenation never produces a double slash.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, &ConfigError{Field: verrs[0].Field(), err: err}
		}
		return nil, &ConfigError{err: err}
	}
	c := &Client{
		endpoint:   strings.TrimSuffix(cfg.Endpoint, "/"),
		appID:      cfg.AppID,
		token:      cfg.Token,
		httpClient: &http.Client{},
		log:        zerolog.Nop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Info sends one record at level info.
func (c *Client) Info(ctx context.Context, p Payload) (*LogResponse, error) {
	return c.send(ctx, LevelInfo, p)
}

// Warning sends one record at level warn.
func (c *Client) Warning(ctx context.Context, p Payload) (*LogResponse, error) {
	return c.send(ctx, LevelWarn, p)
}

// Error sends one record at level error.
func (c *Client) Error(ctx context.Context, p Payload) (*LogResponse, error) {
	return c.send(ctx, LevelError, p)
}

// Debug sends one record at level debug.
func (c *Client) Debug(ctx context.Context, p Payload) (*LogResponse, error) {
	return c.send(ctx, LevelDebug, p)
}

func (c *Client) send(ctx context.Context, level Level, p Payload) (*LogResponse, error) {
	body := p.stamp(level, c.now)
	if err := body.require(FieldMsg); err != nil {
		return nil, err
	}
	var out LogResponse
	if err := c.do(ctx, http.MethodPost, "/logs", body, c.logHeaders(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Batch sends several records as one JSON array in a single POST. Every
// entry must carry non-empty msg and level fields; a generated timestamp is
// added to entries that lack one, caller values winning as with single sends.
// The gateway ingests the batch as a whole; there is no client-side
// splitting or partial-failure handling.
func (c *Client) Batch(ctx context.Context, entries []Payload) (*LogResponse, error) {
	stamped := make([]Payload, len(entries))
	for i, p := range entries {
		s := p.stamp("", c.now)
		if err := s.require(FieldMsg, FieldLevel); err != nil {
			return nil, fmt.Errorf("batch entry %d: %w", i, err)
		}
		stamped[i] = s
	}
	var out LogResponse
	if err := c.do(ctx, http.MethodPost, "/logs", stamped, c.logHeaders(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TestConnection probes GET {endpoint}/health. Only a Content-Type header is
// sent; app id and token are not.
func (c *Client) TestConnection(ctx context.Context) (*HealthResponse, error) {
	headers := map[string]string{"Content-Type": "application/json"}
	var out HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, headers, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) logHeaders() map[string]string {
	h := map[string]string{
		"Content-Type": "application/json",
		"X-App-Id":     c.appID,
	}
	if c.token != "" {
		h["Authorization"] = "Bearer " + c.token
	}
	return h
}
