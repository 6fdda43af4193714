package loggate

import (
	"context"
	"sync/atomic"
)

// The process-wide default client. Configure stores into it and the
// package-level send functions load from it. Concurrent Configure calls are
// last-writer-wins; there is no other coordination.
var defaultClient atomic.Pointer[Client]

// Configure builds a client from cfg and registers it as the process-wide
// default used by the package-level send functions, replacing any previously
// registered client. The new client is also returned for direct use.
func Configure(cfg Config, opts ...Option) (*Client, error) {
	c, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	defaultClient.Store(c)
	return c, nil
}

// Reset clears the process-wide default client. Subsequent package-level
// sends fail with ErrNotConfigured until Configure is called again.
func Reset() {
	defaultClient.Store(nil)
}

func registered() (*Client, error) {
	c := defaultClient.Load()
	if c == nil {
		return nil, ErrNotConfigured
	}
	return c, nil
}

// Info sends one record at level info through the default client.
func Info(ctx context.Context, p Payload) (*LogResponse, error) {
	c, err := registered()
	if err != nil {
		return nil, err
	}
	return c.Info(ctx, p)
}

// Warning sends one record at level warn through the default client.
func Warning(ctx context.Context, p Payload) (*LogResponse, error) {
	c, err := registered()
	if err != nil {
		return nil, err
	}
	return c.Warning(ctx, p)
}

// Error sends one record at level error through the default client.
func Error(ctx context.Context, p Payload) (*LogResponse, error) {
	c, err := registered()
	if err != nil {
		return nil, err
	}
	return c.Error(ctx, p)
}

// Debug sends one record at level debug through the default client.
func Debug(ctx context.Context, p Payload) (*LogResponse, error) {
	c, err := registered()
	if err != nil {
		return nil, err
	}
	return c.Debug(ctx, p)
}

// Batch sends several records in one POST through the default client.
func Batch(ctx context.Context, entries []Payload) (*LogResponse, error) {
	c, err := registered()
	if err != nil {
		return nil, err
	}
	return c.Batch(ctx, entries)
}

// TestConnection probes the gateway's health endpoint through the default
// client.
func TestConnection(ctx context.Context) (*HealthResponse, error) {
	c, err := registered()
	if err != nil {
		return nil, err
	}
	return c.TestConnection(ctx)
}
