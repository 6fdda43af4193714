// Command loggate sends log records to a log-ingestion gateway and can run a
// local dev gateway. Configuration comes from LOGGATE_* environment
// variables (a .env file is honored).
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	loggate "github.com/loggate/loggate-go"
	"github.com/loggate/loggate-go/internal/config"
	"github.com/loggate/loggate-go/internal/gateway"
	"github.com/loggate/loggate-go/internal/gateway/database"
)

func main() {
	_ = godotenv.Load()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	ctx := context.Background()
	switch cmd := os.Args[1]; cmd {
	case "send":
		err = runSend(ctx, cfg, logger, os.Args[2:])
	case "batch":
		err = runBatch(ctx, cfg, logger, os.Args[2:])
	case "health":
		err = runHealth(ctx, cfg, logger)
	case "serve":
		err = runServe(ctx, cfg, logger)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Fatal().Err(err).Str("command", os.Args[1]).Msg("command failed")
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: loggate <command> [flags]

commands:
  send     send one log record (-level, -msg, -service, -f key=value ...)
  batch    send a JSON array of records from -file or stdin
  health   probe the gateway health endpoint
  serve    run a local dev gateway`)
}

func newClient(cfg *config.Config, logger zerolog.Logger) (*loggate.Client, error) {
	return loggate.New(cfg.Client, loggate.WithLogger(logger))
}

// extraFields collects repeated -f key=value flags.
type extraFields map[string]any

func (f extraFields) String() string { return fmt.Sprintf("%v", map[string]any(f)) }

func (f extraFields) Set(s string) error {
	key, value, ok := strings.Cut(s, "=")
	if !ok || key == "" {
		return fmt.Errorf("expected key=value, got %q", s)
	}
	f[key] = value
	return nil
}

func runSend(ctx context.Context, cfg *config.Config, logger zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	level := fs.String("level", "info", "log level: info, warning, error, debug")
	msg := fs.String("msg", "", "log message (required)")
	service := fs.String("service", "", "emitting service name")
	fields := make(extraFields)
	fs.Var(fields, "f", "extra field as key=value (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}

	payload := loggate.Payload{"msg": *msg}
	if *service != "" {
		payload["service"] = *service
	}
	for k, v := range fields {
		payload[k] = v
	}

	var send func(context.Context, loggate.Payload) (*loggate.LogResponse, error)
	switch *level {
	case "info":
		send = client.Info
	case "warning", "warn":
		send = client.Warning
	case "error":
		send = client.Error
	case "debug":
		send = client.Debug
	default:
		return fmt.Errorf("unknown level %q", *level)
	}

	resp, err := send(ctx, payload)
	if err != nil {
		return err
	}
	logger.Info().Bool("success", resp.Success).Int("ingested", resp.Ingested).Msg("sent")
	return nil
}

func runBatch(ctx context.Context, cfg *config.Config, logger zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	file := fs.String("file", "", "JSON array of payloads (default: stdin)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var raw []byte
	var err error
	if *file != "" {
		raw, err = os.ReadFile(*file)
	} else {
		raw, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return fmt.Errorf("read batch input: %w", err)
	}

	var entries []loggate.Payload
	if err := json.Unmarshal(raw, &entries); err != nil {
		return fmt.Errorf("batch input must be a JSON array of payloads: %w", err)
	}

	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}
	resp, err := client.Batch(ctx, entries)
	if err != nil {
		return err
	}
	logger.Info().Bool("success", resp.Success).Int("ingested", resp.Ingested).Msg("batch sent")
	return nil
}

func runHealth(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}
	resp, err := client.TestConnection(ctx)
	if err != nil {
		return err
	}
	logger.Info().Str("status", resp.Status).Str("timestamp", resp.Timestamp).Msg("gateway reachable")
	return nil
}

func runServe(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := buildGateway(ctx, cfg, logger)
	if err != nil {
		return err
	}
	logger.Info().Str("port", cfg.Gateway.Port).Msg("dev gateway listening")
	if err := srv.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func buildGateway(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*gateway.Server, error) {
	if cfg.Gateway.DatabaseURL == "" {
		return gateway.New(&cfg.Gateway, nil, logger), nil
	}
	if err := database.RunMigrations(ctx, cfg.Gateway.DatabaseURL); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}
	pool, err := database.NewPool(ctx, cfg.Gateway.DatabaseURL, logger)
	if err != nil {
		return nil, fmt.Errorf("database pool: %w", err)
	}
	return gateway.New(&cfg.Gateway, pool, logger), nil
}
