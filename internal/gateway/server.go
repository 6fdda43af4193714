// Package gateway is a local log-ingestion gateway speaking the protocol the
// loggate client expects: POST /logs for single records or JSON arrays,
// GET /health for probes. It exists for development and integration testing
// against a real wire exchange.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/loggate/loggate-go/internal/config"
	"github.com/loggate/loggate-go/internal/gateway/batcher"
	"github.com/loggate/loggate-go/internal/gateway/repository"
	"github.com/loggate/loggate-go/internal/gateway/storage"
	"github.com/loggate/loggate-go/internal/model"
)

// Server holds the Echo app and its sinks. The recent store is always
// present; the repository and batcher are wired only when configured.
type Server struct {
	Echo    *echo.Echo
	cfg     *config.GatewayConfig
	log     zerolog.Logger
	recent  *recentStore
	repo    *repository.LogRepository
	archive *storage.ArchiveClient
	batcher *batcher.Batcher
}

// New builds the Echo server and registers routes. pool may be nil; records
// are then kept in memory only. The archive batcher starts when the config
// carries usable archive settings.
func New(cfg *config.GatewayConfig, pool *pgxpool.Pool, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover(), middleware.Logger())

	s := &Server{
		Echo:   e,
		cfg:    cfg,
		log:    logger,
		recent: newRecentStore(recentCapacity),
	}
	if pool != nil {
		s.repo = repository.NewLogRepository(pool)
	}
	if cfg.Archive != nil {
		archive, err := storage.NewArchiveClient(cfg.Archive)
		if err != nil {
			logger.Error().Err(err).Msg("archive client unavailable, batches stay in memory")
		}
		if archive != nil {
			if err := archive.EnsureBucket(context.Background()); err != nil {
				logger.Error().Err(err).Msg("ensure archive bucket, uploads may fail")
			}
			s.archive = archive
			bc := batcher.DefaultConfig()
			if cfg.Archive.MaxBatchSize > 0 {
				bc.MaxBatchSize = cfg.Archive.MaxBatchSize
			}
			if cfg.Archive.FlushInterval != "" {
				if d, err := time.ParseDuration(cfg.Archive.FlushInterval); err == nil && d > 0 {
					bc.FlushInterval = d
				}
			}
			s.batcher = batcher.New(bc, archive, logger, func(count int, key string) {
				logger.Info().Int("count", count).Str("key", key).Msg("batch archived")
			})
		}
	}

	e.POST("/logs", s.handleIngest)
	e.GET("/health", s.handleHealth)
	e.GET("/logs/recent", s.handleRecent)
	e.GET("/uploads", s.handleUploads)
	e.GET("/uploads/content", s.handleUploadContent)
	return s
}

// Start blocks until the server fails or ctx is cancelled, in which case it
// shuts down gracefully and the batcher flushes what remains.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = s.Shutdown(context.Background())
	}()
	return s.Echo.Start(":" + s.cfg.Port)
}

// Shutdown stops the batcher (final flush) and drains in-flight requests
// before closing the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.batcher != nil {
		s.batcher.Stop()
	}
	return s.Echo.Shutdown(ctx)
}

func (s *Server) handleIngest(c echo.Context) error {
	appID := c.Request().Header.Get("X-App-Id")
	if appID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing X-App-Id header"})
	}
	if s.cfg.Token != "" {
		if c.Request().Header.Get("Authorization") != "Bearer "+s.cfg.Token {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid bearer token"})
		}
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "read request body"})
	}
	entries, err := decodeEntries(body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	records := make([]model.Record, 0, len(entries))
	for i, entry := range entries {
		rec, err := model.NewRecord(appID, entry)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": fmt.Sprintf("entry %d: %v", i, err),
			})
		}
		records = append(records, rec)
	}

	for _, rec := range records {
		s.recent.add(rec)
		if s.batcher != nil {
			s.batcher.Add(rec)
		}
	}
	if s.repo != nil {
		if err := s.repo.InsertBatch(c.Request().Context(), records); err != nil {
			s.log.Error().Err(err).Int("count", len(records)).Msg("store records")
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "store records failed"})
		}
	}
	return c.JSON(http.StatusCreated, map[string]any{"success": true, "ingested": len(records)})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleRecent(c echo.Context) error {
	if s.repo != nil {
		records, err := s.repo.ListRecent(c.Request().Context(), recentCapacity)
		if err != nil {
			s.log.Error().Err(err).Msg("list stored records")
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "list records failed"})
		}
		return c.JSON(http.StatusOK, map[string]any{"logs": records})
	}
	return c.JSON(http.StatusOK, map[string]any{"logs": s.recent.list()})
}

// handleUploads lists archived batch objects (GET /uploads?prefix=logs/).
func (s *Server) handleUploads(c echo.Context) error {
	if s.archive == nil {
		return c.JSON(http.StatusOK, map[string]any{"objects": []storage.ObjectInfo{}})
	}
	prefix := c.QueryParam("prefix")
	if prefix == "" {
		prefix = "logs/"
	}
	list, err := s.archive.ListBatches(c.Request().Context(), prefix)
	if err != nil {
		s.log.Error().Err(err).Str("prefix", prefix).Msg("list uploads")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "list uploads failed"})
	}
	return c.JSON(http.StatusOK, map[string]any{"objects": list})
}

// handleUploadContent returns the records of one archived batch by key.
func (s *Server) handleUploadContent(c echo.Context) error {
	if s.archive == nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "archive not configured"})
	}
	key := c.QueryParam("key")
	if key == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "query param key is required"})
	}
	records, err := s.archive.GetBatch(c.Request().Context(), key)
	if err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("get upload content")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "get upload content failed"})
	}
	return c.JSON(http.StatusOK, map[string]any{"logs": records, "key": key})
}

// decodeEntries accepts either a single log object or a JSON array of them.
func decodeEntries(body []byte) ([]map[string]any, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty body")
	}
	if trimmed[0] == '[' {
		var entries []map[string]any
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, fmt.Errorf("invalid JSON array: %v", err)
		}
		return entries, nil
	}
	var entry map[string]any
	if err := json.Unmarshal(trimmed, &entry); err != nil {
		return nil, fmt.Errorf("invalid JSON object: %v", err)
	}
	return []map[string]any{entry}, nil
}
