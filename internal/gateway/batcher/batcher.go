// Package batcher accumulates ingested records and flushes them to the
// archive in batches, by size or by interval.
package batcher

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/loggate/loggate-go/internal/model"
)

// Uploader persists one batch and returns its storage key.
type Uploader interface {
	UploadBatch(ctx context.Context, records []model.Record) (string, error)
}

// Config controls flush thresholds.
type Config struct {
	MaxBatchSize  int
	FlushInterval time.Duration
}

// DefaultConfig returns the thresholds used when nothing is configured.
func DefaultConfig() Config {
	return Config{MaxBatchSize: 100, FlushInterval: 30 * time.Second}
}

// Batcher buffers records and flushes them to an Uploader when the buffer
// reaches MaxBatchSize or FlushInterval elapses. Stop flushes what remains.
type Batcher struct {
	cfg      Config
	uploader Uploader
	log      zerolog.Logger
	onFlush  func(count int, key string)

	mu      sync.Mutex
	pending []model.Record

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// New starts a Batcher. onFlush may be nil.
func New(cfg Config, uploader Uploader, logger zerolog.Logger, onFlush func(count int, key string)) *Batcher {
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = DefaultConfig().MaxBatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultConfig().FlushInterval
	}
	b := &Batcher{
		cfg:      cfg,
		uploader: uploader,
		log:      logger,
		onFlush:  onFlush,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go b.run()
	return b
}

// Add buffers one record, flushing if the batch is now full.
func (b *Batcher) Add(rec model.Record) {
	b.mu.Lock()
	b.pending = append(b.pending, rec)
	full := len(b.pending) >= b.cfg.MaxBatchSize
	b.mu.Unlock()
	if full {
		b.flush()
	}
}

// Pending returns the number of buffered records.
func (b *Batcher) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Stop ends the interval loop and flushes remaining records. Repeated calls
// are no-ops.
func (b *Batcher) Stop() {
	b.stopOnce.Do(func() {
		close(b.stop)
		<-b.done
		b.flush()
	})
}

func (b *Batcher) run() {
	defer close(b.done)
	ticker := time.NewTicker(b.cfg.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			b.flush()
		case <-b.stop:
			return
		}
	}
}

func (b *Batcher) flush() {
	b.mu.Lock()
	if len(b.pending) == 0 {
		b.mu.Unlock()
		return
	}
	batch := b.pending
	b.pending = nil
	b.mu.Unlock()

	key, err := b.uploader.UploadBatch(context.Background(), batch)
	if err != nil {
		b.log.Error().Err(err).Int("count", len(batch)).Msg("upload batch")
		// Records are requeued so the next flush retries them.
		b.mu.Lock()
		b.pending = append(batch, b.pending...)
		b.mu.Unlock()
		return
	}
	b.log.Debug().Int("count", len(batch)).Str("key", key).Msg("batch uploaded")
	if b.onFlush != nil {
		b.onFlush(len(batch), key)
	}
}
