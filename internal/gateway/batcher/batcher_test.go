package batcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/loggate/loggate-go/internal/model"
)

type fakeUploader struct {
	mu      sync.Mutex
	batches [][]model.Record
	fail    bool
}

func (u *fakeUploader) UploadBatch(_ context.Context, records []model.Record) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.fail {
		return "", errors.New("upload failed")
	}
	cp := make([]model.Record, len(records))
	copy(cp, records)
	u.batches = append(u.batches, cp)
	return fmt.Sprintf("logs/batch-%d.json.gz", len(u.batches)), nil
}

func (u *fakeUploader) count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.batches)
}

func record(msg string) model.Record {
	rec, err := model.NewRecord("test-app", map[string]any{"msg": msg})
	if err != nil {
		panic(err)
	}
	return rec
}

func TestBatcher_FlushesWhenFull(t *testing.T) {
	up := &fakeUploader{}
	b := New(Config{MaxBatchSize: 3, FlushInterval: time.Hour}, up, zerolog.Nop(), nil)
	defer b.Stop()

	b.Add(record("a"))
	b.Add(record("b"))
	if got := up.count(); got != 0 {
		t.Fatalf("flushed %d batches before the threshold", got)
	}
	b.Add(record("c"))
	if got := up.count(); got != 1 {
		t.Fatalf("got %d batches, want 1", got)
	}
	if got := len(up.batches[0]); got != 3 {
		t.Errorf("batch size = %d, want 3", got)
	}
	if got := b.Pending(); got != 0 {
		t.Errorf("pending = %d after flush, want 0", got)
	}
}

func TestBatcher_StopFlushesRemainder(t *testing.T) {
	up := &fakeUploader{}
	b := New(Config{MaxBatchSize: 100, FlushInterval: time.Hour}, up, zerolog.Nop(), nil)

	b.Add(record("a"))
	b.Add(record("b"))
	b.Stop()

	if got := up.count(); got != 1 {
		t.Fatalf("got %d batches after Stop, want 1", got)
	}
	if got := len(up.batches[0]); got != 2 {
		t.Errorf("batch size = %d, want 2", got)
	}
}

func TestBatcher_RequeuesOnUploadFailure(t *testing.T) {
	up := &fakeUploader{fail: true}
	b := New(Config{MaxBatchSize: 2, FlushInterval: time.Hour}, up, zerolog.Nop(), nil)

	b.Add(record("a"))
	b.Add(record("b"))
	if got := b.Pending(); got != 2 {
		t.Fatalf("pending = %d after failed flush, want 2", got)
	}

	up.mu.Lock()
	up.fail = false
	up.mu.Unlock()

	b.Stop()
	if got := up.count(); got != 1 {
		t.Fatalf("got %d batches after recovery, want 1", got)
	}
	if got := len(up.batches[0]); got != 2 {
		t.Errorf("batch size = %d, want 2", got)
	}
}

func TestBatcher_StopTwice(t *testing.T) {
	up := &fakeUploader{}
	b := New(Config{MaxBatchSize: 100, FlushInterval: time.Hour}, up, zerolog.Nop(), nil)

	b.Add(record("a"))
	b.Stop()
	b.Stop()

	if got := up.count(); got != 1 {
		t.Fatalf("got %d batches after double Stop, want 1", got)
	}
}

func TestBatcher_OnFlushHook(t *testing.T) {
	up := &fakeUploader{}
	var (
		mu       sync.Mutex
		gotCount int
		gotKey   string
	)
	b := New(Config{MaxBatchSize: 1, FlushInterval: time.Hour}, up, zerolog.Nop(), func(count int, key string) {
		mu.Lock()
		defer mu.Unlock()
		gotCount, gotKey = count, key
	})
	defer b.Stop()

	b.Add(record("a"))
	mu.Lock()
	defer mu.Unlock()
	if gotCount != 1 {
		t.Errorf("onFlush count = %d, want 1", gotCount)
	}
	if gotKey == "" {
		t.Error("onFlush key is empty")
	}
}
