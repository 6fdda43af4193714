package gateway

import (
	"sync"

	"github.com/loggate/loggate-go/internal/model"
)

const recentCapacity = 200

// recentStore keeps the most recent records in memory for /logs/recent.
type recentStore struct {
	mu      sync.Mutex
	cap     int
	records []model.Record
}

func newRecentStore(capacity int) *recentStore {
	return &recentStore{cap: capacity}
}

func (s *recentStore) add(rec model.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	if len(s.records) > s.cap {
		s.records = s.records[len(s.records)-s.cap:]
	}
}

// list returns the stored records, newest first.
func (s *recentStore) list() []model.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Record, len(s.records))
	for i, rec := range s.records {
		out[len(s.records)-1-i] = rec
	}
	return out
}
