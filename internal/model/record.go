package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Record is one ingested log record as the gateway stores it.
type Record struct {
	ID         uuid.UUID      `json:"id"`
	AppID      string         `json:"app_id"`
	Level      string         `json:"level"`
	Timestamp  string         `json:"timestamp"`
	Message    string         `json:"msg"`
	Fields     map[string]any `json:"fields,omitempty"`
	ReceivedAt time.Time      `json:"received_at"`
}

// ErrMissingMsg rejects entries without a usable msg field.
var ErrMissingMsg = errors.New("missing msg")

// NewRecord builds a Record from a decoded ingest entry. The msg field is
// required; level defaults to info and timestamp to the receive time. Every
// other key lands in Fields unchanged.
func NewRecord(appID string, entry map[string]any) (Record, error) {
	msg, ok := entry["msg"].(string)
	if !ok || msg == "" {
		return Record{}, ErrMissingMsg
	}
	rec := Record{
		ID:         uuid.New(),
		AppID:      appID,
		Level:      "info",
		Message:    msg,
		ReceivedAt: time.Now().UTC(),
	}
	if lvl, ok := entry["level"].(string); ok && lvl != "" {
		rec.Level = lvl
	}
	if ts, ok := entry["timestamp"].(string); ok && ts != "" {
		rec.Timestamp = ts
	} else {
		rec.Timestamp = rec.ReceivedAt.Format(time.RFC3339)
	}
	for k, v := range entry {
		switch k {
		case "msg", "level", "timestamp":
			continue
		}
		if rec.Fields == nil {
			rec.Fields = make(map[string]any)
		}
		rec.Fields[k] = v
	}
	return rec, nil
}
