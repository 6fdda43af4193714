package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/loggate/loggate-go/internal/model"
)

// LogRepository persists and reads ingested records.
type LogRepository struct {
	pool *pgxpool.Pool
}

// NewLogRepository returns a LogRepository using the given pool.
func NewLogRepository(pool *pgxpool.Pool) *LogRepository {
	return &LogRepository{pool: pool}
}

// InsertBatch stores all records in one pgx batch round trip.
func (r *LogRepository) InsertBatch(ctx context.Context, records []model.Record) error {
	if len(records) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, rec := range records {
		var fields []byte
		if rec.Fields != nil {
			raw, err := json.Marshal(rec.Fields)
			if err != nil {
				return fmt.Errorf("encode fields for %s: %w", rec.ID, err)
			}
			fields = raw
		}
		b.Queue(`
			INSERT INTO logs (id, app_id, level, ts, msg, fields, received_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			rec.ID, rec.AppID, rec.Level, rec.Timestamp, rec.Message, fields, rec.ReceivedAt,
		)
	}
	br := r.pool.SendBatch(ctx, b)
	defer br.Close()
	for range records {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert record: %w", err)
		}
	}
	return nil
}

// ListRecent returns up to limit records ordered by received_at descending.
func (r *LogRepository) ListRecent(ctx context.Context, limit int) ([]model.Record, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, app_id, level, ts, msg, fields, received_at
		FROM logs
		ORDER BY received_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []model.Record
	for rows.Next() {
		var rec model.Record
		var fields []byte
		if err := rows.Scan(
			&rec.ID,
			&rec.AppID,
			&rec.Level,
			&rec.Timestamp,
			&rec.Message,
			&fields,
			&rec.ReceivedAt,
		); err != nil {
			return nil, err
		}
		if len(fields) > 0 {
			if err := json.Unmarshal(fields, &rec.Fields); err != nil {
				return nil, fmt.Errorf("decode fields for %s: %w", rec.ID, err)
			}
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}
