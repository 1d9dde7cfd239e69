package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/livecast-dev/livecast/internal/domain"
)

var ErrStreamNotFound = errors.New("stream not found")

// StreamRepo stores stream metadata records for the REST surface.
type StreamRepo struct {
	db *DB
}

func NewStreamRepo(db *DB) *StreamRepo {
	return &StreamRepo{db: db}
}

func (r *StreamRepo) Create(ctx context.Context, title, description string, streamer domain.UserID) (*domain.StreamRecord, error) {
	rec := &domain.StreamRecord{
		ID:          domain.RecordID(uuid.NewString()),
		Title:       title,
		Description: description,
		StreamerID:  streamer,
		IsLive:      true,
		StartTime:   time.Now().UTC(),
	}
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO streams (id, title, description, streamer_id, is_live, start_time)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		string(rec.ID), rec.Title, rec.Description, string(rec.StreamerID), rec.IsLive, rec.StartTime,
	)
	if err != nil {
		return nil, fmt.Errorf("insert stream: %w", err)
	}
	return rec, nil
}

func (r *StreamRepo) ListLive(ctx context.Context) ([]domain.StreamRecord, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT s.id, s.title, s.description, s.streamer_id, COALESCE(u.username, ''),
		        s.is_live, s.start_time, s.end_time
		 FROM streams s
		 LEFT JOIN users u ON u.id = s.streamer_id
		 WHERE s.is_live ORDER BY s.start_time DESC`)
	if err != nil {
		return nil, fmt.Errorf("query live streams: %w", err)
	}
	defer rows.Close()

	out := make([]domain.StreamRecord, 0)
	for rows.Next() {
		var rec domain.StreamRecord
		var id, streamer string
		if err := rows.Scan(&id, &rec.Title, &rec.Description, &streamer, &rec.StreamerName, &rec.IsLive, &rec.StartTime, &rec.EndTime); err != nil {
			return nil, fmt.Errorf("scan stream: %w", err)
		}
		rec.ID = domain.RecordID(id)
		rec.StreamerID = domain.UserID(streamer)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// MarkEnded flips a stream record off the live listing. Only the record's
// streamer may end it; anything else reports ErrStreamNotFound.
func (r *StreamRepo) MarkEnded(ctx context.Context, id domain.RecordID, streamer domain.UserID) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE streams SET is_live = false, end_time = $2 WHERE id = $1 AND streamer_id = $3 AND is_live`,
		string(id), time.Now().UTC(), string(streamer),
	)
	if err != nil {
		return fmt.Errorf("mark stream ended: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStreamNotFound
	}
	return nil
}
