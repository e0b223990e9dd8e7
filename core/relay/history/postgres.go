package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"log/slog"

	"github.com/m3rciful/relaybot/core/logger"
)

const defaultQueryLimit = 20

// PostgresSink persists relay history in the relay_history table.
type PostgresSink struct {
	db *sqlx.DB
}

// NewPostgres wraps an already-connected database handle.
func NewPostgres(db *sqlx.DB) *PostgresSink {
	return &PostgresSink{db: db}
}

// Append inserts one entry.
func (s *PostgresSink) Append(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	start := time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO relay_history (user_id, direction, kind, content, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		e.UserID, e.Direction, e.Kind, e.Content, e.CreatedAt,
	)
	if err != nil {
		logger.Error(ctx, "history", "history.append",
			slog.Int64("user_id", e.UserID),
			slog.Duration("duration", logger.Took(start)),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("history append: %w", err)
	}
	return nil
}

// Query returns up to limit most recent entries for the user, newest first.
func (s *PostgresSink) Query(ctx context.Context, userID int64, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	var entries []Entry
	err := s.db.SelectContext(ctx, &entries,
		`SELECT id, user_id, direction, kind, content, created_at
		 FROM relay_history
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		logger.Error(ctx, "history", "history.query",
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("history query: %w", err)
	}
	return entries, nil
}
