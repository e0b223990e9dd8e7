// Package history provides an optional durable log of forwarded messages.
// The router appends opportunistically and tolerates sink failures; when no
// database is configured the noop sink is used.
package history

import (
	"context"
	"time"
)

// Direction tells which way a forwarded message travelled.
type Direction string

const (
	// UserToOperator marks an end-user message relayed to the operator.
	UserToOperator Direction = "user_to_operator"
	// OperatorToUser marks an operator reply relayed to a user.
	OperatorToUser Direction = "operator_to_user"
)

// Entry is one forwarded message.
type Entry struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Direction Direction `db:"direction"`
	Kind      string    `db:"kind"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
}

// Sink stores and retrieves relay history entries.
type Sink interface {
	Append(ctx context.Context, e Entry) error
	// Query returns up to limit most recent entries for the user, newest first.
	Query(ctx context.Context, userID int64, limit int) ([]Entry, error)
}

type noopSink struct{}

// NewNoop returns a sink that records nothing and never fails.
func NewNoop() Sink { return noopSink{} }

func (noopSink) Append(context.Context, Entry) error { return nil }

func (noopSink) Query(context.Context, int64, int) ([]Entry, error) { return nil, nil }
