package contract

import (
	"context"
	"time"
)

// Generator is the text-generation capability. Implementations return the raw
// model text for a system+user prompt pair; they never parse it. Failures are
// reported as ErrUnavailable or ErrRateLimited wrapped with transport detail.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// Storage is the persistence collaborator. Every call may fail with
// ErrUnavailable; no multi-call atomicity is assumed beyond what single
// methods document.
type Storage interface {
	FindOrCreateUser(ctx context.Context, identifier string) (int64, error)
	GetUserProfile(ctx context.Context, identifier string) (*Profile, error)
	UpdateUserProfile(ctx context.Context, identifier, name, contact string) error

	InsertTransaction(ctx context.Context, userID int64, tx Transaction) error
	QueryAggregates(ctx context.Context, userID int64, rng Range) ([]AggregateRow, error)

	CountRecentCredentials(ctx context.Context, userID int64, window time.Duration) (int, error)
	// ReplaceActiveCredential atomically invalidates all prior codes for the
	// user and stores the new one with the given ttl.
	ReplaceActiveCredential(ctx context.Context, userID int64, code string, ttl time.Duration) error
}

// Messenger delivers final response text to a channel address. The core emits
// plain text only; formatting for a given transport is the implementation's
// concern.
type Messenger interface {
	SendText(ctx context.Context, to, text string) error
}
