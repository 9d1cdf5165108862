package store

import (
	"context"
	"database/sql"
	"errors"

	"barter-trade-go/internal/models"
)

// Sentinel errors shared across all services. Every operation failure maps to
// exactly one of these kinds; handlers translate them to transport codes with
// errors.Is.
var (
	ErrNotFound               = errors.New("not found")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrInvalidOperation       = errors.New("invalid operation")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrAlreadyConfirmed       = errors.New("already confirmed")
	ErrAlreadySignedIn        = errors.New("already signed in today")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// DBTX is satisfied by both *sql.DB and *sql.Tx. Service methods that must run
// inside a caller-owned transaction accept a DBTX so the whole multi-aggregate
// operation commits or rolls back as one unit.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Notifier is the fire-and-forget notification collaborator. Implementations
// must not fail the triggering operation; delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification)
}
