package presence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long a connection counts as alive without a
// heartbeat. Clients heartbeat well inside this window.
const DefaultTTL = 90 * time.Second

var (
	// ErrNilUser indicates a call with the zero user id.
	ErrNilUser = errors.New("presence: user id required")

	// ErrConnectionIDRequired indicates a call with an empty
	// connection id.
	ErrConnectionIDRequired = errors.New("presence: connection id required")

	// ErrUnavailable wraps backend failures. Callers treat an
	// unavailable tracker as "user offline".
	ErrUnavailable = errors.New("presence: tracker unavailable")
)

// Tracker answers whether a user currently has a live connection.
// A user is online while at least one of their connections has been
// seen within the TTL.
type Tracker interface {
	// Connect registers a connection for the user.
	Connect(ctx context.Context, userID uuid.UUID, connID string) error

	// Disconnect removes a connection. Removing the last connection
	// takes the user offline.
	Disconnect(ctx context.Context, userID uuid.UUID, connID string) error

	// Heartbeat refreshes a connection's liveness window.
	Heartbeat(ctx context.Context, userID uuid.UUID, connID string) error

	// IsOnline reports whether the user has at least one live
	// connection.
	IsOnline(ctx context.Context, userID uuid.UUID) (bool, error)
}

func validate(userID uuid.UUID, connID string) error {
	if userID == uuid.Nil {
		return ErrNilUser
	}
	if connID == "" {
		return ErrConnectionIDRequired
	}
	return nil
}
