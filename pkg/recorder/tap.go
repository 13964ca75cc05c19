package recorder

import (
	"context"
	"log/slog"
)

// Sender matches the command dispatcher's outbound interface.
type Sender interface {
	Send(msg string)
}

// Tap wraps a Sender and records every message it forwards. Placing a
// Tap between the dispatcher and the robot link captures the full
// command history of a session without either side knowing.
type Tap struct {
	next      Sender
	store     *Store
	sessionID string
	logger    *slog.Logger
}

// NewTap creates a recording pass-through in front of next.
func NewTap(next Sender, store *Store, sessionID string, logger *slog.Logger) *Tap {
	return &Tap{next: next, store: store, sessionID: sessionID, logger: logger}
}

// Send forwards the message and persists it. A storage failure is
// logged but never blocks the command path.
func (t *Tap) Send(msg string) {
	t.next.Send(msg)
	if err := t.store.StoreCommand(context.Background(), t.sessionID, msg); err != nil {
		t.logger.Warn("command not recorded", "error", err)
	}
}
