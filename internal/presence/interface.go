package presence

import "context"

// Store records which participants currently hold at least one live
// connection. Presence is best-effort display state: failures must never
// affect the messaging path, and callers treat every answer as possibly
// stale. It is not a membership broker; channel membership stays in
// process.
type Store interface {
	// Connect records one live connection for the participant.
	Connect(ctx context.Context, participantID string) error

	// Disconnect releases one live connection for the participant.
	Disconnect(ctx context.Context, participantID string) error

	// Online reports, for each given id, whether the participant has at
	// least one live connection.
	Online(ctx context.Context, participantIDs []string) (map[string]bool, error)

	// Close releases the store's resources.
	Close() error
}
