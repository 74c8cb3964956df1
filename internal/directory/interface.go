package directory

import (
	"context"
	"errors"

	"github.com/nakshtra/chat-service/internal/domain"
)

// ErrParticipantNotFound is returned when no participant exists for an id.
var ErrParticipantNotFound = errors.New("participant not found")

// Directory is the user-directory contract: the list of addressable
// participants and their minimal profiles. The directory is owned by the
// wider application; this service only reads it.
type Directory interface {
	// Get resolves one participant's profile.
	Get(ctx context.Context, participantID string) (domain.Participant, error)

	// List returns every participant except excludeID, sorted by display name.
	List(ctx context.Context, excludeID string) ([]domain.Participant, error)
}
