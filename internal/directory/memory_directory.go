package directory

import (
	"context"
	"sort"
	"sync"

	"github.com/nakshtra/chat-service/internal/domain"
)

// MemoryDirectory is an in-memory Directory for tests and standalone
// development.
type MemoryDirectory struct {
	mu           sync.RWMutex
	participants map[string]domain.Participant
}

// NewMemoryDirectory creates a directory preloaded with the given participants.
func NewMemoryDirectory(participants ...domain.Participant) *MemoryDirectory {
	d := &MemoryDirectory{participants: make(map[string]domain.Participant)}
	for _, p := range participants {
		d.participants[p.ID] = p
	}
	return d
}

// Add registers or replaces a participant.
func (d *MemoryDirectory) Add(p domain.Participant) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.participants[p.ID] = p
}

// Get resolves one participant's profile.
func (d *MemoryDirectory) Get(ctx context.Context, participantID string) (domain.Participant, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.participants[participantID]
	if !ok {
		return domain.Participant{}, ErrParticipantNotFound
	}
	return p, nil
}

// List returns every participant except excludeID, sorted by display name.
func (d *MemoryDirectory) List(ctx context.Context, excludeID string) ([]domain.Participant, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]domain.Participant, 0, len(d.participants))
	for id, p := range d.participants {
		if id == excludeID {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayName < out[j].DisplayName })
	return out, nil
}
