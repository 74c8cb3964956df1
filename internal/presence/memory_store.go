package presence

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store for tests and standalone development.
type MemoryStore struct {
	mu          sync.RWMutex
	connections map[string]int
}

// NewMemoryStore creates an empty in-memory presence store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{connections: make(map[string]int)}
}

// Connect records one live connection for the participant.
func (s *MemoryStore) Connect(ctx context.Context, participantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connections[participantID]++
	return nil
}

// Disconnect releases one live connection for the participant.
func (s *MemoryStore) Disconnect(ctx context.Context, participantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connections[participantID]--
	if s.connections[participantID] <= 0 {
		delete(s.connections, participantID)
	}
	return nil
}

// Online reports liveness for each given participant id.
func (s *MemoryStore) Online(ctx context.Context, participantIDs []string) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]bool, len(participantIDs))
	for _, id := range participantIDs {
		out[id] = s.connections[id] > 0
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
