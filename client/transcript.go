package client

import (
	"sync"
	"time"

	"github.com/nakshtra/chat-service/internal/domain"
)

// Entry is one transcript row. Pending entries are locally appended
// optimistic sends that the server has not yet confirmed.
type Entry struct {
	domain.EnrichedMessage
	Pending bool `json:"pending"`
}

// Transcript is the client-side view of one conversation: an ordered list
// of entries deduplicated by message id. Live deliveries and history can
// overlap; a message id is applied at most once.
type Transcript struct {
	mu      sync.Mutex
	selfID  string
	entries []Entry
	seen    map[string]struct{}
}

func newTranscript(selfID string) *Transcript {
	return &Transcript{
		selfID: selfID,
		seen:   make(map[string]struct{}),
	}
}

// Seed appends history entries, skipping ids already present.
func (t *Transcript) Seed(history []domain.EnrichedMessage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, m := range history {
		if _, ok := t.seen[m.ID]; ok {
			continue
		}
		t.seen[m.ID] = struct{}{}
		t.entries = append(t.entries, Entry{EnrichedMessage: m})
	}
}

// AppendPending adds an optimistic local entry under a temporary id.
func (t *Transcript) AppendPending(tempID, conversationID, body string, sender, receiver domain.Participant) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seen[tempID] = struct{}{}
	t.entries = append(t.entries, Entry{
		EnrichedMessage: domain.EnrichedMessage{
			ID:             tempID,
			ConversationID: conversationID,
			Body:           body,
			Sender:         sender,
			Receiver:       receiver,
			CreatedAt:      time.Now().UTC(),
		},
		Pending: true,
	})
}

// Apply merges a delivered message into the transcript. A duplicate id is
// dropped. A confirmation of the client's own send replaces the oldest
// pending entry with a matching body in place, keeping its position; the
// replaced temporary id is returned so the caller can retire it.
func (t *Transcript) Apply(m domain.EnrichedMessage) (applied bool, replacedTempID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.seen[m.ID]; ok {
		return false, ""
	}
	t.seen[m.ID] = struct{}{}

	if m.Sender.ID == t.selfID {
		for i := range t.entries {
			e := &t.entries[i]
			if e.Pending && e.Body == m.Body {
				tempID := e.ID
				delete(t.seen, tempID)
				*e = Entry{EnrichedMessage: m}
				return true, tempID
			}
		}
	}

	t.entries = append(t.entries, Entry{EnrichedMessage: m})
	return true, ""
}

// Remove deletes the entry with the given id, if present. Used to roll back
// an optimistic entry the server rejected.
func (t *Transcript) Remove(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.seen[id]; !ok {
		return false
	}
	delete(t.seen, id)
	for i := range t.entries {
		if t.entries[i].ID == id {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Entries returns a snapshot of the transcript in display order.
func (t *Transcript) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}
