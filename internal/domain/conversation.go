package domain

import "errors"

// conversationDelimiter joins the two participant ids of a conversation.
// The delimiter is part of the persisted conversation id; changing it
// orphans existing history.
const conversationDelimiter = "-"

// ErrInvalidPair is returned when a conversation id is requested for an
// empty or self-referential participant pair.
var ErrInvalidPair = errors.New("conversation requires two distinct participants")

// ResolveConversation derives the canonical conversation id for an unordered
// pair of participant ids. The two ids are sorted lexicographically and joined,
// so ResolveConversation(a, b) == ResolveConversation(b, a) for every valid
// pair. Every component that needs a conversation id must go through this
// function; recomputing the id elsewhere risks splitting a conversation in two.
func ResolveConversation(a, b string) (string, error) {
	if a == "" || b == "" || a == b {
		return "", ErrInvalidPair
	}
	if b < a {
		a, b = b, a
	}
	return a + conversationDelimiter + b, nil
}
