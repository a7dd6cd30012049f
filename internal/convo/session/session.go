package session

import (
	"time"

	"github.com/mizutani/convo/internal/convo"
)

// Session is the durable record of one conversation. It is serialized as a
// single JSON document, one file per session.
type Session struct {
	SessionID string          `json:"session_id"` // Lexical timestamp format (e.g. "20260831_142501")
	CreatedAt time.Time       `json:"created_at"` // Set once at creation, never mutated
	Messages  []convo.Message `json:"messages"`   // Insertion order = conversation order, append-only
}

// newSession creates an empty session record with the given ID.
func newSession(id string, now time.Time) *Session {
	return &Session{
		SessionID: id,
		CreatedAt: now,
		Messages:  []convo.Message{},
	}
}

// appendMessage adds a message to the session. Timestamps are clamped so
// they never decrease within a session, even if the wall clock steps back.
func (s *Session) appendMessage(role convo.Role, content string, now time.Time) {
	if n := len(s.Messages); n > 0 && now.Before(s.Messages[n-1].Timestamp) {
		now = s.Messages[n-1].Timestamp
	}
	s.Messages = append(s.Messages, convo.Message{
		Role:      role,
		Content:   content,
		Timestamp: now,
	})
}

// LastMessageAt returns the timestamp of the final message, or CreatedAt for
// an empty session. It is derived, never persisted separately.
func (s *Session) LastMessageAt() time.Time {
	if n := len(s.Messages); n > 0 {
		return s.Messages[n-1].Timestamp
	}
	return s.CreatedAt
}

// MessageCount returns the number of messages in the session.
func (s *Session) MessageCount() int {
	return len(s.Messages)
}

// Metadata describes a session without its message bodies. Used for listing
// and selection.
type Metadata struct {
	ID            string
	CreatedAt     time.Time
	LastMessageAt time.Time
	MessageCount  int
}

// metadata extracts the listing view of a session.
func (s *Session) metadata() Metadata {
	return Metadata{
		ID:            s.SessionID,
		CreatedAt:     s.CreatedAt,
		LastMessageAt: s.LastMessageAt(),
		MessageCount:  s.MessageCount(),
	}
}
