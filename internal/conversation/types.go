// Package conversation provides the repository for conversation history:
// sessions and their append-only, insertion-ordered messages.
package conversation

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role constants define valid message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ValidRole reports whether role is one of the fixed role set.
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Session groups an ordered sequence of messages into one conversation
// thread. Name falls back to the ID until a title is generated.
type Session struct {
	ID           string
	Name         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	MessageCount int
}

// DisplayName returns the session name, or the ID when unnamed.
func (s *Session) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

// Message is a single conversation message. Messages are immutable once
// written; ID increases monotonically within a session.
type Message struct {
	ID        int64
	SessionID string
	Role      string
	Content   string
	CreatedAt time.Time
}

// NewSessionID generates a session identifier in the
// session_<yyyymmdd_hhmmss>_<uuid8> format.
func NewSessionID() string {
	return fmt.Sprintf("session_%s_%s",
		time.Now().Format("20060102_150405"),
		uuid.NewString()[:8])
}
