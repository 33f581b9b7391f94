// Package mindtypes defines conversation and session types for MindMend.
// This file contains the core data model: turns, conversations, the complete
// session state and the summaries exposed to the display layer.
package mindtypes

import "unicode/utf8"

// Role identifies the speaker of a turn.
type Role string

const (
	// RoleUser marks a turn written by the person using the assistant.
	RoleUser Role = "user"
	// RoleAssistant marks a turn produced by the inference service or the fallback generator.
	RoleAssistant Role = "assistant"
)

// EmptyChatPreview is the summary shown for an archived conversation without any user turn.
const EmptyChatPreview = "(empty chat)"

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Turn represents a single message in a conversation.
// Turns are values; once appended they are never edited in place.
type Turn struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// UserTurn builds a user turn with the given content.
func UserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

// AssistantTurn builds an assistant turn with the given content.
func AssistantTurn(content string) Turn {
	return Turn{Role: RoleAssistant, Content: content}
}

// Conversation is an ordered, chronological sequence of turns.
type Conversation []Turn

// Len returns the number of turns.
func (c Conversation) Len() int {
	return len(c)
}

// Clone returns an independent copy. A nil conversation clones to an empty, non-nil one.
func (c Conversation) Clone() Conversation {
	out := make(Conversation, len(c))
	copy(out, c)
	return out
}

// Equal reports whether both conversations hold the same turns in the same order.
func (c Conversation) Equal(other Conversation) bool {
	if len(c) != len(other) {
		return false
	}
	for i := range c {
		if c[i] != other[i] {
			return false
		}
	}
	return true
}

// FirstUserTurn returns the first turn spoken by the user, if any.
func (c Conversation) FirstUserTurn() (Turn, bool) {
	for _, t := range c {
		if t.Role == RoleUser {
			return t, true
		}
	}
	return Turn{}, false
}

// LastAssistantTurn returns the most recent assistant turn, if any.
func (c Conversation) LastAssistantTurn() (Turn, bool) {
	for i := len(c) - 1; i >= 0; i-- {
		if c[i].Role == RoleAssistant {
			return c[i], true
		}
	}
	return Turn{}, false
}

// Preview returns the leading maxRunes runes of the first user turn followed by
// "...", or EmptyChatPreview when there is no user turn.
func (c Conversation) Preview(maxRunes int) string {
	first, ok := c.FirstUserTurn()
	if !ok {
		return EmptyChatPreview
	}
	content := first.Content
	if maxRunes >= 0 && utf8.RuneCountInString(content) > maxRunes {
		content = string([]rune(content)[:maxRunes])
	}
	return content + "..."
}

// SessionState represents the complete state of a MindMend session.
// It is always persisted as a whole; there is no partial persistence.
type SessionState struct {
	Active  Conversation   `json:"messages"`
	Archive []Conversation `json:"chats"`
}

// EmptyState returns the initial state used when nothing valid was persisted.
func EmptyState() SessionState {
	return SessionState{
		Active:  Conversation{},
		Archive: []Conversation{},
	}
}

// Clone returns a deep copy of the state.
func (s SessionState) Clone() SessionState {
	out := SessionState{
		Active:  s.Active.Clone(),
		Archive: make([]Conversation, len(s.Archive)),
	}
	for i, conv := range s.Archive {
		out.Archive[i] = conv.Clone()
	}
	return out
}

// Equal reports whether two states hold the same active turns and the same archive in the same order.
func (s SessionState) Equal(other SessionState) bool {
	if !s.Active.Equal(other.Active) || len(s.Archive) != len(other.Archive) {
		return false
	}
	for i := range s.Archive {
		if !s.Archive[i].Equal(other.Archive[i]) {
			return false
		}
	}
	return true
}

// Summary describes one archived conversation for listing.
// Index is positional and becomes stale after any deletion.
type Summary struct {
	Index     int    `json:"index"`
	Preview   string `json:"preview"`
	TurnCount int    `json:"turn_count"`
}
