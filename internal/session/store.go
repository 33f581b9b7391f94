// Package session holds the in-memory model of the active conversation and the archive.
//
// The Store is owned by a single history manager and is not safe for
// concurrent use on its own. Read accessors always return copies so that
// callers can never mutate an archived conversation.
package session

import "mindmend/pkg/mindtypes"

// Store is the in-memory holder of a SessionState.
type Store struct {
	state mindtypes.SessionState
}

// NewStore creates a store seeded with a copy of the given state.
func NewStore(initial mindtypes.SessionState) *Store {
	return &Store{state: initial.Clone()}
}

// AppendToActive appends a turn to the active conversation.
func (s *Store) AppendToActive(turn mindtypes.Turn) {
	s.state.Active = append(s.state.Active, turn)
}

// ArchiveActiveIfNonEmpty copies the active conversation to the end of the archive
// when it has at least one turn. It reports whether an entry was added.
// The active conversation itself is left untouched; callers clear it separately.
func (s *Store) ArchiveActiveIfNonEmpty() bool {
	if len(s.state.Active) == 0 {
		return false
	}
	s.state.Archive = append(s.state.Archive, s.state.Active.Clone())
	return true
}

// ClearActive empties the active conversation.
func (s *Store) ClearActive() {
	s.state.Active = mindtypes.Conversation{}
}

// RemoveArchived deletes the archived conversation at index, shifting later entries down.
// Out-of-range indices are a no-op and return false.
func (s *Store) RemoveArchived(index int) bool {
	if index < 0 || index >= len(s.state.Archive) {
		return false
	}
	s.state.Archive = append(s.state.Archive[:index:index], s.state.Archive[index+1:]...)
	return true
}

// Active returns a copy of the active conversation.
func (s *Store) Active() mindtypes.Conversation {
	return s.state.Active.Clone()
}

// ActiveLen returns the number of turns in the active conversation.
func (s *Store) ActiveLen() int {
	return len(s.state.Active)
}

// Archived returns a copy of the archived conversation at index.
func (s *Store) Archived(index int) (mindtypes.Conversation, bool) {
	if index < 0 || index >= len(s.state.Archive) {
		return nil, false
	}
	return s.state.Archive[index].Clone(), true
}

// ArchiveLen returns the number of archived conversations.
func (s *Store) ArchiveLen() int {
	return len(s.state.Archive)
}

// Snapshot returns a deep copy of the full state, suitable for persistence.
func (s *Store) Snapshot() mindtypes.SessionState {
	return s.state.Clone()
}
