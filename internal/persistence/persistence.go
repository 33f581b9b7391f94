// Package persistence saves and restores the complete session state to a key-value store.
//
// Saving is best effort: a failed write leaves the in-memory state valid and
// is reported as a degraded Result rather than an error. Loading never fails;
// an absent or unreadable record yields the empty initial state.
package persistence

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"mindmend/internal/logger"
	"mindmend/internal/version"
	"mindmend/pkg/mindtypes"
)

// StateKey is the fixed key the whole session blob is stored under.
const StateKey = "mindmend_ai_state"

// SaveStatus classifies the outcome of a save.
type SaveStatus int

const (
	// Saved means the full state was written.
	Saved SaveStatus = iota
	// Degraded means the write failed; the in-memory state is still valid but not durable.
	Degraded
)

func (s SaveStatus) String() string {
	switch s {
	case Saved:
		return "saved"
	case Degraded:
		return "degraded"
	default:
		return fmt.Sprintf("SaveStatus(%d)", int(s))
	}
}

// Result reports the outcome of a save.
type Result struct {
	Status SaveStatus
	Err    error
}

// OK reports whether the state was written.
func (r Result) OK() bool {
	return r.Status == Saved
}

// LoadStatus classifies the outcome of a load.
type LoadStatus int

const (
	// Restored means a valid record was found and decoded.
	Restored LoadStatus = iota
	// Fresh means no record existed.
	Fresh
	// Recovered means a record existed but could not be used; the empty state was substituted.
	Recovered
)

func (s LoadStatus) String() string {
	switch s {
	case Restored:
		return "restored"
	case Fresh:
		return "fresh"
	case Recovered:
		return "recovered"
	default:
		return fmt.Sprintf("LoadStatus(%d)", int(s))
	}
}

// LoadResult carries the state produced by Load and how it was obtained.
type LoadResult struct {
	State  mindtypes.SessionState
	Status LoadStatus
	Err    error
}

// ErrInvalidRecord marks a persisted record that does not describe a valid session state.
var ErrInvalidRecord = errors.New("invalid session record")

// record is the on-disk shape. The messages/chats keys match the blobs written
// by earlier web builds, so those load unchanged.
type record struct {
	Version  string                   `json:"version,omitempty"`
	Messages mindtypes.Conversation   `json:"messages"`
	Chats    []mindtypes.Conversation `json:"chats"`
}

// Persister saves and loads session state through a KVStore.
// It only reads the state it is given and never mutates it.
type Persister struct {
	store mindtypes.KVStore
}

// New creates a Persister over store.
func New(store mindtypes.KVStore) *Persister {
	return &Persister{store: store}
}

// Save serializes the entire state under StateKey, overwriting any previous record.
func (p *Persister) Save(state mindtypes.SessionState) Result {
	data, err := Encode(state)
	if err != nil {
		logger.Warn("Failed to encode session state", "error", err)
		return Result{Status: Degraded, Err: err}
	}
	if err := p.store.Set(StateKey, data); err != nil {
		logger.Warn("Session state not persisted", "error", err)
		return Result{Status: Degraded, Err: fmt.Errorf("failed to persist session state: %w", err)}
	}
	logger.Debug("Session state persisted", "bytes", len(data), "active_turns", len(state.Active), "archived", len(state.Archive))
	return Result{Status: Saved}
}

// Load reads the record under StateKey. It never returns an error: problems are
// reported through LoadResult.Status and LoadResult.Err.
func (p *Persister) Load() LoadResult {
	data, err := p.store.Get(StateKey)
	if errors.Is(err, mindtypes.ErrKeyNotFound) {
		logger.Debug("No persisted session state, starting fresh")
		return LoadResult{State: mindtypes.EmptyState(), Status: Fresh}
	}
	if err != nil {
		logger.Warn("Failed to read persisted session state, starting fresh", "error", err)
		return LoadResult{State: mindtypes.EmptyState(), Status: Recovered, Err: err}
	}

	state, err := Decode(data)
	if err != nil {
		logger.Warn("Persisted session state is corrupt, starting fresh", "error", err)
		return LoadResult{State: mindtypes.EmptyState(), Status: Recovered, Err: err}
	}
	logger.Debug("Session state restored", "active_turns", len(state.Active), "archived", len(state.Archive))
	return LoadResult{State: state, Status: Restored}
}

// Encode serializes state into the persisted record format.
func Encode(state mindtypes.SessionState) ([]byte, error) {
	rec := record{
		Version:  version.StateSchemaVersion,
		Messages: state.Active,
		Chats:    state.Archive,
	}
	if rec.Messages == nil {
		rec.Messages = mindtypes.Conversation{}
	}
	if rec.Chats == nil {
		rec.Chats = []mindtypes.Conversation{}
	}
	return json.Marshal(rec)
}

// Decode parses a persisted record, validating its shape.
func Decode(data []byte) (mindtypes.SessionState, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return mindtypes.SessionState{}, fmt.Errorf("%w: not a JSON object", ErrInvalidRecord)
	}

	var rec record
	if err := json.Unmarshal(trimmed, &rec); err != nil {
		return mindtypes.SessionState{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if err := version.StateCompatible(rec.Version); err != nil {
		return mindtypes.SessionState{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	state := mindtypes.SessionState{
		Active:  rec.Messages,
		Archive: rec.Chats,
	}
	if err := validateConversation(state.Active); err != nil {
		return mindtypes.SessionState{}, fmt.Errorf("%w: active conversation: %v", ErrInvalidRecord, err)
	}
	for i, conv := range state.Archive {
		if err := validateConversation(conv); err != nil {
			return mindtypes.SessionState{}, fmt.Errorf("%w: archived conversation %d: %v", ErrInvalidRecord, i, err)
		}
	}

	// Normalize nils so a restored state is indistinguishable from EmptyState.
	return state.Clone(), nil
}

func validateConversation(conv mindtypes.Conversation) error {
	for i, turn := range conv {
		if !turn.Role.Valid() {
			return fmt.Errorf("turn %d has unknown role '%s'", i, turn.Role)
		}
	}
	return nil
}
