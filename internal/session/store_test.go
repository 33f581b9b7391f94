package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindmend/pkg/mindtypes"
)

func conv(texts ...string) mindtypes.Conversation {
	c := mindtypes.Conversation{}
	for _, text := range texts {
		c = append(c, mindtypes.UserTurn(text))
	}
	return c
}

func TestNewStore_CopiesInitialState(t *testing.T) {
	initial := mindtypes.SessionState{Active: conv("a"), Archive: []mindtypes.Conversation{conv("b")}}
	store := NewStore(initial)

	initial.Active[0].Content = "mutated"
	initial.Archive[0][0].Content = "mutated"

	snap := store.Snapshot()
	assert.Equal(t, "a", snap.Active[0].Content)
	assert.Equal(t, "b", snap.Archive[0][0].Content)
}

func TestStore_AppendToActive(t *testing.T) {
	store := NewStore(mindtypes.EmptyState())
	store.AppendToActive(mindtypes.UserTurn("hi"))
	store.AppendToActive(mindtypes.AssistantTurn("hello"))

	active := store.Active()
	require.Len(t, active, 2)
	assert.Equal(t, mindtypes.UserTurn("hi"), active[0])
	assert.Equal(t, mindtypes.AssistantTurn("hello"), active[1])
	assert.Equal(t, 2, store.ActiveLen())
}

func TestStore_ArchiveActiveIfNonEmpty(t *testing.T) {
	store := NewStore(mindtypes.EmptyState())

	assert.False(t, store.ArchiveActiveIfNonEmpty())
	assert.Equal(t, 0, store.ArchiveLen())

	store.AppendToActive(mindtypes.UserTurn("hi"))
	assert.True(t, store.ArchiveActiveIfNonEmpty())
	assert.Equal(t, 1, store.ArchiveLen())
	assert.Equal(t, 1, store.ActiveLen(), "archiving does not clear active")
}

func TestStore_ArchivedEntriesAreImmutable(t *testing.T) {
	store := NewStore(mindtypes.EmptyState())
	store.AppendToActive(mindtypes.UserTurn("hi"))
	store.ArchiveActiveIfNonEmpty()

	// Growing active after archiving must not leak into the archived copy.
	store.AppendToActive(mindtypes.AssistantTurn("later"))
	archived, ok := store.Archived(0)
	require.True(t, ok)
	assert.Equal(t, conv("hi"), archived)

	// Mutating a returned copy must not affect the store.
	archived[0].Content = "tampered"
	again, _ := store.Archived(0)
	assert.Equal(t, "hi", again[0].Content)
}

func TestStore_ClearActive(t *testing.T) {
	store := NewStore(mindtypes.SessionState{Active: conv("x", "y")})
	store.ClearActive()
	assert.Equal(t, 0, store.ActiveLen())
	assert.NotNil(t, store.Active())
}

func TestStore_RemoveArchived(t *testing.T) {
	c0, c1, c2 := conv("zero"), conv("one"), conv("two")

	tests := []struct {
		name     string
		index    int
		removed  bool
		expected []mindtypes.Conversation
	}{
		{"middle shifts later entries down", 1, true, []mindtypes.Conversation{c0, c2}},
		{"first", 0, true, []mindtypes.Conversation{c1, c2}},
		{"last", 2, true, []mindtypes.Conversation{c0, c1}},
		{"negative is a no-op", -1, false, []mindtypes.Conversation{c0, c1, c2}},
		{"past the end is a no-op", 3, false, []mindtypes.Conversation{c0, c1, c2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewStore(mindtypes.SessionState{Archive: []mindtypes.Conversation{c0, c1, c2}})
			assert.Equal(t, tt.removed, store.RemoveArchived(tt.index))
			assert.Equal(t, tt.expected, store.Snapshot().Archive)
		})
	}
}

func TestStore_RemoveArchivedDoesNotAliasSnapshots(t *testing.T) {
	store := NewStore(mindtypes.SessionState{Archive: []mindtypes.Conversation{conv("a"), conv("b"), conv("c")}})
	before := store.Snapshot()
	store.RemoveArchived(0)

	assert.Len(t, before.Archive, 3)
	assert.Equal(t, "a", before.Archive[0][0].Content)
}

func TestStore_ArchivedOutOfRange(t *testing.T) {
	store := NewStore(mindtypes.EmptyState())
	_, ok := store.Archived(0)
	assert.False(t, ok)
	_, ok = store.Archived(-1)
	assert.False(t, ok)
}
