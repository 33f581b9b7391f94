package persistence

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindmend/internal/kvstore"
	"mindmend/pkg/mindtypes"
)

type failingStore struct {
	*kvstore.MemoryStore
	getErr error
	setErr error
}

func (f *failingStore) Get(key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.MemoryStore.Get(key)
}

func (f *failingStore) Set(key string, value []byte) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.MemoryStore.Set(key, value)
}

func sampleState() mindtypes.SessionState {
	return mindtypes.SessionState{
		Active: mindtypes.Conversation{
			mindtypes.UserTurn("I'm stressed about exams"),
			mindtypes.AssistantTurn("That sounds hard."),
		},
		Archive: []mindtypes.Conversation{
			{mindtypes.UserTurn("hi"), mindtypes.AssistantTurn("hello")},
			{},
			{mindtypes.AssistantTurn("only assistant")},
		},
	}
}

func TestPersister_RoundTrip(t *testing.T) {
	states := []mindtypes.SessionState{
		mindtypes.EmptyState(),
		sampleState(),
		{Active: mindtypes.Conversation{mindtypes.UserTurn("unicode ✓ \"quotes\" \n newline")}},
	}

	for _, state := range states {
		p := New(kvstore.NewMemoryStore())
		result := p.Save(state)
		require.True(t, result.OK())
		assert.NoError(t, result.Err)

		loaded := p.Load()
		assert.Equal(t, Restored, loaded.Status)
		assert.NoError(t, loaded.Err)
		assert.True(t, state.Equal(loaded.State), "round trip must preserve state")
	}
}

func TestPersister_SaveDoesNotMutateState(t *testing.T) {
	state := sampleState()
	before := state.Clone()
	New(kvstore.NewMemoryStore()).Save(state)
	assert.True(t, before.Equal(state))
}

func TestPersister_SaveOverwrites(t *testing.T) {
	p := New(kvstore.NewMemoryStore())
	p.Save(sampleState())
	p.Save(mindtypes.EmptyState())

	loaded := p.Load()
	assert.Equal(t, Restored, loaded.Status)
	assert.Empty(t, loaded.State.Active)
	assert.Empty(t, loaded.State.Archive)
}

func TestPersister_LoadAbsent(t *testing.T) {
	loaded := New(kvstore.NewMemoryStore()).Load()
	assert.Equal(t, Fresh, loaded.Status)
	assert.NoError(t, loaded.Err)
	assert.True(t, mindtypes.EmptyState().Equal(loaded.State))
	assert.NotNil(t, loaded.State.Active)
	assert.NotNil(t, loaded.State.Archive)
}

func TestPersister_LoadCorrupt(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "this is not json"},
		{"truncated", `{"messages":[{"role":"user","content":"hi"}`},
		{"empty", ""},
		{"json array", `[1,2,3]`},
		{"json null", `null`},
		{"messages wrong type", `{"messages":"hello","chats":[]}`},
		{"chats not nested", `{"messages":[],"chats":[{"role":"user","content":"x"}]}`},
		{"unknown role", `{"messages":[{"role":"system","content":"x"}],"chats":[]}`},
		{"content wrong type", `{"messages":[{"role":"user","content":5}],"chats":[]}`},
		{"future schema", `{"version":"2.0.0","messages":[],"chats":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := kvstore.NewMemoryStore()
			require.NoError(t, store.Set(StateKey, []byte(tt.data)))

			loaded := New(store).Load()
			assert.Equal(t, Recovered, loaded.Status)
			assert.ErrorIs(t, loaded.Err, ErrInvalidRecord)
			assert.True(t, mindtypes.EmptyState().Equal(loaded.State))
		})
	}
}

func TestPersister_LoadLegacyRecord(t *testing.T) {
	store := kvstore.NewMemoryStore()
	legacy := `{"messages":[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}],"chats":[[{"role":"user","content":"old"}]]}`
	require.NoError(t, store.Set(StateKey, []byte(legacy)))

	loaded := New(store).Load()
	require.Equal(t, Restored, loaded.Status)
	assert.Equal(t, mindtypes.Conversation{mindtypes.UserTurn("hi"), mindtypes.AssistantTurn("hello")}, loaded.State.Active)
	require.Len(t, loaded.State.Archive, 1)
	assert.Equal(t, mindtypes.Conversation{mindtypes.UserTurn("old")}, loaded.State.Archive[0])
}

func TestPersister_LoadMissingFieldsNormalizes(t *testing.T) {
	store := kvstore.NewMemoryStore()
	require.NoError(t, store.Set(StateKey, []byte(`{}`)))

	loaded := New(store).Load()
	assert.Equal(t, Restored, loaded.Status)
	assert.NotNil(t, loaded.State.Active)
	assert.NotNil(t, loaded.State.Archive)
}

func TestPersister_SaveFailureIsDegraded(t *testing.T) {
	store := &failingStore{MemoryStore: kvstore.NewMemoryStore(), setErr: errors.New("quota exceeded")}

	result := New(store).Save(sampleState())
	assert.False(t, result.OK())
	assert.Equal(t, Degraded, result.Status)
	assert.ErrorContains(t, result.Err, "quota exceeded")
}

func TestPersister_LoadReadFailureRecovers(t *testing.T) {
	store := &failingStore{MemoryStore: kvstore.NewMemoryStore(), getErr: errors.New("disk on fire")}

	loaded := New(store).Load()
	assert.Equal(t, Recovered, loaded.Status)
	assert.ErrorContains(t, loaded.Err, "disk on fire")
	assert.True(t, mindtypes.EmptyState().Equal(loaded.State))
}

func TestEncode_WritesSchemaVersion(t *testing.T) {
	data, err := Encode(mindtypes.SessionState{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":"1.0.0","messages":[],"chats":[]}`, string(data))
}

func TestStatusStrings(t *testing.T) {
	assert.Equal(t, "saved", Saved.String())
	assert.Equal(t, "degraded", Degraded.String())
	assert.Equal(t, "restored", Restored.String())
	assert.Equal(t, "fresh", Fresh.String())
	assert.Equal(t, "recovered", Recovered.String())
}
