package testutils

import (
	"context"
	"sync"

	"mindmend/pkg/mindtypes"
)

// InferenceCall records one call made to a FakeInferencer.
type InferenceCall struct {
	History           mindtypes.Conversation
	UserText          string
	AllowExtraContext bool
}

// FakeInferencer returns scripted outcomes in order and records every call.
// When the script runs out, the last outcome repeats.
type FakeInferencer struct {
	mu       sync.Mutex
	outcomes []mindtypes.InferenceOutcome
	calls    []InferenceCall

	// Block, when set, is waited on before answering. Used to hold a send in flight.
	Block chan struct{}
	// Started, when set, receives a value as soon as a call begins.
	Started chan struct{}
	// Panic makes the next call panic with this value.
	Panic interface{}
}

// NewFakeInferencer creates a fake answering with outcomes.
func NewFakeInferencer(outcomes ...mindtypes.InferenceOutcome) *FakeInferencer {
	return &FakeInferencer{outcomes: outcomes}
}

// Send implements mindtypes.Inferencer.
func (f *FakeInferencer) Send(ctx context.Context, history mindtypes.Conversation, userText string, allowExtraContext bool) mindtypes.InferenceOutcome {
	f.mu.Lock()
	f.calls = append(f.calls, InferenceCall{
		History:           history.Clone(),
		UserText:          userText,
		AllowExtraContext: allowExtraContext,
	})
	started, block := f.Started, f.Block
	panicValue := f.Panic
	f.Panic = nil
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return mindtypes.Failure(ctx.Err().Error())
		}
	}
	if panicValue != nil {
		panic(panicValue)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.outcomes) == 0 {
		return mindtypes.Success("ok")
	}
	outcome := f.outcomes[0]
	if len(f.outcomes) > 1 {
		f.outcomes = f.outcomes[1:]
	}
	return outcome
}

// ProviderName implements mindtypes.Inferencer.
func (f *FakeInferencer) ProviderName() string {
	return "fake"
}

// Calls returns a copy of the recorded calls.
func (f *FakeInferencer) Calls() []InferenceCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]InferenceCall, len(f.calls))
	copy(out, f.calls)
	return out
}

// StaticTokens is a TokenProvider returning a fixed token.
type StaticTokens string

// AccessToken implements mindtypes.TokenProvider.
func (s StaticTokens) AccessToken(_ context.Context) (string, bool) {
	return string(s), s != ""
}

// FlakyStore wraps a KVStore and fails writes while FailWrites is set.
type FlakyStore struct {
	mindtypes.KVStore

	mu         sync.Mutex
	failWrites error
	writes     int
}

// NewFlakyStore wraps store.
func NewFlakyStore(store mindtypes.KVStore) *FlakyStore {
	return &FlakyStore{KVStore: store}
}

// FailWrites makes every following Set return err; nil restores normal writes.
func (f *FlakyStore) FailWrites(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWrites = err
}

// Set implements mindtypes.KVStore.
func (f *FlakyStore) Set(key string, value []byte) error {
	f.mu.Lock()
	failWrites := f.failWrites
	f.writes++
	f.mu.Unlock()

	if failWrites != nil {
		return failWrites
	}
	return f.KVStore.Set(key, value)
}

// Writes returns the number of attempted writes.
func (f *FlakyStore) Writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}
