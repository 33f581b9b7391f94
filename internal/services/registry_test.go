package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockService struct {
	name            string
	initializeCalls int
	initializeError error
}

func (m *mockService) Name() string {
	return m.name
}

func (m *mockService) Initialize() error {
	m.initializeCalls++
	return m.initializeError
}

func TestRegistry_RegisterService(t *testing.T) {
	registry := NewRegistry()

	require.NoError(t, registry.RegisterService(&mockService{name: "one"}))
	err := registry.RegisterService(&mockService{name: "one"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")

	assert.Len(t, registry.GetAllServices(), 1)
}

func TestRegistry_GetService(t *testing.T) {
	registry := NewRegistry()
	service := &mockService{name: "one"}
	require.NoError(t, registry.RegisterService(service))

	got, err := registry.GetService("one")
	require.NoError(t, err)
	assert.Same(t, service, got)

	_, err = registry.GetService("missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRegistry_InitializeAll(t *testing.T) {
	registry := NewRegistry()
	a := &mockService{name: "a"}
	b := &mockService{name: "b"}
	require.NoError(t, registry.RegisterService(a))
	require.NoError(t, registry.RegisterService(b))

	require.NoError(t, registry.InitializeAll())
	assert.Equal(t, 1, a.initializeCalls)
	assert.Equal(t, 1, b.initializeCalls)

	b.initializeError = errors.New("broken")
	err := registry.InitializeAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize service b")
}

func TestRegistry_GetAllServicesReturnsCopy(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.RegisterService(&mockService{name: "one"}))

	all := registry.GetAllServices()
	delete(all, "one")

	_, err := registry.GetService("one")
	assert.NoError(t, err)
}

func TestGlobalRegistry_TypedAccessors(t *testing.T) {
	original := GetGlobalRegistry()
	defer SetGlobalRegistry(original)

	registry := NewRegistry()
	SetGlobalRegistry(registry)

	_, err := GetGlobalTranscriptService()
	require.Error(t, err)

	require.NoError(t, registry.RegisterService(NewTranscriptService(nil, 0)))
	require.NoError(t, registry.RegisterService(NewClipboardService()))
	require.NoError(t, registry.RegisterService(NewExportService(nil)))
	require.NoError(t, registry.RegisterService(&mockService{name: "wrong"}))

	transcript, err := GetGlobalTranscriptService()
	require.NoError(t, err)
	assert.Equal(t, TranscriptServiceName, transcript.Name())

	_, err = GetGlobalClipboardService()
	assert.NoError(t, err)
	_, err = GetGlobalExportService()
	assert.NoError(t, err)

	_, err = getTyped[*ExportService](registry, "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected type")
}
