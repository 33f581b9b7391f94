package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindmend/internal/config"
	"mindmend/internal/history"
	"mindmend/internal/kvstore"
)

func testConfig(t *testing.T, endpoint string) *config.Config {
	t.Helper()
	return &config.Config{
		Provider:          "endpoint",
		Endpoint:          endpoint,
		StorageBackend:    kvstore.BackendFile,
		StorageDir:        filepath.Join(t.TempDir(), "state"),
		AllowExtraContext: true,
		TestMode:          true,
	}
}

func TestApp_AskAndHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"content":"One step at a time."}`))
	}))
	defer server.Close()

	cfg := testConfig(t, server.URL)
	out := &bytes.Buffer{}

	a, err := newApp(cfg, out)
	require.NoError(t, err)
	require.NoError(t, a.ask(context.Background(), "exams are close"))
	_, err = a.manager.NewConversation()
	require.NoError(t, err)
	a.Close()

	assert.Contains(t, ansi.Strip(out.String()), "MindMend AI: One step at a time.")

	// A second process sees the archived chat.
	out.Reset()
	a, err = newApp(cfg, out)
	require.NoError(t, err)
	defer a.Close()

	a.printHistory()
	assert.Contains(t, ansi.Strip(out.String()), "Chat 1: exams are close... (2 turns)")
}

func TestApp_AskFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"overloaded"}`))
	}))
	defer server.Close()

	out := &bytes.Buffer{}
	a, err := newApp(testConfig(t, server.URL), out)
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.ask(context.Background(), "I'm stressed about exams"))

	text := ansi.Strip(out.String())
	assert.Contains(t, text, "[AI unavailable: overloaded]")
	assert.Contains(t, text, "MindMend AI (fallback):")
	assert.Len(t, a.manager.Active(), 2)
}

func TestApp_AskEmpty(t *testing.T) {
	a, err := newApp(testConfig(t, "http://127.0.0.1:1/chat"), &bytes.Buffer{})
	require.NoError(t, err)
	defer a.Close()

	err = a.ask(context.Background(), "   ")
	assert.ErrorIs(t, err, history.ErrEmptyInput)
}

func TestApp_InvalidConfiguration(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1/chat")
	cfg.Provider = "ollama"
	_, err := newApp(cfg, &bytes.Buffer{})
	require.Error(t, err)

	cfg = testConfig(t, "http://127.0.0.1:1/chat")
	cfg.StorageBackend = "redis"
	_, err = newApp(cfg, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open storage")
}

func TestApp_SQLiteBackend(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1/chat")
	cfg.StorageBackend = kvstore.BackendSQLite

	a, err := newApp(cfg, &bytes.Buffer{})
	require.NoError(t, err)
	defer a.Close()

	assert.Empty(t, a.manager.Active())
}
