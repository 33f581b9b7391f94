package auth

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticTokenProvider(t *testing.T) {
	token, ok := NewStaticTokenProvider(" abc ").AccessToken(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "abc", token)

	token, ok = NewStaticTokenProvider("").AccessToken(context.Background())
	assert.False(t, ok)
	assert.Empty(t, token)
}

func writeSession(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestSessionFileProvider(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	tests := []struct {
		name      string
		content   string
		wantToken string
		wantOK    bool
	}{
		{"valid without expiry", `{"access_token":"tok"}`, "tok", true},
		{"valid before expiry", `{"access_token":"tok","expires_at":1700000100}`, "tok", true},
		{"expired", `{"access_token":"tok","expires_at":1699999999}`, "", false},
		{"expires exactly now", `{"access_token":"tok","expires_at":1700000000}`, "", false},
		{"empty token", `{"access_token":""}`, "", false},
		{"corrupt", `{not json`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := NewSessionFileProvider(writeSession(t, tt.content))
			provider.now = func() time.Time { return now }

			token, ok := provider.AccessToken(context.Background())
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantToken, token)
		})
	}
}

func TestSessionFileProvider_MissingFile(t *testing.T) {
	provider := NewSessionFileProvider(filepath.Join(t.TempDir(), "missing.json"))
	_, ok := provider.AccessToken(context.Background())
	assert.False(t, ok)
}

func TestSessionFileProvider_PicksUpRefresh(t *testing.T) {
	path := writeSession(t, `{"access_token":"first"}`)
	provider := NewSessionFileProvider(path)

	token, _ := provider.AccessToken(context.Background())
	assert.Equal(t, "first", token)

	require.NoError(t, os.WriteFile(path, []byte(`{"access_token":"second"}`), 0600))
	token, _ = provider.AccessToken(context.Background())
	assert.Equal(t, "second", token)
}

func TestSessionFileProvider_CancelledContext(t *testing.T) {
	provider := NewSessionFileProvider(writeSession(t, `{"access_token":"tok"}`))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := provider.AccessToken(ctx)
	assert.False(t, ok)
}

func TestNew(t *testing.T) {
	assert.IsType(t, &StaticTokenProvider{}, New("tok", ""))
	assert.IsType(t, &SessionFileProvider{}, New("tok", "/tmp/session.json"))
}
