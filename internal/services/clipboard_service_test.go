package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClipboardService_EmptyText(t *testing.T) {
	service := NewClipboardService()
	require.NoError(t, service.Initialize())

	err := service.Copy("   ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to copy")
}

func TestClipboardService_Unavailable(t *testing.T) {
	service := NewClipboardService()
	if service.Available() {
		t.Skip("system clipboard available on this platform")
	}

	err := service.Copy("hello")
	assert.ErrorIs(t, err, ErrClipboardUnavailable)
	assert.Equal(t, "clipboard", service.Name())
}
