package services

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"mindmend/internal/logger"
)

// ClipboardServiceName is the registry name of ClipboardService.
const ClipboardServiceName = "clipboard"

// ErrClipboardUnavailable is returned when the platform has no usable clipboard.
var ErrClipboardUnavailable = errors.New("clipboard not available on this platform")

// ClipboardService copies text to the system clipboard.
type ClipboardService struct {
	mu      sync.Mutex
	ready   bool
	initErr error
}

// NewClipboardService creates a ClipboardService. The clipboard is opened on first use.
func NewClipboardService() *ClipboardService {
	return &ClipboardService{}
}

// Name returns the service name "clipboard" for registration.
func (c *ClipboardService) Name() string {
	return ClipboardServiceName
}

// Initialize is a no-op; the system clipboard is opened lazily.
func (c *ClipboardService) Initialize() error {
	return nil
}

// Available reports whether this build supports the system clipboard.
func (c *ClipboardService) Available() bool {
	return clipboardAvailable
}

// Copy writes text to the system clipboard.
func (c *ClipboardService) Copy(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("nothing to copy")
	}
	if !clipboardAvailable {
		return ErrClipboardUnavailable
	}

	c.mu.Lock()
	if !c.ready && c.initErr == nil {
		c.initErr = initClipboard()
		c.ready = c.initErr == nil
	}
	initErr := c.initErr
	c.mu.Unlock()
	if initErr != nil {
		return fmt.Errorf("clipboard initialization failed: %w", initErr)
	}

	if err := writeToClipboard(text); err != nil {
		return fmt.Errorf("failed to write to clipboard: %w", err)
	}
	logger.Debug("Copied text to clipboard", "chars", len(text))
	return nil
}
