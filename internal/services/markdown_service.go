package services

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"mindmend/internal/logger"
)

// MarkdownServiceName is the registry name of MarkdownService.
const MarkdownServiceName = "markdown"

// Glamour style names accepted by NewMarkdownService.
const (
	StyleAuto  = "auto"
	StyleNoTTY = "notty"
	StyleASCII = "ascii"
)

const defaultWordWrap = 80

// MarkdownService renders assistant replies as terminal markdown using Glamour.
type MarkdownService struct {
	style       string
	wordWrap    int
	initialized bool
	renderer    *glamour.TermRenderer
}

// NewMarkdownService creates a MarkdownService. An empty style means auto-detection;
// a non-positive wrap uses 80 columns.
func NewMarkdownService(style string, wordWrap int) *MarkdownService {
	if style == "" {
		style = StyleAuto
	}
	if wordWrap <= 0 {
		wordWrap = defaultWordWrap
	}
	return &MarkdownService{style: style, wordWrap: wordWrap}
}

// Name returns the service name "markdown" for registration.
func (m *MarkdownService) Name() string {
	return MarkdownServiceName
}

// Initialize creates the Glamour renderer.
func (m *MarkdownService) Initialize() error {
	styleOption := glamour.WithAutoStyle()
	if m.style != StyleAuto {
		styleOption = glamour.WithStandardStyle(m.style)
	}

	renderer, err := glamour.NewTermRenderer(
		styleOption,
		glamour.WithWordWrap(m.wordWrap),
	)
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}

	m.renderer = renderer
	m.initialized = true

	logger.Debug("MarkdownService initialized successfully", "style", m.style, "wrap", m.wordWrap)
	return nil
}

// Render renders markdown content to terminal output.
func (m *MarkdownService) Render(markdown string) (string, error) {
	if !m.initialized {
		return "", fmt.Errorf("markdown service not initialized")
	}

	if strings.TrimSpace(markdown) == "" {
		return "", fmt.Errorf("markdown content cannot be empty")
	}

	rendered, err := m.renderer.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}

	return rendered, nil
}
