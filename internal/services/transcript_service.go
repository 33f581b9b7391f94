package services

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"mindmend/internal/logger"
	"mindmend/pkg/mindtypes"
)

// TranscriptServiceName is the registry name of TranscriptService.
const TranscriptServiceName = "transcript"

// Speaker labels shown in front of each turn.
const (
	UserLabel      = "You"
	AssistantLabel = "MindMend AI"
	FallbackLabel  = "MindMend AI (fallback)"
)

// Placeholder lines for empty listings.
const (
	EmptyConversationText = "(no messages yet)"
	EmptyArchiveText      = "No archived chats."
)

type transcriptStyles struct {
	user      lipgloss.Style
	assistant lipgloss.Style
	fallback  lipgloss.Style
	notice    lipgloss.Style
	warning   lipgloss.Style
	index     lipgloss.Style
}

func defaultTranscriptStyles() transcriptStyles {
	return transcriptStyles{
		user:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		assistant: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		fallback:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11")),
		notice:    lipgloss.NewStyle().Faint(true),
		warning:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		index:     lipgloss.NewStyle().Bold(true),
	}
}

// TranscriptService turns conversations and archive listings into terminal text.
// Assistant replies go through the markdown service when one is attached.
type TranscriptService struct {
	markdown *MarkdownService
	width    int
	styles   transcriptStyles
}

// NewTranscriptService creates a TranscriptService. markdown may be nil for plain output;
// width bounds archive listing lines (0 means unbounded).
func NewTranscriptService(markdown *MarkdownService, width int) *TranscriptService {
	return &TranscriptService{
		markdown: markdown,
		width:    width,
		styles:   defaultTranscriptStyles(),
	}
}

// Name returns the service name "transcript" for registration.
func (t *TranscriptService) Name() string {
	return TranscriptServiceName
}

// Initialize prepares the styles.
func (t *TranscriptService) Initialize() error {
	t.styles = defaultTranscriptStyles()
	logger.Debug("TranscriptService initialized", "width", t.width, "markdown", t.markdown != nil)
	return nil
}

// FormatTurn renders one turn with its speaker label.
func (t *TranscriptService) FormatTurn(turn mindtypes.Turn) string {
	if turn.Role == mindtypes.RoleUser {
		return t.styles.user.Render(UserLabel+":") + " " + turn.Content
	}
	return t.formatAssistant(AssistantLabel, t.styles.assistant, turn.Content)
}

// FormatReply renders a reply returned by a send. Fallback replies carry their own label.
func (t *TranscriptService) FormatReply(reply string, fallback bool) string {
	if fallback {
		return t.formatAssistant(FallbackLabel, t.styles.fallback, reply)
	}
	return t.formatAssistant(AssistantLabel, t.styles.assistant, reply)
}

func (t *TranscriptService) formatAssistant(label string, style lipgloss.Style, content string) string {
	body := content
	if t.markdown != nil && t.markdown.initialized {
		rendered, err := t.markdown.Render(content)
		if err != nil {
			logger.Debug("Markdown rendering failed, using raw text", "error", err)
		} else {
			body = strings.Trim(rendered, "\n")
		}
	}
	if strings.Contains(body, "\n") {
		return style.Render(label+":") + "\n" + body
	}
	return style.Render(label+":") + " " + strings.TrimSpace(body)
}

// FormatConversation renders every turn separated by blank lines.
func (t *TranscriptService) FormatConversation(conv mindtypes.Conversation) string {
	if len(conv) == 0 {
		return t.styles.notice.Render(EmptyConversationText)
	}
	parts := make([]string, 0, len(conv))
	for _, turn := range conv {
		parts = append(parts, t.FormatTurn(turn))
	}
	return strings.Join(parts, "\n\n")
}

// FormatSummaries lists archived conversations as "Chat N: preview", numbered from 1.
func (t *TranscriptService) FormatSummaries(summaries []mindtypes.Summary) string {
	if len(summaries) == 0 {
		return t.styles.notice.Render(EmptyArchiveText)
	}
	lines := make([]string, 0, len(summaries))
	for _, s := range summaries {
		line := t.styles.index.Render(fmt.Sprintf("Chat %d:", s.Index+1)) + " " + s.Preview +
			t.styles.notice.Render(fmt.Sprintf(" (%d turns)", s.TurnCount))
		if t.width > 0 {
			line = ansi.Truncate(line, t.width, "…")
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// FailureNotice tells the user the remote reply was replaced.
func (t *TranscriptService) FailureNotice(reason string) string {
	return t.styles.warning.Render(fmt.Sprintf("[AI unavailable: %s]", reason))
}

// Notice renders an informational line.
func (t *TranscriptService) Notice(msg string) string {
	return t.styles.notice.Render(msg)
}

// Warning renders a warning line.
func (t *TranscriptService) Warning(msg string) string {
	return t.styles.warning.Render(msg)
}

// PlainWidth is the printable width of s, ignoring escape sequences.
func PlainWidth(s string) int {
	return ansi.StringWidth(s)
}
