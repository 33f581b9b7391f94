// Package shell implements the interactive MindMend conversation loop: plain
// input is sent to the assistant and backslash commands manage the archive.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"mindmend/internal/history"
	"mindmend/internal/logger"
	"mindmend/internal/persistence"
	"mindmend/internal/services"
)

// CommandPrefix marks input lines that are shell commands rather than messages.
const CommandPrefix = `\`

// Deps are the collaborators of a Handler. Clipboard and Exporter may be nil.
type Deps struct {
	Manager           *history.Manager
	Transcript        *services.TranscriptService
	Clipboard         *services.ClipboardService
	Exporter          *services.ExportService
	Out               io.Writer
	AllowExtraContext bool
}

type command struct {
	usage       string
	description string
	run         func(h *Handler, ctx context.Context, args []string) error
}

// commands is filled in init because cmdHelp reads it.
var commands map[string]command

func init() {
	commands = map[string]command{
		"new":     {usage: `\new`, description: "Archive the current chat and start a new one", run: (*Handler).cmdNew},
		"history": {usage: `\history`, description: "List archived chats", run: (*Handler).cmdHistory},
		"open":    {usage: `\open N`, description: "View archived chat N (read-only)", run: (*Handler).cmdOpen},
		"back":    {usage: `\back`, description: "Return to the current chat", run: (*Handler).cmdBack},
		"delete":  {usage: `\delete N`, description: "Delete archived chat N", run: (*Handler).cmdDelete},
		"show":    {usage: `\show`, description: "Print the displayed chat", run: (*Handler).cmdShow},
		"export":  {usage: `\export PATH [N]`, description: "Write the current chat, or archived chat N, to a .json or .yaml file", run: (*Handler).cmdExport},
		"copy":    {usage: `\copy`, description: "Copy the last assistant reply to the clipboard", run: (*Handler).cmdCopy},
		"context": {usage: `\context on|off`, description: "Allow or forbid the assistant to use extra personal context", run: (*Handler).cmdContext},
		"help":    {usage: `\help`, description: "Show this help", run: (*Handler).cmdHelp},
	}
}

// Handler routes one line of input at a time. It writes everything it shows to Out.
type Handler struct {
	manager           *history.Manager
	transcript        *services.TranscriptService
	clipboard         *services.ClipboardService
	exporter          *services.ExportService
	out               io.Writer
	allowExtraContext bool
}

// NewHandler creates a Handler.
func NewHandler(deps Deps) *Handler {
	transcript := deps.Transcript
	if transcript == nil {
		transcript = services.NewTranscriptService(nil, 0)
	}
	return &Handler{
		manager:           deps.Manager,
		transcript:        transcript,
		clipboard:         deps.Clipboard,
		exporter:          deps.Exporter,
		out:               deps.Out,
		allowExtraContext: deps.AllowExtraContext,
	}
}

// AllowExtraContext reports the current consent setting.
func (h *Handler) AllowExtraContext() bool {
	return h.allowExtraContext
}

// Replay prints the restored active conversation, if any.
func (h *Handler) Replay() {
	active := h.manager.Active()
	if len(active) == 0 {
		return
	}
	h.println(h.transcript.Notice("Restored your previous chat:"))
	h.println(h.transcript.FormatConversation(active))
}

// Handle processes one input line and reports whether the shell should exit.
func (h *Handler) Handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	if !strings.HasPrefix(line, CommandPrefix) {
		h.send(ctx, line)
		return false
	}

	fields := strings.Fields(strings.TrimPrefix(line, CommandPrefix))
	if len(fields) == 0 {
		h.println(h.transcript.Warning(`Type \help for available commands`))
		return false
	}
	name, args := strings.ToLower(fields[0]), fields[1:]
	if name == "exit" || name == "quit" {
		return true
	}

	cmd, ok := commands[name]
	if !ok {
		h.println(h.transcript.Warning(fmt.Sprintf(`Unknown command \%s. Type \help for available commands`, name)))
		return false
	}
	if err := cmd.run(h, ctx, args); err != nil {
		logger.Debug("Command failed", "command", name, "error", err)
		h.println(h.transcript.Warning("Error: " + err.Error()))
	}
	return false
}

func (h *Handler) send(ctx context.Context, text string) {
	result, err := h.manager.Send(ctx, text, h.allowExtraContext)
	switch {
	case errors.Is(err, history.ErrEmptyInput):
		return
	case errors.Is(err, history.ErrBusy):
		h.println(h.transcript.Warning("Still waiting for the previous reply..."))
		return
	case errors.Is(err, history.ErrViewingArchive):
		h.println(h.transcript.Warning(`You are viewing an archived chat. Type \back to return to the current chat.`))
		return
	case err != nil:
		h.println(h.transcript.Warning("Error: " + err.Error()))
		return
	}

	if result.Fallback {
		h.println(h.transcript.FailureNotice(result.FailureReason))
	}
	h.println(h.transcript.FormatReply(result.Reply, result.Fallback))
	h.reportPersist(result.Persist)
}

func (h *Handler) reportPersist(result persistence.Result) {
	if result.OK() {
		return
	}
	h.println(h.transcript.Warning(fmt.Sprintf("Could not save your chats: %v", result.Err)))
}

func (h *Handler) cmdNew(_ context.Context, _ []string) error {
	result, err := h.manager.NewConversation()
	if err != nil {
		return err
	}
	h.println(h.transcript.Notice("Started a new chat"))
	h.reportPersist(result)
	return nil
}

func (h *Handler) cmdHistory(_ context.Context, _ []string) error {
	summaries := h.manager.Summaries()
	h.println(h.transcript.FormatSummaries(summaries))
	if len(summaries) > 0 {
		h.println(h.transcript.Notice(`Use \open N to view a chat or \delete N to remove it.`))
	}
	return nil
}

func (h *Handler) cmdOpen(_ context.Context, args []string) error {
	index, err := parseChatNumber(args)
	if err != nil {
		return err
	}
	conv, ok := h.manager.LoadArchived(index)
	if !ok {
		return fmt.Errorf("no archived chat %d", index+1)
	}
	h.println(h.transcript.Notice(fmt.Sprintf(`Viewing chat %d (read-only). Type \back to return.`, index+1)))
	h.println(h.transcript.FormatConversation(conv))
	return nil
}

func (h *Handler) cmdBack(_ context.Context, _ []string) error {
	if _, viewing := h.manager.Viewing(); !viewing {
		h.println(h.transcript.Notice("Already in the current chat."))
		return nil
	}
	h.manager.CloseArchived()
	h.println(h.transcript.Notice("Back to the current chat."))
	h.println(h.transcript.FormatConversation(h.manager.Displayed()))
	return nil
}

func (h *Handler) cmdDelete(_ context.Context, args []string) error {
	index, err := parseChatNumber(args)
	if err != nil {
		return err
	}
	deleted, result := h.manager.DeleteArchived(index)
	if !deleted {
		return fmt.Errorf("no archived chat %d", index+1)
	}
	h.println(h.transcript.Notice(fmt.Sprintf("Deleted chat %d", index+1)))
	h.reportPersist(result)
	return nil
}

func (h *Handler) cmdShow(_ context.Context, _ []string) error {
	h.println(h.transcript.FormatConversation(h.manager.Displayed()))
	return nil
}

func (h *Handler) cmdExport(_ context.Context, args []string) error {
	if h.exporter == nil {
		return fmt.Errorf("export is not available")
	}
	if len(args) == 0 || len(args) > 2 {
		return fmt.Errorf(`usage: \export PATH [N]`)
	}
	path := args[0]

	title := "Current chat"
	conv := h.manager.Active()
	if len(args) == 2 {
		index, err := parseChatNumber(args[1:])
		if err != nil {
			return err
		}
		archive := h.manager.Snapshot().Archive
		if index >= len(archive) {
			return fmt.Errorf("no archived chat %d", index+1)
		}
		title = fmt.Sprintf("Chat %d", index+1)
		conv = archive[index]
	}

	if err := h.exporter.Export(path, title, conv); err != nil {
		return err
	}
	h.println(h.transcript.Notice(fmt.Sprintf("Exported %d messages to %s", len(conv), path)))
	return nil
}

func (h *Handler) cmdCopy(_ context.Context, _ []string) error {
	if h.clipboard == nil {
		return services.ErrClipboardUnavailable
	}
	turn, ok := h.manager.Displayed().LastAssistantTurn()
	if !ok {
		return fmt.Errorf("no assistant reply to copy")
	}
	if err := h.clipboard.Copy(turn.Content); err != nil {
		return err
	}
	h.println(h.transcript.Notice(fmt.Sprintf("Copied %d characters to clipboard", len(turn.Content))))
	return nil
}

func (h *Handler) cmdContext(_ context.Context, args []string) error {
	if len(args) == 1 {
		switch strings.ToLower(args[0]) {
		case "on":
			h.allowExtraContext = true
		case "off":
			h.allowExtraContext = false
		default:
			return fmt.Errorf(`usage: \context on|off`)
		}
	} else if len(args) > 1 {
		return fmt.Errorf(`usage: \context on|off`)
	}

	state := "off"
	if h.allowExtraContext {
		state = "on"
	}
	h.println(h.transcript.Notice("Extra context is " + state))
	return nil
}

func (h *Handler) cmdHelp(_ context.Context, _ []string) error {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Type a message to talk to MindMend AI, or use a command:\n")
	for _, name := range names {
		fmt.Fprintf(&b, "  %-18s %s\n", commands[name].usage, commands[name].description)
	}
	fmt.Fprintf(&b, "  %-18s %s", `\exit`, "Leave the shell")
	h.println(b.String())
	return nil
}

// parseChatNumber converts a 1-based chat number argument to an archive index.
func parseChatNumber(args []string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected one chat number")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid chat number '%s'", args[0])
	}
	return n - 1, nil
}

func (h *Handler) println(s string) {
	if h.out == nil {
		return
	}
	fmt.Fprintln(h.out, s)
}
