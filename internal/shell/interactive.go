package shell

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/abiosoft/ishell/v2"
	"github.com/abiosoft/readline"

	"mindmend/internal/logger"
)

// Prompt is shown before every input line.
const Prompt = "mindmend> "

// LineReader yields raw input lines. *ishell.Shell satisfies it.
type LineReader interface {
	ReadLineErr() (string, error)
}

// Loop hands every raw line to h unchanged until the user exits, input ends, or
// an interrupt arrives on an empty line. An interrupt with text typed discards
// that text.
//
// Lines are never tokenized: messages are prose, and quotes or apostrophes in
// them carry no syntax.
func Loop(ctx context.Context, h *Handler, r LineReader) error {
	for {
		line, err := r.ReadLineErr()
		switch {
		case errors.Is(err, io.EOF):
			logger.Debug("Input closed")
			return nil
		case errors.Is(err, readline.ErrInterrupt):
			if strings.TrimSpace(line) == "" {
				logger.Debug("Interrupted")
				return nil
			}
			continue
		case err != nil:
			return err
		}

		if h.Handle(ctx, line) {
			logger.Debug("Exit requested")
			return nil
		}
	}
}

// Run starts the interactive shell and blocks until the user exits.
func Run(h *Handler, banner string) error {
	sh := ishell.New()
	defer sh.Close()
	sh.SetPrompt(Prompt)

	sh.Println(banner)
	sh.Println(`Type a message to talk, '\help' for commands or '\exit' to quit.`)
	h.Replay()

	return Loop(context.Background(), h, sh)
}
