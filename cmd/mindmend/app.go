package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/afero"

	"mindmend/internal/auth"
	"mindmend/internal/config"
	"mindmend/internal/fallback"
	"mindmend/internal/history"
	"mindmend/internal/inference"
	"mindmend/internal/kvstore"
	"mindmend/internal/logger"
	"mindmend/internal/persistence"
	"mindmend/internal/services"
	"mindmend/internal/session"
	"mindmend/internal/shell"
	"mindmend/pkg/mindtypes"
)

// app is the wired object graph behind every command.
type app struct {
	cfg        *config.Config
	store      mindtypes.KVStore
	manager    *history.Manager
	transcript *services.TranscriptService
	handler    *shell.Handler
	out        io.Writer
}

func newApp(cfg *config.Config, out io.Writer) (_ *app, err error) {
	if cfg.TestMode {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	store, err := kvstore.Open(cfg.StorageBackend, cfg.StorageDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err != nil {
			_ = store.Close()
		}
	}()

	persister := persistence.New(store)
	loaded := persister.Load()
	if loaded.Status == persistence.Recovered {
		logger.Warn("Saved chats could not be read, starting fresh", "error", loaded.Err)
	}

	inferencer, err := inference.New(cfg, auth.New(cfg.AccessToken, cfg.SessionFile))
	if err != nil {
		return nil, err
	}

	registry, err := registerServices(cfg)
	if err != nil {
		return nil, err
	}
	services.SetGlobalRegistry(registry)

	transcript, err := services.GetGlobalTranscriptService()
	if err != nil {
		return nil, err
	}
	clipboard, err := services.GetGlobalClipboardService()
	if err != nil {
		return nil, err
	}
	exporter, err := services.GetGlobalExportService()
	if err != nil {
		return nil, err
	}

	manager := history.NewManager(session.NewStore(loaded.State), persister, inferencer, fallback.New())
	handler := shell.NewHandler(shell.Deps{
		Manager:           manager,
		Transcript:        transcript,
		Clipboard:         clipboard,
		Exporter:          exporter,
		Out:               out,
		AllowExtraContext: cfg.AllowExtraContext,
	})

	logger.Debug("Application wired",
		"provider", inferencer.ProviderName(),
		"storage", cfg.StorageBackend,
		"restored", loaded.Status.String())

	return &app{
		cfg:        cfg,
		store:      store,
		manager:    manager,
		transcript: transcript,
		handler:    handler,
		out:        out,
	}, nil
}

func registerServices(cfg *config.Config) (*services.Registry, error) {
	registry := services.NewRegistry()

	var markdown *services.MarkdownService
	if cfg.Markdown {
		style := services.StyleAuto
		if cfg.TestMode {
			style = services.StyleNoTTY
		}
		markdown = services.NewMarkdownService(style, 0)
		if err := registry.RegisterService(markdown); err != nil {
			return nil, err
		}
	}
	for _, service := range []mindtypes.Service{
		services.NewTranscriptService(markdown, 0),
		services.NewClipboardService(),
		services.NewExportService(afero.NewOsFs()),
	} {
		if err := registry.RegisterService(service); err != nil {
			return nil, err
		}
	}

	if err := registry.InitializeAll(); err != nil {
		return nil, err
	}
	return registry, nil
}

// ask sends one message in the active conversation and prints the reply.
func (a *app) ask(ctx context.Context, text string) error {
	result, err := a.manager.Send(ctx, text, a.cfg.AllowExtraContext)
	if err != nil {
		if errors.Is(err, history.ErrEmptyInput) {
			return fmt.Errorf("nothing to send: %w", err)
		}
		return err
	}
	if result.Fallback {
		fmt.Fprintln(a.out, a.transcript.FailureNotice(result.FailureReason))
	}
	fmt.Fprintln(a.out, a.transcript.FormatReply(result.Reply, result.Fallback))
	if !result.Persist.OK() {
		fmt.Fprintln(a.out, a.transcript.Warning(fmt.Sprintf("Could not save your chats: %v", result.Persist.Err)))
	}
	return nil
}

func (a *app) printHistory() {
	fmt.Fprintln(a.out, a.transcript.FormatSummaries(a.manager.Summaries()))
}

// Close releases the storage backend.
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		logger.Warn("Failed to close storage", "error", err)
	}
}
