package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/mizutani/convo/internal/convo/config"
	"github.com/mizutani/convo/internal/convo/generate"
	"github.com/mizutani/convo/internal/convo/handler"
	"github.com/mizutani/convo/internal/convo/router"
	"github.com/mizutani/convo/internal/convo/session"
	"github.com/mizutani/convo/internal/convo/turn"
)

// loadHandlers returns the handler definitions from the configured directory,
// falling back to the built-in set when the directory does not exist yet.
func loadHandlers(cfg *config.Config) ([]handler.Definition, error) {
	defs, err := handler.LoadDir(cfg.HandlersDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return handler.Defaults(), nil
		}
		return nil, err
	}
	if len(defs) == 0 {
		return handler.Defaults(), nil
	}
	return defs, nil
}

// newAssistant wires the session store, routing table, and generator into a
// turn orchestrator from the loaded configuration.
func newAssistant() (*turn.Orchestrator, *config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	defs, err := loadHandlers(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("loading handlers: %w", err)
	}

	store := session.New(cfg.SessionsDir, slog.Default())
	table := handler.Table(defs, router.Handler(cfg.DefaultHandler))
	gen := generate.NewStatic(defs)

	orch := turn.New(store, table, gen, func(o *turn.Options) {
		o.HistoryWindow = cfg.HistoryWindow
		o.ChunkSize = cfg.ChunkSize
		o.Logger = slog.Default()
	})
	return orch, cfg, nil
}
