package commands

import (
	"context"
	"fmt"
	"log/slog"

	"assetforge/internal/build"
	"assetforge/internal/config"
	"assetforge/internal/handlers"
	"assetforge/internal/logfields"
	"assetforge/internal/state"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Incremental bool   `short:"i" help:"Skip outputs whose sources are unchanged since the last recorded build"`
	State       string `name:"state" default:".assetforge.db" help:"Signature database path used by --incremental"`
	Concurrency int    `name:"concurrency" default:"4" help:"Maximum number of entries built in parallel"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	m, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load application map: %w", err)
	}

	opts := []build.Option{build.WithConcurrency(b.Concurrency)}
	if b.Incremental {
		store, err := state.Open(b.State)
		if err != nil {
			return fmt.Errorf("open signature store: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				slog.Warn("closing signature store", logfields.Error(err))
			}
		}()
		opts = append(opts, build.WithStateStore(store), build.WithIncremental(true))
	}

	orchestrator := build.New(handlers.DefaultRegistry(), opts...)
	return orchestrator.Once(context.Background(), m)
}
