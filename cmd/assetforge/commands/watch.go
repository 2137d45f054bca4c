package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"assetforge/internal/build"
	"assetforge/internal/config"
	"assetforge/internal/handlers"
	"assetforge/internal/logfields"
	"assetforge/internal/metrics"
)

// WatchCmd implements the 'watch' command: an initial one-shot build followed
// by continuous live synchronization until interrupted.
type WatchCmd struct {
	Debounce    time.Duration `name:"debounce" default:"2s" help:"Quiet window before a burst of change events triggers a rebuild"`
	MetricsAddr string        `name:"metrics-addr" help:"Serve Prometheus metrics on this address (e.g. :9090); disabled when empty"`
}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	sigctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	m, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load application map: %w", err)
	}

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if w.MetricsAddr != "" {
		reg := prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
		go func() {
			slog.Info("metrics endpoint listening", slog.String("addr", w.MetricsAddr))
			if err := http.ListenAndServe(w.MetricsAddr, metrics.HTTPHandler(reg)); err != nil {
				slog.Warn("metrics endpoint stopped", logfields.Error(err))
			}
		}()
	}

	orchestrator := build.New(handlers.DefaultRegistry(),
		build.WithRecorder(recorder),
		build.WithDebounce(w.Debounce),
	)

	// Initial pass so targets exist before watching begins.
	if err := orchestrator.Once(sigctx, m); err != nil {
		return err
	}

	coord, err := orchestrator.Live(sigctx, m)
	if err != nil {
		return err
	}
	slog.Info("watching for changes", slog.String("map", root.Config))

	coord.Run(sigctx)
	slog.Info("shutting down watcher")
	return nil
}
