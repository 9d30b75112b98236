package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v3"

	"github.com/rubiojr/leaderboard/pkg/api"
	"github.com/rubiojr/leaderboard/pkg/log"
	"github.com/rubiojr/leaderboard/pkg/realtime"
	"github.com/rubiojr/leaderboard/pkg/source"
	"github.com/rubiojr/leaderboard/pkg/store"
)

// ServeCommand creates the serve command
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the leaderboard API and keep the dataset refreshed",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to bind to (overrides config)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on (overrides config)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return serve(ctx, c.String("config"), c.String("host"), c.Int("port"))
		},
	}
}

func serve(ctx context.Context, configPath, host string, port int) error {
	logger := log.ForService("serve")

	e, err := openEnv(ctx, configPath)
	if err != nil {
		return err
	}
	defer e.Close()
	cfg := e.cfg
	if host != "" {
		cfg.Server.Host = host
	}
	if port != 0 {
		cfg.Server.Port = port
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	base := store.New(store.WithPinnedBypass(cfg.View.PinnedBypass()), store.WithName("base"))
	hub := realtime.NewHub(0)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	srv, err := api.NewServer(base, hub, api.Options{
		Timings: store.Timings{
			Search:       cfg.Timings.SearchDebounce.Duration,
			Range:        cfg.Timings.RangeDebounce.Duration,
			ToggleWindow: cfg.Timings.ToggleWindow.Duration,
		},
		PinnedBypass: cfg.View.PinnedBypass(),
		Registry:     reg,
	})
	if err != nil {
		return fmt.Errorf("creating api server: %w", err)
	}
	defer srv.Close()

	refresher := source.NewRefresher(e.loader, base, cfg.Source.RefreshInterval.Duration, nil)
	go refresher.Run(ctx)

	if cfg.Source.Watch && cfg.Source.File != "" {
		w, err := source.NewWatcher(cfg.Source.File, cfg.Timings.ReloadDebounce.Duration, nil, refresher.Trigger)
		if err != nil {
			logger.Warnf("not watching %s: %v", cfg.Source.File, err)
		} else {
			go w.Run(ctx)
		}
	}

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on http://%s", cfg.Addr())
		logger.Infof("  GET /api/leaderboard - filtered, ranked rows for a share query")
		logger.Infof("  GET /api/leaderboard/counts - filter count tables")
		logger.Infof("  GET /api/leaderboard/formatted - raw dataset")
		logger.Infof("  GET /api/leaderboard/presets - quick filters")
		logger.Infof("  GET /api/session - websocket session")
		logger.Infof("  GET /health, GET /metrics")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	for {
		select {
		case err := <-errCh:
			return fmt.Errorf("server failed: %w", err)
		case <-ctx.Done():
			return shutdown(server)
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				logger.Infof("received SIGHUP, refreshing dataset")
				refresher.Trigger()
				continue
			}
			logger.Infof("shutting down")
			cancel()
			return shutdown(server)
		}
	}
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
