package main

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
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"tradingagents/internal/config"
	"tradingagents/internal/logging"
	"tradingagents/internal/server/app"
	httpserver "tradingagents/internal/server/http"
	"tradingagents/internal/trading"
	"tradingagents/internal/workflow"
)

var version = "dev"

func main() {
	rootCmd := newRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:     "tradingagents-server",
		Short:   "TradingAgents analysis orchestration server",
		Long:    "HTTP and websocket server that runs multi-agent trading analyses and streams their progress.",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if debug {
				cfg.Debug = true
			}
			return runServer(cfg)
		},
	}

	cmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Debug mode")
	return cmd
}

func runServer(cfg config.Config) error {
	if cfg.Debug {
		logging.SetLevel(logging.DEBUG)
	} else {
		logging.SetLevel(logging.INFO)
	}
	logger := logging.NewComponentLogger("Server")

	registry := prometheus.NewRegistry()
	metrics := app.NewMetrics(registry)

	store := app.NewInMemorySessionStore()
	hub := app.NewHub(logging.NewComponentLogger("Hub"), metrics)
	factory := workflow.NewFactory(cfg.StepDelay, logging.NewComponentLogger("Workflow"))

	coordinator := app.NewCoordinator(store, factory, hub, metrics, logging.NewComponentLogger("Coordinator"))
	coordinator.SetSweepAge(cfg.SweepAge)

	tradingSvc, err := trading.NewService(logging.NewComponentLogger("Trading"))
	if err != nil {
		return fmt.Errorf("init trading service: %w", err)
	}

	router := httpserver.NewRouter(coordinator, hub, tradingSvc, registry, httpserver.RouterConfig{
		Debug:      cfg.Debug,
		EnableCORS: cfg.EnableCORS,
	})
	server := httpserver.NewServer(cfg.Addr(), router)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info("Listening on %s", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		coordinator.StartSweeper(groupCtx, cfg.SweepInterval)
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}
