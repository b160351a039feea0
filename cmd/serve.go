package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/panekit/panekit/internal/config"
	"github.com/panekit/panekit/internal/logging"
	"github.com/panekit/panekit/internal/manifest"
	"github.com/panekit/panekit/internal/nav"
	"github.com/panekit/panekit/internal/registry"
	"github.com/panekit/panekit/internal/schedule"
	"github.com/panekit/panekit/internal/server"
	"github.com/panekit/panekit/internal/watcher"
	"github.com/panekit/panekit/internal/websocket"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the preview server with manifest hot reload",
	Long: `Start the preview server. The pane manifest is loaded on startup and
reloaded whenever it changes on disk; connected browsers are kept in sync
over WebSocket.

Examples:
  panekit serve                      # Serve panes.yml on localhost:8120
  panekit serve --manifest demo.yml  # Serve a specific manifest
  panekit serve --port 9000`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8120, "Port to serve on")
	serveCmd.Flags().String("host", "localhost", "Host to bind to")
	serveCmd.Flags().StringP("manifest", "m", "panes.yml", "Pane manifest path")
	serveCmd.Flags().Bool("no-watch", false, "Don't reload the manifest on change")

	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	viper.BindPFlag("manifest.path", serveCmd.Flags().Lookup("manifest"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if noWatch, _ := cmd.Flags().GetBool("no-watch"); noWatch {
		cfg.Manifest.Watch = false
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := registry.NewPaneRegistry()
	sched := schedule.NewTimerScheduler()
	defer sched.Stop()

	// The controller publishes into the WebSocket manager, and the manager
	// routes client interactions back into the controller. The manager is
	// constructed second, so the sink resolves it through a closure.
	var wsManager *websocket.Manager
	controller := nav.New(logger, sched, reg, nav.SinkFunc(func(update nav.Update) {
		if wsManager != nil {
			wsManager.Publish(update)
		}
	}), nav.Options{
		DefaultMode: manifest.Mode(cfg.Navigation.DefaultMode),
		MarkerDelay: time.Duration(cfg.Navigation.MarkerDelayMs) * time.Millisecond,
		Transition:  time.Duration(cfg.Navigation.TransitionMs) * time.Millisecond,
	})
	defer controller.Close()

	wsManager = websocket.NewManager(originValidator(cfg), controller, logger)

	srv := server.New(cfg, logger, reg, controller, wsManager)

	reload := func(ctx context.Context, path string) error {
		m, err := manifest.Load(path)
		if err != nil {
			return err
		}
		controller.ApplyManifest(ctx, m)
		srv.SetManifest(m)
		return nil
	}

	if err := reload(ctx, cfg.Manifest.Path); err != nil {
		// The server still starts; the watcher picks the manifest up once
		// it exists and parses.
		logger.Warn(ctx, err, "manifest not loaded", "path", cfg.Manifest.Path)
	}

	if cfg.Manifest.Watch {
		w, err := watcher.New(cfg.Manifest.Path, reload, logger)
		if err != nil {
			return fmt.Errorf("failed to create manifest watcher: %w", err)
		}
		if err := w.Start(ctx); err != nil {
			return fmt.Errorf("failed to watch manifest: %w", err)
		}
	}

	fmt.Printf("Panekit preview at %s (manifest: %s)\n", cfg.URL(), cfg.Manifest.Path)
	return srv.Start(ctx)
}

func originValidator(cfg *config.Config) websocket.OriginValidator {
	return websocket.OriginValidatorFunc(func(origin string) bool {
		if origin == cfg.URL() {
			return true
		}
		for _, allowed := range cfg.Server.AllowedOrigins {
			if origin == allowed {
				return true
			}
		}
		return false
	})
}
