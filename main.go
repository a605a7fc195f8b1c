package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"haulmon/internal/config"
	"haulmon/internal/database"
	"haulmon/internal/log"
	"haulmon/internal/missions"
	"haulmon/internal/server"
	"haulmon/internal/streaming"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Set up global panic handler first
	defer func() {
		if r := recover(); r != nil {
			log.Error("GLOBAL PANIC recovered", "error", r, "stack", string(debug.Stack()))
			fmt.Fprintf(os.Stderr, "Application crashed. See haulmon_debug.log for details.\n")
			os.Exit(1)
		}
	}()

	rootCmd := newRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		configFile string
		logPath    string
		listen     string
		stateDB    string
		logFile    string
	)

	cmd := &cobra.Command{
		Use:     "haulmon",
		Short:   "Star Citizen hauling mission monitor",
		Long:    "Tails the Game.log of a running Star Citizen session and serves live hauling mission state over HTTP.",
		Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			// Flags override file and environment.
			if cmd.Flags().Changed("log-path") {
				cfg.LogPath = logPath
			}
			if cmd.Flags().Changed("listen") {
				cfg.Listen = listen
			}
			if cmd.Flags().Changed("db") {
				cfg.StateDB = stateDB
			}
			return run(cfg, logFile)
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "config file (default haulmon.yaml in working directory)")
	cmd.Flags().StringVar(&logPath, "log-path", "", "path to the Game.log file")
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address")
	cmd.Flags().StringVar(&stateDB, "db", "", "path to the session state database")
	cmd.Flags().StringVar(&logFile, "log-file", "haulmon_debug.log", "application log file")
	return cmd
}

func run(cfg *config.Config, logFile string) error {
	if logFile != "" {
		if err := log.SetFileOutput(logFile); err != nil {
			fmt.Printf("Warning: Could not configure logging to file: %v\n", err)
		}
	}

	if isatty.IsTerminal(os.Stdout.Fd()) {
		fmt.Printf("haulmon %s - hauling mission monitor\n", version)
		fmt.Printf("  log:    %s\n", cfg.LogPath)
		fmt.Printf("  listen: http://%s\n", cfg.Listen)
	}

	patterns, err := streaming.NewPatterns(cfg.Patterns)
	if err != nil {
		return err
	}

	db := database.NewDatabase()
	if err := db.Open(cfg.StateDB); err != nil {
		return err
	}
	defer db.Close()

	store := missions.NewStore()
	if snap, ok, err := db.LoadSession(); err != nil {
		log.Warn("could not load saved session", "error", err)
	} else if ok {
		store.Restore(snap, time.Now())
	}
	store.SetSaver(db.SaveSession)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pipeline := streaming.NewPipeline(cfg.LogPath, patterns, store)
	pipeline.Tailer().SetBacklog(cfg.BacklogBytes, cfg.CatchupWindow())
	pipeline.Tailer().SetPollInterval(cfg.PollInterval())

	pipelineErr := make(chan error, 1)
	go func() {
		pipelineErr <- pipeline.Run(ctx)
	}()

	api := server.New(store, cfg.RefreshIntervalMS)
	httpServer := &http.Server{
		Addr:    cfg.Listen,
		Handler: api.Router(),
	}
	serverErr := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", cfg.Listen)
		serverErr <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-pipelineErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error("log pipeline failed", "error", err)
		}
		// The monitor keeps serving the last known state; wait for a signal.
		<-ctx.Done()
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown incomplete", "error", err)
	}
	log.Close()
	return nil
}
