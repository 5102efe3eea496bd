package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/driveops/pitcrew"
	"github.com/driveops/pitcrew/internal/history"
	"github.com/driveops/pitcrew/internal/logger"
	"github.com/driveops/pitcrew/internal/supervisor"
)

// ServeFlags holds flags for the serve command.
type ServeFlags struct {
	ConfigPath string
	Listen     string
	LockFile   string
}

func createServeCommand(globalFlags *GlobalFlags) *cobra.Command {
	serveFlags := &ServeFlags{}

	cmd := &cobra.Command{
		Use:   "serve [config.yaml]",
		Short: "Start the pitcrew daemon",
		Long: `Start the pitcrew daemon that supervises the rig's processes and
serves the HTTP API.

Examples:
  pitcrew serve                     # Start with defaults (uses --config)
  pitcrew serve config.yaml         # Start with a specific config file
  pitcrew serve --listen :9000      # Override the listen address`,
		RunE: func(cmd *cobra.Command, args []string) error {
			serveFlags.ConfigPath = globalFlags.ConfigPath
			if len(args) > 0 {
				serveFlags.ConfigPath = args[0]
			}
			return runServe(serveFlags)
		},
	}

	cmd.Flags().StringVar(&serveFlags.Listen, "listen", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&serveFlags.LockFile, "lockfile", "", "single-instance lock file (default <config dir>/pitcrew.lock)")

	return cmd
}

func runServe(flags *ServeFlags) error {
	cfg, err := pitcrew.LoadConfig(flags.ConfigPath)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if problems := cfg.Validate(); len(problems) > 0 {
		for _, p := range problems {
			fmt.Fprintf(os.Stderr, "config warning: %s\n", p)
		}
	}

	// One daemon per rig. A second serve must fail fast, not race the first
	// over the same simulator and training processes.
	lockPath := flags.LockFile
	if lockPath == "" {
		lockPath = filepath.Join(os.TempDir(), "pitcrew.lock")
		if flags.ConfigPath != "" {
			lockPath = filepath.Join(filepath.Dir(flags.ConfigPath), "pitcrew.lock")
		}
	}
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock %s: %w", lockPath, err)
	}
	if !locked {
		return fmt.Errorf("another pitcrew daemon is already running (lock: %s)", lockPath)
	}
	defer func() { _ = lock.Unlock() }()

	log := logger.New(os.Stderr, cfg.GetString("log.level", "info"), cfg.GetBool("log.color", true))

	if err := pitcrew.RegisterMetricsDefault(); err != nil {
		log.Warn("failed to register metrics", "error", err)
	}

	opts := []pitcrew.Option{supervisor.WithLogger(log)}
	if dir := cfg.GetString("log.dir", ""); dir != "" {
		opts = append(opts, supervisor.WithOutputLog(logger.Config{Dir: dir}))
	}
	reg := pitcrew.NewRegistry(opts...)

	store, err := pitcrew.OpenHistory(cfg.GetString("history.dsn", ""))
	if err != nil {
		return fmt.Errorf("failed to open history store: %w", err)
	}
	var recorder *history.Recorder
	if store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := store.EnsureSchema(ctx)
		cancel()
		if err != nil {
			return fmt.Errorf("failed to prepare history schema: %w", err)
		}
		recorder = history.NewRecorder(store, reg, log)
		defer func() { _ = store.Close() }()
	}

	listen := flags.Listen
	if listen == "" {
		listen = cfg.GetString("server.listen", "127.0.0.1:8080")
	}
	basePath := cfg.GetString("server.base_path", "/api")
	srv := pitcrew.NewHTTPServer(listen, basePath, reg, cfg, store)
	log.Info("pitcrew daemon listening", "addr", listen, "base_path", basePath)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	reg.StopAll()
	if recorder != nil {
		recorder.Close()
	}
	return srv.Close()
}
