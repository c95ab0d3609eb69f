package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"reelpress/internal/assets"
	"reelpress/internal/config"
	"reelpress/internal/daemon"
	"reelpress/internal/encode"
	"reelpress/internal/history"
	"reelpress/internal/logging"
	"reelpress/internal/notifications"
	"reelpress/internal/render"
	"reelpress/internal/session"
	"reelpress/internal/storage"
	"reelpress/internal/transport"
	"reelpress/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// TransportFactory builds the chat transport once the daemon logger and
// shutdown context exist. The returned stop function runs during shutdown
// and may be nil.
type TransportFactory func(ctx context.Context, logger *slog.Logger) (transport.Transport, func(), error)

// Run starts the reelpress daemon runtime loop. The chat transport is
// supplied by the caller; everything else is wired from configuration.
func Run(cmdCtx context.Context, cfg *config.Config, makeTransport TransportFactory, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if makeTransport == nil {
		return fmt.Errorf("transport factory is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("reelpress-%s.log", runID))
	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	pidPath := filepath.Join(cfg.Paths.LogDir, "reelpress.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	bot, stopBot, err := makeTransport(signalCtx, logger)
	if err != nil {
		return fmt.Errorf("init transport: %w", err)
	}
	if stopBot != nil {
		defer stopBot()
	}

	hist, err := history.Open(cfg)
	if err != nil {
		logger.Error("open history store", logging.Error(err))
		return err
	}

	assetServer := assets.NewServer(cfg.Paths.AssetBind, cfg.Paths.OutputDir, logger)

	renderer, err := render.NewRenderer(cfg.Render, cfg.Paths.TemplatePath,
		render.NewChromeEngineFactory(cfg.Render), logger)
	if err != nil {
		return fmt.Errorf("init renderer: %w", err)
	}

	manager, err := workflow.NewManager(workflow.Deps{
		Config:     cfg,
		Transport:  bot,
		Sessions:   session.NewStore(),
		Allocator:  storage.NewAllocator(cfg.Paths.OutputDir),
		Renderer:   renderer,
		Encoder:    encode.NewEncoder(cfg.Encode, logger),
		Assets:     assetServer,
		History:    hist,
		Notifier:   notifications.NewService(cfg),
		Downloader: transport.NewDownloader(time.Duration(cfg.Transport.DownloadTimeoutSeconds) * time.Second),
		Logger:     logger,
	})
	if err != nil {
		_ = hist.Close()
		return fmt.Errorf("create workflow manager: %w", err)
	}

	d, err := daemon.New(cfg, logger, hist, manager, assetServer)
	if err != nil {
		_ = hist.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return err
	}

	<-signalCtx.Done()
	logger.Info("reelpress daemon shutting down")
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
