package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"newsdiet/internal/config"
	"newsdiet/internal/daemon"
	"newsdiet/internal/ingest"
	"newsdiet/internal/ipc"
	"newsdiet/internal/logging"
	"newsdiet/internal/logs"
	"newsdiet/internal/store"
)

// Run starts the newsdiet daemon and blocks until SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, logPath, err := logging.NewDaemonLogger(cfg, time.Now())
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update newsdietd.log link: %v\n", err)
	}
	logger.Info("configuration loaded",
		logging.String(logging.FieldEventType, "config_snapshot"),
		logging.String("model", cfg.LLM.Model),
		logging.String("llm_base_url", cfg.LLM.BaseURL),
		logging.Int("fetch_interval_minutes", cfg.Ingest.FetchIntervalMinutes),
		logging.Int("fetch_concurrency", cfg.Ingest.FetchConcurrency),
		logging.Int("inference_concurrency", cfg.Ingest.InferenceConcurrency),
		logging.Bool("redis_enabled", cfg.Redis.Enabled),
		logging.Bool("notifications_enabled", cfg.Notifications.NtfyTopic != ""),
	)

	st, err := store.Open(cfg)
	if err != nil {
		logging.ErrorWithContext(logger, "open store", "store_open_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.data_dir permissions"),
		)
		return err
	}

	orch := ingest.NewFromConfig(cfg, st, logger)
	d, err := daemon.New(cfg, st, orch, logger, daemon.WithLogPath(logPath))
	if err != nil {
		_ = orch.Close()
		_ = st.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	// The pid file is written only once the lock is held so a losing
	// instance never clobbers the winner's pid.
	pidPath := cfg.PIDPath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	<-signalCtx.Done()
	logger.Info("newsdiet daemon shutting down")
	return nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := logs.CurrentPath(logDir)
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
