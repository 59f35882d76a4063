package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"newsdiet/internal/api"
	"newsdiet/internal/config"
	"newsdiet/internal/ipc"
	"newsdiet/internal/preflight"
	"newsdiet/internal/store"
)

// ErrDaemonNotRunning indicates daemon IPC is unavailable.
var ErrDaemonNotRunning = errors.New("daemon not running")

// StopResult captures daemon stop/termination outcome.
type StopResult struct {
	PID        int
	Signaled   bool
	ForcedKill bool
}

// Snapshot is the status shown by the CLI whether or not the daemon runs.
type Snapshot struct {
	api.DaemonStatus
	Reachable bool
}

// WaitForShutdown waits for daemon IPC to disappear.
func WaitForShutdown(socketPath string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		client, err := ipc.Dial(socketPath)
		if err != nil {
			if isDaemonUnavailable(err) {
				return nil
			}
			time.Sleep(200 * time.Millisecond)
			continue
		}
		_ = client.Close()
		time.Sleep(200 * time.Millisecond)
	}
	return errors.New("daemon did not stop: timeout waiting for shutdown")
}

// ProcessInfo returns whether daemon IPC is reachable and the daemon PID when available.
func ProcessInfo(socketPath string) (bool, int, error) {
	client, err := ipc.Dial(socketPath)
	if err != nil {
		if isDaemonUnavailable(err) {
			return false, 0, nil
		}
		return false, 0, err
	}
	defer client.Close()
	status, statusErr := client.Status()
	if statusErr != nil {
		return true, 0, statusErr
	}
	return true, status.PID, nil
}

// ReadPID returns the pid recorded in the daemon pid file.
func ReadPID(pidPath string) (int, error) {
	data, err := os.ReadFile(pidPath)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("pid file %s holds no pid", pidPath)
	}
	return pid, nil
}

// StopAndTerminate sends SIGTERM to the daemon and escalates to SIGKILL if
// it is still alive after gracePeriod. The pid comes from IPC status, or
// the pid file when the socket is unavailable.
func StopAndTerminate(cfg *config.Config, gracePeriod time.Duration) (StopResult, error) {
	socketPath := cfg.SocketPath()
	alive, pid, err := ProcessInfo(socketPath)
	if err != nil {
		return StopResult{}, err
	}
	if pid == 0 {
		if filePID, readErr := ReadPID(cfg.PIDPath()); readErr == nil && processAlive(filePID) {
			pid = filePID
			alive = true
		}
	}
	if !alive || pid == 0 {
		return StopResult{}, ErrDaemonNotRunning
	}
	if pid == os.Getpid() {
		return StopResult{}, fmt.Errorf("refusing to signal current process (pid %d)", pid)
	}

	result := StopResult{PID: pid}
	if err := unix.Kill(pid, unix.SIGTERM); err != nil {
		if errors.Is(err, unix.ESRCH) {
			return result, ErrDaemonNotRunning
		}
		return result, fmt.Errorf("signal daemon %d: %w", pid, err)
	}
	result.Signaled = true

	if waitForExit(pid, gracePeriod) {
		_ = WaitForShutdown(socketPath, 2*time.Second)
		return result, nil
	}
	if err := unix.Kill(pid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
		return result, fmt.Errorf("kill daemon %d: %w", pid, err)
	}
	result.ForcedKill = true
	for _, path := range []string{cfg.PIDPath(), socketPath} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return result, fmt.Errorf("remove %s: %w", path, err)
		}
	}
	return result, nil
}

// BuildStatusSnapshot returns the live daemon status, or an offline view
// read from the database with preflight results when the daemon is down.
func BuildStatusSnapshot(ctx context.Context, cfg *config.Config) (Snapshot, error) {
	if cfg == nil {
		return Snapshot{}, errors.New("configuration not available")
	}
	client, err := ipc.Dial(cfg.SocketPath())
	if err == nil {
		defer client.Close()
		if resp, statusErr := client.Status(); statusErr == nil {
			return Snapshot{DaemonStatus: resp.DaemonStatus, Reachable: true}, nil
		}
	}

	snapshot := Snapshot{DaemonStatus: api.DaemonStatus{
		DatabasePath: cfg.DatabasePath(),
		LockFilePath: cfg.LockPath(),
		APIBind:      cfg.Paths.APIBind,
		Model:        cfg.LLM.Model,
	}}
	if _, statErr := os.Stat(cfg.DatabasePath()); statErr == nil {
		queryCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		st, openErr := store.OpenPath(queryCtx, cfg.DatabasePath())
		if openErr == nil {
			stats, statsErr := st.Stats(queryCtx)
			_ = st.Close()
			if statsErr == nil {
				snapshot.Stats = api.FromStats(stats)
			}
		}
	}
	snapshot.Checks = preflight.RunAll(ctx, cfg)
	return snapshot, nil
}

func waitForExit(pid int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			return true
		}
		time.Sleep(200 * time.Millisecond)
	}
	return !processAlive(pid)
}

func processAlive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

func isDaemonUnavailable(err error) bool {
	return os.IsNotExist(err) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, syscall.ENOENT) ||
		errors.Is(err, syscall.ECONNREFUSED)
}
