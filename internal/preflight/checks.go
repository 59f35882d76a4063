package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"newsdiet/internal/config"
	"newsdiet/internal/dedup"
	"newsdiet/internal/services/llm"
	"newsdiet/internal/services/ollama"
	"newsdiet/internal/store"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDatabase opens the database and runs a ping. A database that does
// not exist yet passes; the daemon creates it on first start.
func CheckDatabase(ctx context.Context, path string) Result {
	const name = "Database"

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (created on first start)", path)}
	}
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	st, err := store.OpenPath(checkCtx, path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	defer st.Close()
	stats, err := st.Stats(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{
		Name:   name,
		Passed: true,
		Detail: fmt.Sprintf("%s (%d feeds, %d articles)", path, stats.Feeds, stats.Articles),
	}
}

// CheckModel verifies that the model server is reachable and serves the
// configured model.
func CheckModel(ctx context.Context, cfg *config.Config) Result {
	const name = "Model"

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client := ollama.New(ollama.Config{
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		APIKey:  cfg.LLM.APIKey,
	}, nil)
	present, err := client.HasModel(checkCtx)
	switch {
	case err != nil:
		return Result{Name: name, Detail: fmt.Sprintf("%s at %s (%s)", cfg.LLM.Model, cfg.LLM.BaseURL, summarizeError(err))}
	case !present && cfg.LLM.EnsureModel:
		return Result{Name: name, Detail: fmt.Sprintf("%s not pulled yet (the daemon pulls it at startup)", cfg.LLM.Model)}
	case !present:
		return Result{Name: name, Detail: fmt.Sprintf("%s not found (run: ollama pull %s)", cfg.LLM.Model, cfg.LLM.Model)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s available", cfg.LLM.Model)}
}

// CheckLLM verifies that the model answers a JSON completion. It uses a
// single attempt (no retries) bounded by the configured model timeout.
func CheckLLM(ctx context.Context, cfg *config.Config) Result {
	const name = "Model completion"

	checkCtx, cancel := context.WithTimeout(ctx, cfg.ModelTimeout())
	defer cancel()

	client := llm.NewClient(llm.Config{
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		APIKey:         cfg.LLM.APIKey,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	}, llm.WithMaxRetries(0))

	started := time.Now()
	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("JSON reply in %s", time.Since(started).Round(time.Millisecond))}
}

// CheckRedis pings the seen-key cache.
func CheckRedis(ctx context.Context, cfg *config.Config) Result {
	const name = "Redis"

	checkCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	cache := dedup.NewRedisCache(cfg)
	defer cache.Close()
	if err := cache.Ping(checkCtx); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (%s)", cfg.Redis.Addr, summarizeError(err))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s reachable", cfg.Redis.Addr)}
}

// summarizeError produces a human-readable summary for check failures.
func summarizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out (service unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timed out (service unreachable)"
	}
	return err.Error()
}
