package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/kalambet/studymatch/internal/api"
	"github.com/kalambet/studymatch/internal/config"
	"github.com/kalambet/studymatch/internal/history"
	"github.com/kalambet/studymatch/internal/matching"
	"github.com/kalambet/studymatch/internal/matchmaker"
	"github.com/kalambet/studymatch/internal/profile"
	"github.com/kalambet/studymatch/internal/storage"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the studymatch server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running studymatch server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show studymatch server status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus(cmd.Context())
	},
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "studymatch.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

// parseLogLevel maps a config level name onto slog, defaulting to info.
func parseLogLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// matcherOptions translates config into ranking options for each match kind.
func matcherOptions(cfg config.Config) matchmaker.Options {
	norm := matching.Normalizer(cfg.Matching.Normalize)
	return matchmaker.Options{
		Partners: matching.Options{
			TopN:      cfg.Matching.TopN,
			MinScore:  cfg.Matching.MinScore,
			Normalize: norm,
		},
		Groups: matching.Options{
			TopN:      cfg.Recommend.GroupLimit,
			MinScore:  cfg.Recommend.GroupMinScore,
			Normalize: norm,
		},
		Resources: matching.Options{
			TopN:      cfg.Recommend.ResourceLimit,
			MinScore:  cfg.Recommend.ResourceMinScore,
			Normalize: norm,
		},
	}
}

func runServer() error {
	fmt.Fprintf(stderr, "studymatch version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(cfg.Log.Level)})))

	apiToken, err := config.GetAPIToken(config.NewKeychain())
	if err != nil {
		return fmt.Errorf("initializing API token: %w", err)
	}
	slog.Info("API bearer token available")

	// Refuse to start twice against the same port.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("studymatch is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("studymatch is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(stderr, "warning: closing storage: %v\n", err)
		}
	}()

	dir := profile.NewDirectory(store)

	// With the history worker disabled, matches write their history inline.
	var queue matchmaker.HistoryQueue
	if cfg.History.Enabled {
		queue = store
	}
	matcher, err := matchmaker.New(dir, store, queue, matcherOptions(cfg))
	if err != nil {
		return fmt.Errorf("configuring matcher: %w", err)
	}
	opts := matcher.Options()
	slog.Info("matcher configured",
		"partners_top_n", opts.Partners.TopN, "partners_min_score", opts.Partners.MinScore,
		"groups_top_n", opts.Groups.TopN, "resources_top_n", opts.Resources.TopN,
		"normalize", opts.Partners.Normalize)

	if cfg.History.Enabled {
		worker := history.NewWorker(store, cfg.History.PollDuration())
		go worker.Run(ctx)
		slog.Info("match history worker started", "poll_interval", cfg.History.PollDuration())
	}

	router := api.NewRouter(api.AppDeps{
		Store:     store,
		Directory: dir,
		Matcher:   matcher,
		Token:     apiToken,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.Server.MCPEnabled {
		mcpSrv := api.NewMCPServer(api.MCPDeps{
			Store:     store,
			Directory: dir,
			Matcher:   matcher,
		})
		stdioSrv := server.NewStdioServer(mcpSrv)
		go func() {
			if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("MCP stdio server error", "error", err)
			}
		}()
		slog.Info("MCP server started (stdio transport)")
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(stderr, "studymatch listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("studymatch is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop studymatch (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to studymatch (PID %d)", pid)
	return nil
}

func showStatus(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	httpClient := &http.Client{Timeout: 2 * time.Second}

	running := false
	resp, err := httpClient.Get(serverURL + "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		var health struct {
			HistoryQueue map[string]int `json:"history_queue"`
		}
		if resp.StatusCode == http.StatusOK {
			running = true
			printStatus("Server", "running on port %d", cfg.Server.Port)
			if json.NewDecoder(resp.Body).Decode(&health) == nil && len(health.HistoryQueue) > 0 {
				printStatus("History queue", "%s", queueLabel(health.HistoryQueue))
			}
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
		resp.Body.Close()
	}

	printStatus("Partner matching", "top %d, min score %.2f, %s tokens", cfg.Matching.TopN, cfg.Matching.MinScore, cfg.Matching.Normalize)
	printStatus("History worker", "%s", enabledLabel(cfg.History.Enabled))
	printStatus("MCP", "%s", enabledLabel(cfg.Server.MCPEnabled))

	if running {
		token, tokenErr := config.GetAPIToken(config.NewKeychain())
		if tokenErr == nil {
			c := &apiClient{baseURL: serverURL, token: token, httpClient: httpClient}
			for _, coll := range []struct{ label, path string }{
				{"Students", "/students"},
				{"Groups", "/groups"},
				{"Resources", "/resources"},
			} {
				if n, err := countItems(ctx, c, coll.path, 500); err == nil {
					printStatus(coll.label, "%s", countLabel(n, 500))
				}
			}
		}
	}

	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}

func countItems(ctx context.Context, c *apiClient, path string, limit int) (int, error) {
	resp, err := c.get(ctx, fmt.Sprintf("%s?limit=%d", path, limit))
	if err != nil {
		return 0, err
	}
	var items []struct{}
	if err := decodeJSON(resp, &items); err != nil {
		return 0, err
	}
	return len(items), nil
}

func enabledLabel(on bool) string {
	if on {
		return "enabled"
	}
	return "disabled"
}

func countLabel(count, limit int) string {
	if count >= limit {
		return fmt.Sprintf("%d+", count)
	}
	return fmt.Sprintf("%d", count)
}

// queueLabel renders history queue counts as "2 queued, 1 dead".
func queueLabel(counts map[string]int) string {
	var parts []string
	for _, state := range []string{storage.QueueQueued, storage.QueueClaimed, storage.QueueDone, storage.QueueDead} {
		if n := counts[state]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, state))
		}
	}
	return strings.Join(parts, ", ")
}
