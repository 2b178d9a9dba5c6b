// Entry point for the wv board service: config, logging, SQLite, HTTP API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vibrantwave/wv/config"
	"github.com/vibrantwave/wv/dbopen"
	"github.com/vibrantwave/wv/genflow"
	"github.com/vibrantwave/wv/server"
	"github.com/vibrantwave/wv/session"
	_ "modernc.org/sqlite"
)

func main() {
	cfg := loadConfig()

	// Logging.
	var lvl slog.Level
	switch cfg.LogLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Board DB.
	db, err := dbopen.Open(cfg.DatabasePath, dbopen.WithMkdirAll(), dbopen.WithSchema(session.Schema))
	if err != nil {
		slog.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer db.Close()
	sessions := session.NewStore(db)

	// Generation pipeline.
	client := genflow.NewClient(genflow.ClientConfig{
		Endpoint: cfg.Generation.Endpoint,
		Model:    cfg.Generation.Model,
		APIKey:   cfg.Generation.APIKey,
		Timeout:  cfg.Generation.Timeout,
	})
	orch := genflow.NewOrchestrator(client, genflow.OrchestratorConfig{
		MaxAttempts: cfg.Generation.MaxAttempts,
		BaseBackoff: cfg.Generation.BaseBackoff,
		MaxBackoff:  cfg.Generation.MaxBackoff,
	}, logger)

	// Session lifecycle: presence bus, debounced autosave, and the timing
	// knobs the resolve endpoint hands to Probe and StartHeartbeat.
	bus := session.NewLoopbackBus()
	saver := session.NewAutoSaver(sessions, cfg.Session.SaveDelay, logger)
	defer saver.Close()

	api := server.New(logger, orch, sessions, cfg.Auth, server.SessionRuntime{
		Bus:               bus,
		ProbeWindow:       cfg.Session.ProbeWindow,
		HeartbeatInterval: cfg.Session.HeartbeatInterval,
		Saver:             saver,
	})
	defer api.Close()

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           api.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("wv starting", "addr", cfg.Listen, "db", cfg.DatabasePath, "auth", cfg.Auth.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
}

// loadConfig reads the YAML config when WV_CONFIG is set, then lets
// individual env vars override the hot fields.
func loadConfig() *config.Config {
	var cfg *config.Config
	if path := os.Getenv("WV_CONFIG"); path != "" {
		c, err := config.LoadFile(path)
		if err != nil {
			slog.Error("load config", "path", path, "error", err)
			os.Exit(1)
		}
		cfg = c
	} else {
		cfg = config.Default()
	}

	cfg.Listen = env("LISTEN", cfg.Listen)
	cfg.DatabasePath = env("DATABASE_PATH", cfg.DatabasePath)
	cfg.LogLevel = env("LOG_LEVEL", cfg.LogLevel)
	cfg.Generation.APIKey = env("OPENROUTER_API_KEY", cfg.Generation.APIKey)
	cfg.Generation.Model = env("GENERATION_MODEL", cfg.Generation.Model)
	if hash := os.Getenv("AUTH_PASSWORD_HASH"); hash != "" {
		cfg.Auth.Enabled = true
		cfg.Auth.PasswordHash = hash
	}
	return cfg
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
