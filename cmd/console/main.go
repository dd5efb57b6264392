package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/mestre-rpg/mestre/internal/config"
	"github.com/mestre-rpg/mestre/internal/logger"
	"github.com/mestre-rpg/mestre/internal/services"
	"github.com/mestre-rpg/mestre/internal/session"
	"github.com/mestre-rpg/mestre/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\nSet GEMINI_API_KEY in the environment or a .env file.\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create data directory: %v\n", err)
		os.Exit(1)
	}

	// The TUI owns the terminal, so logs go to a file in the data dir.
	logFile, err := os.OpenFile(filepath.Join(cfg.DataDir, "mestre.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logFile.Close() // Ignore error in defer
	}()
	log := logger.Setup(cfg, logFile)

	ctx := context.Background()

	store, err := newStore(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open session storage: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = store.Close() // Ignore error in defer
	}()

	oracle, err := services.NewGeminiService(ctx, cfg.GeminiAPIKey, cfg.StoryModel, cfg.ImageModel, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to Gemini: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = oracle.Close() // Ignore error in defer
	}()

	engine := session.NewEngine(store, oracle, log)

	p := tea.NewProgram(NewConsoleUI(engine),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

func newStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (storage.SessionStore, error) {
	switch cfg.StorageBackend {
	case config.BackendRedis:
		store := storage.NewRedisStore(cfg.RedisAddr, log)
		if err := store.Ping(ctx); err != nil {
			return nil, fmt.Errorf("could not reach redis at %s: %w", cfg.RedisAddr, err)
		}
		return store, nil
	default:
		return storage.NewFileStore(cfg.DataDir, log)
	}
}
