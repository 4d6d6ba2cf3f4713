package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/jwebster45206/dialogue-engine/internal/storage"
	"github.com/jwebster45206/dialogue-engine/pkg/character"
	"github.com/jwebster45206/dialogue-engine/pkg/check"
	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
	"github.com/jwebster45206/dialogue-engine/pkg/state"
)

func main() {
	_ = godotenv.Load()

	redisURL := getEnv("REDIS_URL", "localhost:6379")
	dataDir := getEnv("DATA_DIR", "./data")

	// The alt-screen UI owns the terminal; logs go to a file when asked
	// for, nowhere otherwise.
	logOut := io.Discard
	if path := os.Getenv("CONSOLE_LOG_FILE"); path != "" {
		if f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
			defer f.Close()
			logOut = f
		}
	}
	log := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: slog.LevelDebug}))

	store := storage.NewRedisStorage(redisURL, dataDir, log)
	defer func() {
		_ = store.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := store.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Could not connect to Redis at %s: %v\nTry: docker-compose up -d\n", redisURL, err)
		os.Exit(1)
	}

	registry := character.NewRegistry()
	profiles, err := store.ListCharacters(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load characters: %v\n", err)
		os.Exit(1)
	}
	for _, p := range profiles {
		registry.Register(p)
	}

	scripts := dialogue.NewRegistry()
	available, err := store.ListScripts(ctx)
	if err != nil || len(available) == 0 {
		fmt.Fprintf(os.Stderr, "No dialogue scripts found under %s/scripts: %v\n", dataDir, err)
		os.Exit(1)
	}
	for _, filename := range available {
		s, err := store.GetScript(ctx, filename)
		if err != nil {
			log.Warn("Skipping unreadable script", "filename", filename, "error", err)
			continue
		}
		scripts.Register(s)
	}

	stats := character.NewStore(registry)
	bridge := newUIBridge()
	engine := check.NewEngine(bridge, log)
	rt := dialogue.NewRuntime(scripts, stats, engine, store, log)
	rt.BindPresenter(bridge)
	rt.BindOverlay(bridge)

	if err := rt.Hydrate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load saved state: %v\n", err)
		os.Exit(1)
	}

	// Autosave in the console writes straight through the storage layer.
	rt.On(string(dialogue.ActionAutoSave), func(a dialogue.Action) {
		saveCtx, saveCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer saveCancel()
		snap := state.NewSnapshot(a.Tag, rt.SaveState())
		if err := store.SaveSnapshot(saveCtx, snap); err != nil {
			log.Error("Autosave failed", "error", err, "tag", a.Tag)
			return
		}
		rt.RecordAutosave(saveCtx, a.Tag, snap.CreatedAt)
	})

	p := tea.NewProgram(NewConsoleUI(rt, scripts, registry, stats),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	bridge.Attach(p.Send)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
