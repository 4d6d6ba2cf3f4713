package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/jwebster45206/dialogue-engine/internal/config"
	"github.com/jwebster45206/dialogue-engine/internal/handlers"
	"github.com/jwebster45206/dialogue-engine/internal/logger"
	"github.com/jwebster45206/dialogue-engine/internal/middleware"
	"github.com/jwebster45206/dialogue-engine/internal/services/events"
	"github.com/jwebster45206/dialogue-engine/internal/storage"
	"github.com/jwebster45206/dialogue-engine/pkg/character"
	"github.com/jwebster45206/dialogue-engine/pkg/check"
	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
	"github.com/jwebster45206/dialogue-engine/pkg/state"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.Setup(cfg)

	log.Info("Starting Dialogue Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"data_dir", cfg.DataDir)

	store := storage.NewRedisStorage(cfg.RedisURL, cfg.DataDir, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := store.Ping(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	// Static resources: character profiles and dialogue scripts
	registry := character.NewRegistry()
	profiles, err := store.ListCharacters(storageCtx)
	if err != nil {
		log.Error("Failed to load character profiles", "error", err)
		os.Exit(1)
	}
	for _, p := range profiles {
		registry.Register(p)
	}
	log.Info("Character profiles loaded", "count", len(profiles))

	scripts := dialogue.NewRegistry()
	available, err := store.ListScripts(storageCtx)
	if err != nil {
		log.Error("Failed to list dialogue scripts", "error", err)
		os.Exit(1)
	}
	for title, filename := range available {
		s, err := store.GetScript(storageCtx, filename)
		if err != nil {
			log.Warn("Failed to load dialogue script", "title", title, "filename", filename, "error", err)
			continue
		}
		scripts.Register(s)
	}
	log.Info("Dialogue scripts loaded", "count", len(scripts.IDs()))

	stats := character.NewStore(registry)
	engine := check.NewEngine(nil, log)
	runtime := dialogue.NewRuntime(scripts, stats, engine, store, log)

	if err := runtime.Hydrate(storageCtx); err != nil {
		log.Error("Failed to hydrate runtime state", "error", err)
		os.Exit(1)
	}

	broadcaster := events.NewBroadcaster(store.Client(), log)

	// The save system owns autosave slot semantics; the runtime only
	// forwards the action.
	runtime.On(string(dialogue.ActionAutoSave), func(a dialogue.Action) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		snap := state.NewSnapshot(a.Tag, runtime.SaveState())
		if err := store.SaveSnapshot(ctx, snap); err != nil {
			log.Error("Failed to write autosave snapshot", "error", err, "tag", a.Tag)
			return
		}
		runtime.RecordAutosave(ctx, a.Tag, snap.CreatedAt)
		log.Info("Autosave snapshot written", "id", snap.ID.String(), "tag", a.Tag)
	})

	runtime.OnCheckResult(func(res check.Result) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := broadcaster.PublishCheckResolved(ctx, res); err != nil {
			log.Warn("Failed to publish check result event", "error", err)
		}
	})

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(store, log)
	mux.Handle("/health", healthHandler)

	dialogueHandler := handlers.NewDialogueHandler(log, runtime, broadcaster)
	mux.Handle("/v1/dialogue", dialogueHandler)
	mux.Handle("/v1/dialogue/", dialogueHandler)

	characterHandler := handlers.NewCharacterHandler(log, registry, stats)
	mux.Handle("/v1/characters", characterHandler)
	mux.Handle("/v1/characters/", characterHandler)

	scriptHandler := handlers.NewScriptHandler(log, store)
	mux.Handle("/v1/scripts", scriptHandler)
	mux.Handle("/v1/scripts/", scriptHandler)

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}
