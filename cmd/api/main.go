package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/gatebound/internal/config"
	"github.com/jwebster45206/gatebound/internal/handlers"
	"github.com/jwebster45206/gatebound/internal/logger"
	"github.com/jwebster45206/gatebound/internal/middleware"
	"github.com/jwebster45206/gatebound/internal/services"
	"github.com/jwebster45206/gatebound/internal/services/events"
	"github.com/jwebster45206/gatebound/internal/session"
	backend "github.com/jwebster45206/gatebound/internal/storage"
	"github.com/jwebster45206/gatebound/pkg/episode"
	"github.com/jwebster45206/gatebound/pkg/storage"
	"github.com/jwebster45206/gatebound/pkg/textfilter"
)

// stack is the persistence chosen by STORAGE_BACKEND.
type stack struct {
	storage storage.Storage
	locker  storage.Locker
	bus     events.Bus
	closers []func() // Run after storage closes
}

func openStack(ctx context.Context, cfg *config.Config, log *slog.Logger) (*stack, error) {
	switch cfg.StorageBackend {
	case config.BackendRedis:
		rs, err := backend.NewRedisStorage(cfg.RedisURL, cfg.SessionTTL, log)
		if err != nil {
			return nil, err
		}
		if err := rs.WaitForConnection(ctx); err != nil {
			return nil, err
		}
		return &stack{
			storage: rs,
			locker:  backend.NewRedisLocker(rs.Client(), 0, log),
			bus:     events.NewBroadcaster(rs.Client(), log),
		}, nil
	case config.BackendPostgres:
		ps, err := backend.NewPostgresStorage(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return nil, err
		}
		locker, err := backend.NewPostgresLocker(ctx, cfg.DatabaseURL, log)
		if err != nil {
			_ = ps.Close()
			return nil, err
		}
		// Events stay in-process; Postgres has no pub/sub wired here.
		return &stack{
			storage: ps,
			locker:  locker,
			bus:     events.NewMemoryBus(),
			closers: []func(){locker.Close},
		}, nil
	case config.BackendMemory:
		return &stack{
			storage: storage.NewMemoryStorage(),
			locker:  storage.NewMemoryLocker(),
			bus:     events.NewMemoryBus(),
		}, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Gatebound API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"storage_backend", cfg.StorageBackend,
		"providers_enabled", cfg.ProvidersEnabled())

	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()
	st, err := openStack(storageCtx, cfg, log)
	if err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	library, err := episode.LoadDir(cfg.EpisodesDir, log)
	if err != nil {
		log.Error("Failed to load episodes", "error", err, "dir", cfg.EpisodesDir)
		os.Exit(1)
	}
	log.Info("Episodes loaded", "count", len(library.IDs()))
	engine := episode.NewEngine(library, st.storage, log)

	providers := services.NewGuarded(cfg.ProviderTimeout, log).
		WithFilter(textfilter.ForRating(cfg.ContentRating))
	if cfg.ProvidersEnabled() {
		providers.WithOpenAI(services.NewOpenAIService(services.OpenAIConfig{
			APIKey:          cfg.OpenAIAPIKey,
			BaseURL:         cfg.OpenAIBaseURL,
			DialogueModel:   cfg.DialogueModel,
			ImageModel:      cfg.ImageModel,
			VoiceModel:      cfg.VoiceModel,
			TranscribeModel: cfg.TranscribeModel,
			RequestsPerSec:  cfg.ProviderRPS,
		}, log))
		log.Info("Using OpenAI providers", "dialogue_model", cfg.DialogueModel)
	} else {
		log.Warn("OPENAI_API_KEY not set; dialogue and media use fallbacks")
	}

	sessions := session.New(session.Config{
		Storage:   st.storage,
		Locker:    st.locker,
		Engine:    engine,
		Providers: providers,
		Events:    st.bus,
		Companion: cfg.CompanionName,
		Logger:    log,
	})

	mux := handlers.NewRouter(sessions, st.bus, st.storage, log)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     middleware.Logger(log, mux),
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: event streams hold the response open
		IdleTimeout: 60 * time.Second,
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

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if err := st.storage.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}
	for _, closeFn := range st.closers {
		closeFn()
	}

	log.Info("Server exited")
}
