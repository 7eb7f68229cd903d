package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/daycare-ai/backend/internal/config"
	"github.com/zhouzirui/daycare-ai/backend/internal/handler"
	"github.com/zhouzirui/daycare-ai/backend/internal/handler/interpret"
	"github.com/zhouzirui/daycare-ai/backend/internal/model/persona"
	"github.com/zhouzirui/daycare-ai/backend/internal/service/agent"
	"github.com/zhouzirui/daycare-ai/backend/internal/service/ai"
	"github.com/zhouzirui/daycare-ai/backend/internal/service/knowledge"
	"github.com/zhouzirui/daycare-ai/backend/internal/store"
	"github.com/zhouzirui/daycare-ai/backend/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	appLogger, err := logger.Setup(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("failed to set up logging: %v", err)
	}

	repo, err := store.NewSQLite(cfg.Database.Path)
	if err != nil {
		appLogger.Error("failed to open database", "path", cfg.Database.Path, "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	if cfg.Database.SeedDemo {
		if err := store.SeedDemo(ctx, repo); err != nil {
			appLogger.Error("failed to seed demo data", "error", err)
			os.Exit(1)
		}
		appLogger.Info("demo data seeded")
	}

	aiClient := ai.NewClient(nil, appLogger)
	if cfg.AI.Enabled() {
		aiClient, err = ai.NewClientFromConfig(ctx, cfg.AI, appLogger)
		if err != nil {
			appLogger.Warn("failed to initialize chat model, chat will answer with errors", "error", err)
			aiClient = ai.NewClient(nil, appLogger)
		} else {
			appLogger.Info("chat model initialized", "model", cfg.AI.Model)
		}
	} else {
		appLogger.Warn("Ark credentials not configured, chat will answer with errors")
	}

	var interpreter interpret.Interpreter
	if aiClient.Available() {
		in, err := ai.NewInterpreter(ctx, aiClient)
		if err != nil {
			appLogger.Warn("failed to initialize routine interpreter", "error", err)
		} else {
			interpreter = in
		}
	}

	personaStore := persona.NewMemoryStore(persona.Seed())
	router, err := agent.NewRouter(repo, personaStore, agent.Runtime{
		Knowledge: knowledge.NewFetcher(repo),
		Chat:      aiClient,
		Timeout:   cfg.Chat.Timeout,
		Logger:    appLogger,
	})
	if err != nil {
		appLogger.Error("failed to build agent router", "error", err)
		os.Exit(1)
	}

	httpHandler := handler.NewRouter(handler.Dependencies{
		Personas:       personaStore,
		Dispatcher:     router,
		Knowledge:      repo,
		Interpreter:    interpreter,
		Health:         repo,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         appLogger,
	})

	startServer(ctx, cfg.Server, httpHandler, appLogger)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger *slog.Logger) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("daycare backend listening", "addr", addr)
	if err := runServer(ctx, srv); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
