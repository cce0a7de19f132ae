package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/restin-labs/insight-chat/internal/config"
	"github.com/restin-labs/insight-chat/internal/handler"
	chatservice "github.com/restin-labs/insight-chat/internal/service/chat"
	engineservice "github.com/restin-labs/insight-chat/internal/service/engine"
	"github.com/restin-labs/insight-chat/internal/service/session"
	"github.com/restin-labs/insight-chat/internal/stream"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	store, err := newStore(ctx, cfg.Session)
	if err != nil {
		log.Fatalf("failed to initialize session store: %v", err)
	}
	session.StartSweeper(ctx, store, cfg.Session.SweepInterval)

	bridge := engineservice.New(engineservice.Config{
		Python:  cfg.Engine.Python,
		Script:  cfg.Engine.Script,
		Timeout: cfg.Engine.Timeout,
	})
	coordinator := chatservice.NewCoordinator(store, bridge, cfg.Engine.HistoryLimit)
	emitter := stream.Emitter{Delay: cfg.Stream.ChunkDelay}

	router := handler.NewRouter(coordinator, store, emitter, handler.HealthInfo{
		SessionBackend: cfg.Session.Backend,
		EngineScript:   cfg.Engine.Script,
	})

	startServer(ctx, cfg.Server, router)
}

func newStore(ctx context.Context, cfg config.SessionConfig) (session.Store, error) {
	storeCfg := session.Config{TTL: cfg.TTL, MaxMessages: cfg.MaxMessages}

	if cfg.Backend == config.BackendRedis {
		store, err := session.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, storeCfg)
		if err != nil {
			return nil, err
		}
		log.Printf("session store: redis at %s", cfg.RedisAddr)
		return store, nil
	}

	log.Println("session store: in-memory")
	return session.NewMemoryStore(storeCfg), nil
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Insight Chat backend listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
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
