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

	"github.com/yuchenw/pagechat/backend/internal/config"
	"github.com/yuchenw/pagechat/backend/internal/handler"
	"github.com/yuchenw/pagechat/backend/internal/service/ai"
	"github.com/yuchenw/pagechat/backend/internal/service/scrape"
	"github.com/yuchenw/pagechat/backend/internal/service/session"
	"github.com/yuchenw/pagechat/backend/internal/store"
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

	recordStore, cleanup, err := openStore(cfg.Store)
	if err != nil {
		log.Fatalf("failed to open record store: %v", err)
	}
	defer cleanup()

	// The provider stays nil without credentials; chat turns then fail
	// upstream while session creation and loading keep working.
	var provider session.Provider
	if cfg.AI.Enabled() {
		aiService, err := ai.NewService(ctx, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize AI service: %v", err)
			log.Println("continuing without AI functionality")
		} else {
			provider = aiService
			log.Println("AI service initialized successfully")
		}
	} else {
		log.Println("model credentials not configured, skipping AI initialization")
	}

	sessions := session.NewService(recordStore, provider)
	scraper := scrape.NewService(cfg.Scrape.Timeout, cfg.Scrape.UserAgent)

	router := handler.NewRouter(sessions, scraper)

	startServer(ctx, cfg.Server, router)
}

func openStore(cfg config.StoreConfig) (store.Store, func(), error) {
	if cfg.Path == "" {
		log.Println("DATABASE_PATH empty, using in-memory store (chats are lost on restart)")
		return store.NewMemoryStore(), func() {}, nil
	}

	sqliteStore, err := store.NewSQLiteStore(cfg.Path)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("sqlite store opened at %s", cfg.Path)
	return sqliteStore, func() { sqliteStore.Close() }, nil
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("PageChat backend listening on %s", addr)
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
