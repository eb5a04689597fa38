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

	"github.com/avelardi/supportlens/internal/config"
	"github.com/avelardi/supportlens/internal/handler"
	"github.com/avelardi/supportlens/internal/service/analysis"
	"github.com/avelardi/supportlens/internal/service/conversation"
	"github.com/avelardi/supportlens/internal/service/registry"
	"github.com/avelardi/supportlens/internal/service/relay"
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

	// Initialize the analysis model. The relay keeps running without one;
	// every envelope then carries the documented fallback sentiment.
	var completer analysis.Completer
	if cfg.Analysis.Enabled() {
		completer, err = analysis.NewCompleter(ctx, cfg.Analysis)
		if err != nil {
			log.Printf("warning: failed to initialize analysis model: %v", err)
			log.Println("continuing without sentiment analysis - check the ANALYSIS_* environment variables")
		} else {
			log.Printf("analysis model initialized, provider=%s model=%s", cfg.Analysis.Provider, cfg.Analysis.Model)
		}
	} else {
		log.Println("analysis model not configured, sentiment scoring disabled")
	}
	analyzer := analysis.NewService(completer, cfg.Analysis)

	store := conversation.NewStore()
	connRegistry := registry.New()
	engine := relay.NewEngine(store, connRegistry, analyzer)

	router := handler.NewRouter(engine, connRegistry, analyzer)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("supportlens backend listening on %s", addr)
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
