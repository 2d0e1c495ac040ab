package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/leadpilothq/chatwidget/internal/config"
	"github.com/leadpilothq/chatwidget/internal/handler"
	"github.com/leadpilothq/chatwidget/internal/model/playbook"
	"github.com/leadpilothq/chatwidget/internal/service/agent"
	"github.com/leadpilothq/chatwidget/internal/service/chat"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil {
		logger.Warn().Err(err).Msg("no .env file, using system environment only")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	playbooks := playbook.NewMemoryStore(playbook.Seed())
	chatService := chat.NewService()

	// Prefer the LLM responder when model credentials are configured; fall
	// back to canned playbook replies otherwise.
	var responder agent.Responder = agent.NewPlaybookResponder(playbooks)
	if cfg.Agent.Enabled() {
		llm, err := agent.NewLLMResponder(ctx, cfg.Agent, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to initialize LLM responder, using playbook replies")
		} else {
			responder = llm
			logger.Info().Msg("LLM responder initialized")
		}
	} else {
		logger.Info().Msg("no model credentials configured, using playbook replies")
	}

	router := handler.NewRouter(chatService, responder, playbooks, logger)

	startServer(ctx, cfg.Server, router, logger)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger zerolog.Logger) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info().Str("addr", serverCfg.Addr).Msg("widgetd listening")
	if err := runServer(ctx, srv); err != nil {
		logger.Fatal().Err(err).Msg("server error")
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
