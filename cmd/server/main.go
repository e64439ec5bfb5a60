package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/sift/internal/api"
	"github.com/dgallion1/sift/internal/config"
	"github.com/dgallion1/sift/internal/github"
	"github.com/dgallion1/sift/internal/llm"
	"github.com/dgallion1/sift/internal/pipeline"
)

func main() {
	cfg := config.Load()

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize model providers. Models whose provider has no key stay
	// listed and fail at generation time with a clear message.
	models := llm.NewRegistry(llm.Models)
	if cfg.GeminiAPIKey != "" {
		gemini, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			log.Error("failed to create gemini client", "error", err)
			os.Exit(1)
		}
		models.Register(llm.ProviderGoogle, gemini)
	}
	var claude *llm.ClaudeClient
	if cfg.AnthropicAPIKey != "" {
		claude = llm.NewClaudeClient(cfg.AnthropicAPIKey, cfg.AnthropicURL)
		models.Register(llm.ProviderAnthropic, claude)
	}

	// Initialize pipeline.
	stats := llm.NewStats(time.Hour)
	orch := pipeline.NewOrchestrator(cfg, models, stats, log)
	orch.Start(ctx)

	importer := github.NewClient(github.Options{
		BaseURL:           cfg.GitHubAPIURL,
		Token:             cfg.GitHubToken,
		RequestsPerSecond: cfg.GitHubRequestsPerSecond,
		MaxConcurrent:     cfg.GitHubMaxConcurrent,
		MaxFileBytes:      cfg.GitHubMaxFileBytes,
	}, log)

	// Initialize HTTP server.
	srv := api.NewServer(orch, models, importer, stats, log, cfg)

	httpServer := &http.Server{
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ln, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		log.Error("listen failed", "port", cfg.Port, "error", err)
		os.Exit(1)
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting sift",
		"port", cfg.Port,
		"default_model", cfg.DefaultModel,
		"workers", cfg.WorkerCount,
		"auth", cfg.SiftAPIKey != "",
	)
	err = serve(sigCtx, httpServer, ln, log,
		orch.Stop,
		func() {
			if claude != nil {
				claude.Close()
			}
		},
	)
	if err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

// serve runs srv on ln until ctx is done. It then shuts the server down
// and runs cleanup in order before returning. The HTTP server stops first so
// no request can submit to a stopped pipeline.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, log *slog.Logger, cleanup ...func()) error {
	defer func() {
		for _, fn := range cleanup {
			fn()
		}
	}()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	if serveErr := <-errCh; serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return serveErr
	}
	return err
}
