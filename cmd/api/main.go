package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"equityscope/backend-go/internal/config"
	"equityscope/backend-go/internal/handlers"
	internalhttp "equityscope/backend-go/internal/http"
	"equityscope/backend-go/internal/logging"
	"equityscope/backend-go/internal/models"
	"equityscope/backend-go/internal/pipeline"
	"equityscope/backend-go/internal/ratios"
	"equityscope/backend-go/internal/reconcile"
	"equityscope/backend-go/internal/services"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "optional TOML config file")
	flag.Parse()

	_ = godotenv.Load(
		".env",
		".env.local",
		"../.env",
		"../.env.local",
	)
	cfg, err := config.Load("equityscope.toml", *configPath)
	logger := logging.New(cfg.LogLevel)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
		os.Exit(1)
	}
	if missing := cfg.Missing(); len(missing) > 0 {
		logger.Warn().Str("missing", strings.Join(missing, ",")).Msg("Credentials not configured; analyses will fail until set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache := services.NewCache(cfg, logger)
	finnhub := services.NewFinnhubClient(cfg.FinnhubAPIKey,
		services.WithBaseURL(cfg.FinnhubBaseURL),
		services.WithRateLimit(cfg.FinnhubRateLimit),
		services.WithLogger(logger),
	)
	marketData := services.NewMarketData(cfg, finnhub, cache, logger)

	generator, err := services.NewTextGenerator(ctx, cfg, pipeline.RecommenderInstruction(), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize text generation backend")
		os.Exit(1)
	}

	policy, err := reconcile.ParsePrecedence(cfg.ReconcilePrecedence)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid RECONCILE_PRECEDENCE")
		os.Exit(1)
	}
	fallback, ok := models.ParseVerdict(cfg.DefaultVerdict)
	if !ok {
		logger.Fatal().Str("value", cfg.DefaultVerdict).Msg("Invalid DEFAULT_VERDICT")
		os.Exit(1)
	}

	var summarizer pipeline.Summarizer = pipeline.LocalSummarizer{}
	if cfg.BloggerURL != "" {
		summarizer = services.NewBloggerClient(cfg.BloggerURL, services.NewRetryPolicy(cfg))
	}

	orch := pipeline.New(pipeline.Deps{
		Financials:     marketData,
		Calculator:     ratios.Engine{},
		Generator:      generator,
		Reconciler:     reconcile.New(policy),
		Summarizer:     summarizer,
		DefaultVerdict: fallback,
	}, logger)

	api := handlers.New(cfg, orch, cache, logger)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           internalhttp.NewRouter(cfg, api, logger),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 10*time.Second,
	}

	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Str("provider", generator.Name()).
			Str("cache", cache.Backend()).
			Str("precedence", policy.String()).
			Msg("equityscope backend listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
