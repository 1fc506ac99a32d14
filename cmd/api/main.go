package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	server "reviewlens/internal/adapters/http_server"
	"reviewlens/internal/adapters/observability"
	redisad "reviewlens/internal/adapters/redis"
	"reviewlens/internal/adapters/scraper"
	"reviewlens/internal/app"
	"reviewlens/internal/domain"
	"reviewlens/internal/shared"
)

const version = "2.0.0"

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// deps
	repo := shared.OpenRepository(ctx, cfg)
	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer rc.Close()
		cache = rc
		log.Info().Str("addr", cfg.RedisAddr).Msg("read cache enabled")
	}

	client, err := scraper.New(cfg.UpstreamURL, scraper.Options{
		Timeout: cfg.UpstreamTimeout,
		Limit:   cfg.UpstreamLimit,
		RPS:     cfg.UpstreamRPS,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize scraper client")
	}

	history := app.NewHistory(repo)
	a := app.NewAnalysisService(client, history, cache)
	q := app.NewQueryService(history, cache, cfg.CacheTTL)

	// http; leave room past the upstream deadline so the 504 is ours
	srv := server.New(cfg.UpstreamTimeout + 15*time.Second)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{A: a, Q: q, Version: version})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("backend", cfg.StoreBackend).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	if err := repo.Close(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("closing history store failed")
	}
}
