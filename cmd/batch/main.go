package main

import (
	"bufio"
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"reviewlens/internal/adapters/observability"
	redisad "reviewlens/internal/adapters/redis"
	"reviewlens/internal/adapters/scraper"
	"reviewlens/internal/app"
	"reviewlens/internal/domain"
	"reviewlens/internal/shared"
)

func main() {
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	path := flag.String("file", "", "file with one listing URL per line")
	workers := flag.Int("workers", cfg.BatchWorkers, "parallel analyses")
	flag.Parse()
	if *path == "" && flag.NArg() > 0 {
		*path = flag.Arg(0)
	}
	if *path == "" {
		log.Fatal().Msg("usage: batch -file urls.txt")
	}
	if *workers <= 0 {
		*workers = 1
	}

	urls, err := readURLs(*path)
	if err != nil {
		log.Fatal().Err(err).Str("path", *path).Msg("read url list failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("upstream", cfg.UpstreamURL).
		Str("backend", cfg.StoreBackend).
		Int("workers", *workers).
		Int("urls", len(urls)).
		Msg("batch starting")

	repo := shared.OpenRepository(ctx, cfg)
	defer repo.Close(context.Background())

	client, err := scraper.New(cfg.UpstreamURL, scraper.Options{
		Timeout: cfg.UpstreamTimeout,
		Limit:   cfg.UpstreamLimit,
		RPS:     cfg.UpstreamRPS,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize scraper client")
	}
	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer rc.Close()
		cache = rc
	}
	svc := app.NewAnalysisService(client, app.NewHistory(repo), cache)

	sem := semaphore.NewWeighted(int64(*workers))
	var wg sync.WaitGroup
	var ok, failed atomic.Int64

	for _, u := range urls {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Warn().Err(err).Msg("batch interrupted")
			break
		}

		wg.Add(1)
		go func(url string) {
			defer wg.Done()
			defer sem.Release(1)

			a, err := svc.Analyze(ctx, app.AnalyzeRequest{URL: url})
			if err != nil {
				failed.Add(1)
				log.Warn().Str("url", url).Err(err).Msg("analysis failed")
				return
			}
			ok.Add(1)
			log.Info().
				Str("url", url).
				Str("name", a.Name).
				Str("category", a.Category.ID).
				Int("bots", a.BotStats.Bot).
				Bool("saved", a.Saved).
				Msg("analysis ok")
		}(u)
	}

	wg.Wait()
	log.Info().Int64("ok", ok.Load()).Int64("failed", failed.Load()).Msg("batch completed")
}

// readURLs returns the non-blank lines of path, skipping '#' comments.
func readURLs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}
