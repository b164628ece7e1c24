package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"newsbot/internal/bot"
	"newsbot/internal/canonical"
	"newsbot/internal/config"
	"newsbot/internal/dispatch"
	"newsbot/internal/fetcher"
	"newsbot/internal/filter"
	"newsbot/internal/httpapi"
	"newsbot/internal/logging"
	"newsbot/internal/resolver"
	"newsbot/internal/scheduler"
	"newsbot/internal/storage"
	"newsbot/internal/translate"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("load .env", "error", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	slog.SetDefault(log)

	pipeline, err := config.LoadPipeline(cfg.SourcesFile)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Warn("sources file not found, using built-in sources", "path", cfg.SourcesFile)
		pipeline = config.DefaultPipeline()
	case err != nil:
		log.Error("load sources", "path", cfg.SourcesFile, "error", err)
		os.Exit(1)
	}
	log.Info("pipeline loaded", "sources", len(pipeline.Sources), "keywords", len(pipeline.Keywords))

	if cfg.DatabaseDriver == storage.DriverSQLite {
		if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				log.Error("create data directory", "path", dir, "error", err)
				os.Exit(1)
			}
		}
	}

	store, err := storage.Open(cfg.DatabaseDriver, cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "driver", cfg.DatabaseDriver, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	b, err := connectBot(ctx, cfg, store, log)
	if err != nil {
		log.Error("create bot", "error", err)
		os.Exit(1)
	}

	client := &http.Client{Timeout: 30 * time.Second}

	chain := translate.Chain{translate.NewGoogle(client)}
	if cfg.GeminiAPIKey != "" {
		g, err := translate.NewGemini(ctx, cfg.GeminiAPIKey)
		if err != nil {
			log.Warn("gemini translator disabled", "error", err)
		} else {
			defer func() { _ = g.Close() }()
			chain = append(chain, g)
		}
	}

	f := fetcher.New(client, cfg.UserAgent)
	res := resolver.NewDefault(f, resolver.Options{
		FeedSuffixes:     pipeline.FeedSuffixes,
		ArticleSelectors: pipeline.ArticleSelectors,
		MaxSynthesized:   pipeline.MaxSynthesized,
	}, log)
	disp := dispatch.New(b, dispatch.Options{
		MaxConcurrent: cfg.MaxConcurrentSends,
		Rate:          cfg.SendRate,
	}, log)

	sched := scheduler.New(scheduler.Deps{
		Store:         store,
		Resolver:      res,
		Canonicalizer: canonical.New(pipeline.DenyHosts),
		Filter:        filter.NewKeywords(pipeline.Keywords),
		Localizer:     translate.NewLocalizer(chain, cfg.TranslateTarget, cfg.TranslateAll, log),
		Dispatcher:    disp,
		Format:        bot.FormatPost,
	}, pipeline.Sources, scheduler.Options{
		Interval:      cfg.PollInterval,
		SourceTimeout: cfg.SourceTimeout,
		Workers:       cfg.SourceWorkers,
	}, log)
	b.SetRefresher(sched)

	log.Info("starting bot", "interval", cfg.PollInterval)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sched.Run(gctx)
	})
	g.Go(func() error {
		b.Run(gctx)
		return nil
	})
	if cfg.HTTPAddr != "" {
		api := httpapi.New(sched, log)
		g.Go(func() error {
			return api.ListenAndServe(gctx, cfg.HTTPAddr)
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("bot stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("bot stopped")
}

// connectBot creates the Telegram client, retrying while the API is
// unreachable. A rejected token is not retried.
func connectBot(ctx context.Context, cfg *config.Config, store storage.Storage, log *slog.Logger) (*bot.Bot, error) {
	var b *bot.Bot
	backoff := retry.WithMaxRetries(8, retry.NewFibonacci(time.Second))
	err := retry.Do(ctx, backoff, func(_ context.Context) error {
		var err error
		b, err = bot.New(cfg.TelegramBotToken, store, cfg, log)
		if err == nil {
			return nil
		}
		var apiErr *tgbotapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusUnauthorized {
			return err
		}
		log.Warn("telegram api unavailable, retrying", "error", err)
		return retry.RetryableError(err)
	})
	return b, err
}
