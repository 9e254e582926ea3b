package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"imagehound/internal/adapter/channel"
	"imagehound/internal/adapter/engine"
	"imagehound/internal/adapter/imagehost"
	"imagehound/internal/domain"
	"imagehound/internal/infra/config"
	"imagehound/internal/infra/logger"
	"imagehound/internal/infra/tracer"
	"imagehound/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, closeLog, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := tracer.Setup(ctx, cfg.Tracer)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer shutdownTracer(context.Background())

	host, closeHost, err := buildHost(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("init image host: %w", err)
	}
	if closeHost != nil {
		defer closeHost()
	}

	scheduler := startPurgeJob(cfg, host, log)
	if scheduler != nil {
		defer scheduler.Stop()
	}

	registry := engine.BuildRegistry(cfg.Engines, log)
	log.Info("engine registry built", "engines", registry.Len())

	bot := channel.NewTelegramChannel(cfg.Telegram.Token, log,
		channel.WithPollTimeout(cfg.Telegram.PollTimeout))

	svc := usecase.NewService(usecase.Deps{
		Sink:                 bot,
		Resolver:             channel.NewResolver(bot, host, log),
		Engines:              registry,
		Operator:             channel.NewTelegramOperator(bot, cfg.Telegram.AdminIDs, log),
		Logger:               log,
		MaxConcurrentLookups: cfg.Search.MaxConcurrentLookups,
		EditsPerSecond:       cfg.Search.EditsPerSecond,
		LookupTimeout:        cfg.Search.LookupTimeout,
	})

	if err := bot.Start(ctx, svc); err != nil {
		return fmt.Errorf("start telegram channel: %w", err)
	}
	log.Info("bot running", "admins", len(cfg.Telegram.AdminIDs))

	<-ctx.Done()
	log.Info("shutting down")
	return bot.Stop(context.Background())
}

// buildHost assembles the image host, wrapping it in the sqlite lookup cache
// when one is configured.
func buildHost(ctx context.Context, cfg *config.Config, log *slog.Logger) (domain.ImageHost, func() error, error) {
	var inner domain.ImageHost
	switch cfg.Host.Backend {
	case "memory":
		inner = imagehost.NewMemoryHost(cfg.Host.PublicBaseURL)
	default:
		s3host, err := imagehost.NewS3Host(ctx, cfg.Host, log)
		if err != nil {
			return nil, nil, err
		}
		inner = s3host
	}

	if cfg.Host.CachePath == "" {
		return inner, nil, nil
	}
	cached, err := imagehost.NewCachedHost(inner, cfg.Host.CachePath, cfg.Host.CacheTTL, log)
	if err != nil {
		return nil, nil, err
	}
	return cached, cached.Close, nil
}

// startPurgeJob schedules expired-entry purges on the lookup cache. Returns
// nil when the host is not cached.
func startPurgeJob(cfg *config.Config, host domain.ImageHost, log *slog.Logger) *cron.Cron {
	cached, ok := host.(*imagehost.CachedHost)
	if !ok || cfg.Host.CachePurgeSchedule == "" {
		return nil
	}

	c := cron.New()
	_, err := c.AddFunc(cfg.Host.CachePurgeSchedule, func() {
		if err := cached.Purge(context.Background()); err != nil {
			log.Warn("cache purge failed", "error", err)
		}
	})
	if err != nil {
		log.Warn("invalid cache purge schedule", "schedule", cfg.Host.CachePurgeSchedule, "error", err)
		return nil
	}
	c.Start()
	log.Info("cache purge scheduled", "schedule", cfg.Host.CachePurgeSchedule)
	return c
}
