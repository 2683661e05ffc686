package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"basegraph.app/scout/common/id"
	"basegraph.app/scout/common/llm"
	"basegraph.app/scout/common/logger"
	"basegraph.app/scout/common/otel"
	"basegraph.app/scout/core/config"
	"basegraph.app/scout/core/db"
	"basegraph.app/scout/internal/extract"
	"basegraph.app/scout/internal/flow"
	"basegraph.app/scout/internal/lock"
	"basegraph.app/scout/internal/notify"
	"basegraph.app/scout/internal/pipeline"
	"basegraph.app/scout/internal/queue"
	"basegraph.app/scout/internal/scorer"
	"basegraph.app/scout/internal/source"
	"basegraph.app/scout/internal/stage"
	"basegraph.app/scout/internal/store"
	"basegraph.app/scout/internal/tracker"
	"basegraph.app/scout/internal/worker"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeWorker)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel, config.ServiceTypeWorker)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	slog.InfoContext(ctx, "scout worker starting",
		"env", cfg.Env,
		"consumer_group", cfg.Queue.RedisGroup,
		"consumer_name", cfg.Queue.RedisConsumer)

	if err := id.Init(id.NodeWorker); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	redisOpts, err := redis.ParseURL(cfg.Queue.RedisURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Queue.RedisStream)

	llmClient, err := llm.New(llm.Config{
		Provider: cfg.Scorer.Provider,
		APIKey:   cfg.Scorer.APIKey,
		BaseURL:  cfg.Scorer.BaseURL,
		Model:    cfg.Scorer.Model,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create llm client", "error", err)
		os.Exit(1)
	}
	temperature := cfg.Scorer.Temperature
	batchScorer := scorer.New(llmClient, scorer.Config{
		MaxTokens:   cfg.Scorer.MaxTokens,
		Temperature: &temperature,
	})

	searchClient := source.New(source.Config{
		BaseURL: cfg.Source.BaseURL,
		APIKey:  cfg.Source.APIKey,
		Timeout: cfg.Source.Timeout,
	})
	defer searchClient.Close()

	browser, err := extract.NewBrowser(ctx, extract.Config{
		RemoteURL:   cfg.Browser.RemoteURL,
		ExecPath:    cfg.Browser.ExecPath,
		Headless:    cfg.Browser.Headless,
		ItemTimeout: cfg.Browser.ItemTimeout,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to start browser", "error", err)
		os.Exit(1)
	}
	defer browser.Close()

	webhook := notify.NewWebhook(notify.Config{
		WebhookURL: cfg.Notify.WebhookURL,
		Token:      cfg.Notify.Token,
		Timeout:    cfg.Notify.Timeout,
	})
	defer webhook.Close()

	stores := store.NewStores(database.Queries())
	requestTracker := tracker.New(stores.Requests(), tracker.NewTxRunner(database))

	dispatcher, err := stage.NewDispatcher(stage.Deps{
		Source: searchClient,
		Browser: stage.OpenerFunc(func(ctx context.Context) (stage.BrowserSession, error) {
			sess, err := browser.Open(ctx)
			if err != nil {
				return nil, err
			}
			return sess, nil
		}),
		Scorer:    batchScorer,
		Tracker:   requestTracker,
		Sink:      webhook,
		Pages:     cfg.Source.Pages,
		Precision: cfg.Pipeline.ScorePrecision,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to build stage dispatcher", "error", err)
		os.Exit(1)
	}

	scheduler := flow.NewScheduler(dispatcher,
		flow.Config{MaxConcurrency: cfg.Flow.MaxConcurrency},
		flow.WithObserver(pipeline.NewProgressPublisher(redisClient, cfg.Pipeline.ProgressMaxLen)))

	runner := pipeline.New(scheduler, requestTracker, cfg.Pipeline.BatchSize,
		pipeline.WithRunLocker(lock.NewLocker(redisClient, "", cfg.Pipeline.RunLockTTL)))

	consumer, err := queue.NewRedisConsumer(redisClient, queue.ConsumerConfig{
		Stream:       cfg.Queue.RedisStream,
		Group:        cfg.Queue.RedisGroup,
		Consumer:     cfg.Queue.RedisConsumer,
		DLQStream:    cfg.Queue.RedisDLQStream,
		BatchSize:    1, // one request at a time; its tree fans out internally
		Block:        5 * time.Second,
		MaxAttempts:  cfg.Queue.MaxAttempts,
		RequeueDelay: time.Second,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create consumer", "error", err)
		os.Exit(1)
	}

	w := worker.New(consumer, runner, worker.Config{MaxAttempts: cfg.Queue.MaxAttempts})

	reclaimer := worker.NewRedisReclaimer(redisClient, worker.RedisReclaimerConfig{
		Stream:    cfg.Queue.RedisStream,
		Group:     cfg.Queue.RedisGroup,
		Consumer:  cfg.Queue.RedisConsumer + "-reclaimer",
		MinIdle:   cfg.Pipeline.RunLockTTL,
		Interval:  time.Minute,
		BatchSize: 10,
	}, consumer, w.HandleMessage)

	errCh := make(chan error, 2)
	go func() {
		errCh <- w.Run(ctx)
	}()
	go func() {
		reclaimer.Run(ctx)
		errCh <- nil
	}()

	slog.InfoContext(ctx, "worker initialized and running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	reclaimer.Stop()
	w.Stop()

	if err := scheduler.Shutdown(shutdownCtx); err != nil {
		slog.WarnContext(ctx, "scheduler shutdown incomplete", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(ctx, "worker shutdown complete")
}

const banner = `
███████╗ ██████╗ ██████╗ ██╗   ██╗████████╗    ██╗    ██╗ ██████╗ ██████╗ ██╗  ██╗███████╗██████╗
██╔════╝██╔════╝██╔═══██╗██║   ██║╚══██╔══╝    ██║    ██║██╔═══██╗██╔══██╗██║ ██╔╝██╔════╝██╔══██╗
███████╗██║     ██║   ██║██║   ██║   ██║       ██║ █╗ ██║██║   ██║██████╔╝█████╔╝ █████╗  ██████╔╝
╚════██║██║     ██║   ██║██║   ██║   ██║       ██║███╗██║██║   ██║██╔══██╗██╔═██╗ ██╔══╝  ██╔══██╗
███████║╚██████╗╚██████╔╝╚██████╔╝   ██║       ╚███╔███╔╝╚██████╔╝██║  ██║██║  ██╗███████╗██║  ██║
╚══════╝ ╚═════╝ ╚═════╝  ╚═════╝    ╚═╝        ╚══╝╚══╝  ╚═════╝ ╚═╝  ╚═╝╚═╝  ╚═╝╚══════╝╚═╝  ╚═╝
`
