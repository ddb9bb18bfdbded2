// Package main 异步文章生成任务执行器入口（job-worker）
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"article-forge-api/internal/config"
	"article-forge-api/internal/infrastructure/messaging"
	einoobs "article-forge-api/internal/observability/eino"
	"article-forge-api/internal/wire"
	"article-forge-api/pkg/logger"
	"article-forge-api/pkg/tracer"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

// 死信队列告警阈值
const dlqAlertThreshold = 10

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := tracer.Init(ctx, tracer.Config{
		ServiceName: "job-worker",
		Environment: cfg.App.Env,
		Version:     cfg.App.Version,
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to init tracer", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	einoobs.Init()

	worker, cleanup, err := wire.InitializeWorker(ctx, cfg)
	if err != nil {
		logger.Fatal(ctx, "failed to initialize worker", err)
	}
	defer cleanup()

	worker.Consumer.RegisterHandler(messaging.MessageTypeArticleGen, worker.Jobs.Handle)

	log := logger.FromContext(ctx)
	log.Info("job-worker started",
		"stream", string(messaging.StreamArticleGen),
		"group", string(messaging.ConsumerGroupArticleWorker),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Consumer.Run(gctx)
	})
	g.Go(func() error {
		worker.Consumer.MonitorDLQ(gctx, dlqAlertThreshold)
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error(ctx, "job-worker stopped with error", err)
		worker.Consumer.Stop()
		return
	}

	log.Info("job-worker shutting down")
	worker.Consumer.Stop()
}
