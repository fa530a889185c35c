package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"shipmap/internal/config"
	"shipmap/internal/feed"
	"shipmap/internal/grpcclient"
	"shipmap/internal/observability"
	"shipmap/internal/pipeline"
	"shipmap/internal/render"
	"shipmap/internal/session"
	"shipmap/internal/store"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (overrides SHIPMAP_CONFIG)")
	verbose := flag.Bool("verbose", false, "print a console line for every marker change")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "shipmap:", err)
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg.LogLevel)
	logger.Info("Starting shipmap...", "base_url", cfg.BaseURL, "push_url", cfg.PushURL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	console := render.NewConsole(os.Stdout)
	console.Verbose = *verbose
	sinks := render.Multi{console, render.NewLogSink(logger)}
	var queues []*render.Async

	if cfg.RedisAddr != "" {
		mirror, err := store.NewRedisMirror(ctx, cfg.RedisAddr, 0, cfg.RedisPrefix, logger)
		if err != nil {
			logger.Error("Redis mirror disabled", "error", err)
		} else {
			defer mirror.Close()
			if err := mirror.Reset(ctx); err != nil {
				logger.Warn("Redis reset failed", "error", err)
			}
			q := render.NewAsync("redis", mirror, logger)
			queues = append(queues, q)
			sinks = append(sinks, q)
		}
	}

	if cfg.GRPCServer != "" {
		fwd, err := grpcclient.NewSink(cfg.GRPCServer, logger)
		if err != nil {
			logger.Error("gRPC forwarding disabled", "error", err)
		} else {
			defer fwd.Close()
			q := render.NewAsync("grpc", fwd, logger)
			queues = append(queues, q)
			sinks = append(sinks, q)
		}
	}

	for _, q := range queues {
		q.Start(context.Background())
	}

	region := cfg.Region.Region()
	client := feed.NewClient(cfg.BaseURL, cfg.RequestTimeout, pipeline.NewNormalizer(region), logger)
	sess := session.New(ctx, client, sinks, session.Options{
		PushURL:       cfg.PushURL,
		PollInterval:  cfg.PollInterval,
		StatsInterval: cfg.StatsInterval,
		Region:        region,
		List:          console.PrintList,
	}, logger)

	if cfg.MetricsPort != "" {
		go func() {
			if err := observability.StartMetricsServer(cfg.MetricsPort, sess.Ready); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
	}

	go sess.ReadCommands(os.Stdin)

	if err := sess.Run(); err != nil {
		logger.Error("Session failed", "error", err)
	}
	for _, q := range queues {
		q.Close()
	}
}
