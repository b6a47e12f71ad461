package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"vantage/internal/config"
	"vantage/internal/daemon"
	"vantage/internal/logging"
	"vantage/internal/quota"
	"vantage/internal/rollup"
	"vantage/internal/statestore"
)

func main() {
	configPath := flag.String("config", "", "path to the configuration file")
	fakeProvider := flag.Bool("fake-provider", false, "run against the built-in synthetic content source")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := statestore.Open(cfg)
	if err != nil {
		logger.Error("open state store", logging.Error(err))
		return
	}
	defer store.Close()

	aggregates, err := rollup.OpenStore(cfg)
	if err != nil {
		logger.Error("open aggregate store", logging.Error(err))
		return
	}
	defer aggregates.Close()

	manager, err := quota.NewManager(cfg, store, logger)
	if err != nil {
		logger.Error("init quota manager", logging.Error(err))
		return
	}

	deps, err := buildPipeline(cfg, store, aggregates, manager, logger, *fakeProvider)
	if err != nil {
		logger.Error("build pipeline", logging.Error(err))
		return
	}

	d, err := daemon.New(cfg, store, manager, deps.orch, deps.cache, deps.runner, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("start daemon", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("vantaged shutting down")
	d.Stop()
}
