package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nepse-observer/src/config"
	"nepse-observer/src/grpc_control"
	"nepse-observer/src/helpers"
	"nepse-observer/src/logger"
	"nepse-observer/src/scheduler"
	"nepse-observer/src/server"
	"nepse-observer/src/watchlist"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	flag.Parse()

	// Load config from YAML file, .env and environment
	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	appLogger := logger.NewLogger(cfg.MConfig, cfg.Name)
	errHandler := helpers.NewErrorHandler(appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Storage
	store, err := setupDatabase(ctx, cfg.MConfig, appLogger)
	if err != nil {
		errHandler.Handle(err, "setupDatabase")
		os.Exit(1)
	}
	defer store.Close()

	// 2. Network & data source
	netMgr := setupNetwork(cfg.MConfig, appLogger)
	source := setupDataSource(cfg.MConfig, appLogger, netMgr)

	// 3. Refresh scheduler
	refresher := scheduler.NewRefreshScheduler(cfg.MConfig, source, appLogger.Named("RefreshScheduler"))
	if err := refresher.Start(ctx); err != nil {
		errHandler.Handle(err, "RefreshScheduler.Start")
		os.Exit(1)
	}

	// 4. Consumers
	wl := watchlist.NewService(store, watchlist.FromState(refresher), appLogger.Named("Watchlist"))
	srv := server.NewAPIServer(cfg.MConfig, appLogger.Named("APIServer"), refresher, wl, source, refresher.Now)
	controlService := grpc_control.NewControlService(refresher, wl, appLogger.Named("ControlService"), refresher.Now)

	updates, unsubscribe := refresher.Subscribe()
	go controlService.TrackHealth(ctx, updates)

	shutdownServers := startServers(srv, controlService, cfg.MConfig, appLogger)

	go func() {
		select {
		case <-refresher.Ready():
			st := refresher.Snapshot()
			appLogger.Info("First data received (phase %s, %d stocks)", st.ActivePhase, len(st.SecondaryData))
		case <-ctx.Done():
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	shutdownServers(shutdownCtx)
	unsubscribe()
	refresher.Stop()
}
