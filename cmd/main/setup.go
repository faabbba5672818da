package main

import (
	"context"

	"nepse-observer/src/data_source/nepse"
	"nepse-observer/src/interfaces"
	"nepse-observer/src/logger"
	"nepse-observer/src/models"
	"nepse-observer/src/network"
	"nepse-observer/src/storage"
)

// -----------------------------------------------------------------------------

// setupDatabase opens the watchlist store selected by config and migrates it.
func setupDatabase(ctx context.Context, config *models.MConfig, appLogger *logger.Logger) (interfaces.IWatchlistStore, error) {
	name := "SQLiteDB"
	if config.Storage.DBType == "postgres" {
		name = "PostgresDB"
	}

	store, err := storage.NewWatchlistStore(config, appLogger.Named(name))
	if err != nil {
		appLogger.Critical("Failed to init db: %v", err)
		return nil, err
	}
	if err := store.Initialize(ctx); err != nil {
		appLogger.Critical("Failed to migrate db: %v", err)
		return nil, err
	}
	return store, nil
}

// -----------------------------------------------------------------------------

// setupNetwork initializes the network manager
func setupNetwork(config *models.MConfig, appLogger *logger.Logger) interfaces.INetworkManager {
	return network.NewNetworkManager(config, appLogger.Named("NetworkManager"))
}

// -----------------------------------------------------------------------------

// setupDataSource builds the NEPSE feed reader on top of the network manager.
func setupDataSource(config *models.MConfig, appLogger *logger.Logger, netMgr interfaces.INetworkManager) *nepse.Source {
	src := nepse.NewSource(config, netMgr, appLogger.Named("NepseSource"))
	appLogger.Info("Data source ready: %s", src.BaseURL)
	return src
}
