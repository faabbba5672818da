package main

import (
	"context"
	"fmt"
	"net"

	"nepse-observer/src/grpc_control"
	"nepse-observer/src/logger"
	"nepse-observer/src/models"
	"nepse-observer/src/server"

	"google.golang.org/grpc"
)

// -----------------------------------------------------------------------------

// startServers launches the HTTP API and the gRPC control server. The returned
// function shuts both down.
func startServers(
	srv *server.APIServer,
	controlService *grpc_control.ControlService,
	config *models.MConfig,
	appLogger *logger.Logger,
) func(ctx context.Context) {

	// 1. HTTP API
	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Error("Server failed: %v", err)
		}
	}()

	// 2. gRPC Control Server
	var grpcServer *grpc.Server
	port := config.GrpcPort
	if port == 0 {
		port = 9090
	}
	addr := fmt.Sprintf("%s:%d", config.GrpcHost, port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		appLogger.Critical("failed to listen for gRPC: %v", err)
	} else {
		grpcServer = grpc_control.NewGRPCServer(controlService)
		go func() {
			appLogger.Info("Starting gRPC Control Server on %s", addr)
			if err := grpcServer.Serve(lis); err != nil {
				appLogger.Critical("failed to serve gRPC: %v", err)
			}
		}()
	}

	return func(ctx context.Context) {
		if err := srv.Stop(ctx); err != nil {
			appLogger.Warning("HTTP shutdown: %v", err)
		}
		if grpcServer != nil {
			grpcServer.GracefulStop()
		}
	}
}
