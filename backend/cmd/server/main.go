// ============================================================================
// backend/cmd/server/main.go
// Entry point for the school administration API
// ============================================================================

package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo/readpref"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"schooladmin/backend/internal/gateway"
	"schooladmin/backend/internal/logger"
	"schooladmin/backend/internal/notify"
	"schooladmin/backend/internal/shared"
	"schooladmin/backend/internal/store"
	"schooladmin/backend/internal/store/memstore"
	"schooladmin/backend/internal/store/mongostore"
)

const healthServiceName = "schooladmin.API"

func main() {
	// 1. Configuration and logging
	_ = shared.LoadEnv(".env")

	cfg, err := shared.LoadServiceConfig("api")
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	logger.Configure(logger.Config{Level: cfg.LogLevel, Pretty: cfg.IsDevelopment()})
	if cfg.IsDevelopment() {
		shared.PrintConfig(cfg)
	}

	// 2. Store
	st, ping, closeStore := openStore(cfg)
	defer closeStore()

	// 3. Notifications
	var mailer notify.Mailer
	switch cfg.Mail.Provider {
	case shared.MailProviderSendgrid:
		mailer = notify.NewSendgridMailer(cfg.Mail.SendgridAPIKey, cfg.Mail.FromName, cfg.Mail.FromEmail)
	default:
		mailer = notify.NewConsoleMailer(logger.WithField("component", "mailer"))
	}
	notifier, err := notify.NewTemplateNotifier(mailer, notify.Defaults{
		SchoolName:   cfg.Mail.SchoolName,
		SupportEmail: cfg.Mail.SupportEmail,
		SupportPhone: cfg.Mail.SupportPhone,
		AppURL:       cfg.Mail.AppURL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load email templates")
	}
	dispatcher := notify.NewDispatcher(notifier, notify.DispatcherOptions{
		MaxAttempts: cfg.Mail.MaxAttempts,
		Timeout:     cfg.Mail.SendTimeout,
		Logger:      logger.WithField("component", "dispatcher"),
	})

	// 4. Services and routes
	svc := gateway.NewServices(st, dispatcher, cfg)
	svc.Ping = ping
	router := gateway.SetupRoutes(svc, cfg.CORS)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 75 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.HTTPPort).Str("store", cfg.StoreDriver).Msg("API listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// 5. gRPC health side server
	grpcServer, healthServer := startHealthServer(cfg.HealthGRPCPort)

	// 6. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	if healthServer != nil {
		healthServer.SetServingStatus(healthServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("HTTP shutdown did not complete")
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}

	// pending emails finish before the store closes
	dispatcher.Wait()
	logger.Info().Msg("stopped")
}

// openStore returns the configured store, a health probe and a close func
func openStore(cfg *shared.ServiceConfig) (*store.Store, func(context.Context) error, func()) {
	if cfg.StoreDriver == shared.StoreDriverMemory {
		logger.Warn().Msg("using in-memory store; data is lost on exit")
		return memstore.New(), nil, func() {}
	}

	client, db, err := shared.ConnectMongoDB(&cfg.MongoDB)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := mongostore.EnsureIndexes(ctx, db); err != nil {
		logger.Fatal().Err(err).Msg("failed to create indexes")
	}

	ping := func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) }
	closeFn := func() {
		if err := shared.DisconnectMongoDB(client); err != nil {
			logger.Error().Err(err).Msg("error disconnecting from MongoDB")
		}
	}
	return mongostore.New(client, db), ping, closeFn
}

func startHealthServer(port string) (*grpc.Server, *health.Server) {
	if port == "" {
		return nil, nil
	}

	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		logger.Fatal().Err(err).Str("port", port).Msg("failed to listen for gRPC health")
	}

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(healthServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	// grpcurl -plaintext localhost:50051 grpc.health.v1.Health/Check
	reflection.Register(grpcServer)

	go func() {
		logger.Info().Str("port", port).Msg("gRPC health listening")
		if err := grpcServer.Serve(listener); err != nil {
			logger.Error().Err(err).Msg("gRPC health server stopped")
		}
	}()
	return grpcServer, healthServer
}
