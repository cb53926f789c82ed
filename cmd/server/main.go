package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oggyb/roomate/internal/api"
	"github.com/oggyb/roomate/internal/app"
	"github.com/oggyb/roomate/internal/bugreport"
	"github.com/oggyb/roomate/internal/cache"
	"github.com/oggyb/roomate/internal/config"
	"github.com/oggyb/roomate/internal/db"
	"github.com/oggyb/roomate/internal/logger"
	"github.com/oggyb/roomate/internal/notify"
	"github.com/oggyb/roomate/internal/server"
	"github.com/oggyb/roomate/internal/service/match"
)

func main() {
	config.LoadDotEnvs("")
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "env", cfg.App.ENV, "err", err)
		os.Exit(1)
	}

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		os.Exit(1)
	}
	defer redisCache.Close()

	// Match emails go to RabbitMQ when configured, otherwise to the log.
	var publisher notify.Publisher = notify.LogPublisher{Logger: log}
	if cfg.Notify.RabbitMQURL != "" {
		rmq, err := notify.NewRabbitMQPublisher(cfg.Notify.RabbitMQURL, cfg.Notify.Queue)
		if err != nil {
			log.Error("failed to connect to rabbitmq", "err", err)
			os.Exit(1)
		}
		defer rmq.Close()
		publisher = rmq
	}
	notifier := notify.NewEmailNotifier(database, publisher, cfg.App.URL, cfg.Notify.From, log)

	appCtx := app.New(database, redisCache, notifier, log)
	svc := match.NewService(appCtx)

	if cfg.App.ENV == "development" {
		fx, err := db.DefaultFixtures()
		if err == nil {
			err = db.SeedTestData(database, fx)
		}
		if err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	reporter := bugreport.New(cfg.GitHub.Token, cfg.GitHub.Owner, cfg.GitHub.Repo)
	if !reporter.Configured() {
		log.Warn("bug reporting disabled, GITHUB_TOKEN or GITHUB_REPO not set")
	}

	grpcServer := server.NewGRPCServer(cfg, log, svc, match.NewRegistrar(svc))
	httpServer := server.NewHTTPServer(cfg, api.NewRouter(cfg, svc, reporter, log))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		log.Info("starting gRPC server", "addr", cfg.GRPC.Host+":"+cfg.GRPC.Port)
		errCh <- server.StartGRPCServer(cfg, grpcServer)
	}()
	go func() {
		log.Info("starting HTTP server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		log.Error("server stopped", "err", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
	grpcServer.GracefulStop()

	// let in-flight match emails finish before the publisher closes
	svc.Wait()
}
