// @title        HaulMate Tracking System API
// @version      1.0
// @description  Live device tracking, proximity detection, and event notifications for dispatch back offices.
// @BasePath     /
package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/haulmate/tracking-system/docs"
	"github.com/haulmate/tracking-system/internal/api"
	"github.com/haulmate/tracking-system/internal/core/service"
	"github.com/haulmate/tracking-system/internal/infrastructure/announce"
	"github.com/haulmate/tracking-system/internal/infrastructure/config"
	mongodb "github.com/haulmate/tracking-system/internal/infrastructure/db/mongo"
	redisdb "github.com/haulmate/tracking-system/internal/infrastructure/db/redis"
	"github.com/haulmate/tracking-system/internal/infrastructure/dispatch"
	"github.com/haulmate/tracking-system/internal/infrastructure/ingest"
	"github.com/haulmate/tracking-system/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Infrastructure ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer rdb.Close()

	positionRepo := mongodb.NewPositionRepository(db)
	markerRepo := mongodb.NewMarkerRepository(db)
	eventRepo := mongodb.NewEventRepository(db)
	if err := positionRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("position index creation failed")
	}
	if err := markerRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("marker index creation failed")
	}

	heardRepo := redisdb.NewHeardRepository(rdb)
	readStateRepo := redisdb.NewReadStateRepository(rdb)
	pushChannel := redisdb.NewPushChannel(rdb, log)
	dispatcher := dispatch.NewPublisher(rdb, log)
	announcer := announce.NewAnnouncer(rdb, log)

	// --- Core services ---
	registry := ingest.NewRegistry()

	manager := service.NewManager(service.ManagerDeps{
		Sources:    registry.SourceFor,
		Submitter:  registry,
		Store:      positionRepo,
		Dispatcher: dispatcher,
		Catalog:    markerRepo,
		Heard:      heardRepo,
		Presenter:  announcer,
	}, service.ManagerConfig{
		Acquisition: service.AcquisitionConfig{
			PollInterval: cfg.Tracking.AcquirePollInterval,
		},
		Reporting: service.ReportingConfig{
			Interval:         cfg.Tracking.ReportInterval,
			InitialDelay:     cfg.Tracking.ReportInitialDelay,
			VerifyEvery:      cfg.Tracking.VerifyEvery,
			VerifyEpsilonDeg: cfg.Tracking.VerifyEpsilonDeg,
		},
		Proximity: service.ProximityConfig{
			DebounceMeters: cfg.Tracking.DebounceMeters,
		},
		ProximityEnabled: cfg.Tracking.ProximityEnabled,
	}, log)

	feed := service.NewFeed(pushChannel, eventRepo, readStateRepo, announcer, service.FeedConfig{
		Capacity:     cfg.Tracking.FeedCapacity,
		PollInterval: cfg.Tracking.NotificationPollInterval,
	}, log)
	if err := feed.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("notification feed start failed")
	}

	// --- HTTP ---
	e := api.NewRouter(api.Deps{
		Mongo:    db,
		Redis:    rdb,
		Tracking: manager,
		Replay:   manager,
		Feed:     feed,
		Store:    positionRepo,
		Log:      log,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting http server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
}
