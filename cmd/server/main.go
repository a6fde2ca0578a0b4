package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/jengzang/places-backend-go/internal/analysis"
	"github.com/jengzang/places-backend-go/internal/api"
	"github.com/jengzang/places-backend-go/internal/config"
	"github.com/jengzang/places-backend-go/internal/database"
	"github.com/jengzang/places-backend-go/internal/enrichment"
	"github.com/jengzang/places-backend-go/internal/handler"
	"github.com/jengzang/places-backend-go/internal/lock"
	"github.com/jengzang/places-backend-go/internal/logger"
	"github.com/jengzang/places-backend-go/internal/middleware"
	"github.com/jengzang/places-backend-go/internal/repository"
	"github.com/jengzang/places-backend-go/internal/service"

	// Timezone names are validated on ingest
	_ "time/tzdata"
)

func main() {
	configFile := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load config")
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create logger")
	}

	if err := database.Init(database.Config{
		Path:         cfg.Database.Path,
		BusyTimeout:  cfg.Database.BusyTimeout,
		MaxOpenConns: cfg.Database.MaxOpenConns,
	}); err != nil {
		log.WithError(err).Fatal("Failed to initialize database")
	}
	defer database.Close()
	db := database.GetDB()

	locker, err := newLocker(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize lock backend")
	}

	var enricher enrichment.Enricher
	if cfg.Enrichment.Enabled {
		enricher = enrichment.NewNominatimClient(cfg.Enrichment.BaseURL, cfg.Enrichment.UserAgent, cfg.Enrichment.Timeout, cfg.Enrichment.MinInterval)
		log.WithField("provider", enrichment.ProviderNominatim).Info("Place enrichment enabled")
	}

	params := service.DetectionParams{
		Stay: analysis.StayParams{
			Radius: cfg.Detection.ClusterRadius,
			MaxGap: cfg.Detection.MaxGap,
		},
		MinStay:     cfg.Detection.MinStay,
		MatchRadius: cfg.Detection.MatchRadius,
		PlaceRadius: cfg.Detection.PlaceRadius,
		BatchSize:   cfg.Detection.BatchSize,
		RunTimeout:  cfg.Detection.RunTimeout,
	}

	trackRepo := repository.NewTrackRepository(db)
	placeRepo := repository.NewPlaceRepository(db)
	visitRepo := repository.NewVisitRepository(db)

	detection := service.NewPlaceDetectionService(db, locker, enricher, params, log)
	tracks := service.NewTrackService(db, detection, log)
	places := service.NewPlaceService(placeRepo, cfg.Detection.MatchRadius, log)
	visits := service.NewVisitService(visitRepo)
	travelParams := analysis.DefaultTravelParams()
	travelParams.MaxGap = cfg.Stats.MaxGap
	stats := service.NewStatsService(trackRepo, travelParams)

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Requests > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
		defer limiter.Stop()
	}

	router := api.SetupRouter(cfg, api.Handlers{
		Track:      handler.NewTrackHandler(tracks),
		Processing: handler.NewProcessingHandler(detection),
		Place:      handler.NewPlaceHandler(places),
		Visit:      handler.NewVisitHandler(visits),
		Stats:      handler.NewStatsHandler(stats),
	}, limiter, log)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	// Triggered runs and enrichment finish before the database closes
	detection.Wait()
	log.Info("Server exited")
}

func newLocker(cfg *config.Config, log logrus.FieldLogger) (lock.Locker, error) {
	if cfg.Lock.Backend != "redis" {
		return lock.NewMemoryLocker(cfg.Lock.Wait), nil
	}

	client, err := lock.NewRedisClient(lock.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		return nil, err
	}

	log.WithField("host", cfg.Redis.Host).Info("Using redis lock backend")
	return lock.NewRedisLocker(client, cfg.Lock.TTL, cfg.Lock.Wait, log), nil
}
