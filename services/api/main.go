package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/pavitra93/gym-billing-system/shared/audit"
	"github.com/pavitra93/gym-billing-system/shared/config"
	"github.com/pavitra93/gym-billing-system/shared/middleware"
	"github.com/pavitra93/gym-billing-system/shared/notify"
	"github.com/pavitra93/gym-billing-system/shared/reports"
	"github.com/pavitra93/gym-billing-system/shared/store"
	"github.com/pavitra93/gym-billing-system/shared/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}
	decimal.MarshalJSONWithoutQuotes = true

	db, err := config.ConnectDatabase(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := config.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}
	repo := store.NewPostgres(db)

	ctx := context.Background()
	var (
		cache       *utils.RedisCache
		reportCache reports.Cache
	)
	redisClient, err := utils.NewRedisClient(ctx, cfg.RedisHost, cfg.RedisPort)
	if err != nil {
		logrus.WithError(err).Warn("Redis unavailable, running without report cache and token revocation")
	} else {
		defer redisClient.Close()
		cache = utils.NewRedisCache(redisClient, "gym-billing")
		reportCache = cache
	}

	var sink audit.Sink = audit.NewStoreSink(repo)
	if cfg.KafkaBroker != "" {
		kafkaSink := audit.NewKafkaSink(audit.NewKafkaWriter(cfg.KafkaBroker), cfg.AuditTopic)
		defer kafkaSink.Close()
		sink = kafkaSink
		logrus.Infof("Publishing activity log to Kafka topic %s", cfg.AuditTopic)
	}
	recorder := audit.NewRecorder(audit.Options{}, logrus.StandardLogger(), sink)
	defer recorder.Close()
	go func() {
		for failure := range recorder.Errors() {
			logrus.WithFields(logrus.Fields{
				"gym_id": failure.Entry.GymID,
				"action": failure.Entry.Action,
			}).WithError(failure.Err).Error("activity log entry lost")
		}
	}()

	channel, err := notify.NewChannel(cfg.Notify, logrus.StandardLogger())
	if err != nil {
		log.Fatal("Failed to configure notification channel:", err)
	}

	svc := newServices(repo, channel, recorder, serviceOptions{
		Now:            cfg.Clock(),
		CountryCode:    cfg.Notify.CountryCode,
		NotifyTimeout:  cfg.Notify.Timeout,
		Cache:          reportCache,
		ReportCacheTTL: cfg.ReportCacheTTL,
	})

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTSecret, cfg.JWTIssuer, svc.directory)
	if cache != nil {
		authMiddleware.WithRevocations(cache)
	}

	r := newRouter(svc, authMiddleware, cfg.AdminAPIKey)

	logrus.Infof("Billing API starting on port %s (timezone %s, channel %s)",
		cfg.APIPort, cfg.Location, cfg.Notify.Channel)
	server := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down billing API")
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Server shutdown failed")
	}
}

const shutdownGrace = 10 * time.Second
