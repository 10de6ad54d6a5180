package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pavitra93/gym-billing-system/shared/config"
	"github.com/pavitra93/gym-billing-system/shared/store"
	"github.com/pavitra93/gym-billing-system/shared/utils"
)

const consumerGroup = "audit-consumer"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	if cfg.KafkaBroker == "" {
		log.Fatal("KAFKA_BROKER is required")
	}

	db, err := config.ConnectDatabase(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := config.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	reader := NewReader(cfg.KafkaBroker, cfg.AuditTopic, consumerGroup)
	defer reader.Close()
	consumer := NewAuditConsumer(reader, store.NewPostgres(db), logrus.WithField("service", consumerGroup))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	router := gin.Default()
	router.GET("/health", func(c *gin.Context) {
		utils.OKResponse(c, "Audit consumer is healthy", nil)
	})
	router.GET("/stats", func(c *gin.Context) {
		utils.OKResponse(c, "Audit consumer stats", consumer.Stats())
	})

	port := getPort()
	go func() {
		logrus.Infof("Audit consumer starting on port %s (topic %s)", port, cfg.AuditTopic)
		if err := router.Run(":" + port); err != nil {
			log.Fatal("Failed to start audit consumer:", err)
		}
	}()

	if err := consumer.Run(ctx); err != nil {
		logrus.WithError(err).Error("Audit consumer stopped")
	}
	logrus.Infof("Audit consumer stopped: %+v", consumer.Stats())
}

func getPort() string {
	if port := os.Getenv("AUDIT_CONSUMER_PORT"); port != "" {
		return port
	}
	return "8085"
}
