package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/pavitra93/gym-billing-system/shared/audit"
	"github.com/pavitra93/gym-billing-system/shared/config"
	"github.com/pavitra93/gym-billing-system/shared/notify"
	"github.com/pavitra93/gym-billing-system/shared/reminders"
	"github.com/pavitra93/gym-billing-system/shared/store"
	"github.com/pavitra93/gym-billing-system/shared/tenant"
)

// runTimeout bounds one reminder run across all gyms
const runTimeout = 30 * time.Minute

func main() {
	once := flag.Bool("once", false, "run the reminder job once and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	db, err := config.ConnectDatabase(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	repo := store.NewPostgres(db)

	channel, err := notify.NewChannel(cfg.Notify, logrus.StandardLogger())
	if err != nil {
		log.Fatal("Failed to configure notification channel:", err)
	}

	var sink audit.Sink = audit.NewStoreSink(repo)
	if cfg.KafkaBroker != "" {
		kafkaSink := audit.NewKafkaSink(audit.NewKafkaWriter(cfg.KafkaBroker), cfg.AuditTopic)
		defer kafkaSink.Close()
		sink = kafkaSink
	}
	recorder := audit.NewRecorder(audit.Options{}, logrus.StandardLogger(), sink)
	defer recorder.Close()
	go func() {
		for failure := range recorder.Errors() {
			logrus.WithField("gym_id", failure.Entry.GymID).WithError(failure.Err).Error("activity log entry lost")
		}
	}()

	now := cfg.Clock()
	job := &reminderJob{
		directory: tenant.NewDirectory(repo, cfg.Notify.CountryCode),
		reminders: reminders.NewService(repo, now, logrus.StandardLogger()),
		dispatcher: notify.NewDispatcher(repo, channel, recorder, notify.Options{
			Timeout: cfg.Notify.Timeout,
			Now:     now,
			Log:     logrus.StandardLogger(),
		}),
		now: now,
		log: logrus.WithField("job", "expiry_reminders"),
	}

	if *once {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		job.Run(ctx)
		return
	}

	c := cron.New(
		cron.WithLocation(cfg.Location),
		cron.WithLogger(cron.PrintfLogger(logrus.StandardLogger())),
		cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(logrus.StandardLogger()))),
	)
	if _, err := c.AddFunc(cfg.SchedulerCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		job.Run(ctx)
	}); err != nil {
		log.Fatal("Invalid SCHEDULER_CRON:", err)
	}

	c.Start()
	logrus.Infof("Reminder scheduler started with schedule %q in %s", cfg.SchedulerCron, cfg.Location)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Stopping reminder scheduler")
	<-c.Stop().Done()
}
