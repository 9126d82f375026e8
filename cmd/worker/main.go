package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"

	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/config"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/email"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/repository/postgres"
	eventsvc "github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/service/event"
	notificationsvc "github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/service/notification"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/worker"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/pkg/logger"
	redisbroker "github.com/Yi-Jacob/mentalspace-ehr-sub009/pkg/messaging/redis"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/pkg/metrics"
)

// WorkerConfig carries worker-only tuning knobs, read from the
// environment so deployments can adjust them without touching the shared
// config file.
type WorkerConfig struct {
	HealthPort      int           `envconfig:"WORKER_HEALTH_PORT" default:"8081"`
	ScanInterval    time.Duration `envconfig:"WORKER_SCAN_INTERVAL"`
	CleanupInterval time.Duration `envconfig:"WORKER_CLEANUP_INTERVAL" default:"24h"`
	RedisRetries    int           `envconfig:"WORKER_REDIS_RETRIES" default:"3"`
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	var wcfg WorkerConfig
	if err := envconfig.Process("", &wcfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to read worker env: %v\n", err)
		os.Exit(1)
	}
	if wcfg.ScanInterval <= 0 {
		wcfg.ScanInterval = cfg.Compliance.ScanInterval
	}

	log := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	zl := zerolog.New(os.Stdout).With().Timestamp().Logger()
	broker, err := redisbroker.NewRedisBroker(redisbroker.Config{
		URL:        cfg.Redis.URL,
		MaxRetries: wcfg.RedisRetries,
	}, &zl)
	if err != nil {
		log.Fatal(err, "failed to create Redis broker")
	}
	defer broker.Close()

	m := metrics.NewMetrics("mentalspace", "worker")

	staffRepo := postgres.NewStaffRepository(db)
	supervisionRepo := postgres.NewSupervisionRepository(db)
	deadlineRepo := postgres.NewDeadlineRepository(db)
	auditRepo := postgres.NewAuditRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	eventService := eventsvc.NewService(outboxRepo, log)
	emailService := email.NewService(cfg.SMTP)
	notifier := notificationsvc.NewService(notificationRepo, emailService, log)

	dispatcher := worker.NewReminderDispatcher(
		deadlineRepo,
		staffRepo,
		supervisionRepo,
		notifier,
		eventService,
		log,
		m,
		wcfg.ScanInterval,
	)
	processor := worker.NewOutboxProcessor(outboxRepo, broker, log, m)
	cleanup := worker.NewAuditCleanupWorker(auditRepo, log, cfg.Compliance.AuditRetentionDays, wcfg.CleanupInterval)

	setupHealthCheck(wcfg.HealthPort, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("shutting down workers")
		cancel()
	}()

	go processor.Start(ctx)
	go cleanup.Start(ctx)
	dispatcher.Start(ctx)
}

func setupHealthCheck(port int, log *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		if err := http.ListenAndServe(fmt.Sprintf(":%d", port), mux); err != nil {
			log.Fatal(err, "health check server failed")
		}
	}()
}
