package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/authz"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/config"
	accesshandler "github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/handler/access"
	audithandler "github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/handler/audit"
	authhandler "github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/handler/auth"
	compliancehandler "github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/handler/compliance"
	healthhandler "github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/handler/health"
	prometheushandler "github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/handler/prometheus"
	staffhandler "github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/handler/staff"
	supervisionhandler "github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/handler/supervision"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/middleware"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/repository/postgres"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/router"
	accesssvc "github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/service/access"
	auditsvc "github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/service/audit"
	authsvc "github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/service/auth"
	compliancesvc "github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/service/compliance"
	eventsvc "github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/service/event"
	staffsvc "github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/service/staff"
	supervisionsvc "github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/service/supervision"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/pkg/auth"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/pkg/logger"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/pkg/metrics"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	m := metrics.NewMetrics("mentalspace", "api")

	// Repositories
	staffRepo := postgres.NewStaffRepository(db)
	supervisionRepo := postgres.NewSupervisionRepository(db)
	deadlineRepo := postgres.NewDeadlineRepository(db)
	auditRepo := postgres.NewAuditRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	// Services
	auditService := auditsvc.NewService(auditRepo)
	eventService := eventsvc.NewService(outboxRepo, log)
	hasher := security.NewBcryptHasher(0)
	jwtService := auth.NewJWTService(auth.Config{
		Secret:        cfg.JWT.Secret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		Expiry:        time.Duration(cfg.JWT.ExpiryHours) * time.Hour,
		RefreshExpiry: time.Duration(cfg.JWT.RefreshExpiryHours) * time.Hour,
	})

	authService := authsvc.NewService(staffRepo, jwtService, hasher, auditService)
	accessService := accesssvc.NewService(staffRepo, supervisionRepo, auditService, eventService, m, log)
	staffService := staffsvc.NewService(staffRepo, hasher, auditService, eventService)
	supervisionService := supervisionsvc.NewService(supervisionRepo, &authz.SupervisionScopeResolver{}, auditService, eventService)
	complianceService := compliancesvc.NewService(deadlineRepo, auditService)

	// HTTP layer
	authMiddleware := middleware.NewAuthMiddleware(authService, accessService)

	r := router.NewRouter(
		authMiddleware,
		healthhandler.NewHandler(db),
		authhandler.NewHandler(authService),
		prometheushandler.New().Handler(),
		router.Config{
			RateLimit:  rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:  cfg.RateLimit.Burst,
			CORSConfig: middleware.DefaultCORSConfig(),
		},
		staffhandler.NewHandler(staffService, accessService),
		supervisionhandler.NewHandler(supervisionService, accessService),
		compliancehandler.NewHandler(complianceService, accessService),
		accesshandler.NewHandler(accessService),
		audithandler.NewHandler(auditService),
	)
	r.Setup()

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r.Engine(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		log.Info("starting API server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error(err, "forced shutdown")
	}
}
