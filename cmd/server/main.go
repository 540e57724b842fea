package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"civica/internal/audit"
	bushandler "civica/internal/business/handler"
	busmetrics "civica/internal/business/metrics"
	bussvc "civica/internal/business/service"
	busstore "civica/internal/business/store"
	citizenhandler "civica/internal/citizen/handler"
	"civica/internal/citizen/models"
	citizensvc "civica/internal/citizen/service"
	citizenstore "civica/internal/citizen/store"
	emphandler "civica/internal/employment/handler"
	empmetrics "civica/internal/employment/metrics"
	empsvc "civica/internal/employment/service"
	empstore "civica/internal/employment/store"
	enfhandler "civica/internal/enforcement/handler"
	enfmetrics "civica/internal/enforcement/metrics"
	enfsvc "civica/internal/enforcement/service"
	enfstore "civica/internal/enforcement/store"
	"civica/internal/identity"
	ledgerhandler "civica/internal/ledger/handler"
	ledgermetrics "civica/internal/ledger/metrics"
	ledgersvc "civica/internal/ledger/service"
	ledgerstore "civica/internal/ledger/store"
	"civica/internal/platform/config"
	"civica/internal/platform/httpserver"
	"civica/internal/platform/logger"
	"civica/internal/platform/postgres"
	platformredis "civica/internal/platform/redis"
	prophandler "civica/internal/property/handler"
	propmetrics "civica/internal/property/metrics"
	propsvc "civica/internal/property/service"
	propstore "civica/internal/property/store"
	"civica/internal/stats"
	httptransport "civica/internal/transport/http"
	"civica/pkg/platform/keylock"
)

// main wires storage, services, and transport. Business rules live in the
// internal service packages; this file only decides which implementations run.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(slog.LevelInfo)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage: PostgreSQL when configured, in-memory otherwise.
	var (
		citizens    citizensvc.CitizenStore
		accounts    ledgersvc.AccountStore
		cooldowns   empsvc.CooldownStore
		businesses  bussvc.BusinessStore
		properties  propsvc.PropertyStore
		enforcement enfsvc.EnforcementStore

		citizenCounter  stats.Counter
		businessCounter stats.Counter
		propertyCounter stats.Counter
	)
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			log.Error("connect postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := postgres.Migrate(db); err != nil {
			log.Error("migrate postgres", "error", err)
			os.Exit(1)
		}
		citizenPG := citizenstore.NewPostgres(db)
		businessPG := busstore.NewPostgres(db)
		propertyPG := propstore.NewPostgres(db)
		citizens = citizenPG
		accounts = ledgerstore.NewPostgres(db)
		cooldowns = empstore.NewPostgres(db)
		businesses = businessPG
		properties = propertyPG
		enforcement = enfstore.NewPostgres(db)
		citizenCounter, businessCounter, propertyCounter = citizenPG, businessPG, propertyPG
		log.Info("using postgres stores")
	} else {
		citizenMem := citizenstore.NewInMemory()
		businessMem := busstore.NewInMemory()
		propertyMem := propstore.NewInMemory()
		citizens = citizenMem
		accounts = ledgerstore.NewInMemory()
		cooldowns = empstore.NewInMemory()
		businesses = businessMem
		properties = propertyMem
		enforcement = enfstore.NewInMemory()
		citizenCounter, businessCounter, propertyCounter = citizenMem, businessMem, propertyMem
		log.Info("using in-memory stores")
	}

	if cfg.RedisURL != "" {
		client, err := platformredis.New(cfg.RedisURL)
		if err != nil {
			log.Error("connect redis", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		cooldowns = empstore.NewRedis(client.Client)
		log.Info("using redis cooldown store")
	}

	// Audit events flow through a channel so emitting services never block on
	// the sink. The worker drains into Kafka when brokers are configured.
	var sink audit.Store = audit.NewInMemoryStore()
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Error("connect kafka", "error", err)
			os.Exit(1)
		}
		defer kafka.Close()
		sink = kafka
		log.Info("audit events publishing to kafka", "topic", cfg.AuditTopic)
	}
	events := make(chan audit.Event, 256)
	auditor := audit.NewPublisher(audit.NewQueue(events))
	worker := audit.NewWorker(sink, events)
	go func() {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit worker stopped", "error", err)
		}
	}()

	locks := keylock.New(cfg.LockWait)
	bounds := models.AgeBounds{Min: cfg.MinAge, Max: cfg.MaxAge}

	ledgerService := ledgersvc.New(accounts, locks,
		ledgersvc.WithLogger(log),
		ledgersvc.WithAuditPublisher(auditor),
		ledgersvc.WithMetrics(ledgermetrics.New()),
	)
	citizenService := citizensvc.New(citizens, ledgerService, locks, bounds,
		citizensvc.WithLogger(log),
		citizensvc.WithAuditPublisher(auditor),
	)
	employmentService := empsvc.New(cooldowns, citizenService, ledgerService, locks,
		empsvc.WithLogger(log),
		empsvc.WithAuditPublisher(auditor),
		empsvc.WithMetrics(empmetrics.New()),
	)
	businessService := bussvc.New(businesses, citizenService, ledgerService, locks,
		bussvc.WithLogger(log),
		bussvc.WithAuditPublisher(auditor),
		bussvc.WithMetrics(busmetrics.New()),
	)
	propertyService := propsvc.New(properties, citizenService, ledgerService, locks,
		propsvc.WithLogger(log),
		propsvc.WithAuditPublisher(auditor),
		propsvc.WithMetrics(propmetrics.New()),
	)
	enforcementService := enfsvc.New(enforcement, citizenService, ledgerService, locks,
		enfsvc.WithLogger(log),
		enfsvc.WithAuditPublisher(auditor),
		enfsvc.WithMetrics(enfmetrics.New()),
	)
	// The registries need the citizen directory, so releasers attach after
	// both sides exist.
	citizensvc.WithReleasers(businessService, propertyService)(citizenService)

	statsService := stats.New(citizenCounter, businessCounter, propertyCounter, enforcementService)

	tokens := identity.NewService(cfg.JWTSigningKey, "civica")

	router := httptransport.NewRouter(httptransport.Options{
		Validator: tokens,
		Logger:    log,
		Handlers: []httptransport.Registrar{
			citizenhandler.New(citizenService, log),
			ledgerhandler.New(ledgerService, log),
			emphandler.New(employmentService, log),
			bushandler.New(businessService, log),
			prophandler.New(propertyService, log),
			enfhandler.New(enforcementService, log),
			stats.NewHandler(statsService),
		},
	})

	if cfg.RentalSweepInterval > 0 {
		go propertyService.RunSweep(ctx, cfg.RentalSweepInterval)
	}

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("civica engine listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
