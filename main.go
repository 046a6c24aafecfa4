package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ms-charity/internal/admission"
	admissiondb "ms-charity/internal/admission/db"
	"ms-charity/internal/analytics"
	"ms-charity/internal/api"
	"ms-charity/internal/auth"
	"ms-charity/internal/cache"
	"ms-charity/internal/catalog"
	catalogdb "ms-charity/internal/catalog/db"
	"ms-charity/internal/config"
	contactdb "ms-charity/internal/contact/db"
	"ms-charity/internal/database"
	"ms-charity/internal/kafka"
	ledgerdb "ms-charity/internal/ledger/db"
	"ms-charity/internal/logger"
	"ms-charity/internal/models"
	"ms-charity/internal/qrcode"
	"ms-charity/internal/query"
	"ms-charity/internal/sse"
)

// publisher is what both the catalog and admission services announce through.
type publisher interface {
	PublishRegistrationAdmitted(ctx context.Context, reg models.Registration, remainingSpots int) error
	PublishEventChanged(ctx context.Context, action string, eventID int64) error
}

func setupPublisher(cfg *config.Config, log *logger.Logger) (publisher, func()) {
	if !cfg.Kafka.Enabled {
		log.Warn("KAFKA", "KAFKA_ENABLED is false, domain messages will not be published")
		return kafka.Noop{}, func() {}
	}

	log.Info("KAFKA", fmt.Sprintf("Using Kafka brokers %v", cfg.Kafka.Brokers))
	requiredTopics := []string{cfg.Kafka.Topics.Registrations, cfg.Kafka.Topics.Events}
	if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, requiredTopics, log); err != nil {
		log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	} else {
		log.Info("KAFKA", "Required topics ensured successfully")
	}

	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics, log)
	log.Info("KAFKA", "Kafka producer initialized successfully")
	return producer, func() {
		if err := producer.Close(); err != nil {
			log.Error("KAFKA", fmt.Sprintf("Failed to close producer: %v", err))
		}
	}
}

func setupPolicy(ctx context.Context, cfg *config.Config, log *logger.Logger) auth.Policy {
	switch {
	case cfg.Auth.AdminJWTSecret != "":
		log.Info("AUTH", "Admin routes protected by HS256 tokens (ADMIN_JWT_SECRET)")
		return &auth.JWTPolicy{Secret: []byte(cfg.Auth.AdminJWTSecret)}
	case cfg.Auth.OIDCIssuer != "":
		policy, err := auth.NewOIDCPolicy(ctx, cfg.Auth.OIDCIssuer)
		if err != nil {
			log.Fatal("AUTH", fmt.Sprintf("Failed to discover OIDC issuer %s: %v", cfg.Auth.OIDCIssuer, err))
		}
		log.Info("AUTH", fmt.Sprintf("Admin routes protected by OIDC issuer %s", cfg.Auth.OIDCIssuer))
		return policy
	default:
		log.LogSecurity("OPEN_POLICY", "no ADMIN_JWT_SECRET or OIDC_ISSUER set, admin routes are open")
		return auth.OpenPolicy{}
	}
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println(".env file not found, using environment variables")
	}

	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Dir, cfg.Log.Color)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("APP", "Starting Charity Events API initialization")
	ctx := context.Background()

	bunDB, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	if cfg.Database.Driver == database.DriverSQLite {
		if err := database.CreateSchema(ctx, bunDB); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Failed to create schema: %v", err))
		}
	}

	pub, closePublisher := setupPublisher(cfg, log)
	defer closePublisher()

	catalogStore := &catalogdb.DB{Bun: bunDB}
	ledgerStore := &ledgerdb.DB{Bun: bunDB}

	catalogService := &catalog.Service{Store: catalogStore, Publisher: pub, Logger: log}
	admissionService := admission.NewService(&admissiondb.Store{Bun: bunDB}, pub, nil, log, cfg.Admission.MaxRetries)
	queryService := &query.Service{Catalog: catalogStore, Ledger: ledgerStore, Logger: log}

	if cfg.Redis.Addr != "" {
		redisClient, err := cache.Connect(cfg.Redis.Addr, log)
		if err != nil {
			log.Warn("CACHE", "Listing cache disabled, serving every read from the database")
		} else {
			defer redisClient.Close()
			listingCache := cache.New(redisClient, cfg.Redis.CacheTTL, log)
			catalogService.Cache = listingCache
			admissionService.Cache = listingCache
			queryService.Cache = listingCache
		}
	} else {
		log.Info("CACHE", "REDIS_ADDR not set, listing cache disabled")
	}

	if cfg.Auth.UsingDefaultQRSecret() {
		log.LogSecurity("DEFAULT_QR_SECRET", "QR_SECRET is not set, confirmation codes are sealed with the public development key")
	}
	qr, err := qrcode.NewGenerator(cfg.Auth.QRSecret)
	if err != nil {
		log.Fatal("APP", fmt.Sprintf("Failed to build QR generator: %v", err))
	}

	handler := &api.Handler{
		Catalog:   catalogService,
		Admission: admissionService,
		Query:     queryService,
		Analytics: analytics.NewService(analytics.NewDB(bunDB)),
		Contacts:  &contactdb.DB{Bun: bunDB},
		QR:        qr,
		Capacity:  sse.NewCapacityEmitter(),
		Logger:    log,
	}

	log.Info("HTTP", "Setting up router and middleware")
	router := api.NewRouter(handler, setupPolicy(ctx, cfg, log), log)

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Charity Events API running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "✅ Charity Events API shutdown complete")
	}
}
