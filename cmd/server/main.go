// ==============================================================================
// API SERVER - cmd/server/main.go
// ==============================================================================
package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"brokerkyc/internal/compliance"
	"brokerkyc/internal/extraction"
	"brokerkyc/internal/handler"
	"brokerkyc/internal/identity"
	"brokerkyc/internal/idgen"
	"brokerkyc/internal/notification"
	"brokerkyc/internal/onboarding"
	"brokerkyc/internal/repository/postgres"
	"brokerkyc/internal/surveillance"
	"brokerkyc/internal/vision"
	"brokerkyc/pkg/cache"
	"brokerkyc/pkg/config"
	"brokerkyc/pkg/logger"
	"brokerkyc/pkg/mailer"
	"brokerkyc/pkg/validator"
)

const clientSequenceKey = "brokerkyc:client_id_seq"

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New("brokerkyc-api")

	// Connect to database
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatal("Failed to connect to database", map[string]interface{}{"error": err.Error()})
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	// Connect to Redis
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatal("Failed to connect to Redis", map[string]interface{}{"error": err.Error()})
	}
	defer redisCache.Close()

	// Initialize repositories
	store := postgres.NewStore(db)
	balanceRepo := postgres.NewBalanceRepository(db)
	tradeRepo := postgres.NewTradeRepository(db)
	marginRepo := postgres.NewMarginRepository(db)

	// The id sequence is allocated through Redis INCR; raise its floor past
	// any ids already in the store so restarts never reissue one.
	sequence := idgen.NewRedisSequence(redisCache, clientSequenceKey)
	if err := seedSequence(db, sequence); err != nil {
		log.Fatal("Failed to seed client id sequence", map[string]interface{}{"error": err.Error()})
	}

	// Initialize services
	visionClient := vision.NewClient(cfg.Vision, log)
	verifier := identity.NewVerifier(visionClient, visionClient, extraction.NewRegexParser(), log)
	onboardingService := onboarding.NewService(verifier, visionClient, extraction.NewRegexParser(), sequence, store, cfg.Compliance.KYCValidityDays, log)

	complianceService, err := compliance.NewService(store, balanceRepo, tradeRepo, marginRepo, cfg.Compliance, log)
	if err != nil {
		log.Fatal("Invalid compliance configuration", map[string]interface{}{"error": err.Error()})
	}

	var sender notification.Sender
	if cfg.Email.SMTPUsername == "" {
		log.Warn("SMTP not configured, notices go to the log", nil)
		sender = notification.NewLogSender(log)
	} else {
		sender = notification.NewSMTPSender(mailer.Config{
			Host:     cfg.Email.SMTPHost,
			Port:     cfg.Email.SMTPPort,
			Username: cfg.Email.SMTPUsername,
			Password: cfg.Email.SMTPPassword,
			From:     cfg.Email.SMTPFrom,
			UseTLS:   cfg.Email.SMTPUseTLS,
		})
	}
	notifier := notification.NewService(sender, cfg.Email.ComplianceInbox, log)

	engine := surveillance.NewEngine(log, surveillance.DefaultRules()...)

	// Initialize handlers
	val := validator.New()
	router := handler.NewRouter(
		handler.NewOnboardingHandler(onboardingService, val, log),
		handler.NewComplianceHandler(complianceService, notifier, log),
		handler.NewSurveillanceHandler(engine, tradeRepo, log),
		handler.NewHealthHandler(db, redisCache.Client(), log),
		log,
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("API server started", map[string]interface{}{
			"address": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down API server...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", map[string]interface{}{
			"error": err.Error(),
		})
	}

	log.Info("API server stopped gracefully", nil)
}

func seedSequence(db *sqlx.DB, sequence *idgen.RedisSequence) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var maxID sql.NullInt64
	err := db.GetContext(ctx, &maxID, `SELECT MAX(CAST(SUBSTRING(client_id FROM 3) AS BIGINT)) FROM clients`)
	if err != nil {
		return err
	}
	if !maxID.Valid {
		return nil
	}
	return sequence.Seed(ctx, maxID.Int64-1000)
}
