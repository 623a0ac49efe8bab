package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	limitermem "github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/wekesadev/pos_payments_backend/cmd/docs"
	"github.com/wekesadev/pos_payments_backend/internal/adapters/database/pgsql"
	kafkaevents "github.com/wekesadev/pos_payments_backend/internal/adapters/events/kafka"
	"github.com/wekesadev/pos_payments_backend/internal/adapters/gateways/daraja"
	"github.com/wekesadev/pos_payments_backend/internal/adapters/gateways/simulated"
	"github.com/wekesadev/pos_payments_backend/internal/adapters/memory"
	portsrepo "github.com/wekesadev/pos_payments_backend/internal/core/ports/repositories"
	portssvc "github.com/wekesadev/pos_payments_backend/internal/core/ports/services"
	"github.com/wekesadev/pos_payments_backend/internal/core/services"
	"github.com/wekesadev/pos_payments_backend/internal/handlers"
	"github.com/wekesadev/pos_payments_backend/internal/middleware"
	"github.com/wekesadev/pos_payments_backend/pkg/config"
	"github.com/wekesadev/pos_payments_backend/pkg/database"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title POS Payments Backend API
// @version 1.0
// @description Transaction ledger and payment processing for point-of-sale terminals.

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the terminal JWT.

// @security BearerAuth
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ledgerRepo, cleanup := setupLedger(cfg, logger)
	defer cleanup()

	// Seed the id generator above anything already committed, so ids stay
	// unique across restarts.
	maxID, err := ledgerRepo.MaxPaymentID(context.Background())
	if err != nil {
		logger.Error("Failed to read max payment id from ledger", slog.String("error", err.Error()))
		os.Exit(1)
	}
	idGen := services.NewIDGenerator(maxID + 1)

	cardGateway, mobileGateway := setupGateways(cfg, logger)
	publisher := setupPublisher(cfg, logger)

	paymentService := services.NewPaymentService(ledgerRepo, idGen, cardGateway, mobileGateway, publisher, cfg.GatewayAuthTimeout)
	ledgerService := services.NewLedgerService(ledgerRepo)
	authService := services.NewAuthService(cfg.TerminalSecrets, cfg.JWTSecret, cfg.JWTExpiryDuration, cfg.JWTIssuer)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery, CORS)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery(), cors.Default())

	err = r.SetTrustedProxies(nil)
	if err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	r.GET("/", handlers.GetHome)

	// Public routes
	authHandler := handlers.NewAuthHandler(authService)
	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/login", authHandler.Login)
	}

	setupAPIV1Routes(r, cfg, paymentService, ledgerService, logger)
	setupSwaggerRoutes(r, cfg)

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// setupLedger picks the Postgres ledger when a database is configured and the
// in-memory one otherwise (dev/demo). It returns a cleanup func for deferred
// teardown.
func setupLedger(cfg *config.Config, logger *slog.Logger) (portsrepo.LedgerRepository, func()) {
	if cfg.DatabaseURL == "" {
		logger.Warn("No PGSQL_URL configured; the transaction ledger is in-memory and will not survive restarts")
		return memory.NewLedgerRepository(), func() {}
	}

	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Database connection pool established.")

	runMigrations(cfg, logger)

	return pgsql.NewPgxLedgerRepository(dbPool), dbPool.Close
}

// runMigrations applies all pending "up" migrations before the server starts.
func runMigrations(cfg *config.Config, logger *slog.Logger) {
	// Open a temporary standard sql.DB connection for migrations, using the
	// pgx stdlib driver to stay compatible with the main pool.
	migrationDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to open database connection for migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		logger.Error("Could not create postgres driver instance for migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		logger.Error("Could not create migrate instance", slog.String("error", err.Error()))
		os.Exit(1)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		logger.Error("Migration source error", slog.String("error", sourceErr.Error()))
		os.Exit(1)
	}
	if dbErr != nil {
		logger.Error("Migration database error", slog.String("error", dbErr.Error()))
		os.Exit(1)
	}

	if err == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
}

// setupGateways wires the mobile-money gateway client when configured and
// falls back to the simulated authorizers otherwise. There is no real card
// network integration; cards always go through the simulated gateway.
func setupGateways(cfg *config.Config, logger *slog.Logger) (portssvc.CardGateway, portssvc.MobileMoneyGateway) {
	cardGateway := simulated.NewCardGateway()

	if cfg.MobileGatewayURL == "" {
		logger.Warn("No MOBILE_GATEWAY_URL configured; mobile payments use the simulated gateway")
		return cardGateway, simulated.NewMobileMoneyGateway()
	}
	return cardGateway, daraja.NewGateway(cfg.MobileGatewayURL, cfg.MobileGatewayKey, cfg.GatewayAuthTimeout)
}

// setupPublisher wires the Kafka publisher when brokers are configured.
func setupPublisher(cfg *config.Config, logger *slog.Logger) portssvc.EventPublisher {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info("No KAFKA_BROKERS configured; payment events will not be published")
		return kafkaevents.NoopPublisher{}
	}
	return kafkaevents.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
}

func setupAPIV1Routes(r *gin.Engine, cfg *config.Config, paymentService portssvc.PaymentSvcFacade, ledgerService portssvc.LedgerSvcFacade, logger *slog.Logger) {
	// Apply AuthMiddleware to the entire v1 group
	v1 := r.Group("/api/v1", middleware.AuthMiddleware(cfg.JWTSecret))

	rate, err := limiter.NewRateFromFormatted(cfg.PaymentRateLimit)
	if err != nil {
		logger.Error("Invalid PAYMENT_RATE_LIMIT", slog.String("error", err.Error()))
		os.Exit(1)
	}
	paymentLimiter := limiter.New(limitermem.NewStore(), rate)

	paymentHandler := handlers.NewPaymentHandler(paymentService)
	payments := v1.Group("/payments", middleware.RateLimit(paymentLimiter))
	{
		payments.POST("/cash", paymentHandler.ProcessCash)
		payments.POST("/card", paymentHandler.ProcessCard)
		payments.POST("/mobile", paymentHandler.ProcessMobile)
	}

	ledgerHandler := handlers.NewLedgerHandler(ledgerService)
	transactions := v1.Group("/transactions")
	{
		transactions.GET("", ledgerHandler.ListPayments)
		transactions.GET("/:paymentID", ledgerHandler.GetPayment)
	}
}

func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	// Swagger setup
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
