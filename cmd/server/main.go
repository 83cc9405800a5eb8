package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/RentalBee/service-rental/internal/application"
	"github.com/RentalBee/service-rental/internal/cache"
	"github.com/RentalBee/service-rental/internal/common/auth"
	"github.com/RentalBee/service-rental/internal/common/database"
	"github.com/RentalBee/service-rental/internal/common/health"
	"github.com/RentalBee/service-rental/internal/common/kafka"
	"github.com/RentalBee/service-rental/internal/common/logger"
	"github.com/RentalBee/service-rental/internal/common/middleware"
	"github.com/RentalBee/service-rental/internal/config"
	bookingDomain "github.com/RentalBee/service-rental/internal/domain/booking"
	notificationDomain "github.com/RentalBee/service-rental/internal/domain/notification"
	rentalEvents "github.com/RentalBee/service-rental/internal/events"
	"github.com/RentalBee/service-rental/internal/handler"
	"github.com/RentalBee/service-rental/internal/notification"
	"github.com/RentalBee/service-rental/internal/repository"
	"github.com/RentalBee/service-rental/migrations"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, application.ServiceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-rental",
		zap.String("port", cfg.Port),
		zap.String("notification_store", cfg.NotificationStore),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database
	dbConfig := database.PostgresConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.SSLMode,
	}
	db, err := database.Connect(dbConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.IsDevelopment() {
		if err := repository.AutoMigrate(db); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(dbConfig.DatabaseURL(), migrations.FS, ".", log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	reportDB, err := database.SQLX(db)
	if err != nil {
		log.Fatal("failed to open reporting connection", zap.Error(err))
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWTConfig.Secret, cfg.JWTConfig.AccessTTL)

	// Initialize Kafka producer
	var publisher kafka.Publisher = kafka.NopPublisher{}
	if cfg.KafkaConfig.Enabled {
		kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
		defer func() { _ = kafkaProducer.Close() }()
		publisher = kafkaProducer
	} else {
		log.Warn("kafka disabled, domain events are not published")
	}

	// Initialize cache
	var catalogueCache *cache.Cache
	if cfg.RedisConfig.Enabled {
		redisClient := cache.NewClient(cfg.RedisConfig.Addr, cfg.RedisConfig.Password, cfg.RedisConfig.DB)
		catalogueCache = cache.New(redisClient, cfg.RedisConfig.TTL, log)
		defer func() { _ = catalogueCache.Close() }()
	}

	// Initialize repositories
	bookingRepo := repository.NewGormBookingRepository(db)
	carRepo := repository.NewGormCarRepository(db)
	locationRepo := repository.NewGormLocationRepository(db)
	userRepo := repository.NewGormUserRepository(db)
	otpRepo := repository.NewGormOTPRepository(db)
	reviewRepo := repository.NewGormReviewRepository(db)
	reportRepo := repository.NewSQLReportRepository(reportDB, cfg.Policy.OneWayFeeCents)

	var inbox notificationDomain.Repository
	var mongoClient *mongo.Client
	switch cfg.NotificationStore {
	case config.NotificationStoreMongo:
		mongoClient, err = repository.NewMongoClient(ctx, cfg.MongoConfig.URI)
		if err != nil {
			log.Fatal("failed to connect to mongo", zap.Error(err))
		}
		defer func() { _ = mongoClient.Disconnect(context.Background()) }()
		inbox, err = repository.NewMongoNotificationRepository(ctx, mongoClient.Database(cfg.MongoConfig.Database))
		if err != nil {
			log.Fatal("failed to prepare notification collection", zap.Error(err))
		}
	default:
		inbox = repository.NewGormNotificationRepository(db)
	}

	// Notifications are stored in the inbox and forwarded to the mail service.
	dispatcher := notification.NewDispatcher(
		notification.MultiSender{
			notification.NewStoreSender(inbox),
			notification.NewKafkaSender(publisher, application.ServiceName),
		},
		notification.DispatcherConfig{
			Workers:    cfg.Dispatcher.Workers,
			QueueSize:  cfg.Dispatcher.QueueSize,
			MaxRetries: cfg.Dispatcher.MaxRetries,
		},
		log.Named("notifications"),
	)

	// Initialize pricing strategy and policy
	pricingStrategy := bookingDomain.NewDailyRatePricing()
	pricingStrategy.OneWayFeeCents = cfg.Policy.OneWayFeeCents
	policy := bookingDomain.Policy{
		MinAdvance:       cfg.Policy.MinAdvance,
		FreeCancelWindow: cfg.Policy.FreeCancelWindow,
	}

	// Initialize application services
	bookingService := application.NewBookingService(
		bookingRepo,
		carRepo,
		locationRepo,
		userRepo,
		pricingStrategy,
		policy,
		dispatcher,
		publisher,
		log,
	)
	carService := application.NewCarService(carRepo, locationRepo, bookingRepo, reviewRepo, userRepo, catalogueCache, log)
	feedbackService := application.NewFeedbackService(reviewRepo, bookingRepo, carRepo, userRepo, catalogueCache, publisher, log)
	authService := application.NewAuthService(userRepo, otpRepo, jwtManager, publisher, log)
	userService := application.NewUserService(userRepo, dispatcher, log)
	notificationService := application.NewNotificationService(inbox, log)
	reportService := application.NewReportService(reportRepo, log)

	// Initialize and start handover event consumer in a goroutine
	if cfg.KafkaConfig.Enabled {
		groupID := cfg.KafkaConfig.GroupPrefix + "rental-service"
		handoverConsumer := rentalEvents.NewHandoverEventConsumer(
			cfg.KafkaConfig.Brokers,
			groupID,
			bookingService,
			log,
		)
		defer func() { _ = handoverConsumer.Close() }()

		go func() {
			log.Info("starting handover event consumer")
			if err := handoverConsumer.Start(ctx); err != nil && err != context.Canceled {
				log.Error("handover event consumer error", zap.Error(err))
			}
		}()
	}

	// Setup Gin router
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	handler.RegisterValidators()
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(db, application.ServiceName)
	if catalogueCache != nil {
		healthHandler.AddCheck("redis", catalogueCache.Ping)
	}
	if mongoClient != nil {
		healthHandler.AddCheck("mongo", func(ctx context.Context) error {
			return mongoClient.Ping(ctx, nil)
		})
	}
	healthHandler.RegisterRoutes(router)

	// Register routes
	api := &router.RouterGroup
	handler.NewAuthHandler(authService, cfg.SecureCookies).RegisterRoutes(api, jwtManager)
	handler.NewCarHandler(carService).RegisterRoutes(api)
	handler.NewBookingHandler(bookingService).RegisterRoutes(api, jwtManager)
	handler.NewFeedbackHandler(feedbackService).RegisterRoutes(api, jwtManager)
	handler.NewUserHandler(userService).RegisterRoutes(api, jwtManager)
	handler.NewNotificationHandler(notificationService).RegisterRoutes(api, jwtManager)
	handler.NewSupportHandler(bookingService, userService, reportService).RegisterRoutes(api, jwtManager)
	handler.NewAdminHandler(carService).RegisterRoutes(api, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-rental...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	// Deliver what is still queued before the stores close.
	dispatcher.Close()

	log.Info("service-rental stopped")
}
