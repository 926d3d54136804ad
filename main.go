package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"assetdesk/config"
	"assetdesk/cron"
	"assetdesk/database"
	chatRepo "assetdesk/database/repository/chat"
	employeeRepo "assetdesk/database/repository/employee"
	"assetdesk/handlers"
	"assetdesk/middleware"
	"assetdesk/routes"
	"assetdesk/services/auth"
	"assetdesk/services/chat"
	"assetdesk/services/employee"
	"assetdesk/services/mail"
	"assetdesk/services/ratelimit"
	"assetdesk/services/session"
	"assetdesk/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}
	utils.InitializeLogger(cfg.Env, cfg.LogLevel)
	logger := utils.GetLogger()
	defer logger.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// Record store.
	mongoClient, err := database.Connect(rootCtx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("main: failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err := database.Disconnect(mongoClient); err != nil {
			logger.Warn("main: MongoDB disconnect failed", zap.Error(err))
		}
	}()
	db := mongoClient.Database(cfg.DatabaseName)

	// Redis logical databases.
	sessionRedis, err := utils.NewRedisClient(cfg, cfg.RedisAuthDB)
	if err != nil {
		logger.Fatal("main: session cache unavailable", zap.Error(err))
	}
	defer sessionRedis.Close()
	otpRedis, err := utils.NewRedisClient(cfg, cfg.RedisOTPDB)
	if err != nil {
		logger.Fatal("main: OTP cache unavailable", zap.Error(err))
	}
	defer otpRedis.Close()
	cacheRedis, err := utils.NewRedisClient(cfg, cfg.RedisCacheDB)
	if err != nil {
		logger.Fatal("main: result cache unavailable", zap.Error(err))
	}
	defer cacheRedis.Close()

	// Repositories.
	employees := employeeRepo.NewMongoEmployeeRepo(db)
	messages := chatRepo.NewMongoChatRepo(db)

	// Outbound OTP mail.
	smtpMailer := mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom, auth.OTPTTL)
	var mailer mail.Mailer
	switch cfg.MailMode {
	case config.MailModeSMTP:
		mailer = smtpMailer
	case config.MailModeQueue:
		redisOpt, err := cron.QueueRedisOpt(cfg)
		if err != nil {
			logger.Fatal("main: invalid queue settings", zap.Error(err))
		}
		queueClient := asynq.NewClient(redisOpt)
		defer queueClient.Close()
		worker := cron.InitMailWorker(redisOpt, smtpMailer, logger)
		defer worker.Shutdown()
		mailer = mail.NewQueueMailer(queueClient, auth.OTPTTL)
	default:
		mailer = mail.NewLogMailer(logger)
	}
	logger.Info("main: OTP mail mode", zap.String("mode", cfg.MailMode))

	// Core services.
	authority, err := session.NewAuthority(sessionRedis, session.WithLogger(logger))
	if err != nil {
		logger.Fatal("main: failed to build session authority", zap.Error(err))
	}
	authService := auth.NewAuthService(
		employees,
		auth.NewOTPStore(otpRedis),
		authority,
		ratelimit.NewLimiter(otpRedis),
		mailer,
		logger,
	)

	var broadcaster chat.Broadcaster
	if cfg.ChatBroadcaster == config.BroadcasterMemory {
		broadcaster = chat.NewMemoryBroadcaster()
	} else {
		broadcaster = chat.NewRedisBroadcaster(cacheRedis)
	}
	chatService := chat.NewChatService(messages, employees, broadcaster, logger)
	employeeService := employee.NewEmployeeService(employees, employee.NewListCache(cacheRedis), logger)

	monitor := utils.NewHealthMonitor(map[string]utils.Pinger{
		"mongo": utils.PingerFunc(func(ctx context.Context) error {
			return mongoClient.Ping(ctx, readpref.Primary())
		}),
		"redis": utils.PingerFunc(func(ctx context.Context) error {
			return sessionRedis.Ping(ctx).Err()
		}),
	}, 30*time.Second)
	monitor.Start(rootCtx)

	handlerBundle := &handlers.HandlerBundle{
		Sessions:        authority,
		APIToken:        cfg.APIToken,
		AuthHandler:     handlers.NewAuthHandler(authService, cfg.CookieSecure),
		ChatHandler:     handlers.NewChatHandler(chatService, authority),
		EmployeeHandler: handlers.NewEmployeeHandler(employeeService),
		HealthHandler:   handlers.NewHealthHandler(monitor),
	}

	// Create the Gin router.
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		logger.Fatal("Invalid TRUSTED_PROXIES", zap.Error(err))
	}
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin))
	routes.RegisterRoutes(router, handlerBundle)

	srv := &http.Server{
		Addr:    "0.0.0.0:" + cfg.AppPort,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
