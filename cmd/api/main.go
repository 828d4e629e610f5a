package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"todo-api/internal/config"
	"todo-api/internal/db"
	"todo-api/internal/email"
	apihttp "todo-api/internal/http"
	"todo-api/internal/jobs"
	"todo-api/internal/repository"
	"todo-api/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	userRepo := repository.NewPgUserRepository(pool)
	todoRepo := repository.NewPgTodoRepository(pool)

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	var otpLimiter service.OTPRateLimiter
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			otpLimiter = service.NewRedisOTPRateLimiter(redisClient, 10*time.Minute, 3)
		}
		cancel()
	}

	tokenSvc := service.NewTokenService(
		cfg.JWTSecret,
		cfg.JWTIssuer,
		cfg.JWTAudience,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
	)
	authSvc := service.NewAuthService(
		logger,
		userRepo,
		tokenSvc,
		emailSender,
		otpLimiter,
		time.Duration(cfg.RefreshTTLDays)*24*time.Hour,
	)
	todoSvc := service.NewTodoService(logger, todoRepo)
	userSvc := service.NewUserService(userRepo, todoRepo)

	authHandler := apihttp.NewAuthHandler(logger, authSvc)
	todoHandler := apihttp.NewTodoHandler(logger, todoSvc)
	userHandler := apihttp.NewUserHandler(logger, userSvc)
	guard := apihttp.AuthRequired(tokenSvc, userRepo)
	router := apihttp.NewRouter(logger, authHandler, todoHandler, userHandler, guard)

	cleanup := jobs.NewCleanupJob(logger, todoSvc, 24*time.Hour)
	go cleanup.Run(ctx)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
