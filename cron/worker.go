package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"assetdesk/config"
	"assetdesk/services/mail"
	"assetdesk/services/tasks"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// QueueRedisOpt points asynq at the queue database.
func QueueRedisOpt(cfg *config.Config) (asynq.RedisClientOpt, error) {
	opt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisQueueDB,
	}
	if cfg.RedisURL != "" {
		parsed, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return opt, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		opt.Addr = parsed.Addr
		opt.Username = parsed.Username
		opt.Password = parsed.Password
		opt.TLSConfig = parsed.TLSConfig
	}
	return opt, nil
}

// InitMailWorker runs the OTP mail worker in background. delegate does the actual delivery.
func InitMailWorker(redisOpt asynq.RedisConnOpt, delegate mail.Mailer, logger *zap.Logger) *asynq.Server {
	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 5,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeOTPMail, handleOTPMailTask(delegate, logger))

	// Start async worker with retry logic
	go func() {
		logger.Info("starting OTP mail worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Run(mux)
			if err == nil {
				return
			}
			logger.Warn("mail worker failed to start",
				zap.Int("attempt", attempts),
				zap.Int("maxAttempts", maxAttempts),
				zap.Error(err))
			if attempts == maxAttempts {
				logger.Error("mail worker gave up; queued OTP mails will not be delivered")
				return
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
	}()
	return srv
}

func handleOTPMailTask(delegate mail.Mailer, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p tasks.OTPMailPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("invalid OTP mail payload", zap.Error(err))
			return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
		}

		if err := delegate.SendOTP(ctx, p.Email, p.Code); err != nil {
			logger.Warn("OTP mail delivery failed", zap.String("email", p.Email), zap.Error(err))
			return err
		}
		logger.Debug("OTP mail delivered", zap.String("email", p.Email))
		return nil
	}
}
