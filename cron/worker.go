package cron

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"campusbook/config"
	"campusbook/services/api"
	"campusbook/services/notification"
	"campusbook/services/tasks"
	"campusbook/utils"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// QueueRedisOpt is the asynq connection for the notification queue.
func QueueRedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// InitNotificationWorker runs the async notification worker in background and
// returns the server so the caller can shut it down. Queued tasks carry no user
// token; the worker authenticates with serviceToken.
func InitNotificationWorker(sender notification.Sender, serviceToken string) *asynq.Server {
	logger := utils.GetLogger()

	srv := asynq.NewServer(
		QueueRedisOpt(),
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeBookingNotify, HandleBookingNotifyTask(sender, serviceToken))

	go monitorRedisConnection()

	go func() {
		logger.Info("notification worker starting")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Run(mux)
			if err == nil {
				return
			}
			logger.Warn("notification worker failed to start",
				zap.Int("attempt", attempts), zap.Int("maxAttempts", maxAttempts), zap.Error(err))
			if attempts == maxAttempts {
				// Notifications are best effort; the desk keeps serving without them.
				logger.Error("notification worker gave up; queued notifications will wait for the next start")
				return
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
	}()

	return srv
}

// HandleBookingNotifyTask delivers one queued booking notification.
func HandleBookingNotifyTask(sender notification.Sender, serviceToken string) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		logger := utils.GetLogger()

		n, err := tasks.ParseBookingNotification(task)
		if err != nil {
			logger.Error("dropping malformed notification task", zap.Error(err))
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}

		err = sender.SendBookingNotification(ctx, serviceToken, n)
		if err == nil {
			logger.Debug("booking notification delivered", zap.String("userID", n.UserID))
			return nil
		}

		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.Kind == api.KindStatus &&
			apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 && apiErr.StatusCode != http.StatusTooManyRequests {
			logger.Warn("notification rejected by backend", zap.Int("status", apiErr.StatusCode), zap.Error(err))
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		logger.Warn("notification delivery failed, will retry", zap.Error(err))
		return err
	}
}

// monitorRedisConnection pings the queue Redis periodically to detect failures at runtime.
func monitorRedisConnection() {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})

	ctx := context.Background()

	for {
		if err := client.Ping(ctx).Err(); err != nil {
			utils.GetLogger().Warn("queue redis connection lost", zap.Error(err))
		}
		time.Sleep(30 * time.Second)
	}
}
