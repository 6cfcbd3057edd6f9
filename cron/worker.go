package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"barberbot/config"
	"barberbot/models"
	"barberbot/services/booking"
	"barberbot/services/tasks"
	"barberbot/utils"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Sender delivers the reminder text over Messenger.
type Sender interface {
	SendMessage(ctx context.Context, userID, text string) error
}

func reminderRedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisReminderQueueDB,
	}
}

// NewReminderClient returns the asynq client commits enqueue reminders with.
func NewReminderClient() *asynq.Client {
	return asynq.NewClient(reminderRedisOpt())
}

// InitReminderWorker runs the async worker in background. The returned server
// must be shut down on exit.
func InitReminderWorker(ctx context.Context, sender Sender) *asynq.Server {
	logger := utils.GetLogger()
	srv := asynq.NewServer(
		reminderRedisOpt(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeSendReminder, handleReminderTask(sender))

	go monitorRedisConnection(ctx)

	// Start async worker with retry logic
	go func() {
		logger.Info("Starting reminder worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Start(mux)
			if err == nil {
				return
			}
			logger.Error("Reminder worker failed to start",
				zap.Int("attempt", attempts), zap.Int("maxAttempts", maxAttempts), zap.Error(err))
			if attempts == maxAttempts {
				logger.Error("Reminder worker gave up; reminders will not be sent")
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Duration(attempts*2) * time.Second):
			}
		}
	}()
	return srv
}

func handleReminderTask(sender Sender) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		logger := utils.GetLogger()
		var p models.ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("Invalid reminder payload", zap.Error(err))
			return fmt.Errorf("invalid reminder payload: %v: %w", err, asynq.SkipRetry)
		}

		loc := config.Location()
		text := booking.ReminderText(p.Language, p.Service, p.Barber, p.Start.In(loc))
		logger.Info("Sending appointment reminder",
			zap.String("bookingID", p.BookingID), zap.String("userID", p.UserID))

		if err := sender.SendMessage(ctx, p.UserID, text); err != nil {
			logger.Warn("Failed to send reminder", zap.String("bookingID", p.BookingID), zap.Error(err))
			return err
		}
		return nil
	}
}

// monitorRedisConnection pings the reminder queue periodically to surface failures at runtime.
func monitorRedisConnection(ctx context.Context) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisReminderQueueDB,
	})
	defer client.Close()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.Ping(ctx).Err(); err != nil && ctx.Err() == nil {
				utils.GetLogger().Warn("Reminder queue Redis connection lost", zap.Error(err))
			}
		}
	}
}
