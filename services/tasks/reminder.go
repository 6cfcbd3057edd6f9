package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"barberbot/models"
	"barberbot/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypeSendReminder = "reminder:send"

func NewReminderTask(payload models.ReminderPayload, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeSendReminder, b)
	opts := []asynq.Option{
		asynq.ProcessAt(fireAt),
		asynq.TaskID("reminder:" + payload.BookingID),
		asynq.MaxRetry(3),
	}

	return task, opts, nil
}

// ReminderPayloadOf returns the reminder payload for a committed booking.
func ReminderPayloadOf(b models.Booking) models.ReminderPayload {
	return models.ReminderPayload{
		BookingID: b.ID,
		UserID:    b.UserID,
		Service:   b.Service,
		Barber:    b.Barber,
		Start:     b.Start,
		Language:  b.Language,
	}
}

type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ReminderScheduler enqueues a Messenger reminder lead before each appointment.
type ReminderScheduler struct {
	client Enqueuer
	lead   time.Duration
	now    func() time.Time
}

func NewReminderScheduler(client Enqueuer, lead time.Duration) *ReminderScheduler {
	return &ReminderScheduler{client: client, lead: lead, now: time.Now}
}

// Schedule enqueues the reminder. Appointments whose reminder time has
// already passed get none.
func (s *ReminderScheduler) Schedule(ctx context.Context, b models.Booking) error {
	logger := utils.GetLogger()
	fireAt := b.Start.Add(-s.lead)
	if !fireAt.After(s.now()) {
		logger.Debug("Reminder time already passed, skipping", zap.String("bookingID", b.ID), zap.Time("start", b.Start))
		return nil
	}

	task, opts, err := NewReminderTask(ReminderPayloadOf(b), fireAt)
	if err != nil {
		return fmt.Errorf("failed to build reminder task: %w", err)
	}
	info, err := s.client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to enqueue reminder: %w", err)
	}
	logger.Info("Reminder scheduled",
		zap.String("bookingID", b.ID), zap.String("taskID", info.ID), zap.Time("processAt", fireAt))
	return nil
}
