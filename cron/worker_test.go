package cron

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"barberbot/models"
	"barberbot/services/tasks"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedSend struct {
	userID string
	text   string
	err    error
}

func (c *capturedSend) SendMessage(_ context.Context, userID, text string) error {
	c.userID, c.text = userID, text
	return c.err
}

func TestHandleReminderTask(t *testing.T) {
	payload, err := json.Marshal(models.ReminderPayload{
		BookingID: "b-1",
		UserID:    "psid-1",
		Service:   "Haircut",
		Barber:    "Ivan Petrov",
		Start:     time.Date(2025, 11, 14, 15, 30, 0, 0, time.UTC),
		Language:  "en",
	})
	require.NoError(t, err)

	sender := &capturedSend{}
	require.NoError(t, handleReminderTask(sender)(context.Background(), asynq.NewTask(tasks.TypeSendReminder, payload)))
	assert.Equal(t, "psid-1", sender.userID)
	assert.Contains(t, sender.text, "Reminder: Haircut with Ivan Petrov")

	failing := &capturedSend{err: errors.New("graph down")}
	assert.Error(t, handleReminderTask(failing)(context.Background(), asynq.NewTask(tasks.TypeSendReminder, payload)))
}

func TestHandleReminderTask_BadPayloadSkipsRetry(t *testing.T) {
	err := handleReminderTask(&capturedSend{})(context.Background(), asynq.NewTask(tasks.TypeSendReminder, []byte("{")))
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
