package booking

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Искам подстригване утре в 11", LangBulgarian},
		{"да", LangBulgarian},
		{"Hei, kan jeg få en klipp i morgen?", LangNorwegian},
		{"Skjegg på fredag", LangNorwegian},
		{"ja", LangNorwegian},
		{"Can I book a haircut tomorrow at 3pm?", LangEnglish},
		{"What time works for Ivan?", LangEnglish},
		{"yes", LangEnglish},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, DetectLanguage(tc.in), tc.in)
	}
}

func TestFormatMoment(t *testing.T) {
	moment := time.Date(2025, 11, 11, 11, 0, 0, 0, time.UTC)

	assert.Equal(t, "вторник, 11.11.2025 в 11:00", FormatMoment(LangBulgarian, moment))
	assert.Equal(t, "Tuesday, 11.11.2025 at 11:00", FormatMoment(LangEnglish, moment))
	assert.Equal(t, "tirsdag 11.11.2025 kl. 11:00", FormatMoment(LangNorwegian, moment))
	assert.Equal(t, FormatMoment(LangEnglish, moment), FormatMoment("de", moment))
}

func TestReminderText(t *testing.T) {
	start := time.Date(2025, 11, 14, 15, 30, 0, 0, time.UTC)

	assert.Equal(t, "Reminder: Haircut with Ivan Petrov on Friday, 14.11.2025 at 15:30.",
		ReminderText(LangEnglish, "Haircut", "Ivan Petrov", start))
	assert.Equal(t, "Напомняне: Подстригване при Maria за петък, 14.11.2025 в 15:30.",
		ReminderText(LangBulgarian, "Подстригване", "Maria", start))
}

func TestMissingText(t *testing.T) {
	assert.Equal(t, "To book you in I still need: date and time, barber.",
		missingText(LangEnglish, []string{"datetime", "barber"}))
	assert.Equal(t, "За да запазя час, ми трябва още: услуга.",
		missingText(LangBulgarian, []string{"service"}))
}

func TestBookingError(t *testing.T) {
	err := newBookingError(CodeCommitFailure, "calendar event not created", errBoom)

	assert.EqualError(t, err, "commit_failure: calendar event not created: boom")
	assert.ErrorIs(t, err, errBoom)
	assert.True(t, IsCode(err, CodeCommitFailure))
	assert.False(t, IsCode(err, CodeUnavailable))

	wrapped := fmt.Errorf("handling message: %w", err)
	assert.Equal(t, CodeCommitFailure, CodeOf(wrapped))
	assert.Empty(t, CodeOf(errBoom))
	assert.EqualError(t, newBookingError(CodeUnavailable, "day_off", nil), "unavailable: day_off")
}
