package models

import (
	"strings"
	"time"
)

// BookingRequest is the create_booking payload the language model embeds in its reply.
type BookingRequest struct {
	Action   string `json:"action"`
	Service  string `json:"service"`
	DateTime string `json:"datetime"` // free text, resolved later
	Barber   string `json:"barber"`
	Notes    string `json:"notes,omitempty"`
}

// MissingFields lists the required fields that are still empty.
func (r BookingRequest) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(r.Service) == "" {
		missing = append(missing, "service")
	}
	if strings.TrimSpace(r.DateTime) == "" {
		missing = append(missing, "datetime")
	}
	if strings.TrimSpace(r.Barber) == "" {
		missing = append(missing, "barber")
	}
	return missing
}

// Actionable reports whether every required field is present.
func (r BookingRequest) Actionable() bool {
	return len(r.MissingFields()) == 0
}

// PendingBooking is a validated booking waiting for the user's confirmation.
type PendingBooking struct {
	ID              string    `json:"id"`
	Service         string    `json:"service"`
	Barber          string    `json:"barber"`
	Start           time.Time `json:"start"`
	DurationMinutes int       `json:"durationMinutes"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Expired reports whether the pending booking outlived ttl. A zero ttl never expires.
func (p PendingBooking) Expired(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(p.CreatedAt) > ttl
}

// Booking is a committed appointment.
type Booking struct {
	ID              string    `json:"id" bson:"bookingId"`
	UserID          string    `json:"userId" bson:"psid"`
	ClientName      string    `json:"clientName" bson:"clientName"`
	Service         string    `json:"service" bson:"service"`
	Barber          string    `json:"barber" bson:"barber"`
	Start           time.Time `json:"start" bson:"start"`
	DurationMinutes int       `json:"durationMinutes" bson:"durationMinutes"`
	Notes           string    `json:"notes,omitempty" bson:"notes,omitempty"`
	EventLink       string    `json:"eventLink,omitempty" bson:"eventLink,omitempty"`
	Language        string    `json:"language,omitempty" bson:"language,omitempty"`
	CreatedAt       time.Time `json:"createdAt" bson:"createdAt"`
}

// End returns the appointment end time.
func (b Booking) End() time.Time {
	return b.Start.Add(time.Duration(b.DurationMinutes) * time.Minute)
}

// ReminderPayload is the asynq payload for an appointment reminder.
type ReminderPayload struct {
	BookingID string    `json:"bookingId"`
	UserID    string    `json:"userId"`
	Service   string    `json:"service"`
	Barber    string    `json:"barber"`
	Start     time.Time `json:"start"`
	Language  string    `json:"language,omitempty"`
}
