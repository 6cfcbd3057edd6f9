// Package calendar creates Google Calendar events for committed bookings.
package calendar

import (
	"context"
	"fmt"
	"time"

	"barberbot/models"

	gcal "google.golang.org/api/calendar/v3"
)

type GoogleCalendar struct {
	svc        *gcal.Service
	calendarID string
	loc        *time.Location
}

func NewGoogleCalendar(svc *gcal.Service, calendarID string, loc *time.Location) *GoogleCalendar {
	if loc == nil {
		loc = time.UTC
	}
	return &GoogleCalendar{svc: svc, calendarID: calendarID, loc: loc}
}

// EventSummary is the title shown in the shop's calendar.
func EventSummary(b models.Booking) string {
	return fmt.Sprintf("%s – %s (%s)", b.ClientName, b.Service, b.Barber)
}

// BuildEvent maps a booking onto a calendar event in the business timezone.
func (c *GoogleCalendar) BuildEvent(b models.Booking) *gcal.Event {
	start := b.Start.In(c.loc)
	return &gcal.Event{
		Summary:     EventSummary(b),
		Description: b.Notes,
		Start: &gcal.EventDateTime{
			DateTime: start.Format(time.RFC3339),
			TimeZone: c.loc.String(),
		},
		End: &gcal.EventDateTime{
			DateTime: b.End().In(c.loc).Format(time.RFC3339),
			TimeZone: c.loc.String(),
		},
		ExtendedProperties: &gcal.EventExtendedProperties{
			Private: map[string]string{"bookingId": b.ID, "psid": b.UserID},
		},
	}
}

// CreateEvent inserts the event and returns its HTML link.
func (c *GoogleCalendar) CreateEvent(ctx context.Context, b models.Booking) (string, error) {
	created, err := c.svc.Events.Insert(c.calendarID, c.BuildEvent(b)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create calendar event: %w", err)
	}
	return created.HtmlLink, nil
}
