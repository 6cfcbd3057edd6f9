// File: models/records.go
package models

import "time"

// ClientRecord is the latest booking of a Messenger user, one per psid.
type ClientRecord struct {
	PSID      string    `bson:"psid" json:"psid"`
	Name      string    `bson:"name" json:"name"`
	Service   string    `bson:"service" json:"service"`
	Barber    string    `bson:"barber" json:"barber"`
	Start     time.Time `bson:"start" json:"start"`
	Notes     string    `bson:"notes,omitempty" json:"notes,omitempty"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// HistoryEntry is one committed booking in the append-only history.
type HistoryEntry struct {
	BookingID       string    `bson:"bookingId" json:"bookingId"`
	PSID            string    `bson:"psid" json:"psid"`
	Name            string    `bson:"name" json:"name"`
	Service         string    `bson:"service" json:"service"`
	Barber          string    `bson:"barber" json:"barber"`
	Start           time.Time `bson:"start" json:"start"`
	DurationMinutes int       `bson:"durationMinutes" json:"durationMinutes"`
	Notes           string    `bson:"notes,omitempty" json:"notes,omitempty"`
	EventLink       string    `bson:"eventLink,omitempty" json:"eventLink,omitempty"`
	CreatedAt       time.Time `bson:"createdAt" json:"createdAt"`
}

// ClientRecordOf returns the client row a booking produces.
func ClientRecordOf(b Booking) ClientRecord {
	return ClientRecord{
		PSID:    b.UserID,
		Name:    b.ClientName,
		Service: b.Service,
		Barber:  b.Barber,
		Start:   b.Start,
		Notes:   b.Notes,
	}
}

// HistoryEntryOf returns the history row a booking produces.
func HistoryEntryOf(b Booking) HistoryEntry {
	return HistoryEntry{
		BookingID:       b.ID,
		PSID:            b.UserID,
		Name:            b.ClientName,
		Service:         b.Service,
		Barber:          b.Barber,
		Start:           b.Start,
		DurationMinutes: b.DurationMinutes,
		Notes:           b.Notes,
		EventLink:       b.EventLink,
		CreatedAt:       b.CreatedAt,
	}
}
