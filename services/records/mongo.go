package records

import (
	"context"
	"fmt"

	recordsRepo "barberbot/database/repository/records"
	"barberbot/models"
)

// MongoRecorder mirrors bookings into the clients and history collections.
type MongoRecorder struct {
	repo recordsRepo.BookingRecordRepository
}

func NewMongoRecorder(repo recordsRepo.BookingRecordRepository) *MongoRecorder {
	return &MongoRecorder{repo: repo}
}

func (m *MongoRecorder) Record(ctx context.Context, b models.Booking) error {
	if err := m.repo.UpsertClient(ctx, models.ClientRecordOf(b)); err != nil {
		return fmt.Errorf("failed to upsert client %s: %w", b.UserID, err)
	}
	if err := m.repo.InsertHistory(ctx, models.HistoryEntryOf(b)); err != nil {
		return fmt.Errorf("failed to insert history for booking %s: %w", b.ID, err)
	}
	return nil
}
