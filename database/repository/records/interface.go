package recordsRepo

import (
	"context"
	"fmt"
	"time"

	"barberbot/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	clientsCollection = "clients"
	historyCollection = "history"
)

type BookingRecordRepository interface {
	UpsertClient(ctx context.Context, client models.ClientRecord) error
	InsertHistory(ctx context.Context, entry models.HistoryEntry) error
	HistoryByPSID(ctx context.Context, psid string) ([]models.HistoryEntry, error)
}

type mongoRecordRepo struct {
	clients *mongo.Collection
	history *mongo.Collection
}

// NewMongoRecordRepo returns a BookingRecordRepository backed by the clients
// and history collections of db.
func NewMongoRecordRepo(db *mongo.Database) BookingRecordRepository {
	repo := &mongoRecordRepo{
		clients: db.Collection(clientsCollection),
		history: db.Collection(historyCollection),
	}
	return repo
}

// EnsureIndexes makes psid unique among clients and bookingId unique in the
// history, so a replayed booking cannot add a second history row.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := db.Collection(clientsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "psid", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("failed to create client indexes: %w", err)
	}
	if _, err := db.Collection(historyCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "bookingId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "psid", Value: 1}, {Key: "start", Value: -1}}},
	}); err != nil {
		return fmt.Errorf("failed to create history indexes: %w", err)
	}
	return nil
}
