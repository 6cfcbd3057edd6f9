package recordsRepo

import (
	"context"
	"time"

	"barberbot/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// clientUpsert builds the filter and update that keep one client document per psid.
func clientUpsert(client models.ClientRecord, now time.Time) (bson.M, bson.M) {
	filter := bson.M{"psid": client.PSID}
	update := bson.M{
		"$set": bson.M{
			"name":      client.Name,
			"service":   client.Service,
			"barber":    client.Barber,
			"start":     client.Start,
			"notes":     client.Notes,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	return filter, update
}

// UpsertClient creates or refreshes the client document for client.PSID.
func (r *mongoRecordRepo) UpsertClient(ctx context.Context, client models.ClientRecord) error {
	filter, update := clientUpsert(client, time.Now())
	_, err := r.clients.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// InsertHistory appends a history entry. Inserting the same booking twice is
// not an error.
func (r *mongoRecordRepo) InsertHistory(ctx context.Context, entry models.HistoryEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	_, err := r.history.InsertOne(ctx, entry)
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}

// HistoryByPSID returns a client's bookings, newest first.
func (r *mongoRecordRepo) HistoryByPSID(ctx context.Context, psid string) ([]models.HistoryEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "start", Value: -1}})
	cursor, err := r.history.Find(ctx, bson.M{"psid": psid}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []models.HistoryEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
