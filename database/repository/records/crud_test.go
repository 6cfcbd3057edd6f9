package recordsRepo

import (
	"testing"
	"time"

	"barberbot/models"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestClientUpsert(t *testing.T) {
	now := time.Date(2025, 11, 10, 9, 0, 0, 0, time.UTC)
	start := time.Date(2025, 11, 11, 10, 0, 0, 0, time.UTC)

	filter, update := clientUpsert(models.ClientRecord{
		PSID:    "psid-1",
		Name:    "Ana Ivanova",
		Service: "Haircut",
		Barber:  "Ivan Petrov",
		Start:   start,
	}, now)

	assert.Equal(t, bson.M{"psid": "psid-1"}, filter)
	set := update["$set"].(bson.M)
	assert.Equal(t, "Ana Ivanova", set["name"])
	assert.Equal(t, start, set["start"])
	assert.Equal(t, now, set["updatedAt"])
	assert.NotContains(t, set, "psid", "the filter supplies psid on insert")
	assert.Equal(t, bson.M{"createdAt": now}, update["$setOnInsert"])
}
