package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestListQuery_UserOnly(t *testing.T) {
	userID := primitive.NewObjectID()
	filter := listQuery(userID, ListFilter{})

	assert.Equal(t, bson.M{"user_id": userID}, filter)
}

func TestListQuery_AllFilters(t *testing.T) {
	userID := primitive.NewObjectID()
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	filter := listQuery(userID, ListFilter{
		Status: "pending",
		Search: "20250901",
		From:   from,
		To:     to,
	})

	assert.Equal(t, "pending", filter["status"])
	assert.Equal(t, bson.M{"$regex": "20250901", "$options": "i"}, filter["order_number"])

	created, ok := filter["created_at"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, from, created["$gte"])
	assert.Equal(t, to, created["$lt"])
	assert.NotContains(t, created, "$lte")
}

func TestListQuery_OpenEndedDateRange(t *testing.T) {
	userID := primitive.NewObjectID()
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	filter := listQuery(userID, ListFilter{From: from})

	created, ok := filter["created_at"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, from, created["$gte"])
	assert.NotContains(t, created, "$lte")
}
