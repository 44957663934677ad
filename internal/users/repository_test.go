package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"cheapcart/internal/database"
	"cheapcart/internal/models"
)

func TestMongoRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping MongoDB integration test in short mode")
	}
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})
	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)
	client, err := database.Connect(ctx, uri)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(ctx) })

	db := client.Database("testdb")
	repo := NewMongoRepository(db)

	_, err = repo.FindByID(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.SetAddresses(ctx, primitive.NewObjectID(), nil), ErrNotFound)

	user := models.User{ID: primitive.NewObjectID(), Email: "a@b.c", CreatedAt: time.Now().UTC()}
	_, err = db.Collection(database.UsersCollection).InsertOne(ctx, user)
	require.NoError(t, err)

	addresses := []models.SavedAddress{{
		ID:        "home",
		Title:     "Home",
		Address:   models.Address{City: "Tel Aviv", Street: "Dizengoff", Building: "50"},
		IsDefault: true,
	}}
	require.NoError(t, repo.SetAddresses(ctx, user.ID, addresses))

	got, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, addresses, got.Addresses)

	addr, ok := got.DeliveryAddress()
	assert.True(t, ok)
	assert.Equal(t, "Dizengoff 50, Tel Aviv", addr.Query())
}
