package catalog

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson"

	"cheapcart/internal/database"
	"cheapcart/internal/models"
)

func setupTestDB(t *testing.T) (Repository, func()) {
	if testing.Short() {
		t.Skip("skipping MongoDB integration test in short mode")
	}
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := database.Connect(ctx, uri)
	require.NoError(t, err)
	db := client.Database("testdb")
	require.NoError(t, database.EnsureStoreIndexes(db))

	cleanup := func() {
		_ = client.Disconnect(ctx)
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
	return NewMongoRepository(db), cleanup
}

func TestMongoGetOrCreateConcurrent(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := repo.GetOrCreate(ctx, "shufersal", "Shufersal")
			assert.NoError(t, err)
			if c != nil {
				assert.Equal(t, "shufersal", c.Slug)
			}
		}()
	}
	wg.Wait()

	count, err := repo.(*mongoRepository).collection.CountDocuments(ctx, bson.M{"slug": "shufersal"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMongoAppendAndReplace(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	_, err := repo.GetOrCreate(ctx, "shop", "Shop")
	require.NoError(t, err)

	created := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, repo.AppendProducts(ctx, "shop", []models.CatalogProduct{
		{ItemID: "1", Name: "Milk", UnitInfo: "1 l", Price: 6.9, CreatedAt: created},
		{ItemID: "2", Name: "Flour", UnitInfo: "1 kg", Price: 4.5, CreatedAt: created},
	}))

	c, err := repo.Get(ctx, "shop")
	require.NoError(t, err)
	require.Len(t, c.Products, 2)
	assert.Equal(t, "1 l", c.Products[0].UnitInfo)
	assert.True(t, created.Equal(c.Products[0].CreatedAt))

	require.NoError(t, repo.ReplaceProducts(ctx, "shop", c.Products[1:]))
	c, err = repo.Get(ctx, "shop")
	require.NoError(t, err)
	require.Len(t, c.Products, 1)
	assert.Equal(t, "2", c.Products[0].ItemID)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.AppendProducts(ctx, "missing", c.Products), ErrNotFound)
}
