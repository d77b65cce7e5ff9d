package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"

	"storefront/internal/database"
)

func setupMongoStorage(t *testing.T, ttl time.Duration) *MongoStorage {
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	container, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := database.Connect(ctx, uri)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(ctx) })

	db := client.Database("storefront_test")
	require.NoError(t, database.EnsureSessionIndexes(db, nil))
	return NewMongoStorage(db, ttl)
}

func TestMongoStorageRoundTrip(t *testing.T) {
	s := setupMongoStorage(t, time.Hour)
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "s1", TokenKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "s1", TokenKey, "tok"))
	v, ok, err := s.Get(ctx, "s1", TokenKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok", v)

	require.NoError(t, s.Delete(ctx, "s1", TokenKey))
	_, ok, err = s.Get(ctx, "s1", TokenKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "s1", TokenKey, "tok"))
	require.NoError(t, s.Destroy(ctx, "s1"))
	_, ok, err = s.Get(ctx, "s1", TokenKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMongoStorageHidesExpiredSessions(t *testing.T) {
	s := setupMongoStorage(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "s1", TokenKey, "tok"))

	s.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, ok, err := s.Get(ctx, "s1", TokenKey)
	require.NoError(t, err)
	assert.False(t, ok)
}
