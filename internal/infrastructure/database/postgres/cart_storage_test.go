package postgres

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vardan-naturals/storefront/internal/config"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an in-memory database with the cart schema applied
func newTestDB(t *testing.T) *DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// a single connection keeps the in-memory database alive
	conn, err := Wrap(gdb, config.DatabaseConfig{MaxOpenConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	silent := logrus.New()
	silent.SetOutput(io.Discard)
	require.NoError(t, NewMigration(conn.GetDB(), silent).RunAutoMigrations())
	require.NoError(t, NewMigration(conn.GetDB(), silent).CreateIndexes())
	return conn
}

func TestCartStorage_Upsert(t *testing.T) {
	conn := newTestDB(t)
	storage := NewCartStorage(conn.GetDB())
	ctx := context.Background()

	_, ok, err := storage.Get(ctx, "vardanCart:s1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, storage.Set(ctx, "vardanCart:s1", "[]"))
	require.NoError(t, storage.Set(ctx, "vardanCart:s1", `[{"name":"Soap","quantity":2}]`))

	value, ok, err := storage.Get(ctx, "vardanCart:s1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"name":"Soap","quantity":2}]`, value)

	var count int64
	require.NoError(t, conn.GetDB().Model(&CartSnapshot{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCartStorage_Delete(t *testing.T) {
	conn := newTestDB(t)
	storage := NewCartStorage(conn.GetDB())
	ctx := context.Background()

	require.NoError(t, storage.Set(ctx, "vardanCart:s1", "[]"))
	require.NoError(t, storage.Set(ctx, "vardanCart:s2", "[]"))
	require.NoError(t, storage.Delete(ctx, "vardanCart:s1"))

	_, ok, err := storage.Get(ctx, "vardanCart:s1")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = storage.Get(ctx, "vardanCart:s2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCartStorage_PurgeOlderThan(t *testing.T) {
	conn := newTestDB(t)
	storage := NewCartStorage(conn.GetDB())
	ctx := context.Background()

	require.NoError(t, storage.Set(ctx, "vardanCart:old", "[]"))
	require.NoError(t, conn.GetDB().Model(&CartSnapshot{}).
		Where("cart_key = ?", "vardanCart:old").
		UpdateColumn("updated_at", time.Now().Add(-48*time.Hour)).Error)
	require.NoError(t, storage.Set(ctx, "vardanCart:new", "[]"))

	removed, err := storage.PurgeOlderThan(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, ok, _ := storage.Get(ctx, "vardanCart:new")
	assert.True(t, ok)
}

func TestHealth(t *testing.T) {
	conn := newTestDB(t)
	assert.NoError(t, conn.Health())
}
