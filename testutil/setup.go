package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/kasuganosora/pacdefender/cache"
	"github.com/kasuganosora/pacdefender/config"
	dbadapter "github.com/kasuganosora/pacdefender/db"
	"github.com/kasuganosora/pacdefender/model"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// SetupTestDB creates a private in-memory SQLite DB and runs AutoMigrate.
// It requires no external services and is safe to use in parallel tests.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := dbadapter.Open(config.DatabaseConfig{
		Mode:       dbadapter.ModeSQLite,
		SQLitePath: fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	})
	require.NoError(t, err, "SetupTestDB: Open")
	require.NoError(t, model.AutoMigrate(db), "SetupTestDB: AutoMigrate")
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// SetupTestCache creates the in-process Cache and PubSub (no Redis required).
func SetupTestCache(t *testing.T) (cache.Cache, cache.PubSub) {
	t.Helper()
	c, ps, err := cache.Open(config.CacheConfig{})
	require.NoError(t, err, "SetupTestCache: Open")
	return c, ps
}
