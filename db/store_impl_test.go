package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"coursesync/model"
)

// setupTestDB opens a file-backed SQLite database in a per-test directory so
// that every pooled connection sees the same tables.
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "modules.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func countModules(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&model.Module{}).Count(&n).Error)
	return n
}

func TestReplaceModules(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

	t.Run("inserts one row per entry", func(t *testing.T) {
		db := setupTestDB(t)
		store := NewSQLStore(db).WithClock(fixedClock(at))
		entries := []model.ModuleEntry{
			{ID: "block-1", Name: "Python basics"},
			{ID: "block-2", Name: "SQL"},
			{ID: "block-3", Name: "Статистика"},
		}

		var staged []model.ModuleEntry
		n, err := store.ReplaceModules(ctx, entries, func(e model.ModuleEntry) { staged = append(staged, e) })
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		assert.Equal(t, entries, staged)

		modules, err := store.ListModules(ctx)
		require.NoError(t, err)
		require.Len(t, modules, 3)
		for i, m := range modules {
			assert.Equal(t, entries[i].ID, m.ModuleID)
			assert.Equal(t, entries[i].Name, m.ModuleName)
			assert.True(t, at.Equal(m.LastUpdate), "last_update %v", m.LastUpdate)
		}
	})

	t.Run("stamps each row when it is staged", func(t *testing.T) {
		db := setupTestDB(t)
		tick := at
		store := NewSQLStore(db).WithClock(func() time.Time {
			tick = tick.Add(time.Second)
			return tick
		})

		_, err := store.ReplaceModules(ctx, []model.ModuleEntry{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}}, nil)
		require.NoError(t, err)

		modules, err := store.ListModules(ctx)
		require.NoError(t, err)
		require.Len(t, modules, 2)
		assert.True(t, at.Add(time.Second).Equal(modules[0].LastUpdate))
		assert.True(t, at.Add(2*time.Second).Equal(modules[1].LastUpdate))
	})

	t.Run("empty input leaves an empty table", func(t *testing.T) {
		db := setupTestDB(t)
		store := NewSQLStore(db)

		n, err := store.ReplaceModules(ctx, nil, nil)
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.True(t, db.Migrator().HasTable(model.ModuleTable))
		assert.Zero(t, countModules(t, db))
	})

	t.Run("duplicate id rolls back the whole batch", func(t *testing.T) {
		db := setupTestDB(t)
		store := NewSQLStore(db)
		entries := []model.ModuleEntry{
			{ID: "x", Name: "A"},
			{ID: "y", Name: "B"},
			{ID: "x", Name: "C"},
		}

		var staged int
		n, err := store.ReplaceModules(ctx, entries, func(model.ModuleEntry) { staged++ })
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrConstraintViolation)
		assert.Contains(t, err.Error(), `module "x"`)
		assert.Zero(t, n)
		assert.Equal(t, 3, staged)
		assert.Zero(t, countModules(t, db))
	})

	t.Run("previous contents are replaced", func(t *testing.T) {
		db := setupTestDB(t)
		require.NoError(t, db.AutoMigrate(&model.Module{}))
		require.NoError(t, db.Create(&model.Module{ModuleID: "stale", ModuleName: "Old module", LastUpdate: at}).Error)

		store := NewSQLStore(db)
		_, err := store.ReplaceModules(ctx, []model.ModuleEntry{{ID: "fresh", Name: "New module"}}, nil)
		require.NoError(t, err)

		modules, err := store.ListModules(ctx)
		require.NoError(t, err)
		require.Len(t, modules, 1)
		assert.Equal(t, "fresh", modules[0].ModuleID)
	})

	t.Run("foreign table shape is dropped and recreated", func(t *testing.T) {
		db := setupTestDB(t)
		require.NoError(t, db.Exec("CREATE TABLE module (legacy TEXT)").Error)
		require.NoError(t, db.Exec("INSERT INTO module (legacy) VALUES ('left over')").Error)

		store := NewSQLStore(db)
		_, err := store.ReplaceModules(ctx, []model.ModuleEntry{{ID: "m1", Name: "Module 1"}}, nil)
		require.NoError(t, err)
		assert.False(t, db.Migrator().HasColumn(&model.Module{}, "legacy"))
		assert.Equal(t, int64(1), countModules(t, db))
	})
}

func TestListModulesWithoutTable(t *testing.T) {
	store := NewSQLStore(setupTestDB(t))
	_, err := store.ListModules(context.Background())
	assert.Error(t, err)
}

func TestPingAndClose(t *testing.T) {
	store := NewSQLStore(setupTestDB(t))
	require.NoError(t, store.Ping(context.Background()))
	require.NoError(t, store.Close())
	assert.Error(t, store.Ping(context.Background()))

	var nilStore *SQLStore
	assert.Error(t, nilStore.Ping(context.Background()))
}

func TestIsConstraintMessage(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"UNIQUE constraint failed: module.module_id", true},
		{"NOT NULL constraint failed: module.module_name", true},
		{"Error 1062 (23000): Duplicate entry 'x' for key 'module.PRIMARY'", true},
		{"Error 1048 (23000): Column 'module_name' cannot be null", true},
		{`ERROR: duplicate key value violates unique constraint "module_pkey" (SQLSTATE 23505)`, true},
		{`ERROR: null value in column "module_name" violates not-null constraint (SQLSTATE 23502)`, true},
		{"driver: bad connection", false},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.want, isConstraintMessage(tt.msg))
		})
	}
}
