package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"coursesync/model"
)

type SQLStore struct {
	db     *gorm.DB
	schema Schema
	now    func() time.Time
	log    *zap.SugaredLogger
}

func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{
		db:     db,
		schema: ModuleSchema(),
		now:    func() time.Time { return time.Now().UTC() },
		log:    zap.NewNop().Sugar(),
	}
}

// WithClock replaces the clock used to stamp last_update.
func (s *SQLStore) WithClock(now func() time.Time) *SQLStore {
	s.now = now
	return s
}

func (s *SQLStore) WithLogger(log *zap.SugaredLogger) *SQLStore {
	s.log = log
	return s
}

// Ping verifies the underlying database connection is healthy.
func (s *SQLStore) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sql store is not initialized")
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying connection pool.
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ReplaceModules drops and recreates the module table, then inserts one row
// per entry inside a single transaction. Either every row is committed or,
// on the first failed insert, none are and that failure is returned.
//
// Each row's last_update is taken from the store clock at the moment the row
// is staged.
func (s *SQLStore) ReplaceModules(ctx context.Context, entries []model.ModuleEntry, onStage StageFunc) (int, error) {
	conn := s.db.WithContext(ctx)

	s.log.Debugw("recreating schema", "tables", len(s.schema.Models))
	if err := RecreateSchema(conn, s.schema); err != nil {
		return 0, err
	}

	staged := 0
	err := conn.Transaction(func(tx *gorm.DB) error {
		for _, entry := range entries {
			if onStage != nil {
				onStage(entry)
			}
			row := model.NewModule(entry, s.now())
			if err := tx.Create(&row).Error; err != nil {
				return classifyInsertError(entry, err)
			}
			staged++
		}
		return nil
	})
	if err != nil {
		s.log.Warnw("module batch rolled back", "staged", staged, "total", len(entries), "error", err)
		return 0, err
	}

	s.log.Infow("module batch committed", "rows", staged)
	return staged, nil
}

// ListModules returns every row of the module table ordered by module_id.
func (s *SQLStore) ListModules(ctx context.Context) ([]model.Module, error) {
	var modules []model.Module
	if err := s.db.WithContext(ctx).Order("module_id").Find(&modules).Error; err != nil {
		return nil, err
	}
	return modules, nil
}

func classifyInsertError(entry model.ModuleEntry, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) || isConstraintMessage(err.Error()) {
		return fmt.Errorf("%w: module %q: %w", model.ErrConstraintViolation, entry.ID, err)
	}
	return fmt.Errorf("insert module %q: %w", entry.ID, err)
}

// Drivers that do not translate their errors into gorm's are recognised by
// message.
func isConstraintMessage(msg string) bool {
	msg = strings.ToLower(msg)
	for _, fragment := range []string{
		"constraint failed",   // sqlite
		"duplicate entry",     // mysql
		"cannot be null",      // mysql
		"duplicate key value", // postgres
		"violates not-null",   // postgres
	} {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}
