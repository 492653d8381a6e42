package db

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"coursesync/model"
)

// Schema lists the models whose tables are owned by coursesync and are
// therefore safe to drop.
type Schema struct {
	Models []any
}

// ModuleSchema is the single-table schema written by a sync run.
func ModuleSchema() Schema {
	return Schema{Models: []any{&model.Module{}}}
}

// NewGormLogger routes gorm's output through log. With echo set every
// statement is logged, otherwise only slow queries and errors.
func NewGormLogger(log *zap.SugaredLogger, echo bool) logger.Interface {
	level := logger.Warn
	if echo {
		level = logger.Info
	}
	return logger.New(
		zap.NewStdLog(log.Desugar()),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// RecreateSchema drops every table in schema, if present, and creates it
// again empty.
func RecreateSchema(db *gorm.DB, schema Schema) error {
	migrator := db.Migrator()
	if err := migrator.DropTable(schema.Models...); err != nil {
		return fmt.Errorf("%w: failed to drop tables: %w", model.ErrSchema, err)
	}
	if err := migrator.CreateTable(schema.Models...); err != nil {
		return fmt.Errorf("%w: failed to create tables: %w", model.ErrSchema, err)
	}
	return nil
}

// EnsureSchema creates any missing table or column in schema and leaves
// existing rows alone.
func EnsureSchema(db *gorm.DB, schema Schema) error {
	if err := db.AutoMigrate(schema.Models...); err != nil {
		return fmt.Errorf("%w: failed to migrate tables: %w", model.ErrSchema, err)
	}
	return nil
}
