package db

import (
	"context"

	"coursesync/model"
)

// StageFunc is called for each module just before its row is inserted.
type StageFunc func(entry model.ModuleEntry)

type Store interface {
	Ping(ctx context.Context) error
	ReplaceModules(ctx context.Context, entries []model.ModuleEntry, onStage StageFunc) (int, error)
	ListModules(ctx context.Context) ([]model.Module, error)
	Close() error
}
