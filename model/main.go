package model

import (
	"time"
)

const (
	// ModuleTable is the single table owned by coursesync.
	ModuleTable = "module"

	// MaxFieldLength is the column width of module_id and module_name.
	MaxFieldLength = 128
)

// A Module is one named unit of a course, flattened out of the analytics
// course structure.
//
// The table is dropped and recreated on every run, so rows are only ever
// inserted, never updated.
type Module struct {
	ModuleID   string    `gorm:"column:module_id;size:128;primaryKey;not null"`
	ModuleName string    `gorm:"column:module_name;size:128;not null"`
	LastUpdate time.Time `gorm:"column:last_update;not null"`
}

func (Module) TableName() string {
	return ModuleTable
}

// ModuleEntry is the (id, display name) pair extracted from one course block.
type ModuleEntry struct {
	ID   string
	Name string
}

// NewModule builds the row for e stamped with updatedAt.
func NewModule(e ModuleEntry, updatedAt time.Time) Module {
	return Module{
		ModuleID:   e.ID,
		ModuleName: e.Name,
		LastUpdate: updatedAt,
	}
}
