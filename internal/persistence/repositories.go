package persistence

import (
	"context"

	"github.com/example/collection-scheduler/internal/scheduler"
)

// ScheduleRepository stores collection schedule entries. It performs no
// cross-entry validation; business rules live in the application layer.
// Implementations stamp UpdatedAt on every write.
type ScheduleRepository interface {
	InsertEntry(ctx context.Context, entry ScheduleEntry) (ScheduleEntry, error)
	GetEntry(ctx context.Context, id string) (ScheduleEntry, error)
	UpdateEntry(ctx context.Context, entry ScheduleEntry) (ScheduleEntry, error)
	DeleteEntry(ctx context.Context, id string) error

	// Range reads return entries ordered by date, slot start, then id.
	EntriesByDate(ctx context.Context, date scheduler.Date) ([]ScheduleEntry, error)
	EntriesByDateRange(ctx context.Context, start, end scheduler.Date) ([]ScheduleEntry, error)
	EntriesByBuilding(ctx context.Context, buildingID string) ([]ScheduleEntry, error)
	EntriesByBuildingDate(ctx context.Context, buildingID string, date scheduler.Date) ([]ScheduleEntry, error)
}

// DirectoryRepository exposes the read-only building and staff directory.
// Directory management is owned elsewhere; this engine only resolves
// identifiers.
type DirectoryRepository interface {
	GetBuilding(ctx context.Context, id string) (Building, error)
	GetStaffMember(ctx context.Context, id string) (StaffMember, error)
	ListBuildings(ctx context.Context) ([]Building, error)
	ListStaffMembers(ctx context.Context) ([]StaffMember, error)
}
