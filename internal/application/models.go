package application

import (
	"time"

	"github.com/example/collection-scheduler/internal/scheduler"
)

// Building is an external, read-only directory record. The engine references
// buildings by id and never mutates them.
type Building struct {
	ID      string
	Name    string
	Address string
}

// StaffRole classifies directory members eligible for assignment.
type StaffRole string

const (
	RoleStaff      StaffRole = "staff"
	RoleSupervisor StaffRole = "supervisor"
)

// Eligible reports whether the role may be assigned to a collection visit.
func (r StaffRole) Eligible() bool {
	return r == RoleStaff || r == RoleSupervisor
}

// StaffMember is an external, read-only directory record.
type StaffMember struct {
	ID       string
	FullName string
	Role     StaffRole
}

// ScheduleEntry is one planned or completed waste-collection visit to a
// building on a specific date and time slot.
type ScheduleEntry struct {
	ID              string
	BuildingID      string
	Date            scheduler.Date
	Slot            scheduler.TimeSlot
	CollectionType  scheduler.CollectionType
	Status          scheduler.Status
	AssignedStaffID *string
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CreateScheduleInput captures caller provided fields for a new entry.
type CreateScheduleInput struct {
	BuildingID      string
	Date            scheduler.Date
	Slot            scheduler.TimeSlot
	CollectionType  scheduler.CollectionType
	AssignedStaffID *string
	Notes           string
}

// EntryView pairs an entry with the directory fields dashboards display.
// The join is computed on demand, never stored, so it cannot go stale.
type EntryView struct {
	Entry           ScheduleEntry
	BuildingName    string
	BuildingAddress string
}

// DayView is the day-scoped calendar projection.
type DayView struct {
	Date           scheduler.Date
	Entries        []ScheduleEntry
	CountsByStatus map[scheduler.Status]int
}

// WeekView is the week-scoped calendar projection: seven consecutive days
// beginning on the configured week-start weekday.
type WeekView struct {
	Start scheduler.Date
	Days  [7]DayView
}

// SearchFilter narrows Search results. All populated fields are conjunctive.
type SearchFilter struct {
	// TextQuery matches case-insensitively against building name and address.
	TextQuery  string
	Status     *scheduler.Status
	DateEquals *scheduler.Date
}
