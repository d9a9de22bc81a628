package persistence

import (
	"time"

	"github.com/example/collection-scheduler/internal/scheduler"
)

// Building is a read-only directory record referenced by schedule entries.
type Building struct {
	ID      string
	Name    string
	Address string
}

// StaffMember is a read-only directory record eligible for assignment.
type StaffMember struct {
	ID       string
	FullName string
	Role     string
}

// Staff roles eligible for assignment to a collection visit.
const (
	RoleStaff      = "staff"
	RoleSupervisor = "supervisor"
)

// ScheduleEntry is a collection visit as stored in persistence.
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
