package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/collection-scheduler/internal/application"
	"github.com/example/collection-scheduler/internal/scheduler"
)

var (
	buildingCounter uint64
	staffCounter    uint64
	entryCounter    uint64
)

var referenceTime = time.Date(2025, time.January, 15, 8, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferenceDate returns the calendar date of ReferenceTime, a Wednesday.
func ReferenceDate() scheduler.Date {
	return scheduler.DateOf(referenceTime)
}

// ---------------------------- Building fixtures ----------------------------

// BuildingOption configures the generated building fixture.
type BuildingOption func(*application.Building)

// NewBuildingFixture returns a deterministic building record with optional
// overrides.
func NewBuildingFixture(opts ...BuildingOption) application.Building {
	idx := atomic.AddUint64(&buildingCounter, 1)
	fixture := application.Building{
		ID:      fmt.Sprintf("building-%03d", idx),
		Name:    fmt.Sprintf("Building %03d", idx),
		Address: fmt.Sprintf("%d Collection Way", idx),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithBuildingID overrides the generated building ID.
func WithBuildingID(id string) BuildingOption {
	return func(b *application.Building) {
		b.ID = id
	}
}

// WithBuildingName overrides the generated building name.
func WithBuildingName(name string) BuildingOption {
	return func(b *application.Building) {
		b.Name = name
	}
}

// WithBuildingAddress overrides the generated address.
func WithBuildingAddress(address string) BuildingOption {
	return func(b *application.Building) {
		b.Address = address
	}
}

// ----------------------------- Staff fixtures ------------------------------

// StaffOption configures the generated staff fixture.
type StaffOption func(*application.StaffMember)

// NewStaffFixture returns a deterministic staff record with optional
// overrides. The default role is staff.
func NewStaffFixture(opts ...StaffOption) application.StaffMember {
	idx := atomic.AddUint64(&staffCounter, 1)
	fixture := application.StaffMember{
		ID:       fmt.Sprintf("staff-%03d", idx),
		FullName: fmt.Sprintf("Staff Member %03d", idx),
		Role:     application.RoleStaff,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithStaffID overrides the generated staff ID.
func WithStaffID(id string) StaffOption {
	return func(s *application.StaffMember) {
		s.ID = id
	}
}

// WithStaffName overrides the generated full name.
func WithStaffName(name string) StaffOption {
	return func(s *application.StaffMember) {
		s.FullName = name
	}
}

// WithStaffRole overrides the generated role.
func WithStaffRole(role application.StaffRole) StaffOption {
	return func(s *application.StaffMember) {
		s.Role = role
	}
}

// ----------------------------- Entry fixtures ------------------------------

// EntryOption configures the generated schedule entry fixture.
type EntryOption func(*application.ScheduleEntry)

// NewEntryFixture returns a deterministic schedule entry on the reference
// date. Successive fixtures occupy successive non-overlapping slots starting
// at 09:00; the catalog bounds cap this at twenty entries per test run
// without explicit slot overrides.
func NewEntryFixture(opts ...EntryOption) application.ScheduleEntry {
	idx := atomic.AddUint64(&entryCounter, 1)
	start := scheduler.ClockTime(9*60 + int(idx-1)%20*30)
	fixture := application.ScheduleEntry{
		ID:             fmt.Sprintf("entry-%03d", idx),
		BuildingID:     "building-001",
		Date:           ReferenceDate(),
		Slot:           scheduler.TimeSlot{Start: start, End: start + 30},
		CollectionType: scheduler.CollectionMixed,
		Status:         scheduler.StatusScheduled,
		CreatedAt:      referenceTime,
		UpdatedAt:      referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithEntryID overrides the generated entry ID.
func WithEntryID(id string) EntryOption {
	return func(e *application.ScheduleEntry) {
		e.ID = id
	}
}

// WithEntryBuilding overrides the referenced building.
func WithEntryBuilding(buildingID string) EntryOption {
	return func(e *application.ScheduleEntry) {
		e.BuildingID = buildingID
	}
}

// WithEntryDate overrides the entry date.
func WithEntryDate(date scheduler.Date) EntryOption {
	return func(e *application.ScheduleEntry) {
		e.Date = date
	}
}

// WithEntrySlot overrides the time slot.
func WithEntrySlot(slot scheduler.TimeSlot) EntryOption {
	return func(e *application.ScheduleEntry) {
		e.Slot = slot
	}
}

// WithEntryCollectionType overrides the collection type.
func WithEntryCollectionType(collectionType scheduler.CollectionType) EntryOption {
	return func(e *application.ScheduleEntry) {
		e.CollectionType = collectionType
	}
}

// WithEntryStatus overrides the lifecycle status.
func WithEntryStatus(status scheduler.Status) EntryOption {
	return func(e *application.ScheduleEntry) {
		e.Status = status
	}
}

// WithEntryAssignee sets the assigned staff member.
func WithEntryAssignee(staffID string) EntryOption {
	return func(e *application.ScheduleEntry) {
		e.AssignedStaffID = &staffID
	}
}

// WithEntryNotes overrides the notes field.
func WithEntryNotes(notes string) EntryOption {
	return func(e *application.ScheduleEntry) {
		e.Notes = notes
	}
}
