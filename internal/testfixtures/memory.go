package testfixtures

import (
	"context"
	"sort"
	"sync"

	"github.com/example/collection-scheduler/internal/application"
	"github.com/example/collection-scheduler/internal/persistence"
	"github.com/example/collection-scheduler/internal/scheduler"
)

// MemoryStore is a mutex-guarded in-memory implementation of
// application.ScheduleRepository for tests that do not need SQLite.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]application.ScheduleEntry
}

// NewMemoryStore constructs an empty in-memory schedule store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]application.ScheduleEntry)}
}

// Seed inserts fixtures directly, bypassing duplicate checks.
func (m *MemoryStore) Seed(entries ...application.ScheduleEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, entry := range entries {
		m.entries[entry.ID] = entry
	}
}

// InsertEntry stores a new entry, rejecting duplicate identifiers.
func (m *MemoryStore) InsertEntry(_ context.Context, entry application.ScheduleEntry) (application.ScheduleEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.entries[entry.ID]; exists {
		return application.ScheduleEntry{}, persistence.ErrDuplicate
	}
	m.entries[entry.ID] = entry
	return entry, nil
}

// GetEntry returns one entry by id.
func (m *MemoryStore) GetEntry(_ context.Context, id string) (application.ScheduleEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[id]
	if !ok {
		return application.ScheduleEntry{}, persistence.ErrNotFound
	}
	return entry, nil
}

// UpdateEntry replaces an existing entry.
func (m *MemoryStore) UpdateEntry(_ context.Context, entry application.ScheduleEntry) (application.ScheduleEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[entry.ID]; !ok {
		return application.ScheduleEntry{}, persistence.ErrNotFound
	}
	m.entries[entry.ID] = entry
	return entry, nil
}

// DeleteEntry removes an entry by id.
func (m *MemoryStore) DeleteEntry(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(m.entries, id)
	return nil
}

// EntriesByDate returns all entries on a date in store order.
func (m *MemoryStore) EntriesByDate(_ context.Context, date scheduler.Date) ([]application.ScheduleEntry, error) {
	return m.filter(func(entry application.ScheduleEntry) bool {
		return entry.Date.Equal(date)
	}), nil
}

// EntriesByDateRange returns entries between start and end inclusive. A zero
// bound is unbounded.
func (m *MemoryStore) EntriesByDateRange(_ context.Context, start, end scheduler.Date) ([]application.ScheduleEntry, error) {
	return m.filter(func(entry application.ScheduleEntry) bool {
		if !start.IsZero() && entry.Date.Before(start) {
			return false
		}
		if !end.IsZero() && entry.Date.After(end) {
			return false
		}
		return true
	}), nil
}

// EntriesByBuilding returns all entries referencing a building.
func (m *MemoryStore) EntriesByBuilding(_ context.Context, buildingID string) ([]application.ScheduleEntry, error) {
	return m.filter(func(entry application.ScheduleEntry) bool {
		return entry.BuildingID == buildingID
	}), nil
}

// EntriesByBuildingDate returns the entries for one building on one date.
func (m *MemoryStore) EntriesByBuildingDate(_ context.Context, buildingID string, date scheduler.Date) ([]application.ScheduleEntry, error) {
	return m.filter(func(entry application.ScheduleEntry) bool {
		return entry.BuildingID == buildingID && entry.Date.Equal(date)
	}), nil
}

func (m *MemoryStore) filter(keep func(application.ScheduleEntry) bool) []application.ScheduleEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []application.ScheduleEntry
	for _, entry := range m.entries {
		if keep(entry) {
			matched = append(matched, entry)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Date.Equal(matched[j].Date) {
			return matched[i].Date.Before(matched[j].Date)
		}
		if matched[i].Slot.Start != matched[j].Slot.Start {
			return matched[i].Slot.Start < matched[j].Slot.Start
		}
		return matched[i].ID < matched[j].ID
	})
	return matched
}

// MemoryDirectory is an in-memory application.Directory for tests.
type MemoryDirectory struct {
	mu        sync.Mutex
	buildings map[string]application.Building
	staff     map[string]application.StaffMember
}

// NewMemoryDirectory constructs a directory preloaded with the supplied
// records.
func NewMemoryDirectory(buildings []application.Building, staff []application.StaffMember) *MemoryDirectory {
	dir := &MemoryDirectory{
		buildings: make(map[string]application.Building, len(buildings)),
		staff:     make(map[string]application.StaffMember, len(staff)),
	}
	for _, building := range buildings {
		dir.buildings[building.ID] = building
	}
	for _, member := range staff {
		dir.staff[member.ID] = member
	}
	return dir
}

// AddBuilding registers a building record.
func (d *MemoryDirectory) AddBuilding(building application.Building) {
	d.mu.Lock()
	d.buildings[building.ID] = building
	d.mu.Unlock()
}

// AddStaff registers a staff record.
func (d *MemoryDirectory) AddStaff(member application.StaffMember) {
	d.mu.Lock()
	d.staff[member.ID] = member
	d.mu.Unlock()
}

// ResolveBuilding returns a building by id.
func (d *MemoryDirectory) ResolveBuilding(_ context.Context, id string) (application.Building, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	building, ok := d.buildings[id]
	if !ok {
		return application.Building{}, persistence.ErrNotFound
	}
	return building, nil
}

// ResolveStaff returns a staff member by id.
func (d *MemoryDirectory) ResolveStaff(_ context.Context, id string) (application.StaffMember, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	member, ok := d.staff[id]
	if !ok {
		return application.StaffMember{}, persistence.ErrNotFound
	}
	return member, nil
}
