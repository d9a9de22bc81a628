package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/example/collection-scheduler/internal/persistence"
	"github.com/example/collection-scheduler/internal/scheduler"
)

type fakeEntryRepo struct {
	mu      sync.Mutex
	entries map[string]ScheduleEntry

	insertErr error
	getErr    error
	updateErr error
	queryErr  error
}

func newFakeEntryRepo() *fakeEntryRepo {
	return &fakeEntryRepo{entries: make(map[string]ScheduleEntry)}
}

func (r *fakeEntryRepo) InsertEntry(ctx context.Context, entry ScheduleEntry) (ScheduleEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return ScheduleEntry{}, r.insertErr
	}
	if _, ok := r.entries[entry.ID]; ok {
		return ScheduleEntry{}, persistence.ErrDuplicate
	}
	r.entries[entry.ID] = entry
	return entry, nil
}

func (r *fakeEntryRepo) GetEntry(ctx context.Context, id string) (ScheduleEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return ScheduleEntry{}, r.getErr
	}
	entry, ok := r.entries[id]
	if !ok {
		return ScheduleEntry{}, persistence.ErrNotFound
	}
	return entry, nil
}

func (r *fakeEntryRepo) UpdateEntry(ctx context.Context, entry ScheduleEntry) (ScheduleEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return ScheduleEntry{}, r.updateErr
	}
	if _, ok := r.entries[entry.ID]; !ok {
		return ScheduleEntry{}, persistence.ErrNotFound
	}
	r.entries[entry.ID] = entry
	return entry, nil
}

func (r *fakeEntryRepo) DeleteEntry(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(r.entries, id)
	return nil
}

func (r *fakeEntryRepo) EntriesByDate(ctx context.Context, date scheduler.Date) ([]ScheduleEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.queryErr != nil {
		return nil, r.queryErr
	}
	var out []ScheduleEntry
	for _, entry := range r.entries {
		if entry.Date.Equal(date) {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (r *fakeEntryRepo) EntriesByDateRange(ctx context.Context, start, end scheduler.Date) ([]ScheduleEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.queryErr != nil {
		return nil, r.queryErr
	}
	var out []ScheduleEntry
	for _, entry := range r.entries {
		if !start.IsZero() && entry.Date.Before(start) {
			continue
		}
		if !end.IsZero() && entry.Date.After(end) {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

func (r *fakeEntryRepo) EntriesByBuilding(ctx context.Context, buildingID string) ([]ScheduleEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ScheduleEntry
	for _, entry := range r.entries {
		if entry.BuildingID == buildingID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (r *fakeEntryRepo) EntriesByBuildingDate(ctx context.Context, buildingID string, date scheduler.Date) ([]ScheduleEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.queryErr != nil {
		return nil, r.queryErr
	}
	var out []ScheduleEntry
	for _, entry := range r.entries {
		if entry.BuildingID == buildingID && entry.Date.Equal(date) {
			out = append(out, entry)
		}
	}
	return out, nil
}

type directoryStub struct {
	buildings map[string]Building
	staff     map[string]StaffMember
	err       error
}

func newDirectoryStub() *directoryStub {
	return &directoryStub{
		buildings: map[string]Building{
			"B1": {ID: "B1", Name: "Riverside Apartments", Address: "123 River St"},
			"B2": {ID: "B2", Name: "Green Valley Community", Address: "456 Oak Ave"},
		},
		staff: map[string]StaffMember{
			"S1": {ID: "S1", FullName: "John Smith", Role: RoleStaff},
			"S2": {ID: "S2", FullName: "Sarah Johnson", Role: RoleSupervisor},
			"S3": {ID: "S3", FullName: "Pat Doe", Role: StaffRole("customer")},
		},
	}
}

func (d *directoryStub) ResolveBuilding(ctx context.Context, id string) (Building, error) {
	if d.err != nil {
		return Building{}, d.err
	}
	building, ok := d.buildings[id]
	if !ok {
		return Building{}, persistence.ErrNotFound
	}
	return building, nil
}

func (d *directoryStub) ResolveStaff(ctx context.Context, id string) (StaffMember, error) {
	if d.err != nil {
		return StaffMember{}, d.err
	}
	staff, ok := d.staff[id]
	if !ok {
		return StaffMember{}, persistence.ErrNotFound
	}
	return staff, nil
}

func mustDate(t *testing.T, value string) scheduler.Date {
	t.Helper()
	date, err := scheduler.ParseDate(value)
	if err != nil {
		t.Fatalf("parse date %q: %v", value, err)
	}
	return date
}

func mustSlot(t *testing.T, value string) scheduler.TimeSlot {
	t.Helper()
	slot, err := scheduler.ParseTimeSlot(value)
	if err != nil {
		t.Fatalf("parse slot %q: %v", value, err)
	}
	return slot
}

func newTestService(repo *fakeEntryRepo, directory Directory) *SchedulingService {
	counter := 0
	idGenerator := func() string {
		counter++
		return fmt.Sprintf("entry-%d", counter)
	}
	now := func() time.Time {
		return time.Date(2025, time.January, 10, 8, 0, 0, 0, time.UTC)
	}
	return NewSchedulingService(repo, directory, idGenerator, now)
}

func validInput(t *testing.T) CreateScheduleInput {
	return CreateScheduleInput{
		BuildingID:     "B1",
		Date:           mustDate(t, "2025-01-15"),
		Slot:           mustSlot(t, "09:00-10:00"),
		CollectionType: scheduler.CollectionAll,
		Notes:          "Regular weekly collection",
	}
}

func TestCreateSchedule(t *testing.T) {
	ctx := context.Background()

	t.Run("persists a scheduled entry", func(t *testing.T) {
		repo := newFakeEntryRepo()
		service := newTestService(repo, newDirectoryStub())

		staffID := "S1"
		input := validInput(t)
		input.AssignedStaffID = &staffID

		entry, err := service.CreateSchedule(ctx, input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if entry.ID == "" {
			t.Fatal("expected a generated id")
		}
		if entry.Status != scheduler.StatusScheduled {
			t.Fatalf("new entry has status %s, want scheduled", entry.Status)
		}
		if entry.CreatedAt.IsZero() || !entry.CreatedAt.Equal(entry.UpdatedAt) {
			t.Fatal("expected matching creation timestamps")
		}
		if entry.AssignedStaffID == nil || *entry.AssignedStaffID != "S1" {
			t.Fatal("expected assignment to be retained")
		}
		if _, err := repo.GetEntry(ctx, entry.ID); err != nil {
			t.Fatalf("entry not persisted: %v", err)
		}
	})

	t.Run("unknown building", func(t *testing.T) {
		service := newTestService(newFakeEntryRepo(), newDirectoryStub())
		input := validInput(t)
		input.BuildingID = "missing"

		_, err := service.CreateSchedule(ctx, input)
		var notFound *NotFoundError
		if !errors.As(err, &notFound) || notFound.Kind != ResourceBuilding {
			t.Fatalf("expected building NotFoundError, got %v", err)
		}
	})

	t.Run("unknown staff", func(t *testing.T) {
		service := newTestService(newFakeEntryRepo(), newDirectoryStub())
		staffID := "missing"
		input := validInput(t)
		input.AssignedStaffID = &staffID

		_, err := service.CreateSchedule(ctx, input)
		var notFound *NotFoundError
		if !errors.As(err, &notFound) || notFound.Kind != ResourceStaff {
			t.Fatalf("expected staff NotFoundError, got %v", err)
		}
	})

	t.Run("ineligible staff role", func(t *testing.T) {
		service := newTestService(newFakeEntryRepo(), newDirectoryStub())
		staffID := "S3"
		input := validInput(t)
		input.AssignedStaffID = &staffID

		_, err := service.CreateSchedule(ctx, input)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["assigned_staff_id"]; !ok {
			t.Fatalf("expected assigned_staff_id field error, got %v", vErr.FieldErrors)
		}
	})

	t.Run("rejects non-catalog slot", func(t *testing.T) {
		service := newTestService(newFakeEntryRepo(), newDirectoryStub())
		input := validInput(t)
		input.Slot = scheduler.TimeSlot{Start: 545, End: 600}

		_, err := service.CreateSchedule(ctx, input)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("overlapping slot reports the colliding entry", func(t *testing.T) {
		repo := newFakeEntryRepo()
		service := newTestService(repo, newDirectoryStub())

		first, err := service.CreateSchedule(ctx, validInput(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		second := validInput(t)
		second.Slot = mustSlot(t, "09:30-10:30")
		_, err = service.CreateSchedule(ctx, second)

		var conflict *ConflictError
		if !errors.As(err, &conflict) {
			t.Fatalf("expected ConflictError, got %v", err)
		}
		if conflict.ConflictingEntryID != first.ID {
			t.Fatalf("conflict references %s, want %s", conflict.ConflictingEntryID, first.ID)
		}
	})

	t.Run("same slot different building succeeds", func(t *testing.T) {
		service := newTestService(newFakeEntryRepo(), newDirectoryStub())
		if _, err := service.CreateSchedule(ctx, validInput(t)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		other := validInput(t)
		other.BuildingID = "B2"
		if _, err := service.CreateSchedule(ctx, other); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("cancelled entries do not block the slot", func(t *testing.T) {
		service := newTestService(newFakeEntryRepo(), newDirectoryStub())
		first, err := service.CreateSchedule(ctx, validInput(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := service.UpdateStatus(ctx, first.ID, scheduler.StatusCancelled); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := service.CreateSchedule(ctx, validInput(t)); err != nil {
			t.Fatalf("slot should be free after cancellation, got %v", err)
		}
	})

	t.Run("storage failure is wrapped", func(t *testing.T) {
		repo := newFakeEntryRepo()
		repo.insertErr = errors.New("disk full")
		service := newTestService(repo, newDirectoryStub())

		_, err := service.CreateSchedule(ctx, validInput(t))
		var storageErr *StorageError
		if !errors.As(err, &storageErr) {
			t.Fatalf("expected StorageError, got %v", err)
		}
	})
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*SchedulingService, ScheduleEntry) {
		service := newTestService(newFakeEntryRepo(), newDirectoryStub())
		entry, err := service.CreateSchedule(ctx, validInput(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return service, entry
	}

	t.Run("full lifecycle", func(t *testing.T) {
		service, entry := setup(t)

		updated, err := service.UpdateStatus(ctx, entry.ID, scheduler.StatusInProgress)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if updated.Status != scheduler.StatusInProgress {
			t.Fatalf("status is %s, want in-progress", updated.Status)
		}

		updated, err = service.UpdateStatus(ctx, entry.ID, scheduler.StatusCompleted)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if updated.Status != scheduler.StatusCompleted {
			t.Fatalf("status is %s, want completed", updated.Status)
		}

		_, err = service.UpdateStatus(ctx, entry.ID, scheduler.StatusScheduled)
		var transitionErr *scheduler.IllegalTransitionError
		if !errors.As(err, &transitionErr) {
			t.Fatalf("expected IllegalTransitionError, got %v", err)
		}
	})

	t.Run("repeated target is rejected", func(t *testing.T) {
		service, entry := setup(t)
		if _, err := service.UpdateStatus(ctx, entry.ID, scheduler.StatusInProgress); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		_, err := service.UpdateStatus(ctx, entry.ID, scheduler.StatusInProgress)
		var transitionErr *scheduler.IllegalTransitionError
		if !errors.As(err, &transitionErr) {
			t.Fatalf("no-op transition should be illegal, got %v", err)
		}
	})

	t.Run("skipping in-progress is rejected and leaves status unchanged", func(t *testing.T) {
		service, entry := setup(t)
		_, err := service.UpdateStatus(ctx, entry.ID, scheduler.StatusCompleted)
		var transitionErr *scheduler.IllegalTransitionError
		if !errors.As(err, &transitionErr) {
			t.Fatalf("expected IllegalTransitionError, got %v", err)
		}
		stored, err := service.entries.GetEntry(ctx, entry.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stored.Status != scheduler.StatusScheduled {
			t.Fatalf("status mutated to %s on rejected transition", stored.Status)
		}
	})

	t.Run("unknown entry", func(t *testing.T) {
		service := newTestService(newFakeEntryRepo(), newDirectoryStub())
		_, err := service.UpdateStatus(ctx, "missing", scheduler.StatusInProgress)
		var notFound *NotFoundError
		if !errors.As(err, &notFound) || notFound.Kind != ResourceSchedule {
			t.Fatalf("expected schedule NotFoundError, got %v", err)
		}
	})

	t.Run("unknown status", func(t *testing.T) {
		service, entry := setup(t)
		_, err := service.UpdateStatus(ctx, entry.ID, scheduler.Status("done"))
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})
}

func TestReassign(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns and clears", func(t *testing.T) {
		service := newTestService(newFakeEntryRepo(), newDirectoryStub())
		entry, err := service.CreateSchedule(ctx, validInput(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		staffID := "S2"
		updated, err := service.Reassign(ctx, entry.ID, &staffID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if updated.AssignedStaffID == nil || *updated.AssignedStaffID != "S2" {
			t.Fatal("expected assignment to S2")
		}

		updated, err = service.Reassign(ctx, entry.ID, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if updated.AssignedStaffID != nil {
			t.Fatal("expected assignment to be cleared")
		}
	})

	t.Run("terminal entry rejects reassignment", func(t *testing.T) {
		service := newTestService(newFakeEntryRepo(), newDirectoryStub())
		entry, err := service.CreateSchedule(ctx, validInput(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := service.UpdateStatus(ctx, entry.ID, scheduler.StatusInProgress); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := service.UpdateStatus(ctx, entry.ID, scheduler.StatusCompleted); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		staffID := "S1"
		_, err = service.Reassign(ctx, entry.ID, &staffID)
		var stateErr *IllegalStateError
		if !errors.As(err, &stateErr) {
			t.Fatalf("expected IllegalStateError, got %v", err)
		}
		if stateErr.Operation != "reassign" || stateErr.Status != scheduler.StatusCompleted {
			t.Fatalf("unexpected error detail: %+v", stateErr)
		}
	})
}

func TestReschedule(t *testing.T) {
	ctx := context.Background()

	t.Run("moves the entry without colliding with itself", func(t *testing.T) {
		service := newTestService(newFakeEntryRepo(), newDirectoryStub())
		entry, err := service.CreateSchedule(ctx, validInput(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		updated, err := service.Reschedule(ctx, entry.ID, entry.Date, mustSlot(t, "09:30-10:30"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if updated.Slot.String() != "09:30-10:30" {
			t.Fatalf("slot is %s after reschedule", updated.Slot)
		}
	})

	t.Run("collision with another entry", func(t *testing.T) {
		service := newTestService(newFakeEntryRepo(), newDirectoryStub())
		first, err := service.CreateSchedule(ctx, validInput(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second := validInput(t)
		second.Slot = mustSlot(t, "11:00-12:00")
		moved, err := service.CreateSchedule(ctx, second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		_, err = service.Reschedule(ctx, moved.ID, moved.Date, mustSlot(t, "09:30-10:30"))
		var conflict *ConflictError
		if !errors.As(err, &conflict) {
			t.Fatalf("expected ConflictError, got %v", err)
		}
		if conflict.ConflictingEntryID != first.ID {
			t.Fatalf("conflict references %s, want %s", conflict.ConflictingEntryID, first.ID)
		}
	})

	t.Run("in-progress entry rejects reschedule", func(t *testing.T) {
		service := newTestService(newFakeEntryRepo(), newDirectoryStub())
		entry, err := service.CreateSchedule(ctx, validInput(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := service.UpdateStatus(ctx, entry.ID, scheduler.StatusInProgress); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		_, err = service.Reschedule(ctx, entry.ID, entry.Date, mustSlot(t, "11:00-12:00"))
		var stateErr *IllegalStateError
		if !errors.As(err, &stateErr) {
			t.Fatalf("expected IllegalStateError, got %v", err)
		}
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("pre-terminal entries delete", func(t *testing.T) {
		service := newTestService(newFakeEntryRepo(), newDirectoryStub())
		entry, err := service.CreateSchedule(ctx, validInput(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := service.Delete(ctx, entry.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := service.entries.GetEntry(ctx, entry.ID); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatal("entry should be gone")
		}
	})

	t.Run("terminal entries are retained", func(t *testing.T) {
		service := newTestService(newFakeEntryRepo(), newDirectoryStub())
		entry, err := service.CreateSchedule(ctx, validInput(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := service.UpdateStatus(ctx, entry.ID, scheduler.StatusCancelled); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		err = service.Delete(ctx, entry.ID)
		var stateErr *IllegalStateError
		if !errors.As(err, &stateErr) {
			t.Fatalf("expected IllegalStateError, got %v", err)
		}
		if _, err := service.entries.GetEntry(ctx, entry.ID); err != nil {
			t.Fatal("terminal entry must survive delete attempts")
		}
	})
}

func TestConcurrentCreatesCannotDoubleBook(t *testing.T) {
	ctx := context.Background()
	service := newTestService(newFakeEntryRepo(), newDirectoryStub())

	const attempts = 16
	input := validInput(t)
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = service.CreateSchedule(ctx, input)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var conflict *ConflictError
		if !errors.As(err, &conflict) {
			t.Fatalf("unexpected error kind: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("%d concurrent creates succeeded for one slot, want exactly 1", succeeded)
	}
}
