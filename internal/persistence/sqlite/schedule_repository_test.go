package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/collection-scheduler/internal/persistence"
	"github.com/example/collection-scheduler/internal/scheduler"
)

var testClock = func() time.Time {
	return time.Date(2025, time.January, 15, 8, 0, 0, 0, time.UTC)
}

func setupScheduleRepository(t *testing.T) *ScheduleRepository {
	t.Helper()
	return NewScheduleRepositoryWithClock(setupPool(t), testClock)
}

func testEntry(t *testing.T, id string) persistence.ScheduleEntry {
	t.Helper()
	return persistence.ScheduleEntry{
		ID:             id,
		BuildingID:     "b1",
		Date:           mustDate(t, "2025-01-15"),
		Slot:           mustSlot(t, "09:00-09:30"),
		CollectionType: scheduler.CollectionWet,
		Status:         scheduler.StatusScheduled,
		Notes:          "gate code 4711",
	}
}

func TestScheduleRepository_InsertAndGet(t *testing.T) {
	repo := setupScheduleRepository(t)
	ctx := context.Background()

	inserted, err := repo.InsertEntry(ctx, testEntry(t, "e1"))
	require.NoError(t, err)
	require.Equal(t, testClock(), inserted.CreatedAt)
	require.Equal(t, inserted.CreatedAt, inserted.UpdatedAt)

	got, err := repo.GetEntry(ctx, "e1")
	require.NoError(t, err)
	require.Equal(t, "b1", got.BuildingID)
	require.Equal(t, "2025-01-15", got.Date.String())
	require.Equal(t, mustSlot(t, "09:00-09:30"), got.Slot)
	require.Equal(t, scheduler.CollectionWet, got.CollectionType)
	require.Equal(t, scheduler.StatusScheduled, got.Status)
	require.Nil(t, got.AssignedStaffID)
	require.Equal(t, "gate code 4711", got.Notes)
	require.True(t, got.CreatedAt.Equal(testClock()))
}

func TestScheduleRepository_InsertDuplicateID(t *testing.T) {
	repo := setupScheduleRepository(t)
	ctx := context.Background()

	_, err := repo.InsertEntry(ctx, testEntry(t, "e1"))
	require.NoError(t, err)

	_, err = repo.InsertEntry(ctx, testEntry(t, "e1"))
	require.ErrorIs(t, err, persistence.ErrDuplicate)
}

func TestScheduleRepository_InsertUnknownBuilding(t *testing.T) {
	repo := setupScheduleRepository(t)

	entry := testEntry(t, "e1")
	entry.BuildingID = "no-such-building"

	_, err := repo.InsertEntry(context.Background(), entry)
	require.ErrorIs(t, err, persistence.ErrForeignKeyViolation)
}

func TestScheduleRepository_InsertUnknownStaff(t *testing.T) {
	repo := setupScheduleRepository(t)

	staffID := "no-such-staff"
	entry := testEntry(t, "e1")
	entry.AssignedStaffID = &staffID

	_, err := repo.InsertEntry(context.Background(), entry)
	require.ErrorIs(t, err, persistence.ErrForeignKeyViolation)
}

func TestScheduleRepository_InsertInvertedSlot(t *testing.T) {
	repo := setupScheduleRepository(t)

	entry := testEntry(t, "e1")
	entry.Slot = scheduler.TimeSlot{Start: 600, End: 540}

	_, err := repo.InsertEntry(context.Background(), entry)
	require.ErrorIs(t, err, persistence.ErrConstraintViolation)
}

func TestScheduleRepository_GetMissing(t *testing.T) {
	repo := setupScheduleRepository(t)

	_, err := repo.GetEntry(context.Background(), "ghost")
	require.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestScheduleRepository_Update(t *testing.T) {
	repo := setupScheduleRepository(t)
	ctx := context.Background()

	_, err := repo.InsertEntry(ctx, testEntry(t, "e1"))
	require.NoError(t, err)

	staffID := "s1"
	entry := testEntry(t, "e1")
	entry.Status = scheduler.StatusInProgress
	entry.AssignedStaffID = &staffID
	entry.Notes = "crew on site"
	entry.UpdatedAt = time.Time{}

	updated, err := repo.UpdateEntry(ctx, entry)
	require.NoError(t, err)
	require.Equal(t, scheduler.StatusInProgress, updated.Status)
	require.NotNil(t, updated.AssignedStaffID)
	require.Equal(t, "s1", *updated.AssignedStaffID)
	require.Equal(t, "crew on site", updated.Notes)
	require.True(t, updated.UpdatedAt.Equal(testClock()))
}

func TestScheduleRepository_UpdateClearsAssignee(t *testing.T) {
	repo := setupScheduleRepository(t)
	ctx := context.Background()

	staffID := "s1"
	entry := testEntry(t, "e1")
	entry.AssignedStaffID = &staffID
	_, err := repo.InsertEntry(ctx, entry)
	require.NoError(t, err)

	entry.AssignedStaffID = nil
	updated, err := repo.UpdateEntry(ctx, entry)
	require.NoError(t, err)
	require.Nil(t, updated.AssignedStaffID)
}

func TestScheduleRepository_UpdateMissing(t *testing.T) {
	repo := setupScheduleRepository(t)

	_, err := repo.UpdateEntry(context.Background(), testEntry(t, "ghost"))
	require.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestScheduleRepository_Delete(t *testing.T) {
	repo := setupScheduleRepository(t)
	ctx := context.Background()

	_, err := repo.InsertEntry(ctx, testEntry(t, "e1"))
	require.NoError(t, err)

	require.NoError(t, repo.DeleteEntry(ctx, "e1"))

	_, err = repo.GetEntry(ctx, "e1")
	require.ErrorIs(t, err, persistence.ErrNotFound)

	require.ErrorIs(t, repo.DeleteEntry(ctx, "e1"), persistence.ErrNotFound)
}

func TestScheduleRepository_EntriesByDateOrdering(t *testing.T) {
	repo := setupScheduleRepository(t)
	ctx := context.Background()

	late := testEntry(t, "e-late")
	late.Slot = mustSlot(t, "14:00-15:00")
	early := testEntry(t, "e-early")
	early.Slot = mustSlot(t, "08:00-08:30")
	tieB := testEntry(t, "e-tie-b")
	tieB.Slot = mustSlot(t, "10:00-10:30")
	tieA := testEntry(t, "e-tie-a")
	tieA.Slot = mustSlot(t, "10:00-10:30")
	tieA.BuildingID = "b2"

	for _, entry := range []persistence.ScheduleEntry{late, early, tieB, tieA} {
		_, err := repo.InsertEntry(ctx, entry)
		require.NoError(t, err)
	}

	entries, err := repo.EntriesByDate(ctx, mustDate(t, "2025-01-15"))
	require.NoError(t, err)
	require.Len(t, entries, 4)
	require.Equal(t, "e-early", entries[0].ID)
	require.Equal(t, "e-tie-a", entries[1].ID)
	require.Equal(t, "e-tie-b", entries[2].ID)
	require.Equal(t, "e-late", entries[3].ID)
}

func TestScheduleRepository_EntriesByDateEmpty(t *testing.T) {
	repo := setupScheduleRepository(t)

	entries, err := repo.EntriesByDate(context.Background(), mustDate(t, "2030-06-01"))
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestScheduleRepository_EntriesByDateRange(t *testing.T) {
	repo := setupScheduleRepository(t)
	ctx := context.Background()

	dates := []string{"2025-01-13", "2025-01-15", "2025-01-20"}
	for _, date := range dates {
		entry := testEntry(t, "e"+date)
		entry.Date = mustDate(t, date)
		_, err := repo.InsertEntry(ctx, entry)
		require.NoError(t, err)
	}

	bounded, err := repo.EntriesByDateRange(ctx, mustDate(t, "2025-01-14"), mustDate(t, "2025-01-19"))
	require.NoError(t, err)
	require.Len(t, bounded, 1)
	require.Equal(t, "2025-01-15", bounded[0].Date.String())

	fromOnly, err := repo.EntriesByDateRange(ctx, mustDate(t, "2025-01-15"), scheduler.Date{})
	require.NoError(t, err)
	require.Len(t, fromOnly, 2)

	all, err := repo.EntriesByDateRange(ctx, scheduler.Date{}, scheduler.Date{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "2025-01-13", all[0].Date.String())
	require.Equal(t, "2025-01-20", all[2].Date.String())
}

func TestScheduleRepository_EntriesByBuildingDate(t *testing.T) {
	repo := setupScheduleRepository(t)
	ctx := context.Background()

	first := testEntry(t, "e1")
	other := testEntry(t, "e2")
	other.BuildingID = "b2"
	otherDay := testEntry(t, "e3")
	otherDay.Date = mustDate(t, "2025-01-16")

	for _, entry := range []persistence.ScheduleEntry{first, other, otherDay} {
		_, err := repo.InsertEntry(ctx, entry)
		require.NoError(t, err)
	}

	entries, err := repo.EntriesByBuildingDate(ctx, "b1", mustDate(t, "2025-01-15"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "e1", entries[0].ID)

	byBuilding, err := repo.EntriesByBuilding(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, byBuilding, 2)
}
