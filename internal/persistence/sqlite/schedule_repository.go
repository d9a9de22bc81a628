package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/collection-scheduler/internal/persistence"
	"github.com/example/collection-scheduler/internal/scheduler"
)

// ScheduleRepository implements persistence.ScheduleRepository using SQLite.
type ScheduleRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
	now    func() time.Time
}

// NewScheduleRepository creates a SQLite schedule repository.
func NewScheduleRepository(pool *ConnectionPool) *ScheduleRepository {
	return NewScheduleRepositoryWithClock(pool, time.Now)
}

// NewScheduleRepositoryWithClock creates a repository using the supplied clock
// for timestamp stamping.
func NewScheduleRepositoryWithClock(pool *ConnectionPool, now func() time.Time) *ScheduleRepository {
	if now == nil {
		now = time.Now
	}
	return &ScheduleRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
		now:    now,
	}
}

const entryColumns = "id, building_id, date, slot_start, slot_end, collection_type, status, assigned_staff_id, notes, created_at, updated_at"

// InsertEntry stores a new schedule entry. Zero timestamps are stamped with
// the repository clock.
func (r *ScheduleRepository) InsertEntry(ctx context.Context, entry persistence.ScheduleEntry) (persistence.ScheduleEntry, error) {
	if entry.ID == "" {
		return persistence.ScheduleEntry{}, persistence.ErrConstraintViolation
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now().UTC()
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = entry.CreatedAt
	}

	query := `
		INSERT INTO schedule_entries (` + entryColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		entry.ID,
		entry.BuildingID,
		entry.Date.String(),
		int(entry.Slot.Start),
		int(entry.Slot.End),
		string(entry.CollectionType),
		string(entry.Status),
		optionalString(entry.AssignedStaffID),
		entry.Notes,
		entry.CreatedAt.UTC().Format(time.RFC3339),
		entry.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return persistence.ScheduleEntry{}, r.mapper.MapError(err)
	}

	return entry, nil
}

// GetEntry retrieves a schedule entry by id.
func (r *ScheduleRepository) GetEntry(ctx context.Context, id string) (persistence.ScheduleEntry, error) {
	if id == "" {
		return persistence.ScheduleEntry{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx, "SELECT "+entryColumns+" FROM schedule_entries WHERE id = ?", id)
	entry, err := scanEntryRow(row.Scan)
	if err != nil {
		return persistence.ScheduleEntry{}, r.mapper.MapError(err)
	}
	return entry, nil
}

// UpdateEntry persists a full entry mutation. The updated_at column is
// stamped with the repository clock when the caller left it unchanged from
// zero.
func (r *ScheduleRepository) UpdateEntry(ctx context.Context, entry persistence.ScheduleEntry) (persistence.ScheduleEntry, error) {
	if entry.ID == "" {
		return persistence.ScheduleEntry{}, persistence.ErrNotFound
	}

	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = r.now().UTC()
	}

	query := `
		UPDATE schedule_entries
		SET building_id = ?, date = ?, slot_start = ?, slot_end = ?,
		    collection_type = ?, status = ?, assigned_staff_id = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.helper.Exec(ctx, query,
		entry.BuildingID,
		entry.Date.String(),
		int(entry.Slot.Start),
		int(entry.Slot.End),
		string(entry.CollectionType),
		string(entry.Status),
		optionalString(entry.AssignedStaffID),
		entry.Notes,
		entry.UpdatedAt.UTC().Format(time.RFC3339),
		entry.ID,
	)
	if err != nil {
		return persistence.ScheduleEntry{}, r.mapper.MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.ScheduleEntry{}, fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ScheduleEntry{}, persistence.ErrNotFound
	}

	return r.GetEntry(ctx, entry.ID)
}

// DeleteEntry removes a schedule entry by id.
func (r *ScheduleRepository) DeleteEntry(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx, "DELETE FROM schedule_entries WHERE id = ?", id)
	if err != nil {
		return r.mapper.MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}

	return nil
}

// EntriesByDate returns all entries for a calendar date.
func (r *ScheduleRepository) EntriesByDate(ctx context.Context, date scheduler.Date) ([]persistence.ScheduleEntry, error) {
	return r.queryEntries(ctx, []string{"date = ?"}, []any{date.String()})
}

// EntriesByDateRange returns entries between start and end inclusive. A zero
// bound is unbounded.
func (r *ScheduleRepository) EntriesByDateRange(ctx context.Context, start, end scheduler.Date) ([]persistence.ScheduleEntry, error) {
	var conditions []string
	var args []any
	if !start.IsZero() {
		conditions = append(conditions, "date >= ?")
		args = append(args, start.String())
	}
	if !end.IsZero() {
		conditions = append(conditions, "date <= ?")
		args = append(args, end.String())
	}
	return r.queryEntries(ctx, conditions, args)
}

// EntriesByBuilding returns all entries referencing a building.
func (r *ScheduleRepository) EntriesByBuilding(ctx context.Context, buildingID string) ([]persistence.ScheduleEntry, error) {
	return r.queryEntries(ctx, []string{"building_id = ?"}, []any{buildingID})
}

// EntriesByBuildingDate returns the entries the conflict detector inspects:
// everything for one building on one date.
func (r *ScheduleRepository) EntriesByBuildingDate(ctx context.Context, buildingID string, date scheduler.Date) ([]persistence.ScheduleEntry, error) {
	return r.queryEntries(ctx, []string{"building_id = ?", "date = ?"}, []any{buildingID, date.String()})
}

func (r *ScheduleRepository) queryEntries(ctx context.Context, conditions []string, args []any) ([]persistence.ScheduleEntry, error) {
	query := "SELECT " + entryColumns + " FROM schedule_entries"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date ASC, slot_start ASC, id ASC"

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var entries []persistence.ScheduleEntry
	for rows.Next() {
		entry, err := scanEntryRow(rows.Scan)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return entries, nil
}

func scanEntryRow(scan func(dest ...any) error) (persistence.ScheduleEntry, error) {
	var entry persistence.ScheduleEntry
	var dateStr, collectionType, status, createdAtStr, updatedAtStr string
	var slotStart, slotEnd int
	var assignedStaffID sql.NullString

	err := scan(
		&entry.ID,
		&entry.BuildingID,
		&dateStr,
		&slotStart,
		&slotEnd,
		&collectionType,
		&status,
		&assignedStaffID,
		&entry.Notes,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return persistence.ScheduleEntry{}, err
	}

	if entry.Date, err = scheduler.ParseDate(dateStr); err != nil {
		return persistence.ScheduleEntry{}, fmt.Errorf("sqlite: parse date: %w", err)
	}
	entry.Slot = scheduler.TimeSlot{Start: scheduler.ClockTime(slotStart), End: scheduler.ClockTime(slotEnd)}
	if entry.CollectionType, err = scheduler.ParseCollectionType(collectionType); err != nil {
		return persistence.ScheduleEntry{}, fmt.Errorf("sqlite: parse collection type: %w", err)
	}
	if entry.Status, err = scheduler.ParseStatus(status); err != nil {
		return persistence.ScheduleEntry{}, fmt.Errorf("sqlite: parse status: %w", err)
	}
	if assignedStaffID.Valid {
		entry.AssignedStaffID = &assignedStaffID.String
	}
	if entry.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.ScheduleEntry{}, fmt.Errorf("sqlite: parse created_at: %w", err)
	}
	if entry.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.ScheduleEntry{}, fmt.Errorf("sqlite: parse updated_at: %w", err)
	}

	return entry, nil
}

func optionalString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}
