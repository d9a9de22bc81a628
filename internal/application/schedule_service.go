package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/collection-scheduler/internal/persistence"
	"github.com/example/collection-scheduler/internal/scheduler"
)

// ScheduleRepository captures the persistence interactions needed by the
// scheduling service. Implementations return persistence sentinel errors;
// the service maps them to the caller-facing taxonomy.
type ScheduleRepository interface {
	InsertEntry(ctx context.Context, entry ScheduleEntry) (ScheduleEntry, error)
	GetEntry(ctx context.Context, id string) (ScheduleEntry, error)
	UpdateEntry(ctx context.Context, entry ScheduleEntry) (ScheduleEntry, error)
	DeleteEntry(ctx context.Context, id string) error
	EntriesByDate(ctx context.Context, date scheduler.Date) ([]ScheduleEntry, error)
	EntriesByDateRange(ctx context.Context, start, end scheduler.Date) ([]ScheduleEntry, error)
	EntriesByBuilding(ctx context.Context, buildingID string) ([]ScheduleEntry, error)
	EntriesByBuildingDate(ctx context.Context, buildingID string, date scheduler.Date) ([]ScheduleEntry, error)
}

// Directory is the external read-only source of valid building and staff
// identifiers. Implementations return persistence.ErrNotFound for unknown ids.
type Directory interface {
	ResolveBuilding(ctx context.Context, id string) (Building, error)
	ResolveStaff(ctx context.Context, id string) (StaffMember, error)
}

// SchedulingService is the only entry point for schedule mutations. It
// composes the directory, the conflict detector, the transition table, and
// the store, and enforces every invariant atomically: any precondition
// failure aborts the operation with no partial mutation.
type SchedulingService struct {
	entries     ScheduleRepository
	directory   Directory
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
	locks       *keyedMutex
}

// NewSchedulingService wires dependencies for schedule mutations.
func NewSchedulingService(entries ScheduleRepository, directory Directory, idGenerator func() string, now func() time.Time) *SchedulingService {
	return NewSchedulingServiceWithLogger(entries, directory, idGenerator, now, nil)
}

// NewSchedulingServiceWithLogger constructs a scheduling service with a
// specified logger.
func NewSchedulingServiceWithLogger(entries ScheduleRepository, directory Directory, idGenerator func() string, now func() time.Time, logger *slog.Logger) *SchedulingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &SchedulingService{
		entries:     entries,
		directory:   directory,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
		locks:       newKeyedMutex(),
	}
}

func (s *SchedulingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SchedulingService", operation, attrs...)
}

// Lock keys. Conflict-sensitive mutations serialize per (building, date) so
// the conflict check stays atomic with the write it guards; entry-scoped
// mutations serialize per entry id.
func buildingDateKey(buildingID string, date scheduler.Date) string {
	return "bd|" + buildingID + "|" + date.String()
}

func entryKey(id string) string {
	return "entry|" + id
}

// CreateSchedule validates referential integrity and conflicts, then inserts
// a new entry in state scheduled.
func (s *SchedulingService) CreateSchedule(ctx context.Context, input CreateScheduleInput) (entry ScheduleEntry, err error) {
	if s == nil {
		err = fmt.Errorf("SchedulingService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateSchedule",
		"building_id", input.BuildingID,
		"date", input.Date.String(),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create schedule", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("entry_id", entry.ID).InfoContext(ctx, "schedule created")
	}()

	vErr := &ValidationError{}
	validateScheduleCore(input.BuildingID, input.Date, input.Slot, vErr)
	if !input.CollectionType.Valid() {
		vErr.add("collection_type", "must be one of wet, dry, mixed, all")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	// Directory lookups are external, potentially latent calls; they resolve
	// before the conflict-sensitive critical section begins.
	if _, err = s.resolveBuilding(ctx, input.BuildingID); err != nil {
		return
	}
	if err = s.validateAssignee(ctx, input.AssignedStaffID); err != nil {
		return
	}

	unlock := s.locks.Lock(buildingDateKey(input.BuildingID, input.Date))
	defer unlock()

	if err = s.checkConflict(ctx, input.BuildingID, input.Date, input.Slot, ""); err != nil {
		return
	}

	createdAt := s.now()
	entry = ScheduleEntry{
		ID:              s.idGenerator(),
		BuildingID:      input.BuildingID,
		Date:            input.Date,
		Slot:            input.Slot,
		CollectionType:  input.CollectionType,
		Status:          scheduler.StatusScheduled,
		AssignedStaffID: cloneOptionalID(input.AssignedStaffID),
		Notes:           input.Notes,
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}

	persisted, repoErr := s.entries.InsertEntry(ctx, entry)
	if repoErr != nil {
		err = s.mapEntryRepoError("insert", entry.ID, repoErr)
		return
	}

	entry = persisted
	return
}

// GetSchedule returns one entry by id.
func (s *SchedulingService) GetSchedule(ctx context.Context, id string) (entry ScheduleEntry, err error) {
	if s == nil {
		err = fmt.Errorf("SchedulingService is nil")
		return
	}

	persisted, repoErr := s.entries.GetEntry(ctx, id)
	if repoErr != nil {
		err = s.mapEntryRepoError("get", id, repoErr)
		return
	}

	entry = persisted
	return
}

// UpdateStatus advances the entry lifecycle. Transitions outside the table,
// including no-op transitions, are rejected and leave the entry unchanged.
func (s *SchedulingService) UpdateStatus(ctx context.Context, id string, newStatus scheduler.Status) (entry ScheduleEntry, err error) {
	if s == nil {
		err = fmt.Errorf("SchedulingService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateStatus", "entry_id", id, "new_status", string(newStatus))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update status", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "status updated")
	}()

	if !newStatus.Valid() {
		vErr := &ValidationError{}
		vErr.add("status", "unknown status")
		err = vErr
		return
	}

	unlock := s.locks.Lock(entryKey(id))
	defer unlock()

	current, repoErr := s.entries.GetEntry(ctx, id)
	if repoErr != nil {
		err = s.mapEntryRepoError("get", id, repoErr)
		return
	}

	if err = scheduler.ValidateTransition(current.Status, newStatus); err != nil {
		return
	}

	current.Status = newStatus
	current.UpdatedAt = s.now()

	persisted, repoErr := s.entries.UpdateEntry(ctx, current)
	if repoErr != nil {
		err = s.mapEntryRepoError("update", id, repoErr)
		return
	}

	entry = persisted
	return
}

// Reassign changes the assigned staff member, or clears the assignment when
// newStaffID is nil. Permitted only while the entry is scheduled or
// in-progress.
func (s *SchedulingService) Reassign(ctx context.Context, id string, newStaffID *string) (entry ScheduleEntry, err error) {
	if s == nil {
		err = fmt.Errorf("SchedulingService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Reassign", "entry_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to reassign", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "entry reassigned")
	}()

	if err = s.validateAssignee(ctx, newStaffID); err != nil {
		return
	}

	unlock := s.locks.Lock(entryKey(id))
	defer unlock()

	current, repoErr := s.entries.GetEntry(ctx, id)
	if repoErr != nil {
		err = s.mapEntryRepoError("get", id, repoErr)
		return
	}

	if current.Status.Terminal() {
		err = &IllegalStateError{Operation: "reassign", Status: current.Status}
		return
	}

	current.AssignedStaffID = cloneOptionalID(newStaffID)
	current.UpdatedAt = s.now()

	persisted, repoErr := s.entries.UpdateEntry(ctx, current)
	if repoErr != nil {
		err = s.mapEntryRepoError("update", id, repoErr)
		return
	}

	entry = persisted
	return
}

// Reschedule moves an entry to a new date and slot, re-running conflict
// detection with the entry excluded so it does not collide with itself.
// Permitted only while the entry is scheduled.
func (s *SchedulingService) Reschedule(ctx context.Context, id string, newDate scheduler.Date, newSlot scheduler.TimeSlot) (entry ScheduleEntry, err error) {
	if s == nil {
		err = fmt.Errorf("SchedulingService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Reschedule", "entry_id", id, "new_date", newDate.String())
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to reschedule", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "entry rescheduled")
	}()

	vErr := &ValidationError{}
	validateDateAndSlot(newDate, newSlot, vErr)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	// The building id is immutable, so a preliminary read is enough to derive
	// the lock keys. The entry is read again under the lock before deciding.
	preliminary, repoErr := s.entries.GetEntry(ctx, id)
	if repoErr != nil {
		err = s.mapEntryRepoError("get", id, repoErr)
		return
	}

	unlock := s.locks.Lock(entryKey(id), buildingDateKey(preliminary.BuildingID, newDate))
	defer unlock()

	current, repoErr := s.entries.GetEntry(ctx, id)
	if repoErr != nil {
		err = s.mapEntryRepoError("get", id, repoErr)
		return
	}

	if current.Status != scheduler.StatusScheduled {
		err = &IllegalStateError{Operation: "reschedule", Status: current.Status}
		return
	}

	if err = s.checkConflict(ctx, current.BuildingID, newDate, newSlot, id); err != nil {
		return
	}

	current.Date = newDate
	current.Slot = newSlot
	current.UpdatedAt = s.now()

	persisted, repoErr := s.entries.UpdateEntry(ctx, current)
	if repoErr != nil {
		err = s.mapEntryRepoError("update", id, repoErr)
		return
	}

	entry = persisted
	return
}

// Delete removes a pre-terminal entry. Completed and cancelled entries are
// retained for audit and reject deletion.
func (s *SchedulingService) Delete(ctx context.Context, id string) (err error) {
	if s == nil {
		return fmt.Errorf("SchedulingService is nil")
	}

	logger := s.loggerWith(ctx, "Delete", "entry_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "entry deleted")
	}()

	unlock := s.locks.Lock(entryKey(id))
	defer unlock()

	current, repoErr := s.entries.GetEntry(ctx, id)
	if repoErr != nil {
		return s.mapEntryRepoError("get", id, repoErr)
	}

	if current.Status.Terminal() {
		return &IllegalStateError{Operation: "delete", Status: current.Status}
	}

	if repoErr := s.entries.DeleteEntry(ctx, id); repoErr != nil {
		return s.mapEntryRepoError("delete", id, repoErr)
	}

	return nil
}

func (s *SchedulingService) resolveBuilding(ctx context.Context, id string) (Building, error) {
	if s.directory == nil {
		return Building{}, fmt.Errorf("directory not configured")
	}
	building, err := s.directory.ResolveBuilding(ctx, id)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Building{}, &NotFoundError{Kind: ResourceBuilding, ID: id}
		}
		return Building{}, &StorageError{Op: "resolve building", Err: err}
	}
	return building, nil
}

func (s *SchedulingService) validateAssignee(ctx context.Context, staffID *string) error {
	if staffID == nil {
		return nil
	}
	if s.directory == nil {
		return fmt.Errorf("directory not configured")
	}
	staff, err := s.directory.ResolveStaff(ctx, *staffID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return &NotFoundError{Kind: ResourceStaff, ID: *staffID}
		}
		return &StorageError{Op: "resolve staff", Err: err}
	}
	if !staff.Role.Eligible() {
		vErr := &ValidationError{}
		vErr.add("assigned_staff_id", fmt.Sprintf("role %q is not eligible for assignment", staff.Role))
		return vErr
	}
	return nil
}

// checkConflict rejects any slot that overlaps a non-cancelled entry for the
// same building and date. Callers hold the (building, date) lock so the read
// stays atomic with the write it guards.
func (s *SchedulingService) checkConflict(ctx context.Context, buildingID string, date scheduler.Date, slot scheduler.TimeSlot, excludeID string) error {
	existing, err := s.entries.EntriesByBuildingDate(ctx, buildingID, date)
	if err != nil {
		return s.mapEntryRepoError("query by building and date", "", err)
	}

	bookings := make([]scheduler.Booking, 0, len(existing))
	for _, candidate := range existing {
		if candidate.Status == scheduler.StatusCancelled {
			continue
		}
		bookings = append(bookings, scheduler.Booking{EntryID: candidate.ID, Slot: candidate.Slot})
	}

	if conflict := scheduler.DetectConflict(bookings, scheduler.Booking{EntryID: excludeID, Slot: slot}); conflict != nil {
		return &ConflictError{ConflictingEntryID: conflict.WithEntryID}
	}
	return nil
}

func (s *SchedulingService) mapEntryRepoError(op, id string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return &NotFoundError{Kind: ResourceSchedule, ID: id}
	}
	if errors.Is(err, persistence.ErrConstraintViolation) || errors.Is(err, persistence.ErrForeignKeyViolation) {
		vErr := &ValidationError{}
		vErr.add("entry", "entry references a missing or invalid record")
		return vErr
	}
	return &StorageError{Op: op, Err: err}
}

func validateScheduleCore(buildingID string, date scheduler.Date, slot scheduler.TimeSlot, vErr *ValidationError) {
	if buildingID == "" {
		vErr.add("building_id", "building is required")
	}
	validateDateAndSlot(date, slot, vErr)
}

func validateDateAndSlot(date scheduler.Date, slot scheduler.TimeSlot, vErr *ValidationError) {
	if date.IsZero() {
		vErr.add("date", "date is required")
	}
	if slot.IsZero() {
		vErr.add("time_slot", "time slot is required")
	} else if !slot.Canonical() {
		vErr.add("time_slot", "time slot is not in the catalog")
	}
}

func cloneOptionalID(id *string) *string {
	if id == nil {
		return nil
	}
	out := *id
	return &out
}
