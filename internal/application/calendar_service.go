package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/collection-scheduler/internal/persistence"
	"github.com/example/collection-scheduler/internal/scheduler"
)

// CalendarService computes read-only projections for operational dashboards.
// It never mutates the store; consumers depend on it instead of reading the
// store directly so every write keeps passing through the scheduling service.
type CalendarService struct {
	entries   ScheduleRepository
	directory Directory
	weekStart time.Weekday
	logger    *slog.Logger
}

// NewCalendarService wires dependencies for calendar projections. The week
// boundary is a fixed convention chosen at deployment, not inferred from
// locale.
func NewCalendarService(entries ScheduleRepository, directory Directory, weekStart time.Weekday) *CalendarService {
	return NewCalendarServiceWithLogger(entries, directory, weekStart, nil)
}

// NewCalendarServiceWithLogger constructs a calendar service with a specified
// logger.
func NewCalendarServiceWithLogger(entries ScheduleRepository, directory Directory, weekStart time.Weekday, logger *slog.Logger) *CalendarService {
	return &CalendarService{
		entries:   entries,
		directory: directory,
		weekStart: weekStart,
		logger:    defaultLogger(logger),
	}
}

func (s *CalendarService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "CalendarService", operation, attrs...)
}

// DayView returns the entries for a single date with per-status counts. The
// counts always carry every lifecycle state and sum to the entry count.
func (s *CalendarService) DayView(ctx context.Context, date scheduler.Date) (view DayView, err error) {
	if s == nil {
		err = fmt.Errorf("CalendarService is nil")
		return
	}

	logger := s.loggerWith(ctx, "DayView", "date", date.String())
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to compute day view", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if date.IsZero() {
		vErr := &ValidationError{}
		vErr.add("date", "date is required")
		err = vErr
		return
	}

	entries, repoErr := s.entries.EntriesByDate(ctx, date)
	if repoErr != nil {
		err = &StorageError{Op: "query by date", Err: repoErr}
		return
	}

	view = DayView{
		Date:           date,
		Entries:        entries,
		CountsByStatus: countsByStatus(entries),
	}
	return
}

// WeekView returns the seven days of the week containing the reference date,
// beginning on the configured week-start weekday. Each day is computed
// independently from the store's date query.
func (s *CalendarService) WeekView(ctx context.Context, reference scheduler.Date) (view WeekView, err error) {
	if s == nil {
		err = fmt.Errorf("CalendarService is nil")
		return
	}

	logger := s.loggerWith(ctx, "WeekView", "reference", reference.String())
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to compute week view", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if reference.IsZero() {
		vErr := &ValidationError{}
		vErr.add("date", "date is required")
		err = vErr
		return
	}

	start := reference.StartOfWeek(s.weekStart)
	view.Start = start
	for offset := 0; offset < 7; offset++ {
		day, dayErr := s.DayView(ctx, start.AddDays(offset))
		if dayErr != nil {
			view = WeekView{}
			err = dayErr
			return
		}
		view.Days[offset] = day
	}
	return
}

// Search returns entries matching the filter, enriched with building name and
// address resolved live from the directory. All populated filter fields are
// conjunctive; the text query matches case-insensitively against the joined
// building fields.
func (s *CalendarService) Search(ctx context.Context, filter SearchFilter) (results []EntryView, err error) {
	if s == nil {
		err = fmt.Errorf("CalendarService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Search")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to search schedules", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if filter.Status != nil && !filter.Status.Valid() {
		vErr := &ValidationError{}
		vErr.add("status", "unknown status")
		err = vErr
		return
	}

	var entries []ScheduleEntry
	var repoErr error
	if filter.DateEquals != nil {
		entries, repoErr = s.entries.EntriesByDate(ctx, *filter.DateEquals)
	} else {
		// Zero bounds are unbounded in the range query.
		entries, repoErr = s.entries.EntriesByDateRange(ctx, scheduler.Date{}, scheduler.Date{})
	}
	if repoErr != nil {
		err = &StorageError{Op: "query entries", Err: repoErr}
		return
	}

	query := strings.ToLower(strings.TrimSpace(filter.TextQuery))
	buildings := make(map[string]Building, 8)
	results = make([]EntryView, 0, len(entries))

	for _, entry := range entries {
		if filter.Status != nil && entry.Status != *filter.Status {
			continue
		}

		building, ok := buildings[entry.BuildingID]
		if !ok {
			building, err = s.lookupBuilding(ctx, entry.BuildingID)
			if err != nil {
				results = nil
				return
			}
			buildings[entry.BuildingID] = building
		}

		if query != "" && !matchesQuery(building, query) {
			continue
		}

		results = append(results, EntryView{
			Entry:           entry,
			BuildingName:    building.Name,
			BuildingAddress: building.Address,
		})
	}
	return
}

// lookupBuilding tolerates a missing directory record: the entry is still
// returned, with empty display fields, rather than hiding schedule state.
func (s *CalendarService) lookupBuilding(ctx context.Context, id string) (Building, error) {
	if s.directory == nil {
		return Building{}, nil
	}
	building, err := s.directory.ResolveBuilding(ctx, id)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Building{ID: id}, nil
		}
		return Building{}, &StorageError{Op: "resolve building", Err: err}
	}
	return building, nil
}

func matchesQuery(building Building, loweredQuery string) bool {
	return strings.Contains(strings.ToLower(building.Name), loweredQuery) ||
		strings.Contains(strings.ToLower(building.Address), loweredQuery)
}

func countsByStatus(entries []ScheduleEntry) map[scheduler.Status]int {
	counts := make(map[scheduler.Status]int, 4)
	for _, status := range scheduler.Statuses() {
		counts[status] = 0
	}
	for _, entry := range entries {
		counts[entry.Status]++
	}
	return counts
}
