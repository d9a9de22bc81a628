package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/collection-scheduler/internal/application"
	"github.com/example/collection-scheduler/internal/config"
	httptransport "github.com/example/collection-scheduler/internal/http"
	"github.com/example/collection-scheduler/internal/persistence"
	"github.com/example/collection-scheduler/internal/persistence/sqlite"
	"github.com/example/collection-scheduler/internal/scheduler"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	pool, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := pool.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	now := time.Now

	entryRepo := newEntryRepositoryAdapter(sqlite.NewScheduleRepository(pool))
	directory := newDirectoryAdapter(sqlite.NewDirectoryRepository(pool))

	schedulingService := application.NewSchedulingServiceWithLogger(entryRepo, directory, idGenerator, now, logger)
	calendarService := application.NewCalendarServiceWithLogger(entryRepo, directory, cfg.WeekStart, logger)

	scheduleHandler := httptransport.NewScheduleHandler(schedulingService, logger)
	calendarHandler := httptransport.NewCalendarHandler(calendarService, logger)

	handler := httptransport.NewRouter(httptransport.RouterConfig{
		Schedules:  scheduleHandler,
		Calendar:   calendarHandler,
		Middleware: []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("collection scheduler API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

type entryRepositoryAdapter struct {
	repo persistence.ScheduleRepository
}

func newEntryRepositoryAdapter(repo persistence.ScheduleRepository) *entryRepositoryAdapter {
	return &entryRepositoryAdapter{repo: repo}
}

func (a *entryRepositoryAdapter) InsertEntry(ctx context.Context, entry application.ScheduleEntry) (application.ScheduleEntry, error) {
	stored, err := a.repo.InsertEntry(ctx, toPersistenceEntry(entry))
	if err != nil {
		return application.ScheduleEntry{}, err
	}
	return toApplicationEntry(stored), nil
}

func (a *entryRepositoryAdapter) GetEntry(ctx context.Context, id string) (application.ScheduleEntry, error) {
	stored, err := a.repo.GetEntry(ctx, id)
	if err != nil {
		return application.ScheduleEntry{}, err
	}
	return toApplicationEntry(stored), nil
}

func (a *entryRepositoryAdapter) UpdateEntry(ctx context.Context, entry application.ScheduleEntry) (application.ScheduleEntry, error) {
	stored, err := a.repo.UpdateEntry(ctx, toPersistenceEntry(entry))
	if err != nil {
		return application.ScheduleEntry{}, err
	}
	return toApplicationEntry(stored), nil
}

func (a *entryRepositoryAdapter) DeleteEntry(ctx context.Context, id string) error {
	return a.repo.DeleteEntry(ctx, id)
}

func (a *entryRepositoryAdapter) EntriesByDate(ctx context.Context, date scheduler.Date) ([]application.ScheduleEntry, error) {
	models, err := a.repo.EntriesByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	return toApplicationEntries(models), nil
}

func (a *entryRepositoryAdapter) EntriesByDateRange(ctx context.Context, start, end scheduler.Date) ([]application.ScheduleEntry, error) {
	models, err := a.repo.EntriesByDateRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return toApplicationEntries(models), nil
}

func (a *entryRepositoryAdapter) EntriesByBuilding(ctx context.Context, buildingID string) ([]application.ScheduleEntry, error) {
	models, err := a.repo.EntriesByBuilding(ctx, buildingID)
	if err != nil {
		return nil, err
	}
	return toApplicationEntries(models), nil
}

func (a *entryRepositoryAdapter) EntriesByBuildingDate(ctx context.Context, buildingID string, date scheduler.Date) ([]application.ScheduleEntry, error) {
	models, err := a.repo.EntriesByBuildingDate(ctx, buildingID, date)
	if err != nil {
		return nil, err
	}
	return toApplicationEntries(models), nil
}

type directoryAdapter struct {
	repo persistence.DirectoryRepository
}

func newDirectoryAdapter(repo persistence.DirectoryRepository) *directoryAdapter {
	return &directoryAdapter{repo: repo}
}

func (a *directoryAdapter) ResolveBuilding(ctx context.Context, id string) (application.Building, error) {
	stored, err := a.repo.GetBuilding(ctx, id)
	if err != nil {
		return application.Building{}, err
	}
	return application.Building{
		ID:      stored.ID,
		Name:    stored.Name,
		Address: stored.Address,
	}, nil
}

func (a *directoryAdapter) ResolveStaff(ctx context.Context, id string) (application.StaffMember, error) {
	stored, err := a.repo.GetStaffMember(ctx, id)
	if err != nil {
		return application.StaffMember{}, err
	}
	return application.StaffMember{
		ID:       stored.ID,
		FullName: stored.FullName,
		Role:     application.StaffRole(stored.Role),
	}, nil
}

func toPersistenceEntry(entry application.ScheduleEntry) persistence.ScheduleEntry {
	return persistence.ScheduleEntry{
		ID:              entry.ID,
		BuildingID:      entry.BuildingID,
		Date:            entry.Date,
		Slot:            entry.Slot,
		CollectionType:  entry.CollectionType,
		Status:          entry.Status,
		AssignedStaffID: cloneString(entry.AssignedStaffID),
		Notes:           entry.Notes,
		CreatedAt:       entry.CreatedAt,
		UpdatedAt:       entry.UpdatedAt,
	}
}

func toApplicationEntry(model persistence.ScheduleEntry) application.ScheduleEntry {
	return application.ScheduleEntry{
		ID:              model.ID,
		BuildingID:      model.BuildingID,
		Date:            model.Date,
		Slot:            model.Slot,
		CollectionType:  model.CollectionType,
		Status:          model.Status,
		AssignedStaffID: cloneString(model.AssignedStaffID),
		Notes:           model.Notes,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

func toApplicationEntries(models []persistence.ScheduleEntry) []application.ScheduleEntry {
	if len(models) == 0 {
		return nil
	}
	entries := make([]application.ScheduleEntry, 0, len(models))
	for _, model := range models {
		entries = append(entries, toApplicationEntry(model))
	}
	return entries
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
