package http

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/example/collection-scheduler/internal/application"
	"github.com/example/collection-scheduler/internal/scheduler"
)

type calendarService interface {
	DayView(ctx context.Context, date scheduler.Date) (application.DayView, error)
	WeekView(ctx context.Context, reference scheduler.Date) (application.WeekView, error)
	Search(ctx context.Context, filter application.SearchFilter) ([]application.EntryView, error)
}

type CalendarHandler struct {
	service   calendarService
	responder responder
}

func NewCalendarHandler(service calendarService, logger *slog.Logger) *CalendarHandler {
	return &CalendarHandler{service: service, responder: newResponder(logger)}
}

// Day serves GET /calendar/day?date=YYYY-MM-DD.
func (h *CalendarHandler) Day(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	date, err := scheduler.ParseDate(strings.TrimSpace(r.URL.Query().Get("date")))
	if err != nil {
		vErr := &application.ValidationError{FieldErrors: map[string]string{"date": "date must be formatted YYYY-MM-DD"}}
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}

	view, err := h.service.DayView(r.Context(), date)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toDayViewDTO(view))
}

// Week serves GET /calendar/week?date=YYYY-MM-DD. Any date within the week
// selects that week.
func (h *CalendarHandler) Week(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	date, err := scheduler.ParseDate(strings.TrimSpace(r.URL.Query().Get("date")))
	if err != nil {
		vErr := &application.ValidationError{FieldErrors: map[string]string{"date": "date must be formatted YYYY-MM-DD"}}
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}

	view, err := h.service.WeekView(r.Context(), date)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toWeekViewDTO(view))
}

// Search serves GET /schedules?q=...&status=...&date=....
func (h *CalendarHandler) Search(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	filter, vErr := buildSearchFilter(r.URL.Query())
	if vErr != nil {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}

	results, err := h.service.Search(r.Context(), filter)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, searchResponse{Results: toEntryViewDTOs(results)})
}

func buildSearchFilter(values url.Values) (application.SearchFilter, *application.ValidationError) {
	filter := application.SearchFilter{
		TextQuery: strings.TrimSpace(values.Get("q")),
	}

	vErr := &application.ValidationError{FieldErrors: make(map[string]string)}

	if statusValue := strings.TrimSpace(values.Get("status")); statusValue != "" {
		status, err := scheduler.ParseStatus(statusValue)
		if err != nil {
			vErr.FieldErrors["status"] = "unknown status"
		} else {
			filter.Status = &status
		}
	}

	if dateValue := strings.TrimSpace(values.Get("date")); dateValue != "" {
		date, err := scheduler.ParseDate(dateValue)
		if err != nil {
			vErr.FieldErrors["date"] = "date must be formatted YYYY-MM-DD"
		} else {
			filter.DateEquals = &date
		}
	}

	if len(vErr.FieldErrors) > 0 {
		return application.SearchFilter{}, vErr
	}
	return filter, nil
}

type dayViewDTO struct {
	Date    string         `json:"date"`
	Entries []entryDTO     `json:"entries"`
	Counts  map[string]int `json:"counts_by_status"`
}

func toDayViewDTO(view application.DayView) dayViewDTO {
	counts := make(map[string]int, len(view.CountsByStatus))
	for status, count := range view.CountsByStatus {
		counts[string(status)] = count
	}
	return dayViewDTO{
		Date:    view.Date.String(),
		Entries: toEntryDTOs(view.Entries),
		Counts:  counts,
	}
}

type weekViewDTO struct {
	Start string       `json:"start"`
	Days  []dayViewDTO `json:"days"`
}

func toWeekViewDTO(view application.WeekView) weekViewDTO {
	days := make([]dayViewDTO, 0, len(view.Days))
	for _, day := range view.Days {
		days = append(days, toDayViewDTO(day))
	}
	return weekViewDTO{
		Start: view.Start.String(),
		Days:  days,
	}
}

type searchResponse struct {
	Results []entryViewDTO `json:"results"`
}

type entryViewDTO struct {
	Entry           entryDTO `json:"entry"`
	BuildingName    string   `json:"building_name"`
	BuildingAddress string   `json:"building_address"`
}

func toEntryViewDTOs(views []application.EntryView) []entryViewDTO {
	if len(views) == 0 {
		return nil
	}
	out := make([]entryViewDTO, 0, len(views))
	for _, view := range views {
		out = append(out, entryViewDTO{
			Entry:           toEntryDTO(view.Entry),
			BuildingName:    view.BuildingName,
			BuildingAddress: view.BuildingAddress,
		})
	}
	return out
}
