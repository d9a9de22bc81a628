package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/collection-scheduler/internal/application"
	"github.com/example/collection-scheduler/internal/scheduler"
)

type schedulingService interface {
	CreateSchedule(ctx context.Context, input application.CreateScheduleInput) (application.ScheduleEntry, error)
	GetSchedule(ctx context.Context, id string) (application.ScheduleEntry, error)
	UpdateStatus(ctx context.Context, id string, newStatus scheduler.Status) (application.ScheduleEntry, error)
	Reassign(ctx context.Context, id string, newStaffID *string) (application.ScheduleEntry, error)
	Reschedule(ctx context.Context, id string, newDate scheduler.Date, newSlot scheduler.TimeSlot) (application.ScheduleEntry, error)
	Delete(ctx context.Context, id string) error
}

type ScheduleHandler struct {
	service   schedulingService
	responder responder
}

func NewScheduleHandler(service schedulingService, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{service: service, responder: newResponder(logger)}
}

func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req createEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, vErr := req.toInput()
	if vErr != nil {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}

	entry, err := h.service.CreateSchedule(r.Context(), input)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toEntryDTO(entry))
}

func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	entryID, ok := EntryIDFromContext(r.Context())
	if !ok || strings.TrimSpace(entryID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEntryID)
		return
	}

	entry, err := h.service.GetSchedule(r.Context(), entryID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEntryDTO(entry))
}

func (h *ScheduleHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	entryID, ok := EntryIDFromContext(r.Context())
	if !ok || strings.TrimSpace(entryID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEntryID)
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	status, err := scheduler.ParseStatus(strings.TrimSpace(req.Status))
	if err != nil {
		vErr := &application.ValidationError{FieldErrors: map[string]string{"status": "unknown status"}}
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}

	entry, err := h.service.UpdateStatus(r.Context(), entryID, status)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEntryDTO(entry))
}

func (h *ScheduleHandler) Reassign(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	entryID, ok := EntryIDFromContext(r.Context())
	if !ok || strings.TrimSpace(entryID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEntryID)
		return
	}

	var req assigneeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	entry, err := h.service.Reassign(r.Context(), entryID, normalizeOptionalID(req.StaffID))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEntryDTO(entry))
}

func (h *ScheduleHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	entryID, ok := EntryIDFromContext(r.Context())
	if !ok || strings.TrimSpace(entryID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEntryID)
		return
	}

	var req slotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	date, slot, vErr := parseDateAndSlot(req.Date, req.Slot)
	if vErr != nil {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}

	entry, err := h.service.Reschedule(r.Context(), entryID, date, slot)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEntryDTO(entry))
}

func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	entryID, ok := EntryIDFromContext(r.Context())
	if !ok || strings.TrimSpace(entryID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEntryID)
		return
	}

	if err := h.service.Delete(r.Context(), entryID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type createEntryRequest struct {
	BuildingID      string  `json:"building_id"`
	Date            string  `json:"date"`
	Slot            string  `json:"slot"`
	CollectionType  string  `json:"collection_type"`
	AssignedStaffID *string `json:"assigned_staff_id"`
	Notes           string  `json:"notes"`
}

func (r createEntryRequest) toInput() (application.CreateScheduleInput, error) {
	vErr := &application.ValidationError{}

	date, slot, parseErr := parseDateAndSlot(r.Date, r.Slot)
	if parseErr != nil {
		vErr = parseErr
	}

	collectionType, err := scheduler.ParseCollectionType(strings.TrimSpace(r.CollectionType))
	if err != nil {
		if vErr.FieldErrors == nil {
			vErr.FieldErrors = make(map[string]string)
		}
		vErr.FieldErrors["collection_type"] = "unknown collection type"
	}

	if vErr.HasErrors() {
		return application.CreateScheduleInput{}, vErr
	}

	return application.CreateScheduleInput{
		BuildingID:      strings.TrimSpace(r.BuildingID),
		Date:            date,
		Slot:            slot,
		CollectionType:  collectionType,
		AssignedStaffID: normalizeOptionalID(r.AssignedStaffID),
		Notes:           r.Notes,
	}, nil
}

type statusRequest struct {
	Status string `json:"status"`
}

type assigneeRequest struct {
	StaffID *string `json:"staff_id"`
}

type slotRequest struct {
	Date string `json:"date"`
	Slot string `json:"slot"`
}

// parseDateAndSlot converts the wire form ("2025-01-15", "09:00-09:30") into
// domain values, collecting field errors rather than failing on the first.
func parseDateAndSlot(dateValue, slotValue string) (scheduler.Date, scheduler.TimeSlot, *application.ValidationError) {
	vErr := &application.ValidationError{FieldErrors: make(map[string]string)}

	date, err := scheduler.ParseDate(strings.TrimSpace(dateValue))
	if err != nil {
		vErr.FieldErrors["date"] = "date must be formatted YYYY-MM-DD"
	}

	slot, err := scheduler.ParseTimeSlot(strings.TrimSpace(slotValue))
	if err != nil {
		vErr.FieldErrors["slot"] = "slot must be formatted HH:MM-HH:MM"
	}

	if len(vErr.FieldErrors) > 0 {
		return scheduler.Date{}, scheduler.TimeSlot{}, vErr
	}
	return date, slot, nil
}

func normalizeOptionalID(id *string) *string {
	if id == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*id)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

type entryDTO struct {
	ID              string  `json:"id"`
	BuildingID      string  `json:"building_id"`
	Date            string  `json:"date"`
	Slot            string  `json:"slot"`
	CollectionType  string  `json:"collection_type"`
	Status          string  `json:"status"`
	AssignedStaffID *string `json:"assigned_staff_id,omitempty"`
	Notes           string  `json:"notes,omitempty"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

func toEntryDTO(entry application.ScheduleEntry) entryDTO {
	return entryDTO{
		ID:              entry.ID,
		BuildingID:      entry.BuildingID,
		Date:            entry.Date.String(),
		Slot:            entry.Slot.String(),
		CollectionType:  string(entry.CollectionType),
		Status:          string(entry.Status),
		AssignedStaffID: entry.AssignedStaffID,
		Notes:           entry.Notes,
		CreatedAt:       entry.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       entry.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toEntryDTOs(entries []application.ScheduleEntry) []entryDTO {
	if len(entries) == 0 {
		return nil
	}
	out := make([]entryDTO, 0, len(entries))
	for _, entry := range entries {
		out = append(out, toEntryDTO(entry))
	}
	return out
}
