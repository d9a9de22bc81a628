// Package http provides HTTP handlers and middleware for the collection
// scheduling API.
//
// The router exposes the following endpoints:
//   - POST /schedules: creates a schedule entry. Body: the `createEntryRequest`
//     payload defined in schedule_handler.go; responds 201 with the stored
//     entry, 409 when the slot collides with an existing entry.
//   - GET /schedules: searches entries. Query parameters `q` (matches building
//     name/address case-insensitively), `status`, and `date` combine
//     conjunctively; results carry the joined building name and address.
//   - GET /schedules/{id}, DELETE /schedules/{id}: fetch or remove one entry.
//     Completed and cancelled entries refuse deletion with 409.
//   - PUT /schedules/{id}/status: advances the entry lifecycle. Transitions
//     outside the state machine respond 409.
//   - PUT /schedules/{id}/assignee: assigns or clears (null staff_id) the
//     responsible staff member.
//   - PUT /schedules/{id}/slot: moves the entry to a new date and time slot,
//     re-checking conflicts against other entries.
//   - GET /calendar/day?date=, GET /calendar/week?date=: day and week
//     projections with per-status counts.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
