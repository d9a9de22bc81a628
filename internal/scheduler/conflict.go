package scheduler

// Booking is the slice of a schedule entry relevant to overlap detection:
// its identifier and the interval it occupies. Callers pass only
// non-cancelled bookings for a single building and date.
type Booking struct {
	EntryID string
	Slot    TimeSlot
}

// Conflict identifies the existing booking that overlaps a candidate.
type Conflict struct {
	WithEntryID string
	Slot        TimeSlot
}

// DetectConflict returns the first existing booking whose slot overlaps the
// candidate, or nil when the candidate fits. A booking carrying the
// candidate's own id is skipped so a rescheduled entry does not collide with
// itself.
func DetectConflict(existing []Booking, candidate Booking) *Conflict {
	for _, booking := range existing {
		if candidate.EntryID != "" && booking.EntryID == candidate.EntryID {
			continue
		}
		if booking.Slot.Overlaps(candidate.Slot) {
			return &Conflict{WithEntryID: booking.EntryID, Slot: booking.Slot}
		}
	}
	return nil
}
