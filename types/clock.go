package types

import (
	"fmt"
	"time"
)

// EventKind enumerates the clock event types accepted by the API.
// The wire labels are the Spanish ones the mobile client has always
// sent; they are part of the API contract and of the exported sheets.
type EventKind string

const (
	// KindEntry opens the day's shift.
	KindEntry EventKind = "entrada"

	// KindExit closes the open shift.
	KindExit EventKind = "salida"

	// KindBreakStart opens the breakfast break inside an open shift.
	KindBreakStart EventKind = "desayuno_inicio"

	// KindBreakEnd closes the open breakfast break.
	KindBreakEnd EventKind = "desayuno_fin"
)

// ParseEventKind validates a wire label and returns the typed kind.
func ParseEventKind(s string) (EventKind, error) {
	switch EventKind(s) {
	case KindEntry, KindExit, KindBreakStart, KindBreakEnd:
		return EventKind(s), nil
	}
	return "", fmt.Errorf("unknown event kind %q", s)
}

// ClockEvent is one immutable entry in the per-user clock log.
type ClockEvent struct {
	// ID is assigned by the store at append time. Within a day it
	// doubles as the tie-breaker when two events share a timestamp.
	ID int64 `json:"id" db:"id"`

	// UserID is the owning user.
	UserID int `json:"userId" db:"user_id"`

	// FacilityID scopes the event to the user's facility.
	FacilityID string `json:"facilityId" db:"facility_id"`

	// Kind is the event type.
	Kind EventKind `json:"kind" db:"kind"`

	// RecordedAt is the server-assigned creation time.
	RecordedAt time.Time `json:"recordedAt" db:"recorded_at"`
}

// After reports whether e sorts after other. Timestamps are the
// primary key; the append-time ID breaks exact ties, so the later
// insert always wins.
func (e ClockEvent) After(other ClockEvent) bool {
	if e.RecordedAt.Equal(other.RecordedAt) {
		return e.ID > other.ID
	}
	return e.RecordedAt.After(other.RecordedAt)
}

// DailyStatus is the derived state of a user's current day.
// It is recomputed from the event log on every request and
// never cached across requests.
type DailyStatus struct {
	ShiftOpen bool `json:"shiftOpen"`
	BreakOpen bool `json:"breakOpen"`
}

// StatusSnapshot is returned after a successful clock-in. It reflects
// the status after the new event was applied.
type StatusSnapshot struct {
	ShiftOpen  bool      `json:"shiftOpen"`
	BreakOpen  bool      `json:"breakOpen"`
	Kind       EventKind `json:"kind"`
	RecordedAt time.Time `json:"timestamp"`
}
