package services

import (
	"time"

	"github.com/fichaje-app/apiserver/types"
)

// DayRange returns the inclusive bounds of the calendar day containing
// at, in the facility reference timezone. The end bound is derived from
// the next wall-clock midnight, not from a 24h offset: on DST transition
// days the local day is 23 or 25 hours long and a fixed offset would cut
// the last hour off or spill into the next date.
func DayRange(at time.Time, loc *time.Location) (time.Time, time.Time) {
	local := at.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	end := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc).Add(-time.Nanosecond)
	return start, end
}

// ResolveDailyStatus derives the user's current state from one day's
// events. Pure function: the latest event of each kind is found and the
// open/closed pairs compared. Events sharing a timestamp are ordered by
// their append-time id, so the later insert wins.
func ResolveDailyStatus(events []types.ClockEvent) types.DailyStatus {
	var lastEntry, lastExit, lastBreakStart, lastBreakEnd *types.ClockEvent

	for i := range events {
		event := &events[i]
		switch event.Kind {
		case types.KindEntry:
			if lastEntry == nil || event.After(*lastEntry) {
				lastEntry = event
			}
		case types.KindExit:
			if lastExit == nil || event.After(*lastExit) {
				lastExit = event
			}
		case types.KindBreakStart:
			if lastBreakStart == nil || event.After(*lastBreakStart) {
				lastBreakStart = event
			}
		case types.KindBreakEnd:
			if lastBreakEnd == nil || event.After(*lastBreakEnd) {
				lastBreakEnd = event
			}
		}
	}

	return types.DailyStatus{
		ShiftOpen: lastEntry != nil && (lastExit == nil || lastEntry.After(*lastExit)),
		BreakOpen: lastBreakStart != nil && (lastBreakEnd == nil || lastBreakStart.After(*lastBreakEnd)),
	}
}

// applyKind derives the post-event status from the pre-event status and
// the kind just accepted, avoiding a second store read after the append.
func applyKind(status types.DailyStatus, kind types.EventKind) types.DailyStatus {
	switch kind {
	case types.KindEntry:
		status.ShiftOpen = true
	case types.KindExit:
		status.ShiftOpen = false
	case types.KindBreakStart:
		status.BreakOpen = true
	case types.KindBreakEnd:
		status.BreakOpen = false
	}
	return status
}
