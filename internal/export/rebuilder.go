package export

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/fichaje-app/apiserver/internal/storage"
	"github.com/fichaje-app/apiserver/types"
)

// EventSource supplies the full event history needed to regenerate artifacts.
type EventSource interface {
	ListByUser(ctx context.Context, userID int, facilityID string) ([]types.ClockEvent, error)
}

// UserSource resolves the users whose artifacts get rebuilt.
type UserSource interface {
	GetByPIN(ctx context.Context, pin, facilityID string) (types.User, error)
	ListByFacility(ctx context.Context, facilityID string) ([]types.User, error)
}

// Rebuilder regenerates daily artifacts from the event log. It is the
// repair path for exports that drifted or failed to sync: the log is
// the source of truth, so every artifact can be rebuilt from scratch.
type Rebuilder struct {
	events  EventSource
	users   UserSource
	storage *storage.Storage
	loc     *time.Location
}

func NewRebuilder(events EventSource, users UserSource, st *storage.Storage, loc *time.Location) *Rebuilder {
	return &Rebuilder{events: events, users: users, storage: st, loc: loc}
}

// RebuildUser regenerates every daily artifact of one user and returns
// the number of days written.
func (r *Rebuilder) RebuildUser(ctx context.Context, user types.User) (int, error) {
	events, err := r.events.ListByUser(ctx, user.ID, user.FacilityID)
	if err != nil {
		return 0, err
	}

	byDay := make(map[string][]types.ClockEvent)
	var days []string
	for _, event := range events {
		day := FormatDate(event.RecordedAt.In(r.loc))
		if _, seen := byDay[day]; !seen {
			days = append(days, day)
		}
		byDay[day] = append(byDay[day], event)
	}

	for _, day := range days {
		if err := r.writeDay(ctx, user, day, byDay[day]); err != nil {
			return 0, err
		}
	}
	return len(days), nil
}

// RebuildUserByPIN looks up the user and regenerates their artifacts.
func (r *Rebuilder) RebuildUserByPIN(ctx context.Context, pin, facilityID string) (int, error) {
	user, err := r.users.GetByPIN(ctx, pin, facilityID)
	if err != nil {
		return 0, err
	}
	return r.RebuildUser(ctx, user)
}

// RebuildFacility regenerates the artifacts of every user in the
// facility and returns the total number of days written.
func (r *Rebuilder) RebuildFacility(ctx context.Context, facilityID string) (int, error) {
	users, err := r.users.ListByFacility(ctx, facilityID)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, user := range users {
		n, err := r.RebuildUser(ctx, user)
		if err != nil {
			return total, fmt.Errorf("rebuild %s (%s): %w", user.Name, user.PIN, err)
		}
		log.Printf("rebuilt %d day(s) for %s (%s)", n, user.Name, user.PIN)
		total += n
	}
	return total, nil
}

// RebuildUserDay regenerates a single daily artifact. The reconcile
// worker calls this for days whose inline export sync failed.
func (r *Rebuilder) RebuildUserDay(ctx context.Context, user types.User, day string) error {
	events, err := r.events.ListByUser(ctx, user.ID, user.FacilityID)
	if err != nil {
		return err
	}

	var dayEvents []types.ClockEvent
	for _, event := range events {
		if FormatDate(event.RecordedAt.In(r.loc)) == day {
			dayEvents = append(dayEvents, event)
		}
	}
	if len(dayEvents) == 0 {
		return nil
	}
	return r.writeDay(ctx, user, day, dayEvents)
}

func (r *Rebuilder) writeDay(ctx context.Context, user types.User, day string, events []types.ClockEvent) error {
	f, err := newWorkbook()
	if err != nil {
		return err
	}
	for _, event := range events {
		row := Row{
			Kind:      string(event.Kind),
			Timestamp: event.RecordedAt.In(r.loc).Format(TimestampLayout),
		}
		if err := appendRow(f, row); err != nil {
			f.Close()
			return err
		}
	}

	data, err := serializeWorkbook(f)
	if err != nil {
		return err
	}

	key := ArtifactKey(user.FacilityID, UserFolder(user.Name, user.PIN), day)
	if err := r.storage.Put(ctx, key, data, XLSXContentType); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}
