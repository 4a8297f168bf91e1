package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/fichaje-app/apiserver/internal/export"
	"github.com/fichaje-app/apiserver/internal/lock"
	"github.com/fichaje-app/apiserver/types"
)

// UserDirectory resolves kiosk identities. Read-only.
type UserDirectory interface {
	GetByPIN(ctx context.Context, pin, facilityID string) (types.User, error)
}

// EventLog is the append-only store of clock events.
type EventLog interface {
	Append(ctx context.Context, event types.ClockEvent) (types.ClockEvent, error)
	ListByUserAndRange(ctx context.Context, userID int, facilityID string, from, to time.Time) ([]types.ClockEvent, error)
}

// ExportSink mirrors accepted events into the per-user daily artifact.
type ExportSink interface {
	AppendEvent(ctx context.Context, user types.User, event types.ClockEvent) error
}

// ReconcilePublisher queues export repair requests. *mq.MQ satisfies it.
type ReconcilePublisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// ReconcileRequest identifies one user/day artifact to regenerate.
type ReconcileRequest struct {
	UserID     int    `json:"userId"`
	FacilityID string `json:"facilityId"`
	PIN        string `json:"pin"`
	Date       string `json:"date"`
}

// ClockService orchestrates clock-ins: resolve status, validate the
// requested transition, append the event, and mirror it to the export.
type ClockService struct {
	users    UserDirectory
	events   EventLog
	exporter ExportSink
	locks    *lock.Keyed
	loc      *time.Location

	// reconcile is optional; when nil, export failures are only logged.
	reconcile        ReconcilePublisher
	reconcileChannel string
}

func NewClockService(users UserDirectory, events EventLog, exporter ExportSink, loc *time.Location) *ClockService {
	return &ClockService{
		users:    users,
		events:   events,
		exporter: exporter,
		locks:    lock.NewKeyed(),
		loc:      loc,
	}
}

// WithReconcile routes export-sync failures to the named channel for
// eventual repair by the reconcile worker.
func (s *ClockService) WithReconcile(pub ReconcilePublisher, channel string) *ClockService {
	s.reconcile = pub
	s.reconcileChannel = channel
	return s
}

// ClockIn records an event for the worker identified by (pin, facility).
//
// The whole read-validate-append-export sequence runs under a per-user
// lock: two simultaneous requests for one user would otherwise both
// validate against stale status and double-open a shift, and the export
// read-modify-write would race on its key. Export failures do not fail
// the clock-in once the event row is durable; the artifact is repaired
// through the reconcile queue.
func (s *ClockService) ClockIn(ctx context.Context, pin, facilityID string, kind types.EventKind, at time.Time) (types.StatusSnapshot, error) {
	user, err := s.users.GetByPIN(ctx, pin, facilityID)
	if err != nil {
		return types.StatusSnapshot{}, err
	}

	unlock := s.locks.Lock(fmt.Sprintf("%d|%s", user.ID, user.FacilityID))
	defer unlock()

	from, to := DayRange(at, s.loc)
	events, err := s.events.ListByUserAndRange(ctx, user.ID, user.FacilityID, from, to)
	if err != nil {
		return types.StatusSnapshot{}, fmt.Errorf("list today's events: %w", err)
	}

	status := ResolveDailyStatus(events)
	if rej := ValidateTransition(status, kind); rej != nil {
		return types.StatusSnapshot{}, rej
	}

	event, err := s.events.Append(ctx, types.ClockEvent{
		UserID:     user.ID,
		FacilityID: user.FacilityID,
		Kind:       kind,
		RecordedAt: at,
	})
	if err != nil {
		return types.StatusSnapshot{}, fmt.Errorf("append event: %w", err)
	}

	// The event row is durable at this point. A request that was
	// canceled mid-flight must not take the mirror or its repair
	// signal down with it, so both run detached from the request
	// context.
	exportCtx := context.WithoutCancel(ctx)
	if err := s.exporter.AppendEvent(exportCtx, user, event); err != nil {
		log.Printf("export sync failed for user %d day %s: %v", user.ID, export.FormatDate(event.RecordedAt.In(s.loc)), err)
		s.queueReconcile(exportCtx, user, event)
	}

	after := applyKind(status, kind)
	return types.StatusSnapshot{
		ShiftOpen:  after.ShiftOpen,
		BreakOpen:  after.BreakOpen,
		Kind:       kind,
		RecordedAt: event.RecordedAt,
	}, nil
}

// Status resolves the worker's current day state. Takes no lock; the
// status is recomputed from the log on every call.
func (s *ClockService) Status(ctx context.Context, pin, facilityID string, at time.Time) (types.DailyStatus, error) {
	user, err := s.users.GetByPIN(ctx, pin, facilityID)
	if err != nil {
		return types.DailyStatus{}, err
	}

	from, to := DayRange(at, s.loc)
	events, err := s.events.ListByUserAndRange(ctx, user.ID, user.FacilityID, from, to)
	if err != nil {
		return types.DailyStatus{}, fmt.Errorf("list today's events: %w", err)
	}
	return ResolveDailyStatus(events), nil
}

func (s *ClockService) queueReconcile(ctx context.Context, user types.User, event types.ClockEvent) {
	if s.reconcile == nil {
		return
	}
	req := ReconcileRequest{
		UserID:     user.ID,
		FacilityID: user.FacilityID,
		PIN:        user.PIN,
		Date:       export.FormatDate(event.RecordedAt.In(s.loc)),
	}
	data, err := json.Marshal(req)
	if err != nil {
		log.Printf("marshal reconcile request: %v", err)
		return
	}
	if _, err := s.reconcile.Publish(ctx, s.reconcileChannel, data, nil); err != nil {
		log.Printf("publish reconcile request for user %d: %v", user.ID, err)
	}
}
