package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fichaje-app/apiserver/internal/store"
	"github.com/fichaje-app/apiserver/types"
)

type fakeDirectory struct {
	users map[string]types.User
}

func (f *fakeDirectory) GetByPIN(_ context.Context, pin, facilityID string) (types.User, error) {
	user, ok := f.users[pin+"|"+facilityID]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

type fakeEventLog struct {
	mu     sync.Mutex
	events []types.ClockEvent
	nextID int64
}

func (f *fakeEventLog) Append(_ context.Context, event types.ClockEvent) (types.ClockEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	event.ID = f.nextID
	f.events = append(f.events, event)
	return event, nil
}

func (f *fakeEventLog) ListByUserAndRange(_ context.Context, userID int, facilityID string, from, to time.Time) ([]types.ClockEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []types.ClockEvent
	for _, event := range f.events {
		if event.UserID != userID || event.FacilityID != facilityID {
			continue
		}
		if event.RecordedAt.Before(from) || event.RecordedAt.After(to) {
			continue
		}
		out = append(out, event)
	}
	return out, nil
}

type fakeExportSink struct {
	mu       sync.Mutex
	appended []types.ClockEvent
	err      error
	ctxErrs  []error
}

func (f *fakeExportSink) AppendEvent(ctx context.Context, _ types.User, event types.ClockEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	if f.err != nil {
		return f.err
	}
	f.appended = append(f.appended, event)
	return nil
}

type fakePublisher struct {
	mu       sync.Mutex
	channels []string
	payloads [][]byte
	ctxErrs  []error
}

func (f *fakePublisher) Publish(ctx context.Context, channel string, data []byte, _ map[string]string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	f.channels = append(f.channels, channel)
	f.payloads = append(f.payloads, data)
	return "msg-1", nil
}

func newTestService() (*ClockService, *fakeEventLog, *fakeExportSink) {
	directory := &fakeDirectory{users: map[string]types.User{
		"0042|almacen1": {ID: 1, Name: "Ana García", PIN: "0042", Role: types.RoleWorker, FacilityID: "almacen1"},
		"0042|almacen2": {ID: 2, Name: "Luis Pérez", PIN: "0042", Role: types.RoleWorker, FacilityID: "almacen2"},
	}}
	events := &fakeEventLog{}
	sink := &fakeExportSink{}
	return NewClockService(directory, events, sink, time.UTC), events, sink
}

func at(hour, min int) time.Time {
	return time.Date(2026, 3, 14, hour, min, 0, 0, time.UTC)
}

func TestClockInFullDay(t *testing.T) {
	svc, events, sink := newTestService()
	ctx := context.Background()

	steps := []struct {
		kind types.EventKind
		at   time.Time
	}{
		{types.KindEntry, at(9, 0)},
		{types.KindBreakStart, at(12, 0)},
		{types.KindBreakEnd, at(12, 30)},
		{types.KindExit, at(17, 0)},
	}

	var last types.StatusSnapshot
	for _, step := range steps {
		snapshot, err := svc.ClockIn(ctx, "0042", "almacen1", step.kind, step.at)
		if err != nil {
			t.Fatalf("ClockIn(%s) failed: %v", step.kind, err)
		}
		last = snapshot
	}

	if last.ShiftOpen || last.BreakOpen {
		t.Errorf("final snapshot = %+v, want closed shift and break", last)
	}
	if len(events.events) != 4 {
		t.Errorf("event log has %d events, want 4", len(events.events))
	}
	if len(sink.appended) != 4 {
		t.Errorf("export received %d events, want 4", len(sink.appended))
	}
}

func TestClockInDoubleEntryRejected(t *testing.T) {
	svc, events, sink := newTestService()
	ctx := context.Background()

	if _, err := svc.ClockIn(ctx, "0042", "almacen1", types.KindEntry, at(9, 0)); err != nil {
		t.Fatalf("first entry failed: %v", err)
	}

	_, err := svc.ClockIn(ctx, "0042", "almacen1", types.KindEntry, at(9, 5))
	var rej *RejectionError
	if !errors.As(err, &rej) {
		t.Fatalf("second entry error = %v, want RejectionError", err)
	}
	if rej.Code != "shift_already_open" {
		t.Errorf("code = %s, want shift_already_open", rej.Code)
	}
	if len(events.events) != 1 {
		t.Errorf("event log has %d events, want 1 (rejection must not persist)", len(events.events))
	}
	if len(sink.appended) != 1 {
		t.Errorf("export received %d events, want 1 (artifact unchanged)", len(sink.appended))
	}
}

func TestClockInSnapshotDerivedIncrementally(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.ClockIn(ctx, "0042", "almacen1", types.KindEntry, at(9, 0)); err != nil {
		t.Fatalf("entry failed: %v", err)
	}
	snapshot, err := svc.ClockIn(ctx, "0042", "almacen1", types.KindBreakStart, at(12, 0))
	if err != nil {
		t.Fatalf("break start failed: %v", err)
	}
	if !snapshot.ShiftOpen || !snapshot.BreakOpen {
		t.Errorf("snapshot = %+v, want open shift and open break", snapshot)
	}
	if snapshot.Kind != types.KindBreakStart {
		t.Errorf("kind = %s, want %s", snapshot.Kind, types.KindBreakStart)
	}
}

func TestClockInCrossFacilityIsolation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.ClockIn(ctx, "0042", "almacen1", types.KindEntry, at(9, 0)); err != nil {
		t.Fatalf("entry in almacen1 failed: %v", err)
	}

	status, err := svc.Status(ctx, "0042", "almacen2", at(9, 30))
	if err != nil {
		t.Fatalf("status in almacen2 failed: %v", err)
	}
	if status.ShiftOpen {
		t.Error("shift open leaked across facilities")
	}

	// The same PIN clocks in independently in the other facility.
	if _, err := svc.ClockIn(ctx, "0042", "almacen2", types.KindEntry, at(9, 30)); err != nil {
		t.Errorf("entry in almacen2 failed: %v", err)
	}
}

func TestClockInUnknownPIN(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.ClockIn(context.Background(), "9999", "almacen1", types.KindEntry, at(9, 0))
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestClockInExportFailureStillSucceeds(t *testing.T) {
	svc, events, sink := newTestService()
	sink.err = errors.New("bucket unavailable")
	pub := &fakePublisher{}
	svc.WithReconcile(pub, "export.reconcile")

	snapshot, err := svc.ClockIn(context.Background(), "0042", "almacen1", types.KindEntry, at(9, 0))
	if err != nil {
		t.Fatalf("ClockIn failed despite durable event: %v", err)
	}
	if !snapshot.ShiftOpen {
		t.Errorf("snapshot = %+v, want open shift", snapshot)
	}
	if len(events.events) != 1 {
		t.Fatalf("event log has %d events, want 1", len(events.events))
	}

	if len(pub.payloads) != 1 || pub.channels[0] != "export.reconcile" {
		t.Fatalf("reconcile publish = %v, want one message on export.reconcile", pub.channels)
	}
	var req ReconcileRequest
	if err := json.Unmarshal(pub.payloads[0], &req); err != nil {
		t.Fatalf("unmarshal reconcile request: %v", err)
	}
	if req.UserID != 1 || req.FacilityID != "almacen1" || req.Date != "14-03-2026" {
		t.Errorf("reconcile request = %+v", req)
	}
}

func TestClockInCanceledRequestStillQueuesReconcile(t *testing.T) {
	svc, events, sink := newTestService()
	sink.err = errors.New("bucket unavailable")
	pub := &fakePublisher{}
	svc.WithReconcile(pub, "export.reconcile")

	// The client gives up while the event row is being written; the
	// fakes never fail on that, so the append lands exactly as it
	// would for a request canceled after the row is durable.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.ClockIn(ctx, "0042", "almacen1", types.KindEntry, at(9, 0)); err != nil {
		t.Fatalf("ClockIn failed despite durable event: %v", err)
	}
	if len(events.events) != 1 {
		t.Fatalf("event log has %d events, want 1", len(events.events))
	}

	if len(sink.ctxErrs) != 1 || sink.ctxErrs[0] != nil {
		t.Errorf("export mirror ran under a canceled context: %v", sink.ctxErrs)
	}
	if len(pub.payloads) != 1 {
		t.Fatalf("reconcile publish count = %d, want 1 (repair signal must survive cancellation)", len(pub.payloads))
	}
	if pub.ctxErrs[0] != nil {
		t.Errorf("reconcile publish ran under a canceled context: %v", pub.ctxErrs[0])
	}
}

func TestClockInConcurrentDoubleEntry(t *testing.T) {
	svc, events, _ := newTestService()
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ClockIn(ctx, "0042", "almacen1", types.KindEntry, at(9, 0))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, rejections int
	for err := range results {
		var rej *RejectionError
		switch {
		case err == nil:
			successes++
		case errors.As(err, &rej):
			rejections++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if successes != 1 || rejections != 1 {
		t.Errorf("got %d successes and %d rejections, want exactly 1 of each", successes, rejections)
	}
	if len(events.events) != 1 {
		t.Errorf("event log has %d events, want 1", len(events.events))
	}
}

func TestStatusReflectsLog(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.ClockIn(ctx, "0042", "almacen1", types.KindEntry, at(9, 0)); err != nil {
		t.Fatalf("entry failed: %v", err)
	}

	status, err := svc.Status(ctx, "0042", "almacen1", at(10, 0))
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if !status.ShiftOpen || status.BreakOpen {
		t.Errorf("status = %+v, want open shift, closed break", status)
	}
}
