package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fichaje-app/apiserver/internal/services"
	"github.com/fichaje-app/apiserver/internal/store"
	"github.com/fichaje-app/apiserver/types"
	"github.com/go-chi/chi/v5"
)

type stubDirectory struct{}

func (stubDirectory) GetByPIN(_ context.Context, pin, facilityID string) (types.User, error) {
	if pin == "0042" && facilityID == "almacen1" {
		return types.User{ID: 1, Name: "Ana", PIN: pin, Role: types.RoleWorker, FacilityID: facilityID}, nil
	}
	return types.User{}, store.ErrNotFound
}

type stubEventLog struct {
	mu     sync.Mutex
	events []types.ClockEvent
}

func (s *stubEventLog) Append(_ context.Context, event types.ClockEvent) (types.ClockEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event.ID = int64(len(s.events) + 1)
	s.events = append(s.events, event)
	return event, nil
}

func (s *stubEventLog) ListByUserAndRange(_ context.Context, userID int, facilityID string, from, to time.Time) ([]types.ClockEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.ClockEvent
	for _, event := range s.events {
		if event.UserID == userID && event.FacilityID == facilityID &&
			!event.RecordedAt.Before(from) && !event.RecordedAt.After(to) {
			out = append(out, event)
		}
	}
	return out, nil
}

type stubSink struct{}

func (stubSink) AppendEvent(context.Context, types.User, types.ClockEvent) error { return nil }

func newTestRouter() *chi.Mux {
	clockService := services.NewClockService(stubDirectory{}, &stubEventLog{}, stubSink{}, time.UTC)
	router := chi.NewRouter()
	router.Route("/clock", func(r chi.Router) {
		ClockRouter(r, clockService)
	})
	return router
}

func postClock(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/clock", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestClockInEndpoint(t *testing.T) {
	router := newTestRouter()

	rec := postClock(t, router, `{"pin":"0042","facilityId":"almacen1","kind":"entrada"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}

	var resp ClockInResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.ShiftOpen || resp.BreakOpen || resp.Kind != types.KindEntry {
		t.Errorf("response = %+v", resp)
	}
}

func TestClockInEndpointRejectsDoubleEntry(t *testing.T) {
	router := newTestRouter()

	if rec := postClock(t, router, `{"pin":"0042","facilityId":"almacen1","kind":"entrada"}`); rec.Code != http.StatusOK {
		t.Fatalf("first entry status = %d", rec.Code)
	}
	rec := postClock(t, router, `{"pin":"0042","facilityId":"almacen1","kind":"entrada"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("second entry status = %d, want 400", rec.Code)
	}
	var rej services.RejectionError
	if err := json.Unmarshal(rec.Body.Bytes(), &rej); err != nil {
		t.Fatalf("decode rejection: %v", err)
	}
	if rej.Code != "shift_already_open" {
		t.Errorf("code = %s, want shift_already_open", rej.Code)
	}
}

func TestClockInEndpointValidation(t *testing.T) {
	router := newTestRouter()

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{`, http.StatusBadRequest},
		{"missing pin", `{"facilityId":"almacen1","kind":"entrada"}`, http.StatusBadRequest},
		{"unknown kind", `{"pin":"0042","facilityId":"almacen1","kind":"merienda"}`, http.StatusBadRequest},
		{"unknown pin", `{"pin":"9999","facilityId":"almacen1","kind":"entrada"}`, http.StatusNotFound},
		{"wrong facility", `{"pin":"0042","facilityId":"almacen2","kind":"entrada"}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := postClock(t, router, tt.body); rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestStatusEndpoint(t *testing.T) {
	router := newTestRouter()

	if rec := postClock(t, router, `{"pin":"0042","facilityId":"almacen1","kind":"entrada"}`); rec.Code != http.StatusOK {
		t.Fatalf("entry status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/clock/status?pin=0042&facilityId=almacen1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var status types.DailyStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !status.ShiftOpen || status.BreakOpen {
		t.Errorf("status = %+v, want open shift", status)
	}
}

func TestStatusEndpointMissingParams(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/clock/status?pin=0042", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
