package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/marxist91/togoestate/internal/appointment"
	"github.com/marxist91/togoestate/internal/models"
)

type stubAppointmentService struct {
	appointments map[uuid.UUID]*models.Appointment
	transitionErr error
}

func (s *stubAppointmentService) Create(_ context.Context, in appointment.CreateInput) (*models.Appointment, error) {
	if in.ScheduledAt.Before(time.Now()) {
		return nil, fmt.Errorf("%w: scheduled time must be in the future", models.ErrInvalidInput)
	}
	return &models.Appointment{
		ID:          uuid.New(),
		ListingID:   in.ListingID,
		ScheduledAt: in.ScheduledAt,
		Status:      models.AppointmentPending,
	}, nil
}

func (s *stubAppointmentService) Get(_ context.Context, id uuid.UUID) (*models.Appointment, error) {
	a, ok := s.appointments[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return a, nil
}

func (s *stubAppointmentService) List(context.Context, models.AppointmentStatus, int, int) ([]models.Appointment, error) {
	out := make([]models.Appointment, 0, len(s.appointments))
	for _, a := range s.appointments {
		out = append(out, *a)
	}
	return out, nil
}

func (s *stubAppointmentService) Transition(_ context.Context, id uuid.UUID, to models.AppointmentStatus) (*models.Appointment, error) {
	if s.transitionErr != nil {
		return nil, s.transitionErr
	}
	a, ok := s.appointments[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	a.Status = to
	return a, nil
}

func newAppointmentRouter(svc AppointmentService) http.Handler {
	h := NewAppointmentHandler(svc)
	r := chi.NewRouter()
	r.Post("/appointments", h.Create)
	r.Get("/appointments/{id}", h.Get)
	r.Post("/appointments/{id}/status", h.Transition)
	return r
}

func TestAppointmentCreateValidation(t *testing.T) {
	r := newAppointmentRouter(&stubAppointmentService{})

	body := fmt.Sprintf(`{"listing_id":%q,"scheduled_at":%q}`,
		uuid.NewString(), time.Now().Add(-time.Hour).Format(time.RFC3339))
	req := httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAppointmentCreate(t *testing.T) {
	r := newAppointmentRouter(&stubAppointmentService{})

	body := fmt.Sprintf(`{"listing_id":%q,"scheduled_at":%q}`,
		uuid.NewString(), time.Now().Add(time.Hour).Format(time.RFC3339))
	req := httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body)
	}
	var resp models.Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Status != models.AppointmentPending {
		t.Errorf("status = %s, want pending", resp.Status)
	}
}

func TestAppointmentTransitionErrorMapping(t *testing.T) {
	id := uuid.New()
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid transition", fmt.Errorf("%w: completed -> pending", models.ErrInvalidTransition), http.StatusBadRequest},
		{"forbidden", models.ErrForbidden, http.StatusForbidden},
		{"conflict", fmt.Errorf("%w: status changed concurrently", models.ErrConflict), http.StatusConflict},
		{"not found", models.ErrNotFound, http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newAppointmentRouter(&stubAppointmentService{transitionErr: tc.err})

			req := httptest.NewRequest(http.MethodPost, "/appointments/"+id.String()+"/status",
				strings.NewReader(`{"status":"confirmed"}`))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestAppointmentTransition(t *testing.T) {
	id := uuid.New()
	svc := &stubAppointmentService{appointments: map[uuid.UUID]*models.Appointment{
		id: {ID: id, Status: models.AppointmentPending},
	}}
	r := newAppointmentRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/appointments/"+id.String()+"/status",
		strings.NewReader(`{"status":"confirmed"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	if svc.appointments[id].Status != models.AppointmentConfirmed {
		t.Errorf("status = %s, want confirmed", svc.appointments[id].Status)
	}
}

func TestAppointmentGetRejectsBadID(t *testing.T) {
	r := newAppointmentRouter(&stubAppointmentService{})

	req := httptest.NewRequest(http.MethodGet, "/appointments/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
