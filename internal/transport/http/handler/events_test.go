package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/akvora-api/internal/application/event"
	"github.com/akvora-api/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockEventSvc struct{ mock.Mock }

func (m *mockEventSvc) Create(ctx context.Context, createdBy string, req domain.CreateEventRequest, img *event.ImageInput) (*domain.Event, error) {
	args := m.Called(ctx, createdBy, req, img)
	e, _ := args.Get(0).(*domain.Event)
	return e, args.Error(1)
}
func (m *mockEventSvc) List(ctx context.Context, f domain.EventFilter) ([]domain.Event, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]domain.Event), args.Error(1)
}
func (m *mockEventSvc) Get(ctx context.Context, eventID string) (*domain.Event, error) {
	args := m.Called(ctx, eventID)
	e, _ := args.Get(0).(*domain.Event)
	return e, args.Error(1)
}
func (m *mockEventSvc) Update(ctx context.Context, adminID, eventID string, req domain.UpdateEventRequest, img *event.ImageInput) (*domain.Event, error) {
	args := m.Called(ctx, adminID, eventID, req, img)
	e, _ := args.Get(0).(*domain.Event)
	return e, args.Error(1)
}
func (m *mockEventSvc) Delete(ctx context.Context, adminID, eventID string) error {
	return m.Called(ctx, adminID, eventID).Error(0)
}
func (m *mockEventSvc) Stats(ctx context.Context) (*domain.EventStats, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).(*domain.EventStats)
	return s, args.Error(1)
}

func eventRouter(h *EventHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/events", h.List)
	r.Post("/events", h.Create)
	r.Get("/events/stats/dashboard", h.Stats)
	r.Get("/events/{id}", h.Get)
	r.Put("/events/{id}", h.Update)
	r.Delete("/events/{id}", h.Delete)
	return r
}

// multipartEvent builds a form with the given fields and, when image is
// non-nil, a PNG cover attached under the event image field.
func multipartEvent(t *testing.T, fields map[string]string, image []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if image != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="eventImage"; filename="cover.png"`)
		h.Set("Content-Type", "image/png")
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestEventCreate_JSON(t *testing.T) {
	svc := &mockEventSvc{}
	svc.On("Create", mock.Anything, "a1", mock.MatchedBy(func(req domain.CreateEventRequest) bool {
		return req.Type == domain.KindWorkshop && req.Title == "Go 101" && req.MaxParticipants == 30
	}), (*event.ImageInput)(nil)).Return(&domain.Event{EventID: "ev-1"}, nil)

	body := `{"type":"workshop","title":"Go 101","date":"2026-11-01T10:00:00Z","max_participants":30}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/events", bytes.NewBufferString(body)), "a1", domain.RoleAdmin)
	rr := httptest.NewRecorder()
	eventRouter(NewEventHandler(svc)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), "ev-1")
	svc.AssertExpectations(t)
}

func TestEventCreate_MultipartWithImage(t *testing.T) {
	svc := &mockEventSvc{}
	var gotImage []byte
	svc.On("Create", mock.Anything, "a1", mock.MatchedBy(func(req domain.CreateEventRequest) bool {
		return req.Type == domain.KindWebinar &&
			req.Title == "Cloud basics" &&
			req.MaxParticipants == 50 &&
			req.Date.Equal(time.Date(2026, 12, 5, 0, 0, 0, 0, time.UTC))
	}), mock.AnythingOfType("*event.ImageInput")).
		Run(func(args mock.Arguments) {
			img := args.Get(3).(*event.ImageInput)
			assert.Equal(t, "cover.png", img.Filename)
			assert.Equal(t, "image/png", img.ContentType)
			gotImage, _ = io.ReadAll(img.Reader)
		}).
		Return(&domain.Event{EventID: "ev-2"}, nil)

	body, ct := multipartEvent(t, map[string]string{
		"type":             "webinar",
		"title":            "Cloud basics",
		"date":             "2026-12-05",
		"max_participants": "50",
	}, []byte("png-bytes"))
	req := asUser(httptest.NewRequest(http.MethodPost, "/events", body), "a1", domain.RoleAdmin)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()
	eventRouter(NewEventHandler(svc)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, []byte("png-bytes"), gotImage)
	svc.AssertExpectations(t)
}

func TestEventCreate_MultipartBadDate(t *testing.T) {
	svc := &mockEventSvc{}
	body, ct := multipartEvent(t, map[string]string{"type": "webinar", "title": "x", "date": "next tuesday"}, nil)
	req := asUser(httptest.NewRequest(http.MethodPost, "/events", body), "a1", domain.RoleAdmin)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()
	eventRouter(NewEventHandler(svc)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEventUpdate_MultipartOnlySentFields(t *testing.T) {
	svc := &mockEventSvc{}
	svc.On("Update", mock.Anything, "a1", "ev-1", mock.MatchedBy(func(req domain.UpdateEventRequest) bool {
		return req.Status != nil && *req.Status == domain.EventCompleted &&
			req.Title == nil && req.Date == nil && req.MaxParticipants == nil
	}), (*event.ImageInput)(nil)).Return(&domain.Event{EventID: "ev-1"}, nil)

	body, ct := multipartEvent(t, map[string]string{"status": "completed"}, nil)
	req := asUser(httptest.NewRequest(http.MethodPut, "/events/ev-1", body), "a1", domain.RoleAdmin)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()
	eventRouter(NewEventHandler(svc)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestEventList_PassesFilters(t *testing.T) {
	svc := &mockEventSvc{}
	svc.On("List", mock.Anything, domain.EventFilter{Type: domain.KindInternship, Status: domain.EventUpcoming}).
		Return([]domain.Event{{EventID: "ev-3"}}, nil)

	req := asUser(httptest.NewRequest(http.MethodGet, "/events?type=internship&status=upcoming", nil), "u1", domain.RoleUser)
	rr := httptest.NewRecorder()
	eventRouter(NewEventHandler(svc)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ev-3")
	svc.AssertExpectations(t)
}

func TestEventStats_RoutedBeforeID(t *testing.T) {
	svc := &mockEventSvc{}
	svc.On("Stats", mock.Anything).Return(&domain.EventStats{TotalEvents: 4}, nil)

	req := asUser(httptest.NewRequest(http.MethodGet, "/events/stats/dashboard", nil), "a1", domain.RoleAdmin)
	rr := httptest.NewRecorder()
	eventRouter(NewEventHandler(svc)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"total_events":4`)
	svc.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestEventDelete_NotOwner_Forbidden(t *testing.T) {
	svc := &mockEventSvc{}
	svc.On("Delete", mock.Anything, "a2", "ev-1").Return(domain.ErrForbidden)

	req := asUser(httptest.NewRequest(http.MethodDelete, "/events/ev-1", nil), "a2", domain.RoleAdmin)
	rr := httptest.NewRecorder()
	eventRouter(NewEventHandler(svc)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestParseEventDate(t *testing.T) {
	d, err := parseEventDate("2026-03-01T09:30:00+05:30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 4, 0, 0, 0, time.UTC), d.UTC())

	d, err = parseEventDate("2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, 1, d.Day())

	_, err = parseEventDate("01/03/2026")
	assert.Error(t, err)
}
