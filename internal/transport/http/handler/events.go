package handler

import (
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/akvora-api/internal/application/event"
	"github.com/akvora-api/internal/domain"
	"github.com/go-chi/chi/v5"
)

// imageField is the multipart field carrying an event cover image.
const imageField = "eventImage"

// EventHandler handles webinar, workshop and internship endpoints. Create
// and Update accept either JSON or a multipart form with an optional image.
type EventHandler struct {
	svc event.Service
}

func NewEventHandler(svc event.Service) *EventHandler {
	return &EventHandler{svc: svc}
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	adminID, ok := caller(w, r)
	if !ok {
		return
	}
	var req domain.CreateEventRequest
	var img *event.ImageInput
	if isMultipart(r) {
		form, ok := parseEventForm(w, r)
		if !ok {
			return
		}
		defer form.close()
		if err := form.create(&req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		img = form.image
	} else if !decodeJSON(w, r, &req) {
		return
	}
	e, err := h.svc.Create(r.Context(), adminID, req, img)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.svc.List(r.Context(), domain.EventFilter{
		Type:   domain.NotificationKind(q.Get("type")),
		Status: domain.EventStatus(q.Get("status")),
	})
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	adminID, ok := caller(w, r)
	if !ok {
		return
	}
	var req domain.UpdateEventRequest
	var img *event.ImageInput
	if isMultipart(r) {
		form, ok := parseEventForm(w, r)
		if !ok {
			return
		}
		defer form.close()
		if err := form.update(&req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		img = form.image
	} else if !decodeJSON(w, r, &req) {
		return
	}
	e, err := h.svc.Update(r.Context(), adminID, chi.URLParam(r, "id"), req, img)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	adminID, ok := caller(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), adminID, chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "event deleted"})
}

func (h *EventHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func isMultipart(r *http.Request) bool {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mt == "multipart/form-data"
}

// eventForm is a parsed multipart event submission.
type eventForm struct {
	r     *http.Request
	image *event.ImageInput
	close func()
}

func parseEventForm(w http.ResponseWriter, r *http.Request) (*eventForm, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, event.MaxImageSize+(1<<20))
	if err := r.ParseMultipartForm(event.MaxImageSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return nil, false
	}
	form := &eventForm{r: r, close: func() {}}
	f, header, err := r.FormFile(imageField)
	if err == nil {
		form.image = &event.ImageInput{
			Reader:      f,
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
		}
		form.close = func() { f.Close() }
	} else if err != http.ErrMissingFile {
		writeError(w, http.StatusBadRequest, "invalid "+imageField+" field")
		return nil, false
	}
	return form, true
}

// value returns the form value for key and whether it was sent at all.
func (f *eventForm) value(key string) (string, bool) {
	vs, ok := f.r.MultipartForm.Value[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

func (f *eventForm) create(req *domain.CreateEventRequest) error {
	req.Type = domain.NotificationKind(f.r.FormValue("type"))
	req.Title = f.r.FormValue("title")
	req.Description = f.r.FormValue("description")
	req.Duration = f.r.FormValue("duration")
	req.Location = f.r.FormValue("location")
	req.Instructor = f.r.FormValue("instructor")
	req.Status = domain.EventStatus(f.r.FormValue("status"))
	if v, ok := f.value("date"); ok {
		d, err := parseEventDate(v)
		if err != nil {
			return err
		}
		req.Date = d
	}
	if v, ok := f.value("max_participants"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid max_participants %q", v)
		}
		req.MaxParticipants = n
	}
	return nil
}

func (f *eventForm) update(req *domain.UpdateEventRequest) error {
	str := func(key string) *string {
		if v, ok := f.value(key); ok {
			return &v
		}
		return nil
	}
	req.Title = str("title")
	req.Description = str("description")
	req.Duration = str("duration")
	req.Location = str("location")
	req.Instructor = str("instructor")
	if v, ok := f.value("type"); ok {
		t := domain.NotificationKind(v)
		req.Type = &t
	}
	if v, ok := f.value("status"); ok {
		s := domain.EventStatus(v)
		req.Status = &s
	}
	if v, ok := f.value("date"); ok {
		d, err := parseEventDate(v)
		if err != nil {
			return err
		}
		req.Date = &d
	}
	if v, ok := f.value("max_participants"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid max_participants %q", v)
		}
		req.MaxParticipants = &n
	}
	return nil
}

// parseEventDate accepts RFC 3339 timestamps and plain dates.
func parseEventDate(v string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", v)
}
