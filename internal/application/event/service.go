package event

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/akvora-api/internal/domain"
	"github.com/akvora-api/internal/pkg/id"
	"github.com/akvora-api/internal/pkg/validate"
)

// MaxImageSize bounds an event cover image.
const MaxImageSize = 5 << 20

// DynamoDB attribute names used in partial update maps.
const (
	fieldType        = "type"
	fieldTitle       = "title"
	fieldDescription = "description"
	fieldDate        = "date"
	fieldDuration    = "duration"
	fieldLocation    = "location"
	fieldInstructor  = "instructor"
	fieldMaxSeats    = "max_participants"
	fieldStatus      = "status"
	fieldImageKey    = "image_key"
)

// typeOrder fixes the order of the dashboard breakdown.
var typeOrder = []domain.NotificationKind{domain.KindWebinar, domain.KindWorkshop, domain.KindInternship}

// ImageInput is an optional cover image sent with a create or update.
type ImageInput struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
}

type Service interface {
	Create(ctx context.Context, createdBy string, req domain.CreateEventRequest, img *ImageInput) (*domain.Event, error)
	List(ctx context.Context, f domain.EventFilter) ([]domain.Event, error)
	Get(ctx context.Context, eventID string) (*domain.Event, error)
	Update(ctx context.Context, adminID, eventID string, req domain.UpdateEventRequest, img *ImageInput) (*domain.Event, error)
	Delete(ctx context.Context, adminID, eventID string) error
	Stats(ctx context.Context) (*domain.EventStats, error)
}

type eventStore interface {
	Put(ctx context.Context, e *domain.Event) error
	Get(ctx context.Context, eventID string) (*domain.Event, error)
	List(ctx context.Context, f domain.EventFilter) ([]domain.Event, error)
	Update(ctx context.Context, eventID string, updates map[string]interface{}) error
	Delete(ctx context.Context, eventID string) error
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type service struct {
	events eventStore
	files  objectStore
	urlTTL time.Duration
	now    func() time.Time
}

type ServiceDeps struct {
	EventRepo   eventStore
	ObjectStore objectStore
	URLTTL      time.Duration
}

func NewService(deps ServiceDeps) Service {
	ttl := deps.URLTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &service{events: deps.EventRepo, files: deps.ObjectStore, urlTTL: ttl, now: time.Now}
}

func (s *service) Create(ctx context.Context, createdBy string, req domain.CreateEventRequest, img *ImageInput) (*domain.Event, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	status := req.Status
	if status == "" {
		status = domain.EventUpcoming
	}
	now := s.now().UTC()
	e := &domain.Event{
		EventID:         id.New(),
		Type:            req.Type,
		Title:           req.Title,
		Description:     req.Description,
		Date:            req.Date.UTC(),
		Duration:        req.Duration,
		Location:        req.Location,
		Instructor:      req.Instructor,
		MaxParticipants: req.MaxParticipants,
		Status:          status,
		CreatedBy:       createdBy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if img != nil {
		key, err := s.uploadImage(ctx, e.EventID, img)
		if err != nil {
			return nil, err
		}
		e.ImageKey = key
	}
	if err := s.events.Put(ctx, e); err != nil {
		s.removeImage(ctx, e.ImageKey)
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.withImageURL(ctx, e)
	return e, nil
}

// List returns the matching events in date order.
func (s *service) List(ctx context.Context, f domain.EventFilter) ([]domain.Event, error) {
	list, err := s.events.List(ctx, f)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].Date.Before(list[j].Date) })
	for i := range list {
		s.withImageURL(ctx, &list[i])
	}
	return list, nil
}

func (s *service) Get(ctx context.Context, eventID string) (*domain.Event, error) {
	e, err := s.events.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	s.withImageURL(ctx, e)
	return e, nil
}

// Update applies the given fields to an event created by adminID. A new
// image replaces the previous object.
func (s *service) Update(ctx context.Context, adminID, eventID string, req domain.UpdateEventRequest, img *ImageInput) (*domain.Event, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	current, err := s.owned(ctx, adminID, eventID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Type != nil {
		updates[fieldType] = *req.Type
	}
	if req.Title != nil {
		updates[fieldTitle] = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		updates[fieldDescription] = *req.Description
	}
	if req.Date != nil {
		updates[fieldDate] = req.Date.UTC()
	}
	if req.Duration != nil {
		updates[fieldDuration] = *req.Duration
	}
	if req.Location != nil {
		updates[fieldLocation] = *req.Location
	}
	if req.Instructor != nil {
		updates[fieldInstructor] = *req.Instructor
	}
	if req.MaxParticipants != nil {
		if *req.MaxParticipants > 0 && *req.MaxParticipants < current.CurrentParticipants {
			return nil, fmt.Errorf("capacity below %d approved participants: %w", current.CurrentParticipants, domain.ErrBadRequest)
		}
		updates[fieldMaxSeats] = *req.MaxParticipants
	}
	if req.Status != nil {
		updates[fieldStatus] = *req.Status
	}
	var newKey string
	if img != nil {
		if newKey, err = s.uploadImage(ctx, eventID, img); err != nil {
			return nil, err
		}
		updates[fieldImageKey] = newKey
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("no fields to update: %w", domain.ErrBadRequest)
	}
	if err := s.events.Update(ctx, eventID, updates); err != nil {
		s.removeImage(ctx, newKey)
		return nil, fmt.Errorf("update event: %w", err)
	}
	if newKey != "" {
		s.removeImage(ctx, current.ImageKey)
	}
	return s.Get(ctx, eventID)
}

func (s *service) Delete(ctx context.Context, adminID, eventID string) error {
	current, err := s.owned(ctx, adminID, eventID)
	if err != nil {
		return err
	}
	if err := s.events.Delete(ctx, eventID); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	s.removeImage(ctx, current.ImageKey)
	return nil
}

// Stats summarises every event for the admin dashboard.
func (s *service) Stats(ctx context.Context) (*domain.EventStats, error) {
	list, err := s.events.List(ctx, domain.EventFilter{})
	if err != nil {
		return nil, err
	}
	byType := map[domain.NotificationKind]*domain.EventTypeStats{}
	stats := &domain.EventStats{TotalEvents: len(list), ByType: []domain.EventTypeStats{}}
	for _, e := range list {
		t, ok := byType[e.Type]
		if !ok {
			t = &domain.EventTypeStats{Type: e.Type}
			byType[e.Type] = t
		}
		t.Count++
		t.TotalParticipants += e.CurrentParticipants
		if e.Status == domain.EventUpcoming {
			t.Upcoming++
		}
		stats.TotalParticipants += e.CurrentParticipants
	}
	for _, k := range typeOrder {
		if t, ok := byType[k]; ok {
			stats.ByType = append(stats.ByType, *t)
		}
	}
	return stats, nil
}

// owned loads eventID and checks that adminID created it.
func (s *service) owned(ctx context.Context, adminID, eventID string) (*domain.Event, error) {
	e, err := s.events.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if e.CreatedBy != adminID {
		return nil, fmt.Errorf("event %s belongs to another admin: %w", eventID, domain.ErrForbidden)
	}
	return e, nil
}

func (s *service) uploadImage(ctx context.Context, eventID string, img *ImageInput) (string, error) {
	if img.Size <= 0 || img.Size > MaxImageSize {
		return "", fmt.Errorf("image must be between 1 byte and %d MB: %w", MaxImageSize>>20, domain.ErrBadRequest)
	}
	if !strings.HasPrefix(img.ContentType, "image/") {
		return "", fmt.Errorf("only image uploads are allowed: %w", domain.ErrBadRequest)
	}
	key := fmt.Sprintf("events/%s/%s%s", eventID, id.New(), strings.ToLower(path.Ext(path.Base(img.Filename))))
	if err := s.files.Upload(ctx, key, img.Reader, img.Size, img.ContentType); err != nil {
		return "", err
	}
	return key, nil
}

func (s *service) removeImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.files.Delete(context.WithoutCancel(ctx), key); err != nil {
		slog.Warn("could not remove event image", "key", key, "err", err)
	}
}

func (s *service) withImageURL(ctx context.Context, e *domain.Event) {
	if e.ImageKey == "" {
		return
	}
	url, err := s.files.PresignedURL(ctx, e.ImageKey, s.urlTTL)
	if err != nil {
		slog.Warn("could not presign event image", "event_id", e.EventID, "err", err)
		return
	}
	e.ImageURL = url
}
