package announcement

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/akvora-api/internal/application/notification"
	"github.com/akvora-api/internal/domain"
	"github.com/akvora-api/internal/infrastructure/realtime"
	"github.com/akvora-api/internal/pkg/id"
	"github.com/akvora-api/internal/pkg/validate"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldTitle         = "title"
	fieldMessage       = "message"
	fieldLink          = "link"
	fieldDurationValue = "duration_value"
	fieldDurationUnit  = "duration_unit"
	fieldExpiresAt     = "expires_at"
	fieldStatus        = "status"
)

const defaultLink = "/dashboard"

type Service interface {
	Create(ctx context.Context, createdBy string, req domain.CreateAnnouncementRequest) (*domain.Announcement, error)
	List(ctx context.Context) ([]domain.Announcement, error)
	ListActive(ctx context.Context) ([]domain.Announcement, error)
	Get(ctx context.Context, announcementID string) (*domain.Announcement, error)
	Update(ctx context.Context, announcementID string, req domain.UpdateAnnouncementRequest) (*domain.Announcement, error)
	Delete(ctx context.Context, announcementID string) error
}

type announcementStore interface {
	Put(ctx context.Context, a *domain.Announcement) error
	Get(ctx context.Context, announcementID string) (*domain.Announcement, error)
	List(ctx context.Context) ([]domain.Announcement, error)
	ListActive(ctx context.Context, now time.Time) ([]domain.Announcement, error)
	Update(ctx context.Context, announcementID string, updates map[string]interface{}) error
	SetStatus(ctx context.Context, announcementID string, status domain.AnnouncementStatus) error
	Delete(ctx context.Context, announcementID string) error
}

type notifier interface {
	Dispatch(ctx context.Context, recipients notification.RecipientResolver, msg notification.Message) (*notification.DispatchResult, error)
	DeleteByAnnouncement(ctx context.Context, announcementID string) (int, error)
}

type broadcaster interface {
	SendToAll(ctx context.Context, payload domain.PushPayload) domain.PushResult
}

type service struct {
	store      announcementStore
	notifier   notifier
	push       broadcaster
	emitter    realtime.Emitter
	recipients notification.RecipientResolver
	now        func() time.Time
}

// NewService wires the announcement lifecycle. recipients enumerates every
// user with a linked identity.
func NewService(store announcementStore, n notifier, push broadcaster, emitter realtime.Emitter, recipients notification.RecipientResolver) Service {
	return &service{
		store:      store,
		notifier:   n,
		push:       push,
		emitter:    emitter,
		recipients: recipients,
		now:        time.Now,
	}
}

// Create persists the announcement, then fans it out. Only the persist step
// can fail the call; the fan-out runs to completion even if ctx is cancelled.
func (s *service) Create(ctx context.Context, createdBy string, req domain.CreateAnnouncementRequest) (*domain.Announcement, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	now := s.now().UTC().Truncate(time.Second)
	expiresAt, err := domain.ExpiryFrom(now, req.DurationValue, req.DurationUnit)
	if err != nil {
		return nil, err
	}
	a := &domain.Announcement{
		AnnouncementID: id.New(),
		Title:          req.Title,
		Message:        req.Message,
		Link:           req.Link,
		Status:         domain.AnnouncementActive,
		CreatedBy:      createdBy,
		DurationValue:  req.DurationValue,
		DurationUnit:   req.DurationUnit,
		ExpiresAt:      expiresAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.Put(ctx, a); err != nil {
		return nil, fmt.Errorf("create announcement: %w", err)
	}
	ctx = context.WithoutCancel(ctx)

	link := a.Link
	if link == "" {
		link = defaultLink
	}
	if _, err := s.notifier.Dispatch(ctx, s.recipients, notification.Message{
		Kind:           domain.KindAnnouncement,
		Title:          a.Title,
		Body:           a.Message,
		Link:           a.Link,
		AnnouncementID: a.AnnouncementID,
		Metadata: map[string]any{
			"announcementId": a.AnnouncementID,
			"link":           a.Link,
			"expiresAt":      a.ExpiresAt.Format(time.RFC3339),
		},
		ExpiresAt: a.ExpiresAt,
	}); err != nil {
		slog.Error("announcement fan-out failed", "announcement_id", a.AnnouncementID, "err", err)
	}

	s.push.SendToAll(ctx, domain.NewPushPayload("📢 "+a.Title, a.Message, "announcement-"+a.AnnouncementID, map[string]any{
		"type":           string(domain.KindAnnouncement),
		"url":            link,
		"announcementId": a.AnnouncementID,
	}))

	if err := s.emitter.Broadcast(ctx, realtime.EventAnnouncementNew, a); err != nil {
		slog.Warn("announcement broadcast failed", "announcement_id", a.AnnouncementID, "err", err)
	}
	return a, nil
}

// List returns every announcement with its status derived at read time.
func (s *service) List(ctx context.Context) ([]domain.Announcement, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range list {
		s.refresh(ctx, &list[i], now)
	}
	sortNewestFirst(list)
	return list, nil
}

func (s *service) ListActive(ctx context.Context) ([]domain.Announcement, error) {
	now := s.now()
	list, err := s.store.ListActive(ctx, now)
	if err != nil {
		return nil, err
	}
	active := list[:0]
	for i := range list {
		if !s.refresh(ctx, &list[i], now) {
			active = append(active, list[i])
		}
	}
	sortNewestFirst(active)
	return active, nil
}

func (s *service) Get(ctx context.Context, announcementID string) (*domain.Announcement, error) {
	a, err := s.store.Get(ctx, announcementID)
	if err != nil {
		return nil, err
	}
	s.refresh(ctx, a, s.now())
	return a, nil
}

// Update applies the given fields. A changed duration recomputes the expiry
// from now and reactivates the announcement.
func (s *service) Update(ctx context.Context, announcementID string, req domain.UpdateAnnouncementRequest) (*domain.Announcement, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	current, err := s.store.Get(ctx, announcementID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates[fieldTitle] = *req.Title
	}
	if req.Message != nil {
		updates[fieldMessage] = *req.Message
	}
	if req.Link != nil {
		updates[fieldLink] = *req.Link
	}
	if req.DurationValue != nil || req.DurationUnit != nil {
		value, unit := current.DurationValue, current.DurationUnit
		if req.DurationValue != nil {
			value = *req.DurationValue
		}
		if req.DurationUnit != nil {
			unit = *req.DurationUnit
		}
		expiresAt, err := domain.ExpiryFrom(s.now(), value, unit)
		if err != nil {
			return nil, err
		}
		updates[fieldDurationValue] = value
		updates[fieldDurationUnit] = unit
		updates[fieldExpiresAt] = expiresAt
		updates[fieldStatus] = domain.AnnouncementActive
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("no fields to update: %w", domain.ErrBadRequest)
	}
	if err := s.store.Update(ctx, announcementID, updates); err != nil {
		return nil, fmt.Errorf("update announcement: %w", err)
	}

	ctx = context.WithoutCancel(ctx)
	updated, err := s.Get(ctx, announcementID)
	if err != nil {
		return nil, err
	}
	if err := s.emitter.Broadcast(ctx, realtime.EventAnnouncementUpdated, updated); err != nil {
		slog.Warn("announcement broadcast failed", "announcement_id", announcementID, "err", err)
	}
	return updated, nil
}

// Delete removes the announcement and every notification referencing it.
func (s *service) Delete(ctx context.Context, announcementID string) error {
	if err := s.store.Delete(ctx, announcementID); err != nil {
		return fmt.Errorf("delete announcement: %w", err)
	}
	ctx = context.WithoutCancel(ctx)
	n, err := s.notifier.DeleteByAnnouncement(ctx, announcementID)
	if err != nil {
		// The TTL on the remaining records still reclaims them.
		slog.Error("cascade delete incomplete", "announcement_id", announcementID, "deleted", n, "err", err)
	}
	if err := s.emitter.Broadcast(ctx, realtime.EventAnnouncementDeleted, map[string]string{"id": announcementID}); err != nil {
		slog.Warn("announcement broadcast failed", "announcement_id", announcementID, "err", err)
	}
	return nil
}

// refresh derives the status at now and persists an expired flip. It
// reports whether the announcement is expired.
func (s *service) refresh(ctx context.Context, a *domain.Announcement, now time.Time) bool {
	if a.RefreshStatus(now) {
		if err := s.store.SetStatus(ctx, a.AnnouncementID, domain.AnnouncementExpired); err != nil {
			slog.Warn("could not persist expired status", "announcement_id", a.AnnouncementID, "err", err)
		}
	}
	return a.Status == domain.AnnouncementExpired
}

func sortNewestFirst(list []domain.Announcement) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}
