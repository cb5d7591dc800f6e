package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/akvora-api/internal/domain"
	"github.com/akvora-api/internal/infrastructure/metrics"
	"github.com/akvora-api/internal/infrastructure/realtime"
	"github.com/akvora-api/internal/pkg/id"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Message is one domain event to be fanned out to a set of recipients.
type Message struct {
	Kind           domain.NotificationKind
	Title          string
	Body           string
	Link           string
	AnnouncementID string
	RegistrationID string
	Metadata       map[string]any
	// ExpiresAt overrides the default record lifetime when set.
	ExpiresAt time.Time
}

// DispatchResult aggregates the outcome of one fan-out.
type DispatchResult struct {
	Recipients     int `json:"recipients"`
	RecordsWritten int `json:"records_written"`
	PushSent       int `json:"push_sent"`
	PushFailed     int `json:"push_failed"`
}

// ListQuery selects one page of a recipient's notifications. A Cursor from
// a previous page takes precedence over Page.
type ListQuery struct {
	Page       int
	PageSize   int
	UnreadOnly bool
	Cursor     string
}

type Service interface {
	Dispatch(ctx context.Context, recipients RecipientResolver, msg Message) (*DispatchResult, error)
	List(ctx context.Context, userID string, q ListQuery) (*domain.NotificationPage, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, notificationID, userID string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
	Delete(ctx context.Context, notificationID, userID string) error
	DeleteByAnnouncement(ctx context.Context, announcementID string) (int, error)
}

type notificationStore interface {
	Put(ctx context.Context, n *domain.Notification) error
	ListPage(ctx context.Context, q domain.NotificationQuery) ([]domain.Notification, string, error)
	Count(ctx context.Context, userID string, now time.Time, unreadOnly bool) (int, error)
	MarkRead(ctx context.Context, notificationID, userID string, now time.Time) error
	MarkAllRead(ctx context.Context, userID string, now time.Time) (int, error)
	Delete(ctx context.Context, notificationID, userID string) error
	DeleteByAnnouncement(ctx context.Context, announcementID string) (int, error)
}

// pusher delivers a payload to every endpoint a user has registered.
type pusher interface {
	SendToUser(ctx context.Context, userID string, payload domain.PushPayload) domain.PushResult
}

// Config tunes the dispatcher.
type Config struct {
	// Concurrency caps in-flight recipients per dispatch.
	Concurrency int
	// TTL is the lifetime of records whose message carries no expiry.
	TTL time.Duration
}

type service struct {
	store   notificationStore
	emitter realtime.Emitter
	push    pusher
	cfg     Config
	now     func() time.Time
}

func NewService(store notificationStore, emitter realtime.Emitter, push pusher, cfg Config) Service {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 16
	}
	return &service{store: store, emitter: emitter, push: push, cfg: cfg, now: time.Now}
}

func (s *service) List(ctx context.Context, userID string, q ListQuery) (*domain.NotificationPage, error) {
	size := q.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	now := s.now()
	window := domain.NotificationQuery{
		UserID:     userID,
		UnreadOnly: q.UnreadOnly,
		Limit:      size,
		Cursor:     q.Cursor,
		Now:        now,
	}

	items := []domain.Notification{}
	next := ""
	exhausted := false
	if q.Cursor == "" {
		// Walk forward to the requested page.
		for i := 1; i < page; i++ {
			_, c, err := s.store.ListPage(ctx, window)
			if err != nil {
				return nil, err
			}
			if c == "" {
				exhausted = true
				break
			}
			window.Cursor = c
		}
	}
	if !exhausted {
		got, c, err := s.store.ListPage(ctx, window)
		if err != nil {
			return nil, err
		}
		if got != nil {
			items = got
		}
		next = c
	}

	total, err := s.store.Count(ctx, userID, now, q.UnreadOnly)
	if err != nil {
		return nil, err
	}
	unread := total
	if !q.UnreadOnly {
		if unread, err = s.store.Count(ctx, userID, now, true); err != nil {
			return nil, err
		}
	}
	return &domain.NotificationPage{
		Items:       items,
		Total:       total,
		Page:        page,
		PageSize:    size,
		TotalPages:  (total + size - 1) / size,
		UnreadCount: unread,
		NextCursor:  next,
	}, nil
}

func (s *service) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.store.Count(ctx, userID, s.now(), true)
}

func (s *service) MarkRead(ctx context.Context, notificationID, userID string) error {
	if err := s.store.MarkRead(ctx, notificationID, userID, s.now()); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, userID string) (int, error) {
	n, err := s.store.MarkAllRead(ctx, userID, s.now())
	if err != nil {
		return n, fmt.Errorf("mark all read: %w", err)
	}
	return n, nil
}

func (s *service) Delete(ctx context.Context, notificationID, userID string) error {
	if err := s.store.Delete(ctx, notificationID, userID); err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	return nil
}

func (s *service) DeleteByAnnouncement(ctx context.Context, announcementID string) (int, error) {
	n, err := s.store.DeleteByAnnouncement(ctx, announcementID)
	if err != nil {
		return n, fmt.Errorf("cascade delete notifications: %w", err)
	}
	return n, nil
}

func (s *service) logEmitFailure(userID string, err error) {
	slog.Warn("realtime emit failed", "user_id", userID, "err", err)
}

func recordWrite(err error) {
	if err != nil {
		metrics.NotificationWrites.WithLabelValues(metrics.ResultFailed).Inc()
		return
	}
	metrics.NotificationWrites.WithLabelValues(metrics.ResultOK).Inc()
}

func newRecord(userID string, msg Message, createdAt time.Time, expiresAt time.Time) *domain.Notification {
	n := &domain.Notification{
		NotificationID: id.New(),
		UserID:         userID,
		Kind:           msg.Kind,
		Title:          msg.Title,
		Message:        msg.Body,
		Link:           msg.Link,
		AnnouncementID: msg.AnnouncementID,
		RegistrationID: msg.RegistrationID,
		Metadata:       msg.Metadata,
		CreatedAt:      createdAt,
	}
	if !expiresAt.IsZero() {
		n.ExpiresAt = expiresAt.Unix()
	}
	return n
}
