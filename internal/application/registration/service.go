package registration

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

const registrationsLink = "/dashboard/registrations"

type Service interface {
	Create(ctx context.Context, u *domain.User, req domain.CreateRegistrationRequest) (*domain.Registration, error)
	Mine(ctx context.Context, userID string) ([]domain.Registration, error)
	ListByEvent(ctx context.Context, eventID string) ([]domain.Registration, error)
	UpdateStatus(ctx context.Context, registrationID string, req domain.UpdateRegistrationStatusRequest) (*domain.Registration, error)
}

type registrationStore interface {
	Create(ctx context.Context, reg *domain.Registration) error
	Get(ctx context.Context, registrationID string) (*domain.Registration, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Registration, error)
	ListByEvent(ctx context.Context, eventID string) ([]domain.Registration, error)
	UpdateStatus(ctx context.Context, registrationID string, status domain.RegistrationStatus, note string) error
}

// eventStore resolves the event being registered for and tracks its seats.
type eventStore interface {
	Get(ctx context.Context, eventID string) (*domain.Event, error)
	AdjustParticipants(ctx context.Context, eventID string, delta int) error
}

type dispatcher interface {
	Dispatch(ctx context.Context, recipients notification.RecipientResolver, msg notification.Message) (*notification.DispatchResult, error)
}

type service struct {
	repo     registrationStore
	events   eventStore
	notifier dispatcher
	emitter  realtime.Emitter
	now      func() time.Time
}

func NewService(repo registrationStore, events eventStore, n dispatcher, emitter realtime.Emitter) Service {
	return &service{repo: repo, events: events, notifier: n, emitter: emitter, now: time.Now}
}

// Create records u's registration for an open event and notifies u. The
// event's type and title are taken from the stored event. One live
// registration per (user, event) is enforced by the store.
func (s *service) Create(ctx context.Context, u *domain.User, req domain.CreateRegistrationRequest) (*domain.Registration, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if !u.ProfileCompleted {
		return nil, fmt.Errorf("complete your profile before registering: %w", domain.ErrBadRequest)
	}
	ev, err := s.events.Get(ctx, req.EventID)
	if err != nil {
		return nil, err
	}
	if !ev.OpenForRegistration() {
		return nil, fmt.Errorf("event is %s: %w", ev.Status, domain.ErrBadRequest)
	}
	if ev.Full() {
		return nil, fmt.Errorf("event is full: %w", domain.ErrConflict)
	}

	now := s.now().UTC()
	reg := &domain.Registration{
		RegistrationID: id.Derived(u.UserID, ev.EventID),
		UserID:         u.UserID,
		AkvoraID:       u.AkvoraID,
		EventID:        ev.EventID,
		EventType:      ev.Type,
		EventTitle:     ev.Title,
		Status:         domain.RegistrationPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, reg); err != nil {
		return nil, fmt.Errorf("create registration: %w", err)
	}

	s.notify(context.WithoutCancel(ctx), reg, notification.Message{
		Kind:  domain.KindRegistration,
		Title: "Registration received",
		Body:  fmt.Sprintf("Your registration for %s %q is pending review.", reg.EventType, reg.EventTitle),
	})
	return reg, nil
}

func (s *service) Mine(ctx context.Context, userID string) ([]domain.Registration, error) {
	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(list)
	return list, nil
}

func (s *service) ListByEvent(ctx context.Context, eventID string) ([]domain.Registration, error) {
	list, err := s.repo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(list)
	return list, nil
}

// UpdateStatus approves or rejects a registration, notifies the registrant
// and tells connected admins. Approval takes a seat on the event; rejecting
// an approved registration gives it back.
func (s *service) UpdateStatus(ctx context.Context, registrationID string, req domain.UpdateRegistrationStatusRequest) (*domain.Registration, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	prev, err := s.repo.Get(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	wasApproved := prev.Status == domain.RegistrationApproved
	approving := req.Status == domain.RegistrationApproved && !wasApproved
	if approving {
		if err := s.events.AdjustParticipants(ctx, prev.EventID, 1); err != nil {
			return nil, fmt.Errorf("approve registration: %w", err)
		}
	}
	if err := s.repo.UpdateStatus(ctx, registrationID, req.Status, req.Note); err != nil {
		if approving {
			s.releaseSeat(ctx, prev)
		}
		return nil, fmt.Errorf("update registration status: %w", err)
	}
	ctx = context.WithoutCancel(ctx)
	if wasApproved && req.Status != domain.RegistrationApproved {
		s.releaseSeat(ctx, prev)
	}
	reg, err := s.repo.Get(ctx, registrationID)
	if err != nil {
		return nil, err
	}

	msg := notification.Message{
		Kind:  domain.KindApproval,
		Title: "Registration approved",
		Body:  fmt.Sprintf("You're in! Your registration for %q has been approved.", reg.EventTitle),
	}
	if req.Status == domain.RegistrationRejected {
		msg.Kind = domain.KindRejection
		msg.Title = "Registration not approved"
		msg.Body = fmt.Sprintf("Your registration for %q was not approved.", reg.EventTitle)
	}
	if req.Note != "" {
		msg.Body += " " + req.Note
	}
	s.notify(ctx, reg, msg)

	if err := s.emitter.EmitToUser(ctx, reg.UserID, realtime.EventRegistrationStatus, reg); err != nil {
		slog.Warn("registration status emit failed", "registration_id", reg.RegistrationID, "err", err)
	}
	if err := s.emitter.EmitToRoom(ctx, realtime.AdminRoom, realtime.EventRegistrationStatus, reg); err != nil {
		slog.Warn("registration status emit failed", "registration_id", reg.RegistrationID, "room", realtime.AdminRoom, "err", err)
	}
	return reg, nil
}

func (s *service) releaseSeat(ctx context.Context, reg *domain.Registration) {
	if err := s.events.AdjustParticipants(context.WithoutCancel(ctx), reg.EventID, -1); err != nil {
		slog.Warn("could not release event seat", "registration_id", reg.RegistrationID, "event_id", reg.EventID, "err", err)
	}
}

func (s *service) notify(ctx context.Context, reg *domain.Registration, msg notification.Message) {
	msg.Link = registrationsLink
	msg.RegistrationID = reg.RegistrationID
	msg.Metadata = map[string]any{
		"registrationId": reg.RegistrationID,
		"eventId":        reg.EventID,
		"eventType":      string(reg.EventType),
		"status":         string(reg.Status),
	}
	if _, err := s.notifier.Dispatch(ctx, notification.Recipients{reg.UserID}, msg); err != nil {
		slog.Error("registration notification failed", "registration_id", reg.RegistrationID, "err", err)
	}
}

func sortNewestFirst(list []domain.Registration) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}
