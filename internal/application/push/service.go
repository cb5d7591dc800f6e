package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/akvora-api/internal/domain"
	"github.com/akvora-api/internal/infrastructure/metrics"
	pkgdevice "github.com/akvora-api/internal/pkg/device"
	"github.com/akvora-api/internal/pkg/validate"
	"golang.org/x/sync/errgroup"
)

type Service interface {
	VAPIDPublicKey() string
	Subscribe(ctx context.Context, userID string, req domain.SubscribeRequest) (*domain.PushEndpoint, bool, error)
	Unsubscribe(ctx context.Context, userID, endpoint string) error
	SendToUser(ctx context.Context, userID string, payload domain.PushPayload) domain.PushResult
	SendToAll(ctx context.Context, payload domain.PushPayload) domain.PushResult
}

type endpointStore interface {
	PutIfAbsent(ctx context.Context, ep *domain.PushEndpoint) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]domain.PushEndpoint, error)
	ListAll(ctx context.Context) ([]domain.PushEndpoint, error)
	DeleteByEndpoint(ctx context.Context, endpoint string) error
	DeleteOwned(ctx context.Context, endpoint, userID string) error
}

// transport sends one encrypted message. It returns domain.ErrEndpointGone
// when the push service reports the subscription as permanently invalid.
type transport interface {
	Send(ctx context.Context, ep *domain.PushEndpoint, payload []byte) error
}

type service struct {
	store       endpointStore
	transport   transport
	publicKey   string
	concurrency int
	now         func() time.Time
}

// NewService returns a push service. A nil transport disables delivery;
// subscriptions are still recorded.
func NewService(store endpointStore, t transport, publicKey string, concurrency int) Service {
	if concurrency <= 0 {
		concurrency = 16
	}
	return &service{store: store, transport: t, publicKey: publicKey, concurrency: concurrency, now: time.Now}
}

func (s *service) VAPIDPublicKey() string { return s.publicKey }

// Subscribe records a browser subscription for userID. It reports whether a
// new record was written; an already-registered endpoint is not an error.
func (s *service) Subscribe(ctx context.Context, userID string, req domain.SubscribeRequest) (*domain.PushEndpoint, bool, error) {
	if err := validate.Struct(req); err != nil {
		return nil, false, err
	}
	info := req.DeviceInfo
	if info == "" {
		info = pkgdevice.Classify(req.UserAgent)
	}
	ep := &domain.PushEndpoint{
		UserID:     userID,
		Endpoint:   req.Subscription.Endpoint,
		Keys:       req.Subscription.Keys,
		UserAgent:  req.UserAgent,
		DeviceInfo: info,
		CreatedAt:  s.now().UTC(),
	}
	created, err := s.store.PutIfAbsent(ctx, ep)
	if err != nil {
		return nil, false, fmt.Errorf("subscribe: %w", err)
	}
	return ep, created, nil
}

// Unsubscribe removes userID's subscription. Removing a subscription that
// does not exist, or belongs to someone else, is a no-op.
func (s *service) Unsubscribe(ctx context.Context, userID, endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("endpoint is required: %w", domain.ErrBadRequest)
	}
	err := s.store.DeleteOwned(ctx, endpoint, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	return nil
}

func (s *service) SendToUser(ctx context.Context, userID string, payload domain.PushPayload) domain.PushResult {
	if s.transport == nil {
		return domain.PushResult{}
	}
	eps, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		slog.Warn("could not list push endpoints", "user_id", userID, "err", err)
		return domain.PushResult{}
	}
	return s.deliver(ctx, eps, payload)
}

func (s *service) SendToAll(ctx context.Context, payload domain.PushPayload) domain.PushResult {
	if s.transport == nil {
		return domain.PushResult{}
	}
	eps, err := s.store.ListAll(ctx)
	if err != nil {
		slog.Warn("could not list push endpoints", "err", err)
		return domain.PushResult{}
	}
	res := s.deliver(ctx, eps, payload)
	slog.Info("broadcast push settled", "endpoints", len(eps), "sent", res.Sent, "failed", res.Failed, "pruned", res.Pruned)
	return res
}

// deliver attempts every endpoint independently and settles all of them.
// Endpoints reported gone are pruned.
func (s *service) deliver(ctx context.Context, eps []domain.PushEndpoint, payload domain.PushPayload) domain.PushResult {
	if len(eps) == 0 {
		return domain.PushResult{}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("could not encode push payload", "err", err)
		return domain.PushResult{Failed: len(eps)}
	}

	var (
		mu  sync.Mutex
		res domain.PushResult
	)
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i := range eps {
		ep := &eps[i]
		g.Go(func() error {
			one := s.attempt(ctx, ep, body)
			mu.Lock()
			res.Add(one)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return res
}

func (s *service) attempt(ctx context.Context, ep *domain.PushEndpoint, body []byte) domain.PushResult {
	err := s.transport.Send(ctx, ep, body)
	switch {
	case err == nil:
		metrics.PushAttempts.WithLabelValues(metrics.OutcomeSent).Inc()
		return domain.PushResult{Sent: 1}
	case errors.Is(err, domain.ErrEndpointGone):
		metrics.PushAttempts.WithLabelValues(metrics.OutcomeGone).Inc()
		if derr := s.store.DeleteByEndpoint(ctx, ep.Endpoint); derr != nil {
			slog.Warn("could not prune push endpoint", "user_id", ep.UserID, "err", derr)
			return domain.PushResult{Failed: 1}
		}
		slog.Info("pruned expired push endpoint", "user_id", ep.UserID, "endpoint_id", ep.EndpointID)
		return domain.PushResult{Failed: 1, Pruned: 1}
	default:
		metrics.PushAttempts.WithLabelValues(metrics.OutcomeFailed).Inc()
		slog.Warn("push delivery failed", "user_id", ep.UserID, "endpoint_id", ep.EndpointID, "err", err)
		return domain.PushResult{Failed: 1}
	}
}
