package webpush

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/akvora-api/internal/config"
	"github.com/akvora-api/internal/domain"
)

// defaultTimeout bounds a single push attempt when none is configured.
const defaultTimeout = 10 * time.Second

// Sender delivers encrypted web-push messages signed with the VAPID key pair.
type Sender struct {
	publicKey  string
	privateKey string
	subject    string
	ttl        int
	httpClient *http.Client
}

func NewSender(cfg *config.Config) (*Sender, error) {
	if cfg.VAPIDPublicKey == "" || cfg.VAPIDPrivateKey == "" {
		return nil, errors.New("VAPID keys are not configured")
	}
	timeout := cfg.PushTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Sender{
		publicKey:  cfg.VAPIDPublicKey,
		privateKey: cfg.VAPIDPrivateKey,
		subject:    cfg.VAPIDSubject,
		ttl:        cfg.PushTTLSeconds,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// PublicKey is the application server key browsers subscribe with.
func (s *Sender) PublicKey() string { return s.publicKey }

// Send delivers payload to one endpoint. A 404 or 410 from the push service
// yields domain.ErrEndpointGone; other failures yield domain.ErrDeliveryFailed.
func (s *Sender) Send(ctx context.Context, ep *domain.PushEndpoint, payload []byte) error {
	sub := &webpush.Subscription{
		Endpoint: ep.Endpoint,
		Keys: webpush.Keys{
			P256dh: ep.Keys.P256dh,
			Auth:   ep.Keys.Auth,
		},
	}
	resp, err := webpush.SendNotificationWithContext(ctx, payload, sub, &webpush.Options{
		HTTPClient:      s.httpClient,
		Subscriber:      s.subject,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		TTL:             s.ttl,
		Urgency:         webpush.UrgencyNormal,
	})
	if err != nil {
		return fmt.Errorf("send push: %w: %w", domain.ErrDeliveryFailed, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	return classify(resp.StatusCode)
}

func classify(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusNotFound || status == http.StatusGone:
		return fmt.Errorf("push service returned %d: %w", status, domain.ErrEndpointGone)
	default:
		return fmt.Errorf("push service returned %d: %w", status, domain.ErrDeliveryFailed)
	}
}

// GenerateKeys creates a new VAPID key pair.
func GenerateKeys() (privateKey, publicKey string, err error) {
	return webpush.GenerateVAPIDKeys()
}
