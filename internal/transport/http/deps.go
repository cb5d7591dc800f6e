package http

import (
	"context"

	"github.com/akvora-api/internal/domain"
	"github.com/akvora-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/akvora-api/internal/infrastructure/jwt"
	"github.com/akvora-api/internal/infrastructure/realtime"
	s3infra "github.com/akvora-api/internal/infrastructure/s3"
	"github.com/akvora-api/internal/infrastructure/smtp"
)

// IdentityVerifier validates identity provider ID tokens.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*domain.Identity, error)
}

// PushTransport delivers one encrypted web-push message.
type PushTransport interface {
	Send(ctx context.Context, ep *domain.PushEndpoint, payload []byte) error
}

// Deps holds all infrastructure dependencies for the router. Identities and
// PushTransport are optional: leave them nil to disable identity provider
// sign-in or push delivery.
type Deps struct {
	UserRepo         *dynamo.UserRepo
	CounterRepo      *dynamo.CounterRepo
	NotificationRepo *dynamo.NotificationRepo
	PushEndpointRepo *dynamo.PushEndpointRepo
	AnnouncementRepo *dynamo.AnnouncementRepo
	CertificateRepo  *dynamo.CertificateRepo
	RegistrationRepo *dynamo.RegistrationRepo
	VerificationRepo *dynamo.VerificationRepo
	EventRepo        *dynamo.EventRepo
	VideoRepo        *dynamo.VideoRepo
	S3Store          *s3infra.Store
	Mailer           smtp.Mailer
	JWTProvider      *jwtinfra.Provider
	Identities       IdentityVerifier
	PushTransport    PushTransport
	VAPIDPublicKey   string

	// Hub holds this instance's websocket clients; Emitter is what services
	// publish through (the hub itself, or a Redis bridge in front of it).
	Hub     *realtime.Hub
	Emitter realtime.Emitter
}
