package http

import (
	"net/http"

	"github.com/akvora-api/internal/application/announcement"
	"github.com/akvora-api/internal/application/auth"
	"github.com/akvora-api/internal/application/certificate"
	"github.com/akvora-api/internal/application/event"
	"github.com/akvora-api/internal/application/idissuer"
	"github.com/akvora-api/internal/application/notification"
	"github.com/akvora-api/internal/application/push"
	"github.com/akvora-api/internal/application/registration"
	"github.com/akvora-api/internal/application/report"
	"github.com/akvora-api/internal/application/user"
	"github.com/akvora-api/internal/application/video"
	"github.com/akvora-api/internal/config"
	"github.com/akvora-api/internal/domain"
	"github.com/akvora-api/internal/transport/http/handler"
	appmiddleware "github.com/akvora-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// NewRouter wires the application services and returns the HTTP handler.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10, on the unauthenticated auth endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	userSvc := user.NewService(user.ServiceDeps{
		UserRepo: deps.UserRepo,
		Issuer:   idissuer.New(deps.CounterRepo),
	})
	pushSvc := push.NewService(deps.PushEndpointRepo, deps.PushTransport, deps.VAPIDPublicKey, cfg.DispatchConcurrency)
	notifSvc := notification.NewService(deps.NotificationRepo, deps.Emitter, pushSvc, notification.Config{
		Concurrency: cfg.DispatchConcurrency,
		TTL:         cfg.NotificationTTL,
	})
	annSvc := announcement.NewService(deps.AnnouncementRepo, notifSvc, pushSvc, deps.Emitter,
		notification.ResolverFunc(userSvc.LinkedRecipients))
	certSvc := certificate.NewService(certificate.ServiceDeps{
		CertificateRepo: deps.CertificateRepo,
		ObjectStore:     deps.S3Store,
		UserRepo:        deps.UserRepo,
		URLTTL:          cfg.CertificateURLTTL,
	})
	regSvc := registration.NewService(deps.RegistrationRepo, deps.EventRepo, notifSvc, deps.Emitter)
	eventSvc := event.NewService(event.ServiceDeps{
		EventRepo:   deps.EventRepo,
		ObjectStore: deps.S3Store,
		URLTTL:      cfg.EventImageURLTTL,
	})
	videoSvc := video.NewService(deps.VideoRepo)
	reportSvc := report.NewService(deps.Mailer, cfg.ReportIssueTo)
	authSvc := auth.NewService(auth.ServiceDeps{
		VerificationRepo: deps.VerificationRepo,
		UserRepo:         deps.UserRepo,
		Mailer:           deps.Mailer,
		JWTProvider:      deps.JWTProvider,
	})

	authn := appmiddleware.NewAuthenticator(deps.JWTProvider, deps.Identities, userSvc)
	adminOnly := appmiddleware.RequireRole(domain.RoleAdmin)

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc)
	userH := handler.NewUserHandler(userSvc)
	annH := handler.NewAnnouncementHandler(annSvc)
	notifH := handler.NewNotificationHandler(notifSvc)
	pushH := handler.NewPushHandler(pushSvc)
	certH := handler.NewCertificateHandler(certSvc)
	regH := handler.NewRegistrationHandler(regSvc)
	eventH := handler.NewEventHandler(eventSvc)
	videoH := handler.NewVideoHandler(videoSvc)
	reportH := handler.NewReportHandler(reportSvc)
	rtH := handler.NewRealtimeHandler(authn, deps.Hub, cfg.AllowedOrigins)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", rtH.Connect)

	r.Route("/api", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health", healthH.Ping)
		r.Get("/push/vapid-public-key", pushH.PublicKey)
		r.Get("/videos", videoH.List)
		r.Get("/videos/{id}", videoH.Get)
		r.Group(func(r chi.Router) {
			r.Use(sensitiveRL.Limit)
			r.Post("/admin/login", authH.AdminLogin)
			r.Post("/auth/verify-email", authH.SendOTP)
			r.Post("/auth/verify-otp", authH.VerifyOTP)
		})

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authn.Require)

			r.Get("/users/me", userH.Me)
			r.Put("/users/me", userH.UpdateMe)

			r.Get("/announcements/active", annH.ListActive)

			r.Get("/notifications", notifH.List)
			r.Get("/notifications/unread-count", notifH.UnreadCount)
			r.Put("/notifications/read-all", notifH.MarkAllRead)
			r.Put("/notifications/{id}/read", notifH.MarkRead)
			r.Delete("/notifications/{id}", notifH.Delete)

			r.Post("/push/subscribe", pushH.Subscribe)
			r.Post("/push/unsubscribe", pushH.Unsubscribe)

			r.Get("/certificates/my", certH.Mine)

			r.Post("/registrations", regH.Create)
			r.Get("/registrations/my", regH.Mine)

			r.Get("/events", eventH.List)
			r.Get("/events/{id}", eventH.Get)

			r.Post("/report-issue", reportH.ReportIssue)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(adminOnly)

				r.Post("/announcements", annH.Create)
				r.Get("/announcements", annH.List)
				r.Put("/announcements/{id}", annH.Update)
				r.Delete("/announcements/{id}", annH.Delete)

				r.Get("/admin/users", userH.List)
				r.Get("/admin/user-profiles", userH.Profiles)
				r.Put("/admin/users/{id}/block", userH.Block)
				r.Put("/admin/users/{id}/unblock", userH.Unblock)
				r.Delete("/admin/users/{id}", userH.Delete)

				r.Post("/certificates/check-user", certH.CheckUser)
				r.Post("/certificates/upload", certH.Upload)
				r.Get("/certificates/all", certH.List)
				r.Get("/certificates/user/{akvoraId}", certH.ListByAkvoraID)
				r.Put("/certificates/{id}", certH.Rename)
				r.Delete("/certificates/{id}", certH.Delete)

				r.Get("/registrations/event/{eventId}", regH.ListByEvent)
				r.Put("/registrations/{id}/status", regH.UpdateStatus)

				r.Get("/events/stats/dashboard", eventH.Stats)
				r.Post("/events", eventH.Create)
				r.Put("/events/{id}", eventH.Update)
				r.Delete("/events/{id}", eventH.Delete)

				r.Post("/videos", videoH.Create)
				r.Put("/videos/{id}", videoH.Update)
				r.Delete("/videos/{id}", videoH.Delete)
			})
		})
	})

	return r
}
