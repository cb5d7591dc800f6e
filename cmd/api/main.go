package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akvora-api/internal/config"
	"github.com/akvora-api/internal/infrastructure/awsconf"
	"github.com/akvora-api/internal/infrastructure/dynamo"
	"github.com/akvora-api/internal/infrastructure/google"
	jwtinfra "github.com/akvora-api/internal/infrastructure/jwt"
	"github.com/akvora-api/internal/infrastructure/realtime"
	s3infra "github.com/akvora-api/internal/infrastructure/s3"
	"github.com/akvora-api/internal/infrastructure/smtp"
	"github.com/akvora-api/internal/infrastructure/webpush"
	transporthttp "github.com/akvora-api/internal/transport/http"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, reading from environment")
	}

	cfg := config.Load()
	if cfg.AppEnv == "production" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	awsCfg, err := awsconf.Load(ctx, cfg)
	if err != nil {
		fatal("aws configuration", err)
	}

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(awsCfg, cfg.AWSEndpointURL)
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		fatal("jwt provider", err)
	}

	s3Store := s3infra.NewStore(s3infra.NewClient(awsCfg, cfg.AWSEndpointURL), cfg.S3BucketName)

	hub := realtime.NewHub()
	defer hub.Close()
	var emitter realtime.Emitter = hub
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		bridge := realtime.NewRedisBridge(rdb, cfg.RedisChannel, hub)
		emitter = bridge
		go func() {
			if err := bridge.Run(ctx); err != nil {
				slog.Error("realtime bridge stopped", "err", err)
			}
		}()
	}

	deps := &transporthttp.Deps{
		UserRepo:         dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		CounterRepo:      dynamo.NewCounterRepo(dynamoClient, cfg.DynamoTables.Counters),
		NotificationRepo: dynamo.NewNotificationRepo(dynamoClient, cfg.DynamoTables.Notifications),
		PushEndpointRepo: dynamo.NewPushEndpointRepo(dynamoClient, cfg.DynamoTables.PushEndpoints),
		AnnouncementRepo: dynamo.NewAnnouncementRepo(dynamoClient, cfg.DynamoTables.Announcements),
		CertificateRepo:  dynamo.NewCertificateRepo(dynamoClient, cfg.DynamoTables.Certificates),
		RegistrationRepo: dynamo.NewRegistrationRepo(dynamoClient, cfg.DynamoTables.Registrations),
		VerificationRepo: dynamo.NewVerificationRepo(dynamoClient, cfg.DynamoTables.Verifications),
		EventRepo:        dynamo.NewEventRepo(dynamoClient, cfg.DynamoTables.Events),
		VideoRepo:        dynamo.NewVideoRepo(dynamoClient, cfg.DynamoTables.Videos),
		S3Store:          s3Store,
		Mailer:           smtp.NewMailer(cfg),
		JWTProvider:      jwtProvider,
		Hub:              hub,
		Emitter:          emitter,
	}

	// Identity provider sign-in (optional).
	if cfg.GoogleClientID != "" {
		deps.Identities = google.NewVerifier(cfg.GoogleClientID)
	} else {
		slog.Warn("GOOGLE_CLIENT_ID not set, only admin tokens will be accepted")
	}

	// Web push (optional).
	if sender, err := webpush.NewSender(cfg); err == nil {
		deps.PushTransport = sender
		deps.VAPIDPublicKey = sender.PublicKey()
	} else {
		slog.Warn("web push disabled", "err", err)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(cfg, deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("server", err)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "err", err)
	}
	slog.Info("server stopped")
}

func fatal(what string, err error) {
	slog.Error(what+" failed", "err", err)
	os.Exit(1)
}
