package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort        string
	AppEnv         string
	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables
	S3BucketName   string

	CertificateURLTTL time.Duration
	EventImageURLTTL  time.Duration

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration
	GoogleClientID    string

	SMTPHost      string
	SMTPPort      string
	SMTPFrom      string
	SMTPUsername  string
	SMTPPassword  string
	ReportIssueTo string

	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubject    string
	PushTTLSeconds  int
	PushTimeout     time.Duration

	RedisAddr     string
	RedisPassword string
	RedisChannel  string

	DispatchConcurrency int
	NotificationTTL     time.Duration
	AllowedOrigins      []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users         string
	Counters      string
	Notifications string
	PushEndpoints string
	Announcements string
	Certificates  string
	Registrations string
	Verifications string
	Events        string
	Videos        string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:        getEnv("APP_PORT", "5000"),
		AppEnv:         getEnv("APP_ENV", "development"),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:         getEnv("DYNAMO_TABLE_USERS", "users"),
			Counters:      getEnv("DYNAMO_TABLE_COUNTERS", "counters"),
			Notifications: getEnv("DYNAMO_TABLE_NOTIFICATIONS", "notifications"),
			PushEndpoints: getEnv("DYNAMO_TABLE_PUSH_ENDPOINTS", "push_endpoints"),
			Announcements: getEnv("DYNAMO_TABLE_ANNOUNCEMENTS", "announcements"),
			Certificates:  getEnv("DYNAMO_TABLE_CERTIFICATES", "certificates"),
			Registrations: getEnv("DYNAMO_TABLE_REGISTRATIONS", "registrations"),
			Verifications: getEnv("DYNAMO_TABLE_VERIFICATIONS", "verifications"),
			Events:        getEnv("DYNAMO_TABLE_EVENTS", "events"),
			Videos:        getEnv("DYNAMO_TABLE_VIDEOS", "videos"),
		},
		S3BucketName:      getEnv("S3_BUCKET_NAME", "akvora-certificates"),
		CertificateURLTTL: time.Duration(getEnvInt("CERTIFICATE_URL_TTL_MINUTES", 60)) * time.Minute,
		EventImageURLTTL:  time.Duration(getEnvInt("EVENT_IMAGE_URL_TTL_MINUTES", 60)) * time.Minute,

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 24)) * time.Hour,
		GoogleClientID:    getEnv("GOOGLE_CLIENT_ID", ""),

		SMTPHost:      getEnv("SMTP_HOST", "localhost"),
		SMTPPort:      getEnv("SMTP_PORT", "1025"),
		SMTPFrom:      getEnv("SMTP_FROM", "noreply@akvora.com"),
		SMTPUsername:  getEnv("SMTP_USERNAME", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		ReportIssueTo: getEnv("REPORT_ISSUE_TO", "contactakvora@gmail.com"),

		VAPIDPublicKey:  getEnv("VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey: getEnv("VAPID_PRIVATE_KEY", ""),
		VAPIDSubject:    getEnv("VAPID_SUBJECT", "mailto:admin@akvora.com"),
		PushTTLSeconds:  getEnvInt("PUSH_TTL_SECONDS", 86400),
		PushTimeout:     time.Duration(getEnvInt("PUSH_TIMEOUT_SECONDS", 10)) * time.Second,

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisChannel:  getEnv("REDIS_REALTIME_CHANNEL", "akvora:realtime"),

		DispatchConcurrency: getEnvInt("DISPATCH_CONCURRENCY", 16),
		NotificationTTL:     time.Duration(getEnvInt("NOTIFICATION_TTL_DAYS", 30)) * 24 * time.Hour,
		AllowedOrigins:      strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
