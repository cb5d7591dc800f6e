package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/akvora-api/internal/domain"
	pkgtoken "github.com/akvora-api/internal/pkg/token"
	"github.com/akvora-api/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

const (
	otpTTL         = 10 * time.Minute
	maxOTPAttempts = 5
	fieldVerified  = "email_verified"
)

// LoginResult is returned by a successful admin login.
type LoginResult struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

type Service interface {
	SendOTP(ctx context.Context, req domain.SendOTPRequest) error
	VerifyOTP(ctx context.Context, req domain.VerifyOTPRequest) error
	AdminLogin(ctx context.Context, req domain.AdminLoginRequest) (*LoginResult, error)
}

type verificationStore interface {
	Put(ctx context.Context, v *domain.Verification) error
	Get(ctx context.Context, email, verType string) (*domain.Verification, error)
	IncrementAttempts(ctx context.Context, email, verType string) (int, error)
	Delete(ctx context.Context, email, verType string) error
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

type jwtSigner interface {
	Sign(userID, email, role string) (string, error)
}

type service struct {
	verifications verificationStore
	users         userStore
	mailer        mailer
	signer        jwtSigner
	now           func() time.Time
}

type ServiceDeps struct {
	VerificationRepo verificationStore
	UserRepo         userStore
	Mailer           mailer
	JWTProvider      jwtSigner
}

func NewService(deps ServiceDeps) Service {
	return &service{
		verifications: deps.VerificationRepo,
		users:         deps.UserRepo,
		mailer:        deps.Mailer,
		signer:        deps.JWTProvider,
		now:           time.Now,
	}
}

// SendOTP stores a hashed six-digit code for the address and emails it.
// A new request replaces any outstanding code.
func (s *service) SendOTP(ctx context.Context, req domain.SendOTPRequest) error {
	if err := validate.Struct(req); err != nil {
		return err
	}
	email := normalizeEmail(req.Email)
	otp, err := pkgtoken.NewOTP()
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(otp), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	v := &domain.Verification{
		Email:     email,
		Type:      domain.VerificationEmailOTP,
		CodeHash:  string(hash),
		ExpiresAt: s.now().Add(otpTTL).Unix(),
	}
	if err := s.verifications.Put(ctx, v); err != nil {
		return err
	}
	body := fmt.Sprintf("Your AKVORA verification code is %s. It expires in %d minutes.", otp, int(otpTTL.Minutes()))
	if err := s.mailer.SendEmail(ctx, email, "AKVORA email verification", body); err != nil {
		return fmt.Errorf("send otp email: %w", err)
	}
	return nil
}

func (s *service) VerifyOTP(ctx context.Context, req domain.VerifyOTPRequest) error {
	if err := validate.Struct(req); err != nil {
		return err
	}
	email := normalizeEmail(req.Email)
	v, err := s.verifications.Get(ctx, email, domain.VerificationEmailOTP)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("no pending code for this email: %w", domain.ErrBadRequest)
	}
	if err != nil {
		return err
	}
	if v.ExpiresAt <= s.now().Unix() {
		return fmt.Errorf("code expired: %w", domain.ErrBadRequest)
	}
	if v.Attempts >= maxOTPAttempts {
		return fmt.Errorf("too many attempts: %w", domain.ErrForbidden)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(v.CodeHash), []byte(req.OTP)); err != nil {
		if _, ierr := s.verifications.IncrementAttempts(ctx, email, domain.VerificationEmailOTP); ierr != nil {
			slog.Warn("failed to record otp attempt", "email", email, "err", ierr)
		}
		return fmt.Errorf("invalid code: %w", domain.ErrBadRequest)
	}
	if err := s.verifications.Delete(ctx, email, domain.VerificationEmailOTP); err != nil {
		slog.Warn("failed to delete email verification record", "email", email, "err", err)
	}

	u, err := s.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil
	case err != nil:
		return err
	case !u.EmailVerified:
		return s.users.Update(ctx, u.UserID, map[string]interface{}{fieldVerified: true})
	}
	return nil
}

func (s *service) AdminLogin(ctx context.Context, req domain.AdminLoginRequest) (*LoginResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	invalid := fmt.Errorf("invalid email or password: %w", domain.ErrUnauthorized)
	u, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, err
	}
	if u.Role != domain.RoleAdmin || u.PasswordHash == "" {
		return nil, invalid
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, invalid
	}
	if !u.Active() {
		return nil, fmt.Errorf("account is blocked: %w", domain.ErrForbidden)
	}
	token, err := s.signer.Sign(u.UserID, u.Email, u.Role)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, User: u}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
