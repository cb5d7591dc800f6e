package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/akvora-api/internal/domain"
	"github.com/akvora-api/internal/pkg/id"
	"github.com/akvora-api/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldFirstName        = "first_name"
	fieldLastName         = "last_name"
	fieldPhone            = "phone"
	fieldCertificateName  = "certificate_name"
	fieldProfileCompleted = "profile_completed"
	fieldIsBlocked        = "is_blocked"
	fieldIsDeleted        = "is_deleted"
)

type Service interface {
	// Resolve maps a verified identity to its user, registering it and
	// issuing an AKVORA ID on first sight.
	Resolve(ctx context.Context, ident *domain.Identity) (*domain.User, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Profiles(ctx context.Context) ([]domain.User, error)
	SetBlocked(ctx context.Context, userID string, blocked bool) (*domain.User, error)
	Delete(ctx context.Context, userID string) error
	CreateAdmin(ctx context.Context, email, password, firstName, lastName string) (*domain.User, error)
	LinkedRecipients(ctx context.Context) ([]string, error)
}

type userStore interface {
	Create(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	AssignAkvoraID(ctx context.Context, userID string, id *domain.IssuedIdentifier) error
	List(ctx context.Context) ([]domain.User, error)
	ListLinkedIDs(ctx context.Context) ([]string, error)
}

type idIssuer interface {
	IssueNext(ctx context.Context) (*domain.IssuedIdentifier, error)
}

type service struct {
	repo   userStore
	issuer idIssuer
	now    func() time.Time
}

type ServiceDeps struct {
	UserRepo userStore
	Issuer   idIssuer
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.UserRepo, issuer: deps.Issuer, now: time.Now}
}

func (s *service) Resolve(ctx context.Context, ident *domain.Identity) (*domain.User, error) {
	u, err := s.repo.Get(ctx, ident.Subject)
	if errors.Is(err, domain.ErrNotFound) {
		u, err = s.register(ctx, ident)
	}
	if err != nil {
		return nil, err
	}
	if !u.Active() {
		return nil, fmt.Errorf("account is blocked or deleted: %w", domain.ErrForbidden)
	}
	if u.AkvoraID == "" {
		if err := s.ensureAkvoraID(ctx, u); err != nil {
			return nil, err
		}
	}
	return u, nil
}

func (s *service) register(ctx context.Context, ident *domain.Identity) (*domain.User, error) {
	now := s.now().UTC()
	u := &domain.User{
		UserID:        ident.Subject,
		ExternalID:    ident.Subject,
		Email:         strings.ToLower(ident.Email),
		FirstName:     ident.FirstName,
		LastName:      ident.LastName,
		AvatarURL:     ident.Picture,
		EmailVerified: ident.EmailVerified,
		Role:          domain.RoleUser,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err := s.repo.Create(ctx, u)
	if errors.Is(err, domain.ErrConflict) {
		// A concurrent first request registered the same subject.
		return s.repo.Get(ctx, ident.Subject)
	}
	if err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}
	slog.Info("registered user", "user_id", u.UserID)
	return u, nil
}

// ensureAkvoraID issues and assigns an identifier to u. If another request
// assigned one first, u takes that one and the issued value is discarded.
func (s *service) ensureAkvoraID(ctx context.Context, u *domain.User) error {
	issued, err := s.issuer.IssueNext(ctx)
	if err != nil {
		return err
	}
	err = s.repo.AssignAkvoraID(ctx, u.UserID, issued)
	if errors.Is(err, domain.ErrConflict) {
		current, gerr := s.repo.Get(ctx, u.UserID)
		if gerr != nil {
			return gerr
		}
		slog.Warn("discarded akvora id after concurrent assignment", "user_id", u.UserID, "discarded", issued.Identifier, "kept", current.AkvoraID)
		*u = *current
		return nil
	}
	if err != nil {
		return fmt.Errorf("assign akvora id: %w", err)
	}
	u.AkvoraID = issued.Identifier
	u.RegisteredYear = issued.Year
	slog.Info("issued akvora id", "user_id", u.UserID, "akvora_id", issued.Identifier)
	return nil
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.Get(ctx, userID)
}

func (s *service) UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.User, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if req.FirstName != nil {
		updates[fieldFirstName] = *req.FirstName
		u.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		updates[fieldLastName] = *req.LastName
		u.LastName = *req.LastName
	}
	if req.Phone != nil {
		updates[fieldPhone] = *req.Phone
		u.Phone = *req.Phone
	}
	if req.CertificateName != nil {
		updates[fieldCertificateName] = *req.CertificateName
		u.CertificateName = *req.CertificateName
	}
	if len(updates) == 0 {
		return u, nil
	}
	updates[fieldProfileCompleted] = profileComplete(u)
	if err := s.repo.Update(ctx, userID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID)
}

func profileComplete(u *domain.User) bool {
	return u.FirstName != "" && u.LastName != "" && u.Phone != ""
}

// List returns every user and backfills AKVORA IDs for registrants that
// predate issuance. Backfill failures leave the user without an id.
func (s *service) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		u := &users[i]
		if u.Role == domain.RoleAdmin || u.AkvoraID != "" {
			continue
		}
		if err := s.ensureAkvoraID(ctx, u); err != nil {
			slog.Warn("akvora id backfill failed", "user_id", u.UserID, "err", err)
		}
	}
	sortUsers(users)
	return users, nil
}

// Profiles returns registrants that are not deleted.
func (s *service) Profiles(ctx context.Context) ([]domain.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := users[:0]
	for _, u := range users {
		if u.Role != domain.RoleAdmin && !u.IsDeleted {
			out = append(out, u)
		}
	}
	sortUsers(out)
	return out, nil
}

func (s *service) SetBlocked(ctx context.Context, userID string, blocked bool) (*domain.User, error) {
	if err := s.repo.Update(ctx, userID, map[string]interface{}{fieldIsBlocked: blocked}); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID)
}

// Delete marks the user deleted and blocked. The record is kept so the
// AKVORA ID is never reissued.
func (s *service) Delete(ctx context.Context, userID string) error {
	return s.repo.Update(ctx, userID, map[string]interface{}{
		fieldIsDeleted: true,
		fieldIsBlocked: true,
	})
}

func (s *service) CreateAdmin(ctx context.Context, email, password, firstName, lastName string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || len(password) < 8 {
		return nil, fmt.Errorf("email and a password of at least 8 characters are required: %w", domain.ErrBadRequest)
	}
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	u := &domain.User{
		UserID:           id.New(),
		Email:            email,
		FirstName:        firstName,
		LastName:         lastName,
		EmailVerified:    true,
		ProfileCompleted: true,
		Role:             domain.RoleAdmin,
		PasswordHash:     string(hash),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// LinkedRecipients lists users that signed in through the identity provider.
func (s *service) LinkedRecipients(ctx context.Context) ([]string, error) {
	return s.repo.ListLinkedIDs(ctx)
}

func sortUsers(users []domain.User) {
	sort.SliceStable(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
}
