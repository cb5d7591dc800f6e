package certificate

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/akvora-api/internal/domain"
	"github.com/akvora-api/internal/pkg/id"
	"github.com/akvora-api/internal/pkg/validate"
)

// MaxFileSize bounds a single certificate upload.
const MaxFileSize = 10 << 20

type UploadInput struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
	AkvoraID    string
	Title       string
	IssuedBy    string
}

type Service interface {
	CheckUser(ctx context.Context, akvoraID string) (*domain.User, error)
	Upload(ctx context.Context, input UploadInput) (*domain.Certificate, error)
	List(ctx context.Context) ([]domain.Certificate, error)
	ListByAkvoraID(ctx context.Context, akvoraID string) ([]domain.Certificate, error)
	Mine(ctx context.Context, userID string) ([]domain.Certificate, error)
	Rename(ctx context.Context, certificateID string, req domain.UpdateCertificateRequest) (*domain.Certificate, error)
	Delete(ctx context.Context, certificateID string) error
}

type certificateStore interface {
	Put(ctx context.Context, c *domain.Certificate) error
	Get(ctx context.Context, certificateID string) (*domain.Certificate, error)
	List(ctx context.Context) ([]domain.Certificate, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Certificate, error)
	ListByAkvoraID(ctx context.Context, akvoraID string) ([]domain.Certificate, error)
	UpdateTitle(ctx context.Context, certificateID, title string) error
	Delete(ctx context.Context, certificateID string) error
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type userLookup interface {
	GetByAkvoraID(ctx context.Context, akvoraID string) (*domain.User, error)
}

type service struct {
	certs  certificateStore
	files  objectStore
	users  userLookup
	urlTTL time.Duration
	now    func() time.Time
}

type ServiceDeps struct {
	CertificateRepo certificateStore
	ObjectStore     objectStore
	UserRepo        userLookup
	URLTTL          time.Duration
}

func NewService(deps ServiceDeps) Service {
	ttl := deps.URLTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &service{
		certs:  deps.CertificateRepo,
		files:  deps.ObjectStore,
		users:  deps.UserRepo,
		urlTTL: ttl,
		now:    time.Now,
	}
}

func (s *service) CheckUser(ctx context.Context, akvoraID string) (*domain.User, error) {
	if err := validate.Struct(domain.CheckUserRequest{AkvoraID: akvoraID}); err != nil {
		return nil, err
	}
	u, err := s.users.GetByAkvoraID(ctx, strings.TrimSpace(akvoraID))
	if err != nil {
		return nil, err
	}
	if u.IsDeleted {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	return u, nil
}

// Upload stores the file under the owner's prefix and records it. The
// object is removed again if the record cannot be written.
func (s *service) Upload(ctx context.Context, input UploadInput) (*domain.Certificate, error) {
	if input.Size <= 0 || input.Size > MaxFileSize {
		return nil, fmt.Errorf("file must be between 1 byte and %d MB: %w", MaxFileSize>>20, domain.ErrBadRequest)
	}
	contentType := input.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = contentTypeFromName(input.Filename)
	}
	if !allowedType(contentType) {
		return nil, fmt.Errorf("only images and PDF files are accepted: %w", domain.ErrBadRequest)
	}
	owner, err := s.CheckUser(ctx, input.AkvoraID)
	if err != nil {
		return nil, err
	}

	certID := id.New()
	name := sanitizeFilename(input.Filename)
	ext := path.Ext(name)
	key := fmt.Sprintf("certificates/%s/%s%s", sanitizeFilename(owner.AkvoraID), certID, strings.ToLower(ext))
	if err := s.files.Upload(ctx, key, input.Reader, input.Size, contentType); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = strings.TrimSuffix(name, ext)
	}
	now := s.now().UTC()
	c := &domain.Certificate{
		CertificateID: certID,
		UserID:        owner.UserID,
		AkvoraID:      owner.AkvoraID,
		Title:         title,
		ObjectKey:     key,
		ContentType:   contentType,
		Size:          input.Size,
		IssuedBy:      input.IssuedBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.certs.Put(ctx, c); err != nil {
		if derr := s.files.Delete(ctx, key); derr != nil {
			slog.Warn("could not remove orphaned certificate object", "key", key, "err", derr)
		}
		return nil, err
	}
	return c, nil
}

func (s *service) List(ctx context.Context) ([]domain.Certificate, error) {
	list, err := s.certs.List(ctx)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(list)
	return list, nil
}

func (s *service) ListByAkvoraID(ctx context.Context, akvoraID string) ([]domain.Certificate, error) {
	list, err := s.certs.ListByAkvoraID(ctx, akvoraID)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(list)
	return list, nil
}

// Mine lists userID's certificates with time-limited download URLs.
func (s *service) Mine(ctx context.Context, userID string) ([]domain.Certificate, error) {
	list, err := s.certs.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		url, err := s.files.PresignedURL(ctx, list[i].ObjectKey, s.urlTTL)
		if err != nil {
			return nil, err
		}
		list[i].URL = url
	}
	sortNewestFirst(list)
	return list, nil
}

func (s *service) Rename(ctx context.Context, certificateID string, req domain.UpdateCertificateRequest) (*domain.Certificate, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if err := s.certs.UpdateTitle(ctx, certificateID, strings.TrimSpace(req.Title)); err != nil {
		return nil, err
	}
	return s.certs.Get(ctx, certificateID)
}

func (s *service) Delete(ctx context.Context, certificateID string) error {
	c, err := s.certs.Get(ctx, certificateID)
	if err != nil {
		return err
	}
	if err := s.files.Delete(ctx, c.ObjectKey); err != nil {
		return err
	}
	return s.certs.Delete(ctx, certificateID)
}

func sortNewestFirst(list []domain.Certificate) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}

func allowedType(contentType string) bool {
	return strings.HasPrefix(contentType, "image/") || contentType == "application/pdf"
}

func contentTypeFromName(filename string) string {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".jpg") || strings.HasSuffix(lower, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(lower, ".png"):
		return "image/png"
	case strings.HasSuffix(lower, ".webp"):
		return "image/webp"
	case strings.HasSuffix(lower, ".pdf"):
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// sanitizeFilename strips directory components and keeps only safe characters
// (alphanumeric, dot, dash, underscore) to prevent path traversal in S3 keys.
func sanitizeFilename(name string) string {
	name = path.Base(name)
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	if result := b.String(); result != "" && result != "." {
		return result
	}
	return "_"
}
