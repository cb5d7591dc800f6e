package certificate

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/akvora-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockCertStore struct{ mock.Mock }

func (m *mockCertStore) Put(ctx context.Context, c *domain.Certificate) error {
	return m.Called(ctx, c).Error(0)
}
func (m *mockCertStore) Get(ctx context.Context, certificateID string) (*domain.Certificate, error) {
	args := m.Called(ctx, certificateID)
	if c, _ := args.Get(0).(*domain.Certificate); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockCertStore) List(ctx context.Context) ([]domain.Certificate, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Certificate), args.Error(1)
}
func (m *mockCertStore) ListByUser(ctx context.Context, userID string) ([]domain.Certificate, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Certificate), args.Error(1)
}
func (m *mockCertStore) ListByAkvoraID(ctx context.Context, akvoraID string) ([]domain.Certificate, error) {
	args := m.Called(ctx, akvoraID)
	return args.Get(0).([]domain.Certificate), args.Error(1)
}
func (m *mockCertStore) UpdateTitle(ctx context.Context, certificateID, title string) error {
	return m.Called(ctx, certificateID, title).Error(0)
}
func (m *mockCertStore) Delete(ctx context.Context, certificateID string) error {
	return m.Called(ctx, certificateID).Error(0)
}

type mockObjectStore struct{ mock.Mock }

func (m *mockObjectStore) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	return m.Called(ctx, key, r, size, contentType).Error(0)
}
func (m *mockObjectStore) PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}
func (m *mockObjectStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type mockUserLookup struct{ mock.Mock }

func (m *mockUserLookup) GetByAkvoraID(ctx context.Context, akvoraID string) (*domain.User, error) {
	args := m.Called(ctx, akvoraID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func newSvc(certs *mockCertStore, files *mockObjectStore, users *mockUserLookup) Service {
	return NewService(ServiceDeps{CertificateRepo: certs, ObjectStore: files, UserRepo: users, URLTTL: 15 * time.Minute})
}

var owner = &domain.User{UserID: "u1", AkvoraID: "AKVORA:2025:001"}

func pdfInput() UploadInput {
	return UploadInput{
		Reader:      bytes.NewReader([]byte("%PDF-1.7")),
		Filename:    "Workshop Completion.PDF",
		ContentType: "application/pdf",
		Size:        8,
		AkvoraID:    "AKVORA:2025:001",
		IssuedBy:    "admin-1",
	}
}

// --- CheckUser ---

func TestCheckUser_Found(t *testing.T) {
	users := &mockUserLookup{}
	users.On("GetByAkvoraID", mock.Anything, "AKVORA:2025:001").Return(owner, nil)

	u, err := newSvc(&mockCertStore{}, &mockObjectStore{}, users).CheckUser(context.Background(), " AKVORA:2025:001 ")

	require.NoError(t, err)
	assert.Equal(t, "u1", u.UserID)
}

func TestCheckUser_Deleted_NotFound(t *testing.T) {
	users := &mockUserLookup{}
	users.On("GetByAkvoraID", mock.Anything, "AKVORA:2025:002").Return(&domain.User{UserID: "u2", IsDeleted: true}, nil)

	_, err := newSvc(&mockCertStore{}, &mockObjectStore{}, users).CheckUser(context.Background(), "AKVORA:2025:002")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCheckUser_Empty_BadRequest(t *testing.T) {
	_, err := newSvc(&mockCertStore{}, &mockObjectStore{}, &mockUserLookup{}).CheckUser(context.Background(), "")

	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

// --- Upload ---

func TestUpload_StoresUnderOwnerPrefix(t *testing.T) {
	certs, files, users := &mockCertStore{}, &mockObjectStore{}, &mockUserLookup{}
	users.On("GetByAkvoraID", mock.Anything, "AKVORA:2025:001").Return(owner, nil)
	files.On("Upload", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "certificates/AKVORA_2025_001/") && strings.HasSuffix(key, ".pdf")
	}), mock.Anything, int64(8), "application/pdf").Return(nil)
	certs.On("Put", mock.Anything, mock.Anything).Return(nil)

	c, err := newSvc(certs, files, users).Upload(context.Background(), pdfInput())

	require.NoError(t, err)
	assert.Equal(t, "u1", c.UserID)
	assert.Equal(t, "AKVORA:2025:001", c.AkvoraID)
	assert.Equal(t, "Workshop_Completion", c.Title)
	assert.Equal(t, "admin-1", c.IssuedBy)
	files.AssertExpectations(t)
}

func TestUpload_RejectsUnsupportedType(t *testing.T) {
	in := pdfInput()
	in.Filename = "payload.exe"
	in.ContentType = "application/x-msdownload"

	_, err := newSvc(&mockCertStore{}, &mockObjectStore{}, &mockUserLookup{}).Upload(context.Background(), in)

	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestUpload_RejectsOversize(t *testing.T) {
	in := pdfInput()
	in.Size = MaxFileSize + 1

	_, err := newSvc(&mockCertStore{}, &mockObjectStore{}, &mockUserLookup{}).Upload(context.Background(), in)

	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestUpload_UnknownUser(t *testing.T) {
	users := &mockUserLookup{}
	users.On("GetByAkvoraID", mock.Anything, "AKVORA:2025:001").Return(nil, domain.ErrNotFound)
	files := &mockObjectStore{}

	_, err := newSvc(&mockCertStore{}, files, users).Upload(context.Background(), pdfInput())

	assert.ErrorIs(t, err, domain.ErrNotFound)
	files.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpload_RecordFailure_RemovesObject(t *testing.T) {
	certs, files, users := &mockCertStore{}, &mockObjectStore{}, &mockUserLookup{}
	users.On("GetByAkvoraID", mock.Anything, mock.Anything).Return(owner, nil)
	files.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	certs.On("Put", mock.Anything, mock.Anything).Return(domain.ErrStoreUnavailable)
	files.On("Delete", mock.Anything, mock.Anything).Return(nil)

	_, err := newSvc(certs, files, users).Upload(context.Background(), pdfInput())

	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	files.AssertNumberOfCalls(t, "Delete", 1)
}

// --- reads / mutations ---

func TestMine_AttachesPresignedURLs(t *testing.T) {
	certs, files := &mockCertStore{}, &mockObjectStore{}
	certs.On("ListByUser", mock.Anything, "u1").Return([]domain.Certificate{
		{CertificateID: "c1", ObjectKey: "certificates/a/c1.pdf", CreatedAt: time.Unix(100, 0)},
		{CertificateID: "c2", ObjectKey: "certificates/a/c2.pdf", CreatedAt: time.Unix(200, 0)},
	}, nil)
	files.On("PresignedURL", mock.Anything, "certificates/a/c1.pdf", 15*time.Minute).Return("https://s3/c1", nil)
	files.On("PresignedURL", mock.Anything, "certificates/a/c2.pdf", 15*time.Minute).Return("https://s3/c2", nil)

	list, err := newSvc(certs, files, &mockUserLookup{}).Mine(context.Background(), "u1")

	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c2", list[0].CertificateID)
	assert.Equal(t, "https://s3/c2", list[0].URL)
	assert.Equal(t, "https://s3/c1", list[1].URL)
}

func TestRename(t *testing.T) {
	certs := &mockCertStore{}
	certs.On("UpdateTitle", mock.Anything, "c1", "Final title").Return(nil)
	certs.On("Get", mock.Anything, "c1").Return(&domain.Certificate{CertificateID: "c1", Title: "Final title"}, nil)

	c, err := newSvc(certs, &mockObjectStore{}, &mockUserLookup{}).Rename(context.Background(), "c1", domain.UpdateCertificateRequest{Title: " Final title "})

	require.NoError(t, err)
	assert.Equal(t, "Final title", c.Title)
}

func TestDelete_RemovesObjectThenRecord(t *testing.T) {
	certs, files := &mockCertStore{}, &mockObjectStore{}
	certs.On("Get", mock.Anything, "c1").Return(&domain.Certificate{CertificateID: "c1", ObjectKey: "k"}, nil)
	files.On("Delete", mock.Anything, "k").Return(nil)
	certs.On("Delete", mock.Anything, "c1").Return(nil)

	require.NoError(t, newSvc(certs, files, &mockUserLookup{}).Delete(context.Background(), "c1"))
	certs.AssertExpectations(t)
}

func TestDelete_ObjectFailure_KeepsRecord(t *testing.T) {
	certs, files := &mockCertStore{}, &mockObjectStore{}
	certs.On("Get", mock.Anything, "c1").Return(&domain.Certificate{CertificateID: "c1", ObjectKey: "k"}, nil)
	files.On("Delete", mock.Anything, "k").Return(errors.New("s3 unavailable"))

	err := newSvc(certs, files, &mockUserLookup{}).Delete(context.Background(), "c1")

	assert.Error(t, err)
	certs.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "passwd", sanitizeFilename("../../etc/passwd"))
	assert.Equal(t, "my_cert.pdf", sanitizeFilename("my cert.pdf"))
	assert.Equal(t, "_", sanitizeFilename(""))
}
