package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/akvora-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Create(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	return m.Called(ctx, userID, updates).Error(0)
}
func (m *mockUserStore) AssignAkvoraID(ctx context.Context, userID string, id *domain.IssuedIdentifier) error {
	return m.Called(ctx, userID, id).Error(0)
}
func (m *mockUserStore) List(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.User), args.Error(1)
}
func (m *mockUserStore) ListLinkedIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

type mockIssuer struct{ mock.Mock }

func (m *mockIssuer) IssueNext(ctx context.Context) (*domain.IssuedIdentifier, error) {
	args := m.Called(ctx)
	if id, _ := args.Get(0).(*domain.IssuedIdentifier); id != nil {
		return id, args.Error(1)
	}
	return nil, args.Error(1)
}

func newSvc(repo *mockUserStore, issuer *mockIssuer) *service {
	svc := NewService(ServiceDeps{UserRepo: repo, Issuer: issuer}).(*service)
	svc.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	return svc
}

func issued(seq int64) *domain.IssuedIdentifier {
	return &domain.IssuedIdentifier{Identifier: domain.FormatAkvoraID(2025, seq), Year: 2025, Sequence: seq}
}

var ident = &domain.Identity{
	Subject:       "google-sub-1",
	Email:         "Ada@Example.com",
	EmailVerified: true,
	FirstName:     "Ada",
	LastName:      "Lovelace",
}

// --- Resolve ---

func TestResolve_FirstSight_RegistersAndIssues(t *testing.T) {
	repo, issuer := &mockUserStore{}, &mockIssuer{}
	repo.On("Get", mock.Anything, "google-sub-1").Return(nil, domain.ErrNotFound)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.UserID == "google-sub-1" && u.ExternalID == "google-sub-1" &&
			u.Email == "ada@example.com" && u.Role == domain.RoleUser
	})).Return(nil)
	issuer.On("IssueNext", mock.Anything).Return(issued(7), nil)
	repo.On("AssignAkvoraID", mock.Anything, "google-sub-1", issued(7)).Return(nil)

	u, err := newSvc(repo, issuer).Resolve(context.Background(), ident)

	require.NoError(t, err)
	assert.Equal(t, "AKVORA:2025:007", u.AkvoraID)
	assert.Equal(t, 2025, u.RegisteredYear)
	repo.AssertExpectations(t)
}

func TestResolve_Existing_NoIssuance(t *testing.T) {
	repo, issuer := &mockUserStore{}, &mockIssuer{}
	existing := &domain.User{UserID: "google-sub-1", AkvoraID: "AKVORA:2024:001", Role: domain.RoleUser}
	repo.On("Get", mock.Anything, "google-sub-1").Return(existing, nil)

	u, err := newSvc(repo, issuer).Resolve(context.Background(), ident)

	require.NoError(t, err)
	assert.Equal(t, existing, u)
	issuer.AssertNotCalled(t, "IssueNext", mock.Anything)
}

func TestResolve_Blocked_Forbidden(t *testing.T) {
	repo := &mockUserStore{}
	repo.On("Get", mock.Anything, "google-sub-1").Return(&domain.User{UserID: "google-sub-1", IsBlocked: true}, nil)

	_, err := newSvc(repo, &mockIssuer{}).Resolve(context.Background(), ident)

	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestResolve_Deleted_Forbidden(t *testing.T) {
	repo := &mockUserStore{}
	repo.On("Get", mock.Anything, "google-sub-1").Return(&domain.User{UserID: "google-sub-1", IsDeleted: true}, nil)

	_, err := newSvc(repo, &mockIssuer{}).Resolve(context.Background(), ident)

	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestResolve_ConcurrentRegistration_RereadsWinner(t *testing.T) {
	repo, issuer := &mockUserStore{}, &mockIssuer{}
	winner := &domain.User{UserID: "google-sub-1", AkvoraID: "AKVORA:2025:003"}
	repo.On("Get", mock.Anything, "google-sub-1").Return(nil, domain.ErrNotFound).Once()
	repo.On("Create", mock.Anything, mock.Anything).Return(domain.ErrConflict)
	repo.On("Get", mock.Anything, "google-sub-1").Return(winner, nil).Once()

	u, err := newSvc(repo, issuer).Resolve(context.Background(), ident)

	require.NoError(t, err)
	assert.Equal(t, "AKVORA:2025:003", u.AkvoraID)
	issuer.AssertNotCalled(t, "IssueNext", mock.Anything)
}

func TestResolve_ConcurrentAssignment_KeepsExistingID(t *testing.T) {
	repo, issuer := &mockUserStore{}, &mockIssuer{}
	repo.On("Get", mock.Anything, "google-sub-1").Return(&domain.User{UserID: "google-sub-1"}, nil).Once()
	issuer.On("IssueNext", mock.Anything).Return(issued(9), nil)
	repo.On("AssignAkvoraID", mock.Anything, "google-sub-1", issued(9)).Return(domain.ErrConflict)
	repo.On("Get", mock.Anything, "google-sub-1").Return(&domain.User{UserID: "google-sub-1", AkvoraID: "AKVORA:2025:008"}, nil).Once()

	u, err := newSvc(repo, issuer).Resolve(context.Background(), ident)

	require.NoError(t, err)
	assert.Equal(t, "AKVORA:2025:008", u.AkvoraID)
}

func TestResolve_IssuerUnavailable(t *testing.T) {
	repo, issuer := &mockUserStore{}, &mockIssuer{}
	repo.On("Get", mock.Anything, "google-sub-1").Return(&domain.User{UserID: "google-sub-1"}, nil)
	issuer.On("IssueNext", mock.Anything).Return(nil, domain.ErrStoreUnavailable)

	_, err := newSvc(repo, issuer).Resolve(context.Background(), ident)

	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	repo.AssertNotCalled(t, "AssignAkvoraID", mock.Anything, mock.Anything, mock.Anything)
}

// --- profile ---

func TestUpdateProfile_MarksCompleted(t *testing.T) {
	repo := &mockUserStore{}
	repo.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", FirstName: "Ada", LastName: "Lovelace"}, nil).Once()
	repo.On("Update", mock.Anything, "u1", map[string]interface{}{
		fieldPhone:            "+15550001111",
		fieldProfileCompleted: true,
	}).Return(nil)
	repo.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Phone: "+15550001111", ProfileCompleted: true}, nil).Once()

	phone := "+15550001111"
	u, err := newSvc(repo, &mockIssuer{}).UpdateProfile(context.Background(), "u1", domain.UpdateProfileRequest{Phone: &phone})

	require.NoError(t, err)
	assert.True(t, u.ProfileCompleted)
	repo.AssertExpectations(t)
}

func TestUpdateProfile_InvalidPhone(t *testing.T) {
	phone := "1"

	_, err := newSvc(&mockUserStore{}, &mockIssuer{}).UpdateProfile(context.Background(), "u1", domain.UpdateProfileRequest{Phone: &phone})

	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

// --- admin ---

func TestList_BackfillsMissingIDs(t *testing.T) {
	repo, issuer := &mockUserStore{}, &mockIssuer{}
	repo.On("List", mock.Anything).Return([]domain.User{
		{UserID: "admin", Role: domain.RoleAdmin},
		{UserID: "has", Role: domain.RoleUser, AkvoraID: "AKVORA:2024:001"},
		{UserID: "missing", Role: domain.RoleUser},
	}, nil)
	issuer.On("IssueNext", mock.Anything).Return(issued(2), nil).Once()
	repo.On("AssignAkvoraID", mock.Anything, "missing", issued(2)).Return(nil)

	users, err := newSvc(repo, issuer).List(context.Background())

	require.NoError(t, err)
	byID := map[string]domain.User{}
	for _, u := range users {
		byID[u.UserID] = u
	}
	assert.Equal(t, "AKVORA:2025:002", byID["missing"].AkvoraID)
	assert.Empty(t, byID["admin"].AkvoraID)
	issuer.AssertNumberOfCalls(t, "IssueNext", 1)
}

func TestList_BackfillFailure_StillLists(t *testing.T) {
	repo, issuer := &mockUserStore{}, &mockIssuer{}
	repo.On("List", mock.Anything).Return([]domain.User{{UserID: "missing", Role: domain.RoleUser}}, nil)
	issuer.On("IssueNext", mock.Anything).Return(nil, domain.ErrStoreUnavailable)

	users, err := newSvc(repo, issuer).List(context.Background())

	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Empty(t, users[0].AkvoraID)
}

func TestProfiles_ExcludesDeletedAndAdmins(t *testing.T) {
	repo := &mockUserStore{}
	repo.On("List", mock.Anything).Return([]domain.User{
		{UserID: "a", Role: domain.RoleAdmin},
		{UserID: "b", Role: domain.RoleUser},
		{UserID: "c", Role: domain.RoleUser, IsDeleted: true},
	}, nil)

	users, err := newSvc(repo, &mockIssuer{}).Profiles(context.Background())

	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "b", users[0].UserID)
}

func TestSetBlocked(t *testing.T) {
	repo := &mockUserStore{}
	repo.On("Update", mock.Anything, "u1", map[string]interface{}{fieldIsBlocked: true}).Return(nil)
	repo.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", IsBlocked: true}, nil)

	u, err := newSvc(repo, &mockIssuer{}).SetBlocked(context.Background(), "u1", true)

	require.NoError(t, err)
	assert.True(t, u.IsBlocked)
}

func TestDelete_SoftDeletesAndBlocks(t *testing.T) {
	repo := &mockUserStore{}
	repo.On("Update", mock.Anything, "u1", map[string]interface{}{fieldIsDeleted: true, fieldIsBlocked: true}).Return(nil)

	require.NoError(t, newSvc(repo, &mockIssuer{}).Delete(context.Background(), "u1"))
	repo.AssertExpectations(t)
}

func TestDelete_NotFound(t *testing.T) {
	repo := &mockUserStore{}
	repo.On("Update", mock.Anything, "nope", mock.Anything).Return(domain.ErrNotFound)

	err := newSvc(repo, &mockIssuer{}).Delete(context.Background(), "nope")

	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestCreateAdmin_HashesPassword(t *testing.T) {
	repo := &mockUserStore{}
	repo.On("GetByEmail", mock.Anything, "root@akvora.com").Return(nil, domain.ErrNotFound)
	var created *domain.User
	repo.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { created = args.Get(1).(*domain.User) }).
		Return(nil)

	u, err := newSvc(repo, &mockIssuer{}).CreateAdmin(context.Background(), " Root@Akvora.com ", "s3cretpass", "Root", "Admin")

	require.NoError(t, err)
	assert.Equal(t, created, u)
	assert.Equal(t, domain.RoleAdmin, u.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("s3cretpass")))
}

func TestCreateAdmin_DuplicateEmail(t *testing.T) {
	repo := &mockUserStore{}
	repo.On("GetByEmail", mock.Anything, "root@akvora.com").Return(&domain.User{UserID: "x"}, nil)

	_, err := newSvc(repo, &mockIssuer{}).CreateAdmin(context.Background(), "root@akvora.com", "s3cretpass", "", "")

	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestCreateAdmin_ShortPassword(t *testing.T) {
	_, err := newSvc(&mockUserStore{}, &mockIssuer{}).CreateAdmin(context.Background(), "root@akvora.com", "short", "", "")

	assert.ErrorIs(t, err, domain.ErrBadRequest)
}
