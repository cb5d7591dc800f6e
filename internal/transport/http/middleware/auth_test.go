package middleware

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/akvora-api/internal/config"
	"github.com/akvora-api/internal/domain"
	jwtinfra "github.com/akvora-api/internal/infrastructure/jwt"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// newTestProvider generates a fresh RSA key pair, writes it to temp files
// and returns a *jwtinfra.Provider reading them.
func newTestProvider(t *testing.T) *jwtinfra.Provider {
	t.Helper()
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	dir := t.TempDir()
	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")

	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(privKey)})
	require.NoError(t, os.WriteFile(privPath, privPEM, 0600))

	pubBytes, err := x509.MarshalPKIXPublicKey(&privKey.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})
	require.NoError(t, os.WriteFile(pubPath, pubPEM, 0600))

	p, err := jwtinfra.NewProvider(&config.Config{
		JWTPrivateKeyPath: privPath,
		JWTPublicKeyPath:  pubPath,
		JWTExpiry:         24 * time.Hour,
	})
	require.NoError(t, err)
	return p
}

type mockIdentities struct{ mock.Mock }

func (m *mockIdentities) Verify(ctx context.Context, token string) (*domain.Identity, error) {
	args := m.Called(ctx, token)
	if i, _ := args.Get(0).(*domain.Identity); i != nil {
		return i, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockUsers struct{ mock.Mock }

func (m *mockUsers) Resolve(ctx context.Context, ident *domain.Identity) (*domain.User, error) {
	args := m.Called(ctx, ident)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUsers) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func okHandler(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func serve(a *Authenticator, bearer string, next http.Handler) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rr := httptest.NewRecorder()
	a.Require(next).ServeHTTP(rr, req)
	return rr
}

func TestRequire_MissingHeader(t *testing.T) {
	a := NewAuthenticator(newTestProvider(t), nil, &mockUsers{})

	rr := serve(a, "", http.HandlerFunc(okHandler))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"error":"missing or invalid authorization header"}`, rr.Body.String())
}

func TestRequire_BadToken_NoIdentityProvider(t *testing.T) {
	a := NewAuthenticator(newTestProvider(t), nil, &mockUsers{})

	rr := serve(a, "not-a-real-token", http.HandlerFunc(okHandler))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequire_TokenFromOtherKey(t *testing.T) {
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	claims := &jwtinfra.Claims{
		UserID: "a1",
		Role:   domain.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "akvora-api",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(privKey)
	require.NoError(t, err)
	a := NewAuthenticator(newTestProvider(t), nil, &mockUsers{})

	rr := serve(a, signed, http.HandlerFunc(okHandler))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequire_AdminToken_InjectsPrincipal(t *testing.T) {
	p := newTestProvider(t)
	signed, err := p.Sign("a1", "root@akvora.com", domain.RoleAdmin)
	require.NoError(t, err)
	users := &mockUsers{}
	admin := &domain.User{UserID: "a1", Email: "root@akvora.com", Role: domain.RoleAdmin}
	users.On("Get", mock.Anything, "a1").Return(admin, nil)

	var gotClaims *jwtinfra.Claims
	var gotUser *domain.User
	capture := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = ClaimsFromContext(r.Context())
		gotUser, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rr := serve(NewAuthenticator(p, nil, users), signed, capture)

	assert.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, gotClaims)
	assert.Equal(t, "a1", gotClaims.UserID)
	assert.Equal(t, domain.RoleAdmin, gotClaims.Role)
	assert.Equal(t, admin, gotUser)
}

func TestRequire_AdminToken_BlockedAccount(t *testing.T) {
	p := newTestProvider(t)
	signed, err := p.Sign("a1", "root@akvora.com", domain.RoleAdmin)
	require.NoError(t, err)
	users := &mockUsers{}
	users.On("Get", mock.Anything, "a1").Return(&domain.User{UserID: "a1", IsBlocked: true}, nil)

	rr := serve(NewAuthenticator(p, nil, users), signed, http.HandlerFunc(okHandler))

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRequire_IdentityToken_ResolvesUser(t *testing.T) {
	idents, users := &mockIdentities{}, &mockUsers{}
	ident := &domain.Identity{Subject: "g-123", Email: "ada@example.com"}
	idents.On("Verify", mock.Anything, "google-id-token").Return(ident, nil)
	users.On("Resolve", mock.Anything, ident).
		Return(&domain.User{UserID: "g-123", Email: "ada@example.com", Role: domain.RoleUser}, nil)

	var gotClaims *jwtinfra.Claims
	capture := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rr := serve(NewAuthenticator(newTestProvider(t), idents, users), "google-id-token", capture)

	assert.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, gotClaims)
	assert.Equal(t, "g-123", gotClaims.UserID)
	assert.Equal(t, domain.RoleUser, gotClaims.Role)
}

func TestRequire_IdentityToken_Invalid(t *testing.T) {
	idents := &mockIdentities{}
	idents.On("Verify", mock.Anything, "bogus").Return(nil, domain.ErrUnauthorized)

	rr := serve(NewAuthenticator(newTestProvider(t), idents, &mockUsers{}), "bogus", http.HandlerFunc(okHandler))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequire_IdentityToken_BlockedUser(t *testing.T) {
	idents, users := &mockIdentities{}, &mockUsers{}
	idents.On("Verify", mock.Anything, mock.Anything).Return(&domain.Identity{Subject: "g-1"}, nil)
	users.On("Resolve", mock.Anything, mock.Anything).Return(nil, domain.ErrForbidden)

	rr := serve(NewAuthenticator(nil, idents, users), "google-id-token", http.HandlerFunc(okHandler))

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRequire_StoreFailure(t *testing.T) {
	idents, users := &mockIdentities{}, &mockUsers{}
	idents.On("Verify", mock.Anything, mock.Anything).Return(&domain.Identity{Subject: "g-1"}, nil)
	users.On("Resolve", mock.Anything, mock.Anything).Return(nil, errors.New("dynamo: throttled"))

	rr := serve(NewAuthenticator(nil, idents, users), "google-id-token", http.HandlerFunc(okHandler))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
