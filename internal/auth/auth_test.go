package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "test-secret"
	testIssuer = "test-issuer"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func newTestVerifier(t *testing.T) *Verifier {
	t.Helper()
	verifier, err := NewVerifier(Config{Secret: testSecret, Issuer: testIssuer})
	require.NoError(t, err)
	return verifier
}

func TestVerifyExtractsIdentity(t *testing.T) {
	verifier := newTestVerifier(t)

	token := signToken(t, jwt.MapClaims{
		"sub":   "user-42",
		"email": "user-42@example.com",
		"iss":   testIssuer,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	identity, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-42", identity.UserID)
	require.Equal(t, "user-42@example.com", identity.Email)
	require.False(t, identity.ExpiresAt.IsZero())
}

func TestVerifyRejectsEmptyToken(t *testing.T) {
	verifier := newTestVerifier(t)

	_, err := verifier.Verify("   ")
	require.ErrorIs(t, err, ErrMissingToken)
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	verifier := newTestVerifier(t)

	token := signToken(t, jwt.MapClaims{
		"sub": "user-42",
		"iss": "someone-else",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := verifier.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	verifier := newTestVerifier(t)

	token := signToken(t, jwt.MapClaims{
		"sub": "user-42",
		"iss": testIssuer,
		"exp": time.Now().Add(-time.Minute).Unix(),
	})

	_, err := verifier.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsMissingSubject(t *testing.T) {
	verifier := newTestVerifier(t)

	token := signToken(t, jwt.MapClaims{
		"iss": testIssuer,
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := verifier.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewVerifierRequiresSecretAndIssuer(t *testing.T) {
	_, err := NewVerifier(Config{Issuer: testIssuer})
	require.Error(t, err)

	_, err = NewVerifier(Config{Secret: testSecret})
	require.Error(t, err)
}

func TestMiddlewareRejectsMissingHeader(t *testing.T) {
	verifier := newTestVerifier(t)
	middleware := NewMiddleware(verifier, nil)

	called := false
	wrapped := middleware.Wrap(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))

	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/workouts/templates", nil))

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.False(t, called)
}

func TestMiddlewarePassesIdentityToHandler(t *testing.T) {
	verifier := newTestVerifier(t)
	middleware := NewMiddleware(verifier, nil)

	token := signToken(t, jwt.MapClaims{
		"sub": "user-7",
		"iss": testIssuer,
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	var seen *Identity
	wrapped := middleware.Wrap(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/workouts/templates", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, seen)
	require.Equal(t, "user-7", seen.UserID)
}

func TestMiddlewareSkipsConfiguredPaths(t *testing.T) {
	verifier := newTestVerifier(t)
	middleware := NewMiddleware(verifier, func(r *http.Request) bool {
		return r.URL.Path == "/healthz"
	})

	called := false
	wrapped := middleware.Wrap(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))

	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.True(t, called)
}
