package auth_test

import (
	"bytes"
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-charity/internal/auth"
	"ms-charity/internal/logger"
)

var secret = []byte("test-secret")

func requestWithToken(token string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/events", nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

func future() jwt.RegisteredClaims {
	return jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
}

func TestExtractTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := auth.ExtractTokenFromRequest(r)
	assert.Error(t, err)

	r.Header.Set("Authorization", "Token abc")
	_, err = auth.ExtractTokenFromRequest(r)
	assert.Error(t, err)

	r.Header.Set("Authorization", "bearer abc")
	token, err := auth.ExtractTokenFromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "abc", token)
}

func TestJWTPolicy(t *testing.T) {
	policy := &auth.JWTPolicy{Secret: secret}

	good, err := auth.SignAdminToken(secret, "ops", future())
	require.NoError(t, err)
	assert.NoError(t, policy.Authorize(requestWithToken(good)))

	wrongKey, err := auth.SignAdminToken([]byte("other"), "ops", future())
	require.NoError(t, err)
	assert.True(t, errors.Is(policy.Authorize(requestWithToken(wrongKey)), auth.ErrUnauthenticated))

	expired, err := auth.SignAdminToken(secret, "ops", jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))})
	require.NoError(t, err)
	assert.True(t, errors.Is(policy.Authorize(requestWithToken(expired)), auth.ErrUnauthenticated))

	noExpiry, err := auth.SignAdminToken(secret, "ops", jwt.RegisteredClaims{})
	require.NoError(t, err)
	assert.True(t, errors.Is(policy.Authorize(requestWithToken(noExpiry)), auth.ErrUnauthenticated))

	userToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.AdminClaims{Role: "user", RegisteredClaims: future()}).SignedString(secret)
	require.NoError(t, err)
	assert.True(t, errors.Is(policy.Authorize(requestWithToken(userToken)), auth.ErrForbidden))

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, auth.AdminClaims{Role: "admin", RegisteredClaims: future()}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	assert.True(t, errors.Is(policy.Authorize(requestWithToken(none)), auth.ErrUnauthenticated))

	assert.True(t, errors.Is(policy.Authorize(requestWithToken("")), auth.ErrUnauthenticated))
}

func TestOIDCPolicy(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	const issuer = "https://auth.charity.example/realms/charity"
	verifier := oidc.NewVerifier(issuer, &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{key.Public()}},
		&oidc.Config{SkipClientIDCheck: true})
	policy := &auth.OIDCPolicy{Verifier: verifier, Role: auth.AdminRole}

	sign := func(claims jwt.MapClaims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	base := func() jwt.MapClaims {
		return jwt.MapClaims{"iss": issuer, "sub": "user-1", "exp": time.Now().Add(time.Hour).Unix()}
	}

	admin := base()
	admin["realm_access"] = map[string]interface{}{"roles": []string{"offline_access", "admin"}}
	assert.NoError(t, policy.Authorize(requestWithToken(sign(admin))))

	plain := base()
	assert.True(t, errors.Is(policy.Authorize(requestWithToken(sign(plain))), auth.ErrForbidden))

	foreign := base()
	foreign["iss"] = "https://evil.example"
	assert.True(t, errors.Is(policy.Authorize(requestWithToken(sign(foreign))), auth.ErrUnauthenticated))
}

type denyPolicy struct{ err error }

func (d denyPolicy) Authorize(*http.Request) error { return d.err }

func TestMiddleware(t *testing.T) {
	var logs bytes.Buffer
	log := logger.NewLoggerWithWriter(&logs)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })

	cases := []struct {
		policy auth.Policy
		want   int
	}{
		{auth.OpenPolicy{}, http.StatusTeapot},
		{denyPolicy{auth.ErrUnauthenticated}, http.StatusUnauthorized},
		{denyPolicy{auth.ErrForbidden}, http.StatusForbidden},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		auth.Middleware(tc.policy, log)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/events/1", nil))
		assert.Equal(t, tc.want, rec.Code)
	}
	assert.Contains(t, logs.String(), "ADMIN_DENIED")
}

func TestNewOIDCPolicyUnreachableIssuer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := auth.NewOIDCPolicy(context.Background(), srv.URL)
	assert.Error(t, err)
}
