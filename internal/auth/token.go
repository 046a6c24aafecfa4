package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const AdminRole = "admin"

// ExtractTokenFromRequest extracts a JWT token from an HTTP request's Authorization header
func ExtractTokenFromRequest(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization header is missing")
	}

	// Bearer token format: "Bearer {token}"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", errors.New("authorization header format must be 'Bearer {token}'")
	}

	return parts[1], nil
}

// AdminClaims is the token body JWTPolicy accepts.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTPolicy accepts HS256 tokens signed with a shared secret whose role claim
// is admin.
type JWTPolicy struct {
	Secret []byte
}

func (p *JWTPolicy) Authorize(r *http.Request) error {
	tokenString, err := ExtractTokenFromRequest(r)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	var claims AdminClaims
	_, err = jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		return p.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return fmt.Errorf("%w: failed to parse token: %v", ErrUnauthenticated, err)
	}

	if claims.Role != AdminRole {
		return fmt.Errorf("%w: role %q is not %s", ErrForbidden, claims.Role, AdminRole)
	}
	return nil
}

// SignAdminToken issues a token JWTPolicy accepts.
func SignAdminToken(secret []byte, subject string, claims jwt.RegisteredClaims) (string, error) {
	claims.Subject = subject
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AdminClaims{Role: AdminRole, RegisteredClaims: claims})
	return token.SignedString(secret)
}
