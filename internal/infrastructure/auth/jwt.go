package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ServiceClaims is the token payload for operator and service tokens.
// admin endpoints (forced recompute) require the admin role.
type ServiceClaims struct {
	jwt.RegisteredClaims

	// role is the caller's role (e.g., "admin", "ingest")
	Role string `json:"role,omitempty"`
}

// CallerID returns the subject claim.
func (c *ServiceClaims) CallerID() string {
	return c.Subject
}

// IsAdmin returns true if the caller may trigger admin operations.
func (c *ServiceClaims) IsAdmin() bool {
	return c.Role == "admin"
}

// JWTValidator validates service tokens signed with the shared secret.
type JWTValidator struct {
	secret []byte
}

// NewJWTValidator creates a new validator with the signing secret.
func NewJWTValidator(secret string) *JWTValidator {
	return &JWTValidator{
		secret: []byte(secret),
	}
}

// common jwt validation errors
var (
	ErrMissingToken     = errors.New("missing authorization token")
	ErrInvalidToken     = errors.New("invalid token format")
	ErrTokenExpired     = errors.New("token has expired")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrInvalidClaims    = errors.New("invalid token claims")
)

// ValidateToken parses and validates a service token.
// returns the claims if valid, or an error if validation fails.
func (v *JWTValidator) ValidateToken(tokenString string) (*ServiceClaims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	// strip "Bearer " prefix if present
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")
	tokenString = strings.TrimSpace(tokenString)

	if tokenString == "" {
		return nil, ErrMissingToken
	}

	claims := &ServiceClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		// validate the signing method is HMAC
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})

	if err != nil {
		// check for specific jwt errors
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		if errors.Is(err, jwt.ErrSignatureInvalid) {
			return nil, ErrInvalidSignature
		}
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidClaims, err)
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject claim", ErrInvalidClaims)
	}

	return claims, nil
}

// ExtractBearerToken extracts the token from an Authorization header value.
func ExtractBearerToken(authHeader string) string {
	if authHeader == "" {
		return ""
	}
	// handle "Bearer <token>" format
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return authHeader
}
