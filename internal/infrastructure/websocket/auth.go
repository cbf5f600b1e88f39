package websocket

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingToken is returned when no authentication token is provided
	ErrMissingToken = errors.New("missing authentication token")
	// ErrInvalidToken is returned when the token is invalid
	ErrInvalidToken = errors.New("invalid authentication token")
	// ErrExpiredToken is returned when the token has expired
	ErrExpiredToken = errors.New("token has expired")
)

// Authenticator defines the interface for authenticating WebSocket connections
type Authenticator interface {
	// Authenticate extracts and validates user identity from the request.
	// Returns userID on success, or error if authentication fails.
	Authenticate(r *http.Request) (userID string, err error)
}

// JWTAuth implements Authenticator using HMAC-signed JWT tokens.
type JWTAuth struct {
	secretKey string
}

// NewJWTAuth creates a new JWTAuth instance
func NewJWTAuth(secretKey string) *JWTAuth {
	return &JWTAuth{secretKey: secretKey}
}

// JWTClaims represents the claims in the JWT token
type JWTClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Authenticate extracts and validates a JWT from the request, trying
// the Authorization header, the "token" query parameter, and an
// "auth-<token>" entry in Sec-WebSocket-Protocol (browsers cannot set
// custom headers on WebSocket upgrades), in that order.
func (a *JWTAuth) Authenticate(r *http.Request) (string, error) {
	token := tokenFromRequest(r)
	if token == "" {
		return "", ErrMissingToken
	}
	return a.validateToken(token)
}

func tokenFromRequest(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	for _, p := range strings.Split(r.Header.Get("Sec-WebSocket-Protocol"), ",") {
		p = strings.TrimSpace(p)
		if strings.HasPrefix(p, "auth-") {
			return strings.TrimPrefix(p, "auth-")
		}
	}
	return ""
}

// validateToken validates a JWT token and extracts the user ID.
func (a *JWTAuth) validateToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(a.secretKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return "", ErrInvalidToken
	}
	return userID, nil
}

// GenerateToken creates a new JWT token for the given user ID.
// This is a helper function for testing and token generation.
func (a *JWTAuth) GenerateToken(userID string, expiresAt *jwt.NumericDate) (string, error) {
	claims := JWTClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: expiresAt,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.secretKey))
}

// NoAuth is an Authenticator that allows all connections without
// authentication. Use for development or when auth happens upstream.
type NoAuth struct{}

// NewNoAuth creates a new NoAuth instance
func NewNoAuth() *NoAuth {
	return &NoAuth{}
}

// Authenticate always succeeds with an anonymous user
func (a *NoAuth) Authenticate(r *http.Request) (string, error) {
	if userID := r.URL.Query().Get("user_id"); userID != "" {
		return userID, nil
	}
	return "anonymous", nil
}
