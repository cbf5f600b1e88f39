package websocket

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt"

func testToken(t *testing.T, userID string, expiresAt time.Time) string {
	t.Helper()
	auth := NewJWTAuth(testSecret)
	token, err := auth.GenerateToken(userID, jwt.NewNumericDate(expiresAt))
	require.NoError(t, err)
	return token
}

func TestJWTAuth_ValidateToken(t *testing.T) {
	auth := NewJWTAuth(testSecret)

	t.Run("valid", func(t *testing.T) {
		userID, err := auth.validateToken(testToken(t, "user-123", time.Now().Add(time.Hour)))
		require.NoError(t, err)
		assert.Equal(t, "user-123", userID)
	})

	t.Run("expired", func(t *testing.T) {
		_, err := auth.validateToken(testToken(t, "user-123", time.Now().Add(-time.Hour)))
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTAuth("a-different-secret")
		token, err := other.GenerateToken("user-123", jwt.NewNumericDate(time.Now().Add(time.Hour)))
		require.NoError(t, err)
		_, err = auth.validateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := auth.validateToken("not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestJWTAuth_Authenticate_TokenSources(t *testing.T) {
	auth := NewJWTAuth(testSecret)
	token := testToken(t, "user-456", time.Now().Add(time.Hour))

	tests := []struct {
		name    string
		request func() *http.Request
		wantErr error
	}{
		{
			name: "authorization header",
			request: func() *http.Request {
				r := httptest.NewRequest(http.MethodGet, "/ws", nil)
				r.Header.Set("Authorization", "Bearer "+token)
				return r
			},
		},
		{
			name: "query parameter",
			request: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)
			},
		},
		{
			name: "websocket subprotocol",
			request: func() *http.Request {
				r := httptest.NewRequest(http.MethodGet, "/ws", nil)
				r.Header.Set("Sec-WebSocket-Protocol", "json, auth-"+token)
				return r
			},
		},
		{
			name: "no token anywhere",
			request: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, "/ws", nil)
			},
			wantErr: ErrMissingToken,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userID, err := auth.Authenticate(tt.request())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "user-456", userID)
		})
	}
}

func TestNoAuth(t *testing.T) {
	auth := NewNoAuth()

	userID, err := auth.Authenticate(httptest.NewRequest(http.MethodGet, "/ws", nil))
	require.NoError(t, err)
	assert.Equal(t, "anonymous", userID)

	userID, err = auth.Authenticate(httptest.NewRequest(http.MethodGet, "/ws?user_id=dev", nil))
	require.NoError(t, err)
	assert.Equal(t, "dev", userID)
}
