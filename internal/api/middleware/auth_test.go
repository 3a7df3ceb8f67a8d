package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/phrazzld/workforce-api/internal/api/shared"
	"github.com/phrazzld/workforce-api/internal/config"
	"github.com/phrazzld/workforce-api/internal/platform/logger"
	"github.com/phrazzld/workforce-api/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubJWTService returns canned validation results.
type stubJWTService struct {
	claims *auth.Claims
	err    error
}

func (s stubJWTService) GenerateToken(context.Context, string, time.Duration) (string, error) {
	return "", errors.New("not implemented")
}

func (s stubJWTService) ValidateToken(context.Context, string) (*auth.Claims, error) {
	return s.claims, s.err
}

func TestAuthMiddleware_Authenticate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		authHeader      string
		claims          *auth.Claims
		validateErr     error
		expectedStatus  int
		expectedMessage string
		expectedSubject string
	}{
		{
			name:            "valid token",
			authHeader:      "Bearer valid-token",
			claims:          &auth.Claims{Subject: "dispatcher"},
			expectedStatus:  http.StatusOK,
			expectedSubject: "dispatcher",
		},
		{
			name:            "lowercase scheme",
			authHeader:      "bearer valid-token",
			claims:          &auth.Claims{Subject: "dispatcher"},
			expectedStatus:  http.StatusOK,
			expectedSubject: "dispatcher",
		},
		{
			name:            "missing auth header",
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Authorization header required",
		},
		{
			name:            "invalid auth format",
			authHeader:      "InvalidFormat",
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Authorization header required",
		},
		{
			name:            "empty bearer token",
			authHeader:      "Bearer   ",
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Authorization header required",
		},
		{
			name:            "expired token",
			authHeader:      "Bearer expired-token",
			validateErr:     auth.ErrExpiredToken,
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Token expired",
		},
		{
			name:            "invalid token",
			authHeader:      "Bearer invalid-token",
			validateErr:     auth.ErrInvalidToken,
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Invalid token",
		},
		{
			name:            "token not yet valid",
			authHeader:      "Bearer future-token",
			validateErr:     auth.ErrTokenNotYetValid,
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Invalid token",
		},
		{
			name:            "unexpected validation failure",
			authHeader:      "Bearer some-token",
			validateErr:     errors.New("key store unavailable"),
			expectedStatus:  http.StatusInternalServerError,
			expectedMessage: "Authentication error",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mw := NewAuthMiddleware(stubJWTService{claims: tt.claims, err: tt.validateErr}, logger.Discard())

			var subject string
			var called bool
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				subject, _ = GetSubject(r)
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/tasks/1", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rr := httptest.NewRecorder()
			mw.Authenticate(next).ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.True(t, called)
				assert.Equal(t, tt.expectedSubject, subject)
				return
			}

			assert.False(t, called, "next handler must not run")
			var resp shared.ErrorResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
			assert.Equal(t, tt.expectedMessage, resp.Error)
		})
	}
}

func TestAuthMiddleware_WithRealTokens(t *testing.T) {
	t.Parallel()

	jwtService, err := auth.NewJWTService(config.AuthConfig{
		JWTSecret:     "thisisaverylongsecretkeythatisatleast32characterslong",
		TokenLifetime: time.Hour,
	}, logger.Discard())
	require.NoError(t, err)

	token, err := jwtService.GenerateToken(context.Background(), "ops-console", 0)
	require.NoError(t, err)

	var subject string
	handler := NewAuthMiddleware(jwtService, nil).Authenticate(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, _ = GetSubject(r)
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ops-console", subject)

	req = httptest.NewRequest(http.MethodGet, "/api/tasks/1", nil)
	req.Header.Set("Authorization", "Bearer "+token+"x")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestNewAuthMiddlewarePanicsWithoutService(t *testing.T) {
	assert.Panics(t, func() { NewAuthMiddleware(nil, nil) })
}
