package middleware_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/2beens/sportsee/internal/auth"
	"github.com/2beens/sportsee/internal/middleware"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestAuthMiddlewareHandler_AuthCheck(t *testing.T) {
	testCases := []struct {
		name               string
		path               string
		method             string
		authHeader         string
		mockClaims         *auth.Claims
		mockErr            error
		expectCheck        bool
		expectedStatusCode int
		expectedMessage    string
		expectedUserID     string
	}{
		{
			name:               "AllowedPathWithoutToken",
			path:               "/api/login",
			method:             "POST",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "OptionsAlwaysPasses",
			path:               "/api/user-info",
			method:             "OPTIONS",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "MissingToken",
			path:               "/api/user-info",
			method:             "GET",
			expectedStatusCode: http.StatusUnauthorized,
			expectedMessage:    middleware.MsgAuthRequired,
		},
		{
			name:               "NotBearerScheme",
			path:               "/api/user-info",
			method:             "GET",
			authHeader:         "Basic dXNlcjpwYXNz",
			expectedStatusCode: http.StatusUnauthorized,
			expectedMessage:    middleware.MsgAuthRequired,
		},
		{
			name:               "ValidToken",
			path:               "/api/user-info",
			method:             "GET",
			authHeader:         "Bearer valid-token",
			mockClaims:         &auth.Claims{UserID: "user123"},
			expectCheck:        true,
			expectedStatusCode: http.StatusOK,
			expectedUserID:     "user123",
		},
		{
			name:               "InvalidToken",
			path:               "/api/user-info",
			method:             "GET",
			authHeader:         "Bearer invalid-token",
			mockErr:            auth.ErrInvalidToken,
			expectCheck:        true,
			expectedStatusCode: http.StatusForbidden,
			expectedMessage:    middleware.MsgInvalidToken,
		},
		{
			name:               "RevokedToken",
			path:               "/api/user-activity",
			method:             "GET",
			authHeader:         "bearer revoked-token",
			mockErr:            auth.ErrTokenRevoked,
			expectCheck:        true,
			expectedStatusCode: http.StatusForbidden,
			expectedMessage:    middleware.MsgInvalidToken,
		},
		{
			name:               "CheckerFailure",
			path:               "/api/user-info",
			method:             "GET",
			authHeader:         "Bearer some-token",
			mockErr:            errors.New("redis down"),
			expectCheck:        true,
			expectedStatusCode: http.StatusInternalServerError,
			expectedMessage:    "internal error",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockLoginChecker := NewMockloginChecker(ctrl)
			authMiddleware := middleware.NewAuthMiddlewareHandler(mockLoginChecker, "/", "/api/login")

			if tc.expectCheck {
				mockLoginChecker.EXPECT().
					Check(gomock.Any(), gomock.Any()).
					Return(tc.mockClaims, tc.mockErr).
					Times(1)
			}

			var gotUserID string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
					gotUserID = claims.UserID
				}
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.authHeader != "" {
				req.Header.Set("Authorization", tc.authHeader)
			}
			rr := httptest.NewRecorder()

			authMiddleware.AuthCheck()(next).ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatusCode, rr.Code)
			assert.Equal(t, tc.expectedUserID, gotUserID)
			if tc.expectedMessage != "" {
				var resp struct {
					Message string `json:"message"`
				}
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
				assert.Equal(t, tc.expectedMessage, resp.Message)
			}
		})
	}
}
