package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/2beens/sportsee/internal/auth"
	"github.com/2beens/sportsee/internal/telemetry/tracing"
	"github.com/2beens/sportsee/pkg"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

//go:generate mockgen -source=$GOFILE -destination=auth_mocks_test.go -package=middleware_test

type loginChecker interface {
	Check(ctx context.Context, token string) (*auth.Claims, error)
}

const (
	MsgAuthRequired = "Authentication required"
	MsgInvalidToken = "Invalid token"
)

type AuthMiddlewareHandler struct {
	loginChecker loginChecker
	allowedPaths map[string]bool
}

// NewAuthMiddlewareHandler returns the bearer token check. Requests to allowedPaths
// pass without a token.
func NewAuthMiddlewareHandler(
	loginChecker loginChecker,
	allowedPaths ...string,
) *AuthMiddlewareHandler {
	h := &AuthMiddlewareHandler{
		loginChecker: loginChecker,
		allowedPaths: map[string]bool{},
	}
	for _, p := range allowedPaths {
		h.allowedPaths[p] = true
	}
	return h
}

// BearerToken returns the token of an "Authorization: Bearer <token>" header, or "".
func BearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func (h *AuthMiddlewareHandler) AuthCheck() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracing.GlobalTracer.Start(r.Context(), "middleware.auth")
			defer span.End()

			if r.Method == http.MethodOptions {
				w.Header().Add("Allow", "GET, POST, OPTIONS")
				w.WriteHeader(http.StatusOK)
				span.SetStatus(codes.Ok, "options-ok")
				return
			}

			if h.allowedPaths[r.URL.Path] {
				span.SetStatus(codes.Ok, "ok")
				next.ServeHTTP(w, r)
				return
			}

			token := BearerToken(r)
			if token == "" {
				log.Tracef("[missing token] [auth middleware] unauthorized => %s", r.URL.Path)
				pkg.WriteJSONMessage(w, http.StatusUnauthorized, MsgAuthRequired)
				span.SetStatus(codes.Error, "missing-auth-token")
				return
			}

			claims, err := h.loginChecker.Check(ctx, token)
			if err != nil {
				span.RecordError(err)
				if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrTokenRevoked) {
					log.Tracef("[invalid token] [auth middleware] forbidden => %s: %s", r.URL.Path, err)
					pkg.WriteJSONMessage(w, http.StatusForbidden, MsgInvalidToken)
					span.SetStatus(codes.Error, "invalid-token")
					return
				}
				log.Errorf("[failed login check] => %s: %s", r.URL.Path, err)
				pkg.WriteJSONMessage(w, http.StatusInternalServerError, "internal error")
				span.SetStatus(codes.Error, "check-logged-err")
				return
			}

			span.SetAttributes(attribute.String("user.id", claims.UserID))
			span.SetStatus(codes.Ok, "ok")
			next.ServeHTTP(w, r.WithContext(auth.ContextWithClaims(r.Context(), claims)))
		})
	}
}
