package users

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/2beens/sportsee/internal/auth"
	"github.com/2beens/sportsee/internal/middleware"
	"github.com/2beens/sportsee/internal/running"
	"github.com/2beens/sportsee/internal/telemetry/metrics"
	"github.com/2beens/sportsee/internal/telemetry/tracing"
	"github.com/2beens/sportsee/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	msgCredentialsRequired = "username and password are required"
	msgInvalidCredentials  = "Invalid credentials"
	msgUserNotFound        = "User not found"
	msgWeeksRequired       = "startWeek and endWeek are required"
	msgWeeksInvalid        = "startWeek and endWeek must be YYYY-MM-DD dates"
	msgInternalError       = "internal error"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

// Handler serves the backend API: login/logout and the raw user data.
type Handler struct {
	store          Store
	authService    *auth.Service
	metricsManager *metrics.Manager
	// Now is injectable for tests, user-activity never returns sessions after today
	Now func() time.Time
}

func NewHandler(
	store Store,
	authService *auth.Service,
	metricsManager *metrics.Manager,
) *Handler {
	return &Handler{
		store:          store,
		authService:    authService,
		metricsManager: metricsManager,
		Now:            time.Now,
	}
}

// SetupRoutes registers the API routes. A nil rateLimiter disables login rate limiting.
func (handler *Handler) SetupRoutes(
	mainRouter *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	loginAllowedPerMin int,
) {
	apiRouter := mainRouter.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/user-info", handler.handleUserInfo).Methods("GET", "OPTIONS").Name("user-info")
	apiRouter.HandleFunc("/user-activity", handler.handleUserActivity).Methods("GET", "OPTIONS").Name("user-activity")
	apiRouter.HandleFunc("/logout", handler.handleLogout).Methods("POST", "OPTIONS").Name("logout")

	// rate limit the login endpoint to prevent credentials guessing
	var loginHandler http.Handler = http.HandlerFunc(handler.handleLogin)
	if rateLimiter != nil {
		loginHandler = middleware.RateLimit(rateLimiter, "login", loginAllowedPerMin, handler.metricsManager)(loginHandler)
	}
	apiRouter.Handle("/login", loginHandler).Methods("POST", "OPTIONS").Name("login")
}

func (handler *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "usersHandler.login")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	var loginReq LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&loginReq); err != nil {
		log.Tracef("login, unmarshal json params: %s", err)
		pkg.WriteJSONMessage(w, http.StatusBadRequest, msgCredentialsRequired)
		return
	}
	if loginReq.Username == "" || loginReq.Password == "" {
		pkg.WriteJSONMessage(w, http.StatusBadRequest, msgCredentialsRequired)
		return
	}

	span.SetAttributes(attribute.String("username", loginReq.Username))

	user, err := handler.store.ByUsername(ctx, loginReq.Username)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		log.Errorf("login, get user [%s]: %s", loginReq.Username, err)
		pkg.WriteJSONMessage(w, http.StatusInternalServerError, msgInternalError)
		return
	}
	if user == nil || !user.CheckPassword(loginReq.Password) {
		log.Tracef("failed login attempt for user: %s", loginReq.Username)
		handler.metricsManager.CounterLogins.WithLabelValues(metrics.LoginResultFailure).Inc()
		pkg.WriteJSONMessage(w, http.StatusUnauthorized, msgInvalidCredentials)
		return
	}

	token, err := handler.authService.Login(user.ID)
	if err != nil {
		log.Errorf("login failed, generate token error: %s", err)
		pkg.WriteJSONMessage(w, http.StatusInternalServerError, msgInternalError)
		return
	}

	handler.metricsManager.CounterLogins.WithLabelValues(metrics.LoginResultSuccess).Inc()
	log.Tracef("new login success: %s", user.ID)
	pkg.WriteJSON(w, http.StatusOK, LoginResponse{
		Token:  token,
		UserID: user.ID,
	})
}

func (handler *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "usersHandler.logout")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		pkg.WriteJSONMessage(w, http.StatusUnauthorized, middleware.MsgAuthRequired)
		return
	}

	if err := handler.authService.Logout(ctx, claims); err != nil {
		log.Errorf("logout for [%s]: %s", claims.UserID, err)
		pkg.WriteJSONMessage(w, http.StatusInternalServerError, msgInternalError)
		return
	}

	log.Debugf("logout for [%s] success", claims.UserID)
	pkg.WriteJSONMessage(w, http.StatusOK, "logged out")
}

func (handler *Handler) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "usersHandler.userInfo")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "GET, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		pkg.WriteJSONMessage(w, http.StatusUnauthorized, middleware.MsgAuthRequired)
		return
	}
	span.SetAttributes(attribute.String("user.id", claims.UserID))

	user, err := handler.store.ByID(ctx, claims.UserID)
	if err != nil {
		handler.writeStoreError(w, "user info", claims.UserID, err)
		return
	}

	sessions, err := handler.store.Sessions(ctx, user.ID, running.DateRange{})
	if err != nil {
		handler.writeStoreError(w, "user info sessions", claims.UserID, err)
		return
	}

	pkg.WriteJSON(w, http.StatusOK, running.BuildRawUserInfo(user.UserInfos, sessions))
}

func (handler *Handler) handleUserActivity(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "usersHandler.userActivity")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "GET, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		pkg.WriteJSONMessage(w, http.StatusUnauthorized, middleware.MsgAuthRequired)
		return
	}

	rng := running.DateRange{
		StartIso: r.URL.Query().Get("startWeek"),
		EndIso:   r.URL.Query().Get("endWeek"),
	}
	if rng.StartIso == "" || rng.EndIso == "" {
		pkg.WriteJSONMessage(w, http.StatusBadRequest, msgWeeksRequired)
		return
	}
	if !running.IsValidDate(rng.StartIso) || !running.IsValidDate(rng.EndIso) {
		pkg.WriteJSONMessage(w, http.StatusBadRequest, msgWeeksInvalid)
		return
	}

	span.SetAttributes(
		attribute.String("user.id", claims.UserID),
		attribute.String("range.start", rng.StartIso),
		attribute.String("range.end", rng.EndIso),
	)

	// sessions in the future are never returned
	today := running.FormatLocalDate(running.CalendarDate(handler.Now()))
	if rng.EndIso > today {
		rng.EndIso = today
	}

	sessions, err := handler.store.Sessions(ctx, claims.UserID, rng)
	if err != nil {
		handler.writeStoreError(w, "user activity", claims.UserID, err)
		return
	}

	activity := make([]running.RawSession, 0, len(sessions))
	for _, s := range sessions {
		if rng.Contains(s.Date) {
			activity = append(activity, s)
		}
	}
	sort.SliceStable(activity, func(i, j int) bool {
		return activity[i].Date < activity[j].Date
	})

	pkg.WriteJSON(w, http.StatusOK, activity)
}

func (handler *Handler) writeStoreError(w http.ResponseWriter, op, userID string, err error) {
	if errors.Is(err, ErrUserNotFound) {
		pkg.WriteJSONMessage(w, http.StatusNotFound, msgUserNotFound)
		return
	}
	log.Errorf("%s for [%s]: %s", op, userID, err)
	pkg.WriteJSONMessage(w, http.StatusInternalServerError, msgInternalError)
}
