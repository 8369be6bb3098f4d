package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/sportsee/internal/auth"
	"github.com/2beens/sportsee/internal/middleware"
	"github.com/2beens/sportsee/internal/provider"
	"github.com/2beens/sportsee/internal/running"
	"github.com/2beens/sportsee/internal/telemetry/metrics"
	"github.com/2beens/sportsee/internal/telemetry/tracing"
	"github.com/2beens/sportsee/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultLastSessionsCount = 7
	lastSessionsWindowDays   = 28
	maxWeekCount             = 52
	maxLastSessionsCount     = 100
	// ten years either way keeps the week range in YYYY-MM-DD
	maxWeekOffset = 520
)

const (
	aggregationWeeklyDistance = "weekly_distance"
	aggregationHeartRate      = "heart_rate"
	aggregationKpis           = "kpis"
	aggregationWeeklyGoal     = "weekly_goal"
	aggregationLastSessions   = "last_sessions"
	aggregationProfileStats   = "profile_stats"
)

const (
	msgUserNotFound       = "User not found"
	msgInternalError      = "internal error"
	msgBadUpstreamPayload = "invalid data received from the sportsee backend"
	msgNoProfileImage     = "profile image is not available for this data source"
)

type LastSessionsResponse struct {
	Sessions    []running.Session `json:"sessions"`
	DistanceKm  float64           `json:"distanceKm"`
	DurationMin float64           `json:"durationMin"`
}

type Params struct {
	Provider          provider.Provider
	MetricsManager    *metrics.Manager
	Locale            running.Locale
	KPIStrictRange    bool
	WeeklyGoalDefault int
}

// Handler serves the chart-ready aggregates computed over the caller's sessions.
type Handler struct {
	provider          provider.Provider
	metricsManager    *metrics.Manager
	locale            running.Locale
	kpiStrictRange    bool
	weeklyGoalDefault int
	// Now is the reference for "today" and the current ISO week
	Now func() time.Time
}

func NewHandler(params Params) *Handler {
	locale := params.Locale
	if locale == "" {
		locale = running.DefaultLocale
	}
	return &Handler{
		provider:          params.Provider,
		metricsManager:    params.MetricsManager,
		locale:            locale,
		kpiStrictRange:    params.KPIStrictRange,
		weeklyGoalDefault: params.WeeklyGoalDefault,
		Now:               time.Now,
	}
}

func (handler *Handler) SetupRoutes(mainRouter *mux.Router) {
	dashboardRouter := mainRouter.PathPrefix("/api/dashboard").Subrouter()
	dashboardRouter.HandleFunc("/user", handler.handleUser).Methods("GET", "OPTIONS").Name("dashboard-user")
	dashboardRouter.HandleFunc("/weekly-distance", handler.handleWeeklyDistance).Methods("GET", "OPTIONS").Name("dashboard-weekly-distance")
	dashboardRouter.HandleFunc("/heart-rate", handler.handleHeartRate).Methods("GET", "OPTIONS").Name("dashboard-heart-rate")
	dashboardRouter.HandleFunc("/kpis", handler.handleKpis).Methods("GET", "OPTIONS").Name("dashboard-kpis")
	dashboardRouter.HandleFunc("/weekly-goal", handler.handleWeeklyGoal).Methods("GET", "OPTIONS").Name("dashboard-weekly-goal")
	dashboardRouter.HandleFunc("/last-sessions", handler.handleLastSessions).Methods("GET", "OPTIONS").Name("dashboard-last-sessions")
	dashboardRouter.HandleFunc("/profile-image", handler.handleProfileImage).Methods("GET", "OPTIONS").Name("dashboard-profile-image")

	profileRouter := mainRouter.PathPrefix("/api/profile").Subrouter()
	profileRouter.HandleFunc("/stats", handler.handleProfileStats).Methods("GET", "OPTIONS").Name("profile-stats")
}

func (handler *Handler) handleUser(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "dashboardHandler.user")
	defer span.End()

	caller, ok := handler.caller(w, r)
	if !ok {
		return
	}

	userInfo, err := handler.provider.UserInfo(ctx, caller)
	if err != nil {
		span.RecordError(err)
		handler.writeProviderError(w, "user info", caller, err)
		return
	}

	pkg.WriteJSON(w, http.StatusOK, userInfo)
}

func (handler *Handler) handleWeeklyDistance(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "dashboardHandler.weeklyDistance")
	defer span.End()

	caller, ok := handler.caller(w, r)
	if !ok {
		return
	}

	endDateIso := r.URL.Query().Get("endDate")
	if endDateIso == "" {
		endDateIso = handler.today()
	}
	weekCount, err := intParam(r, "weeks", running.DefaultWeekCount)
	if err != nil || weekCount < 1 || weekCount > maxWeekCount {
		pkg.WriteJSONMessage(w, http.StatusBadRequest, fmt.Sprintf("weeks must be a number between 1 and %d", maxWeekCount))
		return
	}

	window, err := running.WeeklyWindow(endDateIso, weekCount)
	if err != nil {
		pkg.WriteJSONMessage(w, http.StatusBadRequest, "endDate must be a YYYY-MM-DD date")
		return
	}
	span.SetAttributes(
		attribute.String("range.start", window.StartIso),
		attribute.String("range.end", window.EndIso),
	)

	sessions, ok := handler.sessions(ctx, w, caller, window)
	if !ok {
		return
	}

	buckets, err := running.BuildWeeklyAverageDistance(sessions, endDateIso, weekCount)
	if err != nil {
		// endDate was already validated by WeeklyWindow
		log.Errorf("weekly distance for [%s]: %s", caller.UserID, err)
		pkg.WriteJSONMessage(w, http.StatusInternalServerError, msgInternalError)
		return
	}

	handler.countAggregation(aggregationWeeklyDistance)
	pkg.WriteJSON(w, http.StatusOK, buckets)
}

func (handler *Handler) handleHeartRate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "dashboardHandler.heartRate")
	defer span.End()

	caller, ok := handler.caller(w, r)
	if !ok {
		return
	}

	weekOffset, err := intParam(r, "weekOffset", 0)
	if err != nil || weekOffset < -maxWeekOffset || weekOffset > maxWeekOffset {
		pkg.WriteJSONMessage(w, http.StatusBadRequest, fmt.Sprintf("weekOffset must be a number between -%d and %d", maxWeekOffset, maxWeekOffset))
		return
	}

	locale := handler.locale
	if lang := r.URL.Query().Get("lang"); lang != "" {
		locale, err = running.ParseLocale(lang)
		if err != nil {
			pkg.WriteJSONMessage(w, http.StatusBadRequest, "lang must be one of: fr, en")
			return
		}
	}
	span.SetAttributes(attribute.Int("week.offset", weekOffset))

	sessions, ok := handler.sessions(ctx, w, caller, running.DateRange{})
	if !ok {
		return
	}

	handler.countAggregation(aggregationHeartRate)
	pkg.WriteJSON(w, http.StatusOK, running.BuildLastISOWeekHeartRateLocalized(sessions, weekOffset, locale))
}

func (handler *Handler) handleKpis(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "dashboardHandler.kpis")
	defer span.End()

	caller, ok := handler.caller(w, r)
	if !ok {
		return
	}

	rng := running.DateRange{
		StartIso: r.URL.Query().Get("startIso"),
		EndIso:   r.URL.Query().Get("endIso"),
	}
	for _, d := range []string{rng.StartIso, rng.EndIso} {
		if d != "" && !running.IsValidDate(d) {
			pkg.WriteJSONMessage(w, http.StatusBadRequest, "startIso and endIso must be YYYY-MM-DD dates")
			return
		}
	}

	if rng.IsEmpty() {
		if handler.kpiStrictRange {
			pkg.WriteJSONMessage(w, http.StatusBadRequest, "startIso and endIso are required")
			return
		}
		log.Warnf("kpis for [%s] requested without a full range [%s, %s], using all sessions", caller.UserID, rng.StartIso, rng.EndIso)
	}
	span.SetAttributes(
		attribute.String("range.start", rng.StartIso),
		attribute.String("range.end", rng.EndIso),
	)

	sessions, ok := handler.sessions(ctx, w, caller, rng)
	if !ok {
		return
	}

	var kpis running.WeekKpis
	if handler.kpiStrictRange {
		var err error
		if kpis, err = running.BuildWeekKpisStrict(sessions, rng); err != nil {
			log.Errorf("strict kpis for [%s]: %s", caller.UserID, err)
			pkg.WriteJSONMessage(w, http.StatusInternalServerError, msgInternalError)
			return
		}
	} else {
		kpis = running.BuildWeekKpis(sessions, rng)
	}

	handler.countAggregation(aggregationKpis)
	pkg.WriteJSON(w, http.StatusOK, kpis)
}

func (handler *Handler) handleWeeklyGoal(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "dashboardHandler.weeklyGoal")
	defer span.End()

	caller, ok := handler.caller(w, r)
	if !ok {
		return
	}

	goal, err := intParam(r, "goal", handler.weeklyGoalDefault)
	if err != nil {
		pkg.WriteJSONMessage(w, http.StatusBadRequest, "goal must be a number")
		return
	}

	week := running.ISOWeekRange(running.CalendarDate(handler.Now()))
	sessions, ok := handler.sessions(ctx, w, caller, week)
	if !ok {
		return
	}

	done := running.BuildWeekKpis(sessions, week).SessionsCount
	handler.countAggregation(aggregationWeeklyGoal)
	pkg.WriteJSON(w, http.StatusOK, running.BuildWeeklyGoal(done, goal))
}

func (handler *Handler) handleLastSessions(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "dashboardHandler.lastSessions")
	defer span.End()

	caller, ok := handler.caller(w, r)
	if !ok {
		return
	}

	count, err := intParam(r, "count", defaultLastSessionsCount)
	if err != nil || count < 1 || count > maxLastSessionsCount {
		pkg.WriteJSONMessage(w, http.StatusBadRequest, fmt.Sprintf("count must be a number between 1 and %d", maxLastSessionsCount))
		return
	}

	window := running.LastNDaysRange(handler.Now(), lastSessionsWindowDays)
	sessions, ok := handler.sessions(ctx, w, caller, window)
	if !ok {
		return
	}

	last := running.LastSessions(sessions, count)
	totals := running.BuildWeekKpis(last, running.DateRange{})

	handler.countAggregation(aggregationLastSessions)
	pkg.WriteJSON(w, http.StatusOK, LastSessionsResponse{
		Sessions:    last,
		DistanceKm:  totals.DistanceKm,
		DurationMin: totals.DurationMin,
	})
}

func (handler *Handler) handleProfileStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "dashboardHandler.profileStats")
	defer span.End()

	caller, ok := handler.caller(w, r)
	if !ok {
		return
	}

	sessions, ok := handler.sessions(ctx, w, caller, running.DateRange{})
	if !ok {
		return
	}

	handler.countAggregation(aggregationProfileStats)
	pkg.WriteJSON(w, http.StatusOK, running.BuildProfileStats(sessions))
}

func (handler *Handler) handleProfileImage(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "dashboardHandler.profileImage")
	defer span.End()

	caller, ok := handler.caller(w, r)
	if !ok {
		return
	}

	img, err := handler.provider.ProfileImage(ctx, caller)
	if errors.Is(err, provider.ErrProfileImageUnsupported) {
		pkg.WriteJSONMessage(w, http.StatusNotImplemented, msgNoProfileImage)
		return
	}
	if err != nil {
		span.RecordError(err)
		handler.writeProviderError(w, "profile image", caller, err)
		return
	}

	contentType := img.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(img.Data)
	}
	pkg.WriteResponseBytesOK(w, contentType, img.Data)
}

// caller answers OPTIONS requests and resolves the authenticated caller.
// It returns false when the response has already been written.
func (handler *Handler) caller(w http.ResponseWriter, r *http.Request) (provider.Caller, bool) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "GET, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return provider.Caller{}, false
	}

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		pkg.WriteJSONMessage(w, http.StatusUnauthorized, middleware.MsgAuthRequired)
		return provider.Caller{}, false
	}

	return provider.Caller{
		UserID: claims.UserID,
		Token:  middleware.BearerToken(r),
	}, true
}

func (handler *Handler) sessions(ctx context.Context, w http.ResponseWriter, caller provider.Caller, rng running.DateRange) ([]running.Session, bool) {
	sessions, err := handler.provider.UserActivity(ctx, caller, rng)
	if err != nil {
		handler.writeProviderError(w, "user activity", caller, err)
		return nil, false
	}
	return sessions, true
}

func (handler *Handler) writeProviderError(w http.ResponseWriter, op string, caller provider.Caller, err error) {
	var apiErr *provider.APIError
	switch {
	case errors.Is(err, provider.ErrUnknownUser):
		pkg.WriteJSONMessage(w, http.StatusNotFound, msgUserNotFound)
	case errors.As(err, &apiErr):
		log.Debugf("%s for [%s], backend responded: %s", op, caller.UserID, apiErr)
		pkg.WriteJSONMessage(w, apiErr.Status, apiErr.Message)
	case errors.Is(err, running.ErrInvalidActivityPayload), errors.Is(err, running.ErrInvalidUserInfo):
		log.Errorf("%s for [%s]: %s", op, caller.UserID, err)
		pkg.WriteJSONMessage(w, http.StatusBadGateway, msgBadUpstreamPayload)
	default:
		log.Errorf("%s for [%s]: %s", op, caller.UserID, err)
		pkg.WriteJSONMessage(w, http.StatusInternalServerError, msgInternalError)
	}
}

func (handler *Handler) countAggregation(kind string) {
	if handler.metricsManager != nil {
		handler.metricsManager.CounterAggregations.WithLabelValues(kind).Inc()
	}
}

func (handler *Handler) today() string {
	return running.FormatLocalDate(running.CalendarDate(handler.Now()))
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
