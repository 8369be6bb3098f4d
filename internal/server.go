package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/2beens/sportsee/internal/auth"
	"github.com/2beens/sportsee/internal/config"
	"github.com/2beens/sportsee/internal/dashboard"
	"github.com/2beens/sportsee/internal/db"
	"github.com/2beens/sportsee/internal/middleware"
	"github.com/2beens/sportsee/internal/provider"
	"github.com/2beens/sportsee/internal/running"
	"github.com/2beens/sportsee/internal/telemetry/metrics"
	"github.com/2beens/sportsee/internal/telemetry/tracing"
	"github.com/2beens/sportsee/internal/users"
	"github.com/2beens/sportsee/pkg"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config      *config.Config
	dbPool      *pgxpool.Pool
	userStore   users.Store
	provider    provider.Provider
	locale      running.Locale
	redisClient *redis.Client
	// nil when redis is disabled, login is not rate limited then
	rateLimiter middleware.RequestRateLimiter

	loginChecker *auth.LoginChecker
	authService  *auth.Service

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	JWTSecret               string
	VersionInfo             string
	DBUser                  string
	DBPassword              string
	RedisPassword           string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config
	if params.JWTSecret == "" {
		return nil, errors.New("jwt secret not set")
	}

	locale, err := running.ParseLocale(cfg.Locale)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:      cfg,
		versionInfo: params.VersionInfo,
		locale:      locale,
	}

	var collectors []prometheus.Collector
	switch cfg.UserStore {
	case config.UserStorePostgres:
		dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:         cfg.PostgresHost,
			DBPort:         cfg.PostgresPort,
			DBName:         cfg.PostgresDBName,
			DBUser:         params.DBUser,
			DBPassword:     params.DBPassword,
			TracingEnabled: params.HoneycombTracingEnabled,
		})
		if err != nil {
			return nil, fmt.Errorf("new db pool: %w", err)
		}
		if err := dbPool.Ping(ctx); err != nil {
			log.Warnf("failed to ping db: %s", err)
		}

		postgresStore := users.NewPostgresStore(dbPool)
		if err := postgresStore.EnsureSchema(ctx); err != nil {
			log.Errorf("ensure db schema: %s", err)
		}

		s.dbPool = dbPool
		s.userStore = postgresStore
		collectors = append(collectors, pgxpoolprometheus.NewCollector(
			dbPool,
			map[string]string{"db_name": cfg.PostgresDBName},
		))
	default:
		fixtureStore, err := users.LoadFixtureStore(cfg.FixturePath)
		if err != nil {
			return nil, fmt.Errorf("load fixture store: %w", err)
		}
		log.Debugf("fixture store loaded with %d users from [%s]", len(fixtureStore.Users()), cfg.FixturePath)
		s.userStore = fixtureStore
	}

	s.promRegistry = metrics.SetupPrometheus(collectors...)
	s.metricsManager = metrics.NewManager("sportsee", "main", s.promRegistry)
	s.metricsManager.GaugeLifeSignal.Set(0)

	var revoked auth.RevocationList
	if cfg.RedisEnabled {
		s.redisClient = redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
			Password: params.RedisPassword,
			DB:       0, // use default DB
		})

		rdbStatus := s.redisClient.Ping(ctx)
		if err := rdbStatus.Err(); err != nil {
			log.Errorf("--> failed to ping redis: %s", err)
		} else {
			log.Debugf("redis ping: %s", rdbStatus.Val())
		}

		revoked = auth.NewRedisRevocationList(s.redisClient)
		s.rateLimiter = redis_rate.NewLimiter(s.redisClient)
	} else {
		log.Warnln("redis disabled: revoked tokens are kept in memory, login is not rate limited")
		revoked = auth.NewMemoryRevocationList()
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	s.otelShutdown, err = tracing.HoneycombSetup(params.HoneycombTracingEnabled, "sportsee-backend", s.redisClient)
	if err != nil {
		return nil, err
	}

	s.authService = auth.NewAuthService(params.JWTSecret, cfg.TokenTTL.Duration, revoked)
	s.loginChecker = auth.NewLoginChecker(params.JWTSecret, revoked)

	s.provider, err = provider.New(cfg, provider.Deps{
		Store:          s.userStore,
		MetricsManager: s.metricsManager,
	})
	if err != nil {
		return nil, fmt.Errorf("new data provider: %w", err)
	}
	log.Debugf("dashboard data source: %s", cfg.DataSource)

	return s, nil
}

func (s *Server) routerSetup() (*mux.Router, error) {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	r.HandleFunc("/", s.handleRoot).Methods("GET", "OPTIONS").Name("root")

	usersHandler := users.NewHandler(s.userStore, s.authService, s.metricsManager)
	usersHandler.SetupRoutes(r, s.rateLimiter, s.config.LoginRateLimitAllowedPerMin)

	dashboardHandler := dashboard.NewHandler(dashboard.Params{
		Provider:          s.provider,
		MetricsManager:    s.metricsManager,
		Locale:            s.locale,
		KPIStrictRange:    s.config.KPIStrictRange,
		WeeklyGoalDefault: s.config.WeeklyGoalDefault,
	})
	dashboardHandler.SetupRoutes(r)

	// all the rest - unhandled paths
	r.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pkg.WriteJSONMessage(w, http.StatusNotFound, "Not found")
	}).Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(
		s.loginChecker,
		"/", "/api/login",
	)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.AllowedOrigins))
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.LimitAndDrainRequest(middleware.DefaultMaxBodyBytes))

	return r, nil
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "GET, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	msg := "sportsee backend up and running"
	if s.versionInfo != "" {
		msg += ", version: " + s.versionInfo
	}
	pkg.WriteTextResponseOK(w, msg)
}

func (s *Server) Serve(host string, port int) {
	router, err := s.routerSetup()
	if err != nil {
		log.Fatalf("failed to setup router: %s", err)
	}

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.InstrumentMetricHandler(
		s.promRegistry,
		promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}),
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:              metricsAddr,
		Handler:           metricsRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown http server")
		}
		log.Warnln("server shut down")
	}

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown metrics http server")
		}
		log.Warnln("metrics server shut down")
	}
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
