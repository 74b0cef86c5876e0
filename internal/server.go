package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/abtracker/internal/config"
	"github.com/2beens/abtracker/internal/db"
	"github.com/2beens/abtracker/internal/middleware"
	"github.com/2beens/abtracker/internal/misc"
	"github.com/2beens/abtracker/internal/telemetry/metrics"
	"github.com/2beens/abtracker/internal/telemetry/tracing"
	"github.com/2beens/abtracker/internal/workout/catalog"
	"github.com/2beens/abtracker/internal/workout/handler"
	"github.com/2beens/abtracker/internal/workout/logs"
	"github.com/2beens/abtracker/internal/workout/preferences"
	"github.com/2beens/abtracker/internal/workout/tracker"

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
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/multierr"
)

const maxRequestBodyBytes = 64 * 1024

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string
	writeTokenHash    string

	config      *config.Config
	catalog     *catalog.Catalog
	dbPool      *pgxpool.Pool // nil with the memory log store
	redisClient *redis.Client
	rateLimiter middleware.RequestRateLimiter
	preferences preferences.Store
	tracker     *tracker.Service

	// telemetry
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	WriteTokenHash          string
	PostgresUser            string
	PostgresPassword        string
	RedisPassword           string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (_ *Server, err error) {
	cfg := params.Config

	// resources opened so far, released in reverse if setup fails
	var closers []func()
	defer func() {
		if err == nil {
			return
		}
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	workoutCatalog, err := cfg.Catalog()
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}

	var (
		dbPool     *pgxpool.Pool
		collectors []prometheus.Collector
	)
	if cfg.LogStore == "postgres" {
		dbPool, err = db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:         cfg.PostgresHost,
			DBPort:         cfg.PostgresPort,
			DBName:         cfg.PostgresDBName,
			DBUser:         params.PostgresUser,
			DBPassword:     params.PostgresPassword,
			TracingEnabled: params.HoneycombTracingEnabled,
		})
		if err != nil {
			return nil, fmt.Errorf("new db pool: %w", err)
		}
		closers = append(closers, dbPool.Close)
		if err := dbPool.Ping(ctx); err != nil {
			log.Warnf("failed to ping db: %s", err)
		}
		collectors = append(collectors, pgxpoolprometheus.NewCollector(
			dbPool,
			map[string]string{"db_name": cfg.PostgresDBName},
		))
	}

	promRegistry, err := metrics.NewRegistry(collectors...)
	if err != nil {
		return nil, fmt.Errorf("setup prometheus registry: %w", err)
	}
	metricsManager := metrics.NewManager("backend", "abtracker", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})
	closers = append(closers, func() {
		if closeErr := rdb.Close(); closeErr != nil {
			log.Errorf("close redis client: %s", closeErr)
		}
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "abtracker-backend", rdb)
	if err != nil {
		return nil, fmt.Errorf("honeycomb setup: %w", err)
	}
	closers = append(closers, otelShutdown)

	var logsRepo logs.Repo
	if dbPool != nil {
		psqlRepo := logs.NewPsqlRepo(dbPool)
		if err = psqlRepo.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure log store schema: %w", err)
		}
		logsRepo = psqlRepo
	} else {
		log.Warnln("using in-memory log store, logged sessions are lost on restart")
		logsRepo = logs.NewMemoryRepo()
	}

	lastID, err := logsRepo.LastID(ctx)
	if err != nil {
		return nil, fmt.Errorf("get last log id: %w", err)
	}

	prefs := preferences.NewRedisStore(rdb, cfg.AllowPartialSessions)

	return &Server{
		versionInfo:    params.VersionInfo,
		writeTokenHash: params.WriteTokenHash,

		config:      cfg,
		catalog:     workoutCatalog,
		dbPool:      dbPool,
		redisClient: rdb,
		rateLimiter: redis_rate.NewLimiter(rdb),
		preferences: prefs,
		tracker: tracker.NewService(tracker.Params{
			Catalog:            workoutCatalog,
			Repo:               logsRepo,
			Preferences:        prefs,
			IDGenerator:        logs.NewIDGenerator(lastID),
			Metrics:            metricsManager,
			CacheSizeMegabytes: cfg.ProgressCacheSizeMegabytes,
		}),

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

func (s *Server) healthServices() map[string]misc.Pinger {
	services := map[string]misc.Pinger{
		"redis": misc.PingerFunc(func(ctx context.Context) error {
			return s.redisClient.Ping(ctx).Err()
		}),
	}
	if s.dbPool != nil {
		services["postgres"] = misc.PingerFunc(s.dbPool.Ping)
	}
	return services
}

func (s *Server) routerSetup() (*mux.Router, error) {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("abtracker-router"))

	miscHandler := misc.NewHandler(s.versionInfo, s.healthServices())
	miscHandler.SetupRoutes(r)

	workoutHandler := handler.NewHandler(s.catalog, s.tracker, s.preferences)
	workoutHandler.SetupRoutes(r, middleware.RateLimit(
		s.rateLimiter,
		"log-session",
		s.config.SessionsRateLimitPerMin,
		s.metricsManager,
	))

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.AllowedOrigins, !s.config.IsProduction()))
	if s.writeTokenHash != "" {
		authMiddleware := middleware.NewAuthMiddlewareHandler(
			middleware.NewHashedTokenChecker(s.writeTokenHash),
		)
		r.Use(authMiddleware.AuthCheck())
	} else {
		log.Warnln("write token hash not set, write routes are NOT protected")
	}
	r.Use(middleware.DrainAndCloseRequest(maxRequestBodyBytes))

	return r, nil
}

func (s *Server) Serve(host string, port int) {
	router, err := s.routerSetup()
	if err != nil {
		log.Fatalf("failed to setup router: %s", err)
	}

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      otelhttp.NewHandler(router, "abtracker-server"),
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

func (s *Server) GracefulShutdown() error {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	// stop taking requests first, then close what they use
	var err error
	if s.httpServer != nil {
		if shutdownErr := s.httpServer.Shutdown(ctx); shutdownErr != nil {
			err = multierr.Append(err, fmt.Errorf("shutdown http server: %w", shutdownErr))
		}
		log.Warnln("server shut down")
	}
	if s.metricsHttpServer != nil {
		if shutdownErr := s.metricsHttpServer.Shutdown(ctx); shutdownErr != nil {
			err = multierr.Append(err, fmt.Errorf("shutdown metrics http server: %w", shutdownErr))
		}
		log.Warnln("metrics server shut down")
	}

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if closeErr := s.redisClient.Close(); closeErr != nil {
			err = multierr.Append(err, fmt.Errorf("close redis client: %w", closeErr))
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

	return err
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
