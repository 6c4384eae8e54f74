package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/macrotrack/internal/api"
	"github.com/2beens/macrotrack/internal/autosync"
	"github.com/2beens/macrotrack/internal/config"
	"github.com/2beens/macrotrack/internal/db"
	"github.com/2beens/macrotrack/internal/diary"
	"github.com/2beens/macrotrack/internal/middleware"
	"github.com/2beens/macrotrack/internal/migrate"
	"github.com/2beens/macrotrack/internal/persistence"
	"github.com/2beens/macrotrack/internal/persistence/postgres"
	"github.com/2beens/macrotrack/internal/persistence/sqlite"
	"github.com/2beens/macrotrack/internal/telemetry/metrics"
	"github.com/2beens/macrotrack/internal/telemetry/tracing"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/coocood/freecache"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/multierr"
)

const (
	initialLoadTimeout  = 30 * time.Second
	maxRequestBodyBytes = 1 << 20
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config *config.Config
	admin  middleware.Admin

	store        *diary.Store
	scheduler    *autosync.Scheduler
	gateway      persistence.Gateway
	redisClient  *redis.Client
	summaryCache *freecache.Cache

	schedulerCancel context.CancelFunc
	schedulerDone   chan struct{}

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config      *config.Config
	Secrets     *config.Secrets
	VersionInfo string
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config
	secrets := params.Secrets

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: secrets.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(secrets.HoneycombEnabled, secrets.OtelServiceName, rdb)
	if err != nil {
		return nil, fmt.Errorf("honeycomb setup: %w", err)
	}

	var extraCollectors []prometheus.Collector
	var gateway persistence.Gateway
	switch cfg.Storage {
	case config.StoragePostgres:
		dbParams := db.NewDBPoolParams{
			DBHost:         cfg.PostgresHost,
			DBPort:         cfg.PostgresPort,
			DBName:         cfg.PostgresDBName,
			DBUser:         cfg.PostgresUser,
			DBPassword:     secrets.PostgresPassword,
			TracingEnabled: secrets.HoneycombEnabled,
		}
		if dbParams.DBUser == "" {
			dbParams.DBUser = "postgres"
		}

		if err := migrate.UpPostgres(ctx, dbParams.ConnString()); err != nil {
			// the store will come up failed and can be reloaded later
			log.Errorf("postgres migrations: %s", err)
		}

		dbPool, err := db.NewDBPool(ctx, dbParams)
		if err != nil {
			return nil, fmt.Errorf("new db pool: %w", err)
		}
		extraCollectors = append(extraCollectors, pgxpoolprometheus.NewCollector(
			dbPool,
			map[string]string{"db_name": cfg.PostgresDBName},
		))
		gateway = postgres.NewGateway(dbPool)
	case config.StorageSQLite:
		gateway, err = sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLitePath, err)
		}
	default:
		return nil, fmt.Errorf("unknown storage: %s", cfg.Storage)
	}

	promRegistry := metrics.SetupPrometheus(metrics.PrometheusParams{
		Namespace:   "macrotrack",
		VersionInfo: params.VersionInfo,
		Collectors:  extraCollectors,
	})
	metricsManager := metrics.NewManager("macrotrack", "server", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	store := diary.NewStore()
	scheduler := autosync.NewScheduler(
		store,
		gateway,
		metricsManager,
		autosync.WithDelay(cfg.SyncDebounce.Duration),
	)
	store.Subscribe(scheduler.Notify)

	s := &Server{
		versionInfo: params.VersionInfo,
		config:      cfg,
		admin: middleware.Admin{
			Username:     secrets.AdminUsername,
			PasswordHash: secrets.AdminPasswordHash,
		},

		store:        store,
		scheduler:    scheduler,
		gateway:      gateway,
		redisClient:  rdb,
		summaryCache: freecache.NewCache(cfg.SummaryCacheSizeMB * 1024 * 1024),

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}

	loadCtx, cancel := context.WithTimeout(ctx, initialLoadTimeout)
	defer cancel()
	s.loadStore(loadCtx)

	return s, nil
}

// loadStore hydrates the store from the backend. A failed load leaves the
// store failed, every data route answers 503 until POST /reload succeeds.
func (s *Server) loadStore(ctx context.Context) {
	snapshot, err := s.gateway.LoadAll(ctx)
	if err != nil {
		log.Errorf("initial load: %s", err)
		s.store.MarkFailed(err)
		return
	}

	loaded := persistence.OrDefault(snapshot)
	if err := s.store.Hydrate(loaded); err != nil {
		log.Errorf("hydrate store: %s", err)
		s.store.MarkFailed(err)
		return
	}
	log.Infof("store loaded: %d profiles, %d products, %d sets, %d entries, %d measurements",
		len(loaded.Profiles), len(loaded.Products), len(loaded.Sets), len(loaded.Entries), len(loaded.Measurements))
}

func (s *Server) routerSetup() (*mux.Router, error) {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("macrotrack-router"))

	apiHandler := api.NewHandler(api.NewHandlerParams{
		Store:          s.store,
		Scheduler:      s.scheduler,
		Loader:         s.gateway,
		Redis:          s.redisClient,
		SummaryCache:   s.summaryCache,
		MetricsManager: s.metricsManager,
	})
	reqRateLimiter := redis_rate.NewLimiter(s.redisClient)
	apiHandler.SetupRoutes(r, reqRateLimiter, s.config.SyncRateLimitPerMin)

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "DELETE", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.admin)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.AllowedOrigins))
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.LimitRequestBody(maxRequestBodyBytes))

	return r, nil
}

func (s *Server) Serve(ctx context.Context, host string, port int) {
	router, err := s.routerSetup()
	if err != nil {
		log.Fatalf("failed to setup router: %s", err)
	}

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      otelhttp.NewHandler(router, "macrotrack"),
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{},
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	// stopped by GracefulShutdown, after the http server stops taking writes
	schedulerCtx, schedulerCancel := context.WithCancel(context.WithoutCancel(ctx))
	s.schedulerCancel = schedulerCancel
	s.schedulerDone = make(chan struct{})
	go func() {
		defer close(s.schedulerDone)
		s.scheduler.Run(schedulerCtx)
	}()

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

// GracefulShutdown stops taking requests first, then lets the scheduler do its
// final flush before the backends are closed.
func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")
	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown http server")
		}
		log.Warnln("server shut down")
	}

	if s.schedulerCancel != nil {
		s.schedulerCancel()
		select {
		case <-s.schedulerDone:
			log.Debugln("autosync stopped")
		case <-ctx.Done():
			log.Errorln("autosync did not stop in time, unsaved changes may be lost")
		}
	}

	if err := s.closeBackends(); err != nil {
		log.Errorf("close backends: %s", err)
	}

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown metrics http server")
		}
		log.Warnln("metrics server shut down")
	}
}

func (s *Server) closeBackends() error {
	var err error
	if s.gateway != nil {
		log.Debugln("closing storage gateway ...")
		err = multierr.Append(err, s.gateway.Close())
	}
	if s.redisClient != nil {
		err = multierr.Append(err, s.redisClient.Close())
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
