package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/edvin/mailcycle/internal/api/handler"
	mw "github.com/edvin/mailcycle/internal/api/middleware"
	"github.com/edvin/mailcycle/internal/config"
	"github.com/edvin/mailcycle/internal/core"
	"github.com/edvin/mailcycle/internal/scheduler"
)

// TaskQueue is the Temporal task queue shared by the API and the worker.
const TaskQueue = "mailcycle-tasks"

type Server struct {
	router         chi.Router
	logger         zerolog.Logger
	services       *core.Services
	pool           *pgxpool.Pool
	temporalClient temporalclient.Client
	scheduler      *scheduler.Scheduler
	dir            core.Directory
	cfg            *config.Config
}

func NewServer(logger zerolog.Logger, pool *pgxpool.Pool, temporalClient temporalclient.Client, dir core.Directory, cfg *config.Config) *Server {
	services := core.NewServices(pool, dir, logger, core.Options{
		SyncBatchSize:        cfg.SyncBatchSize,
		SyncErrorDetailLimit: cfg.SyncErrorDetailLimit,
		PurgeDelayDays:       cfg.PurgeDelayDays,
	})

	s := &Server{
		router:         chi.NewRouter(),
		logger:         logger,
		services:       services,
		pool:           pool,
		temporalClient: temporalClient,
		scheduler:      scheduler.New(temporalClient, TaskQueue, logger),
		dir:            dir,
		cfg:            cfg,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
}

func (s *Server) setupRoutes() {
	// Prometheus metrics endpoint
	s.router.Handle("/metrics", promhttp.Handler())

	// Health check endpoints
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Accounts
		account := handler.NewAccount(s.services.Account, s.services.Lifecycle, s.services.BulkOps, s.dir)
		r.Get("/accounts", account.List)
		r.Get("/accounts/{id}", account.Get)
		r.Get("/accounts/{id}/remote", account.Remote)
		r.Get("/accounts/by-email/{email}", account.GetByEmail)
		r.Post("/accounts/{id}/status", account.ChangeStatus)
		r.Post("/accounts/bulk", account.BulkOp)

		// Sync
		sync := handler.NewSync(s.services.Sync, s.temporalClient, TaskQueue, s.scheduler)
		r.Post("/sync", sync.Trigger)
		r.Get("/sync/runs", sync.ListRuns)
		r.Get("/sync/status", sync.Status)

		// Purge queue
		purge := handler.NewPurge(s.services.Purge)
		r.Post("/purge/run", purge.Run)
		r.Get("/purge/queue", purge.ListQueue)

		// Settings
		settings := handler.NewSettings(s.services.Settings, s.scheduler, s.dir)
		r.Get("/settings/sync-interval", settings.GetSyncInterval)
		r.Put("/settings/sync-interval", settings.UpdateSyncInterval)
		r.Post("/settings/test-connection", settings.TestConnection)

		// Audit logs
		audit := handler.NewAudit(s.services.Audit)
		r.Get("/audit-logs", audit.List)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := s.pool.Ping(ctx); err != nil {
		checks["db"] = err.Error()
		healthy = false
	} else {
		checks["db"] = "ok"
	}

	if _, err := s.temporalClient.CheckHealth(ctx, &temporalclient.CheckHealthRequest{}); err != nil {
		checks["temporal"] = err.Error()
		healthy = false
	} else {
		checks["temporal"] = "ok"
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(checks)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
