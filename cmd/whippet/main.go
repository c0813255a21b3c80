package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	cfhttp "github.com/ahardinathillc/whippet/internal/adapter/http"
	cfnats "github.com/ahardinathillc/whippet/internal/adapter/nats"
	"github.com/ahardinathillc/whippet/internal/adapter/natskv"
	cfotel "github.com/ahardinathillc/whippet/internal/adapter/otel"
	"github.com/ahardinathillc/whippet/internal/adapter/ristretto"
	"github.com/ahardinathillc/whippet/internal/adapter/tiered"
	"github.com/ahardinathillc/whippet/internal/adapter/ws"
	"github.com/ahardinathillc/whippet/internal/config"
	"github.com/ahardinathillc/whippet/internal/domain"
	"github.com/ahardinathillc/whippet/internal/domain/tenant"
	"github.com/ahardinathillc/whippet/internal/logger"
	"github.com/ahardinathillc/whippet/internal/middleware"
	"github.com/ahardinathillc/whippet/internal/port/cache"
	"github.com/ahardinathillc/whippet/internal/port/messagequeue"
	"github.com/ahardinathillc/whippet/internal/resilience"
	"github.com/ahardinathillc/whippet/internal/service"
)

const idempotencyTTL = 24 * time.Hour

func main() {
	var err error
	if len(os.Args) > 1 && os.Args[1] == "admin" {
		err = runAdmin(os.Args[2:])
	} else {
		err = run(os.Args[1:])
	}
	if err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags, err := config.ParseFlags(args)
	if err != nil {
		return err
	}
	cfg, cfgPath, err := config.LoadWithCLI(flags)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	holder := config.NewHolder(cfg, cfgPath)

	log, closeLog := logger.New(cfg.Logging)
	defer closeLog.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"db_driver", cfg.Database.Driver,
		"db_max_conns", cfg.Database.MaxConns,
	)

	ctx := context.Background()

	// --- Telemetry ---

	shutdownOtel, err := cfotel.Init(ctx, cfg.OTEL)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOtel(shutdownCtx); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	}()
	metrics, err := cfotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("otel metrics: %w", err)
	}

	// --- Infrastructure ---

	store, err := openStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer store.close()
	slog.Info("database connected", "driver", cfg.Database.Driver)

	if cfg.Database.AutoMigrate {
		if err := store.migrate(ctx); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		slog.Info("migrations applied")
	}

	// NATS (optional)
	var queue messagequeue.Queue
	var natsQueue *cfnats.Queue
	if cfg.NATS.URL != "" {
		natsQueue, err = cfnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() { _ = natsQueue.Drain() }()
		queue = natsQueue
	}

	// Cache: ristretto L1, NATS KV L2 when available.
	l1, err := ristretto.NewMB(cfg.Cache.L1MaxSizeMB)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer l1.Close()
	var l2 cache.Cache
	if natsQueue != nil && cfg.Cache.L2Bucket != "" {
		kv, err := natsQueue.KeyValue(ctx, cfg.Cache.L2Bucket, cfg.Cache.L2TTL)
		if err != nil {
			slog.Warn("L2 cache unavailable, continuing with L1 only", "error", err)
		} else {
			l2 = natskv.New(kv)
		}
	}
	tenantCache := tiered.New(l1, l2, cfg.Cache.TTL)

	// --- Services ---

	systemID, err := uuid.Parse(cfg.Identity.SystemUserID)
	if err != nil {
		return fmt.Errorf("identity: system_user_id: %w", err)
	}
	registry := tenant.Default
	registry.SetResolver(tenant.StaticSystemUser(systemID))
	hub := ws.NewHub(cfg.Server.CORSOrigin, tenant.ScopeFrom)
	defer hub.Close()
	events := service.NewEvents(queue, resilience.FromConfig("events", cfg.Breaker), hub)

	tenantSvc := service.NewTenantService(store, registry, events, systemID)
	tenantSvc.SetCache(tenantCache, cfg.Cache.TTL)
	tenantSvc.SetMetrics(metrics)
	assignmentSvc := service.NewAssignmentService(store, events, systemID)
	assignmentSvc.SetMetrics(metrics)
	principalSvc := service.NewPrincipalService(store, systemID)
	if err := principalSvc.EnsureSystemUser(ctx); err != nil {
		return fmt.Errorf("system user: %w", err)
	}

	if err := establishRoot(ctx, tenantSvc, cfg.Root); err != nil {
		return err
	}

	// --- HTTP ---

	handlers := &cfhttp.Handlers{
		Tenants:     tenantSvc,
		Assignments: assignmentSvc,
		Principals:  principalSvc,
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(cfotel.HTTPMiddleware(cfg.OTEL.ServiceName))
	r.Use(cfhttp.Logger)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cfhttp.SecurityHeaders)
	r.Use(cfhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(cfhttp.Locale(cfg.Locale))
	r.Use(middleware.TenantID(tenant.RootTenant))
	r.Use(middleware.ActorID(systemID))

	// Health endpoint with service status
	r.Get("/health", healthHandler(store, queue, l1))

	// WebSocket endpoint
	r.Get("/ws", hub.HandleWS)

	// API routes
	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(30 * time.Second))
		r.Use(middleware.Idempotency(tenantCache, idempotencyTTL))
		cfhttp.MountRoutes(r, handlers)
	})

	addr := ":" + cfg.Server.Port

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown; SIGHUP reloads config.
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
		}
	}()

	for sig := range signals {
		if sig != syscall.SIGHUP {
			break
		}
		if err := holder.Reload(); err != nil {
			slog.Error("config reload failed", "error", err)
			continue
		}
		logger.SetLevel(holder.Get().Logging.Level)
		slog.Info("config reloaded", "log_level", holder.Get().Logging.Level)
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// establishRoot restores a persisted root tenant and, when none exists and
// one is configured, bootstraps it.
func establishRoot(ctx context.Context, svc *service.TenantService, cfg config.Root) error {
	root, err := svc.LoadRoot(ctx)
	switch {
	case err == nil:
		slog.Info("root tenant", "tenant_id", root.ID, "name", root.Name)
		return nil
	case !errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("load root tenant: %w", err)
	case !cfg.Enabled():
		slog.Warn("no root tenant established; POST /api/v1/tenants/root or run `whippet admin bootstrap-root`")
		return nil
	}

	id, err := uuid.Parse(cfg.ID)
	if err != nil {
		return fmt.Errorf("root.id: %w", err)
	}
	if _, err := svc.BootstrapRoot(ctx, tenant.BootstrapRequest{ID: id, Name: cfg.Name, URL: cfg.URL}); err != nil {
		return fmt.Errorf("bootstrap root tenant: %w", err)
	}
	return nil
}

type pinger interface {
	Ping(ctx context.Context) error
}

type cacheStats interface {
	Stats() ristretto.Stats
}

// healthHandler reports store and queue reachability plus L1 cache
// effectiveness. An unreachable store answers 503.
func healthHandler(db pinger, queue messagequeue.Queue, l1 cacheStats) http.HandlerFunc {
	type healthStatus struct {
		Status   string          `json:"status"`
		Database string          `json:"database"`
		NATS     string          `json:"nats"`
		Cache    ristretto.Stats `json:"cache"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		status := healthStatus{Status: "ok", Database: "ok", NATS: "disabled", Cache: l1.Stats()}
		code := http.StatusOK

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			status.Status, status.Database = "degraded", "unreachable"
			code = http.StatusServiceUnavailable
		}
		if queue != nil {
			status.NATS = "ok"
			if !queue.IsConnected() {
				status.Status, status.NATS = "degraded", "disconnected"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(status)
	}
}
