package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/MartinaC181/MiGymApp-sub000/internal/domain"
	"github.com/MartinaC181/MiGymApp-sub000/internal/featureflags"
	"github.com/MartinaC181/MiGymApp-sub000/internal/handler"
	"github.com/MartinaC181/MiGymApp-sub000/internal/infrastructure/gateway"
	"github.com/MartinaC181/MiGymApp-sub000/internal/kvstore"
	"github.com/MartinaC181/MiGymApp-sub000/internal/observability/tracing"
	"github.com/MartinaC181/MiGymApp-sub000/internal/repository"
	"github.com/MartinaC181/MiGymApp-sub000/internal/security/audit"
	"github.com/MartinaC181/MiGymApp-sub000/internal/security/auth"
	"github.com/MartinaC181/MiGymApp-sub000/internal/security/ratelimit"
	"github.com/MartinaC181/MiGymApp-sub000/internal/service"
	"github.com/MartinaC181/MiGymApp-sub000/internal/worker"
	"github.com/MartinaC181/MiGymApp-sub000/pkg/config"
)

// loginPerMinute bounds login attempts per client IP
const loginPerMinute = 10

// App wires the store, repositories and services for one process
type App struct {
	Config      *config.Config
	Logger      *slog.Logger
	Store       kvstore.Store
	Repos       *repository.Repositories
	Tokens      *auth.TokenManager
	Audit       *audit.Logger
	Auth        *service.AuthService
	Billing     *service.BillingService
	Enrollments *service.EnrollmentService
	Attendance  *service.AttendanceService
}

// New opens the configured store and builds every service on top of it
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	log.Info("app: opening store", slog.String("backend", cfg.StoreBackend))
	store, err := kvstore.Open(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	repos := repository.New(store, log, repository.Options{
		BcryptCost: cfg.BcryptCost,
		DefaultQuota: domain.QuotaSettings{
			Monto:       cfg.DefaultQuotaAmount,
			Descripcion: cfg.DefaultQuotaDescription,
		},
		IncludeLegacyLists: featureflags.EnabledOr(featureflags.LegacyEnrollments, true),
	})

	tokens := auth.NewTokenManager(cfg.JWTSecret, tracing.ServiceName)
	auditLog := audit.NewLogger(log)
	tokenTTL := time.Duration(cfg.TokenTTLMinutes) * time.Minute

	var gw domain.PaymentGateway
	if cfg.PaymentGatewayToken != "" {
		gw = gateway.NewClient(cfg.PaymentGatewayURL, cfg.PaymentGatewayToken, log.With(slog.String("component", "gateway")))
	} else {
		log.Warn("app: payment gateway disabled, PAYMENT_GATEWAY_TOKEN is not set")
	}

	return &App{
		Config:      cfg,
		Logger:      log,
		Store:       store,
		Repos:       repos,
		Tokens:      tokens,
		Audit:       auditLog,
		Auth:        service.NewAuthService(repos.Users, repos.Sessions, tokens, tokenTTL, log.With(slog.String("service", "auth"))),
		Billing:     service.NewBillingService(repos.Payments, gw, auditLog, log.With(slog.String("service", "billing"))),
		Enrollments: service.NewEnrollmentService(repos.Classes, repos.Enrollments, repos.Users, auditLog, log.With(slog.String("service", "enrollments"))),
		Attendance:  service.NewAttendanceService(repos.Users, tokens, 10*time.Minute, log.With(slog.String("service", "attendance"))),
	}, nil
}

// HTTPServer builds the instrumented API server. Stop the returned limiter
// after the server has shut down.
func (a *App) HTTPServer() (*http.Server, *ratelimit.Limiter) {
	limiter := ratelimit.NewLimiter(a.Config.RateLimitPerMinute, time.Minute)
	router := handler.NewRouter(handler.Dependencies{
		Store:          a.Store,
		Backend:        a.Config.StoreBackend,
		Repos:          a.Repos,
		Auth:           a.Auth,
		Billing:        a.Billing,
		Enrollments:    a.Enrollments,
		Attendance:     a.Attendance,
		Tokens:         a.Tokens,
		Limiter:        limiter,
		LoginPerMinute: loginPerMinute,
		Audit:          a.Audit,
		AllowedOrigins: a.Config.CORSAllowedOrigins,
		Logger:         a.Logger,
	})

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", a.Config.ServerPort),
		Handler:           otelhttp.NewHandler(router, "http.server"),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
	}, limiter
}

// ReconcileWorker returns the payment flag reconciler, or nil when it is
// switched off with FLAG_RECONCILER=false
func (a *App) ReconcileWorker() *worker.ReconcileWorker {
	if !featureflags.EnabledOr(featureflags.Reconciler, true) {
		return nil
	}
	interval := time.Duration(a.Config.ReconcileIntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return worker.NewReconcileWorker(a.Repos.Payments, a.Repos.Users, a.Logger.With(slog.String("worker", "reconcile")), interval)
}

// Close releases the store
func (a *App) Close() error {
	return kvstore.Close(a.Store)
}
