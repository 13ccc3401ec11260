package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MartinaC181/MiGymApp-sub000/internal/domain"
	"github.com/MartinaC181/MiGymApp-sub000/internal/kvstore"
	"github.com/MartinaC181/MiGymApp-sub000/internal/observability/metrics"
	"github.com/MartinaC181/MiGymApp-sub000/internal/repository"
	"github.com/MartinaC181/MiGymApp-sub000/internal/security/audit"
	"github.com/MartinaC181/MiGymApp-sub000/internal/security/auth"
	"github.com/MartinaC181/MiGymApp-sub000/internal/security/middleware"
	"github.com/MartinaC181/MiGymApp-sub000/internal/security/ratelimit"
	"github.com/MartinaC181/MiGymApp-sub000/internal/service"
)

// Dependencies are everything the HTTP layer needs
type Dependencies struct {
	Store          kvstore.Store
	Backend        string
	Repos          *repository.Repositories
	Auth           *service.AuthService
	Billing        *service.BillingService
	Enrollments    *service.EnrollmentService
	Attendance     *service.AttendanceService
	Tokens         *auth.TokenManager
	Limiter        *ratelimit.Limiter
	LoginPerMinute int
	Audit          *audit.Logger
	AllowedOrigins []string
	Logger         *slog.Logger
}

// NewRouter builds the API. Middleware order: request id, metrics, CORS,
// JWT, audit, rate limit, input checks.
func NewRouter(d Dependencies) http.Handler {
	log := d.Logger
	health := NewHealthHandler(d.Store, d.Backend, log)
	authH := NewAuthHandler(d.Auth, d.Repos.Users, d.Audit, log.With(slog.String("handler", "auth")))
	classes := NewClassHandler(d.Repos.Classes, d.Enrollments, d.Audit, log.With(slog.String("handler", "classes")))
	enrollments := NewEnrollmentHandler(d.Enrollments, d.Audit, log.With(slog.String("handler", "enrollments")))
	payments := NewPaymentHandler(d.Repos.Payments, d.Repos.Users, d.Billing, d.Audit, log.With(slog.String("handler", "payments")))
	prefs := NewPreferenceHandler(d.Repos.Preferences, d.Audit, log.With(slog.String("handler", "preferences")))
	attendance := NewAttendanceHandler(d.Attendance, d.Audit, log.With(slog.String("handler", "attendance")))

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID())
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(metrics.HTTPMetricsMiddleware)
	r.Use(CORS(d.AllowedOrigins))
	r.Use(middleware.JWTMiddleware(d.Tokens, log))
	r.Use(middleware.AuditMiddleware(d.Audit))
	r.Use(middleware.RateLimitMiddleware(d.Limiter, d.LoginPerMinute, log))
	r.Use(middleware.SanitizeInputs(log))
	r.Use(middleware.ValidateJSONContentType(log))

	r.Get("/healthz", health.Health)
	r.Get("/readyz", health.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authH.Register)
		r.Post("/auth/login", authH.Login)

		r.Get("/classes", classes.Available)
		r.Get("/gyms/{gymId}/classes", classes.GymClasses)

		r.Route("/me", func(r chi.Router) {
			r.Get("/", authH.Me)
			r.Patch("/", authH.UpdateProfile)
			r.Post("/password", authH.ChangePassword)
			r.Post("/gym", authH.JoinGym)

			r.Get("/classes", enrollments.List)
			r.Post("/classes", enrollments.Enroll)
			r.Delete("/classes/{classId}", enrollments.Cancel)

			r.Get("/payment-info", payments.Info)
			r.Get("/payments", payments.MyHistory)
			r.Post("/payments", payments.Pay)
			r.Post("/checkout", payments.StartCheckout)
			r.Post("/checkout/{paymentId}/confirm", payments.ConfirmCheckout)

			r.Post("/check-in", attendance.CheckIn)

			r.Get("/preferences/theme", prefs.GetTheme)
			r.Put("/preferences/theme", prefs.PutTheme)
			r.Get("/preferences/stopwatch", prefs.GetStopwatch)
			r.Put("/preferences/stopwatch", prefs.PutStopwatch)
			r.Delete("/preferences/stopwatch", prefs.ClearStopwatch)
		})

		r.Route("/gym", func(r chi.Router) {
			r.Use(middleware.RequireRole(d.Audit, domain.RoleGym))

			r.Get("/classes", classes.List)
			r.Post("/classes", classes.Create)
			r.Put("/classes/{classId}", classes.Update)
			r.Delete("/classes/{classId}", classes.Delete)
			r.Get("/classes/{classId}/roster", classes.Roster)

			r.Get("/quota", payments.GetQuota)
			r.Put("/quota", payments.PutQuota)

			r.Get("/payments", payments.History)
			r.Get("/payments/summary", payments.Summary)
			r.Post("/payments/{paymentId}/complete", payments.Complete)

			r.Get("/clients", authH.Members)
			r.Get("/clients/{clientId}/payments", payments.ClientHistory)

			r.Get("/check-in/qr", attendance.QR)
		})
	})

	return r
}

// CORS honors the configured origins, falling back to the first one
func CORS(allowed []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if originAllowed(allowed, origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			} else if len(allowed) > 0 {
				w.Header().Set("Access-Control-Allow-Origin", allowed[0])
			}
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization, X-Request-ID")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}
