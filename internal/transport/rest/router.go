package rest

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/user-rbac/api"
	appErrors "github.com/frahmantamala/user-rbac/internal"
	"github.com/frahmantamala/user-rbac/internal/auth"
	"github.com/frahmantamala/user-rbac/internal/permission"
	"github.com/frahmantamala/user-rbac/internal/role"
	"github.com/frahmantamala/user-rbac/internal/transport"
	"github.com/frahmantamala/user-rbac/internal/transport/middleware"
	"github.com/frahmantamala/user-rbac/internal/transport/swagger"
	"github.com/frahmantamala/user-rbac/internal/user"
	"github.com/frahmantamala/user-rbac/internal/userrole"
	"github.com/go-chi/chi"
	"github.com/go-chi/httprate"
	goredis "github.com/redis/go-redis/v9"
)

type Handlers struct {
	Auth       *auth.Handler
	User       *user.Handler
	Role       *role.Handler
	Permission *permission.Handler
	UserRole   *userrole.Handler
}

type Options struct {
	DB    *sql.DB
	Redis goredis.UniversalClient

	// Metrics is nil when metrics are disabled.
	Metrics     *middleware.Metrics
	MetricsPath string
	// Validator is nil when request validation is disabled.
	Validator *middleware.OpenAPIValidator

	AllowedOrigins string
	Production     bool
	// AuthRateLimit is requests per minute per IP on the public auth
	// endpoints, 0 disables it.
	AuthRateLimit int

	Logger *slog.Logger
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, opts Options) {
	healthHandler := NewHealthHandler(opts.DB, opts.Redis)

	// Apply global middleware
	router.Use(middleware.SecureHeaders(opts.Production))
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(opts.Logger))
	router.Use(middleware.LoggingMiddleware(opts.Logger))
	if opts.Metrics != nil {
		router.Use(middleware.HTTPMetrics(opts.Metrics))
		router.Method(http.MethodGet, opts.MetricsPath, opts.Metrics.Handler())
	}

	swagger.Mount(router, api.OpenAPI)

	validate := func(next http.Handler) http.Handler { return next }
	if opts.Validator != nil {
		validate = opts.Validator.Middleware
	}

	router.Route(api.BasePath, func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Public auth routes
		r.Group(func(pub chi.Router) {
			if opts.AuthRateLimit > 0 {
				pub.Use(authRateLimiter(opts.AuthRateLimit, opts.Logger))
			}
			pub.Use(validate)

			pub.Post("/signup", h.User.Signup)
			pub.Post("/login", h.Auth.Login)
			pub.Post("/login/refresh", h.Auth.RefreshToken)
		})

		// Protected routes that require authentication
		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)
			pr.Use(middleware.UserContext)
			pr.Use(validate)

			pr.Post("/logout", h.Auth.Logout)

			pr.Route("/users", func(ur chi.Router) {
				ur.Get("/", h.User.ListUsers)
				ur.Put("/", h.User.UpdateCurrentUser)
				ur.Get("/me", h.User.GetCurrentUser)
				ur.Get("/{id}", h.User.GetUser)
				ur.Get("/{id}/roles", h.UserRole.GetRoles)
				ur.Put("/{id}/roles", h.UserRole.ReplaceRoles)
				ur.Get("/{id}/permissions", h.UserRole.GetPermissions)
			})

			pr.Route("/roles", func(rr chi.Router) {
				rr.Get("/", h.Role.ListRoles)
				rr.Post("/", h.Role.CreateRole)
				rr.Get("/{id}", h.Role.GetRole)
				rr.Put("/{id}", h.Role.UpdateRole)
				rr.Get("/{id}/permissions", h.Role.GetRole)
				rr.Put("/{id}/permissions", h.Role.ReplacePermissions)
			})

			pr.Route("/permissions", func(pmr chi.Router) {
				pmr.Get("/", h.Permission.ListPermissions)
				pmr.Post("/", h.Permission.CreatePermission)
				pmr.Get("/{id}", h.Permission.GetPermission)
				pmr.Put("/{id}", h.Permission.UpdatePermission)
			})
		})
	})
}

func authRateLimiter(perMinute int, logger *slog.Logger) func(http.Handler) http.Handler {
	base := transport.NewBaseHandler(logger)
	return httprate.Limit(perMinute, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			base.HandleServiceError(w, appErrors.NewRateLimitError("too many requests, slow down"))
		}),
	)
}
