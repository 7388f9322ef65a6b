package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/rbac-service/api"
	"github.com/frahmantamala/rbac-service/internal/auth"
	"github.com/frahmantamala/rbac-service/internal/permission"
	"github.com/frahmantamala/rbac-service/internal/profile"
	"github.com/frahmantamala/rbac-service/internal/role"
	"github.com/frahmantamala/rbac-service/internal/transport/middleware"
	"github.com/frahmantamala/rbac-service/internal/transport/swagger"
	"github.com/frahmantamala/rbac-service/internal/user"
)

const (
	APIPrefix   = "/api/v1"
	OpenAPIPath = "/openapi.yml"
)

// Handlers groups the HTTP handlers mounted by RegisterAllRoutes.
type Handlers struct {
	Auth       *auth.Handler
	Role       *role.Handler
	Permission *permission.Handler
	User       *user.Handler
	Profile    *profile.Handler
	Health     *HealthHandler
}

// Options tune the cross-cutting middleware.
type Options struct {
	Logger         *slog.Logger
	Production     bool
	ExposeErrors   bool
	AllowedOrigins []string

	// Zero disables the limit.
	LoginPerMinute   int
	RequestPerMinute int

	// HTTPMetrics and MetricsHandler are both nil when metrics are disabled.
	HTTPMetrics    *middleware.HTTPMetrics
	MetricsHandler http.Handler
	MetricsPath    string
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, rbac *middleware.RBACAuthorization, opts Options) {
	// Apply global middleware
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RequestLogger(opts.Logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(opts.Logger, opts.ExposeErrors))
	router.Use(middleware.SecureHeaders(opts.Logger, opts.Production))
	router.Use(middleware.CORS(opts.AllowedOrigins))
	if opts.HTTPMetrics != nil {
		router.Use(opts.HTTPMetrics.Middleware)
	}
	router.Use(middleware.LoggingMiddleware(opts.Logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get(OpenAPIPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(api.Document())
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler(OpenAPIPath))
	if opts.MetricsHandler != nil {
		router.Handle(opts.MetricsPath, opts.MetricsHandler)
	}

	// Mount API under /api/v1 to match OpenAPI servers
	router.Route(APIPrefix, func(r chi.Router) {
		r.Get("/health", h.Health.healthCheckHandler)
		r.Get("/ping", h.Health.pingHandler)

		r.With(middleware.RateLimit(opts.LoginPerMinute)).Post("/auth/login", h.Auth.Login)

		// Protected routes that require authentication
		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)
			pr.Use(middleware.RateLimit(opts.RequestPerMinute))

			pr.Get("/auth/me", h.Auth.Me)

			pr.Route("/roles", func(rr chi.Router) {
				rr.Get("/", h.Role.ListRoles)
				rr.Get("/{id}", h.Role.GetRole)
				rr.With(rbac.RequirePermission(permission.Create)).Post("/", h.Role.CreateRole)
				rr.With(rbac.RequirePermission(permission.Update)).Put("/{id}", h.Role.UpdateRole)
				rr.With(rbac.RequirePermission(permission.Delete)).Delete("/{id}", h.Role.DeleteRole)
				rr.With(rbac.RequirePermission(permission.Update)).Post("/{id}/permissions", h.Role.AssignPermissions)
				rr.With(rbac.RequirePermission(permission.Update)).Put("/{id}/permissions", h.Role.ReplacePermissions)
			})

			pr.Route("/permissions", func(pmr chi.Router) {
				pmr.Get("/", h.Permission.ListPermissions)
				pmr.Get("/{id}", h.Permission.GetPermission)
				pmr.With(rbac.RequirePermission(permission.Create)).Post("/", h.Permission.CreatePermission)
			})

			pr.Route("/users", func(ur chi.Router) {
				ur.With(rbac.RequirePermission(permission.Create)).Post("/", h.User.CreateUser)
				ur.With(rbac.RequirePermission(permission.List)).Get("/", h.User.ListUsers)
				ur.With(rbac.RequirePermission(permission.Read)).Get("/{id}", h.User.GetUser)
				ur.With(rbac.RequirePermission(permission.Update)).Put("/{id}", h.User.UpdateUser)
				ur.With(rbac.RequirePermission(permission.Delete)).Delete("/{id}", h.User.DeleteUser)
			})

			pr.Route("/profile", func(ppr chi.Router) {
				ppr.With(rbac.RequirePermission(permission.Read)).Get("/me", h.Profile.Me)
				ppr.With(rbac.RequirePermission(permission.Update)).Put("/", h.Profile.UpdateProfile)
				ppr.With(rbac.RequirePermission(permission.Read)).Get("/photo", h.Profile.GetPhoto)
				ppr.With(rbac.RequirePermission(permission.Update)).Put("/photo", h.Profile.UploadPhoto)
			})
		})
	})
}
