package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/repairdesk-backend/api/controllers"
	"github.com/angelmondragon/repairdesk-backend/api/middleware"
	"github.com/angelmondragon/repairdesk-backend/internal/auth"
	"github.com/angelmondragon/repairdesk-backend/internal/components"
	"github.com/angelmondragon/repairdesk-backend/internal/notifications"
	"github.com/angelmondragon/repairdesk-backend/internal/repairrequests"
	"github.com/angelmondragon/repairdesk-backend/internal/users"
	"github.com/angelmondragon/repairdesk-backend/pkg/auth/session"
	"github.com/angelmondragon/repairdesk-backend/pkg/config"
	"github.com/angelmondragon/repairdesk-backend/pkg/enums"
	"github.com/angelmondragon/repairdesk-backend/pkg/logger"
	"github.com/angelmondragon/repairdesk-backend/pkg/metrics"
	redisclient "github.com/angelmondragon/repairdesk-backend/pkg/redis"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             controllers.Pinger
	Redis          controllers.Pinger
	RateLimiter    redisclient.RateLimiter
	Sessions       session.AccessSessionChecker
	Gatherer       prometheus.Gatherer
	Auth           auth.Service
	Users          users.Service
	Components     components.Service
	Notifications  notifications.Service
	RepairRequests repairrequests.Service
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	linkPolicy := middleware.NewAuthRateLimitPolicy(
		"link",
		cfg.AuthRateLimit.LinkWindow,
		cfg.AuthRateLimit.LinkIPLimit,
		cfg.AuthRateLimit.LinkEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	cookies := controllers.NewCookieSettings(cfg)
	authenticated := middleware.Auth(cfg.JWT, d.Sessions, logg)
	optional := middleware.OptionalAuth(cfg.JWT, d.Sessions, logg)
	managers := middleware.RequireRoles(logg, enums.RoleManager)
	masters := middleware.RequireRoles(logg, enums.RoleMaster)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive())
		r.Get("/ready", controllers.HealthReady(logg, map[string]controllers.Pinger{
			"db":    d.DB,
			"redis": d.Redis,
		}))
	})
	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(d.Gatherer))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(linkPolicy, d.RateLimiter, logg)).Post("/send-link", controllers.AuthSendLink(d.Auth, logg))
			r.With(middleware.AuthRateLimit(linkPolicy, d.RateLimiter, logg)).Post("/verify/{token}", controllers.AuthVerifyLink(d.Auth, cookies, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, d.RateLimiter, logg)).Post("/login", controllers.AuthLogin(d.Auth, cookies, logg))
			r.With(middleware.AuthRateLimit(registerPolicy, d.RateLimiter, logg)).Post("/register", controllers.AuthRegister(d.Auth, cookies, logg))
			r.Post("/refresh", controllers.AuthRefresh(d.Auth, cookies, logg))
			r.Post("/logout", controllers.AuthLogout(d.Auth, cookies, logg))
			r.With(authenticated).Get("/me", controllers.AuthMe(d.Auth, logg))
		})

		r.Route("/repair-requests", func(r chi.Router) {
			r.With(optional).Post("/with-user", controllers.RepairRequestCreateForEmail(d.RepairRequests, logg))

			r.Group(func(r chi.Router) {
				r.Use(authenticated)
				r.With(middleware.RequireRoles(logg, enums.RoleUser)).Post("/", controllers.RepairRequestCreate(d.RepairRequests, logg))
				r.With(middleware.RequireRoles(logg, enums.RoleManager, enums.RoleMaster)).Get("/", controllers.RepairRequestList(d.RepairRequests, logg))
				r.Get("/me", controllers.RepairRequestListMine(d.RepairRequests, logg))
				r.With(masters).Get("/assigned", controllers.RepairRequestListAssigned(d.RepairRequests, logg))

				r.Route("/{id}", func(r chi.Router) {
					r.With(middleware.RequireRoles(logg, enums.RoleManager, enums.RoleMaster)).Get("/", controllers.RepairRequestGet(d.RepairRequests, logg))
					r.With(managers).Patch("/", controllers.RepairRequestUpdate(d.RepairRequests, logg))
					r.With(managers).Delete("/", controllers.RepairRequestDelete(d.RepairRequests, logg))
					r.With(masters).Post("/personalize", controllers.RepairRequestPersonalize(d.RepairRequests, logg))
					r.With(middleware.RequireRoles(logg, enums.RoleManager, enums.RoleUser)).Post("/approve", controllers.RepairRequestApprove(d.RepairRequests, logg))
					r.With(managers).Post("/reject", controllers.RepairRequestReject(d.RepairRequests, logg))
					r.With(middleware.RequireRoles(logg, enums.RoleUser)).Post("/in-progress", controllers.RepairRequestMarkInProgress(d.RepairRequests, logg))
					r.With(managers).Post("/checked", controllers.RepairRequestMarkChecked(d.RepairRequests, logg))
					r.With(masters).Post("/completed", controllers.RepairRequestMarkCompleted(d.RepairRequests, logg))
				})
			})
		})

		r.Route("/components", func(r chi.Router) {
			r.Use(authenticated)
			r.Get("/", controllers.ComponentList(d.Components, logg))
			r.Get("/{id}", controllers.ComponentGet(d.Components, logg))
			r.With(managers).Post("/", controllers.ComponentCreate(d.Components, logg))
			r.With(managers).Patch("/{id}", controllers.ComponentUpdate(d.Components, logg))
			r.With(managers).Delete("/{id}", controllers.ComponentDelete(d.Components, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Use(authenticated)
			r.Get("/", controllers.NotificationList(d.Notifications, logg))
			r.Post("/", controllers.NotificationSend(d.Notifications, logg))
			r.Post("/read", controllers.NotificationMarkRead(d.Notifications, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(authenticated)
			r.Patch("/me", controllers.UserUpdateSelf(d.Users, logg))
			r.Group(func(r chi.Router) {
				r.Use(managers)
				r.Post("/", controllers.UserCreate(d.Users, logg))
				r.Get("/", controllers.UserList(d.Users, logg))
				r.Get("/{id}", controllers.UserGet(d.Users, logg))
				r.Patch("/{id}/role", controllers.UserChangeRole(d.Users, logg))
			})
		})
	})

	return r
}
