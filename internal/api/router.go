package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/marxist91/togoestate/internal/account"
	"github.com/marxist91/togoestate/internal/agency"
	"github.com/marxist91/togoestate/internal/api/handlers"
	"github.com/marxist91/togoestate/internal/api/middleware"
	"github.com/marxist91/togoestate/internal/appointment"
	"github.com/marxist91/togoestate/internal/audit"
	"github.com/marxist91/togoestate/internal/auth"
	"github.com/marxist91/togoestate/internal/cache"
	"github.com/marxist91/togoestate/internal/config"
	"github.com/marxist91/togoestate/internal/favorite"
	"github.com/marxist91/togoestate/internal/listing"
	"github.com/marxist91/togoestate/internal/location"
	"github.com/marxist91/togoestate/internal/notification"
	"github.com/marxist91/togoestate/internal/policy"
	"github.com/marxist91/togoestate/internal/queue"
	"github.com/marxist91/togoestate/internal/savedsearch"
)

type Router struct {
	mux    *chi.Mux
	db     *pgxpool.Pool
	redis  *redis.Client
	cfg    *config.Config
	engine *policy.Engine
}

func NewRouter(db *pgxpool.Pool, rdb *redis.Client, cfg *config.Config, engine *policy.Engine) *Router {
	return &Router{
		mux:    chi.NewRouter(),
		db:     db,
		redis:  rdb,
		cfg:    cfg,
		engine: engine,
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(middleware.Metrics)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	rl := middleware.NewRateLimiter(100, 200)
	r.Use(rl.Limit)

	// Health and metrics endpoints (no auth)
	health := handlers.NewHealthHandler(rt.db, rt.redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	r.Method(http.MethodGet, "/metrics", middleware.MetricsHandler())

	// Initialize services
	auditSvc := audit.NewService(rt.db)
	queueClient := queue.NewClient(rt.cfg.Redis)
	redisCache := cache.NewCache(rt.redis)
	issuer := auth.NewTokenIssuer(rt.cfg.Auth.JWTSecret, rt.cfg.Auth.TokenTTL)

	accountSvc := account.NewService(rt.db, rt.engine, issuer, auditSvc)
	agencySvc := agency.NewService(rt.db, rt.engine, auditSvc)
	listingSvc := listing.NewService(rt.db, rt.engine, redisCache, rt.cfg.Cache.ListingTTL, auditSvc, queueClient)
	appointmentSvc := appointment.NewService(rt.db, rt.engine, auditSvc, queueClient)
	favoriteSvc := favorite.NewService(rt.db, rt.engine)
	savedSearchSvc := savedsearch.NewService(rt.db, rt.engine)
	locationSvc := location.NewService(rt.db)
	notificationSvc := notification.NewService(rt.db)

	authMW := auth.NewMiddleware(issuer, accountSvc)

	authH := handlers.NewAuthHandler(accountSvc)
	userH := handlers.NewUserHandler(accountSvc)
	agencyH := handlers.NewAgencyHandler(agencySvc)
	listingH := handlers.NewListingHandler(listingSvc, savedSearchSvc)
	appointmentH := handlers.NewAppointmentHandler(appointmentSvc)
	favoriteH := handlers.NewFavoriteHandler(favoriteSvc)
	savedSearchH := handlers.NewSavedSearchHandler(savedSearchSvc)
	locationH := handlers.NewLocationHandler(locationSvc)
	notificationH := handlers.NewNotificationHandler(notificationSvc)
	auditH := handlers.NewAuditHandler(auditSvc)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", authH.Register)
		r.Post("/auth/login", authH.Login)

		// Public browse: optional auth so searches of logged-in users land in
		// their history.
		r.Group(func(r chi.Router) {
			r.Use(authMW.Optional)

			r.Get("/listings", listingH.Search)
			r.Get("/listings/{slug}", listingH.PublicGet)
			r.Get("/agencies", agencyH.PublicList)
			r.Get("/agencies/{id}", agencyH.Get)
			r.Get("/cities", locationH.Cities)
			r.Get("/cities/{cityID}/districts", locationH.Districts)
		})

		// Authenticated surface
		r.Group(func(r chi.Router) {
			r.Use(authMW.Authenticate)

			r.Get("/auth/me", authH.Me)

			r.Route("/users", func(r chi.Router) {
				r.Post("/", userH.Create)
				r.Get("/", userH.List)
				r.Get("/{id}", userH.Get)
				r.Put("/{id}", userH.Update)
				r.Delete("/{id}", userH.Delete)
			})

			// Agency cockpit
			r.Put("/agencies/{id}", agencyH.Update)
			r.Get("/agencies/{id}/dashboard", agencyH.Dashboard)

			// Staff listing management; the public read path stays above.
			r.Route("/manage/listings", func(r chi.Router) {
				r.Use(auth.RequireRole(policy.RoleAgencyAdmin, policy.RoleAgent))

				r.Post("/", listingH.Create)
				r.Get("/", listingH.List)
				r.Get("/{id}", listingH.Get)
				r.Put("/{id}", listingH.Update)
				r.Post("/{id}/publish", listingH.Publish)
				r.Delete("/{id}", listingH.Delete)
				r.Get("/{id}/photos", listingH.ListPhotos)
				r.Post("/{id}/photos", listingH.AddPhoto)
				r.Delete("/{id}/photos/{photoID}", listingH.RemovePhoto)
			})

			r.Route("/appointments", func(r chi.Router) {
				r.Post("/", appointmentH.Create)
				r.Get("/", appointmentH.List)
				r.Get("/{id}", appointmentH.Get)
				r.Post("/{id}/status", appointmentH.Transition)
			})

			r.Route("/favorites", func(r chi.Router) {
				r.Post("/", favoriteH.Add)
				r.Get("/", favoriteH.List)
				r.Delete("/{listingID}", favoriteH.Remove)
			})

			r.Route("/saved-searches", func(r chi.Router) {
				r.Post("/", savedSearchH.Create)
				r.Get("/", savedSearchH.List)
				r.Delete("/{id}", savedSearchH.Delete)
				r.Get("/history", savedSearchH.History)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", notificationH.List)
				r.Get("/unread-count", notificationH.UnreadCount)
				r.Post("/{id}/read", notificationH.MarkRead)
				r.Post("/read-all", notificationH.MarkAllRead)
			})

			// Admin surface
			r.Route("/admin", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(auth.RequireRole(policy.RoleAgencyAdmin))
					r.Get("/audit", auditH.Logs)
				})

				r.Group(func(r chi.Router) {
					r.Use(auth.RequireRole(policy.RolePlatformAdmin))
					r.Post("/agencies", agencyH.Create)
					r.Get("/agencies", agencyH.List)
					r.Post("/agencies/{id}/verify", agencyH.Verify)
					r.Delete("/agencies/{id}", agencyH.Delete)
					r.Post("/cities", locationH.CreateCity)
					r.Post("/cities/{cityID}/districts", locationH.CreateDistrict)
				})
			})
		})
	})

	return r
}
