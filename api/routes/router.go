package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/api/controllers"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/api/middleware"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/internal/notify"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/internal/referrals"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/internal/trust"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/config"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/enums"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/logger"
	pkgredis "github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/redis"
)

// RedisStore is the slice of the redis client the HTTP layer needs.
type RedisStore interface {
	pkgredis.IdempotencyStore
	pkgredis.RateLimiter
	Ping(ctx context.Context) error
}

// Deps carries everything NewRouter wires into handlers. Nil services leave their routes unmounted.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        controllers.Pinger
	Redis     RedisStore
	Trust     trust.Service
	Referrals referrals.Service
	Stream    controllers.Subscriber
	Metrics   http.Handler
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.HTTP.CORSOrigins),
	)

	pingers := map[string]controllers.Pinger{}
	if deps.DB != nil {
		pingers["database"] = deps.DB
	}
	if deps.Redis != nil {
		pingers["redis"] = deps.Redis
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, pingers))
	})
	if deps.Metrics != nil && cfg.FeatureFlags.ExposeMetrics {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	var idempotencyStore pkgredis.IdempotencyStore
	var limiter pkgredis.RateLimiter
	if deps.Redis != nil {
		idempotencyStore = deps.Redis
		limiter = deps.Redis
	}
	writes := middleware.NewRateLimitPolicy("api-writes", cfg.HTTP.RateLimitWindow, cfg.HTTP.RateLimitWrites)
	guarded := func(r chi.Router, roles ...enums.UserRole) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		if len(roles) > 0 {
			r.Use(middleware.RequireRole(logg, roles...))
		}
		r.Use(middleware.RateLimit(writes, limiter, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))
	}

	r.Route("/api/v1", func(r chi.Router) {
		guarded(r)

		if deps.Trust != nil {
			r.Route("/trust", func(r chi.Router) {
				r.Get("/me", controllers.GetMyTrustScore(deps.Trust, logg))
				r.Get("/{userId}", controllers.GetTrustScore(deps.Trust, logg))
				r.Post("/{userId}/refresh", controllers.RefreshTrustScore(deps.Trust, logg))
				r.Get("/{userId}/history", controllers.ListTrustHistory(deps.Trust, logg))
			})
		}

		if deps.Referrals != nil {
			r.Route("/referrals", func(r chi.Router) {
				r.Post("/", controllers.TrackReferral(deps.Referrals, logg))
				r.Get("/", controllers.ListReferrals(deps.Referrals, logg))
				r.Get("/stats", controllers.GetReferralStats(deps.Referrals, logg))
				r.Get("/code/{code}", controllers.VerifyReferralCode(deps.Referrals, logg))
			})
		}

		if deps.Stream != nil {
			opts := controllers.StreamOptions{AllowedOrigins: cfg.HTTP.CORSOrigins, Buffer: cfg.HTTP.StreamBuffer}
			r.Get("/stream/referrals", controllers.Stream(notify.ChannelReferrals, deps.Stream, opts, logg))
			r.Get("/stream/trust", controllers.Stream(notify.ChannelTrust, deps.Stream, opts, logg))
		}
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		guarded(r, enums.UserRoleAdmin, enums.UserRoleService)

		if deps.Referrals != nil {
			r.Route("/referrals", func(r chi.Router) {
				r.Post("/earnings", controllers.AdminRecordEarning(deps.Referrals, logg))
				r.Post("/auto-share", controllers.AdminProcessAutoShare(deps.Referrals, logg))
				r.Post("/{referralId}/activate", controllers.AdminActivateReferral(deps.Referrals, logg))
				r.Patch("/{referralId}/status", controllers.AdminSetReferralStatus(deps.Referrals, logg))
				r.Patch("/{referralId}/auto-share", controllers.AdminUpdateAutoShare(deps.Referrals, logg))
			})
		}
	})

	return r
}
