package router

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/formora_backend/config"
	"github.com/Alijeyrad/formora_backend/internal/api/http/handler"
	"github.com/Alijeyrad/formora_backend/internal/api/http/middleware"
	"github.com/Alijeyrad/formora_backend/internal/repo"
	"github.com/Alijeyrad/formora_backend/internal/service/analytics"
	"github.com/Alijeyrad/formora_backend/internal/service/auth"
	"github.com/Alijeyrad/formora_backend/internal/service/file"
	formsvc "github.com/Alijeyrad/formora_backend/internal/service/form"
	"github.com/Alijeyrad/formora_backend/internal/service/response"
	"github.com/Alijeyrad/formora_backend/pkg/authorize"
	pasetotoken "github.com/Alijeyrad/formora_backend/pkg/paseto"
)

// Module provides the Router to the fx graph.
var Module = fx.Module("router", fx.Provide(NewRouter))

type Params struct {
	fx.In

	Cfg          *config.Config
	Redis        *redis.Client
	Auth         authorize.IAuthorization
	DB           *repo.Client
	AuthSvc      auth.Service
	FormSvc      formsvc.Service
	ResponseSvc  response.Service
	AnalyticsSvc analytics.Service
	FileSvc      file.Service
	PasetoMgr    *pasetotoken.Manager
}

type Router struct {
	p Params
}

func NewRouter(p Params) *Router {
	return &Router{p: p}
}

func (r *Router) Register(app *fiber.App) {
	// 1. Health & Metrics
	r.registerSystemRoutes(app)

	// 2. Initialize Middlewares
	authRequired := middleware.AuthRequired(r.p.PasetoMgr, r.p.Redis)
	submitLimit := middleware.NewLimiterWithRedis(r.p.Redis, r.p.Cfg.Server.SubmitRateLimit)

	// Permission helper
	requirePerm := func(res authorize.Resource, act authorize.Action) fiber.Handler {
		return middleware.RequireFormPermission(r.p.Auth, res, act)
	}

	// 3. Initialize Handlers
	authH := handler.NewAuthHandler(r.p.AuthSvc)
	formH := handler.NewFormHandler(r.p.FormSvc)
	responseH := handler.NewResponseHandler(r.p.ResponseSvc)
	analyticsH := handler.NewAnalyticsHandler(r.p.AnalyticsSvc)
	fileH := handler.NewFileHandler(r.p.FileSvc)

	api := app.Group("/api/v1")

	// 4. Delegate to sub-files
	r.registerAuthRoutes(api, authH, authRequired)
	r.registerFormRoutes(api, formH, authRequired)
	r.registerResponseRoutes(api, responseH, authRequired, submitLimit, requirePerm)
	r.registerAnalyticsRoutes(api, analyticsH, authRequired, requirePerm)
	r.registerFileRoutes(api, fileH, submitLimit)
}

func (r *Router) registerSystemRoutes(app *fiber.App) {
	app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	app.Get(healthcheck.ReadinessEndpoint, healthcheck.New(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool { return r.ready(c.Context()) },
	}))
	app.Get(healthcheck.StartupEndpoint, healthcheck.New())

	if r.p.Cfg.Observability.Enabled && r.p.Cfg.Observability.Metrics.Enabled {
		path := r.p.Cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(promhttp.Handler()))
	}
}

// ready reports whether the database, Redis and the policy watcher are up.
func (r *Router) ready(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if r.p.DB != nil {
		if err := r.p.DB.DB().PingContext(ctx); err != nil {
			return false
		}
	}
	if r.p.Redis != nil {
		if err := r.p.Redis.Ping(ctx).Err(); err != nil {
			return false
		}
	}
	return authorize.IsPolicyHealthy()
}
