package router

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/physiome/admin-api/internal/handler/health"
	"github.com/physiome/admin-api/internal/handler/prometheus"
	"github.com/physiome/admin-api/internal/middleware"
)

// Handler is an API area that mounts its own routes and gates.
type Handler interface {
	RegisterRoutes(rg *gin.RouterGroup, auth *middleware.AuthMiddleware)
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	api      []Handler
	health   *health.Handler
	metricsH *prometheus.Handler
	config   RouterConfig
}

type RouterConfig struct {
	RateLimit    rate.Limit
	RateBurst    int
	AllowOrigins []string
	MaxBodySize  int64
	Production   bool
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	healthH *health.Handler,
	metricsH *prometheus.Handler,
	config RouterConfig,
	api ...Handler,
) *Router {
	if config.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	r := &Router{
		engine:   engine,
		auth:     auth,
		api:      api,
		health:   healthH,
		metricsH: metricsH,
		config:   config,
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
		metricsH.Middleware(),
		middleware.SecurityHeaders(config.Production),
		middleware.CORS(config.AllowOrigins),
	)

	return r
}

// Setup mounts the probes, the metrics endpoint and every API area under
// /api. Only /api is rate limited.
func (r *Router) Setup() {
	r.health.RegisterRoutes(&r.engine.RouterGroup)
	r.engine.GET("/metrics", r.metricsH.Handler())

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  r.config.RateLimit,
		Burst: r.config.RateBurst,
	})

	api := r.engine.Group("/api")
	api.Use(
		rateLimiter.RateLimit(),
		middleware.SizeLimit(r.config.MaxBodySize),
	)
	for _, h := range r.api {
		h.RegisterRoutes(api, r.auth)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
