package router

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/middleware"
)

// Handler registers routes on an authenticated group, attaching its own
// capability gates through the auth middleware.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup, *middleware.AuthMiddleware)
}

// PublicHandler registers routes that need no authentication.
type PublicHandler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Router struct {
	engine  *gin.Engine
	auth    *middleware.AuthMiddleware
	healthH PublicHandler
	authH   PublicHandler
	metrics gin.HandlerFunc

	protected []Handler
}

type Config struct {
	RateLimit  rate.Limit
	RateBurst  int
	CORSConfig middleware.CORSConfig
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	healthH PublicHandler,
	authH PublicHandler,
	metricsH gin.HandlerFunc,
	config Config,
	protected ...Handler,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.CORS(config.CORSConfig),
	)

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  config.RateLimit,
		Burst: config.RateBurst,
	})
	engine.Use(rateLimiter.RateLimit())

	return &Router{
		engine:    engine,
		auth:      auth,
		healthH:   healthH,
		authH:     authH,
		metrics:   metricsH,
		protected: protected,
	}
}

func (r *Router) Setup() {
	r.engine.GET("/metrics", r.metrics)

	api := r.engine.Group("/api/v1")

	r.healthH.RegisterRoutes(api)
	r.authH.RegisterRoutes(api)

	authenticated := api.Group("")
	authenticated.Use(r.auth.Authenticate())
	for _, h := range r.protected {
		h.RegisterRoutes(authenticated, r.auth)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
