package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fmachado/propstack/internal/api/handlers"
	"github.com/fmachado/propstack/internal/api/middleware"
	"github.com/fmachado/propstack/internal/config"
	"github.com/fmachado/propstack/internal/platform"
	"github.com/fmachado/propstack/internal/pool"
)

type Server struct {
	Config  *config.Config
	Router  *gin.Engine
	Service *platform.Service
	Logger  *zap.Logger
}

func NewServer(cfg *config.Config, service *platform.Service, pools *pool.Manager, logger *zap.Logger) *Server {
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS())

	server := &Server{
		Config:  cfg,
		Router:  router,
		Service: service,
		Logger:  logger,
	}

	server.setupRoutes(pools)
	return server
}

func (s *Server) setupRoutes(pools *pool.Manager) {
	h := handlers.NewHandler(s.Service, pools, s.Logger)

	// Health and metrics
	s.Router.GET("/health", h.Health)
	s.Router.GET("/ready", h.Ready)
	s.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.Router.Group("/api/v1")
	api.Use(middleware.AuthRequired(s.Config.Auth.JWTSecret))

	// Cross-tenant aggregation surface (super admin). Rate limited: every
	// request here fans out to all tenant databases.
	admin := api.Group("/admin")
	admin.Use(middleware.SuperAdminOnly())
	admin.Use(middleware.RateLimit(s.Config.Aggregate.RateLimit, s.Config.Aggregate.RateLimitBurst))
	{
		admin.GET("/tenants", h.ListTenants)
		admin.GET("/tenants/:id/summary", h.GetTenantSummary)
		admin.POST("/tenants/:id/activate", h.ActivateTenant)
		admin.POST("/tenants/:id/deactivate", h.DeactivateTenant)
		admin.POST("/sync", h.SyncSummaries)

		admin.GET("/stats", h.GetGlobalStats)
		admin.GET("/closure-ratio", h.GetClosureRatio)
		admin.GET("/time-to-close", h.GetTimeToClose)
		admin.GET("/hot-preferences", h.GetHotPreferences)
		admin.GET("/farming-recommendations", h.GetFarmingRecommendations)
		admin.GET("/properties", h.GetAllProperties)
		admin.GET("/clients", h.GetAllClients)
		admin.GET("/agents", h.GetAllAgents)
	}

	// Single-tenant fast path for tenant-scoped roles
	analytics := api.Group("/analytics")
	analytics.Use(middleware.TenantScoped())
	{
		analytics.GET("/closure-ratio", h.GetTenantClosureRatio)
		analytics.GET("/time-to-close", h.GetTenantTimeToClose)
		analytics.GET("/hot-preferences", h.GetTenantHotPreferences)
		analytics.GET("/farming-recommendations", h.GetTenantFarmingRecommendations)
		analytics.GET("/property-types", h.GetTenantTypeDistribution)
		analytics.GET("/property-statuses", h.GetTenantStatusDistribution)
	}
}
