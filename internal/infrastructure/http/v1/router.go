// Package v1 provides HTTP API version 1.
package v1

import (
	"time"

	"github.com/gin-gonic/gin"

	"ventra/internal/domain/access"
	"ventra/internal/domain/analytics"
	"ventra/internal/domain/auth"
	"ventra/internal/domain/branch"
	"ventra/internal/domain/catalog"
	"ventra/internal/domain/customers"
	"ventra/internal/domain/inventory"
	"ventra/internal/domain/orders"
	"ventra/internal/domain/servicereq"
	"ventra/internal/infrastructure/http/v1/handlers"
	"ventra/internal/infrastructure/http/v1/middleware"
	"ventra/internal/infrastructure/storage/postgres"
	"ventra/pkg/logger"
)

// adminRoles guards endpoints that only back-office roles may reach.
// Data-level scoping still happens inside the query services.
var adminRoles = []string{string(access.RoleSuperAdmin), string(access.RoleAdmin)}

// RouterConfig holds everything the router needs to wire handlers.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// Pool is the PostgreSQL pool; nil when the memory store driver is active.
	Pool *postgres.Pool

	// IdempotencyStore enables replay protection on mutating endpoints.
	// Requires the PostgreSQL driver; nil disables the middleware.
	IdempotencyStore *postgres.IdempotencyStore

	AuthService      *auth.Service
	OrderService     *orders.Service
	CustomerService  *customers.Service
	AnalyticsService *analytics.Service
	CatalogService   *catalog.Service
	CatalogRepo      catalog.Repository
	BranchRepo       branch.Repository
	InventoryService *inventory.Service
	InventoryRepo    inventory.Repository
	ServiceReqSvc    *servicereq.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	baseHandler := handlers.NewBaseHandler()

	// API v1
	api := router.Group("/api/v1")
	{
		// Auth routes
		authHandler := handlers.NewAuthHandler(baseHandler, cfg.AuthService)
		publicAuth := api.Group("/auth")
		protectedAuth := api.Group("/auth")
		protectedAuth.Use(middleware.Auth(cfg.JWTValidator))
		authHandler.RegisterRoutes(publicAuth, protectedAuth)

		// Product browsing is public; a token, when present, still resolves
		// the actor for request logs.
		browse := api.Group("")
		browse.Use(middleware.OptionalAuth(cfg.JWTValidator))

		// Protected endpoints
		protected := api.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))
		if cfg.IdempotencyStore != nil {
			protected.Use(middleware.Idempotency(cfg.IdempotencyStore))
		}

		registerOrderRoutes(protected, baseHandler, cfg)
		registerCustomerRoutes(protected, baseHandler, cfg)
		registerAnalyticsRoutes(protected, baseHandler, cfg)
		registerCatalogRoutes(browse, protected, baseHandler, cfg)
		registerInventoryRoutes(protected, baseHandler, cfg)
		registerServiceRequestRoutes(protected, baseHandler, cfg)
	}

	return router
}

// DefaultIdempotencyTTL is how long completed keys replay before expiry.
const DefaultIdempotencyTTL = 10 * time.Minute

func registerOrderRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewOrderHandler(base, cfg.OrderService)
	g := rg.Group("/orders")

	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("", h.Create)
	g.POST("/:id/status", h.Transition)
	g.POST("/:id/technician", middleware.RequireRole(adminRoles...), h.AssignTechnician)
	g.POST("/bulk-delete", middleware.RequireRole(adminRoles...), h.BulkDelete)
}

func registerCustomerRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewCustomerHandler(base, cfg.CustomerService)
	g := rg.Group("/customers")

	g.GET("", middleware.RequireRole(adminRoles...), h.List)
}

func registerAnalyticsRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewAnalyticsHandler(base, cfg.AnalyticsService)
	g := rg.Group("/analytics")

	g.GET("/sales", middleware.RequireRole(adminRoles...), h.Sales)
}

func registerCatalogRoutes(browse, rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	catalogHandler := handlers.NewCatalogHandler(base, cfg.CatalogService, cfg.CatalogRepo)
	products := browse.Group("/catalog/products")
	{
		products.GET("", catalogHandler.ListProducts)
		products.GET("/:id", catalogHandler.GetProduct)
		products.GET("/:id/pricing", catalogHandler.GetPricing)
	}
	manage := rg.Group("/catalog/products")
	{
		manage.POST("", middleware.RequireRole(adminRoles...), catalogHandler.CreateProduct)
		manage.PUT("/:id/pricing", middleware.RequireRole(adminRoles...), catalogHandler.SetPricing)
	}

	branchHandler := handlers.NewBranchHandler(base, cfg.BranchRepo)
	branches := rg.Group("/branches")
	{
		branches.GET("", branchHandler.List)
		branches.GET("/:id", branchHandler.Get)
		branches.POST("", middleware.RequireRole(string(access.RoleSuperAdmin)), branchHandler.Create)
	}
}

func registerInventoryRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewInventoryHandler(base, cfg.InventoryService, cfg.InventoryRepo)
	g := rg.Group("/inventory")
	g.Use(middleware.RequireRole(append(adminRoles, string(access.RoleTechnician))...))

	g.GET("/parts", h.ListParts)
	g.GET("/parts/:id", h.GetPart)
	g.POST("/parts", h.CreatePart)
	g.PUT("/parts/:id", h.UpdatePart)
	g.POST("/parts/:id/adjust", h.AdjustStock)
	g.GET("/parts/:id/history", h.History)
	g.POST("/parts/:id/reconcile", middleware.RequireRole(adminRoles...), h.Reconcile)
	g.GET("/low-stock", h.LowStock)
	g.POST("/consume", h.ConsumeParts)
}

func registerServiceRequestRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewServiceRequestHandler(base, cfg.ServiceReqSvc)
	g := rg.Group("/service-requests")

	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("", h.Create)
	g.POST("/:id/status", h.Transition)
	g.POST("/:id/technician", middleware.RequireRole(adminRoles...), h.AssignTechnician)
	g.POST("/:id/diagnosis", h.SubmitDiagnosis)
}
