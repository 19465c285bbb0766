package api

import (
	"net/http" // HTTP status codes
	"time"     // Health timestamp

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging

	"invoicing/internal/metrics"    // Prometheus collectors
	"invoicing/internal/middleware" // Auth, logging and limits
	"invoicing/internal/scope"      // Data access scopes
	"invoicing/internal/service"    // Use cases
)

// RouterConfig wires the HTTP layer to its services
type RouterConfig struct {
	Services       *service.Set
	Metrics        *metrics.Metrics        // nil disables /metrics
	JWTSecret      string                  // HMAC key for bearer tokens
	LoginLimiter   *middleware.RateLimiter // guards register and login, nil for none
	TrustedProxies []string                // forwarded-for sources, nil trusts none
}

// NewRouter builds the gin engine with every route of the API
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	useJSONFieldNames() // Validation errors use JSON names

	r := gin.New()
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}
	r.Use(middleware.RequestLogger(), gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logrus.WithFields(logrus.Fields{
			"request_id": c.GetString("requestID"),
			"panic":      recovered,
		}).Error("Handler panicked")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler())) // Prometheus scrape endpoint
	}
	r.GET("/health", HealthHandler)

	svc := cfg.Services
	requireAuth := middleware.JWTAuthMiddleware(cfg.JWTSecret)
	apiGroup := r.Group("/api")

	// Auth routes
	authGroup := apiGroup.Group("/auth")
	public := authGroup.Group("")
	if cfg.LoginLimiter != nil {
		public.Use(cfg.LoginLimiter.Handler()) // Throttle credential guessing per IP
	}
	public.POST("/register", RegisterHandler(svc.Auth)) // Registration endpoint
	public.POST("/login", LoginHandler(svc.Auth))       // Login endpoint
	authGroup.GET("/me", requireAuth, MeHandler(svc.Auth))
	authGroup.PUT("/profile", requireAuth, UpdateProfileHandler(svc.Auth))

	// Client routes (protected by JWT)
	clients := apiGroup.Group("/clients", requireAuth)
	clients.GET("", ListClientsHandler(svc.Clients))
	clients.POST("", CreateClientHandler(svc.Clients))
	clients.GET("/:id", GetClientHandler(svc.Clients))
	clients.PUT("/:id", UpdateClientHandler(svc.Clients))
	clients.DELETE("/:id", DeleteClientHandler(svc.Clients))

	// Invoice routes (protected by JWT)
	invoices := apiGroup.Group("/invoices", requireAuth)
	invoices.GET("", ListInvoicesHandler(svc.Invoices))
	invoices.POST("", CreateInvoiceHandler(svc.Invoices))
	invoices.GET("/:id", GetInvoiceHandler(svc.Invoices))
	invoices.PUT("/:id", UpdateInvoiceHandler(svc.Invoices))
	invoices.DELETE("/:id", DeleteInvoiceHandler(svc.Invoices))
	invoices.PATCH("/:id/status", UpdateInvoiceStatusHandler(svc.Invoices))
	invoices.GET("/:id/pdf", InvoicePDFHandler(svc.Invoices))
	invoices.POST("/:id/send", SendInvoiceHandler(svc.Invoices))
	invoices.POST("/:id/remind", RemindInvoiceHandler(svc.Invoices))

	// Dashboard routes (protected by JWT)
	dashboard := apiGroup.Group("/dashboard", requireAuth)
	dashboard.GET("/stats", DashboardStatsHandler(svc.Dashboard))
	dashboard.GET("/chart", RevenueChartHandler(svc.Dashboard))
	dashboard.GET("/recent", RecentInvoicesHandler(svc.Dashboard))
	dashboard.GET("/overdue", OverdueInvoicesHandler(svc.Dashboard))

	// Admin routes (protected, admin only)
	admin := apiGroup.Group("/admin", requireAuth, middleware.AdminOnlyMiddleware(svc.Users))
	admin.GET("/stats", AdminStatsHandler(svc.Admin))
	admin.GET("/users", ListUsersHandler(svc.Admin))
	admin.GET("/users/:id", GetUserHandler(svc.Admin))
	admin.PUT("/users/:id", UpdateUserHandler(svc.Admin))
	admin.DELETE("/users/:id", DeleteUserHandler(svc.Admin))
	admin.GET("/invoices", ListAllInvoicesHandler(svc.Invoices))
	admin.GET("/clients", ListAllClientsHandler(svc.Admin))

	return r, nil
}

// HealthHandler reports liveness
func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)})
}

// scopeFrom returns the request scope, responding 401 when none is bound
func scopeFrom(c *gin.Context) (scope.Scope, bool) {
	sc, ok := middleware.ScopeFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
	return sc, ok
}
