// Package router assembles the HTTP routes of the API.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"paytrack/internal/handlers"
	"paytrack/internal/middleware"
)

// Handlers are the route handlers mounted by New.
type Handlers struct {
	Auth     *handlers.AuthHandler
	Payment  *handlers.PaymentHandler
	Analysis *handlers.AnalysisHandler
	Sync     *handlers.SyncHandler
	Pipeline *handlers.PipelineHandler
}

// Options tune the router.
type Options struct {
	// PipelineAPIKey guards /pipeline. Empty disables those endpoints.
	PipelineAPIKey string
	// AnalysisLimiter throttles /analysis per user. Nil means unlimited.
	AnalysisLimiter *middleware.RateLimiter
	// RequestLogging toggles the per-request log line.
	RequestLogging bool
	// Swagger mounts the API documentation UI.
	Swagger bool
}

// New builds the gin engine with every route of the API.
func New(h Handlers, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recovery())
	if opts.RequestLogging {
		router.Use(middleware.RequestLogging())
	}
	router.Use(middleware.ErrorHandler())
	router.Use(cors())

	if opts.Swagger {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)

	// Pipeline routes
	pipeline := v1.Group("/pipeline")
	pipeline.Use(middleware.PipelineAuthMiddleware(opts.PipelineAPIKey))
	pipeline.GET("/due-today", h.Pipeline.GetDueToday)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", h.Auth.GetProfile)

	payments := protected.Group("/payments")
	payments.POST("", h.Payment.CreatePayment)
	payments.GET("", h.Payment.ListPayments)
	payments.GET("/summary", h.Payment.GetSummary)
	payments.GET("/dashboard", h.Payment.GetDashboard)
	payments.GET("/due-today", h.Payment.GetDueToday)
	payments.POST("/import", h.Payment.ImportPayments)
	payments.GET("/export", h.Payment.ExportPayments)
	payments.POST("/import/xlsx", h.Payment.ImportSpreadsheet)
	payments.GET("/export/xlsx", h.Payment.ExportSpreadsheet)
	payments.GET("/:id", h.Payment.GetPayment)
	payments.PUT("/:id", h.Payment.UpdatePayment)
	payments.DELETE("/:id", h.Payment.DeletePayment)
	payments.POST("/:id/confirm", h.Payment.ConfirmPayment)

	limiter := opts.AnalysisLimiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(0)
	}
	protected.POST("/analysis", middleware.RateLimit(limiter), h.Analysis.Analyze)

	sync := protected.Group("/sync")
	sync.POST("/push", h.Sync.Push)
	sync.POST("/pull", h.Sync.Pull)

	return router
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
