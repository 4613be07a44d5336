package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/kwick/backend/internal/handlers"
	"github.com/kwick/backend/internal/middleware"
	"github.com/kwick/backend/internal/notify"
)

// SetupRouter builds the gin engine with CORS, rate limiting and all
// application routes
func SetupRouter(kycHandler *handlers.KYCHandler, adminHandler *handlers.AdminKYCHandler, hub *notify.Hub, rateLimiter *middleware.RateLimiter) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(rateLimiter.IPRateLimiterMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	RegisterKYCRoutes(router, kycHandler, adminHandler)
	RegisterNotificationRoutes(router, hub)

	return router
}

// RegisterKYCRoutes registers the subject and admin verification routes
func RegisterKYCRoutes(router *gin.Engine, kycHandler *handlers.KYCHandler, adminHandler *handlers.AdminKYCHandler) {
	kycGroup := router.Group("/api/kyc")
	kycGroup.Use(middleware.AuthMiddleware())
	{
		kycGroup.POST("/upload/:slot", kycHandler.UploadDocument)
		kycGroup.POST("/submit", kycHandler.SubmitKYC)
		kycGroup.GET("/status", kycHandler.GetStatus)
		kycGroup.GET("/download-pdf", kycHandler.DownloadPDF)
		kycGroup.GET("/file/:userId/:docType/:filename", kycHandler.ServeFile)
	}

	adminGroup := router.Group("/api/admin/kyc")
	adminGroup.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		adminGroup.GET("/all", adminHandler.List)
		adminGroup.GET("/:kycId", adminHandler.Details)
		adminGroup.POST("/:kycId/approve", adminHandler.Approve)
		adminGroup.POST("/:kycId/reject", adminHandler.Reject)
		adminGroup.GET("/:kycId/pdf", adminHandler.RecordPDF)
	}
}

// RegisterNotificationRoutes registers the websocket event stream
func RegisterNotificationRoutes(router *gin.Engine, hub *notify.Hub) {
	router.GET("/ws/notifications", middleware.AuthMiddleware(), func(c *gin.Context) {
		notify.ServeWS(hub, c.Writer, c.Request)
	})
}
