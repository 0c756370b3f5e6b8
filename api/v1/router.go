package v1

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"siteforge/api/v1/auth"
	"siteforge/api/v1/domains"
	"siteforge/api/v1/middleware"
	"siteforge/internal/config"
	"siteforge/internal/httpx"
	"siteforge/internal/provisioning"
)

// SetupRouter sets up the API v1 routes
func SetupRouter(r *gin.Engine, db *gorm.DB, cfg *config.Config, svc *provisioning.Service, store provisioning.SiteStore) {
	v1 := r.Group("/api/v1")
	{
		// Public routes (no authentication required)
		v1.GET("/ping", pingHandler)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/login", auth.LoginHandler(db, cfg))
		}

		// Protected routes (authentication required)
		protected := v1.Group("")
		protected.Use(middleware.AuthRequired())
		{
			protected.GET("/me", meHandler)

			domainHandler := domains.NewHandler(svc, store)
			protected.POST("/sites/:id/domain", domainHandler.Setup)
			protected.DELETE("/sites/:id/domain", domainHandler.Remove)
			protected.GET("/sites/:id/domain", domainHandler.Status)
			protected.GET("/sites/:id/domain/dns", domainHandler.DNSRecords)
			protected.POST("/sites/:id/domain/check-ssl", domainHandler.CheckSSL)
		}
	}
}

func pingHandler(c *gin.Context) {
	httpx.OKMsg(c, "pong", nil)
}

func meHandler(c *gin.Context) {
	httpx.OK(c, gin.H{
		"uid":      c.GetInt("uid"),
		"username": c.GetString("username"),
	})
}
