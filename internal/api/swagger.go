package api

import (
	"net/http"

	_ "crashwatch-go/docs"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (s *Server) setupSwagger() {
	s.router.GET("/api/info", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"title":       "Crashwatch API",
			"version":     s.config.Version,
			"description": "Vehicle accident detection over video files, webcams and phone camera streams",
			"swagger_ui":  "/docs/index.html",
			"endpoints": gin.H{
				"health":   "/health",
				"info":     "/",
				"sessions": "/sessions",
				"uploads":  "/uploads",
				"system":   "/system",
			},
			"app_id": s.config.AppID,
			"port":   s.config.Port,
		})
	})

	s.router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	s.router.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/docs/index.html")
	})
}
