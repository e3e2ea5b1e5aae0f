package app

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"suggestbox_backend/docs"
	"suggestbox_backend/internal/config"
	"suggestbox_backend/internal/middleware"
	"suggestbox_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	api := router.Group("/api")
	{
		api.GET("/health", c.health.HealthCheck)
		api.GET("/push/public-key", c.push.PublicKey)
	}

	// 학생용 공개 API. 기기 익명 키로만 본인 건의를 구분한다.
	student := router.Group("/api")
	student.Use(middleware.StudentKeyMiddleware())
	{
		student.POST("/suggestions", c.suggestion.Create)
		student.GET("/me/suggestions", c.suggestion.ListMine)
		student.GET("/me/suggestions/:id", c.suggestion.GetMine)
		student.PATCH("/me/suggestions/:id", c.suggestion.UpdateMine)
		student.PATCH("/me/suggestions/:id/notification-email", c.suggestion.SetNotificationEmail)
		student.DELETE("/me/suggestions/:id", c.suggestion.DeleteMine)

		student.POST("/push/subscriptions", c.push.Subscribe)
		student.DELETE("/push/subscriptions", c.push.Unsubscribe)
	}

	// 관리자 API
	router.POST("/api/admin/login", c.admin.Login)

	admin := router.Group("/api/admin")
	admin.Use(middleware.AdminAuthMiddleware(cfg))
	{
		admin.GET("/me", c.admin.Me)
		admin.GET("/suggestions", c.admin.ListSuggestions)
		admin.PATCH("/suggestions/:id/answer", c.admin.AnswerSuggestion)
		admin.DELETE("/suggestions/:id", c.admin.DeleteSuggestion)

		admin.POST("/push/subscriptions", c.push.SubscribeAdmin)
	}
}

// serveStatic 프런트 정적 파일과 SPA 폴백. /api 밖의 경로는 public 디렉터리에서
// 찾고, 없으면 index.html을 돌려준다.
func (a *App) serveStatic(router *gin.Engine, cfg *config.Config) {
	publicDir := cfg.Static.PublicDir
	if publicDir == "" {
		return
	}
	if _, err := os.Stat(publicDir); os.IsNotExist(err) {
		return
	}

	router.NoRoute(func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api") || strings.HasPrefix(path, "/swagger") {
			c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": "Resource not found"})
			return
		}

		candidate := filepath.Join(publicDir, filepath.Clean("/"+path))
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			c.File(candidate)
			return
		}

		c.File(filepath.Join(publicDir, "index.html"))
	})
}
