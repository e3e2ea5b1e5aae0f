package controller

import (
	"net/http"

	"suggestbox_backend/internal/service"
	"suggestbox_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthController struct {
	DB   *gorm.DB
	push *service.PushService
	mail *service.EmailService
}

func NewHealthController(db *gorm.DB, push *service.PushService, mail *service.EmailService) *HealthController {
	return &HealthController{DB: db, push: push, mail: mail}
}

// @Summary 상태 점검
// @Description DB 연결과 알림 채널 설정 여부를 보고한다.
// @Tags 시스템
// @Produce json
// @Success 200 {object} util.Response
// @Router /health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	// 데이터베이스 연결 확인
	sqlDB, err := c.DB.DB()
	if err != nil {
		util.InternalServerError(ctx)
		return
	}

	if err := sqlDB.Ping(); err != nil {
		util.Error(ctx, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	util.Success(ctx, gin.H{
		"status": "ok",
		"components": gin.H{
			"database": "up",
			"push":     configuredLabel(c.push.Configured()),
			"email":    configuredLabel(c.mail.IsConfigured()),
		},
	})
}

func configuredLabel(configured bool) string {
	if configured {
		return "configured"
	}
	return "not_configured"
}
