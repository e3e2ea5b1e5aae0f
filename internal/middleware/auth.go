package middleware

import (
	"strings"

	"suggestbox_backend/internal/config"
	"suggestbox_backend/internal/util"

	"github.com/gin-gonic/gin"
)

const maxStudentKeyLength = 128

// AdminAuthMiddleware Bearer 토큰을 검증하고 관리자 클레임을 컨텍스트에 싣는다.
func AdminAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := util.ParseAdminJWT(parts[1], cfg.JWT.Secret)
		if err != nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set("admin", claims)
		c.Next()
	}
}

// StudentKeyMiddleware 학생 공개 API용. 기기에서 생성한 익명 키를
// X-Student-Key 헤더로 받아 소유권 판별에 쓴다.
func StudentKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader("X-Student-Key"))
		if key == "" || len(key) > maxStudentKeyLength {
			util.BadRequest(c, "X-Student-Key 헤더가 필요합니다")
			c.Abort()
			return
		}

		c.Set("studentKey", key)
		c.Next()
	}
}
