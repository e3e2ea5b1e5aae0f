package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"suggestbox_backend/internal/config"
	"suggestbox_backend/internal/util"

	"github.com/gin-gonic/gin"
)

func studentRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/mine", StudentKeyMiddleware(), func(c *gin.Context) {
		c.String(http.StatusOK, util.GetStudentKey(c))
	})
	return r
}

func TestStudentKeyMiddleware(t *testing.T) {
	r := studentRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/mine", nil)
	req.Header.Set("X-Student-Key", "device-key-1")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", w.Code)
	}
	if w.Body.String() != "device-key-1" {
		t.Fatalf("unexpected key: %s", w.Body.String())
	}
}

func TestStudentKeyMiddlewareRejects(t *testing.T) {
	r := studentRouter()

	cases := map[string]string{
		"missing":  "",
		"blank":    "   ",
		"too long": strings.Repeat("k", 129),
	}
	for name, key := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/mine", nil)
		if key != "" {
			req.Header.Set("X-Student-Key", key)
		}
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, w.Code)
		}
	}
}

func adminRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin", AdminAuthMiddleware(cfg), func(c *gin.Context) {
		c.String(http.StatusOK, util.GetAdminFromContext(c).Username)
	})
	return r
}

func TestAdminAuthMiddleware(t *testing.T) {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret-test-secret-test-secret"
	cfg.JWT.ExpireTime = time.Hour
	r := adminRouter(cfg)

	token, err := util.GenerateAdminJWT("student_council", cfg.JWT.Secret, cfg.JWT.ExpireTime)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", w.Code)
	}
	if w.Body.String() != "student_council" {
		t.Fatalf("unexpected username: %s", w.Body.String())
	}
}

func TestAdminAuthMiddlewareRejects(t *testing.T) {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret-test-secret-test-secret"
	r := adminRouter(cfg)

	cases := map[string]string{
		"missing header": "",
		"not bearer":     "Basic abc",
		"garbage token":  "Bearer not.a.token",
	}
	for name, header := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		r.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, w.Code)
		}
	}
}
