package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"suggestbox_backend/internal/config"
	"suggestbox_backend/internal/controller"
	"suggestbox_backend/internal/repository"
	"suggestbox_backend/internal/service"
	"suggestbox_backend/pkg/database"
	"suggestbox_backend/pkg/logger"
	"suggestbox_backend/pkg/monitoring"
	"suggestbox_backend/pkg/security"
	"suggestbox_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	services *services
}

type repositories struct {
	suggestion   *repository.SuggestionRepository
	subscription *repository.PushSubscriptionRepository
	admin        *repository.AdminRepository
}

type services struct {
	auth         *service.AuthService
	push         *service.PushService
	email        *service.EmailService
	notification *service.NotificationService
	suggestion   *service.SuggestionService
}

type controllers struct {
	suggestion *controller.SuggestionController
	admin      *controller.AdminController
	push       *controller.PushController
	health     *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		suggestion:   repository.NewSuggestionRepository(db),
		subscription: repository.NewPushSubscriptionRepository(db),
		admin:        repository.NewAdminRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}

	s.auth = service.NewAuthService(repos.admin, cfg)
	s.push = service.NewPushService(cfg.Push)
	s.email = service.NewEmailService(cfg)

	s.notification = service.NewNotificationService(repos.subscription, s.push, s.email)
	go s.notification.Run()

	s.suggestion = service.NewSuggestionService(repos.suggestion, s.notification, s.email)

	return s
}

func (a *App) initControllers(s *services, repos *repositories, db *gorm.DB) *controllers {
	return &controllers{
		suggestion: controller.NewSuggestionController(s.suggestion),
		admin:      controller.NewAdminController(s.auth, s.suggestion),
		push:       controller.NewPushController(repos.subscription, s.push, s.auth),
		health:     controller.NewHealthController(db, s.push, s.email),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 300
	}
	router.Use(security.RateLimiter(maxRequests, window))

	// 분산 추적 미들웨어
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// ApplyConfig 설정 파일 변경 시 호출된다. 알림 채널 설정은 재시작 없이 반영한다.
func (a *App) ApplyConfig(cfg *config.Config) {
	if a.services == nil {
		return
	}

	a.services.push.UpdateConfig(cfg.Push)
	a.services.email.UpdateConfig(cfg)

	logger.Log.Info("notification config reloaded",
		zap.Bool("pushConfigured", a.services.push.Configured()),
		zap.Bool("emailConfigured", a.services.email.IsConfigured()))
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg)
	app.services = services
	controllers := app.initControllers(services, repos, db)

	// 모니터링 초기화
	monitoring.Init()

	gin.SetMode(ginMode(cfg.Server.Mode))
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("suggestbox-backend", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)
	app.serveStatic(router, cfg)

	return app
}

func ginMode(mode string) string {
	switch mode {
	case "release":
		return gin.ReleaseMode
	case "test":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 종료 신호를 기다렸다가 5초 안에 정리한다
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// 큐에 남은 관리자 알림을 비우고 디스패처를 멈춘다
	if a.services != nil && a.services.notification != nil {
		a.services.notification.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
