// @title 학생 건의함 백엔드 API
// @version 1.0
// @description 화홍고 학생회 건의함의 백엔드 서버. 건의 등록과 답변, 푸시/메일 알림을 담당한다.

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"flag"
	"log"
	"path/filepath"

	"suggestbox_backend/internal/app"
	"suggestbox_backend/internal/config"
	"suggestbox_backend/pkg/configwatcher"
	"suggestbox_backend/pkg/logger"
)

func main() {
	configDir := flag.String("config", "configs", "설정 파일 디렉터리")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	// 설정 파일 변경 감시: VAPID 키와 SMTP 설정은 재시작 없이 반영된다
	go configwatcher.WatchConfig(filepath.Join(*configDir, "config.yaml"), application.ApplyConfig)

	application.Run()
}
