package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"suggestbox_backend/internal/config"
	"suggestbox_backend/internal/model"
	"suggestbox_backend/pkg/logger"
	"suggestbox_backend/pkg/monitoring"

	"go.uber.org/zap"
)

const pushRequestTimeout = 10 * time.Second

// 전송 결과 분류. 외부 계약은 bool이지만 로그와 메트릭에는 원인을 남긴다.
const (
	pushOutcomeSent          = "sent"
	pushOutcomeSkippedConfig = "skipped_config"
	pushOutcomeSigningError  = "signing_error"
	pushOutcomeTransport     = "transport_error"
	pushOutcomeRejected      = "rejected"
)

type pushMessage struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon"`
	Tag   string `json:"tag"`
}

// PushService Web Push 전송기. VAPID 서명 토큰을 붙여 구독 endpoint로 POST한다.
type PushService struct {
	mu     sync.RWMutex
	cfg    config.PushConfig
	client *http.Client
}

func NewPushService(cfg config.PushConfig) *PushService {
	return &PushService{
		cfg:    cfg,
		client: &http.Client{Timeout: pushRequestTimeout},
	}
}

func (s *PushService) UpdateConfig(cfg config.PushConfig) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

func (s *PushService) config() config.PushConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Configured VAPID 키 쌍이 모두 설정되어 있는지
func (s *PushService) Configured() bool {
	cfg := s.config()
	return cfg.PrivateKey != "" && cfg.PublicKey != ""
}

// PublicKey 브라우저 구독(applicationServerKey)에 쓰는 공개키
func (s *PushService) PublicKey() string {
	return s.config().PublicKey
}

// Send 구독 하나에 알림을 보낸다. 실패는 로그로만 남기고 false를 돌려주며,
// 호출자(디스패처)가 나머지 구독으로 계속 팬아웃할 수 있도록 절대 panic하지 않는다.
func (s *PushService) Send(sub *model.PushSubscription, title, body string) bool {
	cfg := s.config()
	if cfg.PrivateKey == "" || cfg.PublicKey == "" {
		logger.Log.Warn("VAPID keys not configured, skipping push")
		monitoring.PushDeliveryCounter.WithLabelValues(pushOutcomeSkippedConfig).Inc()
		return false
	}

	token, err := signVAPID(cfg.PrivateKey, sub.Endpoint, cfg.Subject)
	if err != nil {
		logger.Log.Error("VAPID signing failed",
			zap.String("endpoint", endpointPrefix(sub.Endpoint)),
			zap.Error(err))
		monitoring.PushDeliveryCounter.WithLabelValues(pushOutcomeSigningError).Inc()
		return false
	}

	payload, err := json.Marshal(pushMessage{
		Title: title,
		Body:  body,
		Icon:  "/assets/icon.png",
		Tag:   fmt.Sprintf("suggestion-%d", sub.ID),
	})
	if err != nil {
		logger.Log.Error("push payload marshal failed", zap.Error(err))
		monitoring.PushDeliveryCounter.WithLabelValues(pushOutcomeTransport).Inc()
		return false
	}

	req, err := http.NewRequest(http.MethodPost, sub.Endpoint, bytes.NewReader(payload))
	if err != nil {
		logger.Log.Error("push request build failed",
			zap.String("endpoint", endpointPrefix(sub.Endpoint)),
			zap.Error(err))
		monitoring.PushDeliveryCounter.WithLabelValues(pushOutcomeTransport).Inc()
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("TTL", "86400")
	req.Header.Set("Authorization", fmt.Sprintf("vapid t=%s, k=%s", token, cfg.PublicKey))

	resp, err := s.client.Do(req)
	if err != nil {
		logger.Log.Warn("push transport error",
			zap.String("endpoint", endpointPrefix(sub.Endpoint)),
			zap.Error(err))
		monitoring.PushDeliveryCounter.WithLabelValues(pushOutcomeTransport).Inc()
		return false
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
		logger.Log.Info("push sent", zap.String("endpoint", endpointPrefix(sub.Endpoint)))
		monitoring.PushDeliveryCounter.WithLabelValues(pushOutcomeSent).Inc()
		return true
	}

	// 404/410 등 영구 실패도 여기서는 구독을 정리하지 않고 기록만 한다
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 100))
	logger.Log.Warn("push rejected",
		zap.String("endpoint", endpointPrefix(sub.Endpoint)),
		zap.Int("status", resp.StatusCode),
		zap.ByteString("body", snippet))
	monitoring.PushDeliveryCounter.WithLabelValues(pushOutcomeRejected).Inc()
	return false
}

// endpointPrefix 구독 URL 전체가 로그에 남지 않도록 앞부분만 자른다.
func endpointPrefix(endpoint string) string {
	if len(endpoint) > 50 {
		return endpoint[:50] + "..."
	}
	return endpoint
}
