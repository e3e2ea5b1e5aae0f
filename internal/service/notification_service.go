package service

import (
	"suggestbox_backend/internal/model"
	"suggestbox_backend/pkg/logger"

	"go.uber.org/zap"
)

const (
	adminNotifyTitlePrefix = "새 건의 등록: "
	adminNotifyBody        = "학생이 새로운 건의사항을 등록했습니다."
	studentNotifyTitle     = "새 답변이 도착했어요"

	adminTitleMaxRunes = 30
)

// SubscriptionStore 알림 팬아웃 대상 구독 조회.
type SubscriptionStore interface {
	ListForAdmins() ([]model.PushSubscription, error)
	ListForStudent(studentKey string) ([]model.PushSubscription, error)
}

// PushSender 구독 한 건에 대한 전송. 실패해도 false만 돌려준다.
type PushSender interface {
	Configured() bool
	Send(sub *model.PushSubscription, title, body string) bool
}

// AnswerMailer 답변 알림 메일 발송.
type AnswerMailer interface {
	IsConfigured() bool
	SendAnswerNotification(suggestion *model.Suggestion) bool
}

// NotificationService 건의 이벤트를 푸시/메일로 팬아웃한다.
// 관리자 알림은 채널 큐를 통해 백그라운드 고루틴에서 처리해 등록 응답을 막지 않는다.
type NotificationService struct {
	subscriptions SubscriptionStore
	push          PushSender
	mail          AnswerMailer

	adminQueue chan string
	done       chan struct{}
}

func NewNotificationService(subscriptions SubscriptionStore, push PushSender, mail AnswerMailer) *NotificationService {
	return &NotificationService{
		subscriptions: subscriptions,
		push:          push,
		mail:          mail,
		adminQueue:    make(chan string, 64),
		done:          make(chan struct{}),
	}
}

// Run 관리자 알림 큐를 소비한다. 앱 시작 시 고루틴으로 띄운다.
func (s *NotificationService) Run() {
	for {
		select {
		case title := <-s.adminQueue:
			s.fanOutToAdmins(title)
		case <-s.done:
			// 종료 전에 남은 큐를 비운다
			for {
				select {
				case title := <-s.adminQueue:
					s.fanOutToAdmins(title)
				default:
					return
				}
			}
		}
	}
}

func (s *NotificationService) Stop() {
	close(s.done)
}

// NotifyAdminsOnCreate 등록 경로에서 호출된다. 큐가 가득 차면 버린다.
func (s *NotificationService) NotifyAdminsOnCreate(title string) {
	select {
	case s.adminQueue <- title:
	default:
		logger.Log.Warn("admin notification queue full, dropping", zap.String("title", title))
	}
}

func (s *NotificationService) fanOutToAdmins(title string) {
	if !s.push.Configured() {
		logger.Log.Debug("push not configured, skipping admin fan-out")
		return
	}

	subs, err := s.subscriptions.ListForAdmins()
	if err != nil {
		logger.Log.Error("failed to list admin subscriptions", zap.Error(err))
		return
	}
	if len(subs) == 0 {
		return
	}

	pushTitle := adminNotifyTitlePrefix + firstRunes(title, adminTitleMaxRunes)
	sent := 0
	for i := range subs {
		if s.push.Send(&subs[i], pushTitle, adminNotifyBody) {
			sent++
		}
	}
	logger.Log.Info("admin fan-out complete",
		zap.Int("subscriptions", len(subs)),
		zap.Int("sent", sent))
}

// NotifyStudentOnAnswer pending→answered 전이 시에만 호출된다.
// 구독별 푸시를 모두 시도한 뒤 알림 메일을 보낸다. 한 구독의 실패가
// 나머지 구독이나 메일 발송을 막지 않는다.
func (s *NotificationService) NotifyStudentOnAnswer(suggestion *model.Suggestion) {
	if s.push.Configured() {
		subs, err := s.subscriptions.ListForStudent(suggestion.StudentKey)
		if err != nil {
			logger.Log.Error("failed to list student subscriptions",
				zap.Uint("suggestionId", suggestion.ID),
				zap.Error(err))
		} else {
			for i := range subs {
				s.push.Send(&subs[i], studentNotifyTitle, suggestion.Title)
			}
		}
	}

	if suggestion.NotificationEmail != nil && *suggestion.NotificationEmail != "" && s.mail.IsConfigured() {
		s.mail.SendAnswerNotification(suggestion)
	}
}

// firstRunes 멀티바이트 안전한 접두사 자르기
func firstRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
