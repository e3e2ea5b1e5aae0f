package service

import (
	"strings"
	"testing"
	"time"

	"suggestbox_backend/internal/model"
)

type fakeSubscriptionStore struct {
	adminSubs   []model.PushSubscription
	studentSubs map[string][]model.PushSubscription
}

func (f *fakeSubscriptionStore) ListForAdmins() ([]model.PushSubscription, error) {
	return f.adminSubs, nil
}

func (f *fakeSubscriptionStore) ListForStudent(studentKey string) ([]model.PushSubscription, error) {
	return f.studentSubs[studentKey], nil
}

// fakePushSender failEndpoints에 있는 endpoint는 실패 처리한다
type fakePushSender struct {
	configured    bool
	failEndpoints map[string]bool
	sent          []string
	titles        []string
	bodies        []string
}

func (f *fakePushSender) Configured() bool { return f.configured }

func (f *fakePushSender) Send(sub *model.PushSubscription, title, body string) bool {
	f.sent = append(f.sent, sub.Endpoint)
	f.titles = append(f.titles, title)
	f.bodies = append(f.bodies, body)
	return !f.failEndpoints[sub.Endpoint]
}

type fakeMailer struct {
	configured bool
	sentTo     []string
}

func (f *fakeMailer) IsConfigured() bool { return f.configured }

func (f *fakeMailer) SendAnswerNotification(s *model.Suggestion) bool {
	f.sentTo = append(f.sentTo, *s.NotificationEmail)
	return true
}

func subList(endpoints ...string) []model.PushSubscription {
	subs := make([]model.PushSubscription, len(endpoints))
	for i, ep := range endpoints {
		subs[i] = model.PushSubscription{Endpoint: ep}
		subs[i].ID = uint(i + 1)
	}
	return subs
}

func TestAdminFanOutIsolation(t *testing.T) {
	store := &fakeSubscriptionStore{
		adminSubs: subList("https://push/a", "https://push/b", "https://push/c"),
	}
	push := &fakePushSender{configured: true, failEndpoints: map[string]bool{"https://push/b": true}}
	svc := NewNotificationService(store, push, &fakeMailer{})

	svc.fanOutToAdmins("급식 개선 건의")

	// 가운데 구독이 실패해도 세 구독 모두 시도한다
	if len(push.sent) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(push.sent))
	}
	for _, title := range push.titles {
		if title != "새 건의 등록: 급식 개선 건의" {
			t.Fatalf("unexpected title: %s", title)
		}
	}
	for _, body := range push.bodies {
		if body != "학생이 새로운 건의사항을 등록했습니다." {
			t.Fatalf("unexpected body: %s", body)
		}
	}
}

func TestAdminFanOutTruncatesTitle(t *testing.T) {
	store := &fakeSubscriptionStore{adminSubs: subList("https://push/a")}
	push := &fakePushSender{configured: true}
	svc := NewNotificationService(store, push, &fakeMailer{})

	long := strings.Repeat("가", 40)
	svc.fanOutToAdmins(long)

	want := "새 건의 등록: " + strings.Repeat("가", 30)
	if push.titles[0] != want {
		t.Fatalf("expected truncated title %q, got %q", want, push.titles[0])
	}
}

func TestAdminFanOutSkippedWhenUnconfigured(t *testing.T) {
	store := &fakeSubscriptionStore{adminSubs: subList("https://push/a")}
	push := &fakePushSender{configured: false}
	svc := NewNotificationService(store, push, &fakeMailer{})

	svc.fanOutToAdmins("건의")
	if len(push.sent) != 0 {
		t.Fatal("expected no attempts without VAPID config")
	}
}

func TestNotifyStudentOnAnswer(t *testing.T) {
	store := &fakeSubscriptionStore{
		studentSubs: map[string][]model.PushSubscription{
			"key-1": subList("https://push/s1", "https://push/s2"),
		},
	}
	push := &fakePushSender{configured: true, failEndpoints: map[string]bool{"https://push/s1": true}}
	mail := &fakeMailer{configured: true}
	svc := NewNotificationService(store, push, mail)

	email := "student@example.com"
	sug := &model.Suggestion{
		StudentKey:        "key-1",
		Title:             "체육복 등교 허용",
		NotificationEmail: &email,
	}
	sug.ID = 3

	svc.NotifyStudentOnAnswer(sug)

	if len(push.sent) != 2 {
		t.Fatalf("expected 2 push attempts, got %d", len(push.sent))
	}
	if push.titles[0] != "새 답변이 도착했어요" || push.bodies[0] != "체육복 등교 허용" {
		t.Fatalf("unexpected push content: %s / %s", push.titles[0], push.bodies[0])
	}
	// 푸시 실패와 무관하게 메일은 정확히 한 번
	if len(mail.sentTo) != 1 || mail.sentTo[0] != "student@example.com" {
		t.Fatalf("expected exactly one email, got %v", mail.sentTo)
	}
}

func TestNotifyStudentWithoutEmail(t *testing.T) {
	store := &fakeSubscriptionStore{
		studentSubs: map[string][]model.PushSubscription{"key-1": subList("https://push/s1")},
	}
	push := &fakePushSender{configured: true}
	mail := &fakeMailer{configured: true}
	svc := NewNotificationService(store, push, mail)

	sug := &model.Suggestion{StudentKey: "key-1", Title: "건의"}
	svc.NotifyStudentOnAnswer(sug)

	if len(push.sent) != 1 {
		t.Fatalf("expected 1 push attempt, got %d", len(push.sent))
	}
	if len(mail.sentTo) != 0 {
		t.Fatal("expected no email without a notification address")
	}
}

func TestNotifyStudentEmailNotConfigured(t *testing.T) {
	store := &fakeSubscriptionStore{studentSubs: map[string][]model.PushSubscription{}}
	push := &fakePushSender{configured: false}
	mail := &fakeMailer{configured: false}
	svc := NewNotificationService(store, push, mail)

	email := "student@example.com"
	sug := &model.Suggestion{StudentKey: "key-1", Title: "건의", NotificationEmail: &email}
	svc.NotifyStudentOnAnswer(sug)

	if len(mail.sentTo) != 0 {
		t.Fatal("expected no email when SMTP is not configured")
	}
}

func TestAdminQueueDrainsOnStop(t *testing.T) {
	store := &fakeSubscriptionStore{adminSubs: subList("https://push/a")}
	push := &fakePushSender{configured: true}
	svc := NewNotificationService(store, push, &fakeMailer{})

	svc.NotifyAdminsOnCreate("첫 건의")
	svc.NotifyAdminsOnCreate("둘째 건의")

	done := make(chan struct{})
	go func() {
		svc.Run()
		close(done)
	}()
	svc.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not stop")
	}

	if len(push.sent) != 2 {
		t.Fatalf("expected both queued notifications delivered, got %d", len(push.sent))
	}
}
