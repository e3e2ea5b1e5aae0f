package service

import (
	"errors"
	"testing"
	"time"

	"suggestbox_backend/internal/model"
	"suggestbox_backend/internal/util"

	"gorm.io/gorm"
)

// fakeSuggestionStore SuggestionStore의 인메모리 구현
type fakeSuggestionStore struct {
	nextID      uint
	suggestions map[uint]*model.Suggestion
}

func newFakeSuggestionStore() *fakeSuggestionStore {
	return &fakeSuggestionStore{nextID: 1, suggestions: map[uint]*model.Suggestion{}}
}

func (f *fakeSuggestionStore) Create(s *model.Suggestion) error {
	s.ID = f.nextID
	f.nextID++
	s.CreatedAt = time.Now()
	clone := *s
	f.suggestions[s.ID] = &clone
	return nil
}

func (f *fakeSuggestionStore) Save(s *model.Suggestion) error {
	if _, ok := f.suggestions[s.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	clone := *s
	f.suggestions[s.ID] = &clone
	return nil
}

func (f *fakeSuggestionStore) Delete(id uint) error {
	delete(f.suggestions, id)
	return nil
}

func (f *fakeSuggestionStore) FindByID(id uint) (*model.Suggestion, error) {
	s, ok := f.suggestions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *s
	return &clone, nil
}

func (f *fakeSuggestionStore) FindForStudent(id uint, studentKey string) (*model.Suggestion, error) {
	s, ok := f.suggestions[id]
	if !ok || s.StudentKey != studentKey {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *s
	return &clone, nil
}

func (f *fakeSuggestionStore) ListForStudent(studentKey string, sinceAnsweredAt *time.Time) ([]model.Suggestion, error) {
	var out []model.Suggestion
	for _, s := range f.suggestions {
		if s.StudentKey != studentKey {
			continue
		}
		if sinceAnsweredAt != nil && (s.AnsweredAt == nil || !s.AnsweredAt.After(*sinceAnsweredAt)) {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeSuggestionStore) List(grade *int, status model.SuggestionStatus, search string) ([]model.Suggestion, error) {
	var out []model.Suggestion
	for _, s := range f.suggestions {
		if grade != nil && s.Grade != *grade {
			continue
		}
		if (status == model.StatusPending || status == model.StatusAnswered) && s.Status != status {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

// recordingNotifier Notifier 호출 기록
type recordingNotifier struct {
	createTitles    []string
	answeredIDs     []uint
	answeredByValue []model.Suggestion
}

func (n *recordingNotifier) NotifyAdminsOnCreate(title string) {
	n.createTitles = append(n.createTitles, title)
}

func (n *recordingNotifier) NotifyStudentOnAnswer(s *model.Suggestion) {
	n.answeredIDs = append(n.answeredIDs, s.ID)
	n.answeredByValue = append(n.answeredByValue, *s)
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

type staticMailChecker bool

func (c staticMailChecker) IsConfigured() bool { return bool(c) }

func newTestSuggestionService(mailConfigured bool) (*SuggestionService, *fakeSuggestionStore, *recordingNotifier) {
	store := newFakeSuggestionStore()
	notifier := &recordingNotifier{}
	svc := NewSuggestionService(store, notifier, staticMailChecker(mailConfigured))
	return svc, store, notifier
}

func TestCreateSuggestion(t *testing.T) {
	svc, _, notifier := newTestSuggestionService(true)

	sug, err := svc.Create("key-1", CreateSuggestionInput{Grade: 2, Title: "  정수기 설치  ", Content: "3층에 정수기가 없습니다"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sug.Status != model.StatusPending {
		t.Fatalf("expected pending, got %s", sug.Status)
	}
	if sug.Title != "정수기 설치" {
		t.Fatalf("expected trimmed title, got %q", sug.Title)
	}
	if len(notifier.createTitles) != 1 || notifier.createTitles[0] != "정수기 설치" {
		t.Fatalf("expected one admin notification, got %v", notifier.createTitles)
	}
}

func TestAnswerTransitions(t *testing.T) {
	svc, _, notifier := newTestSuggestionService(true)
	sug, _ := svc.Create("key-1", CreateSuggestionInput{Grade: 1, Title: "건의 제목", Content: "건의 내용입니다"})

	answered, transitioned, err := svc.Answer(sug.ID, "검토하겠습니다")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !transitioned {
		t.Fatal("first answer must transition")
	}
	if answered.Status != model.StatusAnswered || answered.AnsweredAt == nil {
		t.Fatalf("unexpected state after answer: %+v", answered)
	}
	if *answered.Answer != "검토하겠습니다" {
		t.Fatalf("unexpected answer text: %q", *answered.Answer)
	}
	if len(notifier.answeredIDs) != 1 || notifier.answeredIDs[0] != sug.ID {
		t.Fatalf("expected one student notification, got %v", notifier.answeredIDs)
	}
}

func TestReAnswerDoesNotNotifyAgain(t *testing.T) {
	svc, _, notifier := newTestSuggestionService(true)
	sug, _ := svc.Create("key-1", CreateSuggestionInput{Grade: 1, Title: "건의 제목", Content: "건의 내용입니다"})

	if _, _, err := svc.Answer(sug.ID, "첫 답변"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	firstAnswered := len(notifier.answeredIDs)

	updated, transitioned, err := svc.Answer(sug.ID, "수정된 답변")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if transitioned {
		t.Fatal("re-answer must not transition")
	}
	if *updated.Answer != "수정된 답변" {
		t.Fatalf("expected updated answer text, got %q", *updated.Answer)
	}
	if len(notifier.answeredIDs) != firstAnswered {
		t.Fatal("re-answer must not notify again")
	}
}

func TestAnswerValidation(t *testing.T) {
	svc, _, _ := newTestSuggestionService(true)
	sug, _ := svc.Create("key-1", CreateSuggestionInput{Grade: 1, Title: "건의 제목", Content: "건의 내용입니다"})

	if _, _, err := svc.Answer(sug.ID, "   "); !errors.Is(err, util.ErrAnswerRequired) {
		t.Fatalf("expected ErrAnswerRequired, got %v", err)
	}
	if _, _, err := svc.Answer(999, "답변"); !errors.Is(err, util.ErrSuggestionNotFound) {
		t.Fatalf("expected ErrSuggestionNotFound, got %v", err)
	}
}

func TestUpdateConflictsAfterAnswer(t *testing.T) {
	svc, _, _ := newTestSuggestionService(true)
	sug, _ := svc.Create("key-1", CreateSuggestionInput{Grade: 1, Title: "건의 제목", Content: "건의 내용입니다"})
	svc.Answer(sug.ID, "답변")

	_, err := svc.Update(sug.ID, "key-1", UpdateSuggestionInput{Title: strPtr("새 제목"), Content: strPtr("새 내용입니다")})
	if !errors.Is(err, util.ErrSuggestionAnswered) {
		t.Fatalf("expected ErrSuggestionAnswered, got %v", err)
	}

	if err := svc.DeleteForStudent(sug.ID, "key-1"); !errors.Is(err, util.ErrSuggestionAnswered) {
		t.Fatalf("expected ErrSuggestionAnswered on delete, got %v", err)
	}
}

func TestUpdateOwnershipAndPending(t *testing.T) {
	svc, _, _ := newTestSuggestionService(true)
	sug, _ := svc.Create("key-1", CreateSuggestionInput{Grade: 1, Title: "건의 제목", Content: "건의 내용입니다"})

	// 다른 기기 키로는 보이지 않아야 한다
	if _, err := svc.Update(sug.ID, "other-key", UpdateSuggestionInput{Title: strPtr("새 제목"), Content: strPtr("새 내용입니다")}); !errors.Is(err, util.ErrSuggestionNotFound) {
		t.Fatalf("expected ErrSuggestionNotFound for foreign key, got %v", err)
	}

	updated, err := svc.Update(sug.ID, "key-1", UpdateSuggestionInput{Title: strPtr("새 제목"), Content: strPtr("새 내용입니다")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Title != "새 제목" {
		t.Fatalf("unexpected title: %q", updated.Title)
	}
}

func TestUpdateAppliesOnlyProvidedFields(t *testing.T) {
	svc, store, _ := newTestSuggestionService(true)
	sug, _ := svc.Create("key-1", CreateSuggestionInput{Grade: 1, Title: "건의 제목", Content: "건의 내용입니다"})

	// 학년만 고치면 제목·내용은 그대로 남는다
	updated, err := svc.Update(sug.ID, "key-1", UpdateSuggestionInput{Grade: intPtr(3)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Grade != 3 {
		t.Fatalf("expected grade 3, got %d", updated.Grade)
	}
	if updated.Title != "건의 제목" || updated.Content != "건의 내용입니다" {
		t.Fatalf("untouched fields changed: %+v", updated)
	}

	// 제목만 고치면 학년·내용은 그대로
	updated, err = svc.Update(sug.ID, "key-1", UpdateSuggestionInput{Title: strPtr("  바뀐 제목  ")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Title != "바뀐 제목" {
		t.Fatalf("expected trimmed title, got %q", updated.Title)
	}
	if updated.Grade != 3 || updated.Content != "건의 내용입니다" {
		t.Fatalf("untouched fields changed: %+v", updated)
	}

	saved, _ := store.FindByID(sug.ID)
	if saved.Grade != 3 || saved.Title != "바뀐 제목" || saved.Content != "건의 내용입니다" {
		t.Fatalf("unexpected persisted state: %+v", saved)
	}
}

func TestSetNotificationEmail(t *testing.T) {
	svc, store, _ := newTestSuggestionService(true)
	sug, _ := svc.Create("key-1", CreateSuggestionInput{Grade: 1, Title: "건의 제목", Content: "건의 내용입니다"})

	if _, err := svc.SetNotificationEmail(sug.ID, "key-1", " Student@Example.COM "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	saved, _ := store.FindByID(sug.ID)
	if saved.NotificationEmail == nil || *saved.NotificationEmail != "student@example.com" {
		t.Fatalf("expected normalized email, got %v", saved.NotificationEmail)
	}

	if _, err := svc.SetNotificationEmail(sug.ID, "key-1", "invalid"); !errors.Is(err, util.ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}

	svc.Answer(sug.ID, "답변")
	if _, err := svc.SetNotificationEmail(sug.ID, "key-1", "a@b.co"); !errors.Is(err, util.ErrSuggestionAnswered) {
		t.Fatalf("expected ErrSuggestionAnswered, got %v", err)
	}
}

func TestSetNotificationEmailRequiresSMTP(t *testing.T) {
	svc, _, _ := newTestSuggestionService(false)
	sug, _ := svc.Create("key-1", CreateSuggestionInput{Grade: 1, Title: "건의 제목", Content: "건의 내용입니다"})

	if _, err := svc.SetNotificationEmail(sug.ID, "key-1", "a@b.co"); !errors.Is(err, util.ErrEmailNotConfigured) {
		t.Fatalf("expected ErrEmailNotConfigured, got %v", err)
	}
}

func TestAdminDeleteAnyStatus(t *testing.T) {
	svc, store, _ := newTestSuggestionService(true)
	sug, _ := svc.Create("key-1", CreateSuggestionInput{Grade: 1, Title: "건의 제목", Content: "건의 내용입니다"})
	svc.Answer(sug.ID, "답변")

	if err := svc.DeleteByAdmin(sug.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.FindByID(sug.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatal("expected suggestion to be gone")
	}

	if err := svc.DeleteByAdmin(sug.ID); !errors.Is(err, util.ErrSuggestionNotFound) {
		t.Fatalf("expected ErrSuggestionNotFound, got %v", err)
	}
}
