package service

import (
	"errors"
	"strings"
	"time"

	"suggestbox_backend/internal/model"
	"suggestbox_backend/internal/util"

	"gorm.io/gorm"
)

// SuggestionStore 영속 계층 계약. 테스트에서는 인메모리 구현으로 대체한다.
type SuggestionStore interface {
	Create(suggestion *model.Suggestion) error
	Save(suggestion *model.Suggestion) error
	Delete(id uint) error
	FindByID(id uint) (*model.Suggestion, error)
	FindForStudent(id uint, studentKey string) (*model.Suggestion, error)
	ListForStudent(studentKey string, sinceAnsweredAt *time.Time) ([]model.Suggestion, error)
	List(grade *int, status model.SuggestionStatus, search string) ([]model.Suggestion, error)
}

// Notifier 건의 이벤트에 따른 알림 팬아웃. 전송 실패가 이 서비스로 전파되어서는 안 된다.
type Notifier interface {
	NotifyAdminsOnCreate(title string)
	NotifyStudentOnAnswer(suggestion *model.Suggestion)
}

// MailChecker 알림 메일 주소 등록을 받을 수 있는 상태인지 확인한다.
type MailChecker interface {
	IsConfigured() bool
}

type CreateSuggestionInput struct {
	Grade   int
	Title   string
	Content string
}

// UpdateSuggestionInput nil 필드는 건드리지 않는다(부분 수정).
type UpdateSuggestionInput struct {
	Grade   *int
	Title   *string
	Content *string
}

type SuggestionService struct {
	store    SuggestionStore
	notifier Notifier
	mail     MailChecker
}

func NewSuggestionService(store SuggestionStore, notifier Notifier, mail MailChecker) *SuggestionService {
	return &SuggestionService{store: store, notifier: notifier, mail: mail}
}

// Create 건의를 등록하고 관리자 알림을 비동기로 예약한다.
func (s *SuggestionService) Create(studentKey string, input CreateSuggestionInput) (*model.Suggestion, error) {
	suggestion := &model.Suggestion{
		StudentKey: studentKey,
		Grade:      input.Grade,
		Title:      strings.TrimSpace(input.Title),
		Content:    strings.TrimSpace(input.Content),
		Status:     model.StatusPending,
	}
	if err := s.store.Create(suggestion); err != nil {
		return nil, err
	}

	s.notifier.NotifyAdminsOnCreate(suggestion.Title)
	return suggestion, nil
}

func (s *SuggestionService) ListForStudent(studentKey string, sinceAnsweredAt *time.Time) ([]model.Suggestion, error) {
	return s.store.ListForStudent(studentKey, sinceAnsweredAt)
}

func (s *SuggestionService) List(grade *int, status model.SuggestionStatus, search string) ([]model.Suggestion, error) {
	return s.store.List(grade, status, search)
}

func (s *SuggestionService) GetForStudent(id uint, studentKey string) (*model.Suggestion, error) {
	suggestion, err := s.store.FindForStudent(id, studentKey)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return suggestion, nil
}

// Update 본인 건의 수정. 보낸 필드만 반영하고, 답변이 달린 건의는 더 이상 고칠 수 없다.
func (s *SuggestionService) Update(id uint, studentKey string, input UpdateSuggestionInput) (*model.Suggestion, error) {
	suggestion, err := s.store.FindForStudent(id, studentKey)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if suggestion.IsAnswered() {
		return nil, util.ErrSuggestionAnswered
	}

	if input.Grade != nil {
		suggestion.Grade = *input.Grade
	}
	if input.Title != nil {
		suggestion.Title = strings.TrimSpace(*input.Title)
	}
	if input.Content != nil {
		suggestion.Content = strings.TrimSpace(*input.Content)
	}
	if err := s.store.Save(suggestion); err != nil {
		return nil, err
	}
	return suggestion, nil
}

// SetNotificationEmail 답변 알림을 받을 주소를 등록한다.
// 메일 발송이 설정되어 있지 않으면 등록 자체를 거절한다(503으로 매핑).
func (s *SuggestionService) SetNotificationEmail(id uint, studentKey, email string) (*model.Suggestion, error) {
	if !s.mail.IsConfigured() {
		return nil, util.ErrEmailNotConfigured
	}

	suggestion, err := s.store.FindForStudent(id, studentKey)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if suggestion.IsAnswered() {
		return nil, util.ErrSuggestionAnswered
	}

	normalized, err := util.NormalizeEmail(email)
	if err != nil {
		return nil, err
	}

	suggestion.NotificationEmail = &normalized
	if err := s.store.Save(suggestion); err != nil {
		return nil, err
	}
	return suggestion, nil
}

// DeleteForStudent 본인 건의 삭제. 답변된 건의는 기록 보존을 위해 지울 수 없다.
func (s *SuggestionService) DeleteForStudent(id uint, studentKey string) error {
	suggestion, err := s.store.FindForStudent(id, studentKey)
	if err != nil {
		return mapNotFound(err)
	}
	if suggestion.IsAnswered() {
		return util.ErrSuggestionAnswered
	}
	return s.store.Delete(suggestion.ID)
}

// Answer 건의에 답변을 단다. 두 번째 반환값은 pending→answered 전이가
// 실제로 일어났는지이며, 학생 알림은 그 경우에만 나간다. 이미 답변된
// 건의에 다시 답변하면 내용만 바뀌고 알림은 다시 나가지 않는다.
func (s *SuggestionService) Answer(id uint, text string) (*model.Suggestion, bool, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, false, util.ErrAnswerRequired
	}

	suggestion, err := s.store.FindByID(id)
	if err != nil {
		return nil, false, mapNotFound(err)
	}

	transitioned := !suggestion.IsAnswered()

	now := time.Now().UTC()
	suggestion.Answer = &text
	suggestion.Status = model.StatusAnswered
	suggestion.AnsweredAt = &now
	if err := s.store.Save(suggestion); err != nil {
		return nil, false, err
	}

	if transitioned {
		s.notifier.NotifyStudentOnAnswer(suggestion)
	}
	return suggestion, transitioned, nil
}

// DeleteByAdmin 관리자는 상태와 무관하게 삭제할 수 있다.
func (s *SuggestionService) DeleteByAdmin(id uint) error {
	suggestion, err := s.store.FindByID(id)
	if err != nil {
		return mapNotFound(err)
	}
	return s.store.Delete(suggestion.ID)
}

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrSuggestionNotFound
	}
	return err
}
