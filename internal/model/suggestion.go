package model

import "time"

type SuggestionStatus string

const (
	StatusPending  SuggestionStatus = "pending"
	StatusAnswered SuggestionStatus = "answered"
)

// Suggestion 학생이 기기별 익명 키(student_key)로 등록하는 건의.
// status는 pending에서 answered로 한 번만 전이되고 되돌아가지 않는다.
// swagger:model Suggestion
type Suggestion struct {
	BaseModel
	StudentKey string           `gorm:"size:128;index;not null" json:"-"`
	Grade      int              `gorm:"not null" json:"grade"`
	Title      string           `gorm:"size:140;not null" json:"title"`
	Content    string           `gorm:"type:text;not null" json:"content"`
	Status     SuggestionStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	Answer     *string          `gorm:"type:text" json:"answer"`
	AnsweredAt *time.Time       `json:"answeredAt"`

	// 답변 알림을 받을 메일 주소. pending 상태에서만 바꿀 수 있다.
	NotificationEmail *string `gorm:"size:320" json:"-"`
}

func (Suggestion) TableName() string {
	return "suggestions"
}

func (s *Suggestion) IsAnswered() bool {
	return s.Status == StatusAnswered
}
