package model

// PushSubscription 브라우저 Web Push 구독.
// StudentKey와 AdminID는 정확히 하나만 설정된다(학생 기기 또는 관리자 기기).
// swagger:model PushSubscription
type PushSubscription struct {
	BaseModel
	Endpoint   string  `gorm:"size:500;not null;index" json:"endpoint"`
	StudentKey *string `gorm:"size:128;index" json:"-"`
	AdminID    *uint   `gorm:"index" json:"-"`
}

func (PushSubscription) TableName() string {
	return "push_subscriptions"
}
