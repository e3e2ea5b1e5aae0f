package model

import "time"

// swagger:model Admin
type Admin struct {
	BaseModel
	Username     string     `gorm:"size:64;uniqueIndex;not null" json:"username"`
	PasswordHash string     `gorm:"size:100;not null" json:"-"`
	LastLoginAt  *time.Time `json:"lastLoginAt"`
}

func (Admin) TableName() string {
	return "admins"
}
