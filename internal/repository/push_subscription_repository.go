package repository

import (
	"errors"

	"suggestbox_backend/internal/model"

	"gorm.io/gorm"
)

type PushSubscriptionRepository struct {
	DB *gorm.DB
}

func NewPushSubscriptionRepository(db *gorm.DB) *PushSubscriptionRepository {
	return &PushSubscriptionRepository{DB: db}
}

func (r *PushSubscriptionRepository) ListForAdmins() ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	err := r.DB.Where("admin_id IS NOT NULL").Find(&subs).Error
	return subs, err
}

func (r *PushSubscriptionRepository) ListForStudent(studentKey string) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	err := r.DB.Where("student_key = ?", studentKey).Find(&subs).Error
	return subs, err
}

// upsertSubscription 소유자·endpoint 조합마다 한 행만 남긴다.
// 이미 있으면 그 행을 돌려주고, 없을 때만 create를 부른다.
func upsertSubscription(find func() (*model.PushSubscription, error), create func() (*model.PushSubscription, error)) (*model.PushSubscription, error) {
	sub, err := find()
	if err == nil {
		return sub, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return create()
}

// UpsertForStudent 같은 기기(endpoint)의 중복 등록을 막는다.
func (r *PushSubscriptionRepository) UpsertForStudent(studentKey, endpoint string) (*model.PushSubscription, error) {
	return upsertSubscription(
		func() (*model.PushSubscription, error) {
			var sub model.PushSubscription
			err := r.DB.Where("endpoint = ? AND student_key = ?", endpoint, studentKey).First(&sub).Error
			return &sub, err
		},
		func() (*model.PushSubscription, error) {
			sub := model.PushSubscription{Endpoint: endpoint, StudentKey: &studentKey}
			if err := r.DB.Create(&sub).Error; err != nil {
				return nil, err
			}
			return &sub, nil
		},
	)
}

func (r *PushSubscriptionRepository) UpsertForAdmin(adminID uint, endpoint string) (*model.PushSubscription, error) {
	return upsertSubscription(
		func() (*model.PushSubscription, error) {
			var sub model.PushSubscription
			err := r.DB.Where("endpoint = ? AND admin_id = ?", endpoint, adminID).First(&sub).Error
			return &sub, err
		},
		func() (*model.PushSubscription, error) {
			sub := model.PushSubscription{Endpoint: endpoint, AdminID: &adminID}
			if err := r.DB.Create(&sub).Error; err != nil {
				return nil, err
			}
			return &sub, nil
		},
	)
}

func (r *PushSubscriptionRepository) DeleteForStudent(studentKey, endpoint string) error {
	return r.DB.Where("endpoint = ? AND student_key = ?", endpoint, studentKey).
		Delete(&model.PushSubscription{}).Error
}
