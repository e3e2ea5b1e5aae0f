package repository

import (
	"time"

	"suggestbox_backend/internal/model"

	"gorm.io/gorm"
)

type SuggestionRepository struct {
	DB *gorm.DB
}

func NewSuggestionRepository(db *gorm.DB) *SuggestionRepository {
	return &SuggestionRepository{DB: db}
}

func (r *SuggestionRepository) Create(suggestion *model.Suggestion) error {
	return r.DB.Create(suggestion).Error
}

func (r *SuggestionRepository) Save(suggestion *model.Suggestion) error {
	return r.DB.Save(suggestion).Error
}

func (r *SuggestionRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Suggestion{}, id).Error
}

func (r *SuggestionRepository) FindByID(id uint) (*model.Suggestion, error) {
	var suggestion model.Suggestion
	err := r.DB.First(&suggestion, id).Error
	if err != nil {
		return nil, err
	}
	return &suggestion, nil
}

// FindForStudent 본인 소유(student_key 일치) 건의만 조회한다.
func (r *SuggestionRepository) FindForStudent(id uint, studentKey string) (*model.Suggestion, error) {
	var suggestion model.Suggestion
	err := r.DB.Where("id = ? AND student_key = ?", id, studentKey).First(&suggestion).Error
	if err != nil {
		return nil, err
	}
	return &suggestion, nil
}

func (r *SuggestionRepository) ListForStudent(studentKey string, sinceAnsweredAt *time.Time) ([]model.Suggestion, error) {
	query := r.DB.Where("student_key = ?", studentKey)
	if sinceAnsweredAt != nil {
		query = query.Where("answered_at IS NOT NULL AND answered_at > ?", *sinceAnsweredAt)
	}

	var suggestions []model.Suggestion
	err := query.Order("created_at desc").Find(&suggestions).Error
	return suggestions, err
}

// List 관리자용 목록. grade/status 필터와 제목·내용 검색을 지원한다.
func (r *SuggestionRepository) List(grade *int, status model.SuggestionStatus, search string) ([]model.Suggestion, error) {
	query := r.DB.Model(&model.Suggestion{})
	if grade != nil {
		query = query.Where("grade = ?", *grade)
	}
	if status == model.StatusPending || status == model.StatusAnswered {
		query = query.Where("status = ?", status)
	}
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("title LIKE ? OR content LIKE ?", like, like)
	}

	var suggestions []model.Suggestion
	err := query.Order("created_at desc").Find(&suggestions).Error
	return suggestions, err
}
