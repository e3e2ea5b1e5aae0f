package service

import (
	"errors"
	"time"

	"suggestbox_backend/internal/config"
	"suggestbox_backend/internal/model"
	"suggestbox_backend/internal/repository"
	"suggestbox_backend/internal/util"
	"suggestbox_backend/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	admins *repository.AdminRepository
	cfg    *config.Config
}

func NewAuthService(admins *repository.AdminRepository, cfg *config.Config) *AuthService {
	return &AuthService{admins: admins, cfg: cfg}
}

// Login 관리자 인증 후 JWT를 발급한다. 계정 존재 여부를 구분하지 않고
// 같은 오류를 돌려준다.
func (s *AuthService) Login(username, password string) (string, error) {
	admin, err := s.admins.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", util.ErrInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return "", util.ErrInvalidCredentials
	}

	now := time.Now()
	admin.LastLoginAt = &now
	if err := s.admins.Save(admin); err != nil {
		logger.Log.Warn("failed to stamp last login", zap.String("username", username), zap.Error(err))
	}

	return util.GenerateAdminJWT(admin.Username, s.cfg.JWT.Secret, s.cfg.JWT.ExpireTime)
}

func (s *AuthService) GetAdmin(username string) (*model.Admin, error) {
	admin, err := s.admins.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAdminNotFound
		}
		return nil, err
	}
	return admin, nil
}
