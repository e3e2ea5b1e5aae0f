package util

import "errors"

var (
	ErrSuggestionNotFound = errors.New("suggestion not found")
	ErrSuggestionAnswered = errors.New("answered suggestions cannot be modified")
	ErrAnswerRequired     = errors.New("answer text is required")
	ErrInvalidEmail       = errors.New("유효한 이메일 주소를 입력해 주세요")
	ErrEmailNotConfigured = errors.New("email notifications are not configured")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAdminNotFound      = errors.New("admin not found")
)
