package controller

import (
	"errors"
	"strconv"
	"time"

	"suggestbox_backend/internal/service"
	"suggestbox_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SuggestionController struct {
	suggestions *service.SuggestionService
}

func NewSuggestionController(suggestions *service.SuggestionService) *SuggestionController {
	return &SuggestionController{suggestions: suggestions}
}

type createSuggestionRequest struct {
	Grade   int    `json:"grade" binding:"required,min=1,max=3"`
	Title   string `json:"title" binding:"required,min=2,max=140"`
	Content string `json:"content" binding:"required,min=5,max=10000"`
}

type updateSuggestionRequest struct {
	Grade   *int    `json:"grade" binding:"omitempty,min=1,max=3"`
	Title   *string `json:"title" binding:"omitempty,min=2,max=140"`
	Content *string `json:"content" binding:"omitempty,min=5,max=10000"`
}

type notificationEmailRequest struct {
	Email string `json:"email" binding:"required,max=320"`
}

// Create godoc
// @Summary 건의 등록
// @Description 학생이 새 건의를 등록한다. 등록 후 관리자에게 푸시 알림이 나간다.
// @Tags suggestions
// @Accept json
// @Produce json
// @Param X-Student-Key header string true "기기 익명 키"
// @Param request body createSuggestionRequest true "건의 내용"
// @Success 201 {object} util.Response{data=model.Suggestion}
// @Failure 400 {object} util.Response
// @Router /suggestions [post]
func (ctl *SuggestionController) Create(c *gin.Context) {
	var req createSuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	suggestion, err := ctl.suggestions.Create(util.GetStudentKey(c), service.CreateSuggestionInput{
		Grade:   req.Grade,
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		util.LogInternalError(c, err)
		return
	}

	util.Created(c, suggestion)
}

// ListMine godoc
// @Summary 내 건의 목록
// @Description 내 기기 키로 등록한 건의 목록. since_answered_at 이후 답변된 건만 거를 수 있다.
// @Tags suggestions
// @Produce json
// @Param X-Student-Key header string true "기기 익명 키"
// @Param since_answered_at query string false "RFC3339 시각"
// @Success 200 {object} util.Response{data=[]model.Suggestion}
// @Router /me/suggestions [get]
func (ctl *SuggestionController) ListMine(c *gin.Context) {
	var since *time.Time
	if raw := c.Query("since_answered_at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			util.BadRequest(c, "since_answered_at은 RFC3339 형식이어야 합니다")
			return
		}
		since = &parsed
	}

	suggestions, err := ctl.suggestions.ListForStudent(util.GetStudentKey(c), since)
	if err != nil {
		util.LogInternalError(c, err)
		return
	}

	util.Success(c, suggestions)
}

// GetMine godoc
// @Summary 내 건의 단건 조회
// @Tags suggestions
// @Produce json
// @Param X-Student-Key header string true "기기 익명 키"
// @Param id path int true "건의 ID"
// @Success 200 {object} util.Response{data=model.Suggestion}
// @Failure 404 {object} util.Response
// @Router /me/suggestions/{id} [get]
func (ctl *SuggestionController) GetMine(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	suggestion, err := ctl.suggestions.GetForStudent(id, util.GetStudentKey(c))
	if err != nil {
		respondSuggestionError(c, err)
		return
	}

	util.Success(c, suggestion)
}

// UpdateMine godoc
// @Summary 내 건의 수정
// @Description 답변 전(pending)에만 수정할 수 있다. 보낸 필드만 바뀐다.
// @Tags suggestions
// @Accept json
// @Produce json
// @Param X-Student-Key header string true "기기 익명 키"
// @Param id path int true "건의 ID"
// @Param request body updateSuggestionRequest true "수정 내용"
// @Success 200 {object} util.Response{data=model.Suggestion}
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /me/suggestions/{id} [patch]
func (ctl *SuggestionController) UpdateMine(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req updateSuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	suggestion, err := ctl.suggestions.Update(id, util.GetStudentKey(c), service.UpdateSuggestionInput{
		Grade:   req.Grade,
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		respondSuggestionError(c, err)
		return
	}

	util.Success(c, suggestion)
}

// SetNotificationEmail godoc
// @Summary 답변 알림 메일 등록
// @Description 답변 전(pending)에만 등록할 수 있고, 메일 발송이 설정되어 있어야 한다.
// @Tags suggestions
// @Accept json
// @Produce json
// @Param X-Student-Key header string true "기기 익명 키"
// @Param id path int true "건의 ID"
// @Param request body notificationEmailRequest true "알림 메일 주소"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /me/suggestions/{id}/notification-email [patch]
func (ctl *SuggestionController) SetNotificationEmail(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req notificationEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	if _, err := ctl.suggestions.SetNotificationEmail(id, util.GetStudentKey(c), req.Email); err != nil {
		respondSuggestionError(c, err)
		return
	}

	util.Success(c, gin.H{"message": "알림 메일이 등록되었습니다"})
}

// DeleteMine godoc
// @Summary 내 건의 삭제
// @Description 답변 전(pending)에만 삭제할 수 있다.
// @Tags suggestions
// @Produce json
// @Param X-Student-Key header string true "기기 익명 키"
// @Param id path int true "건의 ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /me/suggestions/{id} [delete]
func (ctl *SuggestionController) DeleteMine(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := ctl.suggestions.DeleteForStudent(id, util.GetStudentKey(c)); err != nil {
		respondSuggestionError(c, err)
		return
	}

	util.Success(c, gin.H{"message": "건의가 삭제되었습니다"})
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		util.BadRequest(c, "잘못된 ID입니다")
		return 0, false
	}
	return uint(id), true
}

// respondSuggestionError 서비스 오류를 HTTP 상태로 매핑한다.
func respondSuggestionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrSuggestionNotFound):
		util.NotFound(c)
	case errors.Is(err, util.ErrSuggestionAnswered):
		util.Conflict(c, "이미 답변된 건의는 변경할 수 없습니다")
	case errors.Is(err, util.ErrAnswerRequired):
		util.BadRequest(c, "답변 내용을 입력해 주세요")
	case errors.Is(err, util.ErrInvalidEmail):
		util.BadRequest(c, err.Error())
	case errors.Is(err, util.ErrEmailNotConfigured):
		util.ServiceUnavailable(c, "메일 알림이 설정되어 있지 않습니다")
	default:
		util.LogInternalError(c, err)
	}
}
