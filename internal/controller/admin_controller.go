package controller

import (
	"errors"
	"strconv"

	"suggestbox_backend/internal/model"
	"suggestbox_backend/internal/service"
	"suggestbox_backend/internal/util"

	"github.com/gin-gonic/gin"
)

const maxSearchLength = 80

type AdminController struct {
	auth        *service.AuthService
	suggestions *service.SuggestionService
}

func NewAdminController(auth *service.AuthService, suggestions *service.SuggestionService) *AdminController {
	return &AdminController{auth: auth, suggestions: suggestions}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type answerRequest struct {
	Answer string `json:"answer" binding:"required,max=10000"`
}

// Login godoc
// @Summary 관리자 로그인
// @Tags admin
// @Accept json
// @Produce json
// @Param request body loginRequest true "로그인 정보"
// @Success 200 {object} util.Response
// @Failure 401 {object} util.Response
// @Router /admin/login [post]
func (ctl *AdminController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	token, err := ctl.auth.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, util.ErrInvalidCredentials) {
			util.Error(c, 401, "아이디 또는 비밀번호가 올바르지 않습니다")
			return
		}
		util.LogInternalError(c, err)
		return
	}

	util.Success(c, gin.H{"token": token})
}

// Me godoc
// @Summary 로그인한 관리자 정보
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Failure 401 {object} util.Response
// @Router /admin/me [get]
func (ctl *AdminController) Me(c *gin.Context) {
	claims := util.GetAdminFromContext(c)
	if claims == nil {
		util.Unauthorized(c)
		return
	}

	admin, err := ctl.auth.GetAdmin(claims.Username)
	if err != nil {
		if errors.Is(err, util.ErrAdminNotFound) {
			util.Unauthorized(c)
			return
		}
		util.LogInternalError(c, err)
		return
	}

	util.Success(c, gin.H{
		"username":    admin.Username,
		"lastLoginAt": admin.LastLoginAt,
	})
}

// ListSuggestions godoc
// @Summary 건의 목록(관리자)
// @Description 학년·상태 필터와 제목/내용 검색을 지원한다.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param grade query int false "학년(1-3)"
// @Param status query string false "pending 또는 answered"
// @Param q query string false "검색어(최대 80자)"
// @Success 200 {object} util.Response{data=[]model.Suggestion}
// @Router /admin/suggestions [get]
func (ctl *AdminController) ListSuggestions(c *gin.Context) {
	var grade *int
	if raw := c.Query("grade"); raw != "" {
		g, err := strconv.Atoi(raw)
		if err != nil || g < 1 || g > 3 {
			util.BadRequest(c, "grade는 1~3 사이여야 합니다")
			return
		}
		grade = &g
	}

	status := model.SuggestionStatus(c.Query("status"))
	if status != "" && status != model.StatusPending && status != model.StatusAnswered {
		util.BadRequest(c, "status는 pending 또는 answered여야 합니다")
		return
	}

	search := c.Query("q")
	if len(search) > maxSearchLength {
		util.BadRequest(c, "검색어가 너무 깁니다")
		return
	}

	suggestions, err := ctl.suggestions.List(grade, status, search)
	if err != nil {
		util.LogInternalError(c, err)
		return
	}

	util.Success(c, suggestions)
}

// AnswerSuggestion godoc
// @Summary 건의에 답변
// @Description 첫 답변이면 학생에게 푸시/메일 알림이 나간다. 재답변은 내용만 바꾼다.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "건의 ID"
// @Param request body answerRequest true "답변 내용"
// @Success 200 {object} util.Response{data=model.Suggestion}
// @Failure 404 {object} util.Response
// @Router /admin/suggestions/{id}/answer [patch]
func (ctl *AdminController) AnswerSuggestion(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	suggestion, _, err := ctl.suggestions.Answer(id, req.Answer)
	if err != nil {
		respondSuggestionError(c, err)
		return
	}

	util.Success(c, suggestion)
}

// DeleteSuggestion godoc
// @Summary 건의 삭제(관리자)
// @Description 상태와 무관하게 삭제할 수 있다.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "건의 ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /admin/suggestions/{id} [delete]
func (ctl *AdminController) DeleteSuggestion(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := ctl.suggestions.DeleteByAdmin(id); err != nil {
		respondSuggestionError(c, err)
		return
	}

	util.Success(c, gin.H{"message": "건의가 삭제되었습니다"})
}
