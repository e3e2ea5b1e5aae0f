package controller

import (
	"errors"

	"suggestbox_backend/internal/repository"
	"suggestbox_backend/internal/service"
	"suggestbox_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type PushController struct {
	subscriptions *repository.PushSubscriptionRepository
	push          *service.PushService
	auth          *service.AuthService
}

func NewPushController(subscriptions *repository.PushSubscriptionRepository, push *service.PushService, auth *service.AuthService) *PushController {
	return &PushController{subscriptions: subscriptions, push: push, auth: auth}
}

type subscribeRequest struct {
	Endpoint string `json:"endpoint" binding:"required,url,max=500"`
}

// PublicKey godoc
// @Summary VAPID 공개키 조회
// @Description 브라우저가 pushManager.subscribe에 쓸 applicationServerKey.
// @Tags push
// @Produce json
// @Success 200 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /push/public-key [get]
func (ctl *PushController) PublicKey(c *gin.Context) {
	if !ctl.push.Configured() {
		util.ServiceUnavailable(c, "푸시 알림이 설정되어 있지 않습니다")
		return
	}

	util.Success(c, gin.H{"publicKey": ctl.push.PublicKey()})
}

// Subscribe godoc
// @Summary 학생 푸시 구독 등록
// @Description 같은 기기 키·endpoint 조합은 한 번만 저장된다.
// @Tags push
// @Accept json
// @Produce json
// @Param X-Student-Key header string true "기기 익명 키"
// @Param request body subscribeRequest true "구독 endpoint"
// @Success 201 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /push/subscriptions [post]
func (ctl *PushController) Subscribe(c *gin.Context) {
	if !ctl.push.Configured() {
		util.ServiceUnavailable(c, "푸시 알림이 설정되어 있지 않습니다")
		return
	}

	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	if _, err := ctl.subscriptions.UpsertForStudent(util.GetStudentKey(c), req.Endpoint); err != nil {
		util.LogInternalError(c, err)
		return
	}

	util.Created(c, gin.H{"message": "구독이 등록되었습니다"})
}

// Unsubscribe godoc
// @Summary 학생 푸시 구독 해지
// @Tags push
// @Accept json
// @Produce json
// @Param X-Student-Key header string true "기기 익명 키"
// @Param request body subscribeRequest true "구독 endpoint"
// @Success 200 {object} util.Response
// @Router /push/subscriptions [delete]
func (ctl *PushController) Unsubscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	if err := ctl.subscriptions.DeleteForStudent(util.GetStudentKey(c), req.Endpoint); err != nil {
		util.LogInternalError(c, err)
		return
	}

	util.Success(c, gin.H{"message": "구독이 해지되었습니다"})
}

// SubscribeAdmin godoc
// @Summary 관리자 푸시 구독 등록
// @Description 새 건의 등록 알림을 받을 기기를 등록한다.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body subscribeRequest true "구독 endpoint"
// @Success 201 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /admin/push/subscriptions [post]
func (ctl *PushController) SubscribeAdmin(c *gin.Context) {
	if !ctl.push.Configured() {
		util.ServiceUnavailable(c, "푸시 알림이 설정되어 있지 않습니다")
		return
	}

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

	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	if _, err := ctl.subscriptions.UpsertForAdmin(admin.ID, req.Endpoint); err != nil {
		util.LogInternalError(c, err)
		return
	}

	util.Created(c, gin.H{"message": "구독이 등록되었습니다"})
}
