package admin

import (
	"errors"

	"github.com/netbill-next/internal/http/response"
	"github.com/netbill-next/internal/service"

	"github.com/gin-gonic/gin"
)

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token     string                 `json:"token"`
	User      map[string]interface{} `json:"user"`
	ExpiresAt string                 `json:"expires_at"`
}

// OperatorLogin 操作员登录
func (h *Handler) OperatorLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	operator, token, expiresAt, err := h.AuthService.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondError(c, response.CodeUnauthorized, "用户名或密码错误", nil)
			return
		}
		respondError(c, response.CodeInternal, "登录失败", err)
		return
	}
	response.Success(c, LoginResponse{
		Token: token,
		User: map[string]interface{}{
			"id":       operator.ID,
			"username": operator.Username,
		},
		ExpiresAt: expiresAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// GetProfile 获取当前操作员信息
func (h *Handler) GetProfile(c *gin.Context) {
	operatorID, ok := getOperatorID(c)
	if !ok {
		return
	}
	operator, err := h.OperatorRepo.GetByID(operatorID)
	if err != nil {
		respondError(c, response.CodeInternal, "获取操作员信息失败", err)
		return
	}
	if operator == nil {
		respondError(c, response.CodeNotFound, "操作员不存在", nil)
		return
	}
	response.Success(c, gin.H{
		"id":            operator.ID,
		"username":      operator.Username,
		"last_login_at": operator.LastLoginAt,
	})
}
