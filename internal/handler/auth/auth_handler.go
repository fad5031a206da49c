// Package auth provides the HTTP handlers for registration, login and
// the caller's own profile.
package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/safarinest/hotel-booking-backend/internal/common/handler"
	"github.com/safarinest/hotel-booking-backend/internal/common/response"
	userService "github.com/safarinest/hotel-booking-backend/internal/service/user"
)

// Handler serves the auth and profile endpoints.
type Handler struct {
	userService *userService.Service
}

// NewHandler creates the auth handler.
func NewHandler(userSvc *userService.Service) *Handler {
	return &Handler{
		userService: userSvc,
	}
}

// Register creates a customer account
// @Summary Register a customer account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body userService.RegisterRequest true "registration"
// @Success 200 {object} response.Response{data=userService.AuthInfo}
// @Router /api/v1/auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req userService.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid registration parameters")
		return
	}

	info, err := h.userService.Register(c.Request.Context(), &req)
	handler.MustSucceed(c, err, info)
}

// Login authenticates by email and password
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body userService.LoginRequest true "credentials"
// @Success 200 {object} response.Response{data=userService.AuthInfo}
// @Router /api/v1/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req userService.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid login parameters")
		return
	}

	info, err := h.userService.Login(c.Request.Context(), &req)
	handler.MustSucceed(c, err, info)
}

// refreshRequest carries the refresh token.
type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Refresh exchanges a refresh token for a new pair
// @Summary Refresh tokens
// @Tags auth
// @Accept json
// @Produce json
// @Param request body refreshRequest true "refresh token"
// @Success 200 {object} response.Response{data=jwt.TokenPair}
// @Router /api/v1/auth/refresh [post]
func (h *Handler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "refresh token required")
		return
	}

	pair, err := h.userService.RefreshToken(c.Request.Context(), req.RefreshToken)
	handler.MustSucceed(c, err, pair)
}

// GetProfile returns the caller's account
// @Summary Get my profile
// @Tags auth
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=userService.UserInfo}
// @Router /api/v1/auth/profile [get]
func (h *Handler) GetProfile(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	info, err := h.userService.GetProfile(c.Request.Context(), userID)
	handler.MustSucceed(c, err, info)
}

// updateProfileRequest renames the account.
type updateProfileRequest struct {
	Name string `json:"name" binding:"required,min=2,max=100"`
}

// UpdateProfile renames the caller's account
// @Summary Update my profile
// @Tags auth
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body updateProfileRequest true "profile"
// @Success 200 {object} response.Response{data=userService.UserInfo}
// @Router /api/v1/auth/profile [put]
func (h *Handler) UpdateProfile(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid profile parameters")
		return
	}

	info, err := h.userService.UpdateProfile(c.Request.Context(), userID, req.Name)
	handler.MustSucceed(c, err, info)
}

// ChangePassword rotates the caller's password
// @Summary Change my password
// @Tags auth
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body userService.ChangePasswordRequest true "passwords"
// @Success 200 {object} response.Response
// @Router /api/v1/auth/password [put]
func (h *Handler) ChangePassword(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req userService.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid password parameters")
		return
	}

	err := h.userService.ChangePassword(c.Request.Context(), userID, &req)
	handler.MustSucceed(c, err, nil)
}

// SaveCustomerDetail upserts the caller's contact profile
// @Summary Save my customer details
// @Tags auth
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body userService.CustomerDetailRequest true "contact details"
// @Success 200 {object} response.Response{data=userService.CustomerDetailInfo}
// @Router /api/v1/auth/customer-detail [put]
func (h *Handler) SaveCustomerDetail(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req userService.CustomerDetailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid customer detail parameters")
		return
	}

	info, err := h.userService.SaveCustomerDetail(c.Request.Context(), userID, &req)
	handler.MustSucceed(c, err, info)
}

// GetCustomerDetail returns the caller's contact profile
// @Summary Get my customer details
// @Tags auth
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=userService.CustomerDetailInfo}
// @Router /api/v1/auth/customer-detail [get]
func (h *Handler) GetCustomerDetail(c *gin.Context) {
	actor, ok := handler.RequireActor(c)
	if !ok {
		return
	}

	info, err := h.userService.GetCustomerDetail(c.Request.Context(), actor, actor.ID)
	handler.MustSucceed(c, err, info)
}
