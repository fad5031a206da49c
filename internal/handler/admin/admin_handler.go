// Package admin provides the administrative endpoints: account
// management and the activity log. All routes here sit behind the
// admin middleware.
package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/safarinest/hotel-booking-backend/internal/common/handler"
	"github.com/safarinest/hotel-booking-backend/internal/common/response"
	"github.com/safarinest/hotel-booking-backend/internal/service/activity"
	"github.com/safarinest/hotel-booking-backend/internal/service/user"
)

// Handler serves the admin endpoints.
type Handler struct {
	userService     *user.Service
	activityService *activity.Service
}

// NewHandler creates the admin handler.
func NewHandler(userSvc *user.Service, activitySvc *activity.Service) *Handler {
	return &Handler{
		userService:     userSvc,
		activityService: activitySvc,
	}
}

// ListUsers returns accounts matching the filters
// @Summary List user accounts
// @Tags admin
// @Produce json
// @Security Bearer
// @Param role query string false "role filter"
// @Param status query int false "status filter"
// @Param keyword query string false "name or email keyword"
// @Success 200 {object} response.Response{data=response.PageData{list=[]user.UserInfo}}
// @Router /api/v1/admin/users [get]
func (h *Handler) ListUsers(c *gin.Context) {
	var req user.ListUsersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid list parameters")
		return
	}
	page := handler.BindPagination(c)

	users, total, err := h.userService.ListUsers(c.Request.Context(), &req, page.GetOffset(), page.GetLimit())
	handler.MustSucceedPage(c, err, users, total, page.Page, page.PageSize)
}

// CreateUser creates an account with an explicit role
// @Summary Create a user account
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body user.CreateUserRequest true "account"
// @Success 200 {object} response.Response{data=user.UserInfo}
// @Router /api/v1/admin/users [post]
func (h *Handler) CreateUser(c *gin.Context) {
	actor, ok := handler.RequireActor(c)
	if !ok {
		return
	}

	var req user.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid user parameters")
		return
	}

	info, err := h.userService.CreateUser(c.Request.Context(), actor, &req)
	handler.MustSucceed(c, err, info)
}

type setUserStatusRequest struct {
	Status *int8 `json:"status" binding:"required"`
}

// SetUserStatus enables or disables an account
// @Summary Set account status
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "user ID"
// @Param request body setUserStatusRequest true "status"
// @Success 200 {object} response.Response
// @Router /api/v1/admin/users/{id}/status [put]
func (h *Handler) SetUserStatus(c *gin.Context) {
	actor, userID, ok := handler.RequireActorAndParseID(c, "user")
	if !ok {
		return
	}

	var req setUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid status parameters")
		return
	}

	err := h.userService.SetUserStatus(c.Request.Context(), actor, userID, *req.Status)
	handler.MustSucceed(c, err, nil)
}

// ListActivity returns activity log entries, newest first
// @Summary List activity log entries
// @Tags admin
// @Produce json
// @Security Bearer
// @Param user_id query int false "acting user filter"
// @Param action query string false "action filter"
// @Param target_type query string false "target type filter"
// @Param target_id query int false "target ID filter"
// @Param start_time query string false "start of range (YYYY-MM-DD)"
// @Param end_time query string false "end of range (YYYY-MM-DD)"
// @Success 200 {object} response.Response{data=response.PageData{list=[]activity.ActivityInfo}}
// @Router /api/v1/admin/activity [get]
func (h *Handler) ListActivity(c *gin.Context) {
	var req activity.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid list parameters")
		return
	}

	startTime, endTime, ok := handler.ParseQueryDateRange(c)
	if !ok {
		return
	}
	req.StartTime = startTime
	req.EndTime = endTime

	page := handler.BindPagination(c)

	entries, total, err := h.activityService.List(c.Request.Context(), &req, page.GetOffset(), page.GetLimit())
	handler.MustSucceedPage(c, err, entries, total, page.Page, page.PageSize)
}

// GetActivity returns a single activity log entry
// @Summary Get an activity log entry
// @Tags admin
// @Produce json
// @Security Bearer
// @Param id path int true "entry ID"
// @Success 200 {object} response.Response{data=activity.ActivityInfo}
// @Router /api/v1/admin/activity/{id} [get]
func (h *Handler) GetActivity(c *gin.Context) {
	id, ok := handler.ParseID(c, "activity entry")
	if !ok {
		return
	}

	info, err := h.activityService.Get(c.Request.Context(), id)
	handler.MustSucceed(c, err, info)
}
