// Package booking provides the HTTP handlers for the booking lifecycle.
package booking

import (
	"github.com/gin-gonic/gin"

	"github.com/safarinest/hotel-booking-backend/internal/common/handler"
	"github.com/safarinest/hotel-booking-backend/internal/common/response"
	bookingService "github.com/safarinest/hotel-booking-backend/internal/service/booking"
)

// Handler serves the booking endpoints.
type Handler struct {
	bookingService *bookingService.Service
}

// NewHandler creates the booking handler.
func NewHandler(bookingSvc *bookingService.Service) *Handler {
	return &Handler{
		bookingService: bookingSvc,
	}
}

// Create places a booking
// @Summary Create a booking
// @Tags bookings
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body bookingService.CreateBookingRequest true "booking"
// @Success 200 {object} response.Response{data=bookingService.BookingInfo}
// @Router /api/v1/bookings [post]
func (h *Handler) Create(c *gin.Context) {
	actor, ok := handler.RequireActor(c)
	if !ok {
		return
	}

	var req bookingService.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid booking parameters")
		return
	}

	booking, err := h.bookingService.CreateBooking(c.Request.Context(), actor, &req)
	handler.MustSucceed(c, err, booking)
}

// ListMine returns the caller's bookings
// @Summary List my bookings
// @Tags bookings
// @Produce json
// @Security Bearer
// @Param page query int false "page"
// @Param page_size query int false "page size"
// @Success 200 {object} response.Response{data=response.PageData{list=[]bookingService.BookingInfo}}
// @Router /api/v1/bookings/my [get]
func (h *Handler) ListMine(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}
	page := handler.BindPagination(c)

	bookings, total, err := h.bookingService.ListMyBookings(c.Request.Context(), userID, page.GetOffset(), page.PageSize)
	handler.MustSucceedPage(c, err, bookings, total, page.Page, page.PageSize)
}

// Get returns one booking
// @Summary Get a booking
// @Tags bookings
// @Produce json
// @Security Bearer
// @Param id path int true "booking ID"
// @Success 200 {object} response.Response{data=bookingService.BookingInfo}
// @Router /api/v1/bookings/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	actor, id, ok := handler.RequireActorAndParseID(c, "booking")
	if !ok {
		return
	}

	booking, err := h.bookingService.GetBooking(c.Request.Context(), actor, id)
	handler.MustSucceed(c, err, booking)
}

// List returns bookings matching the filters. Staff only.
// @Summary List bookings
// @Tags bookings
// @Produce json
// @Security Bearer
// @Param user_id query int false "filter by user"
// @Param room_id query int false "filter by room"
// @Param status query string false "filter by status"
// @Param start_date query string false "check-in from (YYYY-MM-DD)"
// @Param end_date query string false "check-in to (YYYY-MM-DD)"
// @Param page query int false "page"
// @Param page_size query int false "page size"
// @Success 200 {object} response.Response{data=response.PageData{list=[]bookingService.BookingInfo}}
// @Router /api/v1/bookings [get]
func (h *Handler) List(c *gin.Context) {
	var req bookingService.ListBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid filter parameters")
		return
	}
	from, to, ok := handler.ParseQueryDateRange(c)
	if !ok {
		return
	}
	req.CheckInFrom = from
	req.CheckInTo = to
	page := handler.BindPagination(c)

	bookings, total, err := h.bookingService.ListBookings(c.Request.Context(), &req, page.GetOffset(), page.PageSize)
	handler.MustSucceedPage(c, err, bookings, total, page.Page, page.PageSize)
}

// Cancel cancels a booking
// @Summary Cancel a booking
// @Tags bookings
// @Produce json
// @Security Bearer
// @Param id path int true "booking ID"
// @Success 200 {object} response.Response
// @Router /api/v1/bookings/{id}/cancel [post]
func (h *Handler) Cancel(c *gin.Context) {
	actor, id, ok := handler.RequireActorAndParseID(c, "booking")
	if !ok {
		return
	}

	err := h.bookingService.CancelBooking(c.Request.Context(), actor, id)
	handler.MustSucceed(c, err, nil)
}

// updateStatusRequest drives a lifecycle transition.
type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus applies a staff lifecycle transition
// @Summary Update booking status
// @Tags bookings
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "booking ID"
// @Param request body updateStatusRequest true "target status"
// @Success 200 {object} response.Response{data=bookingService.BookingInfo}
// @Router /api/v1/bookings/{id}/status [put]
func (h *Handler) UpdateStatus(c *gin.Context) {
	actor, id, ok := handler.RequireActorAndParseID(c, "booking")
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "status required")
		return
	}

	booking, err := h.bookingService.UpdateStatus(c.Request.Context(), actor, id, req.Status)
	handler.MustSucceed(c, err, booking)
}

// Update reschedules a booking
// @Summary Reschedule a booking
// @Tags bookings
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "booking ID"
// @Param request body bookingService.UpdateBookingRequest true "changes"
// @Success 200 {object} response.Response{data=bookingService.BookingInfo}
// @Router /api/v1/bookings/{id} [put]
func (h *Handler) Update(c *gin.Context) {
	actor, id, ok := handler.RequireActorAndParseID(c, "booking")
	if !ok {
		return
	}

	var req bookingService.UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid booking parameters")
		return
	}

	booking, err := h.bookingService.UpdateBooking(c.Request.Context(), actor, id, &req)
	handler.MustSucceed(c, err, booking)
}

// Delete removes a booking
// @Summary Delete a booking
// @Tags bookings
// @Produce json
// @Security Bearer
// @Param id path int true "booking ID"
// @Success 200 {object} response.Response
// @Router /api/v1/bookings/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	actor, id, ok := handler.RequireActorAndParseID(c, "booking")
	if !ok {
		return
	}

	err := h.bookingService.DeleteBooking(c.Request.Context(), actor, id)
	handler.MustSucceed(c, err, nil)
}
