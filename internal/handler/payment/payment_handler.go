// Package payment provides the HTTP handlers for the payment ledger.
package payment

import (
	"github.com/gin-gonic/gin"

	"github.com/safarinest/hotel-booking-backend/internal/common/handler"
	"github.com/safarinest/hotel-booking-backend/internal/common/response"
	paymentService "github.com/safarinest/hotel-booking-backend/internal/service/payment"
)

// Handler serves the payment endpoints.
type Handler struct {
	paymentService *paymentService.Service
}

// NewHandler creates the payment handler.
func NewHandler(paymentSvc *paymentService.Service) *Handler {
	return &Handler{
		paymentService: paymentSvc,
	}
}

// Create records a payment against a booking
// @Summary Create a payment
// @Tags payments
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body paymentService.CreatePaymentRequest true "payment"
// @Success 200 {object} response.Response{data=paymentService.PaymentInfo}
// @Router /api/v1/payments [post]
func (h *Handler) Create(c *gin.Context) {
	actor, ok := handler.RequireActor(c)
	if !ok {
		return
	}

	var req paymentService.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid payment parameters")
		return
	}

	payment, err := h.paymentService.CreatePayment(c.Request.Context(), actor, &req)
	handler.MustSucceed(c, err, payment)
}

// Get returns one payment
// @Summary Get a payment
// @Tags payments
// @Produce json
// @Security Bearer
// @Param id path int true "payment ID"
// @Success 200 {object} response.Response{data=paymentService.PaymentInfo}
// @Router /api/v1/payments/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	actor, id, ok := handler.RequireActorAndParseID(c, "payment")
	if !ok {
		return
	}

	payment, err := h.paymentService.GetPayment(c.Request.Context(), actor, id)
	handler.MustSucceed(c, err, payment)
}

// GetByBooking returns the payment attached to a booking
// @Summary Get a booking's payment
// @Tags payments
// @Produce json
// @Security Bearer
// @Param id path int true "booking ID"
// @Success 200 {object} response.Response{data=paymentService.PaymentInfo}
// @Router /api/v1/bookings/{id}/payment [get]
func (h *Handler) GetByBooking(c *gin.Context) {
	actor, bookingID, ok := handler.RequireActorAndParseID(c, "booking")
	if !ok {
		return
	}

	payment, err := h.paymentService.GetPaymentByBooking(c.Request.Context(), actor, bookingID)
	handler.MustSucceed(c, err, payment)
}

// ListMine returns the caller's payments
// @Summary List my payments
// @Tags payments
// @Produce json
// @Security Bearer
// @Param page query int false "page"
// @Param page_size query int false "page size"
// @Success 200 {object} response.Response{data=response.PageData{list=[]paymentService.PaymentInfo}}
// @Router /api/v1/payments/my [get]
func (h *Handler) ListMine(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}
	page := handler.BindPagination(c)

	payments, total, err := h.paymentService.ListMyPayments(c.Request.Context(), userID, page.GetOffset(), page.PageSize)
	handler.MustSucceedPage(c, err, payments, total, page.Page, page.PageSize)
}

// List returns payments matching the filters. Staff only.
// @Summary List payments
// @Tags payments
// @Produce json
// @Security Bearer
// @Param user_id query int false "filter by user"
// @Param booking_id query int false "filter by booking"
// @Param method query string false "filter by method"
// @Param status query string false "filter by status"
// @Param page query int false "page"
// @Param page_size query int false "page size"
// @Success 200 {object} response.Response{data=response.PageData{list=[]paymentService.PaymentInfo}}
// @Router /api/v1/payments [get]
func (h *Handler) List(c *gin.Context) {
	var req paymentService.ListPaymentsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid filter parameters")
		return
	}
	page := handler.BindPagination(c)

	payments, total, err := h.paymentService.ListPayments(c.Request.Context(), &req, page.GetOffset(), page.PageSize)
	handler.MustSucceedPage(c, err, payments, total, page.Page, page.PageSize)
}

// updateStatusRequest drives a ledger transition.
type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus applies a ledger transition
// @Summary Update payment status
// @Tags payments
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "payment ID"
// @Param request body updateStatusRequest true "target status"
// @Success 200 {object} response.Response{data=paymentService.PaymentInfo}
// @Router /api/v1/payments/{id}/status [put]
func (h *Handler) UpdateStatus(c *gin.Context) {
	actor, id, ok := handler.RequireActorAndParseID(c, "payment")
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "status required")
		return
	}

	payment, err := h.paymentService.UpdateStatus(c.Request.Context(), actor, id, req.Status)
	handler.MustSucceed(c, err, payment)
}

// updateAmountRequest corrects the amount.
type updateAmountRequest struct {
	Amount float64 `json:"amount" binding:"required"`
}

// UpdateAmount corrects the amount on an unsettled payment
// @Summary Update payment amount
// @Tags payments
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "payment ID"
// @Param request body updateAmountRequest true "amount"
// @Success 200 {object} response.Response{data=paymentService.PaymentInfo}
// @Router /api/v1/payments/{id}/amount [put]
func (h *Handler) UpdateAmount(c *gin.Context) {
	actor, id, ok := handler.RequireActorAndParseID(c, "payment")
	if !ok {
		return
	}

	var req updateAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "amount required")
		return
	}

	payment, err := h.paymentService.UpdateAmount(c.Request.Context(), actor, id, req.Amount)
	handler.MustSucceed(c, err, payment)
}

// Delete removes an unsettled payment
// @Summary Delete a payment
// @Tags payments
// @Produce json
// @Security Bearer
// @Param id path int true "payment ID"
// @Success 200 {object} response.Response
// @Router /api/v1/payments/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	actor, id, ok := handler.RequireActorAndParseID(c, "payment")
	if !ok {
		return
	}

	err := h.paymentService.DeletePayment(c.Request.Context(), actor, id)
	handler.MustSucceed(c, err, nil)
}

// Statistics aggregates the ledger
// @Summary Payment statistics
// @Tags payments
// @Produce json
// @Security Bearer
// @Param start_date query string false "paid from (YYYY-MM-DD)"
// @Param end_date query string false "paid to (YYYY-MM-DD)"
// @Success 200 {object} response.Response{data=repository.PaymentStatistics}
// @Router /api/v1/payments/statistics [get]
func (h *Handler) Statistics(c *gin.Context) {
	from, to, ok := handler.ParseQueryDateRange(c)
	if !ok {
		return
	}

	stats, err := h.paymentService.Statistics(c.Request.Context(), from, to)
	handler.MustSucceed(c, err, stats)
}
