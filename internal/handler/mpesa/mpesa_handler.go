// Package mpesa provides the HTTP handlers for the M-Pesa STK flow.
// The callback and timeout endpoints are called by the gateway, not by
// clients, and must always acknowledge; an unacknowledged callback is
// retried by Safaricom.
package mpesa

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/safarinest/hotel-booking-backend/internal/common/handler"
	"github.com/safarinest/hotel-booking-backend/internal/common/logger"
	"github.com/safarinest/hotel-booking-backend/internal/common/response"
	mpesaService "github.com/safarinest/hotel-booking-backend/internal/service/mpesa"
)

// Handler serves the M-Pesa endpoints.
type Handler struct {
	mpesaService *mpesaService.Service
}

// NewHandler creates the M-Pesa handler.
func NewHandler(mpesaSvc *mpesaService.Service) *Handler {
	return &Handler{
		mpesaService: mpesaSvc,
	}
}

// InitiatePush sends the payment prompt to the customer's phone
// @Summary Initiate an STK push
// @Tags mpesa
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body mpesaService.InitiatePushRequest true "push"
// @Success 200 {object} response.Response{data=mpesaService.PushInfo}
// @Router /api/v1/payments/mpesa/initiate [post]
func (h *Handler) InitiatePush(c *gin.Context) {
	actor, ok := handler.RequireActor(c)
	if !ok {
		return
	}

	var req mpesaService.InitiatePushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid push parameters")
		return
	}

	info, err := h.mpesaService.InitiatePush(c.Request.Context(), actor, &req)
	handler.MustSucceed(c, err, info)
}

// gatewayAck is the acknowledgement format Daraja expects.
type gatewayAck struct {
	ResultCode int    `json:"ResultCode"`
	ResultDesc string `json:"ResultDesc"`
}

// Callback receives the asynchronous STK result from the gateway
// @Summary STK push callback (gateway only)
// @Tags mpesa
// @Accept json
// @Produce json
// @Success 200 {object} gatewayAck
// @Router /api/v1/payments/mpesa/callback [post]
func (h *Handler) Callback(c *gin.Context) {
	if err := h.mpesaService.HandleCallback(c.Request.Context(), c.Request.Body); err != nil {
		logger.Warn("mpesa callback not settled", logger.Err(err))
		c.JSON(http.StatusOK, gatewayAck{ResultCode: 1, ResultDesc: "Rejected"})
		return
	}
	c.JSON(http.StatusOK, gatewayAck{ResultCode: 0, ResultDesc: "Accepted"})
}

// timeoutPayload is the relevant part of the gateway's timeout post.
type timeoutPayload struct {
	CheckoutRequestID string `json:"CheckoutRequestID"`
}

// Timeout receives the gateway's timeout notification
// @Summary STK push timeout (gateway only)
// @Tags mpesa
// @Accept json
// @Produce json
// @Success 200 {object} gatewayAck
// @Router /api/v1/payments/mpesa/timeout [post]
func (h *Handler) Timeout(c *gin.Context) {
	var payload timeoutPayload
	if err := json.NewDecoder(c.Request.Body).Decode(&payload); err != nil || payload.CheckoutRequestID == "" {
		logger.Warn("mpesa timeout with unusable payload")
		c.JSON(http.StatusOK, gatewayAck{ResultCode: 1, ResultDesc: "Rejected"})
		return
	}

	if err := h.mpesaService.HandleTimeout(c.Request.Context(), payload.CheckoutRequestID); err != nil {
		logger.Warn("mpesa timeout not settled",
			logger.CheckoutRequestID(payload.CheckoutRequestID),
			logger.Err(err))
	}
	c.JSON(http.StatusOK, gatewayAck{ResultCode: 0, ResultDesc: "Accepted"})
}

// QueryStatus returns the payment settled state, polling the gateway
// while it is still pending
// @Summary Query an STK push
// @Tags mpesa
// @Produce json
// @Security Bearer
// @Param checkout_request_id path string true "checkout request ID"
// @Success 200 {object} response.Response{data=paymentService.PaymentInfo}
// @Router /api/v1/payments/mpesa/status/{checkout_request_id} [get]
func (h *Handler) QueryStatus(c *gin.Context) {
	actor, ok := handler.RequireActor(c)
	if !ok {
		return
	}
	checkoutRequestID := c.Param("checkout_request_id")
	if checkoutRequestID == "" {
		response.BadRequest(c, "checkout_request_id required")
		return
	}

	info, err := h.mpesaService.QueryStatus(c.Request.Context(), actor, checkoutRequestID)
	handler.MustSucceed(c, err, info)
}
