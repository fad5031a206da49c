// Package room provides the HTTP handlers for the room registry.
package room

import (
	"github.com/gin-gonic/gin"

	"github.com/safarinest/hotel-booking-backend/internal/common/handler"
	"github.com/safarinest/hotel-booking-backend/internal/common/response"
	bookingService "github.com/safarinest/hotel-booking-backend/internal/service/booking"
	roomService "github.com/safarinest/hotel-booking-backend/internal/service/room"
)

// Handler serves the room endpoints.
type Handler struct {
	roomService    *roomService.Service
	bookingService *bookingService.Service
}

// NewHandler creates the room handler.
func NewHandler(roomSvc *roomService.Service, bookingSvc *bookingService.Service) *Handler {
	return &Handler{
		roomService:    roomSvc,
		bookingService: bookingSvc,
	}
}

// List returns rooms matching the filters
// @Summary List rooms
// @Tags rooms
// @Produce json
// @Param status query string false "room status"
// @Param room_type query string false "room type"
// @Param min_price query number false "minimum nightly price"
// @Param max_price query number false "maximum nightly price"
// @Param page query int false "page"
// @Param page_size query int false "page size"
// @Success 200 {object} response.Response{data=response.PageData{list=[]roomService.RoomInfo}}
// @Router /api/v1/rooms [get]
func (h *Handler) List(c *gin.Context) {
	var req roomService.ListRoomsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid filter parameters")
		return
	}
	page := handler.BindPagination(c)

	rooms, total, err := h.roomService.ListRooms(c.Request.Context(), &req, page.GetOffset(), page.PageSize)
	handler.MustSucceedPage(c, err, rooms, total, page.Page, page.PageSize)
}

// Get returns one room
// @Summary Get a room
// @Tags rooms
// @Produce json
// @Param id path int true "room ID"
// @Success 200 {object} response.Response{data=roomService.RoomInfo}
// @Router /api/v1/rooms/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	id, ok := handler.ParseID(c, "room")
	if !ok {
		return
	}

	room, err := h.roomService.GetRoom(c.Request.Context(), id)
	handler.MustSucceed(c, err, room)
}

// CheckAvailability reports whether a date range is free
// @Summary Check room availability
// @Tags rooms
// @Produce json
// @Param id path int true "room ID"
// @Param check_in query string true "check-in date (YYYY-MM-DD)"
// @Param check_out query string true "check-out date (YYYY-MM-DD)"
// @Success 200 {object} response.Response{data=bookingService.AvailabilityInfo}
// @Router /api/v1/rooms/{id}/availability [get]
func (h *Handler) CheckAvailability(c *gin.Context) {
	id, ok := handler.ParseID(c, "room")
	if !ok {
		return
	}
	checkIn, err := handler.ParseDate(c.Query("check_in"))
	if err != nil {
		response.BadRequest(c, "invalid check_in date")
		return
	}
	checkOut, err := handler.ParseDate(c.Query("check_out"))
	if err != nil {
		response.BadRequest(c, "invalid check_out date")
		return
	}

	info, err := h.bookingService.CheckAvailability(c.Request.Context(), id, checkIn, checkOut)
	handler.MustSucceed(c, err, info)
}

// Create registers a room
// @Summary Create a room
// @Tags rooms
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body roomService.CreateRoomRequest true "room"
// @Success 200 {object} response.Response{data=roomService.RoomInfo}
// @Router /api/v1/rooms [post]
func (h *Handler) Create(c *gin.Context) {
	actor, ok := handler.RequireActor(c)
	if !ok {
		return
	}

	var req roomService.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid room parameters")
		return
	}

	room, err := h.roomService.CreateRoom(c.Request.Context(), actor, &req)
	handler.MustSucceed(c, err, room)
}

// Update applies a partial room update
// @Summary Update a room
// @Tags rooms
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "room ID"
// @Param request body roomService.UpdateRoomRequest true "changes"
// @Success 200 {object} response.Response{data=roomService.RoomInfo}
// @Router /api/v1/rooms/{id} [put]
func (h *Handler) Update(c *gin.Context) {
	actor, id, ok := handler.RequireActorAndParseID(c, "room")
	if !ok {
		return
	}

	var req roomService.UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid room parameters")
		return
	}

	room, err := h.roomService.UpdateRoom(c.Request.Context(), actor, id, &req)
	handler.MustSucceed(c, err, room)
}

// setStatusRequest places a room in an explicit status.
type setStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetStatus sets a room's status
// @Summary Set room status
// @Tags rooms
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "room ID"
// @Param request body setStatusRequest true "status"
// @Success 200 {object} response.Response
// @Router /api/v1/rooms/{id}/status [put]
func (h *Handler) SetStatus(c *gin.Context) {
	actor, id, ok := handler.RequireActorAndParseID(c, "room")
	if !ok {
		return
	}

	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "status required")
		return
	}

	err := h.roomService.SetStatus(c.Request.Context(), actor, id, req.Status)
	handler.MustSucceed(c, err, nil)
}

// Delete removes a room
// @Summary Delete a room
// @Tags rooms
// @Produce json
// @Security Bearer
// @Param id path int true "room ID"
// @Success 200 {object} response.Response
// @Router /api/v1/rooms/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	actor, id, ok := handler.RequireActorAndParseID(c, "room")
	if !ok {
		return
	}

	err := h.roomService.DeleteRoom(c.Request.Context(), actor, id)
	handler.MustSucceed(c, err, nil)
}
