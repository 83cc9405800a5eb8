package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/RentalBee/service-rental/internal/application"
	"github.com/RentalBee/service-rental/internal/common/auth"
	"github.com/RentalBee/service-rental/internal/common/middleware"
	"github.com/RentalBee/service-rental/internal/common/response"
)

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service *application.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service *application.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	bookings := r.Group("/api/v1/bookings")
	bookings.Use(authMW)
	{
		bookings.POST("", middleware.RequireRole(auth.RoleClient), h.CreateBooking)
		bookings.GET("/user/:userId", h.ListUserBookings)
		bookings.GET("/details/:bookingId", h.GetBooking)
		bookings.PUT("/cancel/:bookingId", h.CancelBooking)
		bookings.PUT("/edit/:bookingId", h.EditBooking)
	}
}

// CreateBooking handles POST /api/v1/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req application.CreateBookingRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.ClientID != "" && req.ClientID != userID.String() {
		response.Forbidden(c, "you can only book for your own account")
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListUserBookings handles GET /api/v1/bookings/user/:userId.
func (h *BookingHandler) ListUserBookings(c *gin.Context) {
	userID, ok := paramID(c, "userId", "invalid user ID")
	if !ok || !selfOrStaff(c, userID) {
		return
	}

	page, limit := parsePagination(c)
	result, err := h.service.GetClientBookings(c.Request.Context(), userID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetBooking handles GET /api/v1/bookings/details/:bookingId.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, ok := paramID(c, "bookingId", "invalid booking ID")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	result, err := h.service.GetBooking(c.Request.Context(), bookingID, userID, middleware.IsStaff(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CancelBooking handles PUT /api/v1/bookings/cancel/:bookingId. The answer
// carries the message telling the client whether the cancel took effect
// or is waiting for support.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	bookingID, ok := paramID(c, "bookingId", "invalid booking ID")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	message, result, err := h.service.CancelBooking(c.Request.Context(), bookingID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Envelope{Success: true, Message: message, Data: result})
}

// EditBooking handles PUT /api/v1/bookings/edit/:bookingId.
func (h *BookingHandler) EditBooking(c *gin.Context) {
	bookingID, ok := paramID(c, "bookingId", "invalid booking ID")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req application.EditBookingRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.UserID != "" {
		if bodyID, err := uuid.Parse(req.UserID); err != nil || bodyID != userID {
			response.Forbidden(c, "you can only edit your own bookings")
			return
		}
	}

	result, err := h.service.EditBooking(c.Request.Context(), bookingID, userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
