package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/RentalBee/service-rental/internal/application"
	"github.com/RentalBee/service-rental/internal/common/auth"
	"github.com/RentalBee/service-rental/internal/common/middleware"
	"github.com/RentalBee/service-rental/internal/common/response"
)

// SupportHandler handles back-office requests of support agents and admins.
type SupportHandler struct {
	bookings *application.BookingService
	users    *application.UserService
	reports  *application.ReportService
}

// NewSupportHandler creates a new SupportHandler.
func NewSupportHandler(bookings *application.BookingService, users *application.UserService, reports *application.ReportService) *SupportHandler {
	return &SupportHandler{bookings: bookings, users: users, reports: reports}
}

// RegisterRoutes registers support routes.
func (h *SupportHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	staffRole := middleware.RequireRole(auth.RoleSupportAgent, auth.RoleAdmin)

	support := r.Group("/api/v1/support")
	support.Use(authMW, staffRole)
	{
		support.GET("/orders", h.ListOrders)
		support.POST("/reservations/:bookingId", h.ReviewReservation)
		support.POST("/cancel-requests/:bookingId/reject", h.RejectCancelRequest)
		support.GET("/stats/bookings", h.BookingStats)
		support.PUT("/users/:userId/documents/:docType", h.SetDocumentStatus)
		support.GET("/reports/sales", h.SalesReport)
		support.GET("/reports/staff", h.StaffReport)
	}
}

// ListOrders handles GET /api/v1/support/orders.
func (h *SupportHandler) ListOrders(c *gin.Context) {
	page, limit := parsePagination(c)

	bookings, total, err := h.bookings.ListAllBookings(c.Request.Context(), c.Query("status"), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, bookings, total, page, limit)
}

// ReviewReservation handles POST /api/v1/support/reservations/:bookingId.
func (h *SupportHandler) ReviewReservation(c *gin.Context) {
	bookingID, ok := paramID(c, "bookingId", "invalid booking ID")
	if !ok {
		return
	}
	agentID, ok := currentUser(c)
	if !ok {
		return
	}

	var req application.ChangeStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.bookings.ChangeStatusBySupport(c.Request.Context(), bookingID, req.Status, agentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// RejectCancelRequest handles POST /api/v1/support/cancel-requests/:bookingId/reject.
func (h *SupportHandler) RejectCancelRequest(c *gin.Context) {
	bookingID, ok := paramID(c, "bookingId", "invalid booking ID")
	if !ok {
		return
	}
	agentID, ok := currentUser(c)
	if !ok {
		return
	}

	result, err := h.bookings.RejectCancelRequest(c.Request.Context(), bookingID, agentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// BookingStats handles GET /api/v1/support/stats/bookings.
func (h *SupportHandler) BookingStats(c *gin.Context) {
	stats, err := h.bookings.GetBookingStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}

// SetDocumentStatus handles PUT /api/v1/support/users/:userId/documents/:docType.
func (h *SupportHandler) SetDocumentStatus(c *gin.Context) {
	userID, ok := paramID(c, "userId", "invalid user ID")
	if !ok {
		return
	}
	agentID, ok := currentUser(c)
	if !ok {
		return
	}

	var req application.SetDocumentStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.users.SetDocumentStatus(c.Request.Context(), userID, c.Param("docType"), req, agentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// SalesReport handles GET /api/v1/support/reports/sales.
func (h *SupportHandler) SalesReport(c *gin.Context) {
	var q application.ReportPeriodQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	report, err := h.reports.Sales(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, report)
}

// StaffReport handles GET /api/v1/support/reports/staff.
func (h *SupportHandler) StaffReport(c *gin.Context) {
	var q application.ReportPeriodQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	report, err := h.reports.StaffPerformance(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, report)
}
