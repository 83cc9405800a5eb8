package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/RentalBee/service-rental/internal/application"
	"github.com/RentalBee/service-rental/internal/common/auth"
	"github.com/RentalBee/service-rental/internal/common/middleware"
	"github.com/RentalBee/service-rental/internal/common/response"
)

// FeedbackHandler handles review submissions and the public review feed.
type FeedbackHandler struct {
	service *application.FeedbackService
}

// NewFeedbackHandler creates a new FeedbackHandler.
func NewFeedbackHandler(service *application.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{service: service}
}

// RegisterRoutes registers the feedback routes.
func (h *FeedbackHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	feedbacks := r.Group("/api/v1/feedbacks")
	{
		feedbacks.POST("", authMW, middleware.RequireRole(auth.RoleClient), h.Submit)
		feedbacks.GET("/recent", h.Recent)
	}
}

// Submit handles POST /api/v1/feedbacks.
func (h *FeedbackHandler) Submit(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req application.SubmitFeedbackRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.ClientID != "" && req.ClientID != userID.String() {
		response.Forbidden(c, "you can only review your own bookings")
		return
	}

	result, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	if result.Created {
		response.Created(c, result.Review)
		return
	}
	response.Success(c, result.Review)
}

// Recent handles GET /api/v1/feedbacks/recent.
func (h *FeedbackHandler) Recent(c *gin.Context) {
	reviews, err := h.service.Recent(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, reviews)
}
