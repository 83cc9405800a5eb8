package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/RentalBee/service-rental/internal/application"
	"github.com/RentalBee/service-rental/internal/common/auth"
	"github.com/RentalBee/service-rental/internal/common/middleware"
	"github.com/RentalBee/service-rental/internal/common/response"
)

// UserHandler handles profile and document requests.
type UserHandler struct {
	service *application.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *application.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// RegisterRoutes registers the user routes.
func (h *UserHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	users := r.Group("/api/v1/users")
	users.Use(authMW)
	{
		users.GET("/personal-info/:userId", h.GetPersonalInfo)
		users.PUT("/personal-info/:userId", h.UpdatePersonalInfo)
		users.PUT("/document/:userId/:docType", h.UploadDocument)
		users.GET("/document/:userId", h.GetDocuments)
	}
}

// GetPersonalInfo handles GET /api/v1/users/personal-info/:userId.
func (h *UserHandler) GetPersonalInfo(c *gin.Context) {
	userID, ok := paramID(c, "userId", "invalid user ID")
	if !ok || !selfOrStaff(c, userID) {
		return
	}

	result, err := h.service.GetPersonalInfo(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdatePersonalInfo handles PUT /api/v1/users/personal-info/:userId.
func (h *UserHandler) UpdatePersonalInfo(c *gin.Context) {
	userID, ok := paramID(c, "userId", "invalid user ID")
	if !ok || !selfOrStaff(c, userID) {
		return
	}

	var req application.UpdatePersonalInfoRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.service.UpdatePersonalInfo(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UploadDocument handles PUT /api/v1/users/document/:userId/:docType.
func (h *UserHandler) UploadDocument(c *gin.Context) {
	userID, ok := paramID(c, "userId", "invalid user ID")
	if !ok || !selfOrStaff(c, userID) {
		return
	}

	var req application.UploadDocumentRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.service.UploadDocument(c.Request.Context(), userID, c.Param("docType"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetDocuments handles GET /api/v1/users/document/:userId.
func (h *UserHandler) GetDocuments(c *gin.Context) {
	userID, ok := paramID(c, "userId", "invalid user ID")
	if !ok || !selfOrStaff(c, userID) {
		return
	}

	result, err := h.service.GetDocuments(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
