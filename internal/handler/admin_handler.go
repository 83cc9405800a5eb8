package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/RentalBee/service-rental/internal/application"
	"github.com/RentalBee/service-rental/internal/common/auth"
	"github.com/RentalBee/service-rental/internal/common/middleware"
	"github.com/RentalBee/service-rental/internal/common/response"
)

// AdminHandler handles admin HTTP requests for catalogue management.
type AdminHandler struct {
	cars *application.CarService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(cars *application.CarService) *AdminHandler {
	return &AdminHandler{cars: cars}
}

// RegisterRoutes registers admin routes.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	adminRole := middleware.RequireRole(auth.RoleAdmin)

	admin := r.Group("/api/v1/admin")
	admin.Use(authMW, adminRole)
	{
		admin.POST("/cars", h.CreateCar)
		admin.POST("/locations", h.CreateLocation)
	}
}

// CreateCar handles POST /api/v1/admin/cars.
func (h *AdminHandler) CreateCar(c *gin.Context) {
	var req application.CreateCarRequest
	if !bindJSON(c, &req) {
		return
	}

	car, err := h.cars.CreateCar(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, car)
}

// CreateLocation handles POST /api/v1/admin/locations.
func (h *AdminHandler) CreateLocation(c *gin.Context) {
	var req application.CreateLocationRequest
	if !bindJSON(c, &req) {
		return
	}

	location, err := h.cars.CreateLocation(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, location)
}
