package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/RentalBee/service-rental/internal/application"
	"github.com/RentalBee/service-rental/internal/common/response"
)

// CarHandler serves the public car catalogue and the home page data.
type CarHandler struct {
	service *application.CarService
}

// NewCarHandler creates a new CarHandler.
func NewCarHandler(service *application.CarService) *CarHandler {
	return &CarHandler{service: service}
}

// RegisterRoutes registers the catalogue routes. None of them need a token.
func (h *CarHandler) RegisterRoutes(r *gin.RouterGroup) {
	cars := r.Group("/api/v1/cars")
	{
		cars.GET("", h.ListCars)
		cars.GET("/popular", h.PopularCars)
		cars.GET("/:carId", h.GetCar)
		cars.GET("/:carId/booked-days", h.BookedDays)
		cars.GET("/:carId/client-review", h.ClientReviews)
	}

	home := r.Group("/api/v1/home")
	{
		home.GET("/locations", h.Locations)
	}
}

// ListCars handles GET /api/v1/cars.
func (h *CarHandler) ListCars(c *gin.Context) {
	var q application.ListCarsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.ListCars(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// PopularCars handles GET /api/v1/cars/popular.
func (h *CarHandler) PopularCars(c *gin.Context) {
	cars, err := h.service.PopularCars(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, cars)
}

// GetCar handles GET /api/v1/cars/:carId.
func (h *CarHandler) GetCar(c *gin.Context) {
	carID, ok := paramID(c, "carId", "invalid car ID")
	if !ok {
		return
	}

	car, err := h.service.GetCar(c.Request.Context(), carID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, car)
}

// BookedDays handles GET /api/v1/cars/:carId/booked-days.
func (h *CarHandler) BookedDays(c *gin.Context) {
	carID, ok := paramID(c, "carId", "invalid car ID")
	if !ok {
		return
	}

	days, err := h.service.BookedDays(c.Request.Context(), carID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, days)
}

// ClientReviews handles GET /api/v1/cars/:carId/client-review.
func (h *CarHandler) ClientReviews(c *gin.Context) {
	carID, ok := paramID(c, "carId", "invalid car ID")
	if !ok {
		return
	}
	page, limit := parsePagination(c)

	result, err := h.service.ClientReviews(c.Request.Context(), carID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// Locations handles GET /api/v1/home/locations.
func (h *CarHandler) Locations(c *gin.Context) {
	locations, err := h.service.Locations(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, locations)
}
