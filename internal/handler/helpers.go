package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/RentalBee/service-rental/internal/common/middleware"
	"github.com/RentalBee/service-rental/internal/common/response"
)

// parsePagination extracts page and limit query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}

// paramID parses a uuid path parameter, answering 400 with message when it is malformed.
func paramID(c *gin.Context, name, message string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, message)
		return uuid.Nil, false
	}
	return id, true
}

// currentUser returns the caller's id, answering 401 when the context has none.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return uuid.Nil, false
	}
	return userID, true
}

// selfOrStaff lets a user act on their own account; staff may act on any.
func selfOrStaff(c *gin.Context, userID uuid.UUID) bool {
	callerID, ok := currentUser(c)
	if !ok {
		return false
	}
	if callerID != userID && !middleware.IsStaff(c) {
		response.Forbidden(c, "you can only access your own account")
		return false
	}
	return true
}
