package handler

import (
	"errors"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/RentalBee/service-rental/internal/common/response"
	bookingDomain "github.com/RentalBee/service-rental/internal/domain/booking"
)

var registerOnce sync.Once

// RegisterValidators installs the custom binding tags on gin's validator.
// Safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("rentaltime", func(fl validator.FieldLevel) bool {
			_, err := bookingDomain.ParseDateTime(fl.Field().String())
			return err == nil
		})
	})
}

// bindJSON binds the request body into req and writes the failure response
// when that is not possible. A malformed rental time keeps its booking error
// code so clients see the same answer as from the service layer.
func bindJSON(c *gin.Context, req interface{}) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Tag() == "rentaltime" {
				response.Error(c, bookingDomain.ErrInvalidDateTime)
				return false
			}
		}
	}
	response.BadRequest(c, err.Error())
	return false
}
