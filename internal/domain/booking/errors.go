package booking

import "github.com/RentalBee/service-rental/internal/common/domain"

// Machine-readable failure codes returned by the booking engine.
const (
	CodeMissingFields      = "MISSING_FIELDS"
	CodeUnverifiedDocument = "UNVERIFIED_DOCUMENT"
	CodeInvalidDateRange   = "INVALID_DATE_RANGE"
	CodeInvalidPickupTime  = "INVALID_PICKUP_TIME"
	CodeInvalidDateTime    = "INVALID_DATETIME"
	CodeCarNotFound        = "CAR_NOT_FOUND"
	CodeInvalidLocation    = "INVALID_LOCATION"
	CodeOverlap            = "OVERLAP"
	CodeBookingNotFound    = "BOOKING_NOT_FOUND"
	CodeNotCancelable      = "NOT_CANCELABLE"
	CodeNotEditable        = "NOT_EDITABLE"
	CodeInvalidStatus      = "INVALID_STATUS"
	CodeNoPendingCancel    = "NO_PENDING_CANCEL_REQUEST"
	CodeNotOwner           = "FORBIDDEN"
)

var (
	ErrMissingFields      = domain.NewCodedValidationError(CodeMissingFields, "All fields are required.")
	ErrUnverifiedDocument = domain.NewCodedValidationError(CodeUnverifiedDocument, "Your identity and driving license documents must be verified before booking.")
	ErrInvalidDateRange   = domain.NewCodedValidationError(CodeInvalidDateRange, "Dropoff must be after pickup.")
	ErrInvalidPickupTime  = domain.NewCodedValidationError(CodeInvalidPickupTime, "Pickup time must be at least 24 hours from now.")
	ErrInvalidDateTime    = domain.NewCodedValidationError(CodeInvalidDateTime, "Invalid date format. Use \"YYYY-MM-DD HH:mm\".")
	ErrCarNotFound        = domain.NewCodedNotFoundError(CodeCarNotFound, "Car not found.")
	ErrInvalidLocation    = domain.NewCodedValidationError(CodeInvalidLocation, "Selected pickup or dropoff location is not available for this car.")
	ErrOverlap            = domain.NewCodedConflictError(CodeOverlap, "This car is already booked during the selected time period.")
	ErrBookingNotFound    = domain.NewCodedNotFoundError(CodeBookingNotFound, "Booking not found.")
	ErrNotCancelable      = domain.NewCodedInvalidStateError(CodeNotCancelable, "Only bookings with RESERVED or BOOKED status can be canceled.")
	ErrNotEditable        = domain.NewCodedInvalidStateError(CodeNotEditable, "Only RESERVED bookings can be edited.")
	ErrInvalidStatus      = domain.NewCodedValidationError(CodeInvalidStatus, "Status must be one of RESERVED, SERVICESTARTED, SERVICEPROVIDED, CANCELED.")
	ErrNoPendingCancel    = domain.NewCodedInvalidStateError(CodeNoPendingCancel, "Booking has no pending cancel request.")
	ErrNotOwner           = domain.NewForbiddenError("You are not authorized to change this booking.")
)
