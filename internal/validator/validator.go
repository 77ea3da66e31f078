package validator

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

const (
	ErrRequired       = "is required"
	ErrEmail          = "must be a valid email address"
	ErrPhone          = "must be a valid phone number in E.164 format"
	ErrMinLength      = "must contain at least %s item(s)"
	ErrMaxLength      = "must contain at most %s item(s)"
	ErrGreaterThan    = "must be greater than %s"
	ErrWeekday        = "must be one of Sun, Mon, Tue, Wed, Thu, Fri, Sat"
	ErrMonth          = "must be a lower case three letter month (jan..dec)"
	ErrDayOfMonth     = "must be a two digit day of month"
	ErrRequiredOneOf  = "either email or phone is required"
	ErrDefaultInvalid = "is invalid"
)

func NewValidator() *validator.Validate {
	validator := validator.New(validator.WithRequiredStructEnabled())

	validator.RegisterValidation("weekday", validateWeekday)
	validator.RegisterValidation("month", validateMonth)
	validator.RegisterValidation("daydate", validateDayOfMonth)

	return validator
}

func validateWeekday(fl validator.FieldLevel) bool {
	return domain.IsWeekday(fl.Field().String())
}

func validateMonth(fl validator.FieldLevel) bool {
	return domain.IsMonth(fl.Field().String())
}

func validateDayOfMonth(fl validator.FieldLevel) bool {
	return domain.IsDayOfMonth(fl.Field().String())
}

// ValidationMessage converts validator errors into readable messages
func ValidationMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return ErrRequired
	case "required_without":
		return ErrRequiredOneOf
	case "email":
		return ErrEmail
	case "e164":
		return ErrPhone
	case "min":
		return fmt.Sprintf(ErrMinLength, err.Param())
	case "max":
		return fmt.Sprintf(ErrMaxLength, err.Param())
	case "gt":
		return fmt.Sprintf(ErrGreaterThan, err.Param())
	case "weekday":
		return ErrWeekday
	case "month":
		return ErrMonth
	case "daydate":
		return ErrDayOfMonth
	default:
		return ErrDefaultInvalid
	}
}
