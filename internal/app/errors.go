package app

import (
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/metinatakli/cinema-seat-booking/api"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	appvalidator "github.com/metinatakli/cinema-seat-booking/internal/validator"
)

const (
	CodeSeatsTaken             = "seats_taken"
	CodeReconciliationRequired = "reconciliation_required"
	CodeInvalidSignature       = "invalid_signature"
	CodeGatewayUnavailable     = "payment_gateway_unavailable"
)

func (app *Application) logError(r *http.Request, err error) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.contextGetLogger(r).Error(err.Error(), "method", method, "uri", uri)
}

// The errorResponse() method is a generic helper for sending JSON-formatted error
// messages to the client with a given status code.
func (app *Application) errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	app.errorResponseWithCode(w, r, status, "", message)
}

func (app *Application) errorResponseWithCode(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	resp := api.ErrorResponse{
		Message:   message,
		Code:      code,
		RequestId: middleware.GetReqID(r.Context()),
		Timestamp: time.Now(),
	}

	err := app.writeJSON(w, status, resp, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(500)
	}
}

func (app *Application) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)

	message := "The server encountered a problem and could not process your request"
	app.errorResponse(w, r, http.StatusInternalServerError, message)
}

func (app *Application) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	message := "The requested resource not found"
	app.errorResponse(w, r, http.StatusNotFound, message)
}

func (app *Application) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	message := "The method is not supported for this resource"
	app.errorResponse(w, r, http.StatusMethodNotAllowed, message)
}

func (app *Application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (app *Application) conflictResponse(w http.ResponseWriter, r *http.Request, message string) {
	app.errorResponse(w, r, http.StatusConflict, message)
}

func (app *Application) validationErrorResponse(w http.ResponseWriter, r *http.Request, validationErrors []api.ValidationError) {
	resp := api.ValidationErrorResponse{
		Message:          "One or more fields are invalid",
		ValidationErrors: validationErrors,
		RequestId:        middleware.GetReqID(r.Context()),
		Timestamp:        time.Now(),
	}

	err := app.writeJSON(w, http.StatusUnprocessableEntity, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) failedValidationResponse(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		app.validationErrorResponse(w, r, []api.ValidationError{{Field: "body", Issue: err.Error()}})
		return
	}

	validationErrors := make([]api.ValidationError, len(validationErrs))
	for i, vErr := range validationErrs {
		validationErrors[i] = api.ValidationError{
			Field: vErr.Namespace(),
			Issue: appvalidator.ValidationMessage(vErr),
		}
	}

	app.validationErrorResponse(w, r, validationErrors)
}

// bookingErrorResponse maps the booking error taxonomy to HTTP responses.
func (app *Application) bookingErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	logger := app.contextGetLogger(r)

	var (
		recErr      *domain.ReconciliationRequiredError
		conflictErr *domain.ConflictError
	)

	switch {
	case errors.As(err, &recErr):
		logger.Warn("paid order requires reconciliation", "order_id", recErr.OrderID, "reason", recErr.Reason)
		app.conflictDetailResponse(w, r, CodeReconciliationRequired,
			"Payment was received but the seats could not be booked. The order will be reconciled.",
			recErr.OrderID, recErr.Reason, recErr.TakenSeats)
	case errors.As(err, &conflictErr):
		app.conflictDetailResponse(w, r, CodeSeatsTaken,
			"Some of the selected seats are already reserved", "", "", conflictErr.Seats)
	case errors.Is(err, domain.ErrValidation):
		app.validationErrorResponse(w, r, []api.ValidationError{{Field: "body", Issue: err.Error()}})
	case errors.Is(err, domain.ErrSignature):
		logger.Warn("rejected payment confirmation", "error", err)
		app.errorResponseWithCode(w, r, http.StatusBadRequest, CodeInvalidSignature, "Payment signature is invalid")
	case errors.Is(err, domain.ErrRecordNotFound):
		app.notFoundResponse(w, r)
	case errors.Is(err, domain.ErrGateway):
		logger.Error("payment gateway failure", "error", err)
		app.errorResponseWithCode(w, r, http.StatusBadGateway, CodeGatewayUnavailable,
			"The payment provider is unavailable, please try again")
	default:
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) conflictDetailResponse(
	w http.ResponseWriter,
	r *http.Request,
	code, message, orderID, reason string,
	takenSeats []int) {

	resp := api.ConflictResponse{
		ErrorResponse: api.ErrorResponse{
			Message:   message,
			Code:      code,
			RequestId: middleware.GetReqID(r.Context()),
			Timestamp: time.Now(),
		},
		OrderId:    orderID,
		Reason:     reason,
		TakenSeats: takenSeats,
	}

	err := app.writeJSON(w, http.StatusConflict, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
