package httpx

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// Sentinel errors shared across domain packages.
var (
	ErrNotFound    = errors.New("resource not found")
	ErrDuplicate   = errors.New("duplicate entry")
	ErrValidation  = errors.New("validation failed")
	ErrConflict    = errors.New("state conflict")
	ErrRateLimited = errors.New("too many requests")
)

// RespondError maps domain errors to envelope responses. Internal errors
// never leak details to the client.
func RespondError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		Fail(w, http.StatusBadRequest, "validation failed", validationFields(verrs)...)
	case errors.Is(err, ErrNotFound):
		Fail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrDuplicate):
		Fail(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrConflict):
		Fail(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrValidation):
		Fail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrRateLimited):
		Fail(w, http.StatusTooManyRequests, err.Error())
	default:
		Fail(w, http.StatusInternalServerError, "internal error")
	}
}

func validationFields(verrs validator.ValidationErrors) []FieldError {
	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Field:   fe.Field(),
			Message: "failed on rule " + fe.Tag(),
		})
	}
	return fields
}
