package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for the domain layer. Wrap them to add detail.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnavailable  = errors.New("unavailable")
)

var problems = []struct {
	err    error
	status int
	title  string
}{
	{ErrNotFound, http.StatusNotFound, "Not Found"},
	{ErrConflict, http.StatusConflict, "Conflict"},
	{ErrValidation, http.StatusBadRequest, "Validation Failed"},
	{ErrForbidden, http.StatusForbidden, "Forbidden"},
	{ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
	{ErrUnavailable, http.StatusServiceUnavailable, "Service Unavailable"},
}

// Status returns the HTTP status RespondError uses for err.
func Status(err error) int {
	for _, p := range problems {
		if errors.Is(err, p.err) {
			return p.status
		}
	}
	return http.StatusInternalServerError
}

// RespondError maps domain errors to HTTP responses using RFC7807. Details of
// unavailable and unknown errors are not exposed.
func RespondError(w http.ResponseWriter, err error) {
	for _, p := range problems {
		if !errors.Is(err, p.err) {
			continue
		}
		detail := err.Error()
		if p.status == http.StatusServiceUnavailable {
			detail = ""
		}
		Problem(w, p.status, p.title, detail)
		return
	}
	Problem(w, http.StatusInternalServerError, "Internal Error", "")
}
