package httpx

import (
	"net/http"

	"github.com/sundayezeilo/linkshort/internal/errx"
)

// Fixed plain-text bodies.
const (
	BodyNotFound      = "404 Not Found"
	BodyInternalError = "Internal Server Error"
	BodyUnavailable   = "Service Unavailable"
)

// ErrorKindToStatus maps errx.Kind to HTTP status codes.
func ErrorKindToStatus(kind errx.Kind) int {
	switch kind {
	case errx.Invalid, errx.Conflict:
		return http.StatusBadRequest
	case errx.NotFound:
		return http.StatusNotFound
	case errx.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
