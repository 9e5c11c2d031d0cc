package httpadapter

import (
	"net/http"

	"github.com/kirillkom/media-recommender/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrUnknownItem):
		return http.StatusNotFound
	case domain.IsDomainUnavailable(err), domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publicErrorMessage keeps internal causes such as file paths out of
// responses for server-side failures.
func publicErrorMessage(status int, err error) string {
	switch status {
	case http.StatusBadRequest, http.StatusNotFound:
		return err.Error()
	case http.StatusServiceUnavailable:
		return "domain temporarily unavailable"
	default:
		return "internal error"
	}
}
