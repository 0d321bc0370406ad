package httpadapter

import (
	"net/http"

	"github.com/kirillkom/hybrid-search/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrUnavailable), domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
