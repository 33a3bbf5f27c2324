package http

import (
	"net/http"

	"github.com/innkeep/innkeep/internal/identity/domain"
	"github.com/innkeep/innkeep/pkg/httpx"
	"github.com/innkeep/innkeep/pkg/slogx"
)

// ErrorResponse is the JSON error body for every failure.
type ErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// writeDomainError maps a domain error kind to a status code. Non-domain
// errors are internal failures: logged in full, reported generically.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)

	var status int
	switch kind {
	case domain.KindInvalidInput:
		status = http.StatusBadRequest
	case domain.KindUnauthorized:
		status = http.StatusUnauthorized
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindConflict:
		status = http.StatusConflict
	case domain.KindInvalidState, domain.KindInvalidOperation:
		status = http.StatusUnprocessableEntity
	default:
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:       "server_error",
			Description: "An internal error occurred.",
		})
		return
	}

	httpx.WriteJSON(w, status, ErrorResponse{
		Error:       kind.String(),
		Description: err.Error(),
	})
}

func writeBadRequest(w http.ResponseWriter, description string) {
	httpx.WriteJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:       "invalid_input",
		Description: description,
	})
}
