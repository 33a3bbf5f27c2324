package http

import (
	"net/http"

	"github.com/innkeep/innkeep/internal/identity/service"
	"github.com/innkeep/innkeep/pkg/httpx"
)

// RefreshHandler serves POST /v1/auth/refresh.
type RefreshHandler struct {
	RefreshService *service.RefreshService
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body refreshRequest
	if err := httpx.ReadJSON(r, &body); err != nil {
		writeBadRequest(w, "Request body must be valid JSON")
		return
	}
	if body.RefreshToken == "" {
		writeBadRequest(w, "Refresh token is required")
		return
	}

	resp, err := h.RefreshService.Refresh(r.Context(), body.RefreshToken, requestMeta(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}
