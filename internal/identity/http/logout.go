package http

import (
	"net/http"

	"github.com/innkeep/innkeep/internal/identity/service"
	"github.com/innkeep/innkeep/pkg/httpx"
)

// LogoutHandler serves POST /v1/auth/logout.
type LogoutHandler struct {
	AuthService *service.AuthService
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body logoutRequest
	if err := httpx.ReadJSON(r, &body); err != nil {
		writeBadRequest(w, "Request body must be valid JSON")
		return
	}
	if body.RefreshToken == "" {
		writeBadRequest(w, "Refresh token is required")
		return
	}

	if err := h.AuthService.Logout(r.Context(), body.RefreshToken); err != nil {
		writeDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
