package http

import (
	"net/http"
	"strings"

	"github.com/innkeep/innkeep/internal/identity/domain"
	"github.com/innkeep/innkeep/internal/identity/service"
	"github.com/innkeep/innkeep/pkg/httpx"
)

// LoginHandler serves POST /v1/auth/{kind}/login where kind is "staff" or
// "customer".
type LoginHandler struct {
	AuthService *service.AuthService
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParsePrincipalKind(r.PathValue("kind"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var body loginRequest
	if err := httpx.ReadJSON(r, &body); err != nil {
		writeBadRequest(w, "Request body must be valid JSON")
		return
	}
	if strings.TrimSpace(body.Email) == "" || body.Password == "" {
		writeBadRequest(w, "Email and password are required")
		return
	}

	resp, err := h.AuthService.Authenticate(r.Context(), kind, body.Email, body.Password, requestMeta(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}

// requestMeta captures the session metadata recorded at login and reset
// initiation.
func requestMeta(r *http.Request) domain.RequestMeta {
	return domain.RequestMeta{
		UserAgent: r.UserAgent(),
		IP:        httpx.IPKeyExtractor(r),
	}
}
