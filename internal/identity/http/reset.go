package http

import (
	"net/http"
	"strings"

	"github.com/innkeep/innkeep/internal/identity/domain"
	"github.com/innkeep/innkeep/internal/identity/service"
	"github.com/innkeep/innkeep/pkg/httpx"
)

// ResetHandler serves the three password-reset endpoints.
type ResetHandler struct {
	ResetService *service.ResetService
}

type resetRequestBody struct {
	SubjectType string `json:"subject_type"`
	Email       string `json:"email"`
}

type resetVerifyOTPBody struct {
	RequestID   string `json:"request_id"`
	SubjectType string `json:"subject_type"`
	OTP         string `json:"otp"`
}

type resetCompleteBody struct {
	RequestID   string `json:"request_id"`
	SubjectType string `json:"subject_type"`
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// HandleRequest serves POST /v1/auth/password-reset. Always 202 with a
// receipt; the response shape does not reveal whether the email resolved.
func (h *ResetHandler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	var body resetRequestBody
	if err := httpx.ReadJSON(r, &body); err != nil {
		writeBadRequest(w, "Request body must be valid JSON")
		return
	}

	subjectType, err := domain.ParseSubjectType(body.SubjectType)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if strings.TrimSpace(body.Email) == "" {
		writeBadRequest(w, "Email is required")
		return
	}

	receipt, err := h.ResetService.Request(r.Context(), subjectType, body.Email, requestMeta(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusAccepted, receipt)
}

// HandleVerifyOTP serves POST /v1/auth/password-reset/verify-otp.
func (h *ResetHandler) HandleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var body resetVerifyOTPBody
	if err := httpx.ReadJSON(r, &body); err != nil {
		writeBadRequest(w, "Request body must be valid JSON")
		return
	}

	subjectType, err := domain.ParseSubjectType(body.SubjectType)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if body.RequestID == "" || body.OTP == "" {
		writeBadRequest(w, "Request id and OTP are required")
		return
	}

	if err := h.ResetService.VerifyOTP(r.Context(), body.RequestID, subjectType, body.OTP); err != nil {
		writeDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleComplete serves POST /v1/auth/password-reset/complete.
func (h *ResetHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	var body resetCompleteBody
	if err := httpx.ReadJSON(r, &body); err != nil {
		writeBadRequest(w, "Request body must be valid JSON")
		return
	}

	subjectType, err := domain.ParseSubjectType(body.SubjectType)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if body.RequestID == "" || body.Token == "" {
		writeBadRequest(w, "Request id and token are required")
		return
	}

	if err := h.ResetService.Complete(r.Context(), body.RequestID, subjectType, body.Token, body.NewPassword); err != nil {
		writeDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
