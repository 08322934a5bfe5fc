package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/viralforge/tshirtstore/internal/application"
)

// forgotPassword answers an unknown email and a failed delivery identically.
func (h *Handler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req application.ForgotPasswordRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeValidationError(r.Context(), w, "forgot_password", err)
		return
	}
	err := h.service.ForgotPassword(r.Context(), req)
	h.observe("forgot_password", err)
	if err != nil {
		writeMappedError(r.Context(), w, "forgot_password", err)
		return
	}
	writeMessage(w, http.StatusOK, "email sent successfully")
}

func (h *Handler) passwordReset(w http.ResponseWriter, r *http.Request) {
	var req application.ResetPasswordRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeValidationError(r.Context(), w, "password_reset", err)
		return
	}

	res, err := h.service.ResetPassword(r.Context(), chi.URLParam(r, "token"), req)
	h.observe("password_reset", err)
	if err != nil {
		writeMappedError(r.Context(), w, "password_reset", err)
		return
	}
	h.setSessionCookie(w, res.Session)
	writeSuccess(w, http.StatusOK, res)
}
