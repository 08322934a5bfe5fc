package http

import (
	"net/http"

	"github.com/viralforge/tshirtstore/internal/application"
)

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var req application.SignupRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeValidationError(r.Context(), w, "signup", err)
		return
	}

	res, err := h.service.Signup(r.Context(), req)
	h.observe("signup", err)
	if err != nil {
		writeMappedError(r.Context(), w, "signup", err)
		return
	}
	h.setSessionCookie(w, res.Session)
	writeSuccess(w, http.StatusCreated, res)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req application.LoginRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeValidationError(r.Context(), w, "login", err)
		return
	}

	res, err := h.service.Login(r.Context(), req)
	h.observe("login", err)
	if err != nil {
		writeMappedError(r.Context(), w, "login", err)
		return
	}
	h.setSessionCookie(w, res.Session)
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) logout(w http.ResponseWriter, _ *http.Request) {
	h.revokeSessionCookie(w)
	writeMessage(w, http.StatusOK, "logout success")
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	principal, ok := application.PrincipalFromContext(r.Context())
	if !ok {
		writeMappedError(r.Context(), w, "change_password", errMissingPrincipal)
		return
	}
	var req application.ChangePasswordRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeValidationError(r.Context(), w, "change_password", err)
		return
	}

	res, err := h.service.ChangePassword(r.Context(), principal, req)
	h.observe("change_password", err)
	if err != nil {
		writeMappedError(r.Context(), w, "change_password", err)
		return
	}
	h.setSessionCookie(w, res.Session)
	writeSuccess(w, http.StatusOK, res)
}
