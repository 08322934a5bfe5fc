package http

import (
	"net/http"

	"github.com/viralforge/tshirtstore/internal/application"
	"github.com/viralforge/tshirtstore/internal/domain"
)

var errMissingPrincipal = domain.ErrAuthentication

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	principal, ok := application.PrincipalFromContext(r.Context())
	if !ok {
		writeMappedError(r.Context(), w, "dashboard", errMissingPrincipal)
		return
	}
	view, err := h.service.CurrentAccount(r.Context(), principal)
	if err != nil {
		writeMappedError(r.Context(), w, "dashboard", err)
		return
	}
	writeSuccess(w, http.StatusOK, view)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	principal, ok := application.PrincipalFromContext(r.Context())
	if !ok {
		writeMappedError(r.Context(), w, "update_profile", errMissingPrincipal)
		return
	}
	var req application.UpdateProfileRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeValidationError(r.Context(), w, "update_profile", err)
		return
	}
	view, err := h.service.UpdateProfile(r.Context(), principal, req)
	if err != nil {
		writeMappedError(r.Context(), w, "update_profile", err)
		return
	}
	writeSuccess(w, http.StatusOK, view)
}

func (h *Handler) adminListAccounts(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.ListAccounts(r.Context())
	if err != nil {
		writeMappedError(r.Context(), w, "admin_list_accounts", err)
		return
	}
	writeSuccess(w, http.StatusOK, views)
}

func (h *Handler) adminGetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathAccountID(r)
	if err != nil {
		writeMappedError(r.Context(), w, "admin_get_account", err)
		return
	}
	view, err := h.service.GetAccount(r.Context(), id)
	if err != nil {
		writeMappedError(r.Context(), w, "admin_get_account", err)
		return
	}
	writeSuccess(w, http.StatusOK, view)
}

func (h *Handler) adminUpdateAccount(w http.ResponseWriter, r *http.Request) {
	principal, _ := application.PrincipalFromContext(r.Context())
	id, err := pathAccountID(r)
	if err != nil {
		writeMappedError(r.Context(), w, "admin_update_account", err)
		return
	}
	var req application.AdminUpdateAccountRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeValidationError(r.Context(), w, "admin_update_account", err)
		return
	}
	view, err := h.service.AdminUpdateAccount(r.Context(), principal, id, req)
	if err != nil {
		writeMappedError(r.Context(), w, "admin_update_account", err)
		return
	}
	writeSuccess(w, http.StatusOK, view)
}

func (h *Handler) adminDeleteAccount(w http.ResponseWriter, r *http.Request) {
	principal, _ := application.PrincipalFromContext(r.Context())
	id, err := pathAccountID(r)
	if err != nil {
		writeMappedError(r.Context(), w, "admin_delete_account", err)
		return
	}
	if err := h.service.DeleteAccount(r.Context(), principal, id); err != nil {
		writeMappedError(r.Context(), w, "admin_delete_account", err)
		return
	}
	writeMessage(w, http.StatusOK, "account deleted")
}

func (h *Handler) managerListCustomers(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.service.ListCustomerContacts(r.Context())
	if err != nil {
		writeMappedError(r.Context(), w, "manager_list_customers", err)
		return
	}
	writeSuccess(w, http.StatusOK, contacts)
}
