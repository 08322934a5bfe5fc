package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/viralforge/tshirtstore/internal/application"
	"github.com/viralforge/tshirtstore/internal/domain"
	"github.com/viralforge/tshirtstore/internal/observability"
)

// Handler is the HTTP adapter over the account service.
type Handler struct {
	service       *application.Service
	metrics       *observability.Metrics
	secureCookies bool
}

type Options struct {
	// Metrics may be nil; /metrics is then not mounted.
	Metrics *observability.Metrics
	// SecureCookies sets the Secure flag on the session cookie. Enable it behind TLS.
	SecureCookies bool
}

func NewHandler(service *application.Service, opts Options) *Handler {
	return &Handler{
		service:       service,
		metrics:       opts.Metrics,
		secureCookies: opts.SecureCookies,
	}
}

// NewRouter registers the /api/v1 routes. Route groups map to gate stages:
// public, authenticated, and authenticated plus a role check.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(handler.loggingMiddleware)

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)
	if handler.metrics != nil {
		r.Method(http.MethodGet, "/metrics", handler.metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/signup", handler.signup)
		r.Post("/login", handler.login)
		r.Get("/logout", handler.logout)
		r.Post("/forgotpassword", handler.forgotPassword)
		r.Post("/password/reset/{token}", handler.passwordReset)

		r.Group(func(r chi.Router) {
			r.Use(handler.authenticate)
			r.Post("/password/update", handler.changePassword)
			r.Get("/userdashboard", handler.dashboard)
			r.Post("/userdashboard/update", handler.updateProfile)

			r.Group(func(r chi.Router) {
				r.Use(handler.authorize(domain.RoleAdmin))
				r.Get("/admin/users", handler.adminListAccounts)
				r.Get("/admin/user/{id}", handler.adminGetAccount)
				r.Put("/admin/user/{id}", handler.adminUpdateAccount)
				r.Delete("/admin/user/{id}", handler.adminDeleteAccount)
			})

			r.Group(func(r chi.Router) {
				r.Use(handler.authorize(domain.RoleManager))
				r.Get("/manager/users", handler.managerListCustomers)
			})
		})
	})

	return r
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ok")
}

func (h *Handler) readyz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ready")
}

func (h *Handler) observe(operation string, err error) {
	h.metrics.ObserveAuth(operation, outcomeKind(err))
}
