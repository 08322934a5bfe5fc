package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/viralforge/tshirtstore/internal/application"
	"github.com/viralforge/tshirtstore/internal/domain"
)

type ctxKey string

const ctxKeyRequestID ctxKey = "request_id"

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", reqID)
		ctx := context.WithValue(r.Context(), ctxKeyRequestID, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				httpLogger().ErrorContext(r.Context(), "panic recovered",
					"operation", "http_panic_recovery",
					"outcome", "failure",
					"request_id", requestIDFromContext(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"panic", rec,
				)
				writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	bytes      int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *statusRecorder) Write(payload []byte) (int, error) {
	if r.statusCode == 0 {
		r.statusCode = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(payload)
	r.bytes += n
	return n, err
}

// loggingMiddleware logs every request and feeds the latency histogram keyed by route pattern.
func (h *Handler) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(recorder, r)

		statusCode := recorder.statusCode
		if statusCode == 0 {
			statusCode = http.StatusOK
		}
		elapsed := time.Since(start)
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		h.metrics.ObserveRequest(r.Method, route, statusCode, elapsed)

		outcome := "success"
		if statusCode >= 400 {
			outcome = "failure"
		}
		fields := []any{
			"operation", "http_request",
			"outcome", outcome,
			"method", r.Method,
			"path", r.URL.Path,
			"route", route,
			"status_code", statusCode,
			"bytes", recorder.bytes,
			"duration_ms", elapsed.Milliseconds(),
			"request_id", requestIDFromContext(r.Context()),
		}
		switch {
		case statusCode >= 500:
			httpLogger().ErrorContext(r.Context(), "http request completed", fields...)
		case statusCode >= 400:
			httpLogger().WarnContext(r.Context(), "http request completed", fields...)
		default:
			httpLogger().InfoContext(r.Context(), "http request completed", fields...)
		}
	})
}

// authenticate resolves the session artifact to a live account and stores the Principal
// on the request context. Any failure ends the request.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := sessionTokenFromRequest(r)
		if raw == "" {
			h.metrics.ObserveAuth("authenticate", "AUTHENTICATION_ERROR")
			writeMappedError(r.Context(), w, "authenticate", domain.ErrAuthentication)
			return
		}
		principal, err := h.service.Gate().Authenticate(r.Context(), raw)
		h.observe("authenticate", err)
		if err != nil {
			writeMappedError(r.Context(), w, "authenticate", err)
			return
		}
		next.ServeHTTP(w, r.WithContext(application.WithPrincipal(r.Context(), principal)))
	})
}

// authorize must run after authenticate. It admits only the listed roles, checked
// against the freshly loaded account.
func (h *Handler) authorize(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := application.PrincipalFromContext(r.Context())
			if !ok {
				writeMappedError(r.Context(), w, "authorize", domain.ErrAuthentication)
				return
			}
			account, err := h.service.Gate().Authorize(r.Context(), principal, roles...)
			h.observe("authorize", err)
			if err != nil {
				writeMappedError(r.Context(), w, "authorize", err)
				return
			}
			principal.Role = account.Role
			next.ServeHTTP(w, r.WithContext(application.WithPrincipal(r.Context(), principal)))
		})
	}
}

func requestIDFromContext(ctx context.Context) string {
	v := ctx.Value(ctxKeyRequestID)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// sessionTokenFromRequest prefers the session cookie and falls back to a bearer header.
func sessionTokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(SessionCookieName); err == nil && strings.TrimSpace(c.Value) != "" {
		return strings.TrimSpace(c.Value)
	}
	token, err := bearerTokenFromHeader(r.Header.Get("Authorization"))
	if err != nil {
		return ""
	}
	return token
}

func bearerTokenFromHeader(header string) (string, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", errors.New("missing bearer token")
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func mapDomainError(err error) (int, string, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "VALIDATION_ERROR", err.Error()
	case errors.Is(err, domain.ErrCredential):
		return http.StatusBadRequest, "CREDENTIAL_ERROR", "email or password does not match or exist"
	case errors.Is(err, domain.ErrTokenInvalidOrExpired):
		return http.StatusBadRequest, "TOKEN_INVALID_OR_EXPIRED", "token is either invalid or expired"
	case errors.Is(err, domain.ErrAuthentication):
		return http.StatusUnauthorized, "AUTHENTICATION_ERROR", "login first to access this page"
	case errors.Is(err, domain.ErrAuthorization):
		return http.StatusForbidden, "AUTHORIZATION_ERROR", "you are not allowed to access this resource"
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, "RATE_LIMITED", "too many requests"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "CONFLICT", err.Error()
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, domain.ErrDependency):
		return http.StatusBadGateway, "DEPENDENCY_ERROR", "upstream dependency failed"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"
	}
}

// outcomeKind labels an auth metric with the error kind or "success".
func outcomeKind(err error) string {
	if err == nil {
		return "success"
	}
	_, kind, _ := mapDomainError(err)
	return kind
}
