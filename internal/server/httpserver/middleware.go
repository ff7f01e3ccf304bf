package httpserver

import (
	"crypto/rand"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/arvos-io/expiryledger/internal/core/domain"
	"github.com/arvos-io/expiryledger/internal/core/service"
	"github.com/arvos-io/expiryledger/internal/server/httpserver/handler"
	"github.com/arvos-io/expiryledger/internal/telemetry/logger"
	"github.com/arvos-io/expiryledger/internal/telemetry/metric"
)

// Middleware wraps an http.Handler with additional behaviour.
type Middleware func(http.Handler) http.Handler

// Chain applies middlewares around h, first middleware outermost.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// RequestID assigns each request an identifier, echoes it in the
// X-Request-ID response header and threads it through the context so
// handler logs carry it.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = newRequestID()
			}

			w.Header().Set("X-Request-ID", requestID)
			ctx := logger.WithRequestID(r.Context(), requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newRequestID() string {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return "req-unknown"
	}
	return "req-" + strings.ToLower(id.String())
}

// Recover turns handler panics into a 500 response instead of tearing
// down the connection.
func Recover(log logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					log.Error("panic recovered",
						"request_id", logger.RequestIDFromContext(r.Context()),
						"panic", v,
						"path", r.URL.Path,
					)
					writeErrorBody(w, http.StatusInternalServerError, domain.ErrInternal.Code, "internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// Logging emits one access log line per request once the handler
// completes.
func Logging(log logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			attrs := []any{
				"request_id", logger.RequestIDFromContext(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.statusCode,
				"duration_ms", time.Since(start).Milliseconds(),
				"client_ip", clientIP(r),
			}
			if id, ok := handler.IdentityFrom(r.Context()); ok {
				attrs = append(attrs, "key_id", id.KeyID, "role", string(id.Role))
			}

			switch {
			case wrapped.statusCode >= 500:
				log.Error("request completed", attrs...)
			case wrapped.statusCode >= 400:
				log.Warn("request completed", attrs...)
			default:
				log.Info("request completed", attrs...)
			}
		})
	}
}

// Metrics records the request counter and latency histogram. Routes
// are all static patterns, so the URL path is a bounded label.
func Metrics(reg *metric.Registry) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			route := r.URL.Path
			if wrapped.statusCode == http.StatusNotFound {
				route = "unmatched"
			}
			reg.RequestsTotal.WithLabelValues(route, strconv.Itoa(wrapped.statusCode)).Inc()
			reg.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		})
	}
}

// Auth authenticates the caller and applies the per-key rate limit.
// The resolved identity is placed in the request context.
func Auth(auth *service.AuthService) Middleware {
	return authWith(auth, false)
}

// AdminAuth is Auth plus an admin role requirement.
func AdminAuth(auth *service.AuthService) Middleware {
	return authWith(auth, true)
}

func authWith(auth *service.AuthService, adminOnly bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			creds := extractCredentials(r)

			identity, err := auth.Authenticate(creds)
			if err != nil {
				writeAuthError(w, err)
				return
			}

			if adminOnly && identity.Role != domain.RoleAdmin {
				writeAuthError(w, domain.ErrUnauthorized.WithDetails("admin role required"))
				return
			}

			if err := auth.CheckRateLimit(identity.KeyID); err != nil {
				w.Header().Set("Retry-After", "1")
				writeAuthError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(handler.WithIdentity(r.Context(), identity)))
		})
	}
}

// extractCredentials reads API key credentials from the request.
// Two forms are accepted:
//
//	Authorization: Bearer <key_id>:<key_secret>
//	X-API-Key-ID + X-API-Key headers
func extractCredentials(r *http.Request) service.Credentials {
	authHeader := r.Header.Get("Authorization")
	if bearer, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
		if keyID, secret, found := strings.Cut(bearer, ":"); found {
			return service.Credentials{KeyID: keyID, Secret: secret}
		}
	}

	return service.Credentials{
		KeyID:  r.Header.Get("X-API-Key-ID"),
		Secret: r.Header.Get("X-API-Key"),
	}
}

func writeAuthError(w http.ResponseWriter, err error) {
	code := domain.GetErrorCode(err)
	if code == "" {
		code = domain.ErrInternal.Code
	}

	status := http.StatusUnauthorized
	switch {
	case strings.HasSuffix(code, "-4030"):
		status = http.StatusForbidden
	case strings.HasSuffix(code, "-4290"):
		status = http.StatusTooManyRequests
	}

	writeErrorBody(w, status, code, err.Error())
}

func writeErrorBody(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"code":    code,
		"message": message,
	})
}

// responseWriter captures the status code for logging and metrics.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// clientIP resolves the originating client address, honouring proxy
// headers before falling back to the connection peer.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
