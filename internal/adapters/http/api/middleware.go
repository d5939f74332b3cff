package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/huntboard/internal/auth"
	"github.com/okian/huntboard/internal/config"
	"github.com/okian/huntboard/pkg/errs"
	"github.com/okian/huntboard/pkg/metrics"
)

const codeConfigurationRequired = "configuration_required"

// HTTP status code constants.
const (
	statusBadRequest         = 400
	statusUnauthorized       = 401
	statusForbidden          = 403
	statusNotFound           = 404
	statusInternalError      = 500
	statusBadGateway         = 502
	statusServiceUnavailable = 503
)

// MetricsMiddleware wraps HTTP handlers to record Prometheus metrics.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create a response writer wrapper to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		// Call the next handler
		next.ServeHTTP(wrapped, r)

		// Record metrics
		durationMs := float64(time.Since(start).Milliseconds())
		statusCodeStr := strconv.Itoa(wrapped.statusCode)

		// Record basic HTTP metrics
		metrics.RecordHTTPRequest(endpoint, r.Method, statusCodeStr)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, statusCodeStr, durationMs)

		// Record error metrics if status indicates an error
		if wrapped.statusCode >= statusBadRequest {
			errorType := getErrorType(wrapped.statusCode)
			metrics.RecordErrorByEndpoint(endpoint, r.Method, errorType)
			metrics.RecordErrorLatency("http", errorType, durationMs)
		}
	}
}

// getErrorType returns a standardized error type based on HTTP status code.
func getErrorType(statusCode int) string {
	switch {
	case statusCode == statusServiceUnavailable:
		return "degraded"
	case statusCode == statusBadGateway:
		return "upstream_error"
	case statusCode >= statusInternalError:
		return "server_error"
	case statusCode == statusUnauthorized, statusCode == statusForbidden:
		return "auth"
	case statusCode == statusNotFound:
		return "not_found"
	case statusCode >= statusBadRequest:
		return "client_error"
	default:
		return "unknown"
	}
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("failed to write response: %w", err)
	}
	return n, nil
}

// RequireStore answers 503 configuration_required while the service runs
// without a remote store.
func RequireStore(deps Dependencies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := deps.Degraded(); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, degradedResponse{
					Code:        codeConfigurationRequired,
					Message:     err.Error(),
					Remediation: config.Remediation,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type degradedResponse struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	Remediation string `json:"remediation"`
}

// RequireAdmin checks HTTP Basic credentials against authz. Only the password
// is verified; the user name is free-form.
func RequireAdmin(authz auth.Authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "api.require_admin"
			_, secret, ok := r.BasicAuth()
			if !ok {
				w.Header().Set("WWW-Authenticate", `Basic realm="huntboard admin"`)
				writeError(w, http.StatusUnauthorized, "unauthorized", errs.NewKind(op, ErrUnauthorized))
				return
			}
			if err := authz.Verify(r.Context(), secret); err != nil {
				if errors.Is(err, auth.ErrDisabled) {
					writeError(w, http.StatusForbidden, "admin_disabled", err)
					return
				}
				w.Header().Set("WWW-Authenticate", `Basic realm="huntboard admin"`)
				writeError(w, http.StatusUnauthorized, "unauthorized", errs.NewKind(op, auth.ErrUnauthorized))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
