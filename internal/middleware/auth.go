package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/gildedrose/internal/auth"
)

// Auth returns a middleware that authenticates requests. Probe paths, CORS
// preflight and WebSocket upgrades are never authenticated. With
// anonymousReads set, GET and HEAD requests pass through as well, so only
// inventory changes and day advances need credentials.
func Auth(
	authenticator auth.Authenticator,
	logger *zap.Logger,
	anonymousReads bool,
) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipAuth(r, anonymousReads) {
				next.ServeHTTP(w, r)
				return
			}

			info, err := authenticator.Authenticate(r)
			if err != nil {
				logger.Warn("authentication failed",
					zap.String("path", r.URL.Path),
					zap.String("method", r.Method),
					zap.String("remote_addr", r.RemoteAddr),
					zap.String("request_id", getRequestID(r)),
					zap.Error(err),
				)
				writeAuthError(w, err)
				return
			}

			logger.Debug("authentication successful",
				zap.String("subject", info.Subject),
				zap.String("method", string(info.Method)),
				zap.String("path", r.URL.Path),
			)

			ctx := auth.WithAuthInfo(r.Context(), info)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// skipAuth reports whether r may proceed without credentials.
func skipAuth(r *http.Request, anonymousReads bool) bool {
	switch {
	case isPublicPath(r.URL.Path):
		return true
	case r.Method == http.MethodOptions:
		return true
	case isWebSocketUpgrade(r):
		return true
	case anonymousReads && (r.Method == http.MethodGet || r.Method == http.MethodHead):
		return true
	default:
		return false
	}
}

// isPublicPath matches probe paths and their sub-paths (/health/live) but
// not paths that merely share a prefix (/healthz).
func isPublicPath(path string) bool {
	if probePaths[path] {
		return true
	}

	for p := range probePaths {
		if strings.HasPrefix(path, p+"/") {
			return true
		}
	}

	return false
}

// isWebSocketUpgrade checks whether the request is a WebSocket upgrade.
func isWebSocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

// authErrorResponse is the JSON error response for auth failures.
type authErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// writeAuthError writes a 401 with a WWW-Authenticate challenge matching
// the failure.
func writeAuthError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	setWWWAuthenticateHeader(w, err)
	w.WriteHeader(http.StatusUnauthorized)

	resp := authErrorResponse{
		Code:    http.StatusUnauthorized,
		Message: err.Error(),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// setWWWAuthenticateHeader picks the challenge for the error type.
func setWWWAuthenticateHeader(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		w.Header().Set("WWW-Authenticate", "Basic, API-Key")
	case errors.Is(err, auth.ErrInvalidCredentials):
		w.Header().Set("WWW-Authenticate", `Basic realm="gildedrose"`)
	case errors.Is(err, auth.ErrInvalidAPIKey):
		w.Header().Set("WWW-Authenticate", "API-Key")
	case errors.Is(err, auth.ErrInvalidCert):
		w.Header().Set("WWW-Authenticate", "mTLS")
	}
}
