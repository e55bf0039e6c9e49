package auth

import (
	"net/http"
	"strings"

	"github.com/strefethen/soundbar-hub-go/internal/api"
	"github.com/strefethen/soundbar-hub-go/internal/apperrors"
	"github.com/strefethen/soundbar-hub-go/internal/config"
)

var publicRoutes = map[string]struct{}{
	"/v1/auth/pair/start":    {},
	"/v1/auth/pair/complete": {},
	"/v1/auth/refresh":       {},
	"/v1/health":             {},
	"/v1/health/live":        {},
	"/v1/health/ready":       {},
	"/v1/openapi":            {},
	"/v1/openapi.json":       {},
}

var publicPrefixes = []string{
	"/v1/health",
}

// Middleware validates JWT tokens for protected routes.
func Middleware(cfg config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicRoute(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			if isTestModeRequest(r, cfg) {
				client := Client{
					Sub:        "test-client",
					ClientName: "Test Client",
					Type:       TokenTypeAccess,
				}
				next.ServeHTTP(w, r.WithContext(WithClient(r.Context(), client)))
				return
			}

			token, err := bearerToken(r)
			if err != nil {
				api.WriteError(w, r, err)
				return
			}

			payload, err := VerifyToken(cfg, token)
			if err != nil {
				switch err {
				case ErrTokenExpired:
					api.WriteError(w, r, apperrors.NewUnauthorizedError("Token expired", apperrors.ErrorCodeAuthTokenExpired))
				default:
					api.WriteError(w, r, apperrors.NewUnauthorizedError("Token invalid", apperrors.ErrorCodeAuthTokenInvalid))
				}
				return
			}
			if payload.Type != TokenTypeAccess {
				api.WriteError(w, r, apperrors.NewUnauthorizedError("Token invalid", apperrors.ErrorCodeAuthTokenInvalid))
				return
			}

			client := Client{
				Sub:        payload.Sub,
				ClientName: payload.ClientName,
				Type:       payload.Type,
			}
			next.ServeHTTP(w, r.WithContext(WithClient(r.Context(), client)))
		})
	}
}

// bearerToken extracts the access token from the Authorization header or,
// for WebSocket clients that cannot set headers, the access_token query
// parameter.
func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if token := r.URL.Query().Get("access_token"); token != "" {
			return token, nil
		}
		return "", apperrors.NewUnauthorizedError("Missing Authorization header")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", apperrors.NewUnauthorizedError("Invalid Authorization header format")
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", apperrors.NewUnauthorizedError("Invalid Authorization header format")
	}
	return token, nil
}

func isPublicRoute(path string) bool {
	if _, ok := publicRoutes[path]; ok {
		return true
	}
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func isTestModeRequest(r *http.Request, cfg config.Config) bool {
	return cfg.AllowTestMode && r.Header.Get("x-test-mode") == "true"
}
