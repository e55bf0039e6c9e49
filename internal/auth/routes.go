package auth

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/strefethen/soundbar-hub-go/internal/api"
	"github.com/strefethen/soundbar-hub-go/internal/apperrors"
	"github.com/strefethen/soundbar-hub-go/internal/config"
)

// RegisterRoutes wires auth routes to the router.
func RegisterRoutes(router chi.Router, store *PairingStore, cfg config.Config) {
	router.Method(http.MethodPost, "/v1/auth/pair/start", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		store.CleanupExpired()

		pairCode, err := store.Create(api.GetRequestID(r))
		if err != nil {
			return apperrors.NewInternalError("Failed to generate pairing code")
		}

		log.Printf("AUTH: pairing code generated: %s", pairCode)

		return api.WriteAction(w, http.StatusOK, map[string]any{
			"object":       "pairing_start",
			"pairing_hint": "Enter pairing code on your client. Code: " + pairCode,
		})
	}))

	router.Method(http.MethodPost, "/v1/auth/pair/complete", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		var body struct {
			PairCode   string `json:"pair_code"`
			ClientName string `json:"client_name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return apperrors.NewValidationError("pair_code is required", nil)
		}
		if body.PairCode == "" {
			return apperrors.NewValidationError("pair_code is required", nil)
		}
		if body.ClientName == "" {
			return apperrors.NewValidationError("client_name is required", nil)
		}

		_, ok, expired := store.Lookup(body.PairCode)
		if !ok {
			return apperrors.NewUnauthorizedError("Invalid pairing code", apperrors.ErrorCodeAuthPairingInvalid)
		}
		if expired {
			store.Consume(body.PairCode)
			return apperrors.NewUnauthorizedError("Pairing code expired", apperrors.ErrorCodeAuthPairingExpired)
		}
		store.Consume(body.PairCode)

		tokens, err := GenerateTokenPair(cfg, TokenPayload{
			Sub:        uuid.NewString(),
			ClientName: body.ClientName,
		})
		if err != nil {
			return apperrors.NewInternalError("Failed to generate tokens")
		}

		log.Printf("AUTH: client paired: %s", body.ClientName)

		return api.WriteAction(w, http.StatusOK, map[string]any{
			"object":        "pairing_complete",
			"access_token":  tokens.AccessToken,
			"refresh_token": tokens.RefreshToken,
			"expires_in":    tokens.ExpiresInSec,
		})
	}))

	router.Method(http.MethodPost, "/v1/auth/refresh", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.RefreshToken == "" {
			return apperrors.NewValidationError("refresh_token is required", nil)
		}

		accessToken, expiresIn, err := RefreshAccessToken(cfg, body.RefreshToken)
		if err != nil {
			switch err {
			case ErrTokenExpired:
				return apperrors.NewUnauthorizedError("Refresh token expired", apperrors.ErrorCodeAuthTokenExpired)
			default:
				return apperrors.NewUnauthorizedError("Refresh token invalid", apperrors.ErrorCodeAuthTokenInvalid)
			}
		}

		return api.WriteAction(w, http.StatusOK, map[string]any{
			"object":       "token_refresh",
			"access_token": accessToken,
			"expires_in":   expiresIn,
		})
	}))
}
