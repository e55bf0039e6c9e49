package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/strefethen/soundbar-hub-go/internal/api"
	"github.com/strefethen/soundbar-hub-go/internal/apperrors"
	"github.com/strefethen/soundbar-hub-go/internal/soundbar"
)

type registerRequest struct {
	Name string `json:"name"`
	Host string `json:"host"`
	Port int    `json:"port"`
}

type volumeRequest struct {
	Level *float64 `json:"level"`
}

type muteRequest struct {
	Muted *bool `json:"muted"`
}

type sourceRequest struct {
	Source string `json:"source"`
}

type soundModeRequest struct {
	SoundMode string `json:"sound_mode"`
}

type powerRequest struct {
	On *bool `json:"on"`
}

// RegisterRoutes wires soundbar registry and command routes to the router.
func RegisterRoutes(router chi.Router, service *Service) {
	router.Method(http.MethodGet, "/v1/soundbars", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		views, err := service.List()
		if err != nil {
			return apperrors.NewInternalError("Failed to list soundbars")
		}
		return api.WriteList(w, r.URL.Path, views, false)
	}))

	router.Method(http.MethodPost, "/v1/soundbars", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return apperrors.NewValidationError("Invalid JSON body", nil)
		}
		if req.Host == "" {
			return apperrors.NewValidationError("host is required", nil)
		}
		if req.Port < 0 || req.Port > 65535 {
			return apperrors.NewValidationError("port must be between 0 and 65535", nil)
		}

		view, err := service.Register(req.Name, req.Host, req.Port)
		if err != nil {
			if errors.Is(err, ErrDuplicateAddress) {
				return apperrors.NewConflictError("A soundbar with this address is already registered", map[string]any{
					"host": req.Host,
				})
			}
			return apperrors.NewInternalError("Failed to register soundbar")
		}
		return api.WriteResource(w, http.StatusCreated, view)
	}))

	router.Method(http.MethodGet, "/v1/soundbars/{soundbar_id}", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		view, err := service.Get(chi.URLParam(r, "soundbar_id"))
		if err != nil {
			return apperrors.NewInternalError("Failed to load soundbar")
		}
		if view == nil {
			return apperrors.NewNotFoundResource("soundbar", chi.URLParam(r, "soundbar_id"))
		}
		return api.WriteResource(w, http.StatusOK, view)
	}))

	router.Method(http.MethodDelete, "/v1/soundbars/{soundbar_id}", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		soundbarID := chi.URLParam(r, "soundbar_id")
		deleted, err := service.Unregister(soundbarID)
		if err != nil {
			return apperrors.NewInternalError("Failed to remove soundbar")
		}
		if !deleted {
			return apperrors.NewNotFoundResource("soundbar", soundbarID)
		}
		return api.WriteAction(w, http.StatusOK, map[string]any{
			"soundbar_id": soundbarID,
			"deleted":     true,
		})
	}))

	router.Method(http.MethodGet, "/v1/soundbars/{soundbar_id}/state", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		view, err := service.State(chi.URLParam(r, "soundbar_id"))
		if err != nil {
			return apperrors.NewInternalError("Failed to load soundbar state")
		}
		if view == nil {
			return apperrors.NewNotFoundResource("soundbar", chi.URLParam(r, "soundbar_id"))
		}
		return api.WriteResource(w, http.StatusOK, view)
	}))

	router.Method(http.MethodPost, "/v1/soundbars/{soundbar_id}/volume", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		var req volumeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Level == nil {
			return apperrors.NewValidationError("level is required", nil)
		}
		if *req.Level < 0 || *req.Level > 1 {
			return apperrors.NewValidationError("level must be between 0.0 and 1.0", nil)
		}
		return commandResponse(w, chi.URLParam(r, "soundbar_id"),
			service.SetVolumeLevel(chi.URLParam(r, "soundbar_id"), *req.Level))
	}))

	router.Method(http.MethodPost, "/v1/soundbars/{soundbar_id}/mute", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		var req muteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Muted == nil {
			return apperrors.NewValidationError("muted is required", nil)
		}
		return commandResponse(w, chi.URLParam(r, "soundbar_id"),
			service.SetMute(chi.URLParam(r, "soundbar_id"), *req.Muted))
	}))

	router.Method(http.MethodPost, "/v1/soundbars/{soundbar_id}/source", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		var req sourceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Source == "" {
			return apperrors.NewValidationError("source is required", nil)
		}
		return commandResponse(w, chi.URLParam(r, "soundbar_id"),
			service.SelectSource(chi.URLParam(r, "soundbar_id"), req.Source))
	}))

	router.Method(http.MethodPost, "/v1/soundbars/{soundbar_id}/sound-mode", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		var req soundModeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SoundMode == "" {
			return apperrors.NewValidationError("sound_mode is required", nil)
		}
		return commandResponse(w, chi.URLParam(r, "soundbar_id"),
			service.SelectSoundMode(chi.URLParam(r, "soundbar_id"), req.SoundMode))
	}))

	router.Method(http.MethodPost, "/v1/soundbars/{soundbar_id}/power", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		var req powerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.On == nil {
			return apperrors.NewValidationError("on is required", nil)
		}
		return commandResponse(w, chi.URLParam(r, "soundbar_id"),
			service.SetPower(chi.URLParam(r, "soundbar_id"), *req.On))
	}))

	router.Method(http.MethodPost, "/v1/soundbars/{soundbar_id}/refresh", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		return commandResponse(w, chi.URLParam(r, "soundbar_id"),
			service.Refresh(chi.URLParam(r, "soundbar_id")))
	}))
}

// commandResponse maps device command errors to API errors. Commands are
// fire-and-forget so success only means the command was written to the wire.
func commandResponse(w http.ResponseWriter, soundbarID string, err error) error {
	switch {
	case err == nil:
		return api.WriteAction(w, http.StatusAccepted, map[string]any{
			"soundbar_id": soundbarID,
			"accepted":    true,
		})
	case errors.Is(err, ErrNotRegistered):
		return apperrors.NewNotFoundResource("soundbar", soundbarID)
	case errors.Is(err, soundbar.ErrNotConnected):
		return apperrors.NewAppError(apperrors.ErrorCodeSoundbarOffline,
			fmt.Sprintf("Soundbar %s is not connected", soundbarID), 503, nil)
	case errors.Is(err, soundbar.ErrUnknownSource):
		return apperrors.NewNotFoundError(apperrors.ErrorCodeSourceNotFound, err.Error(), nil)
	case errors.Is(err, soundbar.ErrUnknownSoundMode):
		return apperrors.NewNotFoundError(apperrors.ErrorCodeSoundModeNotFound, err.Error(), nil)
	default:
		return apperrors.NewInternalError("Failed to send command to soundbar")
	}
}
