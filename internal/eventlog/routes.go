package eventlog

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/strefethen/soundbar-hub-go/internal/api"
	"github.com/strefethen/soundbar-hub-go/internal/apperrors"
)

// RegisterRoutes wires event log routes to the router.
func RegisterRoutes(router chi.Router, service *Service) {
	router.Method(http.MethodGet, "/v1/soundbars/{soundbar_id}/events", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		soundbarID := chi.URLParam(r, "soundbar_id")

		limit := DefaultQueryLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				return apperrors.NewValidationError("limit must be a positive integer", nil)
			}
			limit = parsed
		}

		events, err := service.ListEvents(soundbarID, limit)
		if err != nil {
			return apperrors.NewInternalError("Failed to load events")
		}

		return api.WriteList(w, r.URL.Path, events, len(events) == limit)
	}))
}
