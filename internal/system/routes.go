package system

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/strefethen/soundbar-hub-go/internal/api"
	"github.com/strefethen/soundbar-hub-go/internal/apperrors"
)

// RegisterRoutes wires system routes to the router.
func RegisterRoutes(router chi.Router, service *Service) {
	router.Method(http.MethodGet, "/v1/system/info", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		info, err := service.GetSystemInfo()
		if err != nil {
			return apperrors.NewInternalError("Failed to get system info")
		}
		return api.WriteResource(w, http.StatusOK, map[string]any{
			"object":              "system_info",
			"hub_version":         info.HubVersion,
			"uptime_seconds":      info.Uptime,
			"memory_mb":           info.MemoryUsageMB,
			"sqlite_connected":    info.SQLiteConnected,
			"soundbars_connected": info.SoundbarsConnected,
			"soundbars_total":     info.SoundbarsTotal,
			"push_subscribers":    info.PushSubscribers,
			"mqtt_enabled":        info.MQTTEnabled,
		})
	}))
}
