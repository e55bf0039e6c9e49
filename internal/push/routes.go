package push

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/strefethen/soundbar-hub-go/internal/api"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Subscribers authenticate with a bearer token, not an origin
	},
}

// RegisterRoutes wires the push stream routes to the router.
func RegisterRoutes(router chi.Router, hub *Hub) {
	router.HandleFunc("/ws/events", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade failed - error already written to response
			return
		}
		hub.Subscribe(conn)
	})

	router.Method(http.MethodGet, "/v1/events/status", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		return api.WriteResource(w, http.StatusOK, map[string]any{
			"object":      "push_status",
			"subscribers": hub.SubscriberCount(),
		})
	}))
}
