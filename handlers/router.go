package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"chatrelay/hub"
	"chatrelay/metrics"

	"github.com/rs/cors"
)

func NewCORS(origins []string) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet},
		AllowedHeaders: []string{"Content-Type"},
	})
}

// NewRouter mounts the websocket endpoint, the room lookup, health and
// metrics, and static files when staticDir is set.
func NewRouter(srv *Server, h *hub.Hub, m *metrics.Metrics, c *cors.Cors, staticDir string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /ws", srv.ServeWs)
	mux.HandleFunc("GET /api/rooms/{code}", lookupRoom(h))
	mux.HandleFunc("GET /healthz", health(h))
	mux.Handle("GET /metrics", m.Handler())

	if staticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(staticDir)))
	}

	return c.Handler(mux)
}

func lookupRoom(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, ok := h.Lookup(r.PathValue("code"))
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Room not found"})
			return
		}
		writeJSON(w, http.StatusOK, info)
	}
}

type healthResponse struct {
	Status      string `json:"status"`
	Rooms       int    `json:"rooms"`
	Connections int    `json:"connections"`
}

func health(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{
			Status:      "ok",
			Rooms:       h.RoomCount(),
			Connections: h.ConnectionCount(),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("http.encode_failed", "err", err)
	}
}
