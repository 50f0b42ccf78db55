package devtools

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter exposes a hub over HTTP:
//
//	GET /ws       WebSocket stream of frames, history first
//	GET /events   JSON array of the history
//	GET /healthz  liveness probe
//
// extra handlers are mounted as-is, e.g. a metrics endpoint.
func NewRouter(hub *Hub, extra map[string]http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/ws", hub.ServeHTTP)

	r.Get("/events", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		events := hub.History()
		if events == nil {
			events = []Event{}
		}

		if err := json.NewEncoder(w).Encode(events); err != nil {
			hub.logger.Warn("encoding devtools history", "error", err)
		}
	})

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	for pattern, handler := range extra {
		r.Handle(pattern, handler)
	}

	return r
}
