package rest

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

type RouterConfig struct {
	Logger    *slog.Logger
	Rooms     roomInspector
	Results   resultLister // nil when the result ledger is disabled
	WebSocket http.Handler
	StaticDir string
}

// NewRouter mounts the WebSocket endpoint, the JSON API and the static client on one mux.
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	h := &handlers{
		logger:  cfg.Logger,
		rooms:   cfg.Rooms,
		results: cfg.Results,
	}

	r.HandleFunc("/ping", pingHandler).Methods(http.MethodGet)
	r.Handle("/ws", cfg.WebSocket)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/rooms/{code}", h.getRoom).Methods(http.MethodGet)
	if cfg.Results != nil {
		api.HandleFunc("/results", h.listResults).Methods(http.MethodGet)
	}

	if cfg.StaticDir != "" {
		r.PathPrefix("/").Handler(spaHandler{dir: cfg.StaticDir})
	}

	return r
}
