package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// NewRouter wires the handler's endpoints and wraps them with CORS.
func NewRouter(h *Handler) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/health", h.HandleHealth).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/convert", h.HandleConvert).Methods(http.MethodPost)
	api.HandleFunc("/estimate", h.HandleEstimate).Methods(http.MethodPost)
	api.HandleFunc("/inspect", h.HandleInspect).Methods(http.MethodPost)

	c := cors.New(cors.Options{
		AllowedOrigins: h.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
		},
		ExposedHeaders: []string{
			"Content-Disposition",
			"X-Page-Count",
			"X-Rejected-Files",
		},
		MaxAge: 300,
	})

	return c.Handler(router)
}
