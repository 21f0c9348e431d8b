package api

import "github.com/gorilla/mux"

// NewRouter mounts the row API. Everything under /rest needs a service token.
func NewRouter(h *ApiHandler, serviceSecret []byte) *mux.Router {
	r := mux.NewRouter()
	r.Use(RequestLogger(h.Log))
	r.HandleFunc("/health", h.Health).Methods("GET")

	s := r.PathPrefix("/rest").Subrouter()
	s.Use(AuthMiddleware(serviceSecret))
	s.HandleFunc("/stats", h.Stats).Methods("GET")
	s.HandleFunc("/{table}", h.ListRows).Methods("GET")
	s.HandleFunc("/{table}", h.CreateRow).Methods("POST")
	s.HandleFunc("/{table}", h.DeleteRows).Methods("DELETE")
	s.HandleFunc("/{table}/{id}", h.GetRow).Methods("GET")
	s.HandleFunc("/{table}/{id}", h.UpdateRow).Methods("PATCH")
	s.HandleFunc("/{table}/{id}", h.DeleteRow).Methods("DELETE")
	return r
}
