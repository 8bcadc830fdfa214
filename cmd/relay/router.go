package main

import (
	"net/http"

	"github.com/gorilla/mux"

	"quicksquad-chat/handler"
)

// newRouter mounts the relay at relayPath and, when staticDir is set, serves
// the embedding page and widget assets from it.
func newRouter(relayHandler http.Handler, relayPath, staticDir string) http.Handler {
	router := mux.NewRouter()
	router.Handle(relayPath, relayHandler).Methods(http.MethodPost)
	if staticDir != "" {
		router.PathPrefix("/").Handler(http.FileServer(http.Dir(staticDir))).Methods(http.MethodGet, http.MethodHead)
	}
	return handler.WithCORS(router)
}
