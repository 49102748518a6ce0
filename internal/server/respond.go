package server

import (
	"encoding/json"
	"net/http"
)

type messageResp struct {
	Message string `json:"message"`
}

// setNoCache marks a response as uncacheable and not to be sniffed.
func setNoCache(h http.Header) {
	h.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	h.Set("Pragma", "no-cache")
	h.Set("X-Content-Type-Options", "nosniff")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResp{Message: msg})
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	setNoCache(w.Header())
	w.WriteHeader(http.StatusNotFound)
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	setNoCache(w.Header())
	writeMessage(w, http.StatusMethodNotAllowed, "Method Not Allowed")
}

func badRequest(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusBadRequest, "Bad Request")
}
