package handler

import "net/http"

// HandleHealth is the liveness probe.
//
// HTTP: GET /
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("Backend running"))
}
