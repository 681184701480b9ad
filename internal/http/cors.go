package httpx

import "net/http"

// applyCORS mirrors the browser-facing policy the service has always
// shipped with: a configurable origin, the mutating verbs, and the two
// headers clients actually send. Returns true when the request was a
// preflight and has been answered.
func (r *Router) applyCORS(w http.ResponseWriter, req *http.Request) bool {
	if !r.corsEnabled {
		return false
	}
	headers := w.Header()
	headers.Set("Access-Control-Allow-Origin", r.corsOrigin)
	headers.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	headers.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	if req.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return true
	}
	return false
}
