package handler

import "net/http"

// corsHeaders reflects the request origin, allowing any embedding site.
func corsHeaders(origin string) map[string]string {
	if origin == "" {
		return nil
	}
	return map[string]string{
		"Access-Control-Allow-Origin":  origin,
		"Access-Control-Allow-Methods": "POST, OPTIONS",
		"Access-Control-Allow-Headers": "Content-Type, " + correlationHeader,
		"Vary":                         "Origin",
	}
}

// WithCORS wraps next with origin-reflecting CORS and answers preflight
// requests itself.
func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for k, v := range corsHeaders(r.Header.Get("Origin")) {
			w.Header().Set(k, v)
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
