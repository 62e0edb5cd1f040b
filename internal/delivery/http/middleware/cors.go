package middleware

import (
	"net/http"
	"strings"
)

const (
	corsAllowMethods   = "GET, POST, PUT, OPTIONS"
	corsAllowHeaders   = "Authorization, Content-Type, Accept, " + requestIDHeader
	corsExposeHeaders  = requestIDHeader
	corsMaxAge         = "86400"
	corsAnyOriginToken = "*"
)

// CORS adds CORS headers for allowed origins and answers OPTIONS preflight
// requests with 204. An entry of "*" allows any origin without credentials.
func CORS(allowedOrigins []string, next http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	anyOrigin := false
	for _, o := range allowedOrigins {
		o = strings.TrimSuffix(strings.TrimSpace(o), "/")
		switch o {
		case "":
		case corsAnyOriginToken:
			anyOrigin = true
		default:
			allowed[o] = struct{}{}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		h := w.Header()
		h.Add("Vary", "Origin")

		if origin != "" {
			if _, ok := allowed[origin]; ok {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
			} else if anyOrigin {
				h.Set("Access-Control-Allow-Origin", corsAnyOriginToken)
			}
		}
		permitted := h.Get("Access-Control-Allow-Origin") != ""

		if r.Method == http.MethodOptions {
			if permitted {
				h.Set("Access-Control-Allow-Methods", corsAllowMethods)
				h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
				h.Set("Access-Control-Max-Age", corsMaxAge)
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if permitted {
			h.Set("Access-Control-Expose-Headers", corsExposeHeaders)
		}
		next.ServeHTTP(w, r)
	})
}
