package httpmw

import "net/http"

// Preflight response values. The browser caches the preflight for a day.
const (
	corsAllowMethods = "GET, POST, PUT, DELETE, OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization, X-Requested-With"
	corsMaxAge       = "86400"
)

type CORSOptions struct {
	// AllowedOrigins are trimmed allow-list entries. A "*" entry allows
	// any origin that is present on the request; an absent Origin header
	// always fails, wildcard or not.
	AllowedOrigins []string

	// OnDenied is called with the rejected origin ("" when absent).
	OnDenied func(origin string)
}

// OriginAllowed reports whether origin passes the allow-list.
func OriginAllowed(origin string, allowed []string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

// CORS is the origin gate. It runs ahead of routing: a disallowed origin
// gets a 403 before any handler (or CRM call) is reached, an allowed one
// gets its origin echoed on every response so cross-origin callers can
// read the body. OPTIONS requests are answered here as preflights and
// never reach the router.
func CORS(opts CORSOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if !OriginAllowed(origin, opts.AllowedOrigins) {
				if opts.OnDenied != nil {
					opts.OnDenied(origin)
				}
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"Forbidden","message":"Origin not allowed"}` + "\n"))
				return
			}

			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")

			if r.Method == http.MethodOptions {
				h.Set("Access-Control-Allow-Methods", corsAllowMethods)
				h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
				h.Set("Access-Control-Max-Age", corsMaxAge)
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
