package httpmw

import (
	"net/http"

	"github.com/cospark/hubspot-proxy/internal/log"
	"github.com/cospark/hubspot-proxy/internal/xerrors"
)

// Recover catches handler panics, logs them with a stack, and serves a
// JSON 500 so no request ever reaches the caller as a raw network
// failure. onPanic, if set, is called after logging (metrics).
func Recover(L log.Logger, onPanic func()) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}

				var err error
				if e, ok := rec.(error); ok {
					err = xerrors.WithStack(e)
				} else {
					err = xerrors.Newf("panic: %v", rec)
				}

				L.Error(r.Context(), err, "httpserver panic recovered",
					"http.request.method", r.Method,
					"url.path", r.URL.Path,
				)

				if onPanic != nil {
					onPanic()
				}

				// header may already be partly written; best effort
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"success":false,"error":"Internal server error"}` + "\n"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
