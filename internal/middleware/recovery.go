package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/2beens/macrotrack/internal/telemetry/metrics"
	"github.com/2beens/macrotrack/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// PanicRecovery turns a handler panic into a 500 JSON error. The stack is
// logged at error level, which also reports it to sentry when enabled.
func PanicRecovery(metricsManager *metrics.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					// net/http aborts the response on its own
					panic(rec)
				}

				routeName := "unknown"
				if route := mux.CurrentRoute(r); route != nil && route.GetName() != "" {
					routeName = route.GetName()
				}
				log.WithFields(log.Fields{
					"method": r.Method,
					"path":   r.URL.Path,
					"route":  routeName,
				}).Errorf("panic: %v\n%s", rec, debug.Stack())

				if metricsManager != nil {
					metricsManager.CounterHandleRequestPanic.Inc()
				}
				pkg.WriteJSONError(w, "internal", http.StatusInternalServerError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
