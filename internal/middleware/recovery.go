package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/2beens/sportsee/internal/telemetry/metrics"
	"github.com/2beens/sportsee/pkg"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// PanicRecovery turns a handler panic into a 500 JSON response.
// The panic is recorded on the request span and counted.
func PanicRecovery(metricsManager *metrics.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(respWriter http.ResponseWriter, req *http.Request) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				// a panic carrying ErrAbortHandler must keep aborting the connection
				if r == http.ErrAbortHandler {
					panic(r)
				}

				log.WithField("route", routeName(req)).
					Errorf("http: panic serving %s: %v\n%s", req.URL.Path, r, debug.Stack())

				span := trace.SpanFromContext(req.Context())
				span.RecordError(fmt.Errorf("panic: %v", r))
				span.SetStatus(codes.Error, "panic")

				if metricsManager != nil {
					metricsManager.CounterHandleRequestPanic.Inc()
				}
				pkg.WriteJSONMessage(respWriter, http.StatusInternalServerError, "internal error")
			}()

			next.ServeHTTP(respWriter, req)
		})
	}
}
