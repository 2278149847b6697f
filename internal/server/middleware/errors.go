package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/fulmenhq/gofulmen/errors"

	"github.com/areaoforigin/narrator/internal/metrics"
)

// Responder writes err to the client as an error envelope.
type Responder func(w http.ResponseWriter, r *http.Request, err error)

// Recover turns a handler panic into a 500 written by respond. The panic
// value and stack go into the envelope context, which is logged but never
// sent to the client.
func Recover(respond Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}
				metrics.RecordPanic()

				envelope := errors.NewErrorEnvelope("INTERNAL_ERROR", "internal server error").
					WithCorrelationID(GetRequestID(r.Context()))
				envelope, _ = envelope.WithSeverity(errors.SeverityCritical)
				envelope, _ = envelope.WithContext(map[string]interface{}{
					"panic":       fmt.Sprint(v),
					"stack_trace": string(debug.Stack()),
				})
				respond(w, r, envelope)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
