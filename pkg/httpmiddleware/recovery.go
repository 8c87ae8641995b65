package httpmiddleware

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// ErrPanic is returned when the wrapped transport panics.
var ErrPanic = errors.New("transport panic")

// Recovery returns a middleware that recovers from panics in the wrapped
// transport, logs them with a stack trace, and returns an error wrapping
// ErrPanic instead.
func Recovery() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (resp *http.Response, err error) {
			defer func() {
				if rec := recover(); rec != nil {
					zctx.From(req.Context()).Error("panic recovered",
						zap.Any("panic", rec),
						zap.Stack("stack"),
					)
					resp = nil
					err = errors.Wrapf(ErrPanic, "%v", rec)
				}
			}()
			return next.RoundTrip(req)
		})
	}
}
