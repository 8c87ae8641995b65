package httpmiddleware

import (
	"net/http"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// LogRequests returns a middleware that logs every outbound request with the
// logger from the request context. Completed round trips are logged at debug
// level, transport errors at warn level.
func LogRequests() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(req)

			lg := zctx.From(req.Context()).With(
				zap.String("method", req.Method),
				zap.String("host", req.URL.Host),
				zap.String("path", req.URL.Path),
				zap.Duration("duration", time.Since(start)),
			)
			if id := RequestIDFromContext(req.Context()); id != "" {
				lg = lg.With(zap.String("request_id", id))
			}
			if err != nil {
				lg.Warn("Request failed", zap.Error(err))
				return resp, err
			}
			lg.Debug("Request completed", zap.Int("status", resp.StatusCode))
			return resp, nil
		})
	}
}
