package httpmiddleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// HeaderRequestID carries the request identifier.
const HeaderRequestID = "X-Request-ID"

// requestIDKey is the context key for the request ID value.
type requestIDKey struct{}

// ContextWithRequestID returns a context carrying id. Requests made with the
// context reuse it instead of generating a new one.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext extracts the request ID from the context.
// It returns an empty string if no request ID is present.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// RequestID returns a middleware that sends an X-Request-ID header with every
// request. The ID is taken, in order, from the request context, from a valid
// header already set on the request, or generated as a UUID v4. Valid IDs are
// at most 128 bytes of printable ASCII.
//
// The outgoing request is cloned; the caller's request is left untouched.
func RequestID() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			id := RequestIDFromContext(req.Context())
			if !isValidRequestID(id) {
				id = req.Header.Get(HeaderRequestID)
			}
			if !isValidRequestID(id) {
				id = uuid.New().String()
			}

			ctx := ContextWithRequestID(req.Context(), id)
			out := req.Clone(ctx)
			out.Header.Set(HeaderRequestID, id)
			return next.RoundTrip(out)
		})
	}
}

// isValidRequestID checks that id is non-empty, at most 128 bytes, and
// contains only printable ASCII (0x20-0x7E).
func isValidRequestID(id string) bool {
	if len(id) == 0 || len(id) > 128 {
		return false
	}
	for i := range len(id) {
		if id[i] < 0x20 || id[i] > 0x7E {
			return false
		}
	}
	return true
}
