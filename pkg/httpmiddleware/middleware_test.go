package httpmiddleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// --- Helpers ---

// capture is a terminal transport that records the request it receives.
type capture struct {
	req    *http.Request
	status int
	err    error
}

func (c *capture) RoundTrip(req *http.Request) (*http.Response, error) {
	c.req = req
	if c.err != nil {
		return nil, c.err
	}
	status := c.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader("")),
		Request:    req,
	}, nil
}

func newRequest(t *testing.T, ctx context.Context) *http.Request {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "http://docs.example/generate-pdf", nil)
	require.NoError(t, err)
	return req
}

func observedContext(level zapcore.Level) (context.Context, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return zctx.Base(context.Background(), zap.New(core)), logs
}

// --- Tests ---

func TestWrap_Order(t *testing.T) {
	var trace []string
	mark := func(name string) Middleware {
		return func(next http.RoundTripper) http.RoundTripper {
			return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
				trace = append(trace, name)
				return next.RoundTrip(req)
			})
		}
	}

	rt := Wrap(&capture{}, mark("outer"), mark("inner"))
	_, err := rt.RoundTrip(newRequest(t, context.Background()))
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, trace)
}

func TestWrap_NilTransport(t *testing.T) {
	assert.Equal(t, http.DefaultTransport, Wrap(nil))
}

func TestRequestID_Generated(t *testing.T) {
	c := &capture{}
	req := newRequest(t, context.Background())

	_, err := Wrap(c, RequestID()).RoundTrip(req)
	require.NoError(t, err)

	id := c.req.Header.Get(HeaderRequestID)
	_, parseErr := uuid.Parse(id)
	require.NoError(t, parseErr, "generated id must be a UUID: %q", id)
	assert.Equal(t, id, RequestIDFromContext(c.req.Context()))
	assert.Empty(t, req.Header.Get(HeaderRequestID), "caller's request must not be modified")
}

func TestRequestID_Sources(t *testing.T) {
	tests := []struct {
		name   string
		ctxID  string
		header string
		want   string
	}{
		{"context wins", "ctx-id", "header-id", "ctx-id"},
		{"header reused", "", "header-id", "header-id"},
		{"invalid context falls back to header", "bad\nid", "header-id", "header-id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if tt.ctxID != "" {
				ctx = ContextWithRequestID(ctx, tt.ctxID)
			}
			req := newRequest(t, ctx)
			req.Header.Set(HeaderRequestID, tt.header)

			c := &capture{}
			_, err := Wrap(c, RequestID()).RoundTrip(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.req.Header.Get(HeaderRequestID))
		})
	}
}

func TestIsValidRequestID(t *testing.T) {
	assert.True(t, isValidRequestID("abc-123"))
	assert.False(t, isValidRequestID(""))
	assert.False(t, isValidRequestID(strings.Repeat("a", 129)))
	assert.False(t, isValidRequestID("tab\there"))
	assert.False(t, isValidRequestID("café"))
}

func TestRecovery(t *testing.T) {
	ctx, logs := observedContext(zapcore.ErrorLevel)
	panicking := RoundTripperFunc(func(*http.Request) (*http.Response, error) {
		panic("boom")
	})

	resp, err := Wrap(panicking, Recovery()).RoundTrip(newRequest(t, ctx))

	assert.Nil(t, resp)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPanic))
	assert.Contains(t, err.Error(), "boom")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "panic recovered", logs.All()[0].Message)
}

func TestRecovery_PassThrough(t *testing.T) {
	c := &capture{status: http.StatusTeapot}
	resp, err := Wrap(c, Recovery()).RoundTrip(newRequest(t, context.Background()))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
}

func TestLogRequests(t *testing.T) {
	ctx, logs := observedContext(zapcore.DebugLevel)

	c := &capture{status: http.StatusCreated}
	_, err := Wrap(c, RequestID(), LogRequests()).RoundTrip(newRequest(t, ContextWithRequestID(ctx, "req-1")))
	require.NoError(t, err)

	entries := logs.FilterMessage("Request completed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "POST", fields["method"])
	assert.Equal(t, "/generate-pdf", fields["path"])
	assert.Equal(t, int64(http.StatusCreated), fields["status"])
	assert.Equal(t, "req-1", fields["request_id"])
}

func TestLogRequests_Error(t *testing.T) {
	ctx, logs := observedContext(zapcore.DebugLevel)

	c := &capture{err: errors.New("dial tcp: refused")}
	_, err := Wrap(c, LogRequests()).RoundTrip(newRequest(t, ctx))
	require.Error(t, err)

	entries := logs.FilterMessage("Request failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
}

func TestMiddleware_WithHTTPClient(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get(HeaderRequestID)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := &http.Client{Transport: Wrap(nil, Recovery(), RequestID(), LogRequests())}
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.NotEmpty(t, got)
}
