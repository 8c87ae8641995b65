// Package docservice is the client of the remote document-generation service.
//
// The service renders an order into a PDF and either returns it or mails it
// to a recipient. Every call is bounded by a timeout covering the wait for
// response headers; failures are classified into timeout, service and
// unexpected errors (see KindOf).
package docservice

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const (
	// PathGeneratePDF renders the order and returns the document.
	PathGeneratePDF = "/api/generate-pdf"
	// PathGenerateAndEmailPDF renders the order and mails it to the recipient.
	PathGenerateAndEmailPDF = "/api/generate-and-email-pdf"

	// DefaultTimeout bounds the wait for response headers.
	DefaultTimeout = 90 * time.Second

	instrumentationName = "github.com/xenking/pi-generator/internal/docservice"
)

// Mode selects what the client does with a successful response body.
type Mode int

const (
	// ModeDocument reads the body as the generated document.
	ModeDocument Mode = iota
	// ModeAck discards the body; the status alone signals success.
	ModeAck
)

// Result is a successful service response.
type Result struct {
	Status      int
	ContentType string
	// Document is nil for ModeAck.
	Document []byte
}

// Client calls the document service.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	tracer  trace.Tracer

	submissions metric.Int64Counter
	duration    metric.Float64Histogram
}

type options struct {
	http    *http.Client
	timeout time.Duration
	meter   metric.MeterProvider
	tracer  trace.TracerProvider
}

// Option configures a Client.
type Option func(*options)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.http = c }
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithMeterProvider sets the provider for submission metrics.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meter = mp }
}

// WithTracerProvider sets the provider for submission spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracer = tp }
}

// New creates a Client for the service at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	o := options{
		http:    http.DefaultClient,
		timeout: DefaultTimeout,
		meter:   metricnoop.NewMeterProvider(),
		tracer:  tracenoop.NewTracerProvider(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.timeout <= 0 {
		return nil, errors.Errorf("invalid timeout %s", o.timeout)
	}

	meter := o.meter.Meter(instrumentationName)
	submissions, err := meter.Int64Counter("docservice.submissions",
		metric.WithDescription("Document service submissions by outcome"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create submissions counter")
	}
	duration, err := meter.Float64Histogram("docservice.submission.duration",
		metric.WithDescription("Document service submission duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create duration histogram")
	}

	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		http:        o.http,
		timeout:     o.timeout,
		tracer:      o.tracer.Tracer(instrumentationName),
		submissions: submissions,
		duration:    duration,
	}, nil
}

// BaseURL returns the service base URL without trailing slashes.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Submit POSTs the payload to path and classifies the outcome.
//
// A timer races the request: if it fires before response headers arrive the
// request is cancelled and ErrTimeout is returned. The timer is stopped on
// every path. Non-success statuses yield *ServiceError, other transport
// failures *UnexpectedError.
func (c *Client) Submit(ctx context.Context, path string, p *Payload, mode Mode) (_ *Result, rerr error) {
	ctx, span := c.tracer.Start(ctx, "docservice.Submit",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("docservice.endpoint", path)),
	)
	start := time.Now()
	defer func() {
		kind := KindOf(rerr)
		attrs := metric.WithAttributes(
			attribute.String("endpoint", path),
			attribute.String("outcome", kind.String()),
		)
		c.submissions.Add(ctx, 1, attrs)
		c.duration.Record(ctx, time.Since(start).Seconds(), attrs)
		if rerr != nil {
			span.RecordError(rerr)
			span.SetStatus(codes.Error, kind.String())
		}
		span.End()
	}()

	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	p.Encode(e)

	reqCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL+path, bytes.NewReader(e.Bytes()))
	if err != nil {
		return nil, &UnexpectedError{Err: errors.Wrap(err, "build request")}
	}
	req.Header.Set("Content-Type", "application/json")

	timer := time.AfterFunc(c.timeout, func() { cancel(ErrTimeout) })
	resp, err := c.http.Do(req)
	fired := !timer.Stop()
	if err != nil {
		if fired || errors.Is(context.Cause(reqCtx), ErrTimeout) {
			return nil, ErrTimeout
		}
		return nil, &UnexpectedError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	// Headers won the race but the timer fired before it was stopped: the
	// request context is already cancelled, so the body cannot be trusted.
	if fired {
		return nil, ErrTimeout
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ServiceError{
			Status:  resp.StatusCode,
			Message: errorMessage(resp),
		}
	}

	res := &Result{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}
	switch mode {
	case ModeAck:
		_, _ = io.Copy(io.Discard, resp.Body)
	default:
		doc, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &UnexpectedError{Err: errors.Wrap(err, "read document")}
		}
		res.Document = doc
	}
	return res, nil
}

// Ping issues a GET against the base URL. Any answer below 500 counts as
// reachable; it is used to wake the service and to probe readiness.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", http.NoBody)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "ping")
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusInternalServerError {
		return errors.Errorf("service answered %d", resp.StatusCode)
	}
	return nil
}

// errorMessage extracts a human-readable message from a failed response.
//
// JSON bodies yield their "error" field, else "message"; other bodies are
// used verbatim. Anything unusable falls back to "Request failed (status)".
func errorMessage(resp *http.Response) string {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fallbackMessage(resp.StatusCode)
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		if msg := jsonErrorMessage(body); msg != "" {
			return msg
		}
		return fallbackMessage(resp.StatusCode)
	}

	if len(body) == 0 {
		return fallbackMessage(resp.StatusCode)
	}
	return string(body)
}

// jsonErrorMessage returns the "error" field of a JSON object, or its
// "message" field, or "" when neither is a non-empty string.
func jsonErrorMessage(body []byte) string {
	var errMsg, msg string
	err := jx.DecodeBytes(body).Obj(func(d *jx.Decoder, key string) error {
		if d.Next() != jx.String {
			return d.Skip()
		}
		switch key {
		case "error":
			v, err := d.Str()
			errMsg = v
			return err
		case "message":
			v, err := d.Str()
			msg = v
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return ""
	}
	if errMsg != "" {
		return errMsg
	}
	return msg
}
