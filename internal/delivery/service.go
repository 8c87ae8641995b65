// Package delivery runs the two user-facing delivery operations: downloading
// the generated document and having the service email it.
//
// Both operations validate a record snapshot, build the payload, call the
// document service and turn the outcome into exactly one status message.
package delivery

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/pi-generator/internal/docservice"
	"github.com/xenking/pi-generator/internal/domain/order"
)

// User-visible status texts.
const (
	MsgDownloaded = "PDF generated and downloaded successfully."
	MsgEmailed    = "PDF generated and emailed successfully."
	MsgTimeout    = "Request timed out. Render may be waking up. Please try again."
	MsgUnexpected = "Unexpected error"
)

// ErrBusy is returned when an operation is started while another one is
// still in flight.
var ErrBusy = errors.New("another delivery is in progress")

// Submitter sends a payload to the document service.
type Submitter interface {
	Submit(ctx context.Context, path string, p *docservice.Payload, mode docservice.Mode) (*docservice.Result, error)
}

// Sink stores a downloaded document under name and returns its location.
type Sink interface {
	Save(ctx context.Context, name string, doc []byte) (string, error)
}

// Status is the outcome shown to the user. Exactly one of Success and Error
// is set after an operation.
type Status struct {
	Success string
	Error   string
	// Location is where a downloaded document was stored.
	Location string
}

// OK reports whether the status is a success.
func (s Status) OK() bool {
	return s.Error == ""
}

// Service runs delivery operations. At most one operation is in flight at a
// time.
type Service struct {
	submitter Submitter
	sink      Sink
	logo      string
	now       func() time.Time
	tracer    trace.Tracer

	busy atomic.Bool
}

// Option configures a Service.
type Option func(*Service)

// WithLogo embeds the logo data URL in every payload.
func WithLogo(dataURL string) Option {
	return func(s *Service) { s.logo = dataURL }
}

// WithTracerProvider sets the provider for operation spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracer = tp.Tracer("github.com/xenking/pi-generator/internal/delivery") }
}

// NewService creates a delivery Service.
func NewService(submitter Submitter, sink Sink, opts ...Option) *Service {
	s := &Service{
		submitter: submitter,
		sink:      sink,
		now:       time.Now,
		tracer:    tracenoop.NewTracerProvider().Tracer(""),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Busy reports whether an operation is in flight.
func (s *Service) Busy() bool {
	return s.busy.Load()
}

// operation parameterizes the shared delivery routine.
type operation struct {
	name         string
	path         string
	requireEmail bool
	mode         docservice.Mode
	success      string
	// handle consumes a successful result and returns the stored location.
	handle func(ctx context.Context, r *order.Record, res *docservice.Result) (string, error)
}

// Download generates the document for r and stores it through the sink.
func (s *Service) Download(ctx context.Context, r *order.Record) (Status, error) {
	return s.run(ctx, r, operation{
		name:    "download",
		path:    docservice.PathGeneratePDF,
		mode:    docservice.ModeDocument,
		success: MsgDownloaded,
		handle: func(ctx context.Context, r *order.Record, res *docservice.Result) (string, error) {
			return s.sink.Save(ctx, DocumentName(r.PONumber, s.now()), res.Document)
		},
	})
}

// Email has the service generate the document for r and mail it to the
// recipient set on the record.
func (s *Service) Email(ctx context.Context, r *order.Record) (Status, error) {
	return s.run(ctx, r, operation{
		name:         "email",
		path:         docservice.PathGenerateAndEmailPDF,
		requireEmail: true,
		mode:         docservice.ModeAck,
		success:      MsgEmailed,
		handle: func(context.Context, *order.Record, *docservice.Result) (string, error) {
			return "", nil
		},
	})
}

// run is the routine shared by every operation: validate, build the payload,
// submit, handle the result. Only ErrBusy is returned as an error; every
// other failure becomes the Error of the returned Status.
func (s *Service) run(ctx context.Context, r *order.Record, op operation) (Status, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return Status{}, ErrBusy
	}
	defer s.busy.Store(false)

	ctx, span := s.tracer.Start(ctx, "delivery."+op.name)
	defer span.End()

	lg := zctx.From(ctx).With(zap.String("operation", op.name))
	snap := r.Snapshot()

	if err := order.Validate(snap, op.requireEmail); err != nil {
		span.SetAttributes(attribute.String("delivery.outcome", docservice.KindValidation.String()))
		lg.Debug("Validation failed", zap.Error(err))
		return Status{Error: Message(err)}, nil
	}

	start := time.Now()
	payload := docservice.NewPayload(snap, s.logo)
	res, err := s.submitter.Submit(ctx, op.path, payload, op.mode)

	var location string
	if err == nil {
		location, err = op.handle(ctx, snap, res)
		if err != nil {
			err = &docservice.UnexpectedError{Err: err}
		}
	}

	span.SetAttributes(attribute.String("delivery.outcome", docservice.KindOf(err).String()))
	if err != nil {
		lg.Warn("Delivery failed",
			zap.String("kind", docservice.KindOf(err).String()),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return Status{Error: Message(err)}, nil
	}

	lg.Info("Delivery completed",
		zap.String("po_number", snap.PONumber),
		zap.String("location", location),
		zap.Duration("duration", time.Since(start)),
	)
	return Status{Success: op.success, Location: location}, nil
}

// Message converts a delivery error into the text shown to the user.
// Timeouts get a retry hint; everything else is shown verbatim.
func Message(err error) string {
	switch docservice.KindOf(err) {
	case docservice.KindNone:
		return ""
	case docservice.KindTimeout:
		return MsgTimeout
	default:
		if msg := err.Error(); msg != "" {
			return msg
		}
		return MsgUnexpected
	}
}

// DocumentName returns the download file name for an order: the PO number,
// or the current Unix time in milliseconds when there is none. Path
// separators are replaced so the name stays a single path element.
func DocumentName(poNumber string, now time.Time) string {
	id := poNumber
	if id == "" {
		id = fmt.Sprint(now.UnixMilli())
	}
	id = strings.NewReplacer("/", "_", `\`, "_").Replace(id)
	return "proforma-invoice-" + id + ".pdf"
}
