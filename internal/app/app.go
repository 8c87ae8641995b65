package app

import (
	"context"
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/pi-generator/internal/delivery"
	"github.com/xenking/pi-generator/internal/docservice"
	"github.com/xenking/pi-generator/internal/logo"
	"github.com/xenking/pi-generator/internal/orderfile"
	"github.com/xenking/pi-generator/internal/session"
	"github.com/xenking/pi-generator/internal/storage/filesystem"
	"github.com/xenking/pi-generator/internal/storage/objectstore"
	"github.com/xenking/pi-generator/pkg/health"
	"github.com/xenking/pi-generator/pkg/httpmiddleware"
)

// Operation is a non-interactive delivery operation.
type Operation string

// Supported operations.
const (
	OpDownload Operation = "download"
	OpEmail    Operation = "email"
)

// ErrDeliveryFailed is returned by RunOnce when the operation ended with an
// error status. The status has already been written to the output.
var ErrDeliveryFailed = errors.New("delivery failed")

// Telemetry provides the OpenTelemetry providers; *app.Telemetry from
// go-faster/sdk implements it.
type Telemetry interface {
	TracerProvider() trace.TracerProvider
	MeterProvider() metric.MeterProvider
}

// components are the long-lived dependencies shared by every command.
type components struct {
	client   *docservice.Client
	delivery *delivery.Service
}

// build creates the document service client and the delivery service. The
// logo and the document sink are prepared concurrently; a missing logo is
// logged and the documents are generated without it.
func build(ctx context.Context, lg *zap.Logger, m Telemetry, cfg *Config) (*components, error) {
	httpClient := &http.Client{
		Transport: otelhttp.NewTransport(
			httpmiddleware.Wrap(http.DefaultTransport,
				httpmiddleware.Recovery(),
				httpmiddleware.RequestID(),
				httpmiddleware.LogRequests(),
			),
			otelhttp.WithTracerProvider(m.TracerProvider()),
			otelhttp.WithMeterProvider(m.MeterProvider()),
		),
	}

	client, err := docservice.New(cfg.BaseURL(),
		docservice.WithHTTPClient(httpClient),
		docservice.WithTimeout(cfg.Timeout),
		docservice.WithMeterProvider(m.MeterProvider()),
		docservice.WithTracerProvider(m.TracerProvider()),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create document service client")
	}

	var (
		logoURL string
		sink    delivery.Sink
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := logo.LoadDataURL(cfg.LogoPath)
		if err != nil {
			lg.Warn("Logo unavailable, documents will be generated without it",
				zap.String("path", cfg.LogoPath),
				zap.Error(err),
			)
			return nil
		}
		logoURL = u
		return nil
	})
	g.Go(func() error {
		s, err := newSink(gctx, cfg.Output)
		if err != nil {
			return errors.Wrap(err, "create document sink")
		}
		sink = s
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	opts := []delivery.Option{delivery.WithTracerProvider(m.TracerProvider())}
	if logoURL != "" {
		opts = append(opts, delivery.WithLogo(logoURL))
	}
	lg.Info("Initialized",
		zap.String("base_url", client.BaseURL()),
		zap.Duration("timeout", cfg.Timeout),
		zap.String("output", cfg.Output.Kind),
		zap.Bool("logo", logoURL != ""),
	)
	return &components{
		client:   client,
		delivery: delivery.NewService(client, sink, opts...),
	}, nil
}

func newSink(ctx context.Context, cfg OutputConfig) (delivery.Sink, error) {
	switch cfg.Kind {
	case OutputS3:
		return objectstore.NewSink(ctx, objectstore.Config{
			Bucket:   cfg.S3.Bucket,
			Region:   cfg.S3.Region,
			Endpoint: cfg.S3.Endpoint,
			Prefix:   cfg.S3.Prefix,
		})
	default:
		return filesystem.NewSink(cfg.Dir)
	}
}

// RunSession runs the interactive session over in and out until the user
// quits, input ends or ctx is cancelled.
func RunSession(ctx context.Context, lg *zap.Logger, m Telemetry, cfg *Config, in io.Reader, out io.Writer) error {
	ctx = zctx.Base(ctx, lg)
	c, err := build(ctx, lg, m, cfg)
	if err != nil {
		return err
	}

	prober := health.New()
	if cfg.Probe.Interval > 0 {
		// Default thresholds: a cold start shows as pending, not unhealthy.
		prober.Add("docservice", cfg.Probe.Timeout, health.PingCheck(c.client))
		prober.Start(ctx, cfg.Probe.Interval)
		defer prober.Stop()
	}

	sess := session.New(session.NewGate(cfg.Auth.Username, cfg.Auth.Password), c.delivery)
	if err := session.NewREPL(sess, out, prober).Run(ctx, in); err != nil && !errors.Is(err, context.Canceled) {
		return errors.Wrap(err, "session")
	}
	return nil
}

// RunOnce loads the order file at path, runs op and writes the resulting
// status to out.
func RunOnce(ctx context.Context, lg *zap.Logger, m Telemetry, cfg *Config, op Operation, path string, out io.Writer) error {
	ctx = zctx.Base(ctx, lg)
	rec, err := orderfile.Load(path)
	if err != nil {
		return err
	}
	c, err := build(ctx, lg, m, cfg)
	if err != nil {
		return err
	}

	var st delivery.Status
	switch op {
	case OpDownload:
		st, err = c.delivery.Download(ctx, rec)
	case OpEmail:
		st, err = c.delivery.Email(ctx, rec)
	default:
		return errors.Errorf("unknown operation %q", op)
	}
	if err != nil {
		return err
	}

	session.RenderStatus(out, st)
	if !st.OK() {
		return ErrDeliveryFailed
	}
	return nil
}
