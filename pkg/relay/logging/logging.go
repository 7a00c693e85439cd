// Package logging builds the structured loggers used by the server.
//
// Everything logs through log/slog. A logger either writes JSON or text to a
// local writer, or is bridged to an OpenTelemetry LoggerProvider so records
// are exported over OTLP.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// Config selects the logger.
type Config struct {
	// Level is the minimum level for local output. Ignored when OTel is set;
	// filtering is then up to the provider's processors.
	Level slog.Level

	// Format is "json" or "text".
	// Default: "text"
	Format string

	// Output receives local output.
	// Default: os.Stderr
	Output io.Writer

	// OTel bridges records to an OpenTelemetry LoggerProvider.
	OTel bool

	// Name is the instrumentation scope of the bridged logger.
	// Default: "relay"
	Name string

	// Provider is the LoggerProvider used when OTel is set. nil uses the
	// global provider.
	Provider otellog.LoggerProvider
}

// New returns a logger for cfg.
func New(cfg Config) *slog.Logger {
	if cfg.OTel {
		name := cfg.Name
		if name == "" {
			name = "relay"
		}
		var opts []otelslog.Option
		if cfg.Provider != nil {
			opts = append(opts, otelslog.WithLoggerProvider(cfg.Provider))
		}
		return otelslog.NewLogger(name, opts...)
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	hopts := &slog.HandlerOptions{Level: cfg.Level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(out, hopts))
	}
	return slog.New(slog.NewTextHandler(out, hopts))
}

// ParseLevel parses "debug", "info", "warn" or "error" (case-insensitive,
// with optional offsets such as "info+2").
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("logging: %w", err)
	}
	return l, nil
}

// NewOTLPProvider creates a LoggerProvider exporting to an OTLP/gRPC
// collector at endpoint ("host:port") through a batch processor. The
// connection is made lazily. Callers must Shutdown the provider to flush.
func NewOTLPProvider(ctx context.Context, endpoint string, insecure bool) (*sdklog.LoggerProvider, error) {
	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(endpoint)}
	if insecure {
		opts = append(opts, otlploggrpc.WithInsecure())
	}
	exp, err := otlploggrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("logging: otlp exporter: %w", err)
	}
	return sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewBatchProcessor(exp))), nil
}
