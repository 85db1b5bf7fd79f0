package instrumentation

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"
)

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{ServiceName: "test-service", Enabled: false})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if provider.Enabled() {
		t.Error("expected provider to be disabled")
	}
	if provider.Metrics() == nil {
		t.Error("expected metrics to be non-nil even when disabled")
	}
	if provider.UsesPrometheus() {
		t.Error("disabled provider should not ask for a scrape endpoint")
	}
	if err := provider.Shutdown(context.Background()); err != nil {
		t.Errorf("expected no error on shutdown, got %v", err)
	}
}

func TestNewProvider_PrometheusExporter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := NewProvider(ctx, Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: ExporterPrometheus,
		TracingExporter: ExporterNone,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer func() { _ = provider.Shutdown(ctx) }()

	if !provider.Enabled() {
		t.Error("expected provider to be enabled")
	}
	if !provider.UsesPrometheus() {
		t.Error("expected prometheus scrape endpoint to be required")
	}
	if provider.Tracer("test") == nil {
		t.Error("expected tracer to be non-nil")
	}

	// Recording through the real provider must not panic.
	provider.Metrics().RecordGmailCall(ctx, OperationMessagesList, StatusSuccess, time.Millisecond)
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{
		Enabled:         true,
		MetricsExporter: "carrier-pigeon",
	})
	if err == nil {
		t.Fatal("expected an error for an unknown exporter")
	}
}

func TestNewProvider_OTLPWithoutEndpoint(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{
		Enabled:         true,
		MetricsExporter: ExporterPrometheus,
		TracingExporter: ExporterOTLP,
	})
	if err == nil {
		t.Fatal("expected an error when the OTLP endpoint is missing")
	}
}

func TestInstanceID(t *testing.T) {
	if got := instanceID(Config{ServiceInstanceID: "pod-1"}); got != "pod-1" {
		t.Errorf("instanceID() = %q, want pod-1", got)
	}
	if got := instanceID(Config{}); got == "" {
		t.Error("instanceID() should fall back to hostname or a uuid")
	}
}

func TestNewProvider_StdoutExportersWriteToStderr(t *testing.T) {
	if debugWriter != os.Stderr {
		t.Fatal("stdout exporters must default to stderr")
	}

	var buf bytes.Buffer
	debugWriter = &buf
	t.Cleanup(func() { debugWriter = os.Stderr })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := NewProvider(ctx, Config{
		ServiceName:       "test-service",
		Enabled:           true,
		MetricsExporter:   ExporterStdout,
		TracingExporter:   ExporterStdout,
		TraceSamplingRate: 1,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if provider.UsesPrometheus() {
		t.Error("stdout exporter should not ask for a scrape endpoint")
	}

	provider.Metrics().RecordGmailCall(ctx, OperationMessagesList, StatusSuccess, time.Millisecond)
	_, span := provider.Tracer("test").Start(ctx, "list")
	span.End()

	if err := provider.Shutdown(ctx); err != nil {
		t.Fatalf("expected no error on shutdown, got %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "gmail") {
		t.Errorf("expected exported metrics in the debug writer, got %q", out)
	}
	if !strings.Contains(out, `"Name":"list"`) {
		t.Errorf("expected the exported span in the debug writer, got %q", out)
	}
}
