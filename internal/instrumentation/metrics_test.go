package instrumentation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp.Meter("test"))
	require.NoError(t, err)
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumInt64(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "expected an int64 sum, got %T", data)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMetrics_RecordToolInvocation(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordToolInvocation(ctx, "search_emails", SourceMCP, StatusSuccess, 10*time.Millisecond)
	m.RecordToolInvocation(ctx, "find_label_by_name", SourceBridge, StatusNotFound, 5*time.Millisecond)
	m.RecordToolInvocation(ctx, "get_email_by_id", SourceCLI, "weird", time.Millisecond)

	data := collect(t, reader)
	assert.Equal(t, int64(3), sumInt64(t, data["tool_invocations_total"]))

	hist, ok := data["tool_duration_seconds"].(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Len(t, hist.DataPoints, 3)
}

func TestMetrics_BridgeSessions(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.IncrementBridgeSessions(ctx)
	m.IncrementBridgeSessions(ctx)
	m.DecrementBridgeSessions(ctx)
	m.RecordBridgeMessage(ctx, MimeTextPlain)
	m.RecordBridgeMessage(ctx, "image/png")

	data := collect(t, reader)
	assert.Equal(t, int64(1), sumInt64(t, data["bridge_active_sessions"]))
	assert.Equal(t, int64(2), sumInt64(t, data["bridge_messages_total"]))
}

func TestMetrics_GmailAndOAuth(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordGmailCall(ctx, OperationMessagesGet, StatusError, time.Second)
	m.RecordOAuthTokenRefresh(ctx, OAuthResultSuccess)
	m.RecordRoute(ctx, "unread", "priority_manager")
	m.RecordHTTPRequest(ctx, "POST", "/send/:clientId", 200, time.Millisecond)

	data := collect(t, reader)
	assert.Equal(t, int64(1), sumInt64(t, data["gmail_api_calls_total"]))
	assert.Equal(t, int64(1), sumInt64(t, data["oauth_token_refresh_total"]))
	assert.Equal(t, int64(1), sumInt64(t, data["classifier_routes_total"]))
	assert.Equal(t, int64(1), sumInt64(t, data["http_requests_total"]))
}

func TestMetrics_ZeroValueIsNoop(t *testing.T) {
	ctx := context.Background()

	for _, m := range []*Metrics{{}, nil} {
		m.RecordHTTPRequest(ctx, "GET", "/", 200, time.Millisecond)
		m.RecordGmailCall(ctx, OperationLabelsList, StatusSuccess, time.Millisecond)
		m.RecordToolInvocation(ctx, "list_labels", SourceCLI, StatusSuccess, time.Millisecond)
		m.RecordOAuthTokenRefresh(ctx, OAuthResultFailure)
		m.IncrementBridgeSessions(ctx)
		m.DecrementBridgeSessions(ctx)
		m.RecordBridgeMessage(ctx, MimeAudioPCM)
		m.RecordRoute(ctx, "fallback", "gmail_manager")
	}
}
