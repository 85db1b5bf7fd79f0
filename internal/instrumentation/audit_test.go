package instrumentation

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func newBufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestAuditLogger_Success(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(newBufferLogger(&buf))

	ti := NewToolInvocation("search_emails", SourceBridge).
		WithAgent("search_specialist").
		WithArguments(map[string]string{"query": "from:user:abcd"}).
		Complete(StatusSuccess, "")
	al.LogToolInvocation(ti)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid JSON log: %v", err)
	}
	if rec["msg"] != "tool_executed" {
		t.Errorf("msg = %v, want tool_executed", rec["msg"])
	}
	if rec["agent"] != "search_specialist" || rec["source"] != "bridge" {
		t.Errorf("unexpected record: %v", rec)
	}
	if _, ok := rec["arguments"]; ok {
		t.Error("arguments must be omitted unless enabled")
	}
}

func TestAuditLogger_FailureWithArguments(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLoggerWithConfig(newBufferLogger(&buf), AuditLoggingConfig{Enabled: true, IncludeArguments: true})

	ti := NewToolInvocation("get_email_by_id", SourceMCP).
		WithArguments(map[string]string{"email_id": "bad-id"}).
		Complete(StatusError, "Failed to get email: 404")
	al.LogToolInvocation(ti)

	out := buf.String()
	if !strings.Contains(out, `"level":"WARN"`) || !strings.Contains(out, "tool_failed") {
		t.Errorf("expected a warn level tool_failed record, got %s", out)
	}
	if !strings.Contains(out, "bad-id") {
		t.Errorf("expected arguments in record, got %s", out)
	}
}

func TestAuditLogger_NotFoundIsNotFailure(t *testing.T) {
	ti := NewToolInvocation("find_label_by_name", SourceCLI).Complete(StatusNotFound, "")
	if !ti.Succeeded() {
		t.Error("not_found is a valid answer, not a failure")
	}
}

func TestAuditLogger_Disabled(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLoggerWithConfig(newBufferLogger(&buf), AuditLoggingConfig{Enabled: false})
	al.LogToolInvocation(NewToolInvocation("list_labels", SourceCLI).Complete(StatusSuccess, ""))
	if buf.Len() != 0 {
		t.Errorf("disabled audit logger wrote %q", buf.String())
	}

	var nilLogger *AuditLogger
	nilLogger.LogToolInvocation(NewToolInvocation("list_labels", SourceCLI))
}
