package metrics

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestNew_FunctionNameDimension(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "cartoonaf-filter")

	r := New("Cartoonaf")
	if r.namespace != "Cartoonaf" {
		t.Errorf("namespace = %s, want Cartoonaf", r.namespace)
	}
	if r.dimensions["FunctionName"] != "cartoonaf-filter" {
		t.Errorf("FunctionName dimension = %q, want cartoonaf-filter", r.dimensions["FunctionName"])
	}
}

func TestRecorder_FlushOutput(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")
	var buf bytes.Buffer

	rec := NewWithWriter("Cartoonaf", &buf)
	rec.now = func() time.Time { return time.UnixMilli(1700000000000) }
	rec.Dimension("Filter", "ep")
	rec.Metric("FilterLatencyMs", 12.5, UnitMilliseconds)
	rec.Metric("OutputBytes", 2048, UnitBytes)
	rec.Property("name", "public/cat.jpg")
	rec.Flush()

	out := buf.String()
	if strings.Count(out, "\n") != 1 || !strings.HasSuffix(out, "\n") {
		t.Fatalf("EMF output must be exactly one line, got %q", out)
	}

	var doc map[string]any
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("EMF output is not JSON: %v\n%s", err, out)
	}

	aws, ok := doc["_aws"].(map[string]any)
	if !ok {
		t.Fatal("missing _aws directive")
	}
	if aws["Timestamp"] != float64(1700000000000) {
		t.Errorf("Timestamp = %v", aws["Timestamp"])
	}
	blocks := aws["CloudWatchMetrics"].([]any)
	block := blocks[0].(map[string]any)
	if block["Namespace"] != "Cartoonaf" {
		t.Errorf("Namespace = %v, want Cartoonaf", block["Namespace"])
	}
	dims := block["Dimensions"].([]any)[0].([]any)
	if len(dims) != 1 || dims[0] != "Filter" {
		t.Errorf("Dimensions = %v, want [Filter]", dims)
	}
	defs := block["Metrics"].([]any)
	if len(defs) != 2 || defs[0].(map[string]any)["Name"] != "FilterLatencyMs" {
		t.Errorf("Metrics = %v", defs)
	}

	if doc["Filter"] != "ep" {
		t.Errorf("Filter = %v, want ep", doc["Filter"])
	}
	if doc["FilterLatencyMs"] != 12.5 {
		t.Errorf("FilterLatencyMs = %v, want 12.5", doc["FilterLatencyMs"])
	}
	if doc["name"] != "public/cat.jpg" {
		t.Errorf("name = %v", doc["name"])
	}
}

func TestRecorder_FlushEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter("Test", &buf).Property("only", "props").Flush()
	if buf.Len() != 0 {
		t.Errorf("expected no output without metrics, got %q", buf.String())
	}
}

func TestRecorder_Chaining(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")
	rec := NewWithWriter("Test", &bytes.Buffer{}).
		Dimension("Filter", "style").
		Duration("TotalLatencyMs", 1500*time.Microsecond).
		Count("Errors").
		Property("requestId", "abc")

	if rec.dimensions["Filter"] != "style" {
		t.Error("Dimension not recorded")
	}
	if rec.values["TotalLatencyMs"] != 1.5 || rec.units["TotalLatencyMs"] != UnitMilliseconds {
		t.Errorf("Duration = %v %s, want 1.5 Milliseconds", rec.values["TotalLatencyMs"], rec.units["TotalLatencyMs"])
	}
	if rec.values["Errors"] != 1 || rec.units["Errors"] != UnitCount {
		t.Error("Count not recorded")
	}
	if rec.properties["requestId"] != "abc" {
		t.Error("Property not recorded")
	}
}
