package logging

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestStartupLogger_Log(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, zerolog.InfoLevel)

	NewStartupLogger("filter-lambda").
		S3Bucket("images", "cartoonaf").
		SSMParam("bucket", "/cartoonaf/bucket").
		Feature("strictFilters", true).
		Config("keyStrategy", "basename").
		InitDuration(15 * time.Millisecond).
		Log()

	var doc map[string]any
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("startup event is not JSON: %v\n%s", err, buf.String())
	}

	lambda, ok := doc["lambda"].(map[string]any)
	if !ok || lambda["name"] != "filter-lambda" {
		t.Errorf("lambda.name = %v, want filter-lambda", doc["lambda"])
	}
	resources, ok := doc["resources"].(map[string]any)
	if !ok {
		t.Fatal("missing resources")
	}
	buckets := resources["s3Buckets"].(map[string]any)
	if buckets["images"] != "cartoonaf" {
		t.Errorf("s3Buckets.images = %v, want cartoonaf", buckets["images"])
	}
	features := doc["features"].(map[string]any)
	if features["strictFilters"] != true {
		t.Errorf("features.strictFilters = %v, want true", features["strictFilters"])
	}
	if doc["message"] != "Lambda cold start complete" {
		t.Errorf("message = %v", doc["message"])
	}
}

func TestStartupLogger_OmitsEmptySections(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, zerolog.InfoLevel)

	NewStartupLogger("bare").Log()

	var doc map[string]any
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("startup event is not JSON: %v", err)
	}
	for _, key := range []string{"resources", "features", "config", "initDuration"} {
		if _, ok := doc[key]; ok {
			t.Errorf("unexpected %q in event with nothing registered", key)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug": zerolog.DebugLevel,
		"warn":  zerolog.WarnLevel,
		"error": zerolog.ErrorLevel,
		"info":  zerolog.InfoLevel,
		"":      zerolog.InfoLevel,
		"loud":  zerolog.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
