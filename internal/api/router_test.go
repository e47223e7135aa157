package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/fpang/cartoonaf/internal/config"
	"github.com/fpang/cartoonaf/internal/filter"
	"github.com/fpang/cartoonaf/internal/gallery"
	"github.com/fpang/cartoonaf/internal/imagecodec"
	"github.com/fpang/cartoonaf/internal/objectstore"
	"github.com/fpang/cartoonaf/internal/pipeline"
)

func newTestServer(t *testing.T, cfg config.Config, opts ...Option) (*httptest.Server, *objectstore.MemoryStore) {
	t.Helper()
	store := objectstore.NewMemoryStore()
	data, err := imagecodec.EncodeBytes(image.NewNRGBA(image.Rect(0, 0, 8, 8)), ".png")
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Put(context.Background(), "public/cat/source.png", data, "image/png"); err != nil {
		t.Fatal(err)
	}

	h := pipeline.NewHandler(cfg, store, filter.NewRegistry(filter.GoEngine{}), pipeline.WithMetricsWriter(io.Discard))
	g := gallery.New(store, cfg.Bucket, cfg.URLRegion)
	opts = append([]Option{WithMetrics("Test", io.Discard)}, opts...)
	srv := httptest.NewServer(NewServer(h, g, opts...).Router())
	t.Cleanup(srv.Close)
	return srv, store
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Bucket = "b"
	return cfg
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(), WithOriginVerify("secret"))
	resp, err := http.Get(srv.URL + "/api/health")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body := decodeBody(t, resp); body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestFilter(t *testing.T) {
	srv, store := newTestServer(t, testConfig())
	resp, err := http.Post(srv.URL+"/api/filter", "application/json",
		strings.NewReader(`{"name":"public/cat/source.png","filter":"ep","sigma_s":10,"sigma_r":0.2}`))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	images, _ := decodeBody(t, resp)["images"].(map[string]any)
	url, _ := images["edgePreserving"].(string)
	if !strings.HasPrefix(url, "https://b.s3.ap-northeast-2.amazonaws.com/public/cat/source/ep.png?t=") {
		t.Errorf("edgePreserving = %q", url)
	}
	params, _ := images["params"].(map[string]any)
	if params["sigma_s"] != 10.0 || params["flags"] != 0.0 {
		t.Errorf("params = %v", params)
	}
	if store.Writes("public/cat/source/ep.png") != 1 {
		t.Error("filtered image not stored")
	}
}

func TestFilter_ErrorStatus(t *testing.T) {
	strict := testConfig()
	strict.StrictFilters = true
	strict.FailOnMissingSource = true

	tests := []struct {
		name   string
		cfg    config.Config
		body   string
		status int
	}{
		{"malformed", testConfig(), `{"name":`, http.StatusBadRequest},
		{"missing filter", testConfig(), `{"name":"cat.png"}`, http.StatusBadRequest},
		{"unknown filter strict", strict, `{"name":"public/cat/source.png","filter":"sepia"}`, http.StatusBadRequest},
		{"missing source strict", strict, `{"name":"nope.png","filter":"ep"}`, http.StatusNotFound},
		{"missing source default", testConfig(), `{"name":"nope.png","filter":"ep"}`, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, tt.cfg)
			resp, err := http.Post(srv.URL+"/api/filter", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			body := decodeBody(t, resp)
			msg, _ := body["error"].(string)
			if msg == "" {
				t.Errorf("error body = %v", body)
			}
			if tt.status == http.StatusInternalServerError && msg != "internal error" {
				t.Errorf("server error leaked details: %q", msg)
			}
		})
	}
}

func TestFilter_BodyErrors(t *testing.T) {
	h := pipeline.NewHandler(testConfig(), objectstore.NewMemoryStore(), filter.NewRegistry(filter.GoEngine{}), pipeline.WithMetricsWriter(io.Discard))
	router := NewServer(h, gallery.New(objectstore.NewMemoryStore(), "b", "r"), WithMetrics("Test", io.Discard)).Router()

	oversized := `{"name":"public/cat/source.png","filter":"ep","pad":"` + strings.Repeat("x", maxRequestBody) + `"}`
	tests := []struct {
		name    string
		body    io.Reader
		status  int
		message string
	}{
		{"oversized", strings.NewReader(oversized), http.StatusRequestEntityTooLarge, "request body too large"},
		{"broken reader", iotest.ErrReader(errors.New("connection reset")), http.StatusBadRequest, "could not read request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/filter", tt.body))
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			var body errorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body.Error != tt.message {
				t.Errorf("error = %q, want %q", body.Error, tt.message)
			}
			if body.RequestID == "" {
				t.Error("error body should carry the request ID")
			}
		})
	}
}

func TestGallery(t *testing.T) {
	srv, store := newTestServer(t, testConfig())
	_ = store.Put(context.Background(), "public/cat/ep.png", []byte("x"), "image/png")
	_ = store.Put(context.Background(), "public/cat/ep.json", []byte(`{"sigma_s":5}`), "application/json")

	resp, err := http.Get(srv.URL + "/api/gallery?prefix=public/cat/&params=true")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	images, _ := body["images"].(map[string]any)
	if images["source"] != "https://b.s3.ap-northeast-2.amazonaws.com/public/cat/source.png" {
		t.Errorf("source = %v", images["source"])
	}
	if images["edgePreserving"] != "https://b.s3.ap-northeast-2.amazonaws.com/public/cat/ep.png" {
		t.Errorf("edgePreserving = %v", images["edgePreserving"])
	}
	params, _ := body["params"].(map[string]any)
	if ep, _ := params["edgePreserving"].(map[string]any); ep["sigma_s"] != 5.0 {
		t.Errorf("params = %v", params)
	}

	for query, want := range map[string]int{"": http.StatusBadRequest, "?prefix=public/cat/&params=maybe": http.StatusBadRequest} {
		resp, err := http.Get(srv.URL + "/api/gallery" + query)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != want {
			t.Errorf("GET gallery%s status = %d, want %d", query, resp.StatusCode, want)
		}
	}
}

func TestOriginVerify(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(), WithOriginVerify("s3cret"))
	body := `{"name":"public/cat/source.png","filter":"ep"}`

	for header, want := range map[string]int{"": http.StatusForbidden, "wrong": http.StatusForbidden, "s3cret": http.StatusOK} {
		req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/filter", strings.NewReader(body))
		if header != "" {
			req.Header.Set("x-origin-verify", header)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != want {
			t.Errorf("x-origin-verify=%q status = %d, want %d", header, resp.StatusCode, want)
		}
	}

	resp, err := http.Get(srv.URL + "/api/gallery?prefix=public/cat/")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("gallery without secret status = %d, want 403", resp.StatusCode)
	}
	denied := decodeBody(t, resp)
	if id, _ := denied["requestId"].(string); denied["error"] != "forbidden" || id == "" {
		t.Errorf("forbidden body = %v", denied)
	}
}

func TestMetricsMiddleware(t *testing.T) {
	var buf bytes.Buffer
	srv, _ := newTestServer(t, testConfig(), WithMetrics("Test", &buf))
	resp, err := http.Get(srv.URL + "/api/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	var doc map[string]any
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("EMF output: %v\n%s", err, buf.String())
	}
	if doc["Endpoint"] != "/api/health" {
		t.Errorf("Endpoint = %v", doc["Endpoint"])
	}
	if doc["statusCode"] != 200.0 {
		t.Errorf("statusCode = %v", doc["statusCode"])
	}
}

func TestStatusFor(t *testing.T) {
	tests := map[error]int{
		fmt.Errorf("x: %w", pipeline.ErrInvalidRequest): http.StatusBadRequest,
		fmt.Errorf("x: %w", filter.ErrUnknownFilter):    http.StatusBadRequest,
		gallery.ErrEmptyPrefix:                          http.StatusBadRequest,
		fmt.Errorf("x: %w", objectstore.ErrNotFound):    http.StatusNotFound,
		fmt.Errorf("x: %w", pipeline.ErrDecode):         http.StatusInternalServerError,
	}
	for err, want := range tests {
		if got := StatusFor(err); got != want {
			t.Errorf("StatusFor(%v) = %d, want %d", err, got, want)
		}
	}
}
