// Package api exposes the filter pipeline and the gallery over HTTP for the
// API Gateway Lambda.
//
// Endpoints:
//
//	GET  /api/health                  health check (no origin check)
//	POST /api/filter                  run one filter invocation
//	GET  /api/gallery?prefix=&params= list stored outputs for a source
package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fpang/cartoonaf/internal/gallery"
	"github.com/fpang/cartoonaf/internal/pipeline"
)

// maxRequestBody caps the POST /api/filter payload. Requests carry a key,
// never image bytes.
const maxRequestBody = 64 << 10

// Invoker runs one filter request.
type Invoker interface {
	Handle(ctx context.Context, req pipeline.Request) (pipeline.Response, error)
}

// Lister lists a gallery.
type Lister interface {
	List(ctx context.Context, prefix string, withParams bool) (gallery.Listing, error)
}

// Server holds the handlers' dependencies.
type Server struct {
	invoker            Invoker
	gallery            Lister
	originVerifySecret string
	metricsNamespace   string
	metricsOut         io.Writer
}

// Option configures a Server.
type Option func(*Server)

// WithOriginVerify rejects requests whose x-origin-verify header differs from
// secret. An empty secret disables the check.
func WithOriginVerify(secret string) Option {
	return func(s *Server) { s.originVerifySecret = secret }
}

// WithMetrics emits one EMF document per request under namespace to w, or
// to stdout when w is nil.
func WithMetrics(namespace string, w io.Writer) Option {
	return func(s *Server) {
		s.metricsNamespace = namespace
		if w != nil {
			s.metricsOut = w
		}
	}
}

// NewServer returns a Server. Per-request metrics go to stdout under
// "Cartoonaf" unless WithMetrics says otherwise.
func NewServer(invoker Invoker, lister Lister, opts ...Option) *Server {
	s := &Server{
		invoker:          invoker,
		gallery:          lister,
		metricsNamespace: "Cartoonaf",
		metricsOut:       os.Stdout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the chi router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.CleanPath)
	r.Use(s.withMetrics)

	r.Get("/api/health", s.handleHealth)
	r.Group(func(r chi.Router) {
		r.Use(s.withOriginVerify)
		r.Post("/api/filter", s.handleFilter)
		r.Get("/api/gallery", s.handleGallery)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "cartoonaf",
	})
}

// POST /api/filter
// Body is a pipeline request: {"name":"cat.jpg","filter":"ep","sigma_s":60,...}.
func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpError(w, r, http.StatusRequestEntityTooLarge, "request body too large", nil)
			return
		}
		httpError(w, r, http.StatusBadRequest, "could not read request body", err)
		return
	}
	req, err := pipeline.ParseRequest(body)
	if err != nil {
		respondError(w, r, err)
		return
	}

	ctx := r.Context()
	if pipeline.RequestID(ctx) == "" {
		ctx = pipeline.WithRequestID(ctx, middleware.GetReqID(ctx))
	}
	resp, err := s.invoker.Handle(ctx, req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp.Body)
}

// GET /api/gallery?prefix=public/cat/&params=true
func (s *Server) handleGallery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	withParams := false
	if raw := q.Get("params"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			httpError(w, r, http.StatusBadRequest, "params must be a boolean", nil)
			return
		}
		withParams = v
	}

	listing, err := s.gallery.List(r.Context(), q.Get("prefix"), withParams)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, listing)
}
