package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fpang/cartoonaf/internal/config"
	"github.com/fpang/cartoonaf/internal/filter"
	"github.com/fpang/cartoonaf/internal/imagecodec"
	"github.com/fpang/cartoonaf/internal/metrics"
	"github.com/fpang/cartoonaf/internal/objectstore"
)

// Response keys that are always present.
const (
	KeySource = "source"
	KeyParams = "params"
)

// unresolvedFilter is the Filter metric dimension for tokens outside the
// closed filter set.
const unresolvedFilter = "unknown"

// Response is the invocation result in the API Gateway proxy shape.
type Response struct {
	StatusCode int  `json:"statusCode"`
	Body       Body `json:"body"`
}

// Body carries the URL map. Images holds KeySource, KeyParams and, when a
// filter ran, the kind's response key.
type Body struct {
	Images map[string]any `json:"images"`
}

// Handler runs invocations against one store and one filter registry.
type Handler struct {
	cfg        config.Config
	store      objectstore.Store
	filters    *filter.Registry
	clock      func() time.Time
	metricsOut io.Writer
}

// Option configures a Handler.
type Option func(*Handler)

// WithClock overrides the time source used for latencies and cache-busting
// query strings.
func WithClock(clock func() time.Time) Option {
	return func(h *Handler) { h.clock = clock }
}

// WithMetricsWriter sends EMF documents to w instead of stdout.
func WithMetricsWriter(w io.Writer) Option {
	return func(h *Handler) { h.metricsOut = w }
}

// NewHandler builds a Handler. cfg is used as given; validate it first.
func NewHandler(cfg config.Config, store objectstore.Store, filters *filter.Registry, opts ...Option) *Handler {
	h := &Handler{
		cfg:        cfg,
		store:      store,
		filters:    filters,
		clock:      time.Now,
		metricsOut: os.Stdout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle runs one invocation. Errors wrap ErrInvalidRequest, ErrDecode,
// filter.ErrUnknownFilter (strict filters only), objectstore.ErrNotFound
// (strict missing source only) or the underlying storage and codec faults.
func (h *Handler) Handle(ctx context.Context, req Request) (resp Response, err error) {
	start := h.clock()
	dimension := unresolvedFilter
	if k, err := filter.ParseKind(req.Filter); err == nil {
		dimension = k.Token()
	}
	rec := metrics.NewWithWriter(h.cfg.MetricsNamespace, h.metricsOut)

	logger := log.With().
		Str("name", req.Name).
		Str("filter", req.Filter).
		Str("requestId", RequestID(ctx)).
		Logger()

	defer func() {
		rec.Dimension("Filter", dimension)
		if err != nil {
			rec.Count("Errors")
			logger.Error().Err(err).Msg("Filter invocation failed")
		}
		rec.Duration("TotalLatencyMs", h.clock().Sub(start))
		rec.Flush()
	}()

	if err := req.Validate(); err != nil {
		return Response{}, err
	}
	ext := path.Ext(req.Name)
	params := req.Params()
	logger.Info().Interface("params", params).Msg("Processing filter request")

	source, err := h.fetchSource(ctx, logger, req.Name)
	if err != nil {
		return Response{}, err
	}
	rec.Metric("SourceBytes", float64(len(source)), metrics.UnitBytes)

	img, err := imagecodec.Decode(source)
	if err != nil {
		return Response{}, fmt.Errorf("%w %s: %w", ErrDecode, req.Name, err)
	}

	base := DestinationBase(h.cfg.KeyStrategy, req.Name, source)
	images := map[string]any{
		KeySource: objectstore.URL(h.cfg.Bucket, h.cfg.URLRegion, req.Name),
		KeyParams: params,
	}

	capability, err := h.filters.Lookup(req.Filter)
	switch {
	case err == nil:
	case errors.Is(err, filter.ErrUnknownFilter) && !h.cfg.StrictFilters:
		// An unresolved token never reaches an object key.
		logger.Warn().Err(err).Msg("Unknown filter, no image or parameter record produced")
		return Response{StatusCode: 200, Body: Body{Images: images}}, nil
	default:
		return Response{}, err
	}

	key, size, err := h.applyAndStore(ctx, rec, capability, img, params, base, ext)
	if err != nil {
		return Response{}, err
	}
	rec.Metric("OutputBytes", float64(size), metrics.UnitBytes)
	images[capability.Kind.ResponseKey()] = h.destinationURL(key)
	logger.Info().Str("key", key).Int("bytes", size).Msg("Filtered image uploaded")

	paramsKey := ParamsKey(base, capability.Kind.Token())
	data, err := json.Marshal(params)
	if err != nil {
		return Response{}, fmt.Errorf("marshal params: %w", err)
	}
	if err := h.store.Put(ctx, paramsKey, data, "application/json"); err != nil {
		return Response{}, fmt.Errorf("upload %s: %w", paramsKey, err)
	}
	logger.Debug().Str("key", paramsKey).Msg("Parameter record uploaded")

	return Response{StatusCode: 200, Body: Body{Images: images}}, nil
}

// fetchSource downloads the source object. A missing object yields empty
// bytes unless FailOnMissingSource is set.
func (h *Handler) fetchSource(ctx context.Context, logger zerolog.Logger, name string) ([]byte, error) {
	data, err := h.store.Get(ctx, name)
	if err == nil {
		return data, nil
	}
	if !objectstore.IsNotFound(err) || h.cfg.FailOnMissingSource {
		return nil, fmt.Errorf("download %s: %w", name, err)
	}
	logger.Warn().Err(err).Msg("Source object not found, continuing with empty data")
	return nil, nil
}

func (h *Handler) applyAndStore(ctx context.Context, rec *metrics.Recorder, c filter.Capability, img image.Image, p filter.Params, base, ext string) (string, int, error) {
	filterStart := h.clock()
	out, err := c.Apply(ctx, img, p)
	if err != nil {
		return "", 0, err
	}
	rec.Duration("FilterLatencyMs", h.clock().Sub(filterStart))

	data, err := imagecodec.EncodeBytes(out, ext)
	if err != nil {
		return "", 0, fmt.Errorf("encode %s output: %w", c.Kind.Token(), err)
	}
	key := ImageKey(base, c.Kind.Token(), ext)
	if err := h.store.Put(ctx, key, data, imagecodec.MIMEType(ext)); err != nil {
		return "", 0, fmt.Errorf("upload %s: %w", key, err)
	}
	return key, len(data), nil
}

func (h *Handler) destinationURL(key string) string {
	if h.cfg.CacheBust {
		return objectstore.CacheBustedURL(h.cfg.Bucket, h.cfg.URLRegion, key, h.clock())
	}
	return objectstore.URL(h.cfg.Bucket, h.cfg.URLRegion, key)
}

type requestIDKey struct{}

// WithRequestID attaches a request ID for log correlation outside Lambda.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the ID set by WithRequestID, else the Lambda request ID,
// else "".
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		return lc.AwsRequestID
	}
	return ""
}
