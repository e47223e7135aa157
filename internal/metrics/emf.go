// Package metrics emits custom CloudWatch metrics using the Embedded Metric
// Format (EMF). A Recorder writes one JSON line to stdout and CloudWatch Logs
// extracts the metrics from it, so there are no PutMetricData calls on the
// request path.
//
// See: https://docs.aws.amazon.com/AmazonCloudWatch/latest/monitoring/CloudWatch_Embedded_Metric_Format_Specification.html
package metrics

import (
	"encoding/json"
	"io"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
)

// CloudWatch metric units.
const (
	UnitMilliseconds = "Milliseconds"
	UnitCount        = "Count"
	UnitBytes        = "Bytes"
	UnitNone         = "None"
)

type metricDef struct {
	Name string `json:"Name"`
	Unit string `json:"Unit"`
}

type directive struct {
	Timestamp         int64          `json:"Timestamp"`
	CloudWatchMetrics []metricsBlock `json:"CloudWatchMetrics"`
}

type metricsBlock struct {
	Namespace  string      `json:"Namespace"`
	Dimensions [][]string  `json:"Dimensions"`
	Metrics    []metricDef `json:"Metrics"`
}

// Recorder accumulates one EMF document. It is not safe for concurrent use;
// create one per invocation.
type Recorder struct {
	namespace  string
	out        io.Writer
	now        func() time.Time
	dimensions map[string]string
	units      map[string]string
	values     map[string]float64
	properties map[string]any
}

// New creates a Recorder for namespace writing to stdout. The FunctionName
// dimension is filled from the Lambda environment when present.
func New(namespace string) *Recorder {
	return NewWithWriter(namespace, os.Stdout)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(namespace string, out io.Writer) *Recorder {
	r := &Recorder{
		namespace:  namespace,
		out:        out,
		now:        time.Now,
		dimensions: make(map[string]string),
		units:      make(map[string]string),
		values:     make(map[string]float64),
		properties: make(map[string]any),
	}
	if fn := os.Getenv("AWS_LAMBDA_FUNCTION_NAME"); fn != "" {
		r.dimensions["FunctionName"] = fn
	}
	return r
}

// Dimension adds an indexed dimension.
func (r *Recorder) Dimension(key, value string) *Recorder {
	r.dimensions[key] = value
	return r
}

// Metric records value under name with a CloudWatch unit. Recording the same
// name twice keeps the last value.
func (r *Recorder) Metric(name string, value float64, unit string) *Recorder {
	r.units[name] = unit
	r.values[name] = value
	return r
}

// Duration records d in milliseconds.
func (r *Recorder) Duration(name string, d time.Duration) *Recorder {
	return r.Metric(name, float64(d.Microseconds())/1000, UnitMilliseconds)
}

// Count records a count of one.
func (r *Recorder) Count(name string) *Recorder {
	return r.Metric(name, 1, UnitCount)
}

// Property attaches a searchable field that is not a metric.
func (r *Recorder) Property(key string, value any) *Recorder {
	r.properties[key] = value
	return r
}

// Flush writes the document as a single line. Nothing is written when no
// metric was recorded. The Recorder must not be reused afterwards.
func (r *Recorder) Flush() {
	if len(r.values) == 0 {
		return
	}

	names := make([]string, 0, len(r.values))
	for name := range r.values {
		names = append(names, name)
	}
	sort.Strings(names)
	defs := make([]metricDef, 0, len(names))
	for _, name := range names {
		defs = append(defs, metricDef{Name: name, Unit: r.units[name]})
	}

	dimKeys := make([]string, 0, len(r.dimensions))
	for k := range r.dimensions {
		dimKeys = append(dimKeys, k)
	}
	sort.Strings(dimKeys)

	doc := make(map[string]any, 1+len(r.dimensions)+len(r.values)+len(r.properties))
	for k, v := range r.properties {
		doc[k] = v
	}
	for k, v := range r.dimensions {
		doc[k] = v
	}
	for k, v := range r.values {
		doc[k] = v
	}
	doc["_aws"] = directive{
		Timestamp: r.now().UnixMilli(),
		CloudWatchMetrics: []metricsBlock{{
			Namespace:  r.namespace,
			Dimensions: [][]string{dimKeys},
			Metrics:    defs,
		}},
	}

	data, err := json.Marshal(doc)
	if err != nil {
		log.Warn().Err(err).Str("namespace", r.namespace).Msg("Failed to marshal EMF document")
		return
	}
	data = append(data, '\n')
	if _, err := r.out.Write(data); err != nil {
		log.Warn().Err(err).Msg("Failed to write EMF document")
	}
}
