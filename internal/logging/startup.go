package logging

import (
	"os"
	"runtime"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// StartupLogger gathers what a Lambda was wired with at cold start (buckets,
// SSM parameters, feature toggles, plain config) and writes it as a single
// structured event, so one CloudWatch line answers "how was this container
// configured".
type StartupLogger struct {
	name         string
	commitHash   string
	initDuration time.Duration

	s3Buckets map[string]string
	ssmParams map[string]string
	features  map[string]bool
	config    map[string]string
}

// NewStartupLogger creates a StartupLogger for the named binary
// (e.g. "filter-lambda").
func NewStartupLogger(name string) *StartupLogger {
	return &StartupLogger{
		name:      name,
		s3Buckets: make(map[string]string),
		ssmParams: make(map[string]string),
		features:  make(map[string]bool),
		config:    make(map[string]string),
	}
}

// CommitHash records the build commit injected via -ldflags.
func (s *StartupLogger) CommitHash(hash string) *StartupLogger {
	s.commitHash = hash
	return s
}

// S3Bucket registers a bucket the binary reads or writes.
func (s *StartupLogger) S3Bucket(label, name string) *StartupLogger {
	s.s3Buckets[label] = name
	return s
}

// SSMParam registers the path of an SSM parameter. The value is never logged.
func (s *StartupLogger) SSMParam(label, path string) *StartupLogger {
	s.ssmParams[label] = path
	return s
}

// Feature registers a boolean toggle such as "strictFilters".
func (s *StartupLogger) Feature(name string, enabled bool) *StartupLogger {
	s.features[name] = enabled
	return s
}

// Config registers a non-sensitive key/value.
func (s *StartupLogger) Config(key, value string) *StartupLogger {
	s.config[key] = value
	return s
}

// InitDuration records how long init() took.
func (s *StartupLogger) InitDuration(d time.Duration) *StartupLogger {
	s.initDuration = d
	return s
}

// Log writes the collected state as one INFO event.
func (s *StartupLogger) Log() {
	evt := log.Info()

	lambdaDict := zerolog.Dict().
		Str("name", s.name).
		Str("functionName", os.Getenv("AWS_LAMBDA_FUNCTION_NAME")).
		Str("version", os.Getenv("AWS_LAMBDA_FUNCTION_VERSION")).
		Str("region", os.Getenv("AWS_REGION")).
		Str("memoryMB", os.Getenv("AWS_LAMBDA_FUNCTION_MEMORY_SIZE")).
		Str("goVersion", runtime.Version()).
		Str("arch", runtime.GOARCH).
		Str("logLevel", os.Getenv(LevelEnvVar))
	if s.commitHash != "" {
		lambdaDict = lambdaDict.Str("commitHash", s.commitHash)
	}
	evt = evt.Dict("lambda", lambdaDict)

	if len(s.s3Buckets) > 0 || len(s.ssmParams) > 0 {
		resources := zerolog.Dict()
		if len(s.s3Buckets) > 0 {
			resources = resources.Dict("s3Buckets", dictFromMap(s.s3Buckets))
		}
		if len(s.ssmParams) > 0 {
			resources = resources.Dict("ssmParams", dictFromMap(s.ssmParams))
		}
		evt = evt.Dict("resources", resources)
	}

	if len(s.features) > 0 {
		d := zerolog.Dict()
		for _, k := range sortedKeys(s.features) {
			d = d.Bool(k, s.features[k])
		}
		evt = evt.Dict("features", d)
	}

	if len(s.config) > 0 {
		evt = evt.Dict("config", dictFromMap(s.config))
	}

	if s.initDuration > 0 {
		evt = evt.Dur("initDuration", s.initDuration)
	}

	evt.Msg("Lambda cold start complete")
}

func dictFromMap(m map[string]string) *zerolog.Event {
	d := zerolog.Dict()
	for _, k := range sortedKeys(m) {
		d = d.Str(k, m[k])
	}
	return d
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
