// Package config holds the explicit runtime configuration shared by the
// Lambdas and the CLI. Values are read from the environment once at cold
// start and then passed by value into handlers; nothing reads the environment
// on the request path.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator"
)

// KeyStrategy selects how the destination directory is derived.
type KeyStrategy string

const (
	// KeyBasename uses the source name without its extension.
	KeyBasename KeyStrategy = "basename"
	// KeyHash uses the SHA-256 of the source bytes.
	KeyHash KeyStrategy = "hash"
)

// Filter engines.
const (
	EngineGo     = "go"
	EngineOpenCV = "opencv"
)

// Defaults.
const (
	DefaultURLRegion        = "ap-northeast-2"
	DefaultMetricsNamespace = "Cartoonaf"
)

// Environment variable names.
const (
	EnvBucket              = "BUCKET_NAME"
	EnvBucketParam         = "BUCKET_NAME_PARAM"
	EnvURLRegion           = "URL_REGION"
	EnvKeyStrategy         = "KEY_STRATEGY"
	EnvCacheBust           = "CACHE_BUST"
	EnvStrictFilters       = "STRICT_FILTERS"
	EnvFailOnMissingSource = "FAIL_ON_MISSING_SOURCE"
	EnvEngine              = "FILTER_ENGINE"
	EnvMetricsNamespace    = "METRICS_NAMESPACE"
	EnvOriginVerifySecret  = "ORIGIN_VERIFY_SECRET"
)

// ErrInvalid is returned when a loaded Config fails validation.
var ErrInvalid = errors.New("invalid configuration")

// Config is the per-process configuration.
type Config struct {
	// Bucket holds both source and filtered objects.
	Bucket string `validate:"required"`
	// BucketParam is an SSM parameter that supplies Bucket when BUCKET_NAME
	// is unset.
	BucketParam string
	// URLRegion is the region written into public object URLs.
	URLRegion   string      `validate:"required"`
	KeyStrategy KeyStrategy `validate:"oneof=basename hash"`
	// CacheBust appends ?t=<unix millis> to destination URLs.
	CacheBust bool
	// StrictFilters turns an unknown filter token into an error instead of a
	// response without an output URL.
	StrictFilters bool
	// FailOnMissingSource stops the pipeline at a missing source object
	// instead of continuing into a decode failure.
	FailOnMissingSource bool
	Engine              string `validate:"oneof=go opencv"`
	MetricsNamespace    string `validate:"required"`
	// OriginVerifySecret, when set, is required in the x-origin-verify
	// header of every API request except the health check.
	OriginVerifySecret string
}

// Default returns the configuration used when no variables are set, minus the
// bucket.
func Default() Config {
	return Config{
		URLRegion:        DefaultURLRegion,
		KeyStrategy:      KeyBasename,
		CacheBust:        true,
		Engine:           EngineGo,
		MetricsNamespace: DefaultMetricsNamespace,
	}
}

// FromEnv reads the configuration from the process environment. It does not
// validate: the bucket may still arrive from SSM.
func FromEnv() (Config, error) {
	return FromLookup(os.Getenv)
}

// FromLookup reads the configuration through getenv.
func FromLookup(getenv func(string) string) (Config, error) {
	cfg := Default()
	cfg.Bucket = strings.TrimSpace(getenv(EnvBucket))
	cfg.BucketParam = strings.TrimSpace(getenv(EnvBucketParam))
	cfg.OriginVerifySecret = getenv(EnvOriginVerifySecret)

	if v := getenv(EnvURLRegion); v != "" {
		cfg.URLRegion = v
	}
	if v := getenv(EnvKeyStrategy); v != "" {
		cfg.KeyStrategy = KeyStrategy(strings.ToLower(v))
	}
	if v := getenv(EnvEngine); v != "" {
		cfg.Engine = strings.ToLower(v)
	}
	if v := getenv(EnvMetricsNamespace); v != "" {
		cfg.MetricsNamespace = v
	}

	var err error
	if cfg.CacheBust, err = boolVar(getenv, EnvCacheBust, cfg.CacheBust); err != nil {
		return Config{}, err
	}
	if cfg.StrictFilters, err = boolVar(getenv, EnvStrictFilters, cfg.StrictFilters); err != nil {
		return Config{}, err
	}
	if cfg.FailOnMissingSource, err = boolVar(getenv, EnvFailOnMissingSource, cfg.FailOnMissingSource); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks required fields and enumerations.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

func boolVar(getenv func(string) string, name string, def bool) (bool, error) {
	raw := strings.TrimSpace(getenv(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalid, name, raw)
	}
	return v, nil
}
