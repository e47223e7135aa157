// Package lambdaboot provides the shared Lambda cold-start bootstrap.
//
// Both Lambdas need the same things at init: configuration from the
// environment, AWS config, an S3-backed store, an optional SSM lookup for the
// bucket name, a filter engine, and one startup log line. Each Lambda's
// init() is a short composition of these helpers.
package lambdaboot

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"

	"github.com/fpang/cartoonaf/internal/config"
	"github.com/fpang/cartoonaf/internal/filter"
	"github.com/fpang/cartoonaf/internal/logging"
	"github.com/fpang/cartoonaf/internal/objectstore"
)

// ParameterGetter is the SSM call used to resolve the bucket name.
type ParameterGetter interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Runtime is everything a Lambda needs after cold start.
type Runtime struct {
	Config  config.Config
	AWS     aws.Config
	Store   *objectstore.S3Store
	Filters *filter.Registry
}

// InitAWS loads the default AWS config. Fatals on error.
func InitAWS() aws.Config {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load AWS config")
	}
	log.Debug().Str("region", cfg.Region).Msg("AWS config loaded")
	return cfg
}

// ResolveBucket fills cfg.Bucket from the SSM parameter cfg.BucketParam when
// BUCKET_NAME was not set. It is a no-op when the bucket is already known.
func ResolveBucket(ctx context.Context, client ParameterGetter, cfg *config.Config) error {
	if cfg.Bucket != "" || cfg.BucketParam == "" {
		return nil
	}
	start := time.Now()
	out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name: aws.String(cfg.BucketParam),
	})
	if err != nil {
		return fmt.Errorf("SSM GetParameter %s: %w", cfg.BucketParam, err)
	}
	if out.Parameter == nil || aws.ToString(out.Parameter.Value) == "" {
		return fmt.Errorf("SSM parameter %s is empty", cfg.BucketParam)
	}
	cfg.Bucket = strings.TrimSpace(aws.ToString(out.Parameter.Value))
	log.Debug().Str("param", cfg.BucketParam).Dur("elapsed", time.Since(start)).Msg("Bucket name loaded from SSM")
	return nil
}

// Init runs the whole cold start for the Lambda called name and emits the
// startup log. Any failure is fatal: a Lambda without a bucket or an engine
// cannot serve a single request.
func Init(name string) Runtime {
	initStart := time.Now()
	logging.Init()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid environment")
	}
	awsCfg := InitAWS()
	if err := ResolveBucket(context.Background(), ssm.NewFromConfig(awsCfg), &cfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to resolve bucket name")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	engine, err := filter.NewEngine(cfg.Engine)
	if err != nil {
		log.Fatal().Err(err).Str("engine", cfg.Engine).Msg("Filter engine unavailable")
	}

	rt := Runtime{
		Config:  cfg,
		AWS:     awsCfg,
		Store:   objectstore.NewS3Store(s3.NewFromConfig(awsCfg), cfg.Bucket),
		Filters: filter.NewRegistry(engine),
	}
	StartupLog(name, initStart, cfg).Log()
	return rt
}

// StartupLog prepares the cold-start summary for cfg.
func StartupLog(name string, initStart time.Time, cfg config.Config) *logging.StartupLogger {
	sl := logging.NewStartupLogger(name).
		InitDuration(time.Since(initStart)).
		S3Bucket("bucket", cfg.Bucket).
		Feature("cacheBust", cfg.CacheBust).
		Feature("strictFilters", cfg.StrictFilters).
		Feature("failOnMissingSource", cfg.FailOnMissingSource).
		Feature("originVerify", cfg.OriginVerifySecret != "").
		Config("engine", cfg.Engine).
		Config("keyStrategy", string(cfg.KeyStrategy)).
		Config("urlRegion", cfg.URLRegion).
		Config("metricsNamespace", cfg.MetricsNamespace)
	if cfg.BucketParam != "" {
		sl.SSMParam("bucket", cfg.BucketParam)
	}
	if commit := os.Getenv("COMMIT_HASH"); commit != "" {
		sl.CommitHash(commit)
	}
	return sl
}
