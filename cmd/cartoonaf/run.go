package main

import (
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/cartoonaf/internal/config"
	"github.com/fpang/cartoonaf/internal/filter"
	"github.com/fpang/cartoonaf/internal/lambdaboot"
	"github.com/fpang/cartoonaf/internal/objectstore"
	"github.com/fpang/cartoonaf/internal/pipeline"
)

// bucketFlags override the bucket-related environment.
type bucketFlags struct {
	bucket string
	region string
}

func (b *bucketFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&b.bucket, "bucket", "b", "", "Bucket name (default $BUCKET_NAME)")
	cmd.Flags().StringVar(&b.region, "url-region", "", "Region used in public URLs (default $URL_REGION or ap-northeast-2)")
}

// load reads the environment, applies the flags, and opens the S3 store.
func (b *bucketFlags) load(cmd *cobra.Command) (config.Config, *objectstore.S3Store, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return config.Config{}, nil, err
	}
	if b.bucket != "" {
		cfg.Bucket = b.bucket
	}
	if b.region != "" {
		cfg.URLRegion = b.region
	}

	awsCfg := lambdaboot.InitAWS()
	if err := lambdaboot.ResolveBucket(cmd.Context(), ssm.NewFromConfig(awsCfg), &cfg); err != nil {
		return config.Config{}, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, err
	}
	return cfg, objectstore.NewS3Store(s3.NewFromConfig(awsCfg), cfg.Bucket), nil
}

func newRunCmd() *cobra.Command {
	var (
		ff          filterFlags
		bf          bucketFlags
		name        string
		keyStrategy string
		strict      bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the filter pipeline against a bucket",
		Long: `Run performs exactly what the filter Lambda does for one event: download
--name from the bucket, filter it, upload the result and its parameter record
under public/<base>/, and print the response.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := bf.load(cmd)
			if err != nil {
				return err
			}
			if keyStrategy != "" {
				cfg.KeyStrategy = config.KeyStrategy(keyStrategy)
			}
			if strict {
				cfg.StrictFilters = true
				cfg.FailOnMissingSource = true
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			engine, err := filter.NewEngine(cfg.Engine)
			if err != nil {
				return err
			}

			requestID := uuid.NewString()
			log.Debug().Str("requestId", requestID).Str("bucket", cfg.Bucket).Msg("Running pipeline")

			h := pipeline.NewHandler(cfg, store, filter.NewRegistry(engine), pipeline.WithMetricsWriter(cmd.ErrOrStderr()))
			resp, err := h.Handle(pipeline.WithRequestID(cmd.Context(), requestID), ff.request(cmd, name))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	ff.register(cmd)
	bf.register(cmd)
	cmd.Flags().StringVarP(&name, "name", "n", "", "Source object key")
	cmd.Flags().StringVar(&keyStrategy, "key-strategy", "", "Destination key strategy: basename or hash (default $KEY_STRATEGY)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail on unknown filters and missing sources")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
