// Package main provides the Lambda entry point for the filter pipeline.
//
// The Lambda is invoked directly (SDK Invoke or a front end through the AWS
// SDK) with a JSON event: {"name":"cat.jpg","filter":"ep","sigma_s":60,...}.
// It downloads the source from BUCKET_NAME, applies the filter, uploads the
// filtered image and its parameter record under public/<base>/, and returns
// {"statusCode":200,"body":{"images":{...}}}.
//
// Memory: 1024 MB
// Timeout: 1 minute
package main

import (
	"context"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/rs/zerolog/log"

	"github.com/fpang/cartoonaf/internal/lambdaboot"
	"github.com/fpang/cartoonaf/internal/pipeline"
)

var (
	filterHandler *pipeline.Handler
	coldStart     = true
)

func init() {
	rt := lambdaboot.Init("filter-lambda")
	filterHandler = pipeline.NewHandler(rt.Config, rt.Store, rt.Filters)
}

func handler(ctx context.Context, req pipeline.Request) (pipeline.Response, error) {
	start := time.Now()
	if coldStart {
		coldStart = false
		log.Info().Str("function", "filter-lambda").Msg("Cold start, first invocation")
	}

	resp, err := filterHandler.Handle(ctx, req)
	if err != nil {
		return pipeline.Response{}, err
	}

	evt := log.Info().Dur("elapsed", time.Since(start)).Int("outputs", len(resp.Body.Images))
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		evt = evt.Str("requestId", lc.AwsRequestID)
	}
	evt.Msg("Filter invocation complete")
	return resp, nil
}

func main() {
	lambda.Start(handler)
}
