// Package main provides the API Gateway Lambda for the filter pipeline.
//
// Endpoints:
//
//	GET  /api/health   health check
//	POST /api/filter   run one filter invocation
//	GET  /api/gallery  list the outputs stored for a source prefix
//
// Requests other than the health check must carry x-origin-verify when
// ORIGIN_VERIFY_SECRET is set, so only CloudFront can reach the API.
package main

import (
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/rs/zerolog/log"

	"github.com/fpang/cartoonaf/internal/api"
	"github.com/fpang/cartoonaf/internal/gallery"
	"github.com/fpang/cartoonaf/internal/lambdaboot"
	"github.com/fpang/cartoonaf/internal/pipeline"
)

func main() {
	rt := lambdaboot.Init("api-lambda")
	if rt.Config.OriginVerifySecret == "" {
		log.Warn().Msg("ORIGIN_VERIFY_SECRET not set, origin verification disabled")
	}

	srv := api.NewServer(
		pipeline.NewHandler(rt.Config, rt.Store, rt.Filters),
		gallery.New(rt.Store, rt.Config.Bucket, rt.Config.URLRegion),
		api.WithOriginVerify(rt.Config.OriginVerifySecret),
		api.WithMetrics(rt.Config.MetricsNamespace, nil),
	)

	adapter := httpadapter.NewV2(srv.Router())
	lambda.Start(adapter.ProxyWithContext)
}
