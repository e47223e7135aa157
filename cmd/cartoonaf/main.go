// Command cartoonaf runs the image filters locally and against a bucket.
//
//	cartoonaf apply --filter ep --sigma-s 60 --sigma-r 0.4 in.jpg out.jpg
//	cartoonaf run --bucket cartoonaf --name public/cat/source.jpg --filter style
//	cartoonaf gallery --bucket cartoonaf --prefix public/cat/
//	cartoonaf inspect photo.jpg
//	cartoonaf filters
package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/cartoonaf/internal/logging"
)

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "cartoonaf",
		Short: "Non-photorealistic image filters backed by S3",
		Long: `cartoonaf applies edge-preserving, detail-enhance, stylization and pencil
sketch filters to images, either to local files or through the same pipeline
the Lambda runs against an S3 bucket.

Configuration is read from the same environment variables as the Lambdas
(BUCKET_NAME, URL_REGION, KEY_STRATEGY, FILTER_ENGINE, ...). Flags override
them.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Init()
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newApplyCmd(),
		newRunCmd(),
		newGalleryCmd(),
		newInspectCmd(),
		newFiltersCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
