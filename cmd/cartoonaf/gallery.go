package main

import (
	"github.com/spf13/cobra"

	"github.com/fpang/cartoonaf/internal/gallery"
)

func newGalleryCmd() *cobra.Command {
	var (
		bf         bucketFlags
		prefix     string
		withParams bool
	)
	cmd := &cobra.Command{
		Use:   "gallery",
		Short: "List the filtered outputs stored for a source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := bf.load(cmd)
			if err != nil {
				return err
			}
			listing, err := gallery.New(store, cfg.Bucket, cfg.URLRegion).List(cmd.Context(), prefix, withParams)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), listing)
		},
	}
	bf.register(cmd)
	cmd.Flags().StringVarP(&prefix, "prefix", "p", "", "Destination directory, e.g. public/cat/")
	cmd.Flags().BoolVar(&withParams, "params", false, "Include the stored parameter records")
	_ = cmd.MarkFlagRequired("prefix")
	return cmd
}
