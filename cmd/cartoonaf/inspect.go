package main

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/cartoonaf/internal/imagecodec"
)

type inspectResult struct {
	File     string               `json:"file"`
	Format   string               `json:"format"`
	Width    int                  `json:"width"`
	Height   int                  `json:"height"`
	MIMEType string               `json:"mimeType"`
	Metadata *imagecodec.Metadata `json:"metadata,omitempty"`
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect IN",
		Short: "Print image dimensions and EXIF metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			res, err := inspect(args[0], data)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}

func inspect(file string, data []byte) (inspectResult, error) {
	conf, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return inspectResult{}, fmt.Errorf("decode %s header: %w", file, err)
	}
	res := inspectResult{
		File:     file,
		Format:   format,
		Width:    conf.Width,
		Height:   conf.Height,
		MIMEType: imagecodec.MIMEType(filepath.Ext(file)),
	}
	md, err := imagecodec.ReadMetadata(data)
	if err != nil {
		log.Debug().Err(err).Str("file", file).Msg("No EXIF metadata")
		return res, nil
	}
	res.Metadata = md
	return res, nil
}
