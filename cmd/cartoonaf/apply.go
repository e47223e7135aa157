package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/cartoonaf/internal/filter"
	"github.com/fpang/cartoonaf/internal/imagecodec"
	"github.com/fpang/cartoonaf/internal/pipeline"
)

// filterFlags are the request fields shared by apply and run.
type filterFlags struct {
	filter      string
	flags       int
	sigmaS      float64
	sigmaR      float64
	shadeFactor float64
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.filter, "filter", "f", "", "Filter token: ep, de, style, ps_gray, ps_color (long aliases accepted)")
	cmd.Flags().IntVar(&f.flags, "flags", 0, "Edge-preserving mode: 2 for normalized convolution, anything else for the recursive filter")
	cmd.Flags().Float64Var(&f.sigmaS, "sigma-s", 0, "Spatial sigma")
	cmd.Flags().Float64Var(&f.sigmaR, "sigma-r", 0, "Range sigma")
	cmd.Flags().Float64Var(&f.shadeFactor, "shade", 0, "Pencil sketch shade factor")
	_ = cmd.MarkFlagRequired("filter")
}

// request builds a pipeline request. Unset numeric flags stay nil so the
// pipeline applies its own defaults.
func (f *filterFlags) request(cmd *cobra.Command, name string) pipeline.Request {
	req := pipeline.Request{Name: name, Filter: f.filter}
	if cmd.Flags().Changed("flags") {
		flags := float64(f.flags)
		req.Flags = &flags
	}
	if cmd.Flags().Changed("sigma-s") {
		req.SigmaS = &f.sigmaS
	}
	if cmd.Flags().Changed("sigma-r") {
		req.SigmaR = &f.sigmaR
	}
	if cmd.Flags().Changed("shade") {
		req.ShadeFactor = &f.shadeFactor
	}
	return req
}

func newApplyCmd() *cobra.Command {
	var (
		ff     filterFlags
		engine string
	)
	cmd := &cobra.Command{
		Use:   "apply IN OUT",
		Short: "Apply a filter to a local file",
		Long: `Apply reads IN, runs one filter, and writes OUT in the format implied by
OUT's extension. No AWS access is needed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := filter.NewEngine(engine)
			if err != nil {
				return err
			}
			params := ff.request(cmd, args[0]).Params()
			return applyFile(cmd.Context(), filter.NewRegistry(e), ff.filter, params, args[0], args[1])
		},
	}
	ff.register(cmd)
	cmd.Flags().StringVar(&engine, "engine", "go", "Filter engine: go or opencv")
	return cmd
}

func applyFile(ctx context.Context, reg *filter.Registry, token string, params filter.Params, in, out string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	capability, err := reg.Lookup(token)
	if err != nil {
		return err
	}
	ext := filepath.Ext(out)
	if !imagecodec.IsSupported(ext) {
		return fmt.Errorf("%w: %q", imagecodec.ErrUnsupportedFormat, ext)
	}

	data, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("read %s: %w", in, err)
	}
	img, err := imagecodec.Decode(data)
	if err != nil {
		return fmt.Errorf("%w %s: %w", pipeline.ErrDecode, in, err)
	}

	start := time.Now()
	filtered, err := capability.Apply(ctx, img, params)
	if err != nil {
		return err
	}
	encoded, err := imagecodec.EncodeBytes(filtered, ext)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, encoded, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	log.Info().
		Str("filter", capability.Kind.Token()).
		Str("engine", reg.Engine().Name()).
		Str("out", out).
		Int("bytes", len(encoded)).
		Dur("elapsed", time.Since(start)).
		Msg("Filter applied")
	return nil
}
