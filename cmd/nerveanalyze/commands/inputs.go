package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nerve-tracer/internal/analysis"
	"nerve-tracer/internal/errors"
	"nerve-tracer/internal/logger"
	"nerve-tracer/internal/raster"
)

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().String("image", "", "Illumination-corrected grayscale image (required)")
	cmd.Flags().String("mask", "", "Binary foreground mask (required)")
	cmd.Flags().String("skeleton", "", "One-pixel-wide skeleton, values 0/255 (required)")
	cmd.Flags().String("intensity", "", "Optional intensity raster; defaults to the image on the skeleton")
	_ = cmd.MarkFlagRequired("image")
	_ = cmd.MarkFlagRequired("mask")
	_ = cmd.MarkFlagRequired("skeleton")
}

func loadInputs(cmd *cobra.Command) (analysis.Inputs, error) {
	var in analysis.Inputs
	targets := []struct {
		flag string
		dst  **raster.Raster
	}{
		{"image", &in.Image},
		{"mask", &in.Foreground},
		{"skeleton", &in.Skeleton},
		{"intensity", &in.Intensity},
	}
	for _, t := range targets {
		path, _ := cmd.Flags().GetString(t.flag)
		if path == "" {
			continue
		}
		r, err := raster.Load(path)
		if err != nil {
			return analysis.Inputs{}, errors.Wrapf(err, "load --%s", t.flag)
		}
		log.Debug("raster loaded",
			zap.String(logger.FieldFile, path),
			zap.Int("width", r.Width),
			zap.Int("height", r.Height))
		*t.dst = r
	}
	return in, nil
}
