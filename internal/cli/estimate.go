package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"image_to_pdf/internal/converter"
)

var estimateQuality string

var estimateCmd = &cobra.Command{
	Use:   "estimate [files or directories...]",
	Short: "Show the estimated PDF size for a quality setting",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runEstimate,
}

func init() {
	estimateCmd.Flags().StringVarP(&estimateQuality, "quality", "q", "", "quality: low, medium, high")
	rootCmd.AddCommand(estimateCmd)
}

func runEstimate(cmd *cobra.Command, args []string) error {
	paths, err := collectImagePaths(args)
	if err != nil {
		return err
	}

	sizes := make([]int64, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		sizes = append(sizes, info.Size())
	}

	quality := cfg.Quality()
	if estimateQuality != "" {
		quality = converter.ParseQuality(estimateQuality)
	}
	est := converter.EstimateSizes(sizes, quality)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Quality:           %s (scale %.1f)\n", est.Quality, est.ScaleFactor)
	fmt.Fprintf(out, "Original Size:     %s\n", converter.FormatSize(est.OriginalBytes))
	fmt.Fprintf(out, "Estimated Size:    %s\n", converter.FormatSize(est.EstimatedBytes))
	fmt.Fprintf(out, "Compression Ratio: %.1fx\n", est.CompressionRatio)
	fmt.Fprintf(out, "Reduction:         %d%%\n", est.ReductionPercent)
	return nil
}
