package converter

import (
	"fmt"
	"math"
	"strings"
)

// Quality selects how much page dimensions are scaled down.
type Quality string

const (
	QualityLow    Quality = "low"
	QualityMedium Quality = "medium"
	QualityHigh   Quality = "high"
)

// DefaultQuality is used for empty or unrecognised quality values.
const DefaultQuality = QualityMedium

// scaleFactors is the only source of scale factors. Both the size estimate and the
// assembler read it.
var scaleFactors = map[Quality]float64{
	QualityLow:    0.4,
	QualityMedium: 0.7,
	QualityHigh:   0.9,
}

// ParseQuality maps a user supplied string onto a Quality, falling back to medium.
func ParseQuality(s string) Quality {
	q := Quality(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := scaleFactors[q]; ok {
		return q
	}
	return DefaultQuality
}

// Valid reports whether q is one of the known settings.
func (q Quality) Valid() bool {
	_, ok := scaleFactors[q]
	return ok
}

// ScaleFactor returns the multiplier applied to both page dimensions, in (0, 1].
func ScaleFactor(q Quality) float64 {
	if f, ok := scaleFactors[q]; ok {
		return f
	}
	return scaleFactors[DefaultQuality]
}

// EstimateOutputSize is the advisory output size shown before conversion:
// originalTotal times the scale factor, rounded to the nearest whole byte.
func EstimateOutputSize(originalTotal int64, q Quality) int64 {
	return int64(math.Round(float64(originalTotal) * ScaleFactor(q)))
}

// CompressionRatio is original/estimated, or 1 when estimated is 0.
func CompressionRatio(original, estimated int64) float64 {
	if estimated == 0 {
		return 1
	}
	return float64(original) / float64(estimated)
}

// SizeReduction converts a compression ratio into a whole percentage saved.
func SizeReduction(ratio float64) int {
	if ratio <= 0 {
		return 0
	}
	return int(math.Round((1 - 1/ratio) * 100))
}

// SizeEstimate summarises the expected effect of a quality setting on a batch.
type SizeEstimate struct {
	Quality          Quality `json:"quality"`
	ScaleFactor      float64 `json:"scale_factor"`
	OriginalBytes    int64   `json:"original_bytes"`
	EstimatedBytes   int64   `json:"estimated_bytes"`
	CompressionRatio float64 `json:"compression_ratio"`
	ReductionPercent int     `json:"reduction_percent"`
}

// EstimateSizes builds a SizeEstimate from the original sizes of a batch.
func EstimateSizes(sizes []int64, q Quality) SizeEstimate {
	var total int64
	for _, s := range sizes {
		total += s
	}
	q = ParseQuality(string(q))
	estimated := EstimateOutputSize(total, q)
	ratio := CompressionRatio(total, estimated)
	return SizeEstimate{
		Quality:          q,
		ScaleFactor:      ScaleFactor(q),
		OriginalBytes:    total,
		EstimatedBytes:   estimated,
		CompressionRatio: ratio,
		ReductionPercent: SizeReduction(ratio),
	}
}

// Estimate is EstimateSizes over the original sizes of images.
func Estimate(images []SourceImage, q Quality) SizeEstimate {
	sizes := make([]int64, len(images))
	for i, img := range images {
		sizes[i] = img.Size
	}
	return EstimateSizes(sizes, q)
}

// FormatSize renders a byte count as B, KB or MB with one decimal.
func FormatSize(bytes int64) string {
	switch {
	case bytes < 1024:
		return fmt.Sprintf("%d B", bytes)
	case bytes < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	}
}
