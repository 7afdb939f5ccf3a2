package converter

import (
	"fmt"
	"math"
	"time"
)

// ProgressFunc receives the percentage of images processed so far.
// It is called synchronously from the conversion loop, once per image, and must not block.
type ProgressFunc func(percent int)

// ProgressPercent returns round(100 * done / total).
func ProgressPercent(done, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(done) / float64(total)))
}

// StatusMessage describes a conversion at the given percentage.
func StatusMessage(percent int) string {
	switch {
	case percent < 25:
		return "Preparing images..."
	case percent < 50:
		return "Processing images..."
	case percent < 75:
		return "Creating PDF..."
	case percent < 100:
		return "Finalizing..."
	default:
		return "Conversion complete!"
	}
}

// EstimateRemaining extrapolates the time left from the time spent so far.
// It reports false when percent is outside (0, 100).
func EstimateRemaining(elapsed time.Duration, percent int) (time.Duration, bool) {
	if percent <= 0 || percent >= 100 {
		return 0, false
	}
	total := time.Duration(float64(elapsed) / float64(percent) * 100)
	return total - elapsed, true
}

// FormatRemaining renders a remaining-time estimate for display.
func FormatRemaining(remaining time.Duration, percent int) string {
	switch {
	case percent >= 100:
		return "Complete!"
	case remaining < time.Second:
		return "Almost done..."
	case remaining < time.Minute:
		return fmt.Sprintf("%d seconds remaining", int(math.Ceil(remaining.Seconds())))
	default:
		return fmt.Sprintf("%d minutes remaining", int(math.Ceil(remaining.Minutes())))
	}
}
